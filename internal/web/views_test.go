package web

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSafeReturn(t *testing.T) {
	tests := map[string]string{
		"/home?email=a%40b.com": "/home?email=a%40b.com",
		"/":                     "/",
		"":                      "/",
		"https://evil.example/": "/",
		"//evil.example/phish":  "/",
		"/\\evil.example":       "/",
		"home":                  "/",
		"/\t/evil.example":      "/",
		"/\n/evil.example":      "/",
		"/\r/evil.example":      "/",
		"/\x7f/evil.example":    "/",
		"/home\\..\\":           "/",
		"/%2F/evil.example":     "/%2F/evil.example",
	}
	for in, want := range tests {
		assert.Equal(t, want, safeReturn(in), "safeReturn(%q)", in)
	}
}

func TestDashboardURL(t *testing.T) {
	assert.Equal(t, "/home", dashboardURL("", ""))
	assert.Equal(t, "/home?email=a%2Bb%40c.com", dashboardURL("a+b@c.com", ""))
	assert.Equal(t, "/home?email=a%40b.com&notice=sent", dashboardURL("a@b.com", NoticeSent))
}

func TestReturnTo_DropsNotice(t *testing.T) {
	u, _ := url.Parse("/home?email=a%40b.com&notice=sent")
	assert.Equal(t, "/home?email=a%40b.com", returnTo(u))

	u, _ = url.Parse("/?notice=theme-failed")
	assert.Equal(t, "/", returnTo(u))
}

func TestWithNotice(t *testing.T) {
	assert.Equal(t, "/home?email=a%40b.com&notice=theme-failed", withNotice("/home?email=a%40b.com", NoticeThemeFailed))
}

func TestNoticeFor(t *testing.T) {
	assert.Nil(t, noticeFor(""))
	assert.Nil(t, noticeFor("<script>"))

	n := noticeFor(NoticeSendFailed)
	if assert.NotNil(t, n) {
		assert.Equal(t, "error", n.Kind)
		assert.Equal(t, "Failed to send summary. Please try again.", n.Message)
	}
}

func TestParseSummaryTime(t *testing.T) {
	for _, ok := range []string{"08:00", "23:59", "07:45:30"} {
		_, valid := parseSummaryTime(ok)
		assert.True(t, valid, ok)
	}
	for _, bad := range []string{"", "8am", "24:00", "12:60", "noon"} {
		_, valid := parseSummaryTime(bad)
		assert.False(t, valid, bad)
	}
}

func TestNextDigest(t *testing.T) {
	now := time.Date(2025, 4, 1, 6, 0, 0, 0, time.UTC)

	assert.Equal(t, "2 hours from now", nextDigest(now, "08:00"))
	assert.Equal(t, "1 hour from now", nextDigest(now, "07:45"))
	// Already past today, so tomorrow
	assert.Equal(t, "23 hours from now", nextDigest(now, "05:00"))
	assert.Equal(t, "", nextDigest(now, "soon"))
}

func TestGreeting(t *testing.T) {
	assert.Equal(t, "User", greeting(""))
	assert.Equal(t, "a@b.com", greeting("a@b.com"))
}
