package web

import (
	"embed"
	"html/template"
	"net/url"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"mailliam/internal/backend"
	"mailliam/internal/theme"
)

//go:embed templates/*.html
var templateFS embed.FS

// DefaultSummaryTime is shown until the user saves their own
const DefaultSummaryTime = "08:00"

// EmptySummariesMessage is rendered when there is nothing to list
const EmptySummariesMessage = "No summaries available yet."

func parseTemplates() *template.Template {
	funcs := template.FuncMap{
		"emptySummariesMessage": func() string { return EmptySummariesMessage },
	}
	return template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
}

// Page is the data every template receives
type Page struct {
	Title     string
	Theme     theme.Preference
	ReturnTo  string
	Notice    *Notice
	Dashboard *DashboardView
}

// DashboardView is the state of the dashboard
type DashboardView struct {
	Email       string
	Greeting    string
	SummaryTime string
	NextDigest  string
	Summaries   []backend.Summary
}

// Notice is a one-shot banner shown after a redirect
type Notice struct {
	Kind    string
	Message string
}

// Notice codes carried in the notice query parameter
const (
	NoticeTimeSaved   = "time-saved"
	NoticeInvalidTime = "invalid-time"
	NoticeSent        = "sent"
	NoticeSendFailed  = "send-failed"
	NoticeThemeFailed = "theme-failed"
)

var notices = map[string]Notice{
	NoticeTimeSaved:   {Kind: "success", Message: "Summary time updated!"},
	NoticeInvalidTime: {Kind: "error", Message: "Please enter a time as HH:MM."},
	NoticeSent:        {Kind: "success", Message: "Summary email sent!"},
	NoticeSendFailed:  {Kind: "error", Message: "Failed to send summary. Please try again."},
	NoticeThemeFailed: {Kind: "error", Message: "Could not save your theme preference."},
}

// noticeFor resolves a notice code; unknown codes yield nil
func noticeFor(code string) *Notice {
	n, ok := notices[code]
	if !ok {
		return nil
	}
	return &n
}

func greeting(email string) string {
	if email == "" {
		return "User"
	}
	return email
}

// parseSummaryTime accepts what a time input submits: HH:MM, optionally
// with seconds
func parseSummaryTime(value string) (time.Time, bool) {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// nextDigest describes when the next digest at summaryTime is due, relative
// to now in now's location
func nextDigest(now time.Time, summaryTime string) string {
	t, ok := parseSummaryTime(summaryTime)
	if !ok {
		return ""
	}
	next := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), t.Second(), 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return humanize.RelTime(next, now, "ago", "from now")
}

// dashboardURL builds the dashboard location for email with an optional
// notice
func dashboardURL(email, notice string) string {
	q := url.Values{}
	if email != "" {
		q.Set("email", email)
	}
	if notice != "" {
		q.Set("notice", notice)
	}
	if len(q) == 0 {
		return "/home"
	}
	return "/home?" + q.Encode()
}

// returnTo is the current location without its notice, used by the theme
// toggle to come back to the same page
func returnTo(u *url.URL) string {
	q := u.Query()
	q.Del("notice")
	if len(q) == 0 {
		return u.Path
	}
	return u.Path + "?" + q.Encode()
}

// safeReturn only allows local absolute paths. Browsers drop tabs and line
// breaks from URLs and read a backslash as a slash, so both are refused
// before parsing.
func safeReturn(target string) string {
	if strings.ContainsFunc(target, func(r rune) bool { return r < 0x20 || r == 0x7f || r == '\\' }) {
		return "/"
	}
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return "/"
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return target
}

func withNotice(target, notice string) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	q.Set("notice", notice)
	u.RawQuery = q.Encode()
	return u.String()
}
