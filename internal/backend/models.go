package backend

import (
	"encoding/json"
	"fmt"
)

// Feed selects which summaries endpoint and response shape is used
type Feed string

const (
	// FeedActions is GET /emails/actions returning {"emails": [{"summary": ...}]}
	FeedActions Feed = "actions"
	// FeedInbox is GET /emails returning [{"subject", "sender", "snippet"}]
	FeedInbox Feed = "inbox"
)

// ParseFeed validates a feed name
func ParseFeed(name string) (Feed, error) {
	switch Feed(name) {
	case FeedActions, FeedInbox:
		return Feed(name), nil
	default:
		return "", fmt.Errorf("unknown summaries feed %q", name)
	}
}

func (f Feed) path() string {
	if f == FeedInbox {
		return "/emails"
	}
	return "/emails/actions"
}

// Summary is one summarized email. The actions feed fills Text, the inbox
// feed fills Subject, Sender and Snippet.
type Summary struct {
	Text    string `json:"summary,omitempty"`
	Subject string `json:"subject,omitempty"`
	Sender  string `json:"sender,omitempty"`
	Snippet string `json:"snippet,omitempty"`
}

// IsCard reports whether the entry carries the three-field layout
func (s Summary) IsCard() bool {
	return s.Subject != "" || s.Sender != "" || s.Snippet != ""
}

// UnmarshalJSON accepts either an object or a bare string, which is taken
// as the summary text.
func (s *Summary) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*s = Summary{Text: text}
		return nil
	}

	type plain Summary
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = Summary(p)
	return nil
}

// UpdateSummaryTimeRequest is the body of POST /update-summary-time
type UpdateSummaryTimeRequest struct {
	Email       string `json:"email"`
	SummaryTime string `json:"summary_time"`
}

// SendSummaryNowRequest is the body of POST /send-summary-now
type SendSummaryNowRequest struct {
	Email string `json:"email"`
}

type actionsResponse struct {
	Emails *[]Summary `json:"emails"`
}
