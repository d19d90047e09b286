package models

type FeedbackEvent struct {
	Lecture     string `json:"lec,omitempty"`
	TimestampMs int64  `json:"timestampMs"`
	Type        string `json:"type"`
}

const (
	TypeGood    = "GOOD"
	TypeBad     = "BAD"
	TypeTooFast = "TOO_FAST"
	TypeTooSlow = "TOO_SLOW"
)

// KnownEventType reports whether t is one of the four icon-feedback types.
func KnownEventType(t string) bool {
	switch t {
	case TypeGood, TypeBad, TypeTooFast, TypeTooSlow:
		return true
	}
	return false
}
