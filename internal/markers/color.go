package markers

import (
	"strings"

	"github.com/vietddude/markerbridge/internal/core/domain"
)

// ColorFor picks the marker color class: replies get their own color,
// otherwise a keyword scan of the comment text decides.
func ColorFor(c domain.Comment) domain.MarkerColor {
	if c.IsReply {
		return domain.ColorReply
	}

	text := strings.ToLower(c.Text)
	switch {
	case containsAny(text, "error", "broken", "bug", "fix this"):
		return domain.ColorError
	case containsAny(text, "warning", "careful", "watch out"):
		return domain.ColorWarning
	case containsAny(text, "note", "fyi", "reference"):
		return domain.ColorNote
	case c.Text != "":
		return domain.ColorComment
	default:
		return domain.ColorDefault
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// markerNameLimit caps auto-generated names from comment text.
const markerNameLimit = 32

// markerName derives a display name when the comment has no obvious
// one: author first, then truncated text, then the timecode itself.
func markerName(c domain.Comment) string {
	if c.Author != "" {
		return c.Author
	}
	if c.Text != "" {
		if len(c.Text) > markerNameLimit {
			return strings.TrimSpace(c.Text[:markerNameLimit])
		}
		return c.Text
	}
	return c.Timecode
}
