package domain

// Marker is a candidate memory location built from an external comment.
// The host assigns its own ordinal on creation; candidates are never
// mutated by the host.
type Marker struct {
	Name          string
	Timecode      string // hh:mm:ss:ff, already normalized
	CommentText   string
	Color         MarkerColor
	IsReply       bool
	OriginalIndex int
	Source        *Comment
}

// ExistingMarker is a snapshot of a memory location already present in
// the session, fetched before each creation run for conflict comparison.
// It is stale immediately after use and never persisted.
type ExistingMarker struct {
	Name     string `json:"name"`
	Start    string `json:"start_time"`
	ColorIdx int    `json:"color_index"`
}

// MarkerColor is one of the host's fixed marker color classes.
type MarkerColor int

const (
	ColorDefault MarkerColor = iota
	ColorComment
	ColorReply
	ColorError
	ColorWarning
	ColorNote
)

func (c MarkerColor) String() string {
	switch c {
	case ColorComment:
		return "comment"
	case ColorReply:
		return "reply"
	case ColorError:
		return "error"
	case ColorWarning:
		return "warning"
	case ColorNote:
		return "note"
	default:
		return "default"
	}
}

// Index returns the host-side color index for the class.
func (c MarkerColor) Index() int {
	return int(c)
}
