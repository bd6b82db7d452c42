package domain

// Comment is one externally-sourced review annotation. Only the timecode
// is required; everything else degrades gracefully when absent.
type Comment struct {
	ID       string `json:"id"`
	Author   string `json:"author"`
	Text     string `json:"text"`
	Timecode string `json:"timecode"`
	IsReply  bool   `json:"is_reply"`
}
