package domain

import "time"

// ImportRun records one completed marker import for the journal.
type ImportRun struct {
	ID          string    `db:"id"           json:"id"`
	SessionName string    `db:"session_name" json:"session_name"`
	StartedAt   time.Time `db:"started_at"   json:"started_at"`
	FinishedAt  time.Time `db:"finished_at"  json:"finished_at"`
	Created     int       `db:"created"      json:"created"`
	Skipped     int       `db:"skipped"      json:"skipped"`
	Failed      int       `db:"failed"       json:"failed"`
}

// FailedMarker records one marker that could not be created during a
// run, kept so a later run can retry it.
type FailedMarker struct {
	ID        int64     `db:"id"         json:"id"`
	RunID     string    `db:"run_id"     json:"run_id"`
	CommentID string    `db:"comment_id" json:"comment_id"`
	Name      string    `db:"name"       json:"name"`
	Timecode  string    `db:"timecode"   json:"timecode"`
	Reason    string    `db:"reason"     json:"reason"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
