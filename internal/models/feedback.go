package models

import "time"

// Feedback is a free-text platform feedback submission. Submissions are
// rate limited per identity-or-IP.
type Feedback struct {
	ID        string    `db:"id" json:"id"`
	UserID    *string   `db:"user_id" json:"user_id,omitempty"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
