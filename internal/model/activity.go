// internal/model/activity.go
package model

import "time"

// Activity is a CRM-timeline row. The dispatcher only ever marks the linked
// activity of a delivered queue item as completed.
type Activity struct {
	ID          int        `db:"id" json:"id"`
	OrgID       int        `db:"org_id" json:"org_id"`
	ContactID   *int       `db:"contact_id" json:"contact_id,omitempty"`
	Type        string     `db:"type" json:"type"` // email, call, task
	Subject     string     `db:"subject" json:"subject"`
	Completed   bool       `db:"completed" json:"completed"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}
