// internal/model/suppression.go
package model

import "time"

// Suppression blocks all future sends to an address within an org. It lives
// apart from the contact row so it survives contact edits and re-imports.
type Suppression struct {
	ID        int       `db:"id" json:"id"`
	OrgID     int       `db:"org_id" json:"org_id"`
	Email     string    `db:"email" json:"email"`
	Reason    string    `db:"reason" json:"reason"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
