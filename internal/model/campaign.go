// internal/model/campaign.go
package model

import "time"

const (
	CampaignStatusPlanned   = "planned"
	CampaignStatusActive    = "active"
	CampaignStatusPaused    = "paused"
	CampaignStatusCompleted = "completed"
	CampaignStatusLost      = "lost"
)

type Campaign struct {
	ID         int        `db:"id" json:"id"`
	OrgID      int        `db:"org_id" json:"org_id"`
	AccountID  int        `db:"account_id" json:"account_id"`
	SequenceID *int       `db:"sequence_id" json:"sequence_id,omitempty"`
	Name       string     `db:"name" json:"name"`
	Status     string     `db:"status" json:"status"`
	StartDate  *time.Time `db:"start_date" json:"start_date,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// Sendable reports whether queue items of this campaign may still be sent.
func (c *Campaign) Sendable() bool {
	return c.Status == CampaignStatusActive || c.Status == CampaignStatusPlanned
}
