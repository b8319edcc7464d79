// internal/model/message_template.go
package model

import "time"

// MessageTemplate is bound to a sequence step. A nil CampaignID marks the org
// default for that step; a campaign-scoped row overrides it.
type MessageTemplate struct {
	ID         int       `db:"id" json:"id"`
	OrgID      int       `db:"org_id" json:"org_id"`
	CampaignID *int      `db:"campaign_id" json:"campaign_id,omitempty"`
	StepNumber int       `db:"step_number" json:"step_number"`
	Subject    string    `db:"subject" json:"subject"`
	SubjectB   *string   `db:"subject_b" json:"subject_b,omitempty"`
	BodyHTML   string    `db:"body_html" json:"body_html"`
	BodyText   string    `db:"body_text" json:"body_text"`
	SkipFooter bool      `db:"skip_footer" json:"skip_footer"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
