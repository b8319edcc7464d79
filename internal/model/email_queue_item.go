// internal/model/email_queue_item.go
package model

import "time"

// Queue item statuses. Transitions only move forward:
// queued -> sending -> delivered | failed | cancelled.
const (
	QueueStatusQueued    = "queued"
	QueueStatusSending   = "sending"
	QueueStatusDelivered = "delivered"
	QueueStatusFailed    = "failed"
	QueueStatusCancelled = "cancelled"
)

// EmailQueueItem is one scheduled or completed individual send.
// Terminal rows are kept forever for audit and analytics.
type EmailQueueItem struct {
	ID                int        `db:"id" json:"id"`
	OrgID             int        `db:"org_id" json:"org_id"`
	CampaignID        int        `db:"campaign_id" json:"campaign_id"`
	ContactID         int        `db:"contact_id" json:"contact_id"`
	TemplateID        *int       `db:"template_id" json:"template_id,omitempty"`
	StepNumber        int        `db:"step_number" json:"step_number"`
	ToEmail           string     `db:"to_email" json:"to_email"`
	Subject           string     `db:"subject" json:"subject"`
	SubjectVariant    string     `db:"subject_variant" json:"subject_variant,omitempty"`
	BodyHTML          string     `db:"body_html" json:"body_html"`
	BodyText          string     `db:"body_text" json:"body_text"`
	Status            string     `db:"status" json:"status"`
	ScheduledAt       time.Time  `db:"scheduled_at" json:"scheduled_at"`
	SentAt            *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	ProviderMessageID string     `db:"provider_message_id" json:"provider_message_id,omitempty"`
	LastError         string     `db:"last_error" json:"last_error,omitempty"`
	CRMActivityID     *int       `db:"crm_activity_id" json:"crm_activity_id,omitempty"`
	CRMEngagementID   string     `db:"crm_engagement_id" json:"crm_engagement_id,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// Terminal reports whether the item is in a state the dispatcher never leaves.
func (i *EmailQueueItem) Terminal() bool {
	switch i.Status {
	case QueueStatusDelivered, QueueStatusFailed, QueueStatusCancelled:
		return true
	}
	return false
}
