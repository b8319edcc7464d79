// internal/repository/queue_repository.go
package repository

import (
	"database/sql"
	"time"

	"github.com/relaycrm/outreach-backend/internal/model"
)

type QueueRepositoryInterface interface {
	Create(item *model.EmailQueueItem) (bool, error)
	GetByID(id int) (*model.EmailQueueItem, error)
	ListDue(orgID, limit int, now time.Time) ([]*model.EmailQueueItem, error)
	MarkSending(id int) error
	MarkCancelled(id int, reason string) error
	MarkDelivered(id int, providerMessageID, subject, variant, bodyHTML, bodyText string, sentAt time.Time) error
	MarkFailed(id int, lastError string) error
	SetEngagementID(id int, engagementID string) error
	StatsByCampaign(campaignID int) (map[string]int, error)
}

type QueueRepository struct {
	DB *sql.DB
}

const queueItemColumns = `id, org_id, campaign_id, contact_id, template_id, step_number, to_email,
              subject, subject_variant, body_html, body_text, status, scheduled_at, sent_at,
              provider_message_id, last_error, crm_activity_id, crm_engagement_id, created_at, updated_at`

func scanQueueItem(row interface{ Scan(...interface{}) error }) (*model.EmailQueueItem, error) {
	var i model.EmailQueueItem
	err := row.Scan(
		&i.ID, &i.OrgID, &i.CampaignID, &i.ContactID, &i.TemplateID, &i.StepNumber, &i.ToEmail,
		&i.Subject, &i.SubjectVariant, &i.BodyHTML, &i.BodyText, &i.Status, &i.ScheduledAt, &i.SentAt,
		&i.ProviderMessageID, &i.LastError, &i.CRMActivityID, &i.CRMEngagementID, &i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

// Create inserts a queue item in state "queued". The unique constraint on
// (campaign_id, contact_id, step_number) makes expansion idempotent: a
// duplicate insert is silently skipped and Create reports created=false.
func (r *QueueRepository) Create(item *model.EmailQueueItem) (bool, error) {
	query := `
        INSERT INTO email_queue_items
            (org_id, campaign_id, contact_id, template_id, step_number, to_email,
             subject, body_html, body_text, status, scheduled_at, crm_activity_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'queued', $10, $11, NOW(), NOW())
        ON CONFLICT (campaign_id, contact_id, step_number) DO NOTHING
        RETURNING id
    `
	err := r.DB.QueryRow(query,
		item.OrgID, item.CampaignID, item.ContactID, item.TemplateID, item.StepNumber,
		item.ToEmail, item.Subject, item.BodyHTML, item.BodyText, item.ScheduledAt, item.CRMActivityID,
	).Scan(&item.ID)
	if err == sql.ErrNoRows {
		return false, nil // already materialized by an earlier expansion
	}
	if err != nil {
		return false, err
	}
	item.Status = model.QueueStatusQueued
	return true, nil
}

func (r *QueueRepository) GetByID(id int) (*model.EmailQueueItem, error) {
	query := `SELECT ` + queueItemColumns + ` FROM email_queue_items WHERE id = $1`
	item, err := scanQueueItem(r.DB.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return item, err
}

// ListDue selects up to limit queued items whose scheduled time has arrived,
// earliest first. The limit is the org's remaining quota for this cycle.
func (r *QueueRepository) ListDue(orgID, limit int, now time.Time) ([]*model.EmailQueueItem, error) {
	query := `SELECT ` + queueItemColumns + `
        FROM email_queue_items
        WHERE org_id = $1 AND status = 'queued' AND scheduled_at <= $2
        ORDER BY scheduled_at ASC
        LIMIT $3`
	rows, err := r.DB.Query(query, orgID, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []*model.EmailQueueItem{}
	for rows.Next() {
		item, err := scanQueueItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// MarkSending is conditional on the row still being queued, so a terminal
// state can never be re-entered.
func (r *QueueRepository) MarkSending(id int) error {
	query := `UPDATE email_queue_items SET status='sending', updated_at=NOW() WHERE id=$1 AND status='queued'`
	_, err := r.DB.Exec(query, id)
	return err
}

func (r *QueueRepository) MarkCancelled(id int, reason string) error {
	query := `UPDATE email_queue_items SET status='cancelled', last_error=$1, updated_at=NOW()
              WHERE id=$2 AND status IN ('queued','sending')`
	_, err := r.DB.Exec(query, reason, id)
	return err
}

// MarkDelivered stores the content actually transmitted alongside the
// provider message id, so the audit row reflects what the recipient saw.
func (r *QueueRepository) MarkDelivered(id int, providerMessageID, subject, variant, bodyHTML, bodyText string, sentAt time.Time) error {
	query := `UPDATE email_queue_items
              SET status='delivered', provider_message_id=$1, subject=$2, subject_variant=$3,
                  body_html=$4, body_text=$5, sent_at=$6, last_error='', updated_at=NOW()
              WHERE id=$7 AND status='sending'`
	_, err := r.DB.Exec(query, providerMessageID, subject, variant, bodyHTML, bodyText, sentAt, id)
	return err
}

// MarkFailed accepts queued rows as well: a render error fails the item
// before it ever reaches sending, and it must not be re-selected next cycle.
func (r *QueueRepository) MarkFailed(id int, lastError string) error {
	query := `UPDATE email_queue_items SET status='failed', last_error=$1, updated_at=NOW()
              WHERE id=$2 AND status IN ('queued','sending')`
	_, err := r.DB.Exec(query, lastError, id)
	return err
}

func (r *QueueRepository) SetEngagementID(id int, engagementID string) error {
	query := `UPDATE email_queue_items SET crm_engagement_id=$1, updated_at=NOW() WHERE id=$2`
	_, err := r.DB.Exec(query, engagementID, id)
	return err
}

func (r *QueueRepository) StatsByCampaign(campaignID int) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM email_queue_items WHERE campaign_id=$1 GROUP BY status`
	rows, err := r.DB.Query(query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[string]int{"queued": 0, "sending": 0, "delivered": 0, "failed": 0, "cancelled": 0}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

var _ QueueRepositoryInterface = (*QueueRepository)(nil)
