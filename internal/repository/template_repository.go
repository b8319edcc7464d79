// internal/repository/template_repository.go
package repository

import (
	"database/sql"

	"github.com/relaycrm/outreach-backend/internal/model"
)

type TemplateRepositoryInterface interface {
	FindForStep(orgID, campaignID, stepNumber int) (*model.MessageTemplate, error)
	GetByID(id int) (*model.MessageTemplate, error)
}

type TemplateRepository struct {
	DB *sql.DB
}

const templateColumns = `id, org_id, campaign_id, step_number, subject, subject_b,
              body_html, body_text, skip_footer, created_at`

func scanTemplate(row interface{ Scan(...interface{}) error }) (*model.MessageTemplate, error) {
	var t model.MessageTemplate
	err := row.Scan(
		&t.ID, &t.OrgID, &t.CampaignID, &t.StepNumber, &t.Subject, &t.SubjectB,
		&t.BodyHTML, &t.BodyText, &t.SkipFooter, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FindForStep resolves the most specific template for a plan step: a
// campaign-scoped row wins over the org default (campaign_id IS NULL).
// Returns nil when neither exists, which makes expansion skip the step.
func (r *TemplateRepository) FindForStep(orgID, campaignID, stepNumber int) (*model.MessageTemplate, error) {
	query := `SELECT ` + templateColumns + `
        FROM message_templates
        WHERE org_id = $1 AND step_number = $2 AND (campaign_id = $3 OR campaign_id IS NULL)
        ORDER BY campaign_id NULLS LAST
        LIMIT 1`
	t, err := scanTemplate(r.DB.QueryRow(query, orgID, stepNumber, campaignID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

func (r *TemplateRepository) GetByID(id int) (*model.MessageTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM message_templates WHERE id = $1`
	t, err := scanTemplate(r.DB.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

var _ TemplateRepositoryInterface = (*TemplateRepository)(nil)
