// internal/repository/org_settings_repository.go
package repository

import (
	"database/sql"
	"time"

	"github.com/relaycrm/outreach-backend/internal/model"
)

type OrgSettingsRepositoryInterface interface {
	ListSendingEnabled() ([]*model.OrgSettings, error)
	GetByOrgID(orgID int) (*model.OrgSettings, error)
	ResetQuota(orgID int, today time.Time) error
	IncrementSendsToday(orgID int) error
}

type OrgSettingsRepository struct {
	DB *sql.DB
}

const orgSettingsColumns = `org_id, ses_region, ses_access_key_encrypted, ses_secret_key_encrypted,
              crm_token_encrypted, from_email, from_name, reply_to, configuration_set,
              daily_send_limit, send_delay_seconds, sending_enabled, sends_today,
              sends_today_date, postal_address, signature_html, signature_text`

func scanOrgSettings(row interface{ Scan(...interface{}) error }) (*model.OrgSettings, error) {
	var o model.OrgSettings
	err := row.Scan(
		&o.OrgID, &o.SESRegion, &o.SESAccessKeyEncrypted, &o.SESSecretKeyEncrypted,
		&o.CRMTokenEncrypted, &o.FromEmail, &o.FromName, &o.ReplyTo, &o.ConfigurationSet,
		&o.DailySendLimit, &o.SendDelaySeconds, &o.SendingEnabled, &o.SendsToday,
		&o.SendsTodayDate, &o.PostalAddress, &o.SignatureHTML, &o.SignatureText,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ListSendingEnabled returns the send policy of every org with the master
// enable flag on, in a stable order so dispatch cycles are reproducible.
func (r *OrgSettingsRepository) ListSendingEnabled() ([]*model.OrgSettings, error) {
	query := `SELECT ` + orgSettingsColumns + ` FROM org_settings WHERE sending_enabled = true ORDER BY org_id`
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orgs := []*model.OrgSettings{}
	for rows.Next() {
		o, err := scanOrgSettings(rows)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, o)
	}
	return orgs, rows.Err()
}

func (r *OrgSettingsRepository) GetByOrgID(orgID int) (*model.OrgSettings, error) {
	query := `SELECT ` + orgSettingsColumns + ` FROM org_settings WHERE org_id = $1`
	o, err := scanOrgSettings(r.DB.QueryRow(query, orgID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return o, err
}

// ResetQuota zeroes sends_today and stamps the reset date. Called by the
// quota tracker exactly once per calendar day, before any quota is consumed.
func (r *OrgSettingsRepository) ResetQuota(orgID int, today time.Time) error {
	query := `UPDATE org_settings SET sends_today = 0, sends_today_date = $1 WHERE org_id = $2`
	_, err := r.DB.Exec(query, today, orgID)
	return err
}

// IncrementSendsToday bumps the counter atomically in the database so an
// overlapping invocation cannot lose an increment.
func (r *OrgSettingsRepository) IncrementSendsToday(orgID int) error {
	query := `UPDATE org_settings SET sends_today = sends_today + 1 WHERE org_id = $1`
	_, err := r.DB.Exec(query, orgID)
	return err
}

var _ OrgSettingsRepositoryInterface = (*OrgSettingsRepository)(nil)
