// internal/repository/contact_repository.go
package repository

import (
	"database/sql"

	"github.com/relaycrm/outreach-backend/internal/model"
)

type ContactRepositoryInterface interface {
	GetByID(id int) (*model.Contact, error)
	ListActiveByAccount(orgID, accountID int) ([]model.Contact, error)
	MarkUnsubscribed(id int) error
}

type ContactRepository struct {
	DB *sql.DB
}

const contactColumns = `id, org_id, account_id, email, first_name, last_name, title, company,
              status, unsubscribed, crm_contact_id, crm_company_id`

func scanContact(row interface{ Scan(...interface{}) error }) (*model.Contact, error) {
	var c model.Contact
	err := row.Scan(
		&c.ID, &c.OrgID, &c.AccountID, &c.Email, &c.FirstName, &c.LastName, &c.Title, &c.Company,
		&c.Status, &c.Unsubscribed, &c.CRMContactID, &c.CRMCompanyID,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ContactRepository) GetByID(id int) (*model.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1`
	c, err := scanContact(r.DB.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil // not found
	}
	return c, err
}

// ListActiveByAccount fetches the sendable contacts of an account. The
// unsubscribed flag is filtered here for expansion; the dispatcher re-checks
// it at send time because it can flip after enqueue.
func (r *ContactRepository) ListActiveByAccount(orgID, accountID int) ([]model.Contact, error) {
	query := `SELECT ` + contactColumns + `
        FROM contacts
        WHERE org_id = $1 AND account_id = $2 AND status = 'active' AND unsubscribed = false
        ORDER BY id`
	rows, err := r.DB.Query(query, orgID, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := []model.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, *c)
	}
	return contacts, rows.Err()
}

func (r *ContactRepository) MarkUnsubscribed(id int) error {
	query := `UPDATE contacts SET unsubscribed = true WHERE id = $1`
	_, err := r.DB.Exec(query, id)
	return err
}

var _ ContactRepositoryInterface = (*ContactRepository)(nil)
