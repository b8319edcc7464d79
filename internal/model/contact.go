// internal/model/contact.go
package model

type Contact struct {
	ID           int    `db:"id" json:"id"`
	OrgID        int    `db:"org_id" json:"org_id"`
	AccountID    int    `db:"account_id" json:"account_id"`
	Email        string `db:"email" json:"email"`
	FirstName    string `db:"first_name" json:"first_name"`
	LastName     string `db:"last_name" json:"last_name"`
	Title        string `db:"title" json:"title"`
	Company      string `db:"company" json:"company"`
	Status       string `db:"status" json:"status"` // active, archived
	Unsubscribed bool   `db:"unsubscribed" json:"unsubscribed"`
	CRMContactID string `db:"crm_contact_id" json:"crm_contact_id,omitempty"`
	CRMCompanyID string `db:"crm_company_id" json:"crm_company_id,omitempty"`
}
