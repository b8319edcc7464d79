// internal/repository/suppression_repository.go
package repository

import (
	"database/sql"
	"strings"
)

type SuppressionRepositoryInterface interface {
	Exists(orgID int, email string) (bool, error)
	Create(orgID int, email, reason string) error
}

type SuppressionRepository struct {
	DB *sql.DB
}

// Exists checks for a live suppression record. Addresses are compared
// case-insensitively; suppression is keyed on the address itself so it
// survives contact-record changes.
func (r *SuppressionRepository) Exists(orgID int, email string) (bool, error) {
	query := `SELECT 1 FROM suppressions WHERE org_id = $1 AND email = $2 LIMIT 1`
	var tmp int
	err := r.DB.QueryRow(query, orgID, strings.ToLower(email)).Scan(&tmp)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *SuppressionRepository) Create(orgID int, email, reason string) error {
	query := `
        INSERT INTO suppressions (org_id, email, reason, created_at)
        VALUES ($1, $2, $3, NOW())
        ON CONFLICT (org_id, email) DO NOTHING
    `
	_, err := r.DB.Exec(query, orgID, strings.ToLower(email), reason)
	return err
}

var _ SuppressionRepositoryInterface = (*SuppressionRepository)(nil)
