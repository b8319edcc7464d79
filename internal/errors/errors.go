// internal/errors/errors.go
package appErrors

import "fmt"

// ErrCampaignNotFound is a sentinel error
type ErrCampaignNotFound struct {
	CampaignID int
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %d not found", e.CampaignID)
}

// Helper constructor
func NewCampaignNotFound(id int) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

// ErrMissingCredentials aborts a whole org's dispatch cycle: without provider
// credentials every queue item of that org would fail the same way.
type ErrMissingCredentials struct {
	OrgID int
}

func (e *ErrMissingCredentials) Error() string {
	return fmt.Sprintf("org %d has no provider credentials configured", e.OrgID)
}

func NewMissingCredentials(orgID int) error {
	return &ErrMissingCredentials{OrgID: orgID}
}

// ErrTokenInvalid covers every unsubscribe-token failure mode: tampered,
// malformed or expired. Callers get no detail on purpose.
type ErrTokenInvalid struct{}

func (e *ErrTokenInvalid) Error() string {
	return "unsubscribe token expired or invalid"
}

func NewTokenInvalid() error {
	return &ErrTokenInvalid{}
}
