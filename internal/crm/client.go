// internal/crm/client.go
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/relaycrm/outreach-backend/internal/model"
	"github.com/relaycrm/outreach-backend/internal/vault"
)

// Client pushes send and engagement events into the external sales-engagement
// CRM. Every call is best-effort: the dispatcher logs failures and moves on,
// a CRM outage must never turn a delivered email into a reported failure.
type Client struct {
	baseURL string
	http    *http.Client
	vault   *vault.Vault
}

func NewClient(baseURL string, v *vault.Vault) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		vault:   v,
	}
}

type engagementRequest struct {
	Type      string `json:"type"`
	ContactID string `json:"contact_id"`
	CompanyID string `json:"company_id,omitempty"`
	Subject   string `json:"subject"`
	Body      string `json:"body,omitempty"`
	Occurred  string `json:"occurred_at"`
}

type engagementResponse struct {
	ID string `json:"id"`
}

// RecordSend creates an "email" engagement on the contact's CRM timeline and
// returns the external engagement id, or "" when the contact has no CRM link.
func (c *Client) RecordSend(ctx context.Context, org *model.OrgSettings, contact *model.Contact, subject, body string, sentAt time.Time) (string, error) {
	if contact.CRMContactID == "" {
		return "", nil
	}

	req := engagementRequest{
		Type:      "email",
		ContactID: contact.CRMContactID,
		CompanyID: contact.CRMCompanyID,
		Subject:   subject,
		Body:      body,
		Occurred:  sentAt.UTC().Format(time.RFC3339),
	}

	var resp engagementResponse
	if err := c.post(ctx, org, "/v1/engagements", req, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// RecordEngagementEvent attaches an event (open, click, bounce) to an
// existing engagement.
func (c *Client) RecordEngagementEvent(ctx context.Context, org *model.OrgSettings, engagementID, event string, occurredAt time.Time) error {
	req := map[string]string{
		"event":       event,
		"occurred_at": occurredAt.UTC().Format(time.RFC3339),
	}
	return c.post(ctx, org, "/v1/engagements/"+engagementID+"/events", req, nil)
}

func (c *Client) post(ctx context.Context, org *model.OrgSettings, path string, payload, out interface{}) error {
	if org.CRMTokenEncrypted == "" {
		return fmt.Errorf("org %d has no CRM token configured", org.OrgID)
	}
	token, err := c.vault.Decrypt(org.CRMTokenEncrypted)
	if err != nil {
		return fmt.Errorf("decrypt CRM token: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("CRM returned %d: %s", resp.StatusCode, string(raw))
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
