package controller

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/relaycrm/outreach-backend/internal/model"
	"github.com/relaycrm/outreach-backend/internal/unsubscribe"
)

type stubSuppressionRepo struct {
	created []string
	exists  map[string]bool
}

func (s *stubSuppressionRepo) Exists(orgID int, email string) (bool, error) {
	return s.exists[email], nil
}

func (s *stubSuppressionRepo) Create(orgID int, email, reason string) error {
	s.created = append(s.created, email)
	return nil
}

type stubContactRepo struct {
	unsubscribed []int
}

func (s *stubContactRepo) GetByID(id int) (*model.Contact, error) { return nil, nil }
func (s *stubContactRepo) ListActiveByAccount(orgID, accountID int) ([]model.Contact, error) {
	return nil, nil
}
func (s *stubContactRepo) MarkUnsubscribed(id int) error {
	s.unsubscribed = append(s.unsubscribed, id)
	return nil
}

func newUnsubscribeFixture() (*UnsubscribeController, *stubSuppressionRepo, *stubContactRepo, *unsubscribe.Signer) {
	signer := unsubscribe.NewSigner("unsubscribe-test-secret")
	suppressions := &stubSuppressionRepo{exists: map[string]bool{}}
	contacts := &stubContactRepo{}
	c := &UnsubscribeController{Signer: signer, SuppressionRepo: suppressions, ContactRepo: contacts}
	return c, suppressions, contacts, signer
}

func TestUnsubscribeSuppressesAndFlagsContact(t *testing.T) {
	c, suppressions, contacts, signer := newUnsubscribeFixture()

	token, err := signer.Sign(unsubscribe.Payload{
		OrgID: 1, ContactID: 9, QueueItemID: 42, Email: "sam@example.com",
	})
	if err != nil {
		t.Fatalf("signing failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/unsubscribe?token="+token, nil)
	rec := httptest.NewRecorder()
	c.Unsubscribe(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(suppressions.created) != 1 || suppressions.created[0] != "sam@example.com" {
		t.Errorf("suppression not recorded: %+v", suppressions.created)
	}
	if len(contacts.unsubscribed) != 1 || contacts.unsubscribed[0] != 9 {
		t.Errorf("contact not flagged: %+v", contacts.unsubscribed)
	}
}

func TestUnsubscribeRejectsMissingToken(t *testing.T) {
	c, suppressions, _, _ := newUnsubscribeFixture()

	req := httptest.NewRequest(http.MethodGet, "/unsubscribe", nil)
	rec := httptest.NewRecorder()
	c.Unsubscribe(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if len(suppressions.created) != 0 {
		t.Error("no suppression may be created without a token")
	}
}

func TestUnsubscribeRejectsTamperedToken(t *testing.T) {
	c, suppressions, _, signer := newUnsubscribeFixture()

	token, _ := signer.Sign(unsubscribe.Payload{OrgID: 1, ContactID: 9, Email: "sam@example.com"})
	tampered := "x" + token

	req := httptest.NewRequest(http.MethodGet, "/unsubscribe?token="+tampered, nil)
	rec := httptest.NewRecorder()
	c.Unsubscribe(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	if len(suppressions.created) != 0 {
		t.Error("tampered token must not create a suppression")
	}
}
