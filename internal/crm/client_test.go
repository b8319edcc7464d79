package crm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/relaycrm/outreach-backend/internal/model"
	"github.com/relaycrm/outreach-backend/internal/vault"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func newCRMFixture(t *testing.T, handler http.HandlerFunc) (*Client, *model.OrgSettings, func()) {
	t.Helper()

	v, err := vault.New(testKey)
	if err != nil {
		t.Fatalf("vault: %v", err)
	}
	encToken, err := v.Encrypt("crm-api-token")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	srv := httptest.NewServer(handler)
	org := &model.OrgSettings{OrgID: 1, CRMTokenEncrypted: encToken}
	return NewClient(srv.URL, v), org, srv.Close
}

func TestRecordSendCreatesEngagement(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]interface{}

	client, org, done := newCRMFixture(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]string{"id": "eng-123"})
	})
	defer done()

	contact := &model.Contact{ID: 9, CRMContactID: "crm-77", Email: "sam@example.com"}
	sentAt := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	id, err := client.RecordSend(context.Background(), org, contact, "Hi Sam", "<p>hi</p>", sentAt)
	if err != nil {
		t.Fatalf("record send failed: %v", err)
	}
	if id != "eng-123" {
		t.Errorf("expected engagement id eng-123, got %q", id)
	}
	if gotPath != "/v1/engagements" {
		t.Errorf("wrong path: %s", gotPath)
	}
	if gotAuth != "Bearer crm-api-token" {
		t.Errorf("token not decrypted into the auth header: %q", gotAuth)
	}
	if gotBody["type"] != "email" || gotBody["contact_id"] != "crm-77" {
		t.Errorf("unexpected payload: %+v", gotBody)
	}
}

func TestRecordSendSkipsUnlinkedContact(t *testing.T) {
	called := false
	client, org, done := newCRMFixture(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	defer done()

	contact := &model.Contact{ID: 9, Email: "sam@example.com"}
	id, err := client.RecordSend(context.Background(), org, contact, "Hi", "body", time.Now())
	if err != nil {
		t.Fatalf("unlinked contact must be a silent no-op: %v", err)
	}
	if id != "" || called {
		t.Error("no CRM call may be made for a contact without a CRM link")
	}
}

func TestRecordSendSurfacesServerError(t *testing.T) {
	client, org, done := newCRMFixture(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusServiceUnavailable)
	})
	defer done()

	contact := &model.Contact{ID: 9, CRMContactID: "crm-77"}
	_, err := client.RecordSend(context.Background(), org, contact, "Hi", "body", time.Now())
	if err == nil {
		t.Fatal("expected error on 503")
	}
	if !strings.Contains(err.Error(), "503") {
		t.Errorf("error should carry the status code: %v", err)
	}
}

func TestRecordEngagementEventPostsToEngagement(t *testing.T) {
	var gotPath string
	var gotBody map[string]string

	client, org, done := newCRMFixture(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusNoContent)
	})
	defer done()

	occurred := time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC)
	err := client.RecordEngagementEvent(context.Background(), org, "eng-123", "open", occurred)
	if err != nil {
		t.Fatalf("record event failed: %v", err)
	}
	if gotPath != "/v1/engagements/eng-123/events" {
		t.Errorf("wrong path: %s", gotPath)
	}
	if gotBody["event"] != "open" {
		t.Errorf("unexpected payload: %+v", gotBody)
	}
}

func TestRecordSendFailsWithoutToken(t *testing.T) {
	v, _ := vault.New(testKey)
	client := NewClient("http://crm.invalid", v)
	org := &model.OrgSettings{OrgID: 1}
	contact := &model.Contact{ID: 9, CRMContactID: "crm-77"}

	if _, err := client.RecordSend(context.Background(), org, contact, "Hi", "body", time.Now()); err == nil {
		t.Error("expected error when the org has no CRM token")
	}
}
