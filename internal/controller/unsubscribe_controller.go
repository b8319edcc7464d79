// internal/controller/unsubscribe_controller.go
package controller

import (
	"log"
	"net/http"

	"github.com/relaycrm/outreach-backend/internal/repository"
	"github.com/relaycrm/outreach-backend/internal/unsubscribe"
)

// UnsubscribeController is the one-click landing endpoint. It trusts nothing
// but the signed token: anything that fails Verify is rejected outright.
type UnsubscribeController struct {
	Signer          *unsubscribe.Signer
	SuppressionRepo repository.SuppressionRepositoryInterface
	ContactRepo     repository.ContactRepositoryInterface
}

func (c *UnsubscribeController) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusBadRequest)
		return
	}

	payload, err := c.Signer.Verify(token)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	// Suppression is keyed on the address so it outlives the contact row.
	if err := c.SuppressionRepo.Create(payload.OrgID, payload.Email, "one-click unsubscribe"); err != nil {
		http.Error(w, "failed to record unsubscribe", http.StatusInternalServerError)
		return
	}
	if err := c.ContactRepo.MarkUnsubscribed(payload.ContactID); err != nil {
		log.Println("⚠️ Failed to flag contact as unsubscribed:", err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte("<html><body><p>You have been unsubscribed.</p></body></html>"))
}
