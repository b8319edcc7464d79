// internal/controller/dispatch_controller.go
package controller

import (
	"crypto/subtle"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/relaycrm/outreach-backend/internal/service"
)

// DispatchController exposes the dispatch pass to the external cron
// scheduler. The endpoint is guarded by a shared-secret bearer token checked
// before any tenant processing begins.
type DispatchController struct {
	DispatchService *service.DispatchService
	CronSecret      string
}

func (c *DispatchController) RunDispatch(w http.ResponseWriter, r *http.Request) {
	if !c.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	log.Println("🚚 Dispatch pass triggered")

	report, err := c.DispatchService.Run(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}

func (c *DispatchController) authorized(r *http.Request) bool {
	if c.CronSecret == "" {
		return false
	}
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(c.CronSecret)) == 1
}
