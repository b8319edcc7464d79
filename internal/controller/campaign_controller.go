// internal/controller/campaign_controller.go
package controller

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/relaycrm/outreach-backend/internal/model"
	"github.com/relaycrm/outreach-backend/internal/queue"
	"github.com/relaycrm/outreach-backend/internal/repository"
	"github.com/relaycrm/outreach-backend/internal/service"
)

type CampaignController struct {
	CampaignRepo repository.CampaignRepositoryInterface
	QueueRepo    repository.QueueRepositoryInterface
	ContactRepo  repository.ContactRepositoryInterface
	TemplateRepo repository.TemplateRepositoryInterface
	Queue        queue.Queue
	AMQPURL      string
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OrgID      int     `json:"org_id"`
		AccountID  int     `json:"account_id"`
		SequenceID *int    `json:"sequence_id"`
		Name       string  `json:"name"`
		StartDate  *string `json:"start_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	campaign := &model.Campaign{
		OrgID:      body.OrgID,
		AccountID:  body.AccountID,
		SequenceID: body.SequenceID,
		Name:       body.Name,
		Status:     model.CampaignStatusPlanned,
	}
	if body.StartDate != nil {
		t, err := time.Parse("2006-01-02", *body.StartDate)
		if err != nil {
			http.Error(w, "invalid start_date, want YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		campaign.StartDate = &t
	}

	if err := c.CampaignRepo.Create(campaign); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(campaign)
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	status := r.URL.Query().Get("status")

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	campaigns, total, err := c.CampaignRepo.ListCampaigns(offset, pageSize, status)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	totalPages := (total + pageSize - 1) / pageSize
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"data": campaigns,
		"pagination": map[string]int{
			"page":        page,
			"page_size":   pageSize,
			"total_count": total,
			"total_pages": totalPages,
		},
	})
}

// GetCampaign returns the campaign plus its queue stats, so an operator can
// tell "nothing queued" apart from "everything cancelled".
func (c *CampaignController) GetCampaign(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}

	campaign, err := c.CampaignRepo.GetByID(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	stats, err := c.QueueRepo.StatsByCampaign(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"campaign": campaign,
		"stats":    stats,
	})
}

// ActivateCampaign publishes an expansion job for the campaign. The job goes
// to RabbitMQ when a broker is configured, otherwise to the in-process queue.
func (c *CampaignController) ActivateCampaign(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}

	var body struct {
		FromStep int `json:"from_step"`
	}
	if r.Body != nil {
		// Empty body means "expand everything".
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	if body.FromStep < 1 {
		body.FromStep = 1
	}

	if _, err := c.CampaignRepo.GetByID(id); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	job := queue.ExpansionJob{CampaignID: id, FromStep: body.FromStep}

	if c.AMQPURL != "" {
		if err := queue.PublishExpansionJobAMQP(c.AMQPURL, job); err != nil {
			log.Println("⚠️ Broker publish failed, falling back to in-process queue:", err)
			if err := c.Queue.Publish(queue.ExpansionTopic, job); err != nil {
				http.Error(w, "failed to enqueue expansion", http.StatusInternalServerError)
				return
			}
		}
	} else if err := c.Queue.Publish(queue.ExpansionTopic, job); err != nil {
		http.Error(w, "failed to enqueue expansion", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"campaign_id": id,
		"from_step":   body.FromStep,
		"status":      "expansion_queued",
	})
}

// PersonalizedPreview renders a step's template against one contact without
// queueing anything, so a rep can sanity-check merge fields before launch.
func (c *CampaignController) PersonalizedPreview(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	campaignID, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}

	var body struct {
		ContactID  int `json:"contact_id"`
		StepNumber int `json:"step_number"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if body.StepNumber < 1 {
		body.StepNumber = 1
	}

	campaign, err := c.CampaignRepo.GetByID(campaignID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	contact, err := c.ContactRepo.GetByID(body.ContactID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if contact == nil {
		http.Error(w, "contact not found", http.StatusNotFound)
		return
	}

	tpl, err := c.TemplateRepo.FindForStep(campaign.OrgID, campaignID, body.StepNumber)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if tpl == nil {
		http.Error(w, "no template bound to this step", http.StatusNotFound)
		return
	}

	fields := service.MergeFields(contact)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"contact_id": contact.ID,
		"subject":    service.RenderTemplate(tpl.Subject, fields),
		"body_html":  service.RenderTemplate(tpl.BodyHTML, fields),
		"body_text":  service.RenderTemplate(tpl.BodyText, fields),
	})
}
