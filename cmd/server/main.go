// cmd/server/main.go
package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/relaycrm/outreach-backend/internal/config"
	"github.com/relaycrm/outreach-backend/internal/controller"
	"github.com/relaycrm/outreach-backend/internal/crm"
	"github.com/relaycrm/outreach-backend/internal/db"
	"github.com/relaycrm/outreach-backend/internal/mailer"
	"github.com/relaycrm/outreach-backend/internal/queue"
	"github.com/relaycrm/outreach-backend/internal/repository"
	"github.com/relaycrm/outreach-backend/internal/service"
	"github.com/relaycrm/outreach-backend/internal/unsubscribe"
	"github.com/relaycrm/outreach-backend/internal/vault"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	cfg := config.Load()
	if cfg.CronSecret == "" {
		log.Fatal("CRON_SECRET must be set, refusing to expose an unguarded dispatch endpoint")
	}

	v, err := vault.New(cfg.SecretKey)
	if err != nil {
		log.Fatal("invalid APP_SECRET_KEY:", err)
	}
	signer := unsubscribe.NewSigner(cfg.SecretKey)

	// Init DB
	db.Init()
	q := queue.NewInMemoryQueue()

	orgRepo := &repository.OrgSettingsRepository{DB: db.DB}
	campaignRepo := &repository.CampaignRepository{DB: db.DB}
	contactRepo := &repository.ContactRepository{DB: db.DB}
	queueRepo := &repository.QueueRepository{DB: db.DB}
	suppressionRepo := &repository.SuppressionRepository{DB: db.DB}
	templateRepo := &repository.TemplateRepository{DB: db.DB}
	sequenceRepo := &repository.SequenceRepository{DB: db.DB}
	activityRepo := &repository.ActivityRepository{DB: db.DB}

	expansionService := &service.ExpansionService{
		CampaignRepo:    campaignRepo,
		SequenceRepo:    sequenceRepo,
		TemplateRepo:    templateRepo,
		ContactRepo:     contactRepo,
		SuppressionRepo: suppressionRepo,
		QueueRepo:       queueRepo,
	}
	queue.StartExpansionSubscriber(q, func(campaignID, fromStep int) error {
		_, err := expansionService.ExpandCampaign(campaignID, fromStep)
		return err
	})

	dispatchService := service.NewDispatchService()
	dispatchService.OrgRepo = orgRepo
	dispatchService.QueueRepo = queueRepo
	dispatchService.ContactRepo = contactRepo
	dispatchService.CampaignRepo = campaignRepo
	dispatchService.SuppressionRepo = suppressionRepo
	dispatchService.TemplateRepo = templateRepo
	dispatchService.ActivityRepo = activityRepo
	dispatchService.Quota = &service.QuotaTracker{OrgRepo: orgRepo}
	dispatchService.Mailer = mailer.NewSESMailer(v)
	dispatchService.CRM = crm.NewClient(cfg.CRMBaseURL, v)
	dispatchService.Signer = signer
	dispatchService.BaseURL = cfg.BaseURL

	dispatchController := &controller.DispatchController{
		DispatchService: dispatchService,
		CronSecret:      cfg.CronSecret,
	}
	campaignController := &controller.CampaignController{
		CampaignRepo: campaignRepo,
		QueueRepo:    queueRepo,
		ContactRepo:  contactRepo,
		TemplateRepo: templateRepo,
		Queue:        q,
		AMQPURL:      cfg.AMQPURL,
	}
	unsubscribeController := &controller.UnsubscribeController{
		Signer:          signer,
		SuppressionRepo: suppressionRepo,
		ContactRepo:     contactRepo,
	}

	r := chi.NewRouter()

	// Dispatch trigger, polled by the external scheduler
	r.Post("/dispatch/run", dispatchController.RunDispatch)

	// Campaign routes
	r.Post("/campaigns", campaignController.CreateCampaign)
	r.Get("/campaigns", campaignController.ListCampaigns)
	r.Get("/campaigns/{id}", campaignController.GetCampaign)
	r.Post("/campaigns/{id}/activate", campaignController.ActivateCampaign)
	r.Post("/campaigns/{id}/personalized-preview", campaignController.PersonalizedPreview)

	// One-click unsubscribe landing
	r.Get("/unsubscribe", unsubscribeController.Unsubscribe)

	log.Println("🚀 Server running on", cfg.ListenAddr)
	log.Fatal(http.ListenAndServe(cfg.ListenAddr, r))
}
