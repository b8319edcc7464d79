package main

import (
	"encoding/json"
	"log"

	"github.com/joho/godotenv"
	"github.com/streadway/amqp"

	"github.com/relaycrm/outreach-backend/internal/config"
	"github.com/relaycrm/outreach-backend/internal/db"
	"github.com/relaycrm/outreach-backend/internal/queue"
	"github.com/relaycrm/outreach-backend/internal/repository"
	"github.com/relaycrm/outreach-backend/internal/service"
)

// The worker consumes campaign expansion jobs from RabbitMQ and materializes
// queue items. Expansion is idempotent, so a redelivered job is harmless.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	cfg := config.Load()
	db.Init()

	expansionService := &service.ExpansionService{
		CampaignRepo:    &repository.CampaignRepository{DB: db.DB},
		SequenceRepo:    &repository.SequenceRepository{DB: db.DB},
		TemplateRepo:    &repository.TemplateRepository{DB: db.DB},
		ContactRepo:     &repository.ContactRepository{DB: db.DB},
		SuppressionRepo: &repository.SuppressionRepository{DB: db.DB},
		QueueRepo:       &repository.QueueRepository{DB: db.DB},
	}

	// Connect to RabbitMQ
	conn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		log.Fatal("Failed to connect to RabbitMQ:", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatal("Failed to open a channel:", err)
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		queue.ExpansionTopic, // name
		true,                 // durable
		false,                // delete when unused
		false,                // exclusive
		false,                // no-wait
		nil,                  // arguments
	)
	if err != nil {
		log.Fatal("Failed to declare queue:", err)
	}

	msgs, err := ch.Consume(
		q.Name,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		log.Fatal("Failed to register consumer:", err)
	}

	forever := make(chan bool)

	go func() {
		for d := range msgs {
			var job queue.ExpansionJob
			if err := json.Unmarshal(d.Body, &job); err != nil {
				log.Println("Invalid job:", err)
				d.Ack(false)
				continue
			}

			result, err := expansionService.ExpandCampaign(job.CampaignID, job.FromStep)
			if err != nil {
				log.Println("Failed to expand campaign:", err)
				retryCount := queue.RetryCount(d.Headers)
				if retryCount < queue.MaxExpansionRetries {
					// Republish with the retry header bumped; a bare
					// Nack-requeue keeps the original headers and never
					// drains a poison job.
					if perr := queue.RepublishExpansionJob(ch, d.Body, retryCount); perr != nil {
						log.Println("Failed to requeue job:", perr)
						d.Nack(false, true)
						continue
					}
				} else {
					log.Printf("Dropping expansion job for campaign %d after %d attempts", job.CampaignID, retryCount)
				}
			} else {
				log.Printf("Campaign %d expanded: %d items created", job.CampaignID, result.ItemsCreated)
			}

			d.Ack(false)
		}
	}()

	log.Println("Worker running, waiting for expansion jobs...")
	<-forever
}
