// internal/queue/queue.go
package queue

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/streadway/amqp"
)

// ExpansionTopic carries campaign expansion jobs, published on campaign
// activation and consumed either in-process or by cmd/worker over RabbitMQ.
const ExpansionTopic = "campaign_expansions"

// ExpansionJob asks the expansion engine to materialize queue items for a
// campaign, resuming from FromStep.
type ExpansionJob struct {
	CampaignID int `json:"campaign_id"`
	FromStep   int `json:"from_step"`
}

// Queue interface
type Queue interface {
	Publish(topic string, payload any) error
	Subscribe(topic string, handler func(payload any) error) error
}

// InMemoryQueue is an in-process queue with bounded retry, used when no
// broker is configured and in tests.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]func(payload any) error
}

func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		handlers: make(map[string][]func(payload any) error),
	}
}

// JobPayload wraps a message payload with retry info
type JobPayload struct {
	Payload    any
	RetryCount int
	MaxRetries int
}

// Publish sends a message to all subscribers
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	job := JobPayload{
		Payload:    payload,
		RetryCount: 0,
		MaxRetries: 3,
	}

	for _, handler := range handlers {
		go q.processJob(handler, job)
	}

	return nil
}

// processJob handles retries and errors
func (q *InMemoryQueue) processJob(handler func(payload any) error, job JobPayload) {
	for job.RetryCount <= job.MaxRetries {
		err := handler(job.Payload)
		if err == nil {
			return // ACK
		}

		job.RetryCount++
		log.Printf("Job failed (attempt %d/%d): %+v, error: %v\n", job.RetryCount, job.MaxRetries, job.Payload, err)

		if job.RetryCount > job.MaxRetries {
			log.Printf("Job permanently failed after %d attempts: %+v\n", job.MaxRetries, job.Payload)
			return // No requeue
		}

		// Exponential backoff before retry
		time.Sleep(time.Duration(job.RetryCount*500) * time.Millisecond)
	}
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler func(payload any) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// StartExpansionSubscriber wires the expansion engine to the in-process
// queue so campaign activations expand asynchronously. The expand func seam
// keeps this package free of a service dependency and easy to test.
func StartExpansionSubscriber(q Queue, expand func(campaignID, fromStep int) error) {
	go func() {
		err := q.Subscribe(ExpansionTopic, func(payload any) error {
			job, ok := payload.(ExpansionJob)
			if !ok {
				log.Println("⚠️ Invalid payload type, expected ExpansionJob")
				return nil // no retry
			}

			log.Printf("📩 Expanding campaign %d from step %d", job.CampaignID, job.FromStep)
			if err := expand(job.CampaignID, job.FromStep); err != nil {
				log.Println("⚠️ Campaign expansion failed:", err)
				return err // triggers retry in queue
			}
			return nil
		})

		if err != nil {
			log.Println("⚠️ Failed to start subscriber for", ExpansionTopic, ":", err)
		}
	}()
}

// MaxExpansionRetries bounds broker redeliveries of one expansion job.
const MaxExpansionRetries = 3

const retryCountHeader = "x-retry-count"

// RetryCount reads the retry header from a broker delivery. A missing or
// mistyped header counts as zero.
func RetryCount(headers amqp.Table) int32 {
	switch v := headers[retryCountHeader].(type) {
	case int32:
		return v
	case int64:
		return int32(v)
	case int:
		return int32(v)
	}
	return 0
}

// RepublishExpansionJob re-queues a failed expansion job with the retry
// header bumped. A bare Nack-requeue would redeliver with the original
// headers and spin a poison job forever; this drains it after
// MaxExpansionRetries attempts.
func RepublishExpansionJob(ch *amqp.Channel, body []byte, retryCount int32) error {
	return ch.Publish("", ExpansionTopic, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
		Headers:     amqp.Table{retryCountHeader: retryCount + 1},
	})
}

// PublishExpansionJobAMQP pushes an expansion job onto the durable RabbitMQ
// queue consumed by cmd/worker. The connection is per-publish: activations
// are rare enough that holding a channel open buys nothing.
func PublishExpansionJobAMQP(amqpURL string, job ExpansionJob) error {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return fmt.Errorf("connect to broker: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		ExpansionTopic, // name
		true,           // durable
		false,          // delete when unused
		false,          // exclusive
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	body, err := json.Marshal(job)
	if err != nil {
		return err
	}

	return ch.Publish(
		"",
		q.Name,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}
