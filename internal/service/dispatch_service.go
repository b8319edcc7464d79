// internal/service/dispatch_service.go
package service

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"time"

	"github.com/relaycrm/outreach-backend/internal/mailer"
	"github.com/relaycrm/outreach-backend/internal/model"
	"github.com/relaycrm/outreach-backend/internal/repository"
	"github.com/relaycrm/outreach-backend/internal/unsubscribe"
)

// SenderBuilder constructs a per-org delivery sender. A failure here is
// tenant-fatal for the cycle.
type SenderBuilder interface {
	BuildSender(ctx context.Context, org *model.OrgSettings) (mailer.Sender, error)
}

// CRMSyncer pushes a delivered send onto the external CRM timeline. Calls
// are best-effort; the dispatcher logs failures and never lets them touch a
// queue item's status.
type CRMSyncer interface {
	RecordSend(ctx context.Context, org *model.OrgSettings, contact *model.Contact, subject, body string, sentAt time.Time) (string, error)
}

// DispatchService runs one dispatch pass over all sending-enabled orgs.
// Invocations are assumed single-flight: the external scheduler must not
// overlap triggers. Orgs and their items are processed sequentially so
// quota increments cannot race within an org.
type DispatchService struct {
	OrgRepo         repository.OrgSettingsRepositoryInterface
	QueueRepo       repository.QueueRepositoryInterface
	ContactRepo     repository.ContactRepositoryInterface
	CampaignRepo    repository.CampaignRepositoryInterface
	SuppressionRepo repository.SuppressionRepositoryInterface
	TemplateRepo    repository.TemplateRepositoryInterface
	ActivityRepo    repository.ActivityRepositoryInterface
	Quota           *QuotaTracker
	Mailer          SenderBuilder
	CRM             CRMSyncer
	Signer          *unsubscribe.Signer
	BaseURL         string

	// Now, Sleep and Rng are swappable for tests.
	Now   func() time.Time
	Sleep func(time.Duration)
	Rng   *rand.Rand
}

func NewDispatchService() *DispatchService {
	return &DispatchService{
		Now:   time.Now,
		Sleep: time.Sleep,
		Rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// OrgReport is what the invoking scheduler sees per org: enough to tell
// "nothing to send" apart from "everything failed".
type OrgReport struct {
	OrgID     int    `json:"org_id"`
	Sent      int    `json:"sent"`
	Errored   int    `json:"errored"`
	Cancelled int    `json:"cancelled"`
	Skipped   bool   `json:"skipped,omitempty"` // quota exhausted before the cycle
	Error     string `json:"error,omitempty"`   // tenant-fatal error, if any
}

type DispatchReport struct {
	RanAt time.Time   `json:"ran_at"`
	Orgs  []OrgReport `json:"orgs"`
}

type itemOutcome int

const (
	outcomeSent itemOutcome = iota
	outcomeErrored
	outcomeCancelled
	outcomeSkipped
)

// Run executes one dispatch pass. One org's misconfiguration never stops the
// others; only listing the orgs themselves can fail the pass.
func (s *DispatchService) Run(ctx context.Context) (*DispatchReport, error) {
	now := s.Now()
	report := &DispatchReport{RanAt: now, Orgs: []OrgReport{}}

	orgs, err := s.OrgRepo.ListSendingEnabled()
	if err != nil {
		return nil, err
	}

	for _, org := range orgs {
		report.Orgs = append(report.Orgs, s.dispatchOrg(ctx, org))
	}

	return report, nil
}

func (s *DispatchService) dispatchOrg(ctx context.Context, org *model.OrgSettings) OrgReport {
	result := OrgReport{OrgID: org.OrgID}
	now := s.Now()

	if err := s.Quota.ResetIfStale(org, now); err != nil {
		log.Printf("⚠️ org %d: quota reset failed: %v", org.OrgID, err)
		result.Error = err.Error()
		return result
	}

	remaining := org.DailySendLimit - s.Quota.CurrentDailyCount(org)
	if remaining <= 0 {
		// Normal backpressure, not an error.
		result.Skipped = true
		return result
	}

	items, err := s.QueueRepo.ListDue(org.OrgID, remaining, now)
	if err != nil {
		log.Printf("⚠️ org %d: listing due items failed: %v", org.OrgID, err)
		result.Error = err.Error()
		return result
	}
	if len(items) == 0 {
		return result
	}

	sender, err := s.Mailer.BuildSender(ctx, org)
	if err != nil {
		// Tenant-fatal: no entries are touched, the whole batch stays queued.
		log.Printf("⚠️ org %d: cannot build delivery client: %v", org.OrgID, err)
		result.Error = err.Error()
		return result
	}

	for _, item := range items {
		outcome := s.processItem(ctx, sender, org, item)
		switch outcome {
		case outcomeSent:
			result.Sent++
			if org.SendDelaySeconds > 0 {
				s.Sleep(time.Duration(org.SendDelaySeconds) * time.Second)
			}
		case outcomeErrored:
			result.Errored++
		case outcomeCancelled:
			result.Cancelled++
		}
	}

	log.Printf("📬 org %d dispatch: %d sent, %d errored, %d cancelled",
		org.OrgID, result.Sent, result.Errored, result.Cancelled)
	return result
}

// processItem drives one queue item through the send state machine. Every
// per-item error is converted into a status transition plus a stored
// message; nothing propagates to the org loop.
func (s *DispatchService) processItem(ctx context.Context, sender mailer.Sender, org *model.OrgSettings, item *model.EmailQueueItem) itemOutcome {
	contact, err := s.ContactRepo.GetByID(item.ContactID)
	if err != nil {
		log.Printf("⚠️ item %d: fetching contact %d failed: %v", item.ID, item.ContactID, err)
		return outcomeSkipped
	}
	if contact == nil {
		s.cancel(item, "contact no longer exists")
		return outcomeCancelled
	}

	// Policy checks, cheapest first. None of them consume quota.
	if contact.Unsubscribed {
		s.cancel(item, "recipient unsubscribed")
		return outcomeCancelled
	}

	campaign, err := s.CampaignRepo.GetByID(item.CampaignID)
	if err != nil {
		log.Printf("⚠️ item %d: fetching campaign %d failed: %v", item.ID, item.CampaignID, err)
		return outcomeSkipped
	}
	if !campaign.Sendable() {
		s.cancel(item, fmt.Sprintf("campaign %s", campaign.Status))
		return outcomeCancelled
	}

	// Suppression is re-checked at send time: an address can be suppressed
	// after the item was enqueued.
	suppressed, err := s.SuppressionRepo.Exists(org.OrgID, item.ToEmail)
	if err != nil {
		log.Printf("⚠️ item %d: suppression lookup failed: %v", item.ID, err)
		return outcomeSkipped
	}
	if suppressed {
		s.cancel(item, "address suppressed")
		return outcomeCancelled
	}

	subject, variant, bodyHTML, bodyText, err := s.render(org, contact, item)
	if err != nil {
		s.fail(item, fmt.Sprintf("render: %v", err))
		return outcomeErrored
	}

	if err := s.QueueRepo.MarkSending(item.ID); err != nil {
		log.Printf("⚠️ item %d: transition to sending failed: %v", item.ID, err)
		return outcomeSkipped
	}

	msg := &mailer.OutgoingMessage{
		To:       item.ToEmail,
		Subject:  subject,
		BodyHTML: bodyHTML,
		BodyText: bodyText,
		CorrelationTags: map[string]string{
			"org_id":        strconv.Itoa(org.OrgID),
			"queue_item_id": strconv.Itoa(item.ID),
		},
	}

	providerID, err := sender.Send(ctx, msg)
	if err != nil {
		// Failed is permanent from this core's perspective; a retry is a
		// manual re-enqueue, never automatic.
		s.fail(item, err.Error())
		return outcomeErrored
	}

	sentAt := s.Now()
	if err := s.QueueRepo.MarkDelivered(item.ID, providerID, subject, variant, bodyHTML, bodyText, sentAt); err != nil {
		log.Printf("⚠️ item %d: recording delivery failed: %v", item.ID, err)
	}

	s.syncCRM(ctx, org, contact, item, subject, bodyHTML, sentAt)

	if item.CRMActivityID != nil {
		if err := s.ActivityRepo.MarkCompleted(*item.CRMActivityID); err != nil {
			log.Printf("⚠️ item %d: completing activity %d failed: %v", item.ID, *item.CRMActivityID, err)
		}
	}

	if err := s.Quota.RecordSuccess(org); err != nil {
		log.Printf("⚠️ org %d: quota increment failed: %v", org.OrgID, err)
	}

	return outcomeSent
}

// render produces the final subject and bodies: merge fields, A/B subject
// pick, org signature, and the compliance footer with a freshly signed
// unsubscribe token scoped to this exact queue item.
func (s *DispatchService) render(org *model.OrgSettings, contact *model.Contact, item *model.EmailQueueItem) (subject, variant, bodyHTML, bodyText string, err error) {
	fields := MergeFields(contact)

	rawSubject := item.Subject
	rawHTML := item.BodyHTML
	rawText := item.BodyText
	variant = SubjectVariantA
	skipFooter := false

	if item.TemplateID != nil {
		tpl, terr := s.TemplateRepo.GetByID(*item.TemplateID)
		if terr != nil {
			return "", "", "", "", terr
		}
		if tpl != nil {
			rawSubject, variant = PickSubject(tpl, s.Rng)
			rawHTML = tpl.BodyHTML
			rawText = tpl.BodyText
			skipFooter = tpl.SkipFooter
		}
	}

	subject = RenderTemplate(rawSubject, fields)
	bodyHTML = RenderTemplate(rawHTML, fields)
	bodyText = RenderTemplate(rawText, fields)

	bodyHTML, bodyText = AppendSignature(bodyHTML, bodyText, org)

	if !skipFooter {
		token, serr := s.Signer.Sign(unsubscribe.Payload{
			OrgID:       org.OrgID,
			ContactID:   contact.ID,
			QueueItemID: item.ID,
			Email:       item.ToEmail,
		})
		if serr != nil {
			return "", "", "", "", serr
		}
		bodyHTML = AppendComplianceFooter(bodyHTML, s.BaseURL+"/unsubscribe?token="+token, org.PostalAddress)
	}

	return subject, variant, bodyHTML, bodyText, nil
}

// syncCRM is fire-and-forget: a CRM outage must never turn a delivered mail
// into a reported failure or block the rest of the batch.
func (s *DispatchService) syncCRM(ctx context.Context, org *model.OrgSettings, contact *model.Contact, item *model.EmailQueueItem, subject, body string, sentAt time.Time) {
	if s.CRM == nil {
		return
	}
	engagementID, err := s.CRM.RecordSend(ctx, org, contact, subject, body, sentAt)
	if err != nil {
		log.Printf("⚠️ item %d: CRM sync failed (ignored): %v", item.ID, err)
		return
	}
	if engagementID != "" {
		if err := s.QueueRepo.SetEngagementID(item.ID, engagementID); err != nil {
			log.Printf("⚠️ item %d: storing engagement id failed: %v", item.ID, err)
		}
	}
}

func (s *DispatchService) cancel(item *model.EmailQueueItem, reason string) {
	if err := s.QueueRepo.MarkCancelled(item.ID, reason); err != nil {
		log.Printf("⚠️ item %d: cancel (%s) failed: %v", item.ID, reason, err)
	}
}

func (s *DispatchService) fail(item *model.EmailQueueItem, msg string) {
	if err := s.QueueRepo.MarkFailed(item.ID, msg); err != nil {
		log.Printf("⚠️ item %d: marking failed: %v", item.ID, err)
	}
}
