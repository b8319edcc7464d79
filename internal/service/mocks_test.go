package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/relaycrm/outreach-backend/internal/mailer"
	"github.com/relaycrm/outreach-backend/internal/model"
)

// --- Mock repositories shared by the service tests ---

type mockOrgRepo struct {
	orgs       []*model.OrgSettings
	resetCalls []int
	incrCalls  []int
	failIncr   bool
}

func (m *mockOrgRepo) ListSendingEnabled() ([]*model.OrgSettings, error) {
	return m.orgs, nil
}

func (m *mockOrgRepo) GetByOrgID(orgID int) (*model.OrgSettings, error) {
	for _, o := range m.orgs {
		if o.OrgID == orgID {
			return o, nil
		}
	}
	return nil, nil
}

func (m *mockOrgRepo) ResetQuota(orgID int, today time.Time) error {
	m.resetCalls = append(m.resetCalls, orgID)
	return nil
}

func (m *mockOrgRepo) IncrementSendsToday(orgID int) error {
	if m.failIncr {
		return fmt.Errorf("increment failed")
	}
	m.incrCalls = append(m.incrCalls, orgID)
	return nil
}

type mockQueueRepo struct {
	items  map[int]*model.EmailQueueItem
	nextID int
}

func newMockQueueRepo(items ...*model.EmailQueueItem) *mockQueueRepo {
	m := &mockQueueRepo{items: map[int]*model.EmailQueueItem{}, nextID: 1}
	for _, item := range items {
		if item.ID == 0 {
			item.ID = m.nextID
		}
		if item.Status == "" {
			item.Status = model.QueueStatusQueued
		}
		m.items[item.ID] = item
		if item.ID >= m.nextID {
			m.nextID = item.ID + 1
		}
	}
	return m
}

func (m *mockQueueRepo) Create(item *model.EmailQueueItem) (bool, error) {
	for _, existing := range m.items {
		if existing.CampaignID == item.CampaignID &&
			existing.ContactID == item.ContactID &&
			existing.StepNumber == item.StepNumber {
			return false, nil
		}
	}
	item.ID = m.nextID
	m.nextID++
	item.Status = model.QueueStatusQueued
	m.items[item.ID] = item
	return true, nil
}

func (m *mockQueueRepo) GetByID(id int) (*model.EmailQueueItem, error) {
	return m.items[id], nil
}

func (m *mockQueueRepo) ListDue(orgID, limit int, now time.Time) ([]*model.EmailQueueItem, error) {
	due := []*model.EmailQueueItem{}
	for _, item := range m.items {
		if item.OrgID == orgID && item.Status == model.QueueStatusQueued && !item.ScheduledAt.After(now) {
			due = append(due, item)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ScheduledAt.Before(due[j].ScheduledAt) })
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (m *mockQueueRepo) MarkSending(id int) error {
	if item, ok := m.items[id]; ok && item.Status == model.QueueStatusQueued {
		item.Status = model.QueueStatusSending
	}
	return nil
}

func (m *mockQueueRepo) MarkCancelled(id int, reason string) error {
	item, ok := m.items[id]
	if !ok || item.Terminal() {
		return nil
	}
	item.Status = model.QueueStatusCancelled
	item.LastError = reason
	return nil
}

func (m *mockQueueRepo) MarkDelivered(id int, providerMessageID, subject, variant, bodyHTML, bodyText string, sentAt time.Time) error {
	item, ok := m.items[id]
	if !ok || item.Status != model.QueueStatusSending {
		return nil
	}
	item.Status = model.QueueStatusDelivered
	item.ProviderMessageID = providerMessageID
	item.Subject = subject
	item.SubjectVariant = variant
	item.BodyHTML = bodyHTML
	item.BodyText = bodyText
	item.SentAt = &sentAt
	item.LastError = ""
	return nil
}

func (m *mockQueueRepo) MarkFailed(id int, lastError string) error {
	item, ok := m.items[id]
	if !ok || (item.Status != model.QueueStatusQueued && item.Status != model.QueueStatusSending) {
		return nil
	}
	item.Status = model.QueueStatusFailed
	item.LastError = lastError
	return nil
}

func (m *mockQueueRepo) SetEngagementID(id int, engagementID string) error {
	if item, ok := m.items[id]; ok {
		item.CRMEngagementID = engagementID
	}
	return nil
}

func (m *mockQueueRepo) StatsByCampaign(campaignID int) (map[string]int, error) {
	stats := map[string]int{}
	for _, item := range m.items {
		if item.CampaignID == campaignID {
			stats[item.Status]++
		}
	}
	return stats, nil
}

type mockContactRepo struct {
	contacts map[int]*model.Contact
}

func (m *mockContactRepo) GetByID(id int) (*model.Contact, error) {
	return m.contacts[id], nil
}

func (m *mockContactRepo) ListActiveByAccount(orgID, accountID int) ([]model.Contact, error) {
	out := []model.Contact{}
	ids := []int{}
	for id := range m.contacts {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		c := m.contacts[id]
		if c.OrgID == orgID && c.AccountID == accountID && c.Status == "active" && !c.Unsubscribed {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *mockContactRepo) MarkUnsubscribed(id int) error {
	if c, ok := m.contacts[id]; ok {
		c.Unsubscribed = true
	}
	return nil
}

type mockCampaignRepo struct {
	campaigns     map[int]*model.Campaign
	statusUpdates map[int]string
}

func (m *mockCampaignRepo) Create(c *model.Campaign) error {
	c.ID = len(m.campaigns) + 1
	m.campaigns[c.ID] = c
	return nil
}

func (m *mockCampaignRepo) GetByID(id int) (*model.Campaign, error) {
	c, ok := m.campaigns[id]
	if !ok {
		return nil, fmt.Errorf("campaign with ID %d not found", id)
	}
	return c, nil
}

func (m *mockCampaignRepo) UpdateStatus(campaignID int, status string) error {
	if m.statusUpdates == nil {
		m.statusUpdates = map[int]string{}
	}
	m.statusUpdates[campaignID] = status
	if c, ok := m.campaigns[campaignID]; ok {
		c.Status = status
	}
	return nil
}

func (m *mockCampaignRepo) ListCampaigns(offset, limit int, status string) ([]*model.Campaign, int, error) {
	return nil, 0, nil
}

type mockSuppressionRepo struct {
	suppressed map[string]bool
}

func suppressionKey(orgID int, email string) string {
	return fmt.Sprintf("%d/%s", orgID, email)
}

func (m *mockSuppressionRepo) Exists(orgID int, email string) (bool, error) {
	return m.suppressed[suppressionKey(orgID, email)], nil
}

func (m *mockSuppressionRepo) Create(orgID int, email, reason string) error {
	if m.suppressed == nil {
		m.suppressed = map[string]bool{}
	}
	m.suppressed[suppressionKey(orgID, email)] = true
	return nil
}

type mockTemplateRepo struct {
	byID     map[int]*model.MessageTemplate
	byStep   map[int]*model.MessageTemplate // org-default templates keyed by step number
	override map[int]*model.MessageTemplate // campaign-scoped templates keyed by step number
	getErr   error
}

func (m *mockTemplateRepo) GetByID(id int) (*model.MessageTemplate, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.byID[id], nil
}

func (m *mockTemplateRepo) FindForStep(orgID, campaignID, stepNumber int) (*model.MessageTemplate, error) {
	if tpl, ok := m.override[stepNumber]; ok {
		return tpl, nil
	}
	return m.byStep[stepNumber], nil
}

type mockActivityRepo struct {
	completed []int
}

func (m *mockActivityRepo) MarkCompleted(id int) error {
	m.completed = append(m.completed, id)
	return nil
}

// --- Mock delivery and CRM ---

type mockSender struct {
	sent    []*mailer.OutgoingMessage
	sendErr error
	nextID  int
}

func (m *mockSender) Send(ctx context.Context, msg *mailer.OutgoingMessage) (string, error) {
	if m.sendErr != nil {
		return "", m.sendErr
	}
	m.sent = append(m.sent, msg)
	m.nextID++
	return fmt.Sprintf("ses-msg-%d", m.nextID), nil
}

type mockSenderBuilder struct {
	sender   *mockSender
	buildErr error
}

func (m *mockSenderBuilder) BuildSender(ctx context.Context, org *model.OrgSettings) (mailer.Sender, error) {
	if m.buildErr != nil {
		return nil, m.buildErr
	}
	return m.sender, nil
}

type mockCRM struct {
	calls        int
	engagementID string
	err          error
}

func (m *mockCRM) RecordSend(ctx context.Context, org *model.OrgSettings, contact *model.Contact, subject, body string, sentAt time.Time) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.engagementID, nil
}
