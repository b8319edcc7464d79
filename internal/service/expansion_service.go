// internal/service/expansion_service.go
package service

import (
	"fmt"
	"log"

	"github.com/relaycrm/outreach-backend/internal/model"
	"github.com/relaycrm/outreach-backend/internal/repository"
)

// ExpansionService materializes a campaign's outreach plan into queue items:
// one per (contact × email step), scheduled at start date + the step's day
// offset. Expansion is idempotent thanks to the queue table's unique
// constraint, so re-activating a campaign produces the union, never
// duplicates.
type ExpansionService struct {
	CampaignRepo    repository.CampaignRepositoryInterface
	SequenceRepo    repository.SequenceRepositoryInterface
	TemplateRepo    repository.TemplateRepositoryInterface
	ContactRepo     repository.ContactRepositoryInterface
	SuppressionRepo repository.SuppressionRepositoryInterface
	QueueRepo       repository.QueueRepositoryInterface
}

type ExpansionResult struct {
	CampaignID   int `json:"campaign_id"`
	ItemsCreated int `json:"items_created"`
	ItemsSkipped int `json:"items_skipped"`
	StepsSkipped int `json:"steps_skipped"`
}

// ExpandCampaign expands every email step with step_number >= fromStep.
// Steps with no resolvable template are skipped entirely; a campaign still
// in "planned" goes "active" once at least one step produced queue items.
func (s *ExpansionService) ExpandCampaign(campaignID, fromStep int) (*ExpansionResult, error) {
	campaign, err := s.CampaignRepo.GetByID(campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.SequenceID == nil {
		return nil, fmt.Errorf("campaign %d has no outreach sequence assigned", campaignID)
	}
	if campaign.StartDate == nil {
		return nil, fmt.Errorf("campaign %d has no start date", campaignID)
	}

	steps, err := s.SequenceRepo.ListSteps(*campaign.SequenceID)
	if err != nil {
		return nil, err
	}

	contacts, err := s.ContactRepo.ListActiveByAccount(campaign.OrgID, campaign.AccountID)
	if err != nil {
		return nil, err
	}

	result := &ExpansionResult{CampaignID: campaignID}

	for _, step := range steps {
		if step.Channel != "email" || step.StepNumber < fromStep {
			continue
		}

		tpl, err := s.TemplateRepo.FindForStep(campaign.OrgID, campaignID, step.StepNumber)
		if err != nil {
			return nil, err
		}
		if tpl == nil {
			log.Printf("⚠️ campaign %d step %d has no template, skipping step", campaignID, step.StepNumber)
			result.StepsSkipped++
			continue
		}

		scheduledAt := campaign.StartDate.AddDate(0, 0, step.DayOffset)

		for i := range contacts {
			contact := &contacts[i]

			suppressed, err := s.SuppressionRepo.Exists(campaign.OrgID, contact.Email)
			if err != nil {
				return nil, err
			}
			if suppressed {
				result.ItemsSkipped++
				continue
			}

			item := &model.EmailQueueItem{
				OrgID:       campaign.OrgID,
				CampaignID:  campaignID,
				ContactID:   contact.ID,
				TemplateID:  &tpl.ID,
				StepNumber:  step.StepNumber,
				ToEmail:     contact.Email,
				Subject:     tpl.Subject,
				BodyHTML:    tpl.BodyHTML,
				BodyText:    tpl.BodyText,
				ScheduledAt: scheduledAt,
			}
			created, err := s.QueueRepo.Create(item)
			if err != nil {
				return nil, err
			}
			if created {
				result.ItemsCreated++
			} else {
				result.ItemsSkipped++
			}
		}
	}

	if result.ItemsCreated > 0 && campaign.Status == model.CampaignStatusPlanned {
		if err := s.CampaignRepo.UpdateStatus(campaignID, model.CampaignStatusActive); err != nil {
			return result, err
		}
	}

	log.Printf("📨 campaign %d expanded: %d created, %d skipped, %d steps without template",
		campaignID, result.ItemsCreated, result.ItemsSkipped, result.StepsSkipped)
	return result, nil
}
