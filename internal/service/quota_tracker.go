// internal/service/quota_tracker.go
package service

import (
	"time"

	"github.com/relaycrm/outreach-backend/internal/model"
	"github.com/relaycrm/outreach-backend/internal/repository"
)

// QuotaTracker is the single accessor for the per-org daily send counter.
// The granularity is the calendar date, not a rolling 24h window.
type QuotaTracker struct {
	OrgRepo repository.OrgSettingsRepositoryInterface
}

// ResetIfStale zeroes sends_today the first time it is observed on a date
// other than today, before any quota is consumed. The in-memory org row is
// updated too so the caller's quota math sees the reset.
func (q *QuotaTracker) ResetIfStale(org *model.OrgSettings, today time.Time) error {
	// Midnight in today's own calendar, so the stored date satisfies sameDay
	// on the next invocation regardless of the server's zone.
	y, m, d := today.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, today.Location())
	if org.SendsTodayDate != nil && sameDay(*org.SendsTodayDate, today) {
		return nil
	}
	if err := q.OrgRepo.ResetQuota(org.OrgID, day); err != nil {
		return err
	}
	org.SendsToday = 0
	org.SendsTodayDate = &day
	return nil
}

// CurrentDailyCount returns how many sends the org has used today.
func (q *QuotaTracker) CurrentDailyCount(org *model.OrgSettings) int {
	return org.SendsToday
}

// RecordSuccess increments the counter after a successful transmit. The DB
// increment is atomic; the in-memory copy tracks it for this cycle's math.
func (q *QuotaTracker) RecordSuccess(org *model.OrgSettings) error {
	if err := q.OrgRepo.IncrementSendsToday(org.OrgID); err != nil {
		return err
	}
	org.SendsToday++
	return nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
