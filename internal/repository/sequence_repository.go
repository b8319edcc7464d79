// internal/repository/sequence_repository.go
package repository

import (
	"database/sql"

	"github.com/relaycrm/outreach-backend/internal/model"
)

type SequenceRepositoryInterface interface {
	ListSteps(sequenceID int) ([]model.SequenceStep, error)
}

type SequenceRepository struct {
	DB *sql.DB
}

// ListSteps returns a sequence's plan steps in step order.
func (r *SequenceRepository) ListSteps(sequenceID int) ([]model.SequenceStep, error) {
	query := `
        SELECT id, sequence_id, step_number, channel, day_offset
        FROM sequence_steps
        WHERE sequence_id = $1
        ORDER BY step_number
    `
	rows, err := r.DB.Query(query, sequenceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	steps := []model.SequenceStep{}
	for rows.Next() {
		var s model.SequenceStep
		if err := rows.Scan(&s.ID, &s.SequenceID, &s.StepNumber, &s.Channel, &s.DayOffset); err != nil {
			return nil, err
		}
		steps = append(steps, s)
	}
	return steps, rows.Err()
}

var _ SequenceRepositoryInterface = (*SequenceRepository)(nil)
