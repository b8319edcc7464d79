// internal/model/sequence_step.go
package model

// SequenceStep is one touch in a campaign's outreach plan: what channel to use
// and how many days after campaign start it happens. Read-only to the engine.
type SequenceStep struct {
	ID         int    `db:"id" json:"id"`
	SequenceID int    `db:"sequence_id" json:"sequence_id"`
	StepNumber int    `db:"step_number" json:"step_number"`
	Channel    string `db:"channel" json:"channel"` // email, call, linkedin, ...
	DayOffset  int    `db:"day_offset" json:"day_offset"`
}
