// internal/repository/activity_repository.go
package repository

import "database/sql"

type ActivityRepositoryInterface interface {
	MarkCompleted(id int) error
}

type ActivityRepository struct {
	DB *sql.DB
}

// MarkCompleted closes the timeline activity linked to a delivered queue
// item. Activity CRUD itself lives in the main CRM app, not here.
func (r *ActivityRepository) MarkCompleted(id int) error {
	query := `UPDATE activities SET completed = true, completed_at = NOW() WHERE id = $1`
	_, err := r.DB.Exec(query, id)
	return err
}

var _ ActivityRepositoryInterface = (*ActivityRepository)(nil)
