package journal

import (
	"database/sql"
	"fmt"
)

// AddStep records one step event for a run
func (j *Journal) AddStep(runID, step, status, detail string) error {
	_, err := j.conn.Exec(`
		INSERT INTO run_steps (run_id, step, status, detail)
		VALUES (?, ?, ?, ?)
	`, runID, step, status, detail)
	if err != nil {
		return fmt.Errorf("failed to record step: %w", err)
	}
	return nil
}

// GetSteps returns all step events of a run in the order they happened
func (j *Journal) GetSteps(runID string) ([]*Step, error) {
	rows, err := j.conn.Query(`
		SELECT id, run_id, step, status, detail, timestamp
		FROM run_steps
		WHERE run_id = ?
		ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query steps: %w", err)
	}
	defer rows.Close()

	return scanSteps(rows)
}

func scanSteps(rows *sql.Rows) ([]*Step, error) {
	var steps []*Step
	for rows.Next() {
		var step Step
		var detail sql.NullString

		err := rows.Scan(&step.ID, &step.RunID, &step.Name, &step.Status, &detail, &step.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("failed to scan step: %w", err)
		}

		step.Detail = detail.String
		steps = append(steps, &step)
	}

	return steps, rows.Err()
}
