package journal

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// StartRun records the beginning of a provisioning run and returns its id
func (j *Journal) StartRun(device, image string, systemSizeGB int) (string, error) {
	id := uuid.NewString()

	_, err := j.conn.Exec(`
		INSERT INTO runs (id, device, image, system_size_gb, status)
		VALUES (?, ?, ?, ?, ?)
	`, id, device, image, systemSizeGB, StatusRunning)
	if err != nil {
		return "", fmt.Errorf("failed to record run: %w", err)
	}

	return id, nil
}

// FinishRun closes a run with its final status and optional error message
func (j *Journal) FinishRun(id, status, errMsg string) error {
	_, err := j.conn.Exec(`
		UPDATE runs
		SET status = ?, error = ?, finished_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, status, errMsg, id)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

// GetRun returns a run by id, or nil when it does not exist
func (j *Journal) GetRun(id string) (*Run, error) {
	rows, err := j.conn.Query(`
		SELECT id, device, image, system_size_gb, status, error, started_at, finished_at
		FROM runs WHERE id = ?
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	defer rows.Close()

	runs, err := scanRuns(rows)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return runs[0], nil
}

// GetRuns returns the most recent runs, newest first
func (j *Journal) GetRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := j.conn.Query(`
		SELECT id, device, image, system_size_gb, status, error, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// RunCount returns totals by final status
func (j *Journal) RunCount() (total, done, failed int, err error) {
	err = j.conn.QueryRow(`
		SELECT COUNT(*),
			COUNT(CASE WHEN status = ? THEN 1 END),
			COUNT(CASE WHEN status = ? THEN 1 END)
		FROM runs
	`, StatusDone, StatusFailed).Scan(&total, &done, &failed)
	if err != nil {
		err = fmt.Errorf("failed to count runs: %w", err)
	}
	return total, done, failed, err
}

func scanRuns(rows *sql.Rows) ([]*Run, error) {
	var runs []*Run
	for rows.Next() {
		var run Run
		var image, errMsg sql.NullString
		var sizeGB sql.NullInt64
		var finishedAt sql.NullTime

		err := rows.Scan(
			&run.ID, &run.Device, &image, &sizeGB,
			&run.Status, &errMsg, &run.StartedAt, &finishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		run.Image = image.String
		run.SystemSizeGB = sizeGB.Int64
		run.Error = errMsg.String
		if finishedAt.Valid {
			t := finishedAt.Time
			run.FinishedAt = &t
		}

		runs = append(runs, &run)
	}

	return runs, rows.Err()
}
