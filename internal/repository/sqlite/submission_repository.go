package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"nuttally/internal/model"
)

// SubmissionRepository implements repository.SubmissionRepository for SQLite.
type SubmissionRepository struct {
	db *DB
}

// NewSubmissionRepository creates a new SQLite submission repository.
func NewSubmissionRepository(db *DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Insert records a submission and its per-class counts in one transaction.
func (r *SubmissionRepository) Insert(sub *model.Submission) error {
	counts, err := json.Marshal(sub.Row.Counts)
	if err != nil {
		return fmt.Errorf("failed to encode counts: %w", err)
	}
	diagnostics, err := json.Marshal(sub.Diagnostics)
	if err != nil {
		return fmt.Errorf("failed to encode diagnostics: %w", err)
	}

	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO submissions (id, filename, timestamp, counts, total, status, reason, diagnostics)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, sub.ID, sub.Row.Filename, sub.Row.Timestamp.UTC(), string(counts), sub.Row.Total,
		string(sub.Outcome.Status), sub.Outcome.Reason, string(diagnostics))
	if err != nil {
		return fmt.Errorf("failed to insert submission: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO submission_counts (submission_id, class_name, count)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for class, count := range sub.ClassCounts {
		if _, err := stmt.Exec(sub.ID, class, count); err != nil {
			return fmt.Errorf("failed to insert class count: %w", err)
		}
	}

	return tx.Commit()
}

// GetByID retrieves a submission by its ID. A missing submission yields nil, nil.
func (r *SubmissionRepository) GetByID(id string) (*model.Submission, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	row := r.db.Conn().QueryRow(`
		SELECT id, filename, timestamp, counts, total, status, reason, diagnostics
		FROM submissions WHERE id = ?
	`, id)

	sub, err := scanSubmission(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	if sub.ClassCounts, err = r.classCounts(sub.ID); err != nil {
		return nil, err
	}
	return sub, nil
}

// GetAll retrieves submissions newest first.
func (r *SubmissionRepository) GetAll(filter *model.SubmissionFilter) ([]model.Submission, error) {
	if filter == nil {
		filter = &model.SubmissionFilter{}
	}

	r.db.RLock()
	defer r.db.RUnlock()

	query := `
		SELECT id, filename, timestamp, counts, total, status, reason, diagnostics
		FROM submissions
		WHERE 1=1
	`
	args := []interface{}{}

	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, string(filter.Status))
	}

	query += " ORDER BY timestamp DESC, created_at DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	if filter.Offset > 0 {
		if filter.Limit <= 0 {
			query += " LIMIT -1"
		}
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}

	var submissions []model.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		submissions = append(submissions, *sub)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate submissions: %w", err)
	}

	// Single connection: class counts are read after the submission cursor is closed.
	for i := range submissions {
		counts, err := r.classCounts(submissions[i].ID)
		if err != nil {
			return nil, err
		}
		submissions[i].ClassCounts = counts
	}

	return submissions, nil
}

// GetTotalCount returns the number of submissions matching the filter, ignoring paging.
func (r *SubmissionRepository) GetTotalCount(filter *model.SubmissionFilter) (int, error) {
	if filter == nil {
		filter = &model.SubmissionFilter{}
	}

	r.db.RLock()
	defer r.db.RUnlock()

	query := `SELECT COUNT(*) FROM submissions WHERE 1=1`
	args := []interface{}{}

	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, string(filter.Status))
	}

	var count int
	if err := r.db.Conn().QueryRow(query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count submissions: %w", err)
	}
	return count, nil
}

// GetStats returns totals per class and per outcome status.
func (r *SubmissionRepository) GetStats() (*model.SubmissionStats, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	stats := &model.SubmissionStats{
		PerClass:  make(map[string]int),
		PerStatus: make(map[model.OutcomeStatus]int),
	}

	if err := r.db.Conn().QueryRow(`SELECT COUNT(*), COALESCE(SUM(total), 0) FROM submissions`).
		Scan(&stats.TotalSubmissions, &stats.TotalDetections); err != nil {
		return nil, fmt.Errorf("failed to read totals: %w", err)
	}

	// Single connection: each cursor is closed before the next query.
	rows, err := r.db.Conn().Query(`SELECT status, COUNT(*) FROM submissions GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to query statuses: %w", err)
	}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			rows.Close()
			return nil, err
		}
		stats.PerStatus[model.OutcomeStatus(status)] = count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate statuses: %w", err)
	}

	classRows, err := r.db.Conn().Query(`
		SELECT class_name, SUM(count)
		FROM submission_counts
		GROUP BY class_name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query class counts: %w", err)
	}
	defer classRows.Close()

	for classRows.Next() {
		var class string
		var count int
		if err := classRows.Scan(&class, &count); err != nil {
			return nil, err
		}
		stats.PerClass[class] = count
	}

	return stats, nil
}

// DeleteAll removes all submissions and their class counts.
func (r *SubmissionRepository) DeleteAll() error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM submission_counts`); err != nil {
		return fmt.Errorf("failed to delete class counts: %w", err)
	}

	if _, err := r.db.Conn().Exec(`DELETE FROM submissions`); err != nil {
		return fmt.Errorf("failed to delete submissions: %w", err)
	}

	return nil
}

// classCounts must be called with the lock held.
func (r *SubmissionRepository) classCounts(id string) (map[string]int, error) {
	rows, err := r.db.Conn().Query(`
		SELECT class_name, count FROM submission_counts WHERE submission_id = ?
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query class counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var class string
		var count int
		if err := rows.Scan(&class, &count); err != nil {
			return nil, fmt.Errorf("failed to scan class count: %w", err)
		}
		counts[class] = count
	}
	return counts, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSubmission(s scanner) (*model.Submission, error) {
	var (
		sub         model.Submission
		timestamp   time.Time
		counts      string
		status      string
		diagnostics string
	)
	if err := s.Scan(&sub.ID, &sub.Row.Filename, &timestamp, &counts, &sub.Row.Total,
		&status, &sub.Outcome.Reason, &diagnostics); err != nil {
		return nil, err
	}

	sub.Row.Timestamp = timestamp
	sub.Outcome.Status = model.OutcomeStatus(status)
	if err := json.Unmarshal([]byte(counts), &sub.Row.Counts); err != nil {
		return nil, fmt.Errorf("failed to decode counts: %w", err)
	}
	if err := json.Unmarshal([]byte(diagnostics), &sub.Diagnostics); err != nil {
		return nil, fmt.Errorf("failed to decode diagnostics: %w", err)
	}
	return &sub, nil
}
