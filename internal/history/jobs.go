package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"docverify/internal/api"
)

// ErrNotFound is returned when the ledger has no entry for a job.
var ErrNotFound = errors.New("job not in history")

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const selectColumns = `job_id, file_name, file_path, file_size, media_type, status, stage,
        progress, verdict, confidence, result_state, error_message, request_id,
        submitted_at, updated_at, completed_at`

// RecordSubmission inserts a newly submitted job. Re-recording the same job id
// refreshes the file details and resets it to processing.
func (s *Store) RecordSubmission(ctx context.Context, sub Submission) (*Entry, error) {
	if strings.TrimSpace(sub.JobID) == "" {
		return nil, errors.New("record submission: job id is required")
	}
	timestamp := time.Now().UTC().Format(timeLayout)
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO jobs (
            job_id, file_name, file_path, file_size, media_type, status,
            progress, request_id, submitted_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?, ?)
        ON CONFLICT(job_id) DO UPDATE SET
            file_name = excluded.file_name,
            file_path = excluded.file_path,
            file_size = excluded.file_size,
            media_type = excluded.media_type,
            status = excluded.status,
            progress = 0,
            request_id = excluded.request_id,
            updated_at = excluded.updated_at,
            completed_at = NULL`,
		sub.JobID,
		sub.FileName,
		nullableString(sub.FilePath),
		sub.FileSize,
		nullableString(sub.MediaType),
		string(api.StatusProcessing),
		nullableString(sub.RequestID),
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return s.Get(ctx, sub.JobID)
}

// UpdateProgress records the latest observed stage. Entries already marked
// terminal are left untouched.
func (s *Store) UpdateProgress(ctx context.Context, jobID, stage string, progress int) error {
	_, err := s.execWithRetry(
		ctx,
		`UPDATE jobs SET stage = ?, progress = ?, updated_at = ?
        WHERE job_id = ? AND status = ?`,
		nullableString(stage),
		progress,
		time.Now().UTC().Format(timeLayout),
		jobID,
		string(api.StatusProcessing),
	)
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	return nil
}

// RecordOutcome stores a job's terminal status and verdict.
func (s *Store) RecordOutcome(ctx context.Context, jobID string, outcome Outcome) error {
	if !outcome.Status.IsTerminal() {
		return fmt.Errorf("record outcome: %q is not a terminal status", outcome.Status)
	}
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs SET status = ?, verdict = ?, confidence = ?, result_state = ?,
            error_message = ?, updated_at = ?, completed_at = COALESCE(completed_at, ?),
            progress = CASE WHEN ? = 'completed' THEN 100 ELSE progress END
        WHERE job_id = ?`,
		string(outcome.Status),
		nullableString(string(outcome.Verdict)),
		nullableFloat(outcome.Confidence),
		nullableString(outcome.ResultState),
		nullableString(outcome.ErrorMessage),
		now,
		now,
		string(outcome.Status),
		jobID,
	)
	if err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("record outcome for %s: %w", jobID, ErrNotFound)
	}
	return nil
}

// Get returns the entry for jobID.
func (s *Store) Get(ctx context.Context, jobID string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM jobs WHERE job_id = ?`, jobID)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", jobID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// List returns entries matching filter, newest first. limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, filter Filter, limit int) ([]*Entry, error) {
	query := `SELECT ` + selectColumns + ` FROM jobs`
	var args []any
	if filter != "" && filter != FilterAll {
		query += ` WHERE status = ?`
		args = append(args, string(filter))
	}
	query += ` ORDER BY submitted_at DESC, job_id`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Stats returns a count of entries grouped by status.
func (s *Store) Stats(ctx context.Context) (map[api.JobStatus]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("history stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[api.JobStatus]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[api.JobStatus(status)] = count
	}
	return stats, rows.Err()
}

// Clear removes every entry and returns how many were deleted.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM jobs`)
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	return res.RowsAffected()
}

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*Entry, error) {
	var (
		entry        Entry
		status       string
		filePath     sql.NullString
		mediaType    sql.NullString
		stage        sql.NullString
		verdict      sql.NullString
		confidence   sql.NullFloat64
		resultState  sql.NullString
		errorMessage sql.NullString
		requestID    sql.NullString
		submittedRaw string
		updatedRaw   string
		completedRaw sql.NullString
	)
	if err := scanner.Scan(
		&entry.JobID,
		&entry.FileName,
		&filePath,
		&entry.FileSize,
		&mediaType,
		&status,
		&stage,
		&entry.Progress,
		&verdict,
		&confidence,
		&resultState,
		&errorMessage,
		&requestID,
		&submittedRaw,
		&updatedRaw,
		&completedRaw,
	); err != nil {
		return nil, err
	}
	entry.Status = api.ParseJobStatus(status)
	entry.FilePath = filePath.String
	entry.MediaType = mediaType.String
	entry.Stage = stage.String
	entry.Verdict = api.OverallStatus(verdict.String)
	if confidence.Valid {
		value := confidence.Float64
		entry.Confidence = &value
	}
	entry.ResultState = resultState.String
	entry.ErrorMessage = errorMessage.String
	entry.RequestID = requestID.String
	if ts, err := time.Parse(timeLayout, submittedRaw); err == nil {
		entry.SubmittedAt = ts
	}
	if ts, err := time.Parse(timeLayout, updatedRaw); err == nil {
		entry.UpdatedAt = ts
	}
	if completedRaw.Valid {
		if ts, err := time.Parse(timeLayout, completedRaw.String); err == nil {
			entry.CompletedAt = &ts
		}
	}
	return &entry, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableFloat(value *float64) any {
	if value == nil {
		return nil
	}
	return *value
}
