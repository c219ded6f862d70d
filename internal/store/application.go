package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"jobboard-backend/internal/apperr"
)

const applicationCols = `application_id, job_id, candidate_id, company_id, status, applied_at, updated_at`

func scanApplication(row interface{ Scan(...any) error }) (Application, error) {
	var a Application
	var applied, updated string
	err := row.Scan(&a.ApplicationID, &a.JobID, &a.CandidateID, &a.CompanyID, &a.Status, &applied, &updated)
	if err != nil {
		return Application{}, err
	}
	a.AppliedAt = parseRFC3339(applied)
	a.UpdatedAt = parseRFC3339(updated)
	return a, nil
}

// CreateApplication applies a candidate to a job. company_id is derived from
// the job and immutable afterwards. A duplicate (candidate, job) pair
// resolves idempotently: the existing application is returned with
// created=false.
func (s *Store) CreateApplication(ctx context.Context, candidateID, jobID int64) (Application, bool, error) {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return Application{}, false, err
	}
	if _, err := s.GetCandidate(ctx, candidateID); err != nil {
		return Application{}, false, err
	}

	id, err := s.NextID(ctx, SeqApplication)
	if err != nil {
		return Application{}, false, err
	}
	now := nowRFC3339()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO applications (application_id, job_id, candidate_id, company_id, status, applied_at, updated_at)
		 VALUES (?, ?, ?, ?, 'APPLIED', ?, ?)`,
		id, jobID, candidateID, job.CompanyID, now, now)
	if isUniqueViolation(err) {
		existing, gerr := s.GetApplicationByPair(ctx, candidateID, jobID)
		if gerr != nil {
			return Application{}, false, gerr
		}
		return existing, false, nil
	}
	if err != nil {
		return Application{}, false, fmt.Errorf("application create: %w", err)
	}
	return Application{
		ApplicationID: id,
		JobID:         jobID,
		CandidateID:   candidateID,
		CompanyID:     job.CompanyID,
		Status:        "APPLIED",
		AppliedAt:     parseRFC3339(now),
		UpdatedAt:     parseRFC3339(now),
	}, true, nil
}

// GetApplication looks up an application by id.
func (s *Store) GetApplication(ctx context.Context, applicationID int64) (Application, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+applicationCols+` FROM applications WHERE application_id = ?`, applicationID)
	a, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Application{}, apperr.NotFound(fmt.Sprintf("application %d not found", applicationID))
	}
	if err != nil {
		return Application{}, fmt.Errorf("application get: %w", err)
	}
	return a, nil
}

// GetApplicationByPair looks up the unique (candidate, job) application.
func (s *Store) GetApplicationByPair(ctx context.Context, candidateID, jobID int64) (Application, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+applicationCols+` FROM applications WHERE candidate_id = ? AND job_id = ?`, candidateID, jobID)
	a, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Application{}, apperr.NotFound("application not found")
	}
	if err != nil {
		return Application{}, fmt.Errorf("application get pair: %w", err)
	}
	return a, nil
}

// UpdateApplicationStatus sets a new status and bumps updated_at. The status
// must be in the enum; company_id and the pair stay immutable.
func (s *Store) UpdateApplicationStatus(ctx context.Context, applicationID int64, status string) (Application, error) {
	if !ValidApplicationStatus(status) {
		return Application{}, apperr.BadRequest(fmt.Sprintf("invalid status %q", status))
	}
	now := nowRFC3339()
	res, err := s.exec(ctx, "application status",
		`UPDATE applications SET status = ?, updated_at = ? WHERE application_id = ?`,
		status, now, applicationID)
	if err != nil {
		return Application{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Application{}, apperr.NotFound(fmt.Sprintf("application %d not found", applicationID))
	}
	return s.GetApplication(ctx, applicationID)
}

// DeleteApplication removes an application (candidate withdraw / admin).
func (s *Store) DeleteApplication(ctx context.Context, applicationID int64) error {
	res, err := s.exec(ctx, "application delete",
		`DELETE FROM applications WHERE application_id = ?`, applicationID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound(fmt.Sprintf("application %d not found", applicationID))
	}
	return nil
}

func applicationWhere(f ApplicationFilter) (string, []any) {
	var conds []string
	var args []any
	if f.CompanyID != 0 {
		conds = append(conds, "company_id = ?")
		args = append(args, f.CompanyID)
	}
	if f.CandidateID != 0 {
		conds = append(conds, "candidate_id = ?")
		args = append(args, f.CandidateID)
	}
	if f.JobID != 0 {
		conds = append(conds, "job_id = ?")
		args = append(args, f.JobID)
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if f.From != nil {
		conds = append(conds, "applied_at >= ?")
		args = append(args, f.From.UTC().Format(time.RFC3339))
	}
	if f.To != nil {
		conds = append(conds, "applied_at <= ?")
		args = append(args, f.To.UTC().Format(time.RFC3339))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListApplications returns applications matching the filter, applied_at DESC.
func (s *Store) ListApplications(ctx context.Context, f ApplicationFilter, srt Sort, page Page) ([]Application, int64, error) {
	where, args := applicationWhere(f)

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM applications`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("application count: %w", err)
	}

	dir := "DESC"
	if !srt.Desc && srt.Field != "" {
		dir = "ASC"
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+applicationCols+` FROM applications`+where+
			` ORDER BY applied_at `+dir+`, application_id ASC LIMIT ? OFFSET ?`,
		append(args, page.Limit, page.Skip())...)
	if err != nil {
		return nil, 0, fmt.Errorf("application list: %w", err)
	}
	defer rows.Close()

	apps := []Application{}
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("application list scan: %w", err)
		}
		apps = append(apps, a)
	}
	return apps, total, rows.Err()
}

// PipelineCounts groups applications by status over a filtered window,
// scoped to a company plus optional job and date range. Statuses with no
// applications report zero.
func (s *Store) PipelineCounts(ctx context.Context, f ApplicationFilter) ([]StatusCount, error) {
	f.Status = "" // counts span every status
	where, args := applicationWhere(f)
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM applications`+where+` GROUP BY status`, args...)
	if err != nil {
		return nil, fmt.Errorf("pipeline counts: %w", err)
	}
	defer rows.Close()

	byStatus := make(map[string]int64)
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("pipeline counts scan: %w", err)
		}
		byStatus[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]StatusCount, 0, len(ApplicationStatuses))
	for _, status := range ApplicationStatuses {
		out = append(out, StatusCount{Status: status, Count: byStatus[status]})
	}
	return out, nil
}

// ApplicationPairExists reports whether at least one application links the
// company to the candidate. Consulted by the candidate-visibility predicate.
func (s *Store) ApplicationPairExists(ctx context.Context, companyID, candidateID int64) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM applications WHERE company_id = ? AND candidate_id = ? LIMIT 1`,
		companyID, candidateID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("application pair exists: %w", err)
	}
	return true, nil
}

// StatusesForJobs batch-resolves the candidate's application status per job
// id. Jobs without an application are absent from the map.
func (s *Store) StatusesForJobs(ctx context.Context, candidateID int64, jobIDs []int64) (map[int64]string, error) {
	out := make(map[int64]string, len(jobIDs))
	if len(jobIDs) == 0 {
		return out, nil
	}
	placeholders := strings.Repeat("?,", len(jobIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, 0, len(jobIDs)+1)
	args = append(args, candidateID)
	for _, id := range jobIDs {
		args = append(args, id)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT job_id, status FROM applications WHERE candidate_id = ? AND job_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("statuses for jobs: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var jobID int64
		var status string
		if err := rows.Scan(&jobID, &status); err != nil {
			return nil, fmt.Errorf("statuses for jobs scan: %w", err)
		}
		out[jobID] = status
	}
	return out, rows.Err()
}
