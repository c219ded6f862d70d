package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"jobboard-backend/internal/apperr"
)

// AddFavorite saves a job for a candidate. A duplicate add is idempotent:
// the existing favorite comes back with created=false.
func (s *Store) AddFavorite(ctx context.Context, candidateID, jobID int64) (Favorite, bool, error) {
	if _, err := s.GetJob(ctx, jobID); err != nil {
		return Favorite{}, false, err
	}
	id, err := s.NextID(ctx, SeqFavorite)
	if err != nil {
		return Favorite{}, false, err
	}
	now := nowRFC3339()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO favorites (favorite_id, candidate_id, job_id, created_at) VALUES (?, ?, ?, ?)`,
		id, candidateID, jobID, now)
	if isUniqueViolation(err) {
		row := s.db.QueryRowContext(ctx,
			`SELECT favorite_id, candidate_id, job_id, created_at FROM favorites WHERE candidate_id = ? AND job_id = ?`,
			candidateID, jobID)
		var f Favorite
		var created string
		if err := row.Scan(&f.FavoriteID, &f.CandidateID, &f.JobID, &created); err != nil {
			return Favorite{}, false, fmt.Errorf("favorite get existing: %w", err)
		}
		f.CreatedAt = parseRFC3339(created)
		return f, false, nil
	}
	if err != nil {
		return Favorite{}, false, fmt.Errorf("favorite add: %w", err)
	}
	return Favorite{FavoriteID: id, CandidateID: candidateID, JobID: jobID, CreatedAt: parseRFC3339(now)}, true, nil
}

// RemoveFavorite deletes a candidate's favorite for a job.
func (s *Store) RemoveFavorite(ctx context.Context, candidateID, jobID int64) error {
	res, err := s.exec(ctx, "favorite remove",
		`DELETE FROM favorites WHERE candidate_id = ? AND job_id = ?`, candidateID, jobID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("favorite not found")
	}
	return nil
}

// ListFavorites returns a candidate's favorites, newest first, paginated.
func (s *Store) ListFavorites(ctx context.Context, candidateID int64, page Page) ([]Favorite, int64, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM favorites WHERE candidate_id = ?`, candidateID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("favorite count: %w", err)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT favorite_id, candidate_id, job_id, created_at FROM favorites
		 WHERE candidate_id = ? ORDER BY created_at DESC, favorite_id DESC LIMIT ? OFFSET ?`,
		candidateID, page.Limit, page.Skip())
	if err != nil {
		return nil, 0, fmt.Errorf("favorite list: %w", err)
	}
	defer rows.Close()

	favorites := []Favorite{}
	for rows.Next() {
		var f Favorite
		var created string
		if err := rows.Scan(&f.FavoriteID, &f.CandidateID, &f.JobID, &created); err != nil {
			return nil, 0, fmt.Errorf("favorite list scan: %w", err)
		}
		f.CreatedAt = parseRFC3339(created)
		favorites = append(favorites, f)
	}
	return favorites, total, rows.Err()
}

// IsFavorite reports whether the candidate has saved the job.
func (s *Store) IsFavorite(ctx context.Context, candidateID, jobID int64) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM favorites WHERE candidate_id = ? AND job_id = ?`, candidateID, jobID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("favorite check: %w", err)
	}
	return true, nil
}
