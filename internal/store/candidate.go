package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"jobboard-backend/internal/apperr"
)

const candidateCols = `candidate_id, full_name, email, phone, linkedin_url, country, state, city, headline, created_at`

func scanCandidate(row interface{ Scan(...any) error }) (Candidate, error) {
	var c Candidate
	var created string
	err := row.Scan(&c.CandidateID, &c.FullName, &c.Email, &c.Phone, &c.LinkedinURL,
		&c.Country, &c.State, &c.City, &c.Headline, &created)
	if err != nil {
		return Candidate{}, err
	}
	c.CreatedAt = parseRFC3339(created)
	return c, nil
}

// CreateCandidate inserts a candidate profile. Email is required; the
// registration path defaults it to the account email.
func (s *Store) CreateCandidate(ctx context.Context, c *Candidate) error {
	if c.Email == "" {
		return apperr.BadRequest("contact email is required")
	}
	if c.CandidateID == 0 {
		id, err := s.NextID(ctx, SeqCandidate)
		if err != nil {
			return err
		}
		c.CandidateID = id
	}
	now := nowRFC3339()
	c.CreatedAt = parseRFC3339(now)
	_, err := s.exec(ctx, "candidate create",
		`INSERT INTO candidates (candidate_id, full_name, email, phone, linkedin_url, country, state, city, headline, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.CandidateID, c.FullName, c.Email, c.Phone, c.LinkedinURL, c.Country, c.State, c.City, c.Headline, now)
	if isUniqueViolation(err) {
		return apperr.Conflict(fmt.Sprintf("candidate %d already exists", c.CandidateID))
	}
	return err
}

// GetCandidate looks up a candidate by id.
func (s *Store) GetCandidate(ctx context.Context, candidateID int64) (Candidate, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+candidateCols+` FROM candidates WHERE candidate_id = ?`, candidateID)
	c, err := scanCandidate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Candidate{}, apperr.NotFound(fmt.Sprintf("candidate %d not found", candidateID))
	}
	if err != nil {
		return Candidate{}, fmt.Errorf("candidate get: %w", err)
	}
	return c, nil
}

// CandidateUpdate carries the patchable profile fields.
type CandidateUpdate struct {
	FullName    *string
	Email       *string
	Phone       *string
	LinkedinURL *string
	Country     *string
	State       *string
	City        *string
	Headline    *string
}

// UpdateCandidate patches a candidate profile.
func (s *Store) UpdateCandidate(ctx context.Context, candidateID int64, upd CandidateUpdate) (Candidate, error) {
	cur, err := s.GetCandidate(ctx, candidateID)
	if err != nil {
		return Candidate{}, err
	}
	apply := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	apply(&cur.FullName, upd.FullName)
	apply(&cur.Email, upd.Email)
	apply(&cur.Phone, upd.Phone)
	apply(&cur.LinkedinURL, upd.LinkedinURL)
	apply(&cur.Country, upd.Country)
	apply(&cur.State, upd.State)
	apply(&cur.City, upd.City)
	apply(&cur.Headline, upd.Headline)
	if cur.Email == "" {
		return Candidate{}, apperr.BadRequest("contact email is required")
	}
	_, err = s.exec(ctx, "candidate update",
		`UPDATE candidates SET full_name=?, email=?, phone=?, linkedin_url=?, country=?, state=?, city=?, headline=?
		 WHERE candidate_id=?`,
		cur.FullName, cur.Email, cur.Phone, cur.LinkedinURL, cur.Country, cur.State, cur.City, cur.Headline, candidateID)
	if err != nil {
		return Candidate{}, err
	}
	return cur, nil
}

// DeleteCandidate removes a candidate profile.
func (s *Store) DeleteCandidate(ctx context.Context, candidateID int64) error {
	res, err := s.exec(ctx, "candidate delete", `DELETE FROM candidates WHERE candidate_id = ?`, candidateID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound(fmt.Sprintf("candidate %d not found", candidateID))
	}
	return nil
}
