package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"jobboard-backend/internal/apperr"
)

// CreateUser inserts an account record. Emails are unique; a duplicate
// registration is a conflict.
func (s *Store) CreateUser(ctx context.Context, u *User) error {
	if u.UserID == 0 {
		id, err := s.NextID(ctx, SeqUser)
		if err != nil {
			return err
		}
		u.UserID = id
	}
	now := nowRFC3339()
	u.CreatedAt = parseRFC3339(now)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (user_id, email, password_hash, role, company_id, candidate_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.UserID, u.Email, u.PasswordHash, u.Role, u.CompanyID, u.CandidateID, now)
	if isUniqueViolation(err) {
		return apperr.Conflict(fmt.Sprintf("email %s is already registered", u.Email))
	}
	if err != nil {
		return fmt.Errorf("user create: %w", err)
	}
	return nil
}

// GetUserByEmail looks up an account by email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT user_id, email, password_hash, role, company_id, candidate_id, created_at
		 FROM users WHERE email = ?`, email)
	var u User
	var created string
	err := row.Scan(&u.UserID, &u.Email, &u.PasswordHash, &u.Role, &u.CompanyID, &u.CandidateID, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, apperr.NotFound(fmt.Sprintf("user %s not found", email))
	}
	if err != nil {
		return User{}, fmt.Errorf("user get: %w", err)
	}
	u.CreatedAt = parseRFC3339(created)
	return u, nil
}

// LinkUserProfile attaches the created profile ids to an account row. The
// registration path calls this after the profile entity exists.
func (s *Store) LinkUserProfile(ctx context.Context, userID int64, companyID, candidateID *int64) error {
	res, err := s.exec(ctx, "user link profile",
		`UPDATE users SET company_id = ?, candidate_id = ? WHERE user_id = ?`,
		companyID, candidateID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound(fmt.Sprintf("user %d not found", userID))
	}
	return nil
}

// DeleteUser removes an account record. The registration path uses this to
// unwind the account when profile creation fails.
func (s *Store) DeleteUser(ctx context.Context, userID int64) error {
	res, err := s.exec(ctx, "user delete", `DELETE FROM users WHERE user_id = ?`, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound(fmt.Sprintf("user %d not found", userID))
	}
	return nil
}
