// Package actor models the resolved identity of a caller and the scope
// predicates consulted by every ranked endpoint and mutation path. The actor
// is rebuilt per request from the auth token and never persisted.
package actor

import (
	"context"
	"fmt"

	"jobboard-backend/internal/apperr"
)

// Actor types.
const (
	TypeAdmin     = "admin"
	TypeCompany   = "company"
	TypeCandidate = "candidate"
)

// Actor is the resolved caller identity: type plus the owned entity ids.
type Actor struct {
	Type        string
	UserID      int64
	CompanyID   int64 // 0 unless Type == company
	CandidateID int64 // 0 unless Type == candidate
}

// IsAdmin reports whether the actor is an admin.
func (a *Actor) IsAdmin() bool { return a != nil && a.Type == TypeAdmin }

// Require fails with UNAUTHORIZED when the actor is absent.
func Require(a *Actor) error {
	if a == nil {
		return apperr.Unauthorized("authentication required")
	}
	return nil
}

// RequireType fails with FORBIDDEN unless the actor's type is in allowed.
func RequireType(a *Actor, allowed ...string) error {
	if err := Require(a); err != nil {
		return err
	}
	for _, t := range allowed {
		if a.Type == t {
			return nil
		}
	}
	return apperr.Forbidden(fmt.Sprintf("actor type %q not allowed", a.Type))
}

// RequireSelfCandidate admits admin unconditionally and a candidate only for
// their own candidate id.
func RequireSelfCandidate(a *Actor, candidateID int64) error {
	if err := Require(a); err != nil {
		return err
	}
	if a.IsAdmin() {
		return nil
	}
	if a.Type == TypeCandidate && a.CandidateID == candidateID {
		return nil
	}
	return apperr.Forbidden("not the owning candidate")
}

// RequireSelfCompany admits admin unconditionally and a company only for its
// own company id.
func RequireSelfCompany(a *Actor, companyID int64) error {
	if err := Require(a); err != nil {
		return err
	}
	if a.IsAdmin() {
		return nil
	}
	if a.Type == TypeCompany && a.CompanyID == companyID {
		return nil
	}
	return apperr.Forbidden("not the owning company")
}

// ApplicationRef carries the ownership fields of an application.
type ApplicationRef struct {
	CandidateID int64
	CompanyID   int64
}

// RequireApplicationOwnership admits admin, the owning candidate, and the
// company the application belongs to.
func RequireApplicationOwnership(a *Actor, app ApplicationRef) error {
	if err := Require(a); err != nil {
		return err
	}
	switch {
	case a.IsAdmin():
		return nil
	case a.Type == TypeCandidate && a.CandidateID == app.CandidateID:
		return nil
	case a.Type == TypeCompany && a.CompanyID == app.CompanyID:
		return nil
	}
	return apperr.Forbidden("application not in actor scope")
}

// PairChecker reports whether at least one application links a candidate to
// a company. Implemented by the store.
type PairChecker interface {
	ApplicationPairExists(ctx context.Context, companyID, candidateID int64) (bool, error)
}

// CompanyCanViewCandidate returns true iff at least one application with the
// (company, candidate) pair exists.
func CompanyCanViewCandidate(ctx context.Context, pc PairChecker, companyID, candidateID int64) (bool, error) {
	return pc.ApplicationPairExists(ctx, companyID, candidateID)
}
