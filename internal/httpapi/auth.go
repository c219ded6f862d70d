package httpapi

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"jobboard-backend/internal/actor"
	"jobboard-backend/internal/apperr"
	"jobboard-backend/internal/store"
)

const actorKey = "actor"
const tokenTTL = 72 * time.Hour

type authClaims struct {
	Role        string `json:"role"`
	CompanyID   int64  `json:"company_id,omitempty"`
	CandidateID int64  `json:"candidate_id,omitempty"`
	jwt.RegisteredClaims
}

// resolveActor parses an optional bearer token into the request actor. A
// missing header leaves the actor absent; a present but invalid token is
// rejected outright.
func (s *Server) resolveActor(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return c.Next()
	}
	raw := strings.TrimPrefix(header, "Bearer ")
	if raw == header {
		return apperr.Unauthorized("malformed authorization header")
	}

	var claims authClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.AuthSecret), nil
	})
	if err != nil || !token.Valid {
		return apperr.Unauthorized("invalid token")
	}

	var userID int64
	fmt.Sscanf(claims.Subject, "%d", &userID)
	c.Locals(actorKey, &actor.Actor{
		Type:        claims.Role,
		UserID:      userID,
		CompanyID:   claims.CompanyID,
		CandidateID: claims.CandidateID,
	})
	return c.Next()
}

func actorOf(c *fiber.Ctx) *actor.Actor {
	if a, ok := c.Locals(actorKey).(*actor.Actor); ok {
		return a
	}
	return nil
}

func (s *Server) issueToken(u store.User) (string, error) {
	claims := authClaims{
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", u.UserID),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
		},
	}
	if u.CompanyID != nil {
		claims.CompanyID = *u.CompanyID
	}
	if u.CandidateID != nil {
		claims.CandidateID = *u.CandidateID
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.AuthSecret))
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=company candidate"`
	Name     string `json:"name" validate:"required"`
}

// register creates an account plus its company or candidate profile. When the
// profile create fails the account is deleted again, so a retry does not hit
// a duplicate email.
func (s *Server) register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("malformed body")
	}
	if err := s.validate.Struct(req); err != nil {
		return apperr.BadRequest(err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.SaltRounds)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}
	user := store.User{Email: req.Email, PasswordHash: string(hash), Role: req.Role}
	if err := s.store.CreateUser(c.Context(), &user); err != nil {
		return err
	}

	switch req.Role {
	case actor.TypeCompany:
		company := store.Company{Name: req.Name}
		if err := s.store.CreateCompany(c.Context(), &company); err != nil {
			s.compensateRegistration(c, user.UserID, err)
			return err
		}
		user.CompanyID = &company.CompanyID
	case actor.TypeCandidate:
		candidate := store.Candidate{FullName: req.Name, Email: req.Email}
		if err := s.store.CreateCandidate(c.Context(), &candidate); err != nil {
			s.compensateRegistration(c, user.UserID, err)
			return err
		}
		user.CandidateID = &candidate.CandidateID
	}
	if err := s.store.LinkUserProfile(c.Context(), user.UserID, user.CompanyID, user.CandidateID); err != nil {
		s.compensateRegistration(c, user.UserID, err)
		return err
	}

	token, err := s.issueToken(user)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token":        token,
		"role":         user.Role,
		"company_id":   user.CompanyID,
		"candidate_id": user.CandidateID,
	})
}

func (s *Server) compensateRegistration(c *fiber.Ctx, userID int64, cause error) {
	if err := s.store.DeleteUser(c.Context(), userID); err != nil {
		slog.Error("auth: registration compensation failed",
			slog.Int64("user_id", userID), slog.Any("error", err), slog.Any("cause", cause))
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (s *Server) login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("malformed body")
	}
	if err := s.validate.Struct(req); err != nil {
		return apperr.BadRequest(err.Error())
	}

	user, err := s.store.GetUserByEmail(c.Context(), req.Email)
	if err != nil {
		if apperr.IsCode(err, apperr.CodeNotFound) {
			return apperr.Unauthorized("invalid credentials")
		}
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return apperr.Unauthorized("invalid credentials")
	}

	token, err := s.issueToken(user)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"token":        token,
		"role":         user.Role,
		"company_id":   user.CompanyID,
		"candidate_id": user.CandidateID,
	})
}
