package httpapi

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"

	"jobboard-backend/internal/actor"
	"jobboard-backend/internal/apperr"
	"jobboard-backend/internal/store"
)

const cvUploadLimit = 5 << 20

// getCandidate admits the owner, admin, and a company with at least one
// application from the candidate.
func (s *Server) getCandidate(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	a := actorOf(c)
	if err := actor.Require(a); err != nil {
		return err
	}
	if actor.RequireSelfCandidate(a, id) != nil {
		if a.Type != actor.TypeCompany {
			return apperr.Forbidden("candidate not in actor scope")
		}
		ok, err := actor.CompanyCanViewCandidate(c.Context(), s.store, a.CompanyID, id)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Forbidden("candidate not in actor scope")
		}
	}
	candidate, err := s.store.GetCandidate(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(candidate)
}

func (s *Server) updateCandidate(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := actor.RequireSelfCandidate(actorOf(c), id); err != nil {
		return err
	}
	var req struct {
		FullName    *string `json:"full_name"`
		Email       *string `json:"email"`
		Phone       *string `json:"phone"`
		LinkedinURL *string `json:"linkedin_url"`
		Country     *string `json:"country"`
		State       *string `json:"state"`
		City        *string `json:"city"`
		Headline    *string `json:"headline"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("malformed body")
	}
	candidate, err := s.store.UpdateCandidate(c.Context(), id, store.CandidateUpdate{
		FullName:    req.FullName,
		Email:       req.Email,
		Phone:       req.Phone,
		LinkedinURL: req.LinkedinURL,
		Country:     req.Country,
		State:       req.State,
		City:        req.City,
		Headline:    req.Headline,
	})
	if err != nil {
		return err
	}
	return c.JSON(candidate)
}

func (s *Server) deleteCandidate(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := actor.RequireType(actorOf(c), actor.TypeAdmin); err != nil {
		return err
	}
	if err := s.store.DeleteCandidate(c.Context(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "deleted"})
}

// uploadCV stores a PDF at data/cv/<candidate_id>.pdf, overwriting any
// previous upload.
func (s *Server) uploadCV(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := actor.RequireSelfCandidate(actorOf(c), id); err != nil {
		return err
	}
	if _, err := s.store.GetCandidate(c.Context(), id); err != nil {
		return err
	}

	header, err := c.FormFile("cv")
	if err != nil {
		return apperr.BadRequest("multipart field 'cv' is required")
	}
	if header.Size > cvUploadLimit {
		return apperr.BadRequest("cv exceeds the 5 MiB limit")
	}
	f, err := header.Open()
	if err != nil {
		return apperr.BadRequest("unreadable upload")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return apperr.BadRequest("unreadable upload")
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		return apperr.BadRequest("cv must be a PDF")
	}

	dir := filepath.Join(s.cfg.DataDir, "cv")
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("cv: mkdir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%d.pdf", id))
	if err := os.WriteFile(path, data, 0640); err != nil {
		return fmt.Errorf("cv: write: %w", err)
	}
	return c.JSON(fiber.Map{"status": "uploaded"})
}
