package httpapi

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"jobboard-backend/internal/actor"
	"jobboard-backend/internal/apperr"
	"jobboard-backend/internal/store"
)

// createApplication applies the acting candidate to a job. A repeat apply
// resolves idempotently with already_exists at 200.
func (s *Server) createApplication(c *fiber.Ctx) error {
	a := actorOf(c)
	if err := actor.RequireType(a, actor.TypeCandidate); err != nil {
		return err
	}
	var req struct {
		JobID int64 `json:"job_id" validate:"required,gt=0"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("malformed body")
	}
	if err := s.validate.Struct(req); err != nil {
		return apperr.BadRequest(err.Error())
	}

	app, created, err := s.store.CreateApplication(c.Context(), a.CandidateID, req.JobID)
	if err != nil {
		return err
	}
	if !created {
		return c.JSON(fiber.Map{"status": "already_exists", "data": app})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "created", "data": app})
}

func (s *Server) listApplications(c *fiber.Ctx) error {
	a := actorOf(c)
	if err := actor.Require(a); err != nil {
		return err
	}
	page := parsePage(c)
	f := buildApplicationFilter(c, a)
	srt := store.Sort{Field: "applied_at", Desc: true}
	if strings.ToLower(c.Query("sortDir")) == "asc" {
		srt = store.Sort{Field: "applied_at", Desc: false}
	}
	apps, total, err := s.store.ListApplications(c.Context(), f, srt, page)
	if err != nil {
		return err
	}
	return paginated(c, page, total, apps)
}

func (s *Server) getApplication(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	app, err := s.store.GetApplication(c.Context(), id)
	if err != nil {
		return err
	}
	if err := actor.RequireApplicationOwnership(actorOf(c), actor.ApplicationRef{
		CandidateID: app.CandidateID,
		CompanyID:   app.CompanyID,
	}); err != nil {
		return err
	}
	return c.JSON(app)
}

// updateApplicationStatus is open to admin and the company the application
// belongs to. An out-of-enum status reports the allowed values and leaves the
// record untouched.
func (s *Server) updateApplicationStatus(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	app, err := s.store.GetApplication(c.Context(), id)
	if err != nil {
		return err
	}
	a := actorOf(c)
	if err := actor.Require(a); err != nil {
		return err
	}
	if !a.IsAdmin() && !(a.Type == actor.TypeCompany && a.CompanyID == app.CompanyID) {
		return apperr.Forbidden("application not in actor scope")
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("malformed body")
	}
	status := strings.ToUpper(strings.TrimSpace(req.Status))
	if !store.ValidApplicationStatus(status) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "invalid_status",
			"allowed": store.ApplicationStatuses,
		})
	}

	updated, err := s.store.UpdateApplicationStatus(c.Context(), id, status)
	if err != nil {
		return err
	}
	return c.JSON(updated)
}

// deleteApplication is the candidate withdraw path; admin may also delete.
func (s *Server) deleteApplication(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	app, err := s.store.GetApplication(c.Context(), id)
	if err != nil {
		return err
	}
	a := actorOf(c)
	if err := actor.Require(a); err != nil {
		return err
	}
	if !a.IsAdmin() && !(a.Type == actor.TypeCandidate && a.CandidateID == app.CandidateID) {
		return apperr.Forbidden("application not in actor scope")
	}
	if err := s.store.DeleteApplication(c.Context(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "deleted"})
}

// pipelineCounts reports group-by-status counts over the actor's scope with
// optional job and date-window narrowing.
func (s *Server) pipelineCounts(c *fiber.Ctx) error {
	a := actorOf(c)
	if err := actor.RequireType(a, actor.TypeAdmin, actor.TypeCompany); err != nil {
		return err
	}
	f := buildApplicationFilter(c, a)
	counts, err := s.store.PipelineCounts(c.Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": counts})
}

// applicationStatuses batch-resolves the acting candidate's status per job.
func (s *Server) applicationStatuses(c *fiber.Ctx) error {
	a := actorOf(c)
	if err := actor.RequireType(a, actor.TypeCandidate); err != nil {
		return err
	}
	var jobIDs []int64
	for _, part := range strings.Split(c.Query("job_ids"), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return apperr.BadRequest("invalid job_ids")
		}
		jobIDs = append(jobIDs, id)
	}
	statuses, err := s.store.StatusesForJobs(c.Context(), a.CandidateID, jobIDs)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"statuses": statuses})
}
