package httpapi

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"jobboard-backend/internal/actor"
	"jobboard-backend/internal/apperr"
	"jobboard-backend/internal/store"
	"jobboard-backend/internal/textutil"
)

// listJobs picks one of the three search modes: no q → filter+sort; q with an
// explicit sortBy → text predicate + sort; q alone → hybrid ranking.
func (s *Server) listJobs(c *fiber.Ctx) error {
	return s.listJobsFiltered(c, buildJobFilter(c))
}

func (s *Server) listJobsByCompany(c *fiber.Ctx) error {
	companyID, err := pathID(c, "companyId")
	if err != nil {
		// the companies group routes here with :id
		if companyID, err = pathID(c, "id"); err != nil {
			return err
		}
	}
	f := buildJobFilter(c)
	f.CompanyID = companyID
	return s.listJobsFiltered(c, f)
}

func (s *Server) listJobsFiltered(c *fiber.Ctx, f store.JobFilter) error {
	page := parsePage(c)
	q, hasQ := textutil.NormalizeSearchTerm(c.Query("q"))
	hasSortBy := jobSortFields[c.Query("sortBy")]

	var (
		jobs  []store.Job
		total int64
		err   error
	)
	switch {
	case !hasQ:
		srt := parseSort(c, jobSortFields, "listed_time", true)
		jobs, total, err = s.store.ListJobs(c.Context(), f, srt, page)
	case hasSortBy:
		srt := parseSort(c, jobSortFields, "listed_time", true)
		jobs, total, err = s.store.SearchJobsSorted(c.Context(), f, q, srt, page)
	default:
		searchRequests.Add(1)
		jobs, total, err = s.store.SearchJobsHybrid(c.Context(), f, q, page)
	}
	if err != nil {
		return err
	}

	dtos, err := s.jobDTOs(c, jobs, c.QueryBool("include_company", true))
	if err != nil {
		return err
	}
	return paginated(c, page, total, dtos)
}

func (s *Server) getJob(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	job, err := s.store.GetJob(c.Context(), id)
	if err != nil {
		return err
	}
	dtos, err := s.jobDTOs(c, []store.Job{job}, c.QueryBool("include_company", true))
	if err != nil {
		return err
	}
	return c.JSON(dtos[0])
}

func (s *Server) jobFilterOptions(c *fiber.Ctx) error {
	opts, err := s.store.JobFilterOptions(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(opts)
}

func (s *Server) suggestTitles(c *fiber.Ctx) error {
	titleSuggests.Add(1)
	limit, _ := queryLimit(c, 10)
	titles, err := s.store.SuggestTitles(c.Context(), c.Query("q"), limit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"query": c.Query("q"), "suggestions": titles})
}

func queryLimit(c *fiber.Ctx, def int) (int, bool) {
	limit := c.QueryInt("limit", def)
	if limit <= 0 {
		return def, false
	}
	return limit, true
}

type jobRequest struct {
	Title            string     `json:"title" validate:"required"`
	Description      string     `json:"description"`
	MinSalary        *float64   `json:"min_salary"`
	MaxSalary        *float64   `json:"max_salary"`
	PayPeriod        string     `json:"pay_period"`
	Currency         string     `json:"currency"`
	ListedTime       *time.Time `json:"listed_time"`
	WorkType         string     `json:"work_type"`
	WorkLocationType string     `json:"work_location_type"`
	City             string     `json:"city"`
	State            string     `json:"state"`
	Country          string     `json:"country"`
	CompanyID        int64      `json:"company_id"`
}

// createJob is scoped to company and admin actors. A company actor always
// posts under its own company; an admin must name one.
func (s *Server) createJob(c *fiber.Ctx) error {
	a := actorOf(c)
	if err := actor.RequireType(a, actor.TypeAdmin, actor.TypeCompany); err != nil {
		return err
	}
	var req jobRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("malformed body")
	}
	if err := s.validate.Struct(req); err != nil {
		return apperr.BadRequest(err.Error())
	}

	companyID := req.CompanyID
	if a.Type == actor.TypeCompany {
		companyID = a.CompanyID
	} else if companyID == 0 {
		return apperr.BadRequest("company_id is required")
	}

	job := store.Job{
		Title:            req.Title,
		Description:      req.Description,
		MinSalary:        req.MinSalary,
		MaxSalary:        req.MaxSalary,
		PayPeriod:        req.PayPeriod,
		Currency:         req.Currency,
		ListedTime:       req.ListedTime,
		WorkType:         req.WorkType,
		WorkLocationType: req.WorkLocationType,
		City:             req.City,
		State:            req.State,
		Country:          req.Country,
		CompanyID:        companyID,
	}
	if err := s.store.CreateJob(c.Context(), &job); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(job)
}

func (s *Server) updateJob(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	job, err := s.store.GetJob(c.Context(), id)
	if err != nil {
		return err
	}
	if err := actor.RequireSelfCompany(actorOf(c), job.CompanyID); err != nil {
		return err
	}

	var req struct {
		Title            *string    `json:"title"`
		Description      *string    `json:"description"`
		MinSalary        *float64   `json:"min_salary"`
		MaxSalary        *float64   `json:"max_salary"`
		PayPeriod        *string    `json:"pay_period"`
		Currency         *string    `json:"currency"`
		ListedTime       *time.Time `json:"listed_time"`
		WorkType         *string    `json:"work_type"`
		WorkLocationType *string    `json:"work_location_type"`
		City             *string    `json:"city"`
		State            *string    `json:"state"`
		Country          *string    `json:"country"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("malformed body")
	}

	updated, err := s.store.UpdateJob(c.Context(), id, store.JobUpdate{
		Title:            req.Title,
		Description:      req.Description,
		MinSalary:        req.MinSalary,
		MaxSalary:        req.MaxSalary,
		PayPeriod:        req.PayPeriod,
		Currency:         req.Currency,
		ListedTime:       req.ListedTime,
		WorkType:         req.WorkType,
		WorkLocationType: req.WorkLocationType,
		City:             req.City,
		State:            req.State,
		Country:          req.Country,
	})
	if err != nil {
		return err
	}
	return c.JSON(updated)
}

func (s *Server) deleteJob(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	job, err := s.store.GetJob(c.Context(), id)
	if err != nil {
		return err
	}
	if err := actor.RequireSelfCompany(actorOf(c), job.CompanyID); err != nil {
		return err
	}
	if err := s.store.DeleteJob(c.Context(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "deleted"})
}
