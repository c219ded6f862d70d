package httpapi

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"jobboard-backend/internal/actor"
	"jobboard-backend/internal/apperr"
	"jobboard-backend/internal/store"
)

const defaultLimit = 20

// parsePage coerces page/limit to positive integers with documented defaults.
func parsePage(c *fiber.Ctx) store.Page {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit < 1 {
		limit = defaultLimit
	}
	return store.Page{Page: page, Limit: limit}
}

// Allow-listed sort fields per entity; unknown fields fall back to the
// entity default.
var (
	jobSortFields     = map[string]bool{"listed_time": true, "min_salary": true, "max_salary": true, "normalized_salary": true, "createdAt": true}
	companySortFields = map[string]bool{"name": true, "created_at": true, "createdAt": true}
)

func parseSort(c *fiber.Ctx, allowed map[string]bool, def string, defDesc bool) store.Sort {
	field := c.Query("sortBy")
	if !allowed[field] {
		field = def
	}
	desc := defDesc
	switch strings.ToLower(c.Query("sortDir")) {
	case "asc":
		desc = false
	case "desc":
		desc = true
	}
	return store.Sort{Field: field, Desc: desc}
}

// pathID parses a numeric path parameter; non-integers are a bad request.
func pathID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.BadRequest("invalid " + name)
	}
	return id, nil
}

// queryFloat returns nil for absent or unparsable values so the caller elides
// the predicate.
func queryFloat(c *fiber.Ctx, name string) *float64 {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

func queryInt64Ptr(c *fiber.Ctx, name string) *int64 {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

// queryTime accepts RFC3339 or a plain date.
func queryTime(c *fiber.Ctx, name string) *time.Time {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}

func buildJobFilter(c *fiber.Ctx) store.JobFilter {
	f := store.JobFilter{
		Country:          c.Query("country"),
		State:            c.Query("state"),
		City:             c.Query("city"),
		WorkType:         c.Query("work_type"),
		WorkLocationType: c.Query("work_location_type"),
		PayPeriod:        c.Query("pay_period"),
		MinSalary:        queryFloat(c, "min_salary"),
		MaxSalary:        queryFloat(c, "max_salary"),
		MinNormSalary:    queryFloat(c, "min_norm_salary"),
		MaxNormSalary:    queryFloat(c, "max_norm_salary"),
		ListedFrom:       queryTime(c, "listed_from"),
		ListedTo:         queryTime(c, "listed_to"),
	}
	if id := queryInt64Ptr(c, "company_id"); id != nil {
		f.CompanyID = *id
	}
	return f
}

func buildCompanyFilter(c *fiber.Ctx) store.CompanyFilter {
	return store.CompanyFilter{
		Country: c.Query("country"),
		State:   c.Query("state"),
		City:    c.Query("city"),
		MinSize: queryInt64Ptr(c, "min_size"),
		MaxSize: queryInt64Ptr(c, "max_size"),
	}
}

// buildApplicationFilter injects the ownership scope: non-admin actors only
// see their own side of the pipeline regardless of the query parameters.
func buildApplicationFilter(c *fiber.Ctx, a *actor.Actor) store.ApplicationFilter {
	f := store.ApplicationFilter{
		Status: strings.ToUpper(c.Query("status")),
		From:   queryTime(c, "from"),
		To:     queryTime(c, "to"),
	}
	if id := queryInt64Ptr(c, "job_id"); id != nil {
		f.JobID = *id
	}
	switch {
	case a.IsAdmin():
		if id := queryInt64Ptr(c, "company_id"); id != nil {
			f.CompanyID = *id
		}
		if id := queryInt64Ptr(c, "candidate_id"); id != nil {
			f.CandidateID = *id
		}
	case a.Type == actor.TypeCompany:
		f.CompanyID = a.CompanyID
	case a.Type == actor.TypeCandidate:
		f.CandidateID = a.CandidateID
	}
	return f
}
