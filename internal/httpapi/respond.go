package httpapi

import (
	"github.com/gofiber/fiber/v2"

	"jobboard-backend/internal/store"
)

type pageMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

func totalPages(total int64, limit int) int64 {
	if limit <= 0 {
		return 1
	}
	pages := (total + int64(limit) - 1) / int64(limit)
	if pages < 1 {
		return 1
	}
	return pages
}

// paginated writes the standard list envelope.
func paginated(c *fiber.Ctx, page store.Page, total int64, data any) error {
	return c.JSON(fiber.Map{
		"meta": pageMeta{
			Page:       page.Page,
			Limit:      page.Limit,
			Total:      total,
			TotalPages: totalPages(total, page.Limit),
		},
		"data": data,
	})
}

// companyDTO is the exposed company shape: the entity plus the derived logo
// URL, which is null when no logo exists.
type companyDTO struct {
	store.Company
	LogoFullPath *string `json:"logo_full_path"`
}

func (s *Server) companyDTO(c store.Company) companyDTO {
	dto := companyDTO{Company: c}
	if url := s.logos.URL(c.CompanyID); url != "" {
		dto.LogoFullPath = &url
	}
	return dto
}

// jobDTO is the exposed job shape with an optional embedded compact company.
type jobDTO struct {
	store.Job
	Company *companyDTO `json:"company,omitempty"`
}

// jobDTOs projects jobs, batch-hydrating companies with one lookup when
// includeCompany is set.
func (s *Server) jobDTOs(c *fiber.Ctx, jobs []store.Job, includeCompany bool) ([]jobDTO, error) {
	out := make([]jobDTO, len(jobs))
	for i, j := range jobs {
		out[i] = jobDTO{Job: j}
	}
	if !includeCompany || len(jobs) == 0 {
		return out, nil
	}

	ids := make([]int64, 0, len(jobs))
	seen := make(map[int64]bool, len(jobs))
	for _, j := range jobs {
		if !seen[j.CompanyID] {
			seen[j.CompanyID] = true
			ids = append(ids, j.CompanyID)
		}
	}
	companies, err := s.store.GetCompaniesByIDs(c.Context(), ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		if cmp, ok := companies[out[i].CompanyID]; ok {
			dto := s.companyDTO(cmp)
			out[i].Company = &dto
		}
	}
	return out, nil
}
