package httpapi

import (
	"io"

	"github.com/gofiber/fiber/v2"

	"jobboard-backend/internal/actor"
	"jobboard-backend/internal/logo"
	"jobboard-backend/internal/apperr"
	"jobboard-backend/internal/rank"
	"jobboard-backend/internal/store"
	"jobboard-backend/internal/textutil"
)

// listCompanies ranks in memory when q is present without an explicit sort;
// otherwise it is a plain filtered listing.
func (s *Server) listCompanies(c *fiber.Ctx) error {
	page := parsePage(c)
	f := buildCompanyFilter(c)
	_, hasQ := textutil.NormalizeSearchTerm(c.Query("q"))
	hasSortBy := companySortFields[c.Query("sortBy")]

	if hasQ && !hasSortBy {
		return s.rankCompanies(c, f, page)
	}

	srt := parseSort(c, companySortFields, "name", false)
	companies, total, err := s.store.ListCompanies(c.Context(), f, srt, page)
	if err != nil {
		return err
	}
	dtos := make([]companyDTO, len(companies))
	for i, cmp := range companies {
		dtos[i] = s.companyDTO(cmp)
	}
	return paginated(c, page, total, dtos)
}

// rankCompanies runs the composite scorer over the filtered candidate set and
// paginates in memory.
func (s *Server) rankCompanies(c *fiber.Ctx, f store.CompanyFilter, page store.Page) error {
	searchRequests.Add(1)
	cq, ok := rank.NewCompanyQuery(c.Query("q"))
	if !ok {
		return paginated(c, page, 0, []companyDTO{})
	}
	docs, err := s.store.FetchCompanyDocs(c.Context(), f)
	if err != nil {
		return err
	}
	ranked := rank.RankCompanies(docs, cq)

	total := int64(len(ranked))
	start := page.Skip()
	if start > len(ranked) {
		start = len(ranked)
	}
	end := start + page.Limit
	if end > len(ranked) {
		end = len(ranked)
	}
	window := ranked[start:end]

	ids := make([]int64, len(window))
	for i, sc := range window {
		ids[i] = sc.Doc.CompanyID
	}
	companies, err := s.store.GetCompaniesByIDs(c.Context(), ids)
	if err != nil {
		return err
	}
	dtos := make([]companyDTO, 0, len(window))
	for _, sc := range window {
		if cmp, ok := companies[sc.Doc.CompanyID]; ok {
			dtos = append(dtos, s.companyDTO(cmp))
		}
	}
	return paginated(c, page, total, dtos)
}

func (s *Server) getCompany(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	company, err := s.store.GetCompany(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(s.companyDTO(company))
}

type companyRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Country     string `json:"country"`
	State       string `json:"state"`
	City        string `json:"city"`
	Address     string `json:"address"`
	URL         string `json:"url"`
	SizeMin     *int64 `json:"company_size_min"`
	SizeMax     *int64 `json:"company_size_max"`
}

func (s *Server) createCompany(c *fiber.Ctx) error {
	if err := actor.RequireType(actorOf(c), actor.TypeAdmin); err != nil {
		return err
	}
	var req companyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("malformed body")
	}
	if err := s.validate.Struct(req); err != nil {
		return apperr.BadRequest(err.Error())
	}
	company := store.Company{
		Name:        req.Name,
		Description: req.Description,
		Country:     req.Country,
		State:       req.State,
		City:        req.City,
		Address:     req.Address,
		URL:         req.URL,
		SizeMin:     req.SizeMin,
		SizeMax:     req.SizeMax,
	}
	if err := s.store.CreateCompany(c.Context(), &company); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(s.companyDTO(company))
}

func (s *Server) updateCompany(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := actor.RequireSelfCompany(actorOf(c), id); err != nil {
		return err
	}
	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		Country     *string `json:"country"`
		State       *string `json:"state"`
		City        *string `json:"city"`
		Address     *string `json:"address"`
		URL         *string `json:"url"`
		SizeMin     *int64  `json:"company_size_min"`
		SizeMax     *int64  `json:"company_size_max"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("malformed body")
	}
	company, err := s.store.UpdateCompany(c.Context(), id, store.CompanyUpdate{
		Name:        req.Name,
		Description: req.Description,
		Country:     req.Country,
		State:       req.State,
		City:        req.City,
		Address:     req.Address,
		URL:         req.URL,
		SizeMin:     req.SizeMin,
		SizeMax:     req.SizeMax,
	})
	if err != nil {
		return err
	}
	return c.JSON(s.companyDTO(company))
}

func (s *Server) deleteCompany(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := actor.RequireType(actorOf(c), actor.TypeAdmin); err != nil {
		return err
	}
	if err := s.store.DeleteCompany(c.Context(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "deleted"})
}

// uploadLogo accepts a multipart "logo" file and writes both renditions.
// Concurrent writes for the same company race at the filesystem level; the
// last writer wins.
func (s *Server) uploadLogo(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := actor.RequireSelfCompany(actorOf(c), id); err != nil {
		return err
	}
	if _, err := s.store.GetCompany(c.Context(), id); err != nil {
		return err
	}

	header, err := c.FormFile("logo")
	if err != nil {
		return apperr.BadRequest("multipart field 'logo' is required")
	}
	if header.Size > logo.MaxUploadSize {
		return apperr.BadRequest("logo exceeds the 2 MiB limit")
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

	url, err := s.logos.Save(id, header.Header.Get("Content-Type"), data)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"logo_full_path": url})
}

func (s *Server) listFeaturedCompanies(c *fiber.Ctx) error {
	limit, _ := queryLimit(c, 10)
	companies, err := s.store.ListFeaturedCompanies(c.Context(), limit)
	if err != nil {
		return err
	}
	dtos := make([]companyDTO, len(companies))
	for i, cmp := range companies {
		dtos[i] = s.companyDTO(cmp)
	}
	return c.JSON(fiber.Map{"data": dtos})
}

func (s *Server) addFeaturedCompany(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := actor.RequireType(actorOf(c), actor.TypeAdmin); err != nil {
		return err
	}
	created, err := s.store.AddFeaturedCompany(c.Context(), id)
	if err != nil {
		return err
	}
	if !created {
		return c.JSON(fiber.Map{"status": "already_exists"})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "added"})
}

func (s *Server) removeFeaturedCompany(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := actor.RequireType(actorOf(c), actor.TypeAdmin); err != nil {
		return err
	}
	removed, err := s.store.RemoveFeaturedCompany(c.Context(), id)
	if err != nil {
		return err
	}
	if !removed {
		return apperr.NotFound("company is not featured")
	}
	return c.JSON(fiber.Map{"status": "removed"})
}
