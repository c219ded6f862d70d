// Package httpapi is the HTTP edge: the fiber router, middleware chain
// (request id, logging, rate limit, actor resolution), the paginated
// envelope, and the translation of typed application errors to the wire.
package httpapi

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"jobboard-backend/internal/apperr"
	"jobboard-backend/internal/config"
	"jobboard-backend/internal/logo"
	"jobboard-backend/internal/store"
)

// Server carries the handler dependencies.
type Server struct {
	cfg      config.Config
	store    *store.Store
	logos    *logo.Manager
	validate *validator.Validate
}

// New builds the fiber application with every route and middleware wired.
func New(cfg config.Config, st *store.Store, logos *logo.Manager) *fiber.App {
	s := &Server{cfg: cfg, store: st, logos: logos, validate: validator.New()}

	app := fiber.New(fiber.Config{
		AppName:      "jobboard-backend",
		ErrorHandler: s.errorHandler,
		BodyLimit:    8 << 20,
	})

	app.Use(requestID())
	app.Use(s.logRequests)
	app.Use(s.rateLimit())
	app.Use(s.resolveActor)

	app.Static("/static/company_logos", logos.StaticRoot())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", s.metrics)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", s.register)
	auth.Post("/login", s.login)

	jobs := api.Group("/jobs")
	jobs.Get("/", s.listJobs)
	jobs.Get("/filters/options", s.jobFilterOptions)
	jobs.Get("/recommendations/titles", s.suggestTitles)
	jobs.Get("/company/:companyId", s.listJobsByCompany)
	jobs.Get("/:id", s.getJob)
	jobs.Post("/", s.createJob)
	jobs.Put("/:id", s.updateJob)
	jobs.Delete("/:id", s.deleteJob)

	companies := api.Group("/companies")
	companies.Get("/", s.listCompanies)
	companies.Get("/featured", s.listFeaturedCompanies)
	companies.Get("/:id", s.getCompany)
	companies.Get("/:id/jobs", s.listJobsByCompany)
	companies.Post("/", s.createCompany)
	companies.Put("/:id", s.updateCompany)
	companies.Delete("/:id", s.deleteCompany)
	companies.Put("/:id/logo", s.uploadLogo)
	companies.Post("/:id/featured", s.addFeaturedCompany)
	companies.Delete("/:id/featured", s.removeFeaturedCompany)

	candidates := api.Group("/candidates")
	candidates.Get("/:id", s.getCandidate)
	candidates.Put("/:id", s.updateCandidate)
	candidates.Delete("/:id", s.deleteCandidate)
	candidates.Put("/:id/cv", s.uploadCV)

	applications := api.Group("/applications")
	applications.Post("/", s.createApplication)
	applications.Get("/", s.listApplications)
	applications.Get("/pipeline/counts", s.pipelineCounts)
	applications.Get("/statuses", s.applicationStatuses)
	applications.Get("/:id", s.getApplication)
	applications.Patch("/:id/status", s.updateApplicationStatus)
	applications.Delete("/:id", s.deleteApplication)

	favorites := api.Group("/favorites")
	favorites.Get("/", s.listFavorites)
	favorites.Post("/:jobId", s.addFavorite)
	favorites.Delete("/:jobId", s.removeFavorite)

	locations := api.Group("/locations")
	locations.Get("/countries", s.listCountries)
	locations.Get("/search", s.searchLocations)
	locations.Get("/:country/states", s.listStates)
	locations.Get("/:country/:state/cities", s.listCities)

	return app
}

// errorHandler translates typed application errors verbatim; everything else
// maps to INTERNAL.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{
			"status": "error", "code": apperr.CodeBadRequest, "message": fe.Message,
		})
	}
	ae := apperr.From(err)
	if ae.Code == apperr.CodeInternal {
		logError(c, err)
	}
	return c.Status(ae.HTTPStatus).JSON(fiber.Map{
		"status": "error", "code": ae.Code, "message": ae.Message,
	})
}
