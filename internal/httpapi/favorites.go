package httpapi

import (
	"github.com/gofiber/fiber/v2"

	"jobboard-backend/internal/actor"
)

// addFavorite saves a job for the acting candidate; a repeat add reports
// already_favorite at 200.
func (s *Server) addFavorite(c *fiber.Ctx) error {
	a := actorOf(c)
	if err := actor.RequireType(a, actor.TypeCandidate); err != nil {
		return err
	}
	jobID, err := pathID(c, "jobId")
	if err != nil {
		return err
	}
	fav, created, err := s.store.AddFavorite(c.Context(), a.CandidateID, jobID)
	if err != nil {
		return err
	}
	if !created {
		return c.JSON(fiber.Map{"status": "already_favorite", "data": fav})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "added", "data": fav})
}

func (s *Server) removeFavorite(c *fiber.Ctx) error {
	a := actorOf(c)
	if err := actor.RequireType(a, actor.TypeCandidate); err != nil {
		return err
	}
	jobID, err := pathID(c, "jobId")
	if err != nil {
		return err
	}
	if err := s.store.RemoveFavorite(c.Context(), a.CandidateID, jobID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "removed"})
}

func (s *Server) listFavorites(c *fiber.Ctx) error {
	a := actorOf(c)
	if err := actor.RequireType(a, actor.TypeCandidate); err != nil {
		return err
	}
	page := parsePage(c)
	favorites, total, err := s.store.ListFavorites(c.Context(), a.CandidateID, page)
	if err != nil {
		return err
	}
	return paginated(c, page, total, favorites)
}
