package httpapi

import (
	"github.com/gofiber/fiber/v2"

	"jobboard-backend/internal/rank"
)

func (s *Server) listCountries(c *fiber.Ctx) error {
	countries, err := s.store.Countries(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"countries": countries})
}

func (s *Server) listStates(c *fiber.Ctx) error {
	states, err := s.store.States(c.Context(), c.Params("country"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"states": states})
}

func (s *Server) listCities(c *fiber.Ctx) error {
	cities, err := s.store.Cities(c.Context(), c.Params("country"), c.Params("state"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"cities": cities})
}

// searchLocations runs the bounded top-K over the warm flattened index.
func (s *Server) searchLocations(c *fiber.Ctx) error {
	locationSearches.Add(1)
	k := c.QueryInt("k", 20)
	if k <= 0 {
		k = 20
	}
	idx, err := s.store.LocationIndex(c.Context())
	if err != nil {
		return err
	}
	results := idx.Search(c.Query("q"), k)
	if results == nil {
		results = []rank.LocationEntry{}
	}
	return c.JSON(fiber.Map{"results": results})
}
