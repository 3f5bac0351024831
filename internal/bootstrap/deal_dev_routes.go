package bootstrap

import (
	"deal_server/pkg/logger"
	"deal_server/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// RegisterDevRoutes registers development-only helpers without rate limits.
// WARNING: Only enable in development environment!
func RegisterDevRoutes(app *fiber.App, deps *Dependencies) {
	dev := app.Group("/dev")

	// Trigger an ingestion run and wait for the summary.
	dev.Post("/ingest", func(c *fiber.Ctx) error {
		logger.Info("[Dev] Manual ingestion run triggered")
		summary, started, err := deps.IngestionService.Run(c.Context())
		if err != nil {
			return err
		}
		if !started {
			return response.Error(c, fiber.StatusConflict, "CONFLICT", "an ingestion run is already in progress")
		}
		return response.OK(c, summary)
	})

	// Dump the in-memory store registry.
	dev.Get("/registry", func(c *fiber.Ctx) error {
		stores := deps.Registry.All()
		return response.OK(c, fiber.Map{
			"count":  len(stores),
			"stores": stores,
		})
	})

	// Show how a hint and link resolve against the registry.
	dev.Get("/resolve", func(c *fiber.Ctx) error {
		hint := c.Query("hint")
		link := c.Query("link")
		store := deps.Registry.Resolve(hint, link)
		return response.OK(c, fiber.Map{
			"hint":       hint,
			"link":       link,
			"store_id":   store.ID,
			"store_name": store.Name,
			"popularity": store.PopularityWeight,
		})
	})
}
