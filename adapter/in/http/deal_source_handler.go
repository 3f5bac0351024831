package http

import (
	"deal_server/config"
	in "deal_server/core/port/in"
	"deal_server/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// SourceHandler exposes connector statuses and the admin ingestion trigger
type SourceHandler struct {
	ingestion  in.IngestionService
	sourcesCfg *config.SourcesConfig
}

// NewSourceHandler creates a new SourceHandler
func NewSourceHandler(ingestion in.IngestionService, sourcesCfg *config.SourcesConfig) *SourceHandler {
	return &SourceHandler{ingestion: ingestion, sourcesCfg: sourcesCfg}
}

// Register registers source and admin routes
func (h *SourceHandler) Register(router fiber.Router) {
	router.Get("/sources", h.List)

	admin := router.Group("/admin")
	admin.Post("/ingest", h.TriggerIngest)
	admin.Get("/ingest/history", h.History)
}

// List reports every configured source with its last run and breaker state.
// @Summary List sources
// @Tags Sources
// @Produce json
// @Router /api/v1/sources [get]
func (h *SourceHandler) List(c *fiber.Ctx) error {
	return response.OK(c, fiber.Map{
		"sources": h.ingestion.SourceStatuses(c.Context()),
		"config":  h.sourcesCfg.Public(),
		"running": h.ingestion.IsRunning(),
	})
}

// TriggerIngest starts an ingestion run. A 202 means the run was started;
// a 409 means one is already in flight.
// @Summary Trigger ingestion
// @Tags Sources
// @Produce json
// @Router /api/v1/admin/ingest [post]
func (h *SourceHandler) TriggerIngest(c *fiber.Ctx) error {
	summary, started, err := h.ingestion.Run(c.Context())
	if err != nil {
		return handleError(c, err)
	}
	if !started {
		return response.Error(c, fiber.StatusConflict, "CONFLICT", "an ingestion run is already in progress")
	}
	return c.Status(fiber.StatusAccepted).JSON(response.Response{
		Success: true,
		Data:    summary,
	})
}

// History lists recent per-source ingestion records.
// @Summary Ingestion history
// @Tags Sources
// @Produce json
// @Param limit query int false "Max records (default 50)"
// @Router /api/v1/admin/ingest/history [get]
func (h *SourceHandler) History(c *fiber.Ctx) error {
	records, err := h.ingestion.History(c.Context(), c.QueryInt("limit", 50))
	if err != nil {
		return handleError(c, err)
	}
	return response.OK(c, records)
}
