package http

import (
	"deal_server/core/domain"
	in "deal_server/core/port/in"
	"deal_server/core/port/out"
	"deal_server/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// StoreHandler handles HTTP requests for the store catalog and suggestions
type StoreHandler struct {
	service in.StoreService
}

// NewStoreHandler creates a new StoreHandler
func NewStoreHandler(service in.StoreService) *StoreHandler {
	return &StoreHandler{service: service}
}

// Register registers store routes
func (h *StoreHandler) Register(router fiber.Router) {
	stores := router.Group("/stores")
	stores.Get("/", h.List)
	stores.Get("/categories", h.Categories)
	stores.Get("/:id", h.Get)

	suggestions := router.Group("/store-suggestions")
	suggestions.Post("/", h.Suggest)
	suggestions.Get("/", h.ListSuggestions)
	suggestions.Post("/:id/vote", h.VoteSuggestion)
}

// List lists catalog stores.
// @Summary List stores
// @Tags Stores
// @Produce json
// @Param q query string false "Search by name or domain"
// @Param category query string false "Filter by category"
// @Param sort query string false "name or popularity (default popularity)"
// @Router /api/v1/stores [get]
func (h *StoreHandler) List(c *fiber.Ctx) error {
	pagination := response.GetPagination(c, 50, 200)
	filter := &out.StoreFilter{
		Query:    c.Query("q"),
		Category: c.Query("category"),
		SortBy:   c.Query("sort"),
		Page: &domain.PageRequest{
			Page:     pagination.Page,
			PageSize: pagination.PageSize,
		},
	}

	stores, total, err := h.service.ListStores(c.Context(), filter)
	if err != nil {
		return handleError(c, err)
	}

	return response.OKWithMeta(c, stores, &response.Meta{
		Total:    int(total),
		Page:     pagination.Page,
		PageSize: pagination.PageSize,
	})
}

func (h *StoreHandler) Categories(c *fiber.Ctx) error {
	categories, err := h.service.ListCategories(c.Context())
	if err != nil {
		return handleError(c, err)
	}
	return response.OK(c, categories)
}

func (h *StoreHandler) Get(c *fiber.Ctx) error {
	store, err := h.service.GetStore(c.Context(), c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}
	return response.OK(c, store)
}

// =============================================================================
// Suggestions
// =============================================================================

// Suggest proposes a new store for the catalog.
// @Summary Suggest a store
// @Tags Stores
// @Accept json
// @Produce json
// @Router /api/v1/store-suggestions [post]
func (h *StoreHandler) Suggest(c *fiber.Ctx) error {
	var req in.SuggestStoreRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	deviceID, err := RequireDeviceID(c)
	if err != nil {
		return handleError(c, err)
	}
	req.DeviceID = deviceID

	suggestion, err := h.service.SuggestStore(c.Context(), &req)
	if err != nil {
		return handleError(c, err)
	}
	return response.Created(c, suggestion)
}

func (h *StoreHandler) ListSuggestions(c *fiber.Ctx) error {
	suggestions, err := h.service.ListSuggestions(c.Context(),
		c.Query("status", "pending"), c.QueryInt("limit", 50))
	if err != nil {
		return handleError(c, err)
	}
	return response.OK(c, suggestions)
}

// VoteSuggestion adds the device's vote. Enough votes promote the
// suggestion to a store.
func (h *StoreHandler) VoteSuggestion(c *fiber.Ctx) error {
	deviceID, err := RequireDeviceID(c)
	if err != nil {
		return handleError(c, err)
	}

	suggestion, err := h.service.VoteSuggestion(c.Context(), c.Params("id"), deviceID)
	if err != nil {
		return handleError(c, err)
	}
	return response.OK(c, suggestion)
}
