package http

import (
	"deal_server/core/domain"
	in "deal_server/core/port/in"
	"deal_server/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// DealHandler handles HTTP requests for the deal feed
type DealHandler struct {
	feed        in.FeedService
	submissions in.SubmissionService
}

// NewDealHandler creates a new DealHandler
func NewDealHandler(feed in.FeedService, submissions in.SubmissionService) *DealHandler {
	return &DealHandler{feed: feed, submissions: submissions}
}

// Register registers deal routes
func (h *DealHandler) Register(router fiber.Router) {
	deals := router.Group("/deals")

	deals.Get("/", h.List)
	deals.Get("/recommended", h.Recommended)
	deals.Get("/digest", h.Digest)
	deals.Get("/:id", h.Get)

	// Engagement
	deals.Post("/:id/copy", h.Copy)
	deals.Post("/:id/save", h.Save)
	deals.Post("/:id/view", h.View)
	deals.Post("/:id/report", h.Report)
	deals.Post("/:id/verify", h.Verify)
	deals.Post("/:id/vote", h.Vote)

	router.Post("/submissions", h.Submit)
}

// List returns a page of the deal feed.
// @Summary List deals
// @Tags Deals
// @Produce json
// @Param sort query string false "hot, new, expiring, or verified (default hot)"
// @Param store query string false "Filter by store id"
// @Param q query string false "Text search over deal, store, and title"
// @Param cursor query string false "Resume token from a previous page"
// @Param limit query int false "Page size (default 20, max 100)"
// @Param only_known_stores query bool false "Hide unmatched stores (default true)"
// @Param exclude_stores query string false "Comma-separated store ids to exclude"
// @Router /api/v1/deals [get]
func (h *DealHandler) List(c *fiber.Ctx) error {
	req := h.listRequest(c)

	page, err := h.feed.ListDeals(c.Context(), req)
	if err != nil {
		return handleError(c, err)
	}
	return response.OKWithMeta(c, response.SelectFields(c, page.Coupons), response.CursorMeta(page.NextCursor))
}

// Recommended lists deals ranked by the device's preferences.
// @Summary List recommended deals
// @Tags Deals
// @Produce json
// @Router /api/v1/deals/recommended [get]
func (h *DealHandler) Recommended(c *fiber.Ctx) error {
	req := h.listRequest(c)

	deviceID, err := RequireDeviceID(c)
	if err != nil {
		return handleError(c, err)
	}
	req.DeviceID = deviceID

	page, err := h.feed.ListRecommended(c.Context(), req)
	if err != nil {
		return handleError(c, err)
	}
	return response.OKWithMeta(c, response.SelectFields(c, page.Coupons), response.CursorMeta(page.NextCursor))
}

func (h *DealHandler) listRequest(c *fiber.Ctx) *in.ListDealsRequest {
	req := &in.ListDealsRequest{
		Sort:          c.Query("sort"),
		StoreID:       c.Query("store"),
		Query:         c.Query("q"),
		Cursor:        c.Query("cursor"),
		Limit:         c.QueryInt("limit", 0),
		ExcludeStores: parseCSVQuery(c, "exclude_stores"),
		DeviceID:      GetDeviceID(c),
	}
	if raw := c.Query("only_known_stores"); raw != "" {
		onlyKnown := c.QueryBool("only_known_stores", true)
		req.OnlyKnownStores = &onlyKnown
	}
	return req
}

// Digest returns the highest-confidence deals for the device's stores.
// @Summary Deal digest
// @Tags Deals
// @Produce json
// @Param stores query string false "Comma-separated store ids (defaults to device favorites)"
// @Param min_confidence query number false "Confidence floor (default 75, min 50)"
// @Param limit query int false "Max deals (default 5, max 30)"
// @Router /api/v1/deals/digest [get]
func (h *DealHandler) Digest(c *fiber.Ctx) error {
	req := &in.DigestRequest{
		DeviceID:      GetDeviceID(c),
		StoreIDs:      parseCSVQuery(c, "stores"),
		MinConfidence: c.QueryFloat("min_confidence", 0),
		Limit:         c.QueryInt("limit", 0),
	}

	deals, err := h.feed.Digest(c.Context(), req)
	if err != nil {
		return handleError(c, err)
	}
	return response.OK(c, deals)
}

// Get retrieves one deal.
// @Summary Get a deal
// @Tags Deals
// @Produce json
// @Param id path string true "Deal ID"
// @Router /api/v1/deals/{id} [get]
func (h *DealHandler) Get(c *fiber.Ctx) error {
	deal, err := h.feed.GetDeal(c.Context(), c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}
	return response.OK(c, deal)
}

// =============================================================================
// Engagement
// =============================================================================

func (h *DealHandler) Copy(c *fiber.Ctx) error {
	deal, err := h.feed.CopyDeal(c.Context(), c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}
	return response.OK(c, deal)
}

func (h *DealHandler) Save(c *fiber.Ctx) error {
	deal, err := h.feed.SaveDeal(c.Context(), c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}
	return response.OK(c, deal)
}

func (h *DealHandler) View(c *fiber.Ctx) error {
	deal, err := h.feed.ViewDeal(c.Context(), c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}
	return response.OK(c, deal)
}

// Report flags a dead deal. Three reports hide it from the feed.
func (h *DealHandler) Report(c *fiber.Ctx) error {
	deal, err := h.feed.ReportDeal(c.Context(), c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}
	return response.OK(c, deal)
}

// Verify confirms a working deal. Two confirmations mark it
// community-verified.
func (h *DealHandler) Verify(c *fiber.Ctx) error {
	deal, err := h.feed.VerifyDeal(c.Context(), c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}
	return response.OK(c, deal)
}

// Vote records a worked/failed vote on a deal's code.
// @Summary Vote on a deal
// @Tags Deals
// @Accept json
// @Param id path string true "Deal ID"
// @Router /api/v1/deals/{id}/vote [post]
func (h *DealHandler) Vote(c *fiber.Ctx) error {
	var body struct {
		Result string `json:"result"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	deal, err := h.feed.VoteDeal(c.Context(), c.Params("id"), domain.VoteResult(body.Result))
	if err != nil {
		return handleError(c, err)
	}
	return response.OK(c, deal)
}

// =============================================================================
// Submissions
// =============================================================================

// Submit accepts a community deal submission.
// @Summary Submit a deal
// @Tags Deals
// @Accept json
// @Produce json
// @Router /api/v1/submissions [post]
func (h *DealHandler) Submit(c *fiber.Ctx) error {
	var req in.SubmitDealRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	req.DeviceID = GetDeviceID(c)

	deal, err := h.submissions.SubmitDeal(c.Context(), &req)
	if err != nil {
		return handleError(c, err)
	}
	return response.Created(c, deal)
}
