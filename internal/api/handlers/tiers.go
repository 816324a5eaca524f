package handlers

import (
	"strconv"

	"sportsmatch/internal/service"

	"github.com/gofiber/fiber/v2"
)

// TierHandler handles HTTP requests for tiers and rankings
type TierHandler struct {
	service *service.TierService
}

// NewTierHandler creates a new tier handler
func NewTierHandler(service *service.TierService) *TierHandler {
	return &TierHandler{service: service}
}

// ListTiers handles GET /api/v1/tiers
// @Summary List tiers
// @Description Distinct tier values with descriptions, lowest first
// @Produce json
// @Success 200 {object} models.Envelope
// @Router /api/v1/tiers [get]
func (h *TierHandler) ListTiers(c *fiber.Ctx) error {
	tiers, err := h.service.ListTiers(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, tiers)
}

// Recalculate handles POST /api/v1/tiers/fetch
// @Summary Run the tier ranking engine
// @Description Re-ranks every sport from the rating ledger and publishes the rankings
// @Produce json
// @Success 200 {object} models.Envelope
// @Failure 401 {object} models.Envelope
// @Router /api/v1/tiers/fetch [post]
func (h *TierHandler) Recalculate(c *fiber.Ctx) error {
	summary, err := h.service.Recalculate(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, summary)
}

// Rankings handles GET /api/v1/tiers/rankings/:sportsType
// @Summary Get a sport's ranking
// @Description Retrieves the last published ranking with pagination
// @Produce json
// @Param sportsType path string true "Sports type name"
// @Param offset query int false "Offset for pagination" default(0)
// @Param limit query int false "Limit for pagination" default(50)
// @Success 200 {object} models.Envelope
// @Failure 404 {object} models.Envelope
// @Router /api/v1/tiers/rankings/{sportsType} [get]
func (h *TierHandler) Rankings(c *fiber.Ctx) error {
	offset, err := strconv.Atoi(c.Query("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	limit, err := strconv.Atoi(c.Query("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100 // Max limit to prevent abuse
	}

	ranking, err := h.service.Rankings(c.UserContext(), c.Params("sportsType"), offset, limit)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, ranking)
}
