package handlers

import (
	"sportsmatch/internal/api/middleware"
	"sportsmatch/internal/apperr"
	"sportsmatch/internal/models"
	"sportsmatch/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// MatchHandler handles HTTP requests for the match registry and rating ledger
type MatchHandler struct {
	service   *service.MatchService
	validator *validator.Validate
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(service *service.MatchService) *MatchHandler {
	return &MatchHandler{
		service:   service,
		validator: NewValidator(),
	}
}

// FindMatches handles GET /api/v1/matches?date=&region=&sportsType=&tier=&keywords=
func (h *MatchHandler) FindMatches(c *fiber.Ctx) error {
	var filter models.MatchFilter
	if err := c.QueryParser(&filter); err != nil {
		return fail(c, apperr.ErrInvalidRequest.WithMessage("invalid query"))
	}
	if err := validate(h.validator, &filter); err != nil {
		return fail(c, err)
	}

	matches, err := h.service.Find(c.UserContext(), middleware.UserID(c), filter)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, matches)
}

// SearchMatches handles GET /api/v1/matches/search?keywords=
func (h *MatchHandler) SearchMatches(c *fiber.Ctx) error {
	matches, err := h.service.Search(c.UserContext(), middleware.UserID(c), c.Query("keywords"))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, matches)
}

// FindMatch handles GET /api/v1/matches/:matchId
func (h *MatchHandler) FindMatch(c *fiber.Ctx) error {
	match, err := h.service.FindMatch(c.UserContext(), middleware.UserID(c), c.Params("matchId"))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, match)
}

// CreateMatch handles POST /api/v1/matches
func (h *MatchHandler) CreateMatch(c *fiber.Ctx) error {
	var req models.CreateMatchRequest
	if err := bind(c, h.validator, &req); err != nil {
		return fail(c, err)
	}

	created, err := h.service.Create(c.UserContext(), middleware.UserID(c), req)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusCreated, created)
}

// EditMatch handles PUT /api/v1/matches/:matchId
func (h *MatchHandler) EditMatch(c *fiber.Ctx) error {
	var req models.UpdateMatchRequest
	if err := bind(c, h.validator, &req); err != nil {
		return fail(c, err)
	}

	match, err := h.service.Edit(c.UserContext(), middleware.UserID(c), c.Params("matchId"), req)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, match)
}

// DeleteMatch handles DELETE /api/v1/matches/:matchId
func (h *MatchHandler) DeleteMatch(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), middleware.UserID(c), c.Params("matchId")); err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, nil)
}

// Participate handles PUT /api/v1/matches/:matchId/participate. It joins the
// match, or leaves it when the caller is already on the roster.
func (h *MatchHandler) Participate(c *fiber.Ctx) error {
	resp, err := h.service.Participate(c.UserContext(), middleware.UserID(c), c.Params("matchId"))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, resp)
}

// Rate handles POST /api/v1/matches/:matchId/rating. The status is 201 when at
// least one item was stored, otherwise the status of the first item's error.
func (h *MatchHandler) Rate(c *fiber.Ctx) error {
	var req models.RateRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, apperr.ErrInvalidRequest.WithMessage("invalid request body"))
	}
	if len(req.Ratings) == 0 {
		return fail(c, apperr.ErrNoRatings)
	}
	if err := validate(h.validator, &req); err != nil {
		return fail(c, err)
	}

	results, err := h.service.Rate(c.UserContext(), middleware.UserID(c), c.Params("matchId"), req.Ratings)
	if err != nil {
		return fail(c, err)
	}

	status := fiber.StatusCreated
	for i, r := range results {
		if r.Error == nil {
			status = fiber.StatusCreated
			break
		}
		if i == 0 {
			status = apperr.Status(apperr.ByCode(r.Error.Code))
		}
	}
	return c.Status(status).JSON(models.Envelope{Success: status == fiber.StatusCreated, Result: results})
}
