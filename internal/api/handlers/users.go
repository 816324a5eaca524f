package handlers

import (
	"time"

	"sportsmatch/internal/api/middleware"
	"sportsmatch/internal/apperr"
	"sportsmatch/internal/config"
	"sportsmatch/internal/models"
	"sportsmatch/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const oauthStateCookie = "oauthState"

// UserHandler handles HTTP requests for accounts and profiles
type UserHandler struct {
	service   *service.UserService
	auth      config.AuthConfig
	validator *validator.Validate
}

// NewUserHandler creates a new user handler
func NewUserHandler(service *service.UserService, auth config.AuthConfig) *UserHandler {
	return &UserHandler{
		service:   service,
		auth:      auth,
		validator: NewValidator(),
	}
}

// SignUp handles POST /api/v1/users/sign-up
func (h *UserHandler) SignUp(c *fiber.Ctx) error {
	var req models.SignUpRequest
	if err := bind(c, h.validator, &req); err != nil {
		return fail(c, err)
	}

	if _, err := h.service.SignUp(c.UserContext(), req); err != nil {
		return fail(c, err)
	}

	resp, err := h.service.SignIn(c.UserContext(), models.SignInRequest{Email: req.Email, Password: req.Password})
	if err != nil {
		return fail(c, err)
	}
	h.setToken(c, resp)
	return respond(c, fiber.StatusCreated, resp)
}

// SignIn handles POST /api/v1/users/sign-in
func (h *UserHandler) SignIn(c *fiber.Ctx) error {
	var req models.SignInRequest
	if err := bind(c, h.validator, &req); err != nil {
		return fail(c, err)
	}

	resp, err := h.service.SignIn(c.UserContext(), req)
	if err != nil {
		return fail(c, err)
	}
	h.setToken(c, resp)
	return respond(c, fiber.StatusOK, resp)
}

// SignOut handles POST /api/v1/users/sign-out
func (h *UserHandler) SignOut(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     h.auth.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   h.auth.CookieSecure,
	})
	return respond(c, fiber.StatusOK, nil)
}

// KakaoRedirect handles GET /api/v1/users/sign-in/kakao
func (h *UserHandler) KakaoRedirect(c *fiber.Ctx) error {
	state := uuid.New().String()
	url, err := h.service.KakaoAuthURL(state)
	if err != nil {
		return fail(c, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Minute),
		HTTPOnly: true,
		Secure:   h.auth.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Redirect(url, fiber.StatusFound)
}

// KakaoCallback handles GET /api/v1/users/sign-in/kakao/callback
func (h *UserHandler) KakaoCallback(c *fiber.Ctx) error {
	state := c.Query("state")
	if state == "" || state != c.Cookies(oauthStateCookie) {
		return fail(c, apperr.ErrExternalAuthFailed.WithMessage("oauth state mismatch"))
	}
	code := c.Query("code")
	if code == "" {
		return fail(c, apperr.ErrExternalAuthFailed.WithMessage("missing authorization code"))
	}

	resp, err := h.service.SignInKakao(c.UserContext(), code)
	if err != nil {
		return fail(c, err)
	}
	h.setToken(c, resp)
	return respond(c, fiber.StatusOK, resp)
}

func (h *UserHandler) setToken(c *fiber.Ctx, resp *models.SignInResponse) {
	c.Cookie(&fiber.Cookie{
		Name:     h.auth.CookieName,
		Value:    resp.AccessToken,
		Path:     "/",
		Expires:  resp.ExpiresAt,
		HTTPOnly: true,
		Secure:   h.auth.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// CreateProfile handles POST /api/v1/users/profile (multipart, optional "image")
func (h *UserHandler) CreateProfile(c *fiber.Ctx) error {
	var req models.CreateProfileRequest
	if err := bind(c, h.validator, &req); err != nil {
		return fail(c, err)
	}
	img, err := formImage(c)
	if err != nil {
		return fail(c, err)
	}

	profile, err := h.service.CreateProfile(c.UserContext(), middleware.UserID(c), req, img)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusCreated, profile)
}

// GetProfile handles GET /api/v1/users/profile
func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	profile, err := h.service.GetProfile(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, profile)
}

// EditProfile handles PUT /api/v1/users/profile
func (h *UserHandler) EditProfile(c *fiber.Ctx) error {
	var req models.EditProfileRequest
	if err := bind(c, h.validator, &req); err != nil {
		return fail(c, err)
	}
	img, err := formImage(c)
	if err != nil {
		return fail(c, err)
	}

	profile, err := h.service.EditProfile(c.UserContext(), middleware.UserID(c), req, img)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, profile)
}

// GetTiers handles GET /api/v1/users/tier
func (h *UserHandler) GetTiers(c *fiber.Ctx) error {
	tiers, err := h.service.GetTiers(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, tiers)
}

// EditFavorites handles PUT /api/v1/users/favorite
func (h *UserHandler) EditFavorites(c *fiber.Ctx) error {
	var req models.EditFavoriteRequest
	if err := bind(c, h.validator, &req); err != nil {
		return fail(c, err)
	}

	liked, err := h.service.AddFavoriteSports(c.UserContext(), middleware.UserID(c), req.SportsTypes)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, liked)
}

// AppliedMatches handles GET /api/v1/users/applied-matches
func (h *UserHandler) AppliedMatches(c *fiber.Ctx) error {
	matches, err := h.service.AppliedMatches(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, matches)
}

// ParticipatedMatches handles GET /api/v1/users/participated-matches
func (h *UserHandler) ParticipatedMatches(c *fiber.Ctx) error {
	matches, err := h.service.ParticipatedMatches(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, matches)
}

// LatestMatch handles GET /api/v1/users/latest-match
func (h *UserHandler) LatestMatch(c *fiber.Ctx) error {
	latest, err := h.service.LatestMatch(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, latest)
}

// MatchRates handles GET /api/v1/users/:matchId/rates
func (h *UserHandler) MatchRates(c *fiber.Ctx) error {
	rates, err := h.service.MatchRates(c.UserContext(), middleware.UserID(c), c.Params("matchId"))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, rates)
}
