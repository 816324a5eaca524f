// Package api assembles the fiber application.
package api

import (
	"errors"

	"sportsmatch/internal/api/handlers"
	"sportsmatch/internal/api/middleware"
	"sportsmatch/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
)

// Options carries everything the router needs
type Options struct {
	AllowOrigins string
	CookieName   string
	Tokens       middleware.TokenValidator
	Logger       zerolog.Logger

	Users   *handlers.UserHandler
	Matches *handlers.MatchHandler
	Tiers   *handlers.TierHandler
	Health  *handlers.HealthHandler
	Events  *handlers.EventsHandler
}

// NewApp creates the fiber app with middleware and every route mounted.
func NewApp(opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Sportsmatch API",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
		BodyLimit:             8 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(middleware.RequestID(opts.Logger))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     opts.AllowOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowCredentials: opts.AllowOrigins != "*",
	}))

	required := middleware.RequireAuth(opts.Tokens, opts.CookieName)
	optional := middleware.OptionalAuth(opts.Tokens, opts.CookieName)

	api := app.Group("/api/v1")
	api.Get("/health", opts.Health.HealthCheck)

	users := api.Group("/users")
	users.Post("/sign-up", opts.Users.SignUp)
	users.Post("/sign-in", opts.Users.SignIn)
	users.Get("/sign-in/kakao", opts.Users.KakaoRedirect)
	users.Get("/sign-in/kakao/callback", opts.Users.KakaoCallback)
	users.Post("/sign-out", opts.Users.SignOut)
	users.Post("/profile", required, opts.Users.CreateProfile)
	users.Get("/profile", required, opts.Users.GetProfile)
	users.Put("/profile", required, opts.Users.EditProfile)
	users.Get("/tier", required, opts.Users.GetTiers)
	users.Put("/favorite", required, opts.Users.EditFavorites)
	users.Get("/applied-matches", required, opts.Users.AppliedMatches)
	users.Get("/participated-matches", required, opts.Users.ParticipatedMatches)
	users.Get("/latest-match", required, opts.Users.LatestMatch)
	users.Get("/:matchId/rates", required, opts.Users.MatchRates)

	matches := api.Group("/matches")
	matches.Get("/", optional, opts.Matches.FindMatches)
	matches.Get("/search", optional, opts.Matches.SearchMatches)
	matches.Get("/:matchId", optional, opts.Matches.FindMatch)
	matches.Post("/", required, opts.Matches.CreateMatch)
	matches.Put("/:matchId", required, opts.Matches.EditMatch)
	matches.Delete("/:matchId", required, opts.Matches.DeleteMatch)
	matches.Put("/:matchId/participate", required, opts.Matches.Participate)
	matches.Post("/:matchId/rating", required, opts.Matches.Rate)

	tiers := api.Group("/tiers")
	tiers.Get("/", opts.Tiers.ListTiers)
	tiers.Post("/fetch", required, opts.Tiers.Recalculate)
	tiers.Get("/rankings/:sportsType", opts.Tiers.Rankings)

	if opts.Events != nil {
		api.Get("/ws/clients", opts.Events.Clients)
		app.Use("/ws", opts.Events.Upgrade)
		app.Get("/ws", opts.Events.Stream())
	}

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(models.Failure("NOT_FOUND", "route not found"))
	})

	return app
}

// errorHandler handles errors that escape the handlers
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal server error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	} else {
		zerolog.Ctx(c.UserContext()).Error().Err(err).Msg("unhandled error")
	}

	return c.Status(code).JSON(models.Failure("REQUEST_FAILED", message))
}
