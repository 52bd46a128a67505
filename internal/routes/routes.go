package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/rohanmhetar/nivaasa-backend/internal/config"
	"github.com/rohanmhetar/nivaasa-backend/internal/handlers"
	"github.com/rohanmhetar/nivaasa-backend/internal/middleware"
	"github.com/rohanmhetar/nivaasa-backend/internal/services"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	authService *services.AuthService,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	propertyHandler *handlers.PropertyHandler,
	healthHandler *handlers.HealthHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Auth — public, with a stricter limit: 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/phone", authHandler.PhoneAuth)
	auth.Post("/login/password", authHandler.PasswordLogin)
	auth.Post("/check-auth-method", authHandler.CheckAuthMethod)
	auth.Post("/refresh", authHandler.Refresh)

	protected := middleware.Protected(authService)

	// Users
	api.Get("/users/profile", protected, userHandler.GetProfile)
	api.Put("/users/profile", protected, userHandler.UpdateProfile)

	// Properties. Static and sub-resource paths are registered before the
	// :idOrSlug catch-all so "search" and "user" never match as slugs.
	properties := api.Group("/properties")
	properties.Get("/search", propertyHandler.Search)
	properties.Get("/user/my-properties", protected, propertyHandler.MyProperties)
	properties.Get("/", propertyHandler.List)
	properties.Post("/", protected, propertyHandler.Create)
	properties.Put("/:id/images/reorder", protected, propertyHandler.ReorderImages)
	properties.Delete("/:id/images/:imageId", protected, propertyHandler.DeleteImage)
	properties.Post("/:id/favorite", protected, propertyHandler.Favorite)
	properties.Delete("/:id/favorite", protected, propertyHandler.Unfavorite)
	properties.Put("/:id", protected, propertyHandler.Update)
	properties.Delete("/:id", protected, propertyHandler.Delete)
	properties.Get("/:idOrSlug", propertyHandler.GetByIDOrSlug)

	// Admin
	admin := api.Group("/admin", middleware.OptionalAuth(authService), middleware.AdminRequired(cfg))
	admin.Get("/users", userHandler.ListUsers)
}
