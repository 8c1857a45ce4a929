package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/storefront-promo/internal/config"
	"github.com/example/storefront-promo/internal/handlers"
	"github.com/example/storefront-promo/internal/logger"
	"github.com/example/storefront-promo/internal/middleware"
	"github.com/example/storefront-promo/internal/services"
	"github.com/example/storefront-promo/internal/views"
)

// Deps are the collaborators shared by the route handlers.
type Deps struct {
	Config   *config.Config
	Loader   services.Loader
	Writer   services.PromoWriter
	Registry *services.BannerRegistry
	Renderer *views.Renderer
	// Notifier is optional.
	Notifier services.PublishNotifier
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, deps Deps) {
	cfg := deps.Config
	log := logger.Get()

	promoHandler := handlers.NewPromoHandler(deps.Registry, deps.Loader, deps.Renderer, services.BannerOptions{
		Debug:      cfg.IsDevelopment(),
		RetryDelay: cfg.PromoRetryDelay,
		Log:        log,
	}, log)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true, "status": "ok"})
	})

	// Storefront page and banner fragments
	app.Get("/", promoHandler.Page)
	promo := app.Group("/promo")
	promo.Get("/:mount", promoHandler.Fragment)
	promo.Post("/:mount/click", promoHandler.Click)
	promo.Post("/:mount/retry", middleware.DebugOnly(cfg.IsDevelopment()), promoHandler.Retry)
	promo.Delete("/:mount", promoHandler.Unmount)

	api := app.Group("/api")
	api.Get("/promo", promoHandler.Current)

	if !cfg.AdminEnabled() {
		log.Warn("JWT_SECRET or ADMIN_PASSWORD_HASH not set, admin routes disabled")
		return
	}

	authHandler := handlers.NewAuthHandler(cfg)
	adminHandler := handlers.NewPromoAdminHandler(deps.Writer, deps.Loader, deps.Notifier, cfg.PromoCollection, cfg.PromoDocument, log)

	api.Post("/auth/login", authHandler.Login)

	admin := api.Group("/admin", middleware.AuthMiddleware(cfg.JWTSecret))
	admin.Put("/promo", adminHandler.UpdatePromo)
	admin.Get("/promo/diagnostics", adminHandler.Diagnostics)
}
