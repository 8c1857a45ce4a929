package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/example/storefront-promo/internal/config"
	"github.com/example/storefront-promo/internal/database"
	"github.com/example/storefront-promo/internal/handlers"
	"github.com/example/storefront-promo/internal/logger"
	"github.com/example/storefront-promo/internal/routes"
	"github.com/example/storefront-promo/internal/services"
	"github.com/example/storefront-promo/internal/views"
)

type documentStore interface {
	services.PromoStore
	services.PromoWriter
	io.Closer
}

func main() {
	hashPassword := flag.Bool("hash-password", false, "read a password from stdin, print its bcrypt hash for ADMIN_PASSWORD_HASH and exit")
	flag.Parse()
	if *hashPassword {
		if err := runHashPassword(os.Stdin, os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	cfg := config.Load()
	logger.Init(cfg)
	log := logger.Get()

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("open %s store: %v", cfg.PromoStore, err)
	}
	defer store.Close()

	renderer, err := views.NewRenderer()
	if err != nil {
		log.Fatalf("load templates: %v", err)
	}

	loader := services.NewPromoLoader(store, cfg.PromoCollection, cfg.PromoDocument, log)

	var notifier services.PublishNotifier
	if cfg.TelegramEnabled() {
		telegram, err := services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAPIURL, cfg.TelegramAdminChatID, log)
		if err != nil {
			log.Fatalf("telegram: %v", err)
		}
		notifier = telegram
	}

	app := fiber.New(fiber.Config{
		AppName:      "Storefront Promo",
		ErrorHandler: handlers.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{Output: log.Writer()}))

	routes.Register(app, routes.Deps{
		Config:   cfg,
		Loader:   loader,
		Writer:   store,
		Registry: services.NewBannerRegistry(cfg.PromoMaxMounts),
		Renderer: renderer,
		Notifier: notifier,
	})

	go func() {
		log.Infof("starting server on :%s (store=%s, environment=%s)", cfg.AppPort, cfg.PromoStore, cfg.Environment)
		if err := app.Listen(":" + cfg.AppPort); err != nil {
			log.Fatalf("fiber.Listen error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.WithError(err).Error("server shutdown")
	}
}

func openStore(cfg *config.Config) (documentStore, error) {
	switch cfg.PromoStore {
	case config.StorePostgres:
		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return database.NewPostgresStore(db), nil
	default:
		return database.NewFirestoreStore(context.Background(), cfg.FirebaseProjectID, cfg.FirebaseCredentialsFile)
	}
}
