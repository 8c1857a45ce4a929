package handlers

import (
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/example/storefront-promo/internal/middleware"
	"github.com/example/storefront-promo/internal/models"
	"github.com/example/storefront-promo/internal/services"
)

// PromoAdminHandler lets operators publish the promotion document.
type PromoAdminHandler struct {
	writer     services.PromoWriter
	loader     services.Loader
	notifier   services.PublishNotifier
	collection string
	key        string
	log        logrus.FieldLogger
}

// NewPromoAdminHandler constructs PromoAdminHandler. notifier may be nil.
func NewPromoAdminHandler(writer services.PromoWriter, loader services.Loader, notifier services.PublishNotifier, collection, key string, log logrus.FieldLogger) *PromoAdminHandler {
	return &PromoAdminHandler{
		writer:     writer,
		loader:     loader,
		notifier:   notifier,
		collection: collection,
		key:        key,
		log:        log.WithField("handler", "promo_admin"),
	}
}

func validatePromoDocument(doc *models.PromoDocument) error {
	if doc.LinkType != nil {
		switch *doc.LinkType {
		case models.LinkInternal, models.LinkExternal, models.LinkScroll:
		default:
			return fiber.NewError(fiber.StatusBadRequest, "linkType must be internal, external or scroll")
		}
	}
	if doc.ScrollTarget != nil && !doc.ScrollTarget.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "unknown scrollTarget")
	}
	if doc.BackgroundColor != nil && strings.TrimSpace(*doc.BackgroundColor) != "" {
		if _, err := services.ParseHexColor(*doc.BackgroundColor); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "backgroundColor must be a 3 or 6 digit hex color")
		}
	}
	if doc.InternalLink != nil && *doc.InternalLink != "" && !strings.HasPrefix(*doc.InternalLink, "/") {
		return fiber.NewError(fiber.StatusBadRequest, "internalLink must be an absolute path")
	}
	if doc.ExternalLink != nil && *doc.ExternalLink != "" {
		parsed, err := url.Parse(*doc.ExternalLink)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return fiber.NewError(fiber.StatusBadRequest, "externalLink must be an http(s) URL")
		}
	}
	return nil
}

// UpdatePromo replaces the stored promotion document.
func (h *PromoAdminHandler) UpdatePromo(c *fiber.Ctx) error {
	var doc models.PromoDocument
	if err := c.BodyParser(&doc); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validatePromoDocument(&doc); err != nil {
		return err
	}

	if err := h.writer.Put(c.UserContext(), h.collection, h.key, doc.Fields()); err != nil {
		return err
	}

	subject, _ := middleware.GetAdminSubject(c)
	h.log.WithField("admin", subject).Info("promotion document updated")

	if h.notifier != nil {
		published := services.PromoPublished{Admin: subject, Document: doc, At: time.Now()}
		if err := h.notifier.NotifyPromoPublished(published); err != nil {
			h.log.WithError(err).Warn("failed to announce promotion update")
		}
	}

	return c.JSON(fiber.Map{"success": true, "data": doc})
}

// Diagnostics runs a fresh load and returns its full trace.
func (h *PromoAdminHandler) Diagnostics(c *fiber.Ctx) error {
	res := h.loader.Load(c.UserContext())
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"state":      services.StateFor(res),
			"resolution": res.Resolution,
			"config":     res.Config,
			"trace":      res.Trace,
			"text":       services.FormatTrace(res.Trace),
		},
	})
}
