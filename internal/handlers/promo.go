package handlers

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/example/storefront-promo/internal/models"
	"github.com/example/storefront-promo/internal/services"
	"github.com/example/storefront-promo/internal/views"
)

const storefrontTitle = "المتجر"

// StatusStopPolling tells htmx to stop polling the element it swaps.
const StatusStopPolling = 286

// PromoHandler serves the storefront page and the promotion banner.
type PromoHandler struct {
	registry *services.BannerRegistry
	loader   services.Loader
	renderer *views.Renderer
	opts     services.BannerOptions
	log      logrus.FieldLogger
}

// NewPromoHandler constructs PromoHandler. opts is applied to every
// banner mounted by the page handler.
func NewPromoHandler(registry *services.BannerRegistry, loader services.Loader, renderer *views.Renderer, opts services.BannerOptions, log logrus.FieldLogger) *PromoHandler {
	if opts.Log == nil {
		opts.Log = log
	}
	return &PromoHandler{
		registry: registry,
		loader:   loader,
		renderer: renderer,
		opts:     opts,
		log:      log.WithField("handler", "promo"),
	}
}

// Page mounts a banner and renders the storefront around it.
func (h *PromoHandler) Page(c *fiber.Ctx) error {
	banner := services.NewBanner(h.loader, h.opts)
	id, err := h.registry.Mount(c.UserContext(), banner)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := h.renderer.Page(&buf, views.PageView{
		Title:  storefrontTitle,
		Banner: views.BannerView{MountID: id.String(), Snapshot: banner.Snapshot()},
	}); err != nil {
		return err
	}

	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}

// Fragment renders the banner's current state. Production banners with
// nothing to show render an empty body. A mount that is gone (unmounted or
// evicted) answers StatusStopPolling with an empty body, which removes the
// banner and ends the page's polling.
func (h *PromoHandler) Fragment(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("mount"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid mount id")
	}
	banner, ok := h.registry.Get(id)
	if !ok {
		h.log.WithField("mount", id).Debug("poll for unknown banner, stopping")
		return c.Status(StatusStopPolling).Send(nil)
	}
	return h.sendFragment(c, id, banner.Snapshot())
}

// Click dispatches the promotion button and reports the destination to
// the page through HTMX response headers.
func (h *PromoHandler) Click(c *fiber.Ctx) error {
	_, banner, err := h.mounted(c)
	if err != nil {
		return err
	}

	snap := banner.Snapshot()
	if snap.State != services.BannerActive || snap.Config == nil {
		return fiber.NewError(fiber.StatusConflict, "promotion is not active")
	}

	events := make(map[string]any)
	dispatcher := services.ClickDispatcher{
		Navigator: services.NavigatorFunc(func(path string) {
			c.Set("HX-Location", path)
		}),
		Opener: services.LinkOpenerFunc(func(url string) {
			events["promo:open"] = fiber.Map{"url": url, "features": services.ExternalWindowFeatures}
		}),
		Scroll: scrollEvents(events),
		OrderNow: func() {
			events["promo:order-now"] = fiber.Map{}
		},
	}

	outcome := dispatcher.Dispatch(*snap.Config)
	if len(events) > 0 {
		raw, err := json.Marshal(events)
		if err != nil {
			return err
		}
		c.Set("HX-Trigger", string(raw))
	}

	h.log.WithFields(logrus.Fields{"outcome": outcome, "link_type": snap.Config.LinkType}).Debug("promotion clicked")
	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"outcome": outcome}})
}

// Retry re-enters the load sequence of a mounted banner.
func (h *PromoHandler) Retry(c *fiber.Ctx) error {
	id, banner, err := h.mounted(c)
	if err != nil {
		return err
	}

	if err := banner.Retry(); err != nil {
		switch {
		case errors.Is(err, services.ErrRetryDisabled):
			return fiber.ErrNotFound
		case errors.Is(err, services.ErrUnmounted):
			return fiber.NewError(fiber.StatusGone, "banner is unmounted")
		default:
			return err
		}
	}

	return h.sendFragment(c, id, banner.Snapshot())
}

// Unmount discards a mounted banner and cancels its load.
func (h *PromoHandler) Unmount(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("mount"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid mount id")
	}
	if !h.registry.Unmount(id) {
		return fiber.NewError(fiber.StatusNotFound, "banner not mounted")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Current performs a one-shot load and returns the resolved promotion.
func (h *PromoHandler) Current(c *fiber.Ctx) error {
	res := h.loader.Load(c.UserContext())

	data := fiber.Map{
		"state":      services.StateFor(res),
		"resolution": res.Resolution,
		"config":     res.Config,
	}
	if res.Config != nil {
		data["gradient"] = services.GradientCSS(services.BackgroundColor(*res.Config))
	}
	if h.opts.Debug {
		data["trace"] = res.Trace
	}

	return c.JSON(fiber.Map{"success": true, "data": data})
}

func (h *PromoHandler) mounted(c *fiber.Ctx) (uuid.UUID, *services.Banner, error) {
	id, err := uuid.Parse(c.Params("mount"))
	if err != nil {
		return uuid.Nil, nil, fiber.NewError(fiber.StatusBadRequest, "invalid mount id")
	}
	banner, ok := h.registry.Get(id)
	if !ok {
		return uuid.Nil, nil, fiber.NewError(fiber.StatusNotFound, "banner not mounted")
	}
	return id, banner, nil
}

func (h *PromoHandler) sendFragment(c *fiber.Ctx, id uuid.UUID, snap services.BannerSnapshot) error {
	var buf bytes.Buffer
	if err := h.renderer.Banner(&buf, views.BannerView{MountID: id.String(), Snapshot: snap}); err != nil {
		return err
	}
	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}

func scrollEvents(events map[string]any) services.ScrollCallbacks {
	callbacks := make(services.ScrollCallbacks, len(models.ScrollTargets))
	for _, target := range models.ScrollTargets {
		target := target
		callbacks[target] = func() {
			events["promo:scroll"] = fiber.Map{"target": target}
		}
	}
	return callbacks
}
