package services

import (
	"strings"

	"github.com/example/storefront-promo/internal/models"
)

// ExternalWindowFeatures must be used by LinkOpener implementations: the new
// browsing context gets no opener handle and no referrer.
const ExternalWindowFeatures = "noopener,noreferrer"

// Navigator performs in-app navigation.
type Navigator interface {
	Navigate(path string)
}

// LinkOpener opens an external URL in a new browsing context.
type LinkOpener interface {
	Open(url string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// LinkOpenerFunc adapts a function to LinkOpener.
type LinkOpenerFunc func(url string)

func (f LinkOpenerFunc) Open(url string) { f(url) }

// ScrollCallbacks maps page sections to their scroll actions.
type ScrollCallbacks map[models.ScrollTarget]func()

// ClickOutcome names the destination a click was dispatched to.
type ClickOutcome string

const (
	ClickNavigated ClickOutcome = "navigate"
	ClickOpened    ClickOutcome = "open"
	ClickScrolled  ClickOutcome = "scroll"
	ClickOrderNow  ClickOutcome = "order_now"
	ClickIgnored   ClickOutcome = "noop"
)

// ClickDispatcher routes a promotion button click.
type ClickDispatcher struct {
	Navigator Navigator
	Opener    LinkOpener
	Scroll    ScrollCallbacks
	OrderNow  func()
}

// Dispatch performs exactly one action for cfg's link type. Unset targets
// are no-ops; unknown link types and missing scroll callbacks fall back to
// OrderNow.
func (d ClickDispatcher) Dispatch(cfg models.PromoConfig) ClickOutcome {
	switch cfg.LinkType {
	case models.LinkInternal:
		path := strings.TrimSpace(cfg.InternalLink)
		if path == "" || d.Navigator == nil {
			return ClickIgnored
		}
		d.Navigator.Navigate(path)
		return ClickNavigated
	case models.LinkExternal:
		url := strings.TrimSpace(cfg.ExternalLink)
		if url == "" || d.Opener == nil {
			return ClickIgnored
		}
		d.Opener.Open(url)
		return ClickOpened
	case models.LinkScroll:
		target := cfg.ScrollTarget
		if target == "" {
			target = models.ScrollOffers
		}
		if scroll := d.Scroll[target]; scroll != nil {
			scroll()
			return ClickScrolled
		}
		return d.orderNow()
	default:
		return d.orderNow()
	}
}

func (d ClickDispatcher) orderNow() ClickOutcome {
	if d.OrderNow == nil {
		return ClickIgnored
	}
	d.OrderNow()
	return ClickOrderNow
}
