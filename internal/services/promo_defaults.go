package services

import "github.com/example/storefront-promo/internal/models"

// DefaultBackgroundColor is the base color used when a promotion has none.
const DefaultBackgroundColor = "#a15623"

const (
	defaultPromoTitle       = "عرض خاص لفترة محدودة!"
	defaultPromoDescription = "خصم 20% على جميع المنتجات"
	defaultPromoSubtext     = "العرض ساري حتى نهاية الأسبوع"
	defaultPromoButtonText  = "اطلب الآن"
	defaultPromoImageURL    = "https://images.unsplash.com/photo-1555939594-58d7cb561ad1?auto=format&fit=crop&q=80&w=1887"
)

// DefaultPromoConfig returns the built-in promotion. It is always enabled.
func DefaultPromoConfig() models.PromoConfig {
	return models.PromoConfig{
		Enabled:         true,
		Title:           defaultPromoTitle,
		Description:     defaultPromoDescription,
		Subtext:         defaultPromoSubtext,
		BackgroundColor: DefaultBackgroundColor,
		ButtonText:      defaultPromoButtonText,
		ImageURL:        defaultPromoImageURL,
		LinkType:        models.LinkScroll,
		ScrollTarget:    models.ScrollOffers,
	}
}

// BackgroundColor returns cfg's base color or the default one.
func BackgroundColor(cfg models.PromoConfig) string {
	if cfg.BackgroundColor == "" {
		return DefaultBackgroundColor
	}
	return cfg.BackgroundColor
}
