package views

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/example/storefront-promo/internal/models"
	"github.com/example/storefront-promo/internal/services"
)

//go:embed templates/*.html
var templateFS embed.FS

// DefaultPollDelay is how long a loading banner waits before polling again.
const DefaultPollDelay = 300 * time.Millisecond

// BannerView is the data behind the "banner" template.
type BannerView struct {
	MountID   string
	Snapshot  services.BannerSnapshot
	PollDelay time.Duration
}

// Section is one scroll target on the storefront page.
type Section struct {
	ID    models.ScrollTarget
	Title string
}

// PageView is the data behind the "page" template.
type PageView struct {
	Title    string
	Banner   BannerView
	Sections []Section
}

// StorefrontSections are the page sections a promotion may scroll to.
var StorefrontSections = []Section{
	{ID: models.ScrollOffers, Title: "العروض"},
	{ID: models.ScrollCategories, Title: "الأقسام"},
	{ID: models.ScrollFeatured, Title: "المميز"},
	{ID: models.ScrollDelivery, Title: "التوصيل"},
}

// Renderer executes the storefront templates.
type Renderer struct {
	t *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	t, err := template.New("").Funcs(funcMap()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{t: t}, nil
}

// Banner renders a banner fragment. Production banners without a visible
// promotion render nothing.
func (r *Renderer) Banner(w io.Writer, v BannerView) error {
	if v.PollDelay <= 0 {
		v.PollDelay = DefaultPollDelay
	}
	return r.t.ExecuteTemplate(w, "banner", v)
}

// Page renders the full storefront page.
func (r *Renderer) Page(w io.Writer, v PageView) error {
	if v.Banner.PollDelay <= 0 {
		v.Banner.PollDelay = DefaultPollDelay
	}
	if v.Sections == nil {
		v.Sections = StorefrontSections
	}
	return r.t.ExecuteTemplate(w, "page", v)
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		// gradient and baseColor only ever emit values built from parsed
		// channels or fixed literals, so they are safe as template.CSS.
		"gradient": func(cfg *models.PromoConfig) template.CSS {
			if cfg == nil {
				return template.CSS(services.FallbackGradient)
			}
			return template.CSS(services.GradientCSS(services.BackgroundColor(*cfg)))
		},
		"baseColor": func(cfg *models.PromoConfig) template.CSS {
			if cfg == nil {
				return template.CSS(services.DefaultBackgroundColor)
			}
			rgb, err := services.ParseHexColor(services.BackgroundColor(*cfg))
			if err != nil {
				return template.CSS(services.DefaultBackgroundColor)
			}
			return template.CSS(fmt.Sprintf("#%02x%02x%02x", rgb.R, rgb.G, rgb.B))
		},
		"toJSON": func(v any) string {
			raw, err := json.MarshalIndent(v, "", "  ")
			if err != nil {
				return err.Error()
			}
			return string(raw)
		},
		"trace": services.FormatTrace,
		"humanTime": func(t *time.Time) string {
			if t == nil {
				return ""
			}
			return humanize.Time(*t)
		},
		"millis": func(d time.Duration) int64 {
			return d.Milliseconds()
		},
	}
}
