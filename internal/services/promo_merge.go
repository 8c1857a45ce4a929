package services

import (
	"strings"
	"time"

	"github.com/example/storefront-promo/internal/models"
)

// Resolution records how a promotion configuration was obtained.
type Resolution string

const (
	ResolutionDefault  Resolution = "default"
	ResolutionMerged   Resolution = "merged"
	ResolutionFull     Resolution = "full"
	ResolutionDisabled Resolution = "disabled"
)

// Expired reports whether doc carries an expiry date before now.
func Expired(doc models.PromoDocument, now time.Time) bool {
	return doc.ExpireDate != nil && doc.ExpireDate.Before(now)
}

// MissingRequired lists the required fields that are absent or blank.
func MissingRequired(doc models.PromoDocument) []string {
	var missing []string
	if blank(doc.Title) {
		missing = append(missing, "title")
	}
	if blank(doc.Description) {
		missing = append(missing, "description")
	}
	if blank(doc.ImageURL) {
		missing = append(missing, "imageUrl")
	}
	return missing
}

// ResolvePromo turns a stored document into the effective configuration.
// An expired document is disabled whatever its stored flag, an absent flag
// means enabled, and a document missing required fields is completed from
// defaults without touching its enabled flag.
func ResolvePromo(doc models.PromoDocument, defaults models.PromoConfig, now time.Time, trace *Trace) (models.PromoConfig, Resolution) {
	enabled := true
	if doc.Enabled != nil {
		enabled = *doc.Enabled
	} else {
		trace.Add("enabled flag not set, assuming enabled")
	}
	if Expired(doc, now) {
		trace.Addf("promotion expired at %s, disabling", doc.ExpireDate.Format(time.RFC3339))
		enabled = false
	}

	var (
		cfg        models.PromoConfig
		resolution Resolution
	)
	if missing := MissingRequired(doc); len(missing) > 0 {
		trace.Addf("missing %s, completing from defaults", strings.Join(missing, ", "))
		cfg = MergeWithDefaults(doc, defaults)
		resolution = ResolutionMerged
	} else {
		cfg = fromDocument(doc)
		resolution = ResolutionFull
	}
	cfg.Enabled = enabled

	if !enabled {
		return cfg, ResolutionDisabled
	}
	return cfg, resolution
}

// MergeWithDefaults fills every absent field of doc from defaults. Blank
// required fields count as absent. Enabled is taken from doc when set.
func MergeWithDefaults(doc models.PromoDocument, defaults models.PromoConfig) models.PromoConfig {
	cfg := defaults
	if doc.Enabled != nil {
		cfg.Enabled = *doc.Enabled
	}
	if !blank(doc.Title) {
		cfg.Title = *doc.Title
	}
	if !blank(doc.Description) {
		cfg.Description = *doc.Description
	}
	if !blank(doc.ImageURL) {
		cfg.ImageURL = *doc.ImageURL
	}
	override(&cfg.Subtext, doc.Subtext)
	override(&cfg.BackgroundColor, doc.BackgroundColor)
	override(&cfg.ButtonText, doc.ButtonText)
	override(&cfg.InternalLink, doc.InternalLink)
	override(&cfg.ExternalLink, doc.ExternalLink)
	if doc.ExpireDate != nil {
		expires := *doc.ExpireDate
		cfg.ExpireDate = &expires
	}
	if doc.LinkType != nil {
		cfg.LinkType = *doc.LinkType
	}
	if doc.ScrollTarget != nil {
		cfg.ScrollTarget = *doc.ScrollTarget
	}
	return cfg
}

func fromDocument(doc models.PromoDocument) models.PromoConfig {
	var cfg models.PromoConfig
	if doc.Enabled != nil {
		cfg.Enabled = *doc.Enabled
	}
	override(&cfg.Title, doc.Title)
	override(&cfg.Description, doc.Description)
	override(&cfg.Subtext, doc.Subtext)
	override(&cfg.BackgroundColor, doc.BackgroundColor)
	override(&cfg.ButtonText, doc.ButtonText)
	override(&cfg.ImageURL, doc.ImageURL)
	override(&cfg.InternalLink, doc.InternalLink)
	override(&cfg.ExternalLink, doc.ExternalLink)
	if doc.ExpireDate != nil {
		expires := *doc.ExpireDate
		cfg.ExpireDate = &expires
	}
	if doc.LinkType != nil {
		cfg.LinkType = *doc.LinkType
	}
	if doc.ScrollTarget != nil {
		cfg.ScrollTarget = *doc.ScrollTarget
	}
	return cfg
}

func override(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}
