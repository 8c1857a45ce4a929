package services

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"github.com/example/storefront-promo/internal/models"
)

// DecodePromoDocument maps a loosely typed store document onto the strict
// promotion schema. Values that cannot be coerced are dropped and reported
// in the returned issues; they never fail the decode.
func DecodePromoDocument(fields map[string]any) (models.PromoDocument, []string) {
	var (
		doc    models.PromoDocument
		issues []string
	)

	lookup := func(key string) (any, bool) {
		raw, ok := fields[key]
		if !ok || raw == nil {
			return nil, false
		}
		return raw, true
	}
	str := func(key string) *string {
		raw, ok := lookup(key)
		if !ok {
			return nil
		}
		value, err := cast.ToStringE(raw)
		if err != nil {
			issues = append(issues, fmt.Sprintf("ignoring %s: %v", key, err))
			return nil
		}
		return &value
	}

	if raw, ok := lookup("enabled"); ok {
		enabled, err := cast.ToBoolE(raw)
		if err != nil {
			issues = append(issues, fmt.Sprintf("ignoring enabled: %v", err))
		} else {
			doc.Enabled = &enabled
		}
	}

	doc.Title = str("title")
	doc.Description = str("description")
	doc.Subtext = str("subtext")
	doc.BackgroundColor = str("backgroundColor")
	doc.ButtonText = str("buttonText")
	doc.ImageURL = str("imageUrl")
	doc.InternalLink = str("internalLink")
	doc.ExternalLink = str("externalLink")

	// a blank expireDate means the promotion never expires
	if raw, ok := lookup("expireDate"); ok && !blankString(raw) {
		expires, err := cast.ToTimeE(raw)
		if err != nil {
			issues = append(issues, fmt.Sprintf("ignoring expireDate: %v", err))
		} else {
			doc.ExpireDate = &expires
		}
	}

	if linkType := str("linkType"); linkType != nil {
		lt := models.LinkType(strings.TrimSpace(*linkType))
		doc.LinkType = &lt
	}
	if target := str("scrollTarget"); target != nil && strings.TrimSpace(*target) != "" {
		st := models.ScrollTarget(strings.TrimSpace(*target))
		doc.ScrollTarget = &st
	}

	return doc, issues
}

func blankString(raw any) bool {
	s, ok := raw.(string)
	return ok && strings.TrimSpace(s) == ""
}
