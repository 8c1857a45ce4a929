package models

import "time"

// LinkType selects what the promotion button does when clicked.
type LinkType string

const (
	LinkInternal LinkType = "internal"
	LinkExternal LinkType = "external"
	LinkScroll   LinkType = "scroll"
)

// ScrollTarget names a storefront section the button can scroll to.
type ScrollTarget string

const (
	ScrollOffers     ScrollTarget = "offers"
	ScrollCategories ScrollTarget = "categories"
	ScrollFeatured   ScrollTarget = "featured"
	ScrollDelivery   ScrollTarget = "delivery"
)

// ScrollTargets lists the sections in page order.
var ScrollTargets = []ScrollTarget{ScrollOffers, ScrollCategories, ScrollFeatured, ScrollDelivery}

// Valid reports whether t is one of the known sections.
func (t ScrollTarget) Valid() bool {
	for _, known := range ScrollTargets {
		if t == known {
			return true
		}
	}
	return false
}

// PromoConfig is the resolved promotion shown by the banner.
type PromoConfig struct {
	Enabled         bool         `json:"enabled"`
	Title           string       `json:"title"`
	Description     string       `json:"description"`
	Subtext         string       `json:"subtext"`
	BackgroundColor string       `json:"backgroundColor"`
	ButtonText      string       `json:"buttonText"`
	ImageURL        string       `json:"imageUrl"`
	ExpireDate      *time.Time   `json:"expireDate,omitempty"`
	LinkType        LinkType     `json:"linkType"`
	InternalLink    string       `json:"internalLink,omitempty"`
	ExternalLink    string       `json:"externalLink,omitempty"`
	ScrollTarget    ScrollTarget `json:"scrollTarget,omitempty"`
}

// PromoDocument is the stored promotion document. Every field is optional;
// nil means the field is absent from the document.
type PromoDocument struct {
	Enabled         *bool         `json:"enabled,omitempty"`
	Title           *string       `json:"title,omitempty"`
	Description     *string       `json:"description,omitempty"`
	Subtext         *string       `json:"subtext,omitempty"`
	BackgroundColor *string       `json:"backgroundColor,omitempty"`
	ButtonText      *string       `json:"buttonText,omitempty"`
	ImageURL        *string       `json:"imageUrl,omitempty"`
	ExpireDate      *time.Time    `json:"expireDate,omitempty"`
	LinkType        *LinkType     `json:"linkType,omitempty"`
	InternalLink    *string       `json:"internalLink,omitempty"`
	ExternalLink    *string       `json:"externalLink,omitempty"`
	ScrollTarget    *ScrollTarget `json:"scrollTarget,omitempty"`
}

// Fields flattens the document into the field map written to a store.
// Absent fields are omitted.
func (d PromoDocument) Fields() map[string]any {
	fields := make(map[string]any)
	putString := func(key string, v *string) {
		if v != nil {
			fields[key] = *v
		}
	}
	if d.Enabled != nil {
		fields["enabled"] = *d.Enabled
	}
	putString("title", d.Title)
	putString("description", d.Description)
	putString("subtext", d.Subtext)
	putString("backgroundColor", d.BackgroundColor)
	putString("buttonText", d.ButtonText)
	putString("imageUrl", d.ImageURL)
	if d.ExpireDate != nil {
		fields["expireDate"] = d.ExpireDate.UTC().Format(time.RFC3339)
	}
	if d.LinkType != nil {
		fields["linkType"] = string(*d.LinkType)
	}
	putString("internalLink", d.InternalLink)
	putString("externalLink", d.ExternalLink)
	if d.ScrollTarget != nil {
		fields["scrollTarget"] = string(*d.ScrollTarget)
	}
	return fields
}
