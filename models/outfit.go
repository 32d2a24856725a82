package models

import "strings"

// Product is an item tagged on an outfit
type Product struct {
	ID         string `bson:"id" json:"id"`
	Name       string `bson:"name" json:"name"`
	Brand      string `bson:"brand" json:"brand"`
	PriceLabel string `bson:"price_label" json:"priceLabel"`
}

// OutfitCandidate is a reference image returned by the bridge, before generation
type OutfitCandidate struct {
	ImageURL  string    `json:"imageUrl"`
	SourceURL string    `json:"sourceUrl,omitempty"` // canonical image, preferred when set
	Caption   string    `json:"captionHint"`
	Products  []Product `json:"products"`
}

// ReferenceImage returns the locator used both for generation and as the fallback image
func (c OutfitCandidate) ReferenceImage() string {
	if s := strings.TrimSpace(c.SourceURL); s != "" {
		return s
	}
	return c.ImageURL
}
