package model

import "github.com/ppiankov/depicta/internal/geometry"

// Entity is the subject being annotated: an item with one associated image.
type Entity struct {
	ID     string `json:"id"`
	Domain string `json:"domain"` // sync endpoint grouping, e.g. www.wikidata.org
	Image  Image  `json:"image"`
}

// Image describes the displayed image of an entity.
type Image struct {
	Src    string  `json:"src"`
	Srcset string  `json:"srcset,omitempty"` // thumbnails, "url 1x, url 2x" form
	Width  float64 `json:"width"`            // natural pixel width
	Height float64 `json:"height"`           // natural pixel height
}

// Size returns the natural dimensions used for region conversion.
func (i Image) Size() geometry.Size {
	return geometry.Size{Width: i.Width, Height: i.Height}
}
