package model

import (
	"github.com/ppiankov/depicta/internal/geometry"
	"github.com/ppiankov/depicta/internal/identity"
)

// SnakType is the kind of main value of a statement
type SnakType string

const (
	SnakValue     SnakType = "value"     // a concrete item
	SnakSomeValue SnakType = "somevalue" // "unknown value"
	SnakNoValue   SnakType = "novalue"
)

// Valid reports whether the snak type is one the server accepts.
func (s SnakType) Valid() bool {
	switch s {
	case SnakValue, SnakSomeValue, SnakNoValue:
		return true
	}
	return false
}

// Label is a language-tagged display string.
type Label struct {
	Value    string `json:"value"`
	Language string `json:"language"`
}

// Statement is a "depicts" claim about an entity, optionally restricted to a region.
type Statement struct {
	ID             string           `json:"statement_id"`
	PropertyID     string           `json:"property_id"`
	SnakType       SnakType         `json:"snaktype"`
	ItemID         string           `json:"item_id,omitempty"`
	Label          Label            `json:"label"`
	Region         *geometry.Region `json:"region,omitempty"`
	QualifierToken string           `json:"qualifier_hash,omitempty"` // handle of the saved region qualifier
	Reference      *Reference       `json:"reference,omitempty"`
}

// HasRegion reports whether the statement is currently restricted to a region.
func (s Statement) HasRegion() bool {
	return s.Region != nil
}

// Kind classifies the statement as local or published.
func (s Statement) Kind() identity.Kind {
	return identity.Classify(s.ID)
}

// DisplayLabel is the label shown in lists and thread headers.
func (s Statement) DisplayLabel() string {
	return identity.DisplayLabel(s.ID, s.Label.Value)
}

// ReferenceType is the property used for a statement's reference.
type ReferenceType string

const (
	ReferenceNone     ReferenceType = ""
	ReferenceURL      ReferenceType = "P854" // reference URL
	ReferenceStatedIn ReferenceType = "P248" // stated in (an item)
)

func (t ReferenceType) String() string {
	switch t {
	case ReferenceURL:
		return "reference URL"
	case ReferenceStatedIn:
		return "stated in"
	default:
		return "none"
	}
}

// Reference is provenance attached to a statement when it is created.
type Reference struct {
	Type  ReferenceType `json:"reference_type"`
	Value string        `json:"reference_value"`       // URL or item id
	Pages string        `json:"pages_value,omitempty"` // only for stated in
}
