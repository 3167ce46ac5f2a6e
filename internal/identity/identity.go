// Package identity classifies statement ids as local (not yet published) or
// published, which decides the actions offered for a statement.
package identity

import "strings"

// PublishedMarker is the substring that marks a published statement id.
// Published ids start with the subject's item id ("Q42$...").
const PublishedMarker = "Q"

// Kind is the publication class of a statement.
type Kind int

const (
	Local Kind = iota
	Published
)

func (k Kind) String() string {
	switch k {
	case Published:
		return "published"
	default:
		return "local"
	}
}

// Classify reports whether a statement id is local or published.
// This is a substring test, not a parse: any id containing the marker
// anywhere is treated as published.
func Classify(statementID string) Kind {
	if strings.Contains(statementID, PublishedMarker) {
		return Published
	}
	return Local
}

// CanDelete reports whether the statement may be deleted locally.
func CanDelete(statementID string) bool {
	return Classify(statementID) == Local
}

// CanEditRegion reports whether the statement's region may be added or edited.
func CanEditRegion(statementID string) bool {
	return true
}

// DisplayLabel prefixes local statements with their id so reviewers can tell
// them apart from published ones.
func DisplayLabel(statementID, label string) string {
	if Classify(statementID) == Local {
		return statementID + ": " + label
	}
	return label
}
