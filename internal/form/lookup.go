package form

import (
	"fmt"

	"github.com/ppiankov/depicta/internal/search"
)

// lookup is one search-as-you-type field. Each field keeps its own offset.
type lookup struct {
	value    string
	offset   int
	results  []search.Result
	selected string
}

func (l *lookup) reset(value string) {
	l.value = value
	l.offset = 0
	l.selected = ""
	if value == "" {
		l.results = nil
	}
}

func (l *lookup) choose(id string) error {
	for _, r := range l.results {
		if r.ID == id {
			l.selected = id
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotInResults, id)
}

func (l *lookup) snapshot() []search.Result {
	return append([]search.Result(nil), l.results...)
}
