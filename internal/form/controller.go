// Package form drives the new-statement form: property choice, item lookup,
// an optional reference, and submission.
//
// Lookups fire on every input change and may overlap. A response is applied
// only if the lookup's input still holds the value that triggered it.
package form

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"

	"github.com/ppiankov/depicta/internal/gateway"
	"github.com/ppiankov/depicta/internal/logger"
	"github.com/ppiankov/depicta/internal/model"
	"github.com/ppiankov/depicta/internal/search"
)

var (
	ErrNoItem              = errors.New("no item has been selected")
	ErrIncompleteReference = errors.New(`incomplete reference information: either change the reference type back to "none" or complete it`)
	ErrNoReferenceItem     = errors.New("no item has been selected that this reference was stated in")
	ErrInvalidQID          = errors.New("given reference is not a valid QID")
	ErrDisabled            = errors.New("form is busy with a submission")
	ErrUnknownProperty     = errors.New("unknown property")
	ErrUnknownReference    = errors.New("unknown reference type")
	ErrNotInResults        = errors.New("item is not among the lookup results")
	ErrNotStatedIn         = errors.New(`only available for "stated in" references`)
)

var qidPattern = regexp.MustCompile(`^Q[0-9]+$`)

// Searcher runs entity searches.
type Searcher interface {
	Search(ctx context.Context, query string, limit, offset int) ([]search.Result, error)
}

// Creator creates statements on the server.
type Creator interface {
	CreateStatement(ctx context.Context, req gateway.CreateStatementRequest) (model.Statement, error)
}

// Sink receives created statements; the region editor implements it.
type Sink interface {
	AddStatement(s model.Statement)
}

// Options configures a Controller.
type Options struct {
	EntityID   string
	Properties []model.PropertyConfig
	Limit      int
	Searcher   Searcher
	Creator    Creator
	Sink       Sink
	Logger     *logger.Logger
}

// Controller holds the form state of one entity.
type Controller struct {
	entityID   string
	properties []model.PropertyConfig
	limit      int
	searcher   Searcher
	creator    Creator
	sink       Sink
	log        *logger.Logger

	mu            sync.Mutex
	property      string
	item          lookup
	referenceType model.ReferenceType
	reference     lookup
	qidToggle     bool
	pages         string
	disabled      bool
}

// New creates a controller with the first property selected.
func New(opts Options) *Controller {
	if opts.Limit <= 0 {
		opts.Limit = 5
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	c := &Controller{
		entityID:   opts.EntityID,
		properties: opts.Properties,
		limit:      opts.Limit,
		searcher:   opts.Searcher,
		creator:    opts.Creator,
		sink:       opts.Sink,
		log:        opts.Logger.With("entity", opts.EntityID, "component", "form"),
	}
	if len(opts.Properties) > 0 {
		c.property = opts.Properties[0].ID
	}
	return c
}

// Properties returns the selectable properties.
func (c *Controller) Properties() []model.PropertyConfig {
	return append([]model.PropertyConfig(nil), c.properties...)
}

// Property returns the selected property id.
func (c *Controller) Property() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.property
}

// SelectProperty chooses the property of the next statement.
func (c *Controller) SelectProperty(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disabled {
		return ErrDisabled
	}
	for _, p := range c.properties {
		if p.ID == id {
			c.property = id
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownProperty, id)
}

// Disabled reports whether a submission is outstanding.
func (c *Controller) Disabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disabled
}

// SearchInput records the item lookup's new value and searches for it.
func (c *Controller) SearchInput(ctx context.Context, value string) error {
	return c.input(ctx, &c.item, value, true)
}

// LoadMore appends the next page of item results.
func (c *Controller) LoadMore(ctx context.Context) error {
	return c.loadMore(ctx, &c.item)
}

// Results returns the item lookup's results.
func (c *Controller) Results() []search.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.item.snapshot()
}

// SelectItem picks one of the item results.
func (c *Controller) SelectItem(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disabled {
		return ErrDisabled
	}
	return c.item.choose(id)
}

// SelectedItem returns the chosen item id.
func (c *Controller) SelectedItem() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.item.selected
}

// SetReferenceType changes the reference type. The QID toggle and pages are
// reset; the typed reference value is kept.
func (c *Controller) SetReferenceType(t model.ReferenceType) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disabled {
		return ErrDisabled
	}
	switch t {
	case model.ReferenceNone, model.ReferenceURL, model.ReferenceStatedIn:
	default:
		return fmt.Errorf("%w: %s", ErrUnknownReference, t)
	}
	c.referenceType = t
	c.qidToggle = false
	c.pages = ""
	if t != model.ReferenceStatedIn {
		c.reference.results = nil
		c.reference.selected = ""
	}
	return nil
}

// ReferenceType returns the selected reference type.
func (c *Controller) ReferenceType() model.ReferenceType {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.referenceType
}

// SetQIDToggle switches a "stated in" reference between a looked-up item
// and a typed QID.
func (c *Controller) SetQIDToggle(on bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disabled {
		return ErrDisabled
	}
	if c.referenceType != model.ReferenceStatedIn {
		return ErrNotStatedIn
	}
	c.qidToggle = on
	if on {
		c.reference.results = nil
		c.reference.selected = ""
	}
	return nil
}

// SetPages sets the optional pages of a "stated in" reference.
func (c *Controller) SetPages(pages string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disabled {
		return ErrDisabled
	}
	if c.referenceType != model.ReferenceStatedIn {
		return ErrNotStatedIn
	}
	c.pages = pages
	return nil
}

// ReferenceInput records the reference field's value. It searches only for
// a "stated in" reference with the QID toggle off.
func (c *Controller) ReferenceInput(ctx context.Context, value string) error {
	c.mu.Lock()
	searchable := c.referenceType == model.ReferenceStatedIn && !c.qidToggle
	c.mu.Unlock()
	return c.input(ctx, &c.reference, value, searchable)
}

// ReferenceLoadMore appends the next page of reference results.
func (c *Controller) ReferenceLoadMore(ctx context.Context) error {
	c.mu.Lock()
	searchable := c.referenceType == model.ReferenceStatedIn && !c.qidToggle
	c.mu.Unlock()
	if !searchable {
		return nil
	}
	return c.loadMore(ctx, &c.reference)
}

// ReferenceResults returns the reference lookup's results.
func (c *Controller) ReferenceResults() []search.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reference.snapshot()
}

// SelectReferenceItem picks one of the reference results.
func (c *Controller) SelectReferenceItem(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disabled {
		return ErrDisabled
	}
	return c.reference.choose(id)
}

func (c *Controller) input(ctx context.Context, l *lookup, value string, searchable bool) error {
	c.mu.Lock()
	if c.disabled {
		c.mu.Unlock()
		return ErrDisabled
	}
	l.reset(value)
	if value == "" || !searchable {
		l.results = nil
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	results, err := c.searcher.Search(ctx, value, c.limit, 0)

	c.mu.Lock()
	defer c.mu.Unlock()
	if l.value != value {
		c.log.Debug("stale lookup discarded", "value", value, "current", l.value)
		return nil
	}
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	l.results = results
	l.offset = c.limit
	return nil
}

func (c *Controller) loadMore(ctx context.Context, l *lookup) error {
	c.mu.Lock()
	if c.disabled {
		c.mu.Unlock()
		return ErrDisabled
	}
	value, offset := l.value, l.offset
	c.mu.Unlock()
	if value == "" {
		return nil
	}

	results, err := c.searcher.Search(ctx, value, c.limit, offset)

	c.mu.Lock()
	defer c.mu.Unlock()
	if l.value != value || l.offset != offset {
		c.log.Debug("stale page discarded", "value", value, "offset", offset)
		return nil
	}
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	l.results = append(l.results, results...)
	l.offset += c.limit
	return nil
}

// Submit validates the form and creates a statement for the selected item.
// Validation failures send nothing and leave the form as it was.
func (c *Controller) Submit(ctx context.Context) (model.Statement, error) {
	c.mu.Lock()
	if c.disabled {
		c.mu.Unlock()
		return model.Statement{}, ErrDisabled
	}
	req, err := c.request()
	if err != nil {
		c.mu.Unlock()
		return model.Statement{}, err
	}
	c.disabled = true
	c.mu.Unlock()

	return c.create(ctx, req)
}

// SubmitUnknownValue creates an "unknown value" statement for the selected
// property.
func (c *Controller) SubmitUnknownValue(ctx context.Context) (model.Statement, error) {
	c.mu.Lock()
	if c.disabled {
		c.mu.Unlock()
		return model.Statement{}, ErrDisabled
	}
	req := gateway.CreateStatementRequest{
		EntityID:   c.entityID,
		PropertyID: c.property,
		SnakType:   model.SnakSomeValue,
	}
	c.disabled = true
	c.mu.Unlock()

	return c.create(ctx, req)
}

// request builds the create request. Callers hold c.mu.
func (c *Controller) request() (gateway.CreateStatementRequest, error) {
	req := gateway.CreateStatementRequest{
		EntityID:   c.entityID,
		PropertyID: c.property,
		SnakType:   model.SnakValue,
		ItemID:     c.item.selected,
	}
	if req.ItemID == "" {
		return req, ErrNoItem
	}
	if c.referenceType == model.ReferenceNone {
		return req, nil
	}
	if c.reference.value == "" {
		return req, ErrIncompleteReference
	}

	ref := &model.Reference{Type: c.referenceType}
	switch c.referenceType {
	case model.ReferenceURL:
		ref.Value = c.reference.value
	case model.ReferenceStatedIn:
		if c.qidToggle {
			if !qidPattern.MatchString(c.reference.value) {
				return req, ErrInvalidQID
			}
			ref.Value = c.reference.value
		} else {
			if c.reference.selected == "" {
				return req, ErrNoReferenceItem
			}
			ref.Value = c.reference.selected
		}
		ref.Pages = c.pages
	}
	req.Reference = ref
	return req, nil
}

func (c *Controller) create(ctx context.Context, req gateway.CreateStatementRequest) (model.Statement, error) {
	defer func() {
		c.mu.Lock()
		c.disabled = false
		c.mu.Unlock()
	}()

	s, err := c.creator.CreateStatement(ctx, req)
	if err != nil {
		c.log.Warn("create statement failed", "property", req.PropertyID, "error", err)
		return model.Statement{}, fmt.Errorf("create statement: %w", err)
	}
	if c.sink != nil {
		c.sink.AddStatement(s)
	}
	c.log.Info("statement created", "statement", s.ID, "kind", s.Kind(), "snaktype", req.SnakType)
	return s, nil
}
