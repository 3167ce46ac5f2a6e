// Package regions owns the statements of one entity and the single
// interactive region session (add, edit or delete a region) on its image.
//
// State lives in an explicit model; Snapshot produces a read-only view for
// rendering and nothing is ever read back from that view. The editor's mutex
// is released around every server call, so responses are applied behind
// existence checks.
package regions

import (
	"context"
	"fmt"
	"sync"

	"github.com/ppiankov/depicta/internal/geometry"
	"github.com/ppiankov/depicta/internal/logger"
	"github.com/ppiankov/depicta/internal/model"
)

// Syncer is the part of the sync gateway the editor needs.
type Syncer interface {
	Depicteds(ctx context.Context, entity model.Entity, username string) ([]model.Statement, error)
	AddQualifier(ctx context.Context, statementID, token, region string) (string, error)
	DeleteQualifier(ctx context.Context, statementID string) (model.Statement, error)
	DeleteStatement(ctx context.Context, statementID string) error
	Approved(ctx context.Context, entityID, username string) (bool, error)
	Upload(ctx context.Context, entityID string) error
}

// Options configures an Editor.
type Options struct {
	Username   string   // whose local statements to load; empty means the session user
	Properties []string // order of the without-region lists
	Logger     *logger.Logger
}

// Editor is the per-entity region state machine.
type Editor struct {
	syncer     Syncer
	username   string
	properties []string
	log        *logger.Logger

	mu             sync.Mutex
	entity         model.Entity
	order          []string
	statements     map[string]*model.Statement
	regionControls bool
	approved       bool
	state          State
	session        *session
}

// New creates an editor for entity.
func New(entity model.Entity, syncer Syncer, opts Options) *Editor {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Editor{
		syncer:     syncer,
		username:   opts.Username,
		properties: opts.Properties,
		log:        log.With("entity", entity.ID),
		entity:     entity,
		statements: make(map[string]*model.Statement),
	}
}

// Load replaces the statements with the server's current list.
func (e *Editor) Load(ctx context.Context) error {
	e.mu.Lock()
	entity := e.entity
	e.mu.Unlock()

	statements, err := e.syncer.Depicteds(ctx, entity, e.username)
	if err != nil {
		return fmt.Errorf("load statements: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Idle {
		return ErrSessionActive
	}
	e.order = e.order[:0]
	e.statements = make(map[string]*model.Statement, len(statements))
	for _, s := range statements {
		e.insert(s)
	}
	e.log.Info("statements loaded", "count", len(statements), "region_controls", e.regionControls)
	return nil
}

// AddStatement places a newly created statement. Statements with a region
// go to the overlay, the rest to their property's without-region list.
func (e *Editor) AddStatement(s model.Statement) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.insert(s)
	e.log.Info("statement added", "statement", s.ID, "kind", s.Kind(), "property", s.PropertyID)
}

func (e *Editor) insert(s model.Statement) {
	if existing, ok := e.statements[s.ID]; ok {
		*existing = s
	} else {
		copied := s
		e.statements[s.ID] = &copied
		e.order = append(e.order, s.ID)
	}
	if s.HasRegion() {
		e.regionControls = true
	}
}

func (e *Editor) remove(id string) {
	delete(e.statements, id)
	for i, o := range e.order {
		if o == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			return
		}
	}
}

// Lookup returns the current statement with the given id.
func (e *Editor) Lookup(statementID string) (model.Statement, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.statements[statementID]
	if !ok {
		return model.Statement{}, false
	}
	return *s, true
}

// Entity returns the entity with its current image source.
func (e *Editor) Entity() model.Entity {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.entity
}

// State returns the session state.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// RegionControls reports whether the edit and remove controls are offered.
// Once the entity has had a region the controls stay enabled.
func (e *Editor) RegionControls() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.regionControls
}

func (e *Editor) regionCount() int {
	n := 0
	for _, s := range e.statements {
		if s.HasRegion() {
			n++
		}
	}
	return n
}

// PropertyList is the without-region list of one property.
type PropertyList struct {
	PropertyID string
	Statements []model.Statement
}

// SessionView describes the active session and its affordances.
type SessionView struct {
	Mode          Mode
	State         State
	StatementID   string
	Crop          geometry.Crop
	ClickTargets  []string // statements that can be picked while selecting
	CancelControl bool
	KeyHandler    bool
	SourceSwapped bool
}

// View is a read-only snapshot of the editor for rendering.
type View struct {
	Entity         model.Entity
	Overlay        []model.Statement
	WithoutRegion  []PropertyList
	RegionControls bool
	Approved       bool
	Session        *SessionView
}

// Snapshot copies the current state.
func (e *Editor) Snapshot() View {
	e.mu.Lock()
	defer e.mu.Unlock()

	v := View{
		Entity:         e.entity,
		RegionControls: e.regionControls,
		Approved:       e.approved,
	}

	byProperty := make(map[string][]model.Statement)
	var seen []string
	for _, p := range e.properties {
		seen = append(seen, p)
		byProperty[p] = nil
	}
	for _, id := range e.order {
		s := *e.statements[id]
		if s.HasRegion() {
			v.Overlay = append(v.Overlay, s)
			continue
		}
		if _, ok := byProperty[s.PropertyID]; !ok {
			seen = append(seen, s.PropertyID)
		}
		byProperty[s.PropertyID] = append(byProperty[s.PropertyID], s)
	}
	for _, p := range seen {
		v.WithoutRegion = append(v.WithoutRegion, PropertyList{PropertyID: p, Statements: byProperty[p]})
	}

	if s := e.session; s != nil {
		v.Session = s.view(e.state)
	}
	return v
}
