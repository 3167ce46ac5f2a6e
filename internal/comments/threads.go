// Package comments keeps the comment threads of one entity. A thread is
// placed when it is created: under its statement when the statement has no
// region, otherwise in the "comments on regions" panel. It never moves.
package comments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ppiankov/depicta/internal/logger"
	"github.com/ppiankov/depicta/internal/model"
)

// ErrEmptyComment is returned when a comment has no text.
var ErrEmptyComment = errors.New("comment is empty")

// Placer resolves a statement at the moment a thread is created.
type Placer interface {
	Lookup(statementID string) (model.Statement, bool)
}

// Syncer is the part of the sync gateway the threads need.
type Syncer interface {
	ListComments(ctx context.Context, entityID, username string) ([]model.Comment, error)
	ListOwnComments(ctx context.Context, entityID string) ([]model.Comment, error)
	AddComment(ctx context.Context, statementID, entityID, username, text string) (model.Comment, error)
}

// Placement is where a thread is shown.
type Placement int

const (
	UnderStatement Placement = iota
	RegionPanel
)

func (p Placement) String() string {
	if p == RegionPanel {
		return "region panel"
	}
	return "under statement"
}

// Thread is the comments on one statement.
type Thread struct {
	StatementID string
	Placement   Placement
	Heading     string // display label, set for region panel threads
	Comments    []model.Comment
}

// Threads holds every thread of an entity in creation order.
type Threads struct {
	entityID string
	placer   Placer
	syncer   Syncer
	log      *logger.Logger

	mu      sync.Mutex
	order   []string
	threads map[string]*Thread
}

// New creates an empty set of threads for entityID.
func New(entityID string, placer Placer, syncer Syncer, log *logger.Logger) *Threads {
	if log == nil {
		log = logger.Nop()
	}
	return &Threads{
		entityID: entityID,
		placer:   placer,
		syncer:   syncer,
		log:      log.With("entity", entityID, "component", "comments"),
		threads:  make(map[string]*Thread),
	}
}

// Add appends a comment to its statement's thread, creating the thread if
// needed. A statement the placer does not know gets an under-statement thread.
func (t *Threads) Add(c model.Comment) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.add(c)
}

func (t *Threads) add(c model.Comment) {
	th, ok := t.threads[c.StatementID]
	if !ok {
		th = &Thread{StatementID: c.StatementID, Placement: UnderStatement}
		if s, found := t.placer.Lookup(c.StatementID); found && s.HasRegion() {
			th.Placement = RegionPanel
			th.Heading = s.DisplayLabel()
		}
		t.threads[c.StatementID] = th
		t.order = append(t.order, c.StatementID)
		t.log.Debug("thread created", "statement", c.StatementID, "placement", th.Placement)
	}
	th.Comments = append(th.Comments, c)
}

// Clear drops every thread.
func (t *Threads) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.order = nil
	t.threads = make(map[string]*Thread)
}

// LoadAll replays every comment on username's annotations in server order.
func (t *Threads) LoadAll(ctx context.Context, username string) error {
	comments, err := t.syncer.ListComments(ctx, t.entityID, username)
	if err != nil {
		return fmt.Errorf("load comments: %w", err)
	}
	t.replay(comments)
	return nil
}

// LoadOwn replays the comments on the session user's own annotations.
func (t *Threads) LoadOwn(ctx context.Context) error {
	comments, err := t.syncer.ListOwnComments(ctx, t.entityID)
	if err != nil {
		return fmt.Errorf("load own comments: %w", err)
	}
	t.replay(comments)
	return nil
}

func (t *Threads) replay(comments []model.Comment) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, c := range comments {
		t.add(c)
	}
	t.log.Info("comments loaded", "count", len(comments), "threads", len(t.order))
}

// Post sends a comment and adds what the server stored. Blank text is
// rejected without a request.
func (t *Threads) Post(ctx context.Context, statementID, username, text string) (model.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return model.Comment{}, ErrEmptyComment
	}
	stored, err := t.syncer.AddComment(ctx, statementID, t.entityID, username, text)
	if err != nil {
		return model.Comment{}, fmt.Errorf("post comment: %w", err)
	}
	t.Add(stored)
	return stored, nil
}

// Thread returns a copy of the thread on statementID.
func (t *Threads) Thread(statementID string) (Thread, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	th, ok := t.threads[statementID]
	if !ok {
		return Thread{}, false
	}
	return copyThread(th), true
}

// All returns copies of every thread in creation order.
func (t *Threads) All() []Thread {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Thread, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, copyThread(t.threads[id]))
	}
	return out
}

func copyThread(th *Thread) Thread {
	c := *th
	c.Comments = append([]model.Comment(nil), th.Comments...)
	return c
}
