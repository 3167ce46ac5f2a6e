package form

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/depicta/internal/gateway"
	"github.com/ppiankov/depicta/internal/model"
	"github.com/ppiankov/depicta/internal/search"
)

type searchCall struct {
	query  string
	offset int
}

// gatedSearcher answers each query only once its gate is opened. Pages
// after the first are gated as "query#offset".
type gatedSearcher struct {
	mu    sync.Mutex
	calls []searchCall
	gates map[string]chan struct{}
}

func (g *gatedSearcher) gate(query string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gates == nil {
		g.gates = make(map[string]chan struct{})
	}
	ch, ok := g.gates[query]
	if !ok {
		ch = make(chan struct{})
		g.gates[query] = ch
	}
	return ch
}

func (g *gatedSearcher) Search(ctx context.Context, query string, limit, offset int) ([]search.Result, error) {
	g.mu.Lock()
	g.calls = append(g.calls, searchCall{query, offset})
	g.mu.Unlock()
	key := query
	if offset > 0 {
		key = fmt.Sprintf("%s#%d", query, offset)
	}
	<-g.gate(key)
	return results(query, limit, offset), nil
}

type instantSearcher struct {
	calls []searchCall
	err   error
}

func (s *instantSearcher) Search(ctx context.Context, query string, limit, offset int) ([]search.Result, error) {
	s.calls = append(s.calls, searchCall{query, offset})
	if s.err != nil {
		return nil, s.err
	}
	return results(query, limit, offset), nil
}

func results(query string, limit, offset int) []search.Result {
	out := make([]search.Result, 0, limit)
	for i := 0; i < limit; i++ {
		out = append(out, search.Result{ID: fmt.Sprintf("Q%d", offset+i+1), Label: fmt.Sprintf("%s %d", query, offset+i)})
	}
	return out
}

type fakeCreator struct {
	requests []gateway.CreateStatementRequest
	err      error
	gate     chan struct{}
	entered  chan struct{}
}

func (f *fakeCreator) CreateStatement(ctx context.Context, req gateway.CreateStatementRequest) (model.Statement, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
	f.requests = append(f.requests, req)
	if f.err != nil {
		return model.Statement{}, f.err
	}
	return model.Statement{ID: fmt.Sprintf("L-%d", len(f.requests)), PropertyID: req.PropertyID, SnakType: req.SnakType, ItemID: req.ItemID}, nil
}

type fakeSink struct {
	added []model.Statement
}

func (s *fakeSink) AddStatement(st model.Statement) {
	s.added = append(s.added, st)
}

var properties = []model.PropertyConfig{
	{ID: "P180", Label: "depicts", ListLabel: "Depicted"},
	{ID: "P9999", Label: "does not depict", ListLabel: "Not depicted"},
}

func newController(searcher Searcher, creator Creator, sink Sink) *Controller {
	return New(Options{
		EntityID:   "M1",
		Properties: properties,
		Limit:      2,
		Searcher:   searcher,
		Creator:    creator,
		Sink:       sink,
	})
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	searcher := &gatedSearcher{}
	c := newController(searcher, &fakeCreator{}, nil)
	ctx := context.Background()

	abcDone := make(chan error)
	go func() { abcDone <- c.SearchInput(ctx, "abc") }()
	// make sure "abc" is in flight before typing on
	for {
		searcher.mu.Lock()
		n := len(searcher.calls)
		searcher.mu.Unlock()
		if n == 1 {
			break
		}
	}

	abcdDone := make(chan error)
	go func() { abcdDone <- c.SearchInput(ctx, "abcd") }()
	close(searcher.gate("abcd"))
	require.NoError(t, <-abcdDone)

	close(searcher.gate("abc"))
	require.NoError(t, <-abcDone)

	got := c.Results()
	assert.Equal(t, results("abcd", 2, 0), got)
}

func TestLoadMoreAppendsWithOwnOffset(t *testing.T) {
	searcher := &instantSearcher{}
	c := newController(searcher, &fakeCreator{}, nil)
	ctx := context.Background()

	require.NoError(t, c.SetReferenceType(model.ReferenceStatedIn))
	require.NoError(t, c.SearchInput(ctx, "cat"))
	require.NoError(t, c.LoadMore(ctx))
	require.NoError(t, c.LoadMore(ctx))
	require.NoError(t, c.ReferenceInput(ctx, "book"))
	require.NoError(t, c.ReferenceLoadMore(ctx))

	assert.Len(t, c.Results(), 6)
	assert.Len(t, c.ReferenceResults(), 4)
	assert.Equal(t, []searchCall{
		{"cat", 0}, {"cat", 2}, {"cat", 4},
		{"book", 0}, {"book", 2},
	}, searcher.calls)
}

func TestStaleLoadMoreIsDiscarded(t *testing.T) {
	searcher := &gatedSearcher{}
	c := newController(searcher, &fakeCreator{}, nil)
	ctx := context.Background()

	close(searcher.gate("cat"))
	require.NoError(t, c.SearchInput(ctx, "cat"))

	more := make(chan error)
	go func() { more <- c.LoadMore(ctx) }()
	for {
		searcher.mu.Lock()
		n := len(searcher.calls)
		searcher.mu.Unlock()
		if n == 2 {
			break
		}
	}
	close(searcher.gate("dog"))
	require.NoError(t, c.SearchInput(ctx, "dog"))
	close(searcher.gate("cat#2"))
	require.NoError(t, <-more)

	assert.Equal(t, results("dog", 2, 0), c.Results())
}

func TestEmptyInputClearsResults(t *testing.T) {
	searcher := &instantSearcher{}
	c := newController(searcher, &fakeCreator{}, nil)
	require.NoError(t, c.SearchInput(context.Background(), "cat"))
	require.NoError(t, c.SearchInput(context.Background(), ""))
	assert.Empty(t, c.Results())
	assert.Len(t, searcher.calls, 1)
}

func TestReferenceSearchOnlyForStatedInLookup(t *testing.T) {
	searcher := &instantSearcher{}
	c := newController(searcher, &fakeCreator{}, nil)
	ctx := context.Background()

	require.NoError(t, c.SetReferenceType(model.ReferenceURL))
	require.NoError(t, c.ReferenceInput(ctx, "https://example.org"))
	assert.Empty(t, c.ReferenceResults())

	require.NoError(t, c.SetReferenceType(model.ReferenceStatedIn))
	require.NoError(t, c.SetQIDToggle(true))
	require.NoError(t, c.ReferenceInput(ctx, "Q1"))
	assert.Empty(t, c.ReferenceResults())
	assert.Empty(t, searcher.calls)
}

func TestToggleAndPagesNeedStatedIn(t *testing.T) {
	c := newController(&instantSearcher{}, &fakeCreator{}, nil)
	assert.ErrorIs(t, c.SetQIDToggle(true), ErrNotStatedIn)
	assert.ErrorIs(t, c.SetPages("12"), ErrNotStatedIn)
	assert.ErrorIs(t, c.SetReferenceType("P1"), ErrUnknownReference)
	assert.ErrorIs(t, c.SelectProperty("P1"), ErrUnknownProperty)
}

func TestSubmitValidation(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name  string
		setup func(c *Controller)
		want  error
	}{
		{"no item", func(c *Controller) {}, ErrNoItem},
		{"url without value", func(c *Controller) {
			selectFirst(t, c)
			require.NoError(t, c.SetReferenceType(model.ReferenceURL))
		}, ErrIncompleteReference},
		{"stated in without selection", func(c *Controller) {
			selectFirst(t, c)
			require.NoError(t, c.SetReferenceType(model.ReferenceStatedIn))
			require.NoError(t, c.ReferenceInput(ctx, "book"))
		}, ErrNoReferenceItem},
		{"typed qid without marker", func(c *Controller) {
			selectFirst(t, c)
			require.NoError(t, c.SetReferenceType(model.ReferenceStatedIn))
			require.NoError(t, c.SetQIDToggle(true))
			require.NoError(t, c.ReferenceInput(ctx, "42"))
		}, ErrInvalidQID},
		{"typed qid with letters", func(c *Controller) {
			selectFirst(t, c)
			require.NoError(t, c.SetReferenceType(model.ReferenceStatedIn))
			require.NoError(t, c.SetQIDToggle(true))
			require.NoError(t, c.ReferenceInput(ctx, "Q4x"))
		}, ErrInvalidQID},
		{"typed qid empty", func(c *Controller) {
			selectFirst(t, c)
			require.NoError(t, c.SetReferenceType(model.ReferenceStatedIn))
			require.NoError(t, c.SetQIDToggle(true))
		}, ErrIncompleteReference},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			creator := &fakeCreator{}
			c := newController(&instantSearcher{}, creator, nil)
			tc.setup(c)
			_, err := c.Submit(ctx)
			assert.ErrorIs(t, err, tc.want)
			assert.Empty(t, creator.requests)
			assert.False(t, c.Disabled())
		})
	}
}

func selectFirst(t *testing.T, c *Controller) {
	t.Helper()
	require.NoError(t, c.SearchInput(context.Background(), "cat"))
	require.NoError(t, c.SelectItem("Q1"))
}

func TestSubmitWithTypedQIDAndPages(t *testing.T) {
	creator := &fakeCreator{}
	sink := &fakeSink{}
	c := newController(&instantSearcher{}, creator, sink)
	ctx := context.Background()

	selectFirst(t, c)
	require.NoError(t, c.SelectProperty("P9999"))
	require.NoError(t, c.SetReferenceType(model.ReferenceStatedIn))
	require.NoError(t, c.SetQIDToggle(true))
	require.NoError(t, c.ReferenceInput(ctx, "Q123"))
	require.NoError(t, c.SetPages("12-13"))

	s, err := c.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, "L-1", s.ID)

	require.Len(t, creator.requests, 1)
	req := creator.requests[0]
	assert.Equal(t, "M1", req.EntityID)
	assert.Equal(t, "P9999", req.PropertyID)
	assert.Equal(t, "Q1", req.ItemID)
	assert.Equal(t, &model.Reference{Type: model.ReferenceStatedIn, Value: "Q123", Pages: "12-13"}, req.Reference)

	require.Len(t, sink.added, 1)
	assert.Equal(t, "L-1", sink.added[0].ID)
}

func TestSubmitWithLookedUpReference(t *testing.T) {
	creator := &fakeCreator{}
	c := newController(&instantSearcher{}, creator, nil)
	ctx := context.Background()

	selectFirst(t, c)
	require.NoError(t, c.SetReferenceType(model.ReferenceStatedIn))
	require.NoError(t, c.ReferenceInput(ctx, "book"))
	require.NoError(t, c.SelectReferenceItem("Q2"))

	_, err := c.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Q2", creator.requests[0].Reference.Value)
}

func TestSubmitWithURLReference(t *testing.T) {
	creator := &fakeCreator{}
	c := newController(&instantSearcher{}, creator, nil)

	selectFirst(t, c)
	require.NoError(t, c.SetReferenceType(model.ReferenceURL))
	require.NoError(t, c.ReferenceInput(context.Background(), "https://example.org/catalogue"))

	_, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &model.Reference{Type: model.ReferenceURL, Value: "https://example.org/catalogue"}, creator.requests[0].Reference)
}

func TestChangingReferenceTypeResetsToggleAndPages(t *testing.T) {
	creator := &fakeCreator{}
	c := newController(&instantSearcher{}, creator, nil)
	ctx := context.Background()

	selectFirst(t, c)
	require.NoError(t, c.SetReferenceType(model.ReferenceStatedIn))
	require.NoError(t, c.SetQIDToggle(true))
	require.NoError(t, c.SetPages("7"))
	require.NoError(t, c.ReferenceInput(ctx, "Q5"))

	require.NoError(t, c.SetReferenceType(model.ReferenceNone))
	require.NoError(t, c.SetReferenceType(model.ReferenceStatedIn))

	// toggle is off again, so a typed QID no longer counts as a selection
	_, err := c.Submit(ctx)
	assert.ErrorIs(t, err, ErrNoReferenceItem)
}

func TestTypingClearsSelection(t *testing.T) {
	c := newController(&instantSearcher{}, &fakeCreator{}, nil)
	selectFirst(t, c)
	require.NoError(t, c.SearchInput(context.Background(), "cats"))
	assert.Empty(t, c.SelectedItem())
	assert.ErrorIs(t, c.SelectItem("Q99"), ErrNotInResults)
}

func TestSubmitDisablesForm(t *testing.T) {
	creator := &fakeCreator{gate: make(chan struct{}), entered: make(chan struct{})}
	c := newController(&instantSearcher{}, creator, nil)
	selectFirst(t, c)

	done := make(chan error)
	go func() {
		_, err := c.Submit(context.Background())
		done <- err
	}()
	<-creator.entered

	assert.True(t, c.Disabled())
	_, err := c.Submit(context.Background())
	assert.ErrorIs(t, err, ErrDisabled)
	_, err = c.SubmitUnknownValue(context.Background())
	assert.ErrorIs(t, err, ErrDisabled)
	assert.ErrorIs(t, c.SearchInput(context.Background(), "dog"), ErrDisabled)

	close(creator.gate)
	require.NoError(t, <-done)
	assert.False(t, c.Disabled())
	assert.Len(t, creator.requests, 1)
}

func TestSubmitFailureReenables(t *testing.T) {
	creator := &fakeCreator{err: errors.New("Wrong CSRF token (try reloading the page).")}
	sink := &fakeSink{}
	c := newController(&instantSearcher{}, creator, sink)
	selectFirst(t, c)

	_, err := c.Submit(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Wrong CSRF token")
	assert.False(t, c.Disabled())
	assert.Empty(t, sink.added)
}

func TestSubmitUnknownValue(t *testing.T) {
	creator := &fakeCreator{}
	sink := &fakeSink{}
	c := newController(&instantSearcher{}, creator, sink)

	s, err := c.SubmitUnknownValue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.SnakSomeValue, s.SnakType)
	assert.Equal(t, "P180", creator.requests[0].PropertyID)
	assert.Empty(t, creator.requests[0].ItemID)
	require.Len(t, sink.added, 1)
}
