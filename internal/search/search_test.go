package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/depicta/internal/cache"
	"github.com/ppiankov/depicta/internal/worker"
)

const searchBody = `{"search":[
	{"id":"Q146","label":"cat","description":"domestic species","match":{"type":"label","language":"en","text":"cat"},"display":{"label":{"value":"house cat","language":"en"},"description":{"value":"small domesticated carnivorous mammal","language":"en"}}},
	{"id":"Q1","label":"kitty","description":"","match":{"type":"alias","language":"en","text":"kitty"}}
],"search-continue":2}`

func TestSearch(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		_, _ = w.Write([]byte(searchBody))
	}))
	defer srv.Close()

	c, err := New(Options{Endpoint: srv.URL, Language: "en"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	results, err := c.Search(context.Background(), "cat", 5, 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if got.Get("action") != "wbsearchentities" || got.Get("continue") != "10" || got.Get("limit") != "5" || got.Get("type") != "item" {
		t.Errorf("Unexpected query: %v", got)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].Label != "house cat" || results[0].Description != "small domesticated carnivorous mammal" {
		t.Errorf("Expected display terms to win, got %+v", results[0])
	}
	if results[0].Match != "" {
		t.Errorf("Expected no match annotation for label match, got %q", results[0].Match)
	}
	if results[1].Match != "(kitty)" {
		t.Errorf("Expected alias annotation, got %q", results[1].Match)
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	c, _ := New(Options{Endpoint: "http://127.0.0.1:1"})
	results, err := c.Search(context.Background(), "   ", 5, 0)
	if err != nil || results != nil {
		t.Fatalf("Expected no request for blank query, got %v %v", results, err)
	}
}

func TestSearch_Cached(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(searchBody))
	}))
	defer srv.Close()

	c, _ := New(Options{
		Endpoint: srv.URL,
		Cache:    cache.NewMemoryCache(time.Minute, 0),
		Limiter:  worker.NewLimiter(100, 10),
	})
	for i := 0; i < 3; i++ {
		if _, err := c.Search(context.Background(), "cat", 5, 0); err != nil {
			t.Fatalf("Search failed: %v", err)
		}
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Errorf("Expected 1 request, got %d", hits)
	}

	if _, err := c.Search(context.Background(), "cat", 5, 5); err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if atomic.LoadInt32(&hits) != 2 {
		t.Errorf("Expected a new request for a new offset, got %d", hits)
	}
}

func TestSearch_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"code":"badvalue","info":"Unrecognized value"}}`))
	}))
	defer srv.Close()

	c, _ := New(Options{Endpoint: srv.URL})
	if _, err := c.Search(context.Background(), "cat", 5, 0); err == nil {
		t.Fatal("Expected API error")
	}
}

func TestSearch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, _ := New(Options{Endpoint: srv.URL})
	if _, err := c.Search(context.Background(), "cat", 5, 0); err == nil {
		t.Fatal("Expected error for 503")
	}
}

func TestLabel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ids") != "Q42" {
			t.Errorf("Expected ids=Q42, got %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"entities":{"Q42":{"labels":{"en":{"value":"Douglas Adams","language":"en"}}}}}`))
	}))
	defer srv.Close()

	c, _ := New(Options{Endpoint: srv.URL})
	label, err := c.Label(context.Background(), "Q42")
	if err != nil {
		t.Fatalf("Label failed: %v", err)
	}
	if label.Value != "Douglas Adams" || label.Language != "en" {
		t.Errorf("Unexpected label: %+v", label)
	}
}

func TestLabel_MissingFallsBackToID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"entities":{"Q9":{"labels":{}}}}`))
	}))
	defer srv.Close()

	c, _ := New(Options{Endpoint: srv.URL})
	label, err := c.Label(context.Background(), "Q9")
	if err != nil {
		t.Fatalf("Label failed: %v", err)
	}
	if label.Value != "Q9" {
		t.Errorf("Expected id as label, got %+v", label)
	}
}

func TestNew_RequiresEndpoint(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatal("Expected error for empty endpoint")
	}
}
