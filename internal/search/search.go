// Package search queries the external entity-search service used by the
// new-statement form, and looks up item labels.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/depicta/internal/cache"
	"github.com/ppiankov/depicta/internal/logger"
	"github.com/ppiankov/depicta/internal/model"
	"github.com/ppiankov/depicta/internal/worker"
)

// Result is one entity-search hit.
type Result struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	Match       string `json:"match,omitempty"` // "(alias text)" when the hit matched an alias
	Language    string `json:"language,omitempty"`
}

// Options configures a Client.
type Options struct {
	Endpoint  string
	Language  string
	UserAgent string
	Timeout   time.Duration
	CacheTTL  time.Duration
	Cache     cache.Cache
	Limiter   *worker.Limiter
	Logger    *logger.Logger
}

// Client calls the MediaWiki action API of the search service.
type Client struct {
	endpoint   string
	language   string
	userAgent  string
	httpClient *http.Client
	cache      cache.Cache
	cacheTTL   time.Duration
	limiter    *worker.Limiter
	log        *logger.Logger
}

// New creates a search client. Cache and Limiter are optional.
func New(opts Options) (*Client, error) {
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("search endpoint is required")
	}
	if _, err := url.Parse(opts.Endpoint); err != nil {
		return nil, fmt.Errorf("parse search endpoint: %w", err)
	}
	if opts.Language == "" {
		opts.Language = "en"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Cache == nil {
		opts.Cache = cache.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}

	return &Client{
		endpoint:   opts.Endpoint,
		language:   opts.Language,
		userAgent:  opts.UserAgent,
		httpClient: &http.Client{Timeout: opts.Timeout},
		cache:      opts.Cache,
		cacheTTL:   opts.CacheTTL,
		limiter:    opts.Limiter,
		log:        opts.Logger.With("component", "search"),
	}, nil
}

type termDisplay struct {
	Value    string `json:"value"`
	Language string `json:"language"`
}

type searchResponse struct {
	Search []struct {
		ID          string `json:"id"`
		Label       string `json:"label"`
		Description string `json:"description"`
		Match       struct {
			Type     string `json:"type"`
			Language string `json:"language"`
			Text     string `json:"text"`
		} `json:"match"`
		Display struct {
			Label       *termDisplay `json:"label"`
			Description *termDisplay `json:"description"`
		} `json:"display"`
	} `json:"search"`
	Error *apiError `json:"error"`
}

type apiError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

func (e *apiError) Error() string {
	return e.Code + ": " + e.Info
}

// Search looks up items matching query, starting at offset.
func (c *Client) Search(ctx context.Context, query string, limit, offset int) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	key := cache.Key("search", c.language, query, strconv.Itoa(limit), strconv.Itoa(offset))
	var cached []Result
	if cache.GetJSON(c.cache, key, &cached) {
		c.log.Debug("search cache hit", "query", query, "offset", offset)
		return cached, nil
	}

	params := url.Values{
		"action":   {"wbsearchentities"},
		"search":   {query},
		"language": {c.language},
		"type":     {"item"},
		"limit":    {strconv.Itoa(limit)},
		"continue": {strconv.Itoa(offset)},
		"props":    {""},
		"format":   {"json"},
	}
	var resp searchResponse
	if err := c.get(ctx, params, &resp); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("search %q: %w", query, resp.Error)
	}

	results := make([]Result, 0, len(resp.Search))
	for _, hit := range resp.Search {
		r := Result{ID: hit.ID, Label: hit.Label, Description: hit.Description}
		if d := hit.Display.Label; d != nil {
			r.Label = d.Value
			r.Language = d.Language
		}
		if d := hit.Display.Description; d != nil {
			r.Description = d.Value
		}
		if hit.Match.Type == "alias" {
			r.Match = "(" + hit.Match.Text + ")"
		}
		results = append(results, r)
	}

	if err := cache.SetJSON(c.cache, key, results, c.cacheTTL); err != nil {
		c.log.Warn("cache search results", "error", err)
	}
	return results, nil
}

type entitiesResponse struct {
	Entities map[string]struct {
		Labels map[string]termDisplay `json:"labels"`
	} `json:"entities"`
	Error *apiError `json:"error"`
}

// Label returns the label of an item in the client's language.
func (c *Client) Label(ctx context.Context, itemID string) (model.Label, error) {
	key := cache.Key("label", c.language, itemID)
	var cached model.Label
	if cache.GetJSON(c.cache, key, &cached) {
		return cached, nil
	}

	params := url.Values{
		"action":           {"wbgetentities"},
		"ids":              {itemID},
		"props":            {"labels"},
		"languages":        {c.language},
		"languagefallback": {"1"},
		"format":           {"json"},
	}
	var resp entitiesResponse
	if err := c.get(ctx, params, &resp); err != nil {
		return model.Label{}, fmt.Errorf("label %s: %w", itemID, err)
	}
	if resp.Error != nil {
		return model.Label{}, fmt.Errorf("label %s: %w", itemID, resp.Error)
	}

	label := model.Label{Value: itemID}
	if entity, ok := resp.Entities[itemID]; ok {
		if l, ok := entity.Labels[c.language]; ok {
			label = model.Label{Value: l.Value, Language: l.Language}
		}
	}

	if err := cache.SetJSON(c.cache, key, label, c.cacheTTL); err != nil {
		c.log.Warn("cache label", "error", err)
	}
	return label, nil
}

func (c *Client) get(ctx context.Context, params url.Values, out any) error {
	u := c.endpoint + "?" + params.Encode()
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, u); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
