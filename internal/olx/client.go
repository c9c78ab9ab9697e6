package olx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sooq-service/internal/pkg/cache"
	xerrors "sooq-service/internal/pkg/errors"

	"go.uber.org/zap"
)

const (
	categoriesPath     = "/api/categories/"
	categoryFieldsPath = "/api/categoryFields"

	defaultCacheTTL   = 24 * time.Hour
	defaultTimeout    = 30 * time.Second
	defaultRetries    = 3
	defaultRetryDelay = 1 * time.Second
)

// Config carries client tuning knobs. Zero values fall back to the nominal
// 24h cache / 30s timeout / 3 retries.
type Config struct {
	BaseURL    string
	CacheTTL   time.Duration
	Timeout    time.Duration
	Retries    int
	RetryDelay time.Duration
}

// Client fetches category and category-field definitions from the upstream
// taxonomy API with time-boxed caching and retry.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      cache.Cache
	logger     *zap.Logger
	cacheTTL   time.Duration
	retries    int
	retryDelay time.Duration
}

func NewClient(cfg Config, c cache.Cache, logger *zap.Logger) *Client {
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Retries == 0 {
		cfg.Retries = defaultRetries
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = defaultRetryDelay
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cache:      c,
		logger:     logger,
		cacheTTL:   cfg.CacheTTL,
		retries:    cfg.Retries,
		retryDelay: cfg.RetryDelay,
	}
}

// FetchCategories returns the full upstream category list. It degrades
// gracefully: on any transport failure, non-success status or malformed
// body it logs and returns an empty list so a sync pass becomes a no-op
// rather than an error.
func (c *Client) FetchCategories(ctx context.Context, forceRefresh bool) []RawCategory {
	key := cache.CategoriesKey()

	if forceRefresh {
		if err := c.cache.Invalidate(ctx, key); err != nil {
			c.logger.Warn("failed to invalidate categories cache", zap.Error(err))
		}
	} else if cached, ok, err := c.cache.Get(ctx, key); err == nil && ok {
		var categories []RawCategory
		if err := json.Unmarshal(cached, &categories); err == nil {
			return categories
		}
	}

	body, err := c.getWithRetry(ctx, c.baseURL+categoriesPath, nil)
	if err != nil {
		c.logger.Warn("categories request failed", zap.Error(err))
		return []RawCategory{}
	}

	categories, err := parseCategories(body)
	if err != nil {
		c.logger.Warn("categories response malformed", zap.Error(err))
		return []RawCategory{}
	}

	c.logger.Info("fetched categories from upstream", zap.Int("count", len(categories)))

	if data, err := json.Marshal(categories); err == nil {
		if err := c.cache.Put(ctx, key, data, c.cacheTTL); err != nil {
			c.logger.Warn("failed to cache categories", zap.Error(err))
		}
	}

	return categories
}

// FetchCategoryFields returns per-category field groups keyed by an opaque
// upstream key (sometimes the external id, sometimes the source's internal
// id). Unlike FetchCategories, failures here are surfaced: persisting an
// empty schema for categories that do exist must never happen silently.
func (c *Client) FetchCategoryFields(ctx context.Context, externalIDs []string, forceRefresh bool) (map[string]RawFieldGroup, error) {
	key := cache.CategoryFieldsKey(externalIDs)

	if forceRefresh {
		if err := c.cache.Invalidate(ctx, key); err != nil {
			c.logger.Warn("failed to invalidate category fields cache", zap.Error(err))
		}
	} else if cached, ok, err := c.cache.Get(ctx, key); err == nil && ok {
		if groups, err := parseFieldGroups(cached); err == nil {
			return groups, nil
		}
	}

	params := url.Values{
		"categoryExternalIDs":    {strings.Join(externalIDs, ",")},
		"includeWithoutCategory": {"true"},
		"splitByCategoryIDs":     {"true"},
		"flatChoices":            {"true"},
		"groupChoicesBySection":  {"true"},
		"flat":                   {"true"},
	}

	body, err := c.getWithRetry(ctx, c.baseURL+categoryFieldsPath, params)
	if err != nil {
		return nil, fmt.Errorf("category fields fetch failed: %w", err)
	}

	groups, err := parseFieldGroups(body)
	if err != nil {
		return nil, fmt.Errorf("category fields response malformed: %w", err)
	}

	c.logger.Info("fetched category fields from upstream", zap.Int("groups", len(groups)))

	if err := c.cache.Put(ctx, key, body, c.cacheTTL); err != nil {
		c.logger.Warn("failed to cache category fields", zap.Error(err))
	}

	return groups, nil
}

// getWithRetry performs a GET with a fixed retry count and fixed backoff.
// Transport errors and 5xx responses are retried; other non-2xx statuses
// fail immediately.
func (c *Client) getWithRetry(ctx context.Context, rawURL string, params url.Values) ([]byte, error) {
	if params != nil {
		rawURL = rawURL + "?" + params.Encode()
	}

	var lastErr error
	for attempt := 1; attempt <= c.retries; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", "Mozilla/5.0 (Sooq Sync)")
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("upstream returned status %d: %w", resp.StatusCode, xerrors.ErrUpstream)
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("upstream returned status %d: %w", resp.StatusCode, xerrors.ErrUpstream)
		}

		return body, nil
	}

	return nil, lastErr
}

// parseCategories accepts both response shapes the upstream has used: a
// bare JSON list, or an object with a "data" list.
func parseCategories(body []byte) ([]RawCategory, error) {
	var bare []RawCategory
	if err := json.Unmarshal(body, &bare); err == nil {
		return bare, nil
	}

	var wrapped struct {
		Data []RawCategory `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("unexpected categories body: %w", err)
	}
	if wrapped.Data == nil {
		return nil, fmt.Errorf("categories response missing data key")
	}
	return wrapped.Data, nil
}

// parseFieldGroups decodes {data: {<key>: {flatFields: {...}}}}. Group and
// field entries that are not objects, and flat fields without an
// "attribute" key, are skipped rather than failing the whole response.
func parseFieldGroups(body []byte) (map[string]RawFieldGroup, error) {
	var wrapped struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("unexpected category fields body: %w", err)
	}
	if wrapped.Data == nil {
		return nil, fmt.Errorf("category fields response missing data key")
	}

	groups := make(map[string]RawFieldGroup, len(wrapped.Data))
	for key, rawGroup := range wrapped.Data {
		var group struct {
			FlatFields map[string]json.RawMessage `json:"flatFields"`
		}
		if err := json.Unmarshal(rawGroup, &group); err != nil || group.FlatFields == nil {
			continue
		}

		flat := make(map[string]RawField, len(group.FlatFields))
		for fieldKey, rawField := range group.FlatFields {
			var field RawField
			if err := json.Unmarshal(rawField, &field); err != nil {
				continue
			}
			if _, ok := field["attribute"]; !ok {
				continue
			}
			flat[fieldKey] = field
		}

		groups[key] = RawFieldGroup{FlatFields: flat}
	}

	return groups, nil
}
