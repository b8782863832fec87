package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/resourcestack/utilization-insight/internal/cache"
	"github.com/resourcestack/utilization-insight/internal/models"
	"github.com/resourcestack/utilization-insight/internal/utils"
)

// ProviderClient wraps the upstream metrics-provider HTTP APIs. History
// responses are cached through the configured cache provider because they are
// immutable for a fixed (resource, start, end) window.
type ProviderClient struct {
	baseURL      string
	snapshotPath string
	historyPath  string
	httpClient   *http.Client

	cache      cache.Provider
	historyTTL time.Duration
}

// NewProviderClient constructs a client targeting the configured provider.
// A nil cacheProvider disables caching.
func NewProviderClient(baseURL, snapshotPath, historyPath string, timeout time.Duration, cacheProvider cache.Provider, historyTTL time.Duration) *ProviderClient {
	if cacheProvider == nil {
		cacheProvider = cache.NoopProvider{}
	}
	return &ProviderClient{
		baseURL:      strings.TrimRight(baseURL, "/"),
		snapshotPath: snapshotPath,
		historyPath:  historyPath,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		cache:      cacheProvider,
		historyTTL: historyTTL,
	}
}

// FetchSnapshot retrieves the current metric readings for a resource.
func (c *ProviderClient) FetchSnapshot(ctx context.Context, resourceID string, at time.Time) (models.MetricSnapshot, error) {
	if c == nil {
		return models.MetricSnapshot{}, fmt.Errorf("provider client not initialised")
	}
	if c.baseURL == "" {
		return models.MetricSnapshot{}, fmt.Errorf("provider base URL not configured")
	}

	payload := map[string]interface{}{
		"resource_id": resourceID,
		"at":          at.Format(time.RFC3339),
	}

	var response struct {
		Utilization       float64  `json:"utilization"`
		ChargedHours      float64  `json:"charged_hours"`
		CapacityHours     float64  `json:"capacity_hours"`
		TargetUtilization *float64 `json:"target_utilization"`
	}
	if err := c.postJSON(ctx, c.resolvePath(c.snapshotPath), payload, &response); err != nil {
		return models.MetricSnapshot{}, utils.NewAppError("provider.snapshot", "request failed", err)
	}

	return models.MetricSnapshot{
		Utilization:       response.Utilization,
		ChargedHours:      response.ChargedHours,
		CapacityHours:     response.CapacityHours,
		TargetUtilization: response.TargetUtilization,
	}, nil
}

// historyPayload is the provider history response and the cached form.
type historyPayload struct {
	Timestamps []time.Time          `json:"timestamps"`
	Metrics    map[string][]float64 `json:"metrics"`
}

// FetchHistory retrieves the aligned historical series for a resource between
// start and end. Every metric series must carry one value per timestamp;
// misaligned payloads are rejected.
func (c *ProviderClient) FetchHistory(ctx context.Context, resourceID string, start, end time.Time) (map[string][]float64, []time.Time, error) {
	if c == nil {
		return nil, nil, fmt.Errorf("provider client not initialised")
	}
	if c.baseURL == "" {
		return nil, nil, fmt.Errorf("provider base URL not configured")
	}

	key := historyCacheKey(resourceID, start, end)
	if cached, err := c.cache.Get(ctx, key); err == nil {
		var payload historyPayload
		if err := json.Unmarshal(cached, &payload); err == nil {
			return payload.Metrics, payload.Timestamps, nil
		}
		// Unreadable entry: drop it and fall through to the provider.
		_ = c.cache.Del(ctx, key)
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		return nil, nil, fmt.Errorf("history cache lookup failed: %w", err)
	}

	request := map[string]interface{}{
		"resource_id": resourceID,
		"start":       start.Format(time.RFC3339),
		"end":         end.Format(time.RFC3339),
	}
	var response historyPayload
	if err := c.postJSON(ctx, c.resolvePath(c.historyPath), request, &response); err != nil {
		return nil, nil, utils.NewAppError("provider.history", "request failed", err)
	}

	if err := validateHistory(response); err != nil {
		return nil, nil, err
	}

	if encoded, err := json.Marshal(response); err == nil {
		// Best effort: a failed cache write must not fail the fetch.
		_ = c.cache.Set(ctx, key, encoded, c.historyTTL)
	}
	return response.Metrics, response.Timestamps, nil
}

func historyCacheKey(resourceID string, start, end time.Time) string {
	return fmt.Sprintf("insight:history:%s:%d:%d", resourceID, start.Unix(), end.Unix())
}

func validateHistory(payload historyPayload) error {
	for i := 1; i < len(payload.Timestamps); i++ {
		if !payload.Timestamps[i].After(payload.Timestamps[i-1]) {
			return fmt.Errorf("provider history timestamps not in chronological order at index %d", i)
		}
	}
	for name, values := range payload.Metrics {
		if len(values) != len(payload.Timestamps) {
			return fmt.Errorf("provider history misaligned: %q has %d values for %d timestamps",
				name, len(values), len(payload.Timestamps))
		}
	}
	return nil
}

func (c *ProviderClient) resolvePath(p string) string {
	if c.baseURL == "" {
		return ""
	}
	cleaned := "/" + strings.TrimLeft(p, "/")
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return c.baseURL + cleaned
	}
	u.Path = path.Join(u.Path, cleaned)
	return u.String()
}

func (c *ProviderClient) postJSON(ctx context.Context, endpoint string, payload any, out any) error {
	if endpoint == "" {
		return fmt.Errorf("empty endpoint")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("provider returned %s", resp.Status)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
