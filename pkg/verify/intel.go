package verify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"sentinella/pkg/config"
)

// recordCap bounds how many intelligence records a single search may request.
const recordCap = 5

const intelRequestTimeout = 10 * time.Second

// IntelClient calls the intelligence record-search service. The key travels in
// the x-key header.
type IntelClient struct {
	baseURL    string
	apiKey     string
	maxResults int
	httpClient *http.Client
	log        *slog.Logger
}

type intelSearchRequest struct {
	Term       string `json:"term"`
	MaxResults int    `json:"maxresults"`
}

type intelSearchResponse struct {
	Records []json.RawMessage `json:"records"`
}

// NewIntelClient validates record-search config and constructs the client.
func NewIntelClient(cfg *config.Config, log *slog.Logger) (*IntelClient, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.Intel.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("intel.base_url is required")
	}

	maxResults := cfg.Intel.MaxResults
	if maxResults <= 0 || maxResults > recordCap {
		maxResults = recordCap
	}

	if log == nil {
		log = slog.Default()
	}

	return &IntelClient{
		baseURL:    baseURL,
		apiKey:     cfg.IntelAPIKey(),
		maxResults: maxResults,
		httpClient: &http.Client{Timeout: intelRequestTimeout},
		log:        log.With("component", "verify.intel"),
	}, nil
}

// Search looks up intelligence records for an email address.
//
// A 429 from the upstream maps to ErrDailyLimit; any other non-200 status maps
// to a StatusError carrying the upstream code and body.
func (c *IntelClient) Search(ctx context.Context, email string) ([]json.RawMessage, error) {
	body, err := json.Marshal(intelSearchRequest{Term: email, MaxResults: c.maxResults})
	if err != nil {
		return nil, fmt.Errorf("verify.intel: encode request: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("verify.intel: build request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("x-key", c.apiKey)

	startedAt := time.Now()
	response, err := c.httpClient.Do(request)
	if err != nil {
		c.log.Error("Record search failed", "error", err)
		return nil, fmt.Errorf("verify.intel: %w", err)
	}
	defer func() { _ = response.Body.Close() }()

	payload, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("verify.intel: read response: %w", err)
	}

	switch response.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		c.log.Warn("Record search rate limited")
		return nil, ErrDailyLimit
	default:
		c.log.Error("Record search rejected", "status", response.StatusCode)
		return nil, &StatusError{Service: "verify.intel", StatusCode: response.StatusCode, Body: strings.TrimSpace(string(payload))}
	}

	var decoded intelSearchResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, &SchemaError{Service: "verify.intel", Cause: err}
	}

	records := decoded.Records
	if len(records) > c.maxResults {
		records = records[:c.maxResults]
	}

	c.log.Debug("Record search completed", "records", len(records), "duration_ms", time.Since(startedAt).Milliseconds())

	return records, nil
}
