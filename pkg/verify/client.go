// Package verify holds the HTTP clients for the third-party verification
// services: phone validation, email reputation, spam detection, and
// intelligence record search. Payloads are decoded into explicit schema types;
// a shape change upstream surfaces as a SchemaError instead of a silent
// key-lookup miss.
package verify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sentinella/pkg/config"
)

// Client calls the phone/email/spam verification API. The key travels as the
// access_key query parameter; a missing key is not rejected locally, the
// upstream authentication error is surfaced instead.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient validates verification config and constructs the client.
func NewClient(cfg *config.Config, log *slog.Logger) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.Verify.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("verify.base_url is required")
	}

	if log == nil {
		log = slog.Default()
	}

	return &Client{
		baseURL:    baseURL,
		apiKey:     cfg.VerifyAPIKey(),
		httpClient: http.DefaultClient,
		log:        log.With("component", "verify.client"),
	}, nil
}

// CheckPhone validates a phone number and returns both the typed result and
// the untouched upstream payload.
func (c *Client) CheckPhone(ctx context.Context, number string) (PhoneValidation, json.RawMessage, error) {
	query := url.Values{}
	query.Set("number", number)

	raw, err := c.getJSON(ctx, "verify.phone", "/validate", query)
	if err != nil {
		return PhoneValidation{}, nil, err
	}

	var validation PhoneValidation
	if err := decodeSchema("verify.phone", raw, &validation, phoneRequiredKeys()); err != nil {
		return PhoneValidation{}, nil, err
	}

	return validation, raw, nil
}

// EmailReputation checks an email address and returns both the typed result
// and the untouched upstream payload.
func (c *Client) EmailReputation(ctx context.Context, email string) (EmailValidation, json.RawMessage, error) {
	query := url.Values{}
	query.Set("email", email)

	raw, err := c.getJSON(ctx, "verify.email", "/email/check", query)
	if err != nil {
		return EmailValidation{}, nil, err
	}

	var validation EmailValidation
	if err := decodeSchema("verify.email", raw, &validation, emailRequiredKeys()); err != nil {
		return EmailValidation{}, nil, err
	}

	return validation, raw, nil
}

// CheckSpam runs the spam detection service over a subject and/or body and
// returns the upstream payload as-is; no typed view is needed because the
// result is relayed verbatim.
func (c *Client) CheckSpam(ctx context.Context, subject string, body string) (json.RawMessage, error) {
	query := url.Values{}
	if subject != "" {
		query.Set("subject", subject)
	}
	if body != "" {
		query.Set("body", body)
	}

	return c.getJSON(ctx, "verify.spam", "/spam/check", query)
}

func (c *Client) getJSON(ctx context.Context, service string, path string, query url.Values) (json.RawMessage, error) {
	if c.apiKey != "" {
		query.Set("access_key", c.apiKey)
	}

	requestURL := c.baseURL + path + "?" + query.Encode()
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", service, err)
	}

	startedAt := time.Now()
	response, err := c.httpClient.Do(request)
	if err != nil {
		c.log.Error("Verification request failed", "service", service, "error", err)
		return nil, fmt.Errorf("%s: %w", service, err)
	}
	defer func() { _ = response.Body.Close() }()

	payload, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", service, err)
	}

	if response.StatusCode != http.StatusOK {
		c.log.Error("Verification request rejected", "service", service, "status", response.StatusCode)
		return nil, &StatusError{Service: service, StatusCode: response.StatusCode, Body: strings.TrimSpace(string(payload))}
	}

	c.log.Debug("Verification request completed", "service", service, "duration_ms", time.Since(startedAt).Milliseconds())

	return json.RawMessage(payload), nil
}

// decodeSchema unmarshals an upstream payload into its typed view, first
// checking that the required top-level keys are present so that an upstream
// shape change fails loudly.
func decodeSchema(service string, raw json.RawMessage, dst any, requiredKeys []string) error {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return &SchemaError{Service: service, Cause: err}
	}

	for _, key := range requiredKeys {
		if _, ok := keys[key]; !ok {
			return &SchemaError{Service: service, Cause: fmt.Errorf("missing key %q", key)}
		}
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return &SchemaError{Service: service, Cause: err}
	}

	return nil
}
