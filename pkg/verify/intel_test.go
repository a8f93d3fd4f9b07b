package verify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"sentinella/pkg/config"
)

func newTestIntelClient(t *testing.T, maxResults int, handler http.HandlerFunc) *IntelClient {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	t.Setenv("INTELX_API_KEY", "ik-test")

	cfg := &config.Config{}
	cfg.Intel.BaseURL = server.URL
	cfg.Intel.MaxResults = maxResults

	client, err := NewIntelClient(cfg, nil)
	if err != nil {
		t.Fatalf("NewIntelClient error: %v", err)
	}

	return client
}

func TestSearchSendsKeyHeaderAndCap(t *testing.T) {
	client := newTestIntelClient(t, 0, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-key"); got != "ik-test" {
			t.Errorf("x-key = %q", got)
		}

		body, _ := io.ReadAll(r.Body)
		var decoded intelSearchRequest
		if err := json.Unmarshal(body, &decoded); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if decoded.Term != "a@b.it" {
			t.Errorf("term = %q", decoded.Term)
		}
		if decoded.MaxResults != recordCap {
			t.Errorf("maxresults = %d, want %d", decoded.MaxResults, recordCap)
		}

		_, _ = w.Write([]byte(`{"records":[{"id":1},{"id":2}]}`))
	})

	records, err := client.Search(context.Background(), "a@b.it")
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
}

func TestSearchRejectsOversizedConfigCap(t *testing.T) {
	client := newTestIntelClient(t, 50, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"records":[]}`))
	})

	if client.maxResults != recordCap {
		t.Fatalf("maxResults = %d, want capped at %d", client.maxResults, recordCap)
	}
}

func TestSearchDailyLimit(t *testing.T) {
	client := newTestIntelClient(t, 5, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Search(context.Background(), "a@b.it")
	if !errors.Is(err, ErrDailyLimit) {
		t.Fatalf("error = %v, want ErrDailyLimit", err)
	}
}

func TestSearchOtherStatusMapsToStatusError(t *testing.T) {
	client := newTestIntelClient(t, 5, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "backend down", http.StatusBadGateway)
	})

	_, err := client.Search(context.Background(), "a@b.it")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error = %v, want StatusError", err)
	}
	if statusErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", statusErr.StatusCode)
	}
	if statusErr.Body != "backend down" {
		t.Fatalf("body = %q", statusErr.Body)
	}
}

func TestSearchTruncatesRecordsBeyondCap(t *testing.T) {
	client := newTestIntelClient(t, 2, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"records":[{"id":1},{"id":2},{"id":3}]}`))
	})

	records, err := client.Search(context.Background(), "a@b.it")
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
}
