package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"sentinella/pkg/analyzer"
	"sentinella/pkg/config"
	"sentinella/pkg/verify"

	"github.com/stretchr/testify/require"
)

// scriptedProvider returns canned text per call and records every prompt.
type scriptedProvider struct {
	mu      sync.Mutex
	prompts []string
	text    string
}

func (p *scriptedProvider) Health(context.Context) error { return nil }

func (p *scriptedProvider) Complete(_ context.Context, system string, user string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = system
	p.prompts = append(p.prompts, user)
	return p.text, nil
}

// TestTwoStageFlowEndToEnd drives /email-reputation-llm through a real verify
// client pointed at a scripted upstream, checking the raw payload survives
// next to the model gloss.
func TestTwoStageFlowEndToEnd(t *testing.T) {
	upstreamPayload := `{"email":"a@b.it","format_valid":true,"smtp_valid":true,"catch_all":false,"disposable":false,"free_email":true,"domain_risk":"low","score":0.96,"provider":"b.it"}`
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/email/check", r.URL.Path)
		require.Equal(t, "a@b.it", r.URL.Query().Get("email"))
		_, _ = w.Write([]byte(upstreamPayload))
	}))
	defer upstream.Close()

	t.Setenv("VERIFY_API_KEY", "vk-test")

	cfg := &config.Config{}
	cfg.Verify.BaseURL = upstream.URL

	verifier, err := verify.NewClient(cfg, nil)
	require.NoError(t, err)

	providerStub := &scriptedProvider{text: "L'indirizzo è valido e il dominio non presenta rischi."}
	an := analyzer.New(providerStub, verifier, nil, nil)

	svc, err := NewService(cfg, an, providerStub, nil, nil)
	require.NoError(t, err)

	server := httptest.NewServer(svc.Handler())
	defer server.Close()

	response, err := http.Post(server.URL+"/email-reputation-llm", "application/json", bytes.NewReader([]byte(`{"email":"a@b.it"}`)))
	require.NoError(t, err)
	defer func() { _ = response.Body.Close() }()

	require.Equal(t, http.StatusOK, response.StatusCode)

	var decoded struct {
		Raw         json.RawMessage `json:"raw"`
		Spiegazione string          `json:"spiegazione"`
	}
	require.NoError(t, json.NewDecoder(response.Body).Decode(&decoded))

	require.JSONEq(t, upstreamPayload, string(decoded.Raw))
	require.Equal(t, providerStub.text, decoded.Spiegazione)

	require.Len(t, providerStub.prompts, 1)
	require.Contains(t, providerStub.prompts[0], `"a@b.it"`)
}

// TestFullReportEndToEnd drives /full-report through real verify clients.
func TestFullReportEndToEnd(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/email/check":
			_, _ = w.Write([]byte(`{"email":"a@b.it","format_valid":true,"smtp_valid":false,"catch_all":false,"disposable":true,"free_email":false,"domain_risk":"high","score":0.1,"provider":"b.it"}`))
		case "/spam/check":
			require.Equal(t, "Vinci subito", r.URL.Query().Get("subject"))
			_, _ = w.Write([]byte(`{"spam_score":9.8,"verdict":"spam"}`))
		default:
			t.Errorf("unexpected upstream path %s", r.URL.Path)
		}
	}))
	defer upstream.Close()

	t.Setenv("VERIFY_API_KEY", "vk-test")

	cfg := &config.Config{}
	cfg.Verify.BaseURL = upstream.URL

	verifier, err := verify.NewClient(cfg, nil)
	require.NoError(t, err)

	providerStub := &scriptedProvider{text: "Non fidarti di questo messaggio, elimina la mail."}
	an := analyzer.New(providerStub, verifier, nil, nil)

	svc, err := NewService(cfg, an, providerStub, nil, nil)
	require.NoError(t, err)

	server := httptest.NewServer(svc.Handler())
	defer server.Close()

	response, err := http.Post(server.URL+"/full-report", "application/json", bytes.NewReader([]byte(`{"email":"a@b.it","subject":"Vinci subito","body":"clicca qui"}`)))
	require.NoError(t, err)
	defer func() { _ = response.Body.Close() }()

	require.Equal(t, http.StatusOK, response.StatusCode)

	var decoded struct {
		Reputazione map[string]any  `json:"reputazione"`
		Spam        json.RawMessage `json:"spam"`
		Response    string          `json:"response"`
	}
	require.NoError(t, json.NewDecoder(response.Body).Decode(&decoded))

	require.Equal(t, true, decoded.Reputazione["usa_e_getta"])
	require.Equal(t, "high", decoded.Reputazione["rischio_dominio"])
	require.JSONEq(t, `{"spam_score":9.8,"verdict":"spam"}`, string(decoded.Spam))
	require.Equal(t, providerStub.text, decoded.Response)
}
