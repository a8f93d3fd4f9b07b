// Package gateway exposes the analysis flows over HTTP as JSON endpoints.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"sentinella/pkg/analyzer"
	"sentinella/pkg/bus"
	"sentinella/pkg/channel"
	"sentinella/pkg/config"
	"sentinella/pkg/provider"
)

const (
	defaultHost = "0.0.0.0"
	defaultPort = 5001

	providerHealthInterval = 30 * time.Second
)

// Service serves the JSON analysis API and optionally runs channel adapters
// that feed the same analyzer.
type Service struct {
	cfg      *config.Config
	log      *slog.Logger
	analyzer *analyzer.Analyzer
	provider provider.Client
	channels []channel.Adapter

	mu               sync.RWMutex
	startedAt        time.Time
	providerLastOKAt time.Time
	providerLastErr  string
}

type statusResponse struct {
	Status           string `json:"status"`
	UptimeSeconds    int64  `json:"uptime_seconds"`
	Routes           string `json:"routes"`
	ProviderLastOKAt string `json:"provider_last_ok_at,omitempty"`
	ProviderLastErr  string `json:"provider_last_error,omitempty"`
}

// NewService wires the analyzer and provider into a servable gateway.
func NewService(cfg *config.Config, an *analyzer.Analyzer, providerClient provider.Client, adapters []channel.Adapter, log *slog.Logger) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if an == nil {
		return nil, errors.New("analyzer is required")
	}
	if providerClient == nil {
		return nil, errors.New("provider is required")
	}
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		cfg:      cfg,
		log:      log.With("component", "gateway.service"),
		analyzer: an,
		provider: providerClient,
		channels: adapters,
	}, nil
}

// Run serves HTTP until the context is canceled, keeping the provider health
// state fresh and running any configured channel adapters alongside.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	s.startedAt = time.Now().UTC()
	s.mu.Unlock()

	if err := s.checkProviderHealth(ctx); err != nil {
		return err
	}

	host := strings.TrimSpace(s.cfg.Gateway.Host)
	if host == "" {
		host = defaultHost
	}
	port := s.cfg.Gateway.Port
	if port <= 0 {
		port = defaultPort
	}

	server := &http.Server{
		Addr:              host + ":" + strconv.Itoa(port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		ticker := time.NewTicker(providerHealthInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_ = s.checkProviderHealth(ctx)
			}
		}
	}()

	errCh := make(chan error, 1+len(s.channels))
	for _, adapter := range s.channels {
		adapter := adapter
		go func() {
			err := adapter.Run(ctx, s.handleInbound)
			if err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("run %s channel: %w", adapter.Name(), err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.log.Info("Gateway started", "address", server.Addr, "routes", s.cfg.RouteSet())
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("serve gateway: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Handler builds the route table for the configured route set, wrapped with
// the permissive CORS middleware.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleLanding)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("POST /check-email", s.handleCheckEmail)
	mux.HandleFunc("POST /check-password", s.handleCheckPassword)
	mux.HandleFunc("POST /analyze-threat", s.handleAnalyzeThreat)

	if s.cfg.RouteSet() == config.RouteSetFull {
		mux.HandleFunc("POST /check-spam", s.handleCheckSpam)
		mux.HandleFunc("POST /check-phone-llm", s.handleCheckPhone)
		mux.HandleFunc("POST /email-reputation-llm", s.handleEmailReputation)
		mux.HandleFunc("POST /full-report", s.handleFullReport)
		mux.HandleFunc("POST /intelx-search", s.handleIntelSearch)
	}

	return corsMiddleware(mux)
}

// handleInbound feeds channel messages through the same phishing analysis as
// the /chat route.
func (s *Service) handleInbound(ctx context.Context, inbound bus.InboundMessage) (bus.OutboundMessage, error) {
	reply, err := s.analyzer.Chat(ctx, inbound.Content)
	if err != nil {
		return bus.OutboundMessage{
			Channel: inbound.Channel,
			ChatID:  inbound.ChatID,
			Error:   err.Error(),
		}, err
	}

	return bus.OutboundMessage{
		Channel: inbound.Channel,
		ChatID:  inbound.ChatID,
		Content: reply,
	}, nil
}

// corsMiddleware permits cross-origin calls from any origin on every route and
// short-circuits preflight requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeStatus(w, http.StatusOK, "ok")
}

func (s *Service) handleReady(w http.ResponseWriter, _ *http.Request) {
	statusCode := http.StatusOK
	status := "ready"
	if !s.isReady() {
		statusCode = http.StatusServiceUnavailable
		status = "not_ready"
	}

	s.writeStatus(w, statusCode, status)
}

func (s *Service) writeStatus(w http.ResponseWriter, statusCode int, status string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uptime := int64(0)
	if !s.startedAt.IsZero() {
		uptime = int64(time.Since(s.startedAt).Seconds())
	}

	providerLastOK := ""
	if !s.providerLastOKAt.IsZero() {
		providerLastOK = s.providerLastOKAt.Format(time.RFC3339)
	}

	payload := statusResponse{
		Status:           status,
		UptimeSeconds:    uptime,
		Routes:           s.cfg.RouteSet(),
		ProviderLastOKAt: providerLastOK,
		ProviderLastErr:  s.providerLastErr,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("Failed to write status response", "error", err)
	}
}

func (s *Service) isReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return !s.providerLastOKAt.IsZero() && s.providerLastErr == ""
}

func (s *Service) checkProviderHealth(ctx context.Context) error {
	if err := s.provider.Health(ctx); err != nil {
		s.mu.Lock()
		s.providerLastErr = err.Error()
		s.mu.Unlock()
		return fmt.Errorf("provider health check failed: %w", err)
	}

	s.mu.Lock()
	s.providerLastErr = ""
	s.providerLastOKAt = time.Now().UTC()
	s.mu.Unlock()

	return nil
}
