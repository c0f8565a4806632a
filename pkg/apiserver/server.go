// Package apiserver exposes the AI features to the messaging client over
// an HTTP JSON API.
package apiserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wirefu/messageai/pkg/chat"
	"github.com/wirefu/messageai/pkg/config"
	"github.com/wirefu/messageai/pkg/observability/logging"
)

// AIAPIServer serves the AI feature endpoints.
type AIAPIServer struct {
	orchestrator *chat.Orchestrator
	config       *config.AppConfig
}

// New creates the API server over the chat orchestrator.
func New(orchestrator *chat.Orchestrator, cfg *config.AppConfig) *AIAPIServer {
	return &AIAPIServer{
		orchestrator: orchestrator,
		config:       cfg,
	}
}

// Init builds the HTTP server and starts listening. Blocks until the
// server stops or a SIGINT/SIGTERM triggers a graceful shutdown.
func Init(orchestrator *chat.Orchestrator, cfg *config.AppConfig, port int) error {
	apiServer := New(orchestrator, cfg)

	mux := apiServer.setupRoutes()
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logging.Infof("AI API server listening on port %d", port)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logging.Infof("AI API server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// setupRoutes configures all API routes
func (s *AIAPIServer) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Health and metrics endpoints
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	// AI feature endpoints
	mux.HandleFunc("POST /api/v1/summarize", s.handleSummarize)
	mux.HandleFunc("POST /api/v1/clarity", s.handleClarity)
	mux.HandleFunc("POST /api/v1/action-items", s.handleActionItems)
	mux.HandleFunc("POST /api/v1/tone", s.handleTone)

	// Chat assistant endpoints
	mux.HandleFunc("POST /api/v1/chat", s.handleChat)
	mux.HandleFunc("POST /api/v1/chat/action", s.handleChatAction)
	mux.HandleFunc("POST /api/v1/chat/suggestions", s.handleChatSuggestions)
	mux.HandleFunc("GET /api/v1/chat/history/{sessionId}", s.handleChatHistory)

	// Search and usage endpoints
	mux.HandleFunc("POST /api/v1/search", s.handleSearch)
	mux.HandleFunc("GET /api/v1/usage/{userId}", s.handleUsageStats)

	// Message ingestion endpoints
	mux.HandleFunc("POST /api/v1/messages", s.handleIngestMessage)
	mux.HandleFunc("POST /api/v1/messages/batch", s.handleBatchIngest)

	return mux
}

// handleHealth handles health check requests
func (s *AIAPIServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *AIAPIServer) parseJSONRequest(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return fmt.Errorf("failed to read request body: %w", err)
	}
	defer r.Body.Close()

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	return nil
}

func (s *AIAPIServer) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Errorf("Failed to encode JSON response: %v", err)
	}
}

func (s *AIAPIServer) writeErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) {
	errorResponse := map[string]interface{}{
		"error": map[string]interface{}{
			"code":      errorCode,
			"message":   message,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	}

	s.writeJSONResponse(w, statusCode, errorResponse)
}
