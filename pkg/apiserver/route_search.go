package apiserver

import (
	"net/http"

	"github.com/google/uuid"
)

// handleSearch runs a semantic search over the user's messages
func (s *AIAPIServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := s.parseJSONRequest(r, &req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}
	if req.UserID == "" || req.Query == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_INPUT",
			"user_id and query are required")
		return
	}
	if req.Limit <= 0 {
		req.Limit = 10
	}

	results, err := s.orchestrator.SearchConversations(r.Context(), req.UserID, req.Query, req.Limit)
	if err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, "SEARCH_FAILED",
			"failed to search conversations")
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"results": results,
	})
}

// handleUsageStats returns per-user AI usage counters
func (s *AIAPIServer) handleUsageStats(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	if userID == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_INPUT", "user id is required")
		return
	}

	stats := s.orchestrator.UsageStats(r.Context(), userID)
	s.writeJSONResponse(w, http.StatusOK, stats)
}

// handleIngestMessage persists and indexes one message
func (s *AIAPIServer) handleIngestMessage(w http.ResponseWriter, r *http.Request) {
	var req IngestMessageRequest
	if err := s.parseJSONRequest(r, &req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}
	if req.Message.Content == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_INPUT", "message content is required")
		return
	}
	if req.Message.ID == "" {
		req.Message.ID = uuid.NewString()
	}

	if err := s.orchestrator.IngestMessage(r.Context(), req.Message); err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, "INGEST_FAILED",
			"failed to ingest message")
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"message_id": req.Message.ID,
	})
}

// handleBatchIngest persists and indexes a batch of messages
func (s *AIAPIServer) handleBatchIngest(w http.ResponseWriter, r *http.Request) {
	var req BatchIngestRequest
	if err := s.parseJSONRequest(r, &req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}
	if len(req.Messages) == 0 {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_INPUT", "messages array cannot be empty")
		return
	}
	for i := range req.Messages {
		if req.Messages[i].ID == "" {
			req.Messages[i].ID = uuid.NewString()
		}
	}

	if err := s.orchestrator.BatchIngestMessages(r.Context(), req.Messages); err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, "INGEST_FAILED",
			"failed to ingest message batch")
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"ingested": len(req.Messages),
	})
}
