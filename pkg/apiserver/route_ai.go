package apiserver

import (
	"net/http"
)

// handleSummarize handles conversation summarization requests
func (s *AIAPIServer) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var req SummarizeRequest
	if err := s.parseJSONRequest(r, &req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}
	if req.ConversationID == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_INPUT", "conversation_id is required")
		return
	}

	summary, err := s.orchestrator.Summarize(r.Context(), req.UserID, req.ConversationID, req.MessageCount)
	if err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, "SUMMARIZE_FAILED",
			"failed to summarize conversation")
		return
	}

	s.writeJSONResponse(w, http.StatusOK, summary)
}

// handleClarity handles message clarity checks
func (s *AIAPIServer) handleClarity(w http.ResponseWriter, r *http.Request) {
	var req ClarityRequest
	if err := s.parseJSONRequest(r, &req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}
	if req.Message == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_INPUT", "message is required")
		return
	}

	result, err := s.orchestrator.CheckClarity(r.Context(), req.UserID, req.Message, req.Context)
	if err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, "CLARITY_CHECK_FAILED",
			"failed to check message clarity")
		return
	}

	s.writeJSONResponse(w, http.StatusOK, result)
}

// handleActionItems handles action-item extraction requests
func (s *AIAPIServer) handleActionItems(w http.ResponseWriter, r *http.Request) {
	var req ActionItemsRequest
	if err := s.parseJSONRequest(r, &req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}
	if len(req.Messages) == 0 && req.ConversationID == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_INPUT",
			"either messages or conversation_id is required")
		return
	}

	items, err := s.orchestrator.ExtractActionItems(r.Context(), req.UserID, req.Messages, req.ConversationID)
	if err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, "EXTRACTION_FAILED",
			"failed to extract action items")
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"action_items": items,
	})
}

// handleTone handles tone-analysis requests
func (s *AIAPIServer) handleTone(w http.ResponseWriter, r *http.Request) {
	var req ToneRequest
	if err := s.parseJSONRequest(r, &req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}
	if req.Message == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_INPUT", "message is required")
		return
	}

	result, err := s.orchestrator.AnalyzeTone(r.Context(), req.UserID, req.Message)
	if err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, "TONE_ANALYSIS_FAILED",
			"failed to analyze message tone")
		return
	}

	s.writeJSONResponse(w, http.StatusOK, result)
}
