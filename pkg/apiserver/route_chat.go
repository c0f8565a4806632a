package apiserver

import (
	"errors"
	"net/http"

	"github.com/wirefu/messageai/pkg/chat"
)

// handleChat handles one turn of the conversational assistant
func (s *AIAPIServer) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := s.parseJSONRequest(r, &req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}
	if req.UserID == "" || req.Message == "" || req.SessionID == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_INPUT",
			"user_id, message and session_id are required")
		return
	}

	resp, err := s.orchestrator.ProcessChatMessage(r.Context(), req.UserID, req.Message, req.SessionID, req.ConversationID)
	if err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, "CHAT_FAILED",
			"failed to process chat message")
		return
	}

	s.writeJSONResponse(w, http.StatusOK, resp)
}

// handleChatAction executes an AI action against a stored message
func (s *AIAPIServer) handleChatAction(w http.ResponseWriter, r *http.Request) {
	var req ChatActionRequest
	if err := s.parseJSONRequest(r, &req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}
	if req.ActionID == "" || req.MessageID == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_INPUT",
			"action_id and message_id are required")
		return
	}

	result, err := s.orchestrator.ExecuteAction(r.Context(), req.ActionID, req.MessageID, req.Parameters, req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrMessageNotFound):
			s.writeErrorResponse(w, http.StatusNotFound, "MESSAGE_NOT_FOUND", "message not found")
		case errors.Is(err, chat.ErrUnknownAction):
			s.writeErrorResponse(w, http.StatusBadRequest, "UNKNOWN_ACTION", "unknown action id")
		default:
			s.writeErrorResponse(w, http.StatusInternalServerError, "ACTION_FAILED",
				"failed to execute action")
		}
		return
	}

	s.writeJSONResponse(w, http.StatusOK, result)
}

// handleChatSuggestions returns proactive suggestions for a conversation
func (s *AIAPIServer) handleChatSuggestions(w http.ResponseWriter, r *http.Request) {
	var req ChatSuggestionsRequest
	if err := s.parseJSONRequest(r, &req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}
	if req.ConversationID == "" || req.UserID == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_INPUT",
			"conversation_id and user_id are required")
		return
	}

	suggestions := s.orchestrator.GetSuggestions(r.Context(), req.ConversationID, req.UserID)
	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"suggestions": suggestions,
	})
}

// handleChatHistory returns the persisted history for a chat session
func (s *AIAPIServer) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionId")
	if sessionID == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_INPUT", "session id is required")
		return
	}

	messages := s.orchestrator.GetHistory(r.Context(), sessionID)
	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"session_id": sessionID,
		"messages":   messages,
	})
}
