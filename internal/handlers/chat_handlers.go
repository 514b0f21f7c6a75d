package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"camper-agent-service/internal/logger"
	"camper-agent-service/internal/models"
	"camper-agent-service/internal/services"
)

type ChatResponder interface {
	Chat(ctx context.Context, req models.ChatRequest) (models.ChatResponse, error)
}

type ChatHandlers struct {
	Chat   ChatResponder
	Logger *zap.Logger
}

type chatPayload struct {
	Message json.RawMessage `json:"message"`
	History json.RawMessage `json:"history"`
}

func badRequest(w http.ResponseWriter, details string) {
	writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid request", "details": details})
}

// decodeChatRequest insists on a string message and, when present, a history
// array of {role, content} string pairs.
func decodeChatRequest(r *http.Request) (models.ChatRequest, string) {
	var p chatPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		return models.ChatRequest{}, "Request body must be a JSON object"
	}
	var req models.ChatRequest
	if len(p.Message) == 0 || json.Unmarshal(p.Message, &req.Message) != nil || req.Message == "" {
		return models.ChatRequest{}, `Field "message" is required and must be a string`
	}
	if len(p.History) > 0 && string(p.History) != "null" {
		if err := json.Unmarshal(p.History, &req.History); err != nil {
			return models.ChatRequest{}, `Field "history" must be an array of {role, content} objects`
		}
	}
	return req, ""
}

func (h *ChatHandlers) HandleChat(w http.ResponseWriter, r *http.Request) {
	req, problem := decodeChatRequest(r)
	if problem != "" {
		badRequest(w, problem)
		return
	}

	resp, err := h.Chat.Chat(r.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			badRequest(w, err.Error())
			return
		}
		logger.OrNop(h.Logger).Error("chat failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "Internal server error", "details": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
