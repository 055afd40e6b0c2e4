package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/skydocs/skydocs/internal/chat"
	"github.com/skydocs/skydocs/internal/knowledge"
	"github.com/skydocs/skydocs/internal/llm"
	"github.com/skydocs/skydocs/internal/log"
)

// maxChatBodyBytes bounds the request body to keep oversized histories
// from exhausting memory.
const maxChatBodyBytes = 1 << 20

// ChatService answers a conversation. Satisfied by *chat.Service.
type ChatService interface {
	Reply(ctx context.Context, turns []chat.Turn, ov chat.Overrides) (*chat.Response, error)
}

type chatHandler struct {
	svc    ChatService
	logger log.Logger
}

// chatRequest is the wire form of a chat call. Tier travels as a string
// ("standard" or "advanced") rather than the internal enum.
type chatRequest struct {
	History   []chat.Turn  `json:"history"`
	Overrides apiOverrides `json:"overrides"`
}

type apiOverrides struct {
	Tier     string `json:"tier,omitempty"`
	Category string `json:"category,omitempty"`
}

// send handles POST /api/chat.
func (h *chatHandler) send(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxChatBodyBytes)

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body", h.logger)
		return
	}

	tier, err := llm.ParseTier(req.Overrides.Tier)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_tier", err.Error(), h.logger)
		return
	}

	resp, err := h.svc.Reply(r.Context(), req.History, chat.Overrides{
		Tier:     tier,
		Category: req.Overrides.Category,
	})
	if err != nil {
		h.writeChatError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp, h.logger)
}

// writeChatError maps pipeline errors to HTTP statuses.
func (h *chatHandler) writeChatError(w http.ResponseWriter, r *http.Request, err error) {
	id, _ := requestIDFromContext(r.Context())

	switch {
	case errors.Is(err, chat.ErrNoQuestion):
		writeError(w, http.StatusBadRequest, "no_question", "conversation has no pending question", h.logger)
	case errors.Is(err, knowledge.ErrNoResults):
		writeError(w, http.StatusUnprocessableEntity, "no_results", "no documents matched the question", h.logger)
	case errors.Is(err, llm.ErrModelCall):
		h.logger.Error("model call failed", "error", err, "request_id", id)
		writeError(w, http.StatusBadGateway, "model_error", "language model request failed", h.logger)
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to send.
		h.logger.Debug("chat request canceled", "request_id", id)
	default:
		h.logger.Error("chat request failed", "error", err, "request_id", id)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error", h.logger)
	}
}
