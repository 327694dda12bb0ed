package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/guestbook/internal/model"
	"github.com/sakif/guestbook/internal/service"
)

// Feed is the slice of service.FeedService the handler needs.
type Feed interface {
	PostMessage(ctx context.Context, text string) (*model.Message, error)
	ListRecent(ctx context.Context, limit int) ([]model.Message, error)
}

// MessageHandler serves the message feed.
//
// Reading sits behind auth.RequireAccessToken; posting is open to any client.
type MessageHandler struct {
	feed   Feed
	logger *slog.Logger
}

func NewMessageHandler(feed Feed, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{
		feed:   feed,
		logger: logger,
	}
}

type postMessageRequest struct {
	Message string `json:"message"`
}

// HandleList returns the latest messages, newest first.
//
// HTTP: GET /messages
// RESPONSE 200: [{"id":"...","message":"hello","like":0,"createdAt":"..."}, ...]
//
// An empty feed is [] and never null.
func (h *MessageHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	messages, err := h.feed.ListRecent(r.Context(), service.FeedLimit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messages)
}

// HandlePost stores a new message.
//
// HTTP: POST /messages
// REQUEST BODY: {"message": "hello world"}
// RESPONSE 201: the stored message
//
// Messages are anonymous: no author is recorded.
func (h *MessageHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	var req postMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.Warn("invalid message JSON")
		writeError(w, err)
		return
	}

	message, err := h.feed.PostMessage(r.Context(), req.Message)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, message)
}
