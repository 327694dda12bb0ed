package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/guestbook/internal/apperror"
	"github.com/sakif/guestbook/internal/model"
	"github.com/sakif/guestbook/internal/repository"
)

// Feed rules.
const (
	MinMessageLength = 5
	MaxMessageLength = 140
	FeedLimit        = 20 // size of the "latest N" window served to clients
)

// FeedService owns posting and reading messages.
type FeedService struct {
	repo   repository.MessageRepository
	logger *slog.Logger
}

func NewFeedService(repo repository.MessageRepository, logger *slog.Logger) *FeedService {
	return &FeedService{
		repo:   repo,
		logger: logger,
	}
}

// PostMessage validates and stores a new message with zero likes.
//
// Length is counted in runes on the raw text. It is deliberately NOT trimmed:
// "    a" is five characters and is accepted, while "   " is rejected only
// because it is too short.
func (s *FeedService) PostMessage(ctx context.Context, text string) (*model.Message, error) {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return nil, apperror.ValidationFailed("message", "message is required")
	}
	if n < MinMessageLength || n > MaxMessageLength {
		return nil, apperror.ValidationFailed("message",
			fmt.Sprintf("message must be between %d and %d characters", MinMessageLength, MaxMessageLength))
	}

	message := &model.Message{Text: text}
	if err := s.repo.CreateMessage(ctx, message); err != nil {
		s.logger.Error("failed to create message", slog.String("error", err.Error()))
		return nil, fmt.Errorf("service/feed: posting message: %w", err)
	}

	s.logger.Info("message posted", slog.String("id", message.ID))

	return message, nil
}

// ListRecent returns up to limit messages, newest first.
//
// There is no cursor: this is a fixed "latest N" window. limit <= 0 means
// FeedLimit. The result is never nil, so it encodes as [] rather than null.
func (s *FeedService) ListRecent(ctx context.Context, limit int) ([]model.Message, error) {
	if limit <= 0 {
		limit = FeedLimit
	}

	messages, err := s.repo.ListRecentMessages(ctx, repository.ListOptions{Limit: limit})
	if err != nil {
		s.logger.Error("failed to list messages", slog.String("error", err.Error()))
		return nil, fmt.Errorf("service/feed: listing messages: %w", err)
	}
	if messages == nil {
		messages = []model.Message{}
	}

	return messages, nil
}

// Like adds one like to a message and returns it.
// Returns apperror.ErrNotFound if the message doesn't exist.
func (s *FeedService) Like(ctx context.Context, id string) (*model.Message, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "message ID is required")
	}

	message, err := s.repo.IncrementLikes(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("message liked", slog.String("id", id), slog.Int("likes", message.Likes))
	return message, nil
}
