// Package repository declares the storage contracts used by the service layer.
//
// Implementations live in sub-packages (sqlite, postgres). Every implementation
// must translate its driver's unique-constraint error into apperror.Conflict
// and "no rows" into apperror.NotFound, so services never see driver errors
// for those two cases.
package repository

import (
	"context"

	"github.com/sakif/guestbook/internal/model"
)

type ListOptions struct {
	Limit int
}

// UserRepository stores accounts. Name, email and access token are unique.
type UserRepository interface {
	// CreateUser inserts user and fills in ID and CreatedAt.
	// Returns apperror.ErrConflict when name, email or token is already taken.
	CreateUser(ctx context.Context, user *model.User) error
	// GetUserByEmail returns apperror.ErrNotFound when no user has that email.
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// GetUserByAccessToken returns apperror.ErrNotFound when no user holds token.
	GetUserByAccessToken(ctx context.Context, token string) (*model.User, error)
}

// MessageRepository stores feed messages.
type MessageRepository interface {
	// CreateMessage inserts message and fills in ID, Likes and CreatedAt.
	CreateMessage(ctx context.Context, message *model.Message) error
	// ListRecentMessages returns at most opts.Limit messages, newest first.
	ListRecentMessages(ctx context.Context, opts ListOptions) ([]model.Message, error)
	// IncrementLikes adds one like and returns the updated message.
	// Returns apperror.ErrNotFound when id does not exist.
	IncrementLikes(ctx context.Context, id string) (*model.Message, error)
}

// Store bundles the repositories of one backend and owns its connection.
type Store interface {
	Users() UserRepository
	Messages() MessageRepository
	Ping(ctx context.Context) error
	Close() error
}
