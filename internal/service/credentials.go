// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// Services take repository interfaces, never a concrete *sqlite.DB, so tests
// pass in-memory fakes and the binary can swap SQLite for Postgres in config.
// Services return apperror values and never know about HTTP status codes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/guestbook/internal/apperror"
	"github.com/sakif/guestbook/internal/auth"
	"github.com/sakif/guestbook/internal/model"
	"github.com/sakif/guestbook/internal/repository"
)

// TokenSource issues new access tokens. *auth.TokenGenerator satisfies it.
type TokenSource interface {
	Generate() (string, error)
}

// CredentialService owns accounts: registration, sign-in and token lookup.
//
// DEPENDENCIES (injected via NewCredentialService):
//   - users      repository.UserRepository → read/write user records
//   - passwords  *auth.PasswordService     → bcrypt hashing
//   - tokens     TokenSource               → random access tokens
//   - logger     *slog.Logger              → structured logging
type CredentialService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	tokens    TokenSource
	logger    *slog.Logger
}

// compile-time check that the gate can use this service directly
var _ auth.TokenVerifier = (*CredentialService)(nil)

func NewCredentialService(
	users repository.UserRepository,
	passwords *auth.PasswordService,
	tokens TokenSource,
	logger *slog.Logger,
) *CredentialService {
	return &CredentialService{
		users:     users,
		passwords: passwords,
		tokens:    tokens,
		logger:    logger,
	}
}

// Credentials is what a client needs after registering or signing in.
type Credentials struct {
	UserID      string
	AccessToken string
}

// Register creates an account and returns its id and access token.
//
// The token is generated here, once, and never changes afterwards.
//
// Uniqueness of name and email is NOT checked with a prior SELECT: the
// repository inserts and reports apperror.ErrConflict when a UNIQUE
// constraint fires, which also covers two registrations racing each other.
func (s *CredentialService) Register(ctx context.Context, name, email, password string) (*Credentials, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, apperror.ValidationFailed("password",
				fmt.Sprintf("password must be %d bytes or fewer", auth.MaxPasswordBytes))
		}
		return nil, fmt.Errorf("service/credentials: hashing password: %w", err)
	}

	token, err := s.tokens.Generate()
	if err != nil {
		return nil, fmt.Errorf("service/credentials: generating access token: %w", err)
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		AccessToken:  token,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			s.logger.Info("registration rejected: duplicate user", slog.String("error", err.Error()))
		} else {
			s.logger.Error("failed to create user", slog.String("error", err.Error()))
		}
		return nil, fmt.Errorf("service/credentials: registering user: %w", err)
	}

	s.logger.Info("user registered", slog.String("userID", user.ID))

	return &Credentials{UserID: user.ID, AccessToken: user.AccessToken}, nil
}

// SignIn checks an email/password pair and returns the user's existing token.
//
// An unknown email and a wrong password produce the very same
// apperror.InvalidCredentials, and both paths pay for one bcrypt comparison,
// so neither the response body nor its timing reveals whether the email is
// registered.
func (s *CredentialService) SignIn(ctx context.Context, email, password string) (*Credentials, error) {
	email = strings.TrimSpace(email)

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.passwords.VerifyDummy(password)
			return nil, apperror.InvalidCredentials()
		}
		return nil, fmt.Errorf("service/credentials: looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			return nil, apperror.InvalidCredentials()
		}
		// A stored hash bcrypt cannot parse is a data problem, not a bad guess.
		s.logger.Error("unusable password hash", slog.String("userID", user.ID))
		return nil, fmt.Errorf("service/credentials: verifying password: %w", err)
	}

	s.logger.Info("user signed in", slog.String("userID", user.ID))

	return &Credentials{UserID: user.ID, AccessToken: user.AccessToken}, nil
}

// VerifyToken returns the user holding token.
//
// A token nobody holds is not an error: the result is (nil, nil) and the
// caller decides what to do. An error means the lookup itself failed.
// Tokens never expire and are never revoked.
func (s *CredentialService) VerifyToken(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, nil
	}

	user, err := s.users.GetUserByAccessToken(ctx, token)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("service/credentials: verifying token: %w", err)
	}

	return user, nil
}
