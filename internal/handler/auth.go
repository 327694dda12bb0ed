package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/guestbook/internal/service"
)

// Credentials is the slice of service.CredentialService the handler needs.
// Declared here, where it is consumed, so tests can pass a fake.
type Credentials interface {
	Register(ctx context.Context, name, email, password string) (*service.Credentials, error)
	SignIn(ctx context.Context, email, password string) (*service.Credentials, error)
}

// AuthHandler exposes registration and sign-in.
//
// HANDLER RESPONSIBILITIES:
//   - HandleRegister → POST /       create an account, return its token
//   - HandleSignIn   → POST /signIn exchange email+password for that token
type AuthHandler struct {
	credentials Credentials
	logger      *slog.Logger
}

func NewAuthHandler(credentials Credentials, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		credentials: credentials,
		logger:      logger,
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerResponse struct {
	ID          string `json:"id"`
	AccessToken string `json:"accessToken"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInResponse struct {
	UserID      string `json:"userId"`
	AccessToken string `json:"accessToken"`
}

// HandleRegister creates a new account.
//
// HTTP: POST /
// REQUEST BODY:  {"name": "alice", "email": "a@x.io", "password": "pw1"}
// RESPONSE 201:  {"id": "...", "accessToken": "..."}
//
// A name or email that is already taken is a 400 with error "conflict".
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.Warn("invalid register JSON")
		writeError(w, err)
		return
	}

	creds, err := h.credentials.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{
		ID:          creds.UserID,
		AccessToken: creds.AccessToken,
	})
}

// HandleSignIn returns the access token of an existing account.
//
// HTTP: POST /signIn
// REQUEST BODY:  {"email": "a@x.io", "password": "pw1"}
// RESPONSE 200:  {"userId": "...", "accessToken": "..."}
// RESPONSE 404:  unknown email or wrong password, indistinguishably
func (h *AuthHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.Warn("invalid sign-in JSON")
		writeError(w, err)
		return
	}

	creds, err := h.credentials.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, signInResponse{
		UserID:      creds.UserID,
		AccessToken: creds.AccessToken,
	})
}
