package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/guestbook/internal/apperror"
	"github.com/sakif/guestbook/internal/model"
)

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue uses any as the key type. Using a package-private type
// means only THIS package can read or write the authenticated user.
type contextKey string

const userKey contextKey = "user"

// errMalformedHeader marks a request whose Authorization header cannot be
// interpreted as a single token.
var errMalformedHeader = errors.New("auth: more than one Authorization header")

// TokenVerifier looks up the owner of an access token.
//
// VerifyToken returns (user, nil) for a known token, (nil, nil) for a token
// nobody holds, and a non-nil error only when the lookup itself failed.
// service.CredentialService satisfies it.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*model.User, error)
}

// RequireAccessToken is the gate in front of protected routes.
//
// The Authorization header carries the raw access token, with no "Bearer "
// prefix. Every request ends in exactly one of three ways:
//
//	token belongs to a user  → user stored in context, next runs
//	token belongs to nobody  → 401 Unauthorized, next never runs
//	lookup could not be done → 403 Forbidden, next never runs
//
// Keeping 401 and 403 apart tells a client whether to sign in again or to
// retry later: "your token is not valid" versus "we could not check it".
// A missing header is treated as an empty token, which nobody holds.
func RequireAccessToken(verifier TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := verify(r, verifier)
			if err != nil {
				logger.Error("access token verification failed",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				writeGateError(w, apperror.VerificationFault("access token missing or wrong", err))
				return
			}
			if user == nil {
				logger.Debug("unknown access token", slog.String("path", r.URL.Path))
				writeGateError(w, apperror.Unauthorized("a valid access token is required"))
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext retrieves the user attached by RequireAccessToken.
//
// Returns (nil, false) outside a gated route.
//
//	user, ok := auth.UserFromContext(r.Context())
//	if !ok {
//	    // anonymous request
//	}
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok && user != nil
}

func verify(r *http.Request, verifier TokenVerifier) (*model.User, error) {
	values := r.Header.Values("Authorization")
	if len(values) > 1 {
		return nil, errMalformedHeader
	}

	var token string
	if len(values) == 1 {
		token = values[0]
	}

	return verifier.VerifyToken(r.Context(), token)
}

// writeGateError sends the same {"error","message"} shape the handler
// package uses, without importing it. Only Message reaches the client; the
// underlying cause of a fault stays in the log.
func writeGateError(w http.ResponseWriter, appErr *apperror.AppError) {
	status, kind := http.StatusUnauthorized, "unauthorized"
	if errors.Is(appErr, apperror.ErrVerification) {
		status, kind = http.StatusForbidden, "verification_failed"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   kind,
		"message": appErr.Message,
	})
}
