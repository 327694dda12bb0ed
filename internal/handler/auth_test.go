package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/guestbook/internal/apperror"
	"github.com/sakif/guestbook/internal/handler"
	"github.com/sakif/guestbook/internal/service"
)

// MockCredentials records what the handler passed and returns canned results.
type MockCredentials struct {
	CapturedName     string
	CapturedEmail    string
	CapturedPassword string

	ReturnCreds *service.Credentials
	ReturnErr   error
}

func (m *MockCredentials) Register(_ context.Context, name, email, password string) (*service.Credentials, error) {
	m.CapturedName, m.CapturedEmail, m.CapturedPassword = name, email, password
	return m.ReturnCreds, m.ReturnErr
}

func (m *MockCredentials) SignIn(_ context.Context, email, password string) (*service.Credentials, error) {
	m.CapturedEmail, m.CapturedPassword = email, password
	return m.ReturnCreds, m.ReturnErr
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) handler.ErrorResponse {
	t.Helper()
	var body handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	return body
}

func TestAuthHandler_HandleRegister(t *testing.T) {
	logger := testLogger()

	t.Run("valid registration", func(t *testing.T) {
		mock := &MockCredentials{ReturnCreds: &service.Credentials{UserID: "u1", AccessToken: "tok"}}
		h := handler.NewAuthHandler(mock, logger)

		req := httptest.NewRequest(http.MethodPost, "/",
			bytes.NewBufferString(`{"name":"alice","email":"a@x.io","password":"pw1"}`))
		rr := httptest.NewRecorder()

		h.HandleRegister(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
		assert.Equal(t, map[string]string{"id": "u1", "accessToken": "tok"}, body)

		assert.Equal(t, "alice", mock.CapturedName)
		assert.Equal(t, "a@x.io", mock.CapturedEmail)
		assert.Equal(t, "pw1", mock.CapturedPassword)
	})

	t.Run("invalid request body", func(t *testing.T) {
		mock := &MockCredentials{}
		h := handler.NewAuthHandler(mock, logger)

		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"name":`))
		rr := httptest.NewRecorder()

		h.HandleRegister(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "validation_error", decodeError(t, rr).Error)
		assert.Empty(t, mock.CapturedName, "service must not be called")
	})

	t.Run("validation error carries field", func(t *testing.T) {
		mock := &MockCredentials{ReturnErr: apperror.ValidationFailed("email", "email is required")}
		h := handler.NewAuthHandler(mock, logger)

		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"name":"alice"}`))
		rr := httptest.NewRecorder()

		h.HandleRegister(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		body := decodeError(t, rr)
		assert.Equal(t, "validation_error", body.Error)
		assert.Equal(t, "email", body.Field)
	})

	t.Run("duplicate is a 400 conflict", func(t *testing.T) {
		mock := &MockCredentials{ReturnErr: apperror.Conflict("user", "email")}
		h := handler.NewAuthHandler(mock, logger)

		req := httptest.NewRequest(http.MethodPost, "/",
			bytes.NewBufferString(`{"name":"bob","email":"a@x.io","password":"pw2"}`))
		rr := httptest.NewRecorder()

		h.HandleRegister(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		body := decodeError(t, rr)
		assert.Equal(t, "conflict", body.Error)
		assert.Equal(t, "email", body.Field)
	})

	t.Run("untyped error hides details", func(t *testing.T) {
		mock := &MockCredentials{ReturnErr: errors.New("sqlite: disk I/O error at /var/lib/db")}
		h := handler.NewAuthHandler(mock, logger)

		req := httptest.NewRequest(http.MethodPost, "/",
			bytes.NewBufferString(`{"name":"alice","email":"a@x.io","password":"pw1"}`))
		rr := httptest.NewRecorder()

		h.HandleRegister(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.NotContains(t, rr.Body.String(), "sqlite")
		assert.NotContains(t, rr.Body.String(), "/var/lib")
	})
}

func TestAuthHandler_HandleSignIn(t *testing.T) {
	logger := testLogger()

	t.Run("valid sign-in", func(t *testing.T) {
		mock := &MockCredentials{ReturnCreds: &service.Credentials{UserID: "u1", AccessToken: "tok"}}
		h := handler.NewAuthHandler(mock, logger)

		req := httptest.NewRequest(http.MethodPost, "/signIn",
			bytes.NewBufferString(`{"email":"a@x.io","password":"pw1"}`))
		rr := httptest.NewRecorder()

		h.HandleSignIn(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var body map[string]string
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
		assert.Equal(t, map[string]string{"userId": "u1", "accessToken": "tok"}, body)
	})

	t.Run("invalid credentials is 404", func(t *testing.T) {
		mock := &MockCredentials{ReturnErr: apperror.InvalidCredentials()}
		h := handler.NewAuthHandler(mock, logger)

		req := httptest.NewRequest(http.MethodPost, "/signIn",
			bytes.NewBufferString(`{"email":"a@x.io","password":"nope"}`))
		rr := httptest.NewRecorder()

		h.HandleSignIn(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "not_found", decodeError(t, rr).Error)
	})

	t.Run("invalid request body", func(t *testing.T) {
		h := handler.NewAuthHandler(&MockCredentials{}, logger)

		req := httptest.NewRequest(http.MethodPost, "/signIn", bytes.NewBufferString(`not json`))
		rr := httptest.NewRecorder()

		h.HandleSignIn(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
