package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sakif/guestbook/internal/apperror"
	"github.com/sakif/guestbook/internal/model"
	"github.com/sakif/guestbook/internal/repository"
)

func newDBWithMock(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return wrap(conn), mock
}

func expectationsMet(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet sql expectations: %v", err)
	}
}

const insertUserQuery = `(?s)^INSERT\s+INTO\s+users\s*\(id,\s*name,\s*email,\s*password_hash,\s*access_token,\s*created_at\)`

func TestCreateUser_Success(t *testing.T) {
	db, mock := newDBWithMock(t)

	mock.ExpectExec(insertUserQuery).
		WithArgs(sqlmock.AnyArg(), "alice", "a@x.com", "hash", "tok", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	u := &model.User{Name: "alice", Email: "a@x.com", PasswordHash: "hash", AccessToken: "tok"}
	if err := db.Users().CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser error: %v", err)
	}
	if u.ID == "" || u.CreatedAt.IsZero() {
		t.Fatalf("CreateUser did not fill ID/CreatedAt: %+v", u)
	}
	expectationsMet(t, mock)
}

func TestCreateUser_UniqueViolation(t *testing.T) {
	tests := []struct {
		constraint string
		wantField  string
	}{
		{"users_email_key", "email"},
		{"users_name_key", "name"},
		{"users_access_token_key", "access_token"},
		{"", "name or email"},
	}

	for _, tt := range tests {
		t.Run(tt.wantField, func(t *testing.T) {
			db, mock := newDBWithMock(t)

			mock.ExpectExec(insertUserQuery).
				WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: tt.constraint})

			err := db.Users().CreateUser(context.Background(), &model.User{Name: "alice", Email: "a@x.com"})
			if !errors.Is(err, apperror.ErrConflict) {
				t.Fatalf("want ErrConflict, got %v", err)
			}
			var appErr *apperror.AppError
			if !errors.As(err, &appErr) || appErr.Field != tt.wantField {
				t.Errorf("conflict field = %+v, want %q", appErr, tt.wantField)
			}
		})
	}
}

func TestCreateUser_DBError(t *testing.T) {
	db, mock := newDBWithMock(t)

	mock.ExpectExec(insertUserQuery).WillReturnError(errors.New("db down"))

	err := db.Users().CreateUser(context.Background(), &model.User{Name: "alice", Email: "a@x.com"})
	if err == nil || errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("want plain wrapped error, got %v", err)
	}
	if !regexp.MustCompile(`postgres: inserting user .*db down`).MatchString(err.Error()) {
		t.Errorf("unexpected error text: %v", err)
	}
}

func TestGetUserByAccessToken_Found(t *testing.T) {
	db, mock := newDBWithMock(t)
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "access_token", "created_at"}).
		AddRow("u-1", "alice", "a@x.com", "hash", "tok", created)
	mock.ExpectQuery(`(?s)^SELECT .* FROM users WHERE access_token = \$1$`).
		WithArgs("tok").
		WillReturnRows(rows)

	got, err := db.Users().GetUserByAccessToken(context.Background(), "tok")
	if err != nil {
		t.Fatalf("GetUserByAccessToken error: %v", err)
	}
	if got.ID != "u-1" || got.Name != "alice" || !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected user: %+v", got)
	}
	expectationsMet(t, mock)
}

func TestGetUserByEmail_NotFound(t *testing.T) {
	db, mock := newDBWithMock(t)

	mock.ExpectQuery(`(?s)^SELECT .* FROM users WHERE email = \$1$`).
		WithArgs("ghost@x.com").
		WillReturnError(sql.ErrNoRows)

	_, err := db.Users().GetUserByEmail(context.Background(), "ghost@x.com")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestGetUserByEmail_DBError(t *testing.T) {
	db, mock := newDBWithMock(t)

	mock.ExpectQuery(`(?s)^SELECT .* FROM users WHERE email = \$1$`).
		WillReturnError(errors.New("conn reset"))

	_, err := db.Users().GetUserByEmail(context.Background(), "a@x.com")
	if err == nil || errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("want wrapped store error, got %v", err)
	}
}

func TestCreateMessage(t *testing.T) {
	db, mock := newDBWithMock(t)

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+messages`).
		WithArgs(sqlmock.AnyArg(), "hello there", 0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	msg := &model.Message{Text: "hello there", Likes: 9}
	if err := db.Messages().CreateMessage(context.Background(), msg); err != nil {
		t.Fatalf("CreateMessage error: %v", err)
	}
	if msg.Likes != 0 || msg.ID == "" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	expectationsMet(t, mock)
}

func TestListRecentMessages_OrderAndLimit(t *testing.T) {
	db, mock := newDBWithMock(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{"id", "message", "likes", "created_at"}).
		AddRow("c", "message C", 0, now).
		AddRow("b", "message B", 2, now.Add(-time.Second))
	mock.ExpectQuery(`(?s)ORDER BY created_at DESC, id DESC\s+LIMIT \$1`).
		WithArgs(20).
		WillReturnRows(rows)

	got, err := db.Messages().ListRecentMessages(context.Background(), repository.ListOptions{})
	if err != nil {
		t.Fatalf("ListRecentMessages error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "c" || got[1].Likes != 2 {
		t.Fatalf("unexpected messages: %+v", got)
	}
	expectationsMet(t, mock)
}

func TestListRecentMessages_ClampsLimit(t *testing.T) {
	db, mock := newDBWithMock(t)

	mock.ExpectQuery(`LIMIT \$1`).
		WithArgs(maxListLimit).
		WillReturnRows(sqlmock.NewRows([]string{"id", "message", "likes", "created_at"}))

	got, err := db.Messages().ListRecentMessages(context.Background(), repository.ListOptions{Limit: 5000})
	if err != nil {
		t.Fatalf("ListRecentMessages error: %v", err)
	}
	if got == nil {
		t.Error("want empty slice, got nil")
	}
	expectationsMet(t, mock)
}

func TestIncrementLikes(t *testing.T) {
	db, mock := newDBWithMock(t)

	rows := sqlmock.NewRows([]string{"id", "message", "likes", "created_at"}).
		AddRow("m-1", "hello there", 4, time.Now().UTC())
	mock.ExpectQuery(`(?s)^UPDATE messages SET likes = likes \+ 1\s+WHERE id = \$1\s+RETURNING`).
		WithArgs("m-1").
		WillReturnRows(rows)

	got, err := db.Messages().IncrementLikes(context.Background(), "m-1")
	if err != nil {
		t.Fatalf("IncrementLikes error: %v", err)
	}
	if got.Likes != 4 {
		t.Errorf("Likes = %d, want 4", got.Likes)
	}
	expectationsMet(t, mock)
}

func TestIncrementLikes_NotFound(t *testing.T) {
	db, mock := newDBWithMock(t)

	mock.ExpectQuery(`UPDATE messages`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := db.Messages().IncrementLikes(context.Background(), "ghost")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
