package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/siahsang/conduit/internal/auth"
	"github.com/siahsang/conduit/internal/config"
	"github.com/siahsang/conduit/internal/core"
	"github.com/siahsang/conduit/internal/metrics"
	"github.com/siahsang/conduit/internal/utils/databaseutils"
	"github.com/siahsang/conduit/models"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var userColumns = []string{"id", "email", "username", "password", "bio", "image", "created_at", "updated_at"}

var articleWithAuthorColumns = []string{
	"id", "author_id", "slug", "title", "description", "body", "created_at", "updated_at",
	"id", "email", "username", "password", "bio", "image", "created_at", "updated_at",
}

var articleTagColumns = []string{"article_id", "id", "name", "created_at", "updated_at"}

func newTestApplication(t *testing.T) (*application, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	credentials := auth.New("test-secret", time.Hour, bcrypt.MinCost)
	registry := prometheus.NewRegistry()

	app := &application{
		config:   &config.Config{Env: config.EnvDevelopment},
		logger:   logger,
		auth:     credentials,
		metrics:  metrics.NewCollector(registry),
		gatherer: registry,
		core: core.NewCore(db, logger,
			databaseutils.NewSQLTemplate(db, time.Second),
			databaseutils.NewSession(db, logger),
			credentials),
	}
	return app, mock
}

func newTestUser(t *testing.T, app *application, username, password string) *models.User {
	t.Helper()

	hash, err := app.auth.HashPassword(password)
	require.NoError(t, err)

	now := time.Now()
	return &models.User{
		ID:        uuid.New(),
		Email:     username + "@conduit.test",
		Username:  username,
		Password:  hash,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func userRows(users ...*models.User) *sqlmock.Rows {
	rows := sqlmock.NewRows(userColumns)
	for _, u := range users {
		rows.AddRow(u.ID.String(), u.Email, u.Username, u.Password, nil, nil, u.CreatedAt, u.UpdatedAt)
	}
	return rows
}

func articleRows(author *models.User, articles ...*models.Article) *sqlmock.Rows {
	rows := sqlmock.NewRows(articleWithAuthorColumns)
	for _, a := range articles {
		rows.AddRow(
			a.ID.String(), author.ID.String(), a.Slug, a.Title, a.Description, a.Body, a.CreatedAt, a.UpdatedAt,
			author.ID.String(), author.Email, author.Username, author.Password, nil, nil, author.CreatedAt, author.UpdatedAt,
		)
	}
	return rows
}

// login issues a token for user and expects the lookup the authenticate middleware makes.
func login(t *testing.T, app *application, mock sqlmock.Sqlmock, user *models.User) string {
	t.Helper()

	token, err := app.auth.IssueToken(user.ID, time.Now())
	require.NoError(t, err)

	mock.ExpectQuery("WHERE id = ").WithArgs(user.ID.String()).WillReturnRows(userRows(user))
	return token
}

func doRequest(t *testing.T, app *application, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		js, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(js)
	}

	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}

	w := httptest.NewRecorder()
	app.routes().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst))
}

type errorBody struct {
	ErrorMessage string            `json:"errorMessage"`
	ErrorDetails map[string]string `json:"errorDetails"`
}

