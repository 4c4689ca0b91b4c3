package core

import (
	"database/sql/driver"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/siahsang/conduit/internal/auth"
	"github.com/siahsang/conduit/internal/utils/databaseutils"
	"github.com/siahsang/conduit/models"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var userRowColumns = []string{"id", "email", "username", "password", "bio", "image", "created_at", "updated_at"}

var articleRowColumns = []string{"id", "author_id", "slug", "title", "description", "body", "created_at", "updated_at"}

var tagRowColumns = []string{"id", "name", "created_at", "updated_at"}

func newTestCore(t *testing.T) (*Core, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	credentials := auth.New("test-secret", time.Hour, bcrypt.MinCost)
	return NewCore(db, logger, databaseutils.NewSQLTemplate(db, time.Second), databaseutils.NewSession(db, logger), credentials), mock
}

func newTestUser(t *testing.T, c *Core, username, password string) *models.User {
	t.Helper()

	hash, err := c.auth.HashPassword(password)
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

func userRow(rows *sqlmock.Rows, u *models.User) *sqlmock.Rows {
	var bio, image driver.Value
	if u.Bio != nil {
		bio = *u.Bio
	}
	if u.Image != nil {
		image = *u.Image
	}
	return rows.AddRow(u.ID.String(), u.Email, u.Username, u.Password, bio, image, u.CreatedAt, u.UpdatedAt)
}

func userRows(users ...*models.User) *sqlmock.Rows {
	rows := sqlmock.NewRows(userRowColumns)
	for _, u := range users {
		userRow(rows, u)
	}
	return rows
}

// bcryptOf matches a hashed password argument for the given plaintext.
type bcryptOf string

func (p bcryptOf) Match(v driver.Value) bool {
	hash, ok := v.([]byte)
	if !ok || string(hash) == string(p) {
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(p)) == nil
}
