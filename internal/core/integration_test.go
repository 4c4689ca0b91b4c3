package core

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/siahsang/conduit/internal/auth"
	"github.com/siahsang/conduit/internal/database"
	"github.com/siahsang/conduit/internal/filter"
	"github.com/siahsang/conduit/internal/utils/databaseutils"
	"github.com/siahsang/conduit/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testDatabaseEnv = "CONDUIT_TEST_DATABASE_URL"

// newPostgresCore connects to the database named by CONDUIT_TEST_DATABASE_URL
// and migrates it. The test is skipped when the variable is unset.
func newPostgresCore(t *testing.T) (*Core, *sql.DB) {
	t.Helper()

	databaseURL := os.Getenv(testDatabaseEnv)
	if databaseURL == "" {
		t.Skipf("%s not set", testDatabaseEnv)
	}

	require.NoError(t, database.RunMigrations(databaseURL))

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	credentials := auth.New("integration-secret", time.Hour, bcrypt.MinCost)
	return NewCore(db, logger, databaseutils.NewSQLTemplate(db, 5*time.Second), databaseutils.NewSession(db, logger), credentials), db
}

func uniqueName(prefix string) string {
	return prefix + "_" + uuid.NewString()[:8]
}

func TestPostgres_UsersAndFollows(t *testing.T) {
	c, _ := newPostgresCore(t)
	ctx := context.Background()

	jakeName, celebName := uniqueName("jake"), uniqueName("celeb")
	jake, _, err := c.Signup(ctx, jakeName+"@conduit.test", jakeName, "jakejake")
	require.NoError(t, err)
	_, _, err = c.Signup(ctx, celebName+"@conduit.test", celebName, "celebceleb")
	require.NoError(t, err)

	_, _, err = c.Signup(ctx, jakeName+"@conduit.test", uniqueName("other"), "whatever")
	assert.ErrorIs(t, err, ErrDuplicateEmail)
	_, _, err = c.Signup(ctx, uniqueName("other")+"@conduit.test", jakeName, "whatever")
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	signedIn, _, err := c.Signin(ctx, jake.Email, "jakejake")
	require.NoError(t, err)
	assert.Equal(t, jake.ID, signedIn.ID)
	_, _, err = c.Signin(ctx, jake.Email, "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredential)

	for range 2 {
		profile, err := c.FollowUser(ctx, jake, celebName)
		require.NoError(t, err)
		assert.True(t, profile.Following)
	}

	profile, err := c.GetProfile(ctx, jake, celebName)
	require.NoError(t, err)
	assert.True(t, profile.Following)

	_, err = c.UnfollowUser(ctx, jake, celebName)
	require.NoError(t, err)
	_, err = c.UnfollowUser(ctx, jake, celebName)
	require.NoError(t, err)

	profile, err = c.GetProfile(ctx, jake, celebName)
	require.NoError(t, err)
	assert.False(t, profile.Following)
}

func TestPostgres_ArticleLifecycle(t *testing.T) {
	c, db := newPostgresCore(t)
	ctx := context.Background()

	name := uniqueName("author")
	author, _, err := c.Signup(ctx, name+"@conduit.test", name, "password")
	require.NoError(t, err)

	tag := uniqueName("tag")
	created, err := c.CreateArticle(ctx, author,
		models.NewArticle{Title: "Integration Test", Description: "d", Body: "b"},
		[]string{tag, "shared-tag"})
	require.NoError(t, err)
	assert.Equal(t, "integration-test", created.Slug)

	page, err := c.ListArticles(ctx, ArticleQuery{Filter: filter.DefaultFilter(), Tag: tag})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.ArticlesCount)
	require.Len(t, page.Articles, 1)
	assert.ElementsMatch(t, []string{tag, "shared-tag"}, page.Articles[0].TagNames())

	var total int64
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles").Scan(&total))
	all, err := c.ListArticles(ctx, ArticleQuery{Filter: filter.NewFilter(1, 0)})
	require.NoError(t, err)
	assert.Equal(t, total, all.ArticlesCount)

	intruderName := uniqueName("intruder")
	intruder, _, err := c.Signup(ctx, intruderName+"@conduit.test", intruderName, "password")
	require.NoError(t, err)
	assert.ErrorIs(t, c.DeleteArticle(ctx, intruder, created.ID), ErrNotArticleAuthor)

	require.NoError(t, c.DeleteArticle(ctx, author, created.ID))

	var associations int
	require.NoError(t, db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM article_tags WHERE article_id = $1", created.ID).Scan(&associations))
	assert.Zero(t, associations)

	_, err = c.GetArticle(ctx, created.ID)
	assert.ErrorIs(t, err, NoRecordFound)
}
