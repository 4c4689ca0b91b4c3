package database

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsAreEmbeddedInPairs(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("unexpected file in migrations: %s", name)
		}
	}

	assert.Equal(t, ups, downs)
}

func TestArticleTagsCascadeOnArticleDelete(t *testing.T) {
	content, err := fs.ReadFile(migrationsFS, "migrations/000004_create_tags.up.sql")
	require.NoError(t, err)

	assert.Contains(t, string(content), "REFERENCES articles (id) ON DELETE CASCADE")
}

func TestRunMigrations_InvalidURL(t *testing.T) {
	err := RunMigrations("not-a-url")
	assert.Error(t, err)
}
