package core

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/conduit/internal/utils/collectionutils"
	"github.com/siahsang/conduit/internal/utils/databaseutils"
	"github.com/siahsang/conduit/internal/utils/functional"
	"github.com/siahsang/conduit/internal/utils/stringutils"
	"github.com/siahsang/conduit/models"
)

func scanTag(rows *sql.Rows) (*models.Tag, error) {
	var tag = &models.Tag{}
	if err := rows.Scan(&tag.ID, &tag.Name, &tag.CreatedAt, &tag.UpdatedAt); err != nil {
		return nil, xerrors.New(err)
	}
	return tag, nil
}

// UpsertTags makes sure a row exists for every name and returns the tags in the
// order the names were given, without duplicates.
func (c *Core) UpsertTags(ctx context.Context, names []string) ([]*models.Tag, error) {
	names = functional.Filter(functional.Map(names, strings.TrimSpace), func(name string) bool { return name != "" })
	names = functional.Distinct(names, func(name string) string { return name })
	if len(names) == 0 {
		return []*models.Tag{}, nil
	}

	// The statement looks like: INSERT INTO tags (name) VALUES ($1), ($2), ...
	valueString := make([]string, 0, len(names))
	valueArgs := make([]any, 0, len(names))
	for i, name := range names {
		valueString = append(valueString, fmt.Sprintf("($%d)", i+1))
		valueArgs = append(valueArgs, name)
	}

	insertSQL := fmt.Sprintf(`
		INSERT INTO tags (name)
		VALUES %s
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, created_at, updated_at
	`, strings.Join(valueString, ", "))

	returnedTags, err := databaseutils.ExecuteQuery(c.sqlTemplate, ctx, insertSQL, scanTag, valueArgs...)
	if err != nil {
		return nil, translateError(err)
	}

	// RETURNING order is not guaranteed to follow VALUES order.
	tagByName := collectionutils.Associate(returnedTags, func(tag *models.Tag) (string, *models.Tag) {
		return tag.Name, tag
	})

	resultTags := make([]*models.Tag, 0, len(names))
	for _, name := range names {
		tag, exists := tagByName[name]
		if !exists {
			return nil, xerrors.Newf("tag %s not found in database", name)
		}
		resultTags = append(resultTags, tag)
	}

	return resultTags, nil
}

func (c *Core) AttachTags(ctx context.Context, articleID uuid.UUID, tags []*models.Tag) error {
	if len(tags) == 0 {
		return nil
	}

	tagIDs := functional.Map(tags, func(tag *models.Tag) uuid.UUID { return tag.ID })
	placeholders, args := stringutils.INCluse(tagIDs, 2)
	values := functional.Map(placeholders, func(p string) string { return fmt.Sprintf("($1, %s)", p) })

	insertSQL := fmt.Sprintf(`
		INSERT INTO article_tags (article_id, tag_id)
		VALUES %s
		ON CONFLICT DO NOTHING
	`, strings.Join(values, ", "))

	if _, err := databaseutils.Execute(c.sqlTemplate, ctx, insertSQL, append([]any{articleID}, args...)...); err != nil {
		return translateError(err)
	}

	return nil
}

// GetTagsByArticleIdList loads the tags of every article in one query, grouped
// by article id. Articles without tags are absent from the map.
func (c *Core) GetTagsByArticleIdList(ctx context.Context, articleIdList []uuid.UUID) (map[uuid.UUID][]*models.Tag, error) {
	if len(articleIdList) == 0 {
		return map[uuid.UUID][]*models.Tag{}, nil
	}

	placeholders, args := stringutils.JoinINCluse(articleIdList, 1)
	query := fmt.Sprintf(`
		SELECT art.article_id, t.id, t.name, t.created_at, t.updated_at
		FROM article_tags art
		JOIN tags t ON t.id = art.tag_id
		WHERE art.article_id IN (%s)
		ORDER BY t.name
	`, placeholders)

	articleTags, err := databaseutils.ExecuteQuery(c.sqlTemplate, ctx, query, func(rows *sql.Rows) (models.ArticleTag, error) {
		articleTag := models.ArticleTag{Tag: &models.Tag{}}
		if err := rows.Scan(
			&articleTag.ArticleID,
			&articleTag.Tag.ID,
			&articleTag.Tag.Name,
			&articleTag.Tag.CreatedAt,
			&articleTag.Tag.UpdatedAt,
		); err != nil {
			return articleTag, xerrors.New(err)
		}
		return articleTag, nil
	}, args...)
	if err != nil {
		return nil, translateError(err)
	}

	grouped := collectionutils.GroupBy(articleTags, func(at models.ArticleTag) uuid.UUID { return at.ArticleID })

	return collectionutils.MapValues(grouped, func(rows []models.ArticleTag) []*models.Tag {
		return functional.Map(rows, func(at models.ArticleTag) *models.Tag { return at.Tag })
	}), nil
}

func (c *Core) ListTags(ctx context.Context) ([]string, error) {
	const query = `
		SELECT name
		FROM tags
		ORDER BY name
	`

	names, err := databaseutils.ExecuteQuery(c.sqlTemplate, ctx, query, func(rows *sql.Rows) (string, error) {
		var name string
		if err := rows.Scan(&name); err != nil {
			return "", xerrors.New(err)
		}
		return name, nil
	})
	if err != nil {
		return nil, translateError(err)
	}

	return names, nil
}
