package core

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/conduit/internal/filter"
	"github.com/siahsang/conduit/internal/utils/databaseutils"
	"github.com/siahsang/conduit/internal/utils/functional"
	"github.com/siahsang/conduit/models"
)

const (
	articleColumns = `id, author_id, slug, title, description, body, created_at, updated_at`

	articleWithAuthorColumns = `
		a.id, a.author_id, a.slug, a.title, a.description, a.body, a.created_at, a.updated_at,
		u.id, u.email, u.username, u.password, u.bio, u.image, u.created_at, u.updated_at`
)

// ArticleQuery selects a page of articles. Empty Tag and Author, and a nil FeedOf,
// mean no filtering on that attribute.
type ArticleQuery struct {
	Filter filter.Filter
	Tag    string
	Author string
	// FeedOf restricts the page to authors followed by this user.
	FeedOf *uuid.UUID
}

func (q ArticleQuery) where() (string, []any) {
	var (
		conditions []string
		args       []any
	)

	if q.Tag != "" {
		args = append(args, q.Tag)
		conditions = append(conditions, fmt.Sprintf(`EXISTS (
			SELECT 1 FROM article_tags art JOIN tags t ON t.id = art.tag_id
			WHERE art.article_id = a.id AND t.name = $%d)`, len(args)))
	}
	if q.Author != "" {
		args = append(args, q.Author)
		conditions = append(conditions, fmt.Sprintf("u.username = $%d", len(args)))
	}
	if q.FeedOf != nil {
		args = append(args, *q.FeedOf)
		conditions = append(conditions, fmt.Sprintf(
			"a.author_id IN (SELECT followee_id FROM follows WHERE follower_id = $%d)", len(args)))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

func scanArticle(rows *sql.Rows) (*models.Article, error) {
	var article = &models.Article{}
	if err := rows.Scan(
		&article.ID,
		&article.AuthorID,
		&article.Slug,
		&article.Title,
		&article.Description,
		&article.Body,
		&article.CreatedAt,
		&article.UpdatedAt,
	); err != nil {
		return nil, xerrors.New(err)
	}
	return article, nil
}

func scanArticleWithAuthor(rows *sql.Rows) (*models.Article, error) {
	var (
		article = &models.Article{}
		author  = &models.User{}
	)
	if err := rows.Scan(
		&article.ID,
		&article.AuthorID,
		&article.Slug,
		&article.Title,
		&article.Description,
		&article.Body,
		&article.CreatedAt,
		&article.UpdatedAt,
		&author.ID,
		&author.Email,
		&author.Username,
		&author.Password,
		&author.Bio,
		&author.Image,
		&author.CreatedAt,
		&author.UpdatedAt,
	); err != nil {
		return nil, xerrors.New(err)
	}
	article.Author = author
	return article, nil
}

// ListArticles returns one page of articles with their authors and tags, newest
// first. ArticlesCount counts every article matching the query, not just the page.
func (c *Core) ListArticles(ctx context.Context, q ArticleQuery) (*models.ArticlePage, error) {
	where, args := q.where()

	countSQL := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM articles a
		JOIN users u ON u.id = a.author_id
		%s
	`, where)

	count, err := databaseutils.ExecuteSingleQuery(c.sqlTemplate, ctx, countSQL, func(rows *sql.Rows) (int64, error) {
		var count int64
		if err := rows.Scan(&count); err != nil {
			return 0, xerrors.New(err)
		}
		return count, nil
	}, args...)
	if err != nil {
		return nil, translateError(err)
	}

	selectSQL := fmt.Sprintf(`
		SELECT %s
		FROM articles a
		JOIN users u ON u.id = a.author_id
		%s
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT $%d OFFSET $%d
	`, articleWithAuthorColumns, where, len(args)+1, len(args)+2)

	articles, err := databaseutils.ExecuteQuery(c.sqlTemplate, ctx, selectSQL, scanArticleWithAuthor,
		append(args, q.Filter.Limit, q.Filter.Offset)...)
	if err != nil {
		return nil, translateError(err)
	}

	if err := c.loadTags(ctx, articles); err != nil {
		return nil, err
	}

	return &models.ArticlePage{
		Articles:      articles,
		ArticlesCount: count,
	}, nil
}

func (c *Core) GetArticle(ctx context.Context, articleID uuid.UUID) (*models.Article, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM articles a
		JOIN users u ON u.id = a.author_id
		WHERE a.id = $1
	`, articleWithAuthorColumns)

	article, err := databaseutils.ExecuteSingleQuery(c.sqlTemplate, ctx, query, scanArticleWithAuthor, articleID)
	if err != nil {
		return nil, translateError(err)
	}

	if err := c.loadTags(ctx, []*models.Article{article}); err != nil {
		return nil, err
	}

	return article, nil
}

// CreateArticle stores the article, its tags and the associations in one transaction.
func (c *Core) CreateArticle(ctx context.Context, author *models.User, newArticle models.NewArticle, tagNames []string) (*models.Article, error) {
	insertSQL := fmt.Sprintf(`
		INSERT INTO articles (author_id, slug, title, description, body)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING %s
	`, articleColumns)

	article, err := databaseutils.DoTransactionally(ctx, c.session, func(txCtx context.Context) (*models.Article, error) {
		article, err := databaseutils.ExecuteSingleQuery(c.sqlTemplate, txCtx, insertSQL, scanArticle,
			author.ID, CreateSlug(newArticle.Title), newArticle.Title, newArticle.Description, newArticle.Body)
		if err != nil {
			return nil, translateError(err)
		}

		tags, err := c.UpsertTags(txCtx, tagNames)
		if err != nil {
			return nil, err
		}

		if err := c.AttachTags(txCtx, article.ID, tags); err != nil {
			return nil, err
		}

		// Reads return tags ordered by name.
		article.Tags = slices.SortedFunc(slices.Values(tags), func(a, b *models.Tag) int {
			return strings.Compare(a.Name, b.Name)
		})
		return article, nil
	})
	if err != nil {
		return nil, err
	}

	article.Author = author
	c.log.Info("Article created", "article_id", article.ID, "author_id", author.ID, "slug", article.Slug)
	return article, nil
}

// UpdateArticle applies the present fields of update. Changing the title
// recomputes the slug. Only the author may update an article.
func (c *Core) UpdateArticle(ctx context.Context, actor *models.User, articleID uuid.UUID, update models.ArticleUpdate) (*models.Article, error) {
	article, err := databaseutils.DoTransactionally(ctx, c.session, func(txCtx context.Context) (*models.Article, error) {
		if err := c.checkArticleAuthor(txCtx, actor, articleID); err != nil {
			return nil, err
		}

		var (
			sets []string
			args []any
		)
		set := func(column string, value any) {
			args = append(args, value)
			sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
		}

		if update.Title != nil {
			set("title", *update.Title)
			set("slug", CreateSlug(*update.Title))
		}
		if update.Description != nil {
			set("description", *update.Description)
		}
		if update.Body != nil {
			set("body", *update.Body)
		}
		sets = append(sets, "updated_at = now()")
		args = append(args, articleID)

		updateSQL := fmt.Sprintf(`
			UPDATE articles
			SET %s
			WHERE id = $%d
			RETURNING %s
		`, strings.Join(sets, ", "), len(args), articleColumns)

		article, err := databaseutils.ExecuteSingleQuery(c.sqlTemplate, txCtx, updateSQL, scanArticle, args...)
		if err != nil {
			return nil, translateError(err)
		}

		if err := c.loadTags(txCtx, []*models.Article{article}); err != nil {
			return nil, err
		}
		return article, nil
	})
	if err != nil {
		return nil, err
	}

	article.Author = actor
	return article, nil
}

// DeleteArticle removes the article; its tag associations go with it through
// ON DELETE CASCADE. Only the author may delete an article.
func (c *Core) DeleteArticle(ctx context.Context, actor *models.User, articleID uuid.UUID) error {
	const deleteSQL = `
		DELETE FROM articles
		WHERE id = $1
	`

	err := c.session.DoTransactionally(ctx, func(txCtx context.Context) error {
		if err := c.checkArticleAuthor(txCtx, actor, articleID); err != nil {
			return err
		}

		if _, err := databaseutils.Execute(c.sqlTemplate, txCtx, deleteSQL, articleID); err != nil {
			return translateError(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	c.log.Info("Article deleted", "article_id", articleID, "author_id", actor.ID)
	return nil
}

// checkArticleAuthor locks the article row for the rest of the transaction.
func (c *Core) checkArticleAuthor(ctx context.Context, actor *models.User, articleID uuid.UUID) error {
	const selectSQL = `
		SELECT author_id
		FROM articles
		WHERE id = $1
		FOR UPDATE
	`

	authorID, err := databaseutils.ExecuteSingleQuery(c.sqlTemplate, ctx, selectSQL, func(rows *sql.Rows) (uuid.UUID, error) {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return uuid.Nil, xerrors.New(err)
		}
		return id, nil
	}, articleID)
	if err != nil {
		return translateError(err)
	}

	if authorID != actor.ID {
		return xerrors.New(ErrNotArticleAuthor)
	}
	return nil
}

func (c *Core) loadTags(ctx context.Context, articles []*models.Article) error {
	articleIdList := functional.Map(articles, func(a *models.Article) uuid.UUID { return a.ID })

	tagsByArticleId, err := c.GetTagsByArticleIdList(ctx, articleIdList)
	if err != nil {
		return err
	}

	for _, article := range articles {
		article.Tags = tagsByArticleId[article.ID]
		if article.Tags == nil {
			article.Tags = []*models.Tag{}
		}
	}
	return nil
}
