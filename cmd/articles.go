package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/siahsang/conduit/internal/core"
	"github.com/siahsang/conduit/internal/filter"
	"github.com/siahsang/conduit/internal/utils/collectionutils"
	"github.com/siahsang/conduit/internal/utils/functional"
	"github.com/siahsang/conduit/internal/validator"
	"github.com/siahsang/conduit/models"
)

type CreateArticleRequest struct {
	Article struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Body        string   `json:"body"`
		TagList     []string `json:"tagList"`
	} `json:"article"`
}

type UpdateArticleRequest struct {
	Article struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Body        *string `json:"body"`
	} `json:"article"`
}

type AuthorEnvelope struct {
	Username  string  `json:"username"`
	Bio       *string `json:"bio"`
	Image     *string `json:"image"`
	Following bool    `json:"following"`
}

type ArticleEnvelope struct {
	ID          uuid.UUID      `json:"id"`
	Slug        string         `json:"slug"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Body        string         `json:"body"`
	TagList     []string       `json:"tagList"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	Author      AuthorEnvelope `json:"author"`
}

type SingleArticleResponse struct {
	Article ArticleEnvelope `json:"article"`
}

type MultipleArticlesResponse struct {
	Articles      []ArticleEnvelope `json:"articles"`
	ArticlesCount int64             `json:"articlesCount"`
}

func (app *application) listArticlesHandler(w http.ResponseWriter, r *http.Request) {
	v := validator.New()
	query := r.URL.Query()

	articleQuery := core.ArticleQuery{
		Tag:    strings.TrimSpace(app.readString(query, "tag", "")),
		Author: strings.TrimSpace(app.readString(query, "author", "")),
		Filter: filter.FromQuery(query, v),
	}

	if !v.IsValid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	viewer, _ := app.auth.GetAuthenticatedUser(r)
	app.writeArticlePage(w, r, viewer, articleQuery)
}

// feedArticlesHandler lists articles written by users the caller follows.
func (app *application) feedArticlesHandler(w http.ResponseWriter, r *http.Request) {
	v := validator.New()
	articleFilter := filter.FromQuery(r.URL.Query(), v)

	if !v.IsValid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	viewer, err := app.auth.GetAuthenticatedUser(r)
	if err != nil {
		app.authenticationRequiredResponse(w, r)
		return
	}

	app.writeArticlePage(w, r, viewer, core.ArticleQuery{Filter: articleFilter, FeedOf: &viewer.ID})
}

func (app *application) getArticleHandler(w http.ResponseWriter, r *http.Request) {
	articleID, err := app.readUUIDParam(r, "id")
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	article, err := app.core.GetArticle(r.Context(), articleID)
	if err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}

	viewer, _ := app.auth.GetAuthenticatedUser(r)
	app.writeSingleArticle(w, r, http.StatusOK, viewer, article)
}

func (app *application) createArticleHandler(w http.ResponseWriter, r *http.Request) {
	var request CreateArticleRequest

	if err := app.readJSON(w, r, &request); err != nil {
		app.badRequestResponse(w, r, &AppError{
			ErrorMessage: err.Error(),
			ErrorStack:   err,
		})
		return
	}

	input := request.Article

	v := validator.New()
	v.CheckNotBlank(input.Title, "title", "must be provided")
	v.CheckMaxLength(input.Title, maxTitleLength, "title", "must not be more than 255 characters long")
	v.CheckNotBlank(input.Description, "description", "must be provided")
	v.CheckNotBlank(input.Body, "body", "must be provided")
	checkTagList(v, input.TagList)

	if !v.IsValid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	author, err := app.auth.GetAuthenticatedUser(r)
	if err != nil {
		app.authenticationRequiredResponse(w, r)
		return
	}

	article, err := app.core.CreateArticle(r.Context(), author, models.NewArticle{
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Body:        input.Body,
	}, input.TagList)
	if err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}

	app.writeSingleArticle(w, r, http.StatusCreated, author, article)
}

func (app *application) updateArticleHandler(w http.ResponseWriter, r *http.Request) {
	articleID, err := app.readUUIDParam(r, "id")
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	var request UpdateArticleRequest

	if err := app.readJSON(w, r, &request); err != nil {
		app.badRequestResponse(w, r, &AppError{
			ErrorMessage: err.Error(),
			ErrorStack:   err,
		})
		return
	}

	input := request.Article
	update := models.ArticleUpdate{
		Description: input.Description,
		Body:        input.Body,
	}

	v := validator.New()
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		v.CheckNotBlank(title, "title", "must not be blank")
		v.CheckMaxLength(title, maxTitleLength, "title", "must not be more than 255 characters long")
		update.Title = &title
	}
	if input.Description != nil {
		v.CheckNotBlank(*input.Description, "description", "must not be blank")
	}
	if input.Body != nil {
		v.CheckNotBlank(*input.Body, "body", "must not be blank")
	}

	if !v.IsValid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	actor, err := app.auth.GetAuthenticatedUser(r)
	if err != nil {
		app.authenticationRequiredResponse(w, r)
		return
	}

	article, err := app.core.UpdateArticle(r.Context(), actor, articleID, update)
	if err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}

	app.writeSingleArticle(w, r, http.StatusOK, actor, article)
}

func (app *application) deleteArticleHandler(w http.ResponseWriter, r *http.Request) {
	articleID, err := app.readUUIDParam(r, "id")
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	actor, err := app.auth.GetAuthenticatedUser(r)
	if err != nil {
		app.authenticationRequiredResponse(w, r)
		return
	}

	if err := app.core.DeleteArticle(r.Context(), actor, articleID); err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (app *application) writeArticlePage(w http.ResponseWriter, r *http.Request, viewer *models.User, articleQuery core.ArticleQuery) {
	page, err := app.core.ListArticles(r.Context(), articleQuery)
	if err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}

	articles, err := app.articleEnvelopes(r.Context(), viewer, page.Articles)
	if err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}

	response := MultipleArticlesResponse{
		Articles:      articles,
		ArticlesCount: page.ArticlesCount,
	}
	if err := app.writeJSON(w, http.StatusOK, response, nil); err != nil {
		app.internalErrorResponse(w, r, err)
	}
}

func (app *application) writeSingleArticle(w http.ResponseWriter, r *http.Request, status int, viewer *models.User, article *models.Article) {
	articles, err := app.articleEnvelopes(r.Context(), viewer, []*models.Article{article})
	if err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}

	if err := app.writeJSON(w, status, SingleArticleResponse{Article: articles[0]}, nil); err != nil {
		app.internalErrorResponse(w, r, err)
	}
}

// articleEnvelopes resolves whether viewer follows each author with one query.
// viewer may be nil.
func (app *application) articleEnvelopes(ctx context.Context, viewer *models.User, articles []*models.Article) ([]ArticleEnvelope, error) {
	following := map[uuid.UUID]bool{}
	if viewer != nil && len(articles) > 0 {
		authorIdList := functional.Distinct(
			functional.Map(articles, func(a *models.Article) uuid.UUID { return a.AuthorID }),
			func(id uuid.UUID) uuid.UUID { return id },
		)

		var err error
		following, err = app.core.FollowingAmong(ctx, viewer.ID, authorIdList)
		if err != nil {
			return nil, err
		}
	}

	return functional.Map(articles, func(article *models.Article) ArticleEnvelope {
		articleEnvelope := ArticleEnvelope{
			ID:          article.ID,
			Slug:        article.Slug,
			Title:       article.Title,
			Description: article.Description,
			Body:        article.Body,
			TagList:     article.TagNames(),
			CreatedAt:   article.CreatedAt,
			UpdatedAt:   article.UpdatedAt,
		}
		if article.Author != nil {
			articleEnvelope.Author = AuthorEnvelope{
				Username:  article.Author.Username,
				Bio:       article.Author.Bio,
				Image:     article.Author.Image,
				Following: collectionutils.GetOrDefault(following, article.AuthorID, false),
			}
		}
		return articleEnvelope
	}), nil
}
