package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/siahsang/conduit/internal/metrics"
)

func (app *application) routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(app.notFoundResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedResponse)

	// handle registers h under route with per-route logging, metrics, rate
	// limiting and authentication, in that order.
	handle := func(method, route string, h http.HandlerFunc) {
		router.Handler(method, route, app.routeHandler(route, h))
	}

	// Not require authentication for these routes
	handle(http.MethodPost, "/api/users", app.registerUserHandler)
	handle(http.MethodPost, "/api/users/login", app.loginHandler)
	handle(http.MethodGet, "/api/profiles/:username", app.getProfileHandler)
	handle(http.MethodGet, "/api/articles", app.listArticlesHandler)
	handle(http.MethodGet, "/api/tags", app.listTagsHandler)
	handle(http.MethodGet, "/api/healthcheck", app.healthcheckHandler)

	// httprouter cannot register /api/articles/feed next to the :id wildcard,
	// so the two are dispatched here, each under its own route label.
	getArticle := app.routeHandler("/api/articles/:id", app.getArticleHandler)
	feedArticles := app.routeHandler("/api/articles/feed", app.requireAuthenticatedUser(app.feedArticlesHandler))
	router.HandlerFunc(http.MethodGet, "/api/articles/:id", func(w http.ResponseWriter, r *http.Request) {
		if httprouter.ParamsFromContext(r.Context()).ByName("id") == "feed" {
			feedArticles.ServeHTTP(w, r)
			return
		}
		getArticle.ServeHTTP(w, r)
	})

	// Require authentication for these routes
	handle(http.MethodGet, "/api/user", app.requireAuthenticatedUser(app.getCurrentUserHandler))
	handle(http.MethodPut, "/api/user", app.requireAuthenticatedUser(app.updateUserHandler))
	handle(http.MethodPost, "/api/profiles/:username/follow", app.requireAuthenticatedUser(app.followUserHandler))
	handle(http.MethodDelete, "/api/profiles/:username/follow", app.requireAuthenticatedUser(app.unfollowUserHandler))
	handle(http.MethodPost, "/api/articles", app.requireAuthenticatedUser(app.createArticleHandler))
	handle(http.MethodPut, "/api/articles/:id", app.requireAuthenticatedUser(app.updateArticleHandler))
	handle(http.MethodDelete, "/api/articles/:id", app.requireAuthenticatedUser(app.deleteArticleHandler))

	router.Handler(http.MethodGet, "/metrics", metrics.Handler(app.gatherer))

	return app.requestID(app.recoverPanic(router))
}

func (app *application) routeHandler(route string, h http.HandlerFunc) http.Handler {
	return app.instrument(route, app.rateLimit(route, app.authenticate(h)))
}
