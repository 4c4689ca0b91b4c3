package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/siahsang/conduit/models"
)

func (app *application) getProfileHandler(w http.ResponseWriter, r *http.Request) {
	username := httprouter.ParamsFromContext(r.Context()).ByName("username")

	// anonymous callers see following=false
	viewer, _ := app.auth.GetAuthenticatedUser(r)

	profile, err := app.core.GetProfile(r.Context(), viewer, username)
	if err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}

	if err := app.writeJSON(w, http.StatusOK, profileResponse(profile), nil); err != nil {
		app.internalErrorResponse(w, r, err)
	}
}

func (app *application) followUserHandler(w http.ResponseWriter, r *http.Request) {
	username := httprouter.ParamsFromContext(r.Context()).ByName("username")
	follower, err := app.auth.GetAuthenticatedUser(r)
	if err != nil {
		app.authenticationRequiredResponse(w, r)
		return
	}

	profile, err := app.core.FollowUser(r.Context(), follower, username)
	if err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}

	if err := app.writeJSON(w, http.StatusOK, profileResponse(profile), nil); err != nil {
		app.internalErrorResponse(w, r, err)
	}
}

func (app *application) unfollowUserHandler(w http.ResponseWriter, r *http.Request) {
	username := httprouter.ParamsFromContext(r.Context()).ByName("username")
	follower, err := app.auth.GetAuthenticatedUser(r)
	if err != nil {
		app.authenticationRequiredResponse(w, r)
		return
	}

	profile, err := app.core.UnfollowUser(r.Context(), follower, username)
	if err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}

	if err := app.writeJSON(w, http.StatusOK, profileResponse(profile), nil); err != nil {
		app.internalErrorResponse(w, r, err)
	}
}

func profileResponse(profile *models.Profile) envelope {
	return envelope{"profile": profile}
}
