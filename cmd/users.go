package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/siahsang/conduit/internal/core"
	"github.com/siahsang/conduit/internal/validator"
	"github.com/siahsang/conduit/models"
)

func (app *application) registerUserHandler(w http.ResponseWriter, r *http.Request) {
	type registerUserPayload struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
	}

	type RegisterUserRequest struct {
		registerUserPayload `json:"user"`
	}

	var registerUserRequest RegisterUserRequest

	if err := app.readJSON(w, r, &registerUserRequest); err != nil {
		app.badRequestResponse(w, r, &AppError{
			ErrorMessage: err.Error(),
			ErrorStack:   err,
		})
		return
	}

	email := strings.TrimSpace(registerUserRequest.Email)
	username := strings.TrimSpace(registerUserRequest.Username)

	v := validator.New()
	checkEmail(v, email)
	checkUsername(v, username)
	checkPassword(v, registerUserRequest.Password)

	if !v.IsValid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	user, token, err := app.core.Signup(r.Context(), email, username, registerUserRequest.Password)
	if err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}

	if err := app.writeJSON(w, http.StatusCreated, userResponse(user, token), nil); err != nil {
		app.internalErrorResponse(w, r, err)
	}
}

func (app *application) loginHandler(w http.ResponseWriter, r *http.Request) {
	type loginUserPayload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	type LoginUserRequest struct {
		loginUserPayload `json:"user"`
	}

	var loginUserRequest LoginUserRequest

	if err := app.readJSON(w, r, &loginUserRequest); err != nil {
		app.badRequestResponse(w, r, &AppError{
			ErrorMessage: err.Error(),
			ErrorStack:   err,
		})
		return
	}

	email := strings.TrimSpace(loginUserRequest.Email)

	v := validator.New()
	checkEmail(v, email)
	v.CheckNotBlank(loginUserRequest.Password, "password", "must be provided")

	if !v.IsValid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	user, token, err := app.core.Signin(r.Context(), email, loginUserRequest.Password)
	if err != nil {
		switch {
		// an unknown email is reported the same way as a wrong password
		case errors.Is(err, core.NoRecordFound), errors.Is(err, core.ErrInvalidCredential):
			app.invalidCredentialsResponse(w, r, err)
		default:
			app.storeErrorResponse(w, r, err)
		}
		return
	}

	if err := app.writeJSON(w, http.StatusOK, userResponse(user, token), nil); err != nil {
		app.internalErrorResponse(w, r, err)
	}
}

func (app *application) getCurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	user, err := app.auth.GetAuthenticatedUser(r)
	if err != nil {
		app.authenticationRequiredResponse(w, r)
		return
	}

	if err := app.writeJSON(w, http.StatusOK, userResponse(user, user.Token), nil); err != nil {
		app.internalErrorResponse(w, r, err)
	}
}

func (app *application) updateUserHandler(w http.ResponseWriter, r *http.Request) {
	type updateUserPayload struct {
		Email    *string `json:"email"`
		Username *string `json:"username"`
		Password *string `json:"password"`
		Image    *string `json:"image"`
		Bio      *string `json:"bio"`
	}

	type UpdateUserRequest struct {
		updateUserPayload `json:"user"`
	}

	var updateUserRequest UpdateUserRequest

	if err := app.readJSON(w, r, &updateUserRequest); err != nil {
		app.badRequestResponse(w, r, &AppError{
			ErrorMessage: err.Error(),
			ErrorStack:   err,
		})
		return
	}

	currentUser, err := app.auth.GetAuthenticatedUser(r)
	if err != nil {
		app.authenticationRequiredResponse(w, r)
		return
	}

	update := models.UserUpdate{
		Password: updateUserRequest.Password,
		Image:    updateUserRequest.Image,
		Bio:      updateUserRequest.Bio,
	}

	v := validator.New()
	if updateUserRequest.Email != nil {
		email := strings.TrimSpace(*updateUserRequest.Email)
		checkEmail(v, email)
		update.Email = &email
	}
	if updateUserRequest.Username != nil {
		username := strings.TrimSpace(*updateUserRequest.Username)
		checkUsername(v, username)
		update.Username = &username
	}
	if updateUserRequest.Password != nil {
		checkPassword(v, *updateUserRequest.Password)
	}

	if !v.IsValid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	user, err := app.core.UpdateUser(r.Context(), currentUser.ID, update)
	if err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}

	if err := app.writeJSON(w, http.StatusOK, userResponse(user, currentUser.Token), nil); err != nil {
		app.internalErrorResponse(w, r, err)
	}
}

func userResponse(user *models.User, token string) envelope {
	user.Token = token
	return envelope{"user": user}
}
