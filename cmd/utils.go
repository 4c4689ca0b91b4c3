package main

import (
	"github.com/siahsang/conduit/internal/validator"
)

const (
	maxUsernameLength = 50
	minPasswordLength = 8
	maxTitleLength    = 255
	maxTagLength      = 64
)

func checkEmail(v *validator.Validator, email string) {
	v.CheckNotBlank(email, "email", "must be provided")
	v.CheckEmail(email, "must be a valid email address")
}

func checkUsername(v *validator.Validator, username string) {
	v.CheckNotBlank(username, "username", "must be provided")
	v.CheckMaxLength(username, maxUsernameLength, "username", "must not be more than 50 characters long")
}

func checkPassword(v *validator.Validator, password string) {
	v.CheckNotBlank(password, "password", "must be provided")
	v.Check(len(password) >= minPasswordLength, "password", "must be at least 8 characters long")
}

func checkTagList(v *validator.Validator, tagList []string) {
	v.Check(v.IsUnique(tagList), "tagList", "must not contain duplicate tags")
	for _, tag := range tagList {
		v.CheckNotBlank(tag, "tagList", "must not contain blank tags")
		v.CheckMaxLength(tag, maxTagLength, "tagList", "must not contain tags longer than 64 characters")
	}
}
