package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID        uuid.UUID `json:"-"`
	Email     string    `json:"email"`
	Token     string    `json:"token,omitempty"`
	Username  string    `json:"username"`
	Password  []byte    `json:"-"`
	Bio       *string   `json:"bio"`
	Image     *string   `json:"image"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// UserUpdate carries a partial update of a user. Password is plaintext and is
// hashed by the store before it is written.
type UserUpdate struct {
	Email    *string
	Username *string
	Password *string
	Image    *string
	Bio      *string
}

func (u UserUpdate) IsEmpty() bool {
	return u.Email == nil && u.Username == nil && u.Password == nil && u.Image == nil && u.Bio == nil
}

type Profile struct {
	ID        uuid.UUID `json:"-"`
	Username  string    `json:"username"`
	Bio       *string   `json:"bio"`
	Image     *string   `json:"image"`
	Following bool      `json:"following"`
}

type Follow struct {
	FollowerID uuid.UUID
	FolloweeID uuid.UUID
}

type Article struct {
	ID          uuid.UUID
	AuthorID    uuid.UUID
	Slug        string
	Title       string
	Description string
	Body        string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Author *User
	Tags   []*Tag
}

func (a *Article) TagNames() []string {
	names := make([]string, len(a.Tags))
	for i, tag := range a.Tags {
		names[i] = tag.Name
	}
	return names
}

type NewArticle struct {
	Title       string
	Description string
	Body        string
}

type ArticleUpdate struct {
	Title       *string
	Description *string
	Body        *string
}

type Tag struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ArticleTag is one row of the article/tag association table.
type ArticleTag struct {
	ArticleID uuid.UUID
	Tag       *Tag
}

type ArticlePage struct {
	Articles      []*Article
	ArticlesCount int64
}
