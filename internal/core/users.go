package core

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/conduit/internal/utils/databaseutils"
	"github.com/siahsang/conduit/internal/utils/stringutils"
	"github.com/siahsang/conduit/models"
)

const userColumns = `id, email, username, password, bio, image, created_at, updated_at`

func scanUser(rows *sql.Rows) (*models.User, error) {
	var user = &models.User{}

	if err := rows.Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.Password,
		&user.Bio,
		&user.Image,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, xerrors.New(err)
	}
	return user, nil
}

// Signup hashes the password, stores the user and issues a session token.
func (c *Core) Signup(ctx context.Context, email, username, plainTextPassword string) (*models.User, string, error) {
	hashedPassword, err := c.auth.HashPassword(plainTextPassword)
	if err != nil {
		return nil, "", err
	}

	query := fmt.Sprintf(`
		INSERT INTO users (email, username, password)
		VALUES ($1, $2, $3)
		RETURNING %s
	`, userColumns)

	user, err := databaseutils.ExecuteSingleQuery(c.sqlTemplate, ctx, query, scanUser, email, username, hashedPassword)
	if err != nil {
		return nil, "", translateError(err)
	}

	token, err := c.auth.IssueToken(user.ID, time.Now())
	if err != nil {
		return nil, "", err
	}

	c.log.Info("User signed up", "user_id", user.ID, "username", user.Username)
	return user, token, nil
}

// Signin fails with NoRecordFound for an unknown email and ErrInvalidCredential
// when the password does not match.
func (c *Core) Signin(ctx context.Context, email, plainTextPassword string) (*models.User, string, error) {
	user, err := c.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}

	match, err := c.auth.VerifyPassword(plainTextPassword, user.Password)
	if err != nil {
		return nil, "", err
	}
	if !match {
		return nil, "", xerrors.New(ErrInvalidCredential)
	}

	token, err := c.auth.IssueToken(user.ID, time.Now())
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

func (c *Core) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return c.getUserBy(ctx, "id", id)
}

func (c *Core) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return c.getUserBy(ctx, "email", email)
}

func (c *Core) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return c.getUserBy(ctx, "username", username)
}

// column is always one of the constants passed by the getters above.
func (c *Core) getUserBy(ctx context.Context, column string, value any) (*models.User, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM users
		WHERE %s = $1
	`, userColumns, column)

	user, err := databaseutils.ExecuteSingleQuery(c.sqlTemplate, ctx, query, scanUser, value)
	if err != nil {
		return nil, translateError(err)
	}

	return user, nil
}

func (c *Core) GetUsersByIdList(ctx context.Context, userIdList []uuid.UUID) ([]*models.User, error) {
	if len(userIdList) == 0 {
		return []*models.User{}, nil
	}

	placeholders, args := stringutils.JoinINCluse(userIdList, 1)
	query := fmt.Sprintf(`
		SELECT %s
		FROM users
		WHERE id IN (%s)
	`, userColumns, placeholders)

	users, err := databaseutils.ExecuteQuery(c.sqlTemplate, ctx, query, scanUser, args...)
	if err != nil {
		return nil, translateError(err)
	}

	return users, nil
}

// UpdateUser writes only the fields present in update. A new password is always
// hashed here; callers pass plaintext.
func (c *Core) UpdateUser(ctx context.Context, userID uuid.UUID, update models.UserUpdate) (*models.User, error) {
	if update.IsEmpty() {
		return c.GetUserByID(ctx, userID)
	}

	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Email != nil {
		set("email", *update.Email)
	}
	if update.Username != nil {
		set("username", *update.Username)
	}
	if update.Password != nil {
		hashedPassword, err := c.auth.HashPassword(*update.Password)
		if err != nil {
			return nil, err
		}
		set("password", hashedPassword)
	}
	if update.Image != nil {
		set("image", nullIfEmpty(*update.Image))
	}
	if update.Bio != nil {
		set("bio", nullIfEmpty(*update.Bio))
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, userID)

	query := fmt.Sprintf(`
		UPDATE users
		SET %s
		WHERE id = $%d
		RETURNING %s
	`, strings.Join(sets, ", "), len(args), userColumns)

	user, err := databaseutils.ExecuteSingleQuery(c.sqlTemplate, ctx, query, scanUser, args...)
	if err != nil {
		return nil, translateError(err)
	}

	c.log.Info("User updated Successfully", "user_id", user.ID, "email", user.Email)
	return user, nil
}

func nullIfEmpty(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
