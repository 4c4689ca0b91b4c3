package core

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/conduit/internal/utils/databaseutils"
	"github.com/siahsang/conduit/internal/utils/stringutils"
	"github.com/siahsang/conduit/models"
)

// CreateFollow records that FollowerID follows FolloweeID. Following twice is a no-op.
func (c *Core) CreateFollow(ctx context.Context, follow models.Follow) error {
	const insertSQL = `
		INSERT INTO follows (follower_id, followee_id)
		VALUES ($1, $2)
		ON CONFLICT (follower_id, followee_id) DO NOTHING
	`

	if _, err := databaseutils.Execute(c.sqlTemplate, ctx, insertSQL, follow.FollowerID, follow.FolloweeID); err != nil {
		return translateError(err)
	}

	return nil
}

// DeleteFollow removes the pair if present; a missing pair is not an error.
func (c *Core) DeleteFollow(ctx context.Context, follow models.Follow) error {
	const deleteSQL = `
		DELETE FROM follows
		WHERE follower_id = $1 AND followee_id = $2
	`

	if _, err := databaseutils.Execute(c.sqlTemplate, ctx, deleteSQL, follow.FollowerID, follow.FolloweeID); err != nil {
		return translateError(err)
	}

	return nil
}

func (c *Core) IsFollowing(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	const selectSQL = `
		SELECT EXISTS (
			SELECT 1 FROM follows WHERE follower_id = $1 AND followee_id = $2
		)
	`

	isFollowing, err := databaseutils.ExecuteSingleQuery(c.sqlTemplate, ctx, selectSQL, func(rows *sql.Rows) (bool, error) {
		var exists bool
		if err := rows.Scan(&exists); err != nil {
			return false, xerrors.New(err)
		}
		return exists, nil
	}, followerID, followeeID)
	if err != nil {
		return false, translateError(err)
	}

	return isFollowing, nil
}

// FollowingAmong reports which of the candidate users followerID follows.
func (c *Core) FollowingAmong(ctx context.Context, followerID uuid.UUID, candidates []uuid.UUID) (map[uuid.UUID]bool, error) {
	following := make(map[uuid.UUID]bool, len(candidates))
	if len(candidates) == 0 {
		return following, nil
	}

	placeholders, args := stringutils.JoinINCluse(candidates, 2)
	query := fmt.Sprintf(`
		SELECT followee_id
		FROM follows
		WHERE follower_id = $1 AND followee_id IN (%s)
	`, placeholders)

	followeeIDs, err := databaseutils.ExecuteQuery(c.sqlTemplate, ctx, query, func(rows *sql.Rows) (uuid.UUID, error) {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return uuid.Nil, xerrors.New(err)
		}
		return id, nil
	}, append([]any{followerID}, args...)...)
	if err != nil {
		return nil, translateError(err)
	}

	for _, id := range followeeIDs {
		following[id] = true
	}
	return following, nil
}
