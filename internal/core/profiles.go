package core

import (
	"context"

	"github.com/siahsang/conduit/models"
)

func profileOf(user *models.User, following bool) *models.Profile {
	return &models.Profile{
		ID:        user.ID,
		Username:  user.Username,
		Bio:       user.Bio,
		Image:     user.Image,
		Following: following,
	}
}

// GetProfile returns username's profile as seen by viewer. viewer may be nil.
func (c *Core) GetProfile(ctx context.Context, viewer *models.User, username string) (*models.Profile, error) {
	user, err := c.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if viewer == nil {
		return profileOf(user, false), nil
	}

	following, err := c.IsFollowing(ctx, viewer.ID, user.ID)
	if err != nil {
		return nil, err
	}

	return profileOf(user, following), nil
}

func (c *Core) FollowUser(ctx context.Context, follower *models.User, followeeUsername string) (*models.Profile, error) {
	followee, err := c.GetUserByUsername(ctx, followeeUsername)
	if err != nil {
		return nil, err
	}

	if err := c.CreateFollow(ctx, models.Follow{FollowerID: follower.ID, FolloweeID: followee.ID}); err != nil {
		return nil, err
	}

	c.log.Info("User followed", "follower_id", follower.ID, "followee_id", followee.ID)
	return profileOf(followee, true), nil
}

func (c *Core) UnfollowUser(ctx context.Context, follower *models.User, followeeUsername string) (*models.Profile, error) {
	followee, err := c.GetUserByUsername(ctx, followeeUsername)
	if err != nil {
		return nil, err
	}

	if err := c.DeleteFollow(ctx, models.Follow{FollowerID: follower.ID, FolloweeID: followee.ID}); err != nil {
		return nil, err
	}

	return profileOf(followee, false), nil
}
