package core

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/siahsang/conduit/internal/auth"
	"github.com/siahsang/conduit/internal/utils/databaseutils"
)

// Core holds the user, follow and article stores. Every method takes the request
// context; a transaction started by session travels inside that context.
type Core struct {
	log         *slog.Logger
	db          *sql.DB
	sqlTemplate *databaseutils.SQLTemplate
	session     databaseutils.Session
	auth        *auth.Auth
}

func NewCore(dbConn *sql.DB, log *slog.Logger, sqlTemplate *databaseutils.SQLTemplate, session databaseutils.Session, auth *auth.Auth) *Core {
	return &Core{
		log:         log,
		db:          dbConn,
		sqlTemplate: sqlTemplate,
		session:     session,
		auth:        auth,
	}
}

// Ping checks that the database answers within the query timeout.
func (c *Core) Ping(ctx context.Context) error {
	if c.sqlTemplate.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.sqlTemplate.Timeout)
		defer cancel()
	}

	if err := c.db.PingContext(ctx); err != nil {
		return translateError(err)
	}
	return nil
}
