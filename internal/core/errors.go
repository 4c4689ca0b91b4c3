package core

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"github.com/lib/pq"
	"github.com/mdobak/go-xerrors"
)

var (
	NoRecordFound            = xerrors.Message("No record found")
	ErrDuplicateEmail        = xerrors.Message("Duplicate email")
	ErrDuplicateUsername     = xerrors.Message("Duplicate username")
	ErrInvalidCredential     = xerrors.Message("Invalid credentials")
	ErrConstraintViolation   = xerrors.Message("Constraint violation")
	ErrConnectionUnavailable = xerrors.Message("Database connection unavailable")
	ErrNotArticleAuthor      = xerrors.Message("User is not the author of the article")
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqIntegrityClass      = "23"
	pqConnectionClass     = "08"

	usersEmailConstraint    = "users_email_key"
	usersUsernameConstraint = "users_username_key"
)

// translateError maps driver failures onto the error taxonomy and attaches a stack trace.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return xerrors.New(NoRecordFound)
	case errors.As(err, &pqErr):
		return translatePQError(pqErr, err)
	case errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone),
		errors.Is(err, context.DeadlineExceeded),
		isNetError(err),
		strings.Contains(err.Error(), "sql: database is closed"):
		return xerrors.Newf("%w: %s", ErrConnectionUnavailable, err.Error())
	default:
		return xerrors.New(err)
	}
}

func translatePQError(pqErr *pq.Error, err error) error {
	code := string(pqErr.Code)
	switch {
	case code == pqUniqueViolation && pqErr.Constraint == usersEmailConstraint:
		return xerrors.New(ErrDuplicateEmail)
	case code == pqUniqueViolation && pqErr.Constraint == usersUsernameConstraint:
		return xerrors.New(ErrDuplicateUsername)
	case code == pqForeignKeyViolation, strings.HasPrefix(code, pqIntegrityClass):
		return xerrors.Newf("%w: %s", ErrConstraintViolation, pqErr.Message)
	case strings.HasPrefix(code, pqConnectionClass):
		return xerrors.Newf("%w: %s", ErrConnectionUnavailable, pqErr.Message)
	default:
		return xerrors.New(err)
	}
}

func isNetError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr)
}
