package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// unique index names, see the model tags
const (
	UsersEmailIndex    = "idx_users_email"
	UsersUsernameIndex = "idx_users_username"
	GenresNameIndex    = "idx_genres_name"
	MoviesSlugIndex    = "idx_movies_slug"
)

const pgUniqueViolation = "23505"

// DuplicateKey reports whether err is a unique index conflict raised by postgres
// and returns the index name. A write that lost a race against a concurrent insert
// surfaces here even though the service checked for the value beforehand.
func DuplicateKey(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}
