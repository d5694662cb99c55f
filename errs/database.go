package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrAlreadyExists      = errors.New("already exists")
	ErrNotFound           = errors.New("not found")
	ErrDatabaseQuery      = errors.New("database query failed")
	ErrDatabaseConnection = errors.New("database connection failed")
)

// Database & Storage Specific Errors
var (
	ErrUniqueConstraintViolation = errors.New("unique constraint violation")
	ErrNotNullViolation          = errors.New("not null violation")
	ErrMigrationRequired         = errors.New("database migration required")
	ErrMigrationFailed           = errors.New("migration failed")
)

// NewBlogPostNotFound reports a missing blog post, embedding the requested id.
func NewBlogPostNotFound(id string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusNotFound,
		err:        fmt.Errorf("blog post with ID %q %w", id, ErrNotFound),
	}
}

// NewDatabaseError creates a new database error with details about the operation
func NewDatabaseError(operation, entity string, cause error) *ApiErr {
	details := fmt.Sprintf("Failed to %s %s", operation, entity)

	var pgErr *pgconn.PgError
	if errors.As(cause, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return &ApiErr{
				StatusCode: http.StatusConflict,
				err:        ErrUniqueConstraintViolation,
				Details:    fmt.Sprintf("%s already exists", entity),
				Cause:      cause,
			}
		case "23502": // not_null_violation
			return &ApiErr{
				StatusCode: http.StatusBadRequest,
				err:        ErrNotNullViolation,
				Details:    fmt.Sprintf("required field %s is missing", pgErr.ColumnName),
				Field:      pgErr.ColumnName,
				Fields:     []string{pgErr.ColumnName},
				Cause:      cause,
			}
		case "22P02": // invalid_text_representation
			return &ApiErr{
				StatusCode: http.StatusBadRequest,
				err:        ErrInvalidField,
				Details:    pgErr.Message,
				Cause:      cause,
			}
		case "42P01": // undefined_table
			return &ApiErr{
				StatusCode: http.StatusInternalServerError,
				err:        ErrMigrationRequired,
				Details:    details,
				Cause:      cause,
			}
		}
	}

	if cause != nil && strings.Contains(cause.Error(), "connect") {
		return &ApiErr{
			StatusCode: http.StatusServiceUnavailable,
			err:        ErrDatabaseConnection,
			Details:    "Unable to connect to database",
			Cause:      cause,
		}
	}

	// Generic database error
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrDatabaseQuery,
		Details:    details,
		Cause:      cause,
	}
}

func NewMigrationError(version int, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrMigrationFailed,
		Details:    fmt.Sprintf("migration %d failed", version),
		Cause:      cause,
	}
}
