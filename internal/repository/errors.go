package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"lessonhub/pkg/models"
)

// mapDBError translates low-level database errors into categorized
// application errors shared by all repositories.
func mapDBError(err error, operation string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return models.NewNotFoundError("resource not found", err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return models.NewAppError(models.ErrCodeConflict, "resource already exists", 409, err)
		case "23503": // foreign_key_violation
			return models.NewAppError(models.ErrCodeBadRequest, "invalid relationship", 400, err)
		case "22P02": // invalid_text_representation
			return models.NewAppError(models.ErrCodeBadRequest, "invalid input format", 400, err)
		}
	}

	return models.NewAppError(models.ErrCodeInternal, "database error during "+operation, 500, err)
}
