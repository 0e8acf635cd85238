package repository

import (
	"context"
	"errors"
	"fmt"

	brigade_errors "brigade-service/pkg/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Postgres error codes the repositories care about.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgNotNullViolation    = "23502"
)

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pgErrorCode(err) == pgUniqueViolation || errors.Is(err, gorm.ErrDuplicatedKey)
}

// translateError maps driver and gorm errors onto the domain sentinels.
// Anything that is not a lookup miss or a duplicate becomes ErrPersistence.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return brigade_errors.ErrNotFound
	case isUniqueViolation(err):
		return fmt.Errorf("%w: %v", brigade_errors.ErrAlreadyExists, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	switch pgErrorCode(err) {
	case pgForeignKeyViolation, pgCheckViolation, pgNotNullViolation:
		return fmt.Errorf("%w: constraint violated: %v", brigade_errors.ErrPersistence, err)
	}
	return fmt.Errorf("%w: %v", brigade_errors.ErrPersistence, err)
}

