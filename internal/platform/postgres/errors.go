package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/studyquest/internal/domain"
	"github.com/phrazzld/studyquest/internal/store"
)

// SQLSTATE codes for integrity constraint violations.
const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
	notNullViolationCode    = "23502"
)

// constraintErrors maps named schema constraints onto the domain rule they
// enforce. Violations of these mean a caller broke a domain invariant.
var constraintErrors = map[string]error{
	"topics_next_review_only_when_reviewing": domain.ErrNextReviewOutsideReviewing,
	"topics_purchased_only_when_mastered":    domain.ErrPurchasedNotMastered,
}

func asPgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

func hasCode(err error, code string) bool {
	pgErr, ok := asPgError(err)
	return ok && pgErr.Code == code
}

// MapError translates a database error into the store error vocabulary.
// The original error stays in the chain; errors it does not recognise are
// returned unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	pgErr, ok := asPgError(err)
	if !ok {
		return err
	}

	switch pgErr.Code {
	case uniqueViolationCode:
		return fmt.Errorf("%w: %s: %w", store.ErrDuplicate, pgErr.ConstraintName, err)
	case foreignKeyViolationCode:
		return fmt.Errorf("%w: missing reference (%s): %w", store.ErrInvalidEntity, pgErr.ConstraintName, err)
	case checkViolationCode:
		if rule, known := constraintErrors[pgErr.ConstraintName]; known {
			return fmt.Errorf("%w: %w: %w", store.ErrInvalidEntity, rule, err)
		}
		// Every check on wallets is a non-negative balance or prestige.
		if pgErr.TableName == "wallets" {
			return fmt.Errorf("%w: %w: %w", store.ErrInvalidEntity, domain.ErrNegativeBalance, err)
		}
		return fmt.Errorf("%w: check %s failed: %w", store.ErrInvalidEntity, pgErr.ConstraintName, err)
	case notNullViolationCode:
		return fmt.Errorf("%w: %s is required: %w", store.ErrInvalidEntity, pgErr.ColumnName, err)
	}
	return err
}

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	return hasCode(err, uniqueViolationCode)
}

// IsForeignKeyViolation reports whether err references a row that does not exist.
func IsForeignKeyViolation(err error) bool {
	return hasCode(err, foreignKeyViolationCode)
}

// CheckRowsAffected returns notFound when an UPDATE matched no row.
func CheckRowsAffected(result sql.Result, notFound error) error {
	if result == nil {
		return errors.New("nil result provided to CheckRowsAffected")
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
