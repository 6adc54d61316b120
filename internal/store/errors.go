package store

import (
	"errors"
	"fmt"
)

// Errors shared by every store implementation. Implementations wrap the
// driver error so callers can match on these with errors.Is.
var (
	// ErrNotFound means the requested row does not exist. Entity-specific
	// variants below wrap it.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate means an insert collided with an existing row.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity means the database rejected a row: a missing
	// reference, a NULL, or a violated CHECK constraint.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrTransactionFailed means a unit of work ran but could not commit.
	ErrTransactionFailed = errors.New("transaction failed")

	ErrTopicNotFound     = fmt.Errorf("%w: topic", ErrNotFound)
	ErrWalletNotFound    = fmt.Errorf("%w: wallet", ErrNotFound)
	ErrUserStatsNotFound = fmt.Errorf("%w: user stats", ErrNotFound)
)

// IsNotFoundError reports whether err is ErrNotFound or one of its
// entity-specific variants.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
