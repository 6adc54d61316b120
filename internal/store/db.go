package store

import "github.com/jmoiron/sqlx"

// DBTX is satisfied by both *sqlx.DB and *sqlx.Tx, so a PostgreSQL store can
// be bound to the pool for plain reads or to a transaction via WithTx.
type DBTX interface {
	sqlx.ExtContext
}
