// Package postgres provides PostgreSQL implementations of the store
// interfaces defined in internal/store, the embedded goose schema they run
// against, and a Transactor that binds them to a single transaction.
package postgres
