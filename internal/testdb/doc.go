//go:build integration

// Package testdb provides utilities for PostgreSQL integration tests.
//
// It implements a transaction-based isolation pattern: each test runs in its
// own transaction which is rolled back when the test completes, so tests can
// run in parallel and need no cleanup.
//
//	func TestMyFeature(t *testing.T) {
//	    t.Parallel()
//	    db := testdb.GetTestDBWithT(t)
//
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sqlx.Tx) {
//	        topics := postgres.NewPostgresTopicStore(tx, nil)
//	        ...
//	    })
//	}
//
// Tests are skipped unless DATABASE_URL (or STUDY_TEST_DB_URL) is set. The
// embedded schema is applied once per test binary.
package testdb
