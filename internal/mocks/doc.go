// Package mocks provides centralized test doubles shared across packages.
//
// MemStore is an in-memory store.Transactor. Each WithinTx call works on a
// private copy of the committed data and publishes it only when the
// function returns nil, so services can be tested for atomicity and for
// their behaviour under concurrent units of work without a database:
//
//	mem := mocks.NewMemStore()
//	gem := domain.GemRuby
//	mem.PutTopic(&domain.Topic{ID: id, UserID: user, SubjectID: mem.AddSubject(gem), ...})
//	svc, err := economy.NewService(mem, catalog, nil, logger)
//
// FailNextCommit makes the next transaction roll back with the given error.
package mocks
