// Package store declares the persistence contracts of the study tracker:
// one interface per aggregate, the Stores bundle handed to a unit of work,
// and the Transactor that runs such units atomically. Implementations live
// in platform/postgres; an in-memory one for tests lives in mocks.
package store
