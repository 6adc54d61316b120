// Package domain contains the core entities of the study tracker: topics
// and their pipeline stages, gem amounts, wallets, streak statistics, and
// the append-only review and transaction records. It has no knowledge of
// storage or transport.
package domain
