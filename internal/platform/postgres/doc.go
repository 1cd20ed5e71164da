// Package postgres provides PostgreSQL implementations of the store
// interfaces. Stores accept a store.DBTX so the same implementation works
// against the pool or an open transaction, and map driver errors to the
// store package's sentinel errors.
package postgres
