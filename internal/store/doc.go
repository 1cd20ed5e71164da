// Package store defines the persistence interfaces used by the service
// layer along with the shared error sentinels and transaction helpers.
// Concrete implementations live in internal/platform/postgres.
package store
