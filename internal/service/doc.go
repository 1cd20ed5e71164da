// Package service contains the application's business logic, sitting
// between the HTTP API and the persistence layer. Services validate
// input, coordinate stores, and emit events for asynchronous work such
// as report generation.
package service
