// Package task implements persisted background work: a Task abstraction, a
// runner with a worker pool, crash recovery of unfinished tasks, and a
// stuck-task monitor. Report generation runs here so API requests can
// return immediately.
package task
