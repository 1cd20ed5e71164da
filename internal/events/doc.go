// Package events decouples the services that request background work from
// the task infrastructure that executes it. A service emits a
// TaskRequestEvent describing what should run; a handler registered by the
// task layer turns it into a persisted task. Neither side imports the
// other.
package events
