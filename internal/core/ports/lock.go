package ports

import "context"

// LockProvider serializes mutating operations per resource. Acquire blocks
// until any in-flight holder of the same resourceID releases; distinct
// resource IDs never contend. Acquisition honors ctx cancellation, and a
// caller that gives up waiting has produced no side effects yet.
type LockProvider interface {
	Acquire(ctx context.Context, resourceID string) (release func(), err error)
}
