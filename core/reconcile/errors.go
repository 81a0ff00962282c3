package reconcile

import "errors"

var (
	// ErrNotSupported marks an operation a collection does not implement.
	// The driver reports it for a partition that has items but no
	// capability to act on them; other partitions still run.
	ErrNotSupported = errors.New("operation not supported")

	// ErrNilItemSet is returned when a run is started without an origin.
	ErrNilItemSet = errors.New("nil item set")
)
