// Package reconcile provides a generic engine for converging a remote
// system of record toward an in-memory inventory: diff two keyed item
// sets, then create, update and delete through bounded concurrent tasks.
//
// The engine is model-agnostic. It knows nothing about devices, NetBox
// or databases; collections supply that knowledge through small
// interfaces, the way adapters plug model-specific logic into a shared
// core.
//
// # Architecture
//
// The engine consists of four pieces:
//
// 1. ItemSet: a keyed view over one side of the reconciliation. Items
// are flat string projections used for diffing; each keeps a handle to
// the raw record it came from so planners can recover ids.
//
// 2. Diff: partitions the union of origin and target keys into missing
// (create), changed (update) and extra (delete). Partitions are disjoint
// and computed from declared compare fields only.
//
// 3. Runner: a bounded worker pool that executes one task per item.
// Task failures are isolated to their own item, and a nil task records a
// neutral skip without dispatching anything.
//
// 4. Driver: the per-run state machine. It fetches the collection,
// diffs it against the origin, dispatches the three partitions in order
// and assembles a Result. Fetch errors abort the run outright; a
// partition the collection does not support fails alone.
//
// # Collections
//
// A Collection implements fetch and projection. The mutation sides are
// optional capabilities (Creator, Updater, Deleter); the driver detects
// them with type assertions, so a read-only collection is simply one
// that implements none of them.
//
// # Usage
//
//	driver := reconcile.NewDriver(50, log)
//	result, err := driver.Run(ctx, origin, coll, reconcile.Scope{})
//	if err != nil {
//	    return err // nothing was dispatched
//	}
//	for _, p := range result.Partitions {
//	    ...
//	}
package reconcile
