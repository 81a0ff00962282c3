package reconcile

import (
	"context"
	"strings"
)

// keySep separates the parts of a composite key. A non-printing separator
// keeps hostnames and interface names from colliding with the join.
const keySep = "\x1f"

// Key identifies one item within a collection. Keys are comparable and
// usable as map keys; composite keys are built with MakeKey.
type Key string

// MakeKey joins the given parts into a composite key.
// Part order is significant: MakeKey("sw1", "eth0") != MakeKey("eth0", "sw1").
func MakeKey(parts ...string) Key {
	return Key(strings.Join(parts, keySep))
}

// Parts splits a composite key back into the parts it was built from.
func (k Key) Parts() []string {
	return strings.Split(string(k), keySep)
}

// String renders the key for logs and reports.
func (k Key) String() string {
	return strings.Join(k.Parts(), "/")
}

// Fields is the flat, comparable projection of an item. Values are plain
// strings so two sources with different native types diff cleanly.
type Fields map[string]string

// Clone returns a copy of the field map.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Equal reports whether f and other agree on the named fields.
// With no names it compares every field present in f; fields present
// only in other are ignored either way.
func (f Fields) Equal(other Fields, names []string) bool {
	if len(names) == 0 {
		for name, v := range f {
			if other[name] != v {
				return false
			}
		}
		return true
	}
	for _, name := range names {
		if f[name] != other[name] {
			return false
		}
	}
	return true
}

// Status classifies how a dispatched task ended.
type Status string

const (
	// StatusSucceeded means the task ran and returned without error.
	StatusSucceeded Status = "succeeded"

	// StatusFailed means the task ran and returned an error.
	StatusFailed Status = "failed"

	// StatusSkipped means no task was dispatched for the item. Skips are
	// neutral: a run with only skips and successes is a clean run.
	StatusSkipped Status = "skipped"
)

// Outcome records the terminal result of one item's task.
type Outcome struct {
	// Status classifies the result.
	Status Status

	// Response carries whatever the task returned on success,
	// typically the remote system's document for the item.
	Response any

	// Err is the task's error when Status is StatusFailed.
	Err error
}

// Task performs one remote mutation for one item.
type Task func(ctx context.Context) (any, error)

// TaskConstructor builds the task for one item of a partition.
// Returning nil declines the item: it is recorded as skipped and
// nothing is dispatched for it. Constructors that decline should log
// the reason themselves.
type TaskConstructor func(key Key, item Fields) Task

// Callback is invoked once per item after every task of a partition has
// settled. A callback error is logged and does not affect the run.
type Callback func(key Key, item Fields, outcome Outcome) error
