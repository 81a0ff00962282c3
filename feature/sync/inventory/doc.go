// Package inventory loads the origin side of a reconciliation run from
// the local inventory database.
//
// The inventory is populated by an external collector and is treated as
// the source of truth. This package projects its rows into the same
// keyed item shape the NetBox collections produce, so both sides of a
// diff speak identical field names.
//
// Collectors export differing table layouts; a Profile names the tables
// and required columns for one layout. The loader is read-only and runs
// before the reconciliation driver starts.
package inventory
