// Package sync composes the inventory origin, the NetBox collections
// and the reconciliation driver into runnable sync cycles.
//
// A cycle either plans (fetch and diff, no mutations) or runs (full
// dispatch). Every cycle gets a run id; finished runs are summarized in
// a RunReport which is archived to object storage and kept in memory
// for the status endpoint. Serve mode exposes the cycles over HTTP.
package sync
