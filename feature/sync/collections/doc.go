// Package collections implements the NetBox side of every synced resource.
//
// Each collection fetches its records from the API, projects them into
// keyed items for diffing, and declares which mutations it supports by
// implementing the corresponding capability interface:
//
//   - devices: create and update (deletion of a device is a manual call)
//   - interfaces: create, update and delete
//   - ipaddrs: create, update and delete
//   - sites: create only (site removal cascades in NetBox)
//   - portchans: LAG membership, attach/detach via interface PATCH
//
// Collections hold per-run state and are constructed fresh for every run
// via New. The LookupCache is the one piece of shared state: slug → id
// reference tables change rarely and may be reused across runs.
package collections
