// Package netbox is the rate-limited client for the NetBox REST API.
//
// # Transport
//
// Every request acquires one of a fixed pool of concurrency permits before
// touching the network and releases it when the call finishes, success or
// not. The pool is the single shared resource between all concurrent
// fetches and mutation tasks, which keeps the instance from being flooded
// no matter how much work the reconciliation layer schedules. Non-2xx
// responses surface as *StatusError; the client never retries.
//
// # Pagination
//
// List endpoints wrap results in a count/results envelope. Paginate probes
// with limit=1 to learn the count, then fetches all pages concurrently and
// reassembles them in page order. A failed page fails the whole call.
//
// # Lookups
//
// SlugTable, Device, DeviceTable and DeviceInterfaces are the building
// blocks the collections use to resolve references before dispatching
// mutations.
//
// # Usage
//
//	client, err := netbox.New(cfg.NetBox, log)
//	if err != nil {
//	    return err // missing address or token
//	}
//	devices, err := client.Paginate(ctx, netbox.PathDevices, nil)
package netbox
