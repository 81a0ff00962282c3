package netbox

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"golang.org/x/sync/errgroup"
)

// SlugTable builds a slug → id lookup from a list endpoint. The collections
// resolve references (sites, device types, roles, platforms) through these
// tables once per run instead of per mutation.
func (c *Client) SlugTable(ctx context.Context, path string) (map[string]int, error) {
	records, err := c.Paginate(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	table := make(map[string]int, len(records))
	for _, rec := range records {
		slug := rec.Str("slug")
		if slug == "" {
			continue
		}
		table[slug] = rec.ID()
	}
	return table, nil
}

// Device fetches a single device record by exact name. A nil record with a
// nil error means NetBox has no such device.
func (c *Client) Device(ctx context.Context, name string) (Record, error) {
	resp, err := c.Get(ctx, PathDevices, url.Values{"name": []string{name}})
	if err != nil {
		return nil, err
	}
	var env envelope
	if err := resp.Decode(&env); err != nil {
		return nil, fmt.Errorf("netbox: decode device lookup: %w", err)
	}
	if len(env.Results) == 0 {
		return nil, nil
	}
	return env.Results[0], nil
}

// DeviceTable resolves many device names concurrently, bounded by the
// transport permits. Names with no match are simply absent from the result.
func (c *Client) DeviceTable(ctx context.Context, names []string) (map[string]Record, error) {
	table := make(map[string]Record, len(names))
	seen := make(map[string]struct{}, len(names))

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	for _, name := range names {
		if _, dup := seen[name]; dup || name == "" {
			continue
		}
		seen[name] = struct{}{}

		name := name
		g.Go(func() error {
			rec, err := c.Device(ctx, name)
			if err != nil {
				return err
			}
			if rec != nil {
				mu.Lock()
				table[name] = rec
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return table, nil
}

// DeviceInterfaces fetches all interface records of one device.
func (c *Client) DeviceInterfaces(ctx context.Context, device string) ([]Record, error) {
	return c.Paginate(ctx, PathInterfaces, url.Values{"device": []string{device}})
}

// InterfaceRef names one interface of one device for targeted lookups.
type InterfaceRef struct {
	Device string
	Name   string
}

// InterfaceTable resolves many (device, interface) pairs concurrently and
// returns the matching records keyed by the ref that was asked for, so
// callers can look results up by the names they hold. Pairs NetBox does
// not know are absent from the result.
func (c *Client) InterfaceTable(ctx context.Context, refs []InterfaceRef) (map[InterfaceRef]Record, error) {
	table := make(map[InterfaceRef]Record, len(refs))
	seen := make(map[InterfaceRef]struct{}, len(refs))

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	for _, ref := range refs {
		if _, dup := seen[ref]; dup || ref.Device == "" || ref.Name == "" {
			continue
		}
		seen[ref] = struct{}{}

		ref := ref
		g.Go(func() error {
			params := url.Values{}
			params.Set("device", ref.Device)
			params.Set("name", ref.Name)
			resp, err := c.Get(ctx, PathInterfaces, params)
			if err != nil {
				return err
			}
			var env envelope
			if err := resp.Decode(&env); err != nil {
				return fmt.Errorf("netbox: decode interface lookup: %w", err)
			}
			if len(env.Results) > 0 {
				mu.Lock()
				table[ref] = env.Results[0]
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return table, nil
}

// IPAddressTable resolves many addresses concurrently, keyed by the bare
// address without its prefix length. Addresses NetBox does not know are
// absent from the result.
func (c *Client) IPAddressTable(ctx context.Context, addrs []string) (map[string]Record, error) {
	table := make(map[string]Record, len(addrs))
	seen := make(map[string]struct{}, len(addrs))

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	for _, addr := range addrs {
		if _, dup := seen[addr]; dup || addr == "" {
			continue
		}
		seen[addr] = struct{}{}

		addr := addr
		g.Go(func() error {
			records, err := c.Paginate(ctx, PathIPAddresses, url.Values{"address": []string{addr}})
			if err != nil {
				return err
			}
			mu.Lock()
			for _, rec := range records {
				table[BareAddress(rec.Str("address"))] = rec
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return table, nil
}
