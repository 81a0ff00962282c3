package netbox

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Paginate fetches every record of a list endpoint. It first issues a probe
// request with limit=1 to learn the authoritative total from the envelope,
// then fans out all page requests at once and reassembles the results in
// page order. The transport's permit pool is what actually bounds the
// fan-out.
//
// Each page request gets its own copy of the filter parameters. The copies
// matter: a shared Values mutated per page would leave every concurrent
// request reading the last offset written.
//
// Any failing request fails the whole call; no partial result is returned.
func (c *Client) Paginate(ctx context.Context, path string, filters url.Values) ([]Record, error) {
	probe := cloneValues(filters)
	probe.Set("limit", "1")

	resp, err := c.Get(ctx, path, probe)
	if err != nil {
		return nil, err
	}
	var env envelope
	if err := resp.Decode(&env); err != nil {
		return nil, fmt.Errorf("netbox: decode %s envelope: %w", path, err)
	}

	count := env.Count
	if count == 0 {
		return nil, nil
	}

	pages := (count + c.pageSize - 1) / c.pageSize
	byPage := make([][]Record, pages)

	g, ctx := errgroup.WithContext(ctx)
	for page := 0; page < pages; page++ {
		params := cloneValues(filters)
		params.Set("limit", strconv.Itoa(c.pageSize))
		params.Set("offset", strconv.Itoa(page*c.pageSize))

		page := page
		g.Go(func() error {
			resp, err := c.Get(ctx, path, params)
			if err != nil {
				return err
			}
			var env envelope
			if err := resp.Decode(&env); err != nil {
				return fmt.Errorf("netbox: decode %s envelope: %w", path, err)
			}
			byPage[page] = env.Results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	pagesFetchedTotal.Add(float64(pages))

	records := make([]Record, 0, count)
	for _, page := range byPage {
		records = append(records, page...)
	}

	c.log.Debug("paginated fetch complete",
		zap.String("path", path),
		zap.Int("count", count),
		zap.Int("pages", pages),
		zap.Int("records", len(records)),
	)
	return records, nil
}

// cloneValues copies query parameters so concurrent requests never share
// backing storage.
func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v)+2)
	for key, vals := range v {
		cp := make([]string, len(vals))
		copy(cp, vals)
		out[key] = cp
	}
	return out
}
