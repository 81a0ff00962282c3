package collections_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"netbox-sync/core/netbox"
	"netbox-sync/feature/sync/collections"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupCache_ReusesWithinTTL(t *testing.T) {
	api := newFakeAPI(map[string][]map[string]any{
		netbox.PathSites: {
			{"id": 1, "slug": "atl"},
			{"id": 2, "slug": "chi"},
		},
	})
	defer api.Close()
	client := api.client(t)

	cache := collections.NewLookupCache(time.Minute)

	table, err := cache.SlugTable(context.Background(), client, netbox.PathSites)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"atl": 1, "chi": 2}, table)

	fetched := len(api.seen(http.MethodGet, netbox.PathSites))

	again, err := cache.SlugTable(context.Background(), client, netbox.PathSites)
	require.NoError(t, err)
	assert.Equal(t, table, again)
	assert.Len(t, api.seen(http.MethodGet, netbox.PathSites), fetched,
		"a cached table must not be fetched again within its TTL")
}

func TestLookupCache_ZeroTTLAlwaysFetches(t *testing.T) {
	api := newFakeAPI(map[string][]map[string]any{
		netbox.PathPlatforms: {{"id": 1, "slug": "ios"}},
	})
	defer api.Close()
	client := api.client(t)

	cache := collections.NewLookupCache(0)

	_, err := cache.SlugTable(context.Background(), client, netbox.PathPlatforms)
	require.NoError(t, err)
	first := len(api.seen(http.MethodGet, netbox.PathPlatforms))

	_, err = cache.SlugTable(context.Background(), client, netbox.PathPlatforms)
	require.NoError(t, err)
	assert.Greater(t, len(api.seen(http.MethodGet, netbox.PathPlatforms)), first)
}

func TestLookupCache_Invalidate(t *testing.T) {
	api := newFakeAPI(map[string][]map[string]any{
		netbox.PathDeviceTypes: {{"id": 1, "slug": "c9300"}},
	})
	defer api.Close()
	client := api.client(t)

	cache := collections.NewLookupCache(time.Hour)

	_, err := cache.SlugTable(context.Background(), client, netbox.PathDeviceTypes)
	require.NoError(t, err)
	first := len(api.seen(http.MethodGet, netbox.PathDeviceTypes))

	cache.Invalidate()

	_, err = cache.SlugTable(context.Background(), client, netbox.PathDeviceTypes)
	require.NoError(t, err)
	assert.Greater(t, len(api.seen(http.MethodGet, netbox.PathDeviceTypes)), first)
}
