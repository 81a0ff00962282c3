package netbox_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"netbox-sync/core/netbox"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, srvURL string, mutate func(*netbox.Config)) *netbox.Client {
	t.Helper()
	cfg := netbox.Config{
		Addr:     srvURL,
		Token:    "secret",
		PageSize: 100,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	client, err := netbox.New(cfg, zap.NewNop())
	require.NoError(t, err)
	return client
}

func TestNew_ConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     netbox.Config
		wantErr error
	}{
		{"missing addr", netbox.Config{Token: "secret"}, netbox.ErrAddrEmpty},
		{"missing token", netbox.Config{Addr: "http://netbox.local"}, netbox.ErrTokenEmpty},
		{"missing both reports addr first", netbox.Config{}, netbox.ErrAddrEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := netbox.New(tt.cfg, zap.NewNop())
			assert.Nil(t, client)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClient_AuthAndPaths(t *testing.T) {
	var gotAuth, gotAccept, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		gotPath = r.URL.Path
		fmt.Fprint(w, `{"id": 7, "name": "sw1"}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)

	resp, err := client.Get(context.Background(), "/dcim/devices/7/", nil)
	require.NoError(t, err)

	assert.Equal(t, "Token secret", gotAuth)
	assert.Equal(t, "application/json", gotAccept)
	assert.Equal(t, "/api/dcim/devices/7/", gotPath)

	rec, err := resp.Record()
	require.NoError(t, err)
	assert.Equal(t, 7, rec.ID())
	assert.Equal(t, "sw1", rec.Str("name"))
}

func TestClient_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"name": ["device with this name already exists."]}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)

	resp, err := client.Post(context.Background(), "/dcim/devices/", map[string]any{"name": "sw1"})
	assert.Nil(t, resp)
	require.Error(t, err)

	var se *netbox.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	assert.Equal(t, http.MethodPost, se.Method)
	assert.Contains(t, se.Body, "already exists")
	assert.True(t, netbox.IsStatus(err, http.StatusBadRequest))
}

// The permit pool must cap simultaneous in-flight requests no matter how
// many goroutines issue them.
func TestClient_PermitPoolBoundsConcurrency(t *testing.T) {
	const permits = 2
	const requests = 5

	var inFlight, maxInFlight int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cur := atomic.AddInt64(&inFlight, 1)
		for {
			prev := atomic.LoadInt64(&maxInFlight)
			if cur <= prev || atomic.CompareAndSwapInt64(&maxInFlight, prev, cur) {
				break
			}
		}
		time.Sleep(30 * time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, func(cfg *netbox.Config) {
		cfg.RateLimit = permits
	})

	var wg sync.WaitGroup
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.Get(context.Background(), "/dcim/devices/", nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt64(&maxInFlight), int64(permits))
	assert.Greater(t, atomic.LoadInt64(&maxInFlight), int64(0))
}

// A failing request must still return its permit, otherwise the pool drains
// and later requests hang.
func TestClient_PermitReleasedOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, func(cfg *netbox.Config) {
		cfg.RateLimit = 1
	})

	for i := 0; i < 3; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_, err := client.Get(ctx, "/dcim/devices/", nil)
		cancel()
		require.Error(t, err)
		require.False(t, errors.Is(err, context.DeadlineExceeded),
			"request %d blocked on a permit that was never released", i)
	}
}

func TestClient_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Get(ctx, "/dcim/devices/", nil)
	assert.Error(t, err)
}
