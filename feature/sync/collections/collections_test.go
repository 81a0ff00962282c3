package collections_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"netbox-sync/core/netbox"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// apiCall is one request the fake API observed.
type apiCall struct {
	Method string
	Path   string
	Query  url.Values
	Body   map[string]any
}

// fakeAPI fakes the NetBox REST API over static per-path datasets. List
// requests honor the limit/offset envelope contract and the handful of
// filters the collections use; mutations are recorded and answered with
// a canned document.
type fakeAPI struct {
	mu    sync.Mutex
	lists map[string][]map[string]any
	calls []apiCall

	srv *httptest.Server
}

func newFakeAPI(lists map[string][]map[string]any) *fakeAPI {
	f := &fakeAPI{lists: lists}
	f.srv = httptest.NewServer(http.HandlerFunc(f.handle))
	return f
}

func (f *fakeAPI) Close() { f.srv.Close() }

func (f *fakeAPI) client(t *testing.T) *netbox.Client {
	t.Helper()
	client, err := netbox.New(netbox.Config{
		Addr:     f.srv.URL,
		Token:    "secret",
		PageSize: 100,
	}, zap.NewNop())
	require.NoError(t, err)
	return client
}

func (f *fakeAPI) handle(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api")
	q := r.URL.Query()

	call := apiCall{Method: r.Method, Path: path, Query: q}
	if r.Body != nil {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			call.Body = body
		}
	}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()

	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"id": 999})
		return
	}

	var matched []map[string]any
	for _, rec := range f.lists[path] {
		if listMatches(netbox.Record(rec), q) {
			matched = append(matched, rec)
		}
	}

	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	if limit <= 0 {
		limit = len(matched)
	}
	page := []map[string]any{}
	for i := offset; i < offset+limit && i < len(matched); i++ {
		page = append(page, matched[i])
	}
	json.NewEncoder(w).Encode(map[string]any{"count": len(matched), "results": page})
}

// listMatches applies the filters the collections actually send. Unknown
// parameters and the pagination envelope are ignored.
func listMatches(rec netbox.Record, q url.Values) bool {
	for key, values := range q {
		want := values[0]
		switch key {
		case "limit", "offset", "exclude", "name__n":
			continue
		case "lag_id":
			if strconv.Itoa(rec.Int("lag", "id")) != want {
				return false
			}
		case "address":
			// NetBox matches the address filter with or without a mask.
			if netbox.BareAddress(rec.Str("address")) != netbox.BareAddress(want) {
				return false
			}
		default:
			if !fieldMatches(rec, key, want) {
				return false
			}
		}
	}
	return true
}

func fieldMatches(rec netbox.Record, key, want string) bool {
	for _, path := range [][]string{{key}, {key, "name"}, {key, "value"}, {key, "slug"}} {
		if v := rec.Str(path...); v != "" {
			return v == want
		}
	}
	return false
}

// seen returns the observed calls matching method and path. Empty
// arguments match anything.
func (f *fakeAPI) seen(method, path string) []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []apiCall
	for _, c := range f.calls {
		if method != "" && c.Method != method {
			continue
		}
		if path != "" && c.Path != path {
			continue
		}
		out = append(out, c)
	}
	return out
}
