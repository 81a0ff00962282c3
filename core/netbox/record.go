package netbox

import (
	"strings"

	"netbox-sync/core/utils"
)

// Record is one decoded API document. NetBox list endpoints return these
// inside a count/results envelope; the shape varies per endpoint, so access
// goes through path helpers instead of typed structs.
type Record map[string]any

// ID returns the numeric primary key of the record, 0 when absent.
func (r Record) ID() int {
	return utils.ToInt(r["id"])
}

// Str walks nested objects along path and renders the leaf as a string.
// Missing keys, nil values and non-object intermediates yield "".
//
//	rec.Str("device_type", "manufacturer", "slug")
func (r Record) Str(path ...string) string {
	v, ok := r.lookup(path)
	if !ok || v == nil {
		return ""
	}
	return utils.ToString(v)
}

// Int walks nested objects along path and coerces the leaf to an int,
// 0 when absent.
func (r Record) Int(path ...string) int {
	v, ok := r.lookup(path)
	if !ok {
		return 0
	}
	return utils.ToInt(v)
}

// Has reports whether the full path exists and holds a non-nil value.
func (r Record) Has(path ...string) bool {
	v, ok := r.lookup(path)
	return ok && v != nil
}

func (r Record) lookup(path []string) (any, bool) {
	var cur any = map[string]any(r)
	for _, p := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// BareAddress strips the prefix length from a NetBox address value:
// "192.0.2.10/24" becomes "192.0.2.10". Addresses without a prefix pass
// through unchanged.
func BareAddress(addr string) string {
	if i := strings.IndexByte(addr, '/'); i >= 0 {
		return addr[:i]
	}
	return addr
}

// envelope is the list-endpoint response wrapper.
type envelope struct {
	Count   int      `json:"count"`
	Results []Record `json:"results"`
}
