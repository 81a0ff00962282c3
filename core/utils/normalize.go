package utils

import (
	"strings"
	"unicode"
)

// NormalizeHostname lowercases and trims a hostname and strips any of the
// given domain suffixes. Inventory and system-of-record records must agree
// on the normalized form, otherwise keys derived from hostnames never line
// up and every device looks missing on one side.
func NormalizeHostname(name string, stripDomains ...string) string {
	h := strings.ToLower(strings.TrimSpace(name))
	for _, d := range stripDomains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		if !strings.HasPrefix(d, ".") {
			d = "." + d
		}
		if strings.HasSuffix(h, d) {
			h = strings.TrimSuffix(h, d)
			break
		}
	}
	return h
}

// Slugify converts a name into the slug form used for lookups and creates:
// lowercase, alphanumerics kept, every other run of characters collapsed
// into a single dash, no leading or trailing dash.
func Slugify(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
			continue
		}
		dash = true
	}
	return b.String()
}
