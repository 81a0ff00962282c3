package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeHostname(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		domains []string
		want    string
	}{
		{"lowercases", "SW1-Lab", nil, "sw1-lab"},
		{"trims whitespace", "  core1 ", nil, "core1"},
		{"strips domain", "core1.example.com", []string{"example.com"}, "core1"},
		{"strips dotted domain", "core1.example.com", []string{".example.com"}, "core1"},
		{"first matching domain wins", "core1.lab.net", []string{"lab.net", "net"}, "core1"},
		{"unrelated domain kept", "core1.other.net", []string{"example.com"}, "core1.other.net"},
		{"empty input", "", []string{"example.com"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeHostname(tt.in, tt.domains...))
		})
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Atlanta", "atlanta"},
		{"spaces", "New York One", "new-york-one"},
		{"punctuation collapsed", "DC / East (2)", "dc-east-2"},
		{"already slug", "dc-east-2", "dc-east-2"},
		{"leading and trailing junk", "  --Lab-- ", "lab"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}
