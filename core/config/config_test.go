package config_test

import (
	"testing"

	"netbox-sync/core/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := config.LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "sync-reports", cfg.Storage.Bucket)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 100, cfg.NetBox.PageSize)
	assert.Equal(t, 100, cfg.NetBox.RateLimit)
	assert.Equal(t, 50, cfg.Sync.TaskLimit)
	assert.Equal(t, "standard", cfg.Sync.Profile)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("NETBOX_ADDR", "https://netbox.example.com")
	t.Setenv("NETBOX_TOKEN", "sekrit")
	t.Setenv("NETBOX_PAGE_SIZE", "25")
	t.Setenv("SYNC_TASK_LIMIT", "10")
	t.Setenv("SYNC_STRIP_DOMAINS", "example.com, lab.example.com")
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := config.LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "https://netbox.example.com", cfg.NetBox.Addr)
	assert.Equal(t, "sekrit", cfg.NetBox.Token)
	assert.Equal(t, 25, cfg.NetBox.PageSize)
	assert.Equal(t, 10, cfg.Sync.TaskLimit)
	assert.Equal(t, "9090", cfg.Server.Port)
}

func TestSyncConfig_StripDomainList(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"empty", "", nil},
		{"single", "example.com", []string{"example.com"}},
		{"trimmed", " example.com , lab.example.com ", []string{"example.com", "lab.example.com"}},
		{"skips blanks", "example.com,,", []string{"example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := config.SyncConfig{StripDomains: tt.raw}
			assert.Equal(t, tt.want, c.StripDomainList())
		})
	}
}
