package config

import (
	"reflect"
	"strings"

	"netbox-sync/core/database"
	"netbox-sync/core/logger"
	"netbox-sync/core/netbox"
	"netbox-sync/core/server"
	"netbox-sync/core/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Storage holds configuration for the object storage (e.g., S3, Minio)
	// where run reports are archived.
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the inventory database connection.
	Database database.Config `mapstructure:"database"`
	// NetBox holds configuration for the system-of-record API client.
	NetBox netbox.Config `mapstructure:"netbox"`
	// Sync holds configuration for reconciliation runs.
	Sync SyncConfig `mapstructure:"sync"`
}

// SyncConfig holds settings that shape reconciliation runs. It lives here
// rather than in one feature package because both the inventory loaders and
// the sync service consume it.
type SyncConfig struct {
	// TaskLimit caps how many mutation tasks may be in flight at once.
	// This is separate from (and normally smaller than) the transport's
	// request permit pool, since one task can issue several requests.
	TaskLimit int `mapstructure:"task_limit" default:"50"`
	// Profile selects the inventory schema profile (see feature/sync/inventory).
	Profile string `mapstructure:"profile" default:"standard"`
	// StripDomains is a comma-separated list of DNS suffixes removed during
	// hostname normalization, e.g. "example.com,lab.example.com".
	StripDomains string `mapstructure:"strip_domains" default:""`
}

// StripDomainList returns StripDomains split and trimmed.
func (c SyncConfig) StripDomainList() []string {
	if c.StripDomains == "" {
		return nil
	}
	parts := strings.Split(c.StripDomains, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env file if it exists
	// We construct the path to .env
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. NETBOX_ADDR -> netbox.addr)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	// If it's a pointer, get the element
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		// Skip if no tag
		if tag == "" {
			continue
		}

		// Build the key
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		// If it's a nested struct, recurse
		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		defaultValue := field.Tag.Get("default")
		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, defaultValue)
	}
}
