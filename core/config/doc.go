// Package config provides configuration management for netbox-sync.
//
// It utilizes Viper for loading configuration from environment variables
// and an optional .env file, with defaults declared as struct tags.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - NetBox: system-of-record address, API token, paging and rate limits
//   - Database: inventory MySQL connection details
//   - Storage: S3/MinIO credentials and the report archive bucket
//   - Server: HTTP server settings (port, API key)
//   - Sync: task concurrency, inventory profile, hostname normalization
//   - Log: logging level and format
//
// Environment variables map onto nested keys with underscores, so
// NETBOX_ADDR populates netbox.addr and SYNC_TASK_LIMIT populates
// sync.task_limit.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.NetBox.Addr)
package config
