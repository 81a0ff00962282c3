// Package server holds the HTTP server configuration.
//
// While the serve command handles the actual startup, this package defines
// the configuration structure for server settings: the listen port and the
// API key guarding the sync endpoints.
package server
