// Package utils provides common utility functions for netbox-sync.
// It includes type coercion helpers for values coming out of loosely typed
// JSON documents and database rows, plus the hostname/slug normalization
// shared by the inventory and system-of-record sides.
package utils
