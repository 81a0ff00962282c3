// Package database handles inventory database connections and schema inspection.
//
// It provides a wrapper around GORM (Go Object Relational Mapping) to properly configure
// MySQL connections based on the application's configuration.
//
// # Connect
//
// The Connect function establishes a connection to the inventory database. It is agnostic
// to the collector schema profile (standard, netdisco) regarding connection establishment,
// but the Schema Inspector relies on knowing the expected schema.
//
// # Schema Inspection
//
// The package includes tools to inspect the database schema, used by the
// preflight check. It allows retrieving table columns and reporting required
// columns that a schema profile expects but the database does not have.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	missing, err := database.MissingColumns(db, "devices", "hostname", "serial")
package database
