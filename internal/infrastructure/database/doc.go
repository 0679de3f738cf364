// Package database provides the SQLite store behind entity state history
// and the command log.
//
// This package manages:
//   - Database connection with WAL mode so API reads run beside writes
//   - Versioned schema migrations read from any fs.FS
//   - Connection lifecycle and health checks
//
// Security Considerations:
//   - All queries use parameterised statements
//   - Database file permissions are set to 0600 (owner read/write only)
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    log.Fatal(err)
//	}
//
// Migration Strategy:
//
// Migrations are additive. Each file pair is
// YYYYMMDD_HHMMSS_description.up.sql and the optional .down.sql.
package database
