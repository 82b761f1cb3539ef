// Package database provides SQLite connectivity for Tracker Core.
//
// This package manages:
//   - Database connection with WAL mode so reads continue during uploads
//   - Schema migrations read from an fs.FS (normally the embedded migrations package)
//   - Connection lifecycle and health checks
//
// All queries issued by the repositories use parameterised statements.
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migrations are additive: new columns must be NULLABLE or have DEFAULT values,
// and every .up.sql file has a matching .down.sql.
package database
