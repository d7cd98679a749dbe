package addressbook

import (
	"database/sql"

	"codeberg.org/mutker/perfscope/internal/errors"
	"codeberg.org/mutker/perfscope/internal/logger"
)

const (
	SchemaVersion = 1

	createTablesSQL = `
	   CREATE TABLE IF NOT EXISTS schema_versions (
	       version     INTEGER PRIMARY KEY,
	       applied_at  TEXT NOT NULL
	   );
	   CREATE TABLE IF NOT EXISTS addresses (
	       id          INTEGER PRIMARY KEY AUTOINCREMENT,
	       addr        TEXT NOT NULL UNIQUE,
	       name        TEXT NOT NULL,
	       info        TEXT NOT NULL DEFAULT '',
	       active_at   INTEGER NOT NULL CHECK (typeof(active_at) = 'integer'),
	       created_at  INTEGER NOT NULL CHECK (typeof(created_at) = 'integer')
	   );
	   CREATE INDEX IF NOT EXISTS addresses_active_at ON addresses (active_at DESC);`

	touchAddressSQL = `
    INSERT INTO addresses (addr, name, info, active_at, created_at)
    VALUES (?, ?, ?, ?, ?)
    ON CONFLICT (addr) DO UPDATE SET
        active_at = excluded.active_at,
        info = CASE WHEN excluded.info = '' THEN addresses.info ELSE excluded.info END`

	pruneAddressesSQL = `
    DELETE FROM addresses
    WHERE id NOT IN (
        SELECT id FROM addresses
        ORDER BY active_at DESC, id DESC
        LIMIT ?
    )`

	selectAddressesSQL = `
    SELECT id, addr, name, info, active_at, created_at
    FROM addresses`
)

// InitSchema creates a new database schema with the current version
func InitSchema(db *sql.DB, log logger.Logger) error {
	errFactory := errors.New()

	log.Debug().Msg("Creating address book database...")

	tx, err := db.Begin()
	if err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil {
				if !errors.Is(err, sql.ErrTxDone) {
					log.Debug().Err(err).Msg("Failed to rollback transaction")
				}
			}
		}
	}()

	if _, err := tx.Exec(createTablesSQL); err != nil {
		return errFactory.WithData(ErrSchemaInitFailed, struct {
			Error string
			SQL   string
		}{
			Error: err.Error(),
			SQL:   createTablesSQL,
		})
	}

	if _, err := tx.Exec(`
        INSERT INTO schema_versions (version, applied_at)
        VALUES (?, datetime('now'))
    `, SchemaVersion); err != nil {
		return errFactory.WithData(ErrSchemaInitFailed, struct {
			Error string
			Phase string
		}{
			Error: err.Error(),
			Phase: "record_version",
		})
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}
	committed = true

	log.Info().
		Int("version", SchemaVersion).
		Msg("Address book schema initialized")

	return nil
}

// GetSchemaVersion returns the current schema version, 0 for an empty
// database.
func GetSchemaVersion(db *sql.DB) (int, error) {
	errFactory := errors.New()

	exists, err := TableExists(db, "schema_versions")
	if err != nil {
		return 0, errFactory.Wrap(ErrSchemaValidationFailed, err)
	}
	if !exists {
		return 0, nil
	}

	var version int
	err = db.QueryRow(`
        SELECT version
        FROM schema_versions
        ORDER BY version DESC
        LIMIT 1
    `).Scan(&version)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, errFactory.WithData(ErrSchemaValidationFailed, struct {
			Phase string
			Error string
		}{
			Phase: "get_version",
			Error: err.Error(),
		})
	}

	return version, nil
}

func TableExists(db *sql.DB, tableName string) (bool, error) {
	var exists bool
	err := db.QueryRow(`
        SELECT EXISTS (
            SELECT 1 FROM sqlite_master
            WHERE type='table' AND name=?
        )
    `, tableName).Scan(&exists)
	if err != nil {
		return false, errors.New().WithData(ErrSchemaValidationFailed, struct {
			Phase string
			Table string
			Error string
		}{
			Phase: "check_table_exists",
			Table: tableName,
			Error: err.Error(),
		})
	}
	return exists, nil
}
