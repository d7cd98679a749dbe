package addressbook

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"codeberg.org/mutker/perfscope/internal/errors"
	"codeberg.org/mutker/perfscope/internal/logger"
	_ "github.com/mattn/go-sqlite3"
)

type sqliteStore struct {
	db     *sql.DB
	logger logger.Logger
	cfg    Config
	now    func() time.Time
	mu     sync.Mutex
}

func newSQLiteStore(cfg Config, log logger.Logger, now func() time.Time) (*sqliteStore, error) {
	errFactory := errors.New()

	if err := os.MkdirAll(filepath.Dir(cfg.Path), defaultDirPerm); err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Path  string
			Error string
		}{
			Phase: "create_directory",
			Path:  cfg.Path,
			Error: err.Error(),
		})
	}

	dsn := cfg.Path + "?_journal=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Error string
		}{
			Phase: "open_database",
			Error: err.Error(),
		})
	}

	if err := ValidateAndUpdateSchema(db, cfg.backupDir(), log); err != nil {
		db.Close()
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	log.Info().
		Str("path", cfg.Path).
		Int("schema_version", SchemaVersion).
		Int("limit", cfg.Limit).
		Msg("Address book repository initialized")

	return &sqliteStore{db: db, logger: log, cfg: cfg, now: now}, nil
}

func (r *sqliteStore) List() ([]Entry, error) {
	rows, err := r.db.Query(selectAddressesSQL + " ORDER BY active_at DESC, id DESC")
	if err != nil {
		return nil, errors.New().Wrap(ErrStorageAccess, err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.New().Wrap(ErrStorageAccess, err)
	}

	return out, nil
}

func (r *sqliteStore) Find(addr string) (Entry, bool, error) {
	e, err := scanEntry(r.db.QueryRow(selectAddressesSQL+" WHERE addr = ?", addr))
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}

	return e, true, nil
}

func (r *sqliteStore) Touch(addr, info string) (Entry, error) {
	errFactory := errors.New()

	if addr == "" {
		return Entry{}, errFactory.New(ErrInvalidAddr)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return Entry{}, errFactory.Wrap(ErrTransactionFailed, err)
	}

	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
				r.logger.Error().Err(err).Msg("Failed to roll back transaction")
			}
		}
	}()

	now := r.now().UnixMilli()
	if _, err := tx.Exec(touchAddressSQL, addr, addr, info, now, now); err != nil {
		return Entry{}, errFactory.Wrap(ErrTransactionFailed, err)
	}

	res, err := tx.Exec(pruneAddressesSQL, r.cfg.Limit)
	if err != nil {
		return Entry{}, errFactory.Wrap(ErrTransactionFailed, err)
	}

	e, err := scanEntry(tx.QueryRow(selectAddressesSQL+" WHERE addr = ?", addr))
	if err != nil {
		return Entry{}, err
	}

	if err := tx.Commit(); err != nil {
		return Entry{}, errFactory.Wrap(ErrTransactionFailed, err)
	}
	committed = true

	if pruned, _ := res.RowsAffected(); pruned > 0 {
		r.logger.Debug().Int64("pruned", pruned).Msg("Evicted least recently active addresses")
	}

	return e, nil
}

func (r *sqliteStore) Delete(id int64) error {
	errFactory := errors.New()

	res, err := r.db.Exec("DELETE FROM addresses WHERE id = ?", id)
	if err != nil {
		return errFactory.Wrap(ErrStorageAccess, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errFactory.WithData(ErrEntryNotFound, id)
	}

	return nil
}

func (r *sqliteStore) Close() error {
	if _, err := r.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return errors.New().WithData(ErrStorageClose, struct {
			Phase string
			Error string
		}{
			Phase: "checkpoint_wal",
			Error: err.Error(),
		})
	}

	if err := r.db.Close(); err != nil {
		return errors.New().WithData(ErrStorageClose, struct {
			Phase string
			Error string
		}{
			Phase: "close_database",
			Error: err.Error(),
		})
	}

	r.logger.Debug().Msg("Address book closed")

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var (
		e                   Entry
		activeAt, createdAt int64
	)
	if err := row.Scan(&e.ID, &e.Addr, &e.Name, &e.Info, &activeAt, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, err
		}
		return Entry{}, errors.New().Wrap(ErrStorageAccess, err)
	}

	e.ActiveAt = time.UnixMilli(activeAt)
	e.CreatedAt = time.UnixMilli(createdAt)

	return e, nil
}
