// Package addressbook remembers the devices the panel has talked to.
package addressbook

import (
	"time"

	"codeberg.org/mutker/perfscope/internal/errors"
	"codeberg.org/mutker/perfscope/internal/logger"
)

// Open returns a sqlite backed store when persistence is enabled and an
// in-memory store otherwise.
func Open(cfg Config, log logger.Logger) (Store, error) {
	return open(cfg, log, time.Now)
}

func open(cfg Config, log logger.Logger, now func() time.Time) (Store, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	if !cfg.Enabled {
		log.Debug().Int("limit", cfg.Limit).Msg("Address book persistence disabled, using memory store")
		return newMemoryStore(cfg.Limit, now), nil
	}

	store, err := newSQLiteStore(cfg, log, now)
	if err != nil {
		log.Debug().Err(err).Msg("Failed to open address book")
		return nil, err
	}

	log.Debug().
		Str("db_path", cfg.Path).
		Int("limit", cfg.Limit).
		Msg("Address book opened")

	return store, nil
}
