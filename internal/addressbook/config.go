package addressbook

import (
	"path/filepath"

	"codeberg.org/mutker/perfscope/internal/errors"
)

const (
	defaultDirPerm = 0o755
	DefaultLimit   = 20
)

type Config struct {
	Path      string
	BackupDir string
	Limit     int
	Enabled   bool
}

func DefaultConfig() Config {
	return Config{
		Limit:   DefaultLimit,
		Enabled: false, // in-memory only
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	if c.Limit <= 0 {
		return errFactory.WithData(ErrInvalidLimit, c.Limit)
	}
	// Only validate Path if persistence is enabled
	if c.Enabled && c.Path == "" {
		return errFactory.New(ErrInvalidDBPath)
	}
	return nil
}

func (c Config) backupDir() string {
	if c.BackupDir != "" {
		return c.BackupDir
	}
	return filepath.Join(filepath.Dir(c.Path), "backups")
}
