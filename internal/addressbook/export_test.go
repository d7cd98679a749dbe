package addressbook

import (
	"time"

	"codeberg.org/mutker/perfscope/internal/logger"
)

func OpenWithClock(cfg Config, now func() time.Time) (Store, error) {
	return open(cfg, logger.Nop(), now)
}
