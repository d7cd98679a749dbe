package panel

import "codeberg.org/mutker/perfscope/internal/errors"

const (
	ErrOpenPanel   = errors.ErrOpenPanel
	ErrClosePanel  = errors.ErrClosePanel
	ErrInvalidAddr = errors.ErrInvalidAddr
	ErrNoSession   = errors.ErrorCode("panel_no_session")
)
