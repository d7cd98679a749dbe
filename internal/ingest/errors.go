package ingest

import "codeberg.org/mutker/perfscope/internal/errors"

const (
	ErrHandshakeTimeout  = errors.ErrorCode("ingest_handshake_timeout")
	ErrHandshakeCanceled = errors.ErrorCode("ingest_handshake_canceled")
	ErrUnknownPayload    = errors.ErrorCode("ingest_unknown_payload")
	ErrForeignProduct    = errors.ErrorCode("ingest_foreign_product")
)
