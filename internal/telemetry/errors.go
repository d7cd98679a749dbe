package telemetry

import "codeberg.org/mutker/perfscope/internal/errors"

const (
	ErrMalformedFrame = errors.ErrorCode("telemetry_malformed_frame")
	ErrMissingField   = errors.ErrorCode("telemetry_missing_field")
	ErrUnknownField   = errors.ErrorCode("telemetry_unknown_field")
	ErrEnumOutOfRange = errors.ErrorCode("telemetry_enum_out_of_range")
)
