package discovery

import "codeberg.org/mutker/perfscope/internal/errors"

const (
	ErrPortsExhausted = errors.ErrorCode("discovery_no_port_available")
	ErrReadDatagram   = errors.ErrorCode("discovery_read_failed")
	ErrSendDatagram   = errors.ErrorCode("discovery_send_failed")
	ErrInvalidTarget  = errors.ErrorCode("discovery_invalid_target")
	ErrListInterfaces = errors.ErrorCode("discovery_list_interfaces_failed")
)

// ErrNoPortAvailable matches, via errors.Is, the error Listen returns when
// every port in the range is taken.
var ErrNoPortAvailable = errors.New().New(ErrPortsExhausted)
