package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, device.ErrInvalidPattern) {
//	    // treat as a miss
//	}
var (
	// ErrDeviceNotFound is returned when a device name does not exist in a group.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrInvalidPattern is returned when a search pattern does not compile.
	ErrInvalidPattern = errors.New("device: invalid pattern")

	// ErrUnsupportedCommand is returned when a device does not support a command.
	ErrUnsupportedCommand = errors.New("device: unsupported command")
)
