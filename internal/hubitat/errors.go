package hubitat

import "errors"

var (
	// ErrNotConfigured is returned when the hub url or app id is still the
	// template placeholder.
	ErrNotConfigured = errors.New("hubitat: url and appid must be set")

	// ErrAPI is returned when the Maker API answers with a non-200 status.
	ErrAPI = errors.New("hubitat: api error")

	// ErrNoDeviceGroups is returned when no device group is enabled.
	ErrNoDeviceGroups = errors.New("hubitat: at least one device group must be enabled")

	// ErrUndefinedGroup is returned when an enabled device group has no
	// definition.
	ErrUndefinedGroup = errors.New("hubitat: device group not defined")

	// ErrDuplicateGroup is returned when enabled_device_groups names a group
	// more than once.
	ErrDuplicateGroup = errors.New("hubitat: device group enabled more than once")
)
