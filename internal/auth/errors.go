package auth

import "errors"

// Sentinel errors for access control.
var (
	ErrInvalidLevel       = errors.New("auth: invalid access level")
	ErrNoUserGroups       = errors.New("auth: no user groups enabled")
	ErrUndefinedGroup     = errors.New("auth: user group not defined")
	ErrUnknownDeviceGroup = errors.New("auth: unknown device group")
	ErrEmptyUserGroup     = errors.New("auth: user group has no ids")
	ErrDuplicatePrincipal = errors.New("auth: principal in more than one user group")
	ErrDuplicateGroup     = errors.New("auth: user group enabled more than once")
	ErrTokenInvalid       = errors.New("auth: invalid token")
	ErrInsufficientLevel  = errors.New("auth: insufficient access level")
)
