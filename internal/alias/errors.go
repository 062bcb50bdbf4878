package alias

import "errors"

// ErrInvalidRule is returned when a configured alias rule is not a
// [pattern, replacement] pair or its pattern does not compile.
var ErrInvalidRule = errors.New("alias: invalid rule")
