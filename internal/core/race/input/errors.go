package input

import "errors"

var ErrInvalidScript = errors.New("invalid input script")
