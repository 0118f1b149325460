package track

import "errors"

var ErrInvalidTrack = errors.New("invalid track geometry")
