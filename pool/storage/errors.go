package storage

import "errors"

// ErrNoneHandle is returned when a store is asked to attach a value to the none handle.
var ErrNoneHandle = errors.New("storage: cannot set none handle")
