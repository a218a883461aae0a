package history

import "errors"

// ErrNotFound is returned when a record id does not exist in the log.
var ErrNotFound = errors.New("history record not found")
