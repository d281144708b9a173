package repository

import "errors"

// ErrNotFound is returned by every task storage when the requested id does
// not exist. Callers must compare with errors.Is.
var ErrNotFound = errors.New("task not found")
