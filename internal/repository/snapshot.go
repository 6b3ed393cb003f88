package repository

import "errors"

// ErrSnapshotNotFound is returned by LoadClasses when nothing has been persisted yet.
var ErrSnapshotNotFound = errors.New("snapshot not found")
