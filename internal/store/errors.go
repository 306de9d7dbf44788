package store

import "errors"

// ErrNotFound is returned when a record lookup misses.
var ErrNotFound = errors.New("record not found")

// ErrSchemaMismatch indicates the database was created by an
// incompatible margin version.
var ErrSchemaMismatch = errors.New("schema version mismatch")
