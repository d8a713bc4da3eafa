package domain

import "errors"

// ErrInvalidArgument marks caller input rejected before any work starts.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrNotFound marks lookups of entities that do not exist.
var ErrNotFound = errors.New("not found")
