package cache

import "errors"

var (
	ErrUnknownKind     = errors.New("unknown cache key kind")
	ErrIncompleteValue = errors.New("incomplete cache value")
)
