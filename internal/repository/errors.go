package repository

import "errors"

// ErrNotFound is returned by write paths addressed to a user that does not exist.
// Single-record reads return (nil, nil) instead.
var ErrNotFound = errors.New("record not found")

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 200 {
		return 100
	}
	return limit
}
