package main

import (
	"fmt"
	"strconv"
)

// parseVersion accepts the numeric prefix of a migration file name.
func parseVersion(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("parse version %q: %w", s, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("version must not be negative, got %d", v)
	}
	return v, nil
}
