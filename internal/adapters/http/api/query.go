package api

import (
	"fmt"
	"strconv"
)

const defaultListLimit = 20

// parseLimit reads a limit query value. Empty means defaultListLimit, capped
// at maxLimit.
func parseLimit(raw string, maxLimit int) (int, error) {
	if raw == "" {
		return min(defaultListLimit, maxLimit), nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("limit must be a positive integer, got %q", raw)
	}
	if n > maxLimit {
		return 0, fmt.Errorf("limit must be at most %d", maxLimit)
	}
	return n, nil
}

func parseBool(raw string, def bool) (bool, error) {
	if raw == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid boolean %q", raw)
	}
	return b, nil
}
