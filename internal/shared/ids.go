package shared

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseID converts a path or body identifier into its numeric form.
// A malformed value yields ErrInvalidID so callers can answer 400 rather
// than 404.
func ParseID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: empty id", ErrInvalidID)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, raw)
	}
	return id, nil
}
