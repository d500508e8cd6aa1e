package parser

import (
	"fmt"
	"time"
)

// timestampLayout is the canonical Source-engine stamp format, parsed
// as local civil time.
const timestampLayout = "01/02/2006 - 15:04:05"

// parseTimestamp parses a "MM/DD/YYYY - HH:MM:SS" stamp as local time.
func parseTimestamp(raw string) (time.Time, error) {
	t, err := time.ParseInLocation(timestampLayout, raw, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", raw, err)
	}
	return t, nil
}
