// Package timeutil converts client timestamps to UTC instants.
package timeutil

import (
	"fmt"
	"time"
)

var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
}

// Parser reads ISO-8601 local date-times in a fixed zone.
type Parser struct {
	loc *time.Location
}

// NewParser creates a Parser for loc. A nil loc means time.Local.
func NewParser(loc *time.Location) *Parser {
	if loc == nil {
		loc = time.Local
	}
	return &Parser{loc: loc}
}

// ParseUTC parses s and returns the instant in UTC, truncated to the
// microsecond precision of TIMESTAMPTZ.
// Strings with an explicit offset (RFC 3339) keep that offset; local
// date-times without one are read in the parser's zone.
func (p *Parser) ParseUTC(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC().Truncate(time.Microsecond), nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, p.loc); err == nil {
			return t.UTC().Truncate(time.Microsecond), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date-time %q: expected ISO-8601 like 2025-05-05T00:00:00", s)
}
