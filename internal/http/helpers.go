package http

import (
	"fmt"
	"slices"
	"strings"

	"bizdash/internal/core"
)

// sanitizeInput trims whitespace and strips control characters other than
// tab and newlines.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}

// summaryKey identifies a cached dashboard summary. Alerts and client
// status are computed as of today, and dismissed alerts are left out, so
// both are part of the key.
func summaryKey(period core.Period, today core.Date, dismissed []string) string {
	ids := slices.Clone(dismissed)
	slices.Sort(ids)
	ids = slices.Compact(ids)
	key := fmt.Sprintf("summary:%s@%s", period, today)
	if len(ids) > 0 {
		key += ":" + strings.Join(ids, ",")
	}
	return key
}
