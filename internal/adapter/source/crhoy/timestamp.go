package crhoy

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fairyhunter13/crhoy-crawler/internal/domain"
)

// spanishMonths maps lowercase Spanish month names to month numbers.
var spanishMonths = map[string]time.Month{
	"enero":      time.January,
	"febrero":    time.February,
	"marzo":      time.March,
	"abril":      time.April,
	"mayo":       time.May,
	"junio":      time.June,
	"julio":      time.July,
	"agosto":     time.August,
	"septiembre": time.September,
	"octubre":    time.October,
	"noviembre":  time.November,
	"diciembre":  time.December,
}

// ParseTimestamp converts the index's human-readable date and hour strings,
// e.g. "Febrero 6, 2025" and " 9:01 am ", into a timestamp in loc.
func ParseTimestamp(dateStr, hourStr string, loc *time.Location) (time.Time, error) {
	parts := strings.Fields(strings.ReplaceAll(strings.ToLower(dateStr), ",", " "))
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("op=crhoy.parse_timestamp: bad date %q: %w", dateStr, domain.ErrSchemaInvalid)
	}
	month, ok := spanishMonths[parts[0]]
	if !ok {
		return time.Time{}, fmt.Errorf("op=crhoy.parse_timestamp: unknown month %q: %w", parts[0], domain.ErrSchemaInvalid)
	}
	day, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("op=crhoy.parse_timestamp: bad day %q: %w", parts[1], domain.ErrSchemaInvalid)
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("op=crhoy.parse_timestamp: bad year %q: %w", parts[2], domain.ErrSchemaInvalid)
	}

	h := strings.ToLower(strings.TrimSpace(hourStr))
	isPM := strings.Contains(h, "pm")
	h = strings.TrimSpace(strings.NewReplacer("am", "", "pm", "").Replace(h))
	hm := strings.Split(h, ":")
	if len(hm) != 2 {
		return time.Time{}, fmt.Errorf("op=crhoy.parse_timestamp: bad hour %q: %w", hourStr, domain.ErrSchemaInvalid)
	}
	hour, err := strconv.Atoi(strings.TrimSpace(hm[0]))
	if err != nil {
		return time.Time{}, fmt.Errorf("op=crhoy.parse_timestamp: bad hour %q: %w", hourStr, domain.ErrSchemaInvalid)
	}
	minute, err := strconv.Atoi(strings.TrimSpace(hm[1]))
	if err != nil {
		return time.Time{}, fmt.Errorf("op=crhoy.parse_timestamp: bad minute %q: %w", hourStr, domain.ErrSchemaInvalid)
	}
	if isPM && hour != 12 {
		hour += 12
	} else if !isPM && hour == 12 {
		hour = 0
	}
	return time.Date(year, month, day, hour, minute, 0, 0, loc), nil
}
