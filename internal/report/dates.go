package report

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// ErrMissingRenewalDate signals a transfer asset without the renewal_date
// parameter. The date cannot be derived from anything else, so the run fails.
var ErrMissingRenewalDate = errors.New("missing renewal_date parameter")

const renewalPeriod = 365 * 24 * time.Hour

var slashDateRegex = regexp.MustCompile(`(.*)/(.*)/(.*)`)

// RenewalDate computes an asset's next renewal date.
//
// For "purchase" actions the base date is the asset creation timestamp; any
// other action is a transfer and the base date is the renewal_date parameter
// (ISO date, or slash-separated groups reordered to g3-g2-g1), normalized to
// UTC. In both cases: while the base is less than a 365-day period old the
// renewal is base+365d; afterwards it is the base date with its year replaced
// by now.year+1 (month and day preserved).
func RenewalDate(action, renewalParam, createdAt string, now time.Time) (time.Time, error) {
	var base time.Time
	if action == "purchase" {
		t, err := parseTimestamp(createdAt)
		if err != nil {
			return time.Time{}, fmt.Errorf("asset creation date %q: %w", createdAt, err)
		}
		base = t.UTC()
	} else {
		t, err := parseRenewalParam(renewalParam)
		if err != nil {
			return time.Time{}, err
		}
		base = t
	}

	if now.Before(base.Add(renewalPeriod)) {
		return base.Add(renewalPeriod), nil
	}
	return yearSubstitute(base, now.UTC().Year()+1), nil
}

// parseRenewalParam accepts ISO dates/timestamps and DD/MM/YYYY-style input.
// Slash-separated values are reassembled as group3-group2-group1 before
// parsing. The result is normalized to UTC (date-only input lands on UTC
// midnight).
func parseRenewalParam(value string) (time.Time, error) {
	if m := slashDateRegex.FindStringSubmatch(value); m != nil {
		value = m[3] + "-" + m[2] + "-" + m[1]
	}
	t, err := parseTimestamp(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("renewal date %q: %w", value, err)
	}
	return t.UTC(), nil
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format")
}

// yearSubstitute replaces the year of t, keeping all other components.
// Feb 29 in a non-leap target year normalizes to Mar 1.
func yearSubstitute(t time.Time, year int) time.Time {
	return time.Date(year, t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
