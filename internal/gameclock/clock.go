// Package gameclock places per-period clock readings on a single game-seconds axis.
package gameclock

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fortuna/janus/internal/pbp"
)

// Unresolved is returned for any period/clock that fits no session rule
const Unresolved = -1

// ErrUnresolved marks a period/clock combination that could not be placed
var ErrUnresolved = errors.New("unresolved game time")

const (
	periodLength     = 1200
	regularOTLength  = 300
	shootoutOffset   = 3900
	playoffOT2Offset = 3800
)

// Resolve converts a period and elapsed period seconds to game seconds.
// Period 5 is a shootout in the regular season and a second overtime in the
// playoffs; every other period assumes 20 minute periods.
func Resolve(period, periodSeconds int, session pbp.Session) (int, error) {
	if period <= 0 || periodSeconds < 0 {
		return Unresolved, fmt.Errorf("%w: period %d, %ds", ErrUnresolved, period, periodSeconds)
	}
	if session != pbp.Regular && session != pbp.Playoff {
		return Unresolved, fmt.Errorf("%w: unknown session %q", ErrUnresolved, session)
	}

	if period == 5 {
		if session == pbp.Regular {
			return shootoutOffset + periodSeconds, nil
		}
		return playoffOT2Offset + periodSeconds, nil
	}

	return periodLength*(period-1) + periodSeconds, nil
}

// PeriodLength is the scheduled length of a period in seconds
func PeriodLength(period int, session pbp.Session) int {
	if session == pbp.Regular {
		switch {
		case period == 4:
			return regularOTLength
		case period >= 5:
			return 0
		}
	}
	return periodLength
}

// ParseClock parses "m:ss" or "mm:ss" into seconds. Trailing text after the
// seconds (a second clock, a stray dash) is ignored.
func ParseClock(s string) (int, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, "-", ""))
	if s == "" {
		return 0, fmt.Errorf("empty clock")
	}

	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock %q", s)
	}

	minutes, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, fmt.Errorf("invalid minutes in %q: %w", s, err)
	}

	secs := strings.TrimSpace(parts[1])
	if len(secs) > 2 {
		secs = secs[:2]
	}
	seconds, err := strconv.Atoi(secs)
	if err != nil {
		return 0, fmt.Errorf("invalid seconds in %q: %w", s, err)
	}

	return minutes*60 + seconds, nil
}

// FormatClock renders seconds as "m:ss"
func FormatClock(seconds int) string {
	if seconds < 0 {
		return ""
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// ParsePeriod reads a period label. "OT" is period 4 and "SO" period 5;
// an empty label defaults to the first period.
func ParsePeriod(s string) (int, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	switch s {
	case "":
		return 1, nil
	case "OT":
		return 4, nil
	case "SO":
		return 5, nil
	}
	p, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid period %q: %w", s, err)
	}
	return p, nil
}
