// Package shifts turns time-on-ice rows into line changes and replays them
// over the merged event timeline to find who is on the ice.
package shifts

import (
	"sort"
	"strings"

	"github.com/fortuna/janus/internal/gameclock"
	"github.com/fortuna/janus/internal/pbp"
	"github.com/fortuna/janus/internal/roster"
)

// NameNormalizer canonicalizes a raw player name
type NameNormalizer interface {
	NormalizeName(raw string) string
}

// BuildIntervals resolves shift rows into intervals in period seconds.
// A missing end is derived from the duration or closed at the period
// boundary, an end before the start is clamped to the period end, and
// zero-length shifts are dropped. Overlapping shifts of one player are
// folded into one interval.
func BuildIntervals(game pbp.Game, rows []pbp.ShiftRow, names NameNormalizer, r *roster.Roster) []pbp.ShiftInterval {
	intervals := make([]pbp.ShiftInterval, 0, len(rows))

	for _, row := range rows {
		period, err := gameclock.ParsePeriod(row.Period)
		if err != nil || period <= 0 {
			continue
		}

		start, err := gameclock.ParseClock(firstClock(row.StartTime))
		if err != nil {
			continue
		}

		periodEnd := gameclock.PeriodLength(period, game.Session)
		end, ok := shiftEnd(row, start, periodEnd)
		if !ok {
			continue
		}
		if start > end {
			end = periodEnd
		}
		if start >= end {
			continue
		}

		in := pbp.ShiftInterval{
			Team:   game.Team(row.Venue),
			Venue:  row.Venue,
			Jersey: row.Jersey,
			Period: period,
			Start:  start,
			End:    end,
		}
		resolvePlayer(&in, row, names, r)

		intervals = append(intervals, in)
	}

	return foldOverlaps(intervals)
}

func shiftEnd(row pbp.ShiftRow, start, periodEnd int) (int, bool) {
	raw := firstClock(row.EndTime)
	if raw != "" && !strings.Contains(row.EndTime, "\u00a0") {
		if end, err := gameclock.ParseClock(raw); err == nil {
			return end, true
		}
	}

	if d, err := gameclock.ParseClock(firstClock(row.Duration)); err == nil {
		return start + d, true
	}

	if periodEnd > 0 {
		return periodEnd, true
	}
	return 0, false
}

// firstClock keeps the elapsed half of an "elapsed / remaining" cell
func firstClock(s string) string {
	s, _, _ = strings.Cut(s, "/")
	return strings.TrimSpace(strings.Trim(s, "\u00a0"))
}

func resolvePlayer(in *pbp.ShiftInterval, row pbp.ShiftRow, names NameNormalizer, r *roster.Roster) {
	name := names.NormalizeName(row.Player)
	in.Name = name
	in.Player = name

	if r == nil {
		return
	}
	if e, ok := r.ByName(row.Venue, name); ok {
		in.Player = e.APIName
		in.Position = e.Position
		return
	}
	if e, ok := r.ByJersey(in.Team, row.Jersey); ok {
		in.Name = e.Name
		in.Player = e.APIName
		in.Position = e.Position
	}
}

// foldOverlaps merges intervals of the same player that overlap in time.
// Intervals that only touch are kept apart.
func foldOverlaps(intervals []pbp.ShiftInterval) []pbp.ShiftInterval {
	type key struct {
		venue  pbp.Venue
		player string
		period int
	}

	byPlayer := make(map[key][]int)
	var order []key
	for i, in := range intervals {
		k := key{in.Venue, in.Player, in.Period}
		if _, ok := byPlayer[k]; !ok {
			order = append(order, k)
		}
		byPlayer[k] = append(byPlayer[k], i)
	}

	out := make([]pbp.ShiftInterval, 0, len(intervals))
	for _, k := range order {
		idx := byPlayer[k]
		sort.SliceStable(idx, func(a, b int) bool {
			return intervals[idx[a]].Start < intervals[idx[b]].Start
		})

		cur := intervals[idx[0]]
		for _, i := range idx[1:] {
			next := intervals[i]
			if next.Start < cur.End {
				if next.End > cur.End {
					cur.End = next.End
				}
				continue
			}
			out = append(out, cur)
			cur = next
		}
		out = append(out, cur)
	}

	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Period != out[b].Period {
			return out[a].Period < out[b].Period
		}
		return out[a].Start < out[b].Start
	})
	return out
}
