package reconciliation

import (
	"sort"

	"github.com/fortuna/janus/internal/pbp"
)

// matchKey identifies the same play in both sources
type matchKey struct {
	period      int
	gameSeconds int
	eventType   pbp.EventType
	eventTeam   string
	player1     string
	version     int
}

func keyOf(ev *pbp.Event) matchKey {
	return matchKey{
		period:      ev.Period,
		gameSeconds: ev.GameSeconds,
		eventType:   ev.Type,
		eventTeam:   ev.EventTeam,
		player1:     ev.Player1().APIName,
		version:     ev.Version,
	}
}

// versionKey groups otherwise identical events
type versionKey struct {
	period      int
	gameSeconds int
	eventTeam   string
	player1     string
	eventType   pbp.EventType
}

// AssignVersions numbers duplicates within each
// (period, game seconds, team, player 1, type) group in slice order,
// starting at 1
func AssignVersions(events []pbp.Event) []pbp.Event {
	seen := make(map[versionKey]int, len(events))
	for i := range events {
		ev := &events[i]
		k := versionKey{ev.Period, ev.GameSeconds, ev.EventTeam, ev.Player1().APIName, ev.Type}
		seen[k]++
		ev.Version = seen[k]
	}
	return events
}

// Order sets each event's priority and sorts by
// (period, game seconds, priority, original index)
func Order(events []pbp.Event, session pbp.Session) {
	for i := range events {
		ev := &events[i]
		ev.Priority = pbp.Priority(ev.Type, pbp.IsShootout(session, ev.Period))
	}

	sort.SliceStable(events, func(i, j int) bool {
		a, b := &events[i], &events[j]
		if a.Period != b.Period {
			return a.Period < b.Period
		}
		if a.GameSeconds != b.GameSeconds {
			return a.GameSeconds < b.GameSeconds
		}
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		return a.OrigIndex < b.OrigIndex
	})
}

// Reindex assigns dense 1-based event indexes in slice order
func Reindex(events []pbp.Event) {
	for i := range events {
		events[i].EventIdx = i + 1
	}
}
