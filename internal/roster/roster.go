// Package roster resolves jersey and name references against a game's roster.
package roster

import (
	"github.com/fortuna/janus/internal/pbp"
)

// Roster is an immutable, game-scoped lookup over roster entries
type Roster struct {
	game    pbp.Game
	entries []pbp.RosterEntry

	active  map[string]int
	scratch map[string]int
	byAPI   map[string]int
	byName  map[pbp.Venue]map[string]int
}

// New builds a roster. Entries keep the order they were given in; that
// order is the ordering used for on-ice snapshots.
func New(game pbp.Game, entries []pbp.RosterEntry) *Roster {
	r := &Roster{
		game:    game,
		entries: append([]pbp.RosterEntry(nil), entries...),
		active:  make(map[string]int),
		scratch: make(map[string]int),
		byAPI:   make(map[string]int),
		byName: map[pbp.Venue]map[string]int{
			pbp.Home: {},
			pbp.Away: {},
		},
	}

	for i, e := range r.entries {
		if e.Team == "" {
			r.entries[i].Team = game.Team(e.Venue)
			e = r.entries[i]
		}

		if e.Status == pbp.Scratch {
			r.scratch[e.TeamNum()] = i
		} else {
			r.active[e.TeamNum()] = i
		}
		if _, ok := r.byAPI[e.APIName]; !ok {
			r.byAPI[e.APIName] = i
		}
		if names, ok := r.byName[e.Venue]; ok {
			names[e.Name] = i
		}
	}

	return r
}

// Game returns the game the roster belongs to
func (r *Roster) Game() pbp.Game {
	return r.game
}

// Entries returns all entries in roster order
func (r *Roster) Entries() []pbp.RosterEntry {
	return r.entries
}

// Team returns the entries for one venue in roster order
func (r *Roster) Team(v pbp.Venue) []pbp.RosterEntry {
	var out []pbp.RosterEntry
	for _, e := range r.entries {
		if e.Venue == v {
			out = append(out, e)
		}
	}
	return out
}

// ByTeamNum resolves a "TOR34" reference, preferring active players over
// scratches
func (r *Roster) ByTeamNum(teamNum string) (pbp.RosterEntry, bool) {
	if i, ok := r.active[teamNum]; ok {
		return r.entries[i], true
	}
	if i, ok := r.scratch[teamNum]; ok {
		return r.entries[i], true
	}
	return pbp.RosterEntry{}, false
}

// ByJersey resolves a tri-code and jersey number
func (r *Roster) ByJersey(team string, jersey int) (pbp.RosterEntry, bool) {
	return r.ByTeamNum(pbp.TeamNum(team, jersey))
}

// ByAPIName resolves an api name
func (r *Roster) ByAPIName(apiName string) (pbp.RosterEntry, bool) {
	i, ok := r.byAPI[apiName]
	if !ok {
		return pbp.RosterEntry{}, false
	}
	return r.entries[i], true
}

// ByName resolves a canonical player name on one side
func (r *Roster) ByName(v pbp.Venue, name string) (pbp.RosterEntry, bool) {
	names, ok := r.byName[v]
	if !ok {
		return pbp.RosterEntry{}, false
	}
	i, ok := names[name]
	if !ok {
		return pbp.RosterEntry{}, false
	}
	return r.entries[i], true
}

// Position returns a player's position, or "" if unknown
func (r *Roster) Position(apiName string) string {
	if e, ok := r.ByAPIName(apiName); ok {
		return e.Position
	}
	return ""
}

// Player converts an entry to an event participant
func Player(e pbp.RosterEntry) pbp.Player {
	return pbp.Player{
		Name:     e.Name,
		APIName:  e.APIName,
		Jersey:   e.Jersey,
		Position: e.Position,
	}
}
