package shifts

import (
	"errors"
	"fmt"

	"github.com/fortuna/janus/internal/pbp"
	"github.com/fortuna/janus/internal/roster"
)

// ErrNoShiftData means no on-ice state could be rebuilt for the game
var ErrNoShiftData = errors.New("no shift data")

// teamState tracks one side's on/off counters during the sweep
type teamState struct {
	order []pbp.Player
	index map[string]int
	count map[string]int
}

func newTeamState(entries []pbp.RosterEntry) *teamState {
	s := &teamState{
		index: make(map[string]int, len(entries)),
		count: make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		s.register(roster.Player(e))
	}
	return s
}

// register adds a player to the snapshot ordering if unseen
func (s *teamState) register(p pbp.Player) {
	if _, ok := s.index[p.APIName]; ok {
		return
	}
	s.index[p.APIName] = len(s.order)
	s.order = append(s.order, p)
}

// apply takes players off before putting players on, so a player listed in
// both stays on the ice. Counters never leave [0, 1].
func (s *teamState) apply(off, on []pbp.Player) {
	for _, p := range off {
		s.register(p)
		if s.count[p.APIName] > 0 {
			s.count[p.APIName]--
		}
	}
	for _, p := range on {
		s.register(p)
		if s.count[p.APIName] < 1 {
			s.count[p.APIName]++
		}
	}
}

// clear takes everyone off the ice
func (s *teamState) clear() {
	for k := range s.count {
		delete(s.count, k)
	}
}

func (s *teamState) snapshot() pbp.Snapshot {
	snap := pbp.Snapshot{Goalie: pbp.EmptyNet, EmptyNet: true}
	goalies := 0

	for _, p := range s.order {
		if s.count[p.APIName] != 1 {
			continue
		}
		snap.Players = append(snap.Players, p)
		if p.Position == "G" {
			if goalies == 0 {
				snap.Goalie = goalieName(p)
				snap.EmptyNet = false
			}
			goalies++
		}
	}

	snap.SkaterCount = len(snap.Players)
	if goalies > 0 {
		snap.SkaterCount--
	}
	return snap
}

func goalieName(p pbp.Player) string {
	if p.Name != "" {
		return p.Name
	}
	return p.APIName
}

// Replay walks the merged, ordered events and returns the on-ice snapshot
// of both teams at every event. A CHANGE is applied before its own snapshot
// is taken, so an event sees the lineup after every change ranked ahead of
// it.
func Replay(events []pbp.Event, r *roster.Roster) ([]pbp.OnIce, error) {
	game := r.Game()

	homeRoster := r.Team(pbp.Home)
	awayRoster := r.Team(pbp.Away)
	if len(homeRoster) == 0 {
		return nil, fmt.Errorf("%w: %s has no roster players", ErrNoShiftData, game.HomeTeam)
	}
	if len(awayRoster) == 0 {
		return nil, fmt.Errorf("%w: %s has no roster players", ErrNoShiftData, game.AwayTeam)
	}

	teams := map[pbp.Venue]*teamState{
		pbp.Home: newTeamState(homeRoster),
		pbp.Away: newTeamState(awayRoster),
	}

	snapshots := make([]pbp.OnIce, len(events))
	changes := 0
	populated := false

	for i, ev := range events {
		// shifts without an off record end with their period
		if i > 0 && ev.Period != events[i-1].Period {
			teams[pbp.Home].clear()
			teams[pbp.Away].clear()
		}

		if ev.Type == pbp.Change {
			venue, ok := game.TeamVenue(ev.EventTeam)
			if !ok {
				return nil, fmt.Errorf("%w: change for unknown team %q at event %d", ErrNoShiftData, ev.EventTeam, ev.EventIdx)
			}
			teams[venue].apply(ev.PlayersOff, ev.PlayersOn)
			changes++
		}

		snapshots[i] = pbp.OnIce{
			Home: teams[pbp.Home].snapshot(),
			Away: teams[pbp.Away].snapshot(),
		}
		if snapshots[i].Home.Count() > 0 || snapshots[i].Away.Count() > 0 {
			populated = true
		}
	}

	if changes == 0 {
		return nil, fmt.Errorf("%w: no line changes for game %d", ErrNoShiftData, game.GameID)
	}
	if !populated {
		return nil, fmt.Errorf("%w: nobody on ice for game %d", ErrNoShiftData, game.GameID)
	}

	return snapshots, nil
}
