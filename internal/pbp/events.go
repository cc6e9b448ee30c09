package pbp

import (
	"fmt"
	"math"
)

// EventType is the canonical event vocabulary
type EventType string

const (
	Goal      EventType = "GOAL"
	Shot      EventType = "SHOT"
	Miss      EventType = "MISS"
	Block     EventType = "BLOCK"
	Faceoff   EventType = "FAC"
	Hit       EventType = "HIT"
	Giveaway  EventType = "GIVE"
	Takeaway  EventType = "TAKE"
	Penalty   EventType = "PENL"
	Change    EventType = "CHANGE"
	Stop      EventType = "STOP"
	GameStart EventType = "PGSTR"
	GameEnd   EventType = "PGEND"
	PeriodEnd EventType = "PEND"
	GameOver  EventType = "GEND"
	PeriodBeg EventType = "PSTR"
	DelayPen  EventType = "DELPEN"
	Anthem    EventType = "ANTHEM"

	// ShootoutEnd closes a shootout in the HTML report
	ShootoutEnd EventType = "SOC"
)

// IsFenwick reports unblocked shot attempts
func (t EventType) IsFenwick() bool {
	return t == Shot || t == Goal || t == Miss
}

// IsCorsi reports all shot attempts
func (t EventType) IsCorsi() bool {
	return t.IsFenwick() || t == Block
}

var priorities = map[EventType]int{
	GameStart: 1,
	GameEnd:   2,
	Anthem:    3,
	Takeaway:  4,
	Giveaway:  4,
	Miss:      4,
	Hit:       4,
	Shot:      4,
	Block:     4,
	Goal:      5,
	Stop:      6,
	DelayPen:  7,
	Penalty:   8,
	PeriodBeg: 9,
	Change:    10,
	PeriodEnd: 11,
	GameOver:  13,
	Faceoff:   14,
}

// Unordered is the priority of events the table does not rank; they sort
// after every ranked event at the same time
const Unordered = math.MaxInt16

// Priority returns the tie-break rank of an event type. During a shootout
// only PSTR is ranked.
func Priority(t EventType, shootout bool) int {
	if shootout {
		if t == PeriodBeg {
			return 1
		}
		return Unordered
	}
	if p, ok := priorities[t]; ok {
		return p
	}
	return Unordered
}

// IsShootout reports whether a period is a regular-season shootout
func IsShootout(session Session, period int) bool {
	return session == Regular && period == 5
}

// TeamNum builds the "TOR34" style roster key
func TeamNum(team string, jersey int) string {
	return fmt.Sprintf("%s%d", team, jersey)
}

// Event is a canonical play-by-play event. Stages after the merge treat it
// as read-only.
type Event struct {
	EventIdx      int       `json:"event_idx"`
	Period        int       `json:"period"`
	PeriodSeconds int       `json:"period_seconds"`
	GameSeconds   int       `json:"game_seconds"`
	Time          string    `json:"time"`
	Type          EventType `json:"event"`
	Description   string    `json:"description"`
	Detail        string    `json:"event_detail,omitempty"`
	DetailAPI     string    `json:"event_detail_api,omitempty"`
	EventTeam     string    `json:"event_team,omitempty"`
	OppTeam       string    `json:"opp_team,omitempty"`
	Strength      string    `json:"strength,omitempty"`
	Players       [4]Player `json:"players"`
	CoordsX       *float64  `json:"coords_x,omitempty"`
	CoordsY       *float64  `json:"coords_y,omitempty"`
	Zone          string    `json:"event_zone,omitempty"`
	PbpDistance   *float64  `json:"pbp_distance,omitempty"`

	PenaltyType     string `json:"penalty_type,omitempty"`
	PenaltySeverity string `json:"penalty_severity,omitempty"`
	PenaltyMinutes  int    `json:"penalty_minutes,omitempty"`
	Datetime        string `json:"datetime,omitempty"`

	HomeSkaterCount int `json:"home_skater_count_report,omitempty"`
	AwaySkaterCount int `json:"away_skater_count_report,omitempty"`

	// Substitution detail, CHANGE events only
	PlayersOn  []Player `json:"players_on,omitempty"`
	PlayersOff []Player `json:"players_off,omitempty"`

	Priority  int    `json:"priority"`
	Version   int    `json:"version"`
	Origin    Source `json:"source_origin"`
	OrigIndex int    `json:"-"`
}

// Player1 is the primary actor
func (e *Event) Player1() Player { return e.Players[0] }

// Player2 is the secondary actor
func (e *Event) Player2() Player { return e.Players[1] }

// Player3 is the tertiary actor
func (e *Event) Player3() Player { return e.Players[2] }

// TimeResolved is false when the period/clock could not be placed on the
// game clock
func (e *Event) TimeResolved() bool {
	return e.GameSeconds >= 0
}

// ShootingTeam is the team credited with a shot attempt. Blocks are
// attributed to the blocking team, so the shooter is the opponent.
func (e *Event) ShootingTeam() string {
	if e.Type == Block {
		return e.OppTeam
	}
	return e.EventTeam
}

// Snapshot is the set of players on ice for one team at one event
type Snapshot struct {
	Players     []Player `json:"players"`
	SkaterCount int      `json:"skater_count"`
	Goalie      string   `json:"goalie"`
	EmptyNet    bool     `json:"empty_net"`
}

// Count is the number of players on ice, goalie included
func (s Snapshot) Count() int {
	return len(s.Players)
}

// Has reports whether the player is on ice
func (s Snapshot) Has(apiName string) bool {
	for _, p := range s.Players {
		if p.APIName == apiName {
			return true
		}
	}
	return false
}

// OnIce pairs the two team snapshots for one event
type OnIce struct {
	Home Snapshot `json:"home"`
	Away Snapshot `json:"away"`
}

// Side returns the snapshot for a venue
func (o OnIce) Side(v Venue) Snapshot {
	if v == Home {
		return o.Home
	}
	return o.Away
}

// Context is the game state derived for one event
type Context struct {
	IsHome        bool     `json:"is_home"`
	IsGoal        bool     `json:"is_goal"`
	PenaltyShot   bool     `json:"penalty_shot"`
	Shootout      bool     `json:"shootout"`
	HomeScore     int      `json:"home_score"`
	AwayScore     int      `json:"away_score"`
	ScoreDiff     int      `json:"score_diff"`
	ScoreState    string   `json:"score_state"`
	StrengthState string   `json:"strength_state"`
	HomeSkaters   int      `json:"home_skaters"`
	AwaySkaters   int      `json:"away_skaters"`
	EmptyNet      bool     `json:"empty_net"`
	OwnGoalie     string   `json:"own_goalie"`
	OppGoalie     string   `json:"opp_goalie"`
	EventZone     string   `json:"event_zone,omitempty"`
	HomeZone      string   `json:"home_zone,omitempty"`
	ZoneStart     string   `json:"zone_start,omitempty"`
	Distance      *float64 `json:"event_distance,omitempty"`
	Angle         *float64 `json:"event_angle,omitempty"`
	PbpDistance   float64  `json:"pbp_distance"`
	PredGoal      float64  `json:"pred_goal"`
	FaceIdx       int      `json:"face_idx"`
	ShiftIdx      int      `json:"shift_idx"`
	PenIdx        int      `json:"pen_idx"`
	Enriched      bool     `json:"enriched"`
}

// Play is a fully enriched event: the canonical event, its on-ice
// snapshots and the derived context
type Play struct {
	Game  Game  `json:"-"`
	Event Event `json:"event"`
	OnIce OnIce `json:"on_ice"`
	Context
}

// EventVenue is the venue of the event team, if it is one of the two teams
func (p *Play) EventVenue() (Venue, bool) {
	return p.Game.TeamVenue(p.Event.EventTeam)
}
