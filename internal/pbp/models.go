package pbp

// Venue identifies which side of the game a team or player belongs to
type Venue string

const (
	Home Venue = "HOME"
	Away Venue = "AWAY"
)

// Other returns the opposite venue
func (v Venue) Other() Venue {
	if v == Home {
		return Away
	}
	return Home
}

// Session is the game type, regular season or playoffs
type Session string

const (
	Regular Session = "R"
	Playoff Session = "P"
)

// Source tags where a canonical event came from
type Source string

const (
	SourceAPI    Source = "api"
	SourceHTML   Source = "html"
	SourceMerged Source = "merged"
	SourceShifts Source = "shifts"
)

// Status is a roster entry's dressing status
type Status string

const (
	Active  Status = "ACTIVE"
	Scratch Status = "SCRATCH"
)

// Sentinel identities used across stages
const (
	EmptyNet = "EMPTY NET"
	Bench    = "BENCH"
)

// Game identifies a single game and its two teams
type Game struct {
	Season       int     `json:"season"`
	Session      Session `json:"session"`
	GameID       int     `json:"game_id"`
	GameDate     string  `json:"game_date"`
	HomeTeam     string  `json:"home_team"`
	AwayTeam     string  `json:"away_team"`
	HomeTeamName string  `json:"home_team_name,omitempty"`
	AwayTeamName string  `json:"away_team_name,omitempty"`
}

// TeamVenue reports which side a tri-code plays on
func (g Game) TeamVenue(team string) (Venue, bool) {
	switch team {
	case g.HomeTeam:
		return Home, true
	case g.AwayTeam:
		return Away, true
	}
	return "", false
}

// Team returns the tri-code for a venue
func (g Game) Team(v Venue) string {
	if v == Home {
		return g.HomeTeam
	}
	return g.AwayTeam
}

// Opponent returns the other team's tri-code, or "" if team is not in the game
func (g Game) Opponent(team string) string {
	switch team {
	case g.HomeTeam:
		return g.AwayTeam
	case g.AwayTeam:
		return g.HomeTeam
	}
	return ""
}

// RosterEntry is one dressed or scratched player for a game
type RosterEntry struct {
	Team     string `json:"team"`
	Venue    Venue  `json:"venue"`
	Name     string `json:"player_name"`
	APIName  string `json:"api_name"`
	Jersey   int    `json:"jersey"`
	Position string `json:"position"`
	Status   Status `json:"status"`
}

// TeamNum is the "TOR34" style key used to resolve jersey references
func (r RosterEntry) TeamNum() string {
	return TeamNum(r.Team, r.Jersey)
}

// RosterRow is a roster line as parsed from the roster report
type RosterRow struct {
	Venue    Venue  `json:"venue"`
	Name     string `json:"player_name"`
	Jersey   int    `json:"jersey"`
	Position string `json:"position"`
	Status   Status `json:"status"`
}

// APIPlayer is one participant of an API event
type APIPlayer struct {
	ID   int    `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	Type string `json:"type,omitempty"`
}

// APIEvent is a play as parsed from the structured API feed
type APIEvent struct {
	EventIdx        int          `json:"event_idx"`
	Period          int          `json:"period"`
	PeriodTime      string       `json:"period_time"`
	EventType       string       `json:"event_type"`
	EventTeam       string       `json:"event_team,omitempty"`
	Description     string       `json:"description,omitempty"`
	Players         [4]APIPlayer `json:"players"`
	CoordsX         *float64     `json:"coords_x,omitempty"`
	CoordsY         *float64     `json:"coords_y,omitempty"`
	Detail          string       `json:"event_detail,omitempty"`
	PenaltySeverity string       `json:"penalty_severity,omitempty"`
	PenaltyMinutes  int          `json:"penalty_minutes,omitempty"`
	Datetime        string       `json:"datetime,omitempty"`
}

// HTMLEvent is a row of the HTML play-by-play report
type HTMLEvent struct {
	EventIdx    int    `json:"event_idx"`
	Period      string `json:"period"`
	Strength    string `json:"strength"`
	Time        string `json:"time"`
	Event       string `json:"event"`
	Description string `json:"description"`
	AwaySkaters string `json:"away_skaters"`
	HomeSkaters string `json:"home_skaters"`
}

// ShiftRow is one shift line from the time-on-ice reports
type ShiftRow struct {
	Venue     Venue  `json:"venue"`
	Player    string `json:"player_name"`
	Jersey    int    `json:"jersey"`
	Period    string `json:"period"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Duration  string `json:"duration"`
}

// ShiftInterval is a resolved shift in period seconds, Start < End
type ShiftInterval struct {
	Team     string `json:"team"`
	Venue    Venue  `json:"venue"`
	Player   string `json:"player"`
	Name     string `json:"player_name"`
	Jersey   int    `json:"jersey"`
	Position string `json:"position"`
	Period   int    `json:"period"`
	Start    int    `json:"start_seconds"`
	End      int    `json:"end_seconds"`
}

// ChangeEvent is a grouped line change at one clock time for one team
type ChangeEvent struct {
	Team          string   `json:"team"`
	Venue         Venue    `json:"venue"`
	Period        int      `json:"period"`
	PeriodSeconds int      `json:"period_seconds"`
	GameSeconds   int      `json:"game_seconds"`
	On            []Player `json:"players_on"`
	Off           []Player `json:"players_off"`
}

// Player is a resolved participant identity
type Player struct {
	Name     string `json:"name,omitempty"`
	APIName  string `json:"api_name,omitempty"`
	ID       int    `json:"id,omitempty"`
	Type     string `json:"type,omitempty"`
	Jersey   int    `json:"jersey,omitempty"`
	Position string `json:"position,omitempty"`
}

// IsZero reports whether the slot is unused
func (p Player) IsZero() bool {
	return p.Name == "" && p.APIName == ""
}
