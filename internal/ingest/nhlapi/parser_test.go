package nhlapi

import (
	"errors"
	"testing"

	"github.com/fortuna/janus/internal/pbp"
)

const feed = `{
  "gamePk": 2023020001,
  "gameData": {
    "game": {"pk": 2023020001, "season": "20232024", "type": "R"},
    "datetime": {"dateTime": "2023-10-10T23:00:00Z"},
    "teams": {
      "home": {"triCode": "TOR", "name": "Toronto Maple Leafs"},
      "away": {"triCode": "MTL", "name": "Montréal Canadiens"}
    }
  },
  "liveData": {"plays": {"allPlays": [
    {
      "result": {"event": "Faceoff", "eventTypeId": "FACEOFF", "description": "Auston Matthews faceoff won against Nick Suzuki"},
      "about": {"eventIdx": 3, "period": 1, "periodTime": "00:00", "dateTime": "2023-10-10T23:10:00Z"},
      "coordinates": {"x": 0.0, "y": 0.0},
      "team": {"triCode": "TOR", "name": "Toronto Maple Leafs"},
      "players": [
        {"player": {"id": 8479318, "fullName": "Auston Matthews"}, "playerType": "Winner"},
        {"player": {"id": 8480018, "fullName": "Nick Suzuki"}, "playerType": "Loser"}
      ]
    },
    {
      "result": {"event": "Penalty", "eventTypeId": "PENALTY", "secondaryType": "Tripping",
                 "penaltySeverity": "Minor", "penaltyMinutes": 2},
      "about": {"eventIdx": 9, "period": 1, "periodTime": "04:12"},
      "coordinates": {},
      "team": {"triCode": "MTL"},
      "players": [
        {"player": {"id": 8480018, "fullName": "Nick Suzuki"}, "playerType": "PenaltyOn"},
        {"player": {"id": 8479318, "fullName": "Auston Matthews"}, "playerType": "DrewBy"}
      ]
    },
    {
      "result": {"event": "Period End", "eventTypeId": "PERIOD_END"},
      "about": {"eventIdx": 60, "period": 1, "periodTime": "20:00"}
    }
  ]}}
}`

func TestParseFeed(t *testing.T) {
	f, err := ParseFeed([]byte(feed))
	if err != nil {
		t.Fatalf("ParseFeed() error: %v", err)
	}

	want := pbp.Game{
		Season: 20232024, Session: pbp.Regular, GameID: 2023020001, GameDate: "2023-10-10",
		HomeTeam: "TOR", AwayTeam: "MTL", HomeTeamName: "TORONTO MAPLE LEAFS", AwayTeamName: "MONTRÉAL CANADIENS",
	}
	if f.Game != want {
		t.Errorf("game = %+v, want %+v", f.Game, want)
	}
	if len(f.Events) != 3 {
		t.Fatalf("got %d events, want 3", len(f.Events))
	}

	fac := f.Events[0]
	if fac.EventType != "FACEOFF" || fac.EventTeam != "TOR" || fac.EventIdx != 3 || fac.PeriodTime != "00:00" {
		t.Errorf("faceoff = %+v", fac)
	}
	if fac.CoordsX == nil || *fac.CoordsX != 0 {
		t.Error("center ice faceoff lost its coordinates")
	}
	if fac.Players[0] != (pbp.APIPlayer{ID: 8479318, Name: "Auston Matthews", Type: "Winner"}) {
		t.Errorf("winner = %+v", fac.Players[0])
	}
	if fac.Players[2] != (pbp.APIPlayer{}) {
		t.Errorf("unused slot filled: %+v", fac.Players[2])
	}

	pen := f.Events[1]
	if pen.Detail != "Tripping" || pen.PenaltySeverity != "Minor" || pen.PenaltyMinutes != 2 {
		t.Errorf("penalty = %+v", pen)
	}
	if pen.CoordsX != nil || pen.CoordsY != nil {
		t.Error("penalty without coordinates got some")
	}
	if pen.Players[1].Type != "DrewBy" {
		t.Errorf("drawn by = %+v", pen.Players[1])
	}

	if end := f.Events[2]; end.EventTeam != "" || end.EventType != "PERIOD_END" {
		t.Errorf("period end = %+v", end)
	}
}

func TestParseFeedErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{name: "not json", body: `<html>`},
		{name: "no game id", body: `{"gameData": {}}`},
		{name: "no plays", body: `{"gamePk": 2023020001, "liveData": {"plays": {"allPlays": []}}}`, wantErr: ErrNoPlays},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFeed([]byte(tt.body))
			if err == nil {
				t.Fatal("ParseFeed() succeeded")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSessionAndSeason(t *testing.T) {
	tests := []struct {
		gameID   int
		gameType string
		session  pbp.Session
		season   int
	}{
		{2023020001, "", pbp.Regular, 20232024},
		{2022030411, "", pbp.Playoff, 20222023},
		{2022030411, "R", pbp.Regular, 20222023},
		{2010020500, "P", pbp.Playoff, 20102011},
	}
	for _, tt := range tests {
		if got := SessionFor(tt.gameID, tt.gameType); got != tt.session {
			t.Errorf("SessionFor(%d, %q) = %s, want %s", tt.gameID, tt.gameType, got, tt.session)
		}
		if got := SeasonFor(tt.gameID); got != tt.season {
			t.Errorf("SeasonFor(%d) = %d, want %d", tt.gameID, got, tt.season)
		}
	}
}
