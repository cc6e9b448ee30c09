package ingest

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"testing"

	"github.com/fortuna/janus/internal/pbp"
	"github.com/fortuna/janus/internal/pipeline"
)

const feed = `{
  "gamePk": 2023020001,
  "gameData": {
    "game": {"pk": 2023020001, "season": "20232024", "type": "R"},
    "teams": {"home": {"triCode": "TOR"}, "away": {"triCode": "MTL"}}
  },
  "liveData": {"plays": {"allPlays": [
    {"result": {"eventTypeId": "FACEOFF"}, "about": {"eventIdx": 0, "period": 1, "periodTime": "00:00"},
     "team": {"triCode": "TOR"},
     "players": [{"player": {"fullName": "Auston Matthews"}, "playerType": "Winner"},
                 {"player": {"fullName": "Nick Suzuki"}, "playerType": "Loser"}]}
  ]}}
}`

const playByPlay = `<html><body><table>
<tr><td align="center" style="font-size: 10px;font-weight:bold">MONTREAL CANADIENSGame 1 Away Game 1</td></tr>
<tr><td align="center" style="font-size: 10px;font-weight:bold">TORONTO MAPLE LEAFSGame 1 Home Game 1</td></tr>
<tr><td class=" + bborder">1</td><td class=" + bborder">1</td><td class=" + bborder">EV</td>
<td class=" + bborder">0:00<br>20:00</td><td class=" + bborder">FAC</td>
<td class=" + bborder">TOR won Neu. Zone - MTL #14 SUZUKI vs TOR #34 MATTHEWS</td>
<td class=" + bborder">&nbsp;</td><td class=" + bborder">&nbsp;</td></tr>
</table></body></html>`

const roster = `<html><body>
<table align="center" border="0" cellpadding="0" cellspacing="0" width="100%">
<tr><td>#</td><td>Pos</td><td>Name</td></tr><tr><td>14</td><td>C</td><td>NICK SUZUKI</td></tr></table>
<table align="center" border="0" cellpadding="0" cellspacing="0" width="100%">
<tr><td>#</td><td>Pos</td><td>Name</td></tr><tr><td>34</td><td>C</td><td>AUSTON MATTHEWS</td></tr></table>
</body></html>`

const homeShifts = `<html><body><table>
<tr><td class="playerHeading + border">34 MATTHEWS, AUSTON</td></tr>
<tr><td class="lborder + bborder">1</td><td class="lborder + bborder">1</td>
<td class="lborder + bborder">0:00 / 20:00</td><td class="lborder + bborder">0:45 / 19:15</td>
<td class="lborder + bborder">00:45</td></tr>
</table></body></html>`

func TestAssemble(t *testing.T) {
	b, err := Assemble(&Sources{
		Feed:       []byte(feed),
		PlayByPlay: []byte(playByPlay),
		Roster:     []byte(roster),
		HomeShifts: []byte(homeShifts),
	})
	if err != nil {
		t.Fatalf("Assemble() error: %v", err)
	}

	if b.Game.GameID != 2023020001 || b.Game.HomeTeam != "TOR" || b.Game.AwayTeam != "MTL" || b.Game.Session != pbp.Regular {
		t.Errorf("game = %+v", b.Game)
	}
	if b.Game.HomeTeamName != "TORONTO MAPLE LEAFS" {
		t.Errorf("home team name = %q, want it from the report header", b.Game.HomeTeamName)
	}
	if len(b.API) != 1 || len(b.HTML) != 1 || len(b.Roster) != 2 || len(b.Shifts) != 1 {
		t.Errorf("bundle sizes = %d feed, %d report, %d roster, %d shifts",
			len(b.API), len(b.HTML), len(b.Roster), len(b.Shifts))
	}
	if b.Shifts[0].Venue != pbp.Home || b.Shifts[0].Player != "AUSTON MATTHEWS" {
		t.Errorf("shift = %+v", b.Shifts[0])
	}
	if err := b.Validate(); err != nil {
		t.Errorf("assembled bundle invalid: %v", err)
	}
}

func TestAssembleMissingReportsSkips(t *testing.T) {
	b, err := Assemble(&Sources{Feed: []byte(feed)})
	if err != nil {
		t.Fatalf("Assemble() error: %v", err)
	}

	p := pipeline.New(pipeline.Options{Logger: log.New(io.Discard, "", 0)})
	_, err = p.Process(context.Background(), b)
	if got := pipeline.Classify(err); got != pipeline.SkipSourceEmpty {
		t.Errorf("Classify(%v) = %s, want %s", err, got, pipeline.SkipSourceEmpty)
	}
}

func TestAssembleBadFeed(t *testing.T) {
	if _, err := Assemble(&Sources{Feed: []byte(`{"gameData": {}}`)}); err == nil {
		t.Error("Assemble() accepted a feed without a game id")
	}
}

func TestSaveAndLoadDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "2023020001")
	src := &Sources{Feed: []byte(feed), PlayByPlay: []byte(playByPlay)}
	if err := src.Save(dir); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir() error: %v", err)
	}
	if string(loaded.Feed) != feed || string(loaded.PlayByPlay) != playByPlay {
		t.Error("loaded documents differ from saved ones")
	}
	if loaded.Roster != nil || loaded.HomeShifts != nil {
		t.Error("missing reports loaded as non-nil")
	}

	if _, err := LoadDir(t.TempDir()); err == nil {
		t.Error("LoadDir() accepted a directory without a feed")
	}
}
