package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/fortuna/janus/internal/aggregate"
	"github.com/fortuna/janus/internal/pbp"
	"github.com/fortuna/janus/internal/pipeline"
	"github.com/fortuna/janus/internal/service"
	"github.com/fortuna/janus/internal/store"
	"github.com/fortuna/janus/internal/store/repository"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func f64(v float64) *float64 { return &v }

func toyBundle() *pipeline.Bundle {
	return &pipeline.Bundle{
		Game: pbp.Game{Season: 20232024, Session: pbp.Regular, GameID: 2023020001, HomeTeam: "TOR", AwayTeam: "MTL"},
		Roster: []pbp.RosterRow{
			{Venue: pbp.Home, Name: "A Smith", Jersey: 9, Position: "C"},
			{Venue: pbp.Away, Name: "C Doe", Jersey: 11, Position: "L"},
		},
		HTML: []pbp.HTMLEvent{
			{EventIdx: 1, Period: "1", Time: "0:5919:01", Event: "GOAL", Strength: "EV",
				Description: "TOR #9 SMITH(1), Wrist, Off. Zone, 12 ft."},
		},
		API: []pbp.APIEvent{
			{EventIdx: 1, Period: 1, PeriodTime: "00:59", EventType: "GOAL", EventTeam: "TOR",
				Players: [4]pbp.APIPlayer{{Name: "A Smith", Type: "Scorer"}}, CoordsX: f64(78), CoordsY: f64(4)},
		},
		Shifts: []pbp.ShiftRow{
			{Venue: pbp.Home, Player: "A Smith", Jersey: 9, Period: "1", StartTime: "0:00 / 20:00", EndTime: "1:00 / 19:00"},
			{Venue: pbp.Away, Player: "C Doe", Jersey: 11, Period: "1", StartTime: "0:00 / 20:00", EndTime: "1:00 / 19:00"},
		},
	}
}

type memStore struct {
	results map[int]*pipeline.Result
}

func (m *memStore) SaveResult(ctx context.Context, res *pipeline.Result) error {
	m.results[res.Game.GameID] = res
	return nil
}

func (m *memStore) find(gameID int) (*pipeline.Result, error) {
	res, ok := m.results[gameID]
	if !ok {
		return nil, fmt.Errorf("game %d: %w", gameID, repository.ErrNotFound)
	}
	return res, nil
}

func (m *memStore) Game(ctx context.Context, gameID int) (*store.Game, error) {
	res, err := m.find(gameID)
	if err != nil {
		return nil, err
	}
	return service.GameRecord(res), nil
}

func (m *memStore) Plays(ctx context.Context, gameID int) ([]pbp.Play, error) {
	res, err := m.find(gameID)
	if err != nil {
		return nil, err
	}
	return res.Plays, nil
}

func (m *memStore) Stats(ctx context.Context, gameID int) ([]aggregate.Row, error) {
	res, err := m.find(gameID)
	if err != nil {
		return nil, err
	}
	return res.Stats, nil
}

func (m *memStore) PlayerSeason(ctx context.Context, apiName string, season int) ([]aggregate.Row, error) {
	var out []aggregate.Row
	for _, res := range m.results {
		for _, r := range res.Stats {
			if r.Player == apiName && r.Season == season {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

func (m *memStore) Roster(ctx context.Context, gameID int) ([]*store.RosterPlayer, error) {
	res, err := m.find(gameID)
	if err != nil {
		return nil, err
	}
	var out []*store.RosterPlayer
	for _, e := range res.Roster {
		out = append(out, &store.RosterPlayer{GameID: gameID, Team: e.Team, APIName: e.APIName, Jersey: e.Jersey})
	}
	return out, nil
}

func (m *memStore) Teams(ctx context.Context) ([]*store.Team, error) {
	return []*store.Team{{TriCode: "MTL"}, {TriCode: "TOR"}}, nil
}

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := log.New(&bytes.Buffer{}, "", 0)
	ms := &memStore{results: make(map[int]*pipeline.Result)}
	games := service.NewGameService(pipeline.New(pipeline.Options{Logger: logger}), ms, service.GameServiceOptions{Logger: logger})
	h := NewHandler(games, service.NewStatsService(ms), ms, nil)
	return NewRouter(h, nil, nil)
}

func do(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestProcessThenQuery(t *testing.T) {
	router := testRouter(t)

	rec := do(t, router, http.MethodPost, "/api/v1/games/process", toyBundle())
	if rec.Code != http.StatusCreated {
		t.Fatalf("process status = %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		Summary pipeline.Summary `json:"summary"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.Summary.GameID != 2023020001 || created.Summary.HomeScore != 1 {
		t.Errorf("summary = %+v", created.Summary)
	}

	tests := []struct {
		name string
		path string
		code int
	}{
		{"game", "/api/v1/games/2023020001", http.StatusOK},
		{"goals", "/api/v1/games/2023020001/pbp?event=GOAL", http.StatusOK},
		{"bad period", "/api/v1/games/2023020001/pbp?period=x", http.StatusBadRequest},
		{"stats totals", "/api/v1/games/2023020001/stats?team=TOR&totals=true", http.StatusOK},
		{"roster", "/api/v1/games/2023020001/roster", http.StatusOK},
		{"teams", "/api/v1/teams", http.StatusOK},
		{"player season", "/api/v1/players/A.SMITH/seasons/20232024", http.StatusOK},
		{"unknown player", "/api/v1/players/X.NOBODY/seasons/20232024", http.StatusNotFound},
		{"unknown game", "/api/v1/games/2023020999/pbp", http.StatusNotFound},
		{"health", "/health", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodGet, tt.path, nil)
			if rec.Code != tt.code {
				t.Errorf("GET %s = %d, want %d: %s", tt.path, rec.Code, tt.code, rec.Body.String())
			}
		})
	}

	rec = do(t, router, http.MethodGet, "/api/v1/games/2023020001/pbp?event=GOAL", nil)
	var goals []pbp.Play
	if err := json.Unmarshal(rec.Body.Bytes(), &goals); err != nil {
		t.Fatal(err)
	}
	if len(goals) != 1 || goals[0].HomeScore != 1 {
		t.Errorf("goal plays = %+v", goals)
	}
}

func TestProcessSkippedGame(t *testing.T) {
	b := toyBundle()
	b.API = nil

	rec := do(t, testRouter(t), http.MethodPost, "/api/v1/games/process", b)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["reason"] != string(pipeline.SkipSourceEmpty) {
		t.Errorf("reason = %v, want %s", body["reason"], pipeline.SkipSourceEmpty)
	}
}

func TestProcessBadBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/games/process", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	testRouter(t).ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/teams", nil)
	rec := httptest.NewRecorder()
	CORSMiddleware(http.NotFoundHandler()).ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("preflight = %d %q", rec.Code, rec.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	panicky := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { panic("boom") })
	rec := httptest.NewRecorder()
	RecoveryMiddleware(panicky).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestBackfillRequestConversion(t *testing.T) {
	req := apiBackfillRequest{GameID: 3, GameIDs: []int{1, 2}, Workers: 4}.toRequest()
	if len(req.GameIDs) != 3 || req.GameIDs[2] != 3 || req.Workers != 4 {
		t.Errorf("toRequest() = %+v", req)
	}
	if typ, err := req.DeriveType(); err != nil || typ != "games" {
		t.Errorf("DeriveType() = %s, %v", typ, err)
	}
}
