package reconciliation

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/fortuna/janus/internal/pbp"
	"github.com/fortuna/janus/internal/shifts"
)

// ErrInsufficientData means one of the event sources had nothing for the game
var ErrInsufficientData = errors.New("insufficient data")

// Engine reconciles the HTML report and the API feed into one event log
type Engine struct {
	mu      sync.Mutex
	metrics *Metrics
	verbose bool
}

// Metrics tracks reconciliation statistics
type Metrics struct {
	TotalMerges  int
	Matched      int
	HTMLOnly     int
	APIOnly      int
	Changes      int
	Duplicates   int
	SkippedGames int
	LastMerge    time.Time
}

// NewEngine creates a new reconciliation engine
func NewEngine(verbose bool) *Engine {
	return &Engine{
		verbose: verbose,
		metrics: &Metrics{
			LastMerge: time.Now(),
		},
	}
}

// Merge joins both normalized sources and the line changes into one ordered
// event list with dense 1-based event indexes. The report is the primary
// row of a matched pair and the feed fills what the report lacks.
func (e *Engine) Merge(game pbp.Game, html, api []pbp.Event, changes []pbp.ChangeEvent) ([]pbp.Event, error) {
	if len(html) == 0 || len(api) == 0 {
		e.record(func(m *Metrics) { m.SkippedGames++ })
		return nil, fmt.Errorf("%w: game %d has %d report and %d feed events",
			ErrInsufficientData, game.GameID, len(html), len(api))
	}

	html = AssignVersions(clone(html))
	api = AssignVersions(clone(api))

	index := make(map[matchKey]int, len(api))
	for i := range api {
		k := keyOf(&api[i])
		if _, ok := index[k]; !ok {
			index[k] = i
		}
	}

	used := make([]bool, len(api))
	merged := make([]pbp.Event, 0, len(html)+len(api)+len(changes))
	matched := 0

	for i := range html {
		ev := html[i]
		if j, ok := index[keyOf(&ev)]; ok && !used[j] {
			used[j] = true
			fillFromAPI(&ev, &api[j])
			matched++
		} else if ev.Origin == "" {
			ev.Origin = pbp.SourceHTML
		}
		merged = append(merged, ev)
	}

	apiOnly := 0
	for i := range api {
		if !used[i] {
			ev := api[i]
			if ev.Origin == "" {
				ev.Origin = pbp.SourceAPI
			}
			merged = append(merged, ev)
			apiOnly++
		}
	}

	for _, c := range changes {
		merged = append(merged, shifts.ToEvent(game, c))
	}

	for i := range merged {
		merged[i].OrigIndex = i
	}

	Order(merged, game.Session)
	Reindex(merged)
	AssignVersions(merged)

	duplicates := 0
	for i := range merged {
		if merged[i].Version > 1 {
			duplicates++
		}
	}

	e.record(func(m *Metrics) {
		m.TotalMerges++
		m.Matched += matched
		m.HTMLOnly += len(html) - matched
		m.APIOnly += apiOnly
		m.Changes += len(changes)
		m.Duplicates += duplicates
		m.LastMerge = time.Now()
	})

	if e.verbose {
		log.Printf("  [reconcile] game %d: %d matched, %d report-only, %d feed-only, %d changes",
			game.GameID, matched, len(html)-matched, apiOnly, len(changes))
	}

	return merged, nil
}

// fillFromAPI copies the fields the report never carries
func fillFromAPI(ev *pbp.Event, src *pbp.Event) {
	ev.Origin = pbp.SourceMerged

	if ev.CoordsX == nil {
		ev.CoordsX = src.CoordsX
	}
	if ev.CoordsY == nil {
		ev.CoordsY = src.CoordsY
	}
	if ev.PenaltySeverity == "" {
		ev.PenaltySeverity = src.PenaltySeverity
	}
	if ev.PenaltyMinutes == 0 {
		ev.PenaltyMinutes = src.PenaltyMinutes
	}
	if ev.Datetime == "" {
		ev.Datetime = src.Datetime
	}
	if ev.DetailAPI == "" {
		ev.DetailAPI = src.DetailAPI
	}
	if ev.Detail == "" {
		ev.Detail = src.Detail
	}

	for i := range ev.Players {
		if ev.Players[i].IsZero() {
			continue
		}
		if ev.Players[i].Type == "" {
			ev.Players[i].Type = src.Players[i].Type
		}
		if ev.Players[i].ID == 0 {
			ev.Players[i].ID = src.Players[i].ID
		}
	}
}

func clone(events []pbp.Event) []pbp.Event {
	return append([]pbp.Event(nil), events...)
}

func (e *Engine) record(fn func(m *Metrics)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.metrics)
}

// GetMetrics returns a copy of the current reconciliation metrics
func (e *Engine) GetMetrics() Metrics {
	e.mu.Lock()
	defer e.mu.Unlock()
	return *e.metrics
}

// ResetMetrics clears all metrics
func (e *Engine) ResetMetrics() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.metrics = &Metrics{
		LastMerge: time.Now(),
	}
}
