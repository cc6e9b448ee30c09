// Package ingest assembles pipeline bundles from the live feed and the HTML
// reports, either fetched or read from a saved game directory.
package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/fortuna/janus/internal/ingest/htmlreport"
	"github.com/fortuna/janus/internal/ingest/nhlapi"
	"github.com/fortuna/janus/internal/pbp"
	"github.com/fortuna/janus/internal/pipeline"
)

// File names inside a saved game directory
const (
	FeedFile       = "feed.json"
	PlayByPlayFile = "PL.HTM"
	RosterFile     = "RO.HTM"
	HomeShiftsFile = "TH.HTM"
	AwayShiftsFile = "TV.HTM"
)

// Sources holds the raw documents for one game. A nil document is a source
// that was not available.
type Sources struct {
	Feed       []byte
	PlayByPlay []byte
	Roster     []byte
	HomeShifts []byte
	AwayShifts []byte
}

// ReportFetcher downloads one HTML report. htmlreport.Client and
// htmlreport.BrowserClient both implement it.
type ReportFetcher interface {
	Fetch(ctx context.Context, season, gameID int, kind string) ([]byte, error)
}

// Ingester fetches and assembles game sources
type Ingester struct {
	feeds   *nhlapi.Client
	reports ReportFetcher
	logger  *log.Logger
}

// NewIngester creates an ingester over the two clients
func NewIngester(feeds *nhlapi.Client, reports ReportFetcher) *Ingester {
	return &Ingester{
		feeds:   feeds,
		reports: reports,
		logger:  log.New(log.Writer(), "[ingest] ", log.LstdFlags),
	}
}

// Fetch downloads every source for a game. Missing reports are left nil so
// the pipeline can classify the skip; transport failures are returned.
func (i *Ingester) Fetch(ctx context.Context, gameID int) (*Sources, error) {
	feed, err := i.feeds.FetchFeed(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}

	season := nhlapi.SeasonFor(gameID)
	src := &Sources{Feed: feed}
	reports := []struct {
		kind string
		dst  *[]byte
	}{
		{htmlreport.KindPlayByPlay, &src.PlayByPlay},
		{htmlreport.KindRoster, &src.Roster},
		{htmlreport.KindHomeShifts, &src.HomeShifts},
		{htmlreport.KindAwayShifts, &src.AwayShifts},
	}
	for _, r := range reports {
		data, err := i.reports.Fetch(ctx, season, gameID, r.kind)
		if errors.Is(err, htmlreport.ErrReportMissing) {
			i.logger.Printf("⚠️  game %d: %v", gameID, err)
			continue
		}
		if err != nil {
			return nil, err
		}
		*r.dst = data
	}

	return src, nil
}

// FetchBundle downloads and assembles one game
func (i *Ingester) FetchBundle(ctx context.Context, gameID int) (*pipeline.Bundle, error) {
	src, err := i.Fetch(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return Assemble(src)
}

// Save writes the sources into dir using the saved-directory layout
func (s *Sources) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	for name, data := range s.files() {
		if data == nil {
			continue
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	return nil
}

func (s *Sources) files() map[string][]byte {
	return map[string][]byte{
		FeedFile:       s.Feed,
		PlayByPlayFile: s.PlayByPlay,
		RosterFile:     s.Roster,
		HomeShiftsFile: s.HomeShifts,
		AwayShiftsFile: s.AwayShifts,
	}
}

// LoadDir reads a saved game directory. Only the feed is required.
func LoadDir(dir string) (*Sources, error) {
	read := func(name string) ([]byte, error) {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return data, err
	}

	src := &Sources{}
	targets := []struct {
		name string
		dst  *[]byte
	}{
		{FeedFile, &src.Feed},
		{PlayByPlayFile, &src.PlayByPlay},
		{RosterFile, &src.Roster},
		{HomeShiftsFile, &src.HomeShifts},
		{AwayShiftsFile, &src.AwayShifts},
	}
	for _, t := range targets {
		data, err := read(t.name)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", t.name, err)
		}
		*t.dst = data
	}

	if src.Feed == nil {
		return nil, fmt.Errorf("%s: no %s", dir, FeedFile)
	}
	return src, nil
}

// Assemble parses the sources into a bundle. The feed supplies the game
// header; an empty report yields an empty slice rather than an error.
func Assemble(src *Sources) (*pipeline.Bundle, error) {
	feed, err := nhlapi.ParseFeed(src.Feed)
	if err != nil && !errors.Is(err, nhlapi.ErrNoPlays) {
		return nil, err
	}

	b := &pipeline.Bundle{Game: feed.Game, API: feed.Events}

	if src.PlayByPlay != nil {
		pl, err := htmlreport.ParsePlayByPlay(bytes.NewReader(src.PlayByPlay))
		if err != nil && !errors.Is(err, htmlreport.ErrEmptyReport) {
			return nil, fmt.Errorf("play-by-play report: %w", err)
		}
		b.HTML = pl.Events
		if b.Game.HomeTeamName == "" {
			b.Game.HomeTeamName = pl.HomeTeamName
			b.Game.AwayTeamName = pl.AwayTeamName
		}
	}

	if src.Roster != nil {
		ro, err := htmlreport.ParseRoster(bytes.NewReader(src.Roster))
		if err != nil && !errors.Is(err, htmlreport.ErrEmptyReport) {
			return nil, fmt.Errorf("roster report: %w", err)
		}
		b.Roster = ro.Rows
	}

	shiftReports := []struct {
		data  []byte
		venue pbp.Venue
	}{
		{src.HomeShifts, pbp.Home},
		{src.AwayShifts, pbp.Away},
	}
	for _, s := range shiftReports {
		if s.data == nil {
			continue
		}
		sh, err := htmlreport.ParseShifts(bytes.NewReader(s.data), s.venue)
		if err != nil && !errors.Is(err, htmlreport.ErrEmptyReport) {
			return nil, fmt.Errorf("%s shift report: %w", s.venue, err)
		}
		b.Shifts = append(b.Shifts, sh.Rows...)
	}

	return b, nil
}
