package pipeline

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fortuna/janus/internal/pbp"
)

// Bundle is everything the pipeline needs for one game, as produced by the
// ingest adapters
type Bundle struct {
	Game    pbp.Game          `json:"game"`
	API     []pbp.APIEvent    `json:"api_events"`
	HTML    []pbp.HTMLEvent   `json:"html_events"`
	Roster  []pbp.RosterRow   `json:"roster"`
	Shifts  []pbp.ShiftRow    `json:"shifts"`
	Changes []pbp.ChangeEvent `json:"changes,omitempty"`
}

// LoadBundle reads a bundle from a JSON file
func LoadBundle(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bundle: %w", err)
	}

	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decoding bundle %s: %w", path, err)
	}
	return &b, nil
}

// Save writes the bundle as indented JSON
func (b *Bundle) Save(path string) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding bundle: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing bundle: %w", err)
	}
	return nil
}

// Validate checks the game header. Missing sources are reported by Process
// so they can be classified as a skip.
func (b *Bundle) Validate() error {
	if b.Game.GameID == 0 {
		return fmt.Errorf("bundle has no game_id")
	}
	if b.Game.HomeTeam == "" || b.Game.AwayTeam == "" {
		return fmt.Errorf("game %d: home and away teams are required", b.Game.GameID)
	}
	if b.Game.Session != pbp.Regular && b.Game.Session != pbp.Playoff {
		return fmt.Errorf("game %d: unknown session %q", b.Game.GameID, b.Game.Session)
	}
	return nil
}
