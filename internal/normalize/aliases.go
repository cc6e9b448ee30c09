package normalize

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"github.com/pelletier/go-toml/v2"
)

//go:embed defaults.toml
var defaultTables []byte

// DoubleName tells apart two players who normalize to the same api name
type DoubleName struct {
	APIName     string `toml:"api_name"`
	Position    string `toml:"position"`
	NotPosition string `toml:"not_position"`
	MinSeason   int    `toml:"min_season"`
	Replacement string `toml:"replacement"`
}

// matches reports whether the rule applies to a roster player
func (d DoubleName) matches(apiName, position string, season int) bool {
	if apiName != d.APIName {
		return false
	}
	if d.Position != "" && position != d.Position {
		return false
	}
	if d.NotPosition != "" && position == d.NotPosition {
		return false
	}
	if d.MinSeason != 0 && season < d.MinSeason {
		return false
	}
	return true
}

// Aliases holds every lookup table the normalizer consults. It is read-only
// once handed to a Normalizer and can be shared between games.
type Aliases struct {
	Replacements map[string]string `toml:"replacements"`
	Corrections  map[string]string `toml:"corrections"`
	APIIDs       map[string]string `toml:"api_ids"`
	Teams        map[string]string `toml:"teams"`
	ReportTeams  map[string]string `toml:"report_teams"`
	EventTypes   map[string]string `toml:"event_types"`
	DoubleNames  []DoubleName      `toml:"double_names"`
}

// DefaultAliases returns the built-in tables
func DefaultAliases() Aliases {
	var a Aliases
	if err := toml.Unmarshal(defaultTables, &a); err != nil {
		panic(fmt.Sprintf("normalize: invalid built-in tables: %v", err))
	}
	return a
}

// LoadAliases reads tables from a TOML file and layers them over the
// built-in defaults. Keys in the file win.
func LoadAliases(path string) (Aliases, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Aliases{}, fmt.Errorf("reading alias tables: %w", err)
	}

	var loaded Aliases
	if err := toml.Unmarshal(data, &loaded); err != nil {
		return Aliases{}, fmt.Errorf("parsing alias tables %s: %w", path, err)
	}

	return DefaultAliases().Merge(loaded), nil
}

// Merge returns a copy of a with every table entry of other layered on top
func (a Aliases) Merge(other Aliases) Aliases {
	out := Aliases{
		Replacements: mergeMap(a.Replacements, other.Replacements),
		Corrections:  mergeMap(a.Corrections, other.Corrections),
		APIIDs:       mergeMap(a.APIIDs, other.APIIDs),
		Teams:        mergeMap(a.Teams, other.Teams),
		ReportTeams:  mergeMap(a.ReportTeams, other.ReportTeams),
		EventTypes:   mergeMap(a.EventTypes, other.EventTypes),
	}
	out.DoubleNames = append(append([]DoubleName(nil), a.DoubleNames...), other.DoubleNames...)
	return out
}

func mergeMap(base, over map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

type replacement struct {
	old, new string
}

// orderedReplacements sorts longest key first so overlapping keys apply
// deterministically
func orderedReplacements(m map[string]string) []replacement {
	out := make([]replacement, 0, len(m))
	for k, v := range m {
		out = append(out, replacement{old: k, new: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].old) != len(out[j].old) {
			return len(out[i].old) > len(out[j].old)
		}
		return out[i].old < out[j].old
	})
	return out
}
