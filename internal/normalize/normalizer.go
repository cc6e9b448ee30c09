// Package normalize canonicalizes event types, player names and team codes
// for both event sources.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/fortuna/janus/internal/pbp"
)

var canonicalTypes = map[pbp.EventType]bool{
	pbp.Goal: true, pbp.Shot: true, pbp.Miss: true, pbp.Block: true,
	pbp.Faceoff: true, pbp.Hit: true, pbp.Giveaway: true, pbp.Takeaway: true,
	pbp.Penalty: true, pbp.Change: true, pbp.Stop: true, pbp.GameStart: true,
	pbp.GameEnd: true, pbp.PeriodEnd: true, pbp.GameOver: true, pbp.PeriodBeg: true,
	pbp.DelayPen: true, pbp.Anthem: true, pbp.ShootoutEnd: true,
}

// Issues collects what a normalization pass could not resolve. Nothing in it
// is fatal.
type Issues struct {
	UnmappedTypes     []string
	UnresolvedPlayers []string
	UnresolvedTimes   int
}

func (i *Issues) addType(t string) {
	for _, seen := range i.UnmappedTypes {
		if seen == t {
			return
		}
	}
	i.UnmappedTypes = append(i.UnmappedTypes, t)
}

func (i *Issues) addPlayer(p string) {
	for _, seen := range i.UnresolvedPlayers {
		if seen == p {
			return
		}
	}
	i.UnresolvedPlayers = append(i.UnresolvedPlayers, p)
}

// Add folds another pass's issues into i
func (i *Issues) Add(other Issues) {
	for _, t := range other.UnmappedTypes {
		i.addType(t)
	}
	for _, p := range other.UnresolvedPlayers {
		i.addPlayer(p)
	}
	i.UnresolvedTimes += other.UnresolvedTimes
}

// Empty reports whether nothing went unresolved
func (i Issues) Empty() bool {
	return len(i.UnmappedTypes) == 0 && len(i.UnresolvedPlayers) == 0 && i.UnresolvedTimes == 0
}

// Normalizer applies a fixed set of alias tables
type Normalizer struct {
	aliases      Aliases
	replacements []replacement
	reportTeams  []replacement
}

// New creates a normalizer over the given tables
func New(aliases Aliases) *Normalizer {
	return &Normalizer{
		aliases:      aliases,
		replacements: orderedReplacements(aliases.Replacements),
		reportTeams:  orderedReplacements(aliases.ReportTeams),
	}
}

// Transliterate strips diacritics and drops anything left outside ASCII
func Transliterate(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}

	var b strings.Builder
	b.Grow(len(out))
	for _, r := range out {
		if r < unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeName transliterates, upper-cases and applies the alias tables
func (n *Normalizer) NormalizeName(raw string) string {
	name := strings.ToUpper(Transliterate(strings.TrimSpace(raw)))
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return ""
	}

	for _, r := range n.replacements {
		name = strings.ReplaceAll(name, r.old, r.new)
	}
	if fixed, ok := n.aliases.Corrections[name]; ok {
		name = fixed
	}
	return name
}

// APIName converts a canonical name to FIRST.LAST form
func APIName(name string) string {
	first, last, _ := strings.Cut(name, " ")
	return first + "." + last
}

// NormalizeTeam applies franchise renames
func (n *Normalizer) NormalizeTeam(raw string) string {
	team := strings.ToUpper(Transliterate(strings.TrimSpace(raw)))
	if renamed, ok := n.aliases.Teams[team]; ok {
		return renamed
	}
	if renamed, ok := n.aliases.ReportTeams[team]; ok {
		return renamed
	}
	return team
}

// FixReportTeams rewrites tri-code spellings inside a report description
func (n *Normalizer) FixReportTeams(description string) string {
	for _, r := range n.reportTeams {
		description = strings.ReplaceAll(description, r.old, r.new)
	}
	return description
}

// EventType maps source vocabulary to the canonical taxonomy. Unknown types
// come back unchanged with ok set to false.
func (n *Normalizer) EventType(raw string) (pbp.EventType, bool) {
	key := strings.ToUpper(strings.TrimSpace(raw))
	key = strings.ReplaceAll(key, "-", "_")
	key = strings.ReplaceAll(key, " ", "_")

	if canonicalTypes[pbp.EventType(key)] {
		return pbp.EventType(key), true
	}
	if mapped, ok := n.aliases.EventTypes[key]; ok {
		return pbp.EventType(mapped), true
	}
	return pbp.EventType(strings.TrimSpace(raw)), false
}

// Game normalizes the team codes and names on a game header
func (n *Normalizer) Game(g pbp.Game) pbp.Game {
	g.HomeTeam = n.NormalizeTeam(g.HomeTeam)
	g.AwayTeam = n.NormalizeTeam(g.AwayTeam)
	if g.HomeTeamName != "" {
		g.HomeTeamName = n.NormalizeTeam(g.HomeTeamName)
	}
	if g.AwayTeamName != "" {
		g.AwayTeamName = n.NormalizeTeam(g.AwayTeamName)
	}
	return g
}

// Roster builds roster entries from report rows. Captain and alternate
// marks after the name are dropped, and players who share an api name are
// told apart with the double-name table.
func (n *Normalizer) Roster(game pbp.Game, rows []pbp.RosterRow) []pbp.RosterEntry {
	entries := make([]pbp.RosterEntry, 0, len(rows))

	for _, row := range rows {
		raw, _, _ := strings.Cut(row.Name, "(")
		name := n.NormalizeName(raw)
		position := strings.ToUpper(strings.TrimSpace(row.Position))

		status := row.Status
		if status == "" {
			status = pbp.Active
		}

		entries = append(entries, pbp.RosterEntry{
			Team:     game.Team(row.Venue),
			Venue:    row.Venue,
			Name:     name,
			APIName:  n.fixDoubleName(APIName(name), position, game.Season),
			Jersey:   row.Jersey,
			Position: position,
			Status:   status,
		})
	}

	return entries
}

func (n *Normalizer) fixDoubleName(apiName, position string, season int) string {
	for _, rule := range n.aliases.DoubleNames {
		if rule.matches(apiName, position, season) {
			return rule.Replacement
		}
	}
	return apiName
}
