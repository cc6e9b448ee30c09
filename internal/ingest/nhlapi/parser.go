// Package nhlapi reads the structured live feed into feed events.
package nhlapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fortuna/janus/internal/pbp"
)

// ErrNoPlays means the feed parsed but carried no plays
var ErrNoPlays = errors.New("feed has no plays")

// Feed is a parsed live feed
type Feed struct {
	Game   pbp.Game
	Events []pbp.APIEvent
}

// ParseFeed decodes a live feed document
func ParseFeed(data []byte) (*Feed, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding feed: %w", err)
	}

	game, err := parseGame(raw)
	if err != nil {
		return nil, err
	}

	plays := extractArray(extractMap(extractMap(raw, "liveData"), "plays"), "allPlays")
	if len(plays) == 0 {
		return &Feed{Game: game}, fmt.Errorf("game %d: %w", game.GameID, ErrNoPlays)
	}

	events := make([]pbp.APIEvent, 0, len(plays))
	for i, playInterface := range plays {
		play, ok := playInterface.(map[string]interface{})
		if !ok {
			continue
		}
		events = append(events, parsePlay(play, i+1))
	}

	return &Feed{Game: game, Events: events}, nil
}

func parseGame(raw map[string]interface{}) (pbp.Game, error) {
	gameData := extractMap(raw, "gameData")
	info := extractMap(gameData, "game")

	gameID := extractInt(raw, "gamePk")
	if gameID == 0 {
		gameID = extractInt(info, "pk")
	}
	if gameID == 0 {
		return pbp.Game{}, fmt.Errorf("feed has no game id")
	}

	teams := extractMap(gameData, "teams")
	home := extractMap(teams, "home")
	away := extractMap(teams, "away")

	game := pbp.Game{
		Season:       extractInt(info, "season"),
		Session:      SessionFor(gameID, extractString(info, "type")),
		GameID:       gameID,
		HomeTeam:     teamCode(home),
		AwayTeam:     teamCode(away),
		HomeTeamName: strings.ToUpper(extractString(home, "name")),
		AwayTeamName: strings.ToUpper(extractString(away, "name")),
	}
	if game.Season == 0 {
		game.Season = SeasonFor(gameID)
	}
	if dt := extractString(extractMap(gameData, "datetime"), "dateTime"); len(dt) >= 10 {
		game.GameDate = dt[:10]
	}

	return game, nil
}

func parsePlay(play map[string]interface{}, fallbackIdx int) pbp.APIEvent {
	result := extractMap(play, "result")
	about := extractMap(play, "about")

	event := pbp.APIEvent{
		EventIdx:        extractInt(about, "eventIdx"),
		Period:          extractInt(about, "period"),
		PeriodTime:      extractString(about, "periodTime"),
		EventType:       fallbackString(extractString(result, "eventTypeId"), extractString(result, "event")),
		EventTeam:       teamCode(extractMap(play, "team")),
		Description:     extractString(result, "description"),
		Detail:          extractString(result, "secondaryType"),
		PenaltySeverity: extractString(result, "penaltySeverity"),
		PenaltyMinutes:  extractInt(result, "penaltyMinutes"),
		Datetime:        extractString(about, "dateTime"),
	}
	if _, ok := about["eventIdx"]; !ok {
		event.EventIdx = fallbackIdx
	}

	coords := extractMap(play, "coordinates")
	event.CoordsX = extractFloat(coords, "x")
	event.CoordsY = extractFloat(coords, "y")

	for i, p := range extractArray(play, "players") {
		if i >= len(event.Players) {
			break
		}
		entry, ok := p.(map[string]interface{})
		if !ok {
			continue
		}
		player := extractMap(entry, "player")
		event.Players[i] = pbp.APIPlayer{
			ID:   extractInt(player, "id"),
			Name: extractString(player, "fullName"),
			Type: extractString(entry, "playerType"),
		}
	}

	return event
}

// SessionFor derives the session from the feed's game type, falling back
// to the game id's type digits
func SessionFor(gameID int, gameType string) pbp.Session {
	switch gameType {
	case "R":
		return pbp.Regular
	case "P":
		return pbp.Playoff
	}
	if (gameID/10000)%100 == 3 {
		return pbp.Playoff
	}
	return pbp.Regular
}

// SeasonFor derives the eight digit season from a game id
func SeasonFor(gameID int) int {
	start := gameID / 1000000
	return start*10000 + start + 1
}

func teamCode(team map[string]interface{}) string {
	return strings.ToUpper(fallbackString(extractString(team, "triCode"), extractString(team, "abbreviation")))
}

// Helper functions

func extractString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return ""
}

func fallbackString(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func extractInt(m map[string]interface{}, key string) int {
	if v, ok := m[key]; ok {
		return parseInt(v)
	}
	return 0
}

func extractFloat(m map[string]interface{}, key string) *float64 {
	v, ok := m[key]
	if !ok {
		return nil
	}
	switch val := v.(type) {
	case float64:
		return &val
	case string:
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return &f
		}
	}
	return nil
}

func extractMap(m map[string]interface{}, key string) map[string]interface{} {
	if v, ok := m[key]; ok {
		if mapVal, ok := v.(map[string]interface{}); ok {
			return mapVal
		}
	}
	return map[string]interface{}{}
}

func extractArray(m map[string]interface{}, key string) []interface{} {
	if v, ok := m[key]; ok {
		if arrVal, ok := v.([]interface{}); ok {
			return arrVal
		}
	}
	return []interface{}{}
}

func parseInt(v interface{}) int {
	switch val := v.(type) {
	case float64:
		return int(val)
	case string:
		i, _ := strconv.Atoi(val)
		return i
	case int:
		return val
	default:
		return 0
	}
}
