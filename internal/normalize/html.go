package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/fortuna/janus/internal/gameclock"
	"github.com/fortuna/janus/internal/pbp"
	"github.com/fortuna/janus/internal/roster"
)

var (
	reEventTeam    = regexp.MustCompile(`^([A-Z]{3}|[A-Z]\.[A-Z])`)
	rePlayerRef    = regexp.MustCompile(`[A-Z]{3}\s+#[0-9]{1,2}`)
	rePlayerRefAlt = regexp.MustCompile(`([A-Z]{3}|[A-Z]\.[A-Z])\s+([A-Z]+\s-\s)?#([0-9]{1,2})`)
	reJersey       = regexp.MustCompile(`#([0-9]{1,2})`)
	reClock        = regexp.MustCompile(`^(\d+):(\d{2})`)
	reZone         = regexp.MustCompile(`([a-zA-Z]{3})\.\s*[zZ]one`)
	reShotDetail   = regexp.MustCompile(`,\s*([a-zA-Z|-]+),`)
	reLocalTime    = regexp.MustCompile(`([0-9]+:[0-9]+)\s*[A-Z]+`)
	rePenDuration  = regexp.MustCompile(`\(([0-9]+\s[a-z]*)\)`)
	rePenType      = regexp.MustCompile(`#\d{1,2}\s[A-Z]+\s*(.*)\(\d+`)
	rePenTypeName  = regexp.MustCompile(`.[A-Z]+\s`)
	rePbpDistance  = regexp.MustCompile(`(\d+)\s*ft`)
	reUpper        = regexp.MustCompile(`[A-Z]`)
)

// NormalizeHTML converts report rows into canonical events in report order.
// Header rows repeated inside the report are skipped.
func (n *Normalizer) NormalizeHTML(game pbp.Game, rows []pbp.HTMLEvent, r *roster.Roster) ([]pbp.Event, Issues) {
	var issues Issues
	events := make([]pbp.Event, 0, len(rows))

	for _, row := range rows {
		if strings.TrimSpace(row.Period) == "Per" {
			continue
		}

		eventType, ok := n.EventType(row.Event)
		if !ok {
			issues.addType(row.Event)
		}

		period, err := gameclock.ParsePeriod(row.Period)
		if err != nil {
			period = 0
		}

		// blank time cells start the period; anything else must parse
		clock := strings.TrimSpace(strings.ReplaceAll(row.Time, "-", ""))
		if clock == "" {
			clock = "0:00"
		} else if m := reClock.FindString(clock); m != "" {
			clock = m
		}
		periodSeconds, err := gameclock.ParseClock(clock)
		if err != nil {
			periodSeconds = gameclock.Unresolved
		}
		gameSeconds, err := gameclock.Resolve(period, periodSeconds, game.Session)
		if err != nil {
			issues.UnresolvedTimes++
		}

		description := Transliterate(n.FixReportTeams(row.Description))

		ev := pbp.Event{
			Period:          period,
			PeriodSeconds:   periodSeconds,
			GameSeconds:     gameSeconds,
			Time:            clock,
			Type:            eventType,
			Description:     description,
			Strength:        strings.TrimSpace(row.Strength),
			Zone:            parseZone(description),
			PbpDistance:     parseDistance(description),
			HomeSkaterCount: skaterCount(row.HomeSkaters),
			AwaySkaterCount: skaterCount(row.AwaySkaters),
			Origin:          pbp.SourceHTML,
			OrigIndex:       row.EventIdx,
		}

		if eventType != pbp.Stop {
			if m := reEventTeam.FindString(description); m != "" {
				team := n.NormalizeTeam(m)
				if _, ok := game.TeamVenue(team); ok {
					ev.EventTeam = team
					ev.OppTeam = game.Opponent(team)
				}
			}
		}

		ev.Detail = parseDetail(eventType, description)
		if eventType == pbp.Penalty {
			ev.PenaltyType = parsePenaltyType(description)
		}

		for i, ref := range playerRefs(eventType, ev.EventTeam, description) {
			ev.Players[i] = resolveRef(ref, r, &issues)
		}

		switch eventType {
		case pbp.Faceoff:
			if ev.EventTeam != "" && ev.EventTeam == game.HomeTeam {
				ev.Players[0], ev.Players[1] = ev.Players[1], ev.Players[0]
			}
		case pbp.Block:
			SwapBlock(&ev)
		}

		events = append(events, ev)
	}

	return events, issues
}

// playerRefs pulls up to three "TOR34" style references out of a description
func playerRefs(eventType pbp.EventType, team, description string) []string {
	var refs []string
	for _, m := range rePlayerRef.FindAllString(description, -1) {
		refs = append(refs, strings.ReplaceAll(strings.Join(strings.Fields(m), ""), "#", ""))
	}

	if len(refs) == 0 {
		if m := rePlayerRefAlt.FindStringSubmatch(description); m != nil {
			refs = append(refs, m[1]+m[3])
		}
	}

	jerseys := reJersey.FindAllStringSubmatch(description, -1)

	if eventType == pbp.Penalty && strings.Contains(strings.ToLower(description), "too many men") {
		refs = []string{pbp.Bench}
		if len(jerseys) > 0 && team != "" {
			refs = append(refs, team+jerseys[0][1])
		}
	}

	if eventType == pbp.Goal && team != "" {
		for i := 1; i < len(jerseys) && i < 3; i++ {
			for len(refs) <= i {
				refs = append(refs, "")
			}
			refs[i] = team + jerseys[i][1]
		}
	}

	if len(refs) > 3 {
		refs = refs[:3]
	}
	return refs
}

// resolveRef maps a reference to a roster player, keeping the raw reference
// when the roster has no match
func resolveRef(ref string, r *roster.Roster, issues *Issues) pbp.Player {
	if ref == "" {
		return pbp.Player{}
	}
	if ref == pbp.Bench {
		return pbp.Player{Name: pbp.Bench, APIName: pbp.Bench}
	}
	if r != nil {
		if e, ok := r.ByTeamNum(ref); ok {
			return roster.Player(e)
		}
	}
	issues.addPlayer(ref)
	return pbp.Player{Name: ref, APIName: ref}
}

func parseZone(description string) string {
	m := reZone.FindStringSubmatch(description)
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1])
}

func parseDistance(description string) *float64 {
	m := rePbpDistance.FindStringSubmatch(description)
	if m == nil {
		return nil
	}
	d, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	return &d
}

func parseDetail(eventType pbp.EventType, description string) string {
	var m []string
	switch {
	case eventType.IsCorsi():
		m = reShotDetail.FindStringSubmatch(description)
	case eventType == pbp.PeriodBeg || eventType == pbp.PeriodEnd ||
		eventType == pbp.ShootoutEnd || eventType == pbp.GameOver:
		m = reLocalTime.FindStringSubmatch(description)
	case eventType == pbp.Penalty:
		m = rePenDuration.FindStringSubmatch(description)
	}
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func parsePenaltyType(description string) string {
	m := rePenType.FindStringSubmatch(description)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(rePenTypeName.ReplaceAllString(m[1], ""))
}

// skaterCount counts position letters in an on-ice cell, goalies excluded
func skaterCount(cell string) int {
	cell = strings.ReplaceAll(cell, "\n", "")
	return len(reUpper.FindAllString(cell, -1)) - strings.Count(cell, "G")
}
