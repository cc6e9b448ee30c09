// Package htmlreport parses the league's HTML game reports: play-by-play
// (PL), rosters (RO) and home/visitor time on ice (TH/TV).
package htmlreport

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/encoding/charmap"

	"github.com/fortuna/janus/internal/pbp"
)

// ErrEmptyReport means the document parsed but held no usable rows
var ErrEmptyReport = errors.New("report has no rows")

const (
	playColumns  = 8
	shiftColumns = 5
)

var (
	reGameTeam = regexp.MustCompile(`^(.*?)(?:Match|Game)`)
	reSpaces   = regexp.MustCompile(`\s+`)
)

var positionLetters = map[string]string{
	"CENTER":     "C",
	"LEFT WING":  "L",
	"RIGHT WING": "R",
	"DEFENSE":    "D",
	"DEFENCE":    "D",
	"GOALIE":     "G",
}

// PlayByPlay is a parsed PL report
type PlayByPlay struct {
	AwayTeamName string
	HomeTeamName string
	Events       []pbp.HTMLEvent
}

// Roster is a parsed RO report
type Roster struct {
	AwayTeamName string
	HomeTeamName string
	Rows         []pbp.RosterRow
}

// Shifts is a parsed TH or TV report
type Shifts struct {
	TeamName string
	Rows     []pbp.ShiftRow
}

// document decodes a report. The league serves them as ISO-8859-1.
func document(r io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(charmap.ISO8859_1.NewDecoder().Reader(r))
	if err != nil {
		return nil, fmt.Errorf("parsing report html: %w", err)
	}
	return doc, nil
}

func cleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}

// ParsePlayByPlay reads a PL report. Header rows repeated on every printed
// page are dropped.
func ParsePlayByPlay(r io.Reader) (*PlayByPlay, error) {
	doc, err := document(r)
	if err != nil {
		return nil, err
	}

	report := &PlayByPlay{}
	doc.Find(`td[align="center"][style="font-size: 10px;font-weight:bold"]`).Each(func(i int, s *goquery.Selection) {
		text := cleanText(s.Text())
		switch {
		case report.AwayTeamName == "" && (strings.Contains(text, "Away Game") || strings.Contains(text, "tr./Away")):
			report.AwayTeamName = gameHeaderTeam(text)
		case report.HomeTeamName == "" && (strings.Contains(text, "Home Game") || strings.Contains(text, "Dom./Home")):
			report.HomeTeamName = gameHeaderTeam(text)
		}
	})

	doc.Find("tr").Each(func(i int, row *goquery.Selection) {
		cells := row.ChildrenFiltered(`td[class*="bborder"]`)
		if cells.Length() != playColumns {
			return
		}

		first := cleanText(cells.Eq(0).Text())
		if first == "#" || cleanText(cells.Eq(1).Text()) == "Per" {
			return
		}

		idx, err := strconv.Atoi(first)
		if err != nil {
			return
		}

		report.Events = append(report.Events, pbp.HTMLEvent{
			EventIdx:    idx,
			Period:      cleanText(cells.Eq(1).Text()),
			Strength:    cleanText(cells.Eq(2).Text()),
			Time:        strings.ReplaceAll(cleanText(cells.Eq(3).Text()), " ", ""),
			Event:       cleanText(cells.Eq(4).Text()),
			Description: cleanText(cells.Eq(5).Text()),
			AwaySkaters: onIcePositions(cells.Eq(6)),
			HomeSkaters: onIcePositions(cells.Eq(7)),
		})
	})

	if len(report.Events) == 0 {
		return report, ErrEmptyReport
	}
	return report, nil
}

func gameHeaderTeam(text string) string {
	if m := reGameTeam.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return text
}

// onIcePositions reduces an on-ice cell to its position letters, one per
// player, e.g. "CLRDDG"
func onIcePositions(cell *goquery.Selection) string {
	var b strings.Builder
	cell.Find("font[title]").Each(func(i int, font *goquery.Selection) {
		position := cleanText(font.Closest("tr").Next().Find("td").First().Text())
		if position == "" {
			title, _ := font.Attr("title")
			kind, _, _ := strings.Cut(title, " - ")
			position = positionLetters[strings.ToUpper(strings.TrimSpace(kind))]
		}
		b.WriteString(position)
	})
	return b.String()
}

// ParseRoster reads an RO report. Dressed players come first, away then
// home, followed by each team's scratches when the report lists them.
func ParseRoster(r io.Reader) (*Roster, error) {
	doc, err := document(r)
	if err != nil {
		return nil, err
	}

	report := &Roster{}
	doc.Find(`td[class^="teamHeading + border"]`).Each(func(i int, s *goquery.Selection) {
		switch i {
		case 0:
			report.AwayTeamName = cleanText(s.Text())
		case 1:
			report.HomeTeamName = cleanText(s.Text())
		}
	})

	var tables []*goquery.Selection
	doc.Find("table").Each(func(i int, t *goquery.Selection) {
		if isRosterTable(t) {
			tables = append(tables, t)
		}
	})

	venues := []pbp.Venue{pbp.Away, pbp.Home}
	for i, t := range tables {
		if i >= 4 {
			break
		}
		status := pbp.Active
		if i >= 2 {
			status = pbp.Scratch
		}
		report.Rows = append(report.Rows, rosterRows(t, venues[i%2], status)...)
	}

	if len(report.Rows) == 0 {
		return report, ErrEmptyReport
	}
	return report, nil
}

func isRosterTable(t *goquery.Selection) bool {
	header := t.Find("tr").First().ChildrenFiltered("td")
	if header.Length() != 3 {
		return false
	}
	return cleanText(header.Eq(0).Text()) == "#" && cleanText(header.Eq(1).Text()) == "Pos"
}

func rosterRows(t *goquery.Selection, venue pbp.Venue, status pbp.Status) []pbp.RosterRow {
	var rows []pbp.RosterRow
	t.Find("tr").Each(func(i int, tr *goquery.Selection) {
		if i == 0 {
			return
		}
		cells := tr.ChildrenFiltered("td")
		if cells.Length() != 3 {
			return
		}
		jersey, err := strconv.Atoi(cleanText(cells.Eq(0).Text()))
		if err != nil {
			return
		}
		rows = append(rows, pbp.RosterRow{
			Venue:    venue,
			Name:     cleanText(cells.Eq(2).Text()),
			Jersey:   jersey,
			Position: cleanText(cells.Eq(1).Text()),
			Status:   status,
		})
	})
	return rows
}

// ParseShifts reads a TH or TV report for the given side. Each player
// heading ("34 MATTHEWS, AUSTON") is followed by five cells per shift.
func ParseShifts(r io.Reader, venue pbp.Venue) (*Shifts, error) {
	doc, err := document(r)
	if err != nil {
		return nil, err
	}

	report := &Shifts{TeamName: cleanText(doc.Find(`td[class="teamHeading + border"]`).First().Text())}

	var (
		name   string
		jersey int
		cells  []string
	)
	flush := func() {
		for i := 0; i+shiftColumns <= len(cells); i += shiftColumns {
			report.Rows = append(report.Rows, pbp.ShiftRow{
				Venue:     venue,
				Player:    name,
				Jersey:    jersey,
				Period:    strings.TrimSpace(cells[i+1]),
				StartTime: strings.TrimSpace(cells[i+2]),
				EndTime:   cells[i+3],
				Duration:  strings.TrimSpace(cells[i+4]),
			})
		}
		cells = cells[:0]
	}

	doc.Find(`td[class="playerHeading + border"], td[class="lborder + bborder"]`).Each(func(i int, s *goquery.Selection) {
		text := s.Text()
		if n, j, ok := playerHeading(text); ok {
			flush()
			name, jersey = n, j
			return
		}
		if name != "" {
			cells = append(cells, text)
		}
	})
	flush()

	if len(report.Rows) == 0 {
		return report, ErrEmptyReport
	}
	return report, nil
}

// playerHeading splits "34 MATTHEWS, AUSTON" into "AUSTON MATTHEWS" and 34
func playerHeading(text string) (string, int, bool) {
	head, first, ok := strings.Cut(cleanText(text), ", ")
	if !ok {
		return "", 0, false
	}
	number, last, ok := strings.Cut(head, " ")
	if !ok {
		return "", 0, false
	}
	jersey, err := strconv.Atoi(number)
	if err != nil {
		return "", 0, false
	}
	return strings.TrimSpace(first) + " " + strings.TrimSpace(last), jersey, true
}
