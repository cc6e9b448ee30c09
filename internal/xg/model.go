// Package xg scores unblocked shot attempts with an expected-goals model.
package xg

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/fortuna/janus/internal/pbp"
)

//go:embed coefficients.toml
var defaultCoefficients []byte

// Segment is a strength class with its own coefficients
type Segment string

const (
	EvenStrength Segment = "ev"
	PowerPlay    Segment = "pp"
	ShortHanded  Segment = "sh"
	EmptyNet     Segment = "en"
	UnevenNet    Segment = "ue"
)

// Features describes one shot attempt and the play before it
type Features struct {
	Type          pbp.EventType
	ShotType      string
	Distance      float64
	Angle         float64
	OwnSkaters    int
	OppSkaters    int
	OppNetEmpty   bool
	OwnNetEmpty   bool
	ScoreDiff     int
	PenaltyShot   bool
	HasPrior      bool
	PriorType     pbp.EventType
	PriorSameTeam bool
	SecondsSince  int
	DistanceSince float64
}

// Predictor returns a goal probability for a shot attempt. Implementations
// must be safe for concurrent use.
type Predictor interface {
	Predict(f Features) float64
}

// Coefficients for one segment
type Coefficients struct {
	Intercept     float64            `toml:"intercept"`
	Distance      float64            `toml:"distance"`
	Angle         float64            `toml:"angle"`
	Rebound       float64            `toml:"rebound"`
	Rush          float64            `toml:"rush"`
	PriorFace     float64            `toml:"prior_face"`
	ScoreTrailing float64            `toml:"score_trailing"`
	ScoreLeading  float64            `toml:"score_leading"`
	ShotTypes     map[string]float64 `toml:"shot_types"`
}

// Model is a logistic baseline with one set of coefficients per segment.
// It is immutable after loading.
type Model struct {
	Segments map[string]Coefficients `toml:"segments"`
}

// DefaultModel returns the built-in coefficients
func DefaultModel() *Model {
	m, err := parseModel(defaultCoefficients)
	if err != nil {
		panic(fmt.Sprintf("xg: invalid built-in coefficients: %v", err))
	}
	return m
}

// LoadModel reads coefficients from a TOML file
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading xg coefficients: %w", err)
	}
	m, err := parseModel(data)
	if err != nil {
		return nil, fmt.Errorf("parsing xg coefficients %s: %w", path, err)
	}
	return m, nil
}

func parseModel(data []byte) (*Model, error) {
	var m Model
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	for _, s := range []Segment{EvenStrength, PowerPlay, ShortHanded, EmptyNet, UnevenNet} {
		if _, ok := m.Segments[string(s)]; !ok {
			return nil, fmt.Errorf("missing segment %q", s)
		}
	}
	return &m, nil
}

// Classify picks the segment for a shot
func Classify(f Features) Segment {
	switch {
	case f.OppNetEmpty:
		return EmptyNet
	case f.OwnNetEmpty:
		return UnevenNet
	case f.OwnSkaters > f.OppSkaters:
		return PowerPlay
	case f.OwnSkaters < f.OppSkaters:
		return ShortHanded
	}
	return EvenStrength
}

// Predict returns the goal probability of an unblocked attempt, or 0 for
// anything else
func (m *Model) Predict(f Features) float64 {
	if !f.Type.IsFenwick() {
		return 0
	}

	c := m.Segments[string(Classify(f))]
	z := c.Intercept + c.Distance*f.Distance + c.Angle*f.Angle
	z += c.ShotTypes[strings.ToUpper(f.ShotType)]

	if f.HasPrior {
		switch {
		case f.PriorSameTeam && f.PriorType.IsFenwick() && f.SecondsSince <= 3:
			z += c.Rebound
		case !f.PriorSameTeam && f.SecondsSince <= 4 && f.DistanceSince > 50:
			z += c.Rush
		case f.PriorType == pbp.Faceoff && f.SecondsSince <= 5:
			z += c.PriorFace
		}
	}

	switch {
	case f.ScoreDiff < 0:
		z += c.ScoreTrailing
	case f.ScoreDiff > 0:
		z += c.ScoreLeading
	}

	return 1 / (1 + math.Exp(-z))
}
