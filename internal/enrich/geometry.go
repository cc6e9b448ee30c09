package enrich

import (
	"math"

	"github.com/fortuna/janus/internal/pbp"
)

// goalLineX is the distance from centre ice to either goal line, in feet
const goalLineX = 89.0

// shot types recorded close enough to the net that the text distance is
// never used to correct the coordinates
var nearNetDetails = map[string]bool{
	"Tip-In":      true,
	"Wrap-around": true,
	"Deflected":   true,
}

// shotGeometry returns distance and angle to the attacked net. When the
// report distance says the shot came from beyond the goal line distance
// and nothing else places it in the offensive zone, the coordinates are
// taken as mirrored and measured to the far net.
func shotGeometry(ev *pbp.Event, zone string, pbpDistance float64) (float64, float64, bool) {
	if ev.CoordsX == nil || ev.CoordsY == nil {
		return 0, 0, false
	}
	x, y := *ev.CoordsX, *ev.CoordsY

	depth := goalLineX - math.Abs(x)
	if ev.Type.IsFenwick() && pbpDistance > goalLineX && x != 0 &&
		!nearNetDetails[ev.Detail] && zone != "OFF" {
		depth = math.Abs(x) + goalLineX
	}

	return math.Sqrt(depth*depth + y*y), angle(y, depth), true
}

func angle(y, depth float64) float64 {
	if depth == 0 {
		if y == 0 {
			return 0
		}
		return 90
	}
	return math.Abs(math.Atan(y/depth)) * 180 / math.Pi
}

// invertZone flips offensive and defensive zones. Neutral and on-the-fly
// zones are unchanged.
func invertZone(zone string) string {
	switch zone {
	case "OFF":
		return "DEF"
	case "DEF":
		return "OFF"
	}
	return zone
}
