package report

import (
	"fmt"
	"math"
)

// NeutralFill is the background for cells with no normalized value.
var NeutralFill = "D3D3D3"

// rampAnchors are evenly spaced stops of a red → yellow → green ramp.
var rampAnchors = [][3]int{
	{215, 48, 39},   // red
	{252, 141, 89},  // orange
	{254, 224, 139}, // yellow
	{145, 207, 96},  // light green
	{26, 152, 80},   // green
}

// RampColor maps a normalized value in [0,1] to an RRGGBB hex string on the
// red-yellow-green ramp. Out-of-range inputs clamp to the endpoints.
func RampColor(n float64) string {
	n = math.Min(math.Max(n, 0), 1)

	segments := len(rampAnchors) - 1
	pos := n * float64(segments)
	lo := int(math.Floor(pos))
	if lo >= segments {
		lo = segments - 1
	}
	frac := pos - float64(lo)

	a, b := rampAnchors[lo], rampAnchors[lo+1]
	r := lerp(a[0], b[0], frac)
	g := lerp(a[1], b[1], frac)
	bl := lerp(a[2], b[2], frac)
	return fmt.Sprintf("%02X%02X%02X", r, g, bl)
}

func lerp(a, b int, frac float64) int {
	return int(math.Round(float64(a) + frac*float64(b-a)))
}
