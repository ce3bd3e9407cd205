package fade

import (
	"fmt"
	"math"

	"github.com/fogleman/ease"
)

// Curve maps normalized ramp progress to a normalized output value.
// Every curve must satisfy f(0) == 0 and f(1) == 1.
type Curve func(t float64) float64

// Recognized curve names, as they appear in session documents.
const (
	CurveLinear      = "linear"
	CurveQuadraticIn = "quadratic-in"
	CurveQuadOut     = "quadratic-out"
	CurveLogarithmic = "logarithmic"
)

// CurveByName resolves a session-document curve name to its function.
// An empty name resolves to the linear curve.
func CurveByName(name string) (Curve, error) {
	switch name {
	case CurveLinear, "":
		return ease.Linear, nil
	case CurveQuadraticIn:
		return ease.InQuad, nil
	case CurveQuadOut:
		return ease.OutQuad, nil
	case CurveLogarithmic:
		return Logarithmic, nil
	}
	return nil, fmt.Errorf("unknown fade curve: %q", name)
}

// Logarithmic follows perceived loudness rather than raw amplitude, with a
// -60 dB floor so the ramp still reaches exactly zero.
func Logarithmic(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	return math.Pow(10, 3*(t-1))
}

func clamp(t, min, max float64) float64 {
	return math.Max(math.Min(t, max), min)
}

// ClampUnit clamps a volume into the unit interval.
func ClampUnit(v float64) float64 {
	return clamp(v, 0, 1)
}
