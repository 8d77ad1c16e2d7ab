// Package integrity exposes the Global Integrity Index (GII) to the ledger:
// the threshold bands that gate minting and the providers that report the
// current value.
package integrity

import "fmt"

// Thresholds are the GII band boundaries.
type Thresholds struct {
	Healthy  float64 `json:"healthy"`
	Warning  float64 `json:"warning"`
	Critical float64 `json:"critical"`
	Halt     float64 `json:"halt"`
}

// DefaultThresholds are the production band boundaries.
var DefaultThresholds = Thresholds{
	Healthy:  0.90,
	Warning:  0.75,
	Critical: 0.60,
	Halt:     0.50,
}

// Band names reported by Thresholds.Band.
const (
	BandHealthy  = "healthy"
	BandWarning  = "warning"
	BandCritical = "critical"
	BandDegraded = "degraded"
	BandHalted   = "halted"
)

// Halted reports whether positive minting is blocked at gii.
func (t Thresholds) Halted(gii float64) bool {
	return gii < t.Halt
}

// Multiplier is the reward multiplier for gii. It is a staircase, not an
// interpolation: 1.0 at or above Healthy, 0.8 at or above Warning, 0.5 at or
// above Critical, and 0 below that.
func (t Thresholds) Multiplier(gii float64) float64 {
	switch {
	case gii >= t.Healthy:
		return 1.0
	case gii >= t.Warning:
		return 0.8
	case gii >= t.Critical:
		return 0.5
	default:
		return 0
	}
}

// Band names the band gii falls in.
func (t Thresholds) Band(gii float64) string {
	switch {
	case t.Halted(gii):
		return BandHalted
	case gii >= t.Healthy:
		return BandHealthy
	case gii >= t.Warning:
		return BandWarning
	case gii >= t.Critical:
		return BandCritical
	default:
		return BandDegraded
	}
}

// HaltMessage is the human-readable explanation for a blocked mint.
func (t Thresholds) HaltMessage(gii float64) string {
	return fmt.Sprintf("MIC minting halted - GII (%.3f) below safe threshold (%.2f)", gii, t.Halt)
}

// Validate checks that gii is a usable index value.
func Validate(gii float64) error {
	if gii != gii || gii < 0 || gii > 1 {
		return fmt.Errorf("integrity index %v outside [0,1]", gii)
	}
	return nil
}
