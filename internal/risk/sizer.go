// Package risk converts an account risk budget and a stop distance into a
// tradable volume, applying venue lot constraints and a margin guard. Size
// is pure; callers log and count rejections.
package risk

import (
	"errors"
	"fmt"
	"math"
)

// Rejection sentinels name the specific guard that failed. They feed
// diagnostics; a rejected signal is discarded for the cycle, not retried.
var (
	ErrStopDistance = errors.New("risk: stop distance must be positive")
	ErrTickValue    = errors.New("risk: tick value must be positive")
	ErrBelowMinLot  = errors.New("risk: sized volume below minimum lot")
	ErrMargin       = errors.New("risk: required margin exceeds free margin")
)

// MarginCalculator prices the margin a hypothetical order would lock up.
type MarginCalculator interface {
	MarginRequired(volume, price float64) (float64, error)
}

// SizeInput carries everything Size needs; all prices in instrument units,
// volumes in lots.
type SizeInput struct {
	Balance    float64
	RiskPct    float64
	Entry      float64
	Stop       float64
	TickValue  float64
	LotMin     float64
	LotMax     float64
	LotStep    float64
	FreeMargin float64
	Margin     MarginCalculator
}

// Size returns the tradable volume for the given risk budget, or a rejection
// naming the failed guard.
func Size(in SizeInput) (float64, error) {
	stopDist := math.Abs(in.Entry - in.Stop)
	if stopDist <= 0 {
		return 0, ErrStopDistance
	}
	if in.TickValue <= 0 {
		return 0, ErrTickValue
	}

	riskAmount := in.Balance * in.RiskPct / 100
	raw := riskAmount / (stopDist * in.TickValue)

	vol := QuantizeDown(raw, in.LotStep)
	if vol > in.LotMax {
		vol = in.LotMax
	}
	if vol < in.LotMin {
		return 0, ErrBelowMinLot
	}

	if in.Margin != nil {
		required, err := in.Margin.MarginRequired(vol, in.Entry)
		if err != nil {
			return 0, fmt.Errorf("margin check: %w", err)
		}
		if required > in.FreeMargin {
			return 0, ErrMargin
		}
	}
	return vol, nil
}

// QuantizeDown floors a volume to the venue's lot step.
func QuantizeDown(volume, step float64) float64 {
	if step <= 0 {
		return volume
	}
	return math.Floor(volume/step) * step
}
