// Package zone holds the supply/demand zone model: detection of reversal
// bands from closed bars and the bounded registry that tracks live zones.
package zone

import "time"

// Direction classifies the reversal a zone is expected to produce.
type Direction int

const (
	// Demand expects an upward bounce off the band.
	Demand Direction = iota + 1
	// Supply expects a downward rejection off the band.
	Supply
)

func (d Direction) String() string {
	switch d {
	case Demand:
		return "demand"
	case Supply:
		return "supply"
	default:
		return "unknown"
	}
}

// Zone is a price band expected to produce one reversal trade. It is never
// mutated after creation; the registry consumes or evicts it whole.
type Zone struct {
	Top       float64
	Bottom    float64
	Dir       Direction
	CreatedAt time.Time
}

// Height returns the band height.
func (z Zone) Height() float64 { return z.Top - z.Bottom }

// Contains reports whether the price sits inside the band, with a margin
// expressed as a fraction of the band height on each side.
func (z Zone) Contains(price, marginRatio float64) bool {
	margin := marginRatio * z.Height()
	return price >= z.Bottom-margin && price <= z.Top+margin
}
