package risk

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedMargin struct {
	perLot float64
	err    error
}

func (m fixedMargin) MarginRequired(volume, price float64) (float64, error) {
	if m.err != nil {
		return 0, m.err
	}
	return volume * m.perLot, nil
}

func baseInput() SizeInput {
	return SizeInput{
		Balance:    10_000,
		RiskPct:    1,
		Entry:      1.2000,
		Stop:       1.1950, // 50 ticks at 0.0001... stop distance 0.005
		TickValue:  10,
		LotMin:     0.01,
		LotMax:     50,
		LotStep:    0.01,
		FreeMargin: 100_000,
		Margin:     fixedMargin{perLot: 1000},
	}
}

func TestSizeHappyPath(t *testing.T) {
	// risk 100, stopDist 0.005, tickValue 10 => 2000 raw, clamped to lotMax 50.
	vol, err := Size(baseInput())
	require.NoError(t, err)
	assert.Equal(t, 50.0, vol)
}

func TestSizeQuantizesDown(t *testing.T) {
	in := baseInput()
	in.Balance = 100
	in.RiskPct = 1.11 // raw = 1.11 / 0.05 = 22.2 ... adjusted below
	in.Stop = in.Entry - 0.5
	in.TickValue = 1
	// riskAmount 1.11, stopDist 0.5 => raw 2.22; steps of 0.25 floor to 2.0
	in.LotStep = 0.25
	vol, err := Size(in)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, vol, 1e-9)
}

func TestSizeGuards(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*SizeInput)
		wantErr error
	}{
		{"zero stop distance", func(in *SizeInput) { in.Stop = in.Entry }, ErrStopDistance},
		{"zero tick value", func(in *SizeInput) { in.TickValue = 0 }, ErrTickValue},
		{"negative tick value", func(in *SizeInput) { in.TickValue = -3 }, ErrTickValue},
		{"below min lot", func(in *SizeInput) {
			in.Balance = 1
			in.RiskPct = 0.01
		}, ErrBelowMinLot},
		{"margin exceeded", func(in *SizeInput) { in.FreeMargin = 10 }, ErrMargin},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := baseInput()
			tc.mutate(&in)
			_, err := Size(in)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestSizeWrapsMarginError(t *testing.T) {
	in := baseInput()
	in.Margin = fixedMargin{err: errors.New("venue offline")}
	_, err := Size(in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "venue offline")
}

func TestSizeMonotonicInRiskAndBalance(t *testing.T) {
	size := func(balance, riskPct float64) float64 {
		in := baseInput()
		in.Balance = balance
		in.RiskPct = riskPct
		in.LotMax = 1e9 // avoid the clamp so monotonicity is visible
		vol, err := Size(in)
		require.NoError(t, err)
		return vol
	}

	prev := 0.0
	for _, pct := range []float64{0.25, 0.5, 1, 2, 4} {
		vol := size(10_000, pct)
		assert.GreaterOrEqual(t, vol, prev, "volume must not shrink as riskPct grows")
		prev = vol
	}

	prev = 0.0
	for _, bal := range []float64{1_000, 5_000, 20_000, 80_000} {
		vol := size(bal, 1)
		assert.GreaterOrEqual(t, vol, prev, "volume must not shrink as balance grows")
		prev = vol
	}
}

func TestSizeClampsAtLotMax(t *testing.T) {
	in := baseInput()
	in.LotMax = 5
	vol, err := Size(in)
	require.NoError(t, err)
	assert.Equal(t, 5.0, vol)
}

func TestQuantizeDown(t *testing.T) {
	assert.InDelta(t, 0.07, QuantizeDown(0.079, 0.01), 1e-9)
	assert.InDelta(t, 0.0, QuantizeDown(0.009, 0.01), 1e-9)
	assert.Equal(t, 1.23, QuantizeDown(1.23, 0)) // no step, unchanged
}
