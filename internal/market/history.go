package market

// History keeps the most recent closed bars, newest last in arrival order.
// It is rebuilt from the live feed after a restart; nothing is persisted.
type History struct {
	bars []Bar
	max  int
}

// NewHistory allocates a history bounded to max bars.
func NewHistory(max int) *History {
	if max < 1 {
		max = 1
	}
	return &History{bars: make([]Bar, 0, max), max: max}
}

// Push appends a closed bar, discarding the oldest once full.
func (h *History) Push(b Bar) {
	h.bars = append(h.bars, b)
	if len(h.bars) > h.max {
		h.bars = h.bars[1:]
	}
}

// Len reports how many bars are held.
func (h *History) Len() int { return len(h.bars) }

// Recent returns up to n bars ordered newest first, the convention the zone
// detector indexes by (0 = latest closed bar).
func (h *History) Recent(n int) []Bar {
	if n > len(h.bars) {
		n = len(h.bars)
	}
	out := make([]Bar, n)
	for i := 0; i < n; i++ {
		out[i] = h.bars[len(h.bars)-1-i]
	}
	return out
}

// Latest returns the most recent closed bar.
func (h *History) Latest() (Bar, error) {
	if len(h.bars) == 0 {
		return Bar{}, ErrNoData
	}
	return h.bars[len(h.bars)-1], nil
}
