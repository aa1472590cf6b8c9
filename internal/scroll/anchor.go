package scroll

// Scroll anchoring keeps the viewport visually stable when items are
// prepended: the scroll offset moves down by the height of what was inserted
// above it. The per-item height is estimated from container geometry under
// the assumption that every item occupies equal height. That assumption is a
// documented limitation of the algorithm; variable-height content is not
// corrected for.

// Geometry describes the scroll container at the moment a backward merge
// completed. BaseHeight is the container's total scrollable height before the
// merge, minus the height of any leading loading indicator. IndicatorHeight
// is the height of a leading indicator that remains visible after the merge,
// zero when none does. MaxElements is the window capacity (2×pageSize).
type Geometry struct {
	BaseHeight      float64
	IndicatorHeight float64
	MaxElements     int
}

// ScrollDelta returns how far the scroll offset must increase so the item at
// the top of the viewport before the prepend stays at the same visual
// position after it.
func ScrollDelta(g Geometry, prepended int) float64 {
	if g.MaxElements <= 0 || prepended <= 0 {
		return 0
	}
	elementHeight := g.BaseHeight / float64(g.MaxElements)
	return float64(prepended)*elementHeight - g.IndicatorHeight
}
