package scroll

// Boundary triggers sit about a fifth of a page before the window's physical
// edges so the source has time to respond before the user reaches the end.

// ForwardThreshold returns the index, counting from the head of the window,
// that hosts the forward boundary trigger: floor(windowLen - 0.2×pageSize),
// clamped into [0, windowLen-1]. Returns -1 for an empty window.
func ForwardThreshold(windowLen, pageSize int) int {
	if windowLen == 0 {
		return -1
	}
	idx := windowLen - (pageSize+4)/5 // == floor(windowLen - pageSize/5.0)
	if idx < 0 {
		idx = 0
	}
	if idx > windowLen-1 {
		idx = windowLen - 1
	}
	return idx
}

// BackwardThreshold returns the index hosting the backward boundary trigger:
// floor(0.2×pageSize). Only meaningful while the window starts past the head
// of the source; callers skip it otherwise.
func BackwardThreshold(pageSize int) int {
	return pageSize / 5
}
