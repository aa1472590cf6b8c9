package scroll

import (
	"errors"
	"fmt"
)

// ErrInvalidPageSize is returned when a window or coordinator is constructed
// with a non-positive page size. It is fatal at setup, before any fetch.
var ErrInvalidPageSize = errors.New("page size must be positive")

// Window holds the bounded, materialized slice of a logically unbounded list,
// together with the two pagination offsets and the forward-exhaustion flag.
// Capacity is 2×pageSize: merges past that trim the far end and compensate the
// opposite offset, so what is materialized always lines up with the source.
//
// The Coordinator is the only writer; it mutates the window through the merge
// and reset operations here, never directly.
type Window[T any] struct {
	pageSize int
	items    []T

	// prevOffset is the source offset of the first materialized item, which
	// is where the next backward fetch resumes. nextOffset is the source
	// offset to request on the next forward fetch.
	prevOffset int
	nextOffset int

	dataFinished bool
}

// NewWindow creates an empty window for the given page size.
func NewWindow[T any](pageSize int) (*Window[T], error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("scroll: %w, got %d", ErrInvalidPageSize, pageSize)
	}
	return &Window[T]{pageSize: pageSize}, nil
}

// Cap is the maximum number of items held at rest.
func (w *Window[T]) Cap() int { return 2 * w.pageSize }

func (w *Window[T]) Len() int          { return len(w.items) }
func (w *Window[T]) Items() []T        { return w.items }
func (w *Window[T]) PageSize() int     { return w.pageSize }
func (w *Window[T]) PrevOffset() int   { return w.prevOffset }
func (w *Window[T]) NextOffset() int   { return w.nextOffset }
func (w *Window[T]) DataFinished() bool { return w.dataFinished }

// AtStart reports whether the window still begins at the head of the source.
// Callers use it to decide whether start-of-list presentation (top padding,
// headers) applies; once trimming moves the window past the head it must be
// suppressed until a backward fetch brings the head back.
func (w *Window[T]) AtStart() bool { return w.prevOffset == 0 }

// Reset empties the window, zeroes both offsets and clears the exhaustion
// flag. Called whenever the source identity changes: window state never
// carries over between two different sources.
func (w *Window[T]) Reset() {
	w.items = nil
	w.prevOffset = 0
	w.nextOffset = 0
	w.dataFinished = false
}

// MergeForward appends a fetched page. A short page marks the source as
// exhausted forward. If the result overflows capacity the leading excess is
// discarded and prevOffset moves forward by the same amount, so the next
// backward fetch resumes from the new, later starting point.
func (w *Window[T]) MergeForward(fetched []T) []T {
	if len(fetched) < w.pageSize {
		w.dataFinished = true
	}
	w.items = append(w.items, fetched...)
	if excess := len(w.items) - w.Cap(); excess > 0 {
		w.items = w.items[excess:]
		w.prevOffset += excess
	}
	return w.items
}

// MergeBackward prepends a fetched page, trimming the trailing excess and
// pulling nextOffset back by the same amount to keep the forward cursor
// consistent with what is materialized. The returned count is the number of
// items actually prepended, which scroll anchoring needs and which may be
// less than a full page near the head of the source.
func (w *Window[T]) MergeBackward(fetched []T) ([]T, int) {
	merged := make([]T, 0, len(fetched)+len(w.items))
	merged = append(merged, fetched...)
	merged = append(merged, w.items...)
	w.items = merged
	if excess := len(w.items) - w.Cap(); excess > 0 {
		w.items = w.items[:len(w.items)-excess]
		w.nextOffset -= excess
	}
	return w.items, len(fetched)
}

// NextBackwardOffset computes the source offset for the next backward fetch.
// The window length is reduced to its remainder modulo the page size so the
// fetch stays aligned to source page boundaries even after a partial or
// trimmed merge left the window at an odd length. Never negative.
func (w *Window[T]) NextBackwardOffset() int {
	remainder := len(w.items) % w.pageSize
	next := w.prevOffset - w.pageSize
	if remainder != 0 {
		next = w.prevOffset - (len(w.items) - remainder)
	}
	return max(next, 0)
}
