// Package scroll implements a bounded, scrollable window over a logically
// unbounded, paginated source.
//
// The Window holds at most 2×pageSize items; merging past that trims the far
// end and compensates the opposite pagination offset, so memory stays
// proportional to the page size rather than to the list. The Coordinator is
// an event-driven state machine that turns boundary-crossing signals into
// page fetches, one at a time, and merges results back through the Window.
//
// Fetches are split-phase so the caller decides where they run:
//
//	f := coord.CrossForward() // nil when the crossing is a no-op
//	items, err := f.Run(ctx)  // typically off the event loop
//	res, err := coord.Complete(f, items, err)
//
// Scroll anchoring for backward merges (ScrollDelta) assumes every item
// occupies equal height; variable-height content is out of scope.
package scroll
