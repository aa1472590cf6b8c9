package scroll

import (
	"context"
	"fmt"
)

// State is the coordinator's fetch state. At most one fetch is outstanding at
// a time; every state other than Idle means a page request is in flight.
type State int

const (
	StateIdle State = iota
	StateFetchingInitial
	StateFetchingForward
	StateFetchingBackward
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetchingInitial:
		return "fetching-initial"
	case StateFetchingForward:
		return "fetching-forward"
	case StateFetchingBackward:
		return "fetching-backward"
	}
	return "unknown"
}

// Direction of a page request relative to the window.
type Direction int

const (
	DirectionForward Direction = iota
	DirectionBackward
)

// Fetch is a single page request issued by the coordinator. The caller runs
// it (typically off the event loop) and hands the outcome back to Complete.
type Fetch[T any] struct {
	Direction Direction
	Size      int
	Offset    int

	src      Source[T]
	identity uint64
	gen      uint64
}

// Run executes the request against the source it was issued for.
func (f *Fetch[T]) Run(ctx context.Context) ([]T, error) {
	return f.src.FetchPage(ctx, f.Size, f.Offset)
}

// Result reports the outcome of a completed fetch.
type Result struct {
	// Prepended is the number of items added at the head of the window,
	// non-zero only for backward fetches. The view needs it for scroll
	// anchoring.
	Prepended int
	// Stale marks a result that belonged to a superseded source identity
	// and was discarded without touching the window.
	Stale bool
}

// Coordinator drives fetches against a Source in response to boundary
// crossings. It is a single-writer state machine: all events (crossings,
// completions, source changes) must arrive on one control flow, and every
// window mutation funnels through the owned Window.
//
// Crossing signals observed while a fetch is outstanding are dropped, never
// queued; this serializes forward and backward fetches strictly, in either
// direction. Re-crossing a boundary once the coordinator is idle again
// re-triggers the fetch, which is also how failed fetches get retried.
type Coordinator[T any] struct {
	win      *Window[T]
	src      Source[T]
	state    State
	identity uint64

	// gen counts source installations. It bumps on every SetSource, even
	// when the identity token is unchanged (a reload of the same source), so
	// completions of fetches issued before the reset are recognizably stale.
	gen uint64
}

// NewCoordinator creates an idle coordinator with an empty window. A source
// must be installed with SetSource before anything can load.
func NewCoordinator[T any](pageSize int) (*Coordinator[T], error) {
	win, err := NewWindow[T](pageSize)
	if err != nil {
		return nil, err
	}
	return &Coordinator[T]{win: win}, nil
}

func (c *Coordinator[T]) State() State       { return c.state }
func (c *Coordinator[T]) Window() *Window[T] { return c.win }

// SetSource installs src under the given identity token, resets all window
// state and returns the initial page request. Completions of fetches issued
// before the reset are discarded when they eventually arrive, including ones
// for the same identity (a reload); there is no cancellation, in-flight
// fetches always run out.
func (c *Coordinator[T]) SetSource(src Source[T], identity uint64) *Fetch[T] {
	c.src = src
	c.identity = identity
	c.gen++
	c.win.Reset()
	c.state = StateFetchingInitial
	return &Fetch[T]{
		Direction: DirectionForward,
		Size:      c.win.pageSize,
		Offset:    0,
		src:       src,
		identity:  identity,
		gen:       c.gen,
	}
}

// Seed re-issues the initial page request, for retrying a failed bootstrap.
// No-op unless the coordinator is idle with an empty window.
func (c *Coordinator[T]) Seed() *Fetch[T] {
	if c.src == nil || c.state != StateIdle || c.win.Len() > 0 {
		return nil
	}
	c.state = StateFetchingInitial
	return &Fetch[T]{
		Direction: DirectionForward,
		Size:      c.win.pageSize,
		Offset:    0,
		src:       c.src,
		identity:  c.identity,
		gen:       c.gen,
	}
}

// CrossForward handles a near-forward-edge crossing. Returns nil when the
// crossing is a no-op: no source installed, a fetch already outstanding, or
// the source exhausted forward. The forward offset advances eagerly, at
// signal time, pinning which page the in-flight fetch is for.
func (c *Coordinator[T]) CrossForward() *Fetch[T] {
	if c.src == nil || c.state != StateIdle || c.win.dataFinished {
		return nil
	}
	c.win.nextOffset += c.win.pageSize
	c.state = StateFetchingForward
	return &Fetch[T]{
		Direction: DirectionForward,
		Size:      c.win.pageSize,
		Offset:    c.win.nextOffset,
		src:       c.src,
		identity:  c.identity,
		gen:       c.gen,
	}
}

// CrossBackward handles a near-backward-edge crossing. Returns nil when a
// fetch is outstanding or the window already starts at the head of the
// source.
func (c *Coordinator[T]) CrossBackward() *Fetch[T] {
	if c.src == nil || c.state != StateIdle || c.win.prevOffset == 0 {
		return nil
	}
	c.state = StateFetchingBackward
	return &Fetch[T]{
		Direction: DirectionBackward,
		Size:      c.win.pageSize,
		Offset:    c.win.NextBackwardOffset(),
		src:       c.src,
		identity:  c.identity,
		gen:       c.gen,
	}
}

// Complete applies the outcome of the given fetch and returns the coordinator
// to idle. On error the window and offsets end up exactly as they were before
// the crossing (the eager forward advance is rolled back), so re-crossing the
// same boundary retries the same page. Results from a superseded source
// installation are discarded outright, without touching window or state; the
// generation check catches reloads of the same identity too.
func (c *Coordinator[T]) Complete(f *Fetch[T], items []T, err error) (Result, error) {
	if f == nil {
		return Result{}, nil
	}
	if f.identity != c.identity || f.gen != c.gen {
		return Result{Stale: true}, nil
	}
	if err != nil {
		if c.state == StateFetchingForward {
			c.win.nextOffset -= c.win.pageSize
		}
		c.state = StateIdle
		return Result{}, fmt.Errorf("scroll: fetch page size=%d offset=%d: %w", f.Size, f.Offset, err)
	}

	var res Result
	switch c.state {
	case StateFetchingInitial, StateFetchingForward:
		c.win.MergeForward(items)
	case StateFetchingBackward:
		// A backward offset clamped to a page boundary can overlap the
		// current window start; only the gap below prevOffset is new.
		if gap := c.win.prevOffset - f.Offset; len(items) > gap {
			items = items[:gap]
		}
		_, res.Prepended = c.win.MergeBackward(items)
		// Move the window start by what actually arrived. A source that
		// returns a short backward page leaves prevOffset above f.Offset,
		// still matching the materialized first item.
		c.win.prevOffset -= res.Prepended
	}
	c.state = StateIdle
	return res, nil
}

// Do runs the fetch against its source and applies the result in one step,
// for callers that are fine blocking. Nil fetches are a no-op.
func (c *Coordinator[T]) Do(ctx context.Context, f *Fetch[T]) (Result, error) {
	if f == nil {
		return Result{}, nil
	}
	items, err := f.Run(ctx)
	return c.Complete(f, items, err)
}

// Snapshot is the render-facing view of the current state: the materialized
// items, where the boundary triggers sit, which loading indicators to show
// and whether the window still represents the true start of the source.
// Indicators attach at the edges: leading above index 0, trailing below the
// last index.
type Snapshot[T any] struct {
	Items []T

	// ForwardThreshold and BackwardThreshold are indices into Items; -1
	// means no trigger in that direction (empty window, exhausted source,
	// or already at the head).
	ForwardThreshold  int
	BackwardThreshold int

	LeadingIndicator  bool
	TrailingIndicator bool

	LoadingInitial  bool
	LoadingForward  bool
	LoadingBackward bool

	AtStart bool
}

// Snapshot captures the render contract after any state change.
func (c *Coordinator[T]) Snapshot() Snapshot[T] {
	w := c.win
	s := Snapshot[T]{
		Items:             w.items,
		ForwardThreshold:  -1,
		BackwardThreshold: -1,
		LoadingInitial:    c.state == StateFetchingInitial,
		LoadingForward:    c.state == StateFetchingForward,
		LoadingBackward:   c.state == StateFetchingBackward,
		AtStart:           w.AtStart(),
	}
	if !w.dataFinished {
		s.ForwardThreshold = ForwardThreshold(len(w.items), w.pageSize)
	}
	if w.prevOffset > 0 {
		s.BackwardThreshold = BackwardThreshold(w.pageSize)
	}
	s.LeadingIndicator = s.LoadingBackward
	s.TrailingIndicator = s.LoadingForward && !w.dataFinished
	return s
}
