package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/v2/key"
	"github.com/charmbracelet/bubbles/v2/spinner"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/skimread/skim/internal/config"
	"github.com/skimread/skim/internal/feed"
	"github.com/skimread/skim/internal/scroll"
)

const fetchTimeout = 30 * time.Second

type styles struct {
	item      lipgloss.Style
	banner    lipgloss.Style
	indicator lipgloss.Style
	status    lipgloss.Style
	errText   lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		item:      lipgloss.NewStyle(),
		banner:    lipgloss.NewStyle().Faint(true),
		indicator: lipgloss.NewStyle().Foreground(lipgloss.Color("205")),
		status:    lipgloss.NewStyle().Faint(true),
		errText:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
}

// pageMsg carries a finished fetch back onto the program loop, where the
// coordinator applies it. All coordinator mutation happens here, single
// threaded; only the fetch itself runs concurrently.
type pageMsg struct {
	fetch *scroll.Fetch[feed.Item]
	items []feed.Item
	err   error
}

// Model renders the scroll window and turns viewport movement into boundary
// crossing signals for the coordinator. Every item occupies exactly one
// terminal row, which is the uniform height the anchor math assumes.
type Model struct {
	coord    *scroll.Coordinator[feed.Item]
	source   scroll.Source[feed.Item]
	identity uint64

	keys    KeyMap
	styles  styles
	spinner spinner.Model

	width, height int
	top           int // index of the first visible window item

	// Crossing signals fire once per genuine crossing; the armed flags
	// re-arm only after the viewport leaves the trigger zone.
	forwardArmed  bool
	backwardArmed bool

	showIndicator bool
	lastErr       error
}

func New(cfg *config.Config, src scroll.Source[feed.Item], identity uint64) (*Model, error) {
	coord, err := scroll.NewCoordinator[feed.Item](cfg.PageSize)
	if err != nil {
		return nil, err
	}
	s := spinner.New()
	s.Spinner = spinner.Dot
	return &Model{
		coord:         coord,
		source:        src,
		identity:      identity,
		keys:          DefaultKeyMap(),
		styles:        defaultStyles(),
		spinner:       s,
		forwardArmed:  true,
		backwardArmed: true,
		showIndicator: cfg.Indicator,
	}, nil
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.runFetch(m.coord.SetSource(m.source, m.identity)),
	)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.clampTop()
		return m, nil

	case spinner.TickMsg:
		if m.coord.State() == scroll.StateIdle {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case pageMsg:
		return m, m.applyPage(msg)

	case tea.KeyPressMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Reload):
			m.top = 0
			m.lastErr = nil
			m.forwardArmed, m.backwardArmed = true, true
			return m, tea.Batch(
				m.spinner.Tick,
				m.runFetch(m.coord.SetSource(m.source, m.identity)),
			)
		case key.Matches(msg, m.keys.Up):
			return m, m.moveBy(-1)
		case key.Matches(msg, m.keys.Down):
			return m, m.moveBy(1)
		case key.Matches(msg, m.keys.HalfPageUp):
			return m, m.moveBy(-m.viewHeight() / 2)
		case key.Matches(msg, m.keys.HalfPageDown):
			return m, m.moveBy(m.viewHeight() / 2)
		case key.Matches(msg, m.keys.PageUp):
			return m, m.moveBy(-m.viewHeight())
		case key.Matches(msg, m.keys.PageDown):
			return m, m.moveBy(m.viewHeight())
		case key.Matches(msg, m.keys.Home):
			m.top = 0
			return m, m.checkBoundaries()
		case key.Matches(msg, m.keys.End):
			m.top = m.maxTop()
			return m, m.checkBoundaries()
		}
	}
	return m, nil
}

func (m *Model) runFetch(f *scroll.Fetch[feed.Item]) tea.Cmd {
	if f == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		items, err := f.Run(ctx)
		return pageMsg{fetch: f, items: items, err: err}
	}
}

func (m *Model) applyPage(msg pageMsg) tea.Cmd {
	prevLen := m.coord.Window().Len()
	prevOff := m.coord.Window().PrevOffset()
	res, err := m.coord.Complete(msg.fetch, msg.items, msg.err)
	if err != nil {
		m.lastErr = err
		slog.Error("Page fetch failed", "error", err)
		return nil
	}
	if res.Stale {
		return nil
	}
	m.lastErr = nil

	if res.Prepended > 0 {
		// Keep the row that was at the top of the viewport visually
		// anchored across the prepend. Items are one row tall, so the
		// pre-merge window length is the base height.
		delta := scroll.ScrollDelta(scroll.Geometry{
			BaseHeight:  float64(prevLen),
			MaxElements: m.coord.Window().Cap(),
		}, res.Prepended)
		m.top += int(delta)
	} else if trimmed := m.coord.Window().PrevOffset() - prevOff; trimmed > 0 {
		// A forward merge that overflowed capacity dropped that many items
		// from the head; shift the viewport up so it keeps showing the same
		// rows.
		m.top -= trimmed
	}
	m.clampTop()
	return m.checkBoundaries()
}

func (m *Model) moveBy(rows int) tea.Cmd {
	m.top += rows
	m.clampTop()
	return m.checkBoundaries()
}

// checkBoundaries fires crossing signals when the visible range intersects a
// trigger index, once per crossing.
func (m *Model) checkBoundaries() tea.Cmd {
	snap := m.coord.Snapshot()
	// Header rows displace items downward, so the last visible item index
	// sits above the bottom of the viewport.
	bottom := m.top + m.viewHeight() - 1 - m.headerRows(snap)

	var cmds []tea.Cmd
	if snap.ForwardThreshold >= 0 && bottom >= snap.ForwardThreshold {
		if m.forwardArmed {
			m.forwardArmed = false
			if cmd := m.runFetch(m.coord.CrossForward()); cmd != nil {
				cmds = append(cmds, cmd, m.spinner.Tick)
			}
		}
	} else {
		m.forwardArmed = true
	}

	if snap.BackwardThreshold >= 0 && m.top <= snap.BackwardThreshold {
		if m.backwardArmed {
			m.backwardArmed = false
			if cmd := m.runFetch(m.coord.CrossBackward()); cmd != nil {
				cmds = append(cmds, cmd, m.spinner.Tick)
			}
		}
	} else {
		m.backwardArmed = true
	}
	return tea.Batch(cmds...)
}

func (m *Model) viewHeight() int {
	return max(m.height-1, 1) // one row reserved for the status bar
}

// bannerVisible reports whether the start-of-feed banner occupies the first
// viewport row.
func (m *Model) bannerVisible(snap scroll.Snapshot[feed.Item]) bool {
	return snap.AtStart && m.top == 0 && len(snap.Items) > 0
}

func (m *Model) leadingIndicatorVisible(snap scroll.Snapshot[feed.Item]) bool {
	return snap.LeadingIndicator && m.showIndicator && m.top == 0
}

// headerRows counts the non-item rows rendered above the items.
func (m *Model) headerRows(snap scroll.Snapshot[feed.Item]) int {
	n := 0
	if m.bannerVisible(snap) {
		n++
	}
	if m.leadingIndicatorVisible(snap) {
		n++
	}
	return n
}

func (m *Model) maxTop() int {
	return max(m.coord.Window().Len()-m.viewHeight(), 0)
}

func (m *Model) clampTop() {
	m.top = min(m.top, m.maxTop())
	m.top = max(m.top, 0)
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	snap := m.coord.Snapshot()

	lines := make([]string, 0, m.viewHeight())
	if m.bannerVisible(snap) {
		lines = append(lines, m.styles.banner.Render("── start of feed ──"))
	}
	if m.leadingIndicatorVisible(snap) {
		lines = append(lines, m.styles.indicator.Render(m.spinner.View()+" loading earlier entries"))
	}
	for i := m.top; i < len(snap.Items) && len(lines) < m.viewHeight(); i++ {
		lines = append(lines, m.renderItem(snap.Items[i]))
	}
	if snap.TrailingIndicator && m.showIndicator && len(lines) < m.viewHeight() {
		lines = append(lines, m.styles.indicator.Render(m.spinner.View()+" loading more entries"))
	}
	if snap.LoadingInitial {
		lines = append(lines, m.styles.indicator.Render(m.spinner.View()+" loading feed"))
	}
	for len(lines) < m.viewHeight() {
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n") + "\n" + m.statusLine(snap)
}

func (m *Model) renderItem(it feed.Item) string {
	line := fmt.Sprintf("%6d  %s", it.Ordinal, it.Title)
	return m.styles.item.Render(ansi.Truncate(line, m.width, "…"))
}

func (m *Model) statusLine(snap scroll.Snapshot[feed.Item]) string {
	if m.lastErr != nil {
		return m.styles.errText.Render(ansi.Truncate("error: "+m.lastErr.Error()+" (r to retry)", m.width, "…"))
	}
	status := fmt.Sprintf("%d in window · offsets %d/%d · %s",
		len(snap.Items),
		m.coord.Window().PrevOffset(),
		m.coord.Window().NextOffset(),
		m.coord.State(),
	)
	if m.coord.Window().DataFinished() {
		status += " · end of feed"
	}
	return m.styles.status.Render(ansi.Truncate(status, m.width, "…"))
}
