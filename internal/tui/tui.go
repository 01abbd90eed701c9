// Package tui is the live dashboard: a Bubble Tea program that polls
// both providers on a timer and redraws the active view from cache.
package tui

import (
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tau/usage-live/internal/config"
	"github.com/tau/usage-live/internal/usage"
)

// Provider fetches one view's usage snapshot. Fetches run inside
// tea.Cmd goroutines, so the render path never blocks on them.
type Provider interface {
	Fetch() (*usage.Record, error)
}

// messages

type fetchedMsg struct {
	view usage.View
	rec  *usage.Record
	err  error
}

type tickMsg time.Time

// viewState is the per-view cache. A failed fetch keeps rec and marks
// it stale; only a successful fetch replaces it.
type viewState struct {
	rec     *usage.Record
	err     error
	stale   bool
	loading bool
}

// Model is the dashboard state passed through the Bubble Tea loop.
type Model struct {
	cfg    config.Config
	logger *slog.Logger

	providers map[usage.View]Provider
	active    usage.View
	states    map[usage.View]*viewState

	bar     progress.Model
	spinner spinner.Model

	width       int
	height      int
	lastRefresh time.Time // debounce for manual refresh
	now         func() time.Time
}

func New(cfg config.Config, providers map[usage.View]Provider, logger *slog.Logger) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("99"))

	states := make(map[usage.View]*viewState)
	for v := range providers {
		states[v] = &viewState{loading: true}
	}
	// A disabled or unavailable view still renders a placeholder.
	for _, v := range []usage.View{usage.ViewClaude, usage.ViewCursor} {
		if _, ok := states[v]; !ok {
			states[v] = &viewState{}
		}
	}

	return Model{
		cfg:       cfg,
		logger:    logger,
		providers: providers,
		active:    usage.ViewClaude,
		states:    states,
		bar:       newBar(30),
		spinner:   s,
		now:       time.Now,
	}
}

func newBar(width int) progress.Model {
	return progress.New(
		progress.WithScaledGradient("#76EEC6", "#FF6347"),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, m.tickCmd()}
	cmds = append(cmds, m.fetchAll()...)
	return tea.Batch(cmds...)
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.cfg.Interval(), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// fetchAll returns one fetch command per configured provider. Cached
// views without a provider are left alone.
func (m Model) fetchAll() []tea.Cmd {
	var cmds []tea.Cmd
	for v, p := range m.providers {
		cmds = append(cmds, fetchCmd(v, p))
	}
	return cmds
}

func fetchCmd(v usage.View, p Provider) tea.Cmd {
	return func() tea.Msg {
		rec, err := p.Fetch()
		return fetchedMsg{view: v, rec: rec, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "left", "h", "shift+tab":
			// Switching views redraws from cache, never fetches.
			m.active = m.active.Prev()
			return m, nil
		case "right", "l", "tab":
			m.active = m.active.Next()
			return m, nil
		case "r":
			if time.Since(m.lastRefresh) < 10*time.Second {
				return m, nil
			}
			m.lastRefresh = time.Now()
			for v := range m.providers {
				m.states[v].loading = true
			}
			return m, tea.Batch(append(m.fetchAll(), m.spinner.Tick)...)
		}

	case tickMsg:
		for v := range m.providers {
			m.states[v].loading = true
		}
		return m, tea.Batch(append(m.fetchAll(), m.tickCmd(), m.spinner.Tick)...)

	case fetchedMsg:
		st := m.states[msg.view]
		st.loading = false
		if msg.err != nil {
			st.err = msg.err
			if st.rec != nil {
				st.stale = true
			}
			if m.logger != nil {
				m.logger.Debug("fetch failed", "view", msg.view.String(), "err", msg.err)
			}
			return m, nil
		}
		st.rec = msg.rec
		st.err = nil
		st.stale = false
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeBar()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.anyLoading() {
			return m, cmd
		}
		return m, nil
	}

	return m, nil
}

func (m *Model) resizeBar() {
	cw := m.contentWidth()
	// bar = content - label - gap - percent column
	w := cw - m.labelWidth() - 7
	m.bar.Width = max(8, min(w, 30))
}

func (m Model) anyLoading() bool {
	for _, st := range m.states {
		if st.loading {
			return true
		}
	}
	return false
}
