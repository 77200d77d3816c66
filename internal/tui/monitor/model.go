// Package monitor is a live dashboard over the event log: recent
// events, sync state, and a manual sync trigger.
package monitor

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"ticlog/internal/models"
	"ticlog/internal/store"
	ticsync "ticlog/internal/sync"
)

// Model is the Bubble Tea model for the monitor TUI
type Model struct {
	Store *store.Store
	Orch  *ticsync.Orchestrator

	Width  int
	Height int

	Events      []models.Event
	State       ticsync.State
	LastRefresh time.Time
	Err         error

	Syncing bool
	Status  string // transient status line after a manual sync

	Spinner         spinner.Model
	RefreshInterval time.Duration
	Version         string
}

type tickMsg time.Time

type refreshedMsg struct {
	events []models.Event
	state  ticsync.State
	err    error
}

type syncDoneMsg struct {
	result ticsync.Result
}

type clearStatusMsg struct{}

// NewModel creates a monitor model
func NewModel(st *store.Store, orch *ticsync.Orchestrator, interval time.Duration, version string) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle
	return Model{
		Store:           st,
		Orch:            orch,
		Spinner:         sp,
		RefreshInterval: interval,
		Version:         version,
	}
}

// Init starts the refresh loop
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refreshCmd(), m.tickCmd(), m.Spinner.Tick)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, m.refreshCmd()
		case "s":
			if m.Syncing {
				return m, nil
			}
			m.Syncing = true
			return m, m.syncCmd()
		}
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.refreshCmd(), m.tickCmd())

	case refreshedMsg:
		m.Events = msg.events
		m.State = msg.state
		m.Err = msg.err
		m.LastRefresh = time.Now()
		return m, nil

	case syncDoneMsg:
		m.Syncing = false
		m.Status = msg.result.Message
		return m, tea.Batch(m.refreshCmd(),
			tea.Tick(3*time.Second, func(time.Time) tea.Msg { return clearStatusMsg{} }))

	case clearStatusMsg:
		m.Status = ""
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.RefreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) refreshCmd() tea.Cmd {
	st := m.Store
	orch := m.Orch
	return func() tea.Msg {
		events, err := st.ListAll()
		if err != nil {
			return refreshedMsg{err: err}
		}
		state, err := orch.GetSyncState()
		if err != nil {
			return refreshedMsg{events: events, err: err}
		}
		return refreshedMsg{events: events, state: state}
	}
}

func (m Model) syncCmd() tea.Cmd {
	orch := m.Orch
	return func() tea.Msg {
		return syncDoneMsg{result: orch.SyncPendingEvents()}
	}
}
