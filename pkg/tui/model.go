// Package tui is an interactive browser for the node's channels.
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/lcwatch/lcw/pkg/node"
	"github.com/lcwatch/lcw/pkg/report"
)

type viewState int

const (
	stateList viewState = iota
	stateDetail
	stateHelp
)

// SortKeys are cycled through with the sort key binding.
var SortKeys = []string{"", "/total_capacity", "/total_payments", "/tx_per_day", "/routed_capacity", "age"}

// IgnoreFunc persists an ignored channel.
type IgnoreFunc func(shortChannelID string) error

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Detail key.Binding
	Sort   key.Binding
	Ignore key.Binding
	Help   key.Binding
	Quit   key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Detail: key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "details")),
		Sort:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "cycle sort")),
		Ignore: key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "ignore channel")),
		Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) bindings() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Detail, k.Sort, k.Ignore, k.Help, k.Quit}
}

// Model browses the channels of a status summary.
type Model struct {
	keys    keyMap
	summary *node.Summary
	matcher node.Matcher
	filter  string
	limit   int
	ignore  IgnoreFunc

	channels  []*node.Channel
	sortIndex int
	cursor    int
	state     viewState
	width     int
	height    int
	verbosity int
	statusMsg string
	quitting  bool
	err       error
}

// NewModel shows the channels of s selected by m. ignore may be nil, in which
// case the ignore binding is disabled.
func NewModel(s report.Status, m node.Matcher, limit, verbosity int, ignore IgnoreFunc) Model {
	model := Model{
		keys:      defaultKeys(),
		summary:   s.Summary,
		matcher:   m,
		filter:    s.Filter,
		limit:     limit,
		ignore:    ignore,
		channels:  s.Channels,
		verbosity: verbosity,
	}
	for i, k := range SortKeys {
		if k == s.Sort {
			model.sortIndex = i
		}
	}
	if ignore == nil {
		model.keys.Ignore.SetEnabled(false)
	}
	return model
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.KeyMsg:
		if m.state == stateHelp {
			m.state = stateList
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			if m.state == stateDetail && msg.String() == "esc" {
				m.state = stateList
				return m, nil
			}
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.channels)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Detail):
			if len(m.channels) == 0 {
				break
			}
			if m.state == stateDetail {
				m.state = stateList
			} else {
				m.state = stateDetail
			}
		case key.Matches(msg, m.keys.Sort):
			m.sortIndex = (m.sortIndex + 1) % len(SortKeys)
			m.reselect()
		case key.Matches(msg, m.keys.Ignore):
			m.ignoreSelected()
		case key.Matches(msg, m.keys.Help):
			m.state = stateHelp
		}
	}
	return m, nil
}

// Selected returns the channel under the cursor.
func (m Model) Selected() (*node.Channel, bool) {
	if m.cursor < 0 || m.cursor >= len(m.channels) {
		return nil, false
	}
	return m.channels[m.cursor], true
}

// Err returns the last error raised by an action.
func (m Model) Err() error {
	return m.err
}

func (m *Model) reselect() {
	if m.summary == nil {
		return
	}
	chans, err := m.summary.Select(m.matcher, SortKeys[m.sortIndex], m.limit)
	if err != nil {
		m.err = err
		m.statusMsg = err.Error()
		return
	}
	m.channels = chans
	if m.cursor >= len(m.channels) {
		m.cursor = max(len(m.channels)-1, 0)
	}
}

func (m *Model) ignoreSelected() {
	c, ok := m.Selected()
	if !ok || m.ignore == nil {
		return
	}
	if err := m.ignore(c.ShortID); err != nil {
		m.err = err
		m.statusMsg = fmt.Sprintf("failed to ignore %s: %v", c.ShortID, err)
		return
	}
	if m.summary != nil {
		m.summary.Ignored = append(m.summary.Ignored, c.ShortID)
	}
	m.statusMsg = fmt.Sprintf("ignored %s", c.ShortID)
	m.state = stateList
	m.reselect()
}

// calculateWindow returns the visible slice of the list around the cursor.
func (m Model) calculateWindow(total int) (int, int) {
	windowSize := m.height - 8
	if windowSize < 5 {
		windowSize = 5
	}

	start := m.cursor - windowSize/2
	if start < 0 {
		start = 0
	}
	end := start + windowSize
	if end > total {
		end = total
		start = end - windowSize
		if start < 0 {
			start = 0
		}
	}
	return start, end
}

// Run starts the browser on the terminal and blocks until it quits.
func Run(m Model) error {
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(Model); ok {
		return fm.err
	}
	return nil
}
