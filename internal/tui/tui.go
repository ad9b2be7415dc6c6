// Package tui is the interactive search browser: a memory list on the
// left, a detail preview on the right, re-querying the server as the query
// changes.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ferstar/nowledge-mem-plugins/internal/deepsearch"
)

const debounceDelay = 300 * time.Millisecond

// Options bound the searches issued while browsing.
type Options struct {
	MemoryLimit   int
	ThreadLimit   int
	ExpandThreads bool
}

// message types

type searchResultMsg struct {
	query  string
	result *deepsearch.Result
	err    error
}

type debounceTickMsg struct {
	query string
}

type model struct {
	searcher   *deepsearch.Searcher
	opts       Options
	query      string
	result     *deepsearch.Result
	cursor     int
	listOffset int
	queryInput textinput.Model
	preview    viewport.Model
	previewIdx int // memory index currently rendered, -1 = none
	width      int
	height     int
	ready      bool
	quitting   bool
	selected   *deepsearch.MemoryItem
}

func initialModel(searcher *deepsearch.Searcher, query string, opts Options) model {
	ti := textinput.New()
	ti.Placeholder = "Search memories..."
	ti.Focus()
	ti.SetValue(query)
	ti.Prompt = "> "
	ti.PromptStyle = styleInputPrompt
	ti.TextStyle = styleInput
	ti.CharLimit = 256

	return model{
		searcher:   searcher,
		opts:       opts,
		query:      query,
		queryInput: ti,
		preview:    viewport.New(0, 0),
		previewIdx: -1,
	}
}

// Run starts the browser and blocks until it exits. When the user selects
// a memory, the command to expand its source thread (or the memory id) is
// copied to the clipboard.
func Run(searcher *deepsearch.Searcher, query string, opts Options) error {
	m := initialModel(searcher, query, opts)
	p := tea.NewProgram(m, tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}

	fm := finalModel.(model)
	if fm.selected != nil {
		return copySelection(fm.selected)
	}
	return nil
}

// copySelection puts a follow-up command on the clipboard, falling back to
// printing it when no clipboard is available.
func copySelection(mem *deepsearch.MemoryItem) error {
	var cmd string
	if mem.SourceThreadID != "" {
		cmd = fmt.Sprintf("nmem expand %s", mem.SourceThreadID)
	} else {
		cmd = mem.MemoryID
	}

	if err := clipboard.WriteAll(cmd); err != nil {
		fmt.Println(cmd)
		return nil
	}
	fmt.Printf("Copied to clipboard: %s\n", cmd)
	return nil
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.query != "" {
		cmds = append(cmds, m.doSearch(m.query))
	}
	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.preview = viewport.New(m.previewWidth(), m.panelHeight())
		m.previewIdx = -1
		m.refreshPreview()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, keys.Accept):
			if mem := m.current(); mem != nil {
				m.selected = mem
				m.quitting = true
				return m, tea.Quit
			}

		case key.Matches(msg, keys.CursorUp):
			if m.cursor > 0 {
				m.cursor--
				m.adjustListScroll()
				m.refreshPreview()
			}
			return m, nil

		case key.Matches(msg, keys.CursorDown):
			if m.result != nil && m.cursor < len(m.result.Memories)-1 {
				m.cursor++
				m.adjustListScroll()
				m.refreshPreview()
			}
			return m, nil

		case key.Matches(msg, keys.ScrollUp):
			m.preview.LineUp(m.panelHeight() / 2)
			return m, nil

		case key.Matches(msg, keys.ScrollDown):
			m.preview.LineDown(m.panelHeight() / 2)
			return m, nil
		}

		var tiCmd tea.Cmd
		m.queryInput, tiCmd = m.queryInput.Update(msg)
		cmds = append(cmds, tiCmd)

		if newQuery := m.queryInput.Value(); newQuery != m.query {
			m.query = newQuery
			cmds = append(cmds, m.scheduleDebouncedSearch(newQuery))
		}
		return m, tea.Batch(cmds...)

	case debounceTickMsg:
		// Only fire if the query hasn't changed since the tick was scheduled
		if msg.query == m.query {
			cmds = append(cmds, m.doSearch(msg.query))
		}
		return m, tea.Batch(cmds...)

	case searchResultMsg:
		if msg.query != m.query {
			return m, nil // stale response
		}
		m.cursor = 0
		m.listOffset = 0
		m.previewIdx = -1
		if msg.err != nil {
			m.result = nil
			m.preview.SetContent("Error: " + msg.err.Error())
			return m, nil
		}
		m.result = msg.result
		m.refreshPreview()
		return m, nil
	}

	return m, tea.Batch(cmds...)
}

func (m model) View() string {
	if m.quitting || !m.ready {
		return ""
	}

	listW := m.listWidth()
	previewW := m.previewWidth()
	panelH := m.panelHeight()

	inputRow := m.queryInput.View()

	listPanel := stylePanelBorder.
		Width(listW).
		Height(panelH).
		Render(m.renderList(listW, panelH))

	m.preview.Width = previewW
	m.preview.Height = panelH
	previewPanel := styleActiveBorder.
		Width(previewW).
		Height(panelH).
		Render(m.preview.View())

	panels := lipgloss.JoinHorizontal(lipgloss.Top, listPanel, previewPanel)

	return lipgloss.JoinVertical(lipgloss.Left, inputRow, panels, m.statusBar())
}

// helper methods

func (m *model) current() *deepsearch.MemoryItem {
	if m.result == nil || m.cursor >= len(m.result.Memories) {
		return nil
	}
	mem := m.result.Memories[m.cursor]
	return &mem
}

func (m *model) refreshPreview() {
	mem := m.current()
	if mem == nil {
		m.preview.SetContent("")
		m.previewIdx = -1
		return
	}
	if m.previewIdx == m.cursor {
		return
	}
	m.preview.SetContent(renderMemoryDetail(mem, m.result, m.previewWidth()))
	m.preview.GotoTop()
	m.previewIdx = m.cursor
}

func (m model) listWidth() int {
	if m.width <= 0 {
		return 40
	}
	w := m.width*40/100 - 4
	if w < 20 {
		w = 20
	}
	return w
}

func (m model) previewWidth() int {
	if m.width <= 0 {
		return 60
	}
	w := m.width*60/100 - 4
	if w < 20 {
		w = 20
	}
	return w
}

func (m model) panelHeight() int {
	if m.height <= 0 {
		return 20
	}
	// input row (1) + status bar (1) + borders (4)
	h := m.height - 6
	if h < 5 {
		h = 5
	}
	return h
}

func (m *model) adjustListScroll() {
	visibleItems := m.panelHeight() / linesPerItem
	if visibleItems < 1 {
		visibleItems = 1
	}
	if m.cursor < m.listOffset {
		m.listOffset = m.cursor
	}
	if m.cursor >= m.listOffset+visibleItems {
		m.listOffset = m.cursor - visibleItems + 1
	}
}

func (m model) statusBar() string {
	count := 0
	threads := 0
	if m.result != nil {
		count = len(m.result.Memories)
		threads = len(m.result.RelatedThreads)
	}
	parts := []string{fmt.Sprintf("%d memories, %d threads", count, threads)}
	for _, b := range []key.Binding{keys.CursorDown, keys.ScrollDown, keys.Accept, keys.Quit} {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return styleStatusBar.Render(strings.Join(parts, " | "))
}

func (m model) doSearch(query string) tea.Cmd {
	searcher := m.searcher
	opts := m.opts
	return func() tea.Msg {
		if query == "" {
			return searchResultMsg{query: query}
		}
		result, err := searcher.Search(query, opts.MemoryLimit, opts.ThreadLimit, opts.ExpandThreads)
		return searchResultMsg{query: query, result: result, err: err}
	}
}

func (m model) scheduleDebouncedSearch(query string) tea.Cmd {
	return tea.Tick(debounceDelay, func(time.Time) tea.Msg {
		return debounceTickMsg{query: query}
	})
}
