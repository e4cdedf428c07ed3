package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"
	"go.uber.org/zap"

	"github.com/clipdeck/clipdeck/internal/bridge"
	"github.com/clipdeck/clipdeck/internal/clip"
	"github.com/clipdeck/clipdeck/internal/config"
	"github.com/clipdeck/clipdeck/internal/infra/storage"
	"github.com/clipdeck/clipdeck/internal/perf"
)

const (
	gutterWidth   = 4
	headerLines   = 2
	footerLines   = 2
	wheelStep     = 3
	renderMark    = "render"
	closeDeadline = 5 * time.Second
)

type historyLoadedMsg struct {
	items []*storage.ClipItem
	err   error
}

type commandDoneMsg struct {
	status string
	reload bool
	err    error
}

type deleteFailedMsg struct {
	ids []int64
	err error
}

// rowKey identifies one rendered row. Anything that changes the row text
// is part of the key so stale renders are never reused; hash tracks the
// clip value, which edits change without touching updated_at.
type rowKey struct {
	id     int64
	hash   string
	width  int
	masked bool
}

// HistoryModel is the clipboard history browser. Only the rows around the
// visible window are rendered; their wrapped text is memoized and their
// measured heights drive scrolling.
type HistoryModel struct {
	bridge *bridge.Bridge
	list   config.ListConfig
	mask   bool
	log    *zap.Logger

	items     []*storage.ClipItem
	marked    map[int64]bool
	cursor    int
	scrollTop int
	width     int
	height    int

	heights  *perf.RowHeightCache
	rows     *perf.BoundedCache[rowKey, []string]
	velocity *perf.ScrollVelocityTracker
	deletes  *perf.BatchProcessor[int64]
	monitor  *perf.PerformanceMonitor

	filter    textinput.Model
	filtering bool
	loaded    bool
	status    string
	err       error
	quitting  bool
}

// NewHistoryModel creates the browser on top of the command bridge.
func NewHistoryModel(b *bridge.Bridge, log *zap.Logger) HistoryModel {
	if log == nil {
		log = zap.NewNop()
	}
	cfg := b.Config()

	ti := textinput.New()
	ti.Placeholder = "Filter clips..."
	ti.Prompt = "/ "
	ti.CharLimit = 200
	ti.Width = 40

	deletes := perf.NewBatchProcessor(func(ctx context.Context, ids []int64) error {
		args, err := json.Marshal(map[string]any{"historyIds": ids})
		if err != nil {
			return err
		}
		_, err = b.Invoke(ctx, "delete_clipboard_history_by_ids", string(args))
		return err
	}, perf.BatchConfig{
		BatchSize: cfg.List.BatchSize,
		Delay:     cfg.List.BatchDelay(),
		Logger:    log,
	})

	return HistoryModel{
		bridge:   b,
		list:     cfg.List,
		mask:     cfg.MaskSensitive,
		log:      log,
		marked:   make(map[int64]bool),
		width:    80,
		height:   24,
		heights:  perf.NewRowHeightCache(cfg.List.DefaultRowLines),
		rows:     perf.NewBoundedCache[rowKey, []string](cfg.List.RowCacheSize),
		velocity: perf.NewScrollVelocityTracker(),
		deletes:  deletes,
		monitor:  perf.NewPerformanceMonitor(log),
		filter:   ti,
	}
}

func (m HistoryModel) Init() tea.Cmd {
	return m.loadHistory()
}

// Close waits for queued deletes and releases timers.
func (m HistoryModel) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), closeDeadline)
	defer cancel()
	if err := m.deletes.Wait(ctx); err != nil {
		m.log.Warn("pending deletes dropped", zap.Int("pending", m.deletes.Pending()), zap.Error(err))
	}
	m.deletes.Close()
	m.velocity.Stop()
}

func (m HistoryModel) loadHistory() tea.Cmd {
	b := m.bridge
	query := m.filter.Value()
	return func() tea.Msg {
		args, _ := json.Marshal(map[string]any{"search": query})
		out, err := b.Invoke(context.Background(), "get_clipboard_history", string(args))
		if err != nil {
			return historyLoadedMsg{err: err}
		}
		var items []*storage.ClipItem
		if err := json.Unmarshal([]byte(out), &items); err != nil {
			return historyLoadedMsg{err: fmt.Errorf("failed to decode history: %w", err)}
		}
		return historyLoadedMsg{items: items}
	}
}

func (m HistoryModel) invoke(name string, args map[string]any, status string, reload bool) tea.Cmd {
	b := m.bridge
	return func() tea.Msg {
		data, err := json.Marshal(args)
		if err != nil {
			return commandDoneMsg{err: err}
		}
		if _, err := b.Invoke(context.Background(), name, string(data)); err != nil {
			return commandDoneMsg{err: err}
		}
		return commandDoneMsg{status: status, reload: reload}
	}
}

func (m HistoryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if msg.Width != m.width {
			m.heights.Clear()
		}
		m.width = msg.Width
		m.height = msg.Height
		m.filter.Width = max(10, msg.Width-4)
		m.scrollTop = clampScroll(m.heights, len(m.items), m.scrollTop, m.listHeight())
		return m, nil

	case historyLoadedMsg:
		m.loaded = true
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.items = msg.items
		m.heights.Clear()
		m.monitor.ClearMarks()
		for id := range m.marked {
			if m.indexOf(id) < 0 {
				delete(m.marked, id)
			}
		}
		m.cursor = min(m.cursor, max(0, len(m.items)-1))
		m.scrollTop = scrollToReveal(m.heights, m.cursor, clampScroll(m.heights, len(m.items), m.scrollTop, m.listHeight()), m.listHeight())
		return m, nil

	case commandDoneMsg:
		m.err = msg.err
		if msg.err == nil {
			m.status = msg.status
		}
		if msg.reload {
			return m, m.loadHistory()
		}
		return m, nil

	case deleteFailedMsg:
		m.err = fmt.Errorf("failed to delete %d clips: %w", len(msg.ids), msg.err)
		return m, m.loadHistory()

	case scrollSettledMsg:
		return m, nil

	case tea.MouseMsg:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			return m.scrollBy(-wheelStep)
		case tea.MouseButtonWheelDown:
			return m.scrollBy(wheelStep)
		}
		return m, nil

	case tea.KeyMsg:
		if m.filtering {
			return m.updateFilter(msg)
		}
		return m.updateList(msg)
	}

	return m, nil
}

func (m HistoryModel) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "esc":
		m.filtering = false
		m.filter.Blur()
		m.filter.SetValue("")
		m.cursor, m.scrollTop = 0, 0
		return m, m.loadHistory()
	case "enter":
		m.filtering = false
		m.filter.Blur()
		return m, nil
	}

	before := m.filter.Value()
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	if m.filter.Value() == before {
		return m, cmd
	}
	m.cursor, m.scrollTop = 0, 0
	return m, tea.Batch(cmd, m.loadHistory())
}

func (m HistoryModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""

	switch msg.String() {
	case "ctrl+c", "q":
		m.quitting = true
		return m, tea.Quit

	case "/":
		m.filtering = true
		return m, m.filter.Focus()

	case "esc":
		if m.filter.Value() != "" {
			m.filter.SetValue("")
			m.cursor, m.scrollTop = 0, 0
			return m, m.loadHistory()
		}
		clear(m.marked)

	case "up", "k":
		return m.moveCursor(-1)
	case "down", "j":
		return m.moveCursor(1)
	case "pgup", "ctrl+u":
		return m.moveCursor(-m.pageRows())
	case "pgdown", "ctrl+d":
		return m.moveCursor(m.pageRows())
	case "home", "g":
		return m.moveCursor(-len(m.items))
	case "end", "G":
		return m.moveCursor(len(m.items))

	case "r":
		return m, m.loadHistory()
	}

	item := m.selected()
	if item == nil {
		return m, nil
	}

	switch msg.String() {
	case "enter":
		return m, m.invoke("copy_clip_item", map[string]any{"historyId": item.ID}, "Copied to clipboard", false)

	case "p":
		return m, m.invoke("update_clipboard_history_by_id", map[string]any{
			"historyId":   item.ID,
			"updatedData": map[string]any{"isPinned": !item.Pinned},
		}, "", true)

	case "f":
		return m, m.invoke("update_clipboard_history_by_id", map[string]any{
			"historyId":   item.ID,
			"updatedData": map[string]any{"isFavorite": !item.Favorite},
		}, "", true)

	case " ":
		if m.marked[item.ID] {
			delete(m.marked, item.ID)
		} else {
			m.marked[item.ID] = true
		}
		return m.moveCursor(1)

	case "d", "delete":
		ids := m.markedIDs()
		if len(ids) == 0 {
			ids = []int64{item.ID}
		}
		m.removeItems(ids)
		m.deletes.AddMultiple(ids)
		m.status = fmt.Sprintf("Deleted %d clips", len(ids))
	}

	return m, nil
}

// removeItems drops ids from the list right away. Heights of rows from the
// first removed index on are stale after the shift and get remeasured.
func (m *HistoryModel) removeItems(ids []int64) {
	drop := make(map[int64]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
		delete(m.marked, id)
	}

	first := -1
	kept := m.items[:0]
	for i, item := range m.items {
		if drop[item.ID] {
			if first < 0 {
				first = i
			}
			continue
		}
		kept = append(kept, item)
	}
	if first < 0 {
		return
	}
	m.items = kept
	m.heights.ClearAfterIndex(first)

	m.cursor = min(m.cursor, max(0, len(m.items)-1))
	m.scrollTop = clampScroll(m.heights, len(m.items), m.scrollTop, m.listHeight())
	m.scrollTop = scrollToReveal(m.heights, m.cursor, m.scrollTop, m.listHeight())
}

func (m HistoryModel) moveCursor(delta int) (tea.Model, tea.Cmd) {
	if len(m.items) == 0 {
		return m, nil
	}
	m.cursor = max(0, min(len(m.items)-1, m.cursor+delta))
	return m.setScroll(scrollToReveal(m.heights, m.cursor, m.scrollTop, m.listHeight()))
}

func (m HistoryModel) scrollBy(lines int) (tea.Model, tea.Cmd) {
	if len(m.items) == 0 {
		return m, nil
	}
	height := m.listHeight()
	top := clampScroll(m.heights, len(m.items), m.scrollTop+lines, height)

	w := computeWindow(m.heights, len(m.items), top, height, 0)
	m.cursor = max(w.first, min(w.last, m.cursor))
	return m.setScroll(top)
}

func (m HistoryModel) setScroll(top int) (tea.Model, tea.Cmd) {
	if top == m.scrollTop {
		return m, nil
	}
	m.scrollTop = top
	m.velocity.Update(float64(top))
	return m, scrollSettleTick()
}

func (m HistoryModel) listHeight() int {
	h := m.height - headerLines - footerLines
	if m.filtering || m.filter.Value() != "" {
		h--
	}
	return max(1, h)
}

func (m HistoryModel) pageRows() int {
	w := computeWindow(m.heights, len(m.items), m.scrollTop, m.listHeight(), 0)
	return max(1, w.last-w.first)
}

func (m HistoryModel) selected() *storage.ClipItem {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return nil
	}
	return m.items[m.cursor]
}

func (m HistoryModel) indexOf(id int64) int {
	for i, item := range m.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func (m HistoryModel) markedIDs() []int64 {
	var ids []int64
	for _, item := range m.items {
		if m.marked[item.ID] {
			ids = append(ids, item.ID)
		}
	}
	return ids
}

// rowLines returns the wrapped text of row i and records its height.
func (m HistoryModel) rowLines(i, width int) []string {
	item := m.items[i]
	key := rowKey{id: item.ID, hash: item.Hash, width: width, masked: m.mask}

	lines, ok := m.rows.Get(key)
	if !ok {
		lines = renderRow(item.Value, width, m.list.MaxRowLines, m.mask)
		m.rows.Set(key, lines)
	}
	m.heights.Set(i, len(lines))
	return lines
}

// renderRow wraps a clip value to width, keeping at most maxLines lines.
func renderRow(value string, width, maxLines int, mask bool) []string {
	if mask {
		value = clip.Mask(value)
	}
	value = strings.ReplaceAll(value, "\t", "    ")
	value = strings.TrimRight(value, "\r\n")
	value = wrap.String(wordwrap.String(value, width), width)

	lines := strings.Split(value, "\n")
	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[:maxLines]
		last := truncate.String(lines[maxLines-1], uint(max(0, width-1)))
		lines[maxLines-1] = last + "…"
	}
	return lines
}

func (m HistoryModel) View() string {
	if m.quitting {
		return ""
	}
	m.monitor.Mark(renderMark)

	var s strings.Builder

	s.WriteString(titleStyle.Render("clipdeck"))
	s.WriteString(mutedStyle.Render(fmt.Sprintf("  %d clips", len(m.items))))
	if n := len(m.marked); n > 0 {
		s.WriteString(mutedStyle.Render(fmt.Sprintf(" • %d marked", n)))
	}
	s.WriteString("\n\n")

	if m.filtering || m.filter.Value() != "" {
		s.WriteString(m.filter.View())
		s.WriteString("\n")
	}

	s.WriteString(m.renderList(m.listHeight()))
	s.WriteString("\n")
	s.WriteString(m.renderStatus())
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("↑/↓: navigate • enter: copy • p: pin • f: favorite • space: mark • d: delete • /: filter • q: quit"))

	m.monitor.Measure("history.render", renderMark)
	return s.String()
}

func (m HistoryModel) renderList(height int) string {
	if len(m.items) == 0 {
		msg := "  No clips yet"
		if !m.loaded {
			msg = "  Loading..."
		} else if m.filter.Value() != "" {
			msg = "  No clips match the filter"
		}
		return mutedStyle.Italic(true).Render(msg) + strings.Repeat("\n", height-1)
	}

	overscan := perf.CalculateDynamicOverscan(m.velocity.Velocity())
	w := computeWindow(m.heights, len(m.items), m.scrollTop, height, overscan)
	contentWidth := max(10, m.width-gutterWidth)

	var lines []string
	for i := w.start; i < w.end; i++ {
		rowLines := m.rowLines(i, contentWidth)
		if i < w.first || i > w.last {
			continue
		}
		for j, line := range rowLines {
			lines = append(lines, m.decorate(i, j, line))
		}
	}

	skip := max(0, min(len(lines), m.scrollTop-m.heights.Offset(w.first)))
	lines = lines[skip:]
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func (m HistoryModel) decorate(i, line int, text string) string {
	item := m.items[i]
	gutter := []rune("    ")
	if line == 0 {
		if i == m.cursor {
			gutter[0] = '❯'
		}
		if m.marked[item.ID] {
			gutter[1] = '●'
		}
		if item.Pinned {
			gutter[2] = '*'
		} else if item.Favorite {
			gutter[2] = '+'
		}
	}

	style := itemStyle
	if i == m.cursor {
		style = selectedItemStyle
	}
	return string(gutter) + style.Render(text)
}

func (m HistoryModel) renderStatus() string {
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if m.status != "" {
		return successStyle.Render(m.status)
	}
	item := m.selected()
	if item == nil {
		return ""
	}
	info := fmt.Sprintf("#%d • %s • %s", item.ID, item.Kind, clip.FormatTimeAgo(item.UpdatedAt))
	if n := m.deletes.Pending(); n > 0 {
		info += fmt.Sprintf(" • %d deletes pending", n)
	}
	return mutedStyle.Render(info)
}
