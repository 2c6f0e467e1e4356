// Package tui is a terminal front end for the day timeline. Items are moved
// and resized one slot at a time with the keyboard, driving the same
// gesture protocol a pointer would.
package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harrisonrobin/dayline/pkg/drag"
	"github.com/harrisonrobin/dayline/pkg/engine"
	"github.com/harrisonrobin/dayline/pkg/model"
	"github.com/harrisonrobin/dayline/pkg/render"
	"github.com/harrisonrobin/dayline/pkg/timeconv"
)

const zoomStep = 0.25

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#d50000"))
	helpText    = "j/k select  J/K move  r/R resize end/start  enter drop  esc cancel  +/- zoom  h/l day  q quit"
)

type gesture int

const (
	idle gesture = iota
	moving
	resizing
)

// Options wires the model to the rest of the program.
type Options struct {
	Engine    *engine.Engine
	Color     func(model.ScheduledItem) string
	Completed func(model.ScheduledItem) bool
	// Changes delivers external edits. Each receive triggers a reload.
	Changes <-chan struct{}
}

// Model is the bubbletea model of the timeline view.
type Model struct {
	ctx    context.Context
	opts   Options
	events chan engine.Event
	unsub  func()

	rows     []render.Row
	selected model.Key
	gesture  gesture
	pointer  float64
	scroll   float64
	width    int
	height   int
	status   string
	err      error
}

type engineMsg engine.Event

type changedMsg struct{}

func New(ctx context.Context, opts Options) *Model {
	m := &Model{
		ctx:    ctx,
		opts:   opts,
		events: make(chan engine.Event, 64),
		width:  80,
		height: 24,
	}
	m.unsub = opts.Engine.Subscribe(func(ev engine.Event) {
		select {
		case m.events <- ev:
		default:
		}
	})
	m.refresh()
	return m
}

// Run starts the program and blocks until the user quits.
func Run(ctx context.Context, opts Options) error {
	m := New(ctx, opts)
	defer m.unsub()
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	opts.Engine.Wait()
	return err
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.waitEvent(), m.waitChange())
}

func (m *Model) waitEvent() tea.Cmd {
	return func() tea.Msg {
		select {
		case ev := <-m.events:
			return engineMsg(ev)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) waitChange() tea.Cmd {
	if m.opts.Changes == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case _, ok := <-m.opts.Changes:
			if !ok {
				return nil
			}
			return changedMsg{}
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case engineMsg:
		switch msg.Type {
		case engine.EventCommitFailed:
			m.err = msg.Err
			m.status = fmt.Sprintf("could not save %s, queued for retry", msg.Key)
		case engine.EventCommitted:
			m.err = nil
			m.status = fmt.Sprintf("saved %s at %s", msg.Key, msg.Change.Time)
		}
		m.refresh()
		return m, m.waitEvent()

	case changedMsg:
		if m.gesture == idle {
			if err := m.opts.Engine.Reload(m.ctx); err != nil {
				m.err = err
			}
		}
		return m, m.waitChange()

	case tea.KeyMsg:
		return m, m.handleKey(msg.String())
	}
	return m, nil
}

func (m *Model) handleKey(key string) tea.Cmd {
	e := m.opts.Engine
	hh := e.Zoom().HourHeight()
	step := timeconv.MinutesToPixels(timeconv.SlotMinutes, hh)

	switch key {
	case "ctrl+c", "q":
		e.CancelDrag()
		return tea.Quit

	case "j", "down":
		if m.gesture == idle {
			m.moveSelection(1)
		}
	case "k", "up":
		if m.gesture == idle {
			m.moveSelection(-1)
		}

	case "J", "K":
		delta := step
		if key == "K" {
			delta = -step
		}
		switch m.gesture {
		case idle:
			pos, ok := e.Position(m.selected)
			if !ok || !e.BeginDrag(m.ctx, m.selected, pos.Top) {
				m.status = "item cannot be moved"
				return nil
			}
			m.gesture = moving
			m.pointer = pos.Top + delta
			e.UpdateDrag(m.pointer)
		case moving:
			m.pointer += delta
			e.UpdateDrag(m.pointer)
		case resizing:
			m.pointer += delta
			e.UpdateResize(m.pointer)
		}

	case "r", "R":
		if m.gesture != idle {
			return nil
		}
		pos, ok := e.Position(m.selected)
		if !ok {
			return nil
		}
		edge, pointer := drag.EdgeEnd, pos.Top+pos.Height
		if key == "R" {
			edge, pointer = drag.EdgeStart, pos.Top
		}
		if !e.BeginResize(m.ctx, m.selected, edge, pointer) {
			m.status = "item cannot be resized"
			return nil
		}
		m.gesture = resizing
		m.pointer = pointer

	case "enter":
		switch m.gesture {
		case moving:
			e.EndDrag(m.ctx)
		case resizing:
			e.EndResize(m.ctx)
		}
		m.gesture = idle

	case "esc":
		e.CancelDrag()
		m.gesture = idle
		m.status = "cancelled"

	case "+", "=", "-":
		delta := zoomStep
		if key == "-" {
			delta = -zoomStep
		}
		m.scroll = e.SetZoom(delta, m.scroll, float64(m.height))

	case "h", "l":
		if m.gesture != idle {
			return nil
		}
		day, err := model.ParseDate(e.Date())
		if err != nil {
			m.err = err
			return nil
		}
		offset := 1
		if key == "h" {
			offset = -1
		}
		if err := e.SetDate(m.ctx, day.AddDate(0, 0, offset).Format(model.DateLayout)); err != nil {
			m.err = err
		}
	}
	m.refresh()
	return nil
}

func (m *Model) moveSelection(delta int) {
	if len(m.rows) == 0 {
		return
	}
	idx := 0
	for i, r := range m.rows {
		if r.Item.Key() == m.selected {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(m.rows)) % len(m.rows)
	m.selected = m.rows[idx].Item.Key()
}

func (m *Model) refresh() {
	e := m.opts.Engine
	m.rows = render.Rows(e.Items(), e.Positions(), m.opts.Completed)
	for _, r := range m.rows {
		if r.Item.Key() == m.selected {
			return
		}
	}
	m.selected = model.Key{}
	if len(m.rows) > 0 {
		m.selected = m.rows[0].Item.Key()
	}
}

func (m *Model) View() string {
	e := m.opts.Engine
	var b strings.Builder

	header := fmt.Sprintf("%s  zoom %.2fx", e.Date(), e.Zoom().Level)
	if s, ok := e.Session(); ok {
		header += fmt.Sprintf("  %s %s → %s", s.Mode, s.Key, s.LiveRange())
	}
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	b.WriteString(render.Grid(m.rows, render.GridOptions{
		Width:      max(10, m.width-8),
		HourHeight: e.Zoom().HourHeight(),
		Color:      m.opts.Color,
		Selected:   m.selected,
	}))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()))
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(statusStyle.Render(helpText))
	return b.String()
}
