// SPDX-License-Identifier: MIT

// Package term is a terminal display backend. Each character cell is one
// canvas pixel; frames are styled with lipgloss and shown by a bubbletea
// program running on its own goroutine.
package term

import (
	"fmt"
	"image/color"
	"math"
	"strings"
	"sync"

	"spectralyzer/internal/display"
	applog "spectralyzer/internal/log"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	defaultCols = 80
	defaultRows = 24
	eventBuffer = 64
	fill        = '█'
)

var titleStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#FFFDF5")).
	Background(lipgloss.Color("#25A065")).
	Padding(0, 1).
	Bold(true)

type cell struct {
	ch rune
	c  color.RGBA
}

type frameMsg string

// Terminal implements display.Surface on top of a bubbletea program.
type Terminal struct {
	program *tea.Program
	done    chan struct{}
	events  chan display.Event

	mu         sync.Mutex
	cols, rows int

	// Owned by the drawing goroutine.
	gridCols, gridRows int
	cells              []cell
	footer             string
	sb                 strings.Builder

	closeOnce sync.Once
}

// Open starts the bubbletea program. opts are appended to the defaults
// (alternate screen); tests pass input and output overrides.
func Open(cfg display.Config, opts ...tea.ProgramOption) (*Terminal, error) {
	t := &Terminal{
		done:   make(chan struct{}),
		events: make(chan display.Event, eventBuffer),
		cols:   defaultCols,
		rows:   defaultRows,
	}
	t.footer = footer(cfg)

	options := append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	t.program = tea.NewProgram(model{t: t}, options...)

	go func() {
		defer close(t.done)
		if _, err := t.program.Run(); err != nil {
			applog.Errorf("Term: Program exited: %v", err)
		}
	}()

	applog.Infof("Term: Terminal display started")
	return t, nil
}

func footer(cfg display.Config) string {
	quit := cfg.QuitKey
	if quit == "" {
		quit = "q"
	}
	bindings := []key.Binding{
		key.NewBinding(key.WithKeys(quit), key.WithHelp(quit, "quit")),
		key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
	title := cfg.Title
	if title == "" {
		title = "spectralyzer"
	}
	return titleStyle.Render(title) + " " + help.New().ShortHelpView(bindings)
}

// Size is the terminal size minus the footer line.
func (t *Terminal) Size() (int, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cols, max(t.rows-1, 1)
}

func (t *Terminal) resize(cols, rows int) {
	t.mu.Lock()
	t.cols, t.rows = cols, rows
	t.mu.Unlock()
}

// Clear also picks up the latest terminal size for the frame.
func (t *Terminal) Clear(c color.RGBA) error {
	t.gridCols, t.gridRows = t.Size()
	if n := t.gridCols * t.gridRows; cap(t.cells) < n {
		t.cells = make([]cell, n)
	} else {
		t.cells = t.cells[:n]
	}
	for i := range t.cells {
		t.cells[i] = cell{ch: ' ', c: c}
	}
	return nil
}

func (t *Terminal) set(x, y int, ch rune, c color.RGBA) {
	if x < 0 || y < 0 || x >= t.gridCols || y >= t.gridRows {
		return
	}
	t.cells[y*t.gridCols+x] = cell{ch: ch, c: c}
}

// DrawLine rasterizes the segment onto whole cells; out of range cells
// are clipped.
func (t *Terminal) DrawLine(x1, y1, x2, y2 float32, c color.RGBA) error {
	dx, dy := float64(x2-x1), float64(y2-y1)
	steps := int(math.Ceil(math.Max(math.Abs(dx), math.Abs(dy))))
	if steps == 0 {
		t.set(int(math.Round(float64(x1))), int(math.Round(float64(y1))), fill, c)
		return nil
	}
	for i := 0; i <= steps; i++ {
		f := float64(i) / float64(steps)
		t.set(int(math.Round(float64(x1)+dx*f)), int(math.Round(float64(y1)+dy*f)), fill, c)
	}
	return nil
}

func (t *Terminal) DrawText(x, y float32, text string, c color.RGBA) error {
	col, row := int(math.Round(float64(x))), int(math.Round(float64(y)))
	for i, r := range []rune(text) {
		t.set(col+i, row, r, c)
	}
	return nil
}

// Present styles the grid row by row, grouping runs of equal color, and
// hands the frame to the program.
func (t *Terminal) Present() error {
	select {
	case <-t.done:
		return fmt.Errorf("terminal program stopped")
	default:
	}
	t.program.Send(frameMsg(t.frame()))
	return nil
}

func (t *Terminal) frame() string {
	t.sb.Reset()
	for y := range t.gridRows {
		row := t.cells[y*t.gridCols : (y+1)*t.gridCols]
		for start := 0; start < len(row); {
			end := start + 1
			for end < len(row) && row[end].c == row[start].c {
				end++
			}
			run := make([]rune, end-start)
			for i := range run {
				run[i] = row[start+i].ch
			}
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(hex(row[start].c)))
			t.sb.WriteString(style.Render(string(run)))
			start = end
		}
		t.sb.WriteByte('\n')
	}
	t.sb.WriteString(t.footer)
	return t.sb.String()
}

func hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// PollEvent reports a quit once the program has exited on its own.
func (t *Terminal) PollEvent() (display.Event, bool) {
	select {
	case ev := <-t.events:
		return ev, true
	default:
	}
	select {
	case <-t.done:
		return display.Event{Type: display.EventQuit}, true
	default:
	}
	return display.Event{}, false
}

func (t *Terminal) push(ev display.Event) {
	select {
	case t.events <- ev:
	default:
		applog.Debugf("Term: Event queue full, dropping %v", ev)
	}
}

// Close quits the program and waits for it to restore the terminal.
func (t *Terminal) Close() error {
	t.closeOnce.Do(func() {
		t.program.Quit()
		<-t.done
		applog.Debugf("Term: Terminal display closed")
	})
	return nil
}

type model struct {
	t    *Terminal
	view string
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		m.view = string(msg)
	case tea.WindowSizeMsg:
		m.t.resize(msg.Width, msg.Height)
		m.t.push(display.Event{Type: display.EventOther})
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.t.push(display.Event{Type: display.EventQuit})
			break
		}
		m.t.push(display.Event{Type: display.EventKeyDown, Key: strings.ToLower(msg.String())})
	}
	return m, nil
}

func (m model) View() string { return m.view }

var _ display.Surface = (*Terminal)(nil)
