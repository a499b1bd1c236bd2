package tui

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"media-compressor/internal/compressor"
	"media-compressor/internal/queue"
)

// DefaultInterval is the polling interval of the watch view.
const DefaultInterval = time.Second

// Source supplies the snapshots the model renders.
type Source interface {
	Progress(ctx context.Context) (compressor.Progress, error)
	Queue(ctx context.Context) ([]queue.Item, error)
}

type Model struct {
	source       Source
	interval     time.Duration
	exitWhenIdle bool
	started      time.Time
	width        int
	progress     compressor.Progress
	counts       map[string]int
	err          error
	sawRun       bool
	quitting     bool
}

type tickMsg time.Time

type snapshotMsg struct {
	progress compressor.Progress
	items    []queue.Item
	err      error
}

// NewModel returns a model polling source every interval. With exitWhenIdle
// the program quits once a run it has seen in progress ends.
func NewModel(source Source, interval time.Duration, exitWhenIdle bool) Model {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return Model{
		source:       source,
		interval:     interval,
		exitWhenIdle: exitWhenIdle,
		started:      time.Now(),
		counts:       map[string]int{},
	}
}

// Err returns the last polling error.
func (m Model) Err() error {
	return m.err
}

func (m Model) Init() tea.Cmd {
	return fetch(m.source, m.interval)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		m.err = msg.err
		if msg.err == nil {
			m.progress = msg.progress
			m.counts = queue.Counts(msg.items)
			if msg.progress.IsProcessing {
				m.sawRun = true
			} else if m.exitWhenIdle && m.sawRun {
				m.quitting = true
				return m, tea.Quit
			}
		}
		return m, tick(m.interval)
	case tickMsg:
		return m, fetch(m.source, m.interval)
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	barWidth := 40
	if m.width > 0 {
		barWidth = int(math.Min(60, float64(m.width-10)))
		if barWidth < 20 {
			barWidth = 20
		}
	}

	state := dimStyle.Render("idle")
	if m.progress.IsProcessing {
		state = lipgloss.NewStyle().Foreground(ColorSuccess).Render("processing")
	}

	current := "-"
	if m.progress.CurrentFile != "" {
		current = filepath.Base(m.progress.CurrentFile)
	}

	lines := []string{
		titleStyle.Render("media-compressor") + "  " + state,
		labelStyle.Render(fmt.Sprintf("Files: %d/%d", m.progress.ProcessedFiles, m.progress.TotalFiles)) +
			dimStyle.Render(fmt.Sprintf("  pending:%d skipped:%d failed:%d",
				m.counts[string(queue.StatusPending)], m.counts[string(queue.StatusSkipped)], m.counts[string(queue.StatusFailed)])),
		labelStyle.Render("Current: ") + currentStyle.Render(current),
		barStyle.Render(renderBar(barWidth, m.progress.CurrentProgressPercent/100)) +
			dimStyle.Render(fmt.Sprintf(" %5.1f%%", m.progress.CurrentProgressPercent)),
		barStyle.Render(renderBar(barWidth, overallRatio(m.progress))) + dimStyle.Render(" overall"),
		dimStyle.Render(fmt.Sprintf("Watching: %s", time.Since(m.started).Round(time.Second))),
	}
	if m.err != nil {
		lines = append(lines, errorStyle.Render("Error: "+m.err.Error()))
	}
	lines = append(lines, dimStyle.Render("q to quit"))

	return strings.Join(lines, "\n")
}

func overallRatio(p compressor.Progress) float64 {
	if p.TotalFiles <= 0 {
		return 0
	}
	return float64(p.ProcessedFiles) / float64(p.TotalFiles)
}

func fetch(source Source, interval time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), interval+5*time.Second)
		defer cancel()

		p, err := source.Progress(ctx)
		if err != nil {
			return snapshotMsg{err: err}
		}
		items, err := source.Queue(ctx)
		if err != nil {
			return snapshotMsg{err: err}
		}
		return snapshotMsg{progress: p, items: items}
	}
}

func tick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func renderBar(width int, ratio float64) string {
	filled := int(math.Round(ratio * float64(width)))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("=", filled) + strings.Repeat(" ", width-filled) + "]"
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	labelStyle   = lipgloss.NewStyle().Foreground(ColorInk)
	currentStyle = lipgloss.NewStyle().Foreground(ColorAccentAlt)
	barStyle     = lipgloss.NewStyle().Foreground(ColorInk)
	dimStyle     = lipgloss.NewStyle().Foreground(ColorDim)
	errorStyle   = lipgloss.NewStyle().Foreground(ColorError)
)
