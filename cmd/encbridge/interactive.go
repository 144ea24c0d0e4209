package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/wippyai/encbridge"
	"github.com/wippyai/encbridge/registry"
	"github.com/wippyai/encbridge/sink"
	"github.com/wippyai/encbridge/wasmhost"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const refreshInterval = 100 * time.Millisecond

type progressModel struct {
	err     error
	cancel  context.CancelFunc
	run     func() (wasmhost.Result, error)
	counter *sink.CountingSink
	wasm    string
	output  string
	result  wasmhost.Result
	stats   sink.Stats
	spinner spinner.Model
	done    bool
}

type tickMsg time.Time

type doneMsg struct {
	err    error
	result wasmhost.Result
}

func newProgressModel(run func() (wasmhost.Result, error), cancel context.CancelFunc, counter *sink.CountingSink, opts runOptions) *progressModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = countStyle
	return &progressModel{
		run:     run,
		cancel:  cancel,
		counter: counter,
		wasm:    opts.wasm,
		output:  opts.output,
		spinner: sp,
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tick(), m.start)
}

func (m *progressModel) start() tea.Msg {
	res, err := m.run()
	return doneMsg{result: res, err: err}
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if !m.done {
				m.cancel()
				return m, nil
			}
			return m, tea.Quit
		}

	case tickMsg:
		m.stats = m.counter.Stats()
		if m.done {
			return m, nil
		}
		return m, tick()

	case doneMsg:
		m.done = true
		m.result = msg.result
		m.err = msg.err
		m.stats = m.counter.Stats()
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("encbridge"))
	b.WriteString(" ")
	b.WriteString(m.wasm)
	b.WriteString(" -> ")
	b.WriteString(m.output)
	b.WriteString("\n\n")

	counts := fmt.Sprintf("%s writes, %s",
		humanize.Comma(m.stats.Writes),
		humanize.IBytes(uint64(m.stats.Bytes)))

	switch {
	case !m.done:
		b.WriteString(m.spinner.View())
		b.WriteString(" encoding ")
		b.WriteString(countStyle.Render(counts))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("q cancel"))
	case m.err != nil:
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	default:
		b.WriteString(resultStyle.Render(fmt.Sprintf("done: status %s, %s", m.result.Status, counts)))
		b.WriteString("\n")
	}

	return b.String()
}

func runInteractive(ctx context.Context, runner *wasmhost.Runner, s encbridge.Sink, counter *sink.CountingSink, opts runOptions) (wasmhost.Result, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	run := func() (wasmhost.Result, error) {
		return runner.Run(runCtx, s, registry.WithLabel(opts.output))
	}

	final, err := tea.NewProgram(newProgressModel(run, cancel, counter, opts)).Run()
	if err != nil {
		return wasmhost.Result{}, err
	}
	m := final.(*progressModel)
	return m.result, m.err
}
