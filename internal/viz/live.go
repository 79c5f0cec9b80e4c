package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/walksim/internal/metrics"
	"github.com/san-kum/walksim/internal/sim"
)

const (
	historyCapacity = 120
	sampleBuffer    = 256
	minInterval     = 10 * time.Millisecond
	graphHeight     = 10
	graphWidth      = 60
	sparkWidth      = 24
)

// SampleMsg carries one tick of one signal into the UI.
type SampleMsg struct {
	Name  string
	Value float64
}

// Monitor is a bubbletea model watching every member of an ensemble.
// Samples arrive from the generation goroutines through a buffered channel;
// when the UI falls behind, samples are dropped rather than blocking a tick.
type Monitor struct {
	ensemble   *sim.Ensemble
	names      []string
	focus      int
	samples    chan SampleMsg
	history    map[string][]float64
	collectors map[string]*metrics.Collector
	showHelp   bool
}

// NewMonitor registers an observer on each member of e. Any observer
// previously registered on a member is replaced.
func NewMonitor(e *sim.Ensemble) Monitor {
	m := Monitor{
		ensemble:   e,
		names:      e.Names(),
		samples:    make(chan SampleMsg, sampleBuffer),
		history:    make(map[string][]float64),
		collectors: make(map[string]*metrics.Collector),
	}

	for _, name := range m.names {
		s, _ := e.Get(name)
		set := s.Settings()
		c := metrics.NewCollector(historyCapacity, metrics.Defaults(set.Min, set.Max)...)
		m.collectors[name] = c
		m.history[name] = make([]float64, 0, historyCapacity)

		ch := m.samples
		s.RegisterCallback(func(v float64) {
			c.Observe(v)
			select {
			case ch <- SampleMsg{Name: name, Value: v}:
			default:
			}
		})
	}
	return m
}

func (m Monitor) waitForSample() tea.Cmd {
	return func() tea.Msg { return <-m.samples }
}

func (m Monitor) Init() tea.Cmd {
	return m.waitForSample()
}

func (m Monitor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SampleMsg:
		m.record(msg)
		return m, m.waitForSample()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab", "right", "l":
			m.cycle(1)
		case "shift+tab", "left", "h":
			m.cycle(-1)
		case " ":
			if s := m.focused(); s != nil {
				if s.IsRunning() {
					s.Stop()
				} else {
					s.Start()
				}
			}
		case "a":
			m.ensemble.StartAll()
		case "s":
			m.ensemble.StopAll()
		case "+", "=":
			m.scaleStep(1.25)
		case "-", "_":
			m.scaleStep(0.8)
		case "[":
			m.scaleInterval(2)
		case "]":
			m.scaleInterval(0.5)
		case "?":
			m.showHelp = !m.showHelp
		}
	}
	return m, nil
}

func (m *Monitor) record(msg SampleMsg) {
	h, ok := m.history[msg.Name]
	if !ok {
		return
	}
	h = append(h, msg.Value)
	if len(h) > historyCapacity {
		h = h[len(h)-historyCapacity:]
	}
	m.history[msg.Name] = h
}

func (m *Monitor) cycle(dir int) {
	if len(m.names) == 0 {
		return
	}
	m.focus = (m.focus + dir + len(m.names)) % len(m.names)
}

func (m Monitor) focused() *sim.Simulator {
	if len(m.names) == 0 {
		return nil
	}
	s, _ := m.ensemble.Get(m.names[m.focus])
	return s
}

func (m Monitor) scaleStep(factor float64) {
	if s := m.focused(); s != nil {
		s.SetStep(s.Settings().Step * factor)
	}
}

func (m Monitor) scaleInterval(factor float64) {
	s := m.focused()
	if s == nil {
		return
	}
	next := time.Duration(float64(s.Interval()) * factor)
	s.SetInterval(max(next, minInterval))
}

// History returns the retained samples for name, oldest first.
func (m Monitor) History(name string) []float64 {
	return m.history[name]
}

func (m Monitor) Focus() string {
	if len(m.names) == 0 {
		return ""
	}
	return m.names[m.focus]
}

func (m Monitor) View() string {
	if len(m.names) == 0 {
		return Subtle.Render("no signals configured") + "\n"
	}

	var rows strings.Builder
	rows.WriteString(Title.Render("SIGNALS") + "\n\n")
	for i, name := range m.names {
		s, _ := m.ensemble.Get(name)
		snap := s.Snapshot()

		status := StatusStopped.Render("■")
		if snap.Running {
			status = StatusRunning.Render("▶")
		}
		label := fmt.Sprintf("%-12s", name)
		if i == m.focus {
			label = Focused.Render("> " + label)
		} else {
			label = "  " + label
		}
		rows.WriteString(fmt.Sprintf("%s %s %8.3f %s\n",
			label, status, snap.Value,
			Sparkline(m.history[name], snap.Min, snap.Max, sparkWidth)))
	}

	name := m.names[m.focus]
	s, _ := m.ensemble.Get(name)
	snap := s.Snapshot()

	var detail strings.Builder
	detail.WriteString(Title.Render(strings.ToUpper(name)) + "\n\n")
	if chart := Plot(m.history[name], name, graphHeight, graphWidth); chart != "" {
		detail.WriteString(GraphStyle.Render(chart) + "\n\n")
	} else {
		detail.WriteString(Subtle.Render("waiting for samples...") + "\n\n")
	}
	detail.WriteString(MetricLabel.Render("value") + MetricValue.Render(fmt.Sprintf("%.3f", snap.Value)) +
		"  " + Gauge(snap.Value, snap.Min, snap.Max, 20) + "\n")
	detail.WriteString(MetricLabel.Render("bounds") + MetricValue.Render(fmt.Sprintf("[%g, %g]", snap.Min, snap.Max)) + "\n")
	detail.WriteString(MetricLabel.Render("step") + MetricValue.Render(fmt.Sprintf("%g", snap.Step)) + "\n")
	detail.WriteString(MetricLabel.Render("interval") + MetricValue.Render(snap.Interval.String()) + "\n")
	detail.WriteString(MetricLabel.Render("ticks") + MetricValue.Render(fmt.Sprintf("%d", snap.Ticks)) + "\n")

	vals := m.collectors[name].Values()
	for _, k := range []string{"mean", "volatility", "saturation", "span"} {
		if v, ok := vals[k]; ok {
			detail.WriteString(MetricLabel.Render(k) + MetricValue.Render(fmt.Sprintf("%.3f", v)) + "\n")
		}
	}

	view := lipgloss.JoinHorizontal(lipgloss.Top, Panel.Render(rows.String()), Panel.Render(detail.String()))

	hint := "tab:focus  space:start/stop  a/s:all  +/-:step  [/]:interval  ?:help  q:quit"
	view += "\n" + KeyHint.Render(hint) + "\n"
	if m.showHelp {
		view += "\n" + Separator(60) + "\n" + helpText
	}
	return view
}

const helpText = `  Tab / →     focus next signal
  Shift+Tab   focus previous signal
  Space       start or stop the focused signal
  a / s       start / stop every signal
  + / -       scale the step size up / down
  [ / ]       double / halve the interval
  q           quit
`

// Plot draws values with asciigraph. It returns "" when there is nothing to
// draw.
func Plot(values []float64, caption string, height, width int) string {
	if len(values) == 0 {
		return ""
	}
	opts := []asciigraph.Option{asciigraph.Height(height), asciigraph.Caption(caption)}
	if width > 0 {
		opts = append(opts, asciigraph.Width(width))
	}
	return asciigraph.Plot(values, opts...)
}

// RunMonitor starts every member of e, runs the monitor until the user quits
// and stops the ensemble again.
func RunMonitor(e *sim.Ensemble) error {
	m := NewMonitor(e)
	e.StartAll()
	defer e.StopAll()

	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
