package viz

import (
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/spherro/internal/metrics"
	"github.com/san-kum/spherro/internal/spatial"
	"github.com/san-kum/spherro/internal/sph"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 600

	// forceStep is how far one key press moves the force.
	forceStep = 100.0
	// spawnBatch is the size of one spawn or despawn request.
	spawnBatch = 5
	// spawnInset places spawned particles this far from the top-left corner.
	spawnInset = 25.0
)

type TickMsg time.Time

// LiveOptions configures a live view.
type LiveOptions struct {
	Title    string
	Dt       float64
	Substeps int
	Force    sph.Force
	HasForce bool
	Logger   *log.Logger
}

// Model drives one universe from Bubble Tea ticks.
type Model struct {
	newUniverse func() (*sph.Universe, error)
	opts        LiveOptions
	logger      *log.Logger

	u        *sph.Universe
	force    sph.Force
	hasForce bool

	canvas   *Canvas
	flat     []float64
	running  bool
	unstable error
	showGrid bool
	notice   string

	sample        metrics.Sample
	energyHistory []float64
	speedHistory  []float64
}

// NewModel builds the first universe with newUniverse; r calls it again.
func NewModel(newUniverse func() (*sph.Universe, error), opts LiveOptions) (Model, error) {
	if opts.Substeps < 1 {
		opts.Substeps = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	m := Model{
		newUniverse:   newUniverse,
		opts:          opts,
		logger:        logger,
		canvas:        NewCanvas(width, height),
		running:       true,
		energyHistory: make([]float64, 0, historyCapacity),
		speedHistory:  make([]float64, 0, historyCapacity),
	}
	if err := m.reset(); err != nil {
		return Model{}, err
	}
	return m, nil
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ", "space":
			if m.unstable == nil {
				m.running = !m.running
			}
		case "r":
			if err := m.reset(); err != nil {
				m.notice = err.Error()
			}
		case "w":
			m.force.Pos.Y += forceStep
		case "s":
			m.force.Pos.Y -= forceStep
		case "a":
			m.force.Pos.X -= forceStep
		case "d":
			m.force.Pos.X += forceStep
		case "p":
			if err := m.u.QueueSpawn(spawnBatch, spawnInset, m.u.Height()-spawnInset); err != nil {
				m.notice = err.Error()
			}
		case "o":
			if err := m.u.QueueDespawn(spawnBatch); err != nil {
				m.notice = err.Error()
			}
		case "g":
			m.showGrid = !m.showGrid
		case "t":
			nextTheme()
		}
	case TickMsg:
		if m.running {
			m.step()
		}
		return m, tick()
	}
	return m, nil
}

// step advances the universe by one frame of Substeps steps.
func (m *Model) step() {
	for k := 0; k < m.opts.Substeps; k++ {
		m.u.ClearForces()
		if m.hasForce {
			m.u.AddForce(m.force)
		}
		m.u.Step(m.opts.Dt)

		if r := m.u.LastReport(); len(r.Rejected) > 0 {
			m.notice = r.Rejected[0].Error()
		}
	}

	if err := m.u.Validate(); err != nil {
		m.unstable = err
		m.running = false
		m.logger.Error("simulation diverged", "err", err, "steps", m.u.Steps())
	}

	m.sample = metrics.Measure(m.u.Particles(), m.u.Time())
	m.energyHistory = appendCapped(m.energyHistory, m.sample.KineticEnergy)
	m.speedHistory = appendCapped(m.speedHistory, m.sample.MaxSpeed)
}

func appendCapped(s []float64, v float64) []float64 {
	s = append(s, v)
	if len(s) > historyCapacity {
		s = s[1:]
	}
	return s
}

// reset rebuilds the universe and restores the starting force.
func (m *Model) reset() error {
	u, err := m.newUniverse()
	if err != nil {
		return err
	}
	m.u = u
	m.force, m.hasForce = m.opts.Force, m.opts.HasForce
	m.unstable = nil
	m.running = true
	m.notice = ""
	m.energyHistory = m.energyHistory[:0]
	m.speedHistory = m.speedHistory[:0]
	m.sample = metrics.Measure(u.Particles(), 0)
	return nil
}

// draw rasterises the current frame onto the canvas.
func (m *Model) draw() {
	m.canvas.Clear()
	vp := NewViewport(m.canvas, m.u.Width(), m.u.Height())

	if m.showGrid {
		g := spatial.NewGrid(m.u.Width(), m.u.Height(), m.u.Params().H, nil)
		vp.Segments(g.Splits())
	}

	m.flat = m.u.AppendFlat(m.flat[:0])
	vp.Particles(m.flat)

	if m.hasForce {
		vp.Marker(m.force.Pos.X, m.force.Pos.Y)
	}
}

func (m Model) status() string {
	switch {
	case m.unstable != nil:
		return bannerStyle().Render("UNSTABLE: press r to reset")
	case !m.running:
		return statusStyle(CurrentTheme.Warning).Render("PAUSED")
	default:
		return statusStyle(CurrentTheme.Success).Render("RUNNING")
	}
}

// View renders the TUI interface.
func (m Model) View() string {
	m.draw()
	canvasView := canvasStyle.Render(m.canvas.Render())

	var s strings.Builder
	s.WriteString(headerStyle().Render(strings.ToUpper(m.opts.Title)) + "\n")
	s.WriteString(m.status() + "\n\n")

	if len(m.energyHistory) > 1 {
		chart := asciigraph.Plot(m.energyHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Kinetic energy"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle().Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.3fs", m.u.Time()))
	row("Steps", fmt.Sprintf("%d", m.u.Steps()))
	row("Particles", fmt.Sprintf("%d (%+d queued)", m.u.ParticleCount(), m.u.PendingDelta()))
	row("Density", fmt.Sprintf("%.5f", m.sample.MeanDensity))
	row("Max speed", fmt.Sprintf("%.1f", m.sample.MaxSpeed))
	row("Speed", SparklineChart(m.speedHistory, 30))
	if m.hasForce {
		row("Force", fmt.Sprintf("(%.0f, %.0f)", m.force.Pos.X, m.force.Pos.Y))
	}
	if m.notice != "" {
		s.WriteString("\n" + statusStyle(CurrentTheme.Warning).Render(m.notice) + "\n")
	}

	s.WriteString(helpStyle.Render("─────────────────────\nWASD:Force P:Spawn O:Despawn\nSP:Pause R:Reset G:Grid T:Theme Q:Quit"))
	statsView := statsStyle.Render(s.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)
}
