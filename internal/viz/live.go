package viz

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/physync/internal/config"
	"github.com/san-kum/physync/internal/interact"
	"github.com/san-kum/physync/internal/metrics"
	"github.com/san-kum/physync/internal/render"
	"github.com/san-kum/physync/internal/scenes"
)

const (
	historyCapacity = 300
	panelWidth      = 48
	// A terminal cell is taken as 8x16 pixels when converting mouse motion
	// to pointer deltas.
	cellPixelsX = 8
	cellPixelsY = 16
	pickRadius  = 12
)

var charts = []string{"energy", "kinetic", "awake"}

type TickMsg time.Time

// Options configures the live view.
type Options struct {
	Registry *scenes.Registry
	Config   *config.Config
	Theme    string
	Log      *slog.Logger
	// OnBuild is called with every scene the view builds, including rebuilds.
	OnBuild func(*scenes.Scene)
}

type dragState struct {
	node render.NodeHandle
	x, y int
}

// Model is the Bubble Tea model of a running scene.
type Model struct {
	opts     Options
	scene    *scenes.Scene
	camera   *Camera
	canvas   *Canvas
	theme    int
	fps      int
	running  bool
	showHelp bool
	last     time.Time
	rate     float64
	chart    int
	history  map[string][]float64
	drag     *dragState
	err      error
}

func NewModel(opts Options) (Model, error) {
	if opts.Registry == nil {
		opts.Registry = scenes.NewRegistry()
	}
	if opts.Config == nil {
		opts.Config = config.DefaultConfig()
	}
	m := Model{
		opts:    opts,
		camera:  NewCamera(),
		canvas:  NewCanvas(60, 22),
		fps:     opts.Config.View.FPS,
		running: true,
	}
	if m.fps <= 0 {
		m.fps = config.DefaultFPS
	}
	if z := opts.Config.View.Zoom; z > 0 {
		m.camera.Zoom = z
	}
	for i, t := range Themes {
		if t.Name == opts.Theme {
			m.theme = i
		}
	}
	if err := m.build(); err != nil {
		return Model{}, err
	}
	return m, nil
}

func (m *Model) build() error {
	s, err := m.opts.Registry.Build(m.opts.Config, m.opts.Log)
	if err != nil {
		return err
	}
	if m.opts.OnBuild != nil {
		m.opts.OnBuild(s)
	}
	m.scene = s
	m.history = make(map[string][]float64, len(charts))
	m.drag = nil
	m.err = nil
	m.last = time.Time{}
	return nil
}

// Scene is the scene currently on screen.
func (m Model) Scene() *scenes.Scene { return m.scene }

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return m.tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.key(msg)
	case tea.MouseMsg:
		m.mouse(msg)
	case tea.WindowSizeMsg:
		w := max(msg.Width-panelWidth-4, 20)
		h := max(msg.Height-1, 10)
		m.canvas = NewCanvas(w, h)
	case TickMsg:
		m.step(time.Time(msg))
		return m, m.tick()
	}
	return m, nil
}

func (m Model) key(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		m.running = !m.running
	case "r":
		if err := m.build(); err != nil {
			m.err = err
		}
	case "w":
		m.scene.WakeBalls()
	case "left", "h":
		m.camera.Orbit(-0.1, 0)
	case "right", "l":
		m.camera.Orbit(0.1, 0)
	case "up", "k":
		m.camera.Orbit(0, 0.1)
	case "down", "j":
		m.camera.Orbit(0, -0.1)
	case "+", "=":
		m.camera.ZoomIn()
	case "-", "_":
		m.camera.ZoomOut()
	case "tab":
		m.chart = (m.chart + 1) % len(charts)
	case "t":
		m.theme = (m.theme + 1) % len(Themes)
	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

// step advances one frame by the wall-clock time since the previous tick.
// The stepper clamps long gaps.
func (m *Model) step(now time.Time) {
	delta := 1 / float64(m.fps)
	if !m.last.IsZero() {
		delta = now.Sub(m.last).Seconds()
	}
	m.last = now
	if !m.running || m.err != nil {
		return
	}
	if delta > 0 {
		m.rate = 0.9*m.rate + 0.1/delta
	}
	if _, err := m.scene.Stepper.Step(delta); err != nil {
		m.err = err
		m.running = false
		m.scene.Log().Error("frame failed", "err", err)
		return
	}
	ke, pe := metrics.Mechanical(m.scene.World)
	m.record("energy", ke+pe)
	m.record("kinetic", ke)
	if a := m.scene.Metric("awake"); a != nil {
		m.record("awake", a.Value())
	}
}

func (m *Model) record(name string, v float64) {
	h := append(m.history[name], v)
	if len(h) > historyCapacity {
		h = h[len(h)-historyCapacity:]
	}
	m.history[name] = h
}

// subPixel maps a terminal cell to the centre of the canvas cell under it.
// The canvas is drawn one column in from the left edge.
func subPixel(x, y int) (int, int) {
	return (x-1)*2 + 1, y*4 + 2
}

func (m *Model) draggable(n *render.Node) bool {
	h, ok := m.scene.Table.ByNode(n.Handle())
	if !ok {
		return false
	}
	b, err := m.scene.Table.Get(h)
	if err != nil {
		return false
	}
	_, ok = m.scene.Machine.GestureFor(b.Role)
	return ok
}

func (m *Model) mouse(msg tea.MouseMsg) {
	switch {
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		if m.drag != nil {
			return
		}
		w, h := m.canvas.Size()
		x, y := subPixel(msg.X, msg.Y)
		node, ok := Pick(m.scene.Render, m.camera, w, h, x, y, pickRadius, m.draggable)
		if !ok {
			return
		}
		m.drag = &dragState{node: node, x: msg.X, y: msg.Y}
		m.scene.Push(interact.Event{Kind: interact.DragStart, Node: node, Pointer: m.pointer(msg)})
	case msg.Action == tea.MouseActionMotion && m.drag != nil:
		m.scene.Push(interact.Event{Kind: interact.Drag, Node: m.drag.node, Pointer: m.pointer(msg)})
		m.drag.x, m.drag.y = msg.X, msg.Y
	case msg.Action == tea.MouseActionRelease && m.drag != nil:
		m.scene.Push(interact.Event{Kind: interact.DragEnd, Node: m.drag.node, Pointer: m.pointer(msg)})
		m.drag = nil
	}
}

func (m *Model) pointer(msg tea.MouseMsg) interact.Pointer {
	p := interact.Pointer{X: float64(msg.X * cellPixelsX), Y: float64(msg.Y * cellPixelsY)}
	if m.drag != nil {
		p.DX = float64((msg.X - m.drag.x) * cellPixelsX)
		p.DY = float64((msg.Y - m.drag.y) * cellPixelsY)
	}
	return p
}

func (m Model) View() string {
	st := Themes[m.theme].styles()
	m.canvas.Clear()
	Draw(m.canvas, m.scene.Render, m.camera)
	canvas := st.canvas.Render(strings.TrimSuffix(m.canvas.String(), "\n"))

	var b strings.Builder
	b.WriteString(st.title.Render(strings.ToUpper(m.scene.Config.Scene)) + "\n")
	switch {
	case m.err != nil:
		b.WriteString(st.warn.Render("ERROR") + " " + st.muted.Render(m.err.Error()) + "\n\n")
	case m.running:
		b.WriteString(st.good.Render("RUNNING") + "\n\n")
	default:
		b.WriteString(st.warn.Render("PAUSED") + "\n\n")
	}

	row := func(label, value string) {
		b.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Frame", fmt.Sprintf("%d", m.scene.Stepper.Frame()))
	row("Sim time", fmt.Sprintf("%.2fs", m.scene.World.Elapsed()))
	row("FPS", fmt.Sprintf("%.0f", m.rate))
	row("Bindings", fmt.Sprintf("%d", m.scene.Table.Len()))
	if a := m.scene.Metric("awake"); a != nil {
		row("Awake", fmt.Sprintf("%.0f", a.Value()))
	}
	if c := m.scene.Metric("clamped"); c != nil {
		row("Clamped", fmt.Sprintf("%.0f%%", 100*c.Value()))
	}

	b.WriteString("\n" + st.muted.Render("DRAGGING") + "\n")
	sessions := m.scene.Machine.Sessions()
	if len(sessions) == 0 {
		b.WriteString(st.muted.Render("  (none)") + "\n")
	}
	for _, s := range sessions {
		role := "?"
		if bd, err := m.scene.Table.Get(s.Binding); err == nil {
			role = bd.Role.String()
		}
		b.WriteString(fmt.Sprintf("  %s %s\n", st.key.Render(role), st.value.Render(s.Gesture.String())))
	}

	name := charts[m.chart]
	if h := m.history[name]; len(h) > 1 {
		plot := asciigraph.Plot(h, asciigraph.Height(5), asciigraph.Width(32), asciigraph.Caption(name))
		b.WriteString("\n" + plot + "\n")
	}

	b.WriteString("\n" + m.hints(st))
	view := lipgloss.JoinHorizontal(lipgloss.Top, canvas, st.panel.Render(b.String()))
	if m.showHelp {
		return helpText + "\n" + view
	}
	return view
}

func (m Model) hints(st styles) string {
	pairs := [][2]string{{"spc", "pause"}, {"r", "reset"}, {"w", "wake"}, {"tab", "chart"}, {"t", "theme"}, {"?", "help"}, {"q", "quit"}}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, st.key.Render(p[0])+" "+st.muted.Render(p[1]))
	}
	return strings.Join(parts[:4], "  ") + "\n" + strings.Join(parts[4:], "  ")
}

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD AND MOUSE          ║
╠══════════════════════════════════════╣
║  Drag     - Grab the lever or coin   ║
║  Space    - Pause/Resume             ║
║  R        - Rebuild the scene        ║
║  W        - Wake the ball shell      ║
║  Arrows   - Orbit the camera         ║
║  +/-      - Zoom                     ║
║  Tab      - Cycle charted metric     ║
║  T        - Cycle themes             ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝`

// Run starts the live view on the terminal and blocks until it quits.
func Run(opts Options) error {
	m, err := NewModel(opts)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}
