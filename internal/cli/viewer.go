package cli

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/treetop/pkg/graph"
	"github.com/matzehuels/treetop/pkg/jsondoc"
	"github.com/matzehuels/treetop/pkg/layout"
	"github.com/matzehuels/treetop/pkg/motion"
	"github.com/matzehuels/treetop/pkg/normalize"
	"github.com/matzehuels/treetop/pkg/pipeline"
	"github.com/matzehuels/treetop/pkg/session"
)

// =============================================================================
// Viewer Model
// =============================================================================

const (
	// viewerFrameInterval is the animation frame period (~30 fps).
	viewerFrameInterval = time.Second / 30

	// viewerTransition is the collapse/expand animation length.
	viewerTransition = 250 * time.Millisecond

	minNodeWidth = 12
	maxNodeWidth = 42
)

// frameTickMsg drives transition animation frames.
type frameTickMsg time.Time

// viewerModel is the bubbletea model for the interactive viewer. It is
// the single orchestrator of the pipeline: every structural change
// (collapse toggle, setting change) recomputes a settled target layout
// and animates the display toward it, superseding any transition still
// in flight.
type viewerModel struct {
	ctx    context.Context
	runner *pipeline.Runner
	logger *log.Logger

	doc     *jsondoc.Value
	docHash string
	ref     string

	full     *graph.Graph
	normOpts normalize.Options
	settings layout.Settings

	collapsed       map[string]bool
	collapseEnabled bool

	target     *graph.Graph // settled layout the display converges to
	current    *graph.Graph // frame on screen
	transition *motion.Transition
	lastTick   time.Time

	selected string
	width    int
	height   int
	status   string
}

// newViewerModel normalizes the document and computes the initial layout.
func newViewerModel(ctx context.Context, runner *pipeline.Runner, doc *jsondoc.Value, docHash, ref string, opts pipeline.Options, logger *log.Logger) (*viewerModel, error) {
	m := &viewerModel{
		ctx:             ctx,
		runner:          runner,
		logger:          logger,
		doc:             doc,
		docHash:         docHash,
		ref:             ref,
		normOpts:        opts.Normalize,
		settings:        viewerSettings(opts.Layout),
		collapsed:       make(map[string]bool),
		collapseEnabled: opts.CollapseEnabled,
	}
	for _, id := range opts.Collapsed {
		m.collapsed[id] = true
	}

	full, err := runner.Normalize(ctx, doc, opts)
	if err != nil {
		return nil, err
	}
	m.full = full

	target, err := m.settle()
	if err != nil {
		return nil, err
	}
	m.target = target
	m.current = target
	if len(target.Nodes) > 0 {
		m.selected = target.Nodes[0].ID
	}
	return m, nil
}

// viewerSettings rescales layout gaps from pixel space to terminal
// cells. Values the user tuned away from the package defaults are kept.
func viewerSettings(s layout.Settings) layout.Settings {
	if s.LevelGap == 0 || s.LevelGap == layout.DefaultLevelGap {
		s.LevelGap = 6
	}
	if s.SiblingGap == 0 || s.SiblingGap == layout.DefaultSiblingGap {
		s.SiblingGap = 1
	}
	if s.RootGap == 0 || s.RootGap == layout.DefaultRootGap {
		s.RootGap = 2
	}
	s.DefaultNodeWidth = 20
	s.DefaultNodeHeight = 3
	s.SetDefaults()
	return s
}

// pipelineOptions builds the options for the current viewer state.
func (m *viewerModel) pipelineOptions() pipeline.Options {
	collapsed := make([]string, 0, len(m.collapsed))
	for id := range m.collapsed {
		collapsed = append(collapsed, id)
	}
	slices.Sort(collapsed)
	return pipeline.Options{
		Normalize:       m.normOpts,
		Layout:          m.settings,
		Collapsed:       collapsed,
		CollapseEnabled: m.collapseEnabled,
	}
}

// sessionState captures the viewer state for persistence.
func (m *viewerModel) sessionState() *session.Session {
	s := session.New(m.docHash)
	s.CollapseEnabled = m.collapseEnabled
	s.Settings = m.settings
	for id := range m.collapsed {
		s.Collapsed = append(s.Collapsed, id)
	}
	slices.Sort(s.Collapsed)
	return s
}

// =============================================================================
// Settle Loop
// =============================================================================

// settle runs the measure→relayout loop against terminal cell sizes.
// Measurement is deterministic (it depends only on node content), so the
// loop converges on the second pass.
func (m *viewerModel) settle() (*graph.Graph, error) {
	apply := func(sizes map[string]graph.Size) (*graph.Graph, error) {
		opts := m.pipelineOptions()
		opts.Sizes = sizes
		return m.runner.ComputeLayout(m.ctx, m.full, opts)
	}
	measure := func(_ context.Context, g *graph.Graph) (map[string]graph.Size, error) {
		sizes := make(map[string]graph.Size, g.NodeCount())
		for _, n := range g.Nodes {
			sizes[n.ID] = measureNode(n)
		}
		return sizes, nil
	}
	g, _, err := motion.Settle(m.ctx, apply, measure, motion.SettleOptions{Logger: m.logger})
	if err != nil {
		return nil, err
	}
	// Carry the pin map back onto the full graph so the next relayout
	// keeps anchor coordinates for nodes this layout collapsed away.
	m.full.Meta.PinX = g.Meta.PinX
	m.full.Meta.PinY = g.Meta.PinY
	return g, nil
}

// measureNode computes a node's box size in terminal cells.
func measureNode(n *graph.Node) graph.Size {
	w := 0
	lines := nodeLines(n)
	for _, line := range lines {
		w = max(w, lipgloss.Width(line))
	}
	w = min(max(w+4, minNodeWidth), maxNodeWidth)
	return graph.Size{Width: float64(w), Height: float64(len(lines) + 2)}
}

// nodeLines renders a node's content rows: title, preview attributes,
// then array counts.
func nodeLines(n *graph.Node) []string {
	lines := []string{n.Meta.Title}
	for _, a := range n.Meta.Attrs {
		lines = append(lines, a.Key+": "+a.Value)
	}
	counts := make([]string, 0, len(n.Meta.ArrayCounts))
	for key := range n.Meta.ArrayCounts {
		counts = append(counts, key)
	}
	slices.Sort(counts)
	for _, key := range counts {
		lines = append(lines, fmt.Sprintf("%s (%d)", key, n.Meta.ArrayCounts[key]))
	}
	return lines
}

// =============================================================================
// Bubbletea Plumbing
// =============================================================================

func (m *viewerModel) Init() tea.Cmd { return nil }

func frameTick() tea.Cmd {
	return tea.Tick(viewerFrameInterval, func(t time.Time) tea.Msg {
		return frameTickMsg(t)
	})
}

func (m *viewerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case frameTickMsg:
		return m, m.advance(time.Time(msg))

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

// advance moves the active transition forward by the elapsed wall time.
func (m *viewerModel) advance(now time.Time) tea.Cmd {
	if m.transition == nil {
		return nil
	}
	dt := viewerFrameInterval
	if !m.lastTick.IsZero() {
		dt = now.Sub(m.lastTick)
	}
	m.lastTick = now

	m.current = m.transition.Advance(dt)
	if m.transition.Done() {
		m.current = m.target
		m.transition = nil
		return nil
	}
	return frameTick()
}

func (m *viewerModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	switch msg.String() {
	case "ctrl+c", "q", "esc":
		return m, tea.Quit
	case "tab", "j", "down":
		m.moveSelection(1)
	case "shift+tab", "k", "up":
		m.moveSelection(-1)
	case "enter", " ":
		return m, m.toggleCollapse()
	case "c":
		m.collapseEnabled = !m.collapseEnabled
		return m, m.retarget()
	case "d":
		if m.settings.Direction == layout.DirectionForward {
			m.settings.Direction = layout.DirectionDownward
		} else {
			m.settings.Direction = layout.DirectionForward
		}
		return m, m.retarget()
	case "s":
		m.settings.LinkStyle = nextLinkStyle(m.settings.LinkStyle)
		return m, m.retarget()
	case "y":
		m.yank(m.selected, "yanked node path")
	case "Y":
		m.yankSubdocument()
	}
	return m, nil
}

func nextLinkStyle(s layout.LinkStyle) layout.LinkStyle {
	switch s {
	case layout.LinkOrthogonal:
		return layout.LinkCurve
	case layout.LinkCurve:
		return layout.LinkLine
	default:
		return layout.LinkOrthogonal
	}
}

// moveSelection cycles the selection through the target graph's nodes in
// traversal order.
func (m *viewerModel) moveSelection(delta int) {
	n := len(m.target.Nodes)
	if n == 0 {
		return
	}
	idx := 0
	for i, node := range m.target.Nodes {
		if node.ID == m.selected {
			idx = i
			break
		}
	}
	m.selected = m.target.Nodes[(idx+delta+n)%n].ID
}

// toggleCollapse flips the collapsed state of the selected node. The
// first collapse also enables the visibility filter.
func (m *viewerModel) toggleCollapse() tea.Cmd {
	if m.selected == "" {
		return nil
	}
	if m.collapsed[m.selected] {
		delete(m.collapsed, m.selected)
	} else {
		m.collapsed[m.selected] = true
		m.collapseEnabled = true
	}
	return m.retarget()
}

// retarget computes a new settled layout and animates toward it. An
// in-flight transition is superseded from its latest frame so repeated
// toggles never jump.
func (m *viewerModel) retarget() tea.Cmd {
	target, err := m.settle()
	if err != nil {
		m.status = fmt.Sprintf("layout failed: %v", err)
		return nil
	}

	anchor := m.anchorForSelected()
	if m.transition != nil {
		m.transition = m.transition.Supersede(target, viewerTransition, anchor)
	} else {
		m.transition = motion.NewTransition(m.current, target, viewerTransition, anchor)
	}
	m.target = target
	m.current = m.transition.Latest()
	m.lastTick = time.Time{}

	// A collapsed-away selection falls back to its nearest visible
	// ancestor (node ids are JSONPaths, so prefix-match works).
	if _, ok := target.Node(m.selected); !ok {
		m.selected = nearestVisible(target, m.selected)
	}
	return frameTick()
}

// anchorForSelected pins the selected node to its current screen
// position for the duration of a transition.
func (m *viewerModel) anchorForSelected() *motion.Anchor {
	n, ok := m.current.Node(m.selected)
	if !ok {
		return nil
	}
	ox, oy := m.viewOffset()
	c := n.Center()
	return &motion.Anchor{
		NodeID: m.selected,
		Screen: graph.Point{X: c.X + float64(ox), Y: c.Y + float64(oy)},
	}
}

// nearestVisible picks the longest-prefix ancestor of id present in g,
// falling back to the first node.
func nearestVisible(g *graph.Graph, id string) string {
	best := ""
	for _, n := range g.Nodes {
		if strings.HasPrefix(id, n.ID) && len(n.ID) > len(best) {
			best = n.ID
		}
	}
	if best == "" && len(g.Nodes) > 0 {
		best = g.Nodes[0].ID
	}
	return best
}

// =============================================================================
// Clipboard
// =============================================================================

func (m *viewerModel) yank(text, okMsg string) {
	if err := clipboard.WriteAll(text); err != nil {
		m.status = fmt.Sprintf("clipboard: %v", err)
		return
	}
	m.status = okMsg
}

// yankSubdocument copies the selected node's subdocument JSON.
func (m *viewerModel) yankSubdocument() {
	if m.selected == "" {
		return
	}
	sub, err := jsondoc.Resolve(m.doc, m.selected)
	if err != nil {
		m.status = fmt.Sprintf("resolve: %v", err)
		return
	}
	data, err := sub.MarshalJSON()
	if err != nil {
		m.status = fmt.Sprintf("serialize: %v", err)
		return
	}
	m.yank(string(data), "yanked subdocument")
}

// =============================================================================
// Rendering
// =============================================================================

// viewOffset maps world coordinates to screen cells. During a transition
// the anchor-preserving pan keeps the selected node fixed; otherwise the
// viewport centers on the selection.
func (m *viewerModel) viewOffset() (int, int) {
	vw, vh := m.width, m.height-2
	if m.transition != nil {
		if p, ok := m.transition.PanOffset(); ok {
			return int(math.Round(p.X)), int(math.Round(p.Y))
		}
	}
	if n, ok := m.current.Node(m.selected); ok {
		c := n.Center()
		return vw/2 - int(math.Round(c.X)), vh/2 - int(math.Round(c.Y))
	}
	return 0, 0
}

func (m *viewerModel) View() string {
	if m.width == 0 || m.height < 4 {
		return "loading..."
	}
	vw, vh := m.width, m.height-2

	cv := newCanvas(vw, vh)
	ox, oy := m.viewOffset()

	for _, e := range m.current.Edges {
		cv.drawEdge(e, ox, oy, m.settings.LinkStyle)
	}
	for _, n := range m.current.Nodes {
		cv.drawNode(n, ox, oy, n.ID == m.selected)
	}

	return cv.String() + "\n" + m.statusLine() + "\n" + hintLine()
}

func (m *viewerModel) statusLine() string {
	parts := []string{
		StyleValue.Render(m.ref),
		StyleDim.Render(fmt.Sprintf("%d/%d nodes", m.target.NodeCount(), m.full.NodeCount())),
		StyleDim.Render(string(m.settings.Direction)),
	}
	if m.collapseEnabled {
		parts = append(parts, styleCached.Render("filter on"))
	} else {
		parts = append(parts, StyleDim.Render("filter off"))
	}
	if m.status != "" {
		parts = append(parts, StyleWarning.Render(m.status))
	}
	return strings.Join(parts, StyleDim.Render(" · "))
}

func hintLine() string {
	return StyleDim.Render("tab/j/k move · enter collapse · c filter · d direction · s links · y/Y yank · q quit")
}

// canvas is a rune grid the diagram is drawn onto.
type canvas struct {
	w, h  int
	cells [][]rune
}

func newCanvas(w, h int) *canvas {
	cells := make([][]rune, h)
	for y := range cells {
		row := make([]rune, w)
		for x := range row {
			row[x] = ' '
		}
		cells[y] = row
	}
	return &canvas{w: w, h: h, cells: cells}
}

func (c *canvas) set(x, y int, r rune) {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return
	}
	c.cells[y][x] = r
}

// setSoft writes only into empty cells, so edges never cut through boxes.
func (c *canvas) setSoft(x, y int, r rune) {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return
	}
	if c.cells[y][x] == ' ' {
		c.cells[y][x] = r
	}
}

func (c *canvas) String() string {
	var b strings.Builder
	for y, row := range c.cells {
		if y > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strings.TrimRight(string(row), " "))
	}
	return b.String()
}

// drawNode draws a node box with its content lines. The selected node
// gets double-line borders.
func (c *canvas) drawNode(n *graph.Node, ox, oy int, selected bool) {
	x := int(math.Round(n.X)) + ox
	y := int(math.Round(n.Y)) + oy
	w := int(math.Round(n.Width))
	h := int(math.Round(n.Height))
	if w < 2 || h < 2 {
		return
	}

	tl, tr, bl, br, hz, vt := '┌', '┐', '└', '┘', '─', '│'
	if selected {
		tl, tr, bl, br, hz, vt = '╔', '╗', '╚', '╝', '═', '║'
	}

	for dx := 1; dx < w-1; dx++ {
		c.set(x+dx, y, hz)
		c.set(x+dx, y+h-1, hz)
	}
	for dy := 1; dy < h-1; dy++ {
		c.set(x, y+dy, vt)
		c.set(x+w-1, y+dy, vt)
	}
	c.set(x, y, tl)
	c.set(x+w-1, y, tr)
	c.set(x, y+h-1, bl)
	c.set(x+w-1, y+h-1, br)

	// Interior: clear, then write content rows.
	for dy := 1; dy < h-1; dy++ {
		for dx := 1; dx < w-1; dx++ {
			c.set(x+dx, y+dy, ' ')
		}
	}
	lines := nodeLines(n)
	for i, line := range lines {
		if i >= h-2 {
			break
		}
		runes := []rune(line)
		if len(runes) > w-4 {
			runes = runes[:max(w-4, 0)]
		}
		for j, r := range runes {
			c.set(x+2+j, y+1+i, r)
		}
	}
}

// drawEdge draws an edge polyline. Curve control points are skipped;
// the terminal approximates every edge with axis-aligned segments.
func (c *canvas) drawEdge(e *graph.Edge, ox, oy int, style layout.LinkStyle) {
	pts := e.Points
	if len(pts) < 2 {
		return
	}
	if style == layout.LinkCurve && len(pts) == 4 {
		pts = []graph.Point{pts[0], pts[3]}
	}
	for i := 0; i < len(pts)-1; i++ {
		x1 := int(math.Round(pts[i].X)) + ox
		y1 := int(math.Round(pts[i].Y)) + oy
		x2 := int(math.Round(pts[i+1].X)) + ox
		y2 := int(math.Round(pts[i+1].Y)) + oy
		c.drawSegment(x1, y1, x2, y2)
	}
}

// drawSegment draws an axis-aligned run; diagonal runs become an L.
func (c *canvas) drawSegment(x1, y1, x2, y2 int) {
	switch {
	case y1 == y2:
		for x := min(x1, x2); x <= max(x1, x2); x++ {
			c.setSoft(x, y1, '─')
		}
	case x1 == x2:
		for y := min(y1, y2); y <= max(y1, y2); y++ {
			c.setSoft(x1, y, '│')
		}
	default:
		for x := min(x1, x2); x <= max(x1, x2); x++ {
			c.setSoft(x, y1, '─')
		}
		for y := min(y1, y2); y <= max(y1, y2); y++ {
			c.setSoft(x2, y, '│')
		}
		c.setSoft(x2, y1, '+')
	}
}
