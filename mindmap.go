package arbor

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Option configures a MindMap.
type Option func(*MindMap)

// WithConfig replaces the default configuration.
func WithConfig(cfg *Config) Option {
	return func(m *MindMap) {
		m.cfg = cfg
	}
}

// WithLogger sets a custom structured logger. The default discards.
func WithLogger(logger *slog.Logger) Option {
	return func(m *MindMap) {
		m.log = logger
	}
}

// WithMetrics reports reconciliations, exports and reloads to m.
func WithMetrics(metrics *Metrics) Option {
	return func(m *MindMap) {
		m.metrics = metrics
	}
}

// WithRasterizer replaces the software rasterizer used for export.
func WithRasterizer(r Rasterizer) Option {
	return func(m *MindMap) {
		m.raster = r
	}
}

// WithFonts sets the label typefaces. The default is the Go font family.
func WithFonts(f *Fonts) Option {
	return func(m *MindMap) {
		m.fonts = f
	}
}

// WithClock sets the time source used for export timestamps and file names.
func WithClock(now func() time.Time) Option {
	return func(m *MindMap) {
		m.now = now
	}
}

// MindMap is the interactive tree: it owns the hierarchy, the reconciler
// that keeps rendered elements in step with it, the viewport and the input
// pipeline. All methods must be called from the game loop goroutine except
// QueueData.
type MindMap struct {
	// ScreenshotDir is the directory Screenshot writes to.
	ScreenshotDir string

	cfg     *Config
	style   Style
	log     *slog.Logger
	metrics *Metrics
	now     func() time.Time

	tree     *Tree
	layout   *Layout
	rec      *Reconciler
	view     *Viewport
	fonts    *Fonts
	raster   Rasterizer
	exporter *Exporter
	cmds     []DrawCommand

	pointers     [maxPointers]pointerState
	touchMap     [maxPointers]ebiten.TouchID
	touchUsed    [maxPointers]bool
	prevTouchIDs []ebiten.TouchID
	pinch        pinchState
	handlers     handlerRegistry
	dragDeadZone float64
	injectQueue  []syntheticPointerEvent

	testRunner      *TestRunner
	screenshotQueue []string
	exports         []exportRequest

	pendingMu   sync.Mutex
	pendingData *Data

	debug bool
	last  Result
}

// New builds a mind map for data. The tree starts collapsed and the first
// reconciliation has already run, so the root is entering from the middle
// of the left edge.
func New(data *Data, opts ...Option) (*MindMap, error) {
	m := &MindMap{
		ScreenshotDir: "screenshots",
		cfg:           DefaultConfig(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.log == nil {
		m.log = discardLogger()
	}
	if err := m.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("arbor: config: %w", err)
	}
	style, err := m.cfg.Style.resolve()
	if err != nil {
		return nil, fmt.Errorf("arbor: config: %w", err)
	}
	m.style = style
	if m.fonts == nil {
		if m.fonts, err = LoadFonts(); err != nil {
			return nil, err
		}
	}
	if m.raster == nil {
		m.raster = NewImageRasterizer(m.fonts)
	}

	lc := m.cfg.Layout
	m.dragDeadZone = m.cfg.Viewport.DragDeadZone
	m.layout = NewLayout(LayoutConfig{DepthSpacing: lc.DepthSpacing, Breadth: lc.InnerHeight()})
	m.view = NewViewport(ViewportConfig{
		Width:         lc.Width,
		Height:        lc.Height,
		MinZoom:       m.cfg.Viewport.MinZoom,
		MaxZoom:       m.cfg.Viewport.MaxZoom,
		ZoomDuration:  float32(m.cfg.Viewport.ZoomDuration),
		ResetDuration: float32(m.cfg.Animation.Duration),
		Easing:        easeByName(m.cfg.Animation.Easing),
		Home:          Transform{X: lc.Margin.Left, Y: lc.Margin.Top, K: 1},
	})
	m.exporter = NewExporter(m.cfg.Export, lc, style.Background, m.raster)
	m.exporter.now = m.now

	if err := m.setData(data); err != nil {
		return nil, err
	}
	return m, nil
}

// setData replaces the tree. Rendered elements of a previous tree are
// dropped without animation; the new root enters from its anchor.
func (m *MindMap) setData(data *Data) error {
	opts := []BuildOption{withRootAnchor(m.cfg.Layout.InnerHeight() / 2)}
	if m.cfg.Layout.RootExpanded {
		opts = append(opts, WithRootExpanded())
	}
	tree, err := Build(data, opts...)
	if err != nil {
		return err
	}
	if m.rec != nil {
		m.rec.Clear()
	}
	m.tree = tree
	m.rec = NewReconciler(tree, m.layout, ReconcileConfig{
		Duration:   float32(m.cfg.Animation.Duration),
		Easing:     easeByName(m.cfg.Animation.Easing),
		NodeRadius: m.style.NodeRadius,
	})
	for i := range m.pointers {
		m.pointers[i].hitID = 0
	}
	if m.debug {
		debugCheckTree(m.log, tree)
	}
	m.log.Info("tree loaded", "root", tree.Root().Name, "nodes", tree.Len())
	return m.reconcile(tree.Root())
}

// reconcile runs one reconciliation anchored at trigger.
func (m *MindMap) reconcile(trigger *TreeNode) error {
	res, err := m.rec.Reconcile(trigger)
	if err != nil {
		return err
	}
	m.last = res
	visible := len(m.rec.visible)
	m.metrics.observeReconcile(res, visible)
	m.debugLog(debugStats{
		trigger:  trigger.Name,
		elapsed:  res.Elapsed,
		visible:  visible,
		rendered: len(m.rec.nodes),
		nodes:    res.Nodes,
		edges:    res.Edges,
	})
	return nil
}

// --- Accessors ---

// Tree returns the hierarchy being shown.
func (m *MindMap) Tree() *Tree { return m.tree }

// Reconciler returns the element reconciler.
func (m *MindMap) Reconciler() *Reconciler { return m.rec }

// Viewport returns the pan/zoom controller.
func (m *MindMap) Viewport() *Viewport { return m.view }

// Config returns the configuration in use. It must not be modified.
func (m *MindMap) Config() *Config { return m.cfg }

// Style returns the resolved visual encoding.
func (m *MindMap) Style() Style { return m.style }

// LastResult returns what the most recent reconciliation did.
func (m *MindMap) LastResult() Result { return m.last }

// DrawCommands returns the draw commands for the current animated state in
// layout coordinates. The slice is reused by the next call.
func (m *MindMap) DrawCommands() []DrawCommand {
	m.cmds = m.rec.AppendCommands(m.cmds[:0], &m.style)
	return m.cmds
}

// --- Control surface ---

// Activate toggles one level of n and reconciles with n as the anchor:
// appearing descendants grow out of n's previous position and disappearing
// ones shrink into its new one. Activating a leaf changes nothing
// structurally.
func (m *MindMap) Activate(n *TreeNode) error {
	if !m.tree.Contains(n) {
		return fmt.Errorf("arbor: activate: %w", ErrUnknownNode)
	}
	if err := m.tree.Toggle(n); err != nil {
		return err
	}
	return m.reconcile(n)
}

// ActivateByName activates the first node in pre-order with the given name.
func (m *MindMap) ActivateByName(name string) error {
	n := m.tree.Find(name)
	if n == nil {
		return fmt.Errorf("arbor: activate %q: %w", name, ErrUnknownNode)
	}
	return m.Activate(n)
}

// ResetView collapses the tree to its initial state and animates the view
// back home.
func (m *MindMap) ResetView() {
	m.tree.Reset()
	m.view.ResetTransform()
	m.mustReconcileRoot()
}

// ExpandAll expands every node.
func (m *MindMap) ExpandAll() {
	m.tree.ExpandAll()
	m.mustReconcileRoot()
}

// CollapseAll collapses every node. Unlike ResetView it leaves the view
// where it is.
func (m *MindMap) CollapseAll() {
	m.tree.CollapseAll()
	m.mustReconcileRoot()
}

// ZoomIn animates a zoom in by the configured step about the view center.
func (m *MindMap) ZoomIn() {
	m.view.ZoomBy(m.cfg.Viewport.ZoomStep)
}

// ZoomOut animates a zoom out by the configured step about the view center.
func (m *MindMap) ZoomOut() {
	m.view.ZoomBy(1 / m.cfg.Viewport.ZoomStep)
}

func (m *MindMap) mustReconcileRoot() {
	// The root always belongs to the tree.
	if err := m.reconcile(m.tree.Root()); err != nil {
		panic(err)
	}
}

// QueueData hands new tree data to the game loop; it is applied at the next
// Step. Safe to call from any goroutine. Only the latest queued data is
// kept.
func (m *MindMap) QueueData(d *Data) {
	m.pendingMu.Lock()
	m.pendingData = d
	m.pendingMu.Unlock()
}

func (m *MindMap) applyPendingData() {
	m.pendingMu.Lock()
	d := m.pendingData
	m.pendingData = nil
	m.pendingMu.Unlock()
	if d == nil {
		return
	}
	err := m.setData(d)
	m.metrics.observeReload(err)
	if err != nil {
		m.log.Warn("queued data rejected, keeping previous tree", "error", err)
	}
}

// --- Game loop ---

// Step advances the mind map by dt seconds without reading live input:
// the test runner and injected events run, queued data is applied,
// transitions advance and queued exports complete.
func (m *MindMap) Step(dt float32) {
	m.step(dt, false)
}

func (m *MindMap) step(dt float32, live bool) {
	if m.testRunner != nil {
		m.testRunner.step(m)
	}
	if !m.processInjectedInput() && live {
		m.processInput()
		m.processKeys()
	}
	m.applyPendingData()
	m.rec.Update(dt)
	m.view.Update(dt)
	m.flushExports()
}

// processKeys maps keyboard shortcuts onto the control surface.
func (m *MindMap) processKeys() {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyEqual), inpututil.IsKeyJustPressed(ebiten.KeyNumpadAdd):
		m.ZoomIn()
	case inpututil.IsKeyJustPressed(ebiten.KeyMinus), inpututil.IsKeyJustPressed(ebiten.KeyNumpadSubtract):
		m.ZoomOut()
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		m.ResetView()
	case inpututil.IsKeyJustPressed(ebiten.KeyE):
		m.ExpandAll()
	case inpututil.IsKeyJustPressed(ebiten.KeyC):
		m.CollapseAll()
	case inpututil.IsKeyJustPressed(ebiten.KeyP):
		m.DownloadAsPDF(func(path string, err error) {
			if err == nil {
				m.log.Info("pdf saved", "path", path)
			}
		})
	}
}

// Update implements ebiten.Game. It reads live input and advances by one
// tick.
func (m *MindMap) Update() error {
	m.step(float32(1.0/float64(ebiten.TPS())), true)
	return nil
}

// Draw implements ebiten.Game.
func (m *MindMap) Draw(screen *ebiten.Image) {
	screen.Fill(m.style.Background.toRGBA())
	submitCommands(screen, m.DrawCommands(), m.view.Matrix(), m.fonts, true)
	m.flushScreenshots(screen)
}

// Layout implements ebiten.Game. The logical surface has the configured
// size regardless of the window.
func (m *MindMap) Layout(_, _ int) (int, int) {
	return int(m.cfg.Layout.Width), int(m.cfg.Layout.Height)
}
