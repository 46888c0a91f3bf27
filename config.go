package arbor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/lucasb-eyer/go-colorful"
)

// Config holds every tunable of a mind map. Zero values are not meaningful;
// start from DefaultConfig and override.
type Config struct {
	Layout    LayoutSection    `toml:"layout"`
	Animation AnimationSection `toml:"animation"`
	Viewport  ViewportSection  `toml:"viewport"`
	Style     StyleSection     `toml:"style"`
	Export    ExportSection    `toml:"export"`
}

// Margin is the space between the drawing surface edge and the tree.
type Margin struct {
	Top    float64 `toml:"top"`
	Right  float64 `toml:"right"`
	Bottom float64 `toml:"bottom"`
	Left   float64 `toml:"left"`
}

// LayoutSection sizes the drawing surface and the tree inside it.
type LayoutSection struct {
	Width        float64 `toml:"width"`  // full surface width, margins included
	Height       float64 `toml:"height"` // full surface height, margins included
	DepthSpacing float64 `toml:"depth_spacing"`
	Margin       Margin  `toml:"margin"`
	RootExpanded bool    `toml:"root_expanded"` // keep the root's children visible on collapse
}

// InnerWidth returns the surface width minus horizontal margins.
func (l LayoutSection) InnerWidth() float64 {
	return l.Width - l.Margin.Left - l.Margin.Right
}

// InnerHeight returns the surface height minus vertical margins. It is the
// breadth extent of the layout.
func (l LayoutSection) InnerHeight() float64 {
	return l.Height - l.Margin.Top - l.Margin.Bottom
}

// AnimationSection controls reconciliation transitions.
type AnimationSection struct {
	Duration float64 `toml:"duration"` // seconds
	Easing   string  `toml:"easing"`
}

// ViewportSection controls pan and zoom.
type ViewportSection struct {
	MinZoom      float64 `toml:"min_zoom"`
	MaxZoom      float64 `toml:"max_zoom"`
	ZoomStep     float64 `toml:"zoom_step"`     // factor applied by ZoomIn / ZoomOut
	WheelStep    float64 `toml:"wheel_step"`    // factor per wheel notch
	ZoomDuration float64 `toml:"zoom_duration"` // seconds
	DragDeadZone float64 `toml:"drag_dead_zone"`
}

// StyleSection holds the visual encoding. Colors are hex strings.
type StyleSection struct {
	Background  string   `toml:"background"`
	NodeRadius  float64  `toml:"node_radius"`
	StrokeWidth float64  `toml:"stroke_width"`
	LabelOffset float64  `toml:"label_offset"`
	FontSize    float64  `toml:"font_size"`
	LabelColor  string   `toml:"label_color"`
	EdgeColor   string   `toml:"edge_color"`
	EdgeWidth   float64  `toml:"edge_width"`
	Palette     []string `toml:"palette"`
}

// ExportSection controls PDF export.
type ExportSection struct {
	Title    string  `toml:"title"`
	Dir      string  `toml:"dir"`
	Page     string  `toml:"page"` // fpdf page size name, e.g. "A4", "Letter"
	MarginMM float64 `toml:"margin_mm"`
	Scale    float64 `toml:"scale"` // raster pixels per layout unit
}

// category10 is the ten-color categorical palette used per depth.
var category10 = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Layout: LayoutSection{
			Width:        1160,
			Height:       660,
			DepthSpacing: 180,
			Margin:       Margin{Top: 20, Right: 120, Bottom: 20, Left: 120},
		},
		Animation: AnimationSection{Duration: 0.75, Easing: "in-out-cubic"},
		Viewport: ViewportSection{
			MinZoom:      0.1,
			MaxZoom:      4,
			ZoomStep:     1.3,
			WheelStep:    1.1,
			ZoomDuration: 0.3,
			DragDeadZone: defaultDragDeadZone,
		},
		Style: StyleSection{
			Background:  "#ffffff",
			NodeRadius:  8,
			StrokeWidth: 3,
			LabelOffset: 13,
			FontSize:    12,
			LabelColor:  "#000000",
			EdgeColor:   "#cccccc",
			EdgeWidth:   2,
			Palette:     append([]string(nil), category10...),
		},
		Export: ExportSection{
			Title:    "Mind Map",
			Dir:      ".",
			Page:     "A4",
			MarginMM: 10,
			Scale:    2,
		},
	}
}

// LoadConfig reads a TOML file over the defaults. Keys the file sets that no
// field matches are reported as an error rather than silently ignored.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("arbor: load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("arbor: load config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("arbor: load config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports configuration values no component can work with.
// A zero-width surface is accepted here; export reports it when used.
func (c *Config) Validate() error {
	var errs []error
	if c.Layout.DepthSpacing <= 0 {
		errs = append(errs, errors.New("layout.depth_spacing must be positive"))
	}
	if h := c.Layout.InnerHeight(); h <= 0 {
		errs = append(errs, fmt.Errorf("layout.height %g leaves no room inside the vertical margins", c.Layout.Height))
	}
	if c.Animation.Duration < 0 {
		errs = append(errs, errors.New("animation.duration must not be negative"))
	}
	if c.Viewport.MinZoom <= 0 || c.Viewport.MaxZoom < c.Viewport.MinZoom {
		errs = append(errs, fmt.Errorf("viewport zoom range [%g, %g] is invalid",
			c.Viewport.MinZoom, c.Viewport.MaxZoom))
	}
	if c.Viewport.ZoomStep <= 1 {
		errs = append(errs, errors.New("viewport.zoom_step must be greater than 1"))
	}
	if c.Style.NodeRadius <= 0 {
		errs = append(errs, errors.New("style.node_radius must be positive"))
	}
	if c.Style.FontSize <= 0 {
		errs = append(errs, errors.New("style.font_size must be positive"))
	}
	if c.Export.Scale <= 0 {
		errs = append(errs, errors.New("export.scale must be positive"))
	}
	if _, err := c.Style.resolve(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Style is the resolved visual encoding used when emitting draw commands.
type Style struct {
	Background  Color
	NodeRadius  float64
	StrokeWidth float64
	LabelOffset float64
	FontSize    float64
	LabelColor  Color
	EdgeColor   Color
	EdgeWidth   float64
	Palette     []Color
}

// DepthColor returns the palette color for a depth.
func (s *Style) DepthColor(depth int) Color {
	if len(s.Palette) == 0 {
		return Color{0, 0, 0, 1}
	}
	return s.Palette[depth%len(s.Palette)]
}

func (s StyleSection) resolve() (Style, error) {
	st := Style{
		NodeRadius:  s.NodeRadius,
		StrokeWidth: s.StrokeWidth,
		LabelOffset: s.LabelOffset,
		FontSize:    s.FontSize,
		EdgeWidth:   s.EdgeWidth,
	}
	var err error
	if st.Background, err = ParseHexColor(s.Background); err != nil {
		return Style{}, fmt.Errorf("style.background: %w", err)
	}
	if st.LabelColor, err = ParseHexColor(s.LabelColor); err != nil {
		return Style{}, fmt.Errorf("style.label_color: %w", err)
	}
	if st.EdgeColor, err = ParseHexColor(s.EdgeColor); err != nil {
		return Style{}, fmt.Errorf("style.edge_color: %w", err)
	}
	if len(s.Palette) == 0 {
		return Style{}, errors.New("style.palette must not be empty")
	}
	st.Palette = make([]Color, len(s.Palette))
	for i, hex := range s.Palette {
		if st.Palette[i], err = ParseHexColor(hex); err != nil {
			return Style{}, fmt.Errorf("style.palette[%d]: %w", i, err)
		}
	}
	return st, nil
}

// ParseHexColor parses "#rrggbb" or "#rgb" into an opaque Color.
func ParseHexColor(hex string) (Color, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	return Color{R: c.R, G: c.G, B: c.B, A: 1}, nil
}
