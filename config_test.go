package arbor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if got := cfg.Layout.InnerWidth(); got != 920 {
		t.Errorf("InnerWidth = %v, want 920", got)
	}
	if got := cfg.Layout.InnerHeight(); got != 620 {
		t.Errorf("InnerHeight = %v, want 620", got)
	}
	if len(cfg.Style.Palette) != 10 {
		t.Errorf("palette size = %d, want 10", len(cfg.Style.Palette))
	}
	// Each call returns an independent palette.
	cfg.Style.Palette[0] = "#000000"
	if DefaultConfig().Style.Palette[0] != "#1f77b4" {
		t.Error("DefaultConfig shares its palette slice")
	}
}

func TestLoadConfig(t *testing.T) {
	path := writeFile(t, "arbor.toml", `
[layout]
depth_spacing = 240
root_expanded = true

[animation]
duration = 0.5
easing = "linear"

[style]
palette = ["#ff0000", "#00ff00"]

[export]
title = "Plan"
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Layout.DepthSpacing != 240 || !cfg.Layout.RootExpanded {
		t.Errorf("layout = %+v", cfg.Layout)
	}
	if cfg.Animation.Duration != 0.5 || cfg.Animation.Easing != "linear" {
		t.Errorf("animation = %+v", cfg.Animation)
	}
	if cfg.Export.Title != "Plan" || cfg.Export.Page != "A4" {
		t.Errorf("export = %+v", cfg.Export)
	}
	if cfg.Layout.Width != 1160 {
		t.Errorf("unset key lost its default: width = %v", cfg.Layout.Width)
	}
	style, err := cfg.Style.resolve()
	if err != nil {
		t.Fatal(err)
	}
	if style.DepthColor(3) != (Color{0, 1, 0, 1}) {
		t.Errorf("DepthColor(3) = %+v, want palette wrap to green", style.DepthColor(3))
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"syntax", "[layout\n", "load config"},
		{"unknown key", "[layout]\nwidht = 3\n", "unknown keys: layout.widht"},
		{"bad spacing", "[layout]\ndepth_spacing = 0\n", "depth_spacing"},
		{"bad zoom", "[viewport]\nmin_zoom = 5\n", "zoom range"},
		{"bad step", "[viewport]\nzoom_step = 1\n", "zoom_step"},
		{"bad color", "[style]\nedge_color = \"nope\"\n", "style.edge_color"},
		{"empty palette", "[style]\npalette = []\n", "palette must not be empty"},
		{"height inside margins", "[layout]\nheight = 40\n", "layout.height"},
		{"zero radius", "[style]\nnode_radius = 0\n", "style.node_radius"},
		{"negative font size", "[style]\nfont_size = -2\n", "style.font_size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeFile(t, "arbor.toml", tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Layout.DepthSpacing = -1
	cfg.Export.Scale = 0
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"depth_spacing", "export.scale"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("err = %v, missing %q", err, want)
		}
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in      string
		want    Color
		wantErr bool
	}{
		{"#ffffff", ColorWhite, false},
		{"#000000", Color{0, 0, 0, 1}, false},
		{"#fff", ColorWhite, false},
		{"ffffff", Color{}, true},
		{"#gggggg", Color{}, true},
	}
	for _, tt := range tests {
		got, err := ParseHexColor(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseHexColor(%q) err = %v", tt.in, err)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseHexColor(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}
