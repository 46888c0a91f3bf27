package arbor

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func fixedClock() time.Time {
	return time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
}

// stubRasterizer records its inputs and returns a small solid image.
type stubRasterizer struct {
	view          [6]float64
	width, height int
	calls         int
	img           image.Image
	err           error
}

func (s *stubRasterizer) Rasterize(cmds []DrawCommand, width, height int, view [6]float64, background Color) (image.Image, error) {
	s.calls++
	s.view, s.width, s.height = view, width, height
	if s.err != nil {
		return nil, s.err
	}
	if s.img != nil {
		return s.img, nil
	}
	img := image.NewRGBA(image.Rect(0, 0, 8, 5))
	img.Set(1, 1, color.RGBA{255, 0, 0, 255})
	return img, nil
}

func TestExportPDF(t *testing.T) {
	m := newTestMindMap(t, WithClock(fixedClock))
	id := uuid.MustParse("6f1c2d3e-4a5b-4c6d-8e7f-901234567890")
	m.exporter.newID = func() uuid.UUID { return id }

	var buf bytes.Buffer
	info, err := m.ExportPDF(&buf)
	if err != nil {
		t.Fatalf("ExportPDF: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "%PDF-") {
		t.Errorf("output does not start with a PDF header: %q", out[:min(len(out), 16)])
	}
	if !strings.Contains(out, "/Count 1") {
		t.Error("document should have exactly one page")
	}
	if !strings.Contains(out, "mind-map "+id.String()) {
		t.Error("document id missing from keywords")
	}
	if info.ID != id || !info.Generated.Equal(fixedClock()) {
		t.Errorf("info = %+v", info)
	}
	if info.Bytes != buf.Len() {
		t.Errorf("info.Bytes = %d, wrote %d", info.Bytes, buf.Len())
	}
	if info.Pixels != image.Pt(2320, 1320) {
		t.Errorf("pixels = %v, want 2320x1320 at scale 2", info.Pixels)
	}
}

func TestExportUsesHomeView(t *testing.T) {
	stub := &stubRasterizer{}
	m := newTestMindMap(t, WithRasterizer(stub))
	m.Viewport().Pan(300, -50)
	m.Viewport().ZoomAt(3, 10, 10)

	if _, err := m.ExportPDF(io.Discard); err != nil {
		t.Fatal(err)
	}
	assertMatrix(t, "view", stub.view, [6]float64{2, 0, 0, 2, 240, 40})
	if stub.width != 2320 || stub.height != 1320 {
		t.Errorf("raster size = %dx%d", stub.width, stub.height)
	}
}

func TestExportFailuresWriteNothing(t *testing.T) {
	tests := []struct {
		name  string
		setup func(m *MindMap)
		want  string
	}{
		{
			name: "rasterizer error",
			setup: func(m *MindMap) {
				m.exporter.Rasterizer = &stubRasterizer{err: errors.New("no gpu")}
			},
			want: "rasterize: no gpu",
		},
		{
			name: "undecodable image",
			setup: func(m *MindMap) {
				m.exporter.encode = func(w io.Writer, _ image.Image) error {
					_, err := w.Write([]byte("definitely not a png"))
					return err
				}
			},
			want: "decode image",
		},
		{
			name: "encoder error",
			setup: func(m *MindMap) {
				m.exporter.encode = func(io.Writer, image.Image) error { return errors.New("full disk") }
			},
			want: "encode image: full disk",
		},
		{
			name: "unknown page size",
			setup: func(m *MindMap) {
				m.exporter.Section.Page = "Napkin"
			},
			want: "page",
		},
		{
			name: "margins too wide",
			setup: func(m *MindMap) {
				m.exporter.Section.MarginMM = 200
			},
			want: "leaves no room",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMindMap(t, WithRasterizer(&stubRasterizer{}))
			tt.setup(m)
			var buf bytes.Buffer
			_, err := m.ExportPDF(&buf)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %q", err, tt.want)
			}
			if buf.Len() != 0 {
				t.Errorf("wrote %d bytes on failure", buf.Len())
			}
		})
	}
}

func TestExporterEmptyViewport(t *testing.T) {
	tests := []struct {
		name    string
		surface LayoutSection
		raster  Rasterizer
	}{
		{"zero surface", LayoutSection{}, &stubRasterizer{}},
		{"empty raster", LayoutSection{Width: 10, Height: 10}, &stubRasterizer{img: image.NewRGBA(image.Rect(0, 0, 0, 0))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewExporter(ExportSection{Scale: 1}, tt.surface, ColorWhite, tt.raster)
			var buf bytes.Buffer
			if _, err := e.Export(&buf, nil); !errors.Is(err, ErrEmptyViewport) {
				t.Errorf("err = %v, want ErrEmptyViewport", err)
			}
			if buf.Len() != 0 {
				t.Error("wrote output for an empty viewport")
			}
		})
	}
}

func TestWritePDF(t *testing.T) {
	dir := t.TempDir()
	m := newTestMindMap(t, WithRasterizer(&stubRasterizer{}))
	path := filepath.Join(dir, "nested", "map.pdf")
	if err := m.WritePDF(path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Error("written file is not a PDF")
	}
	assertOnlyFiles(t, filepath.Join(dir, "nested"), "map.pdf")
}

func TestWritePDFFailureLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	m := newTestMindMap(t, WithRasterizer(&stubRasterizer{err: errors.New("boom")}))
	if err := m.WritePDF(filepath.Join(dir, "map.pdf")); err == nil {
		t.Fatal("expected error")
	}
	assertOnlyFiles(t, dir)
}

func assertOnlyFiles(t *testing.T, dir string, want ...string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, e := range entries {
		got = append(got, e.Name())
	}
	if !equalStrings(got, want) {
		t.Errorf("%s contains %v, want %v", dir, got, want)
	}
}

func TestDownloadAsPDF(t *testing.T) {
	cfg := testConfig()
	cfg.Export.Dir = t.TempDir()
	m := newTestMindMap(t, WithConfig(cfg), WithClock(fixedClock), WithRasterizer(&stubRasterizer{}))

	var paths []string
	var calls int
	done := func(path string, err error) {
		calls++
		if err != nil {
			t.Errorf("download failed: %v", err)
		}
		paths = append(paths, path)
	}
	m.DownloadAsPDF(done)
	m.DownloadAsPDF(done)
	if calls != 0 {
		t.Fatal("download ran before the next step")
	}
	m.Step(0)
	m.Step(0)

	want := []string{
		filepath.Join(cfg.Export.Dir, "Mind_Map_20261019_120000.pdf"),
		filepath.Join(cfg.Export.Dir, "Mind_Map_20261019_120000_2.pdf"),
	}
	if calls != 2 || !equalStrings(paths, want) {
		t.Errorf("calls = %d, paths = %v, want %v", calls, paths, want)
	}
	for _, p := range want {
		if !fileExists(p) {
			t.Errorf("%s not written", p)
		}
	}
}

func TestDownloadAsPDFReportsError(t *testing.T) {
	cfg := testConfig()
	cfg.Export.Dir = t.TempDir()
	m := newTestMindMap(t, WithConfig(cfg), WithRasterizer(&stubRasterizer{err: errors.New("boom")}))

	var gotPath string
	var gotErr error
	calls := 0
	m.DownloadAsPDF(func(path string, err error) {
		calls++
		gotPath, gotErr = path, err
	})
	m.Step(0)
	if calls != 1 || gotErr == nil || gotPath != "" {
		t.Errorf("calls=%d path=%q err=%v", calls, gotPath, gotErr)
	}
	m.DownloadAsPDF(nil)
	m.Step(0)
}

func TestDownloadAsPDFLogsUnwritableDir(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := testConfig()
	cfg.Export.Dir = filepath.Join(blocker, "out")
	var buf bytes.Buffer
	m := newTestMindMap(t, WithConfig(cfg), WithLogger(bufferLogger(&buf)))

	m.DownloadAsPDF(nil)
	m.Step(0)
	if !strings.Contains(buf.String(), "pdf download failed") {
		t.Errorf("directory error not logged:\n%s", buf.String())
	}
}
