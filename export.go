package arbor

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"
)

// ErrEmptyViewport is returned when exporting a drawing surface of zero size.
var ErrEmptyViewport = errors.New("arbor: empty viewport")

// Page furniture, in millimetres.
const (
	titleFontSize  = 16
	footerFontSize = 9
	titleHeight    = 10
	footerHeight   = 6
)

// ExportInfo describes one completed export.
type ExportInfo struct {
	ID        uuid.UUID // document id, also stored in the PDF keywords
	Generated time.Time
	Pixels    image.Point // raster size
	Bytes     int
}

// Exporter renders a command list into a single-page landscape PDF: the
// drawing is rasterized with the view reset to its home transform, encoded
// as PNG and placed under a title, with a generation timestamp footer.
type Exporter struct {
	Section    ExportSection
	Surface    LayoutSection
	Background Color
	Rasterizer Rasterizer

	now    func() time.Time
	newID  func() uuid.UUID
	encode func(io.Writer, image.Image) error
}

// NewExporter returns an exporter for a surface and export settings.
func NewExporter(section ExportSection, surface LayoutSection, background Color, r Rasterizer) *Exporter {
	return &Exporter{
		Section:    section,
		Surface:    surface,
		Background: background,
		Rasterizer: r,
		now:        time.Now,
		newID:      uuid.New,
		encode:     png.Encode,
	}
}

// Home returns the export view: identity translated by the layout margin.
func (e *Exporter) Home() Transform {
	return Transform{X: e.Surface.Margin.Left, Y: e.Surface.Margin.Top, K: 1}
}

// Export writes the PDF for cmds to w. Nothing is written to w unless the
// whole document was produced.
func (e *Exporter) Export(w io.Writer, cmds []DrawCommand) (ExportInfo, error) {
	scale := e.Section.Scale
	if scale <= 0 {
		scale = 1
	}
	pw := int(math.Round(e.Surface.Width * scale))
	ph := int(math.Round(e.Surface.Height * scale))
	if pw <= 0 || ph <= 0 {
		return ExportInfo{}, ErrEmptyViewport
	}

	view := multiplyAffine(scaleMatrix(scale), e.Home().Matrix())
	img, err := e.Rasterizer.Rasterize(cmds, pw, ph, view, e.Background)
	if err != nil {
		return ExportInfo{}, fmt.Errorf("arbor: export: rasterize: %w", err)
	}
	if img == nil || img.Bounds().Empty() {
		return ExportInfo{}, fmt.Errorf("arbor: export: rasterize: %w", ErrEmptyViewport)
	}

	var imgBuf bytes.Buffer
	if err := e.encode(&imgBuf, img); err != nil {
		return ExportInfo{}, fmt.Errorf("arbor: export: encode image: %w", err)
	}

	info := ExportInfo{
		ID:        e.newID(),
		Generated: e.now(),
		Pixels:    img.Bounds().Size(),
	}
	doc, err := e.document(imgBuf.Bytes(), info)
	if err != nil {
		return ExportInfo{}, err
	}
	n, err := w.Write(doc)
	info.Bytes = n
	if err != nil {
		return info, fmt.Errorf("arbor: export: write: %w", err)
	}
	return info, nil
}

// document lays out the page and returns the finished PDF bytes.
func (e *Exporter) document(pngData []byte, info ExportInfo) ([]byte, error) {
	page := e.Section.Page
	if page == "" {
		page = "A4"
	}
	pdf := fpdf.New("L", "mm", page, "")
	pdf.SetTitle(e.Section.Title, true)
	pdf.SetCreator("arbor", false)
	pdf.SetKeywords("mind-map "+info.ID.String(), false)
	pdf.SetCreationDate(info.Generated)
	pdf.SetModificationDate(info.Generated)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("arbor: export: page %q: %w", page, err)
	}

	pageW, pageH := pdf.GetPageSize()
	margin := e.Section.MarginMM
	tr := pdf.UnicodeTranslatorFromDescriptor("") // core fonts are cp1252

	pdf.SetFont("Helvetica", "B", titleFontSize)
	pdf.SetTextColor(0, 0, 0)
	pdf.Text(margin, margin+titleHeight*0.7, tr(e.Section.Title))

	// The image decodes here; a bad image must fail the export, never leave
	// a blank page.
	name := "tree-" + info.ID.String()
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(pngData))
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("arbor: export: decode image: %w", err)
	}

	boxX := margin
	boxY := margin + titleHeight
	boxW := pageW - 2*margin
	boxH := pageH - 2*margin - titleHeight - footerHeight
	if boxW <= 0 || boxH <= 0 {
		return nil, fmt.Errorf("arbor: export: margin %gmm leaves no room on page %q", margin, page)
	}
	iw, ih := float64(info.Pixels.X), float64(info.Pixels.Y)
	fit := math.Min(boxW/iw, boxH/ih)
	w, h := iw*fit, ih*fit
	pdf.ImageOptions(name, boxX+(boxW-w)/2, boxY+(boxH-h)/2, w, h, false, opts, 0, "")

	pdf.SetFont("Helvetica", "", footerFontSize)
	pdf.SetTextColor(96, 96, 96)
	pdf.Text(margin, pageH-margin, "Generated "+info.Generated.Format("2006-01-02 15:04:05 MST"))

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("arbor: export: %w", err)
	}
	return out.Bytes(), nil
}

// --- MindMap integration ---

// exportRequest is a queued DownloadAsPDF call.
type exportRequest struct {
	done func(path string, err error)
}

// ExportPDF renders the current drawing, with the view reset, into a PDF
// written to w.
func (m *MindMap) ExportPDF(w io.Writer) (ExportInfo, error) {
	m.cmds = m.rec.AppendCommands(m.cmds[:0], &m.style)
	info, err := m.exporter.Export(w, m.cmds)
	if err != nil {
		m.metrics.observeExport(err)
		m.log.Error("export failed", "error", err)
		return info, err
	}
	m.metrics.observeExport(nil)
	m.log.Info("export complete",
		"id", info.ID.String(),
		"pixels", fmt.Sprintf("%dx%d", info.Pixels.X, info.Pixels.Y),
		"bytes", info.Bytes)
	return info, nil
}

// WritePDF exports to path. The file appears complete or not at all.
func (m *MindMap) WritePDF(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("arbor: export: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".arbor-*.pdf")
	if err != nil {
		return fmt.Errorf("arbor: export: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := m.ExportPDF(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("arbor: export: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("arbor: export: %w", err)
	}
	return nil
}

// DownloadAsPDF queues an export to a timestamped file in the configured
// export directory. The export runs at the end of the next Step; done, if
// not nil, is then called exactly once with the file path or the error.
func (m *MindMap) DownloadAsPDF(done func(path string, err error)) {
	m.exports = append(m.exports, exportRequest{done: done})
}

// flushExports runs every queued export. Called at the end of Step.
func (m *MindMap) flushExports() {
	if len(m.exports) == 0 {
		return
	}
	reqs := m.exports
	m.exports = nil
	for _, req := range reqs {
		path := m.exportPath()
		err := m.WritePDF(path)
		if err != nil {
			m.log.Error("pdf download failed", "path", path, "error", err)
			path = ""
		}
		if req.done != nil {
			req.done(path, err)
		}
	}
}

// exportPath names a download after the title and the current time. A
// second export within the same second gets a numeric suffix.
func (m *MindMap) exportPath() string {
	base := fmt.Sprintf("%s_%s", sanitizeLabel(m.cfg.Export.Title), m.now().Format(stampLayout))
	path := filepath.Join(m.cfg.Export.Dir, base+".pdf")
	for i := 2; fileExists(path); i++ {
		path = filepath.Join(m.cfg.Export.Dir, fmt.Sprintf("%s_%d.pdf", base, i))
	}
	return path
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
