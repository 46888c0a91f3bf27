package arbor

import (
	"bytes"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// faceKey identifies a cached face.
type faceKey struct {
	size float64
	bold bool
}

// Fonts holds the regular and bold typefaces labels are drawn with, parsed
// once for Ebitengine's text/v2 and once for the software rasterizer. Faces
// are created per size on first use and cached.
type Fonts struct {
	sources [2]*text.GoTextFaceSource
	sfnt    [2]*opentype.Font

	faces       map[faceKey]*text.GoTextFace
	rasterFaces map[faceKey]font.Face
}

// LoadFonts returns the Go fonts (Go Regular and Go Bold).
func LoadFonts() (*Fonts, error) {
	return NewFonts(goregular.TTF, gobold.TTF)
}

// NewFonts parses TrueType/OpenType data for the regular and bold weights.
func NewFonts(regular, bold []byte) (*Fonts, error) {
	f := &Fonts{
		faces:       make(map[faceKey]*text.GoTextFace),
		rasterFaces: make(map[faceKey]font.Face),
	}
	for i, data := range [2][]byte{regular, bold} {
		src, err := text.NewGoTextFaceSource(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("arbor: failed to parse font data: %w", err)
		}
		otf, err := opentype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("arbor: failed to parse font data: %w", err)
		}
		f.sources[i] = src
		f.sfnt[i] = otf
	}
	return f, nil
}

func weight(bold bool) int {
	if bold {
		return 1
	}
	return 0
}

// Face returns the text/v2 face for a size and weight.
func (f *Fonts) Face(size float64, bold bool) *text.GoTextFace {
	key := faceKey{size, bold}
	if face, ok := f.faces[key]; ok {
		return face
	}
	face := &text.GoTextFace{Source: f.sources[weight(bold)], Size: size}
	f.faces[key] = face
	return face
}

// rasterFace returns the x/image face for a size and weight.
func (f *Fonts) rasterFace(size float64, bold bool) (font.Face, error) {
	key := faceKey{size, bold}
	if face, ok := f.rasterFaces[key]; ok {
		return face, nil
	}
	face, err := opentype.NewFace(f.sfnt[weight(bold)], &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("arbor: font face %gpt: %w", size, err)
	}
	f.rasterFaces[key] = face
	return face, nil
}

// Measure returns the advance width of s at a size and weight, in the same
// units as size.
func (f *Fonts) Measure(s string, size float64, bold bool) float64 {
	face, err := f.rasterFace(size, bold)
	if err != nil {
		return 0
	}
	return fixedToFloat(font.MeasureString(face, s))
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

func floatToFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(v * 64)
}
