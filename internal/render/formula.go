// Package render turns a validated paper content tree into a DOCX byte buffer.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	treeblood "github.com/wyatt915/goldmark-treeblood"
	"github.com/yuin/goldmark"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// FormulaRenderer produces a standalone raster image for a formula source
// string. A failed render is reported as an error; callers skip the formula and
// keep going.
type FormulaRenderer interface {
	Render(src string) ([]byte, error)
}

// MathRenderer typesets LaTeX through goldmark/treeblood and rasterizes the
// formula onto a transparent PNG. Everything stays in memory; there is no
// temporary file to clean up.
type MathRenderer struct {
	md goldmark.Markdown
}

func NewMathRenderer() *MathRenderer {
	return &MathRenderer{
		md: goldmark.New(
			goldmark.WithExtensions(
				treeblood.MathML(),
			),
		),
	}
}

// Render typesets src as display math. The typesetting pass is the failure
// gate: input the backend cannot process returns an error and no image.
func (m *MathRenderer) Render(src string) ([]byte, error) {
	var buf bytes.Buffer
	if err := m.md.Convert([]byte("$$"+src+"$$"), &buf); err != nil {
		return nil, fmt.Errorf("typesetting formula %q: %w", src, err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("<math")) {
		return nil, fmt.Errorf("typesetting formula %q produced no math markup", src)
	}
	return rasterizeFormula(src)
}

// rasterizeFormula draws the formula glyphs centered on a transparent canvas
// sized to the text, and encodes it as PNG.
func rasterizeFormula(src string) ([]byte, error) {
	face := basicfont.Face7x13
	drawer := &font.Drawer{
		Face: face,
		Src:  image.NewUniform(color.Black),
	}

	const pad = 8
	textWidth := drawer.MeasureString(src).Ceil()
	width := textWidth + 2*pad
	height := face.Height + 2*pad

	canvas := image.NewNRGBA(image.Rect(0, 0, width, height))
	drawer.Dst = canvas
	drawer.Dot = fixed.P((width-textWidth)/2, pad+face.Ascent)
	drawer.DrawString(src)

	var out bytes.Buffer
	if err := png.Encode(&out, canvas); err != nil {
		return nil, fmt.Errorf("encoding formula image: %w", err)
	}
	return out.Bytes(), nil
}
