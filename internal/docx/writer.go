package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"image"
	_ "image/jpeg" // register decoders for embedded media
	_ "image/png"
)

// EMUPerInch converts inches to English Metric Units, the unit DrawingML uses
// for picture extents.
const EMUPerInch = 914400

// Alignment values for Paragraph.Align.
const (
	AlignCenter    = "center"
	AlignJustified = "both"
)

// SectionContinuous marks a section that begins without a page break.
const sectionContinuous = "continuous"

type mediaPart struct {
	name        string
	contentType string
	data        []byte
}

// Document accumulates body content and serializes it as a DOCX package.
// A Document is not safe for concurrent use; build one per render.
type Document struct {
	elements  []any
	media     []mediaPart
	rels      []relationshipXML
	sect      *sectPrXML
	baseFont  string
	baseSize  int
	drawingID int
}

// New returns an empty single-column document with default geometry and styles.
func New() *Document {
	d := &Document{
		sect: &sectPrXML{
			PgSz:  &pageSizeXML{W: 12240, H: 15840},
			PgMar: &pageMarXML{Top: 1440, Right: 1080, Bottom: 1440, Left: 1080, Header: 720, Footer: 720},
			Cols:  &colsXML{Num: 1},
		},
		baseFont: "Times New Roman",
		baseSize: 20,
	}
	d.rels = append(d.rels, relationshipXML{ID: "rId1", Type: relTypeStyles, Target: "styles.xml"})
	return d
}

// SetBaseStyle sets the Normal style font family and size (half-points).
func (d *Document) SetBaseStyle(font string, halfPoints int) {
	d.baseFont = font
	d.baseSize = halfPoints
}

// SetPageSize sets page dimensions in twips for the current section.
func (d *Document) SetPageSize(width, height int) {
	d.sect.PgSz = &pageSizeXML{W: width, H: height}
}

// SetMargins sets page margins in twips for the current section.
func (d *Document) SetMargins(top, right, bottom, left int) {
	d.sect.PgMar = &pageMarXML{Top: top, Right: right, Bottom: bottom, Left: left, Header: 720, Footer: 720}
}

// SetColumns sets the column count and gap (twips) for the current section.
func (d *Document) SetColumns(num, space int) {
	d.sect.Cols = &colsXML{Num: num, Space: space}
}

// InsertContinuousBreak ends the current section at an empty paragraph and
// starts a new one on the same page with the same geometry. Callers adjust the
// new section afterwards (typically via SetColumns).
func (d *Document) InsertContinuousBreak() {
	closed := &sectPrXML{
		Type:  d.sect.Type,
		PgSz:  d.sect.PgSz,
		PgMar: d.sect.PgMar,
		Cols:  d.sect.Cols,
	}
	d.elements = append(d.elements, &paragraphXML{Props: &paraPropsXML{SectPr: closed}})
	d.sect = &sectPrXML{
		Type:  &valXML{Val: sectionContinuous},
		PgSz:  closed.PgSz,
		PgMar: closed.PgMar,
		Cols:  &colsXML{Num: closed.Cols.Num, Space: closed.Cols.Space},
	}
}

// Paragraph wraps an in-progress paragraph.
type Paragraph struct {
	x *paragraphXML
}

// Run wraps a styled text run.
type Run struct {
	x *runXML
}

// AddParagraph appends an empty paragraph to the document body.
func (d *Document) AddParagraph() *Paragraph {
	p := &paragraphXML{}
	d.elements = append(d.elements, p)
	return &Paragraph{x: p}
}

func (p *Paragraph) props() *paraPropsXML {
	if p.x.Props == nil {
		p.x.Props = &paraPropsXML{}
	}
	return p.x.Props
}

// AddRun appends a text run to the paragraph.
func (p *Paragraph) AddRun(text string) *Run {
	r := &runXML{Text: &textXML{Space: "preserve", Value: text}}
	p.x.Runs = append(p.x.Runs, r)
	return &Run{x: r}
}

// Align sets paragraph justification (AlignCenter, AlignJustified).
func (p *Paragraph) Align(val string) *Paragraph {
	p.props().Justify = &valXML{Val: val}
	return p
}

// FirstLineIndent sets the first-line indent in twips.
func (p *Paragraph) FirstLineIndent(twips int) *Paragraph {
	p.props().Indent = &indentXML{FirstLine: twips}
	return p
}

// Spacing sets space before and after the paragraph in twips.
func (p *Paragraph) Spacing(before, after int) *Paragraph {
	p.props().Spacing = &spacingXML{Before: before, After: after}
	return p
}

func (r *Run) props() *runPropsXML {
	if r.x.Props == nil {
		r.x.Props = &runPropsXML{}
	}
	return r.x.Props
}

// Bold makes the run bold.
func (r *Run) Bold() *Run {
	r.props().Bold = &flagXML{}
	return r
}

// Size sets the run font size in half-points.
func (r *Run) Size(halfPoints int) *Run {
	r.props().Size = &valXML{Val: fmt.Sprint(halfPoints)}
	return r
}

// Color sets the run color as an RRGGBB hex string.
func (r *Run) Color(hex string) *Run {
	r.props().Color = &valXML{Val: hex}
	return r
}

// Underline applies a single underline to the run.
func (r *Run) Underline() *Run {
	r.props().Underline = &valXML{Val: "single"}
	return r
}

// AddTable appends a bordered grid of cell values. The first row's length is
// the authoritative column count; rows of any other length are an error. An
// empty table is allowed and produces a degenerate zero-row grid.
func (d *Document) AddTable(rows [][]string, widthTwips int) error {
	cols := 0
	if len(rows) > 0 {
		cols = len(rows[0])
	}
	for i, row := range rows {
		if len(row) != cols {
			return fmt.Errorf("table rows have inconsistent lengths: row %d has %d cells, want %d", i+1, len(row), cols)
		}
	}

	colWidth := 0
	if cols > 0 {
		colWidth = widthTwips / cols
	}

	t := &tableXML{
		Props: tablePropsXML{
			Style: &valXML{Val: "TableGrid"},
			Width: &tblWidthXML{W: widthTwips, Type: "dxa"},
		},
	}
	for i := 0; i < cols; i++ {
		t.Grid.Cols = append(t.Grid.Cols, gridColXML{W: colWidth})
	}
	for _, row := range rows {
		tr := tableRowXML{}
		for _, val := range row {
			cell := tableCellXML{
				Props: &cellPropsXML{Width: &tblWidthXML{W: colWidth, Type: "dxa"}},
				Paras: []*paragraphXML{
					{Runs: []*runXML{{Text: &textXML{Space: "preserve", Value: val}}}},
				},
			}
			tr.Cells = append(tr.Cells, cell)
		}
		t.Rows = append(t.Rows, tr)
	}
	d.elements = append(d.elements, t)
	return nil
}

// AddPicture embeds raster bytes as a centered inline picture scaled to the
// given width in EMU, keeping the aspect ratio. Bytes that don't decode as a
// known raster format are an error and nothing is appended.
func (d *Document) AddPicture(data []byte, widthEMU int64) error {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decoding picture: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("decoding picture: degenerate %dx%d image", cfg.Width, cfg.Height)
	}
	heightEMU := widthEMU * int64(cfg.Height) / int64(cfg.Width)

	ext := "png"
	contentType := "image/png"
	if format == "jpeg" {
		ext = "jpeg"
		contentType = "image/jpeg"
	}

	name := fmt.Sprintf("image%d.%s", len(d.media)+1, ext)
	d.media = append(d.media, mediaPart{name: name, contentType: contentType, data: data})

	relID := fmt.Sprintf("rId%d", len(d.rels)+1)
	d.rels = append(d.rels, relationshipXML{ID: relID, Type: relTypeImage, Target: "media/" + name})

	d.drawingID++
	drawing := &drawingXML{
		Inline: inlineXML{
			Extent: extentXML{CX: widthEMU, CY: heightEMU},
			DocPr:  docPrXML{ID: d.drawingID, Name: name},
			Graphic: graphicXML{
				Data: graphicDataXML{
					URI: nsPic,
					Pic: picXML{
						NvPicPr: nvPicPrXML{CNvPr: docPrXML{ID: d.drawingID, Name: name}},
						BlipFill: blipFillXML{
							Blip: blipXML{Embed: relID},
						},
						SpPr: spPrXML{
							Xfrm: xfrmXML{Ext: extXML{CX: widthEMU, CY: heightEMU}},
							Geom: geomXML{Prst: "rect"},
						},
					},
				},
			},
		},
	}

	p := &paragraphXML{
		Props: &paraPropsXML{Justify: &valXML{Val: AlignCenter}},
		Runs:  []*runXML{{Drawing: drawing}},
	}
	d.elements = append(d.elements, p)
	return nil
}

// Save serializes the package and returns the DOCX bytes.
func (d *Document) Save() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	parts := []struct {
		name string
		data func() ([]byte, error)
	}{
		{"[Content_Types].xml", d.contentTypes},
		{"_rels/.rels", d.packageRels},
		{"word/document.xml", d.documentPart},
		{"word/_rels/document.xml.rels", d.documentRels},
		{"word/styles.xml", d.stylesPart},
	}

	for _, part := range parts {
		data, err := part.data()
		if err != nil {
			return nil, fmt.Errorf("building %s: %w", part.name, err)
		}
		if err := writePart(zw, part.name, data); err != nil {
			return nil, err
		}
	}
	for _, m := range d.media {
		if err := writePart(zw, "word/media/"+m.name, m.data); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("closing package: %w", err)
	}
	return buf.Bytes(), nil
}

func writePart(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("creating %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

func marshalPart(v any) ([]byte, error) {
	data, err := xml.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), data...), nil
}

func (d *Document) contentTypes() ([]byte, error) {
	types := contentTypesXML{
		Xmlns: nsContentTypes,
		Defaults: []ctDefaultXML{
			{Extension: "rels", ContentType: "application/vnd.openxmlformats-package.relationships+xml"},
			{Extension: "xml", ContentType: "application/xml"},
			{Extension: "png", ContentType: "image/png"},
			{Extension: "jpeg", ContentType: "image/jpeg"},
		},
		Overrides: []ctOverrideXML{
			{PartName: "/word/document.xml", ContentType: contentTypeDocument},
			{PartName: "/word/styles.xml", ContentType: contentTypeStyles},
		},
	}
	return marshalPart(types)
}

func (d *Document) packageRels() ([]byte, error) {
	rels := relationshipsXML{
		Xmlns: nsRelationships,
		Rels: []relationshipXML{
			{ID: "rId1", Type: relTypeDocument, Target: "word/document.xml"},
		},
	}
	return marshalPart(rels)
}

func (d *Document) documentPart() ([]byte, error) {
	doc := documentXML{
		NsW:   nsW,
		NsR:   nsR,
		NsWP:  nsWP,
		NsA:   nsA,
		NsPic: nsPic,
		Body: bodyXML{
			Elements: d.elements,
			SectPr:   d.sect,
		},
	}
	return marshalPart(doc)
}

func (d *Document) documentRels() ([]byte, error) {
	rels := relationshipsXML{
		Xmlns: nsRelationships,
		Rels:  d.rels,
	}
	return marshalPart(rels)
}

func (d *Document) stylesPart() ([]byte, error) {
	return []byte(fmt.Sprintf(stylesTemplate, d.baseFont, d.baseSize)), nil
}
