package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"
)

// Read-side structs for round-trip assertions. Tags use local names only, which
// match the w:-prefixed elements regardless of namespace.
type readDocument struct {
	Body struct {
		Paragraphs []readParagraph `xml:"p"`
		Tables     []readTable     `xml:"tbl"`
		SectPr     readSectPr      `xml:"sectPr"`
	} `xml:"body"`
}

type readParagraph struct {
	Props struct {
		SectPr *readSectPr `xml:"sectPr"`
		Jc     struct {
			Val string `xml:"val,attr"`
		} `xml:"jc"`
	} `xml:"pPr"`
	Runs []struct {
		Text    string    `xml:"t"`
		Drawing *struct{} `xml:"drawing"`
	} `xml:"r"`
}

type readSectPr struct {
	Type struct {
		Val string `xml:"val,attr"`
	} `xml:"type"`
	Cols struct {
		Num   string `xml:"num,attr"`
		Space string `xml:"space,attr"`
	} `xml:"cols"`
}

type readTable struct {
	Rows []struct {
		Cells []struct {
			Paragraphs []readParagraph `xml:"p"`
		} `xml:"tc"`
	} `xml:"tr"`
}

func unzipPart(t *testing.T, data []byte, name string) []byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("opening package: %v", err)
	}
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				t.Fatalf("opening %s: %v", name, err)
			}
			defer rc.Close()
			content, err := io.ReadAll(rc)
			if err != nil {
				t.Fatalf("reading %s: %v", name, err)
			}
			return content
		}
	}
	t.Fatalf("part %s not found in package", name)
	return nil
}

func parseDocument(t *testing.T, data []byte) readDocument {
	t.Helper()
	part := unzipPart(t, data, "word/document.xml")
	var doc readDocument
	if err := xml.Unmarshal(part, &doc); err != nil {
		t.Fatalf("parsing document.xml: %v", err)
	}
	return doc
}

func paragraphText(p readParagraph) string {
	var sb strings.Builder
	for _, r := range p.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test image: %v", err)
	}
	return buf.Bytes()
}

func TestSaveProducesRequiredParts(t *testing.T) {
	d := New()
	d.AddParagraph().AddRun("hello")

	data, err := d.Save()
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("PK")) {
		t.Error("package is not a ZIP container")
	}

	for _, part := range []string{
		"[Content_Types].xml",
		"_rels/.rels",
		"word/document.xml",
		"word/_rels/document.xml.rels",
		"word/styles.xml",
	} {
		unzipPart(t, data, part)
	}
}

func TestParagraphContent(t *testing.T) {
	d := New()
	p := d.AddParagraph().Align(AlignCenter)
	p.AddRun("TITLE").Bold().Size(32)

	data, err := d.Save()
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	doc := parseDocument(t, data)

	if len(doc.Body.Paragraphs) != 1 {
		t.Fatalf("expected 1 paragraph, got %d", len(doc.Body.Paragraphs))
	}
	if got := paragraphText(doc.Body.Paragraphs[0]); got != "TITLE" {
		t.Errorf("paragraph text is %q", got)
	}
	if doc.Body.Paragraphs[0].Props.Jc.Val != "center" {
		t.Errorf("expected centered paragraph, got %q", doc.Body.Paragraphs[0].Props.Jc.Val)
	}

	raw := string(unzipPart(t, data, "word/document.xml"))
	if !strings.Contains(raw, "<w:b></w:b>") {
		t.Error("bold run property missing")
	}
	if !strings.Contains(raw, `<w:sz w:val="32"`) {
		t.Error("run size missing")
	}
}

func TestBaseStyleAppearsInStyles(t *testing.T) {
	d := New()
	d.SetBaseStyle("Times New Roman", 20)
	d.AddParagraph().AddRun("x")

	data, err := d.Save()
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	styles := string(unzipPart(t, data, "word/styles.xml"))
	if !strings.Contains(styles, `w:ascii="Times New Roman"`) {
		t.Error("base font missing from styles")
	}
	if !strings.Contains(styles, `<w:sz w:val="20"/>`) {
		t.Error("base size missing from styles")
	}
	if !strings.Contains(styles, `w:styleId="TableGrid"`) {
		t.Error("TableGrid style missing")
	}
}

func TestInsertContinuousBreak(t *testing.T) {
	d := New()
	d.AddParagraph().AddRun("title block")
	d.InsertContinuousBreak()
	d.SetColumns(2, 720)
	d.AddParagraph().AddRun("body")

	data, err := d.Save()
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	doc := parseDocument(t, data)

	var breaks []readSectPr
	for _, p := range doc.Body.Paragraphs {
		if p.Props.SectPr != nil {
			breaks = append(breaks, *p.Props.SectPr)
		}
	}
	if len(breaks) != 1 {
		t.Fatalf("expected exactly 1 in-paragraph section break, got %d", len(breaks))
	}
	if breaks[0].Cols.Num != "1" {
		t.Errorf("title region should be single-column, got %q", breaks[0].Cols.Num)
	}
	if doc.Body.SectPr.Cols.Num != "2" {
		t.Errorf("body should be two-column, got %q", doc.Body.SectPr.Cols.Num)
	}
	if doc.Body.SectPr.Type.Val != "continuous" {
		t.Errorf("body section should be continuous, got %q", doc.Body.SectPr.Type.Val)
	}
}

func TestAddTable(t *testing.T) {
	d := New()
	err := d.AddTable([][]string{{"a", "b", "c"}, {"1", "2", "3"}}, 4680)
	if err != nil {
		t.Fatalf("AddTable: %v", err)
	}

	data, err := d.Save()
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	doc := parseDocument(t, data)

	if len(doc.Body.Tables) != 1 {
		t.Fatalf("expected 1 table, got %d", len(doc.Body.Tables))
	}
	tbl := doc.Body.Tables[0]
	if len(tbl.Rows) != 2 || len(tbl.Rows[0].Cells) != 3 {
		t.Fatalf("expected 2x3 table, got %dx%d", len(tbl.Rows), len(tbl.Rows[0].Cells))
	}
	if got := paragraphText(tbl.Rows[1].Cells[2].Paragraphs[0]); got != "3" {
		t.Errorf("cell value is %q", got)
	}
}

func TestAddTableRejectsRaggedRows(t *testing.T) {
	d := New()
	err := d.AddTable([][]string{{"a", "b", "c"}, {"1", "2"}}, 4680)
	if err == nil {
		t.Fatal("expected an error for ragged rows")
	}
	if !strings.Contains(err.Error(), "inconsistent") {
		t.Errorf("unexpected error message: %v", err)
	}
	if len(d.elements) != 0 {
		t.Error("ragged table should not be appended")
	}
}

func TestAddTableAllowsEmptyTable(t *testing.T) {
	d := New()
	if err := d.AddTable(nil, 4680); err != nil {
		t.Fatalf("AddTable: %v", err)
	}
	data, err := d.Save()
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	doc := parseDocument(t, data)
	if len(doc.Body.Tables) != 1 || len(doc.Body.Tables[0].Rows) != 0 {
		t.Error("expected one degenerate zero-row table")
	}
}

func TestAddPicture(t *testing.T) {
	d := New()
	if err := d.AddPicture(testPNG(t, 4, 2), 2*EMUPerInch); err != nil {
		t.Fatalf("AddPicture: %v", err)
	}

	data, err := d.Save()
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	media := unzipPart(t, data, "word/media/image1.png")
	if _, err := png.Decode(bytes.NewReader(media)); err != nil {
		t.Errorf("embedded media does not decode: %v", err)
	}

	rels := string(unzipPart(t, data, "word/_rels/document.xml.rels"))
	if !strings.Contains(rels, "media/image1.png") {
		t.Error("image relationship missing")
	}

	raw := string(unzipPart(t, data, "word/document.xml"))
	if !strings.Contains(raw, `r:embed="rId2"`) {
		t.Error("drawing does not reference the image relationship")
	}
	// 2" wide, 4:2 aspect ratio -> 1" tall
	if !strings.Contains(raw, `cy="914400"`) {
		t.Error("picture height does not preserve aspect ratio")
	}
}

func TestAddPictureRejectsCorruptBytes(t *testing.T) {
	d := New()
	err := d.AddPicture([]byte("definitely not an image"), EMUPerInch)
	if err == nil {
		t.Fatal("expected an error for corrupt bytes")
	}
	if len(d.elements) != 0 || len(d.media) != 0 {
		t.Error("corrupt picture should not be appended")
	}
}
