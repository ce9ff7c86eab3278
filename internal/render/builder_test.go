package render

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"

	"paper-press-app/config"
	"paper-press-app/internal/paper"
)

// stubFormulas renders a fixed PNG for every formula except those listed in
// fail, keeping builder tests deterministic.
type stubFormulas struct {
	png  []byte
	fail map[string]bool
}

func (s *stubFormulas) Render(src string) ([]byte, error) {
	if s.fail[src] {
		return nil, errors.New("stub render failure")
	}
	return s.png, nil
}

type readDocument struct {
	Body struct {
		Paragraphs []readParagraph `xml:"p"`
		Tables     []struct{}      `xml:"tbl"`
		SectPr     readSectPr      `xml:"sectPr"`
	} `xml:"body"`
}

type readParagraph struct {
	Props struct {
		SectPr *readSectPr `xml:"sectPr"`
	} `xml:"pPr"`
	Runs []readRun `xml:"r"`
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

type readRun struct {
	Text    string    `xml:"t"`
	Drawing *struct{} `xml:"drawing"`
	Props   *struct {
		Bold      *struct{} `xml:"b"`
		Color     *struct{ Val string `xml:"val,attr"` } `xml:"color"`
		Underline *struct{} `xml:"u"`
	} `xml:"rPr"`
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.Set(0, 0, color.RGBA{A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test image: %v", err)
	}
	return buf.Bytes()
}

func renderPaper(t *testing.T, p *paper.Paper, formulas FormulaRenderer) readDocument {
	t.Helper()
	b := NewBuilder(config.DefaultPage(), formulas)
	data, err := b.Render(p)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("opening package: %v", err)
	}
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("opening document.xml: %v", err)
		}
		defer rc.Close()
		content, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("reading document.xml: %v", err)
		}
		var doc readDocument
		if err := xml.Unmarshal(content, &doc); err != nil {
			t.Fatalf("parsing document.xml: %v", err)
		}
		return doc
	}
	t.Fatal("document.xml not found")
	return readDocument{}
}

func paragraphTexts(doc readDocument) []string {
	var texts []string
	for _, p := range doc.Body.Paragraphs {
		var sb strings.Builder
		for _, r := range p.Runs {
			sb.WriteString(r.Text)
		}
		texts = append(texts, sb.String())
	}
	return texts
}

func findText(texts []string, want string) int {
	for i, text := range texts {
		if text == want {
			return i
		}
	}
	return -1
}

func collectPrefixed(texts []string, prefix string) []string {
	var out []string
	for _, text := range texts {
		if strings.HasPrefix(text, prefix) {
			out = append(out, text)
		}
	}
	return out
}

func basePaper() *paper.Paper {
	return &paper.Paper{
		Title:        "Test Paper",
		Authors:      []string{"A. Author", "B. Author"},
		Affiliations: []string{"Example University"},
		Emails:       []string{"a@example.edu"},
		Abstract:     "An abstract.",
		Keywords:     []string{"one", "two"},
		Sections: []paper.Section{
			{Heading: "Intro", Content: "Hello world"},
		},
		References: []string{"A. Author, 'Prior Work', 2023."},
	}
}

func TestRenderNumbersAllSectionHeadings(t *testing.T) {
	p := basePaper()
	p.Sections = []paper.Section{
		{Heading: "Intro", Content: "a"},
		{Heading: "Methods", Content: "b"},
		{Heading: "Results", Content: "c"},
	}
	doc := renderPaper(t, p, &stubFormulas{png: testPNG(t)})
	texts := paragraphTexts(doc)

	for _, want := range []string{"1. INTRO", "2. METHODS", "3. RESULTS"} {
		if findText(texts, want) < 0 {
			t.Errorf("heading %q missing", want)
		}
	}
}

func TestRenderTitleBlockBeforeSectionBreak(t *testing.T) {
	doc := renderPaper(t, basePaper(), &stubFormulas{png: testPNG(t)})

	breakIdx := -1
	for i, p := range doc.Body.Paragraphs {
		if p.Props.SectPr != nil {
			if breakIdx >= 0 {
				t.Fatal("more than one section break")
			}
			breakIdx = i
		}
	}
	if breakIdx < 0 {
		t.Fatal("no section break found")
	}

	texts := paragraphTexts(doc)
	titleIdx := findText(texts, "TEST PAPER")
	if titleIdx < 0 {
		t.Fatal("title paragraph missing")
	}
	authorsIdx := findText(texts, "A. Author, B. Author")
	abstractIdx := findText(texts, "Abstract")

	if titleIdx > breakIdx || authorsIdx > breakIdx {
		t.Error("title block content must appear before the section break")
	}
	if abstractIdx < breakIdx {
		t.Error("abstract must appear after the section break")
	}

	if doc.Body.Paragraphs[breakIdx].Props.SectPr.Cols.Num != "1" {
		t.Error("title region should be single-column")
	}
	if doc.Body.SectPr.Cols.Num != "2" {
		t.Error("body should be two-column")
	}
	if doc.Body.SectPr.Type.Val != "continuous" {
		t.Error("body section should begin without a page break")
	}
}

func TestRenderFigureNumberingIsGlobal(t *testing.T) {
	img := testPNG(t)
	p := basePaper()
	p.Sections = []paper.Section{
		{
			Heading: "Intro",
			Content: "a",
			Images: []paper.Image{
				{Caption: "first", Data: img},
				{Caption: "second", Data: img},
			},
			Formulas: []string{`\alpha`},
		},
		{
			Heading:  "Results",
			Content:  "b",
			Images:   []paper.Image{{Caption: "third", Data: img}},
			Formulas: []string{`\beta`, `\gamma`},
		},
	}

	doc := renderPaper(t, p, &stubFormulas{png: img})
	texts := paragraphTexts(doc)

	figures := collectPrefixed(texts, "Fig. ")
	want := []string{"Fig. 1: first", "Fig. 2: second", "Fig. 3: third"}
	if len(figures) != len(want) {
		t.Fatalf("expected %d figure captions, got %v", len(want), figures)
	}
	for i := range want {
		if figures[i] != want[i] {
			t.Errorf("figure caption %d is %q, want %q", i, figures[i], want[i])
		}
	}

	equations := collectPrefixed(texts, "Equation ")
	wantEq := []string{`Equation 1.1: \alpha`, `Equation 2.1: \beta`, `Equation 2.2: \gamma`}
	if len(equations) != len(wantEq) {
		t.Fatalf("expected %d equation captions, got %v", len(wantEq), equations)
	}
	for i := range wantEq {
		if equations[i] != wantEq[i] {
			t.Errorf("equation caption %d is %q, want %q", i, equations[i], wantEq[i])
		}
	}
}

func TestRenderSkipsCorruptImageWithoutCaption(t *testing.T) {
	img := testPNG(t)
	p := basePaper()
	p.Sections[0].Images = []paper.Image{
		{Caption: "good", Data: img},
		{Caption: "broken", Data: []byte("not an image")},
		{Caption: "also good", Data: img},
	}

	doc := renderPaper(t, p, &stubFormulas{png: img})
	texts := paragraphTexts(doc)

	figures := collectPrefixed(texts, "Fig. ")
	want := []string{"Fig. 1: good", "Fig. 2: also good"}
	if len(figures) != 2 || figures[0] != want[0] || figures[1] != want[1] {
		t.Errorf("figure captions are %v, want %v", figures, want)
	}
	for _, text := range texts {
		if strings.Contains(text, "broken") {
			t.Errorf("skipped image must not produce a caption: %q", text)
		}
	}
}

func TestRenderSkipsRaggedTable(t *testing.T) {
	p := basePaper()
	p.Sections[0].Tables = []paper.Table{
		{{"a", "b", "c"}, {"1", "2", "3"}},
		{{"a", "b", "c"}, {"1", "2"}, {"x"}},
	}
	p.Sections[0].Formulas = []string{`\alpha`}

	doc := renderPaper(t, p, &stubFormulas{png: testPNG(t)})
	texts := paragraphTexts(doc)

	tables := collectPrefixed(texts, "Table ")
	if len(tables) != 1 || tables[0] != "Table 1: Data Table" {
		t.Errorf("table captions are %v, want only \"Table 1: Data Table\"", tables)
	}
	if len(doc.Body.Tables) != 1 {
		t.Errorf("expected 1 rendered table, got %d", len(doc.Body.Tables))
	}
	// Content after the skipped table still appears.
	if findText(texts, `Equation 1.1: \alpha`) < 0 {
		t.Error("content after the skipped table is missing")
	}
}

func TestRenderFailedFormulaLeavesFiguresAlone(t *testing.T) {
	img := testPNG(t)
	p := basePaper()
	p.Sections = []paper.Section{
		{
			Heading:  "Intro",
			Content:  "Hello world",
			Formulas: []string{`\alpha+\beta`},
		},
		{
			Heading: "Results",
			Content: "fine",
			Images:  []paper.Image{{Caption: "diagram", Data: img}},
		},
	}

	doc := renderPaper(t, p, &stubFormulas{png: img, fail: map[string]bool{`\alpha+\beta`: true}})
	texts := paragraphTexts(doc)

	if got := collectPrefixed(texts, "Equation "); len(got) != 0 {
		t.Errorf("failed formula must not emit a caption: %v", got)
	}
	if findText(texts, "2. RESULTS") < 0 {
		t.Error("section after failed formula is missing")
	}
	figures := collectPrefixed(texts, "Fig. ")
	if len(figures) != 1 || figures[0] != "Fig. 1: diagram" {
		t.Errorf("failed formula must not consume a figure slot: %v", figures)
	}
}

func TestRenderEndToEndScenario(t *testing.T) {
	p := basePaper()
	p.Sections = []paper.Section{
		{Heading: "Intro", Content: "Hello world", Formulas: []string{`\alpha+\beta`}},
	}

	doc := renderPaper(t, p, &stubFormulas{png: testPNG(t)})
	texts := paragraphTexts(doc)

	if findText(texts, "1. INTRO") < 0 {
		t.Error("heading \"1. INTRO\" missing")
	}
	if findText(texts, "Hello world") < 0 {
		t.Error("body paragraph missing")
	}
	if findText(texts, `Equation 1.1: \alpha+\beta`) < 0 {
		t.Error("equation caption missing")
	}
}

func TestRenderReferencesAndAppendix(t *testing.T) {
	p := basePaper()
	p.References = []string{"First reference.", "Second reference."}
	p.Appendix = []string{"Supplementary data.", "Proofs."}

	doc := renderPaper(t, p, &stubFormulas{png: testPNG(t)})
	texts := paragraphTexts(doc)

	for _, want := range []string{
		"References",
		"[1] First reference.",
		"[2] Second reference.",
		"Appendix",
		"A. Supplementary data.",
		"B. Proofs.",
	} {
		if findText(texts, want) < 0 {
			t.Errorf("%q missing from output", want)
		}
	}
}

func TestRenderSubsections(t *testing.T) {
	p := basePaper()
	p.Sections = []paper.Section{
		{
			Heading: "Methods",
			Content: "overview",
			Subsections: []paper.Subsection{
				{Heading: "Setup", Content: "details", Formulas: []string{`\mu`}},
				{Heading: "Procedure", Content: "steps"},
			},
		},
	}

	doc := renderPaper(t, p, &stubFormulas{png: testPNG(t)})
	texts := paragraphTexts(doc)

	if findText(texts, "1.A Setup") < 0 {
		t.Error("first subsection heading missing")
	}
	if findText(texts, "1.B Procedure") < 0 {
		t.Error("second subsection heading missing")
	}
	if findText(texts, `Equation 1.1.1: \mu`) < 0 {
		t.Error("subsection equation caption missing")
	}
}

func TestRenderContentMarkup(t *testing.T) {
	p := basePaper()
	p.Sections[0].Content = "see [the site](http://example.com) and [[footnote:a note]]"

	doc := renderPaper(t, p, &stubFormulas{png: testPNG(t)})

	var bodyPara *readParagraph
	for i, para := range doc.Body.Paragraphs {
		var sb strings.Builder
		for _, r := range para.Runs {
			sb.WriteString(r.Text)
		}
		if strings.HasPrefix(sb.String(), "see ") {
			bodyPara = &doc.Body.Paragraphs[i]
			break
		}
	}
	if bodyPara == nil {
		t.Fatal("body paragraph missing")
	}

	var full strings.Builder
	linkStyled := false
	for _, r := range bodyPara.Runs {
		full.WriteString(r.Text)
		if r.Text == "the site" && r.Props != nil && r.Props.Underline != nil && r.Props.Color != nil {
			linkStyled = true
		}
	}
	if got := full.String(); got != "see the site and [*] a note" {
		t.Errorf("body text is %q", got)
	}
	if !linkStyled {
		t.Error("hyperlink span is not styled")
	}
}

func TestRenderKeywordsAndAbstract(t *testing.T) {
	p := basePaper()
	p.Abstract = "First paragraph.\nSecond paragraph."

	doc := renderPaper(t, p, &stubFormulas{png: testPNG(t)})
	texts := paragraphTexts(doc)

	if findText(texts, "Abstract") < 0 || findText(texts, "Keywords") < 0 {
		t.Fatal("front-matter headings missing")
	}
	if findText(texts, "First paragraph.") < 0 || findText(texts, "Second paragraph.") < 0 {
		t.Error("multi-paragraph abstract not split")
	}
	if findText(texts, "one, two") < 0 {
		t.Error("keyword list missing")
	}
}
