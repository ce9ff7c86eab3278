package render

import (
	"fmt"
	"regexp"
	"strings"

	"paper-press-app/internal/docx"
	"paper-press-app/internal/logging"
	"paper-press-app/internal/paper"
)

var (
	hyperlinkPattern = regexp.MustCompile(`\[([^\]]+)\]\((https?://[^)]+)\)`)
	footnotePattern  = regexp.MustCompile(`\[\[footnote:(.*?)\]\]`)
)

// assembler walks the content tree and emits paragraphs, images, tables and
// captions in order. Figure and table counters are global across the whole
// document; equation numbering is local to each section. One assembler serves
// exactly one render, so counters never leak across requests.
type assembler struct {
	doc        *docx.Document
	formulas   FormulaRenderer
	tableWidth int
	figures    int
	tables     int
}

func newAssembler(doc *docx.Document, formulas FormulaRenderer, tableWidth int) *assembler {
	return &assembler{doc: doc, formulas: formulas, tableWidth: tableWidth}
}

// writeHeading emits a bold heading paragraph with the spacing the template
// uses around block headings (8pt before, 4pt after).
func (a *assembler) writeHeading(text string) {
	p := a.doc.AddParagraph().Spacing(160, 80)
	p.AddRun(text).Bold()
}

// writeBody emits one justified body paragraph with a first-line indent,
// expanding footnote markers inline and styling hyperlink spans.
func (a *assembler) writeBody(content string) {
	p := a.doc.AddParagraph().Align(docx.AlignJustified).FirstLineIndent(360)

	expanded := footnotePattern.ReplaceAllString(content, "[*] $1")

	last := 0
	for _, match := range hyperlinkPattern.FindAllStringSubmatchIndex(expanded, -1) {
		start, end := match[0], match[1]
		if start > last {
			p.AddRun(expanded[last:start])
		}
		label := expanded[match[2]:match[3]]
		p.AddRun(label).Color("0000FF").Underline()
		last = end
	}
	if last < len(expanded) {
		p.AddRun(expanded[last:])
	}
}

// caption emits a centered caption line under a figure, table or equation.
func (a *assembler) caption(text string) {
	a.doc.AddParagraph().Align(docx.AlignCenter).AddRun(text)
}

// writeSection emits one numbered section: heading, body, figures, tables,
// formulas, then any subsections. idx is the 1-based section ordinal.
func (a *assembler) writeSection(idx int, sec *paper.Section) {
	a.writeHeading(fmt.Sprintf("%d. %s", idx, strings.ToUpper(sec.Heading)))
	if strings.TrimSpace(sec.Content) != "" {
		a.writeBody(sec.Content)
	}

	a.writeFigures(sec.Images)
	a.writeTables(sec.Tables)
	a.writeFormulas(sec.Formulas, fmt.Sprintf("%d", idx))

	for j, sub := range sec.Subsections {
		a.writeHeading(fmt.Sprintf("%d.%c %s", idx, 'A'+rune(j), sub.Heading))
		if strings.TrimSpace(sub.Content) != "" {
			a.writeBody(sub.Content)
		}
		a.writeFigures(sub.Images)
		a.writeTables(sub.Tables)
		a.writeFormulas(sub.Formulas, fmt.Sprintf("%d.%d", idx, j+1))
	}
}

// writeFigures embeds each image at 3" width with a "Fig. {n}" caption. An
// image whose bytes don't decode is logged and skipped; its caption is not
// emitted and the figure counter does not advance.
func (a *assembler) writeFigures(images []paper.Image) {
	for _, img := range images {
		if err := a.doc.AddPicture(img.Data, 3*docx.EMUPerInch); err != nil {
			logging.WarningLogger.Printf("skipping figure %q: %v", img.Caption, err)
			continue
		}
		a.figures++
		a.caption(fmt.Sprintf("Fig. %d: %s", a.figures, img.Caption))
	}
}

// writeTables renders each grid with a "Table {n}" caption. A table with
// inconsistent row lengths is logged and skipped without consuming an ordinal.
func (a *assembler) writeTables(tables []paper.Table) {
	for _, t := range tables {
		if err := a.doc.AddTable(t, a.tableWidth); err != nil {
			logging.WarningLogger.Printf("skipping table: %v", err)
			continue
		}
		a.tables++
		a.caption(fmt.Sprintf("Table %d: Data Table", a.tables))
	}
}

// writeFormulas renders each formula at 2" width with an "Equation
// {prefix}.{local}" caption. The local index is the formula's input ordinal, so
// a failed render leaves a gap rather than renumbering what follows. Failures
// never touch the figure counter.
func (a *assembler) writeFormulas(formulas []string, prefix string) {
	for j, f := range formulas {
		img, err := a.formulas.Render(f)
		if err != nil {
			logging.WarningLogger.Printf("skipping formula %q: %v", f, err)
			continue
		}
		if err := a.doc.AddPicture(img, 2*docx.EMUPerInch); err != nil {
			logging.WarningLogger.Printf("skipping formula %q: %v", f, err)
			continue
		}
		a.caption(fmt.Sprintf("Equation %s.%d: %s", prefix, j+1, f))
	}
}

// writeReferences emits the references block: a heading and one bracketed,
// numbered paragraph per reference.
func (a *assembler) writeReferences(refs []string) {
	a.writeHeading("References")
	for i, ref := range refs {
		a.doc.AddParagraph().AddRun(fmt.Sprintf("[%d] %s", i+1, ref))
	}
}

// writeAppendix emits lettered appendix items when any exist.
func (a *assembler) writeAppendix(items []string) {
	if len(items) == 0 {
		return
	}
	a.writeHeading("Appendix")
	for i, item := range items {
		p := a.doc.AddParagraph().Align(docx.AlignJustified).FirstLineIndent(720)
		p.AddRun(fmt.Sprintf("%c. %s", 'A'+rune(i), item))
	}
}
