package render

import (
	"fmt"
	"strings"

	"paper-press-app/config"
	"paper-press-app/internal/docx"
	"paper-press-app/internal/paper"
)

// Builder is the top-level renderer: one Builder per render call, so nothing is
// shared between concurrent requests.
type Builder struct {
	page     config.PageConfig
	formulas FormulaRenderer
}

func NewBuilder(page config.PageConfig, formulas FormulaRenderer) *Builder {
	return &Builder{page: page, formulas: formulas}
}

// Render maps a validated paper onto the two-column template and returns the
// serialized DOCX bytes. Per-element failures (formula, table, image) are
// absorbed by the assembler; Render itself fails only when nothing usable can
// be produced, and never returns partial output.
func (b *Builder) Render(p *paper.Paper) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("document generation failed: %v", r)
		}
	}()

	doc := docx.New()
	lay := newLayout(doc, b.page)
	lay.initializePage()

	b.writeTitleBlock(doc, p)

	// Everything from the abstract on flows in two columns.
	lay.insertSectionBreak(2)

	asm := newAssembler(doc, b.formulas, lay.bodyColumnWidth(2))

	asm.writeHeading("Abstract")
	for _, para := range strings.Split(p.Abstract, "\n") {
		ap := doc.AddParagraph().Align(docx.AlignJustified)
		ap.AddRun(para).Bold()
	}

	asm.writeHeading("Keywords")
	doc.AddParagraph().Align(docx.AlignJustified).AddRun(strings.Join(p.Keywords, ", "))

	for i := range p.Sections {
		asm.writeSection(i+1, &p.Sections[i])
	}

	asm.writeReferences(p.References)
	asm.writeAppendix(p.Appendix)

	out, err = doc.Save()
	if err != nil {
		return nil, fmt.Errorf("serializing document: %w", err)
	}
	return out, nil
}

// writeTitleBlock emits the single-column front matter: uppercased bold title
// and the centered author, affiliation and email lines, then a spacer.
func (b *Builder) writeTitleBlock(doc *docx.Document, p *paper.Paper) {
	title := doc.AddParagraph().Align(docx.AlignCenter)
	title.AddRun(strings.ToUpper(p.Title)).Bold().Size(32)

	lines := []string{
		strings.Join(p.Authors, ", "),
		strings.Join(p.Affiliations, "; "),
		strings.Join(p.Emails, ", "),
	}
	for _, line := range lines {
		doc.AddParagraph().Align(docx.AlignCenter).AddRun(line)
	}

	doc.AddParagraph()
}
