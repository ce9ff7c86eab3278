package render

import (
	"paper-press-app/config"
	"paper-press-app/internal/docx"
)

// layout owns page geometry and the single column switch between the title
// block and the two-column body.
type layout struct {
	doc  *docx.Document
	page config.PageConfig
}

func newLayout(doc *docx.Document, page config.PageConfig) *layout {
	return &layout{doc: doc, page: page}
}

// initializePage applies page dimensions, margins and the base font. The title
// region starts single-column.
func (l *layout) initializePage() {
	l.doc.SetBaseStyle(l.page.BaseFont, l.page.BaseSize)
	l.doc.SetPageSize(l.page.PageWidth, l.page.PageHeight)
	l.doc.SetMargins(l.page.MarginTop, l.page.MarginRight, l.page.MarginBottom, l.page.MarginLeft)
	l.doc.SetColumns(1, 0)
}

// insertSectionBreak appends a continuous section boundary and switches the
// column count for everything after it.
func (l *layout) insertSectionBreak(columns int) {
	l.doc.InsertContinuousBreak()
	l.doc.SetColumns(columns, l.page.ColumnGap)
}

// bodyColumnWidth is the usable width of one body column in twips.
func (l *layout) bodyColumnWidth(columns int) int {
	usable := l.page.PageWidth - l.page.MarginLeft - l.page.MarginRight
	if columns <= 1 {
		return usable
	}
	return (usable - (columns-1)*l.page.ColumnGap) / columns
}
