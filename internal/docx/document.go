// Package docx writes minimal DOCX (Office Open XML) packages: a ZIP container
// holding word/document.xml, word/styles.xml, relationship parts and embedded
// media. It covers only what an IEEE-style paper needs.
package docx

import "encoding/xml"

// XML namespaces used in DOCX parts.
const (
	nsW   = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsR   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsWP  = "http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"
	nsA   = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsPic = "http://schemas.openxmlformats.org/drawingml/2006/picture"

	nsContentTypes  = "http://schemas.openxmlformats.org/package/2006/content-types"
	nsRelationships = "http://schemas.openxmlformats.org/package/2006/relationships"

	relTypeDocument = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	relTypeStyles   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles"
	relTypeImage    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"

	contentTypeDocument = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
	contentTypeStyles   = "application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"
)

// documentXML is the root of word/document.xml. Element names carry literal
// prefixes; the namespaces are declared once on the root.
type documentXML struct {
	XMLName xml.Name `xml:"w:document"`
	NsW     string   `xml:"xmlns:w,attr"`
	NsR     string   `xml:"xmlns:r,attr"`
	NsWP    string   `xml:"xmlns:wp,attr"`
	NsA     string   `xml:"xmlns:a,attr"`
	NsPic   string   `xml:"xmlns:pic,attr"`
	Body    bodyXML  `xml:"w:body"`
}

// bodyXML holds paragraphs and tables in document order, then the properties of
// the final section.
type bodyXML struct {
	Elements []any
	SectPr   *sectPrXML
}

type paragraphXML struct {
	XMLName xml.Name      `xml:"w:p"`
	Props   *paraPropsXML `xml:"w:pPr"`
	Runs    []*runXML
}

// paraPropsXML fields follow the CT_PPr schema order.
type paraPropsXML struct {
	Style   *valXML     `xml:"w:pStyle"`
	Spacing *spacingXML `xml:"w:spacing"`
	Indent  *indentXML  `xml:"w:ind"`
	Justify *valXML     `xml:"w:jc"`
	SectPr  *sectPrXML
}

type runXML struct {
	XMLName xml.Name     `xml:"w:r"`
	Props   *runPropsXML `xml:"w:rPr"`
	Text    *textXML
	Drawing *drawingXML
}

type runPropsXML struct {
	Bold      *flagXML `xml:"w:b"`
	Color     *valXML  `xml:"w:color"`
	Size      *valXML  `xml:"w:sz"`
	Underline *valXML  `xml:"w:u"`
}

type textXML struct {
	XMLName xml.Name `xml:"w:t"`
	Space   string   `xml:"xml:space,attr,omitempty"`
	Value   string   `xml:",chardata"`
}

type valXML struct {
	Val string `xml:"w:val,attr"`
}

// flagXML marks boolean toggle elements such as <w:b/>.
type flagXML struct{}

type spacingXML struct {
	Before int `xml:"w:before,attr"`
	After  int `xml:"w:after,attr"`
}

type indentXML struct {
	FirstLine int `xml:"w:firstLine,attr"`
}

type sectPrXML struct {
	XMLName xml.Name     `xml:"w:sectPr"`
	Type    *valXML      `xml:"w:type"`
	PgSz    *pageSizeXML `xml:"w:pgSz"`
	PgMar   *pageMarXML  `xml:"w:pgMar"`
	Cols    *colsXML     `xml:"w:cols"`
}

type pageSizeXML struct {
	W int `xml:"w:w,attr"`
	H int `xml:"w:h,attr"`
}

type pageMarXML struct {
	Top    int `xml:"w:top,attr"`
	Right  int `xml:"w:right,attr"`
	Bottom int `xml:"w:bottom,attr"`
	Left   int `xml:"w:left,attr"`
	Header int `xml:"w:header,attr"`
	Footer int `xml:"w:footer,attr"`
	Gutter int `xml:"w:gutter,attr"`
}

type colsXML struct {
	Num   int `xml:"w:num,attr"`
	Space int `xml:"w:space,attr"`
}

type tableXML struct {
	XMLName xml.Name      `xml:"w:tbl"`
	Props   tablePropsXML `xml:"w:tblPr"`
	Grid    tableGridXML  `xml:"w:tblGrid"`
	Rows    []tableRowXML
}

type tablePropsXML struct {
	Style *valXML      `xml:"w:tblStyle"`
	Width *tblWidthXML `xml:"w:tblW"`
}

type tblWidthXML struct {
	W    int    `xml:"w:w,attr"`
	Type string `xml:"w:type,attr"`
}

type tableGridXML struct {
	Cols []gridColXML
}

type gridColXML struct {
	XMLName xml.Name `xml:"w:gridCol"`
	W       int      `xml:"w:w,attr"`
}

type tableRowXML struct {
	XMLName xml.Name `xml:"w:tr"`
	Cells   []tableCellXML
}

type tableCellXML struct {
	XMLName xml.Name      `xml:"w:tc"`
	Props   *cellPropsXML `xml:"w:tcPr"`
	Paras   []*paragraphXML
}

type cellPropsXML struct {
	Width *tblWidthXML `xml:"w:tcW"`
}

// drawingXML is an inline DrawingML picture.
type drawingXML struct {
	XMLName xml.Name  `xml:"w:drawing"`
	Inline  inlineXML `xml:"wp:inline"`
}

type inlineXML struct {
	Extent  extentXML  `xml:"wp:extent"`
	DocPr   docPrXML   `xml:"wp:docPr"`
	Graphic graphicXML `xml:"a:graphic"`
}

type extentXML struct {
	CX int64 `xml:"cx,attr"`
	CY int64 `xml:"cy,attr"`
}

type docPrXML struct {
	ID   int    `xml:"id,attr"`
	Name string `xml:"name,attr"`
}

type graphicXML struct {
	Data graphicDataXML `xml:"a:graphicData"`
}

type graphicDataXML struct {
	URI string `xml:"uri,attr"`
	Pic picXML `xml:"pic:pic"`
}

type picXML struct {
	NvPicPr  nvPicPrXML  `xml:"pic:nvPicPr"`
	BlipFill blipFillXML `xml:"pic:blipFill"`
	SpPr     spPrXML     `xml:"pic:spPr"`
}

type nvPicPrXML struct {
	CNvPr    docPrXML `xml:"pic:cNvPr"`
	CNvPicPr flagXML  `xml:"pic:cNvPicPr"`
}

type blipFillXML struct {
	Blip    blipXML    `xml:"a:blip"`
	Stretch stretchXML `xml:"a:stretch"`
}

type blipXML struct {
	Embed string `xml:"r:embed,attr"`
}

type stretchXML struct {
	FillRect flagXML `xml:"a:fillRect"`
}

type spPrXML struct {
	Xfrm xfrmXML `xml:"a:xfrm"`
	Geom geomXML `xml:"a:prstGeom"`
}

type xfrmXML struct {
	Off offXML `xml:"a:off"`
	Ext extXML `xml:"a:ext"`
}

type offXML struct {
	X int64 `xml:"x,attr"`
	Y int64 `xml:"y,attr"`
}

type extXML struct {
	CX int64 `xml:"cx,attr"`
	CY int64 `xml:"cy,attr"`
}

type geomXML struct {
	Prst  string  `xml:"prst,attr"`
	AvLst flagXML `xml:"a:avLst"`
}

// Package-level parts.

type contentTypesXML struct {
	XMLName   xml.Name `xml:"Types"`
	Xmlns     string   `xml:"xmlns,attr"`
	Defaults  []ctDefaultXML
	Overrides []ctOverrideXML
}

type ctDefaultXML struct {
	XMLName     xml.Name `xml:"Default"`
	Extension   string   `xml:"Extension,attr"`
	ContentType string   `xml:"ContentType,attr"`
}

type ctOverrideXML struct {
	XMLName     xml.Name `xml:"Override"`
	PartName    string   `xml:"PartName,attr"`
	ContentType string   `xml:"ContentType,attr"`
}

type relationshipsXML struct {
	XMLName xml.Name `xml:"Relationships"`
	Xmlns   string   `xml:"xmlns,attr"`
	Rels    []relationshipXML
}

type relationshipXML struct {
	XMLName xml.Name `xml:"Relationship"`
	ID      string   `xml:"Id,attr"`
	Type    string   `xml:"Type,attr"`
	Target  string   `xml:"Target,attr"`
}
