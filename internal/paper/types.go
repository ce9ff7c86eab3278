package paper

// PaperRequest is the wire shape of a render request. Image data arrives
// base64-encoded; nothing in here is trusted until Validate has produced a Paper.
type PaperRequest struct {
	Title        string           `json:"title"`
	Authors      []string         `json:"authors"`
	Affiliations []string         `json:"affiliations"`
	Emails       []string         `json:"emails"`
	Abstract     string           `json:"abstract"`
	Keywords     []string         `json:"keywords"`
	Sections     []SectionRequest `json:"sections"`
	References   []string         `json:"references"`
	Appendix     []string         `json:"appendix,omitempty"`
}

type SectionRequest struct {
	Heading     string              `json:"heading"`
	Content     string              `json:"content"`
	Images      []ImageData         `json:"images,omitempty"`
	Formulas    []string            `json:"formulas,omitempty"`
	Tables      []Table             `json:"tables,omitempty"`
	Subsections []SubsectionRequest `json:"subsections,omitempty"`
}

type SubsectionRequest struct {
	Heading  string      `json:"heading"`
	Content  string      `json:"content"`
	Images   []ImageData `json:"images,omitempty"`
	Formulas []string    `json:"formulas,omitempty"`
	Tables   []Table     `json:"tables,omitempty"`
}

// ImageData carries a caption and the base64-encoded image bytes.
type ImageData struct {
	Caption string `json:"caption"`
	Data    string `json:"data"`
}

// Table is a rectangular grid of cell values. The first row's length is
// authoritative for the column count.
type Table [][]string

// Paper is the validated content tree consumed by the renderer. It is a copy:
// validation never mutates the request it was built from.
type Paper struct {
	Title        string
	Authors      []string
	Affiliations []string
	Emails       []string
	Abstract     string
	Keywords     []string
	Sections     []Section
	References   []string
	Appendix     []string
}

type Section struct {
	Heading     string
	Content     string
	Images      []Image
	Formulas    []string
	Tables      []Table
	Subsections []Subsection
}

type Subsection struct {
	Heading  string
	Content  string
	Images   []Image
	Formulas []string
	Tables   []Table
}

// Image holds decoded raster bytes. The bytes are only sanity-checked as far as
// base64 decoding; a corrupt payload is skipped at embed time.
type Image struct {
	Caption string
	Data    []byte
}
