package paper

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
)

// latexPattern is a shallow well-formedness filter: formulas must at least start
// with a backslash command. It is not a parser; strings that pass can still fail
// at render time and are skipped there.
var latexPattern = regexp.MustCompile(`^\\[a-zA-Z]+(\{[^}]*\})*`)

// FieldError reports a request field that failed validation. The boundary layer
// maps it to a 400 response; anything else is a render failure.
type FieldError struct {
	msg string
}

func (e *FieldError) Error() string {
	return e.msg
}

func fieldErrorf(format string, args ...any) *FieldError {
	return &FieldError{msg: fmt.Sprintf(format, args...)}
}

// Invalidf lets the boundary layer report malformed payloads as field errors.
func Invalidf(format string, args ...any) *FieldError {
	return fieldErrorf(format, args...)
}

// Validate checks a request and returns a validated Paper copy. The request is
// never mutated; formula filtering and image decoding happen on the copy.
func Validate(req *PaperRequest) (*Paper, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, fieldErrorf("Title is required")
	}
	for _, author := range req.Authors {
		if strings.TrimSpace(author) == "" {
			return nil, fieldErrorf("All authors must be non-empty")
		}
	}
	for _, aff := range req.Affiliations {
		if strings.TrimSpace(aff) == "" {
			return nil, fieldErrorf("All affiliations must be non-empty")
		}
	}
	for _, email := range req.Emails {
		if strings.TrimSpace(email) == "" {
			return nil, fieldErrorf("All emails must be non-empty")
		}
	}
	if strings.TrimSpace(req.Abstract) == "" {
		return nil, fieldErrorf("Abstract is required")
	}
	if len(req.Keywords) == 0 {
		return nil, fieldErrorf("At least one keyword is required")
	}
	if len(req.Sections) == 0 {
		return nil, fieldErrorf("At least one section is required")
	}

	p := &Paper{
		Title:        req.Title,
		Authors:      append([]string(nil), req.Authors...),
		Affiliations: append([]string(nil), req.Affiliations...),
		Emails:       append([]string(nil), req.Emails...),
		Abstract:     req.Abstract,
		Keywords:     append([]string(nil), req.Keywords...),
		References:   append([]string(nil), req.References...),
		Appendix:     append([]string(nil), req.Appendix...),
	}

	for idx, sec := range req.Sections {
		if strings.TrimSpace(sec.Heading) == "" {
			return nil, fieldErrorf("Section %d is missing heading", idx+1)
		}
		hasContent := strings.TrimSpace(sec.Content) != ""
		if !hasContent && len(sec.Subsections) == 0 {
			return nil, fieldErrorf("Section %d must have content or subsections", idx+1)
		}

		images, err := decodeImages(sec.Images, fmt.Sprintf("section %q", sec.Heading))
		if err != nil {
			return nil, err
		}

		validated := Section{
			Heading:  sec.Heading,
			Content:  sec.Content,
			Images:   images,
			Formulas: filterFormulas(sec.Formulas),
			Tables:   copyTables(sec.Tables),
		}

		for subIdx, sub := range sec.Subsections {
			if strings.TrimSpace(sub.Heading) == "" {
				return nil, fieldErrorf("Subsection %d.%d is missing heading", idx+1, subIdx+1)
			}
			if strings.TrimSpace(sub.Content) == "" {
				return nil, fieldErrorf("Subsection %d.%d is missing content", idx+1, subIdx+1)
			}
			subImages, err := decodeImages(sub.Images, fmt.Sprintf("subsection %q", sub.Heading))
			if err != nil {
				return nil, err
			}
			validated.Subsections = append(validated.Subsections, Subsection{
				Heading:  sub.Heading,
				Content:  sub.Content,
				Images:   subImages,
				Formulas: filterFormulas(sub.Formulas),
				Tables:   copyTables(sub.Tables),
			})
		}

		p.Sections = append(p.Sections, validated)
	}

	return p, nil
}

func decodeImages(images []ImageData, where string) ([]Image, error) {
	var decoded []Image
	for _, img := range images {
		data, err := base64.StdEncoding.DecodeString(img.Data)
		if err != nil {
			return nil, fieldErrorf("Invalid base64 image in %s", where)
		}
		decoded = append(decoded, Image{Caption: img.Caption, Data: data})
	}
	return decoded, nil
}

func filterFormulas(formulas []string) []string {
	var kept []string
	for _, f := range formulas {
		if latexPattern.MatchString(strings.TrimSpace(f)) {
			kept = append(kept, f)
		}
	}
	return kept
}

func copyTables(tables []Table) []Table {
	var out []Table
	for _, t := range tables {
		table := make(Table, len(t))
		for i, row := range t {
			table[i] = append([]string(nil), row...)
		}
		out = append(out, table)
	}
	return out
}
