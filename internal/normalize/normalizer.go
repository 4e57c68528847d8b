// Package normalize flattens OCR/markdown-converted document text into
// a scannable form plus its recovered structure (sections and tables).
package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Section is one heading block recovered from the converted text
type Section struct {
	Level   int    `json:"level"`
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

// Table is one tabular structure recovered from the converted text
type Table struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// Document is the normalized form of one converted document.
// FlatText preserves content words and case with markup removed;
// ScanText is its lowercase form used for keyword scanning.
type Document struct {
	FlatText  string
	ScanText  string
	Sections  []Section
	Tables    []Table
	WordCount int
}

var (
	atxHeadingRe  = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*#*\s*$`)
	horizontalRe  = regexp.MustCompile(`^\s*([-*_]\s*){3,}$`)
	tableSepRe    = regexp.MustCompile(`^\s*\|?[\s:|-]+\|[\s:|-]*$`)
	boldItalicRe  = regexp.MustCompile(`(\*\*|__|\*|_)([^*_]+)(\*\*|__|\*|_)`)
	imageLinkRe   = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	inlineLinkRe  = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	backtickRe    = regexp.MustCompile("`+")
	whitespaceRe  = regexp.MustCompile(`\s+`)
)

// Normalize converts raw document text into its normalized form.
// It never fails: garbled or absent markup degrades to empty sections
// and tables, never to an error.
func Normalize(raw string) Document {
	lines := strings.Split(raw, "\n")

	var flat strings.Builder
	var sections []Section
	var tables []Table

	var current *Section
	var table *Table

	flushTable := func() {
		if table != nil && len(table.Headers) > 0 {
			tables = append(tables, *table)
		}
		table = nil
	}
	appendBody := func(s string) {
		if current != nil {
			if current.Body != "" {
				current.Body += " "
			}
			current.Body += s
		}
	}

	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		trimmed := strings.TrimSpace(line)

		if trimmed == "" || horizontalRe.MatchString(trimmed) {
			flushTable()
			continue
		}

		// Table rows: markdown pipe syntax
		if strings.HasPrefix(trimmed, "|") || strings.Count(trimmed, "|") >= 2 {
			if tableSepRe.MatchString(trimmed) {
				continue
			}
			cells := splitTableRow(trimmed)
			if len(cells) > 0 {
				if table == nil {
					table = &Table{Headers: cells}
				} else {
					table.Rows = append(table.Rows, cells)
				}
				for _, c := range cells {
					flat.WriteString(c)
					flat.WriteString(" ")
				}
				continue
			}
		}
		flushTable()

		// Headings: markdown ATX or short ALL-CAPS lines common in OCR output
		if m := atxHeadingRe.FindStringSubmatch(trimmed); m != nil {
			heading := cleanInline(m[2])
			sections = append(sections, Section{Level: len(m[1]), Heading: heading})
			current = &sections[len(sections)-1]
			flat.WriteString(heading)
			flat.WriteString(" ")
			continue
		}
		if isCapsHeading(trimmed) {
			heading := cleanInline(trimmed)
			sections = append(sections, Section{Level: 1, Heading: heading})
			current = &sections[len(sections)-1]
			flat.WriteString(heading)
			flat.WriteString(" ")
			continue
		}

		text := cleanInline(trimmed)
		if text == "" {
			continue
		}
		appendBody(text)
		flat.WriteString(text)
		flat.WriteString(" ")
	}
	flushTable()

	flatText := strings.TrimSpace(whitespaceRe.ReplaceAllString(flat.String(), " "))

	return Document{
		FlatText:  flatText,
		ScanText:  strings.ToLower(flatText),
		Sections:  sections,
		Tables:    tables,
		WordCount: len(strings.Fields(flatText)),
	}
}

// cleanInline strips inline markdown markers and residual HTML tags
// from a line, keeping only content words
func cleanInline(s string) string {
	s = imageLinkRe.ReplaceAllString(s, "$1")
	s = inlineLinkRe.ReplaceAllString(s, "$1")
	s = boldItalicRe.ReplaceAllString(s, "$2")
	s = backtickRe.ReplaceAllString(s, "")
	s = strings.TrimLeft(s, "> ")
	if strings.Contains(s, "<") {
		s = stripHTML(s)
	}
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// stripHTML flattens residual HTML fragments that document converters
// leave behind (<br>, <b>, <span> and the like), keeping text nodes
func stripHTML(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.TrimSpace(buf.String())
}

// splitTableRow splits a markdown table row into trimmed cells
func splitTableRow(line string) []string {
	line = strings.Trim(line, "|")
	parts := strings.Split(line, "|")

	var cells []string
	for _, p := range parts {
		cell := cleanInline(strings.TrimSpace(p))
		if cell != "" {
			cells = append(cells, cell)
		}
	}
	return cells
}

// isCapsHeading reports whether a line looks like an OCR'd document
// heading: short, all uppercase, mostly letters
func isCapsHeading(line string) bool {
	words := strings.Fields(line)
	if len(words) == 0 || len(words) > 8 {
		return false
	}

	letters := 0
	for _, r := range line {
		if r >= 'a' && r <= 'z' {
			return false
		}
		if r >= 'A' && r <= 'Z' {
			letters++
		}
	}
	// Require real words, not a stray number or recording stamp
	return letters >= 4 && letters*2 >= len(line)
}
