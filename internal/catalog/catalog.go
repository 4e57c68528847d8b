// Package catalog holds the data-only pattern configuration the
// classifier scores against. Adding or tuning a document type is a
// catalog change, not a code change.
package catalog

import (
	"regexp"
	"sort"

	"github.com/nplvision/titletrace/internal/model"
)

// Detector is a structural shape signal: each occurrence of the
// pattern contributes its weight to the type score
type Detector struct {
	Name    string
	Pattern *regexp.Regexp
	Weight  float64
}

// Spec is the complete pattern set for one document type
type Spec struct {
	Type model.DocumentType

	// HeaderSignatures are matched against the first ~500 characters
	// of the scan text and against every section heading. A hit
	// multiplies the running score.
	HeaderSignatures []*regexp.Regexp

	HighKeywords     []string // +25 each, distinct, word-bounded
	MediumKeywords   []string // +10 each
	NegativeKeywords []string // Any hit multiplies the score by the negative penalty

	Detectors []Detector

	// TableHints are additional phrases that only score when found in
	// a table header or section heading.
	TableHints []string

	// Threshold is the minimum confidence to accept this verdict;
	// below it the result is forced to Other.
	Threshold float64

	// Norm is the score normalization constant in the confidence
	// formula.
	Norm float64
}

// Catalog is the immutable, process-wide pattern configuration
type Catalog struct {
	specs map[model.DocumentType]*Spec

	// Compiled word-bounded keyword patterns, shared across specs
	keywordRes map[string]*regexp.Regexp
}

// New builds a catalog from the given specs, compiling keyword
// patterns once
func New(specs []*Spec) *Catalog {
	c := &Catalog{
		specs:      make(map[model.DocumentType]*Spec),
		keywordRes: make(map[string]*regexp.Regexp),
	}
	for _, s := range specs {
		c.specs[s.Type] = s
		for _, kw := range s.HighKeywords {
			c.compileKeyword(kw)
		}
		for _, kw := range s.MediumKeywords {
			c.compileKeyword(kw)
		}
		for _, kw := range s.NegativeKeywords {
			c.compileKeyword(kw)
		}
		for _, kw := range s.TableHints {
			c.compileKeyword(kw)
		}
	}
	return c
}

// Spec returns the pattern spec for a document type, or nil
func (c *Catalog) Spec(t model.DocumentType) *Spec {
	return c.specs[t]
}

// Types returns every document type the catalog covers: the canonical
// candidates first, then catalog-defined extras in name order
func (c *Catalog) Types() []model.DocumentType {
	var types []model.DocumentType
	seen := make(map[model.DocumentType]bool)
	for _, t := range model.CandidateTypes {
		if _, ok := c.specs[t]; ok {
			types = append(types, t)
			seen[t] = true
		}
	}
	var extras []model.DocumentType
	for t := range c.specs {
		if !seen[t] {
			extras = append(extras, t)
		}
	}
	sort.Slice(extras, func(i, j int) bool { return extras[i] < extras[j] })
	return append(types, extras...)
}

// MatchKeyword reports whether the keyword occurs word-bounded in the
// scan text
func (c *Catalog) MatchKeyword(scanText, keyword string) bool {
	re, ok := c.keywordRes[keyword]
	if !ok {
		re = c.compileKeyword(keyword)
	}
	return re.MatchString(scanText)
}

func (c *Catalog) compileKeyword(keyword string) *regexp.Regexp {
	if re, ok := c.keywordRes[keyword]; ok {
		return re
	}
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(keyword) + `\b`)
	c.keywordRes[keyword] = re
	return re
}

// Shared entity detector patterns. Scan text is lowercase, so the
// patterns are written lowercase.
var (
	currencyRe  = regexp.MustCompile(`\$\s?[0-9][0-9,]*(?:\.[0-9]{2})?`)
	recordingRe = regexp.MustCompile(`\b(?:instrument|document|recording)\s*(?:no\.?|number|#)\s*:?\s*[0-9][0-9a-z-]*|\bbook\s+[0-9]+\s*,?\s*(?:at\s+)?page\s+[0-9]+`)
	notaryRe    = regexp.MustCompile(`\bnotary public\b|\backnowledged before me\b|\bbefore me personally appeared\b|\bcommission expires\b|\bsubscribed and sworn\b`)
	dateRe      = regexp.MustCompile(`\b(?:january|february|march|april|may|june|july|august|september|october|november|december)\s+[0-9]{1,2},?\s+(?:19|20)[0-9]{2}\b|\b[0-9]{1,2}/[0-9]{1,2}/(?:19|20)?[0-9]{2}\b`)
)

// Default returns the built-in pattern catalog. The keyword priorities
// mirror the labels used for the servicer's document corpus.
func Default() *Catalog {
	return New([]*Spec{
		{
			Type: model.DocTypeNote,
			HeaderSignatures: []*regexp.Regexp{
				regexp.MustCompile(`\bpromissory note\b`),
				regexp.MustCompile(`\ballonge\b`),
				regexp.MustCompile(`\bballoon note\b`),
				regexp.MustCompile(`^\W*(?:interest[ -]only\s+)?note\b`),
			},
			HighKeywords: []string{
				"promissory note", "promise to pay", "pay to the order",
				"allonge", "principal amount", "maturity date",
			},
			MediumKeywords: []string{
				"interest rate", "note holder", "late charge",
				"prepayment", "monthly payment", "in return for a loan",
				"without recourse",
			},
			NegativeKeywords: []string{
				"assignment of mortgage", "assignment of deed of trust",
				"this mortgage secures",
			},
			Detectors: []Detector{
				{Name: "currency", Pattern: currencyRe, Weight: 2},
				{Name: "date", Pattern: dateRe, Weight: 1},
			},
			TableHints: []string{"loan amount", "interest rate", "borrower"},
			Threshold:  0.30,
			Norm:       150,
		},
		{
			Type: model.DocTypeSecurityInstrument,
			HeaderSignatures: []*regexp.Regexp{
				regexp.MustCompile(`\bthis mortgage\b`),
				regexp.MustCompile(`\bdeed of trust\b`),
				regexp.MustCompile(`\bsecurity instrument\b`),
				regexp.MustCompile(`^\W*(?:open-end\s+)?mortgage\b`),
			},
			HighKeywords: []string{
				"this mortgage", "deed of trust", "security instrument",
				"grant and convey", "first lien",
			},
			MediumKeywords: []string{
				"lender", "mortgagee", "mortgagor", "trustee",
				"covenants", "rider", "together with all improvements",
				"recording requested by",
			},
			NegativeKeywords: []string{
				"assignment of mortgage", "assignment of deed of trust",
				"allonge",
			},
			Detectors: []Detector{
				{Name: "notary", Pattern: notaryRe, Weight: 2},
				{Name: "recording", Pattern: recordingRe, Weight: 2},
				{Name: "currency", Pattern: currencyRe, Weight: 1},
			},
			TableHints: []string{"legal description", "parcel", "county"},
			Threshold:  0.30,
			Norm:       200,
		},
		{
			Type: model.DocTypeAssignment,
			HeaderSignatures: []*regexp.Regexp{
				regexp.MustCompile(`\bassignment of mortgage\b`),
				regexp.MustCompile(`\bassignment of deed of trust\b`),
				regexp.MustCompile(`\bcorporate assignment\b`),
				regexp.MustCompile(`^\W*assignment\b`),
			},
			HighKeywords: []string{
				"assignment of mortgage", "assignment of deed of trust",
				"assignor", "assignee", "hereby assigns",
				"sells, assigns and transfers",
			},
			MediumKeywords: []string{
				"all beneficial interest",
				"together with the note",
				"mortgage electronic registration systems", "mers",
				"recorded in", "successors and assigns",
			},
			NegativeKeywords: []string{
				"promise to pay", "allonge",
			},
			Detectors: []Detector{
				{Name: "recording", Pattern: recordingRe, Weight: 4},
				{Name: "notary", Pattern: notaryRe, Weight: 3},
				{Name: "date", Pattern: dateRe, Weight: 1},
			},
			TableHints: []string{"assignor", "assignee", "recording date"},
			// Misclassifying a generic document as an assignment has the
			// largest downstream legal consequence, so this threshold is
			// the strictest.
			Threshold: 0.40,
			Norm:      180,
		},
	})
}
