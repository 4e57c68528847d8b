// Package classify scores normalized document text against the
// pattern catalog and produces a confidence-weighted type verdict.
package classify

import (
	"strings"

	"github.com/nplvision/titletrace/internal/catalog"
	"github.com/nplvision/titletrace/internal/model"
	"github.com/nplvision/titletrace/internal/normalize"
)

// Keyword hit weights and bonuses. Carried forward from the tuned
// production values; see the config for the re-tunable knobs.
const (
	highKeywordScore   = 25.0
	mediumKeywordScore = 10.0
	highFieldBonus     = 15.0
	mediumFieldBonus   = 7.0
	headerMultiplier   = 1.4
	negativePenalty    = 0.2
	headerWindow       = 500 // Characters of scan text checked for header signatures
	minSections        = 3   // More sections than this earns the structure bonus
)

// Classifier is a stateless scorer over an immutable catalog
type Classifier struct {
	catalog *catalog.Catalog
	cfg     model.ClassifyConfig
}

// New creates a classifier for the given catalog and tuning
func New(cat *catalog.Catalog, cfg model.ClassifyConfig) *Classifier {
	return &Classifier{catalog: cat, cfg: cfg}
}

// Classify scores every candidate type and returns the verdict. It is
// a pure function of the normalized document: identical input yields
// an identical result, and malformed input degrades to a zero-score
// Other verdict rather than an error.
func (c *Classifier) Classify(doc normalize.Document) model.ClassificationResult {
	result := model.ClassificationResult{
		Type:      model.DocTypeOther,
		Scores:    make(map[model.DocumentType]float64),
		WordCount: doc.WordCount,
	}

	// Near-empty text carries no classifiable signal
	if doc.WordCount < c.cfg.MinWords {
		for _, t := range c.catalog.Types() {
			result.Scores[t] = 0
		}
		return result
	}

	structured := structuredFields(doc)

	var best model.DocumentType
	var bestScore, runnerScore float64
	for _, t := range c.catalog.Types() {
		score := c.scoreType(c.catalog.Spec(t), doc, structured)
		result.Scores[t] = score
		if score > bestScore {
			runnerScore = bestScore
			best, bestScore = t, score
		} else if score > runnerScore {
			runnerScore = score
		}
	}

	if bestScore == 0 {
		return result
	}

	spec := c.catalog.Spec(best)
	conf := 0.6*(bestScore-runnerScore)/bestScore + 0.4*min(bestScore/spec.Norm, 1)
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}

	result.Confidence = conf
	result.BestType = best
	if conf < spec.Threshold {
		// Below the acceptance threshold the verdict is forced to
		// Other; the per-type scores stay available for audit.
		result.Forced = true
		return result
	}

	result.Type = best
	return result
}

// scoreType computes the raw score for one document type
func (c *Classifier) scoreType(spec *catalog.Spec, doc normalize.Document, structured []string) float64 {
	score := 0.0

	for _, kw := range spec.HighKeywords {
		if c.catalog.MatchKeyword(doc.ScanText, kw) {
			score += highKeywordScore
		}
		if matchAny(c.catalog, structured, kw) {
			score += highFieldBonus
		}
	}
	for _, kw := range spec.MediumKeywords {
		if c.catalog.MatchKeyword(doc.ScanText, kw) {
			score += mediumKeywordScore
		}
		if matchAny(c.catalog, structured, kw) {
			score += mediumFieldBonus
		}
	}
	for _, hint := range spec.TableHints {
		if matchAny(c.catalog, structured, hint) {
			score += highFieldBonus
		}
	}

	for _, d := range spec.Detectors {
		if n := len(d.Pattern.FindAllStringIndex(doc.ScanText, -1)); n > 0 {
			score += float64(n) * d.Weight
		}
	}

	// Header placement is the single strongest signal and must
	// dominate ambiguous keyword ties.
	if c.matchesHeader(spec, doc) {
		score *= headerMultiplier
	}

	for _, kw := range spec.NegativeKeywords {
		if c.catalog.MatchKeyword(doc.ScanText, kw) {
			score *= negativePenalty
			break
		}
	}

	// Length heuristics: allonges are terse and endorsement-heavy;
	// full notes and security instruments never are.
	if doc.WordCount < c.cfg.ShortDocWords {
		switch spec.Type {
		case model.DocTypeNote:
			if allongeShaped(doc.ScanText) {
				score *= c.cfg.ShortNoteBonus
			} else {
				score *= c.cfg.ShortDocPenalty
			}
		case model.DocTypeSecurityInstrument:
			score *= c.cfg.ShortDocPenalty
		}
	}
	if len(doc.Sections) > minSections {
		score *= c.cfg.SectionBonus
	}

	return score
}

// matchesHeader reports whether any header signature matches the
// leading scan text or a section heading
func (c *Classifier) matchesHeader(spec *catalog.Spec, doc normalize.Document) bool {
	head := doc.ScanText
	if len(head) > headerWindow {
		head = head[:headerWindow]
	}
	for _, sig := range spec.HeaderSignatures {
		if sig.MatchString(head) {
			return true
		}
		for _, s := range doc.Sections {
			if sig.MatchString(strings.ToLower(s.Heading)) {
				return true
			}
		}
	}
	return false
}

// structuredFields collects lowercase section headings and table
// headers for the structured-field bonus
func structuredFields(doc normalize.Document) []string {
	var fields []string
	for _, s := range doc.Sections {
		fields = append(fields, strings.ToLower(s.Heading))
	}
	for _, t := range doc.Tables {
		for _, h := range t.Headers {
			fields = append(fields, strings.ToLower(h))
		}
	}
	return fields
}

func matchAny(cat *catalog.Catalog, fields []string, keyword string) bool {
	for _, f := range fields {
		if cat.MatchKeyword(f, keyword) {
			return true
		}
	}
	return false
}

// allongeShaped reports whether short-document text carries
// endorsement language
func allongeShaped(scanText string) bool {
	return strings.Contains(scanText, "allonge") ||
		strings.Contains(scanText, "pay to the order") ||
		strings.Contains(scanText, "endorsed to")
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
