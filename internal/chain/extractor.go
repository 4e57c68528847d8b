// Package chain reconstructs custody chains from normalized document
// text: endorsement chains on notes and allonges, and assignor to
// assignee chains on recorded assignment instruments. Both kinds share
// one assembly skeleton and differ only in trigger patterns and party
// roles.
package chain

import (
	"regexp"
	"sort"
	"strings"

	"github.com/nplvision/titletrace/internal/model"
	"github.com/nplvision/titletrace/internal/normalize"
)

// entityPattern matches the shape of a legal entity name: a
// capitalized name followed by an organizational suffix, or the
// mortgage-registration nominee. Party matching runs against the
// original-case flat text, so the capitals are meaningful.
const entityPattern = `(?:Mortgage Electronic Registration Systems(?:,? Inc\.?)?|MERS\b|[A-Z][A-Za-z0-9&'.-]*(?:,?[ ](?:of|the|and|for|[A-Z0-9][A-Za-z0-9&'.-]*)){0,8}?,?[ ](?:LLC|L\.L\.C\.|Inc\.?|Incorporated|Corp\.?|Corporation|Company|Co\.|Trust|Trustee|Bank|N\.A\.|National Association|Association|Partners(?:hip)?|LP|L\.P\.|FSB|Fund(?:ing)?|Capital|Servicing)(?:[ ](?:Series[ ])?[0-9]{4}-[A-Za-z0-9]+)?)`

var (
	payOrderRe = regexp.MustCompile(`(?i)\bpay(?:able)?\s+to\s+the\s+order\s+of\b[:\s]*`)
	endorseRe  = regexp.MustCompile(`(?i)\bendorsed?\s+(?:over\s+)?to\b[:\s]*`)
	depositRe  = regexp.MustCompile(`(?i)\bfor\s+deposit\s+only\b`)

	// Applied to the text immediately after a trigger: explicit blank
	// or bearer language, or an OCR'd signature line
	blankTailRe = regexp.MustCompile(`(?i)^[\s_(\[]*(?:in\s+)?(?:blank|bearer)\b|^\s*_{2,}`)

	// Entity anchored right after a trigger phrase
	entityTailRe = regexp.MustCompile(`^\s*(?:the\s+)?(` + entityPattern + `)`)

	// Natural-person payee right after a trigger: two to four
	// capitalized name tokens, initials allowed. Tried only after the
	// entity shape fails.
	personTailRe = regexp.MustCompile(`^\s*((?:[A-Z]\.|[A-Z][A-Za-z'-]+)(?:[ ](?:[A-Z]\.|[A-Z][A-Za-z'-]+)){1,3})`)

	assignorAssigneeRe = regexp.MustCompile(
		`(?i:\bassignor\b[:,\s]+)(?:[Tt]he\s+)?(` + entityPattern + `)` +
			`.{0,250}?` +
			`(?i:\bassignee\b[:,\s]+)(?:[Tt]he\s+)?(` + entityPattern + `)`)

	herebyAssignsRe = regexp.MustCompile(
		`(` + entityPattern + `)` +
			`(?i:[^.]{0,100}?\bhereby\b[^.]{0,160}?\bassigns?\b[^.]{0,100}?\b(?:unto|to)\b[:\s]*)` +
			`(?:[Tt]he\s+)?(` + entityPattern + `)`)

	fromToRe = regexp.MustCompile(
		`(?i:\bfrom\b[:\s]+)(` + entityPattern + `)` +
			`(?i:\s*,?\s+to\b[:\s]+)(?:[Tt]he\s+)?(` + entityPattern + `)`)

	bookPageRe   = regexp.MustCompile(`(?i)\bbook\s+([0-9A-Za-z-]+)\s*,?\s*(?:at\s+)?page\s+([0-9A-Za-z-]+)`)
	instrumentRe = regexp.MustCompile(`(?i)\b(?:instrument|document)\s*(?:no\.?|number|#)\s*:?\s*([0-9][0-9A-Za-z-]*)`)
	recDateRe    = regexp.MustCompile(`(?i)\b(?:dated|recorded)(?:\s+on)?[:\s]+((?:January|February|March|April|May|June|July|August|September|October|November|December)\s+[0-9]{1,2},?\s+(?:19|20)[0-9]{2}|[0-9]{1,2}/[0-9]{1,2}/(?:19|20)?[0-9]{2})`)
)

const (
	partyWindow     = 160 // Characters after a trigger searched for the party name
	recordingWindow = 250 // Characters around a match searched for recording metadata
)

// Extractor finds ordered transfer events in document text. It holds
// only immutable configuration and is safe for concurrent use.
type Extractor struct {
	similarity float64
	registry   *HolderRegistry
}

// NewExtractor creates a chain extractor with the given gap-detection
// similarity threshold and holder registry
func NewExtractor(similarityThreshold float64, registry *HolderRegistry) *Extractor {
	if similarityThreshold <= 0 {
		similarityThreshold = 0.8
	}
	return &Extractor{similarity: similarityThreshold, registry: registry}
}

// rawTransfer is a trigger match before assembly into a chain
type rawTransfer struct {
	pos  int
	from string
	to   string
	kind model.TransferKind
	raw  string
	rec  *model.RecordingInfo
}

// Endorsements extracts the endorsement chain from a note or allonge
func (e *Extractor) Endorsements(doc normalize.Document) model.Chain {
	flat := doc.FlatText
	var raws []rawTransfer

	for _, trigger := range []*regexp.Regexp{payOrderRe, endorseRe} {
		for _, m := range trigger.FindAllStringIndex(flat, -1) {
			tail := flat[m[1]:]
			if len(tail) > partyWindow {
				tail = tail[:partyWindow]
			}

			if em := entityTailRe.FindStringSubmatchIndex(tail); em != nil {
				party := cleanParty(tail[em[2]:em[3]])
				raws = append(raws, rawTransfer{
					pos:  m[0],
					to:   party,
					kind: model.TransferSpecific,
					raw:  strings.TrimSpace(flat[m[0]:m[1]] + tail[:em[3]]),
				})
				continue
			}

			// Blank only when the endorsement says so ("in blank",
			// "bearer", an unfilled signature line) or nothing at all
			// follows the trigger
			if blankTailRe.MatchString(tail) || strings.TrimSpace(tail) == "" {
				raw := strings.TrimSpace(strings.TrimSpace(flat[m[0]:m[1]]) + firstWords(tail, 2))
				raws = append(raws, rawTransfer{
					pos:  m[0],
					kind: model.TransferBlank,
					raw:  raw,
				})
				continue
			}

			// A note endorsed to a natural person is still endorsed to a
			// specific party, not bearer paper
			if pm := personTailRe.FindStringSubmatchIndex(tail); pm != nil {
				party := cleanParty(tail[pm[2]:pm[3]])
				raws = append(raws, rawTransfer{
					pos:  m[0],
					to:   party,
					kind: model.TransferSpecific,
					raw:  strings.TrimSpace(flat[m[0]:m[1]] + tail[:pm[3]]),
				})
			}
			// Anything else is an unreadable tail, not evidence of a
			// transfer
		}
	}

	for _, m := range depositRe.FindAllStringIndex(flat, -1) {
		raws = append(raws, rawTransfer{
			pos:  m[0],
			kind: model.TransferBlank,
			raw:  flat[m[0]:m[1]],
		})
	}

	return e.assemble(model.ChainKindEndorsement, raws)
}

// Assignments extracts the assignment chain from an assignment
// instrument
func (e *Extractor) Assignments(doc normalize.Document) model.Chain {
	flat := doc.FlatText
	var raws []rawTransfer

	collect := func(re *regexp.Regexp) {
		for _, m := range re.FindAllStringSubmatchIndex(flat, -1) {
			from := cleanParty(flat[m[2]:m[3]])
			to := cleanParty(flat[m[4]:m[5]])
			if from == "" || to == "" {
				continue
			}
			raws = append(raws, rawTransfer{
				pos:  m[0],
				from: from,
				to:   to,
				kind: model.TransferSpecific,
				raw:  condense(flat[m[0]:m[1]]),
				rec:  e.recordingNear(flat, m[0], m[1]),
			})
		}
	}

	collect(assignorAssigneeRe)
	collect(herebyAssignsRe)
	// Bare "from X to Y" phrasing only counts in assignment context
	if strings.Contains(doc.ScanText, "assign") {
		collect(fromToRe)
	}

	return e.assemble(model.ChainKindAssignment, raws)
}

// Stitch merges per-document chains of one kind into a single loan
// level chain, re-running dedupe, sequencing, and gap detection across
// document boundaries
func (e *Extractor) Stitch(kind model.ChainKind, chains []model.Chain) model.Chain {
	var raws []rawTransfer
	pos := 0
	for _, c := range chains {
		for _, l := range c.Links {
			raws = append(raws, rawTransfer{
				pos:  pos,
				from: l.FromParty,
				to:   l.ToParty,
				kind: l.Kind,
				raw:  l.RawText,
				rec:  l.Recording,
			})
			pos++
		}
	}
	return e.assemble(kind, raws)
}

// assemble turns raw trigger matches into an ordered, deduplicated
// chain with gap annotations and derived holder flags
func (e *Extractor) assemble(kind model.ChainKind, raws []rawTransfer) model.Chain {
	chain := model.Chain{Kind: kind}

	sort.SliceStable(raws, func(i, j int) bool { return raws[i].pos < raws[j].pos })

	seen := make(map[string]bool)
	for _, r := range raws {
		key := string(r.kind) + "|" + Fold(r.from) + ">" + Fold(r.to)
		if seen[key] {
			continue
		}
		seen[key] = true

		link := model.TransferEvent{
			Sequence:  len(chain.Links) + 1,
			FromParty: r.from,
			ToParty:   r.to,
			Kind:      r.kind,
			RawText:   r.raw,
			Recording: r.rec,
		}

		if n := len(chain.Links); n > 0 {
			prev := chain.Links[n-1]
			if link.FromParty == "" && kind == model.ChainKindEndorsement {
				// An endorsement's transferor is whoever the note was
				// last made payable to
				link.FromParty = prev.ToParty
			} else if link.FromParty != "" && prev.ToParty != "" &&
				Similarity(link.FromParty, prev.ToParty) < e.similarity {
				link.IsGap = true
			}
		}

		chain.Links = append(chain.Links, link)

		// A blank endorsement makes the note bearer paper; ownership
		// tracing stops here unconditionally.
		if r.kind == model.TransferBlank {
			break
		}
	}

	if n := len(chain.Links); n > 0 {
		last := chain.Links[n-1]
		chain.EndsInBlank = last.Kind == model.TransferBlank
		if last.Kind == model.TransferSpecific {
			chain.EndsWithKnownHolder = e.registry.Match(last.ToParty)
		}
	}

	return chain
}

// recordingNear opportunistically captures recording metadata in a
// window around a match. A link is valid without any of it.
func (e *Extractor) recordingNear(flat string, start, end int) *model.RecordingInfo {
	lo := start - recordingWindow
	if lo < 0 {
		lo = 0
	}
	hi := end + recordingWindow
	if hi > len(flat) {
		hi = len(flat)
	}
	window := flat[lo:hi]

	rec := model.RecordingInfo{}
	if m := bookPageRe.FindStringSubmatch(window); m != nil {
		rec.Book, rec.Page = m[1], m[2]
	}
	if m := instrumentRe.FindStringSubmatch(window); m != nil {
		rec.InstrumentNumber = m[1]
	}
	if m := recDateRe.FindStringSubmatch(window); m != nil {
		rec.Date = m[1]
	}

	if rec.Empty() {
		return nil
	}
	return &rec
}

// cleanParty trims connective debris from a captured entity name
func cleanParty(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, ",;:")
	s = strings.TrimPrefix(s, "the ")
	s = strings.TrimPrefix(s, "The ")
	return strings.Join(strings.Fields(s), " ")
}

// condense collapses a raw match span for the audit field
func condense(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > 240 {
		s = s[:240] + "..."
	}
	return s
}

// firstWords returns up to n leading words of s
func firstWords(s string, n int) string {
	fields := strings.Fields(s)
	if len(fields) > n {
		fields = fields[:n]
	}
	if len(fields) == 0 {
		return ""
	}
	return " " + strings.Join(fields, " ")
}
