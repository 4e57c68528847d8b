package chain

import (
	"fmt"
	"regexp"
	"strings"
)

// HolderRegistry identifies the servicer's own affiliated holding
// entities. It is supplied as configuration, not compiled in: the set
// of affiliates is deployment-specific and changes over time.
type HolderRegistry struct {
	names    []string // Folded entity names, matched by containment
	patterns []*regexp.Regexp
}

// NewHolderRegistry builds a registry from exact names and regular
// expression patterns
func NewHolderRegistry(names []string, patterns []string) (*HolderRegistry, error) {
	r := &HolderRegistry{}

	for _, n := range names {
		if folded := Fold(n); folded != "" {
			r.names = append(r.names, folded)
		}
	}

	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("holder pattern %q: %w", p, err)
		}
		r.patterns = append(r.patterns, re)
	}

	return r, nil
}

// Empty reports whether the registry has no entries
func (r *HolderRegistry) Empty() bool {
	return r == nil || (len(r.names) == 0 && len(r.patterns) == 0)
}

// Match reports whether the party name identifies a known affiliated
// holder. Name entries match by folded containment, so "Lakeview Loan
// Servicing" matches "Lakeview Loan Servicing, LLC".
func (r *HolderRegistry) Match(party string) bool {
	if r.Empty() || party == "" {
		return false
	}

	folded := Fold(party)
	for _, n := range r.names {
		if strings.Contains(folded, n) {
			return true
		}
	}
	for _, re := range r.patterns {
		if re.MatchString(party) {
			return true
		}
	}
	return false
}
