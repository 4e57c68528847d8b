package model

// ChainKind distinguishes the two custody chain flavors
type ChainKind string

const (
	ChainKindEndorsement ChainKind = "endorsement" // Endorsements on a note or allonge
	ChainKindAssignment  ChainKind = "assignment"  // Recorded assignor→assignee transfers
)

// TransferKind classifies a single transfer
type TransferKind string

const (
	TransferSpecific TransferKind = "specific" // Transfer to a named party
	TransferBlank    TransferKind = "blank"    // Blank/bearer endorsement, terminal
)

// RecordingInfo holds county recording metadata captured near a transfer.
// All fields are opportunistic; a link is valid without any of them.
type RecordingInfo struct {
	Book             string `json:"book,omitempty"`
	Page             string `json:"page,omitempty"`
	InstrumentNumber string `json:"instrument_number,omitempty"`
	Date             string `json:"date,omitempty"`
}

// Empty reports whether no recording metadata was captured
func (r RecordingInfo) Empty() bool {
	return r.Book == "" && r.Page == "" && r.InstrumentNumber == "" && r.Date == ""
}

// TransferEvent is one link in a custody chain
type TransferEvent struct {
	Sequence  int            `json:"sequence"`             // 1-based, strictly increasing and contiguous
	FromParty string         `json:"from_party,omitempty"` // Transferor; may be inferred from the prior link
	ToParty   string         `json:"to_party,omitempty"`   // Transferee; empty for blank endorsements
	Kind      TransferKind   `json:"kind"`                 // specific or blank
	RawText   string         `json:"raw_text"`             // Matched source text, for audit
	Recording *RecordingInfo `json:"recording,omitempty"`  // Nearby recording metadata, if any
	IsGap     bool           `json:"is_gap"`               // FromParty does not match prior ToParty
}

// Chain is an ordered custody chain with gap and holder annotations.
// A zero-length chain means no transfers were detected, which is a
// distinct condition from a broken chain.
type Chain struct {
	Kind                ChainKind       `json:"kind"`
	Links               []TransferEvent `json:"links"`
	EndsInBlank         bool            `json:"ends_in_blank"`          // Terminal link is a blank endorsement
	EndsWithKnownHolder bool            `json:"ends_with_known_holder"` // Terminal party matches the holder registry
}

// HasGaps reports whether any link is marked as a gap
func (c Chain) HasGaps() bool {
	for _, l := range c.Links {
		if l.IsGap {
			return true
		}
	}
	return false
}

// CurrentHolder returns the terminal party of the chain, or "" when the
// chain is empty or ends in a blank endorsement (bearer paper).
func (c Chain) CurrentHolder() string {
	if len(c.Links) == 0 {
		return ""
	}
	last := c.Links[len(c.Links)-1]
	if last.Kind == TransferBlank {
		return ""
	}
	return last.ToParty
}
