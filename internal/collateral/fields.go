package collateral

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/nplvision/titletrace/internal/model"
	"github.com/nplvision/titletrace/internal/normalize"
)

// Identifier extraction patterns. These run against the original-case
// flat text so personal-name capitalization stays meaningful; trigger
// words are case-insensitive to survive OCR drift.
var (
	borrowerRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i:\b(?:borrower|mortgagor|maker|obligor)(?:\s+name)?\b[:\s]+)([A-Z][A-Za-z]+(?:\s+[A-Z][A-Za-z]+){0,3})`),
		regexp.MustCompile(`(?i:\b(?:I/We|The undersigned)\b,?\s+)([A-Z][A-Za-z]+(?:\s+[A-Z][A-Za-z]+){0,3})(?i:,?\s+(?:promise|acknowledge|agree))`),
		regexp.MustCompile(`(?i:\bTHIS (?:NOTE|MORTGAGE|DEED OF TRUST) is given by\s+)([A-Z][A-Za-z]+(?:\s+[A-Z][A-Za-z]+){0,3})`),
	}

	addressRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:property address|property located at|street address)\b[:\s]+([0-9]+[^,.;]+(?:,\s*[^,.;]+){1,3})`),
		regexp.MustCompile(`(?i)\b(?:the|said|subject) property (?:is )?located at\b[:\s]+([0-9]+[^,.;]+(?:,\s*[^,.;]+){1,3})`),
		regexp.MustCompile(`(?i)\b([0-9]+\s+[A-Za-z]+\s+(?:Street|St|Avenue|Ave|Road|Rd|Drive|Dr|Lane|Ln|Court|Ct|Boulevard|Blvd)\b[^,.;]*(?:,\s*[^,.;]+){1,2})`),
	}

	amountRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bprincipal\s+(?:amount|sum)\s+of\b[^$0-9]{0,20}\$?\s*([0-9][0-9,]*(?:\.[0-9]{2})?)`),
		regexp.MustCompile(`(?i)\bloan\s+amount\b[:\s]*\$?\s*([0-9][0-9,]*(?:\.[0-9]{2})?)`),
		regexp.MustCompile(`(?i)\bU\.?S\.?\s*\$\s*([0-9][0-9,]*(?:\.[0-9]{2})?)`),
	}

	trailingNoiseRe = regexp.MustCompile(`(?i)\s*(?:\(.*\)|hereinafter.*)$`)
)

// ExtractFields pulls the borrower name, property address, and loan
// amount out of document text for cross-validation. Absent fields stay
// zero; extraction never fails.
func ExtractFields(doc normalize.Document) model.ExtractedFields {
	fields := model.ExtractedFields{}

	for _, re := range borrowerRes {
		if m := re.FindStringSubmatch(doc.FlatText); m != nil {
			fields.BorrowerName = tidy(m[1])
			break
		}
	}

	for _, re := range addressRes {
		if m := re.FindStringSubmatch(doc.FlatText); m != nil {
			fields.PropertyAddress = tidy(trailingNoiseRe.ReplaceAllString(m[1], ""))
			break
		}
	}

	for _, re := range amountRes {
		if m := re.FindStringSubmatch(doc.FlatText); m != nil {
			if amt, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64); err == nil {
				fields.LoanAmount = amt
				break
			}
		}
	}

	return fields
}

func tidy(s string) string {
	return strings.TrimSpace(strings.Join(strings.Fields(s), " "))
}
