package plan

import "strings"

// baseSensitive is the keyword set that always requires human approval.
var baseSensitive = []string{"payment", "invoice", "money", "bank", "financial"}

// extendedSensitive is the additional set enabled by the extended_sensitivity
// config flag.
var extendedSensitive = []string{"salary", "confidential", "private", "sensitive", "urgent", "critical"}

// IsSensitive reports whether content mentions a sensitive topic. Matching is
// case-insensitive substring search; "Invoice #42" and "prepayment" both
// trip it on purpose.
func IsSensitive(content string, extended bool) bool {
	lower := strings.ToLower(content)
	for _, kw := range baseSensitive {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	if extended {
		for _, kw := range extendedSensitive {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}
