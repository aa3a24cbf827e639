package turn

import (
	"fmt"
	"strings"

	"golang.org/x/net/idna"
)

// MatchMode decides when a candidate name and a verified name refer to the
// same domain.
type MatchMode string

const (
	// MatchExact compares names byte for byte.
	MatchExact MatchMode = "exact"
	// MatchFoldCase ignores letter case.
	MatchFoldCase MatchMode = "fold_case"
	// MatchCanonical ignores case, surrounding space and a trailing root dot,
	// and compares internationalized names in their ASCII form.
	MatchCanonical MatchMode = "canonical"
)

// ParseMatchMode maps a config value to a MatchMode. Empty means exact.
func ParseMatchMode(s string) (MatchMode, error) {
	switch m := MatchMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return MatchExact, nil
	case MatchExact, MatchFoldCase, MatchCanonical:
		return m, nil
	default:
		return "", fmt.Errorf("unknown match mode %q", s)
	}
}

// Key returns the comparison key for domain under m.
func (m MatchMode) Key(domain string) string {
	switch m {
	case MatchFoldCase:
		return strings.ToLower(domain)
	case MatchCanonical:
		return canonicalKey(domain)
	default:
		return domain
	}
}

func canonicalKey(domain string) string {
	d := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")
	if d == "" {
		return d
	}
	if ascii, err := idna.Lookup.ToASCII(d); err == nil {
		return ascii
	}
	// Lookup rejects names outside STD3 rules (underscores, for one); fall
	// back to plain punycode so such names still compare consistently.
	if ascii, err := idna.Punycode.ToASCII(d); err == nil {
		return ascii
	}
	return d
}
