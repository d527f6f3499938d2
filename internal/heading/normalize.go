// Package heading maps author-chosen heading text to the canonical
// section vocabulary: normalization, alias tables and bounded fuzzy
// matching guarded by heading shape.
package heading

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks removes combining marks after canonical decomposition, so
// "Marché" and "Marche" normalize to the same key.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// asciiFold maps the typographic characters common in French copy
// (curly quotes, en/em dashes, NBSP) to ASCII equivalents.
var asciiFold = strings.NewReplacer(
	"’", "'", "‘", "'", // curly apostrophes
	"“", `"`, "”", `"`, // curly double quotes
	"–", "-", "—", "-", // en/em dashes
	" ", " ", " ", " ", // no-break spaces
	"…", "...",
)

var (
	// A bare number needs trailing punctuation ("3." or "3)") to count
	// as numbering; "2026 sera..." keeps its year. Multi-part numbering
	// ("2.1") counts with or without a trailing dot.
	leadingNumRe  = regexp.MustCompile(`^(?:\d+(?:[.)]\d+)+[.)]?|\d+[.)])\s+`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
	decimalLeadRe = regexp.MustCompile(`^\d+[.)]\s`)
)

// Normalize produces the lookup key for heading text: typographic
// characters folded to ASCII, accents stripped, case folded, leading
// numbering and trailing colons removed, whitespace collapsed.
// Normalize is idempotent.
func Normalize(s string) string {
	s = asciiFold.Replace(s)
	if folded, _, err := transform.String(stripMarks, s); err == nil {
		s = folded
	}
	s = strings.ToLower(s)
	s = strings.TrimSpace(s)
	for {
		stripped := leadingNumRe.ReplaceAllString(s, "")
		if stripped == s {
			break
		}
		s = stripped
	}
	s = strings.TrimRight(s, ": \t")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// StripLeadingNumber removes one leading numbering prefix like "2.1) "
// without the rest of the normalization.
func StripLeadingNumber(s string) string {
	return leadingNumRe.ReplaceAllString(strings.TrimSpace(s), "")
}

// HasDecimalPrefix reports whether text begins with a decimal list
// prefix like "3. " or "12) ".
func HasDecimalPrefix(s string) bool {
	return decimalLeadRe.MatchString(strings.TrimSpace(s))
}

// LooksLikeHeading is the shape guard: short, few words, and no
// sentence-ending punctuation. Leading numbering does not count
// against the shape.
func LooksLikeHeading(s string) bool {
	s = StripLeadingNumber(s)
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 80 {
		return false
	}
	if len(strings.Fields(s)) > 11 {
		return false
	}
	return !strings.ContainsAny(s, ".!?")
}
