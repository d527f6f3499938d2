package heading

import (
	"sort"

	"github.com/agnivade/levenshtein"
)

// fuzzyThreshold is the minimum edit similarity for a fuzzy heading
// match. Tuned conservatively: false positives silently swallow
// content into the wrong section.
const fuzzyThreshold = 0.92

// aliases are the fixed synonym pairs seen across authored documents.
// Keys are normalized alias text, values are canonical label text.
var aliases = map[string]string{
	"description": "Introduction",
	"finance":     "Finances",
	"operateur":   "L'opérateur",
	"risques":     "Facteurs de risque",
}

// Index is the immutable normalized-text -> canonical-label lookup.
// Build it once per document and share it across stages.
type Index struct {
	byKey  map[string]string
	keys   []string // sorted, for deterministic fuzzy scans
	labels []string
}

// NewIndex builds the index from the canonical labels plus an external
// heading mapping (document heading text -> canonical label). Each
// label is indexed under its normalized form; Normalize already strips
// leading numbering, so de-numbered variants resolve too.
func NewIndex(labels []string, mapping map[string]string) *Index {
	ix := &Index{
		byKey:  make(map[string]string, len(labels)*2),
		labels: append([]string(nil), labels...),
	}
	known := make(map[string]bool, len(labels))
	for _, l := range labels {
		known[l] = true
		ix.byKey[Normalize(l)] = l
	}
	for alias, label := range aliases {
		if known[label] {
			ix.byKey[alias] = label
		}
	}
	for text, label := range mapping {
		if known[label] {
			ix.byKey[Normalize(text)] = label
		}
	}
	ix.keys = make([]string, 0, len(ix.byKey))
	for k := range ix.byKey {
		ix.keys = append(ix.keys, k)
	}
	sort.Strings(ix.keys)
	return ix
}

// Labels returns the canonical labels in their configured order.
func (ix *Index) Labels() []string {
	return append([]string(nil), ix.labels...)
}

// Resolve maps heading text to its canonical label by exact
// normalized lookup.
func (ix *Index) Resolve(text string) (string, bool) {
	label, ok := ix.byKey[Normalize(text)]
	return label, ok
}

// ResolveFuzzy falls back to bounded edit-distance matching. It only
// fires when the candidate text independently looks heading-shaped,
// and requires similarity >= fuzzyThreshold against a known key.
func (ix *Index) ResolveFuzzy(text string) (string, bool) {
	if label, ok := ix.Resolve(text); ok {
		return label, true
	}
	if !LooksLikeHeading(text) {
		return "", false
	}
	key := Normalize(text)
	if key == "" {
		return "", false
	}
	bestLabel, bestScore := "", 0.0
	for _, known := range ix.keys {
		score := similarity(key, known)
		if score > bestScore {
			bestLabel, bestScore = ix.byKey[known], score
		}
	}
	if bestScore >= fuzzyThreshold {
		return bestLabel, true
	}
	return "", false
}

// similarity is 1 - dist/maxLen over runes, in [0,1].
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	la, lb := len([]rune(a)), len([]rune(b))
	max := la
	if lb > max {
		max = lb
	}
	if max == 0 {
		return 1
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1 - float64(d)/float64(max)
}
