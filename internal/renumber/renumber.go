// Package renumber applies the business-defined orderings that three
// sections carry regardless of how the author physically ordered or
// formatted their items: risk factors, investment rationale and
// budget. Everything is best-effort: an item that is not found is
// omitted, never fabricated, and numbering stays gapless.
package renumber

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ebrasseur/fichedoc/internal/heading"
	"github.com/ebrasseur/fichedoc/internal/htmlx"
)

// sectionSpec drives the renumbering of one section: match patterns in
// canonical order, plus whether titles are re-rendered as emphasized
// free-standing paragraphs (budget style) or relabeled in place.
type sectionSpec struct {
	patterns []string // normalized substrings, canonical order
	emphasis bool     // italic+underline rebuild, list numbering neutralized
}

var sectionSpecs = map[string]sectionSpec{
	"facteurs de risque": {
		patterns: []string{
			"risque lie au projet",
			"risque lie au secteur",
			"risque de defaut",
		},
	},
	"les bonnes raisons d'investir": {
		// The fiducie item takes position 1 only when the assurance
		// item is absent; gapless sequential numbering over the found
		// items yields exactly that.
		patterns: []string{
			"assurance",
			"fiducie",
		},
	},
	"budget": {
		patterns: []string{
			"prix de revient",
			"financement et ratios",
			"revenus et marges",
			"couverture des interets",
			"stress test",
		},
		emphasis: true,
	},
}

// Forced reports whether a canonical section label carries a mandatory
// ordering.
func Forced(label string) bool {
	_, ok := sectionSpecs[heading.Normalize(label)]
	return ok
}

// Renumber re-derives the canonical item order for the given section
// and relabels matched items "1. ...", "2. ...". It is a pure
// function; unmatched sections and unparseable fragments are returned
// unchanged.
func Renumber(sectionHTML, label string) string {
	spec, ok := sectionSpecs[heading.Normalize(label)]
	if !ok {
		return sectionHTML
	}
	container, err := htmlx.ParseFragment(sectionHTML)
	if err != nil {
		return sectionHTML
	}

	matches := matchItems(container, spec.patterns)
	if len(matches) == 0 {
		return sectionHTML
	}

	reorder(matches)

	for i, m := range matches {
		if spec.emphasis {
			emphasizeTitle(m.node, i+1)
		} else {
			relabel(m.node, i+1)
		}
	}
	return htmlx.RenderChildren(container)
}

type match struct {
	node *html.Node
	rank int // index into spec.patterns
}

// matchItems walks candidate items (list items and paragraphs) and
// pairs each pattern, in canonical order, with the first node whose
// normalized text contains it. Titles embedded in bold or italic
// wrappers match through InnerText.
func matchItems(container *html.Node, patterns []string) []match {
	var candidates []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if htmlx.IsElement(n, atom.Li, atom.P) {
			candidates = append(candidates, n)
			// A title never nests inside another title candidate.
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(container)

	used := make(map[*html.Node]bool)
	var matches []match
	for rank, pat := range patterns {
		for _, c := range candidates {
			if used[c] {
				continue
			}
			if strings.Contains(heading.Normalize(htmlx.InnerText(c)), pat) {
				used[c] = true
				matches = append(matches, match{node: c, rank: rank})
				break
			}
		}
	}
	return matches
}

// reorder moves matched titles into canonical order when they all
// share one parent. A title's block is the title plus its following
// siblings up to the next title, so body content travels with it.
// Content before the first title keeps its place; items scattered
// across parents are relabeled in place without moving.
func reorder(matches []match) {
	if len(matches) < 2 {
		return
	}
	parent := matches[0].node.Parent
	for _, m := range matches[1:] {
		if m.node.Parent != parent {
			return
		}
	}

	matched := make(map[*html.Node]bool, len(matches))
	for _, m := range matches {
		matched[m.node] = true
	}

	var children []*html.Node
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		children = append(children, c)
	}

	blocks := make(map[*html.Node][]*html.Node, len(matches))
	var cur *html.Node
	anchor := &html.Node{Type: html.CommentNode, Data: "anchor"}
	for _, c := range children {
		if matched[c] {
			if cur == nil {
				parent.InsertBefore(anchor, c)
			}
			cur = c
		}
		if cur != nil {
			blocks[cur] = append(blocks[cur], c)
		}
	}

	for _, m := range matches {
		for _, n := range blocks[m.node] {
			htmlx.Detach(n)
		}
	}
	// matches is already rank-ordered (built pattern by pattern).
	for _, m := range matches {
		for _, n := range blocks[m.node] {
			parent.InsertBefore(n, anchor)
		}
	}
	parent.RemoveChild(anchor)
}

var leadingOrdinalRe = regexp.MustCompile(`^\s*\d+\s*[.)\-]?\s+`)

// relabel prefixes the item with its ordinal after removing any
// author-typed one, leaving the rest of the content untouched.
func relabel(n *html.Node, ordinal int) {
	stripLeadingOrdinal(n)
	n.InsertBefore(htmlx.Text(strconv.Itoa(ordinal)+". "), n.FirstChild)
}

// stripLeadingOrdinal rewrites the first non-empty text descendant.
func stripLeadingOrdinal(n *html.Node) {
	var first *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if first != nil {
			return
		}
		if n.Type == html.TextNode && strings.TrimSpace(n.Data) != "" {
			first = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	if first != nil {
		first.Data = leadingOrdinalRe.ReplaceAllString(first.Data, "")
	}
}

// emphasizeTitle rebuilds a budget subtitle as italic+underlined text
// with its ordinal. When the title sits inside an ordered list the
// list is downgraded so the browser adds no numbering of its own.
func emphasizeTitle(n *html.Node, ordinal int) {
	text := strings.TrimSpace(htmlx.InnerText(n))
	text = leadingOrdinalRe.ReplaceAllString(text, "")

	for n.FirstChild != nil {
		n.RemoveChild(n.FirstChild)
	}
	em := htmlx.Element(atom.Em)
	u := htmlx.Element(atom.U)
	u.AppendChild(htmlx.Text(strconv.Itoa(ordinal) + ". " + text))
	em.AppendChild(u)
	n.AppendChild(em)

	if htmlx.IsElement(n, atom.Li) && n.Parent != nil && htmlx.IsElement(n.Parent, atom.Ol, atom.Ul) {
		neutralizeList(n.Parent)
	}
}

// neutralizeList suppresses a list's markers without disturbing the
// item order.
func neutralizeList(list *html.Node) {
	list.DataAtom = atom.Ul
	list.Data = "ul"
	htmlx.SetAttr(list, "style", "list-style:none")
}
