// Package repair reconstructs author intent from the structurally
// broken list markup a word-processor conversion produces: phantom
// bullet paragraphs, single-item wrapper lists, ordered lists split by
// continuation paragraphs, and mis-nested sublists.
//
// Every rule is defensive: unexpected tree shapes are skipped, never
// fatal, because the input is an uncontrolled authored document. The
// pass runs to a fixed point within a bounded number of iterations.
package repair

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ebrasseur/fichedoc/internal/heading"
	"github.com/ebrasseur/fichedoc/internal/htmlx"
)

// MaxPasses bounds the fixed-point iteration.
const MaxPasses = 10

// Run applies repair passes until nothing changes or MaxPasses is
// reached. It returns the number of passes that made changes.
func Run(root *html.Node) int {
	passes := 0
	for i := 0; i < MaxPasses; i++ {
		if Apply(root) == 0 {
			break
		}
		passes++
	}
	return passes
}

// Apply executes one pass of all repair rules and returns the number
// of changes made.
func Apply(root *html.Node) int {
	changes := 0
	changes += dropBulletOnly(root)
	changes += dropEmptyNestedParagraphs(root)
	changes += dropEmptyLists(root)
	changes += collapseWrapperItems(root)
	changes += unwrapItemlessLists(root)
	changes += mergeSplitOrderedLists(root)
	changes += promoteMisnestedSublists(root)
	return changes
}

// RunHTML is the string-level convenience: parse, repair to fixed
// point, serialize.
func RunHTML(fragment string) (string, error) {
	container, err := htmlx.ParseFragment(fragment)
	if err != nil {
		return "", err
	}
	Run(container)
	return htmlx.RenderChildren(container), nil
}

var bulletTrimSet = "•◦▪‣·-–—* \t\n "

// bulletOnly reports text that is nothing but bullet glyphs and
// whitespace.
func bulletOnly(s string) bool {
	return strings.Trim(s, bulletTrimSet) == ""
}

func hasRealContent(n *html.Node) bool {
	found := false
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found {
			return
		}
		if htmlx.IsElement(n, atom.Img, atom.Table, atom.A) {
			found = true
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return found
}

// dropBulletOnly removes paragraphs and list items whose entire text
// content is bullet glyphs or whitespace (rule 1).
func dropBulletOnly(root *html.Node) int {
	var victims []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if !htmlx.IsElement(n, atom.P, atom.Li) {
			return
		}
		// Items that wrap a sublist are handled by the collapse rule.
		if len(listChildren(n)) > 0 {
			return
		}
		if bulletOnly(htmlx.InnerText(n)) && !hasRealContent(n) {
			victims = append(victims, n)
		}
	}
	walk(root)
	for _, v := range victims {
		htmlx.Detach(v)
	}
	return len(victims)
}

// dropEmptyNestedParagraphs removes empty <p> directly inside <li>
// (rule 2).
func dropEmptyNestedParagraphs(root *html.Node) int {
	var victims []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if !htmlx.IsElement(n, atom.Li) {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if htmlx.IsElement(c, atom.P) &&
				strings.TrimSpace(htmlx.InnerText(c)) == "" &&
				!hasRealContent(c) {
				victims = append(victims, c)
			}
		}
	}
	walk(root)
	for _, v := range victims {
		htmlx.Detach(v)
	}
	return len(victims)
}

// dropEmptyLists removes lists left with no items and no nested
// lists, which the bullet-only rule produces from a list whose every
// item was a bare glyph.
func dropEmptyLists(root *html.Node) int {
	var victims []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if !isList(n) {
			return
		}
		if len(itemChildren(n)) == 0 && len(listChildren(n)) == 0 &&
			strings.TrimSpace(htmlx.InnerText(n)) == "" && !hasRealContent(n) {
			victims = append(victims, n)
		}
	}
	walk(root)
	for _, v := range victims {
		htmlx.Detach(v)
	}
	return len(victims)
}

// collapseWrapperItems handles a list item with no direct text and
// exactly one child list (rule 3): a single-item parent of a
// different-kind child is replaced by the child; a same-kind child has
// its items spliced in as direct siblings.
func collapseWrapperItems(root *html.Node) int {
	changes := 0
	for {
		li := findWrapperItem(root)
		if li == nil {
			return changes
		}
		child := listChildren(li)[0]
		parent := li.Parent

		if sameListKind(parent, child) {
			for _, item := range htmlx.ChildElements(child) {
				htmlx.Detach(item)
				parent.InsertBefore(item, li)
			}
			htmlx.Detach(li)
		} else if len(itemChildren(parent)) == 1 && parent.Parent != nil {
			htmlx.Detach(child)
			parent.Parent.InsertBefore(child, parent)
			htmlx.Detach(parent)
		} else {
			// Multi-item parent with a different-kind wrapped child:
			// splice the items anyway rather than loop forever.
			for _, item := range htmlx.ChildElements(child) {
				htmlx.Detach(item)
				parent.InsertBefore(item, li)
			}
			htmlx.Detach(li)
		}
		changes++
	}
}

func findWrapperItem(root *html.Node) *html.Node {
	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if htmlx.IsElement(n, atom.Li) && n.Parent != nil && isList(n.Parent) {
			lists := listChildren(n)
			if len(lists) == 1 && strings.TrimSpace(htmlx.DirectText(n)) == "" && !directContent(n) {
				found = n
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return found
}

// directContent reports images or links outside nested lists.
func directContent(li *html.Node) bool {
	var found bool
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found {
			return
		}
		if htmlx.IsElement(n, atom.Img, atom.A, atom.Table) {
			found = true
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if isList(c) {
				continue
			}
			walk(c)
		}
	}
	for c := li.FirstChild; c != nil; c = c.NextSibling {
		if isList(c) {
			continue
		}
		walk(c)
	}
	return found
}

// unwrapItemlessLists replaces a list that has no items but exactly
// one nested list with that nested list (rule 4).
func unwrapItemlessLists(root *html.Node) int {
	changes := 0
	for {
		var found *html.Node
		var walk func(*html.Node)
		walk = func(n *html.Node) {
			if found != nil {
				return
			}
			if isList(n) && n.Parent != nil {
				items := itemChildren(n)
				lists := listChildren(n)
				if len(items) == 0 && len(lists) == 1 {
					found = n
					return
				}
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
		}
		walk(root)
		if found == nil {
			return changes
		}
		child := listChildren(found)[0]
		htmlx.Detach(child)
		found.Parent.InsertBefore(child, found)
		htmlx.Detach(found)
		changes++
	}
}

// mergeSplitOrderedLists merges two ordered lists that are adjacent or
// separated only by continuation paragraphs (rule 5). Intervening
// paragraphs are appended to the last item of the first list.
func mergeSplitOrderedLists(root *html.Node) int {
	changes := 0
	var parents []*html.Node
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		parents = append(parents, n)
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(root)

	for _, parent := range parents {
		for {
			if !mergeOnce(parent) {
				break
			}
			changes++
		}
	}
	return changes
}

func mergeOnce(parent *html.Node) bool {
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if !htmlx.IsElement(c, atom.Ol) {
			continue
		}
		var between []*html.Node
		next := c.NextSibling
		for next != nil {
			if next.Type == html.TextNode && strings.TrimSpace(next.Data) == "" {
				next = next.NextSibling
				continue
			}
			if htmlx.IsElement(next, atom.P) && !headingShaped(next) {
				between = append(between, next)
				next = next.NextSibling
				continue
			}
			break
		}
		if next == nil || !htmlx.IsElement(next, atom.Ol) {
			continue
		}

		// A first list with no items has nowhere to carry the
		// intervening paragraphs; merging would delete them.
		last := lastItem(c)
		if last == nil {
			continue
		}
		for _, p := range between {
			htmlx.Detach(p)
			last.AppendChild(p)
		}
		for _, item := range htmlx.ChildElements(next) {
			htmlx.Detach(item)
			c.AppendChild(item)
		}
		htmlx.Detach(next)
		return true
	}
	return false
}

// headingShaped guards the merge: a paragraph is treated as a stray
// section heading only when it is entirely bold and short without
// sentence punctuation. Ordinary notes between list fragments merge.
func headingShaped(p *html.Node) bool {
	text := strings.TrimSpace(htmlx.InnerText(p))
	if text == "" {
		return false
	}
	if !heading.LooksLikeHeading(text) {
		return false
	}
	return fullyBold(p)
}

func fullyBold(p *html.Node) bool {
	for c := p.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			if strings.TrimSpace(c.Data) != "" {
				return false
			}
			continue
		}
		if !htmlx.IsElement(c, atom.Strong, atom.B) {
			return false
		}
	}
	return p.FirstChild != nil
}

// promoteMisnestedSublists lifts a nested ordered sublist of 2-6 items
// up to be siblings of its parent item (rule 6), but only when the
// parent carries substantial direct text and at least half the sublist
// items are substantial themselves. Genuine short outlines stay put.
func promoteMisnestedSublists(root *html.Node) int {
	changes := 0
	for {
		var li, sub *html.Node
		var walk func(*html.Node)
		walk = func(n *html.Node) {
			if li != nil {
				return
			}
			if htmlx.IsElement(n, atom.Li) && n.Parent != nil && htmlx.IsElement(n.Parent, atom.Ol) {
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					if htmlx.IsElement(c, atom.Ol) && shouldPromote(n, c) {
						li, sub = n, c
						return
					}
				}
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
		}
		walk(root)
		if li == nil {
			return changes
		}
		parent := li.Parent
		ref := li.NextSibling
		for _, item := range htmlx.ChildElements(sub) {
			htmlx.Detach(item)
			if ref != nil {
				parent.InsertBefore(item, ref)
			} else {
				parent.AppendChild(item)
			}
		}
		htmlx.Detach(sub)
		changes++
	}
}

const (
	promoteParentMinText = 40
	promoteItemMinText   = 30
	promoteMinItems      = 2
	promoteMaxItems      = 6
)

func shouldPromote(li, sub *html.Node) bool {
	items := itemChildren(sub)
	if len(items) < promoteMinItems || len(items) > promoteMaxItems {
		return false
	}
	if len(strings.TrimSpace(htmlx.DirectText(li))) < promoteParentMinText {
		return false
	}
	substantial := 0
	for _, item := range items {
		if len(strings.TrimSpace(htmlx.InnerText(item))) >= promoteItemMinText {
			substantial++
		}
	}
	return substantial*2 >= len(items)
}

func isList(n *html.Node) bool {
	return htmlx.IsElement(n, atom.Ul, atom.Ol)
}

func sameListKind(a, b *html.Node) bool {
	return a != nil && b != nil && a.Type == html.ElementNode && b.Type == html.ElementNode &&
		a.DataAtom == b.DataAtom && isList(a)
}

func listChildren(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if isList(c) {
			out = append(out, c)
		}
	}
	return out
}

func itemChildren(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if htmlx.IsElement(c, atom.Li) {
			out = append(out, c)
		}
	}
	return out
}

func lastItem(list *html.Node) *html.Node {
	items := itemChildren(list)
	if len(items) == 0 {
		return nil
	}
	return items[len(items)-1]
}
