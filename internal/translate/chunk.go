package translate

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/ebrasseur/fichedoc/internal/htmlx"
)

// DefaultMaxChunkChars keeps each backend call well under typical
// request limits while leaving enough context for consistent wording.
const DefaultMaxChunkChars = 4500

// Chunks splits an HTML fragment on top-level block boundaries so no
// chunk exceeds maxChars, never cutting inside a block. A list too
// large on its own is split into runs of whole items, each run wrapped
// in the original list tag. A single oversize block is emitted as its
// own chunk rather than truncated.
func Chunks(fragment string, maxChars int) ([]string, error) {
	if maxChars <= 0 {
		maxChars = DefaultMaxChunkChars
	}
	container, err := htmlx.ParseFragment(fragment)
	if err != nil {
		return nil, err
	}

	var chunks []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
	}
	add := func(s string) {
		if cur.Len() > 0 && cur.Len()+len(s) > maxChars {
			flush()
		}
		cur.WriteString(s)
	}

	for c := container.FirstChild; c != nil; c = c.NextSibling {
		s := render(c)
		if len(s) <= maxChars {
			add(s)
			continue
		}
		if isSplittableList(c) {
			flush()
			chunks = append(chunks, splitList(c, maxChars)...)
			continue
		}
		// One indivisible oversize block.
		flush()
		chunks = append(chunks, s)
	}
	flush()
	return chunks, nil
}

func render(n *html.Node) string {
	var b strings.Builder
	html.Render(&b, n)
	return b.String()
}

func isSplittableList(n *html.Node) bool {
	if n.Type != html.ElementNode || (n.Data != "ul" && n.Data != "ol") {
		return false
	}
	count := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "li" {
			count++
		}
	}
	return count > 1
}

// splitList emits runs of whole list items, each wrapped in the list's
// own open and close tags so every chunk stays valid markup. Ordered
// lists carry a start attribute so numbering survives the split.
func splitList(list *html.Node, maxChars int) []string {
	closeTag := "</" + list.Data + ">"
	openTag := func(start int) string {
		if list.Data == "ol" && start > 1 {
			return fmt.Sprintf("<ol start=\"%d\">", start)
		}
		return "<" + list.Data + ">"
	}

	var chunks []string
	var items strings.Builder
	start, count := 1, 0
	flush := func() {
		if items.Len() > 0 {
			chunks = append(chunks, openTag(start)+items.String()+closeTag)
			items.Reset()
			start += count
			count = 0
		}
	}
	for c := list.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.Data != "li" {
			continue
		}
		s := render(c)
		if items.Len() > 0 && len(closeTag)+len(openTag(start))+items.Len()+len(s) > maxChars {
			flush()
		}
		items.WriteString(s)
		count++
	}
	flush()
	return chunks
}

// hasText reports whether a chunk carries any translatable text.
func hasText(chunk string) bool {
	container, err := htmlx.ParseFragment(chunk)
	if err != nil {
		return true
	}
	return strings.TrimSpace(htmlx.InnerText(container)) != ""
}
