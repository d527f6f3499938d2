package render

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ebrasseur/fichedoc/internal/htmlx"
)

// ListBuilder assembles consecutive list items into nested ol/ul
// markup. Non-list blocks close any open list; a deeper item opens a
// sublist attached to the last item of the enclosing list.
type ListBuilder struct {
	out   []*html.Node
	stack []listFrame
}

type listFrame struct {
	node    *html.Node
	ordered bool
	level   int
}

func NewListBuilder() *ListBuilder {
	return &ListBuilder{}
}

// AddItem appends a list item at the given nesting level, opening and
// closing lists as needed.
func (b *ListBuilder) AddItem(ordered bool, level int, content []*html.Node) {
	for len(b.stack) > 0 {
		top := b.stack[len(b.stack)-1]
		if top.level > level || (top.level == level && top.ordered != ordered) {
			b.stack = b.stack[:len(b.stack)-1]
			continue
		}
		break
	}

	if len(b.stack) == 0 || b.stack[len(b.stack)-1].level < level {
		list := htmlx.Element(atom.Ul)
		if ordered {
			list = htmlx.Element(atom.Ol)
		}
		if len(b.stack) == 0 {
			b.out = append(b.out, list)
		} else {
			parent := b.stack[len(b.stack)-1].node
			if last := lastListItem(parent); last != nil {
				last.AppendChild(list)
			} else {
				parent.AppendChild(list)
			}
		}
		b.stack = append(b.stack, listFrame{node: list, ordered: ordered, level: level})
	}

	li := htmlx.Element(atom.Li)
	for _, n := range content {
		li.AppendChild(n)
	}
	b.stack[len(b.stack)-1].node.AppendChild(li)
}

// AddBlock appends a non-list block, closing any open lists first.
func (b *ListBuilder) AddBlock(n *html.Node) {
	b.stack = nil
	b.out = append(b.out, n)
}

// Nodes closes all open lists and returns the assembled sequence.
func (b *ListBuilder) Nodes() []*html.Node {
	b.stack = nil
	return b.out
}

func lastListItem(list *html.Node) *html.Node {
	for c := list.LastChild; c != nil; c = c.PrevSibling {
		if htmlx.IsElement(c, atom.Li) {
			return c
		}
	}
	return nil
}
