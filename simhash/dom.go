package simhash

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// blockAtoms are the elements treated as one unit of content.
var blockAtoms = map[atom.Atom]bool{
	atom.P: true, atom.Li: true, atom.Blockquote: true, atom.Pre: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Dd: true, atom.Dt: true, atom.Td: true, atom.Th: true, atom.Figcaption: true,
	atom.Div: true, atom.Section: true, atom.Article: true, atom.Table: true,
	atom.Ul: true, atom.Ol: true, atom.Dl: true, atom.Tr: true,
}

// DedupBlocks removes leaf blocks (blocks without nested blocks) whose text
// is a near-duplicate of an earlier leaf block. Blocks shorter than minWords
// are always kept, since short labels legitimately repeat. The markup is
// returned unchanged if it cannot be parsed.
func DedupBlocks(markup string, threshold, minWords int) string {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return markup
	}
	body := findBody(doc)
	if body == nil {
		return markup
	}

	idx := NewIndex(threshold)
	var drop []*html.Node
	walkLeafBlocks(body, func(n *html.Node) {
		text := nodeText(n)
		if len(strings.Fields(text)) < minWords {
			return
		}
		if idx.Seen(text) {
			drop = append(drop, n)
		}
	})
	if len(drop) == 0 {
		return markup
	}
	for _, n := range drop {
		n.Parent.RemoveChild(n)
	}

	var buf bytes.Buffer
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return markup
		}
	}
	return buf.String()
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Body {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}

// walkLeafBlocks calls fn for every block element in document order that has
// no block descendant. It reports whether n contains a block.
func walkLeafBlocks(n *html.Node, fn func(*html.Node)) bool {
	hasBlock := false
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if walkLeafBlocks(c, fn) {
			hasBlock = true
		}
	}
	if n.Type != html.ElementNode || !blockAtoms[n.DataAtom] {
		return hasBlock
	}
	if !hasBlock {
		fn(n)
	}
	return true
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		case n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style):
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}
