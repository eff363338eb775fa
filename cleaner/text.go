package cleaner

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// paragraphAtoms end with a blank line, lineAtoms with a single newline.
var (
	paragraphAtoms = map[atom.Atom]bool{
		atom.P: true, atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true,
		atom.H5: true, atom.H6: true, atom.Blockquote: true, atom.Pre: true,
		atom.Table: true, atom.Ul: true, atom.Ol: true, atom.Dl: true,
		atom.Section: true, atom.Article: true, atom.Header: true, atom.Footer: true,
	}
	lineAtoms = map[atom.Atom]bool{
		atom.Div: true, atom.Li: true, atom.Tr: true, atom.Dt: true, atom.Dd: true,
		atom.Figcaption: true, atom.Main: true, atom.Aside: true, atom.Nav: true,
		atom.Form: true, atom.Hr: true, atom.Br: true, atom.Address: true,
	}
	skipAtoms = map[atom.Atom]bool{
		atom.Script: true, atom.Style: true, atom.Noscript: true, atom.Template: true,
		atom.Head: true, atom.Title: true, atom.Svg: true, atom.Iframe: true,
	}
)

// RenderText converts an HTML fragment to plain text, keeping block
// structure as line breaks: paragraphs are separated by a blank line, other
// blocks by a newline, table cells by a tab. Whitespace inside a line is
// collapsed except within <pre>.
func RenderText(fragment string) string {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return strings.TrimSpace(fragment)
	}

	w := &textWriter{}
	for _, n := range nodes {
		w.walk(n, false)
	}
	return w.String()
}

type textWriter struct {
	sb       strings.Builder
	newlines int  // trailing newlines already written
	space    bool // a collapsed space is pending
}

func (w *textWriter) walk(n *html.Node, pre bool) {
	switch n.Type {
	case html.TextNode:
		w.text(n.Data, pre)
		return
	case html.ElementNode:
		if skipAtoms[n.DataAtom] {
			return
		}
	case html.DocumentNode:
	default:
		return
	}

	switch {
	case paragraphAtoms[n.DataAtom]:
		w.breakLine(2)
	case lineAtoms[n.DataAtom]:
		w.breakLine(1)
	case n.DataAtom == atom.Td || n.DataAtom == atom.Th:
		if w.newlines == 0 && w.sb.Len() > 0 {
			w.sb.WriteByte('\t')
			w.space = false
		}
	}

	inPre := pre || n.DataAtom == atom.Pre
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c, inPre)
	}

	switch {
	case paragraphAtoms[n.DataAtom]:
		w.breakLine(2)
	case lineAtoms[n.DataAtom]:
		w.breakLine(1)
	}
}

func (w *textWriter) text(s string, pre bool) {
	if pre {
		if s != "" {
			w.flushSpace()
			w.sb.WriteString(s)
			w.newlines = trailingNewlines(s)
		}
		return
	}
	for i, field := range strings.Fields(s) {
		if i > 0 || startsWithSpace(s) {
			w.space = true
		}
		w.flushSpace()
		w.sb.WriteString(field)
		w.newlines = 0
	}
	if endsWithSpace(s) {
		w.space = true
	}
}

func (w *textWriter) flushSpace() {
	if w.space && w.newlines == 0 && w.sb.Len() > 0 {
		w.sb.WriteByte(' ')
	}
	w.space = false
}

// breakLine makes sure the output ends with at least n newlines.
func (w *textWriter) breakLine(n int) {
	w.space = false
	if w.sb.Len() == 0 {
		return
	}
	for w.newlines < n {
		w.sb.WriteByte('\n')
		w.newlines++
	}
}

func (w *textWriter) String() string {
	return strings.TrimSpace(w.sb.String())
}

func trailingNewlines(s string) int {
	n := 0
	for i := len(s) - 1; i >= 0 && s[i] == '\n'; i-- {
		n++
	}
	return n
}

func startsWithSpace(s string) bool {
	return s != "" && strings.TrimLeft(s, " \t\r\n\f") != s
}

func endsWithSpace(s string) bool {
	return s != "" && strings.TrimRight(s, " \t\r\n\f") != s
}
