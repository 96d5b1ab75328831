package dom

import (
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseHTML builds a document from HTML markup. Attributes are applied
// with SetAttribute so that style and contenteditable take effect.
func ParseHTML(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	d := NewDocument()
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if m := d.convert(c); m != nil {
			d.node.appendParsed(m)
		}
	}
	return d, nil
}

// MustParseHTML is ParseHTML on a string that panics on error. It is
// meant for fixtures.
func MustParseHTML(markup string) *Document {
	d, err := ParseHTML(strings.NewReader(markup))
	if err != nil {
		panic(err)
	}
	return d
}

// ParseFragment parses markup as the content of a body element and
// returns it as a detached fragment owned by d.
func (d *Document) ParseFragment(markup string) (*Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return nil, err
	}
	frag := d.CreateDocumentFragment()
	for _, hn := range nodes {
		if m := d.convert(hn); m != nil {
			frag.appendParsed(m)
		}
	}
	return frag, nil
}

func (d *Document) convert(hn *html.Node) *Node {
	var n *Node
	switch hn.Type {
	case html.ElementNode:
		n = d.CreateElement(strings.ToLower(hn.Data))
		for _, a := range hn.Attr {
			n.SetAttribute(a.Key, a.Val)
		}
	case html.TextNode:
		return d.CreateTextNode(hn.Data)
	case html.CommentNode:
		return d.CreateComment(hn.Data)
	case html.DoctypeNode:
		return d.CreateDocumentType(hn.Data)
	default:
		return nil
	}
	for c := hn.FirstChild; c != nil; c = c.NextSibling {
		if m := d.convert(c); m != nil {
			n.appendParsed(m)
		}
	}
	return n
}
