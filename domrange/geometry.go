package domrange

import (
	"image"

	"github.com/rjkroege/domedit/dom"
	"github.com/rjkroege/domedit/treepos"
)

// LayoutProvider supplies the on-screen geometry of laid out nodes.
type LayoutProvider interface {
	// TextRects returns the boxes covering characters [start, end) of
	// the text node n. It returns nil if n is not laid out.
	TextRects(n *dom.Node, start, end int) []image.Rectangle

	// Box returns the border box of the replaced element n.
	Box(n *dom.Node) (image.Rectangle, bool)
}

// Rects returns the layout rectangles of the text and replaced elements
// inside r, in document order.
func (r *Range) Rects(lp LayoutProvider) []image.Rectangle {
	if r.doc == nil || r.Collapsed() {
		return nil
	}
	var rects []image.Rectangle
	past := r.PastLastNode()
	for n := r.FirstNode(); n != nil && n != past; n = n.TraverseNext(nil) {
		switch {
		case n.Kind().IsText():
			start, end := 0, n.Capacity()
			if n == r.start.container {
				start = r.start.offset
			}
			if n == r.end.container {
				end = r.end.offset
			}
			if start < end {
				rects = append(rects, lp.TextRects(n, start, end)...)
			}
		case n.IsReplaced():
			if n.Parent() == nil || r.comparePosition(treepos.After(n)) != 0 {
				continue
			}
			if b, ok := lp.Box(n); ok {
				rects = append(rects, b)
			}
		}
	}
	return rects
}

// BoundingBox returns the union of Rects. It is the empty rectangle when
// nothing in r is laid out.
func (r *Range) BoundingBox(lp LayoutProvider) image.Rectangle {
	var u image.Rectangle
	for _, b := range r.Rects(lp) {
		u = u.Union(b)
	}
	return u
}
