package domrange

import "github.com/rjkroege/domedit/dom"

// The methods in this file make *Range a dom.MutationObserver. The
// document calls them on every mutation; they keep both boundaries
// pointing at the same logical place in the changed tree.

func (r *Range) ChildrenChanged(container *dom.Node) {
	if r.doc == nil {
		return
	}
	childrenChanged(&r.start, container)
	childrenChanged(&r.end, container)
}

func childrenChanged(b *boundary, container *dom.Node) {
	if b.childBefore != nil && b.container == container {
		b.invalidateOffset()
	}
}

func (r *Range) NodeWillBeRemoved(n *dom.Node) {
	if r.doc == nil || n.Parent() == nil {
		return
	}
	nodeWillBeRemoved(&r.start, n)
	nodeWillBeRemoved(&r.end, n)
}

func nodeWillBeRemoved(b *boundary, n *dom.Node) {
	if b.childBefore == n {
		b.childBeforeWillBeRemoved()
		return
	}
	for c := b.container; c != nil; c = c.Parent() {
		if c == n {
			b.setToBeforeChild(n)
			return
		}
	}
}

func (r *Range) TextInserted(n *dom.Node, offset, length int) {
	if r.doc == nil {
		return
	}
	textInserted(&r.start, n, offset, length)
	textInserted(&r.end, n, offset, length)
}

// A boundary at the insertion point stays before the inserted text.
func textInserted(b *boundary, n *dom.Node, offset, length int) {
	if b.container == n && offset < b.offset {
		b.offset += length
	}
}

func (r *Range) TextRemoved(n *dom.Node, offset, length int) {
	if r.doc == nil {
		return
	}
	textRemoved(&r.start, n, offset, length)
	textRemoved(&r.end, n, offset, length)
}

func textRemoved(b *boundary, n *dom.Node, offset, length int) {
	if b.container != n || offset >= b.offset {
		return
	}
	if offset+length >= b.offset {
		b.offset = offset
	} else {
		b.offset -= length
	}
}

func (r *Range) TextNodesMerged(removed *dom.Node, index, offset int) {
	if r.doc == nil {
		return
	}
	textNodesMerged(&r.start, removed, index, offset)
	textNodesMerged(&r.end, removed, index, offset)
}

func textNodesMerged(b *boundary, removed *dom.Node, index, offset int) {
	prev := removed.PreviousSibling()
	if prev == nil {
		return
	}
	switch {
	case b.container == removed:
		b.set(prev, b.offset+offset)
	case b.container == removed.Parent() && b.offset == index:
		b.set(prev, offset)
	}
}

func (r *Range) TextNodeSplit(old *dom.Node) {
	if r.doc == nil {
		return
	}
	textNodeSplit(&r.start, old)
	textNodeSplit(&r.end, old)
}

func textNodeSplit(b *boundary, old *dom.Node) {
	if b.container != old || b.offset <= old.Capacity() {
		return
	}
	if tail := old.NextSibling(); tail != nil {
		b.set(tail, b.offset-old.Capacity())
		return
	}
	b.offset = old.Capacity()
}
