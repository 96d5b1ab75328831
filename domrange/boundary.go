package domrange

import (
	"github.com/rjkroege/domedit/dom"
	"github.com/rjkroege/domedit/treepos"
)

// boundary is one end of a Range. For containers whose offsets count
// children it also remembers the child before the offset so that the
// offset can be recomputed after the container's child list changes.
type boundary struct {
	container   *dom.Node
	offset      int
	childBefore *dom.Node
}

func (b *boundary) position() treepos.Position {
	return treepos.Position{Container: b.container, Offset: b.offset}
}

func (b *boundary) set(container *dom.Node, offset int) {
	b.container = container
	b.offset = offset
	b.childBefore = treepos.Position{Container: container, Offset: offset}.ChildBefore()
}

func (b *boundary) setToStartOf(n *dom.Node) {
	b.container = n
	b.offset = 0
	b.childBefore = nil
}

func (b *boundary) setToEndOf(n *dom.Node) {
	b.set(n, n.Capacity())
}

func (b *boundary) setToBeforeChild(child *dom.Node) {
	b.container = child.Parent()
	b.childBefore = child.PreviousSibling()
	b.offset = child.Index()
}

func (b *boundary) setToAfterChild(child *dom.Node) {
	b.container = child.Parent()
	b.childBefore = child
	b.offset = child.Index() + 1
}

func (b *boundary) childBeforeWillBeRemoved() {
	b.offset--
	b.childBefore = b.childBefore.PreviousSibling()
}

// invalidateOffset recomputes the offset from the remembered child.
func (b *boundary) invalidateOffset() {
	if b.container.Kind().IsCharacterData() {
		return
	}
	if b.childBefore == nil {
		b.offset = 0
		return
	}
	b.offset = b.childBefore.Index() + 1
}
