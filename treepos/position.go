// Package treepos names points in a document tree and orders them.
package treepos

import (
	"fmt"

	"github.com/rjkroege/domedit/dom"
)

// Position is a point in a document tree: a container node and an offset
// into it. The offset counts characters when the container holds
// character data and children otherwise.
type Position struct {
	Container *dom.Node
	Offset    int
}

// New returns a validated Position.
func New(container *dom.Node, offset int) (Position, error) {
	if container == nil {
		return Position{}, fmt.Errorf("%w: nil container", dom.ErrNotFound)
	}
	switch container.Kind() {
	case dom.DocumentTypeNode, dom.EntityNode, dom.NotationNode:
		return Position{}, fmt.Errorf("%w: %v cannot hold a boundary", dom.ErrInvalidNodeType, container)
	}
	if offset < 0 || offset > container.Capacity() {
		return Position{}, fmt.Errorf("%w: offset %d in %v of length %d", dom.ErrIndexOutOfRange, offset, container, container.Capacity())
	}
	return Position{container, offset}, nil
}

// Before returns the position immediately before n in its parent.
func Before(n *dom.Node) Position { return Position{n.Parent(), n.Index()} }

// After returns the position immediately after n in its parent.
func After(n *dom.Node) Position { return Position{n.Parent(), n.Index() + 1} }

// StartOf returns the first position inside n.
func StartOf(n *dom.Node) Position { return Position{n, 0} }

// EndOf returns the last position inside n.
func EndOf(n *dom.Node) Position { return Position{n, n.Capacity()} }

// IsNull reports whether p has no container.
func (p Position) IsNull() bool { return p.Container == nil }

// IsValid reports whether the offset of p lies within its container.
func (p Position) IsValid() bool {
	return p.Container != nil && p.Offset >= 0 && p.Offset <= p.Container.Capacity()
}

// IsOrphan reports whether p is null or its container has been detached
// from the document.
func (p Position) IsOrphan() bool {
	return p.Container == nil || !p.Container.IsConnected()
}

// ChildBefore returns the child immediately preceding the offset, or nil
// for offset zero and for character data containers.
func (p Position) ChildBefore() *dom.Node {
	if p.Container == nil || p.Container.Kind().IsCharacterData() || p.Offset <= 0 {
		return nil
	}
	return p.Container.ChildAt(p.Offset - 1)
}

// ChildAfter returns the child at the offset, or nil.
func (p Position) ChildAfter() *dom.Node {
	if p.Container == nil || p.Container.Kind().IsCharacterData() {
		return nil
	}
	return p.Container.ChildAt(p.Offset)
}

func (p Position) String() string {
	return fmt.Sprintf("(%v, %d)", p.Container, p.Offset)
}

// Compare returns -1, 0 or 1 as a is before, equal to or after b in
// document order. Positions in unrelated trees are not ordered and yield
// dom.ErrWrongDocument.
func Compare(a, b Position) (int, error) {
	ca, cb := a.Container, b.Container
	if ca == cb {
		return cmpInt(a.Offset, b.Offset), nil
	}

	// b's container is inside a's: find the child of ca on the path.
	if c := childOn(cb, ca); c != nil {
		if a.Offset <= c.Index() {
			return -1, nil
		}
		return 1, nil
	}

	// a's container is inside b's.
	if c := childOn(ca, cb); c != nil {
		if c.Index() < b.Offset {
			return -1, nil
		}
		return 1, nil
	}

	common := CommonAncestor(ca, cb)
	if common == nil {
		return 0, fmt.Errorf("%w: %v and %v share no ancestor", dom.ErrWrongDocument, ca, cb)
	}
	childA := childOn(ca, common)
	childB := childOn(cb, common)
	return cmpInt(childA.Index(), childB.Index()), nil
}

// childOn returns the ancestor-or-self of n whose parent is ancestor, or
// nil if ancestor is not a strict ancestor of n.
func childOn(n, ancestor *dom.Node) *dom.Node {
	if ancestor == nil {
		return nil
	}
	for c := n; c != nil; c = c.Parent() {
		if c.Parent() == ancestor {
			return c
		}
	}
	return nil
}

// CommonAncestor returns the deepest node containing both a and b.
func CommonAncestor(a, b *dom.Node) *dom.Node {
	for p := a; p != nil; p = p.Parent() {
		if p.Contains(b) {
			return p
		}
	}
	return nil
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
