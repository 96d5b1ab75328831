// Package domrange implements live ranges over a dom tree. A Range is a
// pair of boundary points that the owning document repairs on every
// mutation, so that it never addresses a position that no longer exists.
package domrange

import (
	"fmt"

	"github.com/rjkroege/domedit/dom"
	"github.com/rjkroege/domedit/treepos"
)

// Range is a span of a document between two boundary points with start
// never after end. A Range is registered with its document until Release
// is called; the document refers to it only weakly.
type Range struct {
	doc    *dom.Document
	handle dom.Handle
	start  boundary
	end    boundary
}

// New returns a range collapsed at the start of doc.
func New(doc *dom.Document) *Range {
	r := &Range{}
	r.attach(doc)
	return r
}

// NewWithBounds returns a range from (sc, so) to (ec, eo). An end before
// the start collapses the range to the start.
func NewWithBounds(doc *dom.Document, sc *dom.Node, so int, ec *dom.Node, eo int) (*Range, error) {
	if _, err := treepos.New(ec, eo); err != nil {
		return nil, err
	}
	r := New(doc)
	if err := r.SetStart(sc, so); err != nil {
		r.Release()
		return nil, err
	}
	if ec.Document() != r.doc || ec.Root() != r.start.container.Root() {
		return r, nil
	}
	if c, _ := treepos.Compare(r.start.position(), treepos.Position{Container: ec, Offset: eo}); c <= 0 {
		r.end.set(ec, eo)
	}
	return r, nil
}

// FromPositions is NewWithBounds for a pair of positions.
func FromPositions(doc *dom.Document, start, end treepos.Position) (*Range, error) {
	return NewWithBounds(doc, start.Container, start.Offset, end.Container, end.Offset)
}

// Selecting returns a range covering the contents of n.
func Selecting(n *dom.Node) (*Range, error) {
	r := New(n.Document())
	if err := r.SelectNodeContents(n); err != nil {
		r.Release()
		return nil, err
	}
	return r, nil
}

func (r *Range) attach(doc *dom.Document) {
	r.doc = doc
	r.start.setToStartOf(doc.Node())
	r.end = r.start
	r.handle = dom.RegisterWeak(doc, r)
}

// rebind moves r into doc, collapsed at its start. It reports whether the
// document changed.
func (r *Range) rebind(doc *dom.Document) bool {
	if doc == r.doc {
		return false
	}
	r.doc.Unregister(r.handle)
	r.attach(doc)
	return true
}

// Release deregisters r from its document. Every later operation fails
// with dom.ErrInvalidState.
func (r *Range) Release() {
	if r.doc == nil {
		return
	}
	r.doc.Unregister(r.handle)
	r.doc = nil
	r.handle = dom.Handle{}
	r.start = boundary{}
	r.end = boundary{}
}

// IsReleased reports whether Release has been called.
func (r *Range) IsReleased() bool { return r.doc == nil }

func (r *Range) checkLive() error {
	if r.doc == nil {
		return fmt.Errorf("%w: range has been released", dom.ErrInvalidState)
	}
	return nil
}

func (r *Range) Document() *dom.Document { return r.doc }

func (r *Range) StartContainer() *dom.Node { return r.start.container }
func (r *Range) StartOffset() int          { return r.start.offset }
func (r *Range) EndContainer() *dom.Node   { return r.end.container }
func (r *Range) EndOffset() int            { return r.end.offset }

// Start returns the start boundary as a static position.
func (r *Range) Start() treepos.Position { return r.start.position() }

// End returns the end boundary as a static position.
func (r *Range) End() treepos.Position { return r.end.position() }

// Collapsed reports whether the start and end of r coincide.
func (r *Range) Collapsed() bool {
	return r.start.container == r.end.container && r.start.offset == r.end.offset
}

// CommonAncestorContainer returns the deepest node containing both
// boundary containers.
func (r *Range) CommonAncestorContainer() *dom.Node {
	if r.doc == nil {
		return nil
	}
	return treepos.CommonAncestor(r.start.container, r.end.container)
}

// SetStart moves the start of r. A start in another document moves r to
// that document; a start in another tree or after the end collapses r
// onto it.
func (r *Range) SetStart(n *dom.Node, offset int) error {
	if err := r.checkLive(); err != nil {
		return err
	}
	if _, err := treepos.New(n, offset); err != nil {
		return err
	}
	moved := r.rebind(n.Document())
	r.start.set(n, offset)
	if moved || r.start.container.Root() != r.end.container.Root() {
		r.end = r.start
		return nil
	}
	if c, _ := treepos.Compare(r.start.position(), r.end.position()); c > 0 {
		r.end = r.start
	}
	return nil
}

// SetEnd moves the end of r. An end in another document moves r to that
// document; an end in another tree or before the start collapses r onto
// it.
func (r *Range) SetEnd(n *dom.Node, offset int) error {
	if err := r.checkLive(); err != nil {
		return err
	}
	if _, err := treepos.New(n, offset); err != nil {
		return err
	}
	moved := r.rebind(n.Document())
	r.end.set(n, offset)
	if moved || r.start.container.Root() != r.end.container.Root() {
		r.start = r.end
		return nil
	}
	if c, _ := treepos.Compare(r.start.position(), r.end.position()); c > 0 {
		r.start = r.end
	}
	return nil
}

func checkNodeBA(n *dom.Node) error {
	if n == nil {
		return fmt.Errorf("%w: nil reference node", dom.ErrNotFound)
	}
	switch n.Kind() {
	case dom.DocumentNode, dom.DocumentFragmentNode, dom.EntityNode, dom.NotationNode:
		return fmt.Errorf("%w: cannot position around %v", dom.ErrInvalidNodeType, n)
	}
	if n.Parent() == nil {
		return fmt.Errorf("%w: %v has no parent", dom.ErrInvalidNodeType, n)
	}
	return nil
}

func (r *Range) SetStartBefore(n *dom.Node) error {
	if err := checkNodeBA(n); err != nil {
		return err
	}
	return r.SetStart(n.Parent(), n.Index())
}

func (r *Range) SetStartAfter(n *dom.Node) error {
	if err := checkNodeBA(n); err != nil {
		return err
	}
	return r.SetStart(n.Parent(), n.Index()+1)
}

func (r *Range) SetEndBefore(n *dom.Node) error {
	if err := checkNodeBA(n); err != nil {
		return err
	}
	return r.SetEnd(n.Parent(), n.Index())
}

func (r *Range) SetEndAfter(n *dom.Node) error {
	if err := checkNodeBA(n); err != nil {
		return err
	}
	return r.SetEnd(n.Parent(), n.Index()+1)
}

// Collapse moves the end to the start, or the start to the end.
func (r *Range) Collapse(toStart bool) error {
	if err := r.checkLive(); err != nil {
		return err
	}
	if toStart {
		r.end = r.start
	} else {
		r.start = r.end
	}
	return nil
}

// SelectNode makes r span exactly n.
func (r *Range) SelectNode(n *dom.Node) error {
	if err := r.checkLive(); err != nil {
		return err
	}
	if err := checkNodeBA(n); err != nil {
		return err
	}
	r.rebind(n.Document())
	r.start.setToBeforeChild(n)
	r.end.setToAfterChild(n)
	return nil
}

// SelectNodeContents makes r span the contents of n.
func (r *Range) SelectNodeContents(n *dom.Node) error {
	if err := r.checkLive(); err != nil {
		return err
	}
	if n == nil {
		return fmt.Errorf("%w: nil node", dom.ErrNotFound)
	}
	switch n.Kind() {
	case dom.DocumentTypeNode, dom.EntityNode, dom.NotationNode:
		return fmt.Errorf("%w: cannot select contents of %v", dom.ErrInvalidNodeType, n)
	}
	r.rebind(n.Document())
	r.start.setToStartOf(n)
	r.end.setToEndOf(n)
	return nil
}

// CloneRange returns a new registered range with the boundaries of r.
func (r *Range) CloneRange() (*Range, error) {
	if err := r.checkLive(); err != nil {
		return nil, err
	}
	c := New(r.doc)
	c.start = r.start
	c.end = r.end
	return c, nil
}

// FirstNode returns the first node in document order that lies at least
// partly inside r.
func (r *Range) FirstNode() *dom.Node {
	sc := r.start.container
	if sc == nil {
		return nil
	}
	if sc.Kind().IsCharacterData() {
		return sc
	}
	if c := sc.ChildAt(r.start.offset); c != nil {
		return c
	}
	if r.start.offset == 0 {
		return sc
	}
	return sc.TraverseNextSibling(nil)
}

// PastLastNode returns the first node in document order after the
// content of r.
func (r *Range) PastLastNode() *dom.Node {
	ec := r.end.container
	if ec == nil {
		return nil
	}
	if ec.Kind().IsCharacterData() {
		return ec.TraverseNextSibling(nil)
	}
	if c := ec.ChildAt(r.end.offset); c != nil {
		return c
	}
	return ec.TraverseNextSibling(nil)
}

// String returns the concatenated text of the text nodes inside r.
func (r *Range) String() string {
	if r.doc == nil {
		return ""
	}
	var s []rune
	past := r.PastLastNode()
	for n := r.FirstNode(); n != nil && n != past; n = n.TraverseNext(nil) {
		if !n.Kind().IsText() {
			continue
		}
		data := n.Runes()
		start, end := 0, len(data)
		if n == r.start.container {
			start = min(r.start.offset, end)
		}
		if n == r.end.container {
			end = max(start, min(r.end.offset, end))
		}
		s = append(s, data[start:end]...)
	}
	return string(s)
}
