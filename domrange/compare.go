package domrange

import (
	"errors"
	"fmt"

	"github.com/rjkroege/domedit/dom"
	"github.com/rjkroege/domedit/treepos"
)

// How selects which boundaries CompareBoundaryPoints compares.
type How int

const (
	StartToStart How = iota
	StartToEnd
	EndToEnd
	EndToStart
)

// CompareBoundaryPoints compares a boundary of r with a boundary of src.
// StartToEnd compares the end of r with the start of src and EndToStart
// the start of r with the end of src.
func (r *Range) CompareBoundaryPoints(how How, src *Range) (int, error) {
	if err := r.checkLive(); err != nil {
		return 0, err
	}
	if err := src.checkLive(); err != nil {
		return 0, err
	}
	if r.doc != src.doc || r.start.container.Root() != src.start.container.Root() {
		return 0, fmt.Errorf("%w: ranges are in different trees", dom.ErrWrongDocument)
	}
	var a, b treepos.Position
	switch how {
	case StartToStart:
		a, b = r.Start(), src.Start()
	case StartToEnd:
		a, b = r.End(), src.Start()
	case EndToEnd:
		a, b = r.End(), src.End()
	case EndToStart:
		a, b = r.Start(), src.End()
	default:
		return 0, fmt.Errorf("%w: comparison %d", dom.ErrNotFound, how)
	}
	return treepos.Compare(a, b)
}

func (r *Range) checkPoint(n *dom.Node, offset int) (treepos.Position, error) {
	if err := r.checkLive(); err != nil {
		return treepos.Position{}, err
	}
	p, err := treepos.New(n, offset)
	if err != nil {
		return p, err
	}
	if n.Document() != r.doc || n.Root() != r.start.container.Root() {
		return p, fmt.Errorf("%w: %v is outside the range's tree", dom.ErrWrongDocument, n)
	}
	return p, nil
}

// ComparePoint returns -1, 0 or 1 as (n, offset) is before, inside or
// after r.
func (r *Range) ComparePoint(n *dom.Node, offset int) (int, error) {
	p, err := r.checkPoint(n, offset)
	if err != nil {
		return 0, err
	}
	return r.comparePosition(p), nil
}

func (r *Range) comparePosition(p treepos.Position) int {
	if c, _ := treepos.Compare(p, r.Start()); c < 0 {
		return -1
	}
	if c, _ := treepos.Compare(p, r.End()); c > 0 {
		return 1
	}
	return 0
}

// IsPointInRange reports whether (n, offset) lies within r, boundaries
// included. Points in another tree are not in range.
func (r *Range) IsPointInRange(n *dom.Node, offset int) (bool, error) {
	p, err := r.checkPoint(n, offset)
	if err != nil {
		if r.IsReleased() || !errors.Is(err, dom.ErrWrongDocument) {
			return false, err
		}
		return false, nil
	}
	return r.comparePosition(p) == 0, nil
}

// IntersectsNode reports whether any part of n lies within r.
func (r *Range) IntersectsNode(n *dom.Node) (bool, error) {
	if err := r.checkLive(); err != nil {
		return false, err
	}
	if n == nil {
		return false, fmt.Errorf("%w: nil node", dom.ErrNotFound)
	}
	if n.Document() != r.doc || n.Root() != r.start.container.Root() {
		return false, nil
	}
	parent := n.Parent()
	if parent == nil {
		return true, nil
	}
	i := n.Index()
	before := treepos.Position{Container: parent, Offset: i}
	after := treepos.Position{Container: parent, Offset: i + 1}
	if r.comparePosition(before) < 0 && r.comparePosition(after) < 0 {
		return false, nil
	}
	if r.comparePosition(before) > 0 && r.comparePosition(after) > 0 {
		return false, nil
	}
	return true, nil
}

// NodeRelation describes where a node lies relative to a range.
type NodeRelation int

const (
	NodeBefore NodeRelation = iota
	NodeAfter
	NodeBeforeAndAfter
	NodeInside
)

// CompareNode reports whether n starts before r, ends after it, both, or
// lies entirely inside it.
func (r *Range) CompareNode(n *dom.Node) (NodeRelation, error) {
	if err := r.checkLive(); err != nil {
		return 0, err
	}
	if n == nil || n.Document() != r.doc || n.Root() != r.start.container.Root() {
		return 0, fmt.Errorf("%w: %v is outside the range's tree", dom.ErrNotFound, n)
	}
	parent := n.Parent()
	if parent == nil {
		return NodeBeforeAndAfter, nil
	}
	i := n.Index()
	startsBefore := r.comparePosition(treepos.Position{Container: parent, Offset: i}) < 0
	endsAfter := r.comparePosition(treepos.Position{Container: parent, Offset: i + 1}) > 0
	switch {
	case startsBefore && endsAfter:
		return NodeBeforeAndAfter, nil
	case startsBefore:
		return NodeBefore, nil
	case endsAfter:
		return NodeAfter, nil
	}
	return NodeInside, nil
}
