package domrange

import (
	"fmt"

	"github.com/rjkroege/domedit/dom"
)

type action int

const (
	deleteAction action = iota
	extractAction
	cloneAction
)

type direction int

const (
	forward direction = iota
	backward
)

// DeleteContents removes the content of r from the tree and collapses r
// to where that content was.
func (r *Range) DeleteContents() error {
	if err := r.checkDeleteExtract(); err != nil {
		return err
	}
	_, err := r.processContents(deleteAction)
	return err
}

// ExtractContents moves the content of r into a new fragment and
// collapses r to where that content was. Partially selected ancestors are
// represented in the fragment by shallow clones.
func (r *Range) ExtractContents() (*dom.Node, error) {
	if err := r.checkDeleteExtract(); err != nil {
		return nil, err
	}
	return r.processContents(extractAction)
}

// CloneContents returns a fragment holding a copy of the content of r.
func (r *Range) CloneContents() (*dom.Node, error) {
	if err := r.checkLive(); err != nil {
		return nil, err
	}
	return r.processContents(cloneAction)
}

func (r *Range) checkDeleteExtract() error {
	if err := r.checkLive(); err != nil {
		return err
	}
	past := r.PastLastNode()
	for n := r.FirstNode(); n != nil && n != past; n = n.TraverseNext(nil) {
		if n.Kind() == dom.DocumentTypeNode {
			return fmt.Errorf("%w: range contains a document type", dom.ErrHierarchy)
		}
	}
	return nil
}

// highestAncestorUnder returns the ancestor-or-self of n that is a child
// of root, or nil when n is root.
func highestAncestorUnder(n, root *dom.Node) *dom.Node {
	for ; n != nil; n = n.Parent() {
		if n.Parent() == root {
			return n
		}
	}
	return nil
}

func childOfCommonRootBeforeOffset(container *dom.Node, offset int, root *dom.Node) *dom.Node {
	if !root.Contains(container) {
		return nil
	}
	if container == root {
		return container.ChildAt(offset)
	}
	return highestAncestorUnder(container, root)
}

func (r *Range) processContents(act action) (*dom.Node, error) {
	var frag *dom.Node
	if act != deleteAction {
		frag = r.doc.CreateDocumentFragment()
	}
	if r.Collapsed() {
		return frag, nil
	}

	common := r.CommonAncestorContainer()
	sc, so := r.start.container, r.start.offset
	ec, eo := r.end.container, r.end.offset
	if sc == ec {
		_, err := processBetweenOffsets(act, frag, sc, so, eo)
		return frag, err
	}

	partialStart := highestAncestorUnder(sc, common)
	partialEnd := highestAncestorUnder(ec, common)

	var left, right *dom.Node
	var err error
	if sc != common && common.Contains(sc) {
		if left, err = processBetweenOffsets(act, nil, sc, so, sc.Capacity()); err != nil {
			return nil, err
		}
		if left, err = processAncestorsAndSiblings(act, sc, forward, left, common); err != nil {
			return nil, err
		}
	}
	if ec != common && common.Contains(ec) {
		if right, err = processBetweenOffsets(act, nil, ec, 0, eo); err != nil {
			return nil, err
		}
		if right, err = processAncestorsAndSiblings(act, ec, backward, right, common); err != nil {
			return nil, err
		}
	}

	// The children of common between the two partially selected
	// ancestors are fully selected.
	processStart := childOfCommonRootBeforeOffset(r.start.container, r.start.offset, common)
	if processStart != nil && r.start.container != common {
		processStart = processStart.NextSibling()
	}
	processEnd := childOfCommonRootBeforeOffset(r.end.container, r.end.offset, common)

	// Never leave r inside a partially selected node.
	if act != cloneAction {
		if partialStart != nil && common.Contains(partialStart) {
			r.start.setToAfterChild(partialStart)
		} else if partialEnd != nil && common.Contains(partialEnd) {
			r.start.setToBeforeChild(partialEnd)
		}
		r.end = r.start
	}

	if act != deleteAction && left != nil {
		if err := frag.AppendChild(left); err != nil {
			return nil, err
		}
	}
	if processStart != nil {
		var nodes []*dom.Node
		for n := processStart; n != nil && n != processEnd; n = n.NextSibling() {
			nodes = append(nodes, n)
		}
		if err := processNodes(act, nodes, common, frag); err != nil {
			return nil, err
		}
	}
	if act != deleteAction && right != nil {
		if err := frag.AppendChild(right); err != nil {
			return nil, err
		}
	}
	return frag, nil
}

// processBetweenOffsets handles the part of container between two of its
// offsets. The result, if any, is frag or a clone of container.
func processBetweenOffsets(act action, frag, container *dom.Node, start, end int) (*dom.Node, error) {
	var result *dom.Node
	if container.Kind().IsCharacterData() {
		if act != deleteAction {
			c := container.CloneNode(true)
			if err := c.DeleteData(end, c.Capacity()-end); err != nil {
				return nil, err
			}
			if err := c.DeleteData(0, start); err != nil {
				return nil, err
			}
			result = c
			if frag != nil {
				if err := frag.AppendChild(c); err != nil {
					return nil, err
				}
				result = frag
			}
		}
		if act != cloneAction {
			if err := container.DeleteData(start, end-start); err != nil {
				return nil, err
			}
		}
		return result, nil
	}

	if act != deleteAction {
		result = frag
		if result == nil {
			result = container.CloneNode(false)
		}
	}
	var nodes []*dom.Node
	for i := start; i < end; i++ {
		if c := container.ChildAt(i); c != nil {
			nodes = append(nodes, c)
		}
	}
	return result, processNodes(act, nodes, container, result)
}

func processNodes(act action, nodes []*dom.Node, from, to *dom.Node) error {
	for _, n := range nodes {
		var err error
		switch act {
		case deleteAction:
			err = from.RemoveChild(n)
		case extractAction:
			err = to.AppendChild(n)
		case cloneAction:
			err = to.AppendChild(n.CloneNode(true))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// processAncestorsAndSiblings walks from container up to, but excluding,
// root, handling the siblings on the selected side of each ancestor.
// Shallow clones of the ancestors wrap cloned in the result.
func processAncestorsAndSiblings(act action, container *dom.Node, dir direction, cloned, root *dom.Node) (*dom.Node, error) {
	var ancestors []*dom.Node
	for n := container.Parent(); n != nil && n != root; n = n.Parent() {
		ancestors = append(ancestors, n)
	}

	step := (*dom.Node).NextSibling
	if dir == backward {
		step = (*dom.Node).PreviousSibling
	}
	first := step(container)
	for _, anc := range ancestors {
		if act != deleteAction {
			ca := anc.CloneNode(false)
			if cloned != nil {
				if err := ca.AppendChild(cloned); err != nil {
					return nil, err
				}
			}
			cloned = ca
		}

		var nodes []*dom.Node
		for c := first; c != nil; c = step(c) {
			nodes = append(nodes, c)
		}
		for _, c := range nodes {
			var err error
			switch act {
			case deleteAction:
				err = anc.RemoveChild(c)
			case extractAction:
				err = place(cloned, c, dir)
			case cloneAction:
				err = place(cloned, c.CloneNode(true), dir)
			}
			if err != nil {
				return nil, err
			}
		}
		first = step(anc)
	}
	return cloned, nil
}

// place adds c to the end of parent going forward and to the front going
// backward, so that content keeps its document order.
func place(parent, c *dom.Node, dir direction) error {
	if dir == forward {
		return parent.AppendChild(c)
	}
	return parent.InsertBefore(c, parent.FirstChild())
}

// InsertNode inserts n at the start of r. A text start container is
// split at the start offset first. A collapsed range grows to cover n.
func (r *Range) InsertNode(n *dom.Node) error {
	if err := r.checkLive(); err != nil {
		return err
	}
	if n == nil {
		return fmt.Errorf("%w: nil node", dom.ErrNotFound)
	}
	switch n.Kind() {
	case dom.EntityNode, dom.NotationNode, dom.DocumentNode:
		return fmt.Errorf("%w: cannot insert %v", dom.ErrInvalidNodeType, n)
	}

	sc := r.start.container
	startIsText := sc.Kind().IsText()
	if startIsText && sc.Parent() == nil {
		return fmt.Errorf("%w: %v has no parent to split into", dom.ErrHierarchy, sc)
	}
	target := sc
	if startIsText {
		target = sc.Parent()
	}
	if target.Kind().IsCharacterData() || !target.AcceptsChild(n) {
		return fmt.Errorf("%w: %v cannot hold %v", dom.ErrHierarchy, target, n)
	}
	for p := sc; p != nil; p = p.Parent() {
		if p == n {
			return fmt.Errorf("%w: %v is an ancestor of the insertion point", dom.ErrHierarchy, n)
		}
	}

	collapsed := r.Collapsed()
	if startIsText {
		tail, err := sc.SplitText(r.start.offset)
		if err != nil {
			return err
		}
		if err := sc.Parent().InsertBefore(n, tail); err != nil {
			return err
		}
		if collapsed {
			r.end.setToBeforeChild(tail)
		}
		return nil
	}

	var last *dom.Node
	count := 1
	if n.Kind() == dom.DocumentFragmentNode {
		count = n.ChildCount()
		last = n.LastChild()
	} else {
		last = n
	}
	so := r.start.offset
	if err := sc.InsertBefore(n, sc.ChildAt(so)); err != nil {
		return err
	}
	if collapsed && count > 0 {
		r.end.container = sc
		r.end.offset = so + count
		r.end.childBefore = last
	}
	return nil
}

// SurroundContents wraps the content of r in wrapper and selects it.
// The range may not partially select any node other than text.
func (r *Range) SurroundContents(wrapper *dom.Node) error {
	if err := r.checkLive(); err != nil {
		return err
	}
	if wrapper == nil {
		return fmt.Errorf("%w: nil wrapper", dom.ErrNotFound)
	}
	switch wrapper.Kind() {
	case dom.DocumentFragmentNode, dom.DocumentNode, dom.DocumentTypeNode, dom.EntityNode, dom.NotationNode:
		return fmt.Errorf("%w: cannot wrap with %v", dom.ErrInvalidNodeType, wrapper)
	}

	sc := r.start.container
	parent := sc
	if parent.Kind().IsCharacterData() {
		parent = parent.Parent()
	}
	if parent == nil || !parent.AcceptsChild(wrapper) {
		return fmt.Errorf("%w: %v cannot hold %v", dom.ErrHierarchy, parent, wrapper)
	}
	if wrapper.Contains(sc) {
		return fmt.Errorf("%w: %v contains the range", dom.ErrHierarchy, wrapper)
	}

	if nonTextContainer(sc) != nonTextContainer(r.end.container) {
		return fmt.Errorf("%w: range partially selects a non-text node", dom.ErrBoundaryMismatch)
	}

	frag, err := r.ExtractContents()
	if err != nil {
		return err
	}
	wrapper.RemoveChildren()
	if err := r.InsertNode(wrapper); err != nil {
		return err
	}
	if err := wrapper.AppendChild(frag); err != nil {
		return err
	}
	return r.SelectNode(wrapper)
}

func nonTextContainer(n *dom.Node) *dom.Node {
	if n.Kind().IsText() {
		return n.Parent()
	}
	return n
}
