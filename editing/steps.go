package editing

import (
	"github.com/rjkroege/domedit/dom"
)

// A step is one primitive tree mutation that can be reverted and
// repeated. Steps of an entry are undone in reverse order, so each one
// runs against exactly the tree it left behind.
type step interface {
	do() error
	undo() error
}

type insertTextStep struct {
	node   *dom.Node
	offset int
	text   string
}

func (s *insertTextStep) do() error { return s.node.InsertData(s.offset, s.text) }

func (s *insertTextStep) undo() error {
	return s.node.DeleteData(s.offset, len([]rune(s.text)))
}

type deleteTextStep struct {
	node          *dom.Node
	offset, count int
	removed       string
}

func (s *deleteTextStep) do() error {
	removed, err := s.node.SubstringData(s.offset, s.count)
	if err != nil {
		return err
	}
	s.removed = removed
	return s.node.DeleteData(s.offset, s.count)
}

func (s *deleteTextStep) undo() error { return s.node.InsertData(s.offset, s.removed) }

type insertNodeStep struct {
	parent, child, ref *dom.Node
}

func (s *insertNodeStep) do() error   { return s.parent.InsertBefore(s.child, s.ref) }
func (s *insertNodeStep) undo() error { return s.parent.RemoveChild(s.child) }

type removeNodeStep struct {
	parent, child, ref *dom.Node
}

func (s *removeNodeStep) do() error {
	s.parent = s.child.Parent()
	s.ref = s.child.NextSibling()
	if s.parent == nil {
		return nil
	}
	return s.parent.RemoveChild(s.child)
}

func (s *removeNodeStep) undo() error {
	if s.parent == nil {
		return nil
	}
	return s.parent.InsertBefore(s.child, s.ref)
}

// splitTextStep splits node at offset. Repeating it moves the same tail
// node back in, so later steps that refer to the tail stay valid.
type splitTextStep struct {
	node   *dom.Node
	offset int
	tail   *dom.Node
}

func (s *splitTextStep) do() error {
	if s.tail == nil {
		tail, err := s.node.SplitText(s.offset)
		s.tail = tail
		return err
	}
	return unmerge(s.node, s.tail, s.offset)
}

func (s *splitTextStep) undo() error {
	_, _, err := s.tail.MergeIntoPrevious()
	return err
}

// mergeTextStep appends node to the text node before it.
type mergeTextStep struct {
	node   *dom.Node
	prev   *dom.Node
	offset int
}

func (s *mergeTextStep) do() error {
	prev, offset, err := s.node.MergeIntoPrevious()
	s.prev, s.offset = prev, offset
	return err
}

func (s *mergeTextStep) undo() error { return unmerge(s.prev, s.node, s.offset) }

// unmerge moves the text of prev from offset into the detached node tail
// and puts tail back after prev.
func unmerge(prev, tail *dom.Node, offset int) error {
	rest := prev.Runes()[offset:]
	if err := tail.SetData(string(rest)); err != nil {
		return err
	}
	if err := prev.DeleteData(offset, len(rest)); err != nil {
		return err
	}
	return prev.Parent().InsertBefore(tail, prev.NextSibling())
}

type setAttributeStep struct {
	node        *dom.Node
	name, value string
	remove      bool

	old         string
	hadOld      bool
	recordedOld bool
}

func (s *setAttributeStep) do() error {
	if !s.recordedOld {
		s.old, s.hadOld = s.node.Attribute(s.name)
		s.recordedOld = true
	}
	if s.remove {
		s.node.RemoveAttribute(s.name)
	} else {
		s.node.SetAttribute(s.name, s.value)
	}
	return nil
}

func (s *setAttributeStep) undo() error {
	if s.hadOld {
		s.node.SetAttribute(s.name, s.old)
	} else {
		s.node.RemoveAttribute(s.name)
	}
	return nil
}
