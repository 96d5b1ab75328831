package textiter

import (
	"github.com/rjkroege/domedit/dom"
	"github.com/rjkroege/domedit/domrange"
	"github.com/rjkroege/domedit/treepos"
)

// BackwardTextIterator walks a range from its end towards its start. It
// is meant for finding boundaries, not for reproducing text: text runs
// come out raw, replaced elements become ',' and every block, break or
// table cell boundary becomes '\n'. Chunks are returned in reverse order
// but the characters within a chunk are in document order.
type BackwardTextIterator struct {
	node            *dom.Node
	offset          int
	handledNode     bool
	handledChildren bool

	startNode   *dom.Node
	startOffset int
	endNode     *dom.Node
	endOffset   int
	pastStart   *dom.Node

	lastTextNode *dom.Node
	lastChar     rune

	run  run
	done bool
}

// NewBackward returns a backward iterator over r.
func NewBackward(r *domrange.Range) *BackwardTextIterator {
	it := &BackwardTextIterator{}
	if r == nil || r.IsReleased() {
		it.done = true
		return it
	}
	startNode, startOffset := r.StartContainer(), r.StartOffset()
	endNode, endOffset := r.EndContainer(), r.EndOffset()

	if !startNode.Kind().IsCharacterData() {
		if startOffset >= 0 && startOffset < startNode.ChildCount() {
			startNode = startNode.ChildAt(startOffset)
			startOffset = 0
		}
	}
	if !endNode.Kind().IsCharacterData() {
		if endOffset > 0 && endOffset <= endNode.ChildCount() {
			endNode = endNode.ChildAt(endOffset - 1)
			endOffset = endNode.Capacity()
		}
	}

	it.node = endNode
	it.offset = endOffset
	it.handledChildren = endOffset == 0
	it.startNode, it.startOffset = startNode, startOffset
	it.endNode, it.endOffset = endNode, endOffset
	it.lastChar = '\n'

	if startOffset == 0 || startNode.FirstChild() == nil {
		it.pastStart = startNode.PreviousSibling()
		for it.pastStart == nil && startNode.Parent() != nil {
			startNode = startNode.Parent()
			it.pastStart = startNode.PreviousSibling()
		}
	} else {
		it.pastStart = startNode.ChildAt(startOffset - 1)
	}
	return it
}

// Next moves to the previous chunk and reports whether there is one.
func (it *BackwardTextIterator) Next() bool {
	if it.done {
		return false
	}
	it.run = run{}
	it.advance()
	if it.run.container == nil {
		it.done = true
	}
	return !it.done
}

func (it *BackwardTextIterator) AtEnd() bool   { return it.done }
func (it *BackwardTextIterator) Runes() []rune { return it.run.text }
func (it *BackwardTextIterator) Text() string  { return string(it.run.text) }
func (it *BackwardTextIterator) Len() int      { return len(it.run.text) }

// Start returns the start of the current chunk's span, or the start of
// the range once the iteration is over.
func (it *BackwardTextIterator) Start() treepos.Position {
	if it.run.container == nil {
		return treepos.Position{Container: it.startNode, Offset: it.startOffset}
	}
	return treepos.Position{Container: it.run.container, Offset: it.run.start}
}

func (it *BackwardTextIterator) End() treepos.Position {
	if it.run.container == nil {
		return treepos.Position{Container: it.startNode, Offset: it.startOffset}
	}
	return treepos.Position{Container: it.run.container, Offset: it.run.end}
}

func (it *BackwardTextIterator) positioned() bool { return it.run.container != nil }

func (it *BackwardTextIterator) advance() {
	for it.node != nil && it.node != it.pastStart {
		// Nothing of a node is handled when iteration starts at its
		// offset 0.
		if !it.handledNode && !(it.node == it.endNode && it.endOffset == 0) {
			n := it.node
			switch {
			case n.Kind().IsText() && n.IsRendered():
				if !n.IsHidden() && it.offset > 0 {
					it.handledNode = it.handleTextNode()
				}
			case n.IsReplaced() && n.IsRendered():
				if !n.IsHidden() && it.offset > 0 {
					it.handledNode = it.handleReplacedElement()
				}
			default:
				it.handledNode = it.handleNonTextNode()
			}
			if it.positioned() {
				return
			}
		}

		var next *dom.Node
		if !it.handledChildren {
			next = it.node.LastChild()
		}
		if next == nil {
			// Exit empty containers as we pass over them, and containers
			// where iteration started at offset 0.
			if !it.handledNode && canHaveChildrenForEditing(it.node) && it.node.Parent() != nil &&
				(it.node.LastChild() == nil || it.node == it.endNode && it.endOffset == 0) {
				it.exitNode()
				if it.positioned() {
					it.handledNode = true
					it.handledChildren = true
					return
				}
			}
			next = it.node.PreviousSibling()
			for next == nil {
				if it.node.Parent() == nil {
					break
				}
				it.node = it.node.Parent()
				it.exitNode()
				if it.positioned() {
					it.handledNode = true
					it.handledChildren = true
					return
				}
				next = it.node.PreviousSibling()
			}
		}

		it.node = next
		it.offset = 0
		if next != nil {
			it.offset = caretMaxOffset(next)
		}
		it.handledNode = false
		it.handledChildren = false
	}
}

func (it *BackwardTextIterator) handleTextNode() bool {
	n := it.node
	it.lastTextNode = n
	end := min(it.offset, n.Length())
	start := 0
	if n == it.startNode {
		start = it.startOffset
	}
	it.offset = start
	if start >= end {
		return true
	}
	it.run.text = n.Runes()[start:end:end]
	it.run.container = n
	it.run.start = start
	it.run.end = end
	it.lastChar = it.run.text[len(it.run.text)-1]
	return true
}

func (it *BackwardTextIterator) handleReplacedElement() bool {
	i := it.node.Index()
	it.emitChar(',', it.node.Parent(), i, i+1)
	return true
}

// handleNonTextNode emits a newline for any node that breaks lines. The
// position is only approximate; boundary finding does not need more.
func (it *BackwardTextIterator) handleNonTextNode() bool {
	n := it.node
	if n.Parent() == nil {
		return true
	}
	if it.lastChar == '\n' {
		return true
	}
	if n.Display() == dom.DisplayBreak || emitsNewlineAfter(n) || emitsTabBefore(n) {
		i := n.Index()
		it.emitChar('\n', n.Parent(), i+1, i+1)
	}
	return true
}

func (it *BackwardTextIterator) exitNode() {
	n := it.node
	if it.lastChar == '\n' {
		return
	}
	if n.Display() == dom.DisplayBreak || emitsNewlinesAround(n) || emitsTabBefore(n) {
		it.emitChar('\n', n, 0, 0)
	}
}

func (it *BackwardTextIterator) emitChar(c rune, container *dom.Node, start, end int) {
	it.run.char[0] = c
	it.run.text = it.run.char[:]
	it.run.container = container
	it.run.start = start
	it.run.end = end
	it.lastChar = c
}

func canHaveChildrenForEditing(n *dom.Node) bool {
	return n.Kind() == dom.ElementNode && !n.IsReplaced() && n.Display() != dom.DisplayBreak && !n.IsElement("hr")
}

// caretMaxOffset is the largest caret offset inside n.
func caretMaxOffset(n *dom.Node) int {
	switch {
	case n.Kind().IsCharacterData():
		return n.Length()
	case n.IsReplaced():
		return 1
	}
	return n.ChildCount()
}
