// Package textiter flattens ranges of a dom tree into the text a reader
// would see, and maps offsets in that text back to tree positions.
//
// A TextIterator produces the text as a sequence of chunks. Each chunk
// carries the tree span it came from, so that character offsets can be
// turned back into positions: a run of a text node spans the characters it
// copies, while synthesized characters (newlines for blocks and breaks,
// tabs between table cells, placeholders for replaced elements) span the
// node that produced them.
package textiter

import (
	"github.com/rjkroege/domedit/dom"
	"github.com/rjkroege/domedit/domrange"
	"github.com/rjkroege/domedit/treepos"
)

// ObjectReplacement is the default placeholder for replaced elements.
const ObjectReplacement = '\uFFFC'

// Behavior adjusts what a TextIterator emits.
type Behavior struct {
	// EmitCharactersBetweenAllVisiblePositions makes replaced elements
	// emit ',' and horizontal rules emit ' ', so that every caret
	// position is separated by at least one character.
	EmitCharactersBetweenAllVisiblePositions bool

	// Placeholder replaces ObjectReplacement when non-zero.
	Placeholder rune
}

func (b Behavior) placeholder() rune {
	switch {
	case b.EmitCharactersBetweenAllVisiblePositions:
		return ','
	case b.Placeholder != 0:
		return b.Placeholder
	}
	return ObjectReplacement
}

// run is one chunk of output.
type run struct {
	text       []rune
	container  *dom.Node
	start, end int
	char       [1]rune
}

// TextIterator walks the text of a range one chunk at a time:
//
//	it := textiter.New(r, textiter.Behavior{})
//	for it.Next() {
//		fmt.Print(it.Text())
//	}
type TextIterator struct {
	behavior Behavior

	startContainer *dom.Node
	startOffset    int
	endContainer   *dom.Node
	endOffset      int

	node            *dom.Node
	offset          int
	handledNode     bool
	handledChildren bool
	pastEnd         *dom.Node

	// textNode is a text node whose remaining characters from offset
	// have not been emitted yet.
	textNode *dom.Node

	haveEmitted  bool
	lastTextNode *dom.Node
	lastChar     rune

	run  run
	done bool
}

// New returns an iterator over the text of r. The iterator reads r once;
// later changes to r do not affect it.
func New(r *domrange.Range, b Behavior) *TextIterator {
	it := &TextIterator{behavior: b}
	if r == nil || r.IsReleased() {
		it.done = true
		return it
	}
	it.startContainer, it.startOffset = r.StartContainer(), r.StartOffset()
	it.endContainer, it.endOffset = r.EndContainer(), r.EndOffset()
	it.node = r.FirstNode()
	if it.node == nil {
		it.done = true
		return it
	}
	if it.node == it.startContainer {
		it.offset = it.startOffset
	}
	it.pastEnd = r.PastLastNode()
	return it
}

// Next advances to the next chunk and reports whether there is one.
func (it *TextIterator) Next() bool {
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

// AtEnd reports whether the iteration is over.
func (it *TextIterator) AtEnd() bool { return it.done }

// Runes returns the characters of the current chunk. They are valid until
// the next call to Next.
func (it *TextIterator) Runes() []rune { return it.run.text }

func (it *TextIterator) Text() string { return string(it.run.text) }
func (it *TextIterator) Len() int     { return len(it.run.text) }

// Start returns the start of the tree span of the current chunk, or the
// end of the iterated range once the iteration is over.
func (it *TextIterator) Start() treepos.Position {
	if it.run.container == nil {
		return treepos.Position{Container: it.endContainer, Offset: it.endOffset}
	}
	return treepos.Position{Container: it.run.container, Offset: it.run.start}
}

// End returns the end of the tree span of the current chunk.
func (it *TextIterator) End() treepos.Position {
	if it.run.container == nil {
		return treepos.Position{Container: it.endContainer, Offset: it.endOffset}
	}
	return treepos.Position{Container: it.run.container, Offset: it.run.end}
}

// Node returns the node the current chunk came from: the text node for
// copied text, otherwise the child of the span's container at its start.
func (it *TextIterator) Node() *dom.Node {
	p := it.Start()
	if p.Container == nil || p.Container.Kind().IsCharacterData() {
		return p.Container
	}
	return p.Container.ChildAt(p.Offset)
}

func (it *TextIterator) positioned() bool { return it.run.container != nil }

func (it *TextIterator) advance() {
	if it.textNode != nil {
		it.handleText()
		if it.positioned() {
			return
		}
	}

	for it.node != nil && it.node != it.pastEnd {
		// A range ending at offset 0 of a node represents the position of
		// the node but none of its content.
		if it.node == it.endContainer && it.endOffset == 0 {
			it.representNodeOffsetZero()
			it.node = nil
			return
		}

		if !it.node.IsRendered() {
			it.handledNode = true
			it.handledChildren = true
		} else if !it.handledNode {
			switch {
			case it.node.Kind().IsText():
				it.handledNode = it.handleTextNode()
			case it.node.IsReplaced():
				it.handledNode = it.handleReplacedElement()
			default:
				it.handledNode = it.handleNonTextNode()
			}
			if it.positioned() {
				return
			}
		}

		var next *dom.Node
		if !it.handledChildren {
			next = it.node.FirstChild()
		}
		it.offset = 0
		if next == nil {
			next = it.node.NextSibling()
			if next == nil {
				pastEnd := it.node.TraverseNext(nil) == it.pastEnd
				parent := it.node.Parent()
				for next == nil && parent != nil {
					if pastEnd && parent == it.endContainer || it.endContainer.IsDescendantOf(parent) {
						it.node = nil
						return
					}
					it.node = parent
					parent = it.node.Parent()
					if it.node.IsRendered() {
						it.exitNode()
					}
					if it.positioned() {
						it.handledNode = true
						it.handledChildren = true
						return
					}
					next = it.node.NextSibling()
				}
			}
		}

		it.node = next
		it.handledNode = false
		it.handledChildren = false
	}
}

func (it *TextIterator) handleTextNode() bool {
	if it.node.IsHidden() {
		return true
	}
	it.lastTextNode = it.node
	it.textNode = it.node
	it.handleText()
	return true
}

func isCollapsible(c rune, ws dom.WhiteSpace) bool {
	switch c {
	case ' ', '\t', '\r', '\f':
		return true
	case '\n':
		return !ws.PreservesNewlines()
	}
	return false
}

func isSpace(c rune) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f':
		return true
	}
	return false
}

// handleText emits the next chunk of textNode starting at offset. A run
// of collapsible whitespace shows as the single space at its start, or
// not at all.
func (it *TextIterator) handleText() {
	n := it.textNode
	data := n.Runes()
	end := len(data)
	if n == it.endContainer {
		end = min(end, it.endOffset)
	}
	ws := n.ComputedWhiteSpace()

	for it.offset < end {
		if !ws.CollapsesSpaces() {
			start := it.offset
			it.offset = end
			it.emitText(n, start, end)
			return
		}

		c := data[it.offset]
		if isCollapsible(c, ws) {
			start := it.offset
			for it.offset < end && isCollapsible(data[it.offset], ws) {
				it.offset++
			}
			if collapsedSpaceShows(n, start) {
				it.emitChar(' ', n, start, start+1)
				return
			}
			continue
		}
		if c == '\n' {
			it.emitChar('\n', n, it.offset, it.offset+1)
			it.offset++
			return
		}

		// A visible run keeps single spaces that are followed by more
		// visible text.
		start := it.offset
		for it.offset < end {
			c := data[it.offset]
			if c == ' ' && it.offset+1 < end && !isCollapsible(data[it.offset+1], ws) && data[it.offset+1] != '\n' {
				it.offset++
				continue
			}
			if isCollapsible(c, ws) || c == '\n' {
				break
			}
			it.offset++
		}
		it.emitText(n, start, it.offset)
		return
	}
	it.textNode = nil
}

// collapsedSpaceShows reports whether the whitespace run of n starting at
// offset renders as a space. It does when visible content precedes and
// follows it on the same line of the document, wherever the iterated
// range ends.
func collapsedSpaceShows(n *dom.Node, offset int) bool {
	return visibleBefore(n, offset) && visibleAfter(n, offset)
}

// SpaceShows reports whether a space at offset in the text node n, in
// place of the character there, would render.
func SpaceShows(n *dom.Node, offset int) bool {
	if !n.ComputedWhiteSpace().CollapsesSpaces() {
		return true
	}
	return visibleBefore(n, offset) && visibleAfter(n, offset+1)
}

// lineBlock returns the nearest block containing n.
func lineBlock(n *dom.Node) *dom.Node {
	for m := n.Parent(); m != nil; m = m.Parent() {
		if m.IsBlock() {
			return m
		}
	}
	return n.Root()
}

// visibleBefore reports whether the content before offset in n that
// shares its line ends with a visible character.
func visibleBefore(n *dom.Node, offset int) bool {
	if offset > 0 {
		return !isSpace(n.Runes()[offset-1])
	}
	block := lineBlock(n)
	for m := n.TraversePrevious(block); m != nil && m != block; m = m.TraversePrevious(block) {
		if n.IsDescendantOf(m) || !m.IsRendered() {
			continue
		}
		if m.IsBlock() || lineBlock(m) != block {
			return false
		}
		if r := replacedAncestor(m, block); r != nil {
			if r.IsHidden() {
				continue
			}
			return true
		}
		switch {
		case m.IsHidden():
		case m.Display() == dom.DisplayBreak:
			return false
		case m.IsReplaced():
			return true
		case m.Kind().IsText():
			if data := m.Runes(); len(data) > 0 {
				return !isSpace(data[len(data)-1])
			}
		}
	}
	return false
}

// replacedAncestor returns the replaced element strictly containing m
// below block, if any.
func replacedAncestor(m, block *dom.Node) *dom.Node {
	for a := m.Parent(); a != nil && a != block; a = a.Parent() {
		if a.IsReplaced() {
			return a
		}
	}
	return nil
}

// visibleAfter reports whether visible content follows the whitespace at
// offset in n before its line ends.
func visibleAfter(n *dom.Node, offset int) bool {
	if c, ok := firstShown(n, offset); ok {
		return c != '\n'
	}
	block := lineBlock(n)
	for m := n.TraverseNextSibling(block); m != nil; {
		if !m.IsRendered() || m.IsHidden() && !m.IsBlock() {
			m = m.TraverseNextSibling(block)
			continue
		}
		switch {
		case m.IsBlock(), m.Display() == dom.DisplayBreak:
			return false
		case m.IsReplaced():
			return true
		case m.Kind().IsText():
			if c, ok := firstShown(m, 0); ok {
				return c != '\n'
			}
		}
		m = m.TraverseNext(block)
	}
	return false
}

// firstShown returns the first character of n at or after offset that is
// not collapsed away.
func firstShown(n *dom.Node, offset int) (rune, bool) {
	data := n.Runes()
	ws := n.ComputedWhiteSpace()
	if !ws.CollapsesSpaces() {
		if offset < len(data) {
			return data[offset], true
		}
		return 0, false
	}
	for _, c := range data[offset:] {
		if !isCollapsible(c, ws) {
			return c, true
		}
	}
	return 0, false
}

func (it *TextIterator) handleReplacedElement() bool {
	it.handledChildren = true
	if it.node.IsHidden() {
		return true
	}
	i := it.node.Index()
	it.emitChar(it.behavior.placeholder(), it.node.Parent(), i, i+1)
	return true
}

func (it *TextIterator) handleNonTextNode() bool {
	n := it.node
	switch {
	case n.Display() == dom.DisplayBreak:
		i := n.Index()
		it.emitChar('\n', n.Parent(), i, i+1)
	case it.behavior.EmitCharactersBetweenAllVisiblePositions && n.IsElement("hr"):
		i := n.Index()
		it.emitChar(' ', n.Parent(), i, i+1)
	default:
		it.representNodeOffsetZero()
	}
	return true
}

// representNodeOffsetZero emits the separator that precedes node, if any.
func (it *TextIterator) representNodeOffsetZero() {
	n := it.node
	if n.Parent() == nil {
		return
	}
	i := n.Index()
	switch {
	case emitsTabBefore(n):
		if it.shouldRepresentNodeOffsetZero() {
			it.emitChar('\t', n.Parent(), i, i)
		}
	case emitsNewlinesAround(n):
		if it.shouldRepresentNodeOffsetZero() {
			it.emitChar('\n', n.Parent(), i, i)
		}
	}
}

func (it *TextIterator) shouldRepresentNodeOffsetZero() bool {
	n := it.node
	if it.behavior.EmitCharactersBetweenAllVisiblePositions && n.IsElement("table") {
		return true
	}
	// Content flush with the start of a line needs no separator.
	if it.lastChar == '\n' {
		return false
	}
	if it.haveEmitted {
		return true
	}
	// A range starting right before n still separates n from the content
	// before it, unless a block or break there already ended the line.
	if n.Parent() == it.startContainer && n.Index() == it.startOffset {
		for s := n.PreviousSibling(); s != nil; s = s.PreviousSibling() {
			if hasLayout(s) {
				return !emitsNewlinesAround(s) && s.Display() != dom.DisplayBreak
			}
		}
		return false
	}
	if n == it.startContainer {
		return false
	}
	// Outside the start container the node is on a later line.
	return !n.IsDescendantOf(it.startContainer)
}

func (it *TextIterator) exitNode() {
	if !it.haveEmitted {
		return
	}
	n := it.node
	if it.lastTextNode == nil || it.lastChar == '\n' || !emitsNewlineAfter(n) {
		return
	}
	// The newline sits inside n, after its content.
	base := n
	if c := n.LastChild(); c != nil {
		base = c
	}
	if base.Parent() == nil {
		return
	}
	i := base.Index() + 1
	it.emitChar('\n', base.Parent(), i, i)
}

func (it *TextIterator) emitChar(c rune, container *dom.Node, start, end int) {
	it.haveEmitted = true
	it.run.char[0] = c
	it.run.text = it.run.char[:]
	it.run.container = container
	it.run.start = start
	it.run.end = end
	it.lastChar = c
}

func (it *TextIterator) emitText(n *dom.Node, start, end int) {
	data := n.Runes()
	it.haveEmitted = true
	it.run.text = data[start:end:end]
	it.run.container = n
	it.run.start = start
	it.run.end = end
	it.lastChar = data[end-1]
}

func emitsTabBefore(n *dom.Node) bool {
	if n.Display() != dom.DisplayTableCell {
		return false
	}
	for s := n.PreviousSibling(); s != nil; s = s.PreviousSibling() {
		if s.Display() == dom.DisplayTableCell && s.IsRendered() {
			return true
		}
	}
	return false
}

// emitsNewlinesAround reports whether n is laid out as a block that
// starts and ends a line. Table cells are separated by tabs instead.
func emitsNewlinesAround(n *dom.Node) bool {
	if !n.IsBlock() || n.Display() == dom.DisplayTableCell {
		return false
	}
	return !n.IsElement("body") && !n.IsElement("html")
}

// emitsNewlineAfter reports whether a block is followed by more content.
func emitsNewlineAfter(n *dom.Node) bool {
	if !emitsNewlinesAround(n) {
		return false
	}
	for m := n.TraverseNextSibling(nil); m != nil; m = m.TraverseNextSibling(nil) {
		if hasLayout(m) {
			return true
		}
	}
	return false
}

// hasLayout reports whether n would produce a box. Whitespace-only text
// that collapses away does not.
func hasLayout(n *dom.Node) bool {
	if !n.IsRendered() {
		return false
	}
	if !n.Kind().IsText() {
		return true
	}
	ws := n.ComputedWhiteSpace()
	if !ws.CollapsesSpaces() {
		return n.Length() > 0
	}
	for _, c := range n.Runes() {
		if !isCollapsible(c, ws) {
			return true
		}
	}
	return false
}
