package editing

import (
	"slices"
	"strings"

	"github.com/rjkroege/domedit/dom"
	"github.com/rjkroege/domedit/domrange"
	"github.com/rjkroege/domedit/textiter"
	"github.com/rjkroege/domedit/treepos"
)

// edit records the steps of one command as it runs.
type edit struct {
	doc      *dom.Document
	behavior textiter.Behavior

	steps []step
	roots []*dom.Node
	err   error

	// start is the selection the command began with; end is the one it
	// asks to leave behind.
	start, end Selection
}

// run applies s and records it. After the first failure nothing more is
// applied.
func (ed *edit) run(s step, touched *dom.Node) bool {
	if ed.err != nil {
		return false
	}
	ed.touch(touched)
	if err := s.do(); err != nil {
		ed.err = err
		return false
	}
	ed.steps = append(ed.steps, s)
	return true
}

func (ed *edit) touch(n *dom.Node) {
	if n == nil {
		return
	}
	if r := editableRoot(n); r != nil && !slices.Contains(ed.roots, r) {
		ed.roots = append(ed.roots, r)
	}
}

// rollback reverts what has been recorded so far.
func (ed *edit) rollback() error {
	en := Entry{steps: ed.steps}
	ed.steps = nil
	return en.unapply()
}

// editableRoot returns the editable element that n belongs to. A whole
// document in design mode is rooted at its body.
func editableRoot(n *dom.Node) *dom.Node {
	r := n.RootEditable()
	if r != nil && r.IsElement("html") {
		if b := n.Document().Body(); b != nil && b.Contains(n) {
			return b
		}
	}
	return r
}

func isEditablePosition(p treepos.Position) bool {
	return !p.IsNull() && p.Container.IsEditable()
}

func (ed *edit) insertText(n *dom.Node, offset int, text string) bool {
	if text == "" {
		return true
	}
	return ed.run(&insertTextStep{node: n, offset: offset, text: text}, n)
}

func (ed *edit) deleteText(n *dom.Node, offset, count int) bool {
	if count <= 0 {
		return true
	}
	return ed.run(&deleteTextStep{node: n, offset: offset, count: count}, n)
}

func (ed *edit) insertNode(parent, child, ref *dom.Node) bool {
	return ed.run(&insertNodeStep{parent: parent, child: child, ref: ref}, parent)
}

func (ed *edit) removeNode(n *dom.Node) bool {
	return ed.run(&removeNodeStep{child: n}, n.Parent())
}

// moveNode moves n before ref in parent.
func (ed *edit) moveNode(n, parent, ref *dom.Node) bool {
	return ed.removeNode(n) && ed.insertNode(parent, n, ref)
}

func (ed *edit) splitText(n *dom.Node, offset int) *dom.Node {
	s := &splitTextStep{node: n, offset: offset}
	if !ed.run(s, n) {
		return nil
	}
	return s.tail
}

func (ed *edit) mergeText(n *dom.Node) bool {
	return ed.run(&mergeTextStep{node: n}, n)
}

func (ed *edit) setAttribute(n *dom.Node, name, value string) bool {
	return ed.run(&setAttributeStep{node: n, name: name, value: value}, n)
}

// splitAt returns an element position equivalent to p, splitting a text
// container if p falls inside it.
func (ed *edit) splitAt(p treepos.Position) (treepos.Position, bool) {
	c := p.Container
	if !c.Kind().IsCharacterData() {
		return p, true
	}
	switch {
	case p.Offset == 0:
		return treepos.Before(c), true
	case p.Offset >= c.Length():
		return treepos.After(c), true
	}
	if ed.splitText(c, p.Offset) == nil {
		return p, false
	}
	return treepos.After(c), true
}

// insertTextAt inserts text at p, reusing an adjacent text node where
// there is one, and returns where the text starts and ends.
func (ed *edit) insertTextAt(p treepos.Position, text string) (treepos.Position, treepos.Position, bool) {
	n := len([]rune(text))
	c := p.Container
	span := func(t *dom.Node, at int) (treepos.Position, treepos.Position, bool) {
		ok := ed.insertText(t, at, text)
		return treepos.Position{Container: t, Offset: at}, treepos.Position{Container: t, Offset: at + n}, ok
	}
	switch {
	case c.Kind().IsText():
		return span(c, p.Offset)
	case c.Kind().IsCharacterData():
		return p, p, false
	}
	if b := p.ChildBefore(); b != nil && b.Kind() == dom.TextNode {
		return span(b, b.Length())
	}
	if a := p.ChildAfter(); a != nil && a.Kind() == dom.TextNode {
		return span(a, 0)
	}
	if text == "" {
		return p, p, true
	}
	t := ed.doc.CreateTextNode(text)
	if !c.AcceptsChild(t) {
		return p, p, false
	}
	return treepos.StartOf(t), treepos.EndOf(t), ed.insertNode(c, t, p.ChildAfter())
}

// insertNodesAt inserts the nodes at p in order and returns the span
// they occupy.
func (ed *edit) insertNodesAt(p treepos.Position, nodes ...*dom.Node) (treepos.Position, treepos.Position, bool) {
	p, ok := ed.splitAt(p)
	if !ok || len(nodes) == 0 {
		return p, p, ok
	}
	ref := p.ChildAfter()
	for _, n := range nodes {
		if n.Parent() != nil && !ed.removeNode(n) {
			return p, p, false
		}
		if !p.Container.AcceptsChild(n) || !ed.insertNode(p.Container, n, ref) {
			return p, p, false
		}
	}
	return treepos.Before(nodes[0]), treepos.After(nodes[len(nodes)-1]), true
}

// tracking returns a live range over start..end that follows the steps
// applied while it is held. The caller releases it.
func (ed *edit) tracking(start, end treepos.Position) *domrange.Range {
	r, err := domrange.FromPositions(ed.doc, start, end)
	if err != nil {
		r = domrange.New(ed.doc)
		r.SetStart(start.Container, start.Offset)
		r.Collapse(true)
	}
	return r
}

// deleteRange removes the content between start and end and returns the
// position where it was. When the two ends are in different blocks the
// content of the second block is joined onto the first.
func (ed *edit) deleteRange(start, end treepos.Position) (treepos.Position, bool) {
	if c, err := treepos.Compare(start, end); err != nil || c >= 0 {
		return start, err == nil
	}
	sc, ec := start.Container, end.Container
	if sc == ec && sc.Kind().IsCharacterData() {
		return start, ed.deleteText(sc, start.Offset, end.Offset-start.Offset)
	}

	r := ed.tracking(start, end)
	defer r.Release()

	startBlock := textiter.EnclosingBlock(sc)
	endBlock := textiter.EnclosingBlock(ec)

	var doomed []*dom.Node
	past := r.PastLastNode()
	for n := r.FirstNode(); n != nil && n != past; {
		if fullyInside(n, start, end) {
			doomed = append(doomed, n)
			n = n.TraverseNextSibling(nil)
			continue
		}
		n = n.TraverseNext(nil)
	}

	if sc.Kind().IsCharacterData() && !ed.deleteText(sc, start.Offset, sc.Length()-start.Offset) {
		return start, false
	}
	if ec.Kind().IsCharacterData() && !ed.deleteText(ec, 0, end.Offset) {
		return start, false
	}
	for _, n := range doomed {
		if !ed.removeNode(n) {
			return start, false
		}
	}

	if startBlock != endBlock && !startBlock.Contains(endBlock) && !endBlock.Contains(startBlock) &&
		endBlock.IsConnected() && endBlock.IsEditable() {
		if !ed.joinBlocks(startBlock, endBlock) {
			return start, false
		}
	}
	return r.Start(), true
}

// joinBlocks moves the content of second onto the end of first and
// removes second.
func (ed *edit) joinBlocks(first, second *dom.Node) bool {
	for _, c := range slices.Clone(second.Children()) {
		if !ed.moveNode(c, first, nil) {
			return false
		}
	}
	parent := second.Parent()
	if !ed.removeNode(second) {
		return false
	}
	// Drop ancestors the join emptied.
	for parent != nil && parent.ChildCount() == 0 && parent.IsEditable() && editableRoot(parent) != parent {
		next := parent.Parent()
		if !ed.removeNode(parent) {
			return false
		}
		parent = next
	}
	return true
}

func fullyInside(n *dom.Node, start, end treepos.Position) bool {
	if n.Parent() == nil {
		return false
	}
	a, err := treepos.Compare(start, treepos.Before(n))
	if err != nil || a > 0 {
		return false
	}
	b, err := treepos.Compare(treepos.After(n), end)
	return err == nil && b <= 0
}

// insertLineBreakAt puts a br element at p.
func (ed *edit) insertLineBreakAt(p treepos.Position) (treepos.Position, treepos.Position, bool) {
	return ed.insertNodesAt(p, ed.doc.CreateElement("br"))
}

// insertParagraphAt splits the block around p in two. The returned span
// runs from the end of the first half to the start of the second. Outside
// a splittable block it inserts a line break instead.
func (ed *edit) insertParagraphAt(p treepos.Position) (treepos.Position, treepos.Position, bool) {
	block := textiter.EnclosingBlock(p.Container)
	if block == nil || block == editableRoot(p.Container) || !block.IsEditable() || block.Parent() == nil {
		return ed.insertLineBreakAt(p)
	}

	p, ok := ed.splitAt(p)
	if !ok {
		return p, p, false
	}
	for {
		c := p.Container
		clone := c.CloneNode(false)
		if !ed.insertNode(c.Parent(), clone, c.NextSibling()) {
			return p, p, false
		}
		for _, m := range slices.Clone(c.Children()[p.Offset:]) {
			if !ed.moveNode(m, clone, nil) {
				return p, p, false
			}
		}
		if c == block {
			return treepos.EndOf(c), treepos.StartOf(clone), true
		}
		p = treepos.After(c)
	}
}

// insertPlainText inserts text at p, turning newlines into paragraph
// breaks, and returns the span of the new content.
func (ed *edit) insertPlainText(p treepos.Position, text string) (treepos.Position, treepos.Position, bool) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	var first treepos.Position
	for i, line := range lines {
		var start treepos.Position
		ok := true
		if i > 0 {
			if _, p, ok = ed.insertParagraphAt(p); !ok {
				return first, p, false
			}
		}
		if start, p, ok = ed.insertTextAt(p, line); !ok {
			return first, p, false
		}
		if start.Container == p.Container && !ed.balanceSpaces(p.Container, start.Offset, p.Offset) {
			return first, p, false
		}
		if i == 0 {
			first = start
		}
	}
	return first, p, true
}

const noBreakSpace = '\u00a0'

// balanceSpaces keeps the spaces at and next to [from, to) of the text
// node t visible. A space that would collapse away becomes a no-break
// space; a no-break space between visible characters becomes a space.
func (ed *edit) balanceSpaces(t *dom.Node, from, to int) bool {
	if !t.Kind().IsText() || !t.ComputedWhiteSpace().CollapsesSpaces() {
		return true
	}
	for i := max(from-1, 0); i < min(to+1, t.Length()); i++ {
		var c string
		switch t.Runes()[i] {
		case ' ':
			if textiter.SpaceShows(t, i) {
				continue
			}
			c = string(noBreakSpace)
		case noBreakSpace:
			if !textiter.SpaceShows(t, i) {
				continue
			}
			c = " "
		default:
			continue
		}
		// Insert before deleting so positions after the character stay
		// after it.
		if !ed.insertText(t, i, c) || !ed.deleteText(t, i+1, 1) {
			return false
		}
	}
	return true
}
