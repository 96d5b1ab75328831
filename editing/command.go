package editing

import (
	"slices"

	"github.com/rjkroege/domedit/dom"
	"github.com/rjkroege/domedit/textiter"
	"github.com/rjkroege/domedit/treepos"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// EditAction names what a command does, for undo menus and coalescing.
type EditAction uint8

const (
	ActionUnspecified EditAction = iota
	ActionTyping
	ActionDelete
	ActionForwardDelete
	ActionInsertLineBreak
	ActionInsertParagraph
	ActionCut
	ActionPaste
	ActionBold
	ActionItalic
	ActionUnderline
	ActionCorrection
	ActionComposition
)

var actionNames = [...]string{
	ActionUnspecified:     "unspecified",
	ActionTyping:          "typing",
	ActionDelete:          "delete",
	ActionForwardDelete:   "forward delete",
	ActionInsertLineBreak: "insert line break",
	ActionInsertParagraph: "insert paragraph",
	ActionCut:             "cut",
	ActionPaste:           "paste",
	ActionBold:            "bold",
	ActionItalic:          "italic",
	ActionUnderline:       "underline",
	ActionCorrection:      "correction",
	ActionComposition:     "composition",
}

func (a EditAction) String() string {
	if int(a) < len(actionNames) {
		return actionNames[a]
	}
	return "unknown"
}

// IsTyping reports whether consecutive commands of the action may share
// one undo entry.
func (a EditAction) IsTyping() bool {
	switch a {
	case ActionTyping, ActionDelete, ActionForwardDelete, ActionInsertLineBreak, ActionInsertParagraph, ActionComposition:
		return true
	}
	return false
}

// A Command is an editing operation an Editor can apply. Commands build
// their effect out of recorded steps so that the Editor can undo them.
// apply reports false when the command does not apply to the selection.
type Command interface {
	Action() EditAction
	apply(ed *edit) bool
}

// selectionToReplace returns the editable selection a command acts on.
func selectionToReplace(ed *edit) (treepos.Position, treepos.Position, bool) {
	s := ed.start
	if s.IsNone() || !isEditablePosition(s.Start()) || !isEditablePosition(s.End()) {
		return treepos.Position{}, treepos.Position{}, false
	}
	return s.Start(), s.End(), true
}

// An inserter puts content at a position and returns the span it
// occupies afterwards.
type inserter func(treepos.Position) (treepos.Position, treepos.Position, bool)

// replaceSelectionWith deletes the selection and calls insert at the
// place it was.
func replaceSelectionWith(ed *edit, insert inserter) (treepos.Position, treepos.Position, bool) {
	start, end, ok := selectionToReplace(ed)
	if !ok {
		return start, end, false
	}
	at, ok := ed.deleteRange(start, end)
	if !ok {
		return at, at, false
	}
	return insert(at)
}

// InsertText types text over the selection.
type InsertText struct {
	Text string

	// SelectInserted leaves the inserted text selected instead of
	// placing the caret after it.
	SelectInserted bool
}

func (c *InsertText) Action() EditAction { return ActionTyping }

func (c *InsertText) apply(ed *edit) bool {
	start, end, ok := replaceSelectionWith(ed, func(p treepos.Position) (treepos.Position, treepos.Position, bool) {
		return ed.insertPlainText(p, c.Text)
	})
	if !ok {
		return false
	}
	if c.SelectInserted {
		ed.end = Span(start, end)
	} else {
		ed.end = Caret(end)
	}
	return true
}

// CompositionUpdate replaces the provisional text of an input method
// composition. It is typing that leaves the new text selected.
type CompositionUpdate struct {
	Text string
}

func (c *CompositionUpdate) Action() EditAction { return ActionComposition }

func (c *CompositionUpdate) apply(ed *edit) bool {
	return (&InsertText{Text: c.Text, SelectInserted: true}).apply(ed)
}

// DeleteSelection removes the selected content.
type DeleteSelection struct {
	// Cut marks the deletion as the second half of a cut.
	Cut bool
}

func (c *DeleteSelection) Action() EditAction {
	if c.Cut {
		return ActionCut
	}
	return ActionDelete
}

func (c *DeleteSelection) apply(ed *edit) bool {
	if !ed.start.IsRange() {
		return false
	}
	start, end, ok := selectionToReplace(ed)
	if !ok {
		return false
	}
	at, ok := ed.deleteRange(start, end)
	ed.end = Caret(at)
	return ok && ed.balanceSpaces(at.Container, at.Offset, at.Offset)
}

// DeleteBackward deletes the selection or, at a caret, the character
// before it.
type DeleteBackward struct{}

func (c *DeleteBackward) Action() EditAction { return ActionDelete }

func (c *DeleteBackward) apply(ed *edit) bool {
	if ed.start.IsRange() {
		return (&DeleteSelection{}).apply(ed)
	}
	return deleteCharacter(ed, -1)
}

// DeleteForward deletes the selection or the character after the caret.
type DeleteForward struct{}

func (c *DeleteForward) Action() EditAction { return ActionForwardDelete }

func (c *DeleteForward) apply(ed *edit) bool {
	if ed.start.IsRange() {
		return (&DeleteSelection{}).apply(ed)
	}
	return deleteCharacter(ed, 1)
}

// deleteCharacter removes the character of the editable root's text next
// to the caret in direction dir. Deleting a block separator joins the
// blocks.
func deleteCharacter(ed *edit, dir int) bool {
	caret := ed.start.Anchor
	if ed.start.IsNone() || !isEditablePosition(caret) {
		return false
	}
	root := editableRoot(caret.Container)
	r := ed.tracking(caret, caret)
	loc, _, err := textiter.LocationAndLength(root, r, ed.behavior)
	r.Release()
	if err != nil {
		return false
	}
	if dir < 0 {
		if loc == 0 {
			return false
		}
		loc--
	}
	span, err := textiter.RangeFromLocationAndLength(root, loc, 1, ed.behavior)
	if err != nil {
		return false
	}
	start, end := span.Start(), span.End()
	span.Release()
	// A block separator starts between blocks; pull it back to the end of
	// the text before so that deleting it joins the blocks.
	if !start.Container.Kind().IsCharacterData() {
		if a := start.ChildAfter(); a == nil || a.Display() != dom.DisplayBreak && !a.IsReplaced() {
			if p, ok := previousCaretPosition(start, root); ok {
				start = p
			}
		}
	}
	if start == end || !isEditablePosition(start) || !isEditablePosition(end) {
		return false
	}
	end = pastCollapsedRun(start, end)
	at, ok := ed.deleteRange(start, end)
	ed.end = Caret(at)
	return ok && ed.balanceSpaces(at.Container, at.Offset, at.Offset)
}

// pastCollapsedRun extends a span holding the one space a run of
// collapsible whitespace shows as to the end of the run.
func pastCollapsedRun(start, end treepos.Position) treepos.Position {
	c := start.Container
	if c != end.Container || !c.Kind().IsText() || end.Offset != start.Offset+1 {
		return end
	}
	ws := c.ComputedWhiteSpace()
	if !ws.CollapsesSpaces() {
		return end
	}
	data := c.Runes()
	collapsible := func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\r' || r == '\f' || r == '\n' && !ws.PreservesNewlines()
	}
	if !collapsible(data[start.Offset]) {
		return end
	}
	for end.Offset < len(data) && collapsible(data[end.Offset]) {
		end.Offset++
	}
	return end
}

// previousCaretPosition returns the end of the last text or replaced
// element before p inside root.
func previousCaretPosition(p treepos.Position, root *dom.Node) (treepos.Position, bool) {
	var n *dom.Node
	if b := p.ChildBefore(); b != nil {
		n = b.LastDescendant()
	} else {
		n = p.Container.TraversePrevious(root)
	}
	for ; n != nil && n != root; n = n.TraversePrevious(root) {
		if !n.IsRendered() {
			continue
		}
		if n.Kind().IsText() && n.Length() > 0 {
			return treepos.EndOf(n), true
		}
		if n.IsReplaced() {
			return treepos.After(n), true
		}
	}
	return treepos.Position{}, false
}

// InsertLineBreak types a line break.
type InsertLineBreak struct{}

func (c *InsertLineBreak) Action() EditAction { return ActionInsertLineBreak }

func (c *InsertLineBreak) apply(ed *edit) bool {
	_, end, ok := replaceSelectionWith(ed, ed.insertLineBreakAt)
	ed.end = Caret(end)
	return ok
}

// InsertParagraph splits the paragraph at the selection.
type InsertParagraph struct{}

func (c *InsertParagraph) Action() EditAction { return ActionInsertParagraph }

func (c *InsertParagraph) apply(ed *edit) bool {
	_, end, ok := replaceSelectionWith(ed, ed.insertParagraphAt)
	ed.end = Caret(end)
	return ok
}

// Paste replaces the selection with Text or, if it is set, with the
// children of Fragment.
type Paste struct {
	Text     string
	Fragment *dom.Node
}

func (c *Paste) Action() EditAction { return ActionPaste }

func (c *Paste) apply(ed *edit) bool {
	insert := inserter(func(p treepos.Position) (treepos.Position, treepos.Position, bool) {
		return ed.insertPlainText(p, c.Text)
	})
	if c.Fragment != nil {
		insert = func(p treepos.Position) (treepos.Position, treepos.Position, bool) {
			nodes := slices.Clone(c.Fragment.Children())
			if len(nodes) == 0 {
				return p, p, true
			}
			return ed.insertNodesAt(p, nodes...)
		}
	}
	_, end, ok := replaceSelectionWith(ed, insert)
	ed.end = Caret(end)
	return ok
}

// Style is an inline text style.
type Style uint8

const (
	StyleBold Style = iota
	StyleItalic
	StyleUnderline
)

var styleTags = [...]string{StyleBold: "b", StyleItalic: "i", StyleUnderline: "u"}

// ApplyStyle wraps the selected text in the element for Style. Text that
// already has the style is left alone.
type ApplyStyle struct {
	Style Style
}

func (c *ApplyStyle) Action() EditAction {
	switch c.Style {
	case StyleItalic:
		return ActionItalic
	case StyleUnderline:
		return ActionUnderline
	}
	return ActionBold
}

func (c *ApplyStyle) apply(ed *edit) bool {
	if !ed.start.IsRange() {
		return false
	}
	start, end, ok := selectionToReplace(ed)
	if !ok {
		return false
	}
	tag := styleTags[c.Style]

	r := ed.tracking(start, end)
	defer r.Release()
	if ec := r.EndContainer(); ec.Kind().IsText() && r.EndOffset() > 0 && r.EndOffset() < ec.Length() {
		if ed.splitText(ec, r.EndOffset()) == nil {
			return false
		}
	}
	if sc := r.StartContainer(); sc.Kind().IsText() && r.StartOffset() > 0 && r.StartOffset() < sc.Length() {
		if ed.splitText(sc, r.StartOffset()) == nil {
			return false
		}
	}

	var texts []*dom.Node
	past := r.PastLastNode()
	for n := r.FirstNode(); n != nil && n != past; n = n.TraverseNext(nil) {
		if n.Kind().IsText() && n.Length() > 0 && n.IsRendered() && n.IsEditable() &&
			coversText(n, r.Start(), r.End()) && !hasStyle(n, tag) {
			texts = append(texts, n)
		}
	}
	if len(texts) == 0 {
		return false
	}
	for _, t := range texts {
		w := ed.doc.CreateElement(tag)
		parent := t.Parent()
		if !ed.insertNode(parent, w, t) || !ed.moveNode(t, w, nil) {
			return false
		}
	}
	first, last := texts[0], texts[len(texts)-1]
	ed.end = Span(treepos.StartOf(first), treepos.EndOf(last))
	return true
}

// coversText reports whether start..end includes all of the text of n.
func coversText(n *dom.Node, start, end treepos.Position) bool {
	a, err := treepos.Compare(start, treepos.StartOf(n))
	if err != nil || a > 0 {
		return false
	}
	b, err := treepos.Compare(treepos.EndOf(n), end)
	return err == nil && b <= 0
}

func hasStyle(n *dom.Node, tag string) bool {
	root := editableRoot(n)
	for m := n.Parent(); m != nil && m != root; m = m.Parent() {
		if m.IsElement(tag) {
			return true
		}
	}
	return false
}

// Correct replaces the text from Start to End with Text, touching as few
// characters as possible so that markers and positions in the unchanged
// parts survive.
type Correct struct {
	Start, End treepos.Position
	Text       string

	// KeepSelection leaves the selection where it was, repaired for the
	// edit, instead of placing the caret after the new text.
	KeepSelection bool
}

func (c *Correct) Action() EditAction { return ActionCorrection }

func (c *Correct) apply(ed *edit) bool {
	if !isEditablePosition(c.Start) || !isEditablePosition(c.End) || !inBounds(c.Start) || !inBounds(c.End) {
		return false
	}
	if o, err := treepos.Compare(c.Start, c.End); err != nil || o > 0 {
		return false
	}
	if !c.correct(ed) {
		return false
	}
	if c.KeepSelection {
		ed.end = Selection{}
	}
	return true
}

func inBounds(p treepos.Position) bool {
	return p.Offset >= 0 && p.Offset <= p.Container.Capacity()
}

func (c *Correct) correct(ed *edit) bool {
	n := c.Start.Container
	if n != c.End.Container || !n.Kind().IsText() {
		at, ok := ed.deleteRange(c.Start, c.End)
		if !ok {
			return false
		}
		_, end, ok := ed.insertTextAt(at, c.Text)
		ed.end = Caret(end)
		return ok
	}

	old := n.Runes()[c.Start.Offset:c.End.Offset]
	dmp := diffmatchpatch.New()
	at := c.Start.Offset
	for _, d := range dmp.DiffMainRunes(old, []rune(c.Text), false) {
		k := len([]rune(d.Text))
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			at += k
		case diffmatchpatch.DiffDelete:
			if !ed.deleteText(n, at, k) {
				return false
			}
		case diffmatchpatch.DiffInsert:
			if !ed.insertText(n, at, d.Text) {
				return false
			}
			at += k
		}
	}
	ed.end = Caret(treepos.Position{Container: n, Offset: at})
	return true
}
