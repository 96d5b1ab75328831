package editing

import (
	"slices"

	"github.com/rjkroege/domedit/domrange"
	"github.com/rjkroege/domedit/treepos"
)

// Underline marks part of the composition text, as an input method asks
// for it to be drawn. Offsets count characters.
type Underline struct {
	Start, End int
	Thick      bool
}

type composition struct {
	// run covers the provisional text. It always lies in one text node.
	run        *domrange.Range
	underlines []Underline
	entries    []*Entry
	startSel   Selection
}

// SetComposition replaces the provisional text of the composition in
// progress with text, starting a composition if there is none. The
// underlines and the selection selStart..selEnd are relative to text.
// Empty text cancels the composition.
func (e *Editor) SetComposition(text string, underlines []Underline, selStart, selEnd int) bool {
	if e.applying {
		return false
	}
	if text == "" {
		return e.CancelComposition()
	}

	c := e.comp
	if c == nil {
		sel := e.Selection()
		if sel.IsNone() || !isEditablePosition(sel.Start()) {
			return false
		}
		e.closeTyping()
		c = &composition{startSel: sel}
		e.comp = c
		e.notify(Event{Kind: EventCompositionStart})
	}
	e.notify(Event{Kind: EventCompositionUpdate, Text: text})
	if !e.updateComposition(text) {
		return false
	}
	if e.comp == nil {
		return true
	}

	n := []rune(text)
	start := c.run.StartOffset()
	c.underlines = c.underlines[:0]
	for _, u := range underlines {
		u.Start = start + clamp(u.Start, 0, len(n))
		u.End = start + clamp(u.End, 0, len(n))
		if u.Start < u.End {
			c.underlines = append(c.underlines, u)
		}
	}
	node := c.run.StartContainer()
	e.setSelection(Span(
		treepos.Position{Container: node, Offset: start + clamp(selStart, 0, len(n))},
		treepos.Position{Container: node, Offset: start + clamp(selEnd, 0, len(n))},
	))
	return true
}

// updateComposition types text over the current run and reports whether
// it could. It ends the composition if the result is not one run of a
// single text node.
func (e *Editor) updateComposition(text string) bool {
	c := e.comp
	if c.run != nil {
		e.setSelection(Span(c.run.Start(), c.run.End()))
		c.run.Release()
		c.run = nil
	}
	if !e.apply(&CompositionUpdate{Text: text}) {
		e.comp = nil
		e.notify(Event{Kind: EventCompositionEnd})
		return false
	}
	if e.typing != nil && !slices.Contains(c.entries, e.typing) {
		c.entries = append(c.entries, e.typing)
	}

	sel := e.Selection()
	s, t := sel.Start(), sel.End()
	if s.Container == t.Container && s.Container.Kind().IsText() {
		if run, err := domrange.FromPositions(e.doc, s, t); err == nil {
			c.run = run
			return true
		}
	}
	e.comp = nil
	e.closeTyping()
	e.notify(Event{Kind: EventCompositionEnd, Text: text})
	return true
}

func clamp(v, lo, hi int) int { return max(lo, min(v, hi)) }

// HasComposition reports whether a composition is in progress.
func (e *Editor) HasComposition() bool { return e.comp != nil }

// CompositionText returns the provisional text.
func (e *Editor) CompositionText() string {
	if e.comp == nil {
		return ""
	}
	return e.comp.run.String()
}

// Underlines returns the underlines of the composition, with offsets in
// the text node holding it.
func (e *Editor) Underlines() []Underline {
	if e.comp == nil {
		return nil
	}
	return slices.Clone(e.comp.underlines)
}

// ConfirmComposition keeps the provisional text and ends the
// composition.
func (e *Editor) ConfirmComposition() bool {
	return e.confirmComposition("", false)
}

// ConfirmCompositionText replaces the provisional text with text and ends
// the composition.
func (e *Editor) ConfirmCompositionText(text string) bool {
	return e.confirmComposition(text, true)
}

func (e *Editor) confirmComposition(text string, replace bool) bool {
	c := e.comp
	if c == nil {
		return false
	}
	if replace && text != c.run.String() {
		if text == "" {
			return e.CancelComposition()
		}
		if !e.updateComposition(text) {
			return false
		}
		if e.comp == nil {
			return true
		}
	}
	text = c.run.String()
	e.setSelection(Caret(c.run.End()))
	c.run.Release()
	e.comp = nil
	e.closeTyping()
	e.notify(Event{Kind: EventCompositionEnd, Text: text})
	e.scheduleCheck(e.Selection())
	return true
}

// CancelComposition removes the provisional text and restores the
// selection from before the composition started.
func (e *Editor) CancelComposition() bool {
	c := e.comp
	if c == nil {
		return false
	}
	e.comp = nil
	c.run.Release()
	e.notify(Event{Kind: EventCompositionEnd})

	e.closeTyping()
	e.applying = true
	for i := len(c.entries) - 1; i >= 0; i-- {
		en := c.entries[i]
		e.undo.Remove(en)
		if err := en.unapply(); err != nil {
			e.logger.Printf("editing: cancelling composition: %v", err)
			break
		}
		e.notifyContent(en.roots)
	}
	e.applying = false
	e.setSelection(c.startSel)
	return true
}
