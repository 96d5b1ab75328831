package editing

import (
	"slices"

	"github.com/rjkroege/domedit/dom"
	"github.com/rjkroege/domedit/domrange"
	"github.com/rjkroege/domedit/textcheck"
	"github.com/rjkroege/domedit/textiter"
	"github.com/rjkroege/domedit/treepos"
)

// AmbiguousBoundary holds the characters that may either end a word or
// continue it. A finding that ends just before one of them, with the
// caret right after it, is left alone while the user may still be typing
// the word.
var AmbiguousBoundary = []rune{
	'\'',
	'’', // right single quotation mark
	'״', // Hebrew punctuation gershayim
}

// checkRegion is the text a scheduled request was made from.
type checkRegion struct {
	key   *dom.Node
	rng   *domrange.Range
	text  string
	kinds textcheck.Kind
}

// Markers returns the check annotations of the document.
func (e *Editor) Markers() *textcheck.Markers { return e.markers }

// Checking reports whether the Editor has a checker.
func (e *Editor) Checking() bool { return e.scheduler != nil }

// PendingChecks returns the number of scheduled requests that have not
// finished.
func (e *Editor) PendingChecks() int {
	if e.scheduler == nil {
		return 0
	}
	return e.scheduler.Pending()
}

func (e *Editor) kinds() textcheck.Kind {
	k := e.checkKinds
	if e.autocorrect {
		k |= textcheck.Replacement
	}
	return k
}

// scheduleCheck checks the words or sentences around sel.
func (e *Editor) scheduleCheck(sel Selection) {
	if e.scheduler == nil || e.comp != nil || sel.IsNone() || !isEditablePosition(sel.Start()) {
		return
	}
	r, err := domrange.FromPositions(e.doc, sel.Start(), sel.End())
	if err != nil {
		return
	}
	if e.kinds()&textcheck.Grammar != 0 {
		err = textiter.ExpandToSentence(r, e.behavior)
	} else {
		err = textiter.ExpandToWord(r, e.behavior)
	}
	if err != nil {
		e.logger.Printf("editing: expanding check region: %v", err)
	}
	e.schedule(textiter.EnclosingBlock(sel.Start().Container), r)
}

// Check schedules a check of the contents of n and returns the request
// ID, or 0 if the Editor has no checker.
func (e *Editor) Check(n *dom.Node) int {
	if e.scheduler == nil {
		return 0
	}
	r, err := domrange.Selecting(n)
	if err != nil {
		return 0
	}
	return e.schedule(n, r)
}

// schedule queues r under key, widened to cover any region still waiting
// under the same key. It takes ownership of r.
func (e *Editor) schedule(key *dom.Node, r *domrange.Range) int {
	for id, c := range e.checks {
		if c.key != key {
			continue
		}
		if cmp, err := treepos.Compare(c.rng.Start(), r.Start()); err == nil && cmp < 0 {
			r.SetStart(c.rng.StartContainer(), c.rng.StartOffset())
		}
		if cmp, err := treepos.Compare(c.rng.End(), r.End()); err == nil && cmp > 0 {
			r.SetEnd(c.rng.EndContainer(), c.rng.EndOffset())
		}
		c.rng.Release()
		delete(e.checks, id)
	}

	text := textiter.PlainText(r, e.behavior)
	kinds := e.kinds()
	id := e.scheduler.Schedule(key, text, kinds)
	if id == 0 {
		r.Release()
		return 0
	}
	e.checks[id] = &checkRegion{key: key, rng: r, text: text, kinds: kinds}
	return id
}

// ApplyCheckResponses applies every finished check response without
// waiting and returns how many it applied. Responses for regions that
// were scheduled again since are dropped.
func (e *Editor) ApplyCheckResponses() int {
	if e.scheduler == nil {
		return 0
	}
	n := 0
	for {
		select {
		case resp := <-e.scheduler.Responses():
			c, ok := e.checks[resp.Request.ID]
			if !ok {
				continue
			}
			delete(e.checks, resp.Request.ID)
			if resp.Err == nil {
				e.applyResults(c, resp.Results)
				n++
			}
			c.rng.Release()
		default:
			return n
		}
	}
}

func (e *Editor) applyResults(c *checkRegion, results []textcheck.Result) {
	current := textiter.PlainText(c.rng, e.behavior)
	stale := c.kinds
	if stale&textcheck.Replacement != 0 {
		stale |= textcheck.Spelling
	}
	e.clearMarkers(c.rng, stale)
	ambiguous := e.ambiguousBoundary(c.rng, current)

	// Later results first, so that corrections leave the offsets of the
	// earlier ones alone.
	results = slices.Clone(results)
	slices.SortStableFunc(results, func(a, b textcheck.Result) int { return b.Offset - a.Offset })

	for _, res := range results {
		off := res.Offset
		if current != c.text {
			var ok bool
			if off, ok = textcheck.RemapSpan(c.text, current, res.Offset, res.Length); !ok {
				continue
			}
		}
		if ambiguous >= 0 && off+res.Length == ambiguous {
			continue
		}
		span, err := textiter.Subrange(c.rng, off, res.Length, e.behavior)
		if err != nil {
			continue
		}
		start, end := span.Start(), span.End()
		span.Release()

		switch res.Kind {
		case textcheck.Replacement:
			if e.autocorrect {
				e.apply(&Correct{Start: start, End: end, Text: res.Replacement, KeepSelection: true})
				continue
			}
			e.mark(textcheck.Spelling, start, end, append([]string{res.Replacement}, res.Suggestions...), nil)
		case textcheck.Spelling:
			e.mark(textcheck.Spelling, start, end, res.Suggestions, nil)
		case textcheck.Grammar:
			e.mark(textcheck.Grammar, start, end, nil, res.Details)
		}
	}
}

// ambiguousBoundary returns the offset in text of the character just
// before a caret inside r if that character is in AmbiguousBoundary, or
// -1.
func (e *Editor) ambiguousBoundary(r *domrange.Range, text string) int {
	sel := e.Selection()
	if !sel.IsCaret() {
		return -1
	}
	if in, err := r.IsPointInRange(sel.Anchor.Container, sel.Anchor.Offset); err != nil || !in {
		return -1
	}
	before, err := domrange.FromPositions(e.doc, r.Start(), sel.Anchor)
	if err != nil {
		return -1
	}
	loc := textiter.RangeLength(before, e.behavior)
	before.Release()
	rs := []rune(text)
	if loc == 0 || loc > len(rs) || !slices.Contains(AmbiguousBoundary, rs[loc-1]) {
		return -1
	}
	return loc - 1
}

// mark adds a marker if start and end fall in one text node.
func (e *Editor) mark(kind textcheck.Kind, start, end treepos.Position, suggestions []string, details []textcheck.GrammarDetail) {
	if start.Container != end.Container {
		return
	}
	e.markers.Add(textcheck.Marker{
		Kind:        kind,
		Node:        start.Container,
		Offset:      start.Offset,
		Length:      end.Offset - start.Offset,
		Suggestions: suggestions,
		Details:     details,
	})
}

func (e *Editor) clearMarkers(r *domrange.Range, kinds textcheck.Kind) {
	past := r.PastLastNode()
	for n := r.FirstNode(); n != nil && n != past; n = n.TraverseNext(nil) {
		if !n.Kind().IsText() {
			continue
		}
		start, end := 0, n.Length()
		if n == r.StartContainer() {
			start = r.StartOffset()
		}
		if n == r.EndContainer() {
			end = r.EndOffset()
		}
		e.markers.ClearSpan(n, start, end, kinds)
	}
}

// CorrectSpelling replaces the text of m with replacement as one undoable
// entry.
func (e *Editor) CorrectSpelling(m *textcheck.Marker, replacement string) bool {
	if e.applying || m == nil || !e.markers.Contains(m) {
		return false
	}
	e.confirmComposition("", false)
	e.closeTyping()
	ok := e.apply(&Correct{
		Start: treepos.Position{Container: m.Node, Offset: m.Offset},
		End:   treepos.Position{Container: m.Node, Offset: m.End()},
		Text:  replacement,
	})
	e.closeTyping()
	return ok
}
