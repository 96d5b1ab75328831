package textiter

import (
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/rjkroege/domedit/dom"
	"github.com/rjkroege/domedit/domrange"
	"github.com/rjkroege/domedit/treepos"
)

// RangeLength returns the number of characters the text of r flattens
// to.
func RangeLength(r *domrange.Range, b Behavior) int {
	n := 0
	for it := New(r, b); it.Next(); {
		n += it.Len()
	}
	return n
}

// PlainText returns the flattened text of r.
func PlainText(r *domrange.Range, b Behavior) string {
	var sb strings.Builder
	for it := New(r, b); it.Next(); {
		for _, c := range it.Runes() {
			sb.WriteRune(c)
		}
	}
	return sb.String()
}

// Subrange returns a new range covering length characters of the text of
// r starting offset characters in. A zero length gives a collapsed range.
func Subrange(r *domrange.Range, offset, length int, b Behavior) (*domrange.Range, error) {
	if offset < 0 || length < 0 {
		return nil, fmt.Errorf("%w: subrange %d+%d", dom.ErrIndexOutOfRange, offset, length)
	}
	return characterSubrange(r.Document(), NewCharacterIterator(r, b), offset, length)
}

func characterSubrange(doc *dom.Document, it *CharacterIterator, offset, length int) (*domrange.Range, error) {
	it.Advance(offset)
	start, _ := it.CurrentRange()
	if length == 0 {
		return domrange.FromPositions(doc, start, start)
	}
	if length > 1 {
		it.Advance(length - 1)
	}
	last, end := it.CurrentRange()
	if last == end && !it.AtEnd() {
		end = afterSeparator(end)
	}
	return domrange.FromPositions(doc, start, end)
}

// afterSeparator returns the end of a synthesized character at p, which
// has no width in the tree: the first caret position after it.
func afterSeparator(p treepos.Position) treepos.Position {
	if q, ok := nextCaretPosition(p); ok {
		return q
	}
	return p
}

// RangeFromLocationAndLength maps the span [location, location+length) of
// the flattened text of scope's contents back to a range. A span reaching
// past the end of the text is clipped to it; a location past the end fails
// with dom.ErrIndexOutOfRange.
func RangeFromLocationAndLength(scope *dom.Node, location, length int, b Behavior) (*domrange.Range, error) {
	if location < 0 || length < 0 {
		return nil, fmt.Errorf("%w: location %d length %d", dom.ErrIndexOutOfRange, location, length)
	}
	whole, err := domrange.Selecting(scope)
	if err != nil {
		return nil, err
	}
	defer whole.Release()
	doc := scope.Document()

	it := New(whole, b)
	if !it.Next() {
		if location == 0 && length == 0 {
			p := treepos.StartOf(scope)
			return domrange.FromPositions(doc, p, p)
		}
		return nil, fmt.Errorf("%w: location %d in empty text", dom.ErrIndexOutOfRange, location)
	}

	var start, end treepos.Position
	pos := 0
	rangeEnd := location + length
	startFound := false
	var runStart, runEnd treepos.Position
	for ; !it.AtEnd(); it.Next() {
		n := it.Len()
		runStart, runEnd = it.Start(), it.End()

		foundStart := location >= pos && location <= pos+n
		foundEnd := rangeEnd >= pos && rangeEnd <= pos+n

		if (foundStart || foundEnd) && n == 1 && runStart == runEnd {
			runEnd = afterSeparator(runStart)
		}

		if foundStart {
			startFound = true
			switch {
			case runStart.Container.Kind().IsText():
				start = treepos.Position{Container: runStart.Container, Offset: runStart.Offset + location - pos}
			case location == pos:
				start = runStart
			default:
				start = runEnd
			}
		}
		if foundEnd {
			switch {
			case runStart.Container.Kind().IsText():
				end = treepos.Position{Container: runStart.Container, Offset: runStart.Offset + rangeEnd - pos}
			case rangeEnd == pos:
				end = runStart
			default:
				end = runEnd
			}
			pos += n
			break
		}
		pos += n
	}

	if !startFound {
		return nil, fmt.Errorf("%w: location %d past text of length %d", dom.ErrIndexOutOfRange, location, pos)
	}
	if length != 0 && rangeEnd > pos {
		end = runEnd
	}
	return domrange.FromPositions(doc, start, end)
}

// nextCaretPosition returns the start of the first text or replaced
// element after p.
func nextCaretPosition(p treepos.Position) (treepos.Position, bool) {
	n := p.ChildAfter()
	if n == nil {
		n = p.Container.TraverseNextSibling(nil)
	}
	for ; n != nil; n = n.TraverseNext(nil) {
		if !n.IsRendered() {
			continue
		}
		if n.Kind().IsText() && hasLayout(n) {
			return treepos.StartOf(n), true
		}
		if n.IsReplaced() {
			return treepos.Before(n), true
		}
	}
	return treepos.Position{}, false
}

// FindOptions control FindPlainText.
type FindOptions struct {
	CaseInsensitive bool
	Backward        bool
}

// FindPlainText searches the flattened text of r for target. It returns
// the range of the first match, or the last one when searching backward.
// Without a match the result is r collapsed to its end, or to its start
// when searching backward.
func FindPlainText(r *domrange.Range, target string, opts FindOptions, b Behavior) (*domrange.Range, error) {
	collapsed := func() (*domrange.Range, error) {
		c, err := r.CloneRange()
		if err != nil {
			return nil, err
		}
		return c, c.Collapse(opts.Backward)
	}

	needle := []rune(target)
	if isAllSpace(needle) {
		return collapsed()
	}
	hay := []rune(PlainText(r, b))
	if opts.CaseInsensitive {
		fold(needle)
		fold(hay)
	}

	at := -1
	for i := 0; i+len(needle) <= len(hay); i++ {
		if slices.Equal(hay[i:i+len(needle)], needle) {
			at = i
			if !opts.Backward {
				break
			}
		}
	}
	if at < 0 {
		return collapsed()
	}
	return Subrange(r, at, len(needle), b)
}

func isAllSpace(s []rune) bool {
	for _, c := range s {
		if !isSpace(c) {
			return false
		}
	}
	return true
}

func fold(s []rune) {
	for i, c := range s {
		s[i] = unicode.ToLower(c)
	}
}
