package textiter

import (
	"fmt"
	"unicode/utf8"

	"github.com/rivo/uniseg"
	"github.com/rjkroege/domedit/dom"
	"github.com/rjkroege/domedit/domrange"
	"github.com/rjkroege/domedit/treepos"
)

type segmenter func(str string, state int) (segment, rest string, newState int)

// WordBounds returns the rune offsets of the word segment of text that
// contains offset. An offset at the end of text belongs to the last
// segment. Whitespace and punctuation form segments of their own.
func WordBounds(text string, offset int) (start, end int) {
	return segmentBounds(text, offset, uniseg.FirstWordInString)
}

// SentenceBounds returns the rune offsets of the sentence of text that
// contains offset.
func SentenceBounds(text string, offset int) (start, end int) {
	return segmentBounds(text, offset, uniseg.FirstSentenceInString)
}

func segmentBounds(text string, offset int, first segmenter) (int, int) {
	state := -1
	pos, last := 0, 0
	for rest := text; len(rest) > 0; {
		var seg string
		seg, rest, state = first(rest, state)
		n := utf8.RuneCountInString(seg)
		if offset < pos+n {
			return pos, pos + n
		}
		last = pos
		pos += n
	}
	return last, pos
}

// wordAt is WordBounds preferring the word that ends at offset over the
// whitespace that starts there.
func wordAt(text string, offset int) (int, int) {
	start, end := WordBounds(text, offset)
	if start == offset && offset > 0 && isAllSpace([]rune(sliceRunes(text, start, end))) {
		return WordBounds(text, offset-1)
	}
	return start, end
}

func sliceRunes(s string, start, end int) string {
	r := []rune(s)
	return string(r[start:end])
}

// LocationAndLength returns where r lies in the flattened text of scope:
// the number of characters before its start and the number inside it.
func LocationAndLength(scope *dom.Node, r *domrange.Range, b Behavior) (location, length int, err error) {
	if !scope.Contains(r.StartContainer()) || !scope.Contains(r.EndContainer()) {
		return 0, 0, fmt.Errorf("%w: range is outside %v", dom.ErrNotFound, scope)
	}
	before, err := domrange.FromPositions(scope.Document(), treepos.StartOf(scope), r.Start())
	if err != nil {
		return 0, 0, err
	}
	defer before.Release()
	return RangeLength(before, b), RangeLength(r, b), nil
}

// EnclosingBlock returns the nearest block ancestor-or-self of n, or the
// root of its tree.
func EnclosingBlock(n *dom.Node) *dom.Node {
	for m := n; m != nil; m = m.Parent() {
		if m.Kind() == dom.ElementNode && (m.IsBlock() || m.IsElement("body")) {
			return m
		}
		if m.Parent() == nil {
			return m
		}
	}
	return nil
}

// ExpandToWord grows r to start and end on word boundaries of the text of
// its enclosing block.
func ExpandToWord(r *domrange.Range, b Behavior) error {
	return expand(r, b, wordAt, WordBounds)
}

// ExpandToSentence grows r to whole sentences of its enclosing block.
func ExpandToSentence(r *domrange.Range, b Behavior) error {
	return expand(r, b, SentenceBounds, SentenceBounds)
}

func expand(r *domrange.Range, b Behavior, startBounds, endBounds func(string, int) (int, int)) error {
	block := EnclosingBlock(r.StartContainer())
	if !block.Contains(r.EndContainer()) {
		block = treepos.CommonAncestor(block, r.EndContainer())
	}
	loc, length, err := LocationAndLength(block, r, b)
	if err != nil {
		return err
	}
	whole, err := domrange.Selecting(block)
	if err != nil {
		return err
	}
	text := PlainText(whole, b)
	whole.Release()

	start, end := startBounds(text, loc)
	if length > 0 {
		_, end = endBounds(text, loc+length-1)
	}
	nr, err := RangeFromLocationAndLength(block, start, end-start, b)
	if err != nil {
		return err
	}
	defer nr.Release()
	if err := r.SetStart(nr.StartContainer(), nr.StartOffset()); err != nil {
		return err
	}
	return r.SetEnd(nr.EndContainer(), nr.EndOffset())
}
