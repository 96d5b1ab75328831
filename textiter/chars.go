package textiter

import (
	"github.com/rjkroege/domedit/domrange"
	"github.com/rjkroege/domedit/treepos"
)

// CharacterIterator steps through the text of a range by characters
// rather than chunks.
type CharacterIterator struct {
	it        *TextIterator
	offset    int
	runOffset int
	atBreak   bool
}

// NewCharacterIterator returns a character iterator positioned on the
// first character of r.
func NewCharacterIterator(r *domrange.Range, b Behavior) *CharacterIterator {
	c := &CharacterIterator{it: New(r, b), atBreak: true}
	for c.it.Next() && c.it.Len() == 0 {
	}
	return c
}

func (c *CharacterIterator) AtEnd() bool { return c.it.AtEnd() }

// AtBreak reports whether the last Advance crossed a chunk without text
// or ran off the end.
func (c *CharacterIterator) AtBreak() bool { return c.atBreak }

// Offset returns the number of characters advanced over so far.
func (c *CharacterIterator) Offset() int { return c.offset }

// Len returns the number of characters left in the current chunk.
func (c *CharacterIterator) Len() int { return c.it.Len() - c.runOffset }

// Runes returns the rest of the current chunk.
func (c *CharacterIterator) Runes() []rune { return c.it.Runes()[c.runOffset:] }

// CurrentRange returns the span of the current character.
func (c *CharacterIterator) CurrentRange() (start, end treepos.Position) {
	start, end = c.it.Start(), c.it.End()
	if !c.it.AtEnd() && c.it.Len() > 1 {
		start.Offset += c.runOffset
		end = start
		end.Offset++
	}
	return start, end
}

// Advance moves forward count characters, stopping at the end.
func (c *CharacterIterator) Advance(count int) {
	if count <= 0 {
		return
	}
	c.atBreak = false

	remaining := c.it.Len() - c.runOffset
	if count < remaining {
		c.runOffset += count
		c.offset += count
		return
	}
	count -= remaining
	c.offset += remaining

	for c.it.Next() {
		n := c.it.Len()
		if n == 0 {
			c.atBreak = true
			continue
		}
		if count < n {
			c.runOffset = count
			c.offset += count
			return
		}
		count -= n
		c.offset += n
	}
	c.atBreak = true
	c.runOffset = 0
}

// String returns up to n characters and advances past them.
func (c *CharacterIterator) String(n int) string {
	var s []rune
	for n > 0 && !c.AtEnd() {
		k := min(n, c.Len())
		s = append(s, c.Runes()[:k]...)
		n -= k
		c.Advance(k)
	}
	return string(s)
}

// BackwardCharacterIterator steps backwards through a range by
// characters, using the boundary-oriented text of BackwardTextIterator.
type BackwardCharacterIterator struct {
	it        *BackwardTextIterator
	offset    int
	runOffset int
	atBreak   bool
}

func NewBackwardCharacterIterator(r *domrange.Range) *BackwardCharacterIterator {
	c := &BackwardCharacterIterator{it: NewBackward(r), atBreak: true}
	for c.it.Next() && c.it.Len() == 0 {
	}
	return c
}

func (c *BackwardCharacterIterator) AtEnd() bool   { return c.it.AtEnd() }
func (c *BackwardCharacterIterator) AtBreak() bool { return c.atBreak }
func (c *BackwardCharacterIterator) Offset() int   { return c.offset }

// Rune returns the current character.
func (c *BackwardCharacterIterator) Rune() rune {
	r := c.it.Runes()
	return r[len(r)-1-c.runOffset]
}

// CurrentRange returns the span of the current character.
func (c *BackwardCharacterIterator) CurrentRange() (start, end treepos.Position) {
	start, end = c.it.Start(), c.it.End()
	if !c.it.AtEnd() && c.it.Len() > 1 {
		end.Offset -= c.runOffset
		start = end
		start.Offset--
	}
	return start, end
}

// Advance moves backwards count characters.
func (c *BackwardCharacterIterator) Advance(count int) {
	if count <= 0 {
		return
	}
	c.atBreak = false

	remaining := c.it.Len() - c.runOffset
	if count < remaining {
		c.runOffset += count
		c.offset += count
		return
	}
	count -= remaining
	c.offset += remaining

	for c.it.Next() {
		n := c.it.Len()
		if n == 0 {
			c.atBreak = true
			continue
		}
		if count < n {
			c.runOffset = count
			c.offset += count
			return
		}
		count -= n
		c.offset += n
	}
	c.atBreak = true
	c.runOffset = 0
}

// WordAwareIterator is a TextIterator whose chunks never end inside a
// word: adjacent chunks are merged until one ends in whitespace or the
// next starts with it.
type WordAwareIterator struct {
	it           *TextIterator
	didLookAhead bool

	text       []rune
	start, end treepos.Position
	done       bool
}

func NewWordAwareIterator(r *domrange.Range, b Behavior) *WordAwareIterator {
	w := &WordAwareIterator{it: New(r, b), didLookAhead: true}
	w.it.Next()
	return w
}

// Next advances to the next merged chunk.
func (w *WordAwareIterator) Next() bool {
	if w.done {
		return false
	}
	w.text = w.text[:0]

	if !w.didLookAhead {
		w.it.Next()
	}
	w.didLookAhead = false

	for !w.it.AtEnd() && w.it.Len() == 0 {
		w.it.Next()
	}
	if w.it.AtEnd() {
		w.done = true
		return false
	}
	w.start, w.end = w.it.Start(), w.it.End()

	merged := false
	for {
		t := w.it.Runes()
		if isSpace(t[len(t)-1]) {
			if !merged {
				w.text = append(w.text[:0], t...)
			}
			return true
		}
		if !merged {
			w.text = append(w.text[:0], t...)
		}

		w.it.Next()
		if w.it.AtEnd() || w.it.Len() == 0 || isSpace(w.it.Runes()[0]) {
			w.didLookAhead = true
			return true
		}
		merged = true
		w.text = append(w.text, w.it.Runes()...)
		w.end = w.it.End()
	}
}

func (w *WordAwareIterator) Runes() []rune { return w.text }
func (w *WordAwareIterator) Text() string  { return string(w.text) }
func (w *WordAwareIterator) Len() int      { return len(w.text) }

// Start returns the start of the merged chunk's span.
func (w *WordAwareIterator) Start() treepos.Position { return w.start }

// End returns the end of the merged chunk's span.
func (w *WordAwareIterator) End() treepos.Position { return w.end }
