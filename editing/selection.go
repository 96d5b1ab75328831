// Package editing applies user editing commands to a dom document. An
// Editor owns the selection, records every command as reversible steps
// for undo, runs input method compositions and keeps spelling and grammar
// annotations up to date as the text changes.
package editing

import (
	"fmt"

	"github.com/rjkroege/domedit/treepos"
)

// Affinity says which side of a line wrap a caret belongs to when one
// position is both the end of a line and the start of the next.
type Affinity uint8

const (
	Downstream Affinity = iota
	Upstream
)

func (a Affinity) String() string {
	if a == Upstream {
		return "upstream"
	}
	return "downstream"
}

// Selection is an anchor where the selection was started and a focus
// where it was extended to. The zero Selection selects nothing.
type Selection struct {
	Anchor, Focus treepos.Position
	Affinity      Affinity
}

// Caret returns a collapsed selection at p.
func Caret(p treepos.Position) Selection {
	return Selection{Anchor: p, Focus: p}
}

// Span returns a selection from start to end.
func Span(start, end treepos.Position) Selection {
	return Selection{Anchor: start, Focus: end}
}

func (s Selection) IsNone() bool  { return s.Anchor.IsNull() || s.Focus.IsNull() }
func (s Selection) IsCaret() bool { return !s.IsNone() && s.Anchor == s.Focus }
func (s Selection) IsRange() bool { return !s.IsNone() && s.Anchor != s.Focus }

// IsDirectional reports whether the focus comes before the anchor.
func (s Selection) IsDirectional() bool {
	if !s.IsRange() {
		return false
	}
	c, err := treepos.Compare(s.Anchor, s.Focus)
	return err == nil && c > 0
}

// Start returns the earlier of anchor and focus.
func (s Selection) Start() treepos.Position {
	if s.IsDirectional() {
		return s.Focus
	}
	return s.Anchor
}

// End returns the later of anchor and focus.
func (s Selection) End() treepos.Position {
	if s.IsDirectional() {
		return s.Anchor
	}
	return s.Focus
}

// isOrphan reports whether either end no longer addresses a connected
// node.
func (s Selection) isOrphan() bool {
	return s.IsNone() || !s.Anchor.IsValid() || !s.Focus.IsValid() || s.Anchor.IsOrphan() || s.Focus.IsOrphan()
}

func (s Selection) String() string {
	switch {
	case s.IsNone():
		return "none"
	case s.IsCaret():
		return fmt.Sprintf("caret %v", s.Anchor)
	}
	return fmt.Sprintf("%v..%v", s.Anchor, s.Focus)
}
