package editing

import (
	"time"

	"github.com/rjkroege/domedit/dom"
)

// Entry is one undoable unit: the steps of a command, or of a run of
// typing commands coalesced together, with the selections before and
// after them.
type Entry struct {
	Action EditAction
	Time   time.Time // when the first step was applied

	steps      []step
	roots      []*dom.Node
	start, end Selection
}

// StartSelection returns the selection from before the entry was applied.
func (en *Entry) StartSelection() Selection { return en.start }

// EndSelection returns the selection the entry left behind.
func (en *Entry) EndSelection() Selection { return en.end }

// unapply reverts the steps, last first. It stops at the first failure.
func (en *Entry) unapply() error {
	for i := len(en.steps) - 1; i >= 0; i-- {
		if err := en.steps[i].undo(); err != nil {
			return err
		}
	}
	return nil
}

func (en *Entry) reapply() error {
	for _, s := range en.steps {
		if err := s.do(); err != nil {
			return err
		}
	}
	return nil
}

// UndoManager keeps the history of entries for an Editor. The Editor
// replays entries itself; a manager only decides which one is next.
type UndoManager interface {
	// Register adds a newly applied entry and forgets anything that
	// could be redone.
	Register(en *Entry)

	// Remove drops en if it is the most recent entry, without making it
	// redoable.
	Remove(en *Entry) bool

	// Undo returns the entry to revert, or nil.
	Undo() *Entry

	// Redo returns the entry to apply again, or nil.
	Redo() *Entry

	CanUndo() bool
	CanRedo() bool
}

// NopUndo records nothing.
type NopUndo struct{}

func (NopUndo) Register(*Entry)    {}
func (NopUndo) Remove(*Entry) bool { return false }
func (NopUndo) Undo() *Entry       { return nil }
func (NopUndo) Redo() *Entry       { return nil }
func (NopUndo) CanUndo() bool      { return false }
func (NopUndo) CanRedo() bool      { return false }

// UndoStack is a bounded linear history. Entries before head can be
// undone and entries from head on can be redone.
type UndoStack struct {
	entries []*Entry
	head    int
	limit   int
	saved   *Entry
}

// NewUndoStack returns a stack that keeps at most limit entries, or any
// number if limit is not positive.
func NewUndoStack(limit int) *UndoStack {
	return &UndoStack{limit: limit}
}

func (s *UndoStack) Register(en *Entry) {
	s.entries = append(s.entries[:s.head], en)
	s.head++
	if s.limit > 0 && len(s.entries) > s.limit {
		drop := len(s.entries) - s.limit
		s.entries = append(s.entries[:0], s.entries[drop:]...)
		s.head -= drop
	}
}

func (s *UndoStack) Remove(en *Entry) bool {
	if s.head == 0 || s.entries[s.head-1] != en {
		return false
	}
	s.head--
	s.entries = s.entries[:s.head]
	return true
}

func (s *UndoStack) Undo() *Entry {
	if s.head == 0 {
		return nil
	}
	s.head--
	return s.entries[s.head]
}

func (s *UndoStack) Redo() *Entry {
	if s.head > len(s.entries)-1 {
		return nil
	}
	s.head++
	return s.entries[s.head-1]
}

func (s *UndoStack) CanUndo() bool { return s.head != 0 }
func (s *UndoStack) CanRedo() bool { return s.head <= len(s.entries)-1 }

// Len returns the number of entries that can be undone.
func (s *UndoStack) Len() int { return s.head }

// Clean marks the current state as saved.
func (s *UndoStack) Clean() {
	if s.head > 0 {
		s.saved = s.entries[s.head-1]
	} else {
		s.saved = nil
	}
}

// Dirty reports whether the current state differs from the one at the
// last call to Clean.
func (s *UndoStack) Dirty() bool {
	return s.head == 0 && s.saved != nil ||
		s.head > 0 && s.saved != s.entries[s.head-1]
}
