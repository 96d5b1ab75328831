package editing

import (
	"log"
	"slices"
	"time"

	"github.com/rjkroege/domedit/dom"
	"github.com/rjkroege/domedit/domrange"
	"github.com/rjkroege/domedit/textcheck"
	"github.com/rjkroege/domedit/textiter"
)

// EventKind identifies an Event.
type EventKind uint8

const (
	EventCompositionStart EventKind = iota
	EventCompositionUpdate
	EventCompositionEnd
	EventContentChanged
	EventSelectionChanged
)

var eventNames = [...]string{
	EventCompositionStart:  "compositionstart",
	EventCompositionUpdate: "compositionupdate",
	EventCompositionEnd:    "compositionend",
	EventContentChanged:    "contentchanged",
	EventSelectionChanged:  "selectionchanged",
}

func (k EventKind) String() string {
	if int(k) < len(eventNames) {
		return eventNames[k]
	}
	return "unknown"
}

// Event is something an Editor tells its observers about. Text is the
// composition text of composition events. Root is the editable root
// whose content changed.
type Event struct {
	Kind EventKind
	Text string
	Root *dom.Node
}

// An Observer is told about the events of an Editor.
type Observer interface {
	EditorEvent(e *Editor, ev Event)
}

// ObserverFunc adapts a function to an Observer.
type ObserverFunc func(e *Editor, ev Event)

func (f ObserverFunc) EditorEvent(e *Editor, ev Event) { f(e, ev) }

// Editor applies commands to one document and keeps its selection, undo
// history, composition and check markers. An Editor is not safe for
// concurrent use; all calls are made from one goroutine.
type Editor struct {
	doc      *dom.Document
	behavior textiter.Behavior
	logger   *log.Logger

	// sel is nil when nothing is selected.
	sel          *domrange.Range
	focusAtStart bool
	affinity     Affinity

	undo     UndoManager
	typing   *Entry // open for coalescing typing commands
	applying bool

	observers  []Observer
	pasteboard Pasteboard
	comp       *composition

	markers     *textcheck.Markers
	checker     textcheck.Checker
	schedOpts   []textcheck.SchedulerOption
	scheduler   *textcheck.Scheduler
	checkKinds  textcheck.Kind
	autocorrect bool
	checks      map[int]*checkRegion
}

// Option configures an Editor.
type Option func(*Editor)

// WithUndoManager sets where undo entries are registered.
func WithUndoManager(u UndoManager) Option {
	return func(e *Editor) { e.undo = u }
}

// WithChecker turns on background checking with c.
func WithChecker(c textcheck.Checker, opts ...textcheck.SchedulerOption) Option {
	return func(e *Editor) {
		e.checker = c
		e.schedOpts = opts
	}
}

// WithCheckKinds sets what checks look for. The default is spelling.
func WithCheckKinds(k textcheck.Kind) Option {
	return func(e *Editor) { e.checkKinds = k }
}

// WithAutoCorrect makes replacement results correct the text instead of
// only marking it.
func WithAutoCorrect(on bool) Option {
	return func(e *Editor) { e.autocorrect = on }
}

func WithPasteboard(p Pasteboard) Option {
	return func(e *Editor) { e.pasteboard = p }
}

func WithLogger(l *log.Logger) Option {
	return func(e *Editor) { e.logger = l }
}

// WithBehavior sets how document text is flattened into characters.
func WithBehavior(b textiter.Behavior) Option {
	return func(e *Editor) { e.behavior = b }
}

func WithObserver(o Observer) Option {
	return func(e *Editor) { e.observers = append(e.observers, o) }
}

// New returns an Editor for doc with nothing selected.
func New(doc *dom.Document, opts ...Option) *Editor {
	e := &Editor{
		doc:        doc,
		logger:     log.Default(),
		undo:       NopUndo{},
		pasteboard: &MemoryPasteboard{},
		checkKinds: textcheck.Spelling,
		checks:     make(map[int]*checkRegion),
	}
	for _, o := range opts {
		o(e)
	}
	e.markers = textcheck.NewMarkers(doc)
	if e.checker != nil {
		e.scheduler = textcheck.NewScheduler(e.checker, append([]textcheck.SchedulerOption{textcheck.WithLogger(e.logger)}, e.schedOpts...)...)
	}
	return e
}

// Close stops checking and detaches the Editor from its document.
func (e *Editor) Close() {
	if e.scheduler != nil {
		e.scheduler.Close()
	}
	for id, c := range e.checks {
		c.rng.Release()
		delete(e.checks, id)
	}
	if e.comp != nil {
		e.comp.run.Release()
		e.comp = nil
	}
	if e.sel != nil {
		e.sel.Release()
		e.sel = nil
	}
	e.markers.Close()
}

func (e *Editor) Document() *dom.Document { return e.doc }

// Behavior returns how the Editor flattens document text.
func (e *Editor) Behavior() textiter.Behavior { return e.behavior }

// UndoManager returns the manager entries are registered with.
func (e *Editor) UndoManager() UndoManager { return e.undo }

// AddObserver adds o to the observers of e.
func (e *Editor) AddObserver(o Observer) { e.observers = append(e.observers, o) }

func (e *Editor) notify(ev Event) {
	for _, o := range e.observers {
		o.EditorEvent(e, ev)
	}
}

func (e *Editor) notifyContent(roots []*dom.Node) {
	for _, r := range roots {
		e.notify(Event{Kind: EventContentChanged, Root: r})
	}
}

// Selection returns the current selection, repaired for every mutation
// since it was set.
func (e *Editor) Selection() Selection {
	if e.sel == nil {
		return Selection{}
	}
	s := Span(e.sel.Start(), e.sel.End())
	if e.focusAtStart {
		s.Anchor, s.Focus = s.Focus, s.Anchor
	}
	s.Affinity = e.affinity
	return s
}

// SetSelection confirms any composition in progress and selects s.
func (e *Editor) SetSelection(s Selection) {
	e.confirmComposition("", false)
	e.setSelection(s)
}

func (e *Editor) setSelection(s Selection) {
	if s == e.Selection() {
		return
	}
	if e.sel != nil {
		e.sel.Release()
		e.sel = nil
	}
	if !s.isOrphan() {
		r, err := domrange.FromPositions(e.doc, s.Start(), s.End())
		if err != nil {
			e.logger.Printf("editing: selection %v: %v", s, err)
		} else {
			e.sel = r
			e.focusAtStart = s.IsDirectional()
			e.affinity = s.Affinity
		}
	}
	e.notify(Event{Kind: EventSelectionChanged})
}

// SelectedText returns the selection as plain text.
func (e *Editor) SelectedText() string {
	if e.sel == nil || e.sel.Collapsed() {
		return ""
	}
	return textiter.PlainText(e.sel, e.behavior)
}

// ApplyCommand confirms any composition in progress and applies cmd. It
// reports whether cmd did anything.
func (e *Editor) ApplyCommand(cmd Command) bool {
	if e.applying {
		return false
	}
	e.confirmComposition("", false)
	return e.apply(cmd)
}

func (e *Editor) apply(cmd Command) bool {
	if e.applying {
		return false
	}
	e.applying = true
	defer func() { e.applying = false }()

	ed := &edit{doc: e.doc, behavior: e.behavior, start: e.Selection()}
	if !cmd.apply(ed) || ed.err != nil {
		if ed.err != nil {
			e.logger.Printf("editing: %v: %v", cmd.Action(), ed.err)
		}
		if err := ed.rollback(); err != nil {
			e.logger.Printf("editing: rolling back %v: %v", cmd.Action(), err)
		}
		return false
	}

	end := ed.end
	if end.isOrphan() {
		end = e.Selection()
	}
	e.setSelection(end)
	end = e.Selection()
	if len(ed.steps) == 0 {
		return true
	}

	act := cmd.Action()
	if en := e.typing; en != nil && act.IsTyping() && ed.start == en.end {
		en.steps = append(en.steps, ed.steps...)
		en.end = end
		for _, r := range ed.roots {
			if !slices.Contains(en.roots, r) {
				en.roots = append(en.roots, r)
			}
		}
	} else {
		en := &Entry{
			Action: act,
			Time:   time.Now(),
			steps:  ed.steps,
			roots:  ed.roots,
			start:  ed.start,
			end:    end,
		}
		e.undo.Register(en)
		e.typing = nil
		if act.IsTyping() {
			e.typing = en
		}
	}

	e.notifyContent(ed.roots)
	e.scheduleCheck(end)
	return true
}

// closeTyping ends coalescing, so the next command starts a new entry.
func (e *Editor) closeTyping() { e.typing = nil }

// Undo reverts the most recent entry and restores the selection from
// before it.
func (e *Editor) Undo() bool {
	if e.applying {
		return false
	}
	e.confirmComposition("", false)
	e.closeTyping()
	en := e.undo.Undo()
	if en == nil {
		return false
	}
	e.applying = true
	err := en.unapply()
	e.applying = false
	if err != nil {
		e.logger.Printf("editing: undo %v: %v", en.Action, err)
		return false
	}
	e.setSelection(en.start)
	e.notifyContent(en.roots)
	e.scheduleCheck(en.start)
	return true
}

// Redo applies the most recently undone entry again and restores the
// selection it left.
func (e *Editor) Redo() bool {
	if e.applying {
		return false
	}
	e.confirmComposition("", false)
	e.closeTyping()
	en := e.undo.Redo()
	if en == nil {
		return false
	}
	e.applying = true
	err := en.reapply()
	e.applying = false
	if err != nil {
		e.logger.Printf("editing: redo %v: %v", en.Action, err)
		return false
	}
	e.setSelection(en.end)
	e.notifyContent(en.roots)
	e.scheduleCheck(en.end)
	return true
}

// Copy writes the selected text to the pasteboard.
func (e *Editor) Copy() bool {
	if !e.Selection().IsRange() {
		return false
	}
	e.pasteboard.WriteText(e.SelectedText())
	return true
}

// Cut copies the selection and deletes it.
func (e *Editor) Cut() bool {
	if !e.Selection().IsRange() || !e.Selection().Start().Container.IsEditable() {
		return false
	}
	e.Copy()
	return e.ApplyCommand(&DeleteSelection{Cut: true})
}

// PasteFromPasteboard replaces the selection with the pasteboard text.
func (e *Editor) PasteFromPasteboard() bool {
	return e.ApplyCommand(&Paste{Text: e.pasteboard.ReadText()})
}
