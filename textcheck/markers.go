package textcheck

import (
	"slices"

	"github.com/rjkroege/domedit/dom"
	"github.com/rjkroege/domedit/treepos"
)

// Marker annotates a span of one text node with a finding.
type Marker struct {
	Kind           Kind
	Node           *dom.Node
	Offset, Length int

	Suggestions []string
	Details     []GrammarDetail
}

// End returns the offset just past the marked span.
func (m *Marker) End() int { return m.Offset + m.Length }

// Markers holds the annotations of a document and keeps them attached to
// their text as the tree changes. A marker moves with insertions and
// deletions around it and follows its text into split and merged nodes.
// Any change to the text it covers removes it.
type Markers struct {
	dom.NopObserver

	doc    *dom.Document
	handle dom.Handle
	list   []*Marker
}

// NewMarkers returns an empty store observing doc.
func NewMarkers(doc *dom.Document) *Markers {
	ms := &Markers{doc: doc}
	ms.handle = doc.Register(ms)
	return ms
}

// Close stops tracking mutations.
func (ms *Markers) Close() {
	ms.doc.Unregister(ms.handle)
}

// Add records m and returns it. Markers with an empty span or on a node
// that is not text are ignored and nil is returned.
func (ms *Markers) Add(m Marker) *Marker {
	if m.Node == nil || !m.Node.Kind().IsText() || m.Length <= 0 || m.Offset < 0 || m.End() > m.Node.Length() {
		return nil
	}
	p := &m
	ms.list = append(ms.list, p)
	return p
}

// Remove deletes m and reports whether it was present.
func (ms *Markers) Remove(m *Marker) bool {
	i := slices.Index(ms.list, m)
	if i < 0 {
		return false
	}
	ms.list = slices.Delete(ms.list, i, i+1)
	return true
}

// Contains reports whether m is still live.
func (ms *Markers) Contains(m *Marker) bool { return slices.Contains(ms.list, m) }

// Clear removes every marker of the given kinds.
func (ms *Markers) Clear(kinds Kind) {
	ms.list = slices.DeleteFunc(ms.list, func(m *Marker) bool { return m.Kind&kinds != 0 })
}

// ClearSpan removes the markers of kinds that overlap [start, end) of n.
func (ms *Markers) ClearSpan(n *dom.Node, start, end int, kinds Kind) {
	ms.list = slices.DeleteFunc(ms.list, func(m *Marker) bool {
		return m.Node == n && m.Kind&kinds != 0 && m.Offset < end && start < m.End()
	})
}

// Len returns the number of markers.
func (ms *Markers) Len() int { return len(ms.list) }

// All returns the markers in document order.
func (ms *Markers) All() []*Marker {
	all := slices.Clone(ms.list)
	slices.SortStableFunc(all, func(a, b *Marker) int {
		c, err := treepos.Compare(treepos.Position{Container: a.Node, Offset: a.Offset}, treepos.Position{Container: b.Node, Offset: b.Offset})
		if err != nil {
			return 0
		}
		return c
	})
	return all
}

// For returns the markers of n ordered by offset.
func (ms *Markers) For(n *dom.Node) []*Marker {
	var r []*Marker
	for _, m := range ms.list {
		if m.Node == n {
			r = append(r, m)
		}
	}
	slices.SortStableFunc(r, func(a, b *Marker) int { return a.Offset - b.Offset })
	return r
}

// At returns the first marker of n whose span contains offset, where the
// end of a span counts as inside it.
func (ms *Markers) At(n *dom.Node, offset int) *Marker {
	for _, m := range ms.For(n) {
		if m.Offset <= offset && offset <= m.End() {
			return m
		}
	}
	return nil
}

func (ms *Markers) NodeWillBeRemoved(n *dom.Node) {
	ms.list = slices.DeleteFunc(ms.list, func(m *Marker) bool { return n.Contains(m.Node) })
}

func (ms *Markers) TextInserted(n *dom.Node, offset, length int) {
	ms.list = slices.DeleteFunc(ms.list, func(m *Marker) bool {
		if m.Node != n {
			return false
		}
		switch {
		case offset <= m.Offset:
			m.Offset += length
		case offset < m.End():
			return true
		}
		return false
	})
}

func (ms *Markers) TextRemoved(n *dom.Node, offset, length int) {
	ms.list = slices.DeleteFunc(ms.list, func(m *Marker) bool {
		if m.Node != n {
			return false
		}
		switch {
		case offset+length <= m.Offset:
			m.Offset -= length
		case offset < m.End():
			return true
		}
		return false
	})
}

func (ms *Markers) TextNodeSplit(old *dom.Node) {
	tail := old.NextSibling()
	cut := old.Length()
	ms.list = slices.DeleteFunc(ms.list, func(m *Marker) bool {
		if m.Node != old || m.End() <= cut {
			return false
		}
		if m.Offset < cut || tail == nil {
			return true
		}
		m.Node = tail
		m.Offset -= cut
		return false
	})
}

func (ms *Markers) TextNodesMerged(removed *dom.Node, index, offset int) {
	prev := removed.PreviousSibling()
	for _, m := range ms.list {
		if m.Node == removed {
			m.Node = prev
			m.Offset += offset
		}
	}
}
