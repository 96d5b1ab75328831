package docfs

import (
	"fmt"
	"strconv"
	"strings"

	"9fans.net/go/plan9"
	"github.com/rjkroege/domedit/dom"
	"github.com/rjkroege/domedit/domrange"
	"github.com/rjkroege/domedit/editing"
	"github.com/rjkroege/domedit/internal/ninep"
	"github.com/rjkroege/domedit/textcheck"
	"github.com/rjkroege/domedit/textiter"
	"github.com/rjkroege/domedit/treepos"
)

var (
	Ebadctl  = fmt.Errorf("ill-formed control message")
	Ebadaddr = fmt.Errorf("bad address syntax")
	Eaddr    = fmt.Errorf("address out of range")
	Enosel   = fmt.Errorf("no selection")
	Efailed  = fmt.Errorf("command had no effect")
)

func (s *Server) xfidread(x *plan9.Fcall, f *Fid) {
	var (
		text string
		err  error
	)
	s.mu.Lock()
	s.ed.ApplyCheckResponses()
	switch FILE(f.qid) {
	case Qtext:
		text, err = s.bodyText()
	case Qsel:
		text = s.ed.SelectedText()
	case Qaddr:
		text, err = s.addrText()
	case Qmarkers:
		text = s.markersText()
	default:
		err = fmt.Errorf("unexpected file %q", f.dir.name)
	}
	s.mu.Unlock()

	var t plan9.Fcall
	if err == nil {
		ninep.ReadString(&t, x, text)
	}
	s.respond(x, &t, err)
}

func (s *Server) xfidwrite(x *plan9.Fcall, f *Fid) {
	var err error
	s.mu.Lock()
	s.ed.ApplyCheckResponses()
	switch FILE(f.qid) {
	case Qsel:
		if !s.ed.ApplyCommand(&editing.Paste{Text: string(x.Data)}) {
			err = Efailed
		}
	case Qaddr:
		err = s.addrwrite(string(x.Data))
	case Qctl:
		err = s.ctlwrite(string(x.Data))
	default:
		err = ErrPermission
	}
	s.mu.Unlock()

	s.respond(x, &plan9.Fcall{Count: uint32(len(x.Data))}, err)
}

// scope is the node whose text locations count from.
func (s *Server) scope() *dom.Node {
	doc := s.ed.Document()
	if b := doc.Body(); b != nil {
		return b
	}
	return doc.Node()
}

func (s *Server) bodyText() (string, error) {
	r, err := domrange.Selecting(s.scope())
	if err != nil {
		return "", err
	}
	defer r.Release()
	return textiter.PlainText(r, s.ed.Behavior()), nil
}

// location returns where start..end lies in the text of the scope.
func (s *Server) location(start, end treepos.Position) (int, int, error) {
	r, err := domrange.FromPositions(s.ed.Document(), start, end)
	if err != nil {
		return 0, 0, err
	}
	defer r.Release()
	return textiter.LocationAndLength(s.scope(), r, s.ed.Behavior())
}

func (s *Server) addrText() (string, error) {
	sel := s.ed.Selection()
	if sel.IsNone() {
		return "", Enosel
	}
	loc, n, err := s.location(sel.Start(), sel.End())
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d %d\n", loc, n), nil
}

// addrwrite selects the text at "location [length]".
func (s *Server) addrwrite(data string) error {
	f := strings.Fields(data)
	if len(f) == 0 || len(f) > 2 {
		return Ebadaddr
	}
	loc, err := strconv.Atoi(f[0])
	if err != nil {
		return Ebadaddr
	}
	n := 0
	if len(f) == 2 {
		if n, err = strconv.Atoi(f[1]); err != nil {
			return Ebadaddr
		}
	}
	r, err := s.rangeAt(loc, n)
	if err != nil {
		return err
	}
	defer r.Release()
	s.ed.SetSelection(editing.Span(r.Start(), r.End()))
	return nil
}

func (s *Server) rangeAt(loc, n int) (*domrange.Range, error) {
	if loc < 0 || n < 0 {
		return nil, Eaddr
	}
	r, err := textiter.RangeFromLocationAndLength(s.scope(), loc, n, s.ed.Behavior())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", Eaddr, err)
	}
	return r, nil
}

// markersText formats a line "location length kind detail" for each
// marker in the scope. The detail of a misspelling is its suggestions;
// that of a grammar finding, the descriptions of its details.
func (s *Server) markersText() string {
	var b strings.Builder
	for _, m := range s.ed.Markers().All() {
		loc, n, err := s.location(
			treepos.Position{Container: m.Node, Offset: m.Offset},
			treepos.Position{Container: m.Node, Offset: m.End()},
		)
		if err != nil {
			continue
		}
		var detail []string
		switch m.Kind {
		case textcheck.Grammar:
			for _, d := range m.Details {
				detail = append(detail, d.Description)
			}
		default:
			detail = m.Suggestions
		}
		fmt.Fprintf(&b, "%d %d %v", loc, n, m.Kind)
		if len(detail) > 0 {
			fmt.Fprintf(&b, " %s", strings.Join(detail, "; "))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
