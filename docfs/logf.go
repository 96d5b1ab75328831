package docfs

import (
	"strconv"
	"sync"

	"9fans.net/go/plan9"
	"github.com/rjkroege/domedit/editing"
)

// maxEvents is how many events are queued before those every reader has
// seen are dropped.
const maxEvents = 256

// eventLog queues editor events for readers of the log file. Each open
// fid reads from its own offset; a read blocks until there is an event
// past it.
type eventLog struct {
	lk sync.Mutex
	r  sync.Cond

	start int // ev[0] is event number start
	ev    []string

	// open log fids
	f []*Fid

	// blocked reads
	read []*logRead

	closed bool
}

type logRead struct {
	tag     uint16
	flushed bool
}

func (l *eventLog) cond() *sync.Cond {
	if l.r.L == nil {
		l.r.L = &l.lk
	}
	return &l.r
}

func (l *eventLog) open(f *Fid) {
	l.lk.Lock()
	defer l.lk.Unlock()
	l.f = append(l.f, f)
	f.logoff = l.start + len(l.ev)
}

func (l *eventLog) close(f *Fid) {
	l.lk.Lock()
	defer l.lk.Unlock()
	for i := range l.f {
		if l.f[i] == f {
			l.f[i] = l.f[len(l.f)-1]
			l.f = l.f[:len(l.f)-1]
			return
		}
	}
}

// next waits for the event at the offset of f and returns it. It returns
// false if the read tagged tag was flushed or the log shut down.
func (l *eventLog) next(f *Fid, tag uint16) (string, bool) {
	l.lk.Lock()
	defer l.lk.Unlock()

	rd := &logRead{tag: tag}
	l.read = append(l.read, rd)
	for f.logoff >= l.start+len(l.ev) && !rd.flushed && !l.closed {
		l.cond().Wait()
	}
	for i := range l.read {
		if l.read[i] == rd {
			l.read[i] = l.read[len(l.read)-1]
			l.read = l.read[:len(l.read)-1]
			break
		}
	}
	if rd.flushed || l.closed {
		return "", false
	}

	// An offset behind start belongs to a reader that was dropped past.
	if f.logoff < l.start {
		f.logoff = l.start
	}
	p := l.ev[f.logoff-l.start]
	f.logoff++
	return p, true
}

func (l *eventLog) flush(oldtag uint16) {
	l.lk.Lock()
	defer l.lk.Unlock()
	for _, rd := range l.read {
		if rd.tag == oldtag {
			rd.flushed = true
			l.cond().Broadcast()
		}
	}
}

func (l *eventLog) shutdown() {
	l.lk.Lock()
	defer l.lk.Unlock()
	l.closed = true
	l.cond().Broadcast()
}

func (l *eventLog) add(line string) {
	l.lk.Lock()
	defer l.lk.Unlock()
	if len(l.ev) >= maxEvents {
		// Drop the entries all readers have read.
		low := l.start + len(l.ev)
		for _, f := range l.f {
			low = min(low, f.logoff)
		}
		// A reader already dropped past is behind start.
		low = max(low, l.start)
		if low == l.start {
			// The slowest reader loses the oldest event.
			low++
		}
		n := low - l.start
		l.start += n
		l.ev = append(l.ev[:0], l.ev[n:]...)
	}
	l.ev = append(l.ev, line)
	l.cond().Broadcast()
}

// editorEvent logs ev as its kind, followed by the quoted text of a
// composition event.
func (s *Server) editorEvent(e *editing.Editor, ev editing.Event) {
	line := ev.Kind.String()
	if ev.Text != "" {
		line += " " + strconv.Quote(ev.Text)
	}
	s.events.add(line + "\n")
}

func (s *Server) logread(x *plan9.Fcall, f *Fid) {
	p, ok := s.events.next(f, x.Tag)
	if !ok {
		return
	}
	b := []byte(p)
	if len(b) > int(x.Count) {
		b = b[:x.Count]
	}
	s.respond(x, &plan9.Fcall{Data: b, Count: uint32(len(b))}, nil)
}
