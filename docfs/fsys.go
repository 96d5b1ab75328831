// Package docfs serves an editing.Editor as a 9P2000 file tree:
//
//	addr     the selection as "location length"; writing selects
//	ctl      editing commands, one per line
//	log      editor events, one line per read; reads block
//	markers  check annotations, one per line
//	sel      the selected text; writing pastes
//	text     the plain text of the document body
//
// Locations and lengths count characters of the flattened text of the
// body.
package docfs

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/user"
	"sync"
	"sync/atomic"
	"time"

	"9fans.net/go/plan9"
	"github.com/rjkroege/domedit/editing"
	"github.com/rjkroege/domedit/internal/ninep"
)

// Errors returned by the file server.
var (
	ErrPermission = os.ErrPermission
	ErrNotExist   = os.ErrNotExist
	ErrNotDir     = fmt.Errorf("not a directory")
	ErrNotOpen    = fmt.Errorf("file not open")
)

// pumpInterval is how often finished check responses are applied while
// no requests arrive.
const pumpInterval = 100 * time.Millisecond

type fsfunc func(*plan9.Fcall, *Fid)

// Server answers 9P requests arriving on one connection. Several clients
// share a connection through a multiplexer; see Post.
type Server struct {
	mu sync.Mutex // guards ed
	ed *editing.Editor

	logger   *log.Logger
	username string
	events   eventLog

	conn        io.ReadWriteCloser
	wlk         sync.Mutex // serializes responses
	fids        map[uint32]*Fid
	fcall       []fsfunc
	closing     atomic.Bool
	serving     atomic.Bool
	done        chan struct{}
	messagesize int
}

// Option configures a Server.
type Option func(*Server)

func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithUser sets the owner of the served files. The default is the
// current user.
func WithUser(name string) Option {
	return func(s *Server) { s.username = name }
}

// New returns a Server for ed that answers requests on conn. From then
// on ed must only be used through Do.
func New(ed *editing.Editor, conn io.ReadWriteCloser, opts ...Option) *Server {
	s := &Server{
		ed:     ed,
		logger: log.Default(),
		conn:   conn,
		fids:   make(map[uint32]*Fid),
		done:   make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	if s.username == "" {
		s.username = getuser()
	}
	s.initfcall()
	ed.AddObserver(editing.ObserverFunc(s.editorEvent))
	return s
}

func (s *Server) initfcall() {
	s.fcall = make([]fsfunc, plan9.Tmax)
	s.fcall[plan9.Tflush] = s.flush
	s.fcall[plan9.Tversion] = s.version
	s.fcall[plan9.Tauth] = s.auth
	s.fcall[plan9.Tattach] = s.attach
	s.fcall[plan9.Twalk] = s.walk
	s.fcall[plan9.Topen] = s.open
	s.fcall[plan9.Tcreate] = s.create
	s.fcall[plan9.Tread] = s.read
	s.fcall[plan9.Twrite] = s.write
	s.fcall[plan9.Tclunk] = s.clunk
	s.fcall[plan9.Tremove] = s.remove
	s.fcall[plan9.Tstat] = s.stat
	s.fcall[plan9.Twstat] = s.wstat
}

// Do calls f with the editor while no request is being served.
func (s *Server) Do(f func(ed *editing.Editor)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f(s.ed)
}

// Serve answers requests until the connection is closed.
func (s *Server) Serve() error {
	s.serving.Store(true)
	defer close(s.done)

	stop := make(chan struct{})
	defer close(stop)
	go s.pump(stop)

	for {
		fc, err := plan9.ReadFcall(s.conn)
		if err != nil || fc == nil {
			if s.closing.Load() || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("docfs: %w", err)
		}
		var f *Fid
		switch fc.Type {
		case plan9.Tversion, plan9.Tauth, plan9.Tflush:
		case plan9.Tattach:
			f = s.newfid(fc.Fid)
		default:
			var ok bool
			if f, ok = s.fids[fc.Fid]; !ok || !f.busy {
				s.respond(fc, nil, fmt.Errorf("fid not in use"))
				continue
			}
		}
		if int(fc.Type) >= len(s.fcall) || s.fcall[fc.Type] == nil {
			s.respond(fc, nil, fmt.Errorf("bad fcall type %d", fc.Type))
			continue
		}
		s.fcall[fc.Type](fc, f)
	}
}

// pump applies check responses as they finish.
func (s *Server) pump(stop <-chan struct{}) {
	t := time.NewTicker(pumpInterval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			s.mu.Lock()
			s.ed.ApplyCheckResponses()
			s.mu.Unlock()
		}
	}
}

// Close closes the connection, wakes blocked log reads and waits for
// Serve to return. It leaves the editor open.
func (s *Server) Close() error {
	s.closing.Store(true)
	s.events.shutdown()
	err := s.conn.Close()
	if s.serving.Load() {
		<-s.done
	}
	return err
}

func (s *Server) respond(x, t *plan9.Fcall, err error) {
	if t == nil {
		t = &plan9.Fcall{}
	}
	if err != nil {
		t.Type = plan9.Rerror
		t.Ename = err.Error()
	} else {
		t.Type = x.Type + 1
	}
	t.Fid = x.Fid
	t.Tag = x.Tag

	s.wlk.Lock()
	defer s.wlk.Unlock()
	if err := plan9.WriteFcall(s.conn, t); err != nil && !s.closing.Load() {
		s.logger.Printf("docfs: write error in respond: %v", err)
	}
}

func (s *Server) version(x *plan9.Fcall, f *Fid) {
	var t plan9.Fcall
	s.messagesize = int(x.Msize)
	t.Msize = x.Msize
	if x.Version != "9P2000" {
		s.respond(x, &t, fmt.Errorf("unrecognized 9P version"))
		return
	}
	t.Version = "9P2000"
	s.respond(x, &t, nil)
}

func (s *Server) auth(x *plan9.Fcall, f *Fid) {
	s.respond(x, nil, fmt.Errorf("docfs: authentication not required"))
}

func (s *Server) flush(x *plan9.Fcall, f *Fid) {
	s.events.flush(x.Oldtag)
	s.respond(x, nil, nil)
}

func (s *Server) attach(x *plan9.Fcall, f *Fid) {
	if x.Uname != s.username {
		// Clients get this wrong too often to refuse them.
		s.logger.Printf("docfs: attach from uname %q does not match %q but allowing anyway", x.Uname, s.username)
	}
	f.busy = true
	f.open = false
	f.dir = dirtab[0]
	f.qid = plan9.Qid{Path: Qdir, Type: plan9.QTDIR}
	s.respond(x, &plan9.Fcall{Qid: f.qid}, nil)
}

func (s *Server) walk(x *plan9.Fcall, f *Fid) {
	var t plan9.Fcall

	if f.open {
		s.respond(x, &t, fmt.Errorf("walk of open file"))
		return
	}
	var nf *Fid
	if x.Fid != x.Newfid { // clone fid
		nf = s.newfid(x.Newfid)
		if nf.busy {
			s.respond(x, &t, fmt.Errorf("newfid already in use"))
			return
		}
		nf.busy = true
		nf.open = false
		nf.dir = f.dir
		nf.qid = f.qid
		f = nf
	}

	wf := Fid{qid: f.qid, dir: f.dir}
	var err error
	for i, wname := range x.Wname {
		if i == plan9.MAXWELEM {
			err = fmt.Errorf("name too long")
			break
		}
		var found bool
		found, err = wf.walk1(wname)
		if err != nil || !found {
			break
		}
		t.Wqid = append(t.Wqid, wf.qid)
	}
	if len(x.Wname) > 0 && len(t.Wqid) == 0 && err == nil {
		err = ErrNotExist
	}

	if err != nil || len(t.Wqid) < len(x.Wname) {
		if nf != nil {
			delete(s.fids, nf.fid)
		}
	} else {
		f.dir = wf.dir
		f.qid = wf.qid
	}
	s.respond(x, &t, err)
}

// walk1 walks f to the path name element wname and reports whether it
// was found.
func (f *Fid) walk1(wname string) (bool, error) {
	if f.qid.Type&plan9.QTDIR == 0 {
		return false, ErrNotDir
	}
	if wname == ".." {
		f.dir = dirtab[0]
		f.qid = plan9.Qid{Path: Qdir, Type: plan9.QTDIR}
		return true, nil
	}
	for _, de := range dirtab[1:] {
		if wname == de.name {
			f.dir = de
			f.qid = plan9.Qid{Path: de.qid, Type: de.t}
			return true, nil
		}
	}
	return false, nil
}

func (s *Server) open(x *plan9.Fcall, f *Fid) {
	var m plan9.Perm
	// can't truncate anything, so just disregard
	mode := x.Mode &^ uint8(plan9.OTRUNC|plan9.OCEXEC)
	if mode == plan9.OEXEC || mode&plan9.ORCLOSE != 0 {
		s.respond(x, nil, ErrPermission)
		return
	}
	switch mode {
	case plan9.OREAD:
		m = 0400
	case plan9.OWRITE:
		m = 0200
	case plan9.ORDWR:
		m = 0600
	default:
		s.respond(x, nil, ErrPermission)
		return
	}
	if (f.dir.perm&^plan9.DMDIR)&m != m {
		s.respond(x, nil, ErrPermission)
		return
	}
	if FILE(f.qid) == Qlog {
		s.events.open(f)
	}
	f.open = true
	f.mode = mode
	s.respond(x, &plan9.Fcall{Qid: f.qid}, nil)
}

func (s *Server) create(x *plan9.Fcall, f *Fid) {
	s.respond(x, nil, ErrPermission)
}

func (s *Server) read(x *plan9.Fcall, f *Fid) {
	if f.qid.Type&plan9.QTDIR != 0 {
		var t plan9.Fcall
		clock := time.Now().Unix()
		d := dirtab[1:] // Skip '.'
		ninep.DirRead(&t, x, func(i int) *plan9.Dir {
			if i < len(d) {
				return d[i].Dir(s.username, clock)
			}
			return nil
		})
		s.respond(x, &t, nil)
		return
	}
	if !f.open {
		s.respond(x, nil, ErrNotOpen)
		return
	}
	if f.mode == plan9.OWRITE {
		s.respond(x, nil, ErrPermission)
		return
	}
	if FILE(f.qid) == Qlog {
		go s.logread(x, f)
		return
	}
	s.xfidread(x, f)
}

func (s *Server) write(x *plan9.Fcall, f *Fid) {
	if !f.open {
		s.respond(x, nil, ErrNotOpen)
		return
	}
	if f.mode == plan9.OREAD {
		s.respond(x, nil, ErrPermission)
		return
	}
	s.xfidwrite(x, f)
}

func (s *Server) clunk(x *plan9.Fcall, f *Fid) {
	if f.open && FILE(f.qid) == Qlog {
		s.events.close(f)
	}
	delete(s.fids, f.fid)
	s.respond(x, nil, nil)
}

func (s *Server) remove(x *plan9.Fcall, f *Fid) {
	s.respond(x, nil, ErrPermission)
}

func (s *Server) stat(x *plan9.Fcall, f *Fid) {
	b, _ := f.dir.Dir(s.username, time.Now().Unix()).Bytes()
	if len(b) > s.messagesize-plan9.IOHDRSZ {
		// don't send partial directory entry
		s.respond(x, nil, fmt.Errorf("msize too small"))
		return
	}
	s.respond(x, &plan9.Fcall{Stat: b}, nil)
}

func (s *Server) wstat(x *plan9.Fcall, f *Fid) {
	s.respond(x, nil, ErrPermission)
}

func (s *Server) newfid(fid uint32) *Fid {
	ff, ok := s.fids[fid]
	if !ok {
		ff = &Fid{fid: fid}
		s.fids[fid] = ff
	}
	return ff
}

func getuser() string {
	u, err := user.Current()
	if err != nil {
		return "none"
	}
	return u.Username
}
