package docfs

import (
	"9fans.net/go/plan9"
)

// Qid paths of the files served.
const (
	Qdir = iota
	Qaddr
	Qctl
	Qlog
	Qmarkers
	Qsel
	Qtext
)

// Fid is the state of one 9P fid.
type Fid struct {
	fid    uint32
	busy   bool
	open   bool
	mode   uint8
	qid    plan9.Qid
	dir    *DirTab
	logoff int // next event to read from the log
}

type DirTab struct {
	name string
	t    uint8
	qid  uint64
	perm plan9.Perm
}

var dirtab = []*DirTab{
	{".", plan9.QTDIR, Qdir, 0500 | plan9.DMDIR},
	{"addr", plan9.QTFILE, Qaddr, 0600},
	{"ctl", plan9.QTFILE, Qctl, 0200},
	{"log", plan9.QTFILE, Qlog, 0400},
	{"markers", plan9.QTFILE, Qmarkers, 0400},
	{"sel", plan9.QTFILE, Qsel, 0600},
	{"text", plan9.QTFILE, Qtext, 0400},
}

// FILE returns which file q names.
func FILE(q plan9.Qid) uint64 { return q.Path & 0xff }

// Dir converts DirTab to plan9.Dir owned by user, with Atime and Mtime
// set to clock.
func (dt *DirTab) Dir(user string, clock int64) *plan9.Dir {
	return &plan9.Dir{
		Qid: plan9.Qid{
			Path: dt.qid,
			Type: dt.t,
		},
		Mode:  dt.perm,
		Atime: uint32(clock),
		Mtime: uint32(clock),
		Name:  dt.name,
		Uid:   user,
		Gid:   user,
		Muid:  user,
	}
}
