// Package ninep contains helper routines for answering 9P2000 reads.
package ninep

import (
	"unicode/utf8"

	"9fans.net/go/plan9"
)

// ReadString sets Data and Count in the response ofcall to the part of
// src that the read ifcall asks for. A reply that would end inside a
// UTF-8 sequence is cut back to the start of that sequence, unless that
// would leave it empty; the reader picks up the rest with its next read.
// This function is similar to readstr(3) in lib9p.
func ReadString(ofcall, ifcall *plan9.Fcall, src string) {
	off := ifcall.Offset
	if off >= uint64(len(src)) {
		ofcall.Count = 0
		ofcall.Data = nil
		return
	}
	end := off + uint64(ifcall.Count)
	if end < uint64(len(src)) {
		e := int(end)
		for e > int(off) && !utf8.RuneStart(src[e]) {
			e--
		}
		if e > int(off) {
			end = uint64(e)
		}
	} else {
		end = uint64(len(src))
	}
	ofcall.Data = []byte(src[off:end])
	ofcall.Count = uint32(len(ofcall.Data))
}

// DirRead sets ofcall.Data to the whole directory entries that fit in
// ifcall.Count bytes from offset ifcall.Offset. Gen returns the i-th
// entry, or nil past the last one. DirRead returns how many entries it
// looked at. This function is similar to dirread9p(3) in lib9p.
func DirRead(ofcall, ifcall *plan9.Fcall, gen func(i int) *plan9.Dir) int {
	var data []byte
	pos := uint64(0)
	i := 0
	for ; ; i++ {
		d := gen(i)
		if d == nil {
			break
		}
		b, err := d.Bytes()
		if err != nil {
			break
		}
		if pos >= ifcall.Offset {
			if len(data)+len(b) > int(ifcall.Count) {
				break
			}
			data = append(data, b...)
		}
		pos += uint64(len(b))
	}
	ofcall.Data = data
	ofcall.Count = uint32(len(data))
	return i
}
