package textcheck

import (
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Remap returns where the character at offset of old ended up in new. An
// offset inside deleted text maps to the place of the deletion.
func Remap(old, new string, offset int) int {
	dmp := diffmatchpatch.New()
	return mapOffset(offset, dmp.DiffMainRunes([]rune(old), []rune(new), false))
}

// RemapSpan maps the span [offset, offset+length) of old onto new. It
// reports false if the text of the span did not survive unchanged.
func RemapSpan(old, new string, offset, length int) (int, bool) {
	o, n := []rune(old), []rune(new)
	if offset < 0 || length < 0 || offset+length > len(o) {
		return 0, false
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMainRunes(o, n, false)
	start := mapOffset(offset, diffs)
	end := mapOffset(offset+length, diffs)
	if end-start != length {
		return 0, false
	}
	if end > len(n) || string(o[offset:offset+length]) != string(n[start:end]) {
		return 0, false
	}
	return start, true
}

func mapOffset(offset int, diffs []diffmatchpatch.Diff) int {
	oldPos, newPos := 0, 0
	for _, d := range diffs {
		n := utf8.RuneCountInString(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			if offset >= oldPos && offset < oldPos+n {
				return newPos
			}
			oldPos += n
		case diffmatchpatch.DiffInsert:
			newPos += n
		case diffmatchpatch.DiffEqual:
			if offset >= oldPos && offset < oldPos+n {
				return newPos + offset - oldPos
			}
			oldPos += n
			newPos += n
		}
	}
	return newPos
}
