// Package textcheck finds spelling and grammar problems in paragraphs of
// text. Checks run off the editing goroutine through a Scheduler and
// their results end up as Markers on the text nodes they refer to.
package textcheck

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// Kind selects what a check looks for. Kinds combine as a bitmask.
type Kind uint8

const (
	Spelling Kind = 1 << iota
	Grammar
	Replacement
)

func (k Kind) String() string {
	var s []string
	if k&Spelling != 0 {
		s = append(s, "misspelling")
	}
	if k&Grammar != 0 {
		s = append(s, "grammar")
	}
	if k&Replacement != 0 {
		s = append(s, "replacement")
	}
	if len(s) == 0 {
		return "none"
	}
	return strings.Join(s, "|")
}

// Request is one unit of text to check.
type Request struct {
	ID    int
	Text  string
	Kinds Kind
}

// GrammarDetail describes one problem inside a grammar Result.
type GrammarDetail struct {
	Offset, Length int
	Description    string
	Guesses        []string
}

// Result is one finding. Offsets count characters of Request.Text.
type Result struct {
	Kind           Kind
	Offset, Length int

	// Replacement is the corrected text of a Replacement result.
	Replacement string
	Suggestions []string
	Details     []GrammarDetail
}

// A Checker examines the text of a request. Check may be called from any
// goroutine and should give up when ctx is done.
type Checker interface {
	Check(ctx context.Context, req Request) ([]Result, error)
}

// NopChecker finds nothing.
type NopChecker struct{}

func (NopChecker) Check(context.Context, Request) ([]Result, error) { return nil, nil }

// Word is a word of some text located by character offsets.
type Word struct {
	Text           string
	Offset, Length int
}

// Words splits text into its words. Runs of spaces and punctuation are
// dropped.
func Words(text string) []Word {
	var words []Word
	state := -1
	pos := 0
	for rest := text; len(rest) > 0; {
		var seg string
		seg, rest, state = uniseg.FirstWordInString(rest, state)
		n := utf8.RuneCountInString(seg)
		if isWord(seg) {
			words = append(words, Word{Text: seg, Offset: pos, Length: n})
		}
		pos += n
	}
	return words
}

func isWord(s string) bool {
	for _, c := range s {
		if unicode.IsLetter(c) {
			return true
		}
	}
	return false
}
