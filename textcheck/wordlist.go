package textcheck

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// WordListChecker checks text against a fixed set of known words. Words
// with a known correction are reported as Replacement results when those
// are requested. With Grammar requested it flags a word that repeats the
// one before it.
type WordListChecker struct {
	known       map[string]bool
	corrections map[string]string
}

// NewWordListChecker returns a checker that knows words, and corrects the
// keys of corrections to their values. Matching ignores case.
func NewWordListChecker(words []string, corrections map[string]string) *WordListChecker {
	c := &WordListChecker{
		known:       make(map[string]bool, len(words)),
		corrections: make(map[string]string, len(corrections)),
	}
	for _, w := range words {
		c.known[strings.ToLower(w)] = true
	}
	for k, v := range corrections {
		c.corrections[strings.ToLower(k)] = v
		c.known[strings.ToLower(v)] = true
	}
	return c
}

// ReadWordList reads a word list: one word per line, or a correction
// written as "wrong -> right". Blank lines and lines starting with '#'
// are skipped.
func ReadWordList(r io.Reader) (*WordListChecker, error) {
	var words []string
	corrections := make(map[string]string)
	s := bufio.NewScanner(r)
	for ln := 1; s.Scan(); ln++ {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		f := strings.Fields(line)
		switch {
		case len(f) == 1:
			words = append(words, f[0])
		case len(f) == 3 && f[1] == "->":
			corrections[f[0]] = f[2]
		default:
			return nil, fmt.Errorf("word list line %d: bad entry %q", ln, line)
		}
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return NewWordListChecker(words, corrections), nil
}

func (c *WordListChecker) Check(ctx context.Context, req Request) ([]Result, error) {
	var results []Result
	var prev *Word
	words := Words(req.Text)
	for i := range words {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		w := &words[i]
		lw := strings.ToLower(w.Text)
		corr, hasCorr := c.corrections[lw]

		switch {
		case hasCorr && req.Kinds&Replacement != 0:
			results = append(results, Result{Kind: Replacement, Offset: w.Offset, Length: w.Length, Replacement: corr})
		case !c.known[lw] && req.Kinds&Spelling != 0:
			r := Result{Kind: Spelling, Offset: w.Offset, Length: w.Length}
			if hasCorr {
				r.Suggestions = []string{corr}
			}
			results = append(results, r)
		}

		if req.Kinds&Grammar != 0 && prev != nil && strings.EqualFold(prev.Text, w.Text) && onlySpaceBetween(req.Text, prev, w) {
			results = append(results, Result{
				Kind:   Grammar,
				Offset: prev.Offset,
				Length: w.Offset + w.Length - prev.Offset,
				Details: []GrammarDetail{{
					Offset:      w.Offset - prev.Offset,
					Length:      w.Length,
					Description: fmt.Sprintf("repeated word %q", w.Text),
					Guesses:     []string{""},
				}},
			})
		}
		prev = w
	}
	return results, nil
}

func onlySpaceBetween(text string, a, b *Word) bool {
	r := []rune(text)
	return strings.TrimSpace(string(r[a.Offset+a.Length:b.Offset])) == ""
}
