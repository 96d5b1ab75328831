package textiter

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rjkroege/domedit/dom"
	"github.com/rjkroege/domedit/domrange"
	"github.com/rjkroege/domedit/treepos"
	"github.com/sanity-io/litter"
)

func selecting(t *testing.T, n *dom.Node) *domrange.Range {
	t.Helper()
	r, err := domrange.Selecting(n)
	if err != nil {
		t.Fatalf("Selecting(%v) error %v", n, err)
	}
	return r
}

func chunks(r *domrange.Range, b Behavior) []string {
	var got []string
	for it := New(r, b); it.Next(); {
		got = append(got, it.Text())
	}
	return got
}

func TestReplacedElementPlaceholder(t *testing.T) {
	d := dom.MustParseHTML("<p>ab<img>cd</p>")
	r := selecting(t, d.Body().FindElement("p"))

	want := []string{"ab", "\uFFFC", "cd"}
	if diff := cmp.Diff(want, chunks(r, Behavior{})); diff != "" {
		t.Errorf("chunks mismatch (-want +got):\n%s", diff)
	}
	if got := RangeLength(r, Behavior{}); got != 5 {
		t.Errorf("RangeLength() = %d; want 5", got)
	}
	if got := PlainText(r, Behavior{Placeholder: '*'}); got != "ab*cd" {
		t.Errorf("PlainText() = %q; want %q", got, "ab*cd")
	}
	if got := PlainText(r, Behavior{EmitCharactersBetweenAllVisiblePositions: true}); got != "ab,cd" {
		t.Errorf("PlainText() = %q; want %q", got, "ab,cd")
	}
}

func TestPlainText(t *testing.T) {
	for _, tc := range []struct {
		name   string
		markup string
		want   string
	}{
		{"collapsed spaces", "<p>  a   b  </p>", "a b"},
		{"single spaces", "<p>a b c</p>", "a b c"},
		{"space across elements", "<p>ab<b>cd</b> ef</p>", "abcd ef"},
		{"blocks", "<p>ab</p><p>cd</p>", "ab\ncd"},
		{"break", "<p>a<br>b</p>", "a\nb"},
		{"table cells", "<table><tr><td>a</td><td>b</td></tr></table>", "a\tb"},
		{"pre", "<pre>a  b\nc</pre>", "a  b\nc"},
		{"display none", `<p>a<span style="display:none">x</span>b</p>`, "ab"},
		{"visibility hidden", `<p>a<span style="visibility:hidden">x</span>b</p>`, "ab"},
		{"comment", "<p>a<!-- x -->b</p>", "ab"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			d := dom.MustParseHTML(tc.markup)
			r := selecting(t, d.Body())
			if got := PlainText(r, Behavior{}); got != tc.want {
				t.Errorf("PlainText() = %q; want %q\nchunks: %s", got, tc.want, litter.Sdump(chunks(r, Behavior{})))
			}
		})
	}
}

func TestChunkSpans(t *testing.T) {
	d := dom.MustParseHTML("<p>ab<img>cd</p>")
	p := d.Body().FindElement("p")
	ab, cd := p.FirstChild(), p.LastChild()

	type span struct {
		Text, Start, End string
	}
	var got []span
	for it := New(selecting(t, p), Behavior{}); it.Next(); {
		got = append(got, span{it.Text(), it.Start().String(), it.End().String()})
	}
	ps := func(n *dom.Node, o int) string { return treepos.Position{Container: n, Offset: o}.String() }
	want := []span{
		{"ab", ps(ab, 0), ps(ab, 2)},
		{"\uFFFC", ps(p, 1), ps(p, 2)},
		{"cd", ps(cd, 0), ps(cd, 2)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("spans mismatch (-want +got):\n%s", diff)
	}
}

func TestPartialTextRange(t *testing.T) {
	d := dom.MustParseHTML("<p>hello world</p>")
	text := d.Body().FindElement("p").FirstChild()
	r, err := domrange.NewWithBounds(d, text, 2, text, 8)
	if err != nil {
		t.Fatal(err)
	}
	if got := PlainText(r, Behavior{}); got != "llo wo" {
		t.Errorf("PlainText() = %q; want %q", got, "llo wo")
	}
}

func TestCharacterIterator(t *testing.T) {
	d := dom.MustParseHTML("<p>ab<b>cd</b></p>")
	c := NewCharacterIterator(selecting(t, d.Body().FindElement("p")), Behavior{})
	if got := c.String(3); got != "abc" {
		t.Errorf("String(3) = %q; want %q", got, "abc")
	}
	if got := c.Offset(); got != 3 {
		t.Errorf("Offset() = %d; want 3", got)
	}
	c.Advance(5)
	if !c.AtEnd() {
		t.Errorf("AtEnd() = false after advancing past the end")
	}
}

func TestWordAwareIterator(t *testing.T) {
	d := dom.MustParseHTML("<p>ab<b>cd</b> ef</p>")
	var got []string
	for w := NewWordAwareIterator(selecting(t, d.Body().FindElement("p")), Behavior{}); w.Next(); {
		got = append(got, w.Text())
	}
	if diff := cmp.Diff([]string{"abcd", " ", "ef"}, got); diff != "" {
		t.Errorf("chunks mismatch (-want +got):\n%s", diff)
	}
}

func TestBackwardTextIterator(t *testing.T) {
	d := dom.MustParseHTML("<p>ab</p><p>cd</p>")
	var got []string
	for it := NewBackward(selecting(t, d.Body())); it.Next(); {
		got = append(got, it.Text())
	}
	if diff := cmp.Diff([]string{"cd", "\n", "ab", "\n"}, got); diff != "" {
		t.Errorf("chunks mismatch (-want +got):\n%s", diff)
	}
}

func TestSubrange(t *testing.T) {
	d := dom.MustParseHTML("<p>ab<b>cd</b></p><p>hello world</p>")
	ps := d.Body().Elements("p")

	for _, tc := range []struct {
		name           string
		scope          *dom.Node
		offset, length int
		want           string
	}{
		{"within a node", ps[1], 6, 5, "world"},
		{"across nodes", ps[0], 1, 2, "bc"},
		{"empty", ps[1], 3, 0, ""},
	} {
		t.Run(tc.name, func(t *testing.T) {
			sub, err := Subrange(selecting(t, tc.scope), tc.offset, tc.length, Behavior{})
			if err != nil {
				t.Fatalf("Subrange() error %v", err)
			}
			if got := PlainText(sub, Behavior{}); got != tc.want {
				t.Errorf("PlainText(Subrange()) = %q; want %q", got, tc.want)
			}
			if got := sub.Collapsed(); got != (tc.length == 0) {
				t.Errorf("Collapsed() = %v; want %v", got, tc.length == 0)
			}
		})
	}

	if _, err := Subrange(selecting(t, ps[0]), -1, 1, Behavior{}); !errors.Is(err, dom.ErrIndexOutOfRange) {
		t.Errorf("Subrange(-1) error %v; want ErrIndexOutOfRange", err)
	}
}

func TestRangeFromLocationAndLength(t *testing.T) {
	d := dom.MustParseHTML("<p>ab<b>cd</b></p>")
	p := d.Body().FindElement("p")
	ab, cd := p.FirstChild(), p.FindElement("b").FirstChild()

	r, err := RangeFromLocationAndLength(p, 1, 2, Behavior{})
	if err != nil {
		t.Fatalf("RangeFromLocationAndLength() error %v", err)
	}
	if got, want := r.Start(), (treepos.Position{Container: ab, Offset: 1}); got != want {
		t.Errorf("Start() = %v; want %v", got, want)
	}
	if got, want := r.End(), (treepos.Position{Container: cd, Offset: 1}); got != want {
		t.Errorf("End() = %v; want %v", got, want)
	}

	loc, length, err := LocationAndLength(p, r, Behavior{})
	if err != nil {
		t.Fatalf("LocationAndLength() error %v", err)
	}
	if loc != 1 || length != 2 {
		t.Errorf("LocationAndLength() = %d, %d; want 1, 2", loc, length)
	}

	if _, err := RangeFromLocationAndLength(p, 10, 0, Behavior{}); !errors.Is(err, dom.ErrIndexOutOfRange) {
		t.Errorf("RangeFromLocationAndLength(10) error %v; want ErrIndexOutOfRange", err)
	}
}

func TestRangeFromLocationSelectsReplacedElement(t *testing.T) {
	d := dom.MustParseHTML("<p>ab<img>cd</p>")
	p := d.Body().FindElement("p")
	r, err := RangeFromLocationAndLength(p, 2, 1, Behavior{})
	if err != nil {
		t.Fatal(err)
	}
	want := [2]treepos.Position{{Container: p, Offset: 1}, {Container: p, Offset: 2}}
	if got := [2]treepos.Position{r.Start(), r.End()}; got != want {
		t.Errorf("range = %v; want %v", got, want)
	}
}

func TestFindPlainText(t *testing.T) {
	d := dom.MustParseHTML("<p>Hello hello</p>")
	p := d.Body().FindElement("p")
	text := p.FirstChild()

	for _, tc := range []struct {
		name       string
		target     string
		opts       FindOptions
		start, end treepos.Position
	}{
		{"case sensitive", "hello", FindOptions{}, treepos.Position{Container: text, Offset: 6}, treepos.Position{Container: text, Offset: 11}},
		{"case insensitive", "hello", FindOptions{CaseInsensitive: true}, treepos.Position{Container: text, Offset: 0}, treepos.Position{Container: text, Offset: 5}},
		{"backward", "HELLO", FindOptions{CaseInsensitive: true, Backward: true}, treepos.Position{Container: text, Offset: 6}, treepos.Position{Container: text, Offset: 11}},
		{"missing", "bye", FindOptions{}, treepos.Position{Container: p, Offset: 1}, treepos.Position{Container: p, Offset: 1}},
		{"missing backward", "bye", FindOptions{Backward: true}, treepos.Position{Container: p, Offset: 0}, treepos.Position{Container: p, Offset: 0}},
		{"blank", "  ", FindOptions{}, treepos.Position{Container: p, Offset: 1}, treepos.Position{Container: p, Offset: 1}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := FindPlainText(selecting(t, p), tc.target, tc.opts, Behavior{})
			if err != nil {
				t.Fatalf("FindPlainText() error %v", err)
			}
			if got.Start() != tc.start || got.End() != tc.end {
				t.Errorf("FindPlainText(%q) = %v-%v; want %v-%v", tc.target, got.Start(), got.End(), tc.start, tc.end)
			}
		})
	}
}

func TestSegmentBounds(t *testing.T) {
	for _, tc := range []struct {
		name       string
		f          func(string, int) (int, int)
		text       string
		offset     int
		start, end int
	}{
		{"word", WordBounds, "hello world", 2, 0, 5},
		{"space", WordBounds, "hello world", 5, 5, 6},
		{"end of text", WordBounds, "hello world", 11, 6, 11},
		{"word before space", wordAt, "hello world", 5, 0, 5},
		{"sentence", SentenceBounds, "One. Two.", 6, 5, 9},
		{"first sentence", SentenceBounds, "One. Two.", 0, 0, 5},
	} {
		t.Run(tc.name, func(t *testing.T) {
			start, end := tc.f(tc.text, tc.offset)
			if start != tc.start || end != tc.end {
				t.Errorf("bounds(%q, %d) = %d, %d; want %d, %d", tc.text, tc.offset, start, end, tc.start, tc.end)
			}
		})
	}
}

func TestExpandToWord(t *testing.T) {
	d := dom.MustParseHTML("<p>hello world</p>")
	text := d.Body().FindElement("p").FirstChild()
	r, err := domrange.NewWithBounds(d, text, 7, text, 7)
	if err != nil {
		t.Fatal(err)
	}
	if err := ExpandToWord(r, Behavior{}); err != nil {
		t.Fatalf("ExpandToWord() error %v", err)
	}
	if got := PlainText(r, Behavior{}); got != "world" {
		t.Errorf("PlainText() = %q; want %q", got, "world")
	}
}

func TestExpandToSentence(t *testing.T) {
	d := dom.MustParseHTML("<p>One. Two three.</p>")
	text := d.Body().FindElement("p").FirstChild()
	r, err := domrange.NewWithBounds(d, text, 9, text, 10)
	if err != nil {
		t.Fatal(err)
	}
	if err := ExpandToSentence(r, Behavior{}); err != nil {
		t.Fatalf("ExpandToSentence() error %v", err)
	}
	if got := PlainText(r, Behavior{}); got != "Two three." {
		t.Errorf("PlainText() = %q; want %q", got, "Two three.")
	}
}

func TestRangeEndingAfterSpace(t *testing.T) {
	for _, tc := range []struct {
		name   string
		markup string
		end    int
		want   string
	}{
		{"space before more text", "<p>ab cd</p>", 3, "ab "},
		{"collapsed run", "<p>ab   cd</p>", 4, "ab "},
		{"space before an element", "<p>ab <b>cd</b></p>", 3, "ab "},
		{"trailing space", "<p>ab </p><p>cd</p>", 3, "ab"},
		{"space before a break", "<p>ab <br>cd</p>", 3, "ab"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			d := dom.MustParseHTML(tc.markup)
			text := d.Body().FindElement("p").FirstChild()
			r, err := domrange.NewWithBounds(d, text, 0, text, tc.end)
			if err != nil {
				t.Fatal(err)
			}
			if got := PlainText(r, Behavior{}); got != tc.want {
				t.Errorf("PlainText() = %q; want %q\nchunks: %s", got, tc.want, litter.Sdump(chunks(r, Behavior{})))
			}
		})
	}
}

func TestLocationRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		name   string
		markup string
		text   string
	}{
		{"single spaces", "<p>ab cd</p>", "ab cd"},
		{"collapsed spaces", "<p>  a   b  </p>", "a b"},
		{"space across elements", "<p>ab <b> cd</b></p>", "ab cd"},
		{"trailing space before block", "<p>ab </p><p>cd</p>", "ab\ncd"},
		{"blocks", "<p>ab</p><p>cd</p>", "ab\ncd"},
		{"text before block", "ab<p>cd</p>", "ab\ncd"},
		{"break", "<p>a <br> b</p>", "a\nb"},
		{"table cells", "<table><tr><td>a</td><td>b</td></tr></table>", "a\tb"},
		{"replaced element", "<p>a <img> b</p>", "a \uFFFC b"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			scope := dom.MustParseHTML(tc.markup).Body()
			if got := PlainText(selecting(t, scope), Behavior{}); got != tc.text {
				t.Fatalf("PlainText() = %q; want %q", got, tc.text)
			}
			text := []rune(tc.text)
			for loc := 0; loc <= len(text); loc++ {
				for length := 0; length <= 1 && loc+length <= len(text); length++ {
					r, err := RangeFromLocationAndLength(scope, loc, length, Behavior{})
					if err != nil {
						t.Fatalf("RangeFromLocationAndLength(%d, %d) error %v", loc, length, err)
					}
					gotLoc, gotLen, err := LocationAndLength(scope, r, Behavior{})
					if err != nil {
						t.Fatalf("LocationAndLength() error %v", err)
					}
					if gotLoc != loc || gotLen != length {
						t.Errorf("LocationAndLength(RangeFromLocationAndLength(%d, %d)) = %d, %d; range %v-%v",
							loc, length, gotLoc, gotLen, r.Start(), r.End())
					}
					if got, want := PlainText(r, Behavior{}), string(text[loc:loc+length]); got != want {
						t.Errorf("PlainText(RangeFromLocationAndLength(%d, %d)) = %q; want %q", loc, length, got, want)
					}
				}
			}
		})
	}
}

func TestSubrangeOfSynthesizedCharacters(t *testing.T) {
	for _, tc := range []struct {
		name   string
		markup string
		offset int
		want   string
	}{
		{"collapsed space", "<p>  a   b  </p>", 1, " "},
		{"newline between blocks", "<p>ab</p><p>cd</p>", 2, "\n"},
		{"newline before block", "ab<p>cd</p>", 2, "\n"},
		{"tab between cells", "<table><tr><td>a</td><td>b</td></tr></table>", 1, "\t"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			d := dom.MustParseHTML(tc.markup)
			sub, err := Subrange(selecting(t, d.Body()), tc.offset, 1, Behavior{})
			if err != nil {
				t.Fatalf("Subrange() error %v", err)
			}
			if got := PlainText(sub, Behavior{}); got != tc.want {
				t.Errorf("PlainText(Subrange(%d, 1)) = %q; want %q (range %v-%v)", tc.offset, got, tc.want, sub.Start(), sub.End())
			}
		})
	}
}
