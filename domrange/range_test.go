package domrange

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rjkroege/domedit/dom"
	"github.com/rjkroege/domedit/treepos"
	"github.com/sanity-io/litter"
)

// bounds is a comparable rendering of a range for diffs.
type bounds struct {
	Start, End string
}

func boundsOf(r *Range) bounds {
	return bounds{r.Start().String(), r.End().String()}
}

func pos(n *dom.Node, o int) string { return treepos.Position{Container: n, Offset: o}.String() }

func mustRange(t *testing.T, sc *dom.Node, so int, ec *dom.Node, eo int) *Range {
	t.Helper()
	r, err := NewWithBounds(sc.Document(), sc, so, ec, eo)
	if err != nil {
		t.Fatalf("NewWithBounds() error %v", err)
	}
	return r
}

func TestCaretFollowsInsertedText(t *testing.T) {
	d := dom.MustParseHTML("<p>hello</p>")
	text := d.Body().FindElement("p").FirstChild()
	r := mustRange(t, text, 2, text, 2)

	if err := text.InsertData(0, "abc"); err != nil {
		t.Fatal(err)
	}
	if got := r.StartOffset(); got != 5 {
		t.Errorf("StartOffset() = %d; want 5", got)
	}
	if !r.Collapsed() {
		t.Errorf("Collapsed() = false after insertion before the caret")
	}
}

func TestTextMutationRepair(t *testing.T) {
	for _, tc := range []struct {
		name       string
		mutate     func(n *dom.Node) error
		start, end int
	}{
		{"insert before", func(n *dom.Node) error { return n.InsertData(0, "xy") }, 5, 10},
		{"insert at start", func(n *dom.Node) error { return n.InsertData(3, "xy") }, 3, 10},
		{"insert at end", func(n *dom.Node) error { return n.InsertData(8, "xy") }, 3, 8},
		{"delete before", func(n *dom.Node) error { return n.DeleteData(0, 2) }, 1, 6},
		{"delete across start", func(n *dom.Node) error { return n.DeleteData(2, 4) }, 2, 4},
		{"delete after", func(n *dom.Node) error { return n.DeleteData(8, 2) }, 3, 8},
		{"delete all", func(n *dom.Node) error { return n.DeleteData(0, 11) }, 0, 0},
		{"replace inside", func(n *dom.Node) error { return n.ReplaceData(4, 2, "ABCD") }, 3, 10},
	} {
		t.Run(tc.name, func(t *testing.T) {
			d := dom.MustParseHTML("<p>hello world</p>")
			text := d.Body().FindElement("p").FirstChild()
			r := mustRange(t, text, 3, text, 8)
			if err := tc.mutate(text); err != nil {
				t.Fatal(err)
			}
			want := bounds{pos(text, tc.start), pos(text, tc.end)}
			if diff := cmp.Diff(want, boundsOf(r)); diff != "" {
				t.Errorf("bounds mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNodeRemovalRepair(t *testing.T) {
	d := dom.MustParseHTML("<div id=a><p id=b>hello</p><p id=c>x</p></div>")
	a := d.Body().ElementByID("a")
	b := d.Body().ElementByID("b")
	c := d.Body().ElementByID("c")

	inside := mustRange(t, b.FirstChild(), 2, c.FirstChild(), 1)
	after := mustRange(t, a, 2, a, 2)

	if err := a.RemoveChild(b); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(bounds{pos(a, 0), pos(c.FirstChild(), 1)}, boundsOf(inside)); diff != "" {
		t.Errorf("range inside removed subtree (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(bounds{pos(a, 1), pos(a, 1)}, boundsOf(after)); diff != "" {
		t.Errorf("range after removed node (-want +got):\n%s", diff)
	}

	if err := a.RemoveChild(c); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(bounds{pos(a, 0), pos(a, 0)}, boundsOf(after)); diff != "" {
		t.Errorf("range after removed preceding child (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(bounds{pos(a, 0), pos(a, 0)}, boundsOf(inside)); diff != "" {
		t.Errorf("range ending in removed node (-want +got):\n%s", diff)
	}
}

func TestSplitAndMergeRepair(t *testing.T) {
	d := dom.MustParseHTML("<p>hello</p>")
	p := d.Body().FindElement("p")
	text := p.FirstChild()
	r := mustRange(t, text, 1, text, 4)

	tail, err := text.SplitText(2)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(bounds{pos(text, 1), pos(tail, 2)}, boundsOf(r)); diff != "" {
		t.Errorf("after split (-want +got):\n%s", diff)
	}

	between := mustRange(t, p, 1, tail, 2)
	if _, _, err := tail.MergeIntoPrevious(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(bounds{pos(text, 1), pos(text, 4)}, boundsOf(r)); diff != "" {
		t.Errorf("after merge (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(bounds{pos(text, 2), pos(text, 4)}, boundsOf(between)); diff != "" {
		t.Errorf("parent boundary after merge (-want +got):\n%s", diff)
	}
}

func TestDeleteContents(t *testing.T) {
	d := dom.MustParseHTML("<p id=p>ab<b>cd</b>ef</p>")
	p := d.Body().ElementByID("p")
	ab := p.FirstChild()
	ef := p.LastChild()
	r := mustRange(t, ab, 1, ef, 1)

	if err := r.DeleteContents(); err != nil {
		t.Fatal(err)
	}
	if got, want := dom.Outline(p), `p("a","f")`; got != want {
		t.Errorf("after DeleteContents = %s; want %s", got, want)
	}
	if diff := cmp.Diff(bounds{pos(p, 1), pos(p, 1)}, boundsOf(r)); diff != "" {
		t.Errorf("range after delete (-want +got):\n%s", diff)
	}
}

func TestExtractAndCloneContents(t *testing.T) {
	for _, tc := range []struct {
		name     string
		op       func(r *Range) (*dom.Node, error)
		wantFrag string
		wantTree string
	}{
		{"extract", (*Range).ExtractContents, `#fragment(b("d"),"e")`, `p("ab",b("c"),"f")`},
		{"clone", (*Range).CloneContents, `#fragment(b("d"),"e")`, `p("ab",b("cd"),"ef")`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			d := dom.MustParseHTML("<p id=p>ab<b>cd</b>ef</p>")
			p := d.Body().ElementByID("p")
			cd := p.ChildAt(1).FirstChild()
			ef := p.LastChild()
			r := mustRange(t, cd, 1, ef, 1)

			frag, err := tc.op(r)
			if err != nil {
				t.Fatal(err)
			}
			if got := dom.Outline(frag); got != tc.wantFrag {
				t.Errorf("fragment = %s; want %s\n%s", got, tc.wantFrag, dom.Dump(frag))
			}
			if got := dom.Outline(p); got != tc.wantTree {
				t.Errorf("tree = %s; want %s", got, tc.wantTree)
			}
		})
	}
}

func TestExtractReinsertRestoresText(t *testing.T) {
	d := dom.MustParseHTML("<div id=d><p>one <i>two</i></p><p>three</p></div>")
	div := d.Body().ElementByID("d")

	one := div.FirstChild().FirstChild()
	three := div.LastChild().FirstChild()
	r := mustRange(t, one, 2, three, 3)

	frag, err := r.ExtractContents()
	if err != nil {
		t.Fatal(err)
	}
	if !r.Collapsed() {
		t.Fatalf("range not collapsed after extract: %s", litter.Sdump(boundsOf(r)))
	}
	if got, want := dom.Outline(div), `div(p("on"),p("ee"))`; got != want {
		t.Errorf("after extract = %s; want %s", got, want)
	}

	// The partially selected paragraphs stay split but the text returns.
	if err := r.InsertNode(frag); err != nil {
		t.Fatal(err)
	}
	if got, want := div.TextContent(), "one twothree"; got != want {
		t.Errorf("TextContent() = %q; want %q\n%s", got, want, dom.Dump(div))
	}
}

func TestInsertNode(t *testing.T) {
	d := dom.MustParseHTML("<p>hello</p>")
	p := d.Body().FindElement("p")
	text := p.FirstChild()
	r := mustRange(t, text, 2, text, 2)

	b := d.CreateElement("b")
	if err := r.InsertNode(b); err != nil {
		t.Fatal(err)
	}
	if got, want := dom.Outline(p), `p("he",b,"llo")`; got != want {
		t.Errorf("tree = %s; want %s", got, want)
	}
	if diff := cmp.Diff(bounds{pos(text, 2), pos(p, 2)}, boundsOf(r)); diff != "" {
		t.Errorf("range after InsertNode (-want +got):\n%s", diff)
	}
}

func TestInsertNodeErrors(t *testing.T) {
	d := dom.MustParseHTML("<p>hello<!--c--></p>")
	body := d.Body()
	p := body.FindElement("p")
	text := p.FirstChild()
	comment := p.LastChild()
	orphan := d.CreateTextNode("x")

	for _, tc := range []struct {
		name string
		at   *dom.Node
		n    *dom.Node
		want error
	}{
		{"ancestor", text, body, dom.ErrHierarchy},
		{"into comment", comment, d.CreateElement("i"), dom.ErrHierarchy},
		{"orphan text", orphan, d.CreateElement("i"), dom.ErrHierarchy},
		{"entity", text, d.CreateEntity("e"), dom.ErrInvalidNodeType},
		{"document", text, d.Node(), dom.ErrInvalidNodeType},
		{"nil", text, nil, dom.ErrNotFound},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r := mustRange(t, tc.at, 0, tc.at, 0)
			if err := r.InsertNode(tc.n); !errors.Is(err, tc.want) {
				t.Errorf("InsertNode() = %v; want %v", err, tc.want)
			}
		})
	}
}

func TestSurroundContents(t *testing.T) {
	d := dom.MustParseHTML("<p>hello world</p>")
	p := d.Body().FindElement("p")
	text := p.FirstChild()
	r := mustRange(t, text, 0, text, 5)

	b := d.CreateElement("b")
	b.AppendChild(d.CreateTextNode("stale"))
	if err := r.SurroundContents(b); err != nil {
		t.Fatal(err)
	}
	if got, want := dom.Outline(p), `p("",b("hello")," world")`; got != want {
		t.Errorf("tree = %s; want %s", got, want)
	}
	if diff := cmp.Diff(bounds{pos(p, 1), pos(p, 2)}, boundsOf(r)); diff != "" {
		t.Errorf("range after SurroundContents (-want +got):\n%s", diff)
	}
}

func TestSurroundContentsErrors(t *testing.T) {
	d := dom.MustParseHTML("<p>ab<i>cd</i>ef</p>")
	p := d.Body().FindElement("p")
	ab := p.FirstChild()
	cd := p.ChildAt(1).FirstChild()

	for _, tc := range []struct {
		name    string
		wrapper *dom.Node
		end     *dom.Node
		want    error
	}{
		{"partial element", d.CreateElement("b"), cd, dom.ErrBoundaryMismatch},
		{"fragment", d.CreateDocumentFragment(), ab, dom.ErrInvalidNodeType},
		{"doctype", d.CreateDocumentType("html"), ab, dom.ErrInvalidNodeType},
		{"contains range", p, ab, dom.ErrHierarchy},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r := mustRange(t, ab, 1, tc.end, 1)
			if err := r.SurroundContents(tc.wrapper); !errors.Is(err, tc.want) {
				t.Errorf("SurroundContents() = %v; want %v", err, tc.want)
			}
		})
	}
}

func TestCollapseIsIdempotent(t *testing.T) {
	d := dom.MustParseHTML("<p>hello</p>")
	text := d.Body().FindElement("p").FirstChild()
	r := mustRange(t, text, 1, text, 4)

	r.Collapse(false)
	once := boundsOf(r)
	r.Collapse(false)
	if diff := cmp.Diff(once, boundsOf(r)); diff != "" {
		t.Errorf("second Collapse changed range (-once +twice):\n%s", diff)
	}
	if diff := cmp.Diff(bounds{pos(text, 4), pos(text, 4)}, once); diff != "" {
		t.Errorf("Collapse(false) (-want +got):\n%s", diff)
	}
}

func TestInvertedBoundsCollapse(t *testing.T) {
	d := dom.MustParseHTML("<p>hello</p>")
	text := d.Body().FindElement("p").FirstChild()
	r := mustRange(t, text, 4, text, 1)
	if diff := cmp.Diff(bounds{pos(text, 4), pos(text, 4)}, boundsOf(r)); diff != "" {
		t.Errorf("NewWithBounds(inverted) (-want +got):\n%s", diff)
	}

	if err := r.SetEnd(text, 0); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(bounds{pos(text, 0), pos(text, 0)}, boundsOf(r)); diff != "" {
		t.Errorf("SetEnd before start (-want +got):\n%s", diff)
	}
}

func TestNewWithBoundsErrors(t *testing.T) {
	d := dom.MustParseHTML("<p>hello</p>")
	text := d.Body().FindElement("p").FirstChild()
	if _, err := NewWithBounds(d, text, 0, text, 6); !errors.Is(err, dom.ErrIndexOutOfRange) {
		t.Errorf("NewWithBounds(offset past end) = %v; want ErrIndexOutOfRange", err)
	}
	dt := d.CreateDocumentType("html")
	if _, err := NewWithBounds(d, dt, 0, text, 1); !errors.Is(err, dom.ErrInvalidNodeType) {
		t.Errorf("NewWithBounds(doctype) = %v; want ErrInvalidNodeType", err)
	}
}

func TestReleasedRange(t *testing.T) {
	d := dom.MustParseHTML("<p>hello</p>")
	text := d.Body().FindElement("p").FirstChild()
	r := mustRange(t, text, 1, text, 2)
	n := d.ObserverCount()

	r.Release()
	if got := d.ObserverCount(); got != n-1 {
		t.Errorf("ObserverCount() = %d; want %d", got, n-1)
	}
	if r.StartContainer() != nil {
		t.Errorf("StartContainer() = %v; want nil", r.StartContainer())
	}
	if err := r.SetStart(text, 0); !errors.Is(err, dom.ErrInvalidState) {
		t.Errorf("SetStart() = %v; want ErrInvalidState", err)
	}
	if err := r.DeleteContents(); !errors.Is(err, dom.ErrInvalidState) {
		t.Errorf("DeleteContents() = %v; want ErrInvalidState", err)
	}
	if _, err := r.ComparePoint(text, 0); !errors.Is(err, dom.ErrInvalidState) {
		t.Errorf("ComparePoint() = %v; want ErrInvalidState", err)
	}
	// Mutations after release must not touch the range.
	text.InsertData(0, "xx")
	r.Release()
}

func TestComparisons(t *testing.T) {
	d := dom.MustParseHTML("<p id=a>ab<b id=b>cd</b>ef</p><p id=c>gh</p>")
	body := d.Body()
	a := body.ElementByID("a")
	b := body.ElementByID("b")
	c := body.ElementByID("c")
	r := mustRange(t, a.FirstChild(), 1, a.LastChild(), 1)

	for _, tc := range []struct {
		n    *dom.Node
		o    int
		want int
	}{
		{a.FirstChild(), 0, -1},
		{a.FirstChild(), 1, 0},
		{b, 1, 0},
		{a.LastChild(), 2, 1},
		{c, 0, 1},
	} {
		got, err := r.ComparePoint(tc.n, tc.o)
		if err != nil {
			t.Fatalf("ComparePoint(%v, %d) error %v", tc.n, tc.o, err)
		}
		if got != tc.want {
			t.Errorf("ComparePoint(%v, %d) = %d; want %d", tc.n, tc.o, got, tc.want)
		}
	}

	if rel, _ := r.CompareNode(b); rel != NodeInside {
		t.Errorf("CompareNode(b) = %v; want NodeInside", rel)
	}
	if rel, _ := r.CompareNode(a); rel != NodeBeforeAndAfter {
		t.Errorf("CompareNode(a) = %v; want NodeBeforeAndAfter", rel)
	}
	if ok, _ := r.IntersectsNode(c); ok {
		t.Errorf("IntersectsNode(c) = true; want false")
	}
	if ok, _ := r.IntersectsNode(a); !ok {
		t.Errorf("IntersectsNode(a) = false; want true")
	}

	other := mustRange(t, c.FirstChild(), 0, c.FirstChild(), 1)
	if got, _ := r.CompareBoundaryPoints(StartToEnd, other); got != -1 {
		t.Errorf("CompareBoundaryPoints(StartToEnd) = %d; want -1", got)
	}
	if got, _ := r.CompareBoundaryPoints(EndToStart, other); got != -1 {
		t.Errorf("CompareBoundaryPoints(EndToStart) = %d; want -1", got)
	}

	detached := d.CreateElement("div")
	detached.AppendChild(d.CreateTextNode("zz"))
	if ok, err := r.IsPointInRange(detached.FirstChild(), 1); ok || err != nil {
		t.Errorf("IsPointInRange(detached) = %v, %v; want false, nil", ok, err)
	}
	if _, err := r.ComparePoint(detached.FirstChild(), 1); !errors.Is(err, dom.ErrWrongDocument) {
		t.Errorf("ComparePoint(detached) = %v; want ErrWrongDocument", err)
	}
	elsewhere := mustRange(t, detached, 0, detached, 1)
	if _, err := r.CompareBoundaryPoints(StartToStart, elsewhere); !errors.Is(err, dom.ErrWrongDocument) {
		t.Errorf("CompareBoundaryPoints(other tree) = %v; want ErrWrongDocument", err)
	}
}

func TestString(t *testing.T) {
	d := dom.MustParseHTML("<p id=a>ab<b>cd</b>ef</p>")
	a := d.Body().ElementByID("a")
	r := mustRange(t, a.FirstChild(), 1, a.LastChild(), 1)
	if got, want := r.String(), "bcde"; got != want {
		t.Errorf("String() = %q; want %q", got, want)
	}
}

func TestSurroundContentsKeepsWrapperOnFailure(t *testing.T) {
	d := dom.NewDocument()
	if err := d.Node().AppendChild(d.CreateDocumentType("html")); err != nil {
		t.Fatal(err)
	}
	r := mustRange(t, d.Node(), 0, d.Node(), 1)
	b := d.CreateElement("b")
	b.AppendChild(d.CreateTextNode("kept"))

	if err := r.SurroundContents(b); !errors.Is(err, dom.ErrHierarchy) {
		t.Errorf("SurroundContents() = %v; want %v", err, dom.ErrHierarchy)
	}
	if got, want := dom.Outline(b), `b("kept")`; got != want {
		t.Errorf("wrapper = %s; want %s", got, want)
	}
}
