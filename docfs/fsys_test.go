package docfs

import (
	"io"
	"log"
	"net"
	"strings"
	"testing"
	"time"

	"9fans.net/go/plan9"
	"9fans.net/go/plan9/client"
	"github.com/google/go-cmp/cmp"
	"github.com/rjkroege/domedit/dom"
	"github.com/rjkroege/domedit/editing"
	"github.com/rjkroege/domedit/textcheck"
)

const twoParagraphs = "<div contenteditable><p>hello</p><p>world</p></div>"

func setup(t *testing.T, markup string, opts ...editing.Option) *client.Fsys {
	t.Helper()
	opts = append([]editing.Option{editing.WithUndoManager(editing.NewUndoStack(0))}, opts...)
	ed := editing.New(dom.MustParseHTML(markup), opts...)
	c0, c1 := net.Pipe()
	s := New(ed, c1, WithUser("glenda"), WithLogger(log.New(io.Discard, "", 0)))
	go s.Serve()

	conn, err := client.NewConn(c0)
	if err != nil {
		t.Fatalf("NewConn failed: %v", err)
	}
	fsys, err := conn.Attach(nil, "glenda", "")
	if err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	t.Cleanup(func() {
		conn.Close()
		s.Close()
		ed.Close()
	})
	return fsys
}

func readFile(t *testing.T, fsys *client.Fsys, name string) string {
	t.Helper()
	fid, err := fsys.Open(name, plan9.OREAD)
	if err != nil {
		t.Fatalf("Open(%q) failed: %v", name, err)
	}
	defer fid.Close()
	b, err := io.ReadAll(fid)
	if err != nil {
		t.Fatalf("reading %q failed: %v", name, err)
	}
	return string(b)
}

func writeFile(fsys *client.Fsys, name, data string) error {
	fid, err := fsys.Open(name, plan9.OWRITE)
	if err != nil {
		return err
	}
	defer fid.Close()
	_, err = fid.Write([]byte(data))
	return err
}

func mustWrite(t *testing.T, fsys *client.Fsys, name, data string) {
	t.Helper()
	if err := writeFile(fsys, name, data); err != nil {
		t.Fatalf("writing %q to %q failed: %v", data, name, err)
	}
}

func TestReadDir(t *testing.T) {
	fsys := setup(t, twoParagraphs)

	fid, err := fsys.Open("/", plan9.OREAD)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer fid.Close()
	dirs, err := fid.Dirread()
	if err != nil {
		t.Fatalf("Dirread failed: %v", err)
	}
	var names []string
	for _, d := range dirs {
		names = append(names, d.Name)
		if d.Uid != "glenda" {
			t.Errorf("%s: Uid = %q; want %q", d.Name, d.Uid, "glenda")
		}
	}
	want := []string{"addr", "ctl", "log", "markers", "sel", "text"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("directory mismatch (-want +got):\n%s", diff)
	}
}

func TestOpenPermissions(t *testing.T) {
	fsys := setup(t, twoParagraphs)

	for _, tc := range []struct {
		name string
		mode uint8
	}{
		{"text", plan9.OWRITE},
		{"markers", plan9.ORDWR},
		{"ctl", plan9.OREAD},
		{"log", plan9.OWRITE},
		{"nonexistent", plan9.OREAD},
	} {
		fid, err := fsys.Open(tc.name, tc.mode)
		if err == nil {
			fid.Close()
			t.Errorf("Open(%q, %d) succeeded; want error", tc.name, tc.mode)
		}
	}
}

func TestText(t *testing.T) {
	fsys := setup(t, twoParagraphs)
	if got, want := readFile(t, fsys, "text"), "hello\nworld"; got != want {
		t.Errorf("text = %q; want %q", got, want)
	}
}

func TestAddr(t *testing.T) {
	fsys := setup(t, twoParagraphs)

	fid, err := fsys.Open("addr", plan9.OREAD)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := io.ReadAll(fid); err == nil || !strings.Contains(err.Error(), Enosel.Error()) {
		t.Errorf("reading addr without a selection: error %v; want %v", err, Enosel)
	}
	fid.Close()

	mustWrite(t, fsys, "addr", "6 5")
	if got, want := readFile(t, fsys, "addr"), "6 5\n"; got != want {
		t.Errorf("addr = %q; want %q", got, want)
	}
	if got, want := readFile(t, fsys, "sel"), "world"; got != want {
		t.Errorf("sel = %q; want %q", got, want)
	}

	for _, tc := range []struct {
		addr string
		want error
	}{
		{"", Ebadaddr},
		{"x", Ebadaddr},
		{"1 2 3", Ebadaddr},
		{"-1", Eaddr},
		{"100", Eaddr},
	} {
		err := writeFile(fsys, "addr", tc.addr)
		if err == nil || !strings.Contains(err.Error(), tc.want.Error()) {
			t.Errorf("writing addr %q: error %v; want %v", tc.addr, err, tc.want)
		}
	}
}

func TestSelWritePastes(t *testing.T) {
	fsys := setup(t, twoParagraphs)

	mustWrite(t, fsys, "addr", "0 5")
	mustWrite(t, fsys, "sel", "howdy")
	if got, want := readFile(t, fsys, "text"), "howdy\nworld"; got != want {
		t.Errorf("text = %q; want %q", got, want)
	}
	if got := readFile(t, fsys, "sel"); got != "" {
		t.Errorf("sel = %q; want empty", got)
	}
}

func TestCtl(t *testing.T) {
	for _, tc := range []struct {
		name string
		addr string
		ctl  string
		want string
	}{
		{"insert", "5", "insert !", "hello!\nworld"},
		{"insert quoted", "5", `insert "é"`, "helloé\nworld"},
		{"backspace", "5", "backspace", "hell\nworld"},
		{"delete", "0", "delete", "ello\nworld"},
		{"backspace joins paragraphs", "6", "backspace", "helloworld"},
		{"delete selection", "0 6", "delete", "world"},
		{"newline", "2", "newline", "he\nllo\nworld"},
		{"undo", "5", "insert !\nundo", "hello\nworld"},
		{"redo", "5", "insert !\nundo\nredo", "hello!\nworld"},
		{"bold keeps text", "0 5", "bold", "hello\nworld"},
		{"cut and paste", "0 5", "cut\npaste\npaste", "hellohello\nworld"},
		{"compose and commit", "5", "compose か\ncommit", "helloか\nworld"},
		{"commit other text", "5", "compose か\ncommit 漢", "hello漢\nworld"},
		{"compose and cancel", "5", "compose か\ncancel", "hello\nworld"},
		{"correct", "", "correct 0 5 howdy", "howdy\nworld"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			fsys := setup(t, twoParagraphs)
			if tc.addr != "" {
				mustWrite(t, fsys, "addr", tc.addr)
			}
			mustWrite(t, fsys, "ctl", tc.ctl)
			if got := readFile(t, fsys, "text"); got != tc.want {
				t.Errorf("text = %q; want %q", got, tc.want)
			}
		})
	}
}

func TestBadCtl(t *testing.T) {
	fsys := setup(t, twoParagraphs)

	for _, tc := range []struct {
		ctl  string
		want error
	}{
		{"frobnicate", Ebadctl},
		{`insert "unterminated`, Ebadctl},
		{"correct x 1 a", Ebadctl},
		{"undo", Efailed},
		{"insert text", Efailed}, // nothing selected
		{"correct 100 1 a", Eaddr},
	} {
		err := writeFile(fsys, "ctl", tc.ctl)
		if err == nil || !strings.Contains(err.Error(), tc.want.Error()) {
			t.Errorf("ctl %q: error %v; want %v", tc.ctl, err, tc.want)
		}
	}
	if err := writeFile(fsys, "ctl", "check"); err == nil {
		t.Errorf("ctl check without a checker succeeded")
	}
}

func TestMarkersAndCorrect(t *testing.T) {
	checker := textcheck.NewWordListChecker([]string{"world"}, map[string]string{"helo": "hello"})
	fsys := setup(t, "<div contenteditable><p>helo world</p></div>",
		editing.WithChecker(checker, textcheck.WithDelay(0)))

	mustWrite(t, fsys, "ctl", "check")
	var markers string
	for deadline := time.Now().Add(5 * time.Second); time.Now().Before(deadline); time.Sleep(10 * time.Millisecond) {
		if markers = readFile(t, fsys, "markers"); markers != "" {
			break
		}
	}
	if want := "0 4 misspelling hello\n"; markers != want {
		t.Fatalf("markers = %q; want %q", markers, want)
	}

	mustWrite(t, fsys, "ctl", "correct 0 4 hello")
	if got, want := readFile(t, fsys, "text"), "hello world"; got != want {
		t.Errorf("text = %q; want %q", got, want)
	}
	if got := readFile(t, fsys, "markers"); got != "" {
		t.Errorf("markers after correction = %q; want none", got)
	}

	mustWrite(t, fsys, "ctl", "undo")
	if got, want := readFile(t, fsys, "text"), "helo world"; got != want {
		t.Errorf("text after undo = %q; want %q", got, want)
	}
}

func TestLog(t *testing.T) {
	fsys := setup(t, twoParagraphs)

	fid, err := fsys.Open("log", plan9.OREAD)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	lines := make(chan string)
	go func() {
		buf := make([]byte, 256)
		for {
			n, err := fid.Read(buf)
			if err != nil {
				close(lines)
				return
			}
			lines <- string(buf[:n])
		}
	}()

	mustWrite(t, fsys, "addr", "5")
	mustWrite(t, fsys, "ctl", "compose か")

	want := map[string]bool{
		"selectionchanged\n":         true,
		"compositionstart\n":         true,
		"compositionupdate \"か\"\n": true,
		"contentchanged\n":           true,
	}
	timeout := time.After(5 * time.Second)
	for len(want) > 0 {
		select {
		case l, ok := <-lines:
			if !ok {
				t.Fatalf("log closed; still waiting for %v", want)
			}
			delete(want, l)
		case <-timeout:
			t.Fatalf("timed out waiting for %v", want)
		}
	}
}

func TestEventLog(t *testing.T) {
	var l eventLog
	slow := &Fid{}
	l.open(slow)
	for i := 0; i < maxEvents+44; i++ {
		l.add(strings.Repeat("x", i%3) + "\n")
	}
	if got, want := l.start, 44; got != want {
		t.Errorf("start = %d; want %d", got, want)
	}
	if _, ok := l.next(slow, 1); !ok || slow.logoff != 45 {
		t.Errorf("next() skipped to offset %d, %v; want 45, true", slow.logoff, ok)
	}

	late := &Fid{}
	l.open(late)
	l.add("late\n")
	if got, ok := l.next(late, 2); !ok || got != "late\n" {
		t.Errorf("next() = %q, %v; want %q, true", got, ok, "late\n")
	}

	done := make(chan bool)
	go func() {
		_, ok := l.next(late, 3)
		done <- ok
	}()
	// Wait for the read to block.
	for {
		l.lk.Lock()
		n := len(l.read)
		l.lk.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	l.flush(3)
	if ok := <-done; ok {
		t.Errorf("flushed next() returned an event")
	}
}

func TestServeEndsOnClose(t *testing.T) {
	ed := editing.New(dom.MustParseHTML(twoParagraphs))
	defer ed.Close()
	c0, c1 := net.Pipe()
	s := New(ed, c1, WithLogger(log.New(io.Discard, "", 0)))
	errc := make(chan error, 1)
	go func() { errc <- s.Serve() }()
	c0.Close()
	if err := <-errc; err != nil {
		t.Errorf("Serve() = %v; want nil", err)
	}
}

func TestAddrAroundSpaces(t *testing.T) {
	fsys := setup(t, "<div contenteditable><p>ab  cd</p><p>ef</p></div>")

	for _, addr := range []string{"2 1", "3 0", "2 2", "4 2"} {
		mustWrite(t, fsys, "addr", addr)
		if got, want := readFile(t, fsys, "addr"), addr+"\n"; got != want {
			t.Errorf("after writing %q addr = %q; want %q", addr, got, want)
		}
	}
}
