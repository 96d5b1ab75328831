package docfs

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rjkroege/domedit/editing"
)

// ctlwrite runs the commands in data, one per line, stopping at the
// first that fails.
func (s *Server) ctlwrite(data string) error {
	ed := s.ed
	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		verb, arg, _ := strings.Cut(line, " ")

		var ok bool
		switch verb {
		case "undo":
			ok = ed.Undo()
		case "redo":
			ok = ed.Redo()
		case "bold":
			ok = ed.ApplyCommand(&editing.ApplyStyle{Style: editing.StyleBold})
		case "italic":
			ok = ed.ApplyCommand(&editing.ApplyStyle{Style: editing.StyleItalic})
		case "underline":
			ok = ed.ApplyCommand(&editing.ApplyStyle{Style: editing.StyleUnderline})
		case "insert":
			text, err := textArg(arg)
			if err != nil {
				return err
			}
			ok = ed.ApplyCommand(&editing.InsertText{Text: text})
		case "delete":
			ok = ed.ApplyCommand(&editing.DeleteForward{})
		case "backspace":
			ok = ed.ApplyCommand(&editing.DeleteBackward{})
		case "newline":
			ok = ed.ApplyCommand(&editing.InsertParagraph{})
		case "linebreak":
			ok = ed.ApplyCommand(&editing.InsertLineBreak{})
		case "cut":
			ok = ed.Cut()
		case "copy":
			ok = ed.Copy()
		case "paste":
			ok = ed.PasteFromPasteboard()
		case "compose":
			text, err := textArg(arg)
			if err != nil {
				return err
			}
			n := utf8.RuneCountInString(text)
			ok = ed.SetComposition(text, []editing.Underline{{Start: 0, End: n}}, n, n)
		case "commit":
			if arg == "" {
				ok = ed.ConfirmComposition()
				break
			}
			text, err := textArg(arg)
			if err != nil {
				return err
			}
			ok = ed.ConfirmCompositionText(text)
		case "cancel":
			ok = ed.CancelComposition()
		case "correct":
			var err error
			if ok, err = s.correct(arg); err != nil {
				return err
			}
		case "check":
			if !ed.Checking() {
				return fmt.Errorf("check: no checker")
			}
			ok = ed.Check(s.scope()) != 0
		default:
			return Ebadctl
		}
		if !ok {
			return fmt.Errorf("%s: %w", verb, Efailed)
		}
	}
	return nil
}

// textArg returns the text argument of a command. A Go string literal
// may carry characters a ctl line cannot.
func textArg(arg string) (string, error) {
	if !strings.HasPrefix(arg, `"`) {
		return arg, nil
	}
	s, err := strconv.Unquote(arg)
	if err != nil {
		return "", Ebadctl
	}
	return s, nil
}

// correct handles "location length text". A correction of exactly the
// span of a marker is made through the marker.
func (s *Server) correct(arg string) (bool, error) {
	locs, rest, _ := strings.Cut(arg, " ")
	lens, rest, _ := strings.Cut(rest, " ")
	loc, err := strconv.Atoi(locs)
	if err != nil {
		return false, Ebadctl
	}
	n, err := strconv.Atoi(lens)
	if err != nil {
		return false, Ebadctl
	}
	text, err := textArg(rest)
	if err != nil {
		return false, err
	}
	r, err := s.rangeAt(loc, n)
	if err != nil {
		return false, err
	}
	defer r.Release()

	start, end := r.Start(), r.End()
	if start.Container == end.Container {
		for _, m := range s.ed.Markers().For(start.Container) {
			if m.Offset == start.Offset && m.End() == end.Offset {
				return s.ed.CorrectSpelling(m, text), nil
			}
		}
	}
	return s.ed.ApplyCommand(&editing.Correct{Start: start, End: end, Text: text}), nil
}
