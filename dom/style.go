package dom

import "strings"

// Display is the box an element generates.
type Display uint8

const (
	DisplayInline Display = iota
	DisplayBlock
	DisplayNone
	DisplayBreak
	DisplayReplaced
	DisplayTableCell
	DisplayTableRow
	DisplayListItem
)

// WhiteSpace controls how whitespace in text is rendered. The zero value
// inherits from the parent.
type WhiteSpace uint8

const (
	WhiteSpaceInherit WhiteSpace = iota
	WhiteSpaceNormal
	WhiteSpaceNowrap
	WhiteSpacePre
	WhiteSpacePreWrap
	WhiteSpacePreLine
)

// CollapsesSpaces reports whether runs of spaces and tabs render as one.
func (w WhiteSpace) CollapsesSpaces() bool {
	return w != WhiteSpacePre && w != WhiteSpacePreWrap
}

// PreservesNewlines reports whether newlines in text render as breaks.
func (w WhiteSpace) PreservesNewlines() bool {
	return w == WhiteSpacePre || w == WhiteSpacePreWrap || w == WhiteSpacePreLine
}

// Editability is the contenteditable state of an element.
type Editability uint8

const (
	EditableInherit Editability = iota
	EditableTrue
	EditableFalse
)

var defaultDisplay = map[string]Display{
	"br": DisplayBreak,

	"td": DisplayTableCell,
	"th": DisplayTableCell,
	"tr": DisplayTableRow,
	"li": DisplayListItem,

	"img":      DisplayReplaced,
	"input":    DisplayReplaced,
	"textarea": DisplayReplaced,
	"select":   DisplayReplaced,
	"button":   DisplayReplaced,
	"object":   DisplayReplaced,
	"embed":    DisplayReplaced,
	"iframe":   DisplayReplaced,
	"video":    DisplayReplaced,
	"audio":    DisplayReplaced,
	"canvas":   DisplayReplaced,
	"svg":      DisplayReplaced,

	"head":     DisplayNone,
	"script":   DisplayNone,
	"style":    DisplayNone,
	"title":    DisplayNone,
	"meta":     DisplayNone,
	"link":     DisplayNone,
	"base":     DisplayNone,
	"template": DisplayNone,
}

var blockTags = []string{
	"address", "article", "aside", "blockquote", "body", "center", "dd",
	"details", "dir", "div", "dl", "dt", "fieldset", "figcaption", "figure",
	"footer", "form", "h1", "h2", "h3", "h4", "h5", "h6", "header", "hr",
	"html", "listing", "main", "menu", "nav", "ol", "p", "pre", "section",
	"summary", "table", "tbody", "tfoot", "thead", "ul", "xmp", "caption",
}

var preTags = map[string]bool{
	"pre": true, "textarea": true, "listing": true, "xmp": true, "plaintext": true,
}

func init() {
	for _, t := range blockTags {
		defaultDisplay[t] = DisplayBlock
	}
}

// Display returns the display of an element, from its style or its tag.
// Text nodes are inline. Other kinds generate no box.
func (n *Node) Display() Display {
	switch n.kind {
	case ElementNode:
		if n.displaySet {
			return n.display
		}
		return defaultDisplay[n.name]
	case TextNode, CDATASectionNode:
		return DisplayInline
	}
	return DisplayNone
}

// SetDisplay overrides the display of an element.
func (n *Node) SetDisplay(d Display) {
	n.display = d
	n.displaySet = true
}

// IsBlock reports whether n starts and ends a line of text.
func (n *Node) IsBlock() bool {
	switch n.Display() {
	case DisplayBlock, DisplayTableCell, DisplayTableRow, DisplayListItem:
		return n.kind == ElementNode
	}
	return false
}

// IsReplaced reports whether n is rendered as an opaque object.
func (n *Node) IsReplaced() bool {
	return n.kind == ElementNode && n.Display() == DisplayReplaced
}

// IsRendered reports whether n generates a box: it is an element or text
// and neither it nor an ancestor has display none.
func (n *Node) IsRendered() bool {
	if n.kind != ElementNode && !n.kind.IsText() {
		return false
	}
	for m := n; m != nil; m = m.parent {
		if m.kind == ElementNode && m.Display() == DisplayNone {
			return false
		}
	}
	return true
}

// SetWhiteSpace sets the whitespace mode of an element.
func (n *Node) SetWhiteSpace(w WhiteSpace) { n.whiteSpace = w }

// ComputedWhiteSpace returns the whitespace mode in effect at n.
func (n *Node) ComputedWhiteSpace() WhiteSpace {
	for m := n; m != nil; m = m.parent {
		if m.kind != ElementNode {
			continue
		}
		if m.whiteSpace != WhiteSpaceInherit {
			return m.whiteSpace
		}
		if preTags[m.name] {
			return WhiteSpacePre
		}
	}
	return WhiteSpaceNormal
}

// SetHidden sets the visibility of an element.
func (n *Node) SetHidden(h bool) { n.hidden = h }

// IsHidden reports whether n or an ancestor is invisible. Hidden content
// still takes up a box.
func (n *Node) IsHidden() bool {
	for m := n; m != nil; m = m.parent {
		if m.hidden {
			return true
		}
	}
	return false
}

// SetEditable sets the contenteditable state of an element.
func (n *Node) SetEditable(e Editability) { n.editable = e }

// IsEditable reports whether the content of n may be changed by editing
// commands.
func (n *Node) IsEditable() bool {
	for m := n; m != nil; m = m.parent {
		switch m.editable {
		case EditableTrue:
			return true
		case EditableFalse:
			return false
		}
	}
	return n.doc.designMode && n.IsConnected()
}

// RootEditable returns the outermost editable element containing n, or
// nil if n is not editable.
func (n *Node) RootEditable() *Node {
	if !n.IsEditable() {
		return nil
	}
	var root *Node
	for m := n; m != nil; m = m.parent {
		if m.kind == ElementNode && m.IsEditable() {
			root = m
		}
	}
	return root
}

// Attribute returns the value of the named attribute.
func (n *Node) Attribute(name string) (string, bool) {
	for _, a := range n.attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Attributes returns a copy of the attributes of n.
func (n *Node) Attributes() []Attr {
	return append([]Attr(nil), n.attrs...)
}

// SetAttribute sets an attribute of an element. The contenteditable,
// hidden and style attributes update the corresponding rendering state.
func (n *Node) SetAttribute(name, value string) {
	if n.kind != ElementNode {
		return
	}
	name = strings.ToLower(name)
	found := false
	for i := range n.attrs {
		if n.attrs[i].Name == name {
			n.attrs[i].Value = value
			found = true
			break
		}
	}
	if !found {
		n.attrs = append(n.attrs, Attr{Name: name, Value: value})
	}
	n.applyAttribute(name, value, true)
}

// RemoveAttribute removes an attribute of an element.
func (n *Node) RemoveAttribute(name string) {
	name = strings.ToLower(name)
	for i := range n.attrs {
		if n.attrs[i].Name == name {
			n.attrs = append(n.attrs[:i], n.attrs[i+1:]...)
			n.applyAttribute(name, "", false)
			return
		}
	}
}

func (n *Node) applyAttribute(name, value string, present bool) {
	switch name {
	case "contenteditable":
		switch {
		case !present:
			n.editable = EditableInherit
		case strings.EqualFold(value, "false"):
			n.editable = EditableFalse
		default:
			n.editable = EditableTrue
		}
	case "hidden":
		if present {
			n.SetDisplay(DisplayNone)
		} else {
			n.displaySet = false
		}
	case "style":
		n.displaySet = false
		n.whiteSpace = WhiteSpaceInherit
		n.hidden = false
		if present {
			n.applyStyle(value)
		}
	}
}

var displayValues = map[string]Display{
	"inline":       DisplayInline,
	"inline-block": DisplayInline,
	"block":        DisplayBlock,
	"none":         DisplayNone,
	"table-cell":   DisplayTableCell,
	"table-row":    DisplayTableRow,
	"list-item":    DisplayListItem,
}

var whiteSpaceValues = map[string]WhiteSpace{
	"normal":   WhiteSpaceNormal,
	"nowrap":   WhiteSpaceNowrap,
	"pre":      WhiteSpacePre,
	"pre-wrap": WhiteSpacePreWrap,
	"pre-line": WhiteSpacePreLine,
}

// applyStyle understands the few declarations that change text layout.
func (n *Node) applyStyle(decls string) {
	for _, decl := range strings.Split(decls, ";") {
		prop, val, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		val = strings.ToLower(strings.TrimSpace(val))
		switch prop {
		case "display":
			if d, ok := displayValues[val]; ok {
				n.SetDisplay(d)
			}
		case "white-space":
			if w, ok := whiteSpaceValues[val]; ok {
				n.whiteSpace = w
			}
		case "visibility":
			n.hidden = val == "hidden"
		}
	}
}
