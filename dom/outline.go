package dom

import (
	"strconv"
	"strings"

	"github.com/sanity-io/litter"
)

// Outline renders the subtree rooted at n compactly: elements as
// tag(children...), text as quoted strings and comments as <!--data-->.
func Outline(n *Node) string {
	var sb strings.Builder
	outline(&sb, n)
	return sb.String()
}

func outline(sb *strings.Builder, n *Node) {
	switch n.kind {
	case TextNode, CDATASectionNode:
		sb.WriteString(strconv.Quote(string(n.data)))
		return
	case CommentNode:
		sb.WriteString("<!--" + string(n.data) + "-->")
		return
	case ProcessingInstructionNode:
		sb.WriteString("<?" + n.name + " " + string(n.data) + "?>")
		return
	case ElementNode:
		sb.WriteString(n.name)
	default:
		sb.WriteString("#" + n.kind.String())
	}
	if len(n.children) == 0 {
		return
	}
	sb.WriteByte('(')
	for i, c := range n.children {
		if i > 0 {
			sb.WriteByte(',')
		}
		outline(sb, c)
	}
	sb.WriteByte(')')
}

// Snapshot is a cycle-free copy of a subtree for dumping.
type Snapshot struct {
	Kind     string
	Name     string
	Data     string
	Attrs    []Attr
	Children []Snapshot
}

// Snap copies the subtree rooted at n.
func Snap(n *Node) Snapshot {
	s := Snapshot{
		Kind:  n.kind.String(),
		Name:  n.name,
		Data:  string(n.data),
		Attrs: n.Attributes(),
	}
	for _, c := range n.children {
		s.Children = append(s.Children, Snap(c))
	}
	return s
}

// Dump returns a multi-line rendering of the subtree rooted at n.
func Dump(n *Node) string {
	return litter.Sdump(Snap(n))
}
