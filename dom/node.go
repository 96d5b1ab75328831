package dom

import (
	"fmt"
	"strings"
)

// Attr is an element attribute.
type Attr struct {
	Name, Value string
}

// Node is one node of a document tree. The zero Node is not usable; nodes
// are made by the Document.Create methods.
type Node struct {
	kind     Kind
	doc      *Document
	parent   *Node
	children []*Node

	// name is the lower-cased tag of an element, the target of a
	// processing instruction or the name of a doctype, entity or notation.
	name string
	data []rune

	attrs      []Attr
	display    Display
	displaySet bool
	whiteSpace WhiteSpace
	hidden     bool
	editable   Editability
}

func (n *Node) Kind() Kind { return n.kind }

// Document returns the document that owns n.
func (n *Node) Document() *Document { return n.doc }

// Name returns the tag name of an element or the name of other named kinds.
func (n *Node) Name() string { return n.name }

// IsElement reports whether n is an element with the given tag name.
func (n *Node) IsElement(tag string) bool {
	return n != nil && n.kind == ElementNode && n.name == tag
}

func (n *Node) Parent() *Node { return n.parent }

// Children returns the child list. The caller must not modify it.
func (n *Node) Children() []*Node { return n.children }

func (n *Node) ChildCount() int { return len(n.children) }

// ChildAt returns the i-th child or nil if i is out of range.
func (n *Node) ChildAt(i int) *Node {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

func (n *Node) FirstChild() *Node { return n.ChildAt(0) }

func (n *Node) LastChild() *Node { return n.ChildAt(len(n.children) - 1) }

// Index returns the position of n among its siblings or -1 if n has no
// parent.
func (n *Node) Index() int {
	if n.parent == nil {
		return -1
	}
	for i, c := range n.parent.children {
		if c == n {
			return i
		}
	}
	panic("dom: node missing from its parent")
}

func (n *Node) NextSibling() *Node {
	if n.parent == nil {
		return nil
	}
	return n.parent.ChildAt(n.Index() + 1)
}

func (n *Node) PreviousSibling() *Node {
	if n.parent == nil {
		return nil
	}
	return n.parent.ChildAt(n.Index() - 1)
}

// Root returns the topmost ancestor of n, or n itself.
func (n *Node) Root() *Node {
	for n.parent != nil {
		n = n.parent
	}
	return n
}

// IsConnected reports whether n is in its document's tree.
func (n *Node) IsConnected() bool {
	return n.Root() == n.doc.node
}

// IsDescendantOf reports whether n is a strict descendant of a.
func (n *Node) IsDescendantOf(a *Node) bool {
	if a == nil {
		return false
	}
	for p := n.parent; p != nil; p = p.parent {
		if p == a {
			return true
		}
	}
	return false
}

// Contains reports whether o is n or one of its descendants.
func (n *Node) Contains(o *Node) bool {
	return o != nil && (o == n || o.IsDescendantOf(n))
}

// Capacity returns the largest valid offset into n: its character count
// for character data and its child count otherwise.
func (n *Node) Capacity() int {
	if n.kind.IsCharacterData() {
		return len(n.data)
	}
	return len(n.children)
}

// TraverseNext returns the node after n in pre-order, not leaving the
// subtree rooted at stayWithin when it is non-nil.
func (n *Node) TraverseNext(stayWithin *Node) *Node {
	if c := n.FirstChild(); c != nil {
		return c
	}
	return n.TraverseNextSibling(stayWithin)
}

// TraverseNextSibling returns the node after n in pre-order, skipping the
// children of n.
func (n *Node) TraverseNextSibling(stayWithin *Node) *Node {
	for m := n; m != nil && m != stayWithin; m = m.parent {
		if s := m.NextSibling(); s != nil {
			return s
		}
	}
	return nil
}

// TraversePrevious returns the node before n in pre-order.
func (n *Node) TraversePrevious(stayWithin *Node) *Node {
	if n == stayWithin {
		return nil
	}
	p := n.PreviousSibling()
	if p == nil {
		return n.parent
	}
	for c := p.LastChild(); c != nil; c = p.LastChild() {
		p = c
	}
	return p
}

// LastDescendant returns the last node of the subtree rooted at n in
// pre-order.
func (n *Node) LastDescendant() *Node {
	for c := n.LastChild(); c != nil; c = n.LastChild() {
		n = c
	}
	return n
}

// AcceptsChild reports whether c may be inserted as a child of n. A
// fragment is acceptable when every one of its children is.
func (n *Node) AcceptsChild(c *Node) bool {
	if c.kind == DocumentFragmentNode {
		for _, fc := range c.children {
			if !n.AcceptsChild(fc) {
				return false
			}
		}
		return true
	}
	if !n.kind.Accepts(c.kind) {
		return false
	}
	if n.kind == DocumentNode && (c.kind == ElementNode || c.kind == DocumentTypeNode) {
		for _, e := range n.children {
			if e.kind == c.kind && e != c {
				return false
			}
		}
	}
	return true
}

func (n *Node) checkInsert(c *Node) error {
	if c == nil {
		return fmt.Errorf("%w: nil child", ErrNotFound)
	}
	if c.Contains(n) {
		return fmt.Errorf("%w: %v would contain itself", ErrHierarchy, c)
	}
	if !n.kind.canHaveChildren() || !n.AcceptsChild(c) {
		return fmt.Errorf("%w: %v cannot hold %v", ErrHierarchy, n, c)
	}
	return nil
}

// InsertBefore inserts c into n before ref, or at the end if ref is nil.
// The children of a fragment are moved rather than the fragment itself.
// A child that already has a parent is first removed from it.
func (n *Node) InsertBefore(c, ref *Node) error {
	if ref != nil && ref.parent != n {
		return fmt.Errorf("%w: reference child is not a child of %v", ErrNotFound, n)
	}
	if err := n.checkInsert(c); err != nil {
		return err
	}
	if ref == c {
		ref = c.NextSibling()
	}

	var nodes []*Node
	if c.kind == DocumentFragmentNode {
		nodes = append(nodes, c.children...)
		for _, fc := range nodes {
			c.removeChild(fc)
		}
	} else {
		if c.parent != nil {
			c.parent.removeChild(c)
		}
		nodes = []*Node{c}
	}
	if len(nodes) == 0 {
		return nil
	}

	at := len(n.children)
	if ref != nil {
		at = ref.Index()
	}
	tail := append([]*Node{}, n.children[at:]...)
	n.children = append(append(n.children[:at], nodes...), tail...)
	for _, m := range nodes {
		m.parent = n
		m.adopt(n.doc)
	}
	n.doc.notify(func(o MutationObserver) { o.ChildrenChanged(n) })
	return nil
}

// AppendChild inserts c as the last child of n.
func (n *Node) AppendChild(c *Node) error {
	return n.InsertBefore(c, nil)
}

// RemoveChild detaches c from n.
func (n *Node) RemoveChild(c *Node) error {
	if c == nil || c.parent != n {
		return fmt.Errorf("%w: %v is not a child of %v", ErrNotFound, c, n)
	}
	n.removeChild(c)
	return nil
}

// Remove detaches n from its parent, if any.
func (n *Node) Remove() {
	if n.parent != nil {
		n.parent.removeChild(n)
	}
}

func (n *Node) removeChild(c *Node) {
	n.doc.notify(func(o MutationObserver) { o.NodeWillBeRemoved(c) })
	i := c.Index()
	n.children = append(n.children[:i], n.children[i+1:]...)
	c.parent = nil
	n.doc.notify(func(o MutationObserver) { o.ChildrenChanged(n) })
}

// appendParsed links c under n without validation or notification. It is
// used while building trees that nothing can observe yet.
func (n *Node) appendParsed(c *Node) {
	c.parent = n
	n.children = append(n.children, c)
}

func (n *Node) adopt(d *Document) {
	if n.doc == d {
		return
	}
	n.doc = d
	for _, c := range n.children {
		c.adopt(d)
	}
}

// CloneNode returns a copy of n without a parent. A deep clone copies the
// whole subtree.
func (n *Node) CloneNode(deep bool) *Node {
	m := &Node{
		kind:       n.kind,
		doc:        n.doc,
		name:       n.name,
		data:       append([]rune(nil), n.data...),
		attrs:      append([]Attr(nil), n.attrs...),
		display:    n.display,
		displaySet: n.displaySet,
		whiteSpace: n.whiteSpace,
		hidden:     n.hidden,
		editable:   n.editable,
	}
	if deep {
		for _, c := range n.children {
			m.appendParsed(c.CloneNode(true))
		}
	}
	return m
}

// RemoveChildren detaches every child of n.
func (n *Node) RemoveChildren() {
	for len(n.children) > 0 {
		n.removeChild(n.children[len(n.children)-1])
	}
}

// TextContent returns the concatenated text of n's subtree.
func (n *Node) TextContent() string {
	if n.kind.IsCharacterData() {
		return string(n.data)
	}
	var sb strings.Builder
	for m := n.FirstChild(); m != nil; m = m.TraverseNext(n) {
		if m.kind.IsText() {
			sb.WriteString(string(m.data))
		}
	}
	return sb.String()
}

// FindElement returns the first element with the given tag in the subtree
// rooted at n, in document order.
func (n *Node) FindElement(tag string) *Node {
	for m := n; m != nil; m = m.TraverseNext(n) {
		if m.IsElement(tag) {
			return m
		}
	}
	return nil
}

// Elements returns every element with the given tag in the subtree rooted
// at n.
func (n *Node) Elements(tag string) []*Node {
	var found []*Node
	for m := n; m != nil; m = m.TraverseNext(n) {
		if m.IsElement(tag) {
			found = append(found, m)
		}
	}
	return found
}

// ElementByID returns the element in the subtree of n whose id attribute
// is id.
func (n *Node) ElementByID(id string) *Node {
	for m := n; m != nil; m = m.TraverseNext(n) {
		if v, ok := m.Attribute("id"); ok && v == id && m.kind == ElementNode {
			return m
		}
	}
	return nil
}

func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	switch n.kind {
	case ElementNode:
		return "<" + n.name + ">"
	case TextNode, CDATASectionNode, CommentNode:
		return fmt.Sprintf("%s %q", n.kind, string(n.data))
	}
	return "#" + n.kind.String()
}
