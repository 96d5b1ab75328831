package dom

import "fmt"

// Data returns the character data of n.
func (n *Node) Data() string { return string(n.data) }

// Length returns the number of characters in n.
func (n *Node) Length() int { return len(n.data) }

// Runes returns the character data of n. The caller must not modify it.
func (n *Node) Runes() []rune { return n.data }

func (n *Node) checkCharacterData() error {
	if !n.kind.IsCharacterData() {
		return fmt.Errorf("%w: %v holds no character data", ErrInvalidNodeType, n)
	}
	return nil
}

func (n *Node) checkOffset(offset int) error {
	if offset < 0 || offset > len(n.data) {
		return fmt.Errorf("%w: offset %d not in [0,%d]", ErrIndexOutOfRange, offset, len(n.data))
	}
	return nil
}

// SubstringData returns up to count characters starting at offset.
func (n *Node) SubstringData(offset, count int) (string, error) {
	if err := n.checkCharacterData(); err != nil {
		return "", err
	}
	if err := n.checkOffset(offset); err != nil {
		return "", err
	}
	end := min(offset+count, len(n.data))
	return string(n.data[offset:end]), nil
}

// SetData replaces all of the character data of n.
func (n *Node) SetData(s string) error {
	if err := n.checkCharacterData(); err != nil {
		return err
	}
	old := len(n.data)
	n.data = []rune(s)
	n.doc.notify(func(o MutationObserver) { o.TextRemoved(n, 0, old) })
	n.doc.notify(func(o MutationObserver) { o.TextInserted(n, 0, len(n.data)) })
	return nil
}

// InsertData inserts s at offset.
func (n *Node) InsertData(offset int, s string) error {
	if err := n.checkCharacterData(); err != nil {
		return err
	}
	if err := n.checkOffset(offset); err != nil {
		return err
	}
	r := []rune(s)
	if len(r) == 0 {
		return nil
	}
	n.data = append(n.data[:offset:offset], append(r, n.data[offset:]...)...)
	n.doc.notify(func(o MutationObserver) { o.TextInserted(n, offset, len(r)) })
	return nil
}

// AppendData appends s to the character data of n.
func (n *Node) AppendData(s string) error {
	return n.InsertData(len(n.data), s)
}

// DeleteData removes up to count characters starting at offset.
func (n *Node) DeleteData(offset, count int) error {
	if err := n.checkCharacterData(); err != nil {
		return err
	}
	if err := n.checkOffset(offset); err != nil {
		return err
	}
	count = min(count, len(n.data)-offset)
	if count <= 0 {
		return nil
	}
	n.data = append(n.data[:offset:offset], n.data[offset+count:]...)
	n.doc.notify(func(o MutationObserver) { o.TextRemoved(n, offset, count) })
	return nil
}

// ReplaceData replaces up to count characters at offset with s.
func (n *Node) ReplaceData(offset, count int, s string) error {
	if err := n.DeleteData(offset, count); err != nil {
		return err
	}
	return n.InsertData(offset, s)
}

// SplitText breaks a text node in two at offset. The tail becomes a new
// node inserted after n and is returned.
func (n *Node) SplitText(offset int) (*Node, error) {
	if !n.kind.IsText() {
		return nil, fmt.Errorf("%w: cannot split %v", ErrInvalidNodeType, n)
	}
	if err := n.checkOffset(offset); err != nil {
		return nil, err
	}
	tail := n.doc.newNode(n.kind, "", string(n.data[offset:]))
	n.data = n.data[:offset:offset]
	if n.parent != nil {
		if err := n.parent.InsertBefore(tail, n.NextSibling()); err != nil {
			return nil, err
		}
	}
	n.doc.notify(func(o MutationObserver) { o.TextNodeSplit(n) })
	return tail, nil
}

// MergeIntoPrevious appends the text of n to its previous sibling, which
// must also be a text node, and removes n. It returns the surviving node
// and the offset in it where the text of n begins.
func (n *Node) MergeIntoPrevious() (*Node, int, error) {
	prev := n.PreviousSibling()
	if !n.kind.IsText() || prev == nil || prev.kind != n.kind {
		return nil, 0, fmt.Errorf("%w: %v has no text node before it", ErrHierarchy, n)
	}
	offset := len(prev.data)
	index := n.Index()
	if err := prev.AppendData(string(n.data)); err != nil {
		return nil, 0, err
	}
	n.doc.notify(func(o MutationObserver) { o.TextNodesMerged(n, index, offset) })
	n.parent.removeChild(n)
	return prev, offset, nil
}

// Normalize merges adjacent text nodes and drops empty ones throughout the
// subtree rooted at n.
func (n *Node) Normalize() {
	for i := 0; i < len(n.children); {
		c := n.children[i]
		if c.kind == TextNode {
			if len(c.data) == 0 {
				n.removeChild(c)
				continue
			}
			if p := n.ChildAt(i - 1); p != nil && p.kind == TextNode {
				c.MergeIntoPrevious()
				continue
			}
		}
		c.Normalize()
		i++
	}
}
