package dom

// MutationObserver implementations register themselves with a Document so
// that they are told about every mutation of its tree. All callbacks run
// synchronously inside the mutating call.
type MutationObserver interface {
	// NodeWillBeRemoved is called before n is detached from its parent.
	NodeWillBeRemoved(n *Node)

	// ChildrenChanged is called after children were added to or removed
	// from container.
	ChildrenChanged(container *Node)

	// TextInserted is called after length characters were inserted into n
	// at offset.
	TextInserted(n *Node, offset, length int)

	// TextRemoved is called after length characters at offset were removed
	// from n.
	TextRemoved(n *Node, offset, length int)

	// TextNodeSplit is called after old was truncated and its tail moved
	// into old.NextSibling().
	TextNodeSplit(old *Node)

	// TextNodesMerged is called before removed, which sat at index in its
	// parent, is dropped after its text was appended to its previous
	// sibling at offset.
	TextNodesMerged(removed *Node, index, offset int)
}

// NopObserver implements MutationObserver and ignores every notification.
// Embed it to implement only a subset of the callbacks.
type NopObserver struct{}

func (NopObserver) NodeWillBeRemoved(*Node)         {}
func (NopObserver) ChildrenChanged(*Node)           {}
func (NopObserver) TextInserted(*Node, int, int)    {}
func (NopObserver) TextRemoved(*Node, int, int)     {}
func (NopObserver) TextNodeSplit(*Node)             {}
func (NopObserver) TextNodesMerged(*Node, int, int) {}
