package dom

import "weak"

// Handle names a registration in a Document's observer table. The zero
// Handle names nothing.
type Handle struct {
	index uint32
	gen   uint32
}

// IsZero reports whether h is the zero Handle.
func (h Handle) IsZero() bool { return h.gen == 0 }

type observerSlot struct {
	gen uint32
	// ref yields the observer or nil once a weakly held observer has
	// been collected. A free slot has a nil ref.
	ref func() MutationObserver
}

// Document owns a tree rooted at a node of kind DocumentNode and the table
// of observers that are repaired on every mutation of that tree.
type Document struct {
	node       *Node
	slots      []observerSlot
	free       []uint32
	live       int
	designMode bool
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	d := &Document{}
	d.node = &Node{kind: DocumentNode, doc: d}
	return d
}

// Node returns the document's root node.
func (d *Document) Node() *Node { return d.node }

// DocumentElement returns the single element child of the document node.
func (d *Document) DocumentElement() *Node {
	for _, c := range d.node.children {
		if c.kind == ElementNode {
			return c
		}
	}
	return nil
}

// Body returns the first body element or, failing that, the document
// element.
func (d *Document) Body() *Node {
	if b := d.node.FindElement("body"); b != nil {
		return b
	}
	return d.DocumentElement()
}

// SetDesignMode makes every node of the document editable.
func (d *Document) SetDesignMode(on bool) { d.designMode = on }

// DesignMode reports whether the whole document is editable.
func (d *Document) DesignMode() bool { return d.designMode }

func (d *Document) newNode(k Kind, name string, data string) *Node {
	n := &Node{kind: k, doc: d, name: name}
	if k.IsCharacterData() {
		n.data = []rune(data)
	}
	return n
}

func (d *Document) CreateElement(tag string) *Node       { return d.newNode(ElementNode, tag, "") }
func (d *Document) CreateTextNode(s string) *Node        { return d.newNode(TextNode, "", s) }
func (d *Document) CreateCDATASection(s string) *Node    { return d.newNode(CDATASectionNode, "", s) }
func (d *Document) CreateComment(s string) *Node         { return d.newNode(CommentNode, "", s) }
func (d *Document) CreateDocumentFragment() *Node        { return d.newNode(DocumentFragmentNode, "", "") }
func (d *Document) CreateDocumentType(name string) *Node { return d.newNode(DocumentTypeNode, name, "") }
func (d *Document) CreateEntity(name string) *Node       { return d.newNode(EntityNode, name, "") }
func (d *Document) CreateNotation(name string) *Node     { return d.newNode(NotationNode, name, "") }

func (d *Document) CreateProcessingInstruction(target, data string) *Node {
	return d.newNode(ProcessingInstructionNode, target, data)
}

// Register adds o to the observer table. The document keeps o alive until
// it is unregistered.
func (d *Document) Register(o MutationObserver) Handle {
	return d.register(func() MutationObserver { return o })
}

// RegisterWeak adds p to the observer table of d without keeping it alive.
// Once p is unreachable elsewhere its slot is reclaimed on the next
// notification.
func RegisterWeak[T any, P interface {
	*T
	MutationObserver
}](d *Document, p P) Handle {
	wp := weak.Make((*T)(p))
	return d.register(func() MutationObserver {
		if v := wp.Value(); v != nil {
			return P(v)
		}
		return nil
	})
}

func (d *Document) register(ref func() MutationObserver) Handle {
	var i uint32
	if n := len(d.free); n > 0 {
		i = d.free[n-1]
		d.free = d.free[:n-1]
	} else {
		i = uint32(len(d.slots))
		d.slots = append(d.slots, observerSlot{})
	}
	s := &d.slots[i]
	s.gen++
	s.ref = ref
	d.live++
	return Handle{index: i, gen: s.gen}
}

// Unregister removes the observer named by h. It returns false if h is
// stale or zero.
func (d *Document) Unregister(h Handle) bool {
	if h.IsZero() || int(h.index) >= len(d.slots) {
		return false
	}
	s := &d.slots[h.index]
	if s.gen != h.gen || s.ref == nil {
		return false
	}
	d.release(h.index)
	return true
}

func (d *Document) release(i uint32) {
	d.slots[i].ref = nil
	d.free = append(d.free, i)
	d.live--
}

// ObserverCount returns the number of registered observers, including
// weakly held ones that have not yet been reclaimed.
func (d *Document) ObserverCount() int { return d.live }

// notify calls f for every live observer in registration slot order.
func (d *Document) notify(f func(MutationObserver)) {
	for i := 0; i < len(d.slots); i++ {
		ref := d.slots[i].ref
		if ref == nil {
			continue
		}
		o := ref()
		if o == nil {
			d.release(uint32(i))
			continue
		}
		f(o)
	}
}
