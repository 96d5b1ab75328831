// Package dom is a small in-memory document tree. It provides the node
// kinds, tree navigation and mutation primitives that ranges, text
// iterators and editing commands are built on, and it notifies registered
// observers of every mutation so that they can repair themselves.
package dom

import "fmt"

// Kind identifies the variant of a Node. The set is closed.
type Kind uint8

const (
	DocumentNode Kind = iota + 1
	DocumentFragmentNode
	DocumentTypeNode
	ElementNode
	TextNode
	CDATASectionNode
	CommentNode
	ProcessingInstructionNode
	EntityNode
	NotationNode
)

func (k Kind) String() string {
	switch k {
	case DocumentNode:
		return "document"
	case DocumentFragmentNode:
		return "fragment"
	case DocumentTypeNode:
		return "doctype"
	case ElementNode:
		return "element"
	case TextNode:
		return "text"
	case CDATASectionNode:
		return "cdata"
	case CommentNode:
		return "comment"
	case ProcessingInstructionNode:
		return "pi"
	case EntityNode:
		return "entity"
	case NotationNode:
		return "notation"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// IsCharacterData reports whether offsets into a node of this kind count
// characters rather than children.
func (k Kind) IsCharacterData() bool {
	switch k {
	case TextNode, CDATASectionNode, CommentNode, ProcessingInstructionNode:
		return true
	}
	return false
}

// IsText reports whether the kind holds rendered text.
func (k Kind) IsText() bool {
	return k == TextNode || k == CDATASectionNode
}

// canHaveChildren reports whether nodes of this kind may hold children at all.
func (k Kind) canHaveChildren() bool {
	switch k {
	case DocumentNode, DocumentFragmentNode, ElementNode:
		return true
	}
	return false
}

// Accepts reports whether a parent of kind k may hold a child of kind c.
func (k Kind) Accepts(c Kind) bool {
	switch k {
	case DocumentNode:
		switch c {
		case ElementNode, DocumentTypeNode, CommentNode, ProcessingInstructionNode:
			return true
		}
	case DocumentFragmentNode, ElementNode:
		switch c {
		case ElementNode, TextNode, CDATASectionNode, CommentNode, ProcessingInstructionNode:
			return true
		}
	}
	return false
}
