package entities

import (
	"time"

	"mindweave/domain/core/valueobjects"
)

// Node is the shared content record. Multiple instances may reference
// one node; the node itself knows nothing about canvas placement.
type Node struct {
	id              valueobjects.NodeID
	title           valueobjects.Title
	childIDs        []valueobjects.NodeID
	hyperlinkTarget valueobjects.NodeID
	createdAt       time.Time
	updatedAt       time.Time
}

// NewNode creates a new node with the given title
func NewNode(title valueobjects.Title) *Node {
	now := time.Now()
	return &Node{
		id:        valueobjects.NewNodeID(),
		title:     title,
		childIDs:  []valueobjects.NodeID{},
		createdAt: now,
		updatedAt: now,
	}
}

// ReconstructNode rebuilds a node from stored data with preserved timestamps
func ReconstructNode(
	id valueobjects.NodeID,
	title valueobjects.Title,
	childIDs []valueobjects.NodeID,
	hyperlinkTarget valueobjects.NodeID,
	createdAt, updatedAt time.Time,
) *Node {
	children := make([]valueobjects.NodeID, len(childIDs))
	copy(children, childIDs)
	return &Node{
		id:              id,
		title:           title,
		childIDs:        children,
		hyperlinkTarget: hyperlinkTarget,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

// ID returns the node's unique identifier
func (n *Node) ID() valueobjects.NodeID {
	return n.id
}

// Title returns the node's title
func (n *Node) Title() valueobjects.Title {
	return n.title
}

// Rename replaces the title. Editing the text breaks any hyperlink the
// node carried: the copy is now independent of its former target.
func (n *Node) Rename(title valueobjects.Title) {
	if title.Equals(n.title) {
		return
	}
	n.title = title
	n.hyperlinkTarget = valueobjects.NodeID{}
	n.updatedAt = time.Now()
}

// HyperlinkTarget returns the linked node id, zero when unlinked
func (n *Node) HyperlinkTarget() valueobjects.NodeID {
	return n.hyperlinkTarget
}

// HasHyperlink checks whether the node references another node
func (n *Node) HasHyperlink() bool {
	return !n.hyperlinkTarget.IsZero()
}

// SetHyperlink points the node at a target node id
func (n *Node) SetHyperlink(target valueobjects.NodeID) {
	n.hyperlinkTarget = target
	n.updatedAt = time.Now()
}

// ClearHyperlink severs the hyperlink, leaving the node an independent copy
func (n *Node) ClearHyperlink() {
	if n.hyperlinkTarget.IsZero() {
		return
	}
	n.hyperlinkTarget = valueobjects.NodeID{}
	n.updatedAt = time.Now()
}

// ChildIDs returns the content-level child node ids
func (n *Node) ChildIDs() []valueobjects.NodeID {
	children := make([]valueobjects.NodeID, len(n.childIDs))
	copy(children, n.childIDs)
	return children
}

// AddChildID records a content-level child reference
func (n *Node) AddChildID(childID valueobjects.NodeID) {
	for _, id := range n.childIDs {
		if id.Equals(childID) {
			return
		}
	}
	n.childIDs = append(n.childIDs, childID)
	n.updatedAt = time.Now()
}

// RemoveChildID drops a content-level child reference
func (n *Node) RemoveChildID(childID valueobjects.NodeID) {
	kept := n.childIDs[:0]
	for _, id := range n.childIDs {
		if !id.Equals(childID) {
			kept = append(kept, id)
		}
	}
	n.childIDs = kept
	n.updatedAt = time.Now()
}

// CreatedAt returns when the node was created
func (n *Node) CreatedAt() time.Time {
	return n.createdAt
}

// UpdatedAt returns when the node was last updated
func (n *Node) UpdatedAt() time.Time {
	return n.updatedAt
}

// Clone returns a deep copy of the node
func (n *Node) Clone() *Node {
	children := make([]valueobjects.NodeID, len(n.childIDs))
	copy(children, n.childIDs)
	return &Node{
		id:              n.id,
		title:           n.title,
		childIDs:        children,
		hyperlinkTarget: n.hyperlinkTarget,
		createdAt:       n.createdAt,
		updatedAt:       n.updatedAt,
	}
}
