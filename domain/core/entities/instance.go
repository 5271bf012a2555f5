package entities

import (
	"mindweave/domain/core/valueobjects"
)

// Instance is one visual placement of a node. The parent/child relation
// between instances forms the layout forest; a zero parent id marks a root.
// Acyclicity of that relation is enforced by the graph aggregate at
// reparent time, not by this type.
type Instance struct {
	id           valueobjects.InstanceID
	nodeID       valueobjects.NodeID
	parentID     valueobjects.InstanceID
	position     valueobjects.Position
	depth        int
	siblingOrder int
	collapsed    bool
}

// NewInstance creates a new instance placement
func NewInstance(
	nodeID valueobjects.NodeID,
	parentID valueobjects.InstanceID,
	depth, siblingOrder int,
	position valueobjects.Position,
) *Instance {
	return &Instance{
		id:           valueobjects.NewInstanceID(),
		nodeID:       nodeID,
		parentID:     parentID,
		position:     position,
		depth:        depth,
		siblingOrder: siblingOrder,
	}
}

// ReconstructInstance rebuilds an instance from stored data
func ReconstructInstance(
	id valueobjects.InstanceID,
	nodeID valueobjects.NodeID,
	parentID valueobjects.InstanceID,
	depth, siblingOrder int,
	collapsed bool,
	position valueobjects.Position,
) *Instance {
	return &Instance{
		id:           id,
		nodeID:       nodeID,
		parentID:     parentID,
		position:     position,
		depth:        depth,
		siblingOrder: siblingOrder,
		collapsed:    collapsed,
	}
}

// ID returns the instance's unique identifier
func (i *Instance) ID() valueobjects.InstanceID {
	return i.id
}

// NodeID returns the referenced content node id
func (i *Instance) NodeID() valueobjects.NodeID {
	return i.nodeID
}

// ParentID returns the parent instance id, zero for roots
func (i *Instance) ParentID() valueobjects.InstanceID {
	return i.parentID
}

// IsRoot checks whether the instance has no parent
func (i *Instance) IsRoot() bool {
	return i.parentID.IsZero()
}

// Position returns the instance's canvas position
func (i *Instance) Position() valueobjects.Position {
	return i.position
}

// MoveTo places the instance at a new position
func (i *Instance) MoveTo(position valueobjects.Position) {
	i.position = position
}

// Depth returns the tree depth, 0 for roots
func (i *Instance) Depth() int {
	return i.depth
}

// ShiftDepth adjusts the depth by delta, used when a subtree is reparented
func (i *Instance) ShiftDepth(delta int) {
	i.depth += delta
}

// SiblingOrder returns the contiguous rank among siblings
func (i *Instance) SiblingOrder() int {
	return i.siblingOrder
}

// SetSiblingOrder assigns a new sibling rank
func (i *Instance) SetSiblingOrder(order int) {
	i.siblingOrder = order
}

// IsCollapsed reports whether descendants are hidden
func (i *Instance) IsCollapsed() bool {
	return i.collapsed
}

// ToggleCollapse flips the collapsed flag
func (i *Instance) ToggleCollapse() {
	i.collapsed = !i.collapsed
}

// SetParent rebinds the instance under a new parent at the given depth
func (i *Instance) SetParent(parentID valueobjects.InstanceID, depth int) {
	i.parentID = parentID
	i.depth = depth
}

// Clone returns a copy of the instance
func (i *Instance) Clone() *Instance {
	clone := *i
	return &clone
}
