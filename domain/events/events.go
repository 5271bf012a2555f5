package events

import "time"

// SourceMindweave is the event source tag used by publishers
const SourceMindweave = "mindweave.api"

// DomainEvent is raised by graph mutations and published after commit
type DomainEvent interface {
	GetEventType() string
	GetAggregateID() string
	GetTimestamp() time.Time
}

// BaseEvent carries the fields shared by every domain event
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
}

// GetEventType returns the event type
func (e BaseEvent) GetEventType() string { return e.EventType }

// GetAggregateID returns the aggregate id
func (e BaseEvent) GetAggregateID() string { return e.AggregateID }

// GetTimestamp returns when the event occurred
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }

// NewBaseEvent creates the shared event envelope
func NewBaseEvent(aggregateID, eventType string) BaseEvent {
	return BaseEvent{
		AggregateID: aggregateID,
		EventType:   eventType,
		Timestamp:   time.Now(),
	}
}

// GraphCreated is raised when a new graph aggregate is created
type GraphCreated struct {
	BaseEvent
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

// InstanceCreated is raised for every new placement (root, child or sibling)
type InstanceCreated struct {
	BaseEvent
	InstanceID string `json:"instance_id"`
	NodeID     string `json:"node_id"`
	ParentID   string `json:"parent_id,omitempty"`
	Depth      int    `json:"depth"`
}

// SubtreeDeleted is raised when an instance and its descendants are removed
type SubtreeDeleted struct {
	BaseEvent
	InstanceID       string `json:"instance_id"`
	InstancesRemoved int    `json:"instances_removed"`
	NodesRemoved     int    `json:"nodes_removed"`
	LinksSevered     int    `json:"links_severed"`
}

// InstanceReparented is raised when a drag moves a subtree under a new parent
type InstanceReparented struct {
	BaseEvent
	InstanceID  string `json:"instance_id"`
	OldParentID string `json:"old_parent_id,omitempty"`
	NewParentID string `json:"new_parent_id"`
}

// InstanceReordered is raised when siblings are rearranged
type InstanceReordered struct {
	BaseEvent
	InstanceID string `json:"instance_id"`
	OldOrder   int    `json:"old_order"`
	NewOrder   int    `json:"new_order"`
}

// CollapseToggled is raised when a subtree is hidden or revealed
type CollapseToggled struct {
	BaseEvent
	InstanceID string `json:"instance_id"`
	Collapsed  bool   `json:"collapsed"`
}

// NodeRenamed is raised when a node title changes
type NodeRenamed struct {
	BaseEvent
	NodeID      string `json:"node_id"`
	LinkSevered bool   `json:"link_severed"`
}

// NodesLinked is raised when a hyperlink is established between nodes
type NodesLinked struct {
	BaseEvent
	SourceNodeID string `json:"source_node_id"`
	TargetNodeID string `json:"target_node_id"`
}

// GraphMerged is raised when an imported graph is merged in
type GraphMerged struct {
	BaseEvent
	NodesAdded     int `json:"nodes_added"`
	InstancesAdded int `json:"instances_added"`
}
