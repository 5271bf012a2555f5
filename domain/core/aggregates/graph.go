package aggregates

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"mindweave/domain/config"
	"mindweave/domain/core/entities"
	"mindweave/domain/core/valueobjects"
	"mindweave/domain/events"
	"mindweave/domain/layout"
	pkgerrors "mindweave/pkg/errors"
)

// GraphID represents a unique graph identifier
type GraphID string

// NewGraphID creates a new random GraphID
func NewGraphID() GraphID {
	return GraphID(uuid.New().String())
}

// String returns the string representation
func (id GraphID) String() string {
	return string(id)
}

// Edge is the materialized parent->child relation between instances.
// It is derivable from Instance.ParentID and exists only so the
// rendering layer can draw connectors without re-deriving the relation.
type Edge struct {
	ID        string
	SourceID  valueobjects.InstanceID
	TargetID  valueobjects.InstanceID
	CreatedAt time.Time
}

// Graph is the aggregate root of one mindmap: the shared content nodes,
// their canvas placements (instances), and the materialized edges.
// Every structural edit validates its references first and mutates only
// after validation passes, so a failed operation leaves the graph
// exactly as it was. Each successful edit ends with a relayout.
type Graph struct {
	id        GraphID
	userID    string
	name      string
	nodes     map[valueobjects.NodeID]*entities.Node
	instances map[valueobjects.InstanceID]*entities.Instance
	edges     map[string]*Edge
	rootNode  valueobjects.NodeID
	focused   valueobjects.InstanceID
	createdAt time.Time
	updatedAt time.Time
	version   int

	cfg    *config.DomainConfig
	engine *layout.Engine

	events []events.DomainEvent
}

// NewGraph creates an empty graph aggregate
func NewGraph(userID, name string, cfg *config.DomainConfig) (*Graph, error) {
	if userID == "" {
		return nil, pkgerrors.NewValidationError("userID required")
	}
	if name == "" {
		return nil, pkgerrors.NewValidationError("graph name required")
	}
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	now := time.Now()
	g := &Graph{
		id:        NewGraphID(),
		userID:    userID,
		name:      name,
		nodes:     make(map[valueobjects.NodeID]*entities.Node),
		instances: make(map[valueobjects.InstanceID]*entities.Instance),
		edges:     make(map[string]*Edge),
		createdAt: now,
		updatedAt: now,
		version:   1,
		cfg:       cfg,
		engine:    layout.NewEngine(cfg),
	}

	g.addEvent(events.GraphCreated{
		BaseEvent: events.NewBaseEvent(g.id.String(), "graph.created"),
		UserID:    userID,
		Name:      name,
	})
	return g, nil
}

// NewDefaultGraph creates a graph seeded with a single root instance.
// Used when a caller has no stored graph yet.
func NewDefaultGraph(userID string, cfg *config.DomainConfig) (*Graph, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	g, err := NewGraph(userID, cfg.DefaultGraphName, cfg)
	if err != nil {
		return nil, err
	}
	title, err := valueobjects.NewTitleWithConfig(cfg.DefaultRootTitle, cfg)
	if err != nil {
		return nil, err
	}
	if _, err := g.CreateRoot(title); err != nil {
		return nil, err
	}
	return g, nil
}

// ReconstructGraph rebuilds a graph from stored data. Edges are derived
// from the instances' parent relation rather than trusted from storage.
func ReconstructGraph(
	id GraphID,
	userID, name string,
	nodes []*entities.Node,
	instances []*entities.Instance,
	rootNode valueobjects.NodeID,
	focused valueobjects.InstanceID,
	createdAt, updatedAt time.Time,
	version int,
	cfg *config.DomainConfig,
) (*Graph, error) {
	if id == "" || userID == "" {
		return nil, pkgerrors.NewValidationError("required fields missing for graph reconstruction")
	}
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	g := &Graph{
		id:        id,
		userID:    userID,
		name:      name,
		nodes:     make(map[valueobjects.NodeID]*entities.Node, len(nodes)),
		instances: make(map[valueobjects.InstanceID]*entities.Instance, len(instances)),
		edges:     make(map[string]*Edge),
		rootNode:  rootNode,
		focused:   focused,
		createdAt: createdAt,
		updatedAt: updatedAt,
		version:   version,
		cfg:       cfg,
		engine:    layout.NewEngine(cfg),
	}
	for _, n := range nodes {
		g.nodes[n.ID()] = n
	}
	for _, inst := range instances {
		g.instances[inst.ID()] = inst
	}
	g.rebuildEdges()

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// ID returns the graph's unique identifier
func (g *Graph) ID() GraphID { return g.id }

// UserID returns the owner's ID
func (g *Graph) UserID() string { return g.userID }

// Name returns the graph's name
func (g *Graph) Name() string { return g.name }

// Version returns the whole-graph version counter used for
// last-writer-wins persistence
func (g *Graph) Version() int { return g.version }

// CreatedAt returns when the graph was created
func (g *Graph) CreatedAt() time.Time { return g.createdAt }

// UpdatedAt returns when the graph was last updated
func (g *Graph) UpdatedAt() time.Time { return g.updatedAt }

// RootNodeID returns the designated root content node, zero when empty
func (g *Graph) RootNodeID() valueobjects.NodeID { return g.rootNode }

// FocusedInstanceID returns the keyboard-navigation focus, zero when unset
func (g *Graph) FocusedInstanceID() valueobjects.InstanceID { return g.focused }

// Nodes returns the content nodes keyed by id
func (g *Graph) Nodes() map[valueobjects.NodeID]*entities.Node {
	nodes := make(map[valueobjects.NodeID]*entities.Node, len(g.nodes))
	for k, v := range g.nodes {
		nodes[k] = v
	}
	return nodes
}

// Node returns a content node by id
func (g *Graph) Node(id valueobjects.NodeID) (*entities.Node, error) {
	node, ok := g.nodes[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("node")
	}
	return node, nil
}

// Instance returns an instance by id
func (g *Graph) Instance(id valueobjects.InstanceID) (*entities.Instance, error) {
	inst, ok := g.instances[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("instance")
	}
	return inst, nil
}

// Instances returns all instances in deterministic order
func (g *Graph) Instances() []*entities.Instance {
	instances := make([]*entities.Instance, 0, len(g.instances))
	for _, inst := range g.instances {
		instances = append(instances, inst)
	}
	sort.Slice(instances, func(i, j int) bool {
		return instances[i].ID().String() < instances[j].ID().String()
	})
	return instances
}

// Edges returns all edges in deterministic order
func (g *Graph) Edges() []*Edge {
	edges := make([]*Edge, 0, len(g.edges))
	for _, e := range g.edges {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		return edges[i].TargetID.String() < edges[j].TargetID.String()
	})
	return edges
}

// NodeCount returns the number of content nodes
func (g *Graph) NodeCount() int { return len(g.nodes) }

// InstanceCount returns the number of placements
func (g *Graph) InstanceCount() int { return len(g.instances) }

// SetFocus moves keyboard focus to an instance
func (g *Graph) SetFocus(id valueobjects.InstanceID) error {
	if _, ok := g.instances[id]; !ok {
		return pkgerrors.NewNotFoundError("instance")
	}
	g.focused = id
	return nil
}

// ClearFocus drops keyboard focus
func (g *Graph) ClearFocus() {
	g.focused = valueobjects.InstanceID{}
}

// CreateRoot adds a new content node with a root instance. Roots are
// stacked below the existing ones; layout anchors them there.
func (g *Graph) CreateRoot(title valueobjects.Title) (*entities.Instance, error) {
	if err := g.checkCapacity(1, 1); err != nil {
		return nil, err
	}

	rootCount := 0
	for _, inst := range g.instances {
		if inst.IsRoot() {
			rootCount++
		}
	}

	pos, err := valueobjects.NewPosition(60, 60+140*float64(rootCount))
	if err != nil {
		return nil, err
	}

	node := entities.NewNode(title)
	inst := entities.NewInstance(node.ID(), valueobjects.InstanceID{}, 0, rootCount, pos)

	g.nodes[node.ID()] = node
	g.instances[inst.ID()] = inst
	if g.rootNode.IsZero() {
		g.rootNode = node.ID()
	}

	g.relayout()
	g.touch()
	g.addEvent(events.InstanceCreated{
		BaseEvent:  events.NewBaseEvent(g.id.String(), "graph.instance_created"),
		InstanceID: inst.ID().String(),
		NodeID:     node.ID().String(),
		Depth:      0,
	})
	return inst, nil
}

// CreateChild adds a new node as the last child of the given instance
func (g *Graph) CreateChild(parentID valueobjects.InstanceID, title valueobjects.Title) (*entities.Instance, error) {
	parent, ok := g.instances[parentID]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("parent instance")
	}
	if err := g.checkCapacity(1, 1); err != nil {
		return nil, err
	}

	siblingCount := len(g.childrenOf(parentID))

	node := entities.NewNode(title)
	inst := entities.NewInstance(node.ID(), parentID, parent.Depth()+1, siblingCount, parent.Position())

	g.nodes[node.ID()] = node
	g.instances[inst.ID()] = inst
	g.addEdge(parentID, inst.ID())

	if parentNode, ok := g.nodes[parent.NodeID()]; ok {
		parentNode.AddChildID(node.ID())
	}

	g.relayout()
	g.touch()
	g.addEvent(events.InstanceCreated{
		BaseEvent:  events.NewBaseEvent(g.id.String(), "graph.instance_created"),
		InstanceID: inst.ID().String(),
		NodeID:     node.ID().String(),
		ParentID:   parentID.String(),
		Depth:      inst.Depth(),
	})
	return inst, nil
}

// CreateSibling adds a new node directly after the given instance among
// its siblings. Later siblings shift down one rank so the order stays
// contiguous. A sibling of a root is another root.
func (g *Graph) CreateSibling(currentID valueobjects.InstanceID, title valueobjects.Title) (*entities.Instance, error) {
	current, ok := g.instances[currentID]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("instance")
	}
	if err := g.checkCapacity(1, 1); err != nil {
		return nil, err
	}

	for _, sibling := range g.siblingsOf(current) {
		if sibling.SiblingOrder() > current.SiblingOrder() {
			sibling.SetSiblingOrder(sibling.SiblingOrder() + 1)
		}
	}

	node := entities.NewNode(title)
	inst := entities.NewInstance(node.ID(), current.ParentID(), current.Depth(), current.SiblingOrder()+1, current.Position())

	g.nodes[node.ID()] = node
	g.instances[inst.ID()] = inst

	if !current.IsRoot() {
		g.addEdge(current.ParentID(), inst.ID())
		if parent, ok := g.instances[current.ParentID()]; ok {
			if parentNode, ok := g.nodes[parent.NodeID()]; ok {
				parentNode.AddChildID(node.ID())
			}
		}
	}

	g.relayout()
	g.touch()
	g.addEvent(events.InstanceCreated{
		BaseEvent:  events.NewBaseEvent(g.id.String(), "graph.instance_created"),
		InstanceID: inst.ID().String(),
		NodeID:     node.ID().String(),
		ParentID:   current.ParentID().String(),
		Depth:      inst.Depth(),
	})
	return inst, nil
}

// DeleteInstance removes an instance and its whole subtree. Content
// nodes no longer referenced by any surviving instance are removed too,
// and every surviving node whose hyperlink pointed at a removed node
// has that link severed, leaving it an independent copy.
func (g *Graph) DeleteInstance(id valueobjects.InstanceID) error {
	target, ok := g.instances[id]
	if !ok {
		return pkgerrors.NewNotFoundError("instance")
	}

	doomed := g.descendantSet(id)
	doomed[id] = struct{}{}

	parentID := target.ParentID()

	for instID := range doomed {
		delete(g.instances, instID)
	}
	for key, edge := range g.edges {
		if _, gone := doomed[edge.SourceID]; gone {
			delete(g.edges, key)
			continue
		}
		if _, gone := doomed[edge.TargetID]; gone {
			delete(g.edges, key)
		}
	}

	// Content nodes survive only while some instance still references them.
	referenced := make(map[valueobjects.NodeID]struct{}, len(g.instances))
	for _, inst := range g.instances {
		referenced[inst.NodeID()] = struct{}{}
	}
	removedNodes := make(map[valueobjects.NodeID]struct{})
	for nodeID := range g.nodes {
		if _, ok := referenced[nodeID]; !ok {
			removedNodes[nodeID] = struct{}{}
			delete(g.nodes, nodeID)
		}
	}

	// Sever every hyperlink into the removed set, not just the deleted
	// node's own: several distinct nodes may link to the same target.
	severed := 0
	for _, node := range g.nodes {
		if node.HasHyperlink() {
			if _, gone := removedNodes[node.HyperlinkTarget()]; gone {
				node.ClearHyperlink()
				severed++
			}
		}
		for _, childID := range node.ChildIDs() {
			if _, gone := removedNodes[childID]; gone {
				node.RemoveChildID(childID)
			}
		}
	}

	if !parentID.IsZero() {
		g.normalizeSiblings(parentID)
	} else {
		g.normalizeRoots()
	}

	if _, gone := removedNodes[g.rootNode]; gone {
		g.rootNode = valueobjects.NodeID{}
		for _, inst := range g.Instances() {
			if inst.IsRoot() {
				g.rootNode = inst.NodeID()
				break
			}
		}
	}

	if _, gone := doomed[g.focused]; gone {
		g.ClearFocus()
	}

	g.relayout()
	g.touch()
	g.addEvent(events.SubtreeDeleted{
		BaseEvent:        events.NewBaseEvent(g.id.String(), "graph.subtree_deleted"),
		InstanceID:       id.String(),
		InstancesRemoved: len(doomed),
		NodesRemoved:     len(removedNodes),
		LinksSevered:     severed,
	})
	return nil
}

// ToggleCollapse hides or reveals an instance's subtree
func (g *Graph) ToggleCollapse(id valueobjects.InstanceID) error {
	inst, ok := g.instances[id]
	if !ok {
		return pkgerrors.NewNotFoundError("instance")
	}

	inst.ToggleCollapse()
	g.relayout()
	g.touch()
	g.addEvent(events.CollapseToggled{
		BaseEvent:  events.NewBaseEvent(g.id.String(), "graph.collapse_toggled"),
		InstanceID: id.String(),
		Collapsed:  inst.IsCollapsed(),
	})
	return nil
}

// ReorderSibling moves an instance to a new rank among its siblings,
// shifting the ranks in between by one.
func (g *Graph) ReorderSibling(id valueobjects.InstanceID, newOrder int) error {
	inst, ok := g.instances[id]
	if !ok {
		return pkgerrors.NewNotFoundError("instance")
	}

	siblings := g.siblingsOf(inst)
	maxOrder := len(siblings)
	if newOrder < 0 || newOrder > maxOrder {
		return pkgerrors.NewValidationError("sibling order out of range")
	}

	oldOrder := inst.SiblingOrder()
	if newOrder == oldOrder {
		return nil
	}

	for _, sibling := range siblings {
		order := sibling.SiblingOrder()
		if oldOrder < newOrder && order > oldOrder && order <= newOrder {
			sibling.SetSiblingOrder(order - 1)
		} else if oldOrder > newOrder && order >= newOrder && order < oldOrder {
			sibling.SetSiblingOrder(order + 1)
		}
	}
	inst.SetSiblingOrder(newOrder)

	g.relayout()
	g.touch()
	g.addEvent(events.InstanceReordered{
		BaseEvent:  events.NewBaseEvent(g.id.String(), "graph.instance_reordered"),
		InstanceID: id.String(),
		OldOrder:   oldOrder,
		NewOrder:   newOrder,
	})
	return nil
}

// Reparent moves an instance (with its subtree) under a new parent,
// appending it after the parent's existing children. The move is
// rejected before any mutation when it would create a cycle.
func (g *Graph) Reparent(draggedID, newParentID valueobjects.InstanceID) error {
	dragged, ok := g.instances[draggedID]
	if !ok {
		return pkgerrors.NewNotFoundError("instance")
	}
	newParent, ok := g.instances[newParentID]
	if !ok {
		return pkgerrors.NewNotFoundError("parent instance")
	}
	if g.WouldCreateCycle(draggedID, newParentID) {
		return pkgerrors.NewConflictError("reparent would create a cycle")
	}
	if !dragged.ParentID().IsZero() && dragged.ParentID().Equals(newParentID) {
		return nil
	}

	oldParentID := dragged.ParentID()
	if !oldParentID.IsZero() {
		g.removeEdge(oldParentID, draggedID)
		if oldParent, ok := g.instances[oldParentID]; ok {
			if oldParentNode, ok := g.nodes[oldParent.NodeID()]; ok {
				oldParentNode.RemoveChildID(dragged.NodeID())
			}
		}
	}

	depthDelta := newParent.Depth() + 1 - dragged.Depth()
	for instID := range g.descendantSet(draggedID) {
		g.instances[instID].ShiftDepth(depthDelta)
	}

	newOrder := len(g.childrenOf(newParentID))
	dragged.SetParent(newParentID, newParent.Depth()+1)
	dragged.SetSiblingOrder(newOrder)
	g.addEdge(newParentID, draggedID)

	if newParentNode, ok := g.nodes[newParent.NodeID()]; ok {
		newParentNode.AddChildID(dragged.NodeID())
	}

	if !oldParentID.IsZero() {
		g.normalizeSiblings(oldParentID)
	} else {
		g.normalizeRoots()
	}

	g.relayout()
	g.touch()
	g.addEvent(events.InstanceReparented{
		BaseEvent:   events.NewBaseEvent(g.id.String(), "graph.instance_reparented"),
		InstanceID:  draggedID.String(),
		OldParentID: oldParentID.String(),
		NewParentID: newParentID.String(),
	})
	return nil
}

// WouldCreateCycle reports whether attaching dragged under candidate
// would make an instance its own ancestor. Checked on every drag frame
// before a drop is accepted.
func (g *Graph) WouldCreateCycle(draggedID, candidateParentID valueobjects.InstanceID) bool {
	if draggedID.Equals(candidateParentID) {
		return true
	}
	_, below := g.descendantSet(draggedID)[candidateParentID]
	return below
}

// Descendants returns every instance id below the given instance
func (g *Graph) Descendants(id valueobjects.InstanceID) []valueobjects.InstanceID {
	set := g.descendantSet(id)
	out := make([]valueobjects.InstanceID, 0, len(set))
	for instID := range set {
		out = append(out, instID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// RenameNode replaces a node's title. Editing severs the node's
// hyperlink and changes its estimated dimensions, so layout reruns.
func (g *Graph) RenameNode(id valueobjects.NodeID, title valueobjects.Title) error {
	node, ok := g.nodes[id]
	if !ok {
		return pkgerrors.NewNotFoundError("node")
	}

	hadLink := node.HasHyperlink()
	node.Rename(title)

	g.relayout()
	g.touch()
	g.addEvent(events.NodeRenamed{
		BaseEvent:   events.NewBaseEvent(g.id.String(), "graph.node_renamed"),
		NodeID:      id.String(),
		LinkSevered: hadLink && !node.HasHyperlink(),
	})
	return nil
}

// LinkNodes sets a hyperlink from source to target
func (g *Graph) LinkNodes(sourceID, targetID valueobjects.NodeID) error {
	source, ok := g.nodes[sourceID]
	if !ok {
		return pkgerrors.NewNotFoundError("source node")
	}
	if _, ok := g.nodes[targetID]; !ok {
		return pkgerrors.NewNotFoundError("target node")
	}
	if sourceID.Equals(targetID) {
		return pkgerrors.NewValidationError("node cannot hyperlink to itself")
	}

	source.SetHyperlink(targetID)
	g.touch()
	g.addEvent(events.NodesLinked{
		BaseEvent:    events.NewBaseEvent(g.id.String(), "graph.nodes_linked"),
		SourceNodeID: sourceID.String(),
		TargetNodeID: targetID.String(),
	})
	return nil
}

// Merge imports another graph: every incoming node and instance gets a
// fresh id, parent and hyperlink references are remapped through the id
// translation, and incoming positions are shifted right of the existing
// content. Layout runs once over the merged result.
func (g *Graph) Merge(other *Graph) error {
	if other == nil {
		return pkgerrors.NewValidationError("nothing to merge")
	}
	if err := other.Validate(); err != nil {
		return pkgerrors.Wrap(err, "imported graph is malformed")
	}
	if err := g.checkCapacity(other.NodeCount(), other.InstanceCount()); err != nil {
		return err
	}

	dx, dy := g.mergeOffset(other)

	nodeIDMap := make(map[valueobjects.NodeID]valueobjects.NodeID, len(other.nodes))
	instIDMap := make(map[valueobjects.InstanceID]valueobjects.InstanceID, len(other.instances))
	for id := range other.nodes {
		nodeIDMap[id] = valueobjects.NewNodeID()
	}
	for id := range other.instances {
		instIDMap[id] = valueobjects.NewInstanceID()
	}

	for id, node := range other.nodes {
		childIDs := make([]valueobjects.NodeID, 0, len(node.ChildIDs()))
		for _, childID := range node.ChildIDs() {
			if mapped, ok := nodeIDMap[childID]; ok {
				childIDs = append(childIDs, mapped)
			}
		}
		hyperlink := valueobjects.NodeID{}
		if node.HasHyperlink() {
			// Links into the imported set follow it; links out of it dangle
			// and are severed.
			if mapped, ok := nodeIDMap[node.HyperlinkTarget()]; ok {
				hyperlink = mapped
			}
		}
		g.nodes[nodeIDMap[id]] = entities.ReconstructNode(
			nodeIDMap[id], node.Title(), childIDs, hyperlink, node.CreatedAt(), node.UpdatedAt(),
		)
	}

	rootOrder := 0
	for _, inst := range g.instances {
		if inst.IsRoot() {
			rootOrder++
		}
	}

	for _, inst := range other.Instances() {
		parentID := valueobjects.InstanceID{}
		order := inst.SiblingOrder()
		if !inst.IsRoot() {
			parentID = instIDMap[inst.ParentID()]
		} else {
			order = rootOrder
			rootOrder++
		}
		pos, err := inst.Position().Translate(dx, dy)
		if err != nil {
			pos = inst.Position()
		}
		g.instances[instIDMap[inst.ID()]] = entities.ReconstructInstance(
			instIDMap[inst.ID()], nodeIDMap[inst.NodeID()], parentID,
			inst.Depth(), order, inst.IsCollapsed(), pos,
		)
	}

	g.rebuildEdges()
	g.relayout()
	g.touch()
	g.addEvent(events.GraphMerged{
		BaseEvent:      events.NewBaseEvent(g.id.String(), "graph.merged"),
		NodesAdded:     len(nodeIDMap),
		InstancesAdded: len(instIDMap),
	})
	return nil
}

// Validate checks the aggregate invariants: instances resolve to nodes,
// parents exist, depths follow the parent chain, sibling orders are
// contiguous, and edges mirror the parent relation exactly.
func (g *Graph) Validate() error {
	for _, inst := range g.instances {
		if _, ok := g.nodes[inst.NodeID()]; !ok {
			return pkgerrors.NewValidationError("instance references missing node")
		}
		if inst.IsRoot() {
			if inst.Depth() != 0 {
				return pkgerrors.NewValidationError("root instance must have depth 0")
			}
			continue
		}
		parent, ok := g.instances[inst.ParentID()]
		if !ok {
			return pkgerrors.NewValidationError("instance references missing parent")
		}
		if inst.Depth() != parent.Depth()+1 {
			return pkgerrors.NewValidationError("instance depth must be parent depth + 1")
		}
		if _, ok := g.edges[edgeKey(inst.ParentID(), inst.ID())]; !ok {
			return pkgerrors.NewValidationError("parent relation missing its edge")
		}
	}

	for _, edge := range g.edges {
		target, ok := g.instances[edge.TargetID]
		if !ok || !target.ParentID().Equals(edge.SourceID) {
			return pkgerrors.NewValidationError("edge does not match any parent relation")
		}
	}

	groups := make(map[valueobjects.InstanceID][]int)
	var rootOrders []int
	for _, inst := range g.instances {
		if inst.IsRoot() {
			rootOrders = append(rootOrders, inst.SiblingOrder())
		} else {
			groups[inst.ParentID()] = append(groups[inst.ParentID()], inst.SiblingOrder())
		}
	}
	if !isContiguous(rootOrders) {
		return pkgerrors.NewValidationError("root sibling orders must be contiguous")
	}
	for _, orders := range groups {
		if !isContiguous(orders) {
			return pkgerrors.NewValidationError("sibling orders must be contiguous")
		}
	}

	for _, node := range g.nodes {
		if node.HasHyperlink() {
			if _, ok := g.nodes[node.HyperlinkTarget()]; !ok {
				return pkgerrors.NewValidationError("hyperlink references missing node")
			}
		}
	}

	if !g.focused.IsZero() {
		if _, ok := g.instances[g.focused]; !ok {
			return pkgerrors.NewValidationError("focused instance missing")
		}
	}
	return nil
}

// Clone returns a deep copy of the graph, used for history snapshots
// and for running an edit without touching the committed state.
func (g *Graph) Clone() *Graph {
	clone := &Graph{
		id:        g.id,
		userID:    g.userID,
		name:      g.name,
		nodes:     make(map[valueobjects.NodeID]*entities.Node, len(g.nodes)),
		instances: make(map[valueobjects.InstanceID]*entities.Instance, len(g.instances)),
		edges:     make(map[string]*Edge, len(g.edges)),
		rootNode:  g.rootNode,
		focused:   g.focused,
		createdAt: g.createdAt,
		updatedAt: g.updatedAt,
		version:   g.version,
		cfg:       g.cfg,
		engine:    g.engine,
	}
	for id, node := range g.nodes {
		clone.nodes[id] = node.Clone()
	}
	for id, inst := range g.instances {
		clone.instances[id] = inst.Clone()
	}
	for key, edge := range g.edges {
		e := *edge
		clone.edges[key] = &e
	}
	return clone
}

// GetUncommittedEvents returns all uncommitted domain events
func (g *Graph) GetUncommittedEvents() []events.DomainEvent {
	out := make([]events.DomainEvent, len(g.events))
	copy(out, g.events)
	return out
}

// MarkEventsAsCommitted clears the uncommitted events
func (g *Graph) MarkEventsAsCommitted() {
	g.events = nil
}

// Relayout recomputes positions for the whole forest
func (g *Graph) Relayout() {
	g.relayout()
}

func (g *Graph) relayout() {
	positioned := g.engine.Layout(g.Instances(), g.nodes)
	for _, inst := range positioned {
		g.instances[inst.ID()] = inst
	}
}

// childrenOf returns the direct children of an instance in sibling order
func (g *Graph) childrenOf(parentID valueobjects.InstanceID) []*entities.Instance {
	var children []*entities.Instance
	for _, inst := range g.instances {
		if !inst.IsRoot() && inst.ParentID().Equals(parentID) {
			children = append(children, inst)
		}
	}
	sort.Slice(children, func(i, j int) bool {
		return children[i].SiblingOrder() < children[j].SiblingOrder()
	})
	return children
}

// siblingsOf returns the other instances sharing a parent (or root set)
func (g *Graph) siblingsOf(inst *entities.Instance) []*entities.Instance {
	var siblings []*entities.Instance
	for _, other := range g.instances {
		if other.ID().Equals(inst.ID()) {
			continue
		}
		if inst.IsRoot() {
			if other.IsRoot() {
				siblings = append(siblings, other)
			}
		} else if !other.IsRoot() && other.ParentID().Equals(inst.ParentID()) {
			siblings = append(siblings, other)
		}
	}
	return siblings
}

// descendantSet walks the adjacency index built once per call; repeated
// scans over the flat instance list would make big edits quadratic.
func (g *Graph) descendantSet(id valueobjects.InstanceID) map[valueobjects.InstanceID]struct{} {
	children := make(map[valueobjects.InstanceID][]valueobjects.InstanceID, len(g.instances))
	for _, inst := range g.instances {
		if !inst.IsRoot() {
			children[inst.ParentID()] = append(children[inst.ParentID()], inst.ID())
		}
	}

	set := make(map[valueobjects.InstanceID]struct{})
	queue := append([]valueobjects.InstanceID(nil), children[id]...)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if _, seen := set[cur]; seen {
			continue
		}
		set[cur] = struct{}{}
		queue = append(queue, children[cur]...)
	}
	return set
}

func (g *Graph) normalizeSiblings(parentID valueobjects.InstanceID) {
	for order, child := range g.childrenOf(parentID) {
		child.SetSiblingOrder(order)
	}
}

func (g *Graph) normalizeRoots() {
	var roots []*entities.Instance
	for _, inst := range g.instances {
		if inst.IsRoot() {
			roots = append(roots, inst)
		}
	}
	sort.Slice(roots, func(i, j int) bool {
		return roots[i].SiblingOrder() < roots[j].SiblingOrder()
	})
	for order, root := range roots {
		root.SetSiblingOrder(order)
	}
}

func (g *Graph) addEdge(sourceID, targetID valueobjects.InstanceID) {
	g.edges[edgeKey(sourceID, targetID)] = &Edge{
		ID:        uuid.New().String(),
		SourceID:  sourceID,
		TargetID:  targetID,
		CreatedAt: time.Now(),
	}
}

func (g *Graph) removeEdge(sourceID, targetID valueobjects.InstanceID) {
	delete(g.edges, edgeKey(sourceID, targetID))
}

func (g *Graph) rebuildEdges() {
	g.edges = make(map[string]*Edge, len(g.instances))
	for _, inst := range g.instances {
		if !inst.IsRoot() {
			g.addEdge(inst.ParentID(), inst.ID())
		}
	}
}

func (g *Graph) mergeOffset(other *Graph) (float64, float64) {
	if len(g.instances) == 0 || len(other.instances) == 0 {
		return 0, 0
	}
	maxX := 0.0
	first := true
	for _, inst := range g.instances {
		if first || inst.Position().X() > maxX {
			maxX = inst.Position().X()
			first = false
		}
	}
	minX := 0.0
	first = true
	for _, inst := range other.instances {
		if first || inst.Position().X() < minX {
			minX = inst.Position().X()
			first = false
		}
	}
	return maxX - minX + g.cfg.MaxNodeWidth + g.cfg.MergeOffsetX, g.cfg.MergeOffsetY
}

func (g *Graph) checkCapacity(newNodes, newInstances int) error {
	if len(g.nodes)+newNodes > g.cfg.MaxNodesPerGraph {
		return pkgerrors.NewConflictError("maximum nodes reached")
	}
	if len(g.instances)+newInstances > g.cfg.MaxInstancesPerGraph {
		return pkgerrors.NewConflictError("maximum instances reached")
	}
	return nil
}

func (g *Graph) touch() {
	g.updatedAt = time.Now()
	g.version++
}

func (g *Graph) addEvent(event events.DomainEvent) {
	g.events = append(g.events, event)
}

func edgeKey(sourceID, targetID valueobjects.InstanceID) string {
	return sourceID.String() + "->" + targetID.String()
}

func isContiguous(orders []int) bool {
	sort.Ints(orders)
	for i, order := range orders {
		if order != i {
			return false
		}
	}
	return true
}
