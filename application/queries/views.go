package queries

import (
	"sort"
	"time"

	"mindweave/domain/core/aggregates"
	"mindweave/domain/layout"
)

// NodeView is the read model of one content record
type NodeView struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	ChildIDs        []string  `json:"child_ids,omitempty"`
	HyperlinkTarget string    `json:"hyperlink_target,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// InstanceView is the read model of one canvas placement. Width and
// height are the layout engine's estimates, so the frontend draws
// boxes exactly where the engine spaced them.
type InstanceView struct {
	ID           string  `json:"id"`
	NodeID       string  `json:"node_id"`
	ParentID     string  `json:"parent_id,omitempty"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	Depth        int     `json:"depth"`
	SiblingOrder int     `json:"sibling_order"`
	Collapsed    bool    `json:"collapsed"`
}

// EdgeView is the read model of one parent->child connector
type EdgeView struct {
	ID       string `json:"id"`
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
}

// GraphView is the full read model of a graph, returned after every
// query and mutation so the canvas can redraw. It doubles as the
// export document: an import accepts the same shape back.
type GraphView struct {
	ID                string         `json:"id"`
	UserID            string         `json:"user_id"`
	Name              string         `json:"name"`
	RootNodeID        string         `json:"root_node_id,omitempty"`
	FocusedInstanceID string         `json:"focused_instance_id,omitempty"`
	Version           int            `json:"version"`
	Nodes             []NodeView     `json:"nodes"`
	Instances         []InstanceView `json:"instances"`
	Edges             []EdgeView     `json:"edges"`
	CanUndo           bool           `json:"can_undo"`
	CanRedo           bool           `json:"can_redo"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// GraphSummary is the lightweight listing model
type GraphSummary struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	NodeCount     int       `json:"node_count"`
	InstanceCount int       `json:"instance_count"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewGraphView projects a graph aggregate into its read model
func NewGraphView(graph *aggregates.Graph, est *layout.Estimator, canUndo, canRedo bool) *GraphView {
	nodes := graph.Nodes()

	view := &GraphView{
		ID:        graph.ID().String(),
		UserID:    graph.UserID(),
		Name:      graph.Name(),
		Version:   graph.Version(),
		Nodes:     make([]NodeView, 0, len(nodes)),
		Instances: make([]InstanceView, 0, graph.InstanceCount()),
		Edges:     make([]EdgeView, 0),
		CanUndo:   canUndo,
		CanRedo:   canRedo,
		CreatedAt: graph.CreatedAt(),
		UpdatedAt: graph.UpdatedAt(),
	}
	if !graph.RootNodeID().IsZero() {
		view.RootNodeID = graph.RootNodeID().String()
	}
	if !graph.FocusedInstanceID().IsZero() {
		view.FocusedInstanceID = graph.FocusedInstanceID().String()
	}

	for _, node := range nodes {
		nv := NodeView{
			ID:        node.ID().String(),
			Title:     node.Title().String(),
			CreatedAt: node.CreatedAt(),
			UpdatedAt: node.UpdatedAt(),
		}
		for _, childID := range node.ChildIDs() {
			nv.ChildIDs = append(nv.ChildIDs, childID.String())
		}
		if node.HasHyperlink() {
			nv.HyperlinkTarget = node.HyperlinkTarget().String()
		}
		view.Nodes = append(view.Nodes, nv)
	}
	sortNodeViews(view.Nodes)

	for _, inst := range graph.Instances() {
		iv := InstanceView{
			ID:           inst.ID().String(),
			NodeID:       inst.NodeID().String(),
			X:            inst.Position().X(),
			Y:            inst.Position().Y(),
			Depth:        inst.Depth(),
			SiblingOrder: inst.SiblingOrder(),
			Collapsed:    inst.IsCollapsed(),
		}
		if !inst.IsRoot() {
			iv.ParentID = inst.ParentID().String()
		}
		if node, ok := nodes[inst.NodeID()]; ok && est != nil {
			title := node.Title().String()
			iv.Width = est.Width(title)
			iv.Height = est.Height(title)
		}
		view.Instances = append(view.Instances, iv)
	}

	for _, edge := range graph.Edges() {
		view.Edges = append(view.Edges, EdgeView{
			ID:       edge.ID,
			SourceID: edge.SourceID.String(),
			TargetID: edge.TargetID.String(),
		})
	}

	return view
}

// NewGraphSummary projects a graph into its listing model
func NewGraphSummary(graph *aggregates.Graph) GraphSummary {
	return GraphSummary{
		ID:            graph.ID().String(),
		Name:          graph.Name(),
		NodeCount:     graph.NodeCount(),
		InstanceCount: graph.InstanceCount(),
		UpdatedAt:     graph.UpdatedAt(),
	}
}

func sortNodeViews(views []NodeView) {
	sort.Slice(views, func(i, j int) bool { return views[i].ID < views[j].ID })
}
