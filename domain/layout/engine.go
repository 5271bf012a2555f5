package layout

import (
	"mindweave/domain/config"
	"mindweave/domain/core/entities"
	"mindweave/domain/core/valueobjects"
)

// Engine computes canvas positions for a forest of node instances.
// Layout is deterministic and anchored: each root keeps its current
// position and the rest of its tree is arranged around it, so
// recomputing without a structural change moves nothing.
type Engine struct {
	cfg *config.DomainConfig
	est *Estimator
}

// NewEngine creates a layout engine from domain configuration
func NewEngine(cfg *config.DomainConfig) *Engine {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &Engine{cfg: cfg, est: NewEstimator(cfg)}
}

// Estimator exposes the engine's dimension estimator
func (e *Engine) Estimator() *Estimator {
	return e.est
}

// Layout returns a new instance list with recomputed positions for
// every visible instance. Instances hidden under a collapsed ancestor
// keep their last position; they are not rendered, so staleness is
// harmless. The input list and its instances are not mutated.
func (e *Engine) Layout(
	instances []*entities.Instance,
	nodes map[valueobjects.NodeID]*entities.Node,
) []*entities.Instance {
	if len(instances) == 0 {
		return instances
	}

	result := make([]*entities.Instance, len(instances))
	byID := make(map[valueobjects.InstanceID]*entities.Instance, len(instances))
	for i, inst := range instances {
		clone := inst.Clone()
		result[i] = clone
		byID[clone.ID()] = clone
	}

	forest := BuildForest(result, nodes, e.est)
	for _, tree := range forest {
		e.layoutTree(tree, byID)
	}
	return result
}

// layoutTree positions one root tree: the dendrogram pass assigns
// relative vertical coordinates, which are then shifted so the root's
// coordinate matches its anchored position; horizontal coordinates
// follow parents-before-children, each child to the right of its
// parent's estimated right edge.
func (e *Engine) layoutTree(root *TreeNode, byID map[valueobjects.InstanceID]*entities.Instance) {
	totalHeight := 0.0
	nodeCount := 0
	root.Walk(func(n *TreeNode) {
		totalHeight += n.Height
		nodeCount++
	})

	rootPos := root.Instance.Position()

	// Single visible node: nothing to spread, keep the anchor.
	if nodeCount <= 1 || totalHeight <= 0 {
		e.placeHorizontal(root, rootPos.X(), byID)
		return
	}

	treeHeight := totalHeight * e.cfg.VerticalSpacingMultiplier
	avgHeight := totalHeight / float64(nodeCount)

	separation := func(a, b *TreeNode) float64 {
		maxHeight := a.Height
		if b.Height > maxHeight {
			maxHeight = b.Height
		}
		return e.cfg.MinSeparation + (maxHeight/avgHeight)*e.cfg.SeparationScale
	}

	sepBase := e.cfg.MinSeparation + e.cfg.SeparationScale
	if sepBase <= 0 {
		sepBase = 1
	}
	unitScale := treeHeight / (float64(nodeCount) * sepBase)

	relative := newCluster(separation, unitScale).assign(root)

	offset := rootPos.Y() - relative[root]
	root.Walk(func(n *TreeNode) {
		inst := byID[n.Instance.ID()]
		pos, err := valueobjects.NewPosition(inst.Position().X(), relative[n]+offset)
		if err != nil {
			return
		}
		inst.MoveTo(pos)
	})

	e.placeHorizontal(root, rootPos.X(), byID)
}

// placeHorizontal assigns x coordinates breadth-first so every parent's
// x is resolved before its children's.
func (e *Engine) placeHorizontal(root *TreeNode, rootX float64, byID map[valueobjects.InstanceID]*entities.Instance) {
	setX := func(n *TreeNode, x float64) {
		inst := byID[n.Instance.ID()]
		pos, err := valueobjects.NewPosition(x, inst.Position().Y())
		if err != nil {
			return
		}
		inst.MoveTo(pos)
	}

	setX(root, rootX)

	type queued struct {
		node *TreeNode
		x    float64
	}
	queue := []queued{{root, rootX}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		childX := cur.x + cur.node.Width + e.cfg.HorizontalSpacing
		for _, child := range cur.node.Children {
			setX(child, childX)
			queue = append(queue, queued{child, childX})
		}
	}
}
