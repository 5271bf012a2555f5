package layout

import (
	"sort"

	"mindweave/domain/core/entities"
	"mindweave/domain/core/valueobjects"
)

// TreeNode is a layout unit: one visible instance with its estimated
// box size and its visible children in sibling order.
type TreeNode struct {
	Instance *entities.Instance
	Height   float64
	Width    float64
	Children []*TreeNode
}

// Walk visits the node and every descendant, parents before children
func (t *TreeNode) Walk(visit func(*TreeNode)) {
	visit(t)
	for _, child := range t.Children {
		child.Walk(visit)
	}
}

// BuildForest converts the flat instance list into the visible forest.
// Collapsed instances keep their own tree node but contribute no
// children, which removes the whole subtree from layout. Instances whose
// node record is missing are skipped; the aggregate removes such orphans
// before layout runs. The input is not mutated.
func BuildForest(
	instances []*entities.Instance,
	nodes map[valueobjects.NodeID]*entities.Node,
	est *Estimator,
) []*TreeNode {
	childrenByParent := make(map[valueobjects.InstanceID][]*entities.Instance)
	var roots []*entities.Instance

	for _, inst := range instances {
		if _, ok := nodes[inst.NodeID()]; !ok {
			continue
		}
		if inst.IsRoot() {
			roots = append(roots, inst)
			continue
		}
		parentID := inst.ParentID()
		childrenByParent[parentID] = append(childrenByParent[parentID], inst)
	}

	sortBySiblingOrder(roots)
	for _, siblings := range childrenByParent {
		sortBySiblingOrder(siblings)
	}

	forest := make([]*TreeNode, 0, len(roots))
	for _, root := range roots {
		forest = append(forest, buildTree(root, childrenByParent, nodes, est))
	}
	return forest
}

func buildTree(
	inst *entities.Instance,
	childrenByParent map[valueobjects.InstanceID][]*entities.Instance,
	nodes map[valueobjects.NodeID]*entities.Node,
	est *Estimator,
) *TreeNode {
	title := nodes[inst.NodeID()].Title().String()
	node := &TreeNode{
		Instance: inst,
		Height:   est.Height(title),
		Width:    est.Width(title),
	}

	if inst.IsCollapsed() {
		return node
	}

	for _, child := range childrenByParent[inst.ID()] {
		node.Children = append(node.Children, buildTree(child, childrenByParent, nodes, est))
	}
	return node
}

func sortBySiblingOrder(instances []*entities.Instance) {
	sort.SliceStable(instances, func(i, j int) bool {
		return instances[i].SiblingOrder() < instances[j].SiblingOrder()
	})
}
