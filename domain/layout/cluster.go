package layout

// cluster assigns relative vertical coordinates to a tree bottom-up, in
// the manner of a dendrogram: leaves are laid out in traversal order,
// each separated from its predecessor by the pairwise separation
// function, and every internal node sits at the mean of its children.
// The predecessor of a leaf may be a cousin from an adjacent subtree;
// the separation function applies across that boundary too.
//
// Separation returns a relative multiplier. unitScale converts one
// multiplier unit into pixels; it is chosen by the engine so that a
// tree of uniform boxes spreads exactly its scaled height
// (totalHeight x spacing multiplier) across its nodes. With the
// height-ratio separation formula this makes the pixel gap between two
// adjacent units
//
//	(minSeparation x avgHeight + separationScale x maxPairHeight) x multiplier / (minSeparation + separationScale)
//
// which depends on the pair's own max height and the tree-wide average
// only; the node count and total height cancel, so identical sibling
// runs come out identically spaced no matter how large the rest of the
// tree is.
type cluster struct {
	separation func(a, b *TreeNode) float64
	unitScale  float64

	prevLeaf *TreeNode
	prevY    float64

	relative map[*TreeNode]float64
}

func newCluster(separation func(a, b *TreeNode) float64, unitScale float64) *cluster {
	return &cluster{
		separation: separation,
		unitScale:  unitScale,
		relative:   make(map[*TreeNode]float64),
	}
}

// assign computes relative coordinates for every unit in the tree and
// returns them keyed by tree node.
func (c *cluster) assign(root *TreeNode) map[*TreeNode]float64 {
	c.place(root)
	return c.relative
}

func (c *cluster) place(node *TreeNode) float64 {
	if len(node.Children) == 0 {
		y := 0.0
		if c.prevLeaf != nil {
			y = c.prevY + c.separation(c.prevLeaf, node)*c.unitScale
		}
		c.prevLeaf = node
		c.prevY = y
		c.relative[node] = y
		return y
	}

	sum := 0.0
	for _, child := range node.Children {
		sum += c.place(child)
	}
	y := sum / float64(len(node.Children))
	c.relative[node] = y
	return y
}
