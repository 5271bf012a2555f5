package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindweave/domain/config"
	"mindweave/domain/core/entities"
	"mindweave/domain/core/valueobjects"
)

type testTree struct {
	instances []*entities.Instance
	nodes     map[valueobjects.NodeID]*entities.Node
}

func newTestTree() *testTree {
	return &testTree{nodes: make(map[valueobjects.NodeID]*entities.Node)}
}

func (tt *testTree) addRoot(t *testing.T, title string, x, y float64) *entities.Instance {
	t.Helper()
	return tt.add(t, title, valueobjects.InstanceID{}, 0, x, y)
}

func (tt *testTree) addChild(t *testing.T, title string, parent *entities.Instance) *entities.Instance {
	t.Helper()
	return tt.add(t, title, parent.ID(), parent.Depth()+1, 0, 0)
}

func (tt *testTree) add(t *testing.T, title string, parentID valueobjects.InstanceID, depth int, x, y float64) *entities.Instance {
	t.Helper()
	titleVO, err := valueobjects.NewTitle(title)
	require.NoError(t, err)
	node := entities.NewNode(titleVO)
	tt.nodes[node.ID()] = node

	order := 0
	for _, inst := range tt.instances {
		if inst.ParentID().Equals(parentID) && inst.IsRoot() == parentID.IsZero() {
			order++
		}
	}
	pos, err := valueobjects.NewPosition(x, y)
	require.NoError(t, err)
	inst := entities.NewInstance(node.ID(), parentID, depth, order, pos)
	tt.instances = append(tt.instances, inst)
	return inst
}

func positionsByID(result []*entities.Instance) map[valueobjects.InstanceID]valueobjects.Position {
	out := make(map[valueobjects.InstanceID]valueobjects.Position, len(result))
	for _, inst := range result {
		out[inst.ID()] = inst.Position()
	}
	return out
}

func TestEngine_RootKeepsItsPosition(t *testing.T) {
	engine := NewEngine(config.DefaultDomainConfig())
	tree := newTestTree()
	root := tree.addRoot(t, "root", 150, 300)
	tree.addChild(t, "first", root)
	tree.addChild(t, "second", root)

	result := engine.Layout(tree.instances, tree.nodes)
	pos := positionsByID(result)

	assert.InDelta(t, 150, pos[root.ID()].X(), 1e-9)
	assert.InDelta(t, 300, pos[root.ID()].Y(), 1e-9)
}

func TestEngine_LayoutIsIdempotent(t *testing.T) {
	engine := NewEngine(config.DefaultDomainConfig())
	tree := newTestTree()
	root := tree.addRoot(t, "root", 100, 100)
	a := tree.addChild(t, "alpha", root)
	tree.addChild(t, "beta", root)
	tree.addChild(t, "deep child", a)

	first := engine.Layout(tree.instances, tree.nodes)
	second := engine.Layout(first, tree.nodes)

	firstPos := positionsByID(first)
	for _, inst := range second {
		want := firstPos[inst.ID()]
		assert.InDelta(t, want.X(), inst.Position().X(), 1e-9)
		assert.InDelta(t, want.Y(), inst.Position().Y(), 1e-9)
	}
}

// Cousins with identical text must come out evenly spaced: the gap
// between adjacent leaves does not depend on which subtree they
// belong to.
func TestEngine_IdenticalCousinsSpacedEvenly(t *testing.T) {
	engine := NewEngine(config.DefaultDomainConfig())
	tree := newTestTree()
	root := tree.addRoot(t, "same text", 0, 0)
	left := tree.addChild(t, "same text", root)
	right := tree.addChild(t, "same text", root)
	l1 := tree.addChild(t, "same text", left)
	l2 := tree.addChild(t, "same text", left)
	r1 := tree.addChild(t, "same text", right)
	r2 := tree.addChild(t, "same text", right)

	result := engine.Layout(tree.instances, tree.nodes)
	pos := positionsByID(result)

	gapWithin := pos[l2.ID()].Y() - pos[l1.ID()].Y()
	gapAcross := pos[r1.ID()].Y() - pos[l2.ID()].Y()
	gapWithinRight := pos[r2.ID()].Y() - pos[r1.ID()].Y()

	require.Greater(t, gapWithin, 0.0)
	assert.InDelta(t, gapWithin, gapAcross, 1e-6)
	assert.InDelta(t, gapWithin, gapWithinRight, 1e-6)
}

// The pixel gap between two uniform boxes is height x multiplier no
// matter how large the rest of the tree is: a sibling trio must come
// out spaced the same in a four node tree and buried in a large one.
func TestEngine_GapIndependentOfTreeSize(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	engine := NewEngine(cfg)
	est := engine.Estimator()
	require.InDelta(t, 44, est.Height("box"), 1e-9)

	trioGaps := func(tree *testTree, trio [3]*entities.Instance) [2]float64 {
		pos := positionsByID(engine.Layout(tree.instances, tree.nodes))
		return [2]float64{
			pos[trio[1].ID()].Y() - pos[trio[0].ID()].Y(),
			pos[trio[2].ID()].Y() - pos[trio[1].ID()].Y(),
		}
	}

	small := newTestTree()
	smallRoot := small.addRoot(t, "box", 0, 0)
	smallTrio := [3]*entities.Instance{
		small.addChild(t, "box", smallRoot),
		small.addChild(t, "box", smallRoot),
		small.addChild(t, "box", smallRoot),
	}

	big := newTestTree()
	bigRoot := big.addRoot(t, "box", 0, 0)
	mid := big.addChild(t, "box", bigRoot)
	deep := big.addChild(t, "box", mid)
	bigTrio := [3]*entities.Instance{
		big.addChild(t, "box", deep),
		big.addChild(t, "box", deep),
		big.addChild(t, "box", deep),
	}
	crowd := big.addChild(t, "box", bigRoot)
	for i := 0; i < 50; i++ {
		big.addChild(t, "box", crowd)
	}

	smallGaps := trioGaps(small, smallTrio)
	bigGaps := trioGaps(big, bigTrio)

	want := 44 * cfg.VerticalSpacingMultiplier
	for i := 0; i < 2; i++ {
		assert.InDelta(t, want, smallGaps[i], 1e-6)
		assert.InDelta(t, want, bigGaps[i], 1e-6)
	}
}

func TestEngine_TallerNodesGetMoreRoom(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	engine := NewEngine(cfg)
	est := engine.Estimator()

	tall := "this is a much longer node title that will certainly wrap onto several lines of text in the box"
	require.Greater(t, est.Height(tall), est.Height("short"))

	tree := newTestTree()
	root := tree.addRoot(t, "root", 0, 0)
	a := tree.addChild(t, "short", root)
	b := tree.addChild(t, tall, root)
	c := tree.addChild(t, "short", root)

	result := engine.Layout(tree.instances, tree.nodes)
	pos := positionsByID(result)

	gapShortTall := pos[b.ID()].Y() - pos[a.ID()].Y()
	gapTallShort := pos[c.ID()].Y() - pos[b.ID()].Y()

	// Both gaps border the tall node, so they are equal to each other
	// and larger than a gap between two short nodes would be.
	assert.InDelta(t, gapShortTall, gapTallShort, 1e-6)

	uniform := newTestTree()
	uroot := uniform.addRoot(t, "root", 0, 0)
	u1 := uniform.addChild(t, "short", uroot)
	u2 := uniform.addChild(t, "short", uroot)
	uniform.addChild(t, "short", uroot)

	uresult := engine.Layout(uniform.instances, uniform.nodes)
	upos := positionsByID(uresult)
	uniformGap := upos[u2.ID()].Y() - upos[u1.ID()].Y()

	assert.Greater(t, gapShortTall, uniformGap)
}

func TestEngine_ChildrenPlacedRightOfParent(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	engine := NewEngine(cfg)
	est := engine.Estimator()

	tree := newTestTree()
	root := tree.addRoot(t, "root title", 40, 0)
	child := tree.addChild(t, "child", root)
	grandchild := tree.addChild(t, "grandchild", child)

	result := engine.Layout(tree.instances, tree.nodes)
	pos := positionsByID(result)

	rootWidth := est.Width("root title")
	childWidth := est.Width("child")

	assert.InDelta(t, 40+rootWidth+cfg.HorizontalSpacing, pos[child.ID()].X(), 1e-9)
	assert.InDelta(t, pos[child.ID()].X()+childWidth+cfg.HorizontalSpacing, pos[grandchild.ID()].X(), 1e-9)
}

func TestEngine_CollapsedSubtreeLeavesLayout(t *testing.T) {
	engine := NewEngine(config.DefaultDomainConfig())
	tree := newTestTree()
	root := tree.addRoot(t, "root", 0, 0)
	branch := tree.addChild(t, "branch", root)
	hidden := tree.addChild(t, "hidden", branch)
	tree.addChild(t, "sibling", root)

	expanded := engine.Layout(tree.instances, tree.nodes)
	expandedPos := positionsByID(expanded)

	// Collapse the branch: its child keeps its last position while the
	// visible nodes are spaced as a three node tree.
	toggleByID(expanded, branch.ID())
	collapsed := engine.Layout(expanded, tree.nodes)
	collapsedPos := positionsByID(collapsed)

	assert.InDelta(t, expandedPos[hidden.ID()].X(), collapsedPos[hidden.ID()].X(), 1e-9)
	assert.InDelta(t, expandedPos[hidden.ID()].Y(), collapsedPos[hidden.ID()].Y(), 1e-9)

	// Expanding again restores the original layout deterministically.
	toggleByID(collapsed, branch.ID())
	restored := engine.Layout(collapsed, tree.nodes)
	for _, inst := range restored {
		want := expandedPos[inst.ID()]
		assert.InDelta(t, want.X(), inst.Position().X(), 1e-9)
		assert.InDelta(t, want.Y(), inst.Position().Y(), 1e-9)
	}
}

func toggleByID(instances []*entities.Instance, id valueobjects.InstanceID) {
	for _, inst := range instances {
		if inst.ID().Equals(id) {
			inst.ToggleCollapse()
		}
	}
}

func TestEngine_SingleNodeKeepsAnchor(t *testing.T) {
	engine := NewEngine(config.DefaultDomainConfig())
	tree := newTestTree()
	root := tree.addRoot(t, "alone", 75, 125)

	result := engine.Layout(tree.instances, tree.nodes)
	pos := positionsByID(result)

	assert.InDelta(t, 75, pos[root.ID()].X(), 1e-9)
	assert.InDelta(t, 125, pos[root.ID()].Y(), 1e-9)
}

func TestEngine_MultipleRootsLaidOutIndependently(t *testing.T) {
	engine := NewEngine(config.DefaultDomainConfig())
	tree := newTestTree()
	first := tree.addRoot(t, "first root", 0, 0)
	second := tree.addRoot(t, "second root", 0, 400)
	tree.addChild(t, "child", first)

	result := engine.Layout(tree.instances, tree.nodes)
	pos := positionsByID(result)

	assert.InDelta(t, 0, pos[first.ID()].Y(), 1e-9)
	assert.InDelta(t, 400, pos[second.ID()].Y(), 1e-9)
}

func TestEngine_InputNotMutated(t *testing.T) {
	engine := NewEngine(config.DefaultDomainConfig())
	tree := newTestTree()
	root := tree.addRoot(t, "root", 10, 20)
	child := tree.addChild(t, "child", root)
	before := child.Position()

	engine.Layout(tree.instances, tree.nodes)

	assert.True(t, child.Position().Equals(before))
}
