package config

// DomainConfig holds all configurable business rules and layout tunables.
// The text metrics feed both the height and width estimates; they must stay
// in sync or wrapped line counts and box widths drift apart.
type DomainConfig struct {
	// Graph constraints
	MaxNodesPerGraph     int
	MaxInstancesPerGraph int
	DefaultGraphName     string
	DefaultRootTitle     string

	// Node constraints
	MaxTitleLength int

	// Text metrics
	MaxNodeWidth     float64
	MinNodeWidth     float64
	AvgCharWidth     float64
	LineHeight       float64
	BasePadding      float64
	MultilinePadding float64
	TallNodePadding  float64
	TallNodeLines    int
	HorizontalPad    float64

	// Tree layout
	HorizontalSpacing         float64
	VerticalSpacingMultiplier float64
	SeparationScale           float64
	MinSeparation             float64

	// History
	MaxHistoryDepth int

	// Merge/import
	MergeOffsetX float64
	MergeOffsetY float64
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		// Graph constraints
		MaxNodesPerGraph:     10000,
		MaxInstancesPerGraph: 20000,
		DefaultGraphName:     "Default Map",
		DefaultRootTitle:     "New idea",

		// Node constraints
		MaxTitleLength: 500,

		// Text metrics
		MaxNodeWidth:     320,
		MinNodeWidth:     80,
		AvgCharWidth:     7.2,
		LineHeight:       24,
		BasePadding:      20,
		MultilinePadding: 6,
		TallNodePadding:  8,
		TallNodeLines:    5,
		HorizontalPad:    24,

		// Tree layout
		HorizontalSpacing:         60,
		VerticalSpacingMultiplier: 0.55,
		SeparationScale:           0.02,
		MinSeparation:             0.01,

		// History
		MaxHistoryDepth: 50,

		// Merge/import
		MergeOffsetX: 120,
		MergeOffsetY: 120,
	}
}
