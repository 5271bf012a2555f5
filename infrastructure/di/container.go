package di

import (
	"context"

	"go.uber.org/zap"

	"mindweave/application/commands"
	cmdbus "mindweave/application/commands/bus"
	"mindweave/application/queries"
	querybus "mindweave/application/queries/bus"
	"mindweave/application/ports"
	domaincfg "mindweave/domain/config"
	"mindweave/domain/layout"
	"mindweave/domain/versioning"
	"mindweave/infrastructure/config"
	"mindweave/pkg/auth"
)

// Registration sentinels: the buses dispatch on concrete command and
// query types, so each type is registered with a zero value.
var (
	commandsCreateRoot     = commands.CreateRootCommand{}
	commandsCreateChild    = commands.CreateChildCommand{}
	commandsCreateSibling  = commands.CreateSiblingCommand{}
	commandsDeleteInstance = commands.DeleteInstanceCommand{}
	commandsToggleCollapse = commands.ToggleCollapseCommand{}
	commandsReorder        = commands.ReorderSiblingCommand{}
	commandsReparent       = commands.ReparentCommand{}
	commandsSetFocus       = commands.SetFocusCommand{}
	commandsRename         = commands.RenameNodeCommand{}
	commandsLink           = commands.LinkNodesCommand{}
	commandsMerge          = commands.MergeGraphCommand{}
	commandsUndo           = commands.UndoCommand{}
	commandsRedo           = commands.RedoCommand{}

	queriesGetGraph   = queries.GetGraphQuery{}
	queriesGetDefault = queries.GetDefaultGraphQuery{}
	queriesList       = queries.ListGraphsQuery{}
)

// Container holds all wired application dependencies
type Container struct {
	Config       *config.Config
	DomainConfig *domaincfg.DomainConfig
	Logger       *zap.Logger

	GraphRepository ports.GraphRepository
	EventPublisher  ports.EventPublisher
	History         *versioning.Store
	LayoutEngine    *layout.Engine
	JWTValidator    *auth.JWTValidator

	CreateInstanceHandler *commands.CreateInstanceHandler
	EditStructureHandler  *commands.EditStructureHandler
	EditContentHandler    *commands.EditContentHandler
	MergeGraphHandler     *commands.MergeGraphHandler
	HistoryHandler        *commands.HistoryHandler
	GraphQueryHandler     *queries.GraphQueryHandler

	CommandBus *cmdbus.CommandBus
	QueryBus   *querybus.QueryBus
}

// InitializeContainer wires the full dependency graph
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	logger, err := provideLogger(cfg)
	if err != nil {
		return nil, err
	}

	dcfg := domaincfg.DefaultDomainConfig()

	c := &Container{
		Config:       cfg,
		DomainConfig: dcfg,
		Logger:       logger,
		History:      versioning.NewStore(dcfg.MaxHistoryDepth),
		LayoutEngine: layout.NewEngine(dcfg),
	}

	c.GraphRepository, err = provideGraphRepository(ctx, cfg, dcfg, logger)
	if err != nil {
		return nil, err
	}
	c.EventPublisher, err = provideEventPublisher(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	c.JWTValidator, err = provideJWTValidator(cfg)
	if err != nil {
		return nil, err
	}

	c.CreateInstanceHandler = commands.NewCreateInstanceHandler(
		c.GraphRepository, c.History, c.EventPublisher, dcfg, logger)
	c.EditStructureHandler = commands.NewEditStructureHandler(
		c.GraphRepository, c.History, c.EventPublisher, logger)
	c.EditContentHandler = commands.NewEditContentHandler(
		c.GraphRepository, c.History, c.EventPublisher, dcfg, logger)
	c.MergeGraphHandler = commands.NewMergeGraphHandler(
		c.GraphRepository, c.History, c.EventPublisher, dcfg, logger)
	c.HistoryHandler = commands.NewHistoryHandler(
		c.GraphRepository, c.History, logger)
	c.GraphQueryHandler = queries.NewGraphQueryHandler(
		c.GraphRepository, c.History, c.LayoutEngine, logger)

	c.CommandBus, err = provideCommandBus(c)
	if err != nil {
		return nil, err
	}
	c.QueryBus, err = provideQueryBus(c)
	if err != nil {
		return nil, err
	}

	return c, nil
}
