package di

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"

	cmdbus "mindweave/application/commands/bus"
	querybus "mindweave/application/queries/bus"
	"mindweave/application/ports"
	"mindweave/infrastructure/config"
	dynamorepo "mindweave/infrastructure/persistence/dynamodb"
	memoryrepo "mindweave/infrastructure/persistence/memory"

	domaincfg "mindweave/domain/config"
	ebpublisher "mindweave/infrastructure/messaging/eventbridge"
	"mindweave/pkg/auth"
)

// provideLogger builds the zap logger for the configured environment
func provideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}

	zapCfg := zap.NewProductionConfig()
	if err := zapCfg.Level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return zapCfg.Build()
}

// provideGraphRepository selects the persistence backend
func provideGraphRepository(
	ctx context.Context,
	cfg *config.Config,
	dcfg *domaincfg.DomainConfig,
	logger *zap.Logger,
) (ports.GraphRepository, error) {
	switch cfg.StorageBackend {
	case "dynamodb":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
		}
		client := dynamodb.NewFromConfig(awsCfg)
		return dynamorepo.NewGraphRepository(client, cfg.DynamoDBTable, cfg.IndexName, dcfg, logger), nil
	case "memory":
		return memoryrepo.NewGraphRepository(dcfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// provideEventPublisher wires EventBridge when a bus name is set,
// otherwise a no-op publisher
func provideEventPublisher(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.EventPublisher, error) {
	if cfg.EventBusName == "" {
		return ebpublisher.NewNoopPublisher(), nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return ebpublisher.NewPublisher(eventbridge.NewFromConfig(awsCfg), cfg.EventBusName, logger), nil
}

// provideJWTValidator builds the token validator. Development gets a
// fixed fallback secret so local setups work without configuration.
func provideJWTValidator(cfg *config.Config) (*auth.JWTValidator, error) {
	secret := cfg.JWTSecret
	if secret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("JWT_SECRET is required in production")
		}
		secret = "development-secret-change-in-production"
	}
	return auth.NewJWTValidator(auth.JWTConfig{
		SecretKey: secret,
		Issuer:    cfg.JWTIssuer,
	})
}

// provideCommandBus registers every command handler
func provideCommandBus(c *Container) (*cmdbus.CommandBus, error) {
	b := cmdbus.NewCommandBus()
	logging := cmdbus.LoggingMiddleware(c.Logger)

	register := func(handler cmdbus.CommandHandler, cmds ...cmdbus.Command) error {
		wrapped := cmdbus.Chain(handler, logging)
		for _, cmd := range cmds {
			if err := b.Register(cmd, wrapped); err != nil {
				return err
			}
		}
		return nil
	}

	if err := register(c.CreateInstanceHandler,
		commandsCreateRoot, commandsCreateChild, commandsCreateSibling); err != nil {
		return nil, err
	}
	if err := register(c.EditStructureHandler,
		commandsDeleteInstance, commandsToggleCollapse, commandsReorder, commandsReparent, commandsSetFocus); err != nil {
		return nil, err
	}
	if err := register(c.EditContentHandler, commandsRename, commandsLink); err != nil {
		return nil, err
	}
	if err := register(c.MergeGraphHandler, commandsMerge); err != nil {
		return nil, err
	}
	if err := register(c.HistoryHandler, commandsUndo, commandsRedo); err != nil {
		return nil, err
	}
	return b, nil
}

// provideQueryBus registers every query handler
func provideQueryBus(c *Container) (*querybus.QueryBus, error) {
	b := querybus.NewQueryBus()
	for _, q := range []querybus.Query{queriesGetGraph, queriesGetDefault, queriesList} {
		if err := b.Register(q, c.GraphQueryHandler); err != nil {
			return nil, err
		}
	}
	return b, nil
}
