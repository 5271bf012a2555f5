package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"mindweave/application/ports"
	domaincfg "mindweave/domain/config"
	"mindweave/domain/core/aggregates"
	"mindweave/domain/core/entities"
	"mindweave/domain/core/valueobjects"
	pkgerrors "mindweave/pkg/errors"
)

const batchWriteLimit = 25

// GraphRepository implements the graph persistence port on a DynamoDB
// single table. A graph is stored as one metadata item keyed under the
// owner plus one item per node and per instance keyed under the graph:
//
//	USER#<user>   / GRAPH#<id>       metadata, GSI1 on GRAPHID#<id>
//	GRAPH#<id>    / NODE#<nodeID>    content record
//	GRAPH#<id>    / INSTANCE#<id>    canvas placement
type GraphRepository struct {
	client    *dynamodb.Client
	tableName string
	indexName string
	cfg       *domaincfg.DomainConfig
	logger    *zap.Logger
}

// NewGraphRepository creates a DynamoDB graph repository
func NewGraphRepository(
	client *dynamodb.Client,
	tableName, indexName string,
	cfg *domaincfg.DomainConfig,
	logger *zap.Logger,
) ports.GraphRepository {
	if cfg == nil {
		cfg = domaincfg.DefaultDomainConfig()
	}
	return &GraphRepository{
		client:    client,
		tableName: tableName,
		indexName: indexName,
		cfg:       cfg,
		logger:    logger,
	}
}

type graphItem struct {
	PK                string `dynamodbav:"PK"`
	SK                string `dynamodbav:"SK"`
	GSI1PK            string `dynamodbav:"GSI1PK"`
	GSI1SK            string `dynamodbav:"GSI1SK"`
	EntityType        string `dynamodbav:"EntityType"`
	GraphID           string `dynamodbav:"GraphID"`
	UserID            string `dynamodbav:"UserID"`
	Name              string `dynamodbav:"Name"`
	RootNodeID        string `dynamodbav:"RootNodeID,omitempty"`
	FocusedInstanceID string `dynamodbav:"FocusedInstanceID,omitempty"`
	NodeCount         int    `dynamodbav:"NodeCount"`
	InstanceCount     int    `dynamodbav:"InstanceCount"`
	IsDefault         bool   `dynamodbav:"IsDefault"`
	CreatedAt         string `dynamodbav:"CreatedAt"`
	UpdatedAt         string `dynamodbav:"UpdatedAt"`
	Version           int    `dynamodbav:"Version"`
}

type nodeItem struct {
	PK              string   `dynamodbav:"PK"`
	SK              string   `dynamodbav:"SK"`
	EntityType      string   `dynamodbav:"EntityType"`
	NodeID          string   `dynamodbav:"NodeID"`
	Title           string   `dynamodbav:"Title"`
	ChildIDs        []string `dynamodbav:"ChildIDs,omitempty"`
	HyperlinkTarget string   `dynamodbav:"HyperlinkTarget,omitempty"`
	CreatedAt       string   `dynamodbav:"CreatedAt"`
	UpdatedAt       string   `dynamodbav:"UpdatedAt"`
}

type instanceItem struct {
	PK           string  `dynamodbav:"PK"`
	SK           string  `dynamodbav:"SK"`
	EntityType   string  `dynamodbav:"EntityType"`
	InstanceID   string  `dynamodbav:"InstanceID"`
	NodeID       string  `dynamodbav:"NodeID"`
	ParentID     string  `dynamodbav:"ParentID,omitempty"`
	X            float64 `dynamodbav:"X"`
	Y            float64 `dynamodbav:"Y"`
	Depth        int     `dynamodbav:"Depth"`
	SiblingOrder int     `dynamodbav:"SiblingOrder"`
	Collapsed    bool    `dynamodbav:"Collapsed"`
}

// Save persists a graph: metadata plus every node and instance item.
// Items that existed before the edit but not after are deleted, so the
// table always mirrors the aggregate exactly.
func (r *GraphRepository) Save(ctx context.Context, graph *aggregates.Graph) error {
	if err := graph.Validate(); err != nil {
		return err
	}

	graphPK := graphPartition(graph.ID())

	existing, err := r.existingSortKeys(ctx, graphPK)
	if err != nil {
		return err
	}

	var writes []types.WriteRequest
	desired := make(map[string]struct{})

	for _, node := range graph.Nodes() {
		item := nodeItem{
			PK:         graphPK,
			SK:         nodeSortKey(node.ID()),
			EntityType: "NODE",
			NodeID:     node.ID().String(),
			Title:      node.Title().String(),
			CreatedAt:  node.CreatedAt().Format(time.RFC3339Nano),
			UpdatedAt:  node.UpdatedAt().Format(time.RFC3339Nano),
		}
		for _, childID := range node.ChildIDs() {
			item.ChildIDs = append(item.ChildIDs, childID.String())
		}
		if node.HasHyperlink() {
			item.HyperlinkTarget = node.HyperlinkTarget().String()
		}
		av, err := attributevalue.MarshalMap(item)
		if err != nil {
			return fmt.Errorf("failed to marshal node item: %w", err)
		}
		desired[item.SK] = struct{}{}
		writes = append(writes, types.WriteRequest{PutRequest: &types.PutRequest{Item: av}})
	}

	for _, inst := range graph.Instances() {
		item := instanceItem{
			PK:           graphPK,
			SK:           instanceSortKey(inst.ID()),
			EntityType:   "INSTANCE",
			InstanceID:   inst.ID().String(),
			NodeID:       inst.NodeID().String(),
			X:            inst.Position().X(),
			Y:            inst.Position().Y(),
			Depth:        inst.Depth(),
			SiblingOrder: inst.SiblingOrder(),
			Collapsed:    inst.IsCollapsed(),
		}
		if !inst.IsRoot() {
			item.ParentID = inst.ParentID().String()
		}
		av, err := attributevalue.MarshalMap(item)
		if err != nil {
			return fmt.Errorf("failed to marshal instance item: %w", err)
		}
		desired[item.SK] = struct{}{}
		writes = append(writes, types.WriteRequest{PutRequest: &types.PutRequest{Item: av}})
	}

	for _, sk := range existing {
		if _, keep := desired[sk]; !keep {
			writes = append(writes, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{
					Key: map[string]types.AttributeValue{
						"PK": &types.AttributeValueMemberS{Value: graphPK},
						"SK": &types.AttributeValueMemberS{Value: sk},
					},
				},
			})
		}
	}

	if err := r.batchWrite(ctx, writes); err != nil {
		return err
	}

	meta := graphItem{
		PK:            userPartition(graph.UserID()),
		SK:            graphSortKey(graph.ID()),
		GSI1PK:        graphIndexKey(graph.ID()),
		GSI1SK:        "METADATA",
		EntityType:    "GRAPH",
		GraphID:       graph.ID().String(),
		UserID:        graph.UserID(),
		Name:          graph.Name(),
		NodeCount:     graph.NodeCount(),
		InstanceCount: graph.InstanceCount(),
		IsDefault:     graph.Name() == r.cfg.DefaultGraphName,
		CreatedAt:     graph.CreatedAt().Format(time.RFC3339Nano),
		UpdatedAt:     graph.UpdatedAt().Format(time.RFC3339Nano),
		Version:       graph.Version(),
	}
	if !graph.RootNodeID().IsZero() {
		meta.RootNodeID = graph.RootNodeID().String()
	}
	if !graph.FocusedInstanceID().IsZero() {
		meta.FocusedInstanceID = graph.FocusedInstanceID().String()
	}

	av, err := attributevalue.MarshalMap(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal graph metadata: %w", err)
	}
	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}); err != nil {
		return pkgerrors.NewDatabaseError("failed to save graph", err)
	}

	r.logger.Debug("graph saved",
		zap.String("graphID", graph.ID().String()),
		zap.Int("nodeCount", graph.NodeCount()),
		zap.Int("instanceCount", graph.InstanceCount()),
		zap.Int("version", graph.Version()),
	)
	return nil
}

// GetByID retrieves a graph with all its nodes and instances
func (r *GraphRepository) GetByID(ctx context.Context, id aggregates.GraphID) (*aggregates.Graph, error) {
	meta, err := r.metadata(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.load(ctx, meta)
}

// GetByUserID retrieves all graphs owned by a user
func (r *GraphRepository) GetByUserID(ctx context.Context, userID string) ([]*aggregates.Graph, error) {
	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: userPartition(userID)},
			":sk": &types.AttributeValueMemberS{Value: "GRAPH#"},
		},
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("failed to query graphs", err)
	}

	graphs := make([]*aggregates.Graph, 0, len(result.Items))
	for _, raw := range result.Items {
		var meta graphItem
		if err := attributevalue.UnmarshalMap(raw, &meta); err != nil {
			r.logger.Warn("failed to unmarshal graph metadata", zap.Error(err))
			continue
		}
		graph, err := r.load(ctx, &meta)
		if err != nil {
			r.logger.Warn("failed to load graph",
				zap.String("graphID", meta.GraphID),
				zap.Error(err),
			)
			continue
		}
		graphs = append(graphs, graph)
	}
	return graphs, nil
}

// GetOrCreateDefaultGraph gets the user's default graph, creating a
// seeded one on first access
func (r *GraphRepository) GetOrCreateDefaultGraph(ctx context.Context, userID string) (*aggregates.Graph, error) {
	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		FilterExpression:       aws.String("IsDefault = :isDefault"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":        &types.AttributeValueMemberS{Value: userPartition(userID)},
			":sk":        &types.AttributeValueMemberS{Value: "GRAPH#"},
			":isDefault": &types.AttributeValueMemberBOOL{Value: true},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("failed to query default graph", err)
	}

	if len(result.Items) > 0 {
		var meta graphItem
		if err := attributevalue.UnmarshalMap(result.Items[0], &meta); err != nil {
			return nil, pkgerrors.NewDatabaseError("failed to unmarshal graph metadata", err)
		}
		return r.load(ctx, &meta)
	}

	graph, err := aggregates.NewDefaultGraph(userID, r.cfg)
	if err != nil {
		return nil, err
	}
	graph.MarkEventsAsCommitted()
	if err := r.Save(ctx, graph); err != nil {
		return nil, err
	}

	r.logger.Info("default graph created",
		zap.String("graphID", graph.ID().String()),
		zap.String("userID", userID),
	)
	return graph, nil
}

// Delete removes a graph with all its nodes and instances
func (r *GraphRepository) Delete(ctx context.Context, id aggregates.GraphID) error {
	meta, err := r.metadata(ctx, id)
	if err != nil {
		return err
	}

	graphPK := graphPartition(id)
	sortKeys, err := r.existingSortKeys(ctx, graphPK)
	if err != nil {
		return err
	}

	writes := make([]types.WriteRequest, 0, len(sortKeys)+1)
	for _, sk := range sortKeys {
		writes = append(writes, types.WriteRequest{
			DeleteRequest: &types.DeleteRequest{
				Key: map[string]types.AttributeValue{
					"PK": &types.AttributeValueMemberS{Value: graphPK},
					"SK": &types.AttributeValueMemberS{Value: sk},
				},
			},
		})
	}
	writes = append(writes, types.WriteRequest{
		DeleteRequest: &types.DeleteRequest{
			Key: map[string]types.AttributeValue{
				"PK": &types.AttributeValueMemberS{Value: userPartition(meta.UserID)},
				"SK": &types.AttributeValueMemberS{Value: graphSortKey(id)},
			},
		},
	})
	return r.batchWrite(ctx, writes)
}

func (r *GraphRepository) metadata(ctx context.Context, id aggregates.GraphID) (*graphItem, error) {
	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(r.indexName),
		KeyConditionExpression: aws.String("GSI1PK = :pk AND GSI1SK = :sk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: graphIndexKey(id)},
			":sk": &types.AttributeValueMemberS{Value: "METADATA"},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("failed to query graph", err)
	}
	if len(result.Items) == 0 {
		return nil, pkgerrors.NewNotFoundError("graph")
	}

	var meta graphItem
	if err := attributevalue.UnmarshalMap(result.Items[0], &meta); err != nil {
		return nil, pkgerrors.NewDatabaseError("failed to unmarshal graph metadata", err)
	}
	return &meta, nil
}

// load reads every node and instance item and reconstructs the aggregate
func (r *GraphRepository) load(ctx context.Context, meta *graphItem) (*aggregates.Graph, error) {
	var nodes []*entities.Node
	var instances []*entities.Instance

	var startKey map[string]types.AttributeValue
	for {
		result, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(r.tableName),
			KeyConditionExpression: aws.String("PK = :pk"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk": &types.AttributeValueMemberS{Value: "GRAPH#" + meta.GraphID},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("failed to query graph items", err)
		}

		for _, raw := range result.Items {
			entityType := itemEntityType(raw)
			switch entityType {
			case "NODE":
				var item nodeItem
				if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
					return nil, pkgerrors.NewDatabaseError("failed to unmarshal node item", err)
				}
				node, err := r.nodeFromItem(&item)
				if err != nil {
					return nil, err
				}
				nodes = append(nodes, node)
			case "INSTANCE":
				var item instanceItem
				if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
					return nil, pkgerrors.NewDatabaseError("failed to unmarshal instance item", err)
				}
				inst, err := r.instanceFromItem(&item)
				if err != nil {
					return nil, err
				}
				instances = append(instances, inst)
			}
		}

		startKey = result.LastEvaluatedKey
		if startKey == nil {
			break
		}
	}

	rootNode := valueobjects.NodeID{}
	if meta.RootNodeID != "" {
		if id, err := valueobjects.NewNodeIDFromString(meta.RootNodeID); err == nil {
			rootNode = id
		}
	}
	focused := valueobjects.InstanceID{}
	if meta.FocusedInstanceID != "" {
		if id, err := valueobjects.NewInstanceIDFromString(meta.FocusedInstanceID); err == nil {
			focused = id
		}
	}

	createdAt := parseStoredTime(meta.CreatedAt)
	updatedAt := parseStoredTime(meta.UpdatedAt)

	return aggregates.ReconstructGraph(
		aggregates.GraphID(meta.GraphID),
		meta.UserID, meta.Name,
		nodes, instances,
		rootNode, focused,
		createdAt, updatedAt,
		meta.Version,
		r.cfg,
	)
}

func (r *GraphRepository) nodeFromItem(item *nodeItem) (*entities.Node, error) {
	id, err := valueobjects.NewNodeIDFromString(item.NodeID)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("stored node has invalid id", err)
	}
	title, err := valueobjects.NewTitleWithConfig(item.Title, r.cfg)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("stored node has invalid title", err)
	}
	childIDs := make([]valueobjects.NodeID, 0, len(item.ChildIDs))
	for _, childID := range item.ChildIDs {
		cid, err := valueobjects.NewNodeIDFromString(childID)
		if err != nil {
			continue
		}
		childIDs = append(childIDs, cid)
	}
	hyperlink := valueobjects.NodeID{}
	if item.HyperlinkTarget != "" {
		if id, err := valueobjects.NewNodeIDFromString(item.HyperlinkTarget); err == nil {
			hyperlink = id
		}
	}
	return entities.ReconstructNode(
		id, title, childIDs, hyperlink,
		parseStoredTime(item.CreatedAt), parseStoredTime(item.UpdatedAt),
	), nil
}

func (r *GraphRepository) instanceFromItem(item *instanceItem) (*entities.Instance, error) {
	id, err := valueobjects.NewInstanceIDFromString(item.InstanceID)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("stored instance has invalid id", err)
	}
	nodeID, err := valueobjects.NewNodeIDFromString(item.NodeID)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("stored instance has invalid node id", err)
	}
	parentID := valueobjects.InstanceID{}
	if item.ParentID != "" {
		parentID, err = valueobjects.NewInstanceIDFromString(item.ParentID)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("stored instance has invalid parent id", err)
		}
	}
	pos, err := valueobjects.NewPosition(item.X, item.Y)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("stored instance has invalid position", err)
	}
	return entities.ReconstructInstance(
		id, nodeID, parentID, item.Depth, item.SiblingOrder, item.Collapsed, pos,
	), nil
}

// existingSortKeys lists the SKs currently stored under a graph partition
func (r *GraphRepository) existingSortKeys(ctx context.Context, graphPK string) ([]string, error) {
	var keys []string
	var startKey map[string]types.AttributeValue
	for {
		result, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(r.tableName),
			KeyConditionExpression: aws.String("PK = :pk"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk": &types.AttributeValueMemberS{Value: graphPK},
			},
			ProjectionExpression: aws.String("SK"),
			ExclusiveStartKey:    startKey,
		})
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("failed to list graph items", err)
		}
		for _, raw := range result.Items {
			if sk, ok := raw["SK"].(*types.AttributeValueMemberS); ok {
				keys = append(keys, sk.Value)
			}
		}
		startKey = result.LastEvaluatedKey
		if startKey == nil {
			break
		}
	}
	return keys, nil
}

func (r *GraphRepository) batchWrite(ctx context.Context, writes []types.WriteRequest) error {
	for start := 0; start < len(writes); start += batchWriteLimit {
		end := start + batchWriteLimit
		if end > len(writes) {
			end = len(writes)
		}
		batch := writes[start:end]

		for len(batch) > 0 {
			result, err := r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
				RequestItems: map[string][]types.WriteRequest{
					r.tableName: batch,
				},
			})
			if err != nil {
				return pkgerrors.NewDatabaseError("batch write failed", err)
			}
			batch = result.UnprocessedItems[r.tableName]
		}
	}
	return nil
}

func itemEntityType(raw map[string]types.AttributeValue) string {
	if v, ok := raw["EntityType"].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func parseStoredTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Now()
	}
	return t
}

func userPartition(userID string) string {
	return "USER#" + userID
}

func graphPartition(id aggregates.GraphID) string {
	return "GRAPH#" + id.String()
}

func graphSortKey(id aggregates.GraphID) string {
	return "GRAPH#" + id.String()
}

func graphIndexKey(id aggregates.GraphID) string {
	return "GRAPHID#" + id.String()
}

func nodeSortKey(id valueobjects.NodeID) string {
	return "NODE#" + id.String()
}

func instanceSortKey(id valueobjects.InstanceID) string {
	return "INSTANCE#" + id.String()
}
