package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hirosato/p2p-ops-dashboard/internal/domain/account"
	"github.com/hirosato/p2p-ops-dashboard/internal/domain/auth"
	"github.com/hirosato/p2p-ops-dashboard/internal/domain/device"
	commonErrors "github.com/hirosato/p2p-ops-dashboard/internal/domain/errors"
	"github.com/hirosato/p2p-ops-dashboard/internal/domain/workspace"
	"github.com/hirosato/p2p-ops-dashboard/internal/platform/dynamodb/client"
)

const (
	collectionDevices  = "devices"
	collectionAccounts = "accounts"

	// DefaultConcurrency bounds in-flight per-document writes during a push
	DefaultConcurrency = 8
)

// DynamoDBSnapshotRepository implements workspace.RemoteStore on a single
// table. Every document lives under PK=COLLECTION#<name>, SK=<entity id>.
type DynamoDBSnapshotRepository struct {
	client      client.Client
	table       string
	gate        auth.Gate
	logger      *zap.Logger
	concurrency int
}

// NewDynamoDBSnapshotRepository creates a new DynamoDBSnapshotRepository
func NewDynamoDBSnapshotRepository(client client.Client, table string, gate auth.Gate, logger *zap.Logger, concurrency int) *DynamoDBSnapshotRepository {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &DynamoDBSnapshotRepository{
		client:      client,
		table:       table,
		gate:        gate,
		logger:      logger,
		concurrency: concurrency,
	}
}

type itemKey struct {
	PK string `dynamodbav:"PK"`
	SK string `dynamodbav:"SK"`
}

func collectionPK(collection string) string {
	return fmt.Sprintf("COLLECTION#%s", collection)
}

// PushSnapshot replaces every remote device and account with snap. Existing
// documents are deleted first, then the snapshot is written. A failure part
// way leaves the table partially replaced.
func (r *DynamoDBSnapshotRepository) PushSnapshot(ctx context.Context, snap workspace.Snapshot) error {
	user, err := r.authorize(ctx)
	if err != nil {
		return err
	}
	start := time.Now()

	var existing []itemKey
	for _, collection := range []string{collectionDevices, collectionAccounts} {
		keys, err := r.listKeys(ctx, collection)
		if err != nil {
			return err
		}
		existing = append(existing, keys...)
	}

	items := make([]map[string]types.AttributeValue, 0, len(snap.Devices)+len(snap.Accounts))
	for _, d := range snap.Devices {
		item, err := marshalDocument(collectionDevices, d.ID, d)
		if err != nil {
			return err
		}
		items = append(items, item)
	}
	for _, a := range snap.Accounts {
		item, err := marshalDocument(collectionAccounts, a.ID, a)
		if err != nil {
			return err
		}
		items = append(items, item)
	}

	if err := r.deleteAll(ctx, existing); err != nil {
		return err
	}
	if err := r.putAll(ctx, items); err != nil {
		return err
	}

	r.logger.Info("Pushed snapshot",
		zap.String("user", user.ID),
		zap.Int("deleted", len(existing)),
		zap.Int("devices", len(snap.Devices)),
		zap.Int("accounts", len(snap.Accounts)),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// PullSnapshot returns every remote device and account
func (r *DynamoDBSnapshotRepository) PullSnapshot(ctx context.Context) (workspace.Snapshot, error) {
	user, err := r.authorize(ctx)
	if err != nil {
		return workspace.Snapshot{}, err
	}

	deviceItems, err := r.queryCollection(ctx, collectionDevices, nil)
	if err != nil {
		return workspace.Snapshot{}, err
	}
	accountItems, err := r.queryCollection(ctx, collectionAccounts, nil)
	if err != nil {
		return workspace.Snapshot{}, err
	}

	snap := workspace.Snapshot{
		Devices:  make([]device.Device, 0, len(deviceItems)),
		Accounts: make([]account.Account, 0, len(accountItems)),
	}
	for _, item := range deviceItems {
		var d device.Device
		if err := attributevalue.UnmarshalMap(item, &d); err != nil {
			return workspace.Snapshot{}, commonErrors.NewTransportError("failed to unmarshal device", err)
		}
		snap.Devices = append(snap.Devices, d)
	}
	for _, item := range accountItems {
		var a account.Account
		if err := attributevalue.UnmarshalMap(item, &a); err != nil {
			return workspace.Snapshot{}, commonErrors.NewTransportError("failed to unmarshal account", err)
		}
		snap.Accounts = append(snap.Accounts, a)
	}
	account.Normalize(snap.Accounts)

	r.logger.Info("Pulled snapshot",
		zap.String("user", user.ID),
		zap.Int("devices", len(snap.Devices)),
		zap.Int("accounts", len(snap.Accounts)))
	return snap, nil
}

func (r *DynamoDBSnapshotRepository) authorize(ctx context.Context) (auth.User, error) {
	if r.gate == nil {
		return auth.User{}, commonErrors.NewUnauthenticatedError("no auth gate configured")
	}
	user, err := r.gate.CurrentUser(ctx)
	if err != nil {
		// an unreachable identity provider is not a missing session
		if commonErrors.Code(err) == commonErrors.CodeTransport {
			return auth.User{}, err
		}
		return auth.User{}, commonErrors.AppError{
			Code:    commonErrors.CodeUnauthenticated,
			Message: "sign in to sync with the cloud",
			Err:     err,
		}
	}
	return user, nil
}

func marshalDocument(collection, id string, v interface{}) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return nil, commonErrors.NewTransportError("failed to marshal "+collection+" document", err)
	}
	item["PK"] = &types.AttributeValueMemberS{Value: collectionPK(collection)}
	item["SK"] = &types.AttributeValueMemberS{Value: id}
	item["Type"] = &types.AttributeValueMemberS{Value: collection}
	return item, nil
}

// queryCollection reads every item of a collection, following pagination
func (r *DynamoDBSnapshotRepository) queryCollection(ctx context.Context, collection string, projection *expression.ProjectionBuilder) ([]map[string]types.AttributeValue, error) {
	keyCondition := expression.Key("PK").Equal(expression.Value(collectionPK(collection)))
	builder := expression.NewBuilder().WithKeyCondition(keyCondition)
	if projection != nil {
		builder = builder.WithProjection(*projection)
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, commonErrors.NewTransportError("failed to build expression", err)
	}

	var (
		items    []map[string]types.AttributeValue
		startKey map[string]types.AttributeValue
	)
	for {
		result, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.table),
			KeyConditionExpression:    expr.KeyCondition(),
			ProjectionExpression:      expr.Projection(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return nil, commonErrors.NewTransportError("failed to query "+collection, err)
		}
		items = append(items, result.Items...)

		if len(result.LastEvaluatedKey) == 0 {
			return items, nil
		}
		startKey = result.LastEvaluatedKey
	}
}

func (r *DynamoDBSnapshotRepository) listKeys(ctx context.Context, collection string) ([]itemKey, error) {
	projection := expression.NamesList(expression.Name("PK"), expression.Name("SK"))
	items, err := r.queryCollection(ctx, collection, &projection)
	if err != nil {
		return nil, err
	}

	keys := make([]itemKey, 0, len(items))
	for _, item := range items {
		var k itemKey
		if err := attributevalue.UnmarshalMap(item, &k); err != nil {
			return nil, commonErrors.NewTransportError("failed to unmarshal key", err)
		}
		keys = append(keys, k)
	}
	return keys, nil
}

func (r *DynamoDBSnapshotRepository) deleteAll(ctx context.Context, keys []itemKey) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for _, k := range keys {
		g.Go(func() error {
			_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
				TableName: aws.String(r.table),
				Key: map[string]types.AttributeValue{
					"PK": &types.AttributeValueMemberS{Value: k.PK},
					"SK": &types.AttributeValueMemberS{Value: k.SK},
				},
			})
			if err != nil {
				return commonErrors.NewTransportError("failed to delete remote document", err).
					WithDetail("sk", k.SK)
			}
			return nil
		})
	}
	return g.Wait()
}

func (r *DynamoDBSnapshotRepository) putAll(ctx context.Context, items []map[string]types.AttributeValue) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for _, item := range items {
		g.Go(func() error {
			_, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
				TableName: aws.String(r.table),
				Item:      item,
			})
			if err != nil {
				sk, _ := item["SK"].(*types.AttributeValueMemberS)
				e := commonErrors.NewTransportError("failed to write remote document", err)
				if sk != nil {
					e = e.WithDetail("sk", sk.Value)
				}
				return e
			}
			return nil
		})
	}
	return g.Wait()
}
