package repository

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/hirosato/p2p-ops-dashboard/internal/domain/account"
	"github.com/hirosato/p2p-ops-dashboard/internal/domain/auth"
	"github.com/hirosato/p2p-ops-dashboard/internal/domain/device"
	commonErrors "github.com/hirosato/p2p-ops-dashboard/internal/domain/errors"
	"github.com/hirosato/p2p-ops-dashboard/internal/domain/workspace"
	"github.com/hirosato/p2p-ops-dashboard/internal/platform/dynamodb/client"
)

// TestClient is an in-memory implementation of the DynamoDB client interface for testing
type TestClient struct {
	mu       sync.Mutex
	items    map[string]map[string]types.AttributeValue
	pageSize int
	calls    atomic.Int32
}

// NewTestClient creates a new test client with an empty items map
func NewTestClient() *TestClient {
	return &TestClient{
		items: make(map[string]map[string]types.AttributeValue),
	}
}

func stringAttr(item map[string]types.AttributeValue, name string) string {
	if v, ok := item[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func itemID(item map[string]types.AttributeValue) string {
	return stringAttr(item, "PK") + "|" + stringAttr(item, "SK")
}

// PutItem adds or replaces an item in the in-memory store
func (c *TestClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	c.calls.Add(1)
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[itemID(params.Item)] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

// DeleteItem removes an item from the in-memory store
func (c *TestClient) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	c.calls.Add(1)
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, itemID(params.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

// Query returns the items whose PK equals the single key condition value,
// ordered by SK and paged by pageSize when set
func (c *TestClient) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	c.calls.Add(1)
	c.mu.Lock()
	defer c.mu.Unlock()

	var pk string
	for _, v := range params.ExpressionAttributeValues {
		if s, ok := v.(*types.AttributeValueMemberS); ok {
			pk = s.Value
		}
	}

	var matched []map[string]types.AttributeValue
	for _, item := range c.items {
		if stringAttr(item, "PK") == pk {
			matched = append(matched, item)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return stringAttr(matched[i], "SK") < stringAttr(matched[j], "SK")
	})

	if params.ExclusiveStartKey != nil {
		after := stringAttr(params.ExclusiveStartKey, "SK")
		i := sort.Search(len(matched), func(i int) bool {
			return stringAttr(matched[i], "SK") > after
		})
		matched = matched[i:]
	}

	out := &dynamodb.QueryOutput{Items: matched}
	if c.pageSize > 0 && len(matched) > c.pageSize {
		out.Items = matched[:c.pageSize]
		last := out.Items[len(out.Items)-1]
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			"PK": last["PK"],
			"SK": last["SK"],
		}
	}
	return out, nil
}

func (c *TestClient) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

type stubGate struct {
	user auth.User
	err  error
}

func (g stubGate) CurrentUser(ctx context.Context) (auth.User, error) {
	return g.user, g.err
}

var signedIn = stubGate{user: auth.User{ID: "user-1"}}

func sampleSnapshot() workspace.Snapshot {
	fop := device.New("DEV_2", "FOP phone", true, 20)
	a1 := account.New("ACC_1", "DEV_1", "PUMB", 30)
	a1.Balance = 1200.5
	a1.Active = true
	a1.Notes = "main"
	a1.Outs = []account.PartialOut{{Amount: 200.25, Timestamp: 40, Note: "cash"}, {Amount: 1, Timestamp: 41}}
	a2 := account.New("ACC_2", "DEV_2", "Alliance", 31)

	return workspace.Snapshot{
		Devices:  []device.Device{device.New("DEV_1", "Pixel", false, 10), fop},
		Accounts: []account.Account{a1, a2},
	}
}

func TestPushPull_RoundTrip(t *testing.T) {
	tc := NewTestClient()
	repo := NewDynamoDBSnapshotRepository(tc, "test-table", signedIn, zaptest.NewLogger(t), 4)
	snap := sampleSnapshot()

	require.NoError(t, repo.PushSnapshot(context.Background(), snap))
	assert.Equal(t, 4, tc.count())

	pulled, err := repo.PullSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, snap, pulled)
}

func TestPush_ReplacesRemoteContents(t *testing.T) {
	tc := NewTestClient()
	repo := NewDynamoDBSnapshotRepository(tc, "test-table", signedIn, zaptest.NewLogger(t), 2)
	ctx := context.Background()

	require.NoError(t, repo.PushSnapshot(ctx, sampleSnapshot()))

	smaller := workspace.Snapshot{
		Devices:  []device.Device{device.New("DEV_9", "Solo", false, 1)},
		Accounts: []account.Account{},
	}
	require.NoError(t, repo.PushSnapshot(ctx, smaller))

	pulled, err := repo.PullSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, smaller.Devices, pulled.Devices)
	assert.Empty(t, pulled.Accounts)
	assert.Equal(t, 1, tc.count())
}

func TestPush_EmptySnapshotClearsRemote(t *testing.T) {
	tc := NewTestClient()
	repo := NewDynamoDBSnapshotRepository(tc, "test-table", signedIn, zaptest.NewLogger(t), 0)
	ctx := context.Background()

	require.NoError(t, repo.PushSnapshot(ctx, sampleSnapshot()))
	require.NoError(t, repo.PushSnapshot(ctx, workspace.Snapshot{}))

	pulled, err := repo.PullSnapshot(ctx)
	require.NoError(t, err)
	assert.True(t, pulled.IsEmpty())
}

func TestPull_FollowsPagination(t *testing.T) {
	tc := NewTestClient()
	repo := NewDynamoDBSnapshotRepository(tc, "test-table", signedIn, zaptest.NewLogger(t), 1)
	ctx := context.Background()

	snap := sampleSnapshot()
	for i := 3; i <= 7; i++ {
		snap.Accounts = append(snap.Accounts, account.New("ACC_"+string(rune('0'+i)), "DEV_1", account.Banks[i], 50))
	}
	require.NoError(t, repo.PushSnapshot(ctx, snap))

	tc.pageSize = 2
	pulled, err := repo.PullSnapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, pulled.Devices, 2)
	assert.Len(t, pulled.Accounts, 7)

	// a paged listing must still clear everything on the next push
	require.NoError(t, repo.PushSnapshot(ctx, workspace.Snapshot{}))
	assert.Equal(t, 0, tc.count())
}

func TestSnapshot_RequiresSession(t *testing.T) {
	tc := NewTestClient()
	gate := stubGate{err: auth.NotSignedInError()}
	repo := NewDynamoDBSnapshotRepository(tc, "test-table", gate, zaptest.NewLogger(t), 0)
	ctx := context.Background()

	err := repo.PushSnapshot(ctx, sampleSnapshot())
	assert.ErrorIs(t, err, commonErrors.ErrUnauthenticated)
	assert.ErrorIs(t, err, auth.ErrNotSignedIn)

	_, err = repo.PullSnapshot(ctx)
	assert.ErrorIs(t, err, commonErrors.ErrUnauthenticated)

	assert.Equal(t, int32(0), tc.calls.Load())
}

func TestSnapshot_GateTransportFailureIsNotUnauthenticated(t *testing.T) {
	tc := NewTestClient()
	gate := stubGate{err: commonErrors.NewTransportError("failed to get user details", errors.New("dial tcp: i/o timeout"))}
	repo := NewDynamoDBSnapshotRepository(tc, "test-table", gate, zaptest.NewLogger(t), 0)
	ctx := context.Background()

	_, err := repo.PullSnapshot(ctx)
	assert.ErrorIs(t, err, commonErrors.ErrTransport)
	assert.NotErrorIs(t, err, commonErrors.ErrUnauthenticated)
	assert.Equal(t, commonErrors.CodeTransport, commonErrors.Code(err))

	err = repo.PushSnapshot(ctx, sampleSnapshot())
	assert.Equal(t, commonErrors.CodeTransport, commonErrors.Code(err))

	assert.Equal(t, int32(0), tc.calls.Load())
}

func TestSnapshot_NilGateIsUnauthenticated(t *testing.T) {
	repo := NewDynamoDBSnapshotRepository(NewTestClient(), "test-table", nil, zaptest.NewLogger(t), 0)

	_, err := repo.PullSnapshot(context.Background())
	assert.ErrorIs(t, err, commonErrors.ErrUnauthenticated)
}

func TestSnapshot_TransportErrors(t *testing.T) {
	boom := errors.New("connection reset")

	t.Run("query failure", func(t *testing.T) {
		mock := client.NewMockDynamoDBClient()
		mock.QueryFn = func(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
			return nil, boom
		}
		repo := NewDynamoDBSnapshotRepository(mock, "test-table", signedIn, zaptest.NewLogger(t), 0)

		_, err := repo.PullSnapshot(context.Background())
		assert.ErrorIs(t, err, commonErrors.ErrTransport)
		assert.ErrorIs(t, err, boom)

		err = repo.PushSnapshot(context.Background(), sampleSnapshot())
		assert.ErrorIs(t, err, commonErrors.ErrTransport)
	})

	t.Run("put failure", func(t *testing.T) {
		mock := client.NewMockDynamoDBClient()
		var puts atomic.Int32
		mock.PutItemFn = func(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
			puts.Add(1)
			return nil, boom
		}
		repo := NewDynamoDBSnapshotRepository(mock, "test-table", signedIn, zaptest.NewLogger(t), 1)

		err := repo.PushSnapshot(context.Background(), sampleSnapshot())
		require.Error(t, err)
		assert.Equal(t, commonErrors.CodeTransport, commonErrors.Code(err))
		assert.GreaterOrEqual(t, puts.Load(), int32(1))
	})

	t.Run("delete failure stops before writes", func(t *testing.T) {
		mock := client.NewMockDynamoDBClient()
		mock.QueryFn = func(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
			return &dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{{
				"PK": &types.AttributeValueMemberS{Value: "COLLECTION#devices"},
				"SK": &types.AttributeValueMemberS{Value: "DEV_OLD"},
			}}}, nil
		}
		mock.DeleteItemFn = func(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
			return nil, boom
		}
		var puts atomic.Int32
		mock.PutItemFn = func(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
			puts.Add(1)
			return &dynamodb.PutItemOutput{}, nil
		}
		repo := NewDynamoDBSnapshotRepository(mock, "test-table", signedIn, zaptest.NewLogger(t), 0)

		err := repo.PushSnapshot(context.Background(), sampleSnapshot())
		assert.ErrorIs(t, err, commonErrors.ErrTransport)
		assert.Equal(t, int32(0), puts.Load())
	})
}

func TestMarshalDocument_Keys(t *testing.T) {
	item, err := marshalDocument(collectionAccounts, "ACC_1", account.New("ACC_1", "DEV_1", "Izi", 1))
	require.NoError(t, err)

	assert.Equal(t, "COLLECTION#accounts", stringAttr(item, "PK"))
	assert.Equal(t, "ACC_1", stringAttr(item, "SK"))
	assert.Equal(t, "accounts", stringAttr(item, "Type"))
	assert.Equal(t, "ACC_1", stringAttr(item, "id"))
}
