package booking

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDynamo struct {
	item    map[string]types.AttributeValue
	puts    []*dynamodb.PutItemInput
	failPut error
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return &dynamodb.GetItemOutput{Item: f.item}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.puts = append(f.puts, in)
	if f.failPut != nil {
		return nil, f.failPut
	}
	conflict := &types.ConditionalCheckFailedException{Message: aws.String("condition failed")}
	switch aws.ToString(in.ConditionExpression) {
	case "attribute_not_exists(ledger)":
		if f.item != nil {
			return nil, conflict
		}
	case "#version = :version":
		want := in.ExpressionAttributeValues[":version"].(*types.AttributeValueMemberS).Value
		current, _ := f.item["version"].(*types.AttributeValueMemberS)
		if current == nil || current.Value != want {
			return nil, conflict
		}
	}
	f.item = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func TestDynamoStore(t *testing.T) {
	fake := &fakeDynamo{}
	exerciseStore(t, NewDynamoStore(fake, "booking_ledgers", "site"))

	last := fake.puts[len(fake.puts)-1]
	assert.Equal(t, "booking_ledgers", aws.ToString(last.TableName))
	assert.Equal(t, "site", fake.item["ledger"].(*types.AttributeValueMemberS).Value)
}

func TestDynamoStore_PropagatesOtherErrors(t *testing.T) {
	boom := errors.New("throttled")
	store := NewDynamoStore(&fakeDynamo{failPut: boom}, "booking_ledgers", "")
	err := store.Save(context.Background(), nil, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrVersionConflict)
}

type fakeS3 struct {
	body []byte
	etag string
	n    int
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.body == nil {
		return nil, &s3types.NoSuchKey{Message: aws.String("missing")}
	}
	return &s3.GetObjectOutput{
		Body: io.NopCloser(bytes.NewReader(f.body)),
		ETag: aws.String(f.etag),
	}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	precondition := &smithy.GenericAPIError{Code: "PreconditionFailed", Message: "At least one of the pre-conditions you specified did not hold"}
	if aws.ToString(in.IfNoneMatch) == "*" && f.body != nil {
		return nil, precondition
	}
	if in.IfMatch != nil && aws.ToString(in.IfMatch) != f.etag {
		return nil, precondition
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.n++
	f.body = data
	f.etag = fmt.Sprintf(`"etag-%d"`, f.n)
	return &s3.PutObjectOutput{ETag: aws.String(f.etag)}, nil
}

func TestS3Store(t *testing.T) {
	fake := &fakeS3{}
	exerciseStore(t, NewS3Store(fake, "no2forms-data", ""))
	assert.Contains(t, string(fake.body), "b@example.com")
}

func TestPostgresStore_LoadAndSave(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	store := newPostgresStoreWithExec(mock, "")
	ctx := context.Background()

	mock.ExpectQuery("SELECT version, records FROM booking_ledgers").
		WithArgs("bookings").
		WillReturnRows(pgxmock.NewRows([]string{"version", "records"}).
			AddRow("v1", []byte(`[{"id":"1","email":"a@example.com","time":"Thu 3pm","createdKey":"thu3pm","createdAt":"2025-06-01T10:00:00Z"}]`)))
	snap, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "v1", snap.Version)
	require.Len(t, snap.Records, 1)
	assert.Equal(t, "thu3pm", snap.Records[0].CreatedKey)

	mock.ExpectExec("UPDATE booking_ledgers").
		WithArgs("bookings", pgxmock.AnyArg(), pgxmock.AnyArg(), "v1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, store.Save(ctx, snap.Records, "v1"))

	mock.ExpectExec("UPDATE booking_ledgers").
		WithArgs("bookings", pgxmock.AnyArg(), pgxmock.AnyArg(), "v1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	assert.ErrorIs(t, store.Save(ctx, snap.Records, "v1"), ErrVersionConflict)

	mock.ExpectExec("INSERT INTO booking_ledgers").
		WithArgs("bookings", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	assert.ErrorIs(t, store.Save(ctx, nil, ""), ErrVersionConflict)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresStore_EmptyLedger(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT version, records FROM booking_ledgers").
		WithArgs("site").
		WillReturnRows(pgxmock.NewRows([]string{"version", "records"}))
	snap, err := newPostgresStoreWithExec(mock, "site").Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Snapshot{}, snap)
	require.NoError(t, mock.ExpectationsWereMet())
}
