package booking

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3API is the subset of the S3 client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Store keeps the collection as one JSON object. The object ETag is the
// version; writes use If-Match, or If-None-Match for the first write.
type S3Store struct {
	client S3API
	bucket string
	key    string
}

// NewS3Store builds a store for bucket/key.
func NewS3Store(client S3API, bucket, key string) *S3Store {
	if client == nil {
		panic("booking: s3 client cannot be nil")
	}
	if bucket == "" {
		panic("booking: s3 bucket cannot be empty")
	}
	if key == "" {
		key = "ledger/bookings.json"
	}
	return &S3Store{client: client, bucket: bucket, key: key}
}

func (s *S3Store) Load(ctx context.Context) (Snapshot, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return Snapshot{}, nil
		}
		return Snapshot{}, fmt.Errorf("booking: s3 get %s: %w", s.key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return Snapshot{}, fmt.Errorf("booking: s3 read %s: %w", s.key, err)
	}
	records, err := decodeRecords(data)
	if err != nil {
		return Snapshot{}, fmt.Errorf("booking: s3 decode %s: %w", s.key, err)
	}
	return Snapshot{Records: records, Version: aws.ToString(out.ETag)}, nil
}

func (s *S3Store) Save(ctx context.Context, records []Record, version string) error {
	data, err := encodeRecords(records)
	if err != nil {
		return err
	}
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	}
	if version == "" {
		input.IfNoneMatch = aws.String("*")
	} else {
		input.IfMatch = aws.String(version)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		if isPreconditionFailure(err) {
			return ErrVersionConflict
		}
		return fmt.Errorf("booking: s3 put %s: %w", s.key, err)
	}
	return nil
}

func isPreconditionFailure(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "PreconditionFailed", "ConditionalRequestConflict":
			return true
		}
	}
	var respErr interface{ HTTPStatusCode() int }
	if errors.As(err, &respErr) {
		code := respErr.HTTPStatusCode()
		return code == http.StatusPreconditionFailed || code == http.StatusConflict
	}
	return false
}
