package s3

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"contadoc-backend/internal/shared/storage/blob"
	"contadoc-backend/internal/shared/util"
)

// Store implements blob.Store using Amazon S3. Object user metadata carries
// the encryption IV and classification tags alongside the ciphertext.
type Store struct {
	client *awss3.Client
	bucket string
	prefix string
}

// New creates a new S3-backed blob store.
func New(ctx context.Context, region, bucket, prefix string) (blob.Store, error) {
	if bucket == "" {
		return nil, blob.ErrUnavailable
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &Store{
		client: awss3.NewFromConfig(cfg),
		bucket: bucket,
		prefix: strings.Trim(strings.TrimSpace(prefix), "/"),
	}, nil
}

// Put uploads data under a random-prefixed key and returns the key as handle.
func (s *Store) Put(ctx context.Context, name string, data []byte, metadata map[string]string) (string, error) {
	sanitized, err := util.SanitizeFileName(name)
	if err != nil {
		return "", &blob.OpError{Op: "put", Err: err}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	handle := fmt.Sprintf("%s_%s", randomID(), sanitized)
	input := &awss3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.objectKey(handle)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/octet-stream"),
		Metadata:    metadata,
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", &blob.OpError{Op: "put", Handle: handle, Err: err}
	}
	return handle, nil
}

// Get downloads an object and its user metadata.
func (s *Store) Get(ctx context.Context, handle string) ([]byte, map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	out, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(handle)),
	})
	if err != nil {
		return nil, nil, &blob.OpError{Op: "get", Handle: handle, Err: err}
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, nil, &blob.OpError{Op: "get", Handle: handle, Err: err}
	}
	return data, out.Metadata, nil
}

// Delete removes an object.
func (s *Store) Delete(ctx context.Context, handle string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := s.client.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(handle)),
	})
	if err != nil {
		return &blob.OpError{Op: "delete", Handle: handle, Err: err}
	}
	return nil
}

func (s *Store) objectKey(handle string) string {
	if s.prefix == "" {
		return handle
	}
	return s.prefix + "/" + handle
}

func randomID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}

var _ blob.Store = (*Store)(nil)
