package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// s3API is the subset of the S3 client the store uses, extracted so tests
// can fake it.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3BlobStore stores blobs in a single bucket under "<category>/<id>" keys,
// with the descriptive fields kept as object metadata.
type S3BlobStore struct {
	client s3API
	bucket string
}

// NewS3BlobStore builds a store from the default AWS config chain.
func NewS3BlobStore(ctx context.Context, bucket, region string) (*S3BlobStore, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &S3BlobStore{client: s3.NewFromConfig(cfg), bucket: bucket}, nil
}

func objectKey(category, id string) string { return category + "/" + id }

func (s *S3BlobStore) Upload(ctx context.Context, meta BlobMetadata, content io.Reader) (*BlobMetadata, error) {
	if err := validate(&meta); err != nil {
		return nil, err
	}

	data, hash, err := readAll(content)
	if err != nil {
		return nil, err
	}

	meta.ID = uuid.New().String()
	meta.Size = int64(len(data))
	meta.Hash = hash
	meta.CreatedAt = time.Now().UTC()
	meta.URL = PublicURL(meta.ID)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey(meta.Category, meta.ID)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(meta.ContentType),
		Metadata: map[string]string{
			"file-name":  meta.FileName,
			"owner-id":   meta.OwnerID,
			"category":   meta.Category,
			"hash":       meta.Hash,
			"created-at": meta.CreatedAt.Format(time.RFC3339),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("put object: %w", err)
	}

	out := meta // copy
	return &out, nil
}

// findKey locates a blob's object key by probing each category prefix. Keys
// embed the category, which is not part of the public id.
func (s *S3BlobStore) findKey(ctx context.Context, id string) (string, *s3.HeadObjectOutput, error) {
	for category := range AllowedCategories {
		key := objectKey(category, id)
		head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err == nil {
			return key, head, nil
		}
	}
	return "", nil, ErrBlobNotFound
}

func metadataFromHead(id string, contentType *string, size *int64, objMeta map[string]string) *BlobMetadata {
	meta := &BlobMetadata{
		ID:       id,
		FileName: objMeta["file-name"],
		OwnerID:  objMeta["owner-id"],
		Category: objMeta["category"],
		Hash:     objMeta["hash"],
		URL:      PublicURL(id),
	}
	if contentType != nil {
		meta.ContentType = *contentType
	}
	if size != nil {
		meta.Size = *size
	}
	if at, err := time.Parse(time.RFC3339, objMeta["created-at"]); err == nil {
		meta.CreatedAt = at
	}
	return meta
}

func (s *S3BlobStore) Download(ctx context.Context, id string) (io.ReadCloser, *BlobMetadata, error) {
	key, head, err := s.findKey(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	obj, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("get object: %w", err)
	}

	meta := metadataFromHead(id, head.ContentType, head.ContentLength, head.Metadata)
	return obj.Body, meta, nil
}

func (s *S3BlobStore) Delete(ctx context.Context, id string) error {
	key, _, err := s.findKey(ctx, id)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

func (s *S3BlobStore) GetMetadata(ctx context.Context, id string) (*BlobMetadata, error) {
	_, head, err := s.findKey(ctx, id)
	if err != nil {
		return nil, err
	}
	return metadataFromHead(id, head.ContentType, head.ContentLength, head.Metadata), nil
}

func (s *S3BlobStore) ListByOwner(ctx context.Context, ownerID, category string, limit, offset int) ([]*BlobMetadata, int, error) {
	prefixes := []string{category + "/"}
	if category == "" {
		prefixes = prefixes[:0]
		for cat := range AllowedCategories {
			prefixes = append(prefixes, cat+"/")
		}
	}

	var matched []*BlobMetadata
	for _, prefix := range prefixes {
		var continuation *string
		for {
			out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
				Bucket:            aws.String(s.bucket),
				Prefix:            aws.String(prefix),
				ContinuationToken: continuation,
			})
			if err != nil {
				return nil, 0, fmt.Errorf("list objects: %w", err)
			}
			for _, obj := range out.Contents {
				if obj.Key == nil {
					continue
				}
				id := (*obj.Key)[len(prefix):]
				head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
					Bucket: aws.String(s.bucket),
					Key:    obj.Key,
				})
				if err != nil {
					continue
				}
				meta := metadataFromHead(id, head.ContentType, head.ContentLength, head.Metadata)
				if meta.OwnerID != ownerID {
					continue
				}
				matched = append(matched, meta)
			}
			if out.IsTruncated == nil || !*out.IsTruncated {
				break
			}
			continuation = out.NextContinuationToken
		}
	}

	total := len(matched)
	if limit <= 0 {
		limit = 20
	}
	if offset > len(matched) {
		offset = len(matched)
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

// IsNotFound reports whether err is the store's not-found error, letting
// callers treat a missing old photo as already gone.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrBlobNotFound)
}
