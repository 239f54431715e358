// Package objectstore stores raw OAI-PMH pages as write-once objects in an
// S3-compatible bucket (MinIO). Keys follow the same layout as the
// filesystem backend.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/activemonkeys/geneax/internal/adapters/driven/rawstore"
	"github.com/activemonkeys/geneax/internal/core/domain"
	"github.com/activemonkeys/geneax/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.BatchStore = (*Store)(nil)

const contentType = "application/xml"

// Config locates the bucket.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Secure    bool

	// Region skips the bucket location lookup when set.
	Region string
}

// bucket is the subset of object operations the store needs.
type bucket interface {
	exists(ctx context.Context, key string) (bool, error)
	put(ctx context.Context, key string, data []byte) error
	get(ctx context.Context, key string) ([]byte, error)
	list(ctx context.Context, prefix string) ([]string, error)
}

// Store keeps batches as objects. BatchRef.Key is the object key.
type Store struct {
	bucket bucket

	mu   sync.Mutex
	next map[string]int
}

// New connects to the endpoint and creates the bucket when missing.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: minio endpoint and bucket are required", domain.ErrInvalidInput)
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("creating minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("checking bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("creating bucket %s: %w", cfg.Bucket, err)
		}
	}

	return newStore(&minioBucket{client: client, name: cfg.Bucket}), nil
}

func newStore(b bucket) *Store {
	return &Store{bucket: b, next: make(map[string]int)}
}

// Write stores data as the next batch of (source, set).
// An existing object under the chosen key is never replaced.
func (s *Store) Write(ctx context.Context, sourceCode, setSpec string, data []byte) (domain.BatchRef, error) {
	if err := rawstore.ValidatePair(sourceCode, setSpec); err != nil {
		return domain.BatchRef{}, err
	}
	code := domain.NormaliseSourceCode(sourceCode)
	prefix := pairPrefix(code, setSpec)

	s.mu.Lock()
	defer s.mu.Unlock()

	seq, err := s.nextSequence(ctx, prefix)
	if err != nil {
		return domain.BatchRef{}, err
	}
	key := rawstore.Key(code, setSpec, seq)

	exists, err := s.bucket.exists(ctx, key)
	if err != nil {
		return domain.BatchRef{}, fmt.Errorf("checking %s: %w", key, err)
	}
	if exists {
		return domain.BatchRef{}, fmt.Errorf("%w: %s", domain.ErrAlreadyExists, key)
	}
	if err := s.bucket.put(ctx, key, data); err != nil {
		return domain.BatchRef{}, fmt.Errorf("uploading %s: %w", key, err)
	}

	s.next[prefix] = seq + 1
	return domain.BatchRef{SourceCode: code, SetSpec: setSpec, Sequence: seq, Key: key}, nil
}

func (s *Store) nextSequence(ctx context.Context, prefix string) (int, error) {
	if n, ok := s.next[prefix]; ok {
		return n, nil
	}
	keys, err := s.bucket.list(ctx, prefix)
	if err != nil {
		return 0, fmt.Errorf("listing %s: %w", prefix, err)
	}
	highest := 0
	for _, key := range keys {
		if ref, ok := rawstore.ParseKey(key); ok && ref.Sequence > highest {
			highest = ref.Sequence
		}
	}
	return highest + 1, nil
}

// List returns batches ordered by source, set and sequence.
func (s *Store) List(ctx context.Context, sourceCode, setSpec string) ([]domain.BatchRef, error) {
	code := domain.NormaliseSourceCode(sourceCode)
	prefix := ""
	if code != "" {
		prefix = strings.ToLower(code) + "/"
		if setSpec != "" {
			prefix = pairPrefix(code, setSpec)
		}
	}

	keys, err := s.bucket.list(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("listing batches: %w", err)
	}

	var refs []domain.BatchRef
	for _, key := range keys {
		if strings.Count(key, "/") != 2 {
			continue
		}
		ref, ok := rawstore.ParseKey(key)
		if !ok {
			continue
		}
		if setSpec != "" && ref.SetSpec != setSpec {
			continue
		}
		ref.Key = key
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool { return rawstore.Less(refs[i], refs[j]) })
	return refs, nil
}

// Read returns the content of a batch.
func (s *Store) Read(ctx context.Context, ref domain.BatchRef) ([]byte, error) {
	key := ref.Key
	if key == "" {
		key = rawstore.Key(ref.SourceCode, ref.SetSpec, ref.Sequence)
	}
	data, err := s.bucket.get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return data, nil
}

// Resolve accepts an object key, with or without a leading slash.
func (s *Store) Resolve(ctx context.Context, name string) (domain.BatchRef, error) {
	key := strings.TrimPrefix(name, "/")
	ref, ok := rawstore.ParseKey(key)
	if !ok || strings.Count(key, "/") != 2 {
		return domain.BatchRef{}, fmt.Errorf("%w: %s is not a batch key", domain.ErrInvalidInput, name)
	}
	exists, err := s.bucket.exists(ctx, key)
	if err != nil {
		return domain.BatchRef{}, fmt.Errorf("checking %s: %w", key, err)
	}
	if !exists {
		return domain.BatchRef{}, fmt.Errorf("%w: %s", domain.ErrNotFound, key)
	}
	ref.Key = key
	return ref, nil
}

// Watch is not available for buckets.
func (s *Store) Watch(context.Context) (<-chan domain.BatchRef, <-chan error, error) {
	return nil, nil, fmt.Errorf("%w: watching a minio bucket", domain.ErrNotImplemented)
}

func pairPrefix(code, setSpec string) string {
	return strings.ToLower(code) + "/" + setSpec + "/"
}

// minioBucket implements bucket with minio-go.
type minioBucket struct {
	client *minio.Client
	name   string
}

func (b *minioBucket) exists(ctx context.Context, key string) (bool, error) {
	_, err := b.client.StatObject(ctx, b.name, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, err
}

func (b *minioBucket) put(ctx context.Context, key string, data []byte) error {
	_, err := b.client.PutObject(ctx, b.name, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (b *minioBucket) get(ctx context.Context, key string) ([]byte, error) {
	obj, err := b.client.GetObject(ctx, b.name, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapError(err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, mapError(err)
	}
	return data, nil
}

func (b *minioBucket) list(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for info := range b.client.ListObjects(ctx, b.name, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if info.Err != nil {
			return nil, info.Err
		}
		keys = append(keys, info.Key)
	}
	return keys, nil
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
}

func mapError(err error) error {
	if isNotFound(err) {
		return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
	}
	return err
}
