package s3

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"kvfiles/internal/keystore"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MetadataField 是承载 keystore.Key.Metadata（JSON）的对象 user metadata 名。
const MetadataField = "Kv-Metadata"

const userMetaPrefix = "x-amz-meta-"

// Config 包含 S3/MinIO 连接所需的配置。
type Config struct {
	Endpoint  string // 不含协议，如 "localhost:9000"
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	Logger    *slog.Logger
}

type objectLister interface {
	ListObjects(ctx context.Context, bucket string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
}

// Store 把 bucket 中的对象当作 key 列举，对象名即 key 名。
type Store struct {
	client objectLister
	bucket string
	logger *slog.Logger
}

// New 创建客户端并确认 bucket 存在；列举是只读操作，不会自动建桶。
func New(ctx context.Context, cfg Config) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket exists: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %s does not exist", cfg.Bucket)
	}

	return &Store{client: client, bucket: cfg.Bucket, logger: cfg.Logger}, nil
}

// List 使用 StartAfter 做续页，读到 limit+1 个对象后取消底层列举。
func (s *Store) List(ctx context.Context, opts keystore.ListOptions) (*keystore.Page, error) {
	if s == nil || s.client == nil {
		return nil, fmt.Errorf("s3 keystore uninitialized")
	}

	after, err := keystore.DecodeCursor(opts.Cursor)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	limit := opts.EffectiveLimit()
	objects := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:       opts.Prefix,
		StartAfter:   after,
		Recursive:    true,
		MaxKeys:      limit + 1,
		WithMetadata: true,
	})

	page := &keystore.Page{ListComplete: true}
	for obj := range objects {
		if obj.Err != nil {
			return nil, fmt.Errorf("list objects: %w", obj.Err)
		}
		// 目录占位对象
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}
		if len(page.Keys) == limit {
			page.ListComplete = false
			page.Cursor = keystore.EncodeCursor(page.Keys[len(page.Keys)-1].Name)
			break
		}

		metadata, err := decodeUserMetadata(obj.UserMetadata)
		if err != nil {
			page.Keys = append(page.Keys, keystore.UndecodableKey(s.logger, obj.Key, err))
			continue
		}
		page.Keys = append(page.Keys, keystore.Key{Name: obj.Key, Metadata: metadata})
	}

	return page, nil
}

// decodeUserMetadata 优先解析 Kv-Metadata 中的 JSON，
// 其余 user metadata 以字符串形式补充进去（不覆盖 JSON 中已有字段）。
func decodeUserMetadata(user map[string]string) (map[string]any, error) {
	if len(user) == 0 {
		return nil, nil
	}

	out := map[string]any{}
	extra := map[string]string{}
	for rawKey, value := range user {
		name := rawKey
		if strings.HasPrefix(strings.ToLower(name), userMetaPrefix) {
			name = name[len(userMetaPrefix):]
		}
		if strings.EqualFold(name, MetadataField) {
			if err := json.Unmarshal([]byte(value), &out); err != nil {
				return nil, err
			}
			continue
		}
		extra[name] = value
	}

	for name, value := range extra {
		if _, ok := out[name]; !ok {
			out[name] = value
		}
	}
	return out, nil
}
