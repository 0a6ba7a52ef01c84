package service

import (
	"context"
	"io"

	"github.com/arqdiario/arqvault/pkg/internal/storage/s3"
)

// BlobStore 是摄取与导出所需的最小对象存储接口，由 s3.Client 实现.
type BlobStore interface {
	PutBlob(ctx context.Context, key string, r io.Reader, size int64, contentType string) (int64, error)
	GetBlob(ctx context.Context, key string) (io.ReadCloser, error)
	StatBlob(ctx context.Context, key string) (s3.BlobInfo, error)
	RemoveBlob(ctx context.Context, key string) error
}
