package service

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
)

// uploadWithChecksum 通过 TeeReader 在上传的同时计算 SHA-256 摘要，
// 避免对大文件做二次读取.返回写入字节数与十六进制摘要.
func uploadWithChecksum(ctx context.Context, store BlobStore, key string,
	r io.Reader, size int64, contentType string) (int64, string, error) {
	hasher := sha256.New()
	tee := io.TeeReader(r, hasher)

	n, err := store.PutBlob(ctx, key, tee, size, contentType)
	if err != nil {
		return 0, "", err
	}

	return n, fmt.Sprintf("%x", hasher.Sum(nil)), nil
}
