package service_test

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/arqdiario/arqvault/pkg/configs"
	"github.com/arqdiario/arqvault/pkg/internal/model"
	"github.com/arqdiario/arqvault/pkg/internal/storage/db"
	s3c "github.com/arqdiario/arqvault/pkg/internal/storage/s3"
)

// newTestDB 打开内存 sqlite 并建表.
func newTestDB(t *testing.T) *db.Client {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		// 单条写入不包默认事务，便于用回调模拟并发写入竞争
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := model.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return &db.Client{DB: gdb}
}

// memStore 内存对象存储，实现 service.BlobStore.
type memStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
	types map[string]string
	// failSuffixes 指定 Put 时直接失败的键后缀，模拟存储故障.
	// 对象键含随机存储名，用后缀匹配原始文件名.
	failSuffixes []string
	// failAll 为真时所有写入失败
	failAll bool
}

func newMemStore() *memStore {
	return &memStore{
		blobs: map[string][]byte{},
		types: map[string]string{},
	}
}

func (m *memStore) PutBlob(_ context.Context, key string, r io.Reader, _ int64, contentType string) (int64, error) {
	if m.failAll {
		return 0, fmt.Errorf("simulated storage failure for %s", key)
	}

	for _, suffix := range m.failSuffixes {
		if strings.HasSuffix(key, suffix) {
			return 0, fmt.Errorf("simulated storage failure for %s", key)
		}
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.blobs[key] = data
	m.types[key] = contentType

	return int64(len(data)), nil
}

func (m *memStore) GetBlob(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.blobs[key]
	if !ok {
		return nil, fmt.Errorf("blob %s not found", key)
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memStore) StatBlob(_ context.Context, key string) (s3c.BlobInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.blobs[key]
	if !ok {
		return s3c.BlobInfo{}, fmt.Errorf("blob %s not found", key)
	}

	return s3c.BlobInfo{Size: int64(len(data)), ContentType: m.types[key]}, nil
}

func (m *memStore) RemoveBlob(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.blobs, key)

	return nil
}

func (m *memStore) remove(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.blobs, key)
}

// testIngestConfig 测试用的摄取配置.
func testIngestConfig() configs.IngestConfig {
	return configs.IngestConfig{
		MaxUploadMB:     10,
		StrictManifest:  false,
		AllowEmpty:      false,
		ObjectPrefix:    "aips",
		StaleAfterHours: 6,
	}
}

// buildZip 在内存中构造 zip 包.entries 为文件名到内容的映射.
func buildZip(t *testing.T, entries map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer

	zw := zip.NewWriter(&buf)
	for name, content := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create zip entry %s: %v", name, err)
		}

		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("write zip entry %s: %v", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	return buf.Bytes()
}

// openZip 从字节切片打开 zip.Reader.
func openZip(t *testing.T, data []byte) *zip.Reader {
	t.Helper()

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}

	return zr
}
