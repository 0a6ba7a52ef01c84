package service_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/arqdiario/arqvault/pkg/internal/model"
	"github.com/arqdiario/arqvault/pkg/internal/service"
	"github.com/arqdiario/arqvault/pkg/internal/storage/db"
	"github.com/arqdiario/arqvault/pkg/internal/types"
)

// writeSIP 将 zip 字节落盘为临时 SIP 文件.
func writeSIP(t *testing.T, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "upload.zip")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write sip: %v", err)
	}

	return path
}

func newIngest(t *testing.T) (*service.IngestService, *db.Client, *memStore) {
	t.Helper()

	dbc := newTestDB(t)
	store := newMemStore()
	svc := service.NewIngestServiceWith(dbc, store, nil, testIngestConfig())

	return svc, dbc, store
}

// TestIngestFullPipeline 清单加文件的完整摄取：AIP ingested、文件记录、
// 校验和、类型术语解析.
func TestIngestFullPipeline(t *testing.T) {
	svc, dbc, store := newIngest(t)

	data := buildZip(t, map[string]string{
		"manifesto-SIP.json": `{"metadata":{"titulo":"Trip","dataCreacao":"2024-01-01","tipo":"Travel"}}`,
		"photo.jpg":          "jpegdata",
		"diary.txt":          "dear diary",
	})

	resp, err := svc.Ingest(context.Background(), writeSIP(t, data), "trip.zip", int64(len(data)),
		types.IngestForm{}, "ana@example.com")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if resp.Status != "ingested" || resp.ProcessedFiles != 2 {
		t.Fatalf("resp = %+v", resp)
	}

	if resp.Metadata.Producer != "ana@example.com" || resp.Metadata.Submitter != "ana@example.com" {
		t.Errorf("producer/submitter = %q/%q", resp.Metadata.Producer, resp.Metadata.Submitter)
	}

	var aip model.AIP
	if err := dbc.GetDB().Preload("Files").Preload("ProcessingLogs").
		First(&aip, "id = ?", resp.AIPID).Error; err != nil {
		t.Fatalf("load AIP: %v", err)
	}

	if aip.Status != model.AIPStatusIngested {
		t.Errorf("Status = %s", aip.Status)
	}

	if aip.IngestedAt == nil {
		t.Error("IngestedAt not set")
	}

	if len(aip.Files) != 2 {
		t.Fatalf("len(Files) = %d", len(aip.Files))
	}

	for _, f := range aip.Files {
		if f.Checksum == "" || len(f.Checksum) != 64 {
			t.Errorf("file %s checksum = %q, want sha256 hex", f.OriginalName, f.Checksum)
		}

		if f.StoredName == f.OriginalName {
			t.Errorf("stored name %q not collision-resistant", f.StoredName)
		}

		if _, ok := store.blobs[f.ObjectKey]; !ok {
			t.Errorf("blob %s missing from store", f.ObjectKey)
		}
	}

	// tipo 解析为已建立的 category 术语
	var term model.TaxonomyTerm
	if err := dbc.GetDB().First(&term, "id = ?", aip.TypeID).Error; err != nil {
		t.Fatalf("type term not created: %v", err)
	}

	if term.Name != "Travel" || term.Kind != model.TaxonomyKindCategory {
		t.Errorf("term = %+v", term)
	}
}

// TestIngestFormWins 表单字段覆盖清单同名字段.
func TestIngestFormWins(t *testing.T) {
	svc, _, _ := newIngest(t)

	data := buildZip(t, map[string]string{
		"manifesto-SIP.json": `{"metadata":{"titulo":"Do Manifesto","descricao":"manter","isPublic":"true"}}`,
		"a.txt":              "x",
	})

	resp, err := svc.Ingest(context.Background(), writeSIP(t, data), "a.zip", int64(len(data)),
		types.IngestForm{Title: "Do Formulário", IsPublic: "nope"}, "ana@example.com")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if resp.Metadata.Title != "Do Formulário" {
		t.Errorf("Title = %q, form must win", resp.Metadata.Title)
	}

	if resp.Metadata.Description != "manter" {
		t.Errorf("Description = %q, manifest value must survive", resp.Metadata.Description)
	}

	// 表单的非真值覆盖清单的 "true"
	if resp.Metadata.IsPublic {
		t.Error("IsPublic = true, form value must win")
	}
}

// TestIngestNoManifest 宽松模式下无清单的包用表单元数据摄取.
func TestIngestNoManifest(t *testing.T) {
	svc, _, _ := newIngest(t)

	data := buildZip(t, map[string]string{"a.txt": "x"})

	resp, err := svc.Ingest(context.Background(), writeSIP(t, data), "a.zip", int64(len(data)),
		types.IngestForm{Title: "Só Formulário", IsPublic: "on"}, "ana@example.com")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if resp.Metadata.Title != "Só Formulário" || !resp.Metadata.IsPublic {
		t.Errorf("metadata = %+v", resp.Metadata)
	}

	// dataCreacao 回落到当前时间
	if resp.Metadata.CreationDate == "" {
		t.Error("CreationDate not defaulted")
	}
}

// TestIngestStrictManifest 严格模式下缺清单或缺核心字段直接拒绝，不留 AIP.
func TestIngestStrictManifest(t *testing.T) {
	dbc := newTestDB(t)
	cfg := testIngestConfig()
	cfg.StrictManifest = true
	svc := service.NewIngestServiceWith(dbc, newMemStore(), nil, cfg)

	noManifest := buildZip(t, map[string]string{"a.txt": "x"})

	_, err := svc.Ingest(context.Background(), writeSIP(t, noManifest), "a.zip", int64(len(noManifest)),
		types.IngestForm{}, "ana@example.com")
	if err == nil {
		t.Fatal("expected error without manifest in strict mode")
	}

	incomplete := buildZip(t, map[string]string{
		"manifesto-SIP.json": `{"metadata":{"titulo":"só título"}}`,
		"a.txt":              "x",
	})

	_, err = svc.Ingest(context.Background(), writeSIP(t, incomplete), "a.zip", int64(len(incomplete)),
		types.IngestForm{}, "ana@example.com")
	if err == nil {
		t.Fatal("expected error for incomplete manifest in strict mode")
	}

	var count int64
	dbc.GetDB().Model(&model.AIP{}).Count(&count)

	if count != 0 {
		t.Errorf("AIP count = %d, rejections must not persist records", count)
	}
}

// TestIngestEmptyPackage 零文件包默认拒绝.
func TestIngestEmptyPackage(t *testing.T) {
	svc, dbc, _ := newIngest(t)

	data := buildZip(t, map[string]string{
		"manifesto-SIP.json": `{"metadata":{"titulo":"vazio"}}`,
	})

	_, err := svc.Ingest(context.Background(), writeSIP(t, data), "vazio.zip", int64(len(data)),
		types.IngestForm{}, "ana@example.com")
	if err == nil {
		t.Fatal("expected error for package with no payload files")
	}

	var count int64
	dbc.GetDB().Model(&model.AIP{}).Count(&count)

	if count != 0 {
		t.Errorf("AIP count = %d, want 0", count)
	}
}

// TestIngestRejectsBadUpload 类型与大小校验在解析之前执行.
func TestIngestRejectsBadUpload(t *testing.T) {
	svc, _, _ := newIngest(t)
	ctx := context.Background()

	data := buildZip(t, map[string]string{"a.txt": "x"})

	if _, err := svc.Ingest(ctx, writeSIP(t, data), "notes.tar.gz", int64(len(data)),
		types.IngestForm{}, "ana@example.com"); err == nil {
		t.Error("expected error for non-zip extension")
	}

	oversize := int64(11 * 1024 * 1024) // 配置上限 10MB
	if _, err := svc.Ingest(ctx, writeSIP(t, data), "big.zip", oversize,
		types.IngestForm{}, "ana@example.com"); err == nil {
		t.Error("expected error for oversize upload")
	}
}

// TestIngestPartialFailure 单个条目写入失败时跳过并留 warning 日志，其余照常摄取.
func TestIngestPartialFailure(t *testing.T) {
	dbc := newTestDB(t)
	store := newMemStore()
	store.failSuffixes = []string{"_bad.txt"}
	svc := service.NewIngestServiceWith(dbc, store, nil, testIngestConfig())

	data := buildZip(t, map[string]string{
		"good.txt": "fine",
		"bad.txt":  "doomed",
	})

	resp, err := svc.Ingest(context.Background(), writeSIP(t, data), "p.zip", int64(len(data)),
		types.IngestForm{Title: "parcial"}, "ana@example.com")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if resp.Status != "ingested" || resp.ProcessedFiles != 1 || resp.SkippedFiles != 1 {
		t.Fatalf("resp = %+v", resp)
	}

	var aip model.AIP
	if err := dbc.GetDB().Preload("Files").Preload("ProcessingLogs").
		First(&aip, "id = ?", resp.AIPID).Error; err != nil {
		t.Fatalf("load AIP: %v", err)
	}

	if len(aip.Files) != 1 || aip.Files[0].OriginalName != "good.txt" {
		t.Errorf("Files = %+v", aip.Files)
	}

	hasWarning := false

	for _, l := range aip.ProcessingLogs {
		if l.Level == model.LogLevelWarning {
			hasWarning = true
		}
	}

	if !hasWarning {
		t.Error("expected a warning-level processing log for the skipped entry")
	}
}

// TestIngestAllEntriesFail 全部条目失败时 AIP 以 failed 状态保留并带错误日志.
func TestIngestAllEntriesFail(t *testing.T) {
	dbc := newTestDB(t)
	store := newMemStore()
	store.failAll = true
	svc := service.NewIngestServiceWith(dbc, store, nil, testIngestConfig())

	data := buildZip(t, map[string]string{"a.txt": "x"})

	_, err := svc.Ingest(context.Background(), writeSIP(t, data), "a.zip", int64(len(data)),
		types.IngestForm{Title: "condenado"}, "ana@example.com")
	if err == nil {
		t.Fatal("expected error when no files could be stored")
	}

	var aip model.AIP
	if err := dbc.GetDB().Preload("ProcessingLogs").First(&aip).Error; err != nil {
		t.Fatalf("failed AIP must be persisted: %v", err)
	}

	if aip.Status != model.AIPStatusFailed {
		t.Errorf("Status = %s, want failed", aip.Status)
	}

	hasError := false

	for _, l := range aip.ProcessingLogs {
		if l.Level == model.LogLevelError {
			hasError = true
		}
	}

	if !hasError {
		t.Error("expected an error-level processing log")
	}
}

// TestCoercePublic 可见性标记的宽松布尔化.
func TestCoercePublic(t *testing.T) {
	cases := map[string]bool{
		"true":  true,
		"TRUE":  true,
		"on":    true,
		"1":     true,
		"false": false,
		"off":   false,
		"yes":   false,
		"":      false,
	}

	for in, want := range cases {
		if got := service.CoercePublic(in); got != want {
			t.Errorf("CoercePublic(%q) = %v, want %v", in, got, want)
		}
	}
}

// TestIngestRequiresTitle titulo 必填：清单与表单都缺失时在建立 AIP 之前拒绝.
func TestIngestRequiresTitle(t *testing.T) {
	svc, dbc, _ := newIngest(t)

	data := buildZip(t, map[string]string{"a.txt": "x"})

	_, err := svc.Ingest(context.Background(), writeSIP(t, data), "a.zip", int64(len(data)),
		types.IngestForm{}, "ana@example.com")
	if err == nil {
		t.Fatal("expected error for package without titulo")
	}

	if service.AsError(err).Kind != service.KindValidation {
		t.Errorf("Kind = %v, want KindValidation", service.AsError(err).Kind)
	}

	var count int64
	dbc.GetDB().Model(&model.AIP{}).Count(&count)

	if count != 0 {
		t.Errorf("AIP count = %d, rejection must precede AIP creation", count)
	}

	// 清单提供 titulo 即可通过
	withManifest := buildZip(t, map[string]string{
		"manifesto-SIP.json": `{"metadata":{"titulo":"Do Manifesto"}}`,
		"a.txt":              "x",
	})

	resp, err := svc.Ingest(context.Background(), writeSIP(t, withManifest), "b.zip", int64(len(withManifest)),
		types.IngestForm{}, "ana@example.com")
	if err != nil {
		t.Fatalf("Ingest with manifest titulo: %v", err)
	}

	if resp.Metadata.Title != "Do Manifesto" {
		t.Errorf("Title = %q", resp.Metadata.Title)
	}
}

// TestIngestPreservesEntryPaths 子目录条目保留相对路径，同名基名互不覆盖.
func TestIngestPreservesEntryPaths(t *testing.T) {
	svc, dbc, store := newIngest(t)

	data := buildZip(t, map[string]string{
		"fotos/praia/vista.txt": "mar",
		"docs/vista.txt":        "nota",
	})

	resp, err := svc.Ingest(context.Background(), writeSIP(t, data), "n.zip", int64(len(data)),
		types.IngestForm{Title: "aninhado"}, "ana@example.com")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if resp.ProcessedFiles != 2 {
		t.Fatalf("ProcessedFiles = %d", resp.ProcessedFiles)
	}

	var files []model.FileRecord
	if err := dbc.GetDB().Order("seq").Find(&files, "aip_id = ?", resp.AIPID).Error; err != nil {
		t.Fatalf("load files: %v", err)
	}

	names := map[string]bool{}
	for _, f := range files {
		names[f.OriginalName] = true

		if _, ok := store.blobs[f.ObjectKey]; !ok {
			t.Errorf("blob %s missing", f.ObjectKey)
		}
	}

	if !names["fotos/praia/vista.txt"] || !names["docs/vista.txt"] {
		t.Errorf("OriginalName set = %v, want relative paths preserved", names)
	}
}
