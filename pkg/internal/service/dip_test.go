package service_test

import (
	"bytes"
	"context"
	"io"
	"regexp"
	"testing"

	"github.com/bytedance/sonic"

	"github.com/arqdiario/arqvault/pkg/internal/model"
	"github.com/arqdiario/arqvault/pkg/internal/service"
	"github.com/arqdiario/arqvault/pkg/internal/storage/db"
	"github.com/arqdiario/arqvault/pkg/internal/types"
)

// seedAIP 通过完整摄取管线准备一个已归档的 AIP，复用同一个对象存储.
func seedAIP(t *testing.T, title string, isPublic bool, owner string) (*db.Client, *memStore, string) {
	t.Helper()

	dbc := newTestDB(t)
	store := newMemStore()
	svc := service.NewIngestServiceWith(dbc, store, nil, testIngestConfig())

	pub := ""
	if isPublic {
		pub = "true"
	}

	data := buildZip(t, map[string]string{
		"photo.jpg": "jpegdata",
		"diary.txt": "dear diary",
	})

	resp, err := svc.Ingest(context.Background(), writeSIP(t, data), "sip.zip", int64(len(data)),
		types.IngestForm{Title: title, IsPublic: pub}, owner)
	if err != nil {
		t.Fatalf("seed ingest: %v", err)
	}

	return dbc, store, resp.AIPID
}

var dipNameRe = regexp.MustCompile(`^DIP-[A-Za-z0-9_]+-\d{8}T\d{6}\.zip$`)

// TestExportDIP 导出产生合法文件名，清单为包内首条目且内容完整.
func TestExportDIP(t *testing.T) {
	dbc, store, aipID := seedAIP(t, "Férias 2024: praia!", false, "ana@example.com")
	svc := service.NewDIPServiceWith(dbc, store, nil)
	requester := service.Requester{ID: "ana@example.com"}

	export, err := svc.PrepareExport(context.Background(), aipID, requester)
	if err != nil {
		t.Fatalf("PrepareExport: %v", err)
	}

	if !dipNameRe.MatchString(export.FileName) {
		t.Errorf("FileName = %q, want DIP-<title>-<token>.zip with [A-Za-z0-9_] title", export.FileName)
	}

	var buf bytes.Buffer
	if err := export.WriteTo(context.Background(), &buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	zr := openZip(t, buf.Bytes())

	if len(zr.File) != 3 {
		t.Fatalf("len(entries) = %d, want manifest + 2 files", len(zr.File))
	}

	if zr.File[0].Name != "manifesto-DIP.json" {
		t.Fatalf("first entry = %q, want manifesto-DIP.json", zr.File[0].Name)
	}

	rc, err := zr.File[0].Open()
	if err != nil {
		t.Fatalf("open manifest entry: %v", err)
	}

	raw, err := io.ReadAll(rc)
	rc.Close()

	if err != nil {
		t.Fatalf("read manifest entry: %v", err)
	}

	var manifest types.DIPManifest
	if err := sonic.Unmarshal(raw, &manifest); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}

	if manifest.AIPID != aipID || manifest.Metadata.Title != "Férias 2024: praia!" {
		t.Errorf("manifest = %+v", manifest)
	}

	if manifest.Type != "DIP" || manifest.Version == "" {
		t.Errorf("type/version = %q/%q", manifest.Type, manifest.Version)
	}

	if manifest.ExportedBy != "ana@example.com" {
		t.Errorf("ExportedBy = %q", manifest.ExportedBy)
	}

	if len(manifest.Files) != 2 || manifest.ExportedAt == "" {
		t.Errorf("files/exportedAt = %d/%q", len(manifest.Files), manifest.ExportedAt)
	}
}

// TestExportDIPMissingBlob 部分对象缺失时导出继续，缺失项记入 SkippedFiles.
func TestExportDIPMissingBlob(t *testing.T) {
	dbc, store, aipID := seedAIP(t, "diário", true, "ana@example.com")
	svc := service.NewDIPServiceWith(dbc, store, nil)

	var rec model.FileRecord
	if err := dbc.GetDB().First(&rec, "aip_id = ?", aipID).Error; err != nil {
		t.Fatalf("load file record: %v", err)
	}

	store.remove(rec.ObjectKey)

	export, err := svc.PrepareExport(context.Background(), aipID, service.Requester{ID: "ana@example.com"})
	if err != nil {
		t.Fatalf("PrepareExport: %v", err)
	}

	if len(export.Manifest.SkippedFiles) != 1 || export.Manifest.SkippedFiles[0] != rec.OriginalName {
		t.Errorf("SkippedFiles = %v", export.Manifest.SkippedFiles)
	}

	if len(export.Manifest.Files) != 1 {
		t.Errorf("len(Files) = %d, want 1", len(export.Manifest.Files))
	}

	var buf bytes.Buffer
	if err := export.WriteTo(context.Background(), &buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	zr := openZip(t, buf.Bytes())
	if len(zr.File) != 2 {
		t.Errorf("len(entries) = %d, want manifest + 1 file", len(zr.File))
	}
}

// TestExportDIPAllBlobsMissing 全部对象缺失时导出失败.
func TestExportDIPAllBlobsMissing(t *testing.T) {
	dbc, store, aipID := seedAIP(t, "vazio", true, "ana@example.com")
	svc := service.NewDIPServiceWith(dbc, store, nil)

	var recs []model.FileRecord
	if err := dbc.GetDB().Find(&recs, "aip_id = ?", aipID).Error; err != nil {
		t.Fatalf("load file records: %v", err)
	}

	for _, rec := range recs {
		store.remove(rec.ObjectKey)
	}

	_, err := svc.PrepareExport(context.Background(), aipID, service.Requester{ID: "ana@example.com"})
	if err == nil {
		t.Fatal("expected error when no file is available")
	}

	if service.AsError(err).Kind != service.KindStorage {
		t.Errorf("Kind = %v, want KindStorage", service.AsError(err).Kind)
	}
}

// TestExportDIPAuthorization 私有 AIP 仅所有者与管理员可导出，越权以 not found 呈现.
func TestExportDIPAuthorization(t *testing.T) {
	dbc, store, aipID := seedAIP(t, "privado", false, "ana@example.com")
	svc := service.NewDIPServiceWith(dbc, store, nil)
	ctx := context.Background()

	_, err := svc.PrepareExport(ctx, aipID, service.Requester{ID: "outra@example.com"})
	if err == nil {
		t.Fatal("expected error for non-owner on private AIP")
	}

	kind := service.AsError(err).Kind
	if kind != service.KindAuthorization && kind != service.KindNotFound {
		t.Errorf("Kind = %v, want authorization or not-found", kind)
	}

	if _, err := svc.PrepareExport(ctx, aipID, service.Requester{ID: "ana@example.com"}); err != nil {
		t.Errorf("owner export: %v", err)
	}

	if _, err := svc.PrepareExport(ctx, aipID, service.Requester{ID: "root@example.com", IsAdmin: true}); err != nil {
		t.Errorf("admin export: %v", err)
	}
}

// TestExportDIPPublicAccess 公开 AIP 任何用户可导出.
func TestExportDIPPublicAccess(t *testing.T) {
	dbc, store, aipID := seedAIP(t, "público", true, "ana@example.com")
	svc := service.NewDIPServiceWith(dbc, store, nil)

	if _, err := svc.PrepareExport(context.Background(), aipID,
		service.Requester{ID: "outra@example.com"}); err != nil {
		t.Errorf("public export by stranger: %v", err)
	}
}

// TestOpenFile 单文件下载：命中返回内容，未知文件与缺失对象均为 not found.
func TestOpenFile(t *testing.T) {
	dbc, store, aipID := seedAIP(t, "diário", false, "ana@example.com")
	svc := service.NewDIPServiceWith(dbc, store, nil)
	requester := service.Requester{ID: "ana@example.com"}
	ctx := context.Background()

	var rec model.FileRecord
	if err := dbc.GetDB().First(&rec, "aip_id = ? AND original_name = ?", aipID, "diary.txt").Error; err != nil {
		t.Fatalf("load file record: %v", err)
	}

	rc, got, err := svc.OpenFile(ctx, aipID, rec.ID, requester)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}

	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read blob: %v", err)
	}

	if string(data) != "dear diary" || got.OriginalName != "diary.txt" {
		t.Errorf("content = %q, record = %+v", data, got)
	}

	if _, _, err := svc.OpenFile(ctx, aipID, "missing-id", requester); err == nil {
		t.Error("expected error for unknown file ID")
	}

	store.remove(rec.ObjectKey)

	if _, _, err := svc.OpenFile(ctx, aipID, rec.ID, requester); err == nil {
		t.Error("expected error for vanished blob")
	} else if service.AsError(err).Kind != service.KindNotFound {
		t.Errorf("Kind = %v, want KindNotFound", service.AsError(err).Kind)
	}
}

// TestExportDIPNestedPaths 子目录文件以相对路径写入包内，同名基名不冲突.
func TestExportDIPNestedPaths(t *testing.T) {
	dbc := newTestDB(t)
	store := newMemStore()
	ingest := service.NewIngestServiceWith(dbc, store, nil, testIngestConfig())

	data := buildZip(t, map[string]string{
		"fotos/vista.txt": "mar",
		"docs/vista.txt":  "nota",
	})

	resp, err := ingest.Ingest(context.Background(), writeSIP(t, data), "n.zip", int64(len(data)),
		types.IngestForm{Title: "aninhado"}, "ana@example.com")
	if err != nil {
		t.Fatalf("seed ingest: %v", err)
	}

	svc := service.NewDIPServiceWith(dbc, store, nil)

	export, err := svc.PrepareExport(context.Background(), resp.AIPID, service.Requester{ID: "ana@example.com"})
	if err != nil {
		t.Fatalf("PrepareExport: %v", err)
	}

	var buf bytes.Buffer
	if err := export.WriteTo(context.Background(), &buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	zr := openZip(t, buf.Bytes())

	names := map[string]bool{}
	for _, f := range zr.File[1:] {
		if names[f.Name] {
			t.Errorf("duplicate entry %q in DIP", f.Name)
		}

		names[f.Name] = true
	}

	if !names["fotos/vista.txt"] || !names["docs/vista.txt"] {
		t.Errorf("entries = %v, want nested paths preserved", names)
	}
}
