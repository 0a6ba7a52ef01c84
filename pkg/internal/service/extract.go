package service

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/oklog/ulid"

	"github.com/arqdiario/arqvault/pkg/internal/model"
	"github.com/arqdiario/arqvault/pkg/log"
)

// extractResult 单次提取的汇总.
type extractResult struct {
	Files []model.FileRecord
	// Skipped 无法读取或写入而被跳过的条目名
	Skipped []string
	Logs    []model.ProcessingLog
}

// sniffLen MIME 嗅探读取的内容头长度.
const sniffLen = 512

var ulidEntropy = ulid.Monotonic(rand.Reader, 0)

// newStoredName 生成抗冲突的存储名：ULID 前缀加原始文件名.
func newStoredName(originalName string) string {
	id := ulid.MustNew(ulid.Timestamp(time.Now()), ulidEntropy)
	return id.String() + "_" + originalName
}

// detectMimetype 按扩展名推断 MIME 类型，无法识别时嗅探内容头，
// 仍无结果则回落到 application/octet-stream.
func detectMimetype(name string, head []byte) string {
	if ext := path.Ext(name); ext != "" {
		if mt := mime.TypeByExtension(ext); mt != "" {
			return mt
		}
	}

	if len(head) > 0 {
		if mt := mimetype.Detect(head); mt != nil {
			return mt.String()
		}
	}

	return "application/octet-stream"
}

// normalizeEntryName 归一化 zip 条目名为相对路径：反斜杠转正斜杠，
// 去掉前导斜杠，越界（..）与空条目返回空串表示丢弃.
func normalizeEntryName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Clean(name)
	name = strings.TrimPrefix(name, "/")

	if name == "" || name == "." || name == ".." || strings.HasPrefix(name, "../") {
		return ""
	}

	return name
}

// extractPackage 遍历 zip 内除清单与目录外的全部条目，逐个写入对象存储.
// 单个条目失败记录 warning 日志并跳过（best-effort），调用方根据
// 成功数量决定摄取结果.条目顺序保持包内原始顺序，子目录路径原样保留，
// 保证清单与导出可复现.
func (s *IngestService) extractPackage(ctx context.Context, zr *zip.Reader, aipID string) extractResult {
	var res extractResult

	seq := 0

	for _, entry := range zr.File {
		if entry.FileInfo().IsDir() {
			continue
		}

		if isJSON, isXML := isManifestEntry(entry.Name); isJSON || isXML {
			continue
		}

		originalName := normalizeEntryName(entry.Name)
		if originalName == "" {
			continue
		}

		seq++

		record, err := s.storeEntry(ctx, entry, aipID, originalName, seq)
		if err != nil {
			log.Logger().Warn().Err(err).
				Str("aip_id", aipID).
				Str("entry", entry.Name).
				Msg("skipping package entry")

			res.Skipped = append(res.Skipped, originalName)
			res.Logs = append(res.Logs, model.ProcessingLog{
				AIPID:     aipID,
				Timestamp: time.Now().UTC(),
				Level:     model.LogLevelWarning,
				Message:   fmt.Sprintf("skipped entry %q: %v", originalName, err),
			})

			continue
		}

		res.Files = append(res.Files, *record)
	}

	return res
}

// storeEntry 将单个 zip 条目流式写入对象存储并生成文件记录.
func (s *IngestService) storeEntry(ctx context.Context, entry *zip.File,
	aipID, originalName string, seq int) (*model.FileRecord, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, fmt.Errorf("open entry: %w", err)
	}
	defer rc.Close()

	// 读取内容头用于 MIME 嗅探，再拼回完整流
	head := make([]byte, sniffLen)
	n, rerr := io.ReadFull(rc, head)
	if rerr != nil && rerr != io.ErrUnexpectedEOF && rerr != io.EOF {
		return nil, fmt.Errorf("read entry: %w", rerr)
	}
	head = head[:n]

	// 存储名只用基名，相对路径保留在 OriginalName 与导出条目中
	storedName := newStoredName(path.Base(originalName))
	objectKey := fmt.Sprintf("%s/%s/%s", s.cfg.ObjectPrefix, aipID, storedName)
	contentType := detectMimetype(originalName, head)

	size, checksum, err := uploadWithChecksum(ctx, s.store, objectKey,
		io.MultiReader(bytes.NewReader(head), rc),
		int64(entry.UncompressedSize64), contentType)
	if err != nil {
		return nil, fmt.Errorf("store entry: %w", err)
	}

	return &model.FileRecord{
		ID:           uuid.NewString(),
		AIPID:        aipID,
		Seq:          seq,
		OriginalName: originalName,
		StoredName:   storedName,
		ObjectKey:    objectKey,
		Mimetype:     contentType,
		Size:         size,
		Checksum:     checksum,
	}, nil
}
