package service

import (
	"archive/zip"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arqdiario/arqvault/pkg/configs"
	ctxPkg "github.com/arqdiario/arqvault/pkg/context"
	"github.com/arqdiario/arqvault/pkg/internal/model"
	"github.com/arqdiario/arqvault/pkg/internal/storage/db"
	"github.com/arqdiario/arqvault/pkg/internal/storage/mq"
	"github.com/arqdiario/arqvault/pkg/internal/types"
	"github.com/arqdiario/arqvault/pkg/log"
	"github.com/arqdiario/arqvault/pkg/metrics"
	"github.com/arqdiario/arqvault/pkg/queue"
)

// IngestService SIP 摄取管线：解析清单、合并元数据、建立 AIP、
// 提取包内文件写入对象存储.
type IngestService struct {
	dbClient *db.Client
	store    BlobStore
	mqClient *mq.Client
	taxonomy *TaxonomyService
	cfg      configs.IngestConfig
}

func NewIngestService(c context.Context) *IngestService {
	dbc := ctxPkg.GetDBClient(c)

	return &IngestService{
		dbClient: dbc,
		store:    ctxPkg.GetS3Client(c),
		mqClient: ctxPkg.GetMQClient(c),
		taxonomy: NewTaxonomyServiceWith(dbc),
		cfg:      configs.GetConfig().Ingest,
	}
}

// NewIngestServiceWith 以显式依赖构造，供测试使用.
func NewIngestServiceWith(dbc *db.Client, store BlobStore, mqc *mq.Client, cfg configs.IngestConfig) *IngestService {
	return &IngestService{
		dbClient: dbc,
		store:    store,
		mqClient: mqc,
		taxonomy: NewTaxonomyServiceWith(dbc),
		cfg:      cfg,
	}
}

// Ingest 执行一次完整的 SIP 摄取.sipPath 为已落盘的临时上传文件，
// 调用方负责在返回后删除（无论成败）.
//
// 管线严格顺序执行：校验、解析清单、合并元数据、建立 AIP(processing)、
// 提取文件、定稿.AIP 建立之前的任何失败不留下持久记录；之后的失败
// 将 AIP 置为 failed 并保留处理日志供诊断.
func (s *IngestService) Ingest(ctx context.Context, sipPath, sipName string, sipSize int64,
	form types.IngestForm, userID string) (*types.IngestResponse, error) {
	if err := s.validateUpload(sipName, sipSize); err != nil {
		metrics.IngestCounter.WithLabelValues("rejected").Inc()
		return nil, err
	}

	zr, err := zip.OpenReader(sipPath)
	if err != nil {
		metrics.IngestCounter.WithLabelValues("rejected").Inc()
		return nil, E(KindValidation, "uploaded file is not a valid zip archive", err)
	}
	defer zr.Close()

	manifest, err := ParseManifest(&zr.Reader)
	if err != nil {
		metrics.IngestCounter.WithLabelValues("rejected").Inc()
		return nil, err
	}

	if s.cfg.StrictManifest {
		if manifest == nil {
			metrics.IngestCounter.WithLabelValues("rejected").Inc()
			return nil, Validationf("package does not contain %s", manifestJSONName)
		}

		if err := manifest.ValidateStrict(); err != nil {
			metrics.IngestCounter.WithLabelValues("rejected").Inc()
			return nil, err
		}
	}

	if countPayloadEntries(&zr.Reader) == 0 && !s.cfg.AllowEmpty {
		metrics.IngestCounter.WithLabelValues("rejected").Inc()
		return nil, Validationf("package contains no files to archive")
	}

	meta, err := s.Reconcile(ctx, manifest, form, userID)
	if err != nil {
		metrics.IngestCounter.WithLabelValues("rejected").Inc()
		return nil, err
	}

	aip, err := s.createAIP(ctx, meta, sipName, sipSize)
	if err != nil {
		metrics.IngestCounter.WithLabelValues("failed").Inc()
		return nil, err
	}

	res := s.extractPackage(ctx, &zr.Reader, aip.ID)

	// 非空包零成功提取视为摄取失败
	if len(res.Files) == 0 && !s.cfg.AllowEmpty {
		reason := "no files could be extracted from the package"
		s.finalizeFailed(ctx, aip, res.Logs, reason)
		metrics.IngestCounter.WithLabelValues("failed").Inc()

		return nil, E(KindStorage, reason, nil)
	}

	if err := s.finalizeIngested(ctx, aip, res); err != nil {
		metrics.IngestCounter.WithLabelValues("failed").Inc()
		return nil, err
	}

	metrics.IngestCounter.WithLabelValues("ingested").Inc()
	metrics.IngestFileCounter.Add(float64(len(res.Files)))

	s.publishIngested(ctx, aip, len(res.Files), len(res.Skipped))

	return &types.IngestResponse{
		AIPID:          aip.ID,
		Status:         string(model.AIPStatusIngested),
		ProcessedFiles: len(res.Files),
		SkippedFiles:   len(res.Skipped),
		Metadata:       s.metadataView(ctx, aip),
	}, nil
}

// validateUpload 在解析之前拒绝类型不符或超限的上传.
func (s *IngestService) validateUpload(sipName string, sipSize int64) error {
	ext := strings.ToLower(filepath.Ext(sipName))
	if ext != ".zip" {
		return Validationf("unsupported package type %q, expected a .zip archive", ext)
	}

	if maxBytes := s.cfg.MaxUploadBytes(); sipSize > maxBytes {
		return Validationf("package exceeds maximum upload size of %d MB", s.cfg.MaxUploadMB)
	}

	return nil
}

// countPayloadEntries 统计包内除清单与目录外的条目数.
func countPayloadEntries(zr *zip.Reader) int {
	n := 0

	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}

		if isJSON, isXML := isManifestEntry(f.Name); isJSON || isXML {
			continue
		}

		n++
	}

	return n
}

// createAIP 以 processing 状态持久化 AIP.
func (s *IngestService) createAIP(ctx context.Context, meta *CanonicalMetadata,
	sipName string, sipSize int64) (*model.AIP, error) {
	aip := &model.AIP{
		ID:           uuid.NewString(),
		Title:        meta.Title,
		CreationDate: meta.CreationDate,
		TypeID:       meta.TypeID,
		Description:  meta.Description,
		Location:     meta.Location,
		Producer:     meta.Producer,
		Submitter:    meta.Submitter,
		IsPublic:     meta.IsPublic,
		SIPName:      sipName,
		SIPSize:      sipSize,
		Status:       model.AIPStatusProcessing,
	}

	if err := aip.SetTags(meta.TagIDs); err != nil {
		return nil, E(KindInternal, "encode tags", err)
	}

	if err := aip.SetExtra(meta.Extra); err != nil {
		return nil, E(KindInternal, "encode extra metadata", err)
	}

	dbx := s.dbClient.GetDB().WithContext(ctx)
	if err := dbx.Create(aip).Error; err != nil {
		return nil, E(KindStorage, "create AIP record", err)
	}

	return aip, nil
}

// finalizeIngested 写入文件记录与日志并将 AIP 标记为 ingested.
func (s *IngestService) finalizeIngested(ctx context.Context, aip *model.AIP, res extractResult) error {
	now := time.Now().UTC()

	logs := append(res.Logs, model.ProcessingLog{
		AIPID:     aip.ID,
		Timestamp: now,
		Level:     model.LogLevelInfo,
		Message:   fmt.Sprintf("ingested %d file(s), skipped %d", len(res.Files), len(res.Skipped)),
	})

	err := s.dbClient.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(res.Files) > 0 {
			if err := tx.Create(&res.Files).Error; err != nil {
				return err
			}
		}

		if err := tx.Create(&logs).Error; err != nil {
			return err
		}

		return tx.Model(&model.AIP{}).Where("id = ?", aip.ID).Updates(map[string]any{
			"status":      model.AIPStatusIngested,
			"ingested_at": now,
		}).Error
	})
	if err != nil {
		s.finalizeFailed(ctx, aip, res.Logs, "finalize ingestion: "+err.Error())
		return E(KindStorage, "finalize ingestion", err)
	}

	aip.Status = model.AIPStatusIngested
	aip.IngestedAt = &now

	return nil
}

// finalizeFailed 将 AIP 置为 failed 并尽可能保留日志.
func (s *IngestService) finalizeFailed(ctx context.Context, aip *model.AIP,
	logs []model.ProcessingLog, reason string) {
	dbx := s.dbClient.GetDB().WithContext(ctx)

	logs = append(logs, model.ProcessingLog{
		AIPID:     aip.ID,
		Timestamp: time.Now().UTC(),
		Level:     model.LogLevelError,
		Message:   reason,
	})

	if err := dbx.Create(&logs).Error; err != nil {
		log.Logger().Error().Err(err).Str("aip_id", aip.ID).Msg("persist failure logs")
	}

	if err := dbx.Model(&model.AIP{}).Where("id = ?", aip.ID).
		Update("status", model.AIPStatusFailed).Error; err != nil {
		log.Logger().Error().Err(err).Str("aip_id", aip.ID).Msg("mark AIP failed")
	}

	aip.Status = model.AIPStatusFailed

	if s.mqClient != nil {
		err := queue.PublishAIPIngestFailed(ctx, s.mqClient, queue.AIPIngestFailedPayload{
			AIP:     queue.AIPRef{ID: aip.ID, Title: aip.Title, Producer: aip.Producer},
			Error:   reason,
			SIPName: aip.SIPName,
		}, queue.WithProducer("arqvault"))
		if err != nil {
			log.Logger().Warn().Err(err).Str("aip_id", aip.ID).Msg("publish ingest failed event")
		}
	}
}

// publishIngested 尽力而为地发布摄取完成事件.
func (s *IngestService) publishIngested(ctx context.Context, aip *model.AIP, processed, skipped int) {
	if s.mqClient == nil {
		return
	}

	err := queue.PublishAIPIngested(ctx, s.mqClient, queue.AIPIngestedPayload{
		AIP: queue.AIPRef{
			ID:       aip.ID,
			Title:    aip.Title,
			Producer: aip.Producer,
			IsPublic: aip.IsPublic,
		},
		ProcessedFiles: processed,
		SkippedFiles:   skipped,
		SIPName:        aip.SIPName,
	}, queue.WithProducer("arqvault"))
	if err != nil {
		log.Logger().Warn().Err(err).Str("aip_id", aip.ID).Msg("publish ingested event")
	}
}

// metadataView 组装响应用的元数据视图，标签以名称呈现.
func (s *IngestService) metadataView(ctx context.Context, aip *model.AIP) types.AIPMetadata {
	return types.AIPMetadata{
		Title:        aip.Title,
		CreationDate: aip.CreationDate,
		Type:         aip.TypeID,
		Description:  aip.Description,
		Location:     aip.Location,
		Tags:         s.taxonomy.Names(ctx, aip.Tags()),
		Producer:     aip.Producer,
		Submitter:    aip.Submitter,
		IsPublic:     aip.IsPublic,
		Extra:        aip.Extra(),
	}
}
