package service

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"golang.org/x/sync/errgroup"

	ctxPkg "github.com/arqdiario/arqvault/pkg/context"
	"github.com/arqdiario/arqvault/pkg/internal/model"
	"github.com/arqdiario/arqvault/pkg/internal/storage/db"
	"github.com/arqdiario/arqvault/pkg/internal/storage/mq"
	"github.com/arqdiario/arqvault/pkg/internal/storage/s3"
	"github.com/arqdiario/arqvault/pkg/internal/types"
	"github.com/arqdiario/arqvault/pkg/log"
	"github.com/arqdiario/arqvault/pkg/metrics"
	"github.com/arqdiario/arqvault/pkg/queue"
)

const (
	dipManifestName = "manifesto-DIP.json"

	dipPackageType     = "DIP"
	dipManifestVersion = "1.0"
)

// DIPService 分发包导出与单文件下载.
type DIPService struct {
	dbClient *db.Client
	store    BlobStore
	mqClient *mq.Client
	aips     *AIPService
	taxonomy *TaxonomyService
}

func NewDIPService(c context.Context) *DIPService {
	dbc := ctxPkg.GetDBClient(c)

	return &DIPService{
		dbClient: dbc,
		store:    ctxPkg.GetS3Client(c),
		mqClient: ctxPkg.GetMQClient(c),
		aips:     NewAIPServiceWith(dbc, ctxPkg.GetMQClient(c)),
		taxonomy: NewTaxonomyServiceWith(dbc),
	}
}

// NewDIPServiceWith 以显式依赖构造，供测试使用.
func NewDIPServiceWith(dbc *db.Client, store BlobStore, mqc *mq.Client) *DIPService {
	return &DIPService{
		dbClient: dbc,
		store:    store,
		mqClient: mqc,
		aips:     NewAIPServiceWith(dbc, mqc),
		taxonomy: NewTaxonomyServiceWith(dbc),
	}
}

// Export 一次待执行的 DIP 导出.先经 PrepareExport 做授权与存量预检，
// 再以 WriteTo 流式写出 zip.
type Export struct {
	// FileName DIP-<标题>-<token>.zip，字符限 [A-Za-z0-9_]
	FileName string
	Manifest types.DIPManifest

	svc       *DIPService
	aip       *model.AIP
	available []model.FileRecord
	requester Requester
}

var sanitizeRe = regexp.MustCompile(`[^A-Za-z0-9_]+`)

// sanitizeTitle 将标题压缩为文件名安全的片段.
func sanitizeTitle(title string) string {
	s := sanitizeRe.ReplaceAllString(title, "_")
	if s == "" || s == "_" {
		s = "arquivo"
	}

	const maxLen = 64
	if len(s) > maxLen {
		s = s[:maxLen]
	}

	return s
}

// PrepareExport 授权、读取文件记录并并发预检对象存储中的存量.
// 缺失的文件记入清单的 skippedFiles；全部缺失时返回错误而不是产出空包.
func (s *DIPService) PrepareExport(ctx context.Context, aipID string, requester Requester) (*Export, error) {
	aip, err := s.aips.fetchAuthorized(ctx, aipID, requester)
	if err != nil {
		return nil, err
	}

	if len(aip.Files) == 0 {
		return nil, E(KindValidation, "AIP has no files to export", nil)
	}

	// 并发 stat，跳过存储中已缺失的对象
	var (
		mu        sync.Mutex
		available []model.FileRecord
		skipped   []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)

	for _, f := range aip.Files {
		g.Go(func() error {
			_, statErr := s.store.StatBlob(gctx, f.ObjectKey)

			mu.Lock()
			defer mu.Unlock()

			if statErr != nil {
				log.Logger().Warn().Err(statErr).
					Str("aip_id", aip.ID).
					Str("object_key", f.ObjectKey).
					Msg("stored file missing, skipping in export")

				skipped = append(skipped, f.OriginalName)

				return nil
			}

			available = append(available, f)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, E(KindStorage, "preflight stored files", err)
	}

	if len(available) == 0 {
		return nil, E(KindStorage, "none of the archived files are available in storage", nil)
	}

	// 清单与包内容保持包内原始顺序
	sortBySeq(available)

	manifest := types.DIPManifest{
		Type:    dipPackageType,
		Version: dipManifestVersion,
		AIPID:   aip.ID,
		Metadata: types.AIPMetadata{
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
		},
		Files:        make([]types.FileView, 0, len(available)),
		ExportedAt:   time.Now().UTC().Format(time.RFC3339),
		ExportedBy:   requester.ID,
		SkippedFiles: skipped,
	}

	for _, f := range available {
		manifest.Files = append(manifest.Files, types.FileView{
			ID:           f.ID,
			OriginalName: f.OriginalName,
			StoredName:   f.StoredName,
			Mimetype:     f.Mimetype,
			Size:         f.Size,
			Checksum:     f.Checksum,
		})
	}

	token := time.Now().UTC().Format("20060102T150405")
	fileName := fmt.Sprintf("DIP-%s-%s.zip", sanitizeTitle(aip.Title), token)

	return &Export{
		FileName:  fileName,
		Manifest:  manifest,
		svc:       s,
		aip:       aip,
		available: available,
		requester: requester,
	}, nil
}

func sortBySeq(files []model.FileRecord) {
	sort.Slice(files, func(i, j int) bool { return files[i].Seq < files[j].Seq })
}

// WriteTo 将 DIP 以 zip 流写入 w.清单为首条目，其后按原始顺序写入文件.
// 预检通过后又消失的对象记 warning 并跳过.
func (e *Export) WriteTo(ctx context.Context, w io.Writer) error {
	zw := zip.NewWriter(w)
	defer zw.Close()

	manifestBytes, err := sonic.MarshalIndent(e.Manifest, "", "  ")
	if err != nil {
		return E(KindInternal, "encode DIP manifest", err)
	}

	mw, err := zw.CreateHeader(&zip.FileHeader{
		Name:     dipManifestName,
		Method:   zip.Deflate,
		Modified: time.Now().UTC(),
	})
	if err != nil {
		return E(KindInternal, "write DIP manifest", err)
	}

	if _, err := mw.Write(manifestBytes); err != nil {
		return E(KindInternal, "write DIP manifest", err)
	}

	included := 0

	for _, f := range e.available {
		obj, err := e.svc.store.GetBlob(ctx, f.ObjectKey)
		if err != nil {
			log.Logger().Warn().Err(err).
				Str("aip_id", e.aip.ID).
				Str("object_key", f.ObjectKey).
				Msg("stored file vanished during export")

			continue
		}

		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:   f.OriginalName,
			Method: zip.Deflate,
		})
		if err != nil {
			obj.Close()
			return E(KindInternal, "create zip entry", err)
		}

		if _, err := io.Copy(fw, obj); err != nil {
			obj.Close()
			return E(KindStorage, "stream stored file", err)
		}

		obj.Close()

		included++
	}

	metrics.ExportCounter.Inc()
	e.svc.logExport(ctx, e.aip, e.requester, e.FileName, included, len(e.Manifest.SkippedFiles))

	return nil
}

// logExport 记录导出日志并发布事件.
func (s *DIPService) logExport(ctx context.Context, aip *model.AIP, requester Requester,
	fileName string, included, skipped int) {
	dbx := s.dbClient.GetDB().WithContext(ctx)

	plog := model.ProcessingLog{
		AIPID:     aip.ID,
		Timestamp: time.Now().UTC(),
		Level:     model.LogLevelInfo,
		Message:   fmt.Sprintf("DIP exported as %s by %s (%d file(s), %d skipped)", fileName, requester.ID, included, skipped),
	}
	if err := dbx.Create(&plog).Error; err != nil {
		log.Logger().Warn().Err(err).Str("aip_id", aip.ID).Msg("persist export log")
	}

	if s.mqClient != nil {
		err := queue.PublishDIPExported(ctx, s.mqClient, queue.DIPExportedPayload{
			AIP: queue.AIPRef{
				ID:       aip.ID,
				Title:    aip.Title,
				Producer: aip.Producer,
				IsPublic: aip.IsPublic,
			},
			FileName:      fileName,
			IncludedFiles: included,
			SkippedFiles:  skipped,
			RequestedBy:   requester.ID,
		}, queue.WithProducer("arqvault"))
		if err != nil {
			log.Logger().Warn().Err(err).Str("aip_id", aip.ID).Msg("publish export event")
		}
	}
}

// OpenFile 以相同的可见性规则打开单个已存档文件.
// 文件记录或底层对象缺失都返回 NotFound.
func (s *DIPService) OpenFile(ctx context.Context, aipID, fileID string, requester Requester) (io.ReadCloser, *model.FileRecord, error) {
	aip, err := s.aips.fetchAuthorized(ctx, aipID, requester)
	if err != nil {
		return nil, nil, err
	}

	var record *model.FileRecord

	for i := range aip.Files {
		if aip.Files[i].ID == fileID {
			record = &aip.Files[i]
			break
		}
	}

	if record == nil {
		return nil, nil, NotFound("file")
	}

	obj, err := s.store.GetBlob(ctx, record.ObjectKey)
	if err != nil {
		return nil, nil, NotFound("file")
	}

	return obj, record, nil
}

// 确认 s3.Client 满足导出所需的接口.
var _ BlobStore = (*s3.Client)(nil)
