package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	ctxPkg "github.com/arqdiario/arqvault/pkg/context"
	"github.com/arqdiario/arqvault/pkg/internal/model"
	"github.com/arqdiario/arqvault/pkg/internal/storage/db"
	"github.com/arqdiario/arqvault/pkg/internal/storage/mq"
	"github.com/arqdiario/arqvault/pkg/internal/types"
	"github.com/arqdiario/arqvault/pkg/log"
	"github.com/arqdiario/arqvault/pkg/queue"
)

// Requester 已认证请求方在 service 层的视图.
type Requester struct {
	ID      string
	IsAdmin bool
}

// AIPService 归档包的查询与可见性管理.
type AIPService struct {
	dbClient *db.Client
	mqClient *mq.Client
	taxonomy *TaxonomyService
}

func NewAIPService(c context.Context) *AIPService {
	dbc := ctxPkg.GetDBClient(c)

	return &AIPService{
		dbClient: dbc,
		mqClient: ctxPkg.GetMQClient(c),
		taxonomy: NewTaxonomyServiceWith(dbc),
	}
}

// NewAIPServiceWith 以显式依赖构造，供测试使用.
func NewAIPServiceWith(dbc *db.Client, mqc *mq.Client) *AIPService {
	return &AIPService{
		dbClient: dbc,
		mqClient: mqc,
		taxonomy: NewTaxonomyServiceWith(dbc),
	}
}

// canAccess 可见性规则：公开包任何人可见，私有包仅属主与管理员可见.
func canAccess(aip *model.AIP, req Requester) bool {
	return aip.IsPublic || req.IsAdmin || (req.ID != "" && req.ID == aip.Producer)
}

// fetchAuthorized 读取 AIP 并应用可见性规则.无权访问与不存在
// 统一返回 NotFound，避免泄露私有包的存在.
func (s *AIPService) fetchAuthorized(ctx context.Context, aipID string, req Requester) (*model.AIP, error) {
	dbx := s.dbClient.GetDB().WithContext(ctx)

	var aip model.AIP

	err := dbx.Preload("Files", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("seq")
	}).Preload("ProcessingLogs").First(&aip, "id = ?", aipID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("AIP")
		}

		return nil, E(KindStorage, "query AIP", err)
	}

	if !canAccess(&aip, req) {
		return nil, &Error{Kind: KindAuthorization, Message: "AIP not found"}
	}

	return &aip, nil
}

// List 分页查询请求方可见的 AIP.
func (s *AIPService) List(ctx context.Context, req types.ListAIPsRequest, requester Requester) (*types.ListAIPsResponse, error) {
	dbx := s.dbClient.GetDB().WithContext(ctx).Model(&model.AIP{})

	// 可见性过滤：管理员看全部，其余用户看公开的加自己的
	if !requester.IsAdmin {
		dbx = dbx.Where("is_public = ? OR producer = ?", true, requester.ID)
	}

	if req.Status != "" {
		dbx = dbx.Where("status = ?", req.Status)
	}

	if req.Search != "" {
		pattern := "%" + strings.ToLower(req.Search) + "%"
		dbx = dbx.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := dbx.Count(&total).Error; err != nil {
		return nil, E(KindStorage, "count AIPs", err)
	}

	order := sortColumn(req.Sort) + " " + sortOrder(req.Order)

	var aips []model.AIP

	err := dbx.Order(order).
		Offset((req.Page - 1) * req.PageSize).
		Limit(req.PageSize).
		Preload("Files").
		Find(&aips).Error
	if err != nil {
		return nil, E(KindStorage, "list AIPs", err)
	}

	resp := &types.ListAIPsResponse{
		AIPs:     make([]types.AIPSummary, 0, len(aips)),
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
	}

	for _, a := range aips {
		resp.AIPs = append(resp.AIPs, types.AIPSummary{
			ID:           a.ID,
			Title:        a.Title,
			CreationDate: a.CreationDate,
			Type:         a.TypeID,
			Producer:     a.Producer,
			IsPublic:     a.IsPublic,
			Status:       string(a.Status),
			FileCount:    len(a.Files),
			CreatedAt:    a.CreatedAt,
		})
	}

	return resp, nil
}

func sortColumn(sort string) string {
	switch sort {
	case "titulo":
		return "title"
	case "data_creacao":
		return "creation_date"
	default:
		return "created_at"
	}
}

func sortOrder(order string) string {
	if strings.EqualFold(order, "asc") {
		return "ASC"
	}

	return "DESC"
}

// Get 返回单个 AIP 的完整视图.
func (s *AIPService) Get(ctx context.Context, aipID string, requester Requester) (*types.AIPDetail, error) {
	aip, err := s.fetchAuthorized(ctx, aipID, requester)
	if err != nil {
		return nil, err
	}

	detail := &types.AIPDetail{
		ID: aip.ID,
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
		Status:     string(aip.Status),
		SIPName:    aip.SIPName,
		Files:      make([]types.FileView, 0, len(aip.Files)),
		IngestedAt: aip.IngestedAt,
		CreatedAt:  aip.CreatedAt,
	}

	for _, f := range aip.Files {
		detail.Files = append(detail.Files, types.FileView{
			ID:           f.ID,
			OriginalName: f.OriginalName,
			StoredName:   f.StoredName,
			Mimetype:     f.Mimetype,
			Size:         f.Size,
			Checksum:     f.Checksum,
		})
	}

	for _, l := range aip.ProcessingLogs {
		detail.Logs = append(detail.Logs, types.LogView{
			Timestamp: l.Timestamp,
			Level:     l.Level,
			Message:   l.Message,
		})
	}

	return detail, nil
}

// UpdateVisibility 变更公开/私有状态.仅属主与管理员可操作.
func (s *AIPService) UpdateVisibility(ctx context.Context, aipID string, isPublic bool, requester Requester) (*types.UpdateVisibilityResponse, error) {
	aip, err := s.fetchAuthorized(ctx, aipID, requester)
	if err != nil {
		return nil, err
	}

	// 公开包任何人可见，但改可见性仍限属主与管理员
	if !requester.IsAdmin && requester.ID != aip.Producer {
		return nil, &Error{Kind: KindAuthorization, Message: "AIP not found"}
	}

	wasPublic := aip.IsPublic

	if wasPublic != isPublic {
		dbx := s.dbClient.GetDB().WithContext(ctx)

		err := dbx.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&model.AIP{}).Where("id = ?", aipID).
				Update("is_public", isPublic).Error; err != nil {
				return err
			}

			return tx.Create(&model.ProcessingLog{
				AIPID:     aipID,
				Timestamp: time.Now().UTC(),
				Level:     model.LogLevelInfo,
				Message:   visibilityLogMessage(requester.ID, isPublic),
			}).Error
		})
		if err != nil {
			return nil, E(KindStorage, "update visibility", err)
		}

		if s.mqClient != nil {
			err := queue.PublishAIPVisibilityChanged(ctx, s.mqClient, queue.AIPVisibilityChangedPayload{
				AIP: queue.AIPRef{
					ID:       aip.ID,
					Title:    aip.Title,
					Producer: aip.Producer,
					IsPublic: isPublic,
				},
				WasPublic: wasPublic,
				ChangedBy: requester.ID,
			}, queue.WithProducer("arqvault"))
			if err != nil {
				log.Logger().Warn().Err(err).Str("aip_id", aip.ID).Msg("publish visibility event")
			}
		}
	}

	return &types.UpdateVisibilityResponse{ID: aipID, IsPublic: isPublic}, nil
}

func visibilityLogMessage(userID string, isPublic bool) string {
	if isPublic {
		return "visibility changed to public by " + userID
	}

	return "visibility changed to private by " + userID
}
