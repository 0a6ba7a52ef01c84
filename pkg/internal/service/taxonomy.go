package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	ctxPkg "github.com/arqdiario/arqvault/pkg/context"
	"github.com/arqdiario/arqvault/pkg/internal/model"
	"github.com/arqdiario/arqvault/pkg/internal/storage/db"
	"github.com/arqdiario/arqvault/pkg/internal/types"
)

// TaxonomyService 管理分类术语：档案类型（category）与标签（tag）.
type TaxonomyService struct {
	dbClient *db.Client
}

func NewTaxonomyService(c context.Context) *TaxonomyService {
	return &TaxonomyService{dbClient: ctxPkg.GetDBClient(c)}
}

// NewTaxonomyServiceWith 以显式依赖构造，供任务与测试使用.
func NewTaxonomyServiceWith(dbc *db.Client) *TaxonomyService {
	return &TaxonomyService{dbClient: dbc}
}

// ResolveOrCreate 按名称解析术语，不存在则创建.匹配不区分大小写，
// 首次出现时保留原始拼写.value 也可以直接是已存在术语的 ID.
// 并发创建撞到唯一索引时重新按名称读取，保证幂等.
func (s *TaxonomyService) ResolveOrCreate(ctx context.Context, kind model.TaxonomyKind, value string) (*model.TaxonomyTerm, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, Validationf("taxonomy term name must not be empty")
	}

	dbx := s.dbClient.GetDB().WithContext(ctx)

	// 先按 ID 匹配，允许提交端直接引用已有术语
	if _, err := uuid.Parse(value); err == nil {
		var byID model.TaxonomyTerm
		if err := dbx.Where("id = ? AND kind = ?", value, kind).First(&byID).Error; err == nil {
			return &byID, nil
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, E(KindStorage, "query taxonomy term", err)
		}
	}

	lower := strings.ToLower(value)

	var term model.TaxonomyTerm

	err := dbx.Where("kind = ? AND name_lower = ?", kind, lower).First(&term).Error
	if err == nil {
		return &term, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, E(KindStorage, "query taxonomy term", err)
	}

	term = model.TaxonomyTerm{
		ID:          uuid.NewString(),
		Kind:        kind,
		Name:        value,
		NameLower:   lower,
		Description: fmt.Sprintf("Auto-created %s for %s", kind, value),
		Icon:        defaultTermIcon(kind),
	}

	if err := dbx.Create(&term).Error; err != nil {
		// 并发创建：唯一索引冲突后重读
		var existing model.TaxonomyTerm
		if e2 := dbx.Where("kind = ? AND name_lower = ?", kind, lower).First(&existing).Error; e2 == nil {
			return &existing, nil
		}

		return nil, E(KindStorage, "create taxonomy term", err)
	}

	return &term, nil
}

// defaultTermIcon 自动创建术语的缺省图标.
func defaultTermIcon(kind model.TaxonomyKind) string {
	if kind == model.TaxonomyKindCategory {
		return "📄"
	}

	return "🏷️"
}

// ResolveOrCreateMany 解析逗号分隔的术语名/ID 列表，返回术语 ID 列表.
// 空白项被忽略，重复项去重且保持首次出现的顺序.
func (s *TaxonomyService) ResolveOrCreateMany(ctx context.Context, kind model.TaxonomyKind, raw string) ([]string, error) {
	var (
		ids  []string
		seen = map[string]bool{}
	)

	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		term, err := s.ResolveOrCreate(ctx, kind, part)
		if err != nil {
			return nil, err
		}

		if !seen[term.ID] {
			seen[term.ID] = true
			ids = append(ids, term.ID)
		}
	}

	return ids, nil
}

// List 查询术语列表，可按种类与名称过滤.
func (s *TaxonomyService) List(ctx context.Context, req types.ListTermsRequest) (*types.ListTermsResponse, error) {
	dbx := s.dbClient.GetDB().WithContext(ctx).Model(&model.TaxonomyTerm{})

	if req.Kind != "" {
		dbx = dbx.Where("kind = ?", req.Kind)
	}

	if req.Search != "" {
		dbx = dbx.Where("name_lower LIKE ?", "%"+strings.ToLower(req.Search)+"%")
	}

	var terms []model.TaxonomyTerm
	if err := dbx.Order("kind, name_lower").Find(&terms).Error; err != nil {
		return nil, E(KindStorage, "list taxonomy terms", err)
	}

	resp := &types.ListTermsResponse{Terms: make([]types.TermView, 0, len(terms)), Total: len(terms)}
	for _, t := range terms {
		resp.Terms = append(resp.Terms, types.TermView{
			ID:          t.ID,
			Kind:        string(t.Kind),
			Name:        t.Name,
			Description: t.Description,
			Color:       t.Color,
			Icon:        t.Icon,
			ParentID:    t.ParentID,
			Level:       t.Level,
		})
	}

	return resp, nil
}

// Names 将术语 ID 列表映射回名称，未知 ID 原样返回.
func (s *TaxonomyService) Names(ctx context.Context, ids []string) []string {
	if len(ids) == 0 {
		return nil
	}

	dbx := s.dbClient.GetDB().WithContext(ctx)

	var terms []model.TaxonomyTerm
	if err := dbx.Where("id IN ?", ids).Find(&terms).Error; err != nil {
		return ids
	}

	byID := make(map[string]string, len(terms))
	for _, t := range terms {
		byID[t.ID] = t.Name
	}

	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if n, ok := byID[id]; ok {
			names = append(names, n)
		} else {
			names = append(names, id)
		}
	}

	return names
}
