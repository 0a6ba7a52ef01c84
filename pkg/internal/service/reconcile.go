package service

import (
	"context"
	"strings"
	"time"

	"github.com/arqdiario/arqvault/pkg/internal/model"
	"github.com/arqdiario/arqvault/pkg/internal/types"
)

// CanonicalMetadata 合并清单与表单后的权威元数据，可直接写入 AIP.
type CanonicalMetadata struct {
	Title        string
	CreationDate string
	TypeID       string
	Description  string
	Location     string
	TagIDs       []string
	Producer     string
	Submitter    string
	IsPublic     bool
	Extra        map[string]any
}

// Reconcile 合并清单元数据与表单字段.规则按序：
//  1. 清单为基底，未识别键原样保留
//  2. 表单字段覆盖同名清单字段（form-wins）
//  3. titulo 必填，两个来源都缺失时拒绝
//  4. produtor 与 submitter 强制为认证用户，清单无法冒名归属
//  5. dataCreacao 按表单、清单、当前日期的顺序取值
//  6. tipo 经术语解析为 category 引用
//  7. tags 归一化后逐项解析为 tag 引用
//  8. isPublic 宽松布尔化
func (s *IngestService) Reconcile(ctx context.Context, manifest *Manifest, form types.IngestForm, userID string) (*CanonicalMetadata, error) {
	meta := &CanonicalMetadata{
		Producer:  userID,
		Submitter: userID,
	}

	var (
		typeValue string
		tagsRaw   []string
		isPublic  string
	)

	if manifest != nil {
		meta.Title = manifest.Title
		meta.CreationDate = manifest.CreationDate
		meta.Description = manifest.Description
		meta.Location = manifest.Location
		meta.Extra = manifest.Extra
		typeValue = manifest.Type
		tagsRaw = manifest.Tags
		isPublic = manifest.IsPublic
	}

	// 表单覆盖
	if v := strings.TrimSpace(form.Title); v != "" {
		meta.Title = v
	}

	if v := strings.TrimSpace(form.CreationDate); v != "" {
		meta.CreationDate = v
	}

	if v := strings.TrimSpace(form.Description); v != "" {
		meta.Description = v
	}

	if v := strings.TrimSpace(form.Location); v != "" {
		meta.Location = v
	}

	if v := strings.TrimSpace(form.Type); v != "" {
		typeValue = v
	}

	if v := strings.TrimSpace(form.Tags); v != "" {
		tagsRaw = splitTrimmed(v)
	}

	if v := strings.TrimSpace(form.IsPublic); v != "" {
		isPublic = v
	}

	// titulo 必填，清单与表单都没有给出时直接拒绝
	if meta.Title == "" {
		return nil, Validationf("titulo is required, provide it as a form field or in the package manifest")
	}

	if meta.CreationDate == "" {
		meta.CreationDate = time.Now().UTC().Format(time.RFC3339)
	}

	meta.IsPublic = CoercePublic(isPublic)

	if typeValue != "" {
		term, err := s.taxonomy.ResolveOrCreate(ctx, model.TaxonomyKindCategory, typeValue)
		if err != nil {
			return nil, err
		}

		meta.TypeID = term.ID
	}

	if len(tagsRaw) > 0 {
		ids, err := s.taxonomy.ResolveOrCreateMany(ctx, model.TaxonomyKindTag, strings.Join(tagsRaw, ","))
		if err != nil {
			return nil, err
		}

		meta.TagIDs = ids
	}

	return meta, nil
}

// CoercePublic 宽松解析可见性标记：true/"true"/"on"/"1" 视为公开，其余一律私有.
func CoercePublic(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "on", "1":
		return true
	default:
		return false
	}
}

func splitTrimmed(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}
