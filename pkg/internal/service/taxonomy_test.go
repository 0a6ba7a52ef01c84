package service_test

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/arqdiario/arqvault/pkg/internal/model"
	"github.com/arqdiario/arqvault/pkg/internal/service"
	"github.com/arqdiario/arqvault/pkg/internal/types"
)

// TestResolveOrCreateCaseInsensitive 同名术语不因大小写产生重复，保留首次拼写.
func TestResolveOrCreateCaseInsensitive(t *testing.T) {
	svc := service.NewTaxonomyServiceWith(newTestDB(t))
	ctx := context.Background()

	first, err := svc.ResolveOrCreate(ctx, model.TaxonomyKindTag, "Viagem")
	if err != nil {
		t.Fatalf("ResolveOrCreate: %v", err)
	}

	second, err := svc.ResolveOrCreate(ctx, model.TaxonomyKindTag, "viagem")
	if err != nil {
		t.Fatalf("ResolveOrCreate: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("expected same term, got %s and %s", first.ID, second.ID)
	}

	if second.Name != "Viagem" {
		t.Errorf("Name = %q, want original spelling", second.Name)
	}
}

// TestResolveOrCreateKindsSeparate 同名不同种类互不影响.
func TestResolveOrCreateKindsSeparate(t *testing.T) {
	svc := service.NewTaxonomyServiceWith(newTestDB(t))
	ctx := context.Background()

	cat, err := svc.ResolveOrCreate(ctx, model.TaxonomyKindCategory, "Viagem")
	if err != nil {
		t.Fatalf("ResolveOrCreate: %v", err)
	}

	tag, err := svc.ResolveOrCreate(ctx, model.TaxonomyKindTag, "Viagem")
	if err != nil {
		t.Fatalf("ResolveOrCreate: %v", err)
	}

	if cat.ID == tag.ID {
		t.Error("category and tag with same name must be distinct terms")
	}
}

// TestResolveOrCreateIDPassthrough 已有术语的 ID 直接通过，不重复解析.
func TestResolveOrCreateIDPassthrough(t *testing.T) {
	svc := service.NewTaxonomyServiceWith(newTestDB(t))
	ctx := context.Background()

	term, err := svc.ResolveOrCreate(ctx, model.TaxonomyKindTag, "praia")
	if err != nil {
		t.Fatalf("ResolveOrCreate: %v", err)
	}

	again, err := svc.ResolveOrCreate(ctx, model.TaxonomyKindTag, term.ID)
	if err != nil {
		t.Fatalf("ResolveOrCreate by id: %v", err)
	}

	if again.ID != term.ID || again.Name != "praia" {
		t.Errorf("got %+v, want passthrough of %s", again, term.ID)
	}
}

// TestResolveOrCreateMany 逗号分隔、去空白、去重且保持顺序.
func TestResolveOrCreateMany(t *testing.T) {
	svc := service.NewTaxonomyServiceWith(newTestDB(t))
	ctx := context.Background()

	ids, err := svc.ResolveOrCreateMany(ctx, model.TaxonomyKindTag, " praia, verão ,praia,, Verão ")
	if err != nil {
		t.Fatalf("ResolveOrCreateMany: %v", err)
	}

	if len(ids) != 2 {
		t.Fatalf("len(ids) = %d, want 2", len(ids))
	}

	names := svc.Names(ctx, ids)
	if names[0] != "praia" || names[1] != "verão" {
		t.Errorf("names = %v", names)
	}
}

// TestResolveOrCreateEmpty 空白术语名拒绝.
func TestResolveOrCreateEmpty(t *testing.T) {
	svc := service.NewTaxonomyServiceWith(newTestDB(t))

	if _, err := svc.ResolveOrCreate(context.Background(), model.TaxonomyKindTag, "   "); err == nil {
		t.Error("expected error for blank term name")
	}
}

// TestTaxonomyList 按种类与名称过滤.
func TestTaxonomyList(t *testing.T) {
	svc := service.NewTaxonomyServiceWith(newTestDB(t))
	ctx := context.Background()

	for _, name := range []string{"Travel", "Family"} {
		if _, err := svc.ResolveOrCreate(ctx, model.TaxonomyKindCategory, name); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	if _, err := svc.ResolveOrCreate(ctx, model.TaxonomyKindTag, "praia"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	resp, err := svc.List(ctx, types.ListTermsRequest{Kind: "category"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	if resp.Total != 2 {
		t.Errorf("Total = %d, want 2", resp.Total)
	}

	resp, err = svc.List(ctx, types.ListTermsRequest{Search: "TRAV"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	if resp.Total != 1 || resp.Terms[0].Name != "Travel" {
		t.Errorf("search result = %+v", resp.Terms)
	}
}

// TestResolveOrCreateConcurrentDuplicate 两个解析端同时创建同名术语：
// 后写者撞上唯一索引后重读，复用先写者的术语，不产生重复行.
func TestResolveOrCreateConcurrentDuplicate(t *testing.T) {
	dbc := newTestDB(t)
	loser := service.NewTaxonomyServiceWith(dbc)
	rival := service.NewTaxonomyServiceWith(dbc)
	ctx := context.Background()

	var (
		rivalID string
		fired   bool
	)

	// 在 loser 查找未命中、写入尚未执行的间隙抢先建立同名术语
	err := dbc.GetDB().Callback().Create().Before("gorm:create").
		Register("test:rival_create", func(tx *gorm.DB) {
			if fired || tx.Statement.Table != "taxonomy_terms" {
				return
			}

			fired = true

			term, err := rival.ResolveOrCreate(ctx, model.TaxonomyKindTag, "Hiking")
			if err != nil {
				t.Errorf("rival ResolveOrCreate: %v", err)
				return
			}

			rivalID = term.ID
		})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	term, err := loser.ResolveOrCreate(ctx, model.TaxonomyKindTag, "hiking")
	if err != nil {
		t.Fatalf("ResolveOrCreate: %v", err)
	}

	if rivalID == "" || term.ID != rivalID {
		t.Errorf("ID = %s, want rival's %s", term.ID, rivalID)
	}

	if term.Name != "Hiking" {
		t.Errorf("Name = %q, want first writer's spelling", term.Name)
	}

	var count int64
	dbc.GetDB().Model(&model.TaxonomyTerm{}).
		Where("kind = ?", model.TaxonomyKindTag).Count(&count)

	if count != 1 {
		t.Errorf("term count = %d, want exactly one", count)
	}
}

// TestResolveOrCreateDefaults 自动创建的术语带生成的描述与缺省图标.
func TestResolveOrCreateDefaults(t *testing.T) {
	svc := service.NewTaxonomyServiceWith(newTestDB(t))
	ctx := context.Background()

	cat, err := svc.ResolveOrCreate(ctx, model.TaxonomyKindCategory, "Travel")
	if err != nil {
		t.Fatalf("ResolveOrCreate: %v", err)
	}

	if cat.Description != "Auto-created category for Travel" || cat.Icon == "" {
		t.Errorf("category defaults = %q / %q", cat.Description, cat.Icon)
	}

	tag, err := svc.ResolveOrCreate(ctx, model.TaxonomyKindTag, "praia")
	if err != nil {
		t.Fatalf("ResolveOrCreate: %v", err)
	}

	if tag.Description != "Auto-created tag for praia" || tag.Icon == "" {
		t.Errorf("tag defaults = %q / %q", tag.Description, tag.Icon)
	}
}
