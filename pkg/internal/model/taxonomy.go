package model

import (
	"time"

	"gorm.io/gorm"
)

// TaxonomyKind 术语种类.
type TaxonomyKind string

const (
	TaxonomyKindCategory TaxonomyKind = "category" // 档案类型（tipo）
	TaxonomyKindTag      TaxonomyKind = "tag"      // 标签
)

// TaxonomyTerm 分类术语.名称匹配不区分大小写，通过 NameLower 唯一索引保证
// 同种类下不会出现仅大小写不同的重复术语.
type TaxonomyTerm struct {
	ID   string       `gorm:"primaryKey;size:36" json:"id"`
	Kind TaxonomyKind `gorm:"size:16;index:idx_kind_name_lower,unique" json:"kind"`
	Name string       `gorm:"size:255" json:"name"`
	// NameLower 规范化名称，查找与唯一性均基于此列
	NameLower   string `gorm:"size:255;index:idx_kind_name_lower,unique" json:"-"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	Color       string `gorm:"size:32"   json:"color,omitempty"`
	Icon        string `gorm:"size:64"   json:"icon,omitempty"`

	// 层级：根术语 ParentID 为空，Level 从 0 起
	ParentID string `gorm:"size:36;index" json:"parentId,omitempty"`
	Level    int    `json:"level"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
