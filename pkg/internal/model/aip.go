// Package model 定义归档域的数据库模型：AIP、文件记录、处理日志与分类术语.
package model

import (
	"time"

	"github.com/bytedance/sonic"
	"gorm.io/gorm"
)

// AIPStatus AIP 生命周期状态.
type AIPStatus string

const (
	AIPStatusPending    AIPStatus = "pending"    // 已接收，尚未开始处理
	AIPStatusProcessing AIPStatus = "processing" // 摄取管线执行中
	AIPStatusIngested   AIPStatus = "ingested"   // 摄取成功
	AIPStatusFailed     AIPStatus = "failed"     // 摄取失败，保留供诊断
)

// 处理日志级别.
const (
	LogLevelInfo    = "info"
	LogLevelWarning = "warning"
	LogLevelError   = "error"
)

// AIP 归档信息包.描述性元数据的 JSON 字段名沿用 SIP 清单的葡语约定
// （titulo、dataCreacao 等），保证导出的 DIP 清单与原始提交同构.
type AIP struct {
	ID string `gorm:"primaryKey;size:36" json:"id"`

	// 描述性元数据
	Title        string `gorm:"size:512;index"  json:"titulo"`
	CreationDate string `gorm:"size:64"         json:"dataCreacao"`
	TypeID       string `gorm:"size:36;index"   json:"tipo"`
	Description  string `gorm:"type:text"       json:"descricao,omitempty"`
	Location     string `gorm:"size:512"        json:"localizacao,omitempty"`
	// TagsJSON 标签术语 ID 列表，以 JSON 字符串形式存储
	TagsJSON string `gorm:"type:text" json:"-"`
	// ExtraJSON 清单中未识别的键，原样保留
	ExtraJSON string `gorm:"type:text" json:"-"`

	// 归属与可见性.Producer 与 Submitter 始终为摄取时的认证用户
	Producer  string `gorm:"size:255;index" json:"produtor"`
	Submitter string `gorm:"size:255"       json:"submitter"`
	IsPublic  bool   `gorm:"index"          json:"isPublic"`

	// 摄取来源信息
	SIPName    string     `gorm:"size:512"      json:"sipName,omitempty"`
	SIPSize    int64      `json:"sipSize,omitempty"`
	Status     AIPStatus  `gorm:"size:16;index" json:"status"`
	IngestedAt *time.Time `json:"ingestedAt,omitempty"`

	Files          []FileRecord    `gorm:"foreignKey:AIPID;constraint:OnDelete:CASCADE" json:"files,omitempty"`
	ProcessingLogs []ProcessingLog `gorm:"foreignKey:AIPID;constraint:OnDelete:CASCADE" json:"processingLogs,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Tags 反序列化标签术语 ID 列表.
func (a *AIP) Tags() []string {
	if a.TagsJSON == "" {
		return nil
	}

	var tags []string
	if err := sonic.UnmarshalString(a.TagsJSON, &tags); err != nil {
		return nil
	}

	return tags
}

// SetTags 序列化标签术语 ID 列表.
func (a *AIP) SetTags(tags []string) error {
	if len(tags) == 0 {
		a.TagsJSON = ""
		return nil
	}

	s, err := sonic.MarshalString(tags)
	if err != nil {
		return err
	}

	a.TagsJSON = s

	return nil
}

// Extra 反序列化清单中的未识别键.
func (a *AIP) Extra() map[string]any {
	if a.ExtraJSON == "" {
		return nil
	}

	var extra map[string]any
	if err := sonic.UnmarshalString(a.ExtraJSON, &extra); err != nil {
		return nil
	}

	return extra
}

// SetExtra 序列化清单中的未识别键.
func (a *AIP) SetExtra(extra map[string]any) error {
	if len(extra) == 0 {
		a.ExtraJSON = ""
		return nil
	}

	s, err := sonic.MarshalString(extra)
	if err != nil {
		return err
	}

	a.ExtraJSON = s

	return nil
}

// FileRecord AIP 内单个已保存文件的记录.
type FileRecord struct {
	ID string `gorm:"primaryKey;size:36" json:"id"`
	// 显式列名，默认命名策略会把 AIPID 拆成 a_ip_id
	AIPID string `gorm:"column:aip_id;size:36;index" json:"-"`
	// Seq 文件在 SIP 中的顺序，导出时按此排序
	Seq          int    `gorm:"index"     json:"seq"`
	OriginalName string `gorm:"size:512"  json:"originalName"`
	// StoredName ULID 前缀的存储名，避免同名冲突
	StoredName string `gorm:"size:512"  json:"storedName"`
	// ObjectKey 对象存储键：<prefix>/<aipID>/<storedName>
	ObjectKey string `gorm:"size:1024;index" json:"-"`
	Mimetype  string `gorm:"size:255"        json:"mimetype"`
	Size      int64  `json:"size"`
	// Checksum SHA-256 十六进制摘要
	Checksum string `gorm:"size:64" json:"checksum"`

	CreatedAt time.Time `json:"createdAt"`
}

// ProcessingLog 摄取与导出过程的逐条处理日志.
type ProcessingLog struct {
	ID        uint      `gorm:"primaryKey"                  json:"-"`
	AIPID     string    `gorm:"column:aip_id;size:36;index" json:"-"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `gorm:"size:16"  json:"level"`
	Message   string    `gorm:"type:text" json:"message"`
}

// AutoMigrate 建立归档域全部表结构.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&AIP{},
		&FileRecord{},
		&ProcessingLog{},
		&TaxonomyTerm{},
	)
}
