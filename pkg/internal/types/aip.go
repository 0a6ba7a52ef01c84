package types

import "time"

// ListAIPsRequest AIP 列表查询参数.
type ListAIPsRequest struct {
	Page     int    `form:"page,default=1"       rule:"min=1"`
	PageSize int    `form:"page_size,default=20" rule:"min=1,max=100"`
	Search   string `form:"search"`
	// Status 过滤生命周期状态，空为全部
	Status string `form:"status" rule:"omitempty,oneof=pending processing ingested failed"`
	// Sort 排序字段：created_at、titulo、data_creacao
	Sort  string `form:"sort,default=created_at" rule:"oneof=created_at titulo data_creacao"`
	Order string `form:"order,default=desc"      rule:"oneof=asc desc"`
}

// AIPSummary 列表项视图.
type AIPSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"titulo"`
	CreationDate string    `json:"dataCreacao,omitempty"`
	Type         string    `json:"tipo,omitempty"`
	Producer     string    `json:"produtor"`
	IsPublic     bool      `json:"isPublic"`
	Status       string    `json:"status"`
	FileCount    int       `json:"fileCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ListAIPsResponse AIP 列表响应.
type ListAIPsResponse struct {
	AIPs     []AIPSummary `json:"aips"`
	Total    int64        `json:"total"`
	Page     int          `json:"page"`
	PageSize int          `json:"pageSize"`
}

// AIPDetail 单个 AIP 的完整视图.
type AIPDetail struct {
	ID         string          `json:"id"`
	Metadata   AIPMetadata     `json:"metadata"`
	Status     string          `json:"status"`
	SIPName    string          `json:"sipName,omitempty"`
	Files      []FileView      `json:"files"`
	Logs       []LogView       `json:"processingLogs,omitempty"`
	IngestedAt *time.Time      `json:"ingestedAt,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// FileView 文件记录视图.
type FileView struct {
	ID           string `json:"id"`
	OriginalName string `json:"originalName"`
	StoredName   string `json:"storedName"`
	Mimetype     string `json:"mimetype"`
	Size         int64  `json:"size"`
	Checksum     string `json:"checksum"`
}

// LogView 处理日志视图.
type LogView struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
}

// UpdateVisibilityRequest 可见性变更请求.
type UpdateVisibilityRequest struct {
	IsPublic *bool `binding:"required" json:"isPublic"`
}

// UpdateVisibilityResponse 可见性变更响应.
type UpdateVisibilityResponse struct {
	ID       string `json:"id"`
	IsPublic bool   `json:"isPublic"`
}
