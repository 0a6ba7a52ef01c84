// Package types 定义 HTTP 层的请求与响应结构.
package types

// IngestForm SIP 摄取的表单字段.字段名沿用提交端的葡语约定，
// 表单值在与清单合并时优先（form-wins）.IsPublic 为字符串以便
// 宽松解析 "true"/"on"/"1" 等提交端变体.
type IngestForm struct {
	Title        string `form:"titulo"      json:"titulo,omitempty"`
	CreationDate string `form:"dataCreacao" json:"dataCreacao,omitempty"`
	Type         string `form:"tipo"        json:"tipo,omitempty"`
	Description  string `form:"descricao"   json:"descricao,omitempty"`
	Location     string `form:"localizacao" json:"localizacao,omitempty"`
	// Tags 逗号分隔的术语名或术语 ID
	Tags     string `form:"tags"     json:"tags,omitempty"`
	IsPublic string `form:"isPublic" json:"isPublic,omitempty"`
}

// IngestResponse 摄取成功响应.
type IngestResponse struct {
	AIPID          string      `json:"aipId"`
	Status         string      `json:"status"`
	ProcessedFiles int         `json:"processedFiles"`
	SkippedFiles   int         `json:"skippedFiles"`
	Metadata       AIPMetadata `json:"metadata"`
}

// AIPMetadata 已归档包的描述性元数据视图.
type AIPMetadata struct {
	Title        string         `json:"titulo"`
	CreationDate string         `json:"dataCreacao"`
	Type         string         `json:"tipo"`
	Description  string         `json:"descricao,omitempty"`
	Location     string         `json:"localizacao,omitempty"`
	Tags         []string       `json:"tags,omitempty"`
	Producer     string         `json:"produtor"`
	Submitter    string         `json:"submitter"`
	IsPublic     bool           `json:"isPublic"`
	Extra        map[string]any `json:"extra,omitempty"`
}
