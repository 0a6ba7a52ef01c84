package types

// DIPManifest 写入分发包首条目 manifesto-DIP.json 的清单.
type DIPManifest struct {
	// Type 包类型标记，恒为 DIP
	Type string `json:"type"`
	// Version 清单格式版本
	Version  string      `json:"version"`
	AIPID    string      `json:"aipId"`
	Metadata AIPMetadata `json:"metadata"`
	Files    []FileView  `json:"files"`
	// ExportedAt RFC3339 UTC 时间戳
	ExportedAt string `json:"exportedAt"`
	// ExportedBy 发起导出的用户
	ExportedBy string `json:"exportedBy"`
	// SkippedFiles 对象存储中缺失而未纳入包的文件名
	SkippedFiles []string `json:"skippedFiles,omitempty"`
}
