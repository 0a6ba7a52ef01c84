package queue

// AIPRef 标识一个归档信息包.
type AIPRef struct {
	ID       string `json:"id"`
	Title    string `json:"title,omitempty"`
	Producer string `json:"producer,omitempty"`
	IsPublic bool   `json:"is_public,omitempty"`
}

// AIPIngestedPayload 摄取完成，AIP 进入 ingested 状态.
type AIPIngestedPayload struct {
	AIP            AIPRef `json:"aip"`
	ProcessedFiles int    `json:"processed_files"`
	SkippedFiles   int    `json:"skipped_files,omitempty"`
	// SIPName 原始上传包文件名，便于审计.
	SIPName string `json:"sip_name,omitempty"`
}

// AIPIngestFailedPayload 摄取失败，AIP 以 failed 状态保留供诊断.
type AIPIngestFailedPayload struct {
	AIP     AIPRef `json:"aip"`
	Error   string `json:"error"`
	SIPName string `json:"sip_name,omitempty"`
}

// AIPVisibilityChangedPayload 公开/私有状态变更.
type AIPVisibilityChangedPayload struct {
	AIP       AIPRef `json:"aip"`
	WasPublic bool   `json:"was_public"`
	// ChangedBy 执行变更的用户.
	ChangedBy string `json:"changed_by,omitempty"`
}

// DIPExportedPayload 分发包导出完成.
type DIPExportedPayload struct {
	AIP           AIPRef `json:"aip"`
	FileName      string `json:"file_name"`
	IncludedFiles int    `json:"included_files"`
	SkippedFiles  int    `json:"skipped_files,omitempty"`
	// RequestedBy 发起导出的用户.
	RequestedBy string `json:"requested_by,omitempty"`
}
