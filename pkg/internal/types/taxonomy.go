package types

// ListTermsRequest 术语列表查询参数.
type ListTermsRequest struct {
	// Kind 过滤术语种类：category、tag，空为全部
	Kind   string `form:"kind" rule:"omitempty,oneof=category tag"`
	Search string `form:"search"`
}

// TermView 术语视图.
type TermView struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
	Icon        string `json:"icon,omitempty"`
	ParentID    string `json:"parentId,omitempty"`
	Level       int    `json:"level"`
}

// ListTermsResponse 术语列表响应.
type ListTermsResponse struct {
	Terms []TermView `json:"terms"`
	Total int        `json:"total"`
}
