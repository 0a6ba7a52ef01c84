package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arqdiario/arqvault/pkg/internal/service"
	"github.com/arqdiario/arqvault/pkg/internal/types"
	"github.com/arqdiario/arqvault/pkg/log"
	"github.com/arqdiario/arqvault/pkg/rule"
)

// ListAIPs 分页查询请求方可见的归档包.
func ListAIPs(c *gin.Context) {
	requester, err := checkRequester(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req types.ListAIPsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := rule.ValidateStruct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	svc := service.NewAIPService(c.Request.Context())

	resp, err := svc.List(c.Request.Context(), req, requester)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetAIP 返回单个归档包的完整视图，含文件记录与处理日志.
func GetAIP(c *gin.Context) {
	requester, err := checkRequester(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	svc := service.NewAIPService(c.Request.Context())

	resp, err := svc.Get(c.Request.Context(), c.Param("id"), requester)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UpdateAIPVisibility 变更归档包的公开/私有状态.
func UpdateAIPVisibility(c *gin.Context) {
	requester, err := checkRequester(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req types.UpdateVisibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	svc := service.NewAIPService(c.Request.Context())

	resp, err := svc.UpdateVisibility(c.Request.Context(), c.Param("id"), *req.IsPublic, requester)
	if err != nil {
		respondError(c, err)
		return
	}

	log.Logger().Info().
		Str("aip_id", resp.ID).
		Bool("is_public", resp.IsPublic).
		Str("user", requester.ID).
		Msg("AIP visibility updated")

	c.JSON(http.StatusOK, resp)
}

// ListTaxonomyTerms 查询分类术语，支持按种类与名称过滤.
func ListTaxonomyTerms(c *gin.Context) {
	if _, err := checkRequester(c); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req types.ListTermsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := rule.ValidateStruct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	svc := service.NewTaxonomyService(c.Request.Context())

	resp, err := svc.List(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
