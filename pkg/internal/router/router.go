// Package router 管理路由配置，将路径绑定到 handle 包的处理器.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/arqdiario/arqvault/pkg/internal/handle"
)

// RegisterArchiveRoutes 注册归档域的 API 路由.
// 假定上层以 /api/v1 为前缀传入路由组：
//
//	POST  /sips                      -> SIP 摄取
//	GET   /aips                      -> AIP 列表
//	GET   /aips/:id                  -> AIP 详情
//	PATCH /aips/:id/visibility       -> 可见性变更
//	GET   /aips/:id/dip              -> DIP 导出下载
//	GET   /aips/:id/files/:fileId    -> 单文件 inline 下载
//	GET   /taxonomy/terms            -> 分类术语列表
func RegisterArchiveRoutes(g *gin.RouterGroup) {
	g.POST("/sips", handle.IngestSIP)

	aips := g.Group("/aips")
	{
		aips.GET("", handle.ListAIPs)

		single := aips.Group("/:id")
		{
			single.GET("", handle.GetAIP)
			single.PATCH("/visibility", handle.UpdateAIPVisibility)
			single.GET("/dip", handle.ExportDIP)
			single.GET("/files/:fileId", handle.ServeAIPFile)
		}
	}

	taxonomy := g.Group("/taxonomy")
	{
		taxonomy.GET("/terms", handle.ListTaxonomyTerms)
	}
}

// RegisterHealthRoutes 注册健康检查路由.
func RegisterHealthRoutes(g *gin.RouterGroup) {
	health := g.Group("/health")
	{
		health.GET("/db", handle.HealthDB)
		health.GET("/s3", handle.HealthS3)
		health.GET("/mq", handle.HealthMQ)
		health.GET("", func(c *gin.Context) {
			c.JSON(200, gin.H{"status": "ok"})
		})
	}
}
