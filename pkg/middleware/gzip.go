package middleware

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

// GzipMiddleware 压缩 JSON 响应.zip 下载与原始文件流已是压缩或二进制内容，
// 按路径排除.
func GzipMiddleware() gin.HandlerFunc {
	return gzip.Gzip(gzip.DefaultCompression,
		gzip.WithExcludedPathsRegexs([]string{
			`.*/dip$`,
			`.*/files/.*`,
			`^/metrics$`,
		}),
	)
}
