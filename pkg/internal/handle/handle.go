// Package handle 提供 HTTP 请求处理器的实现.
package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arqdiario/arqvault/pkg/configs"
	"github.com/arqdiario/arqvault/pkg/internal/service"
	"github.com/arqdiario/arqvault/pkg/middleware"
	"github.com/arqdiario/arqvault/pkg/rule"
)

func DefaultHandler(c *gin.Context) {
	c.JSON(http.StatusNotImplemented, gin.H{"message": "Not Implemented"})
}

// checkRequester 提取认证请求方.认证中间件未注入时（如开发模式
// 关闭认证）回退到 query 参数，便于本地调试.
func checkRequester(c *gin.Context) (service.Requester, error) {
	if r, ok := middleware.GetRequester(c); ok {
		return service.Requester{ID: r.ID, IsAdmin: r.IsAdmin}, nil
	}

	user := c.Query("user")
	if user == "" && gin.Mode() != gin.ReleaseMode {
		user = "test-user@example.com"
	}

	if err := rule.ValidateVar(user, "required,email"); err != nil {
		return service.Requester{}, err
	}

	return service.Requester{ID: user}, nil
}

// respondError 将业务错误映射为 HTTP 响应.
// 授权失败与不存在统一 404，内部错误详情仅在 debug 模式下返回.
func respondError(c *gin.Context, err error) {
	se := service.AsError(err)

	switch se.Kind {
	case service.KindValidation:
		c.JSON(http.StatusBadRequest, gin.H{"error": se.Message})
	case service.KindNotFound, service.KindAuthorization:
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		msg := "internal server error"
		if configs.GetConfig().Server.Debug {
			msg = se.Error()
		}

		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}
