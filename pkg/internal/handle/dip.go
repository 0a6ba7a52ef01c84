package handle

import (
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/arqdiario/arqvault/pkg/internal/service"
	"github.com/arqdiario/arqvault/pkg/log"
)

// escapeFileName 清理响应头文件名中的引号与控制字符.
func escapeFileName(s string) string {
	replacer := strings.NewReplacer("\\", "_", "\"", "_", ";", "_", "\n", "_", "\r", "_")
	return replacer.Replace(s)
}

// ExportDIP 导出分发包：清单加全部仍可用的归档文件，zip 流式返回.
func ExportDIP(c *gin.Context) {
	l := log.Logger()

	requester, err := checkRequester(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	svc := service.NewDIPService(c.Request.Context())

	export, err := svc.PrepareExport(c.Request.Context(), c.Param("id"), requester)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", "attachment; filename=\""+escapeFileName(export.FileName)+"\"")

	if err := export.WriteTo(c.Request.Context(), c.Writer); err != nil {
		// 响应头已发出，只能记录
		l.Error().Err(err).Str("aip_id", c.Param("id")).Msg("stream DIP failed")
		return
	}

	l.Info().
		Str("aip_id", c.Param("id")).
		Str("user", requester.ID).
		Str("file", export.FileName).
		Msg("DIP exported")
}

// ServeAIPFile 以 inline 方式流式返回单个已存档文件.
func ServeAIPFile(c *gin.Context) {
	requester, err := checkRequester(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	svc := service.NewDIPService(c.Request.Context())

	obj, record, err := svc.OpenFile(c.Request.Context(), c.Param("id"), c.Param("fileId"), requester)
	if err != nil {
		respondError(c, err)
		return
	}

	defer func() { _ = obj.Close() }()

	c.Header("Content-Type", record.Mimetype)
	c.Header("Content-Length", strconv.FormatInt(record.Size, 10))
	c.Header("Content-Disposition", "inline; filename=\""+escapeFileName(path.Base(record.OriginalName))+"\"")

	if _, err := io.Copy(c.Writer, obj); err != nil {
		log.Logger().Error().Err(err).
			Str("aip_id", c.Param("id")).
			Str("file_id", record.ID).
			Msg("stream archived file failed")
	}
}
