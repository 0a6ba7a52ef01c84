package handle

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/arqdiario/arqvault/pkg/configs"
	"github.com/arqdiario/arqvault/pkg/internal/service"
	"github.com/arqdiario/arqvault/pkg/internal/types"
	"github.com/arqdiario/arqvault/pkg/log"
)

// IngestSIP 处理 SIP 上传：multipart 表单，单个 zip 文件字段加描述性
// 元数据字段.成功返回 201 与新建 AIP 的标识.
//
// 临时上传文件在任何退出路径上都会被删除，包括客户端中途断开.
func IngestSIP(c *gin.Context) {
	l := log.Logger()

	requester, err := checkRequester(c)
	if err != nil {
		l.Warn().Err(err).Msg("missing or invalid user")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})

		return
	}

	fileHeader, err := c.FormFile("sipFile")
	if err != nil {
		// 兼容以 file 命名上传字段的提交端
		fileHeader, err = c.FormFile("file")
	}

	if err != nil {
		l.Warn().Err(err).Msg("missing package file in form")
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing package file field"})

		return
	}

	var form types.IngestForm
	if err := c.ShouldBind(&form); err != nil {
		l.Warn().Err(err).Msg("invalid form fields")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	tempDir := configs.GetConfig().Ingest.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}

	tempPath := filepath.Join(tempDir, "sip-"+uuid.NewString()+".zip")

	if err := c.SaveUploadedFile(fileHeader, tempPath); err != nil {
		l.Error().Err(err).Msg("save uploaded package")
		respondError(c, service.E(service.KindStorage, "save uploaded package", err))

		return
	}

	// 所有退出路径上的清理保证
	defer func() {
		if err := os.Remove(tempPath); err != nil && !os.IsNotExist(err) {
			l.Warn().Err(err).Str("path", tempPath).Msg("remove temp upload")
		}
	}()

	svc := service.NewIngestService(c.Request.Context())

	resp, err := svc.Ingest(c.Request.Context(), tempPath, fileHeader.Filename, fileHeader.Size, form, requester.ID)
	if err != nil {
		l.Warn().Err(err).Str("sip", fileHeader.Filename).Msg("ingest failed")
		respondError(c, err)

		return
	}

	l.Info().
		Str("aip_id", resp.AIPID).
		Str("user", requester.ID).
		Int("files", resp.ProcessedFiles).
		Msg("SIP ingested")

	c.JSON(http.StatusCreated, resp)
}
