package controller

import (
	"net/http"
	"strings"

	"training_progress_backend/internal/service"
	"training_progress_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ArchiveController struct {
	Storage *service.StorageService
}

func NewArchiveController(storage *service.StorageService) *ArchiveController {
	return &ArchiveController{Storage: storage}
}

// @Summary 下载归档快照
// @Tags 教官
// @Produce json
// @Security BearerAuth
// @Param filepath path string true "快照路径"
// @Success 200 {file} file
// @Router /api/instructor/archives/{filepath} [get]
func (c *ArchiveController) Download(ctx *gin.Context) {
	name := strings.TrimPrefix(ctx.Param("filepath"), "/")
	rc, err := c.Storage.Open(ctx.Request.Context(), name)
	if err != nil {
		respondError(ctx, err)
		return
	}
	defer rc.Close()

	ctx.DataFromReader(http.StatusOK, -1, util.MimeJSON, rc, nil)
}
