package controller

import (
	"training_progress_backend/internal/progression"
	"training_progress_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type LevelController struct {
	Catalog *progression.Catalog
}

func NewLevelController(catalog *progression.Catalog) *LevelController {
	return &LevelController{Catalog: catalog}
}

// @Summary 获取等级表
// @Description 五级训练等级、晋级门槛、AI 功能解锁与安全关卡
// @Tags 等级
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/levels [get]
func (c *LevelController) ListLevels(ctx *gin.Context) {
	util.Success(ctx, c.Catalog.Levels())
}
