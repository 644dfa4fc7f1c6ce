package controller

import (
	"training_progress_backend/internal/service"
	"training_progress_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type BatchController struct {
	BatchService *service.BatchService
}

func NewBatchController(batchService *service.BatchService) *BatchController {
	return &BatchController{BatchService: batchService}
}

// @Summary 创建批次
// @Tags 教官
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param batch body service.CreateBatchRequest true "批次信息"
// @Success 201 {object} util.Response
// @Router /api/instructor/batches [post]
func (c *BatchController) CreateBatch(ctx *gin.Context) {
	var req service.CreateBatchRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	batch, err := c.BatchService.CreateBatch(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, batch)
}

// @Summary 批次列表
// @Tags 教官
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} util.Response
// @Router /api/instructor/batches [get]
func (c *BatchController) ListBatches(ctx *gin.Context) {
	page, limit := util.ParsePage(ctx.Query("page"), ctx.Query("limit"))
	batches, total, err := c.BatchService.ListBatches(ctx.Request.Context(), page, limit)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: batches, Total: int64(total), Page: page, Limit: limit})
}

// @Summary 批次学员列表
// @Tags 教官
// @Produce json
// @Security BearerAuth
// @Param code path string true "批次编码"
// @Success 200 {object} util.Response
// @Router /api/instructor/batches/{code}/cadets [get]
func (c *BatchController) ListCadets(ctx *gin.Context) {
	page, limit := util.ParsePage(ctx.Query("page"), ctx.Query("limit"))
	cadets, total, err := c.BatchService.ListCadets(ctx.Request.Context(), ctx.Param("code"), page, limit)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: cadets, Total: int64(total), Page: page, Limit: limit})
}

// @Summary 批次统计
// @Description 等级分布（五个等级全部列出）与平均准确率
// @Tags 教官
// @Produce json
// @Security BearerAuth
// @Param code path string true "批次编码"
// @Success 200 {object} util.Response
// @Router /api/instructor/batches/{code}/stats [get]
func (c *BatchController) GetStats(ctx *gin.Context) {
	stats, err := c.BatchService.GetBatchStats(ctx.Request.Context(), ctx.Param("code"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}
