package controller

import (
	"training_progress_backend/internal/model"
	"training_progress_backend/internal/service"
	"training_progress_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProgressionController struct {
	ProgressionService *service.ProgressionService
}

func NewProgressionController(progressionService *service.ProgressionService) *ProgressionController {
	return &ProgressionController{ProgressionService: progressionService}
}

type PromoteRequest struct {
	Certify bool `json:"certify"`
}

type CertifyRequest struct {
	Level model.Level `json:"level" binding:"required"`
}

// @Summary 获取学员进度
// @Description 当前等级、已解锁功能、安全关卡以及距下一等级的差距
// @Tags 进度
// @Produce json
// @Security BearerAuth
// @Param number path string true "学员编号"
// @Success 200 {object} util.Response
// @Router /api/cadets/{number}/progress [get]
func (c *ProgressionController) GetProgress(ctx *gin.Context) {
	view, err := c.ProgressionService.GetProgress(ctx.Request.Context(), ctx.Param("number"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// @Summary 学员训练事件
// @Tags 进度
// @Produce json
// @Security BearerAuth
// @Param number path string true "学员编号"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} util.Response
// @Router /api/cadets/{number}/events [get]
func (c *ProgressionController) ListEvents(ctx *gin.Context) {
	page, limit := util.ParsePage(ctx.Query("page"), ctx.Query("limit"))
	events, total, err := c.ProgressionService.ListEvents(ctx.Request.Context(), ctx.Param("number"), page, limit)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: events, Total: int64(total), Page: page, Limit: limit})
}

// @Summary 记录一次训练
// @Tags 进度
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param number path string true "学员编号"
// @Param drill body service.DrillRequest true "训练结果"
// @Success 201 {object} util.Response
// @Router /api/cadets/{number}/drills [post]
func (c *ProgressionController) RecordDrill(ctx *gin.Context) {
	var req service.DrillRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	c.respondProgress(ctx, func() (*model.CadetProgress, error) {
		return c.ProgressionService.RecordDrill(ctx.Request.Context(), ctx.Param("number"), req)
	})
}

// @Summary 记录一次考核成绩
// @Tags 进度
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param number path string true "学员编号"
// @Param assessment body service.AssessmentRequest true "考核成绩"
// @Success 201 {object} util.Response
// @Router /api/cadets/{number}/assessments [post]
func (c *ProgressionController) RecordAssessment(ctx *gin.Context) {
	var req service.AssessmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	c.respondProgress(ctx, func() (*model.CadetProgress, error) {
		return c.ProgressionService.RecordAssessment(ctx.Request.Context(), ctx.Param("number"), req)
	})
}

// @Summary 记录一次安全违规
// @Tags 进度
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param number path string true "学员编号"
// @Param violation body service.ViolationRequest true "违规规则"
// @Success 201 {object} util.Response
// @Router /api/cadets/{number}/violations [post]
func (c *ProgressionController) RecordViolation(ctx *gin.Context) {
	var req service.ViolationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	c.respondProgress(ctx, func() (*model.CadetProgress, error) {
		return c.ProgressionService.RecordSafetyViolation(ctx.Request.Context(), ctx.Param("number"), req)
	})
}

// @Summary 批准晋级
// @Description 仅当三项差距全为 0 时允许，可同时认证新等级
// @Tags 教官
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param number path string true "学员编号"
// @Param promote body PromoteRequest false "是否同时认证"
// @Success 200 {object} util.Response
// @Router /api/instructor/cadets/{number}/promote [post]
func (c *ProgressionController) Promote(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req PromoteRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
	}

	if _, err := c.ProgressionService.Promote(ctx.Request.Context(), ctx.Param("number"), user.UserID, req.Certify); err != nil {
		respondError(ctx, err)
		return
	}
	c.GetProgress(ctx)
}

// @Summary 认证等级
// @Tags 教官
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param number path string true "学员编号"
// @Param certification body CertifyRequest true "认证等级"
// @Success 200 {object} util.Response
// @Router /api/instructor/cadets/{number}/certifications [post]
func (c *ProgressionController) Certify(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req CertifyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	p, err := c.ProgressionService.Certify(ctx.Request.Context(), ctx.Param("number"), req.Level, user.UserID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, p)
}

// @Summary 归档学员记录
// @Tags 教官
// @Produce json
// @Security BearerAuth
// @Param number path string true "学员编号"
// @Success 200 {object} util.Response
// @Router /api/instructor/cadets/{number}/archive [post]
func (c *ProgressionController) Archive(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	res, err := c.ProgressionService.Archive(ctx.Request.Context(), ctx.Param("number"), user.UserID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// respondProgress 写入事件后返回最新进度视图
func (c *ProgressionController) respondProgress(ctx *gin.Context, record func() (*model.CadetProgress, error)) {
	p, err := record()
	if err != nil {
		respondError(ctx, err)
		return
	}
	view, err := c.ProgressionService.GetProgress(ctx.Request.Context(), p.CadetNumber)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, view)
}
