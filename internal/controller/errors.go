package controller

import (
	"errors"
	"net/http"

	"training_progress_backend/internal/progression"
	"training_progress_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// respondError 业务错误映射为 HTTP 状态码，其余记录日志后返回 500
func respondError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrProgressUnavailable):
		util.Error(ctx, http.StatusServiceUnavailable, util.ErrProgressUnavailable.Error())
	case errors.Is(err, util.ErrCadetNotFound),
		errors.Is(err, util.ErrBatchNotFound),
		errors.Is(err, util.ErrArchiveNotFound):
		util.NotFound(ctx, err.Error())
	case errors.Is(err, util.ErrInvalidScore),
		errors.Is(err, util.ErrBatchRequired),
		errors.Is(err, util.ErrBatchCodeBlank),
		errors.Is(err, util.ErrBatchMismatch),
		errors.Is(err, progression.ErrInvalidLevel):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrBatchExists),
		errors.Is(err, util.ErrCadetArchived),
		errors.Is(err, progression.ErrMaxLevel):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, util.ErrRequirementsNotMet), errors.Is(err, util.ErrCertificationLevel):
		util.Error(ctx, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, progression.ErrContractViolation):
		util.Error(ctx, http.StatusServiceUnavailable, util.ErrProgressUnavailable.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}
