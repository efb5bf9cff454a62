package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"smart-alarm/backend/internal/dto"
	"smart-alarm/backend/internal/service"
	"smart-alarm/backend/pkg/response"
)

// ExceptionPeriodHandler 例外时段模块 HTTP 处理器
type ExceptionPeriodHandler struct {
	periodSvc service.ExceptionPeriodService
}

// NewExceptionPeriodHandler 创建 ExceptionPeriodHandler
func NewExceptionPeriodHandler(periodSvc service.ExceptionPeriodService) *ExceptionPeriodHandler {
	return &ExceptionPeriodHandler{periodSvc: periodSvc}
}

// ListPeriods 获取当前用户的例外时段列表
// GET /api/v1/exception-periods
func (h *ExceptionPeriodHandler) ListPeriods(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	periods, err := h.periodSvc.ListByUser(c.Request.Context(), userID)
	if err != nil {
		h.handlePeriodError(c, err)
		return
	}

	response.OK(c, gin.H{"list": periods})
}

// GetPeriod 获取例外时段详情
// GET /api/v1/exception-periods/:id
func (h *ExceptionPeriodHandler) GetPeriod(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "时段ID不能为空")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	period, err := h.periodSvc.Get(c.Request.Context(), id, userID)
	if err != nil {
		h.handlePeriodError(c, err)
		return
	}

	response.OK(c, period)
}

// CreatePeriod 创建例外时段
// POST /api/v1/exception-periods
func (h *ExceptionPeriodHandler) CreatePeriod(c *gin.Context) {
	var req dto.CreateExceptionPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	period, err := h.periodSvc.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handlePeriodError(c, err)
		return
	}

	response.Created(c, period)
}

// UpdatePeriod 更新例外时段
// PUT /api/v1/exception-periods/:id
func (h *ExceptionPeriodHandler) UpdatePeriod(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "时段ID不能为空")
		return
	}

	var req dto.UpdateExceptionPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	period, err := h.periodSvc.Update(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handlePeriodError(c, err)
		return
	}

	response.OK(c, period)
}

// DeletePeriod 删除例外时段（软删除）
// DELETE /api/v1/exception-periods/:id
func (h *ExceptionPeriodHandler) DeletePeriod(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "时段ID不能为空")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.periodSvc.Delete(c.Request.Context(), id, userID); err != nil {
		h.handlePeriodError(c, err)
		return
	}

	response.OK(c, nil)
}

// handlePeriodError 统一处理例外时段模块业务错误
func (h *ExceptionPeriodHandler) handlePeriodError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPeriodNotFound):
		response.NotFound(c, 14001, "例外时段不存在")
	case errors.Is(err, service.ErrPeriodNotOwner):
		response.Forbidden(c, 14002, "无权操作此例外时段")
	case errors.Is(err, service.ErrPeriodOverlap):
		response.Conflict(c, 14003, "与现有活跃时段的日期区间重叠")
	case errors.Is(err, service.ErrPeriodDateOrder):
		response.BadRequest(c, 14004, "结束日期不能早于开始日期")
	case errors.Is(err, service.ErrPeriodSpanTooLong):
		response.BadRequest(c, 14005, "时段跨度不能超过 365 天")
	case errors.Is(err, service.ErrPeriodStartTooOld):
		response.BadRequest(c, 14006, "开始日期不能早于 30 天前")
	case errors.Is(err, service.ErrPeriodInvalidType):
		response.BadRequest(c, 14007, "非法的时段类型")
	case errors.Is(err, service.ErrPeriodInvalidDates):
		response.ErrorWithDetails(c, 400, 14008, "日期格式非法", err.Error())
	default:
		response.InternalError(c)
	}
}
