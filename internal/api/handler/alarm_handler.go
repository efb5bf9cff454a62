package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"smart-alarm/backend/internal/dto"
	"smart-alarm/backend/internal/service"
	pkgerrors "smart-alarm/backend/pkg/errors"
	"smart-alarm/backend/pkg/response"
)

// AlarmHandler 闹钟模块 HTTP 处理器
type AlarmHandler struct {
	alarmSvc service.AlarmService
}

// NewAlarmHandler 创建 AlarmHandler
func NewAlarmHandler(alarmSvc service.AlarmService) *AlarmHandler {
	return &AlarmHandler{alarmSvc: alarmSvc}
}

// ListAlarms 获取当前用户的闹钟列表
// GET /api/v1/alarms
func (h *AlarmHandler) ListAlarms(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	alarms, err := h.alarmSvc.ListByUser(c.Request.Context(), userID)
	if err != nil {
		h.handleAlarmError(c, err)
		return
	}

	response.OK(c, gin.H{"list": alarms})
}

// GetAlarm 获取闹钟详情
// GET /api/v1/alarms/:id
func (h *AlarmHandler) GetAlarm(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "闹钟ID不能为空")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	alarm, err := h.alarmSvc.Get(c.Request.Context(), id, userID)
	if err != nil {
		h.handleAlarmError(c, err)
		return
	}

	response.OK(c, alarm)
}

// CreateAlarm 创建闹钟
// POST /api/v1/alarms
func (h *AlarmHandler) CreateAlarm(c *gin.Context) {
	var req dto.CreateAlarmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	alarm, err := h.alarmSvc.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleAlarmError(c, err)
		return
	}

	response.Created(c, alarm)
}

// UpdateAlarm 更新闹钟
// PUT /api/v1/alarms/:id
func (h *AlarmHandler) UpdateAlarm(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "闹钟ID不能为空")
		return
	}

	var req dto.UpdateAlarmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	alarm, err := h.alarmSvc.Update(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleAlarmError(c, err)
		return
	}

	response.OK(c, alarm)
}

// DeleteAlarm 删除闹钟（软删除，计划级联）
// DELETE /api/v1/alarms/:id
func (h *AlarmHandler) DeleteAlarm(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "闹钟ID不能为空")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.alarmSvc.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleAlarmError(c, err)
		return
	}

	response.OK(c, nil)
}

// GetNextTrigger 查询闹钟下一次触发时刻
// GET /api/v1/alarms/:id/next-trigger
func (h *AlarmHandler) GetNextTrigger(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "闹钟ID不能为空")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.alarmSvc.NextTrigger(c.Request.Context(), id, userID, time.Now())
	if err != nil {
		h.handleAlarmError(c, err)
		return
	}

	response.OK(c, result)
}

// ── 计划子资源 ──

// AddSchedule 为闹钟添加触发计划
// POST /api/v1/alarms/:id/schedules
func (h *AlarmHandler) AddSchedule(c *gin.Context) {
	alarmID := c.Param("id")
	if alarmID == "" {
		response.BadRequest(c, 10001, "闹钟ID不能为空")
		return
	}

	var req dto.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	sched, err := h.alarmSvc.AddSchedule(c.Request.Context(), alarmID, &req, userID)
	if err != nil {
		h.handleAlarmError(c, err)
		return
	}

	response.Created(c, sched)
}

// UpdateSchedule 更新触发计划
// PUT /api/v1/alarms/:id/schedules/:schedule_id
func (h *AlarmHandler) UpdateSchedule(c *gin.Context) {
	alarmID := c.Param("id")
	scheduleID := c.Param("schedule_id")
	if alarmID == "" || scheduleID == "" {
		response.BadRequest(c, 10001, "闹钟ID与计划ID不能为空")
		return
	}

	var req dto.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	sched, err := h.alarmSvc.UpdateSchedule(c.Request.Context(), alarmID, scheduleID, &req, userID)
	if err != nil {
		h.handleAlarmError(c, err)
		return
	}

	response.OK(c, sched)
}

// RemoveSchedule 删除触发计划
// DELETE /api/v1/alarms/:id/schedules/:schedule_id
func (h *AlarmHandler) RemoveSchedule(c *gin.Context) {
	alarmID := c.Param("id")
	scheduleID := c.Param("schedule_id")
	if alarmID == "" || scheduleID == "" {
		response.BadRequest(c, 10001, "闹钟ID与计划ID不能为空")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.alarmSvc.RemoveSchedule(c.Request.Context(), alarmID, scheduleID, userID); err != nil {
		h.handleAlarmError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleAlarmError 统一处理闹钟模块业务错误
func (h *AlarmHandler) handleAlarmError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAlarmNotFound):
		response.NotFound(c, 13001, "闹钟不存在")
	case errors.Is(err, service.ErrAlarmNotOwner):
		response.Forbidden(c, 13002, "无权操作此闹钟")
	case errors.Is(err, service.ErrScheduleNotFound):
		response.NotFound(c, 13003, "触发计划不存在")
	case errors.Is(err, service.ErrScheduleInvalidTime):
		response.BadRequest(c, 13004, "计划时间格式必须为 HH:MM")
	case errors.Is(err, service.ErrAlarmInvalidMetadata):
		response.BadRequest(c, 13005, "元数据取值必须为 string/number/bool")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 13006, "闹钟已被其他操作修改，请刷新后重试")
	default:
		response.InternalError(c)
	}
}
