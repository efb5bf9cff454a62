package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"smart-alarm/backend/internal/dto"
	"smart-alarm/backend/internal/model"
	"smart-alarm/backend/internal/scheduler"
	"smart-alarm/backend/internal/service"
	"smart-alarm/backend/pkg/response"
)

// TriggerHandler 触发评估与事件模块 HTTP 处理器
type TriggerHandler struct {
	evaluatorSvc  service.EvaluatorService
	escalationSvc service.EscalationService
	sched         *scheduler.Scheduler
}

// NewTriggerHandler 创建 TriggerHandler
func NewTriggerHandler(
	evaluatorSvc service.EvaluatorService,
	escalationSvc service.EscalationService,
	sched *scheduler.Scheduler,
) *TriggerHandler {
	return &TriggerHandler{
		evaluatorSvc:  evaluatorSvc,
		escalationSvc: escalationSvc,
		sched:         sched,
	}
}

// GetDueAlarms 查询当前时刻到期的闹钟（只读，不建档，管理员）
// GET /api/v1/triggers/due
func (h *TriggerHandler) GetDueAlarms(c *gin.Context) {
	now := time.Now()
	due, err := h.evaluatorSvc.GetAlarmsDueForTriggering(c.Request.Context(), now)
	if err != nil {
		response.InternalError(c)
		return
	}

	alarms := make([]dto.AlarmResponse, 0, len(due))
	for i := range due {
		alarms = append(alarms, toAlarmResponse(&due[i]))
	}

	response.OK(c, dto.DueAlarmsResponse{
		EvaluatedAt: now,
		Count:       len(alarms),
		Alarms:      alarms,
	})
}

// EvaluateTick 手动执行一个评估节拍（建档 + 升级推进，管理员）
// POST /api/v1/triggers/evaluate
func (h *TriggerHandler) EvaluateTick(c *gin.Context) {
	now := time.Now()
	triggered, skipped := h.sched.Tick(c.Request.Context(), now)

	response.OK(c, dto.EvaluateTickResponse{
		EvaluatedAt:    now,
		TriggeredCount: triggered,
		Skipped:        skipped,
	})
}

// ListEvents 查询当前用户的触发事件
// GET /api/v1/events
func (h *TriggerHandler) ListEvents(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.PageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	events, total, err := h.escalationSvc.ListEvents(c.Request.Context(), userID, req.Page, req.PageSize)
	if err != nil {
		response.InternalError(c)
		return
	}

	list := make([]dto.AlarmEventResponse, 0, len(events))
	for i := range events {
		list = append(list, toEventResponse(&events[i]))
	}

	response.OKPage(c, list, total, req.Page, req.PageSize)
}

// AcknowledgeEvent 确认触发事件
// POST /api/v1/events/:id/acknowledge
func (h *TriggerHandler) AcknowledgeEvent(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "事件ID不能为空")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	event, err := h.escalationSvc.Acknowledge(c.Request.Context(), id, userID, time.Now())
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	response.OK(c, toEventResponse(event))
}

// handleEventError 统一处理触发事件模块业务错误
func (h *TriggerHandler) handleEventError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEventNotFound):
		response.NotFound(c, 16001, "触发事件不存在")
	case errors.Is(err, service.ErrEventNotOwner):
		response.Forbidden(c, 16002, "无权操作此触发事件")
	case errors.Is(err, service.ErrEventInvalidTransition):
		response.Conflict(c, 16003, "触发事件状态不允许此操作")
	default:
		response.InternalError(c)
	}
}

// ── 响应转换器 ──

func toAlarmResponse(a *model.Alarm) dto.AlarmResponse {
	schedules := make([]dto.ScheduleResponse, 0, len(a.Schedules))
	for _, s := range a.Schedules {
		schedules = append(schedules, dto.ScheduleResponse{
			ScheduleID: s.ScheduleID,
			TimeOfDay:  s.TimeOfDay,
			Active:     s.Active,
			DaysOfWeek: s.DaysOfWeek,
		})
	}
	return dto.AlarmResponse{
		AlarmID:   a.AlarmID,
		UserID:    a.UserID,
		Name:      a.Name,
		Enabled:   a.Enabled,
		Metadata:  a.Metadata,
		Schedules: schedules,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func toEventResponse(e *model.AlarmEvent) dto.AlarmEventResponse {
	resp := dto.AlarmEventResponse{
		EventID:         e.EventID,
		AlarmID:         e.AlarmID,
		Status:          e.Status,
		TriggeredAt:     e.TriggeredAt,
		AcknowledgedAt:  e.AcknowledgedAt,
		EscalationLevel: e.EscalationLevel,
		LastNotifiedAt:  e.LastNotifiedAt,
	}
	if e.Alarm != nil {
		resp.AlarmName = e.Alarm.Name
	}
	return resp
}
