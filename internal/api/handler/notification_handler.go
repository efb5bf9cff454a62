package handler

import (
	"github.com/gin-gonic/gin"

	"smart-alarm/backend/internal/dto"
	"smart-alarm/backend/internal/service"
	"smart-alarm/backend/pkg/response"
)

// NotificationHandler 通知模块 HTTP 处理器
type NotificationHandler struct {
	notificationSvc service.NotificationService
}

// NewNotificationHandler 创建 NotificationHandler
func NewNotificationHandler(notificationSvc service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationSvc: notificationSvc}
}

// ListNotifications 查询当前用户的通知记录
// GET /api/v1/notifications
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.PageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	notifications, total, err := h.notificationSvc.ListByUser(c.Request.Context(), userID, req.Page, req.PageSize)
	if err != nil {
		response.InternalError(c)
		return
	}

	list := make([]dto.NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		list = append(list, dto.NotificationResponse{
			NotificationID: n.NotificationID,
			Channel:        n.Channel,
			Message:        n.Message,
			Status:         n.Status,
			Retries:        n.Retries,
			SentAt:         n.SentAt,
			CreatedAt:      n.CreatedAt,
		})
	}

	response.OKPage(c, list, total, req.Page, req.PageSize)
}
