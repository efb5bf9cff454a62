package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"smart-alarm/backend/internal/dto"
	"smart-alarm/backend/internal/service"
	"smart-alarm/backend/pkg/response"
)

// holidayUploadMaxBytes ICS 文件上传大小上限
const holidayUploadMaxBytes = 5 * 1024 * 1024

// HolidayHandler 节假日模块 HTTP 处理器（管理员专用）
type HolidayHandler struct {
	holidaySvc service.HolidayService
}

// NewHolidayHandler 创建 HolidayHandler
func NewHolidayHandler(holidaySvc service.HolidayService) *HolidayHandler {
	return &HolidayHandler{holidaySvc: holidaySvc}
}

// ImportHolidays 从 ICS 订阅 URL 导入节假日
// POST /api/v1/holidays/import
func (h *HolidayHandler) ImportHolidays(c *gin.Context) {
	var req dto.ImportHolidaysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	if req.URL == "" {
		response.BadRequest(c, 10001, "url 不能为空")
		return
	}

	result, err := h.holidaySvc.ImportFromURL(c.Request.Context(), req.URL, req.Country, req.State)
	if err != nil {
		h.handleHolidayError(c, err)
		return
	}

	response.OK(c, result)
}

// UploadHolidays 上传 ICS 文件导入节假日
// POST /api/v1/holidays/upload  (multipart: file, country, state)
func (h *HolidayHandler) UploadHolidays(c *gin.Context) {
	country := c.PostForm("country")
	if len(country) != 2 {
		response.BadRequest(c, 10001, "country 必须为 2 位国家代码")
		return
	}
	state := c.PostForm("state")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, 10001, "缺少上传文件")
		return
	}
	if fileHeader.Size > holidayUploadMaxBytes {
		response.BadRequest(c, 15003, "ICS 文件超过大小限制")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		response.InternalError(c)
		return
	}
	defer f.Close()

	result, err := h.holidaySvc.ImportFromReader(c.Request.Context(), f, country, state)
	if err != nil {
		h.handleHolidayError(c, err)
		return
	}

	response.OK(c, result)
}

// ListHolidays 查询指定国家的节假日
// GET /api/v1/holidays?country=CN
func (h *HolidayHandler) ListHolidays(c *gin.Context) {
	country := c.Query("country")
	if len(country) != 2 {
		response.BadRequest(c, 10001, "country 必须为 2 位国家代码")
		return
	}

	holidays, err := h.holidaySvc.ListByCountry(c.Request.Context(), country)
	if err != nil {
		h.handleHolidayError(c, err)
		return
	}

	response.OK(c, gin.H{"list": holidays})
}

// handleHolidayError 统一处理节假日模块业务错误
func (h *HolidayHandler) handleHolidayError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrHolidayInvalidICS):
		response.BadRequest(c, 15001, "ICS 内容解析失败")
	case errors.Is(err, service.ErrHolidayImportEmpty):
		response.BadRequest(c, 15002, "日历中没有可导入的节假日")
	case errors.Is(err, service.ErrHolidayFetchFailed):
		response.BadRequest(c, 15004, "获取节假日日历失败")
	default:
		response.InternalError(c)
	}
}
