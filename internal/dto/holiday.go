package dto

// ── 节假日模块 ──

// ImportHolidaysRequest 节假日 ICS 导入请求（URL 方式）
type ImportHolidaysRequest struct {
	URL     string `json:"url" binding:"omitempty,url"`
	Country string `json:"country" binding:"required,len=2"`
	State   string `json:"state" binding:"omitempty,max=10"`
}

// ImportHolidaysResponse 节假日导入响应
type ImportHolidaysResponse struct {
	ImportedCount int           `json:"imported_count"`
	Holidays      []HolidayItem `json:"holidays"`
}

// HolidayItem 节假日条目
type HolidayItem struct {
	Date        string `json:"date"` // YYYY-MM-DD
	Description string `json:"description"`
	Country     string `json:"country"`
	State       string `json:"state,omitempty"`
}
