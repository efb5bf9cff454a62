package dto

import "time"

// ── 用户模块 ──

// UserResponse 用户信息响应
type UserResponse struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Timezone  string    `json:"timezone"`
	Country   string    `json:"country,omitempty"`
	State     string    `json:"state,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// UpdateUserRequest 更新用户请求（部分字段）
type UpdateUserRequest struct {
	Name     *string `json:"name" binding:"omitempty,max=100"`
	Timezone *string `json:"timezone" binding:"omitempty,max=64"`
	Country  *string `json:"country" binding:"omitempty,len=2"`
	State    *string `json:"state" binding:"omitempty,max=10"`
}

// ListUsersRequest 用户列表查询
type ListUsersRequest struct {
	Page     int `form:"page,default=1" binding:"min=1"`
	PageSize int `form:"page_size,default=20" binding:"min=1,max=100"`
}
