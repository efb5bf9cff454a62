package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"smart-alarm/backend/internal/dto"
	"smart-alarm/backend/internal/model"
	"smart-alarm/backend/internal/repository"
)

// UserService 用户模块业务接口
type UserService interface {
	Get(ctx context.Context, userID string) (*dto.UserResponse, error)
	List(ctx context.Context, page, pageSize int) ([]dto.UserResponse, int64, error)
	// Update 更新资料；callerID 非本人时要求 admin 角色（Handler 层已做角色过滤）
	Update(ctx context.Context, userID string, req *dto.UpdateUserRequest, callerID string) (*dto.UserResponse, error)
	Delete(ctx context.Context, userID string, callerID string) error
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

func (s *userService) Get(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *userService) List(ctx context.Context, page, pageSize int) ([]dto.UserResponse, int64, error) {
	users, total, err := s.repo.User.List(ctx, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	result := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		result = append(result, toUserResponse(&users[i]))
	}
	return result, total, nil
}

func (s *userService) Update(ctx context.Context, userID string, req *dto.UpdateUserRequest, callerID string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Timezone != nil {
		user.Timezone = *req.Timezone
	}
	if req.Country != nil {
		user.Country = *req.Country
	}
	if req.State != nil {
		user.State = *req.State
	}
	user.UpdatedBy = &callerID

	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("更新用户失败", zap.Error(err))
		return nil, err
	}

	resp := toUserResponse(user)
	return &resp, nil
}

func (s *userService) Delete(ctx context.Context, userID string, callerID string) error {
	if _, err := s.repo.User.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return s.repo.User.Delete(ctx, userID, callerID)
}

// ── 响应转换器 ──

func toUserResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		UserID:    u.UserID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		Timezone:  u.Timezone,
		Country:   u.Country,
		State:     u.State,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}
