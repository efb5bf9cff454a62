package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"smart-alarm/backend/internal/dto"
	"smart-alarm/backend/internal/model"
	"smart-alarm/backend/internal/repository"
)

// ── 例外时段模块业务错误 ──

var (
	ErrPeriodNotFound     = errors.New("例外时段不存在")
	ErrPeriodNotOwner     = errors.New("无权操作此例外时段")
	ErrPeriodDateOrder    = errors.New("结束日期不能早于开始日期")
	ErrPeriodSpanTooLong  = errors.New("时段跨度不能超过 365 天")
	ErrPeriodStartTooOld  = errors.New("开始日期不能早于 30 天前")
	ErrPeriodOverlap      = errors.New("与现有活跃时段的日期区间重叠")
	ErrPeriodInvalidType  = errors.New("非法的时段类型")
	ErrPeriodInvalidDates = errors.New("日期格式非法")
)

// 字段约束
const (
	maxPeriodSpanDays = 365
	maxPastStartDays  = 30
)

// ExceptionPeriodService 例外时段业务接口
//
// 设计说明：
//   - 重叠校验在写入前同步执行（排除更新目标自身）；与并发写的竞态
//     由数据库排它约束兜底，这里只保证谓词本身的正确性。
//   - 校验失败携带字段级信息，不做静默修正。
//   - 所有变更校验属主；属主不符返回鉴权错误而非 not found。
type ExceptionPeriodService interface {
	Create(ctx context.Context, req *dto.CreateExceptionPeriodRequest, userID string) (*dto.ExceptionPeriodResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateExceptionPeriodRequest, userID string) (*dto.ExceptionPeriodResponse, error)
	Delete(ctx context.Context, id string, userID string) error
	Get(ctx context.Context, id string, userID string) (*dto.ExceptionPeriodResponse, error)
	ListByUser(ctx context.Context, userID string) ([]dto.ExceptionPeriodResponse, error)
	// IsSuppressedOnDate 用户在指定日期是否处于抑制中（到期评估的钩子实现）
	IsSuppressedOnDate(ctx context.Context, userID string, date time.Time) (bool, error)
}

type exceptionPeriodService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExceptionPeriodService 创建 ExceptionPeriodService 实例
func NewExceptionPeriodService(repo *repository.Repository, logger *zap.Logger) ExceptionPeriodService {
	return &exceptionPeriodService{repo: repo, logger: logger}
}

// ════════════════════════════════════════════════════════════
// Create — 创建例外时段
// ════════════════════════════════════════════════════════════

func (s *exceptionPeriodService) Create(ctx context.Context, req *dto.CreateExceptionPeriodRequest, userID string) (*dto.ExceptionPeriodResponse, error) {
	start, end, err := req.ParseDates()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPeriodInvalidDates, err)
	}
	if !model.IsValidPeriodType(req.Type) {
		return nil, ErrPeriodInvalidType
	}
	if err := validatePeriodDates(start, end, time.Now()); err != nil {
		return nil, err
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	// 活跃时段才参与重叠校验
	if active {
		if err := s.checkOverlap(ctx, userID, start, end, ""); err != nil {
			return nil, err
		}
	}

	period := model.ExceptionPeriod{
		UserID:      userID,
		Name:        req.Name,
		StartDate:   start,
		EndDate:     end,
		Type:        req.Type,
		Active:      active,
		Description: req.Description,
	}
	period.CreatedBy = &userID

	if err := s.repo.ExceptionPeriod.Create(ctx, &period); err != nil {
		s.logger.Error("创建例外时段失败", zap.Error(err))
		return nil, err
	}

	resp := toPeriodResponse(period)
	return &resp, nil
}

// ════════════════════════════════════════════════════════════
// Update — 更新例外时段
// ════════════════════════════════════════════════════════════

func (s *exceptionPeriodService) Update(ctx context.Context, id string, req *dto.UpdateExceptionPeriodRequest, userID string) (*dto.ExceptionPeriodResponse, error) {
	period, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	// 应用更新
	if req.Name != nil {
		period.Name = *req.Name
	}
	if req.StartDate != nil {
		t, err := time.Parse("2006-01-02", *req.StartDate)
		if err != nil {
			return nil, fmt.Errorf("%w: start_date 格式必须为 YYYY-MM-DD", ErrPeriodInvalidDates)
		}
		period.StartDate = t
	}
	if req.EndDate != nil {
		t, err := time.Parse("2006-01-02", *req.EndDate)
		if err != nil {
			return nil, fmt.Errorf("%w: end_date 格式必须为 YYYY-MM-DD", ErrPeriodInvalidDates)
		}
		period.EndDate = t
	}
	if req.Type != nil {
		if !model.IsValidPeriodType(*req.Type) {
			return nil, ErrPeriodInvalidType
		}
		period.Type = *req.Type
	}
	if req.Active != nil {
		period.Active = *req.Active
	}
	if req.Description != nil {
		period.Description = *req.Description
	}
	period.UpdatedBy = &userID

	if err := validatePeriodDates(period.StartDate, period.EndDate, time.Now()); err != nil {
		return nil, err
	}

	// 重叠校验排除自身
	if period.Active {
		if err := s.checkOverlap(ctx, userID, period.StartDate, period.EndDate, period.PeriodID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.ExceptionPeriod.Update(ctx, period); err != nil {
		s.logger.Error("更新例外时段失败", zap.Error(err))
		return nil, err
	}

	resp := toPeriodResponse(*period)
	return &resp, nil
}

func (s *exceptionPeriodService) Delete(ctx context.Context, id string, userID string) error {
	if _, err := s.getOwned(ctx, id, userID); err != nil {
		return err
	}
	if err := s.repo.ExceptionPeriod.Delete(ctx, id, userID); err != nil {
		s.logger.Error("删除例外时段失败", zap.Error(err))
		return err
	}
	return nil
}

func (s *exceptionPeriodService) Get(ctx context.Context, id string, userID string) (*dto.ExceptionPeriodResponse, error) {
	period, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	resp := toPeriodResponse(*period)
	return &resp, nil
}

func (s *exceptionPeriodService) ListByUser(ctx context.Context, userID string) ([]dto.ExceptionPeriodResponse, error) {
	periods, err := s.repo.ExceptionPeriod.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	result := make([]dto.ExceptionPeriodResponse, 0, len(periods))
	for _, p := range periods {
		result = append(result, toPeriodResponse(p))
	}
	return result, nil
}

// IsSuppressedOnDate 到期评估的抑制钩子：当日存在生效时段即抑制。
func (s *exceptionPeriodService) IsSuppressedOnDate(ctx context.Context, userID string, date time.Time) (bool, error) {
	periods, err := s.repo.ExceptionPeriod.ListActiveByUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return len(ActivePeriodsOnDate(periods, date)) > 0, nil
}

// ── 私有辅助方法 ──

// getOwned 按 ID 取时段并校验属主。
// 属主不符是鉴权失败（403），与不存在（404）区分。
func (s *exceptionPeriodService) getOwned(ctx context.Context, id, userID string) (*model.ExceptionPeriod, error) {
	period, err := s.repo.ExceptionPeriod.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPeriodNotFound
		}
		return nil, err
	}
	if period.UserID != userID {
		return nil, ErrPeriodNotOwner
	}
	return period, nil
}

// checkOverlap 与现存活跃时段做双闭区间重叠校验
func (s *exceptionPeriodService) checkOverlap(ctx context.Context, userID string, start, end time.Time, excludeID string) error {
	existing, err := s.repo.ExceptionPeriod.ListActiveByUser(ctx, userID)
	if err != nil {
		return err
	}
	if HasPeriodOverlap(existing, start, end, excludeID) {
		return ErrPeriodOverlap
	}
	return nil
}

// validatePeriodDates 日期不变量：顺序、跨度上限、过去起点上限
func validatePeriodDates(start, end, now time.Time) error {
	if end.Before(start) {
		return ErrPeriodDateOrder
	}
	// 跨度按覆盖的日历天数计（双闭区间，含首尾两天）
	spanDays := int(end.Sub(start).Hours()/24) + 1
	if spanDays > maxPeriodSpanDays {
		return ErrPeriodSpanTooLong
	}
	earliest := now.AddDate(0, 0, -maxPastStartDays)
	if start.Before(time.Date(earliest.Year(), earliest.Month(), earliest.Day(), 0, 0, 0, 0, start.Location())) {
		return ErrPeriodStartTooOld
	}
	return nil
}

func toPeriodResponse(p model.ExceptionPeriod) dto.ExceptionPeriodResponse {
	return dto.ExceptionPeriodResponse{
		PeriodID:    p.PeriodID,
		UserID:      p.UserID,
		Name:        p.Name,
		StartDate:   p.StartDate.Format("2006-01-02"),
		EndDate:     p.EndDate.Format("2006-01-02"),
		Type:        p.Type,
		Active:      p.Active,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
