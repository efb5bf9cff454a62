package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"smart-alarm/backend/internal/model"
)

// HolidayRepository 节假日数据访问接口
type HolidayRepository interface {
	ListByCountry(ctx context.Context, country string) ([]model.Holiday, error)
	ListOnDate(ctx context.Context, date time.Time, country string) ([]model.Holiday, error)
	// ReplaceByCountry 全量替换指定国家的节假日（外部日历同步用，单事务）
	ReplaceByCountry(ctx context.Context, country string, holidays []model.Holiday) error
}

type holidayRepo struct {
	db *gorm.DB
}

// NewHolidayRepo 创建 HolidayRepository 实例
func NewHolidayRepo(db *gorm.DB) HolidayRepository {
	return &holidayRepo{db: db}
}

func (r *holidayRepo) ListByCountry(ctx context.Context, country string) ([]model.Holiday, error) {
	var holidays []model.Holiday
	err := r.db.WithContext(ctx).
		Where("country = ?", country).
		Order("date ASC").
		Find(&holidays).Error
	return holidays, err
}

func (r *holidayRepo) ListOnDate(ctx context.Context, date time.Time, country string) ([]model.Holiday, error) {
	var holidays []model.Holiday
	err := r.db.WithContext(ctx).
		Where("date = ? AND country = ?", date, country).
		Find(&holidays).Error
	return holidays, err
}

func (r *holidayRepo) ReplaceByCountry(ctx context.Context, country string, holidays []model.Holiday) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("country = ?", country).Delete(&model.Holiday{}).Error; err != nil {
			return err
		}
		if len(holidays) == 0 {
			return nil
		}
		return tx.CreateInBatches(holidays, 200).Error
	})
}
