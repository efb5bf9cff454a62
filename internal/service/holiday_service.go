package service

import (
	"context"
	"errors"
	"io"
	"time"

	"go.uber.org/zap"

	"smart-alarm/backend/internal/dto"
	"smart-alarm/backend/internal/model"
	"smart-alarm/backend/internal/repository"
)

// ── 节假日模块业务错误 ──

var (
	ErrHolidayImportEmpty  = errors.New("日历中没有可导入的节假日")
	ErrHolidayInvalidICS   = errors.New("ICS 内容解析失败")
	ErrHolidayFetchFailed  = errors.New("获取节假日日历失败")
	ErrHolidayNoUserLocale = errors.New("用户未配置国家信息")
)

// HolidayService 节假日业务接口
//
// 设计说明：
//   - 导入按国家全量替换（单事务），避免重复同步产生脏数据
//   - IsHolidayForUser 是到期评估的可选抑制来源：仅当闹钟元数据
//     skip_holidays=true 时由评估钩子调用
type HolidayService interface {
	ImportFromReader(ctx context.Context, reader io.Reader, country, state string) (*dto.ImportHolidaysResponse, error)
	ImportFromURL(ctx context.Context, url, country, state string) (*dto.ImportHolidaysResponse, error)
	ListByCountry(ctx context.Context, country string) ([]dto.HolidayItem, error)
	// IsHolidayForUser 判断指定日期对该用户所在地区是否为节假日
	IsHolidayForUser(ctx context.Context, user *model.User, date time.Time) (bool, error)
}

type holidayService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewHolidayService 创建 HolidayService 实例
func NewHolidayService(repo *repository.Repository, logger *zap.Logger) HolidayService {
	return &holidayService{repo: repo, logger: logger}
}

// ════════════════════════════════════════════════════════════
// ImportFromReader — 从 ICS 数据流导入节假日
// ════════════════════════════════════════════════════════════

func (s *holidayService) ImportFromReader(ctx context.Context, reader io.Reader, country, state string) (*dto.ImportHolidaysResponse, error) {
	// 1. 解析 ICS
	holidays, err := ParseHolidayICS(reader, country, state)
	if err != nil {
		s.logger.Warn("节假日 ICS 解析失败", zap.String("country", country), zap.Error(err))
		return nil, ErrHolidayInvalidICS
	}
	if len(holidays) == 0 {
		return nil, ErrHolidayImportEmpty
	}

	// 2. 按国家全量替换
	if err := s.repo.Holiday.ReplaceByCountry(ctx, country, holidays); err != nil {
		s.logger.Error("写入节假日失败", zap.String("country", country), zap.Error(err))
		return nil, err
	}

	s.logger.Info("节假日导入完成",
		zap.String("country", country),
		zap.Int("count", len(holidays)))

	return &dto.ImportHolidaysResponse{
		ImportedCount: len(holidays),
		Holidays:      toHolidayItems(holidays),
	}, nil
}

func (s *holidayService) ImportFromURL(ctx context.Context, url, country, state string) (*dto.ImportHolidaysResponse, error) {
	body, err := FetchICSContent(url)
	if err != nil {
		s.logger.Warn("获取节假日日历失败", zap.String("url", url), zap.Error(err))
		return nil, ErrHolidayFetchFailed
	}
	defer body.Close()
	return s.ImportFromReader(ctx, body, country, state)
}

func (s *holidayService) ListByCountry(ctx context.Context, country string) ([]dto.HolidayItem, error) {
	holidays, err := s.repo.Holiday.ListByCountry(ctx, country)
	if err != nil {
		return nil, err
	}
	return toHolidayItems(holidays), nil
}

// IsHolidayForUser 当日存在适用于用户所在地区的节假日即返回 true。
// 省级节假日仅适用于对应省份，全国性节假日适用于全国。
func (s *holidayService) IsHolidayForUser(ctx context.Context, user *model.User, date time.Time) (bool, error) {
	if user.Country == "" {
		return false, nil
	}
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	holidays, err := s.repo.Holiday.ListOnDate(ctx, day, user.Country)
	if err != nil {
		return false, err
	}
	for i := range holidays {
		if holidays[i].AppliesTo(user.Country, user.State) {
			return true, nil
		}
	}
	return false, nil
}

// ── 响应转换器 ──

func toHolidayItems(holidays []model.Holiday) []dto.HolidayItem {
	items := make([]dto.HolidayItem, 0, len(holidays))
	for _, h := range holidays {
		items = append(items, dto.HolidayItem{
			Date:        h.Date.Format("2006-01-02"),
			Description: h.Description,
			Country:     h.Country,
			State:       h.State,
		})
	}
	return items
}
