package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"smart-alarm/backend/internal/model"
	"smart-alarm/backend/internal/repository"
)

// ── 通知模块业务错误 ──

var ErrWebhookEmptyURL = errors.New("webhook 地址未配置")

// Notifier 通知派发接口。
// 投递保证属于外部通道；派发方视角为 fire-and-forget，
// 失败只体现在通知记录的状态与重试计数上。
type Notifier interface {
	// Dispatch 派发一条通知并落库记录
	Dispatch(ctx context.Context, userID string, eventID *string, message string) error
}

// NotificationService 通知模块业务接口
type NotificationService interface {
	Notifier
	// ListByUser 查询用户的通知记录（分页）
	ListByUser(ctx context.Context, userID string, page, pageSize int) ([]model.Notification, int64, error)
}

// ── Webhook 通道 ──

// webhookPayload 通用 webhook 消息体
type webhookPayload struct {
	MsgType string      `json:"msgtype"`
	Text    webhookText `json:"text"`
}

type webhookText struct {
	Content string `json:"content"`
}

// WebhookChannel 将通知投递到 webhook 端点
type WebhookChannel struct {
	url    string
	client *http.Client
}

// WebhookOption 配置 WebhookChannel
type WebhookOption func(*WebhookChannel)

// WithHTTPClient 覆盖默认 HTTP 客户端
func WithHTTPClient(client *http.Client) WebhookOption {
	return func(ch *WebhookChannel) {
		if client != nil {
			ch.client = client
		}
	}
}

// NewWebhookChannel 创建 Webhook 通道
func NewWebhookChannel(url string, timeout time.Duration, opts ...WebhookOption) (*WebhookChannel, error) {
	if url == "" {
		return nil, ErrWebhookEmptyURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ch := &WebhookChannel{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(ch)
	}
	return ch, nil
}

// Send 以 POST JSON 投递文本内容
func (w *WebhookChannel) Send(ctx context.Context, content string) error {
	payload := webhookPayload{
		MsgType: "text",
		Text:    webhookText{Content: content},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook 返回非预期状态码 %d", resp.StatusCode)
	}
	return nil
}

// ── NotificationService 实现 ──

type notificationService struct {
	repo    *repository.Repository
	channel *WebhookChannel // nil 时仅落库不外发
	logger  *zap.Logger
}

// NewNotificationService 创建 NotificationService 实例。
// channel 为 nil 时降级为只记录不外发（webhook 未配置场景）。
func NewNotificationService(repo *repository.Repository, channel *WebhookChannel, logger *zap.Logger) NotificationService {
	return &notificationService{repo: repo, channel: channel, logger: logger}
}

func (s *notificationService) Dispatch(ctx context.Context, userID string, eventID *string, message string) error {
	n := model.Notification{
		UserID:  userID,
		EventID: eventID,
		Channel: model.NotificationChannelWebhook,
		Message: message,
		Status:  model.NotificationStatusPending,
	}
	if err := s.repo.Notification.Create(ctx, &n); err != nil {
		return fmt.Errorf("创建通知记录失败: %w", err)
	}

	if s.channel == nil {
		s.logger.Warn("webhook 未配置，通知仅落库", zap.String("notification_id", n.NotificationID))
		return nil
	}

	if err := s.channel.Send(ctx, message); err != nil {
		s.logger.Error("webhook 派发失败",
			zap.String("notification_id", n.NotificationID),
			zap.Error(err),
		)
		n.Status = model.NotificationStatusFailed
		n.Retries++
		if uerr := s.repo.Notification.Update(ctx, &n); uerr != nil {
			s.logger.Error("更新通知状态失败", zap.Error(uerr))
		}
		return nil // 投递失败不上抛：派发是 fire-and-forget
	}

	now := time.Now()
	n.Status = model.NotificationStatusSent
	n.SentAt = &now
	if err := s.repo.Notification.Update(ctx, &n); err != nil {
		s.logger.Error("更新通知状态失败", zap.Error(err))
	}
	return nil
}

func (s *notificationService) ListByUser(ctx context.Context, userID string, page, pageSize int) ([]model.Notification, int64, error) {
	return s.repo.Notification.ListByUser(ctx, userID, page, pageSize)
}
