package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"smart-alarm/backend/internal/dto"
	"smart-alarm/backend/internal/model"
	"smart-alarm/backend/internal/service"
	pkgerrors "smart-alarm/backend/pkg/errors"
	"smart-alarm/backend/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock AuthService ──

type mockAuthService struct {
	registerResult *dto.TokenResponse
	registerErr    error
	loginResult    *dto.TokenResponse
	loginErr       error
	refreshResult  *dto.TokenResponse
	refreshErr     error
	logoutErr      error
	changePassErr  error
}

func (m *mockAuthService) Register(_ context.Context, _ *dto.RegisterRequest) (*dto.TokenResponse, error) {
	return m.registerResult, m.registerErr
}
func (m *mockAuthService) Login(_ context.Context, _ *dto.LoginRequest) (*dto.TokenResponse, error) {
	return m.loginResult, m.loginErr
}
func (m *mockAuthService) RefreshToken(_ context.Context, _ string) (*dto.TokenResponse, error) {
	return m.refreshResult, m.refreshErr
}
func (m *mockAuthService) Logout(_ context.Context, _ string, _ time.Time) error {
	return m.logoutErr
}
func (m *mockAuthService) ChangePassword(_ context.Context, _ string, _ *dto.ChangePasswordRequest) error {
	return m.changePassErr
}

// ── Mock AlarmService ──

type mockAlarmService struct {
	createResult   *dto.AlarmResponse
	createErr      error
	updateResult   *dto.AlarmResponse
	updateErr      error
	deleteErr      error
	getResult      *dto.AlarmResponse
	getErr         error
	listResult     []dto.AlarmResponse
	listErr        error
	addSchedResult *dto.ScheduleResponse
	addSchedErr    error
	updSchedResult *dto.ScheduleResponse
	updSchedErr    error
	removeSchedErr error
	nextResult     *dto.NextTriggerResponse
	nextErr        error
}

func (m *mockAlarmService) Create(_ context.Context, _ *dto.CreateAlarmRequest, _ string) (*dto.AlarmResponse, error) {
	return m.createResult, m.createErr
}
func (m *mockAlarmService) Update(_ context.Context, _ string, _ *dto.UpdateAlarmRequest, _ string) (*dto.AlarmResponse, error) {
	return m.updateResult, m.updateErr
}
func (m *mockAlarmService) Delete(_ context.Context, _ string, _ string) error {
	return m.deleteErr
}
func (m *mockAlarmService) Get(_ context.Context, _ string, _ string) (*dto.AlarmResponse, error) {
	return m.getResult, m.getErr
}
func (m *mockAlarmService) ListByUser(_ context.Context, _ string) ([]dto.AlarmResponse, error) {
	return m.listResult, m.listErr
}
func (m *mockAlarmService) AddSchedule(_ context.Context, _ string, _ *dto.ScheduleRequest, _ string) (*dto.ScheduleResponse, error) {
	return m.addSchedResult, m.addSchedErr
}
func (m *mockAlarmService) UpdateSchedule(_ context.Context, _, _ string, _ *dto.UpdateScheduleRequest, _ string) (*dto.ScheduleResponse, error) {
	return m.updSchedResult, m.updSchedErr
}
func (m *mockAlarmService) RemoveSchedule(_ context.Context, _, _ string, _ string) error {
	return m.removeSchedErr
}
func (m *mockAlarmService) NextTrigger(_ context.Context, _ string, _ string, _ time.Time) (*dto.NextTriggerResponse, error) {
	return m.nextResult, m.nextErr
}

// ── Mock ExceptionPeriodService ──

type mockPeriodService struct {
	createResult *dto.ExceptionPeriodResponse
	createErr    error
	updateResult *dto.ExceptionPeriodResponse
	updateErr    error
	deleteErr    error
	getResult    *dto.ExceptionPeriodResponse
	getErr       error
	listResult   []dto.ExceptionPeriodResponse
	listErr      error
}

func (m *mockPeriodService) Create(_ context.Context, _ *dto.CreateExceptionPeriodRequest, _ string) (*dto.ExceptionPeriodResponse, error) {
	return m.createResult, m.createErr
}
func (m *mockPeriodService) Update(_ context.Context, _ string, _ *dto.UpdateExceptionPeriodRequest, _ string) (*dto.ExceptionPeriodResponse, error) {
	return m.updateResult, m.updateErr
}
func (m *mockPeriodService) Delete(_ context.Context, _ string, _ string) error {
	return m.deleteErr
}
func (m *mockPeriodService) Get(_ context.Context, _ string, _ string) (*dto.ExceptionPeriodResponse, error) {
	return m.getResult, m.getErr
}
func (m *mockPeriodService) ListByUser(_ context.Context, _ string) ([]dto.ExceptionPeriodResponse, error) {
	return m.listResult, m.listErr
}
func (m *mockPeriodService) IsSuppressedOnDate(_ context.Context, _ string, _ time.Time) (bool, error) {
	return false, nil
}

// ── Mock EscalationService ──

type mockEscalationService struct {
	ackResult  *model.AlarmEvent
	ackErr     error
	listResult []model.AlarmEvent
	listTotal  int64
	listErr    error
}

func (m *mockEscalationService) RecordTrigger(_ context.Context, _ *model.Alarm, _ time.Time) (*model.AlarmEvent, error) {
	return nil, errors.New("mock: not implemented")
}
func (m *mockEscalationService) Acknowledge(_ context.Context, _, _ string, _ time.Time) (*model.AlarmEvent, error) {
	return m.ackResult, m.ackErr
}
func (m *mockEscalationService) ProcessOverdue(_ context.Context, _ time.Time) error {
	return nil
}
func (m *mockEscalationService) ListEvents(_ context.Context, _ string, _, _ int) ([]model.AlarmEvent, int64, error) {
	return m.listResult, m.listTotal, m.listErr
}

// ── Mock ExportService ──

type mockExportService struct {
	buf      *bytes.Buffer
	filename string
	err      error
}

func (m *mockExportService) ExportAlarmsExcel(_ context.Context, _ string) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}
func (m *mockExportService) ExportAlarmsICS(_ context.Context, _ string) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

func newRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}

func setAuth(c *gin.Context) {
	c.Set("user_id", "test-user-id")
	c.Set("role", "user")
	c.Set("jti", "test-jti")
	c.Set("token_expires_at", time.Now().Add(15*time.Minute))
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

// ═══════════════════════════════════════════════════════════
// AuthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAuthHandler_Register_Success(t *testing.T) {
	mock := &mockAuthService{
		registerResult: &dto.TokenResponse{
			AccessToken:  "test-access",
			RefreshToken: "test-refresh",
		},
	}
	h := NewAuthHandler(mock)

	w := newRecorder()
	req := httptest.NewRequest("POST", "/auth/register", jsonBody(dto.RegisterRequest{
		Email:    "new@example.com",
		Name:     "新用户",
		Password: "password123",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 0 {
		t.Errorf("expected code 0, got %d", resp.Code)
	}
}

func TestAuthHandler_Register_EmailTaken(t *testing.T) {
	mock := &mockAuthService{registerErr: service.ErrEmailTaken}
	h := NewAuthHandler(mock)

	w := newRecorder()
	req := httptest.NewRequest("POST", "/auth/register", jsonBody(dto.RegisterRequest{
		Email:    "taken@example.com",
		Name:     "重复用户",
		Password: "password123",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 11002 {
		t.Errorf("expected error code 11002, got %d", resp.Code)
	}
}

func TestAuthHandler_Login_BadJSON(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	w := newRecorder()
	req := httptest.NewRequest("POST", "/auth/login", bytes.NewReader([]byte("invalid json")))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	mock := &mockAuthService{loginErr: service.ErrInvalidCredentials}
	h := NewAuthHandler(mock)

	w := newRecorder()
	req := httptest.NewRequest("POST", "/auth/login", jsonBody(dto.LoginRequest{
		Email:    "user@example.com",
		Password: "wrong",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 11001 {
		t.Errorf("expected error code 11001, got %d", resp.Code)
	}
}

func TestAuthHandler_Logout_Unauthenticated(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	w := newRecorder()
	req := httptest.NewRequest("POST", "/auth/logout", nil)

	r := gin.New()
	r.POST("/auth/logout", h.Logout) // 未注入 jti
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestAuthHandler_Logout_Success(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	w := newRecorder()
	req := httptest.NewRequest("POST", "/auth/logout", nil)

	r := gin.New()
	r.POST("/auth/logout", func(c *gin.Context) {
		setAuth(c)
		h.Logout(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// AlarmHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAlarmHandler_Create_Success(t *testing.T) {
	mock := &mockAlarmService{
		createResult: &dto.AlarmResponse{AlarmID: "a1", Name: "晨跑", Enabled: true},
	}
	h := NewAlarmHandler(mock)

	w := newRecorder()
	req := httptest.NewRequest("POST", "/alarms", jsonBody(dto.CreateAlarmRequest{
		Name: "晨跑",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/alarms", func(c *gin.Context) {
		setAuth(c)
		h.CreateAlarm(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}
}

func TestAlarmHandler_Create_BadJSON(t *testing.T) {
	h := NewAlarmHandler(&mockAlarmService{})

	w := newRecorder()
	req := httptest.NewRequest("POST", "/alarms", bytes.NewReader([]byte("bad")))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/alarms", func(c *gin.Context) {
		setAuth(c)
		h.CreateAlarm(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestAlarmHandler_Get_Unauthenticated(t *testing.T) {
	h := NewAlarmHandler(&mockAlarmService{})

	w := newRecorder()
	req := httptest.NewRequest("GET", "/alarms/a1", nil)

	r := gin.New()
	r.GET("/alarms/:id", h.GetAlarm) // 未注入 user_id
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestAlarmHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"NotFound", service.ErrAlarmNotFound, 404, 13001},
		{"NotOwner", service.ErrAlarmNotOwner, 403, 13002},
		{"ScheduleNotFound", service.ErrScheduleNotFound, 404, 13003},
		{"InvalidTime", service.ErrScheduleInvalidTime, 400, 13004},
		{"InvalidMetadata", service.ErrAlarmInvalidMetadata, 400, 13005},
		{"OptimisticLock", pkgerrors.ErrOptimisticLock, 409, 13006},
		{"InternalError", errors.New("unknown"), 500, 50000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockAlarmService{getErr: tt.err}
			h := NewAlarmHandler(mock)

			w := newRecorder()
			req := httptest.NewRequest("GET", "/alarms/a1", nil)

			r := gin.New()
			r.GET("/alarms/:id", func(c *gin.Context) {
				setAuth(c)
				h.GetAlarm(c)
			})
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			resp := parseResponse(w)
			if resp.Code != tt.wantCode {
				t.Errorf("expected code %d, got %d", tt.wantCode, resp.Code)
			}
		})
	}
}

func TestAlarmHandler_NextTrigger_Success(t *testing.T) {
	next := time.Date(2026, 3, 3, 6, 0, 0, 0, time.UTC)
	mock := &mockAlarmService{
		nextResult: &dto.NextTriggerResponse{AlarmID: "a1", NextTrigger: &next},
	}
	h := NewAlarmHandler(mock)

	w := newRecorder()
	req := httptest.NewRequest("GET", "/alarms/a1/next-trigger", nil)

	r := gin.New()
	r.GET("/alarms/:id/next-trigger", func(c *gin.Context) {
		setAuth(c)
		h.GetNextTrigger(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ExceptionPeriodHandler Tests
// ═══════════════════════════════════════════════════════════

func TestPeriodHandler_Create_Success(t *testing.T) {
	mock := &mockPeriodService{
		createResult: &dto.ExceptionPeriodResponse{PeriodID: "p1", Name: "年假"},
	}
	h := NewExceptionPeriodHandler(mock)

	w := newRecorder()
	req := httptest.NewRequest("POST", "/exception-periods", jsonBody(dto.CreateExceptionPeriodRequest{
		Name:      "年假",
		StartDate: "2026-07-01",
		EndDate:   "2026-07-15",
		Type:      "vacation",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/exception-periods", func(c *gin.Context) {
		setAuth(c)
		h.CreatePeriod(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}
}

func TestPeriodHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"NotFound", service.ErrPeriodNotFound, 404, 14001},
		{"NotOwner", service.ErrPeriodNotOwner, 403, 14002},
		{"Overlap", service.ErrPeriodOverlap, 409, 14003},
		{"DateOrder", service.ErrPeriodDateOrder, 400, 14004},
		{"SpanTooLong", service.ErrPeriodSpanTooLong, 400, 14005},
		{"StartTooOld", service.ErrPeriodStartTooOld, 400, 14006},
		{"InvalidType", service.ErrPeriodInvalidType, 400, 14007},
		{"InvalidDates", service.ErrPeriodInvalidDates, 400, 14008},
		{"InternalError", errors.New("unknown"), 500, 50000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockPeriodService{getErr: tt.err}
			h := NewExceptionPeriodHandler(mock)

			w := newRecorder()
			req := httptest.NewRequest("GET", "/exception-periods/p1", nil)

			r := gin.New()
			r.GET("/exception-periods/:id", func(c *gin.Context) {
				setAuth(c)
				h.GetPeriod(c)
			})
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			resp := parseResponse(w)
			if resp.Code != tt.wantCode {
				t.Errorf("expected code %d, got %d", tt.wantCode, resp.Code)
			}
		})
	}
}

// ═══════════════════════════════════════════════════════════
// TriggerHandler Tests
// ═══════════════════════════════════════════════════════════

func TestTriggerHandler_Acknowledge_Success(t *testing.T) {
	ackAt := time.Now()
	mock := &mockEscalationService{
		ackResult: &model.AlarmEvent{
			EventID:        "e1",
			AlarmID:        "a1",
			Status:         model.EventStatusAcknowledged,
			AcknowledgedAt: &ackAt,
		},
	}
	h := NewTriggerHandler(nil, mock, nil)

	w := newRecorder()
	req := httptest.NewRequest("POST", "/events/e1/acknowledge", nil)

	r := gin.New()
	r.POST("/events/:id/acknowledge", func(c *gin.Context) {
		setAuth(c)
		h.AcknowledgeEvent(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestTriggerHandler_Acknowledge_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"NotFound", service.ErrEventNotFound, 404, 16001},
		{"NotOwner", service.ErrEventNotOwner, 403, 16002},
		{"InvalidTransition", service.ErrEventInvalidTransition, 409, 16003},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockEscalationService{ackErr: tt.err}
			h := NewTriggerHandler(nil, mock, nil)

			w := newRecorder()
			req := httptest.NewRequest("POST", "/events/e1/acknowledge", nil)

			r := gin.New()
			r.POST("/events/:id/acknowledge", func(c *gin.Context) {
				setAuth(c)
				h.AcknowledgeEvent(c)
			})
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			resp := parseResponse(w)
			if resp.Code != tt.wantCode {
				t.Errorf("expected code %d, got %d", tt.wantCode, resp.Code)
			}
		})
	}
}

// ═══════════════════════════════════════════════════════════
// ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestExportHandler_Excel_Success(t *testing.T) {
	mock := &mockExportService{
		buf:      bytes.NewBufferString("excel content"),
		filename: "闹钟清单.xlsx",
	}
	h := NewExportHandler(mock)

	w := newRecorder()
	req := httptest.NewRequest("GET", "/export/alarms.xlsx", nil)

	r := gin.New()
	r.GET("/export/alarms.xlsx", func(c *gin.Context) {
		setAuth(c)
		h.ExportAlarmsExcel(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != contentTypeXLSX {
		t.Errorf("unexpected content type: %s", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); cd == "" {
		t.Error("expected Content-Disposition header")
	}
}

func TestExportHandler_ICS_Success(t *testing.T) {
	mock := &mockExportService{
		buf:      bytes.NewBufferString("BEGIN:VCALENDAR\nEND:VCALENDAR"),
		filename: "alarms.ics",
	}
	h := NewExportHandler(mock)

	w := newRecorder()
	req := httptest.NewRequest("GET", "/export/alarms.ics", nil)

	r := gin.New()
	r.GET("/export/alarms.ics", func(c *gin.Context) {
		setAuth(c)
		h.ExportAlarmsICS(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != contentTypeICS {
		t.Errorf("unexpected content type: %s", ct)
	}
}

func TestExportHandler_NoAlarms(t *testing.T) {
	mock := &mockExportService{err: service.ErrExportNoAlarms}
	h := NewExportHandler(mock)

	w := newRecorder()
	req := httptest.NewRequest("GET", "/export/alarms.xlsx", nil)

	r := gin.New()
	r.GET("/export/alarms.xlsx", func(c *gin.Context) {
		setAuth(c)
		h.ExportAlarmsExcel(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 17001 {
		t.Errorf("expected error code 17001, got %d", resp.Code)
	}
}
