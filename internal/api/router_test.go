package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ashaw315/hotdog-diaries-sub008/internal/config"
	"github.com/ashaw315/hotdog-diaries-sub008/internal/domain"
	"github.com/ashaw315/hotdog-diaries-sub008/internal/logger"
	"github.com/ashaw315/hotdog-diaries-sub008/internal/poster"
)

const testToken = "test-admin-token"

type fakeScanService struct {
	coordResult *domain.CoordinatedScanResult
	coordErr    error
	outcome     *domain.ScanOutcome
	outcomeErr  error
}

func (f *fakeScanService) PerformCoordinatedScan(context.Context) (*domain.CoordinatedScanResult, error) {
	return f.coordResult, f.coordErr
}

func (f *fakeScanService) ScanPlatform(context.Context, domain.Platform) (*domain.ScanOutcome, error) {
	return f.outcome, f.outcomeErr
}

type fakeScanAudit struct {
	latest *domain.CoordinatedScanResult
	err    error
}

func (f *fakeScanAudit) GetLatest(context.Context) (*domain.CoordinatedScanResult, error) {
	return f.latest, f.err
}

type fakeScheduleService struct {
	result  *domain.ScheduleResult
	twoDays *domain.TwoDayResult
	err     error

	gotDate string
	gotMode domain.ScheduleMode
}

func (f *fakeScheduleService) GenerateSchedule(_ context.Context, date string, mode domain.ScheduleMode) (*domain.ScheduleResult, error) {
	f.gotDate, f.gotMode = date, mode
	return f.result, f.err
}

func (f *fakeScheduleService) RefillTwoDays(_ context.Context, date string) (*domain.TwoDayResult, error) {
	f.gotDate = date
	return f.twoDays, f.err
}

type fakePostService struct {
	postResult *poster.PostResult
	postErr    error
	health     *poster.QueueHealth
	healthErr  error

	gotForce bool
}

func (f *fakePostService) PostContent(_ context.Context, _ uuid.UUID, force bool) (*poster.PostResult, error) {
	f.gotForce = force
	return f.postResult, f.postErr
}

func (f *fakePostService) ProcessScheduledPost(context.Context) (*poster.PostResult, error) {
	return f.postResult, f.postErr
}

func (f *fakePostService) CheckQueueHealth(context.Context) (*poster.QueueHealth, error) {
	return f.health, f.healthErr
}

type fakeSettingsStore struct {
	cfg *domain.CoordinationConfig
	err error

	updated *domain.CoordinationConfig
}

func (f *fakeSettingsStore) Get(context.Context) (*domain.CoordinationConfig, error) {
	return f.cfg, f.err
}

func (f *fakeSettingsStore) Update(_ context.Context, cfg *domain.CoordinationConfig) (*domain.CoordinationConfig, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.updated = cfg
	return cfg, nil
}

type fakePinger struct{ err error }

func (f *fakePinger) Ping(context.Context) error { return f.err }

type testRouter struct {
	scan     *fakeScanService
	audit    *fakeScanAudit
	schedule *fakeScheduleService
	post     *fakePostService
	settings *fakeSettingsStore
	engine   *gin.Engine
}

func newTestRouter(t *testing.T) *testRouter {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tr := &testRouter{
		scan:     &fakeScanService{},
		audit:    &fakeScanAudit{},
		schedule: &fakeScheduleService{},
		post:     &fakePostService{},
		settings: &fakeSettingsStore{cfg: domain.DefaultCoordinationConfig()},
	}

	cfg := &config.Config{}
	cfg.Admin.Token = testToken

	r := NewRouter(cfg, RouterDeps{
		Scanner:   tr.scan,
		ScanAudit: tr.audit,
		Scheduler: tr.schedule,
		Poster:    tr.post,
		Settings:  tr.settings,
		DB:        &fakePinger{},
		Logger:    logger.NewNopLogger(),
	})
	r.now = func() time.Time {
		return time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	}
	tr.engine = r.Engine()
	return tr
}

func (tr *testRouter) do(t *testing.T, method, path string, body any, authed bool) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("X-Admin-Token", testToken)
	}

	w := httptest.NewRecorder()
	tr.engine.ServeHTTP(w, req)
	return w
}

func TestAdminAuth(t *testing.T) {
	tr := newTestRouter(t)

	testCases := []struct {
		name       string
		token      string
		wantStatus int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"wrong token", "wrong", http.StatusUnauthorized},
		{"valid token", testToken, http.StatusOK},
	}

	tr.post.health = &poster.QueueHealth{Status: poster.HealthStatusHealthy}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/queue/health", nil)
			if tc.token != "" {
				req.Header.Set("X-Admin-Token", tc.token)
			}
			w := httptest.NewRecorder()
			tr.engine.ServeHTTP(w, req)

			if w.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tc.wantStatus)
			}
		})
	}
}

func TestScanAllPlatforms_Conflict(t *testing.T) {
	tr := newTestRouter(t)
	tr.scan.coordErr = domain.ErrScanInProgress

	w := tr.do(t, http.MethodPost, "/api/v1/scan", nil, true)

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "Scan already in progress" {
		t.Errorf("error = %q, want %q", body["error"], "Scan already in progress")
	}
}

func TestLatestScanResult(t *testing.T) {
	tr := newTestRouter(t)
	tr.audit.latest = &domain.CoordinatedScanResult{
		ScanID:        uuid.New(),
		TotalFound:    12,
		TotalApproved: 9,
	}

	w := tr.do(t, http.MethodGet, "/api/v1/scan/latest", nil, true)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var body domain.CoordinatedScanResult
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.ScanID != tr.audit.latest.ScanID {
		t.Errorf("scan_id = %s, want %s", body.ScanID, tr.audit.latest.ScanID)
	}
	if body.TotalFound != 12 || body.TotalApproved != 9 {
		t.Errorf("totals = (%d, %d), want (12, 9)", body.TotalFound, body.TotalApproved)
	}
}

func TestLatestScanResult_NoneYet(t *testing.T) {
	tr := newTestRouter(t)
	tr.audit.err = domain.ErrNotFound

	w := tr.do(t, http.MethodGet, "/api/v1/scan/latest", nil, true)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestScanAllPlatforms_Success(t *testing.T) {
	tr := newTestRouter(t)
	tr.scan.coordResult = &domain.CoordinatedScanResult{
		ScanID:        uuid.New(),
		TotalFound:    38,
		TotalApproved: 30,
	}

	w := tr.do(t, http.MethodPost, "/api/v1/scan", nil, true)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var result domain.CoordinatedScanResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if result.TotalFound != 38 || result.TotalApproved != 30 {
		t.Errorf("totals = %d/%d, want 38/30", result.TotalFound, result.TotalApproved)
	}
}

func TestScanPlatform_StatusMapping(t *testing.T) {
	testCases := []struct {
		name        string
		platform    string
		outcome     *domain.ScanOutcome
		err         error
		wantStatus  int
		wantSuccess bool
	}{
		{
			name:       "unknown platform",
			platform:   "myspace",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "disabled platform",
			platform:   "reddit",
			err:        domain.ErrNotFound,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "scan in flight",
			platform:   "reddit",
			err:        domain.ErrScanInProgress,
			wantStatus: http.StatusConflict,
		},
		{
			name:     "connectivity failure",
			platform: "reddit",
			outcome: &domain.ScanOutcome{
				Platform: domain.PlatformReddit,
				Success:  false,
				Errors:   []string{"connection test: dial tcp: timeout"},
			},
			wantStatus: http.StatusBadGateway,
		},
		{
			name:     "zero approvals",
			platform: "reddit",
			outcome: &domain.ScanOutcome{
				Platform: domain.PlatformReddit,
				Success:  true,
				Found:    5,
				Approved: 0,
				Rejected: 5,
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:     "approvals",
			platform: "reddit",
			outcome: &domain.ScanOutcome{
				Platform: domain.PlatformReddit,
				Success:  true,
				Found:    4,
				Approved: 3,
			},
			wantStatus:  http.StatusOK,
			wantSuccess: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tr := newTestRouter(t)
			tr.scan.outcome = tc.outcome
			tr.scan.outcomeErr = tc.err

			w := tr.do(t, http.MethodPost, "/api/v1/scan/"+tc.platform, nil, true)

			if w.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tc.wantStatus)
			}
			if tc.outcome == nil {
				return
			}

			var body struct {
				Success    bool `json:"success"`
				PostsAdded int  `json:"posts_added"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Success != tc.wantSuccess {
				t.Errorf("success = %v, want %v", body.Success, tc.wantSuccess)
			}
			if body.PostsAdded != tc.outcome.Approved {
				t.Errorf("posts_added = %d, want %d", body.PostsAdded, tc.outcome.Approved)
			}
		})
	}
}

func TestGenerateSchedule_InvalidDate(t *testing.T) {
	tr := newTestRouter(t)

	w := tr.do(t, http.MethodPost, "/api/v1/schedule",
		map[string]any{"date": "03/14/2026"}, true)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestGenerateSchedule_DefaultsToTodayRefill(t *testing.T) {
	tr := newTestRouter(t)
	tr.schedule.result = &domain.ScheduleResult{Date: "2026-03-14", Filled: 6}

	w := tr.do(t, http.MethodPost, "/api/v1/schedule", map[string]any{}, true)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if tr.schedule.gotDate != "2026-03-14" {
		t.Errorf("date = %q, want %q", tr.schedule.gotDate, "2026-03-14")
	}
	if tr.schedule.gotMode != domain.ScheduleModeRefill {
		t.Errorf("mode = %q, want %q", tr.schedule.gotMode, domain.ScheduleModeRefill)
	}
}

func TestGenerateSchedule_TwoDays(t *testing.T) {
	tr := newTestRouter(t)
	tr.schedule.twoDays = &domain.TwoDayResult{
		Summary: domain.BatchSummary{TotalScheduled: 9},
	}

	w := tr.do(t, http.MethodPost, "/api/v1/schedule",
		map[string]any{"date": "2026-03-14", "two_days": true}, true)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var result domain.TwoDayResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if result.Summary.TotalScheduled != 9 {
		t.Errorf("total_scheduled = %d, want 9", result.Summary.TotalScheduled)
	}
}

func TestUpdateCoordinationSettings_RejectsBadWeights(t *testing.T) {
	tr := newTestRouter(t)

	cfg := domain.DefaultCoordinationConfig()
	cfg.PlatformWeight[domain.PlatformReddit] = 10 // sum is now 70

	w := tr.do(t, http.MethodPut, "/api/v1/settings/coordination", cfg, true)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if tr.settings.updated != nil {
		t.Error("invalid settings must not reach the store")
	}
}

func TestUpdateCoordinationSettings_Valid(t *testing.T) {
	tr := newTestRouter(t)

	cfg := domain.DefaultCoordinationConfig()
	cfg.ErrorThreshold = 7

	w := tr.do(t, http.MethodPut, "/api/v1/settings/coordination", cfg, true)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	if tr.settings.updated == nil {
		t.Fatal("settings not passed to store")
	}
	if tr.settings.updated.ErrorThreshold != 7 {
		t.Errorf("error_threshold = %d, want 7", tr.settings.updated.ErrorThreshold)
	}
}

func TestPostContent_NotAvailable(t *testing.T) {
	tr := newTestRouter(t)
	id := uuid.New()
	tr.post.postResult = &poster.PostResult{
		Success: false,
		Error:   "Content not found or not available for posting",
	}

	w := tr.do(t, http.MethodPost, "/api/v1/content/"+id.String()+"/post", nil, true)

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusConflict)
	}

	var result poster.PostResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if result.Error != "Content not found or not available for posting" {
		t.Errorf("error = %q, want the not-available message", result.Error)
	}
}

func TestPostContent_InvalidID(t *testing.T) {
	tr := newTestRouter(t)

	w := tr.do(t, http.MethodPost, "/api/v1/content/not-a-uuid/post", nil, true)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestPostContent_ForceFlag(t *testing.T) {
	tr := newTestRouter(t)
	id := uuid.New()
	tr.post.postResult = &poster.PostResult{Success: true, ContentID: &id}

	w := tr.do(t, http.MethodPost, "/api/v1/content/"+id.String()+"/post",
		map[string]any{"force": true}, true)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !tr.post.gotForce {
		t.Error("force flag not passed through")
	}
}

func TestProcessScheduledPost_NoDueSlot(t *testing.T) {
	tr := newTestRouter(t)
	tr.post.postErr = domain.ErrNoDueSlot

	w := tr.do(t, http.MethodPost, "/api/v1/posting/process", nil, true)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body struct {
		Posted bool `json:"posted"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Posted {
		t.Error("posted = true, want false when no slot is due")
	}
}

func TestQueueHealth(t *testing.T) {
	tr := newTestRouter(t)
	tr.post.health = &poster.QueueHealth{
		Status:        poster.HealthStatusCritical,
		Message:       "No approved content available for posting",
		ApprovedCount: 0,
	}

	w := tr.do(t, http.MethodGet, "/api/v1/queue/health", nil, true)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var health poster.QueueHealth
	if err := json.Unmarshal(w.Body.Bytes(), &health); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if health.Status != poster.HealthStatusCritical {
		t.Errorf("status = %q, want %q", health.Status, poster.HealthStatusCritical)
	}
	if health.Message != "No approved content available for posting" {
		t.Errorf("message = %q, want the critical queue message", health.Message)
	}
}

func TestHealthEndpointIsPublic(t *testing.T) {
	tr := newTestRouter(t)

	w := tr.do(t, http.MethodGet, "/health", nil, false)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["service"] != serviceName {
		t.Errorf("service = %v, want %q", body["service"], serviceName)
	}
}
