package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"uirecorder/internal/api/handlers"
	"uirecorder/internal/api/routes"
	"uirecorder/internal/config"
	"uirecorder/internal/executor"
	"uirecorder/internal/models"
	"uirecorder/internal/recorder"
	"uirecorder/internal/store"
	"uirecorder/internal/suite"
	"uirecorder/pkg/auth"
	"uirecorder/pkg/replay"
	"uirecorder/pkg/response"
	"uirecorder/pkg/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeRunner struct {
	mu        sync.Mutex
	store     store.Store
	queued    []*suite.Suite
	cancelled []uint
}

func (f *fakeRunner) Enqueue(ctx context.Context, s *suite.Suite, suiteID *uint, trigger string) (*models.TestExecution, <-chan executor.Result, error) {
	if err := s.Validate(); err != nil {
		return nil, nil, err
	}
	exec := &models.TestExecution{TestSuiteID: suiteID, SuiteName: s.Name, Trigger: trigger,
		Status: models.StatusPassed, TotalSteps: len(s.Steps), PassedSteps: len(s.Steps)}
	if err := f.store.CreateExecution(ctx, exec); err != nil {
		return nil, nil, err
	}

	f.mu.Lock()
	f.queued = append(f.queued, s)
	f.mu.Unlock()

	ch := make(chan executor.Result, 1)
	ch <- executor.Result{ExecutionID: exec.ID, Status: models.StatusPassed}
	close(ch)
	return exec, ch, nil
}

func (f *fakeRunner) Cancel(id uint) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, id)
	return true
}

func (f *fakeRunner) IsRunning(uint) bool { return false }

type fakeScheduler struct {
	added   []uint
	removed []uint
}

func (f *fakeScheduler) AddSuiteSchedule(ts models.TestSuite) error {
	f.added = append(f.added, ts.ID)
	return nil
}

func (f *fakeScheduler) RemoveSuiteSchedule(id uint) { f.removed = append(f.removed, id) }

type noRecorders struct{}

func (noRecorders) StartRecording(string, string, string) (*recorder.Session, error) {
	return nil, recorder.ErrSessionExists
}

func (noRecorders) StopRecording(context.Context, string) (*recorder.Session, error) {
	return nil, recorder.ErrSessionNotFound
}

func (noRecorders) GetSession(string) (*recorder.Session, bool) { return nil, false }

func (noRecorders) GetRecordingStatus(string) (recorder.SessionStatus, error) {
	return recorder.SessionStatus{}, recorder.ErrSessionNotFound
}

func (noRecorders) CleanupRecording(string) {}

type env struct {
	router    *gin.Engine
	store     *store.Memory
	runner    *fakeRunner
	scheduler *fakeScheduler
	cfg       *config.Config
}

func newEnv(t *testing.T) *env {
	t.Helper()
	st := store.NewMemory()
	cfg := &config.Config{
		JWT:    config.JWTConfig{Secret: "test-secret", ExpireTime: 3600, AdminUser: "admin"},
		Chrome: config.ChromeConfig{HeadlessMode: true},
		Replay: config.ReplayConfig{ImplicitWait: 10 * time.Second, ExplicitWait: 15 * time.Second, ScreenshotsDir: t.TempDir()},
	}
	e := &env{store: st, runner: &fakeRunner{store: st}, scheduler: &fakeScheduler{}, cfg: cfg}
	h := handlers.New(handlers.Deps{
		Config:    cfg,
		Store:     st,
		Service:   recorder.NewService(st),
		Recorders: noRecorders{},
		Runner:    e.runner,
		Scheduler: e.scheduler,
	})
	e.router = routes.SetupRoutes(cfg, h)
	return e
}

func (e *env) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func envelope(t *testing.T, w *httptest.ResponseRecorder, data interface{}) response.Response {
	t.Helper()
	var raw struct {
		Code    int             `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw), w.Body.String())
	if data != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}
	return response.Response{Code: raw.Code, Message: raw.Message}
}

var exampleActions = []models.Action{
	{Type: models.ActionNavigation, URL: "http://example.com/", Timestamp: 1731350700000},
	{Type: models.ActionClick, Target: "a", XPath: "/html/body/div/p[2]/a", URL: "http://example.com/", Timestamp: 1731350701000},
}

func TestExtensionHealth(t *testing.T) {
	e := newEnv(t)
	w := e.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
}

func TestPostActions(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodPost, "/actions", gin.H{"actions": exampleActions})
	require.Equal(t, http.StatusOK, w.Code)

	var summary recorder.IngestSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.True(t, summary.OK)
	assert.Equal(t, 2, summary.Received)
	assert.EqualValues(t, 2, summary.TotalActions)
	assert.EqualValues(t, 2, summary.TotalTestCases)

	w = e.do(http.MethodGet, "/testcases", nil)
	var tcs []models.TestCase
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tcs))
	require.Len(t, tcs, 2)
	assert.Equal(t, models.TestTypeUI, tcs[0].TestType)
	assert.Equal(t, 2, tcs[1].Step)
}

func TestPostActionsRejectsInvalidBody(t *testing.T) {
	e := newEnv(t)

	for _, body := range []interface{}{gin.H{}, gin.H{"actions": "click"}, nil} {
		w := e.do(http.MethodPost, "/actions", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"ok":false,"error":"Invalid actions array"}`, w.Body.String())
	}
}

func TestClear(t *testing.T) {
	e := newEnv(t)
	e.do(http.MethodPost, "/actions", gin.H{"actions": exampleActions})

	w := e.do(http.MethodPost, "/clear", nil)
	assert.JSONEq(t, `{"ok":true,"message":"Data cleared"}`, w.Body.String())

	w = e.do(http.MethodGet, "/testcases", nil)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestExportExcel(t *testing.T) {
	e := newEnv(t)
	e.do(http.MethodPost, "/actions", gin.H{"actions": exampleActions})

	w := e.do(http.MethodGet, "/export-excel", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment; filename=TestCases_")

	f, err := excelize.OpenReader(w.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Test Cases")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestGetScript(t *testing.T) {
	e := newEnv(t)
	e.do(http.MethodPost, "/actions", gin.H{"actions": exampleActions})

	w := e.do(http.MethodGet, "/script", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "func TestRecordedFlow(t *testing.T)")
	assert.Contains(t, w.Body.String(), `// Step 2: click on target "a"`)
}

func TestGetScriptRejectsBadInput(t *testing.T) {
	e := newEnv(t)
	e.do(http.MethodPost, "/actions", gin.H{"actions": exampleActions})

	w := e.do(http.MethodGet, "/script?package="+url.QueryEscape("x\nimport \"os\""), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	e.do(http.MethodPost, "/actions", gin.H{"actions": []models.Action{{Type: "hover", XPath: "//a"}}})
	w = e.do(http.MethodGet, "/script", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unknown action")
}

func TestLogin(t *testing.T) {
	e := newEnv(t)
	auth.InitJWT(e.cfg.JWT.Secret)
	hash, err := utils.HashPassword("s3cret-pass")
	require.NoError(t, err)
	e.cfg.JWT.AdminPassword = hash

	var login handlers.LoginResponse
	resp := envelope(t, e.do(http.MethodPost, "/api/v1/auth/login", gin.H{"username": "admin", "password": "s3cret-pass"}), &login)
	require.Equal(t, 200, resp.Code)
	claims, err := auth.ParseToken(login.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)

	resp = envelope(t, e.do(http.MethodPost, "/api/v1/auth/login", gin.H{"username": "admin", "password": "wrong-pass"}), nil)
	assert.Equal(t, 401, resp.Code)
}

func TestProtectedRoutesRequireTokenWhenEnabled(t *testing.T) {
	e := newEnv(t)
	e.cfg.JWT.Enabled = true
	h := handlers.New(handlers.Deps{Config: e.cfg, Store: e.store, Service: recorder.NewService(e.store),
		Recorders: noRecorders{}, Runner: e.runner})
	e.router = routes.SetupRoutes(e.cfg, h)

	resp := envelope(t, e.do(http.MethodGet, "/api/v1/suites", nil), nil)
	assert.Equal(t, 401, resp.Code)
}

func exampleSuiteBody() gin.H {
	return gin.H{
		"name": "example",
		"cron": "0 0 2 * * *",
		"steps": []replay.Step{
			{Action: replay.ActionNavigation, URL: "http://example.com/"},
			{Action: replay.ActionClick, XPath: "/html/body/div/p[2]/a"},
		},
	}
}

func TestSuiteLifecycle(t *testing.T) {
	e := newEnv(t)

	var created models.TestSuite
	resp := envelope(t, e.do(http.MethodPost, "/api/v1/suites", exampleSuiteBody()), &created)
	require.Equal(t, 200, resp.Code, resp.Message)
	require.NotZero(t, created.ID)
	assert.Equal(t, 2, created.StepCount)
	assert.Equal(t, []uint{created.ID}, e.scheduler.added)

	var list []models.TestSuite
	envelope(t, e.do(http.MethodGet, "/api/v1/suites", nil), &list)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].StepCount)

	path := "/api/v1/suites/" + strconv.FormatUint(uint64(created.ID), 10)

	body := exampleSuiteBody()
	body["name"] = "renamed"
	var updated models.TestSuite
	resp = envelope(t, e.do(http.MethodPut, path, body), &updated)
	require.Equal(t, 200, resp.Code, resp.Message)
	assert.Equal(t, "renamed", updated.Name)
	assert.Equal(t, created.ID, updated.ID)

	var exec models.TestExecution
	resp = envelope(t, e.do(http.MethodPost, path+"/replay", nil), &exec)
	require.Equal(t, 200, resp.Code, resp.Message)
	assert.Equal(t, created.ID, *exec.TestSuiteID)
	assert.Equal(t, models.TriggerManual, exec.Trigger)
	require.Len(t, e.runner.queued, 1)
	assert.Equal(t, "renamed", e.runner.queued[0].Name)

	w := e.do(http.MethodGet, path+"/script", nil)
	assert.Contains(t, w.Body.String(), "func TestRenamed(t *testing.T)")

	resp = envelope(t, e.do(http.MethodDelete, path, nil), nil)
	assert.Equal(t, 200, resp.Code)
	assert.Equal(t, []uint{created.ID}, e.scheduler.removed)

	resp = envelope(t, e.do(http.MethodGet, path, nil), nil)
	assert.Equal(t, 404, resp.Code)
}

func TestCreateSuiteValidation(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name   string
		mutate func(gin.H)
	}{
		{"missing name", func(b gin.H) { delete(b, "name") }},
		{"bad cron", func(b gin.H) { b["cron"] = "every night" }},
		{"unknown device", func(b gin.H) { b["device"] = "Nokia 3310" }},
		{"step without locator", func(b gin.H) {
			b["steps"] = []replay.Step{{Action: replay.ActionClick}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := exampleSuiteBody()
			tt.mutate(body)
			resp := envelope(t, e.do(http.MethodPost, "/api/v1/suites", body), nil)
			assert.Equal(t, 400, resp.Code)
		})
	}
}

func TestSuiteInvalidID(t *testing.T) {
	e := newEnv(t)
	resp := envelope(t, e.do(http.MethodGet, "/api/v1/suites/abc", nil), nil)
	assert.Equal(t, 400, resp.Code)
}

func TestReplayTestCases(t *testing.T) {
	e := newEnv(t)

	resp := envelope(t, e.do(http.MethodPost, "/api/v1/replay", nil), nil)
	assert.Equal(t, 400, resp.Code)

	e.do(http.MethodPost, "/actions", gin.H{"actions": exampleActions})

	var exec models.TestExecution
	resp = envelope(t, e.do(http.MethodPost, "/api/v1/replay?wait=true", nil), &exec)
	require.Equal(t, 200, resp.Code, resp.Message)
	assert.Equal(t, models.StatusPassed, exec.Status)
	assert.Equal(t, models.TriggerRecorder, exec.Trigger)
	assert.Nil(t, exec.TestSuiteID)

	var page response.PageData
	envelope(t, e.do(http.MethodGet, "/api/v1/runs", nil), &page)
	assert.EqualValues(t, 1, page.Total)

	path := "/api/v1/runs/" + strconv.FormatUint(uint64(exec.ID), 10)
	var detail struct {
		Execution models.TestExecution `json:"execution"`
		IsRunning bool                 `json:"is_running"`
	}
	resp = envelope(t, e.do(http.MethodGet, path, nil), &detail)
	require.Equal(t, 200, resp.Code)
	assert.Equal(t, exec.ID, detail.Execution.ID)

	resp = envelope(t, e.do(http.MethodPost, path+"/stop", nil), nil)
	assert.Equal(t, 400, resp.Code, "finished runs cannot be stopped")

	resp = envelope(t, e.do(http.MethodGet, "/api/v1/runs/999", nil), nil)
	assert.Equal(t, 404, resp.Code)
}

func TestStopRunningExecution(t *testing.T) {
	e := newEnv(t)
	exec := &models.TestExecution{Status: models.StatusRunning, StartTime: time.Now()}
	require.NoError(t, e.store.CreateExecution(context.Background(), exec))

	path := "/api/v1/runs/" + strconv.FormatUint(uint64(exec.ID), 10) + "/stop"
	resp := envelope(t, e.do(http.MethodPost, path, nil), nil)
	assert.Equal(t, 200, resp.Code)
	assert.Equal(t, []uint{exec.ID}, e.runner.cancelled)
}

func TestScreenshots(t *testing.T) {
	e := newEnv(t)
	root := e.cfg.Replay.ScreenshotsDir
	require.NoError(t, os.MkdirAll(filepath.Join(root, "run-1"), 0o755))
	shot := filepath.Join(root, "run-1", "2_click.png")
	require.NoError(t, os.WriteFile(shot, []byte("png"), 0o644))

	exec := &models.TestExecution{Status: models.StatusPassed, Screenshots: `["` + filepath.ToSlash(shot) + `"]`}
	require.NoError(t, e.store.CreateExecution(context.Background(), exec))

	var urls []string
	envelope(t, e.do(http.MethodGet, "/api/v1/runs/1/screenshots", nil), &urls)
	assert.Equal(t, []string{"/api/v1/screenshots/run-1/2_click.png"}, urls)

	w := e.do(http.MethodGet, "/api/v1/screenshots/run-1/2_click.png", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "png", w.Body.String())

	w = e.do(http.MethodGet, "/api/v1/screenshots/run-1/missing.png", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecordingUnknownSession(t *testing.T) {
	e := newEnv(t)

	resp := envelope(t, e.do(http.MethodGet, "/api/v1/recording/status?session_id=nope", nil), nil)
	assert.Equal(t, 404, resp.Code)

	resp = envelope(t, e.do(http.MethodPost, "/api/v1/recording/stop", gin.H{"session_id": "nope"}), nil)
	assert.Equal(t, 404, resp.Code)

	resp = envelope(t, e.do(http.MethodPost, "/api/v1/recording/save", gin.H{"session_id": "nope", "name": "x"}), nil)
	assert.Equal(t, 404, resp.Code)

	resp = envelope(t, e.do(http.MethodPost, "/api/v1/recording/start", gin.H{"target_url": "not a url"}), nil)
	assert.Equal(t, 400, resp.Code)

	resp = envelope(t, e.do(http.MethodPost, "/api/v1/recording/start", gin.H{"target_url": "http://example.com/", "session_id": "dup"}), nil)
	assert.Equal(t, 400, resp.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	e := newEnv(t)
	e.do(http.MethodPost, "/actions", gin.H{"actions": exampleActions})

	w := e.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "uirecorder_actions_ingested_total")
}
