package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"training_progress_backend/internal/config"
	"training_progress_backend/internal/model"
	"training_progress_backend/internal/util"
	"training_progress_backend/pkg/database"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-secret-with-at-least-32-characters!"

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	db, err := gorm.Open(sqlite.Open(filepath.Join(dir, "app.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	cfg := &config.Config{
		Server:    config.ServerConfig{Port: "0", Mode: "test"},
		JWT:       config.JWTConfig{Secret: testSecret},
		Storage:   config.StorageConfig{Type: util.StorageLocal, LocalPath: filepath.Join(dir, "archives")},
		CORS:      config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		RateLimit: config.RateLimitConfig{MaxRequests: 10000, WindowMinutes: 1},
	}

	a, err := newApp(cfg, db, nil)
	require.NoError(t, err)
	t.Cleanup(func() { close(a.stop) })
	return a
}

func token(t *testing.T, userID uint, role model.UserRole, cadetNumber string) string {
	t.Helper()
	tok, err := util.GenerateJWT(userID, role, cadetNumber, testSecret, time.Hour)
	require.NoError(t, err)
	return tok
}

func do(t *testing.T, a *App, method, path, tok string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func TestPublicRoutes(t *testing.T) {
	a := newTestApp(t)

	w, env := do(t, a, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"database":"up"`)

	w, env = do(t, a, http.MethodGet, "/api/levels", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var levels []model.ProgressionLevel
	require.NoError(t, json.Unmarshal(env.Data, &levels))
	assert.Len(t, levels, model.LevelCount)
	assert.Equal(t, "Foundation", levels[0].Name)
}

func TestAuthRequired(t *testing.T) {
	a := newTestApp(t)

	w, _ := do(t, a, http.MethodGet, "/api/cadets/C-001/progress", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = do(t, a, http.MethodGet, "/api/cadets/C-001/progress", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCadetCannotReachOthersOrInstructorRoutes(t *testing.T) {
	a := newTestApp(t)
	cadet := token(t, 10, model.Cadet, "C-001")

	w, _ := do(t, a, http.MethodGet, "/api/cadets/C-002/progress", cadet, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = do(t, a, http.MethodPost, "/api/instructor/batches", cadet, map[string]string{"code": "B-01", "name": "Alpha"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCadetCannotRecordOwnResults(t *testing.T) {
	a := newTestApp(t)
	instructor := token(t, 1, model.Instructor, "")
	cadet := token(t, 10, model.Cadet, "C-001")

	w, _ := do(t, a, http.MethodPost, "/api/instructor/batches", instructor, map[string]string{"code": "B-01", "name": "Alpha"})
	require.Equal(t, http.StatusCreated, w.Code)

	w, _ = do(t, a, http.MethodPost, "/api/cadets/C-001/assessments", cadet, map[string]interface{}{"batchCode": "B-01", "score": 100})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = do(t, a, http.MethodPost, "/api/cadets/C-001/drills", cadet, map[string]interface{}{"batchCode": "B-01", "accuracy": 100})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = do(t, a, http.MethodPost, "/api/cadets/C-001/violations", cadet, map[string]string{"batchCode": "B-01", "rule": "muzzle"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// 未写入任何记录
	w, _ = do(t, a, http.MethodGet, "/api/cadets/C-001/progress", cadet, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(t, a, http.MethodPost, "/api/cadets/C-001/assessments", instructor, map[string]interface{}{"batchCode": "B-01", "score": 100})
	assert.Equal(t, http.StatusCreated, w.Code)
	w, _ = do(t, a, http.MethodGet, "/api/cadets/C-001/progress", cadet, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProgressionFlow(t *testing.T) {
	a := newTestApp(t)
	instructor := token(t, 1, model.Instructor, "")
	cadet := token(t, 10, model.Cadet, "C-001")

	w, _ := do(t, a, http.MethodPost, "/api/instructor/batches", instructor, map[string]string{"code": "B-01", "name": "Alpha"})
	require.Equal(t, http.StatusCreated, w.Code)

	w, _ = do(t, a, http.MethodPost, "/api/instructor/batches", instructor, map[string]string{"code": "B-01", "name": "Alpha"})
	assert.Equal(t, http.StatusConflict, w.Code)

	// 新学员首个事件必须带批次
	w, _ = do(t, a, http.MethodPost, "/api/cadets/C-001/drills", instructor, map[string]interface{}{"accuracy": 80})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, a, http.MethodGet, "/api/cadets/C-001/progress", cadet, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	for i := 0; i < 20; i++ {
		w, _ = do(t, a, http.MethodPost, "/api/cadets/C-001/drills", instructor, map[string]interface{}{"batchCode": "B-01", "accuracy": 80})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w, env := do(t, a, http.MethodGet, "/api/cadets/C-001/progress", cadet, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view struct {
		BatchCode         string `json:"batchCode"`
		ReadyForPromotion bool   `json:"readyForPromotion"`
		Next              struct {
			TargetLevel model.Level `json:"targetLevel"`
			Percentage  int         `json:"percentage"`
		} `json:"next"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, "B-01", view.BatchCode)
	assert.True(t, view.ReadyForPromotion)
	assert.Equal(t, model.Level2, view.Next.TargetLevel)
	assert.Equal(t, 100, view.Next.Percentage)

	w, _ = do(t, a, http.MethodPost, "/api/cadets/C-001/assessments", instructor, map[string]interface{}{"score": 120})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, a, http.MethodPost, "/api/instructor/cadets/C-001/promote", instructor, map[string]bool{"certify": true})
	require.Equal(t, http.StatusOK, w.Code)

	// 晋级后差距重新计算，不再满足条件
	w, _ = do(t, a, http.MethodPost, "/api/instructor/cadets/C-001/promote", instructor, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w, _ = do(t, a, http.MethodPost, "/api/instructor/cadets/C-001/certifications", instructor, map[string]int{"level": 4})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w, env = do(t, a, http.MethodGet, "/api/instructor/batches/B-01/stats", instructor, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats model.BatchStats
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.LevelDistribution[model.Level2])
	assert.Len(t, stats.LevelDistribution, model.LevelCount)
	assert.InDelta(t, 80.0, stats.AvgAccuracy, 1e-9)

	w, env = do(t, a, http.MethodGet, "/api/cadets/C-001/events?page=1&limit=5", cadet, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Total int64 `json:"total"`
		Limit int   `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, int64(22), page.Total) // 20 次训练 + 晋级 + 认证
	assert.Equal(t, 5, page.Limit)

	w, env = do(t, a, http.MethodPost, "/api/instructor/cadets/C-001/archive", instructor, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var archived struct {
		SnapshotURL string `json:"snapshotUrl"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &archived))
	require.True(t, strings.HasPrefix(archived.SnapshotURL, util.ArchiveRoutePrefix), archived.SnapshotURL)

	// 快照只能经教官接口下载
	w, _ = do(t, a, http.MethodGet, archived.SnapshotURL, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w, _ = do(t, a, http.MethodGet, archived.SnapshotURL, cadet, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = do(t, a, http.MethodGet, archived.SnapshotURL, instructor, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"cadetNumber": "C-001"`)
	w, _ = do(t, a, http.MethodGet, util.ArchiveRoutePrefix+"cadets/C-001/missing.json", instructor, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = do(t, a, http.MethodGet, "/archives/"+strings.TrimPrefix(archived.SnapshotURL, util.ArchiveRoutePrefix), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(t, a, http.MethodPost, "/api/cadets/C-001/violations", instructor, map[string]string{"rule": "muzzle"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, env = do(t, a, http.MethodGet, "/api/instructor/batches/B-01/stats", instructor, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, 0, stats.Total)
}

func TestAdminPassesInstructorRoutes(t *testing.T) {
	a := newTestApp(t)
	admin := token(t, 2, model.Admin, "")

	for i := 0; i < 3; i++ {
		w, _ := do(t, a, http.MethodPost, "/api/instructor/batches", admin, map[string]string{
			"code": fmt.Sprintf("B-%02d", i),
			"name": "Batch",
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w, env := do(t, a, http.MethodGet, "/api/instructor/batches?limit=2", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		List  []model.Batch `json:"list"`
		Total int64         `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.List, 2)

	w, _ = do(t, a, http.MethodGet, "/api/instructor/batches/NOPE/stats", admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInitCatalogOverride(t *testing.T) {
	cfg := &config.Config{}
	catalog, err := initCatalog(cfg)
	require.NoError(t, err)
	assert.Len(t, catalog.Levels(), model.LevelCount)

	cfg.Progression.Levels = catalog.Levels()[:3]
	_, err = initCatalog(cfg)
	assert.Error(t, err)
}
