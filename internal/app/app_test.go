package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"learnboard_backend/internal/config"
	"learnboard_backend/internal/model"
	"learnboard_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func memoryConfig(t *testing.T) *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{Port: "0", Mode: gin.TestMode, LogFile: filepath.Join(t.TempDir(), "app.log")},
		Database:  config.DatabaseConfig{Driver: "memory"},
		JWT:       config.JWTConfig{Secret: testSecret},
		RateLimit: config.RateLimitConfig{MaxRequests: 1000, WindowMinutes: 1},
		Award: config.AwardConfig{
			ScanOnView:     true,
			ScanTimeout:    5 * time.Second,
			CertificateURL: "/certificates/%s.pdf",
			BadgeImageURL:  "https://api.dicebear.com/6.x/shapes/svg?seed=%s",
		},
		Leaderboard: config.LeaderboardConfig{DefaultLimit: 10, MaxLimit: 100},
	}
}

func get(t *testing.T, a *App, path, userID string) (*httptest.ResponseRecorder, util.Response) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if userID != "" {
		tok, err := util.GenerateJWT(&model.Session{UserID: userID, Email: userID + "@example.com"}, testSecret, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)

	var resp util.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestNewAppWithMemoryDriver(t *testing.T) {
	a, err := NewApp(memoryConfig(t))
	require.NoError(t, err)
	defer a.Shutdown(context.Background())

	assert.Nil(t, a.DB)
	assert.Nil(t, a.Redis)

	w, _ := get(t, a, "/api/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, resp := get(t, a, "/api/courses", "u1")
	require.Equal(t, http.StatusOK, w.Code)
	courses, ok := resp.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, courses, 3)

	w, _ = get(t, a, "/api/dashboard", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = get(t, a, "/api/realtime", "u1")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestConfigCallbacksApplyReloadedSettings(t *testing.T) {
	a, err := NewApp(memoryConfig(t))
	require.NoError(t, err)
	defer a.Shutdown(context.Background())

	reloaded := memoryConfig(t)
	reloaded.Leaderboard = config.LeaderboardConfig{DefaultLimit: 2, MaxLimit: 3}
	a.applyConfig(reloaded)

	assert.Equal(t, 2, a.services.leaderboard.Limit(0))
	assert.Equal(t, 3, a.services.leaderboard.Limit(50))
}

func TestSessionOrIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = "10.0.0.1:1234"
	assert.Equal(t, "ip:10.0.0.1", sessionOrIP(c))

	c.Request = c.Request.WithContext(util.WithSession(c.Request.Context(), &model.Session{UserID: "u1"}))
	assert.Equal(t, "user:u1", sessionOrIP(c))
}
