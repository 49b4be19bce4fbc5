package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gallery-be/internal/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultContainer = `{"id":"GTM-TEST","version":"3","values":{"adjective":"Fluffy","category":"[{\"name\":\"Bunny\",\"image_files\":[\"bunny_1\"]}]"}}`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "default.json")
	require.NoError(t, os.WriteFile(path, []byte(defaultContainer), 0o644))

	return &config.Config{
		AppEnv:               "test",
		ContainerID:          "GTM-TEST",
		ContainerDefaultPath: path,
		ContainerTimeout:     time.Second,
		AssetsDir:            dir,
		AnalyticsQueueSize:   8,
		SecretKey:            "test-secret",
		SessionTTL:           time.Minute,
	}
}

func TestNewApp(t *testing.T) {
	a, err := newApp(testConfig(t), nil)
	require.NoError(t, err)
	defer a.Close(context.Background())

	t.Run("Health", func(t *testing.T) {
		rr := httptest.NewRecorder()
		a.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("Session falls back to bundled container", func(t *testing.T) {
		rr := httptest.NewRecorder()
		a.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/sessions", nil))
		require.Equal(t, http.StatusCreated, rr.Code)

		var body struct {
			Screen struct {
				Title string `json:"title"`
				Items []struct {
					Label string `json:"label"`
				} `json:"items"`
			} `json:"screen"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, "Fluffy Animals", body.Screen.Title)
		require.Len(t, body.Screen.Items, 1)
		assert.Equal(t, "Fluffy Bunny Pictures", body.Screen.Items[0].Label)
	})

	t.Run("Screen requires token", func(t *testing.T) {
		rr := httptest.NewRecorder()
		a.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/screen", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestNewApp_WithDatabaseAndCache(t *testing.T) {
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	mock.ExpectExec("INSERT INTO analytics_hits").
		WillReturnResult(sqlmock.NewResult(1, 1))

	cfg := testConfig(t)
	cfg.CacheDir = t.TempDir()

	a, err := newApp(cfg, database)
	require.NoError(t, err)
	require.NotNil(t, a.dispatcher)

	rr := httptest.NewRecorder()
	a.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/sessions", nil))
	require.Equal(t, http.StatusCreated, rr.Code)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, a.Close(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}
