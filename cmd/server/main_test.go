package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

type fakeDB struct {
	err error
}

func (f fakeDB) Ping(ctx context.Context) error {
	return f.err
}

func TestLoadConfigRequiresDatabaseURL(t *testing.T) {
	t.Setenv("ENABLE_DB", "true")
	t.Setenv("DATABASE_URL", "")
	if _, err := loadConfig(); err == nil {
		t.Fatal("expected error when DATABASE_URL is missing")
	}
}

func TestLoadConfigUsesDefaults(t *testing.T) {
	t.Setenv("ENABLE_DB", "false")
	t.Setenv("PORT", "")
	t.Setenv("MODEL_PATH", "")
	t.Setenv("MAX_UPLOAD_MB", "")
	t.Setenv("FOREST_TREES", "")
	t.Setenv("TRAIN_ON_STARTUP", "")
	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.ModelPath != "personalized_model.gob.gz" {
		t.Fatalf("unexpected model path %s", cfg.ModelPath)
	}
	if cfg.MaxUploadBytes != 16<<20 {
		t.Fatalf("expected 16MB upload limit, got %d", cfg.MaxUploadBytes)
	}
	if cfg.Forest.NumTrees != 100 || !cfg.TrainOnStartup {
		t.Fatalf("unexpected forest defaults %+v", cfg.Forest)
	}
}

func TestLoadConfigRejectsBadInts(t *testing.T) {
	t.Setenv("ENABLE_DB", "false")
	t.Setenv("FOREST_TREES", "many")
	if _, err := loadConfig(); err == nil || !strings.Contains(err.Error(), "FOREST_TREES") {
		t.Fatalf("expected FOREST_TREES error, got %v", err)
	}

	t.Setenv("FOREST_TREES", "-3")
	if _, err := loadConfig(); err == nil {
		t.Fatal("expected error for negative FOREST_TREES")
	}
}

func TestOpenStoreDefaultsToMemory(t *testing.T) {
	store, err := openStore(context.Background(), &Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer store.Close()
	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("memory store ping: %v", err)
	}
}

func TestRouterHealthz(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := setupRouter(newTestService(t), "")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/healthz", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestReadyz(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name string
		db   HealthChecker
		code int
	}{
		{"disabled", nil, http.StatusOK},
		{"healthy", fakeDB{}, http.StatusOK},
		{"degraded", fakeDB{err: errors.New("connection refused")}, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/readyz", readyz(tc.db))

			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/readyz", nil)
			router.ServeHTTP(w, req)
			if w.Code != tc.code {
				t.Fatalf("expected %d, got %d: %s", tc.code, w.Code, w.Body.String())
			}
		})
	}
}

// Ensure limitBodySize middleware allows small payloads and blocks large ones.
func TestLimitBodySize(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(limitBodySize(10))
	router.POST("/echo", func(c *gin.Context) {
		_, err := c.GetRawData()
		if err != nil {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "too large"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	t.Run("within limit", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/echo", strings.NewReader("12345"))
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})

	t.Run("over limit", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/echo", strings.NewReader("01234567890"))
		router.ServeHTTP(w, req)
		if w.Code != http.StatusRequestEntityTooLarge {
			t.Fatalf("expected 413, got %d", w.Code)
		}
	})
}
