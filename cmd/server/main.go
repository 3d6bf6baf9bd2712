package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/Skufu/genewell/internal/forest"
	"github.com/Skufu/genewell/internal/history"
	"github.com/Skufu/genewell/internal/logger"
)

type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Config struct {
	Port              string
	LogLevel          string
	LogFormat         string
	ModelPath         string
	DataDir           string
	UploadDir         string
	MaxUploadBytes    int64
	TrainOnStartup    bool
	SyntheticPatients int
	Forest            forest.Params
	EnableDB          bool
	DatabaseURL       string
	SQLitePath        string
	FrontendDir       string
}

func main() {
	gin.SetMode(getEnv("GIN_MODE", "release"))

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal("config error", "err", err)
	}

	lg, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal("logger setup failed", "err", err)
	}

	ctx := context.Background()
	store, err := openStore(ctx, cfg)
	if err != nil {
		lg.Fatal("history store failed", "err", err)
	}
	defer store.Close()

	svc := NewService(cfg, lg, store)
	if cfg.TrainOnStartup {
		svc.Bootstrap(ctx)
	}

	staticRoot := cfg.FrontendDir
	if staticRoot == "" {
		staticRoot = detectStaticRoot()
	}
	router := setupRouter(svc, staticRoot)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			lg.Fatal("server error", "err", err)
		}
	}()

	lg.Info("server listening", "addr", server.Addr, "model", cfg.ModelPath)
	waitForShutdown(server, lg)
}

func loadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
		ModelPath:   getEnv("MODEL_PATH", "personalized_model.gob.gz"),
		DataDir:     getEnv("DATA_DIR", "data"),
		UploadDir:   getEnv("UPLOAD_DIR", "uploads"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		SQLitePath:  os.Getenv("SQLITE_PATH"),
		FrontendDir: os.Getenv("FRONTEND_DIR"),
		EnableDB:    strings.EqualFold(getEnv("ENABLE_DB", "false"), "true"),
		Forest:      forest.DefaultParams(),
	}

	cfg.TrainOnStartup = !strings.EqualFold(getEnv("TRAIN_ON_STARTUP", "true"), "false")

	ints := []struct {
		key      string
		fallback int
		dst      *int
	}{
		{"SYNTHETIC_PATIENTS", 1500, &cfg.SyntheticPatients},
		{"FOREST_TREES", cfg.Forest.NumTrees, &cfg.Forest.NumTrees},
		{"FOREST_MAX_DEPTH", cfg.Forest.MaxDepth, &cfg.Forest.MaxDepth},
		{"FOREST_MIN_LEAF", cfg.Forest.MinSamplesLeaf, &cfg.Forest.MinSamplesLeaf},
	}
	for _, v := range ints {
		n, err := getEnvInt(v.key, v.fallback)
		if err != nil {
			return nil, err
		}
		*v.dst = n
	}

	mb, err := getEnvInt("MAX_UPLOAD_MB", 16)
	if err != nil {
		return nil, err
	}
	cfg.MaxUploadBytes = int64(mb) << 20

	if cfg.EnableDB && cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required when ENABLE_DB=true")
	}

	return cfg, nil
}

// openStore picks Postgres, then SQLite, then memory.
func openStore(ctx context.Context, cfg *Config) (history.Store, error) {
	switch {
	case cfg.EnableDB:
		return history.ConnectPostgres(ctx, cfg.DatabaseURL)
	case cfg.SQLitePath != "":
		return history.OpenSQLite(cfg.SQLitePath)
	default:
		return history.NewMemory(), nil
	}
}

func waitForShutdown(server *http.Server, lg *log.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	lg.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		lg.Error("graceful shutdown failed", "err", err)
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil || n < 0 {
		return 0, errors.Errorf("%s must be a non-negative integer, got %q", key, val)
	}
	return n, nil
}

func detectStaticRoot() string {
	startDir, err := os.Getwd()
	if err != nil {
		return "."
	}

	candidates := []string{
		filepath.Join(startDir, "frontend", "dist"),
		filepath.Join(startDir, "dist"),
		startDir,
		filepath.Dir(startDir),
		filepath.Dir(filepath.Dir(startDir)),
	}

	for _, dir := range candidates {
		if fileExists(filepath.Join(dir, "index.html")) {
			return dir
		}
	}

	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
