package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/lo"

	"github.com/shouni/gemini-meme-kit/pkg/generator"
	"github.com/shouni/gemini-meme-kit/pkg/history"
)

// 入出力先のストレージ。gcs と s3 では gs:// や s3:// のパスも扱えます。
const (
	StorageLocal = "local"
	StorageGCS   = "gcs"
	StorageS3    = "s3"
)

// Config は起動時に1度だけ組み立てる実行設定です。
type Config struct {
	APIKey          string
	Storage         string
	Model           string
	Mock            bool
	HistoryDir      string
	HistoryCapacity int
	RetryAttempts   int
	RetryDelay      time.Duration
	Concurrency     int
}

// loadDotenv は .env.local、.env の順に読み込みます。
// godotenv は既存の値を上書きしないため、先に読んだファイルが優先されます。
func loadDotenv(files ...string) {
	for _, f := range files {
		// ファイルが無いのは正常
		_ = godotenv.Load(f)
	}
}

// LoadConfig は環境変数から Config を組み立て、未設定の項目にはデフォルト値を使います。
func LoadConfig() (Config, error) {
	cfg := Config{
		APIKey:     getEnv("GEMINI_API_KEY", os.Getenv("API_KEY")),
		Model:      getEnv("MEMEGEN_MODEL", generator.DefaultModel),
		HistoryDir: getEnv("MEMEGEN_HISTORY_DIR", ".memegen"),
		Storage:    getEnv("MEMEGEN_STORAGE", StorageLocal),
	}

	var err error
	if cfg.Mock, err = getEnvBool("MEMEGEN_MOCK", false); err != nil {
		return Config{}, err
	}
	if cfg.HistoryCapacity, err = getEnvInt("MEMEGEN_HISTORY_CAPACITY", history.DefaultCapacity); err != nil {
		return Config{}, err
	}
	if cfg.RetryAttempts, err = getEnvInt("MEMEGEN_RETRY_ATTEMPTS", generator.DefaultAttempts); err != nil {
		return Config{}, err
	}
	if cfg.RetryDelay, err = getEnvDuration("MEMEGEN_RETRY_DELAY", generator.DefaultRetryDelay); err != nil {
		return Config{}, err
	}
	if cfg.Concurrency, err = getEnvInt("MEMEGEN_CONCURRENCY", 2); err != nil {
		return Config{}, err
	}

	switch cfg.Storage {
	case StorageLocal, StorageGCS, StorageS3:
	default:
		return Config{}, fmt.Errorf("MEMEGEN_STORAGE must be one of local, gcs, s3: %q", cfg.Storage)
	}
	if cfg.HistoryCapacity <= 0 {
		return Config{}, fmt.Errorf("MEMEGEN_HISTORY_CAPACITY must be positive")
	}
	if cfg.RetryAttempts < 0 {
		return Config{}, fmt.Errorf("MEMEGEN_RETRY_ATTEMPTS must not be negative")
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return cfg, nil
}

// GeneratorOptions はリモート呼び出し用の設定に変換します。
func (c Config) GeneratorOptions() generator.Options {
	return generator.Options{
		Model:      c.Model,
		Attempts:   lo.Ternary(c.RetryAttempts == 0, generator.NoRetry, c.RetryAttempts),
		RetryDelay: c.RetryDelay,
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s の値が不正です: %w", key, err)
	}
	return i, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s の値が不正です: %w", key, err)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s の値が不正です: %w", key, err)
	}
	return d, nil
}
