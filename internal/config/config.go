// Package config はアプリケーションの設定を環境変数とフラグから組み立てるのだ。
package config

import (
	"strconv"
	"time"

	"github.com/shouni/go-utils/envutil"

	"github.com/shouni/go-toonplay-kit/pkg/storage"
)

// デフォルト値の定義なのだ
const (
	DefaultModel       = "gemini-3-flash-preview"
	DefaultImageModel  = "gemini-3-pro-image-preview"
	DefaultHTTPTimeout = 60 * time.Second
	DefaultDBPath      = "toonplay.db"
	DefaultListenAddr  = ":8080"
	DefaultLocalDir    = "output/panels" // S3未設定時のローカル保存先なのだ

	DefaultConcurrency  = 4
	DefaultRateInterval = 2 * time.Second
	DefaultRunTimeout   = 15 * time.Minute
)

// Config はアプリケーション全体の環境設定（APIキーやストレージ設定）を保持する構造体なのだ。
type Config struct {
	GeminiAPIKey     string
	GeminiModel      string
	GeminiImageModel string

	DBPath     string
	ListenAddr string

	// S3 互換ストレージの設定。Bucket が空ならローカル保存に切り替わる。
	S3       storage.S3Config
	LocalDir string

	StyleSuffix string

	HTTPTimeout  time.Duration
	Concurrency  int
	RateInterval time.Duration
	RunTimeout   time.Duration
}

// LoadConfig は環境変数から設定を読み込み、構造体を返すのだ！
func LoadConfig() *Config {
	return &Config{
		GeminiAPIKey:     envutil.GetEnv("GEMINI_API_KEY", ""),
		GeminiModel:      envutil.GetEnv("GEMINI_MODEL", DefaultModel),
		GeminiImageModel: envutil.GetEnv("IMAGE_GEMINI_MODEL", DefaultImageModel),

		DBPath:     envutil.GetEnv("TOONPLAY_DB_PATH", DefaultDBPath),
		ListenAddr: envutil.GetEnv("TOONPLAY_LISTEN_ADDR", DefaultListenAddr),

		S3: storage.S3Config{
			AccessKey: envutil.GetEnv("S3_ACCESS_KEY", ""),
			SecretKey: envutil.GetEnv("S3_SECRET_KEY", ""),
			Bucket:    envutil.GetEnv("S3_BUCKET", ""),
			Endpoint:  envutil.GetEnv("S3_ENDPOINT", ""),
			Region:    envutil.GetEnv("S3_REGION", "auto"),
			PublicURL: envutil.GetEnv("S3_PUBLIC_URL", ""),
		},
		LocalDir: envutil.GetEnv("TOONPLAY_LOCAL_DIR", DefaultLocalDir),

		StyleSuffix: envutil.GetEnv("IMAGE_PROMPT_SUFFIX", ""),

		HTTPTimeout:  durationEnv("TOONPLAY_HTTP_TIMEOUT", DefaultHTTPTimeout),
		Concurrency:  intEnv("TOONPLAY_CONCURRENCY", DefaultConcurrency),
		RateInterval: durationEnv("TOONPLAY_RATE_INTERVAL", DefaultRateInterval),
		RunTimeout:   durationEnv("TOONPLAY_RUN_TIMEOUT", DefaultRunTimeout),
	}
}

// UseS3 は S3 互換ストレージが使える設定かどうかを返すのだ。
func (c *Config) UseS3() bool {
	return c.S3.Bucket != "" && c.S3.AccessKey != "" && c.S3.SecretKey != ""
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	raw := envutil.GetEnv(key, "")
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

func intEnv(key string, fallback int) int {
	raw := envutil.GetEnv(key, "")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
