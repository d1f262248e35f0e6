package config

import (
	"time"
)

// デフォルト値の定義
const (
	DefaultGeminiModel  = "gemini-3-flash-preview"
	DefaultImageModel   = "gemini-3-pro-image-preview"
	DefaultRateInterval = 2 * time.Second
	DefaultConcurrency  = 4
	DefaultRunTimeout   = 15 * time.Minute
	DefaultAspectRatio  = "4:5"
	DefaultMinPanels    = 8
	DefaultMaxPanels    = 12
)

// Config は Go Toonplay Kit の生成ランを動作させるための基本設定です。
// ライブラリとして組み込む側はこれを埋めて渡すだけで、各コンポーネントの
// オプションへの展開はキット側が行います。
type Config struct {
	// --- AI Model Settings ---
	GeminiModel string // 構造化（テキスト）用
	ImageModel  string // パネル画像生成用

	// --- Google AI (Gemini API) Settings ---
	GeminiAPIKey string

	// --- Generation Settings ---
	StyleSuffix string
	AspectRatio string

	// --- Layout Settings ---
	MinPanels int
	MaxPanels int

	// --- Concurrency & Timeout ---
	RateInterval time.Duration // 画像生成リクエストの最小間隔
	Concurrency  int           // 同時合成パネル数の上限
	RunTimeout   time.Duration // ラン全体のタイムアウト
}

// DefaultConfig は推奨されるデフォルト設定を返すヘルパー関数です。
func DefaultConfig() Config {
	return Config{
		GeminiModel:  DefaultGeminiModel,
		ImageModel:   DefaultImageModel,
		AspectRatio:  DefaultAspectRatio,
		MinPanels:    DefaultMinPanels,
		MaxPanels:    DefaultMaxPanels,
		RateInterval: DefaultRateInterval,
		Concurrency:  DefaultConcurrency,
		RunTimeout:   DefaultRunTimeout,
	}
}
