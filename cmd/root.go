package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/shouni/go-toonplay-kit/internal/config"

	clibase "github.com/shouni/go-cli-base"
	"github.com/spf13/cobra"
)

// appOptions は CLI フラグから渡される実行時のパラメータなのだ。
type appOptions struct {
	// ソース入力関連
	SceneFile  string // --scene-file
	Title      string // --title
	Genre      string // --genre
	Setting    string // --setting
	CharConfig string // --char-config

	// 生成制御
	TargetPanels int // --target-panels

	// AI挙動設定
	AIModel    string // --model: 構造化用のGeminiモデル
	ImageModel string // --image-model: 画像生成用のGeminiモデル

	// 実行制御
	HTTPTimeout time.Duration // --http-timeout
	ListenAddr  string        // --addr (serve用)
}

var opts appOptions

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
func addAppFlags(rootCmd *cobra.Command) {
	// --- AIモデル・挙動設定 ---
	rootCmd.PersistentFlags().StringVar(&opts.AIModel, "model", config.DefaultModel, "構造化に使う Gemini モデル名なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.ImageModel, "image-model", config.DefaultImageModel, "画像生成に使う Gemini モデル名なのだ。")
	rootCmd.PersistentFlags().DurationVar(&opts.HTTPTimeout, "http-timeout", config.DefaultHTTPTimeout, "Webリクエストのタイムアウトなのだ。")

	// --- generate 固有設定 ---
	generateCmd.Flags().StringVarP(&opts.SceneFile, "scene-file", "f", "", "シーン本文のファイルパス（'-'で標準入力なのだ）。")
	generateCmd.Flags().StringVarP(&opts.Title, "title", "t", "", "シーンのタイトルなのだ。")
	generateCmd.Flags().StringVarP(&opts.Genre, "genre", "g", "drama", "作品のジャンル指定なのだ。")
	generateCmd.Flags().StringVar(&opts.Setting, "setting", "", "舞台・時代などの設定メモなのだ。")
	generateCmd.Flags().StringVarP(&opts.CharConfig, "char-config", "c", "examples/characters.json", "キャラクターの視覚情報（DNA）を定義したJSONパスなのだ。")
	generateCmd.Flags().IntVarP(&opts.TargetPanels, "target-panels", "p", 0, "目標パネル数なのだ（0なら範囲内でAIに任せる）。")

	// --- serve 固有設定 ---
	serveCmd.Flags().StringVar(&opts.ListenAddr, "addr", config.DefaultListenAddr, "HTTPサーバーの待ち受けアドレスなのだ。")
}

// preRunAppE は、コマンド実行前に環境変数などの必須チェックを行うのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	// Gemini APIを利用するため、APIキーの存在チェックは欠かせないのだ！
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("エラー: 環境変数 GEMINI_API_KEY が設定されていません。Gemini APIの利用には必須なのだ")
	}

	return nil
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
func Execute() {
	clibase.Execute(
		"toonplay-kit",
		addAppFlags,
		preRunAppE,
		generateCmd,
		serveCmd,
	)
}
