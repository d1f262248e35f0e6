package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-toonplay-kit/internal/builder"
	"github.com/shouni/go-toonplay-kit/internal/config"
	"github.com/shouni/go-toonplay-kit/internal/server"

	"github.com/spf13/cobra"
)

// serveCmd は、シーン管理と生成ランの HTTP API を起動するのだ。
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "パネル生成のHTTP APIサーバーを起動しますなのだ。",
	Long: `シーンの登録・参照と生成ランのエンドポイントを公開するのだ。
生成ランの進捗は Accept: text/event-stream で SSE として受け取れるのだよ。`,
	RunE: serveCommand,
}

func serveCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg := config.LoadConfig()
	cfg.GeminiModel = opts.AIModel
	cfg.GeminiImageModel = opts.ImageModel
	cfg.HTTPTimeout = opts.HTTPTimeout
	if opts.ListenAddr != "" {
		cfg.ListenAddr = opts.ListenAddr
	}

	appCtx, err := builder.BuildAppContext(ctx, cfg)
	if err != nil {
		return fmt.Errorf("アプリケーションの組み立てに失敗したのだ: %w", err)
	}

	slog.Info("APIサーバーを構成したのだ",
		"addr", cfg.ListenAddr,
		"db", cfg.DBPath,
		"storage_s3", cfg.UseS3(),
	)

	srv := server.New(appCtx.Store, appCtx.Orchestrator)
	return srv.Run(cfg.ListenAddr)
}
