package storage

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config は S3 互換ストレージ（R2 等）への接続設定です。
type S3Config struct {
	AccessKey string
	SecretKey string
	Bucket    string
	Endpoint  string
	Region    string
	// PublicURL はカスタムドメイン等の公開ベース URL です。
	// 未設定の場合は Endpoint からパススタイルの URL を導出します。
	PublicURL string
}

// S3Store は S3 互換 API を使った ObjectStore 実装です。
type S3Store struct {
	client *s3.Client
	cfg    S3Config
}

// NewS3Store は接続設定を検証し、S3 クライアントを初期化します。
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.AccessKey == "" || cfg.SecretKey == "" || cfg.Bucket == "" || cfg.Endpoint == "" {
		return nil, fmt.Errorf("オブジェクトストレージの設定が不完全です")
	}
	if cfg.Region == "" {
		cfg.Region = "auto"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(aws.NewCredentialsCache(aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
			return aws.Credentials{
				AccessKeyID:     cfg.AccessKey,
				SecretAccessKey: cfg.SecretKey,
			}, nil
		}))),
	)
	if err != nil {
		return nil, fmt.Errorf("AWS設定の構築に失敗しました: %w", err)
	}

	// 仮想ホスト形式のサブドメイン TLS 問題を避けるためパススタイルを使います
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})

	return &S3Store{client: client, cfg: cfg}, nil
}

// Put はオブジェクトをアップロードし、公開 URL を返します。
func (s *S3Store) Put(ctx context.Context, objectKey string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("オブジェクトのアップロードに失敗しました (key: %s): %w", objectKey, err)
	}

	var url string
	if s.cfg.PublicURL != "" {
		url = fmt.Sprintf("%s/%s", s.cfg.PublicURL, objectKey)
	} else {
		url = fmt.Sprintf("%s/%s/%s", s.cfg.Endpoint, s.cfg.Bucket, objectKey)
	}

	slog.InfoContext(ctx, "オブジェクトをアップロードしました", "key", objectKey, "bytes", len(data))
	return url, nil
}
