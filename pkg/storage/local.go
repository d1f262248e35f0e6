package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalStore はローカルディレクトリへ書き込む ObjectStore 実装です。
// CLI のオフライン実行とテストで使います。
type LocalStore struct {
	baseDir string
}

// NewLocalStore は保存先ディレクトリを受け取って初期化します。
func NewLocalStore(baseDir string) *LocalStore {
	return &LocalStore{baseDir: baseDir}
}

// Put はオブジェクトをファイルとして書き込み、そのパスを URL として返します。
func (l *LocalStore) Put(_ context.Context, objectKey string, data []byte, _ string) (string, error) {
	fullPath := filepath.Join(l.baseDir, filepath.FromSlash(objectKey))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("保存先ディレクトリの作成に失敗しました: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("オブジェクトの書き込みに失敗しました (key: %s): %w", objectKey, err)
	}

	return "file://" + fullPath, nil
}
