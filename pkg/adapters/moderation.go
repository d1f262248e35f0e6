package adapters

import (
	"fmt"
	"strings"

	"github.com/shouni/go-toonplay-kit/pkg/domain"
)

// moderationMarkers は、生成系サービスがコンテンツポリシー違反を示すときに
// エラーメッセージへ含める既知のマーカーです。
var moderationMarkers = []string{
	"safety",
	"blocked",
	"prohibited_content",
	"content policy",
	"responsible ai",
}

// classifyError はコラボレーターのエラーをモデレーション拒否と
// 一般的なサービスエラーに分類します。拒否は ErrModerationRejected で
// ラップされ、errors.Is で判別できます。
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range moderationMarkers {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("%w: %v", domain.ErrModerationRejected, err)
		}
	}
	return err
}
