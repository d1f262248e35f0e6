package prompts

import (
	"regexp"
	"sort"
	"strings"
)

// sanitizeTable はモデレーション拒否後の2段目で適用する固定の語彙置換表です。
// 感情的・身体的に強い語を中立的な同義語へ置き換えます。
// 表は不変であり、実行中に書き換えてはいけません。
var sanitizeTable = map[string]string{
	"blood":     "dark stains",
	"bloody":    "battered",
	"bleeding":  "hurt",
	"kill":      "confront",
	"killed":    "defeated",
	"killing":   "striking at",
	"murder":    "crime",
	"corpse":    "motionless figure",
	"dead":      "fallen",
	"death":     "loss",
	"stab":      "strike",
	"stabbed":   "struck",
	"strangle":  "restrain",
	"torture":   "ordeal",
	"agony":     "deep pain",
	"scream":    "cry out",
	"screaming": "crying out",
	"terrified": "startled",
	"horrify":   "unsettle",
	"horrific":  "grim",
	"gore":      "aftermath",
	"wound":     "bruise",
	"wounded":   "bruised",
	"violent":   "intense",
	"violence":  "conflict",
	"explode":   "burst",
	"explosion": "burst of light",
}

var sanitizePatterns = buildSanitizePatterns()

type sanitizePattern struct {
	re          *regexp.Regexp
	replacement string
}

// buildSanitizePatterns は置換表を単語境界付きの正規表現へ変換します。
// 決定論的な適用順序を保つため、語をソートしてからコンパイルします。
func buildSanitizePatterns() []sanitizePattern {
	terms := make([]string, 0, len(sanitizeTable))
	for term := range sanitizeTable {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	patterns := make([]sanitizePattern, 0, len(terms))
	for _, term := range terms {
		patterns = append(patterns, sanitizePattern{
			re:          regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`),
			replacement: sanitizeTable[term],
		})
	}
	return patterns
}

// Sanitize はプロンプト本文に固定置換表を適用した結果を返します。
// 置換は純粋関数であり、同じ入力には常に同じ出力を返します。
func Sanitize(text string) string {
	for _, p := range sanitizePatterns {
		text = p.re.ReplaceAllString(text, p.replacement)
	}
	return text
}

// WasSanitized は置換によって本文が変化したかどうかを返します。
func WasSanitized(original, sanitized string) bool {
	return !strings.EqualFold(original, sanitized)
}
