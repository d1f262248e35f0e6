package pipeline

// Phase は生成ランの進行フェーズです。
type Phase string

const (
	// PhaseStructuring は散文からの構成案抽出フェーズです。
	PhaseStructuring Phase = "structuring"
	// PhaseSynthesizing はパネル画像の並列合成フェーズです。
	// バリアント導出までを含み、イベントはパネル1枚の完成ごとに届きます。
	PhaseSynthesizing Phase = "synthesizing"
	// PhasePacing はガター割り当てフェーズです。
	PhasePacing Phase = "pacing"
	// PhasePersisting はパネル集合の一括置換フェーズです。
	PhasePersisting Phase = "persisting"
	// PhaseCompleted はラン完了の最終イベントです。
	PhaseCompleted Phase = "completed"
)

// ProgressEvent は進捗ストリームの1イベントです。
// Completed は単調増加し、同じランの中で減ることはありません。
type ProgressEvent struct {
	Phase       Phase `json:"phase"`
	PanelNumber int   `json:"panel_number,omitempty"`
	Completed   int   `json:"completed"`
	Total       int   `json:"total"`
}

// ProgressFunc は進捗イベントの届け先です。合成ワーカーのロック内から
// 呼ばれるため、ブロックしない実装にしてください。
type ProgressFunc func(ProgressEvent)

func emit(fn ProgressFunc, ev ProgressEvent) {
	if fn != nil {
		fn(ev)
	}
}
