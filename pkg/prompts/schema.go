package prompts

// PanelListSchema は Converter が構造化サービスへ渡す応答スキーマです。
// JSON Schema 制約モードを持つコラボレーターにはそのまま渡し、
// 持たない場合はプロンプト末尾に埋め込んで出力形式を固定します。
const PanelListSchema = `{
  "type": "object",
  "required": ["panels"],
  "properties": {
    "panels": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["ordinal", "shot_type", "visual_description", "transition"],
        "properties": {
          "ordinal": {"type": "integer", "minimum": 1},
          "shot_type": {
            "type": "string",
            "enum": ["establishing", "wide", "medium", "close_up", "extreme_close_up", "over_shoulder", "dutch_angle"]
          },
          "visual_description": {"type": "string"},
          "characters": {"type": "array", "items": {"type": "string"}},
          "poses": {"type": "object", "additionalProperties": {"type": "string"}},
          "setting_focus": {"type": "string"},
          "lighting": {"type": "string"},
          "camera_angle": {"type": "string"},
          "dialogue": {
            "type": "array",
            "maxItems": 3,
            "items": {
              "type": "object",
              "required": ["speaker_id", "text"],
              "properties": {
                "speaker_id": {"type": "string"},
                "text": {"type": "string", "maxLength": 100},
                "tone": {"type": "string"}
              }
            }
          },
          "sfx": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["text"],
              "properties": {
                "text": {"type": "string"},
                "emphasis": {"type": "string"}
              }
            }
          },
          "transition": {
            "type": "string",
            "enum": ["continuous", "beat_change", "scene_transition"]
          },
          "mood": {"type": "string"}
        }
      }
    }
  }
}`
