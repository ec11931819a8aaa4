// internal/workers/ingestion/classify-message/models.go
package classifymessage

type Input struct {
	Text        string `json:"text"`
	UserName    string `json:"userName"`
	ChannelName string `json:"channelName"`
}

// rawClassification mirrors the JSON object the model is asked to return.
// Numbers are decoded as float64 so out-of-range and fractional values can
// be clamped instead of rejected.
type rawClassification struct {
	AssetNumber     float64 `json:"assetNumber"`
	ChecklistItemID *string `json:"checklistItemId"`
	Title           string  `json:"title"`
	Priority        string  `json:"priority"`
	Confidence      float64 `json:"confidence"`
	Reasoning       string  `json:"reasoning"`
}

// outputSchema type-checks the model output before clamping.
const outputSchema = `{
  "type": "object",
  "required": ["assetNumber"],
  "properties": {
    "assetNumber":     {"type": "number"},
    "checklistItemId": {"type": ["string", "null"]},
    "title":           {"type": "string"},
    "priority":        {"type": "string"},
    "confidence":      {"type": "number"},
    "reasoning":       {"type": "string"}
  }
}`
