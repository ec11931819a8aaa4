// internal/models/classification.go
package models

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// ClassificationResult is the validated output of the completion call.
// AssetNumber is within 1..27, Confidence within 0..100 and Priority valid.
type ClassificationResult struct {
	AssetNumber     int      `json:"assetNumber"`
	ChecklistItemID *string  `json:"checklistItemId"`
	Title           string   `json:"title"`
	Priority        Priority `json:"priority"`
	Confidence      int      `json:"confidence"`
	Reasoning       string   `json:"reasoning"`
	Fallback        bool     `json:"fallback,omitempty"`
}
