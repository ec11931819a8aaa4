// internal/workers/ingestion/classify-message/parse.go
package classifymessage

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"cobuilder/internal/common/validation"
	"cobuilder/internal/framework"
	"cobuilder/internal/models"
)

var (
	errNoJSONObject = errors.New("no JSON object in completion")

	codeFence = regexp.MustCompile("(?s)^```[a-zA-Z0-9_-]*\\s*\\n?(.*?)\\n?```$")
	spaces    = regexp.MustCompile(`\s+`)

	schema = validation.MustCompile(outputSchema)
)

const untitledTask = "Untitled task from Slack"

// stripCodeFence removes a surrounding Markdown code fence, if any.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if m := codeFence.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}

// extractObject returns the first balanced {...} object in s. Braces inside
// JSON strings are ignored.
func extractObject(s string) (string, error) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", errNoJSONObject
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", errNoJSONObject
}

// parseCompletion turns the model's reply into a validated result.
func parseCompletion(content, messageText string, fw *framework.Framework, maxTitle int) (*models.ClassificationResult, error) {
	obj, err := extractObject(stripCodeFence(content))
	if err != nil {
		return nil, err
	}

	res, err := schema.ValidateBytes([]byte(obj))
	if err != nil {
		return nil, err
	}
	if !res.Valid {
		return nil, fmt.Errorf("completion does not match schema: %s", res.Error())
	}

	var raw rawClassification
	if err := json.Unmarshal([]byte(obj), &raw); err != nil {
		return nil, fmt.Errorf("decode completion: %w", err)
	}

	result := &models.ClassificationResult{
		AssetNumber: clamp(raw.AssetNumber, 1, framework.AssetCount),
		Title:       normalizeTitle(raw.Title, messageText, maxTitle),
		Priority:    models.Priority(strings.ToLower(strings.TrimSpace(raw.Priority))),
		Confidence:  clamp(raw.Confidence, 0, 100),
		Reasoning:   strings.TrimSpace(raw.Reasoning),
	}
	if !result.Priority.IsValid() {
		result.Priority = models.PriorityMedium
	}
	result.ChecklistItemID = validChecklistItem(raw.ChecklistItemID, result.AssetNumber, fw)

	return result, nil
}

func clamp(v float64, lo, hi int) int {
	if math.IsNaN(v) {
		return lo
	}
	// compare as floats; converting a huge value to int first wraps around
	if v <= float64(lo) {
		return lo
	}
	if v >= float64(hi) {
		return hi
	}
	return int(math.Round(v))
}

// validChecklistItem keeps the ID only when it belongs to the chosen asset
// and exists in the framework.
func validChecklistItem(id *string, assetNumber int, fw *framework.Framework) *string {
	if id == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*id)
	asset, _, ok := framework.ParseChecklistID(trimmed)
	if !ok || asset != assetNumber {
		return nil
	}
	if fw != nil {
		if _, exists := fw.ChecklistItem(trimmed); !exists {
			return nil
		}
	}
	return &trimmed
}

// normalizeTitle collapses whitespace and truncates to max runes. An empty
// title is derived from the first line of the message.
func normalizeTitle(title, messageText string, max int) string {
	title = strings.TrimSpace(spaces.ReplaceAllString(title, " "))
	if title == "" {
		firstLine := strings.TrimSpace(strings.SplitN(strings.TrimSpace(messageText), "\n", 2)[0])
		title = strings.TrimSpace(spaces.ReplaceAllString(firstLine, " "))
	}
	if title == "" {
		return untitledTask
	}
	return truncateRunes(title, max)
}

func truncateRunes(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:max]))
}

// fallbackResult is returned on an unparseable completion when the
// fallback is enabled.
func fallbackResult(messageText string, maxTitle int) *models.ClassificationResult {
	return &models.ClassificationResult{
		AssetNumber: 1,
		Title:       normalizeTitle("", messageText, maxTitle),
		Priority:    models.PriorityMedium,
		Confidence:  10,
		Reasoning:   "The classifier response could not be parsed; assigned to asset 1 for manual review.",
		Fallback:    true,
	}
}
