// internal/workers/ingestion/notify-channel/models.go
package notifychannel

import (
	"fmt"
	"net/url"
	"strings"

	"cobuilder/internal/models"
)

func NotLinkedMessage(adminLinkURL string) string {
	msg := ":link: This channel isn't linked to a Co-Builder venture yet, so no task was created."
	if adminLinkURL != "" {
		msg += fmt.Sprintf(" An admin can link it at <%s|Co-Builder admin settings>.", adminLinkURL)
	} else {
		msg += " Ask a Co-Builder admin to link it from the admin settings."
	}
	return msg
}

func ClassificationFailedMessage() string {
	return ":warning: Sorry, I couldn't classify this message into a Co-Builder task. Please try again in a moment or add the task manually."
}

func SaveFailedMessage() string {
	return ":x: I classified this message but couldn't save the task. Please try again or add it manually in Co-Builder."
}

func DuplicateMessage() string {
	return ":information_source: This message is already being processed or already has a task."
}

// ConfidenceEmoji maps a 0-100 confidence to a traffic-light glyph.
func ConfidenceEmoji(confidence int) string {
	switch {
	case confidence >= 80:
		return ":large_green_circle:"
	case confidence >= 50:
		return ":large_yellow_circle:"
	default:
		return ":red_circle:"
	}
}

// TaskLink points at the venture page filtered to the task's asset.
func TaskLink(baseURL, ventureID string, assetNumber int) string {
	return fmt.Sprintf("%s/ventures/%s?asset=%d", strings.TrimRight(baseURL, "/"), url.PathEscape(ventureID), assetNumber)
}

// CreatedMessage summarizes a stored task.
func CreatedMessage(task *models.Task, assetTitle, baseURL string) string {
	var b strings.Builder
	fmt.Fprintf(&b, ":white_check_mark: Task created: *%s*\n", task.Title)

	asset := fmt.Sprintf("Asset %d", task.AssetNumber)
	if assetTitle != "" {
		asset += ": " + assetTitle
	}
	fmt.Fprintf(&b, "%s  |  Priority: %s  |  Confidence: %s %d%%",
		asset, task.Priority, ConfidenceEmoji(task.AIConfidence), task.AIConfidence)

	if task.ChecklistItemID != nil {
		fmt.Fprintf(&b, "  |  Checklist: %s", *task.ChecklistItemID)
	}
	if baseURL != "" {
		fmt.Fprintf(&b, "\n<%s|View in Co-Builder>", TaskLink(baseURL, task.VentureID, task.AssetNumber))
	}
	return b.String()
}
