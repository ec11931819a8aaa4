// internal/workers/ingestion/classify-message/prompt.go
package classifymessage

import (
	"fmt"
	"strings"

	"cobuilder/internal/framework"
)

const outputContract = `Respond with ONLY a JSON object, no prose and no Markdown, with exactly these fields:
{
  "assetNumber": <integer 1-27, the asset this work belongs to>,
  "checklistItemId": <string "<assetNumber>-<itemIndex>" from the checklist above, or null>,
  "title": <short actionable task title, at most 100 characters>,
  "priority": <one of "low", "medium", "high", "urgent">,
  "confidence": <integer 0-100, how sure you are about assetNumber>,
  "reasoning": <one or two sentences explaining the choice>
}`

func buildSystemPrompt(ref framework.Reference) string {
	var b strings.Builder
	b.WriteString("You are the Co-Builder task classifier. Ventures progress through a fixed framework of 27 assets. ")
	b.WriteString("Given a Slack message, decide which asset (and, if clear, which checklist item) the work it describes belongs to, ")
	b.WriteString("and turn it into a task.\n\n")
	b.WriteString(ref.String())
	b.WriteString("\n")
	b.WriteString(outputContract)
	return b.String()
}

func buildUserPrompt(input *Input) string {
	channel := input.ChannelName
	if channel == "" {
		channel = "unknown"
	}
	user := input.UserName
	if user == "" {
		user = "unknown"
	}
	return fmt.Sprintf("Channel: #%s\nAuthor: %s\nMessage:\n%s", channel, user, input.Text)
}
