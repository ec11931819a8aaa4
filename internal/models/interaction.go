// internal/models/interaction.go
package models

// Interaction types handled by the webhook.
const (
	InteractionMessageAction   = "message_action"
	InteractionURLVerification = "url_verification"
)

// InteractionPayload is the decoded Slack interaction envelope. It only lives
// for the duration of one webhook request.
type InteractionPayload struct {
	Type        string             `json:"type"`
	CallbackID  string             `json:"callback_id,omitempty"`
	TriggerID   string             `json:"trigger_id,omitempty"`
	ResponseURL string             `json:"response_url,omitempty"`
	Challenge   string             `json:"challenge,omitempty"`
	Token       string             `json:"token,omitempty"`
	Team        InteractionTeam    `json:"team"`
	User        InteractionUser    `json:"user"`
	Channel     InteractionChannel `json:"channel"`
	Message     InteractionMessage `json:"message"`
}

type InteractionTeam struct {
	ID     string `json:"id"`
	Domain string `json:"domain,omitempty"`
}

type InteractionUser struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type InteractionChannel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type InteractionMessage struct {
	Text string `json:"text"`
	TS   string `json:"ts"`
	User string `json:"user,omitempty"`
}

// AuthorID is the ID of the user who wrote the message, falling back to the
// user who triggered the shortcut.
func (p *InteractionPayload) AuthorID() string {
	if p.Message.User != "" {
		return p.Message.User
	}
	return p.User.ID
}
