// Package discord delivers delay reports to Discord webhooks.
package discord

// Webhook wire format. Only the subset of the message shape the notifier
// uses is modelled.

// Message is a webhook message payload.
type Message struct {
	Username string  `json:"username,omitempty"`
	Content  string  `json:"content,omitempty"`
	Embeds   []Embed `json:"embeds,omitempty"`
}

// Embed is a rich content block in a message.
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
}

// EmbedField is a titled value inside an embed.
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// EmbedFooter is the footer line of an embed.
type EmbedFooter struct {
	Text string `json:"text"`
}

// Discord-imposed payload limits.
const (
	MaxFieldValueLength = 1024
	MaxFieldsPerEmbed   = 25
	MaxEmbedsPerMessage = 10
)

// Embed colors by report severity.
const (
	colorYellow = 0xFFC107
	colorOrange = 0xFF9800
	colorRed    = 0xF44336
)
