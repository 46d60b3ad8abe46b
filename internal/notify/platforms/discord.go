package platforms

import "context"

type DiscordAdapter struct {
	client *HTTPClient
}

func NewDiscordAdapter(client *HTTPClient) *DiscordAdapter {
	return &DiscordAdapter{client: client}
}

func (a *DiscordAdapter) Name() string {
	return "discord"
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordEmbed struct {
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	URL         string            `json:"url,omitempty"`
	Color       int               `json:"color,omitempty"`
	Timestamp   string            `json:"timestamp,omitempty"`
	Footer      map[string]string `json:"footer,omitempty"`
	Fields      []discordField    `json:"fields"`
}

type discordPayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []discordEmbed `json:"embeds"`
}

// Send posts msg as a single embed to a Discord webhook URL.
func (a *DiscordAdapter) Send(ctx context.Context, endpoint, _ string, msg Message) error {
	embed := discordEmbed{
		Title:       msg.Title,
		Description: msg.Description,
		URL:         msg.URL,
		Color:       msg.Color,
		Timestamp:   msg.Timestamp,
		Fields:      make([]discordField, 0, len(msg.Fields)),
	}
	for _, f := range msg.Fields {
		embed.Fields = append(embed.Fields, discordField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	if msg.Footer != "" {
		embed.Footer = map[string]string{"text": msg.Footer}
	}
	return a.client.PostJSON(ctx, endpoint, nil, discordPayload{Content: msg.Content, Embeds: []discordEmbed{embed}})
}
