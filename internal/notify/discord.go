package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/bwmarrin/discordgo"

	"autosite/internal/utils"
)

const discordMessageLimit = 2000

// Discord posts the digest to a channel webhook. No gateway connection is
// opened; only the REST client of the session is used.
type Discord struct {
	webhookID string
	token     string
	username  string
	session   *discordgo.Session
}

// ParseWebhookURL splits https://discord.com/api/webhooks/<id>/<token>.
func ParseWebhookURL(raw string) (string, string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("discord: invalid webhook url: %w", err)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+2 < len(parts); i++ {
		if parts[i] == "webhooks" && parts[i+1] != "" && parts[i+2] != "" {
			return parts[i+1], parts[i+2], nil
		}
	}
	return "", "", fmt.Errorf("discord: webhook url %q has no /webhooks/<id>/<token> path", u.Redacted())
}

func NewDiscord(webhookURL, username string) (*Discord, error) {
	id, token, err := ParseWebhookURL(webhookURL)
	if err != nil {
		return nil, err
	}

	session, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	return &Discord{
		webhookID: id,
		token:     token,
		username:  username,
		session:   session,
	}, nil
}

// WithHTTPClient swaps the client used for webhook calls.
func (d *Discord) WithHTTPClient(client *http.Client) *Discord {
	d.session.Client = client
	return d
}

// Deliver sends text, cut to Discord's 2000 character message limit.
func (d *Discord) Deliver(ctx context.Context, text string) error {
	params := &discordgo.WebhookParams{
		Content:  utils.TruncateRunes(text, discordMessageLimit),
		Username: d.username,
	}
	if _, err := d.session.WebhookExecute(d.webhookID, d.token, false, params, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord: failed to execute webhook: %w", err)
	}
	return nil
}
