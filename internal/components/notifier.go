package components

import (
	"context"
	"fmt"

	"autosite/internal/notify"
)

// NotifierComponent owns the Discord webhook client used to deliver the
// digest.
type NotifierComponent struct {
	webhookURL string
	username   string
	discord    *notify.Discord
}

func NewNotifierComponent(webhookURL, username string) *NotifierComponent {
	return &NotifierComponent{
		webhookURL: webhookURL,
		username:   username,
	}
}

func (c *NotifierComponent) Name() string {
	return NotifierComponentName
}

func (c *NotifierComponent) Dependencies() []string {
	return []string{}
}

func (c *NotifierComponent) Validate() error {
	if _, _, err := notify.ParseWebhookURL(c.webhookURL); err != nil {
		return err
	}
	return nil
}

func (c *NotifierComponent) Initialize(ctx context.Context) error {
	discord, err := notify.NewDiscord(c.webhookURL, c.username)
	if err != nil {
		return fmt.Errorf("notifier: %w", err)
	}
	c.discord = discord
	return nil
}

func (c *NotifierComponent) Close(ctx context.Context) error {
	return nil
}

func (c *NotifierComponent) Discord() *notify.Discord {
	return c.discord
}
