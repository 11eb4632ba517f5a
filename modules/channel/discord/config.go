package discord

import (
	"fmt"
	"net/url"
)

// Gateway intent bits. The default set matches what the bot needs:
// guild metadata, guild messages, direct messages, and message content.
const (
	intentGuilds         = 1 << 0
	intentGuildMessages  = 1 << 9
	intentDirectMessages = 1 << 12
	intentMessageContent = 1 << 15

	defaultIntents = intentGuilds | intentGuildMessages | intentDirectMessages | intentMessageContent
)

// Config holds the Discord channel configuration.
type Config struct {
	Token            string   `yaml:"token"`
	Intents          int      `yaml:"intents"`
	AllowedChannels  []string `yaml:"allowed_channels"`
	MaxMessageLength int      `yaml:"max_message_length"`
	APIURL           string   `yaml:"api_url"`
	GatewayURL       string   `yaml:"gateway_url"`
}

// defaults applies default values to unset fields.
func (c *Config) defaults() {
	if c.Intents == 0 {
		c.Intents = defaultIntents
	}
	if c.MaxMessageLength == 0 {
		c.MaxMessageLength = 2000
	}
	if c.APIURL == "" {
		c.APIURL = "https://discord.com/api/v10"
	}
	if c.GatewayURL == "" {
		c.GatewayURL = "wss://gateway.discord.gg/?v=10&encoding=json"
	}
}

// validate checks configuration field constraints beyond basic presence
// checks. It is called from Discord.Validate after defaults have been
// applied.
func (c *Config) validate() error {
	if c.APIURL != "" {
		u, err := url.Parse(c.APIURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("discord: api_url must be a valid http/https URL, got %q", c.APIURL)
		}
	}

	if c.MaxMessageLength < 1 || c.MaxMessageLength > 2000 {
		return fmt.Errorf("discord: max_message_length must be 1-2000, got %d", c.MaxMessageLength)
	}

	return nil
}
