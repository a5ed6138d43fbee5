package discord

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"

	"trade-signal-bot/internal/entity"
	"trade-signal-bot/internal/signalbot/dto"
)

// maxContentLen is Discord's limit for message content.
const maxContentLen = 2000

const (
	buttonsPerRow = 5
	maxRows       = 5
)

// Notifier publishes signal posts to a Discord channel through a webhook
// owned by the bot application.
type Notifier interface {
	// EnsureChannel resolves the channel and finds or creates the named webhook.
	EnsureChannel(ctx context.Context) error
	Send(ctx context.Context, post dto.Post) (entity.MessageRef, error)
	Edit(ctx context.Context, messageID string, post dto.Post) error
	Delete(ctx context.Context, messageID string) error
}

type client struct {
	session     *discordgo.Session
	channelID   string
	guildID     string
	webhookName string
	limiter     *rate.Limiter

	mu      sync.Mutex
	webhook *discordgo.Webhook
}

// NewSession creates a bot session. The caller opens and closes it.
func NewSession(botToken string) (*discordgo.Session, error) {
	return discordgo.New("Bot " + botToken)
}

// NewClient creates a new Discord notifier on an existing session.
// messagesPerMinute <= 0 disables rate limiting.
func NewClient(session *discordgo.Session, guildID, channelID, webhookName string, messagesPerMinute int) Notifier {
	limit := rate.Inf
	if messagesPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(messagesPerMinute))
	}
	return &client{
		session:     session,
		channelID:   channelID,
		guildID:     guildID,
		webhookName: webhookName,
		limiter:     rate.NewLimiter(limit, 3),
	}
}

func (c *client) EnsureChannel(ctx context.Context) error {
	_, err := c.ensureWebhook(ctx)
	return err
}

func (c *client) ensureWebhook(ctx context.Context) (*discordgo.Webhook, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.webhook != nil {
		return c.webhook, nil
	}

	channel, err := c.session.Channel(c.channelID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("resolve channel %s: %w", c.channelID, err)
	}
	if c.guildID == "" {
		c.guildID = channel.GuildID
	}

	hooks, err := c.session.ChannelWebhooks(c.channelID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("list webhooks: %w", err)
	}
	for _, h := range hooks {
		// Only webhooks created by this application carry a token and may send components.
		if h.Name == c.webhookName && h.Token != "" {
			c.webhook = h
			return h, nil
		}
	}

	hook, err := c.session.WebhookCreate(c.channelID, c.webhookName, "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("create webhook %q: %w", c.webhookName, err)
	}
	c.webhook = hook
	return hook, nil
}

// Send executes the webhook and waits for the created message.
func (c *client) Send(ctx context.Context, post dto.Post) (entity.MessageRef, error) {
	hook, err := c.ensureWebhook(ctx)
	if err != nil {
		return entity.MessageRef{}, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return entity.MessageRef{}, err
	}

	msg, err := c.session.WebhookExecute(hook.ID, hook.Token, true, &discordgo.WebhookParams{
		Content:         FormatPost(post),
		Components:      Components(post.Controls),
		AllowedMentions: allowedMentions(post.Mentions),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return entity.MessageRef{}, err
	}
	return entity.MessageRef{
		MessageID: msg.ID,
		JumpURL:   JumpURL(c.guildID, c.channelID, msg.ID),
	}, nil
}

func (c *client) Edit(ctx context.Context, messageID string, post dto.Post) error {
	hook, err := c.ensureWebhook(ctx)
	if err != nil {
		return err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	content := FormatPost(post)
	components := Components(post.Controls)
	_, err = c.session.WebhookMessageEdit(hook.ID, hook.Token, messageID, &discordgo.WebhookEdit{
		Content:         &content,
		Components:      &components,
		AllowedMentions: allowedMentions(post.Mentions),
	}, discordgo.WithContext(ctx))
	return err
}

func (c *client) Delete(ctx context.Context, messageID string) error {
	hook, err := c.ensureWebhook(ctx)
	if err != nil {
		return err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	return c.session.WebhookMessageDelete(hook.ID, hook.Token, messageID, discordgo.WithContext(ctx))
}

// FormatPost renders mentions on the first line followed by the text,
// trimmed to Discord's content limit.
func FormatPost(post dto.Post) string {
	var sb strings.Builder

	var mentions []string
	for _, m := range post.Mentions {
		switch m.Kind {
		case entity.MentionUser:
			mentions = append(mentions, "<@"+m.ID+">")
		case entity.MentionRole:
			mentions = append(mentions, "<@&"+m.ID+">")
		case entity.MentionUsername:
			mentions = append(mentions, "@"+strings.TrimPrefix(m.ID, "@"))
		}
	}
	if len(mentions) > 0 {
		sb.WriteString(strings.Join(mentions, " "))
		sb.WriteString("\n\n")
	}
	sb.WriteString(post.Text)

	text := []rune(sb.String())
	if len(text) > maxContentLen {
		text = append(text[:maxContentLen-1], '…')
	}
	return string(text)
}

// Components lays the controls out in action rows of up to five buttons.
func Components(controls []dto.Control) []discordgo.MessageComponent {
	components := []discordgo.MessageComponent{}

	var row []discordgo.MessageComponent
	for _, ctl := range controls {
		style := discordgo.SecondaryButton
		if ctl.Danger {
			style = discordgo.DangerButton
		}
		row = append(row, discordgo.Button{Label: ctl.Label, Style: style, CustomID: ctl.Token})
		if len(row) == buttonsPerRow {
			components = append(components, discordgo.ActionsRow{Components: row})
			row = nil
		}
	}
	if len(row) > 0 {
		components = append(components, discordgo.ActionsRow{Components: row})
	}
	if len(components) > maxRows {
		components = components[:maxRows]
	}
	return components
}

func allowedMentions(mentions []entity.Mention) *discordgo.MessageAllowedMentions {
	allowed := &discordgo.MessageAllowedMentions{Parse: []discordgo.AllowedMentionType{}}
	for _, m := range mentions {
		switch m.Kind {
		case entity.MentionUser:
			allowed.Users = append(allowed.Users, m.ID)
		case entity.MentionRole:
			allowed.Roles = append(allowed.Roles, m.ID)
		}
	}
	return allowed
}

// JumpURL builds the link to a guild channel message.
func JumpURL(guildID, channelID, messageID string) string {
	if guildID == "" {
		guildID = "@me"
	}
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guildID, channelID, messageID)
}
