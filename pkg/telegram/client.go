package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"trade-signal-bot/internal/entity"
	"trade-signal-bot/internal/signalbot/dto"
)

// Notifier publishes signal posts to a Telegram channel.
type Notifier interface {
	// EnsureChannel resolves the channel and checks that the bot may post and
	// edit messages in it.
	EnsureChannel(ctx context.Context) error
	Send(ctx context.Context, post dto.Post) (entity.MessageRef, error)
	Edit(ctx context.Context, messageID string, post dto.Post) error
	Delete(ctx context.Context, messageID string) error
}

// client is an implementation of Notifier.
type client struct {
	bot      *tgbotapi.BotAPI
	chatID   int64
	username string
	limiter  *rate.Limiter
}

// NewClient creates a new Telegram notifier client. messagesPerMinute <= 0
// disables rate limiting.
func NewClient(botToken string, chatID int64, channelUsername string, messagesPerMinute int) (Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	return &client{
		bot:      bot,
		chatID:   chatID,
		username: channelUsername,
		limiter:  newLimiter(messagesPerMinute),
	}, nil
}

func newLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 3)
}

func (c *client) EnsureChannel(ctx context.Context) error {
	chat, err := c.bot.GetChat(tgbotapi.ChatInfoConfig{ChatConfig: tgbotapi.ChatConfig{ChatID: c.chatID}})
	if err != nil {
		return fmt.Errorf("resolve channel %d: %w", c.chatID, err)
	}
	if c.username == "" {
		c.username = chat.UserName
	}

	member, err := c.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: c.chatID, UserID: c.bot.Self.ID},
	})
	if err != nil {
		return fmt.Errorf("check bot membership: %w", err)
	}
	if !member.IsAdministrator() && !member.IsCreator() {
		return fmt.Errorf("bot @%s is not an administrator of channel %d", c.bot.Self.UserName, c.chatID)
	}
	return nil
}

// Send posts the message to the configured Telegram channel.
func (c *client) Send(ctx context.Context, post dto.Post) (entity.MessageRef, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return entity.MessageRef{}, err
	}

	msg := tgbotapi.NewMessage(c.chatID, FormatPost(post))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if kb := Keyboard(post.Controls); kb != nil {
		msg.ReplyMarkup = kb
	}

	sent, err := c.bot.Send(msg)
	if err != nil {
		return entity.MessageRef{}, err
	}
	return entity.MessageRef{
		MessageID: strconv.Itoa(sent.MessageID),
		JumpURL:   JumpURL(c.chatID, c.username, sent.MessageID),
	}, nil
}

// Edit replaces text and buttons of a posted message. An edit that changes
// nothing is reported by Telegram as an error and treated as success here.
func (c *client) Edit(ctx context.Context, messageID string, post dto.Post) error {
	id, err := strconv.Atoi(messageID)
	if err != nil {
		return fmt.Errorf("invalid telegram message id %q", messageID)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	edit := tgbotapi.NewEditMessageText(c.chatID, id, FormatPost(post))
	edit.ParseMode = tgbotapi.ModeHTML
	edit.DisableWebPagePreview = true
	edit.ReplyMarkup = Keyboard(post.Controls)

	if _, err := c.bot.Request(edit); err != nil && !isNotModified(err) {
		return err
	}
	return nil
}

func (c *client) Delete(ctx context.Context, messageID string) error {
	id, err := strconv.Atoi(messageID)
	if err != nil {
		return fmt.Errorf("invalid telegram message id %q", messageID)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err = c.bot.Request(tgbotapi.NewDeleteMessage(c.chatID, id))
	return err
}

func isNotModified(err error) bool {
	return strings.Contains(err.Error(), "message is not modified")
}
