package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"trade-signal-bot/internal/entity"
	"trade-signal-bot/internal/signalbot/lifecycle"
	"trade-signal-bot/internal/signalbot/render"
	"trade-signal-bot/internal/signalbot/service"
	"trade-signal-bot/pkg/logger"
	"trade-signal-bot/pkg/utils"
)

// chatTypePrivate is the Chat.Type of a one-to-one chat with the bot.
const chatTypePrivate = "private"

const helpText = `Commands:
/ping - health check
/signal <asset> <long|short> <entry> <stop> [tp1..tp5] [mention:<id|@name>]
/close <id> <price> [size%]
/result <id> <value>
/summary - refresh the summary message
/list - list stored signals`

// Handler receives operator commands and button presses from Telegram.
type Handler struct {
	signals service.SignalService
	logger  *logger.Logger
}

// NewHandler creates a new Telegram command handler.
func NewHandler(signals service.SignalService, log *logger.Logger) *Handler {
	return &Handler{signals: signals, logger: log}
}

// NewBot creates the inbound bot with the handler's routes registered.
func (h *Handler) NewBot(token string) (*bot.Bot, error) {
	b, err := bot.New(token,
		bot.WithDefaultHandler(h.defaultHandler),
		bot.WithMiddlewares(h.recoverMiddleware),
	)
	if err != nil {
		return nil, err
	}
	h.Register(b)
	return b, nil
}

// Register binds commands and the callback query handler to b.
func (h *Handler) Register(b *bot.Bot) {
	for _, cmd := range []string{"/ping", "/signal", "/close", "/result", "/summary", "/list", "/help", "/start"} {
		b.RegisterHandler(bot.HandlerTypeMessageText, cmd, bot.MatchTypePrefix, h.commandHandler)
	}
	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, h.callbackQueryHandler)
}

// recoverMiddleware keeps a panicking update from taking the bot down.
func (h *Handler) recoverMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		defer utils.Recover(h.logger, "telegram update")
		next(ctx, b, update)
	}
}

func (h *Handler) commandHandler(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	userID := strconv.FormatInt(msg.From.ID, 10)

	reply := h.Execute(ctx, userID, msg.Text)
	if reply == "" {
		return
	}
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: msg.Chat.ID,
		Text:   reply,
	}); err != nil {
		h.logger.ErrorContext(ctx, "Failed to reply to command", logger.ErrorField(err), logger.StringField("user_id", userID))
	}
}

func (h *Handler) callbackQueryHandler(ctx context.Context, b *bot.Bot, update *models.Update) {
	query := update.CallbackQuery
	if query == nil {
		return
	}
	userID := strconv.FormatInt(query.From.ID, 10)

	notice := h.Press(ctx, userID, query.Data)
	if _, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: query.ID,
		Text:            notice,
		ShowAlert:       strings.HasPrefix(notice, "⛔"),
	}); err != nil {
		h.logger.WarnContext(ctx, "Failed to answer callback query", logger.ErrorField(err))
	}
}

func (h *Handler) defaultHandler(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if !isPrivateCommand(msg) {
		return
	}
	_, _ = b.SendMessage(ctx, &bot.SendMessageParams{ChatID: msg.Chat.ID, Text: helpText})
}

// ownerCommands are authorized before their arguments are parsed.
var ownerCommands = map[string]bool{
	"signal":  true,
	"close":   true,
	"result":  true,
	"summary": true,
	"list":    true,
}

// isPrivateCommand reports whether msg is a slash command sent in a private chat.
func isPrivateCommand(msg *models.Message) bool {
	return msg != nil && msg.Chat.Type == chatTypePrivate && strings.HasPrefix(msg.Text, "/")
}

// Execute runs a text command and returns the reply for the operator.
func (h *Handler) Execute(ctx context.Context, userID, text string) string {
	cmd, _, _ := commandArgs(text)
	ctx = logger.WithFields(ctx, logger.StringField("user_id", userID), logger.StringField("command", cmd))

	switch cmd {
	case "ping":
		return "pong"
	case "help", "start":
		return helpText
	}

	if !ownerCommands[cmd] {
		return ""
	}
	if err := h.signals.Authorize(userID); err != nil {
		return h.failure(ctx, err)
	}

	switch cmd {
	case "signal":
		req, err := ParseSignalCommand(text)
		if err != nil {
			return h.failure(ctx, err)
		}
		sig, err := h.signals.Create(ctx, userID, req)
		if err != nil {
			notice := h.failure(ctx, err)
			if sig != nil {
				notice += "\nid: " + sig.ID
			}
			return notice
		}
		return fmt.Sprintf("✅ Signal %s %s posted.\nid: %s", sig.Asset, sig.Direction, sig.ID)
	case "close":
		id, action, err := ParseCloseCommand(text)
		if err != nil {
			return h.failure(ctx, err)
		}
		return h.apply(ctx, userID, id, action)
	case "result":
		id, action, err := ParseResultCommand(text)
		if err != nil {
			return h.failure(ctx, err)
		}
		return h.apply(ctx, userID, id, action)
	case "summary":
		if err := h.signals.PublishSummary(ctx, userID); err != nil {
			return h.failure(ctx, err)
		}
		return "✅ Summary refreshed."
	case "list":
		signals, err := h.signals.List(ctx, "")
		if err != nil {
			return h.failure(ctx, err)
		}
		return render.List(signals)
	default:
		return ""
	}
}

func (h *Handler) apply(ctx context.Context, userID, id string, action lifecycle.Action) string {
	if _, err := h.signals.HandleAction(ctx, userID, id, action); err != nil {
		return h.failure(ctx, err)
	}
	return "✅ Done."
}

// Press runs a button token and returns the short notice shown to the operator.
func (h *Handler) Press(ctx context.Context, userID, token string) string {
	ctx = logger.WithFields(ctx, logger.StringField("user_id", userID), logger.StringField("token", token))
	if _, err := h.signals.HandleToken(ctx, userID, token); err != nil {
		return h.failure(ctx, err)
	}
	return "✅ Updated."
}

func (h *Handler) failure(ctx context.Context, err error) string {
	notice := entity.UserMessage(err)
	h.logger.WarnContext(ctx, "Operator action failed", logger.ErrorField(err), logger.StringField("notice", notice))
	return notice
}
