package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"trade-signal-bot/internal/entity"
	"trade-signal-bot/internal/signalbot/lifecycle"
	"trade-signal-bot/internal/signalbot/render"
	"trade-signal-bot/internal/signalbot/service"
	"trade-signal-bot/pkg/logger"
	"trade-signal-bot/pkg/utils"
)

// interactionTimeout bounds the work done for one interaction.
const interactionTimeout = 30 * time.Second

// Handler receives slash commands and button presses from Discord.
type Handler struct {
	signals service.SignalService
	logger  *logger.Logger
}

// NewHandler creates a new Discord interaction handler.
func NewHandler(signals service.SignalService, log *logger.Logger) *Handler {
	return &Handler{signals: signals, logger: log}
}

// Register installs the interaction handler and overwrites the slash commands
// of appID in guildID (global when guildID is empty).
func (h *Handler) Register(s *discordgo.Session, appID, guildID string) error {
	s.AddHandler(h.onInteraction)
	if _, err := s.ApplicationCommandBulkOverwrite(appID, guildID, Commands); err != nil {
		return fmt.Errorf("register slash commands: %w", err)
	}
	return nil
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func (h *Handler) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	defer utils.Recover(h.logger, "discord interaction")

	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()

	userID := interactionUserID(i)

	// Acknowledge first: Discord drops interactions not answered within three seconds.
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to acknowledge interaction", logger.ErrorField(err), logger.StringField("user_id", userID))
		return
	}

	var reply string
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		reply = h.Execute(ctx, userID, inputFrom(i.ApplicationCommandData()))
	case discordgo.InteractionMessageComponent:
		reply = h.Press(ctx, userID, i.MessageComponentData().CustomID)
	default:
		return
	}

	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Content: &reply}); err != nil {
		h.logger.ErrorContext(ctx, "Failed to answer interaction", logger.ErrorField(err), logger.StringField("user_id", userID))
	}
}

// Execute runs a slash command and returns the reply for the operator.
func (h *Handler) Execute(ctx context.Context, userID string, in Input) string {
	ctx = logger.WithFields(ctx, logger.StringField("user_id", userID), logger.StringField("command", in.Name))

	if in.Name == "ping" {
		return "pong"
	}
	if err := h.signals.Authorize(userID); err != nil {
		return h.failure(ctx, err)
	}

	switch in.Name {
	case "signal":
		sig, err := h.signals.Create(ctx, userID, in.CreateRequest())
		if err != nil {
			notice := h.failure(ctx, err)
			if sig != nil {
				notice += "\nid: " + sig.ID
			}
			return notice
		}
		return fmt.Sprintf("✅ Signal %s %s posted.\nid: `%s`", sig.Asset, sig.Direction, sig.ID)
	case "close":
		size := 100.0
		if raw, ok := in.Options["size"]; ok {
			v, ok := lifecycle.ParseNumber(raw)
			if !ok {
				return h.failure(ctx, entity.InvalidInput("size %q is not a number", raw))
			}
			size = v.InexactFloat64()
		}
		return h.apply(ctx, userID, in.Options["id"], lifecycle.RecordClose{Price: in.Options["price"], SizePercent: size})
	case "result":
		return h.apply(ctx, userID, in.Options["id"], lifecycle.OverrideResult{Value: in.Options["value"]})
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
		return "❓ Unknown command."
	}
}

func (h *Handler) apply(ctx context.Context, userID, id string, action lifecycle.Action) string {
	if _, err := h.signals.HandleAction(ctx, userID, id, action); err != nil {
		return h.failure(ctx, err)
	}
	return "✅ Done."
}

// Press runs a button token and returns the notice shown to the operator.
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
