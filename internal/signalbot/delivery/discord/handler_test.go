package discord

import (
	"context"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"trade-signal-bot/internal/entity"
	"trade-signal-bot/internal/signalbot/dto"
	"trade-signal-bot/internal/signalbot/lifecycle"
	"trade-signal-bot/internal/signalbot/service/servicetest"
	"trade-signal-bot/pkg/logger"
)

func TestInputFrom(t *testing.T) {
	data := discordgo.ApplicationCommandInteractionData{
		Name: "signal",
		Options: []*discordgo.ApplicationCommandInteractionDataOption{
			{Name: "asset", Type: discordgo.ApplicationCommandOptionString, Value: "BTC"},
			{Name: "direction", Type: discordgo.ApplicationCommandOptionString, Value: "SHORT"},
			{Name: "entry", Type: discordgo.ApplicationCommandOptionString, Value: "100"},
			{Name: "stop", Type: discordgo.ApplicationCommandOptionString, Value: "110"},
			{Name: "tp1", Type: discordgo.ApplicationCommandOptionString, Value: "90"},
			{Name: "tp3", Type: discordgo.ApplicationCommandOptionString, Value: "70"},
			{Name: "mention", Type: discordgo.ApplicationCommandOptionMentionable, Value: "555"},
		},
		Resolved: &discordgo.ApplicationCommandInteractionDataResolved{
			Roles: map[string]*discordgo.Role{"555": {ID: "555"}},
		},
	}

	in := inputFrom(data)
	assert.Equal(t, "signal", in.Name)
	assert.Equal(t, &entity.Mention{ID: "555", Kind: entity.MentionRole}, in.Mention)

	req := in.CreateRequest()
	assert.Equal(t, &dto.CreateSignalRequest{
		Asset:        "BTC",
		Direction:    entity.DirectionShort,
		Entry:        "100",
		Stop:         "110",
		TakeProfits:  []string{"90", "70"},
		ExtraMention: &entity.Mention{ID: "555", Kind: entity.MentionRole},
	}, req)
}

func TestInputFrom_NumberAndUserMention(t *testing.T) {
	in := inputFrom(discordgo.ApplicationCommandInteractionData{
		Name: "close",
		Options: []*discordgo.ApplicationCommandInteractionDataOption{
			{Name: "size", Type: discordgo.ApplicationCommandOptionNumber, Value: 25.5},
			{Name: "mention", Type: discordgo.ApplicationCommandOptionMentionable, Value: "42"},
		},
	})
	assert.Equal(t, "25.5", in.Options["size"])
	assert.Equal(t, entity.MentionUser, in.Mention.Kind)
}

func newTestHandler() (*Handler, *servicetest.SignalService) {
	svc := &servicetest.SignalService{}
	svc.On("Authorize", "1").Return(nil).Maybe()
	svc.On("Authorize", mock.Anything).Return(entity.ErrUnauthorized).Maybe()
	return NewHandler(svc, logger.NewNop()), svc
}

func TestHandler_Execute(t *testing.T) {
	h, svc := newTestHandler()
	ctx := context.Background()

	svc.On("Create", mock.Anything, "1", mock.Anything).
		Return(&entity.Signal{ID: "abc", Asset: "BTC", Direction: entity.DirectionLong}, nil).Once()
	svc.On("HandleAction", mock.Anything, "1", "abc", lifecycle.RecordClose{Price: "110", SizePercent: 100}).
		Return(&entity.Signal{ID: "abc"}, nil).Once()
	svc.On("HandleAction", mock.Anything, "1", "abc", lifecycle.RecordClose{Price: "120", SizePercent: 40}).
		Return(nil, entity.ErrConflict).Once()

	assert.Equal(t, "pong", h.Execute(ctx, "1", Input{Name: "ping"}))
	assert.Equal(t, "✅ Signal BTC LONG posted.\nid: `abc`",
		h.Execute(ctx, "1", Input{Name: "signal", Options: map[string]string{"asset": "BTC"}}))
	assert.Equal(t, "✅ Done.",
		h.Execute(ctx, "1", Input{Name: "close", Options: map[string]string{"id": "abc", "price": "110"}}))
	assert.Equal(t, "⚠️ Signal changed concurrently, try again.",
		h.Execute(ctx, "1", Input{Name: "close", Options: map[string]string{"id": "abc", "price": "120", "size": "40"}}))
	assert.Equal(t, "❓ Unknown command.", h.Execute(ctx, "1", Input{Name: "nope"}))
	svc.AssertExpectations(t)
}

func TestHandler_ExecuteRejectsStrangerBeforeParsing(t *testing.T) {
	h, svc := newTestHandler()
	ctx := context.Background()

	for _, in := range []Input{
		{Name: "close", Options: map[string]string{"id": "abc", "price": "1", "size": "half"}},
		{Name: "signal", Options: map[string]string{"asset": "BTC"}},
		{Name: "result", Options: map[string]string{"id": "abc"}},
		{Name: "list"},
		{Name: "nope"},
	} {
		assert.Equal(t, "⛔ Not authorized.", h.Execute(ctx, "999", in), in.Name)
	}
	svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	svc.AssertNotCalled(t, "HandleAction", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	svc.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestHandler_Press(t *testing.T) {
	h, svc := newTestHandler()

	svc.On("HandleToken", mock.Anything, "9", "be:abc").Return(nil, entity.ErrUnauthorized).Once()

	assert.Equal(t, "⛔ Not authorized.", h.Press(context.Background(), "9", "be:abc"))
	svc.AssertExpectations(t)
}

func TestCommands_SignalOptions(t *testing.T) {
	var signal *discordgo.ApplicationCommand
	for _, c := range Commands {
		if c.Name == "signal" {
			signal = c
		}
	}
	if assert.NotNil(t, signal) {
		names := make([]string, 0, len(signal.Options))
		for _, o := range signal.Options {
			names = append(names, o.Name)
		}
		assert.Equal(t, []string{"asset", "direction", "entry", "stop", "tp1", "tp2", "tp3", "tp4", "tp5", "reason", "mention"}, names)
	}
}
