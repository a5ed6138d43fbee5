package discord

import (
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"

	"trade-signal-bot/internal/entity"
	"trade-signal-bot/internal/signalbot/dto"
)

// Commands is the slash command set registered for the bot.
var Commands = []*discordgo.ApplicationCommand{
	{Name: "ping", Description: "Health check"},
	{
		Name:        "signal",
		Description: "Post a new trade signal",
		Options: append([]*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "asset", Description: "Asset, e.g. BTCUSDT", Required: true},
			{
				Type: discordgo.ApplicationCommandOptionString, Name: "direction", Description: "Trade side", Required: true,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "LONG", Value: string(entity.DirectionLong)},
					{Name: "SHORT", Value: string(entity.DirectionShort)},
				},
			},
			{Type: discordgo.ApplicationCommandOptionString, Name: "entry", Description: "Entry price", Required: true},
			{Type: discordgo.ApplicationCommandOptionString, Name: "stop", Description: "Stop price", Required: true},
		}, append(takeProfitOptions(),
			&discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionString, Name: "reason", Description: "Why this trade"},
			&discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionMentionable, Name: "mention", Description: "Extra user or role to notify"},
		)...),
	},
	{
		Name:        "close",
		Description: "Record a partial or full exit",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "id", Description: "Signal id", Required: true},
			{Type: discordgo.ApplicationCommandOptionString, Name: "price", Description: "Exit price", Required: true},
			{Type: discordgo.ApplicationCommandOptionNumber, Name: "size", Description: "Size in percent, default 100"},
		},
	},
	{
		Name:        "result",
		Description: "Override the displayed result",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "id", Description: "Signal id", Required: true},
			{Type: discordgo.ApplicationCommandOptionString, Name: "value", Description: "Result in R", Required: true},
		},
	},
	{Name: "summary", Description: "Refresh the summary message"},
	{Name: "list", Description: "List stored signals"},
}

func takeProfitOptions() []*discordgo.ApplicationCommandOption {
	opts := make([]*discordgo.ApplicationCommandOption, 0, entity.MaxTakeProfits)
	for i := 1; i <= entity.MaxTakeProfits; i++ {
		opts = append(opts, &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "tp" + strconv.Itoa(i),
			Description: fmt.Sprintf("Take-profit %d", i),
		})
	}
	return opts
}

// Input is a slash command flattened to string options.
type Input struct {
	Name    string
	Options map[string]string
	Mention *entity.Mention
}

// CreateRequest builds the create request of a /signal command. Take-profits
// are collected in order and gaps are skipped.
func (in Input) CreateRequest() *dto.CreateSignalRequest {
	req := &dto.CreateSignalRequest{
		Asset:        in.Options["asset"],
		Direction:    entity.Direction(in.Options["direction"]),
		Entry:        in.Options["entry"],
		Stop:         in.Options["stop"],
		Reason:       in.Options["reason"],
		ExtraMention: in.Mention,
	}
	for i := 1; i <= entity.MaxTakeProfits; i++ {
		if tp := in.Options["tp"+strconv.Itoa(i)]; tp != "" {
			req.TakeProfits = append(req.TakeProfits, tp)
		}
	}
	return req
}

// inputFrom flattens the interaction's options. The mentionable option is
// resolved to a role when the id names a role, else to a user.
func inputFrom(data discordgo.ApplicationCommandInteractionData) Input {
	in := Input{Name: data.Name, Options: map[string]string{}}
	for _, opt := range data.Options {
		switch opt.Type {
		case discordgo.ApplicationCommandOptionNumber:
			in.Options[opt.Name] = strconv.FormatFloat(opt.FloatValue(), 'f', -1, 64)
		case discordgo.ApplicationCommandOptionMentionable:
			id := fmt.Sprint(opt.Value)
			kind := entity.MentionUser
			if data.Resolved != nil {
				if _, ok := data.Resolved.Roles[id]; ok {
					kind = entity.MentionRole
				}
			}
			in.Mention = &entity.Mention{ID: id, Kind: kind}
		default:
			in.Options[opt.Name] = fmt.Sprint(opt.Value)
		}
	}
	return in
}
