package telegram

import (
	"strconv"
	"strings"

	"trade-signal-bot/internal/entity"
	"trade-signal-bot/internal/signalbot/dto"
	"trade-signal-bot/internal/signalbot/lifecycle"
)

const mentionPrefix = "mention:"

// SignalUsage is shown when /signal cannot be parsed.
const SignalUsage = "Usage: /signal <asset> <long|short> <entry> <stop> [tp1..tp5] [mention:<id|@name>]\nFollowing lines become the reason."

// commandArgs splits "/cmd@bot a b\nrest" into the command name, the
// whitespace separated arguments of the first line and the remaining lines.
func commandArgs(text string) (string, []string, string) {
	first, rest, _ := strings.Cut(strings.TrimSpace(text), "\n")
	fields := strings.Fields(first)
	if len(fields) == 0 {
		return "", nil, ""
	}
	cmd := strings.TrimPrefix(fields[0], "/")
	if at := strings.IndexByte(cmd, '@'); at >= 0 {
		cmd = cmd[:at]
	}
	return strings.ToLower(cmd), fields[1:], strings.TrimSpace(rest)
}

// ParseSignalCommand parses the /signal command into a create request.
func ParseSignalCommand(text string) (*dto.CreateSignalRequest, error) {
	_, args, reason := commandArgs(text)
	if len(args) < 4 {
		return nil, entity.InvalidInput("%s", SignalUsage)
	}

	req := &dto.CreateSignalRequest{
		Asset:     args[0],
		Direction: entity.Direction(strings.ToUpper(args[1])),
		Entry:     args[2],
		Stop:      args[3],
		Reason:    reason,
	}
	if !req.Direction.Valid() {
		return nil, entity.InvalidInput("direction must be long or short, got %q", args[1])
	}

	for _, arg := range args[4:] {
		if strings.HasPrefix(strings.ToLower(arg), mentionPrefix) {
			if req.ExtraMention != nil {
				return nil, entity.InvalidInput("only one extra mention is allowed")
			}
			m, err := parseMention(arg[len(mentionPrefix):])
			if err != nil {
				return nil, err
			}
			req.ExtraMention = m
			continue
		}
		if len(req.TakeProfits) == entity.MaxTakeProfits {
			return nil, entity.InvalidInput("at most %d take-profits are allowed", entity.MaxTakeProfits)
		}
		req.TakeProfits = append(req.TakeProfits, arg)
	}
	return req, nil
}

func parseMention(raw string) (*entity.Mention, error) {
	switch {
	case strings.HasPrefix(raw, "@") && len(raw) > 1:
		return &entity.Mention{ID: raw[1:], Kind: entity.MentionUsername}, nil
	case raw != "":
		if _, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return &entity.Mention{ID: raw, Kind: entity.MentionUser}, nil
		}
	}
	return nil, entity.InvalidInput("mention must be a numeric user id or @username, got %q", raw)
}

// ParseCloseCommand parses "/close <id> <price> [size%]". The size defaults to 100.
func ParseCloseCommand(text string) (string, lifecycle.RecordClose, error) {
	_, args, _ := commandArgs(text)
	if len(args) < 2 || len(args) > 3 {
		return "", lifecycle.RecordClose{}, entity.InvalidInput("Usage: /close <id> <price> [size%%]")
	}

	action := lifecycle.RecordClose{Price: args[1], SizePercent: 100}
	if len(args) == 3 {
		size, ok := lifecycle.ParseNumber(strings.TrimSuffix(args[2], "%"))
		if !ok {
			return "", lifecycle.RecordClose{}, entity.InvalidInput("size %q is not a number", args[2])
		}
		action.SizePercent = size.InexactFloat64()
	}
	return args[0], action, nil
}

// ParseResultCommand parses "/result <id> <value>".
func ParseResultCommand(text string) (string, lifecycle.OverrideResult, error) {
	_, args, _ := commandArgs(text)
	if len(args) != 2 {
		return "", lifecycle.OverrideResult{}, entity.InvalidInput("Usage: /result <id> <value>")
	}
	return args[0], lifecycle.OverrideResult{Value: strings.TrimSuffix(strings.TrimSuffix(args[1], "R"), "r")}, nil
}
