package telegram

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"trade-signal-bot/internal/entity"
	"trade-signal-bot/internal/signalbot/dto"
)

// maxMessageLen is Telegram's limit for a text message.
const maxMessageLen = 4096

const buttonsPerRow = 3

// FormatPost renders a post as Telegram HTML. Mentions go on the first line;
// role mentions have no Telegram equivalent and are skipped.
func FormatPost(post dto.Post) string {
	var sb strings.Builder

	var mentions []string
	for _, m := range post.Mentions {
		switch m.Kind {
		case entity.MentionUser:
			if _, err := strconv.ParseInt(m.ID, 10, 64); err == nil {
				mentions = append(mentions, fmt.Sprintf(`<a href="tg://user?id=%s">🔔</a>`, m.ID))
			}
		case entity.MentionUsername:
			mentions = append(mentions, html.EscapeString("@"+strings.TrimPrefix(m.ID, "@")))
		}
	}
	if len(mentions) > 0 {
		sb.WriteString(strings.Join(mentions, " "))
		sb.WriteString("\n\n")
	}

	sb.WriteString(html.EscapeString(post.Text))

	text := sb.String()
	if len(text) > maxMessageLen {
		text = truncate(text, maxMessageLen-1) + "…"
	}
	return text
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func utf8RuneStart(b byte) bool { return b&0xC0 != 0x80 }

// Keyboard lays the controls out as an inline keyboard. It returns nil when
// there are no controls.
func Keyboard(controls []dto.Control) *tgbotapi.InlineKeyboardMarkup {
	if len(controls) == 0 {
		return nil
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, c := range controls {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(c.Label, c.Token))
		if len(row) == buttonsPerRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}

// JumpURL builds the public link of a channel message. Public channels use
// their username, private ones the internal id without the -100 prefix.
func JumpURL(channelID int64, username string, messageID int) string {
	if username = strings.TrimPrefix(username, "@"); username != "" {
		return fmt.Sprintf("https://t.me/%s/%d", username, messageID)
	}
	internal := strings.TrimPrefix(strconv.FormatInt(channelID, 10), "-100")
	return fmt.Sprintf("https://t.me/c/%s/%d", internal, messageID)
}
