package telegram

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-signal-bot/internal/entity"
	"trade-signal-bot/internal/signalbot/dto"
)

func TestFormatPost(t *testing.T) {
	text := FormatPost(dto.Post{
		Text: "🟢 LONG <BTC> & co",
		Mentions: []entity.Mention{
			{ID: "role-1", Kind: entity.MentionRole},
			{ID: "12345", Kind: entity.MentionUser},
			{ID: "not-a-number", Kind: entity.MentionUser},
			{ID: "@alice", Kind: entity.MentionUsername},
		},
	})

	assert.Equal(t, `<a href="tg://user?id=12345">🔔</a> @alice`+"\n\n"+"🟢 LONG &lt;BTC&gt; &amp; co", text)
}

func TestFormatPost_NoMentions(t *testing.T) {
	assert.Equal(t, "plain", FormatPost(dto.Post{Text: "plain"}))
}

func TestFormatPost_Truncates(t *testing.T) {
	text := FormatPost(dto.Post{Text: strings.Repeat("é", maxMessageLen)})
	assert.LessOrEqual(t, len(text), maxMessageLen+len("…"))
	assert.True(t, utf8.ValidString(text))
	assert.True(t, strings.HasSuffix(text, "…"))
}

func TestKeyboard(t *testing.T) {
	assert.Nil(t, Keyboard(nil))

	markup := Keyboard([]dto.Control{
		{Label: "TP1", Token: "tp1:x"},
		{Label: "TP2", Token: "tp2:x"},
		{Label: "BE", Token: "be:x"},
		{Label: "Delete", Token: "del:x", Danger: true},
	})
	require.NotNil(t, markup)
	require.Len(t, markup.InlineKeyboard, 2)
	assert.Len(t, markup.InlineKeyboard[0], 3)
	assert.Equal(t, "Delete", markup.InlineKeyboard[1][0].Text)
	require.NotNil(t, markup.InlineKeyboard[1][0].CallbackData)
	assert.Equal(t, "del:x", *markup.InlineKeyboard[1][0].CallbackData)
}

func TestJumpURL(t *testing.T) {
	assert.Equal(t, "https://t.me/signals/42", JumpURL(-1001234, "@signals", 42))
	assert.Equal(t, "https://t.me/c/1234/42", JumpURL(-1001234, "", 42))
}
