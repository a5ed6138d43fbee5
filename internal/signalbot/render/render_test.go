package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-signal-bot/internal/entity"
	"trade-signal-bot/pkg/utils"
)

func signal(id string, status entity.Status) entity.Signal {
	return entity.Signal{
		ID:              id,
		Asset:           "BTC",
		Direction:       entity.DirectionLong,
		Entry:           "100",
		Stop:            "90",
		TakeProfits:     []string{"110", "120"},
		Status:          status,
		ValidForReentry: status.Active(),
	}
}

func TestStatusText_Active(t *testing.T) {
	s := signal("a", entity.StatusRunValid)
	s.TakeProfitsHit = []int{2, 1}
	s.StopAtBreakeven = true

	text := StatusText(s)
	assert.Equal(t, "🟢 Active\n🎯 Hit: TP2, TP1\n✅ Valid for re-entry\n🛡 Stop moved to breakeven", text)

	s.Closes = []entity.Close{{Price: "110", SizePercent: 50}}
	assert.Contains(t, StatusText(s), "📊 Result: +0.50R")
}

func TestStatusText_Terminal(t *testing.T) {
	stoppedBE := signal("a", entity.StatusStoppedBE)
	stoppedBE.TakeProfitsHit = []int{2, 1}
	assert.Equal(t, "⚫ Inactive\n⚖️ Stopped at breakeven after TP2\n🚫 Not valid for re-entry\n📊 Result: 0.00R", StatusText(stoppedBE))

	out := signal("b", entity.StatusStoppedOut)
	out.Closes = []entity.Close{{Price: "90", SizePercent: 100}}
	assert.Contains(t, StatusText(out), "❌ Stopped out")
	assert.Contains(t, StatusText(out), "📊 Result: -1.00R")

	closed := signal("c", entity.StatusClosed)
	closed.Closes = []entity.Close{{Price: "110", SizePercent: 100}}
	closed.ResultOverride = utils.ToPointer("3")
	assert.Contains(t, StatusText(closed), "🏁 Closed")
	assert.Contains(t, StatusText(closed), "📊 Result: +3.00R", "override wins for display")

	noRisk := signal("d", entity.StatusClosed)
	noRisk.Stop = "100"
	assert.True(t, strings.HasSuffix(StatusText(noRisk), "📊 Result: "+NoResultText))
}

func TestSignalMessage(t *testing.T) {
	s := signal("a", entity.StatusRunValid)
	s.TakeProfitsHit = []int{1}
	s.Reason = "Breakout\nretest"

	text := SignalMessage(s)
	assert.True(t, strings.HasPrefix(text, "🟢 LONG BTC\n"))
	assert.Contains(t, text, "🎯 TP1: 110 ✅\n")
	assert.Contains(t, text, "🎯 TP2: 120\n")
	assert.Contains(t, text, "Breakout\nretest")
	assert.True(t, strings.HasSuffix(text, StatusText(s)))
}

func TestSummary(t *testing.T) {
	assert.Equal(t, EmptySummaryText, Summary(nil))

	valid := signal("a", entity.StatusRunValid)
	valid.Message = &entity.MessageRef{MessageID: "1", JumpURL: "https://t.me/c/1/1"}
	other := signal("d", entity.StatusRunValid)
	other.Asset = "ETH"
	other.Direction = entity.DirectionShort

	text := Summary([]entity.Signal{
		valid,
		signal("b", entity.StatusStoppedOut),
		signal("c", entity.StatusRunBE),
		other,
	})

	lines := strings.Split(text, "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "1. BTC 🟢 LONG · https://t.me/c/1/1", lines[2])
	assert.Equal(t, "    Entry: 100 | Stop: 90", lines[3])
	assert.Equal(t, "2. ETH 🔴 SHORT", lines[4])

	assert.Equal(t, EmptySummaryText, Summary([]entity.Signal{signal("b", entity.StatusClosed), signal("c", entity.StatusRunBE)}))
}

func TestControls(t *testing.T) {
	s := signal("x", entity.StatusRunValid)
	s.TakeProfitsHit = []int{1}

	assert.Equal(t, []string{"tp2:x", "be:x", "sbe:x", "sl:x", "close:x", "del:x"}, tokensOf(s))

	s.StopAtBreakeven = true
	assert.NotContains(t, tokensOf(s), "be:x")

	closed := signal("x", entity.StatusClosed)
	assert.Equal(t, []string{"del:x"}, tokensOf(closed))
}

func tokensOf(s entity.Signal) []string {
	var tokens []string
	for _, c := range Controls(s) {
		tokens = append(tokens, c.Token)
	}
	return tokens
}
