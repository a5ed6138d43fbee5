package render

import (
	"fmt"
	"strings"

	"trade-signal-bot/internal/entity"
	"trade-signal-bot/internal/signalbot/dto"
	"trade-signal-bot/internal/signalbot/lifecycle"
)

const (
	EmptySummaryText = "📭 No active signals right now."
	NoResultText     = "—"
)

// DirectionMarker returns the emoji used next to a direction.
func DirectionMarker(d entity.Direction) string {
	if d == entity.DirectionShort {
		return "🔴"
	}
	return "🟢"
}

// StatusText renders the status block of a signal message.
func StatusText(s entity.Signal) string {
	var sb strings.Builder

	if s.Status.Active() {
		sb.WriteString("🟢 Active\n")
		if len(s.TakeProfitsHit) > 0 {
			sb.WriteString(fmt.Sprintf("🎯 Hit: %s\n", joinTakeProfits(s.TakeProfitsHit)))
		}
		if s.ValidForReentry {
			sb.WriteString("✅ Valid for re-entry\n")
		} else {
			sb.WriteString("🚫 Not valid for re-entry\n")
		}
		if s.StopAtBreakeven {
			sb.WriteString("🛡 Stop moved to breakeven\n")
		}
		if len(s.Closes) > 0 || s.ResultOverride != nil {
			if r, ok := lifecycle.DisplayResult(s); ok {
				sb.WriteString(fmt.Sprintf("📊 Result: %sR\n", signed(r)))
			}
		}
		return strings.TrimRight(sb.String(), "\n")
	}

	sb.WriteString("⚫ Inactive\n")
	switch s.Status {
	case entity.StatusStoppedBE:
		note := "⚖️ Stopped at breakeven"
		if last, ok := highestHit(s.TakeProfitsHit); ok {
			note += fmt.Sprintf(" after TP%d", last)
		}
		sb.WriteString(note + "\n")
	case entity.StatusStoppedOut:
		sb.WriteString("❌ Stopped out\n")
	case entity.StatusClosed:
		sb.WriteString("🏁 Closed\n")
	}
	sb.WriteString("🚫 Not valid for re-entry\n")
	if r, ok := lifecycle.DisplayResult(s); ok {
		sb.WriteString(fmt.Sprintf("📊 Result: %sR", signed(r)))
	} else {
		sb.WriteString("📊 Result: " + NoResultText)
	}
	return sb.String()
}

// SignalMessage renders the full detail message posted for a signal.
func SignalMessage(s entity.Signal) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s %s %s\n\n", DirectionMarker(s.Direction), s.Direction, s.Asset))
	sb.WriteString(fmt.Sprintf("💵 Entry: %s\n", s.Entry))
	sb.WriteString(fmt.Sprintf("🛑 Stop: %s\n", s.Stop))
	for i, tp := range s.TakeProfits {
		mark := ""
		if s.HasHitTakeProfit(i + 1) {
			mark = " ✅"
		}
		sb.WriteString(fmt.Sprintf("🎯 TP%d: %s%s\n", i+1, tp, mark))
	}
	if reason := strings.TrimSpace(s.Reason); reason != "" {
		sb.WriteString(fmt.Sprintf("\n🧠 Reason:\n%s\n", reason))
	}
	sb.WriteString("\n")
	sb.WriteString(StatusText(s))
	return sb.String()
}

// Summary renders the list of open, fully valid signals in store order.
func Summary(signals []entity.Signal) string {
	var open []entity.Signal
	for _, s := range signals {
		if s.Status == entity.StatusRunValid {
			open = append(open, s)
		}
	}
	if len(open) == 0 {
		return EmptySummaryText
	}

	var sb strings.Builder
	sb.WriteString("📋 Active signals\n\n")
	for i, s := range open {
		sb.WriteString(fmt.Sprintf("%d. %s %s %s", i+1, s.Asset, DirectionMarker(s.Direction), s.Direction))
		if s.Message != nil && s.Message.JumpURL != "" {
			sb.WriteString(" · " + s.Message.JumpURL)
		}
		sb.WriteString(fmt.Sprintf("\n    Entry: %s | Stop: %s\n", s.Entry, s.Stop))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// List renders every signal with its status, for the operator's /list command.
func List(signals []entity.Signal) string {
	if len(signals) == 0 {
		return "📭 No signals stored."
	}
	var sb strings.Builder
	for i, s := range signals {
		sb.WriteString(fmt.Sprintf("%d. %s %s %s — %s\n   id: %s\n", i+1, DirectionMarker(s.Direction), s.Direction, s.Asset, s.Status, s.ID))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Controls returns the buttons attached to a signal message.
func Controls(s entity.Signal) []dto.Control {
	del := lifecycle.Delete{}
	if s.Status.Terminal() {
		return []dto.Control{{Label: "🗑 Delete", Token: lifecycle.Token(del, s.ID), Danger: true}}
	}

	var controls []dto.Control
	for i := range s.TakeProfits {
		n := i + 1
		if n > entity.MaxTakeProfits || s.HasHitTakeProfit(n) {
			continue
		}
		controls = append(controls, dto.Control{
			Label: fmt.Sprintf("🎯 TP%d", n),
			Token: lifecycle.Token(lifecycle.MarkTakeProfit{N: n}, s.ID),
		})
	}
	if !s.StopAtBreakeven {
		controls = append(controls, dto.Control{Label: "🛡 BE", Token: lifecycle.Token(lifecycle.SetBreakeven{}, s.ID)})
	}
	controls = append(controls,
		dto.Control{Label: "⚖️ Stop BE", Token: lifecycle.Token(lifecycle.StopAtBreakeven{}, s.ID)},
		dto.Control{Label: "❌ Stopped", Token: lifecycle.Token(lifecycle.StoppedOut{}, s.ID), Danger: true},
		dto.Control{Label: "🏁 Closed", Token: lifecycle.Token(lifecycle.Closed{}, s.ID)},
		dto.Control{Label: "🗑 Delete", Token: lifecycle.Token(del, s.ID), Danger: true},
	)
	return controls
}

func joinTakeProfits(hits []int) string {
	parts := make([]string, 0, len(hits))
	for _, n := range hits {
		parts = append(parts, fmt.Sprintf("TP%d", n))
	}
	return strings.Join(parts, ", ")
}

func highestHit(hits []int) (int, bool) {
	best := 0
	for _, n := range hits {
		if n > best {
			best = n
		}
	}
	return best, best > 0
}

func signed(v string) string {
	if v == "" || strings.HasPrefix(v, "-") || strings.HasPrefix(v, "+") {
		return v
	}
	if strings.Trim(v, "0.") == "" {
		return v
	}
	return "+" + v
}
