package lifecycle

import (
	"fmt"
	"strconv"
	"strings"

	"trade-signal-bot/internal/entity"
)

// Action is an operator action on a signal. The set of implementations is closed.
type Action interface {
	isAction()
	// Name is the short code used in control tokens and logs.
	Name() string
}

// MarkTakeProfit records that take-profit N (1..5) was hit.
type MarkTakeProfit struct{ N int }

// SetBreakeven moves the stop to the entry price.
type SetBreakeven struct{}

// StopAtBreakeven ends the trade at the entry price.
type StopAtBreakeven struct{}

// StoppedOut ends the trade at the stop.
type StoppedOut struct{}

// Closed ends the trade manually.
type Closed struct{}

// Delete removes the signal from the store.
type Delete struct{}

// RecordClose appends a partial or full exit.
type RecordClose struct {
	Price       string
	SizePercent float64
}

// OverrideResult sets the displayed result manually.
type OverrideResult struct{ Value string }

func (MarkTakeProfit) isAction()  {}
func (SetBreakeven) isAction()    {}
func (StopAtBreakeven) isAction() {}
func (StoppedOut) isAction()      {}
func (Closed) isAction()          {}
func (Delete) isAction()          {}
func (RecordClose) isAction()     {}
func (OverrideResult) isAction()  {}

func (a MarkTakeProfit) Name() string { return fmt.Sprintf("tp%d", a.N) }
func (SetBreakeven) Name() string     { return "be" }
func (StopAtBreakeven) Name() string  { return "sbe" }
func (StoppedOut) Name() string       { return "sl" }
func (Closed) Name() string           { return "close" }
func (Delete) Name() string           { return "del" }
func (RecordClose) Name() string      { return "record_close" }
func (OverrideResult) Name() string   { return "result" }

const tokenSeparator = ":"

// Token builds the composite control token "<action>:<signal id>".
func Token(a Action, signalID string) string {
	return a.Name() + tokenSeparator + signalID
}

// ParseToken turns a control token back into an action and the signal id.
// Only button actions (take-profits, breakeven, stops, close, delete) are accepted.
func ParseToken(token string) (Action, string, error) {
	name, id, ok := strings.Cut(token, tokenSeparator)
	if !ok || id == "" {
		return nil, "", entity.InvalidInput("malformed control %q", token)
	}

	switch name {
	case "be":
		return SetBreakeven{}, id, nil
	case "sbe":
		return StopAtBreakeven{}, id, nil
	case "sl":
		return StoppedOut{}, id, nil
	case "close":
		return Closed{}, id, nil
	case "del":
		return Delete{}, id, nil
	}

	if n, found := strings.CutPrefix(name, "tp"); found {
		idx, err := strconv.Atoi(n)
		if err == nil && idx >= 1 && idx <= entity.MaxTakeProfits {
			return MarkTakeProfit{N: idx}, id, nil
		}
	}

	return nil, "", entity.InvalidInput("unknown action %q", name)
}
