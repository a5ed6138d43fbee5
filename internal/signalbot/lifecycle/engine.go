package lifecycle

import (
	"trade-signal-bot/internal/entity"
)

// Apply returns the state of s after action a. s itself is never modified.
//
// Terminal actions only move an active signal; once a signal is stopped or
// closed its status and re-entry flag stay put. Delete is not a state
// transition and must be handled by the repository.
func Apply(s entity.Signal, a Action) (entity.Signal, error) {
	next := s.Clone()

	switch act := a.(type) {
	case MarkTakeProfit:
		if act.N < 1 || act.N > entity.MaxTakeProfits {
			return s, entity.InvalidInput("take-profit %d out of range", act.N)
		}
		if !next.HasHitTakeProfit(act.N) {
			next.TakeProfitsHit = append(next.TakeProfitsHit, act.N)
		}
	case SetBreakeven:
		next.StopAtBreakeven = true
	case StopAtBreakeven:
		terminate(&next, entity.StatusStoppedBE)
	case StoppedOut:
		terminate(&next, entity.StatusStoppedOut)
	case Closed:
		terminate(&next, entity.StatusClosed)
	case RecordClose:
		if _, ok := ParseNumber(act.Price); !ok {
			return s, entity.InvalidInput("close price %q is not a number", act.Price)
		}
		if act.SizePercent <= 0 || act.SizePercent > 100 {
			return s, entity.InvalidInput("close size %.2f%% must be within (0, 100]", act.SizePercent)
		}
		next.Closes = append(next.Closes, entity.Close{Price: act.Price, SizePercent: act.SizePercent})
	case OverrideResult:
		if _, ok := ParseNumber(act.Value); !ok {
			return s, entity.InvalidInput("result %q is not a number", act.Value)
		}
		v := act.Value
		next.ResultOverride = &v
	case Delete:
		return s, entity.InvalidInput("delete is not a state transition")
	default:
		return s, entity.InvalidInput("unsupported action %T", a)
	}

	return next, nil
}

func terminate(s *entity.Signal, status entity.Status) {
	if s.Status.Terminal() {
		return
	}
	s.Status = status
	s.ValidForReentry = false
}

// PatchFor builds the repository patch carrying every field the engine may change,
// guarded by the version the transition was computed from.
func PatchFor(next entity.Signal, fromVersion int64) entity.SignalPatch {
	hits := append([]int(nil), next.TakeProfitsHit...)
	closes := append([]entity.Close(nil), next.Closes...)
	patch := entity.SignalPatch{
		Status:          &next.Status,
		ValidForReentry: &next.ValidForReentry,
		StopAtBreakeven: &next.StopAtBreakeven,
		TakeProfitsHit:  &hits,
		Closes:          &closes,
		ExpectedVersion: &fromVersion,
	}
	if next.ResultOverride != nil {
		v := *next.ResultOverride
		patch.ResultOverride = &v
	}
	return patch
}
