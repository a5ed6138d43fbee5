package service

import (
	"trade-signal-bot/internal/entity"
	"trade-signal-bot/internal/signalbot/dto"
	"trade-signal-bot/internal/signalbot/lifecycle"
	"trade-signal-bot/internal/signalbot/render"
	"trade-signal-bot/pkg/utils"
)

// NewSignalView maps a signal to the read model served by the HTTP API.
func NewSignalView(s entity.Signal) dto.SignalView {
	view := dto.SignalView{
		Signal:     s,
		StatusText: render.StatusText(s),
	}
	if r, ok := lifecycle.ComputeResult(s); ok {
		view.ComputedResult = utils.ToPointer(r.StringFixed(2))
	}
	if r, ok := lifecycle.DisplayResult(s); ok {
		view.DisplayResult = utils.ToPointer(r)
	}
	return view
}

// NewSignalViews maps signals in order.
func NewSignalViews(signals []entity.Signal) []dto.SignalView {
	views := make([]dto.SignalView, 0, len(signals))
	for _, s := range signals {
		views = append(views, NewSignalView(s))
	}
	return views
}
