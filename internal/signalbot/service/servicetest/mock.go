// Package servicetest provides testify mocks of the signal service and its publisher.
package servicetest

import (
	"context"

	"github.com/stretchr/testify/mock"

	"trade-signal-bot/internal/entity"
	"trade-signal-bot/internal/signalbot/dto"
	"trade-signal-bot/internal/signalbot/lifecycle"
)

// Publisher is a mock of service.Publisher.
type Publisher struct {
	mock.Mock
}

func (m *Publisher) Send(ctx context.Context, post dto.Post) (entity.MessageRef, error) {
	args := m.Called(ctx, post)
	return args.Get(0).(entity.MessageRef), args.Error(1)
}

func (m *Publisher) Edit(ctx context.Context, messageID string, post dto.Post) error {
	return m.Called(ctx, messageID, post).Error(0)
}

func (m *Publisher) Delete(ctx context.Context, messageID string) error {
	return m.Called(ctx, messageID).Error(0)
}

// SignalService is a mock of service.SignalService.
type SignalService struct {
	mock.Mock
}

func signalOrNil(args mock.Arguments, i int) *entity.Signal {
	if s, ok := args.Get(i).(*entity.Signal); ok {
		return s
	}
	return nil
}

func (m *SignalService) Authorize(userID string) error {
	return m.Called(userID).Error(0)
}

func (m *SignalService) Create(ctx context.Context, userID string, req *dto.CreateSignalRequest) (*entity.Signal, error) {
	args := m.Called(ctx, userID, req)
	return signalOrNil(args, 0), args.Error(1)
}

func (m *SignalService) HandleAction(ctx context.Context, userID, signalID string, action lifecycle.Action) (*entity.Signal, error) {
	args := m.Called(ctx, userID, signalID, action)
	return signalOrNil(args, 0), args.Error(1)
}

func (m *SignalService) HandleToken(ctx context.Context, userID, token string) (*entity.Signal, error) {
	args := m.Called(ctx, userID, token)
	return signalOrNil(args, 0), args.Error(1)
}

func (m *SignalService) Delete(ctx context.Context, userID, signalID string) error {
	return m.Called(ctx, userID, signalID).Error(0)
}

func (m *SignalService) PublishSummary(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *SignalService) RefreshSummary(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *SignalService) Reconcile(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *SignalService) List(ctx context.Context, status entity.Status) ([]entity.Signal, error) {
	args := m.Called(ctx, status)
	signals, _ := args.Get(0).([]entity.Signal)
	return signals, args.Error(1)
}

func (m *SignalService) Get(ctx context.Context, id string) (*entity.Signal, error) {
	args := m.Called(ctx, id)
	return signalOrNil(args, 0), args.Error(1)
}

func (m *SignalService) SummaryText(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}
