package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"trade-signal-bot/internal/entity"
	"trade-signal-bot/internal/signalbot/config"
	"trade-signal-bot/internal/signalbot/dto"
	"trade-signal-bot/internal/signalbot/lifecycle"
	"trade-signal-bot/internal/signalbot/render"
	"trade-signal-bot/internal/signalbot/repository"
	"trade-signal-bot/internal/signalbot/service/servicetest"
	"trade-signal-bot/pkg/logger"
)

const owner = "1001"

// failingRepository fails every write with a storage error.
type failingRepository struct {
	repository.SignalRepository
}

func (failingRepository) Create(ctx context.Context, s *entity.Signal) error {
	return entity.NewIOError("write", errors.New("disk full"))
}

func newTestService(t *testing.T, summary bool) (*signalService, repository.SignalRepository, *servicetest.Publisher) {
	t.Helper()
	repo := repository.NewFileSignalRepository(filepath.Join(t.TempDir(), "signals.json"))
	pub := &servicetest.Publisher{}
	svc := NewSignalService(repo, pub, config.Bot{OwnerID: owner, MentionRoleID: "role-1", SummaryEnabled: summary}, logger.NewNop()).(*signalService)

	ids := []string{"sig-1", "sig-2", "sig-3"}
	svc.newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}
	return svc, repo, pub
}

func createRequest() *dto.CreateSignalRequest {
	return &dto.CreateSignalRequest{
		Asset:       "btcusdt",
		Direction:   "long",
		Entry:       "100",
		Stop:        "90",
		TakeProfits: []string{"110", "120"},
		Reason:      "breakout",
	}
}

func isSignalPost(p dto.Post) bool { return len(p.Controls) > 0 }

func TestSignalService_CreatePostsAndStoresReference(t *testing.T) {
	ctx := context.Background()
	svc, repo, pub := newTestService(t, false)

	pub.On("Send", mock.Anything, mock.MatchedBy(func(p dto.Post) bool {
		return strings.Contains(p.Text, "BTCUSDT") &&
			len(p.Mentions) == 1 && p.Mentions[0].Kind == entity.MentionRole
	})).Return(entity.MessageRef{MessageID: "m1", JumpURL: "https://t.me/c/1/1"}, nil).Once()

	sig, err := svc.Create(ctx, owner, createRequest())
	require.NoError(t, err)
	assert.Equal(t, "sig-1", sig.ID)
	assert.Equal(t, entity.DirectionLong, sig.Direction)
	assert.Equal(t, entity.StatusRunValid, sig.Status)
	assert.True(t, sig.ValidForReentry)

	stored, err := repo.GetByID(ctx, "sig-1")
	require.NoError(t, err)
	require.NotNil(t, stored.Message)
	assert.Equal(t, "m1", stored.Message.MessageID)
	pub.AssertExpectations(t)
}

func TestSignalService_CreateRejectsStranger(t *testing.T) {
	svc, repo, pub := newTestService(t, false)

	_, err := svc.Create(context.Background(), "2002", createRequest())
	assert.ErrorIs(t, err, entity.ErrUnauthorized)
	assert.Equal(t, "⛔ Not authorized.", entity.UserMessage(err))

	all, err := repo.GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
	pub.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestSignalService_CreateValidatesInput(t *testing.T) {
	svc, _, _ := newTestService(t, false)

	req := createRequest()
	req.Entry = "abc"
	_, err := svc.Create(context.Background(), owner, req)
	assert.ErrorIs(t, err, entity.ErrInvalidInput)

	req = createRequest()
	req.Direction = "sideways"
	_, err = svc.Create(context.Background(), owner, req)
	assert.ErrorIs(t, err, entity.ErrInvalidInput)

	req = createRequest()
	req.TakeProfits = []string{"1", "2", "3", "4", "5", "6"}
	_, err = svc.Create(context.Background(), owner, req)
	assert.ErrorIs(t, err, entity.ErrInvalidInput)
}

func TestSignalService_CreateSendFailureKeepsRecord(t *testing.T) {
	ctx := context.Background()
	svc, repo, pub := newTestService(t, false)
	pub.On("Send", mock.Anything, mock.Anything).Return(entity.MessageRef{}, errors.New("chat down")).Once()

	sig, err := svc.Create(ctx, owner, createRequest())
	var postErr *entity.ExternalPostError
	require.ErrorAs(t, err, &postErr)
	require.NotNil(t, sig)

	stored, err := repo.GetByID(ctx, sig.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Message)
}

func TestSignalService_CreateStorageFailureAborts(t *testing.T) {
	pub := &servicetest.Publisher{}
	svc := NewSignalService(failingRepository{}, pub, config.Bot{OwnerID: owner}, logger.NewNop())

	_, err := svc.Create(context.Background(), owner, createRequest())
	var ioErr *entity.IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "💾 Storage error, action aborted.", entity.UserMessage(err))
	pub.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestSignalService_HandleTokenEditsMessage(t *testing.T) {
	ctx := context.Background()
	svc, repo, pub := newTestService(t, false)
	pub.On("Send", mock.Anything, mock.Anything).Return(entity.MessageRef{MessageID: "m1"}, nil).Once()
	pub.On("Edit", mock.Anything, "m1", mock.MatchedBy(func(p dto.Post) bool {
		return strings.Contains(p.Text, "Hit: TP1")
	})).Return(nil).Once()

	_, err := svc.Create(ctx, owner, createRequest())
	require.NoError(t, err)

	updated, err := svc.HandleToken(ctx, owner, "tp1:sig-1")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, updated.TakeProfitsHit)

	stored, err := repo.GetByID(ctx, "sig-1")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, stored.TakeProfitsHit)
	pub.AssertExpectations(t)
}

func TestSignalService_HandleActionErrors(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, false)

	_, err := svc.HandleAction(ctx, owner, "missing", lifecycle.Closed{})
	assert.ErrorIs(t, err, entity.ErrNotFound)
	assert.Equal(t, "❓ Signal not found.", entity.UserMessage(err))

	_, err = svc.HandleAction(ctx, "2002", "missing", lifecycle.Closed{})
	assert.ErrorIs(t, err, entity.ErrUnauthorized)

	_, err = svc.HandleToken(ctx, owner, "explode:sig-1")
	assert.ErrorIs(t, err, entity.ErrInvalidInput)
}

func TestSignalService_EditFailureIsReportedAfterPersisting(t *testing.T) {
	ctx := context.Background()
	svc, repo, pub := newTestService(t, false)
	pub.On("Send", mock.Anything, mock.Anything).Return(entity.MessageRef{MessageID: "m1"}, nil).Once()
	pub.On("Edit", mock.Anything, "m1", mock.Anything).Return(errors.New("chat down")).Once()

	_, err := svc.Create(ctx, owner, createRequest())
	require.NoError(t, err)

	updated, err := svc.HandleAction(ctx, owner, "sig-1", lifecycle.StoppedOut{})
	var postErr *entity.ExternalPostError
	require.ErrorAs(t, err, &postErr)
	require.NotNil(t, updated)

	stored, err := repo.GetByID(ctx, "sig-1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusStoppedOut, stored.Status)
	assert.False(t, stored.ValidForReentry)
}

func TestSignalService_DeleteRemovesRecordAndMessage(t *testing.T) {
	ctx := context.Background()
	svc, repo, pub := newTestService(t, false)
	pub.On("Send", mock.Anything, mock.Anything).Return(entity.MessageRef{MessageID: "m1"}, nil).Once()
	pub.On("Delete", mock.Anything, "m1").Return(errors.New("already gone")).Once()

	_, err := svc.Create(ctx, owner, createRequest())
	require.NoError(t, err)

	_, err = svc.HandleToken(ctx, owner, "del:sig-1")
	require.NoError(t, err)

	_, err = repo.GetByID(ctx, "sig-1")
	assert.ErrorIs(t, err, entity.ErrNotFound)
	pub.AssertExpectations(t)
}

func TestSignalService_SummaryEditElseCreate(t *testing.T) {
	ctx := context.Background()
	svc, repo, pub := newTestService(t, true)

	pub.On("Send", mock.Anything, mock.MatchedBy(isSignalPost)).Return(entity.MessageRef{MessageID: "m1"}, nil).Once()
	pub.On("Send", mock.Anything, mock.MatchedBy(func(p dto.Post) bool {
		return !isSignalPost(p) && strings.Contains(p.Text, "BTCUSDT")
	})).Return(entity.MessageRef{MessageID: "s1"}, nil).Once()

	_, err := svc.Create(ctx, owner, createRequest())
	require.NoError(t, err)

	ref, err := repo.GetSummaryRef(ctx)
	require.NoError(t, err)
	assert.Equal(t, "s1", ref)

	// The signal edit succeeds; the summary edit fails and a new summary is posted.
	pub.On("Edit", mock.Anything, "m1", mock.Anything).Return(nil).Once()
	pub.On("Edit", mock.Anything, "s1", mock.Anything).Return(errors.New("deleted by admin")).Once()
	pub.On("Send", mock.Anything, mock.MatchedBy(func(p dto.Post) bool {
		return p.Text == render.EmptySummaryText
	})).Return(entity.MessageRef{MessageID: "s2"}, nil).Once()

	_, err = svc.HandleAction(ctx, owner, "sig-1", lifecycle.Closed{})
	require.NoError(t, err)

	ref, err = repo.GetSummaryRef(ctx)
	require.NoError(t, err)
	assert.Equal(t, "s2", ref)
	pub.AssertExpectations(t)
}

func TestSignalService_CreateSendFailureStillRefreshesSummary(t *testing.T) {
	ctx := context.Background()
	svc, repo, pub := newTestService(t, true)

	pub.On("Send", mock.Anything, mock.MatchedBy(isSignalPost)).Return(entity.MessageRef{}, errors.New("chat down")).Once()
	pub.On("Send", mock.Anything, mock.MatchedBy(func(p dto.Post) bool {
		return !isSignalPost(p) && strings.Contains(p.Text, "BTCUSDT")
	})).Return(entity.MessageRef{MessageID: "s1"}, nil).Once()

	sig, err := svc.Create(ctx, owner, createRequest())
	var postErr *entity.ExternalPostError
	require.ErrorAs(t, err, &postErr)
	require.NotNil(t, sig)

	ref, err := repo.GetSummaryRef(ctx)
	require.NoError(t, err)
	assert.Equal(t, "s1", ref)
	pub.AssertExpectations(t)
}

func TestSignalService_ReconcileEditsPostedSignals(t *testing.T) {
	ctx := context.Background()
	svc, repo, pub := newTestService(t, false)

	require.NoError(t, repo.Create(ctx, &entity.Signal{ID: "posted", Asset: "ETH", Direction: entity.DirectionShort,
		Entry: "10", Stop: "11", Status: entity.StatusRunValid, ValidForReentry: true,
		Message: &entity.MessageRef{MessageID: "m9"}}))
	require.NoError(t, repo.Create(ctx, &entity.Signal{ID: "unposted", Asset: "SOL", Direction: entity.DirectionLong,
		Entry: "1", Stop: "0.5", Status: entity.StatusRunValid, ValidForReentry: true}))

	pub.On("Edit", mock.Anything, "m9", mock.Anything).Return(nil).Once()

	require.NoError(t, svc.Reconcile(ctx))
	pub.AssertExpectations(t)
}

func TestSignalService_ListFiltersByStatus(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService(t, false)

	require.NoError(t, repo.Create(ctx, &entity.Signal{ID: "a", Status: entity.StatusRunValid}))
	require.NoError(t, repo.Create(ctx, &entity.Signal{ID: "b", Status: entity.StatusClosed}))

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	closed, err := svc.List(ctx, entity.StatusClosed)
	require.NoError(t, err)
	require.Len(t, closed, 1)
	assert.Equal(t, "b", closed[0].ID)
}

func TestNewSignalView(t *testing.T) {
	view := NewSignalView(entity.Signal{
		ID: "a", Direction: entity.DirectionLong, Entry: "100", Stop: "90",
		Status: entity.StatusClosed, Closes: []entity.Close{{Price: "110", SizePercent: 100}},
	})
	require.NotNil(t, view.ComputedResult)
	assert.Equal(t, "1.00", *view.ComputedResult)
	assert.Equal(t, "1.00", *view.DisplayResult)
	assert.Contains(t, view.StatusText, "Closed")
}
