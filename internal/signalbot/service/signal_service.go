package service

import (
	"context"
	"strings"
	"sync"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"trade-signal-bot/internal/entity"
	"trade-signal-bot/internal/signalbot/config"
	"trade-signal-bot/internal/signalbot/dto"
	"trade-signal-bot/internal/signalbot/lifecycle"
	"trade-signal-bot/internal/signalbot/render"
	"trade-signal-bot/internal/signalbot/repository"
	"trade-signal-bot/pkg/logger"
	"trade-signal-bot/pkg/utils"
)

// Publisher posts rendered messages to the signal channel.
type Publisher interface {
	Send(ctx context.Context, post dto.Post) (entity.MessageRef, error)
	Edit(ctx context.Context, messageID string, post dto.Post) error
	Delete(ctx context.Context, messageID string) error
}

// SignalService runs operator actions: authorize, transform, persist, publish.
//
// Mutating methods may return the persisted signal together with an
// *entity.ExternalPostError when the store was updated but the chat message
// was not. Callers report that as a partial failure.
type SignalService interface {
	Authorize(userID string) error
	Create(ctx context.Context, userID string, req *dto.CreateSignalRequest) (*entity.Signal, error)
	HandleAction(ctx context.Context, userID, signalID string, action lifecycle.Action) (*entity.Signal, error)
	HandleToken(ctx context.Context, userID, token string) (*entity.Signal, error)
	Delete(ctx context.Context, userID, signalID string) error
	PublishSummary(ctx context.Context, userID string) error
	RefreshSummary(ctx context.Context) error
	Reconcile(ctx context.Context) error
	List(ctx context.Context, status entity.Status) ([]entity.Signal, error)
	Get(ctx context.Context, id string) (*entity.Signal, error)
	SummaryText(ctx context.Context) (string, error)
}

// NewSignalService creates a new signal service.
func NewSignalService(repo repository.SignalRepository, publisher Publisher, botCfg config.Bot, log *logger.Logger) SignalService {
	return &signalService{
		repo:      repo,
		publisher: publisher,
		cfg:       botCfg,
		logger:    log,
		validate:  validator.New(),
		newID:     uuid.NewString,
	}
}

type signalService struct {
	repo      repository.SignalRepository
	publisher Publisher
	cfg       config.Bot
	logger    *logger.Logger
	validate  *validator.Validate
	newID     func() string

	// mu serializes every mutation so the bot behaves as a single writer.
	mu sync.Mutex
}

// Authorize rejects everybody but the configured owner.
func (s *signalService) Authorize(userID string) error {
	if userID == "" || userID != s.cfg.OwnerID {
		return entity.ErrUnauthorized
	}
	return nil
}

func (s *signalService) validateCreate(req *dto.CreateSignalRequest) error {
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return entity.InvalidInput("%s failed %q", strings.ToLower(f.Field()), f.Tag())
		}
		return entity.InvalidInput("%v", err)
	}
	if _, ok := lifecycle.ParseNumber(req.Entry); !ok {
		return entity.InvalidInput("entry %q is not a number", req.Entry)
	}
	if _, ok := lifecycle.ParseNumber(req.Stop); !ok {
		return entity.InvalidInput("stop %q is not a number", req.Stop)
	}
	for i, tp := range req.TakeProfits {
		if _, ok := lifecycle.ParseNumber(tp); !ok {
			return entity.InvalidInput("tp%d %q is not a number", i+1, tp)
		}
	}
	return nil
}

func (s *signalService) post(sig entity.Signal) dto.Post {
	post := dto.Post{
		Text:     render.SignalMessage(sig),
		Controls: render.Controls(sig),
	}
	if s.cfg.MentionRoleID != "" {
		post.Mentions = append(post.Mentions, entity.Mention{ID: s.cfg.MentionRoleID, Kind: entity.MentionRole})
	}
	if sig.ExtraMention != nil {
		post.Mentions = append(post.Mentions, *sig.ExtraMention)
	}
	return post
}

// Create stores a new signal, posts it and records the message reference.
func (s *signalService) Create(ctx context.Context, userID string, req *dto.CreateSignalRequest) (*entity.Signal, error) {
	if err := s.Authorize(userID); err != nil {
		return nil, err
	}
	req.Asset = strings.ToUpper(strings.TrimSpace(req.Asset))
	req.Direction = entity.Direction(strings.ToUpper(string(req.Direction)))
	if err := s.validateCreate(req); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sig := &entity.Signal{
		ID:              s.newID(),
		Asset:           req.Asset,
		Direction:       req.Direction,
		Entry:           strings.TrimSpace(req.Entry),
		Stop:            strings.TrimSpace(req.Stop),
		TakeProfits:     append([]string{}, req.TakeProfits...),
		Reason:          strings.TrimSpace(req.Reason),
		ExtraMention:    req.ExtraMention,
		Status:          entity.StatusRunValid,
		ValidForReentry: true,
		Version:         1,
		CreatedAt:       utils.TimeNowUTC(),
	}
	ctx = logger.WithFields(ctx, logger.StringField("signal_id", sig.ID))

	if err := s.repo.Create(ctx, sig); err != nil {
		s.logger.ErrorContext(ctx, "Failed to store signal", logger.ErrorField(err))
		return nil, err
	}
	s.logger.InfoContext(ctx, "Signal created", logger.StringField("asset", sig.Asset), logger.StringField("direction", string(sig.Direction)))

	ref, err := s.publisher.Send(ctx, s.post(*sig))
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to post signal", logger.ErrorField(err))
		s.refreshSummaryLocked(ctx)
		return sig, entity.NewExternalPostError("send", err)
	}

	updated, err := s.repo.Patch(ctx, sig.ID, entity.SignalPatch{Message: &ref})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to store message reference", logger.ErrorField(err), logger.StringField("message_id", ref.MessageID))
		return sig, err
	}

	s.refreshSummaryLocked(ctx)
	return updated, nil
}

// HandleToken parses a button token and runs the action it names.
func (s *signalService) HandleToken(ctx context.Context, userID, token string) (*entity.Signal, error) {
	if err := s.Authorize(userID); err != nil {
		return nil, err
	}
	action, id, err := lifecycle.ParseToken(token)
	if err != nil {
		return nil, err
	}
	return s.HandleAction(ctx, userID, id, action)
}

// HandleAction applies action to the signal, persists the result and
// re-renders the posted message and the summary.
func (s *signalService) HandleAction(ctx context.Context, userID, signalID string, action lifecycle.Action) (*entity.Signal, error) {
	if err := s.Authorize(userID); err != nil {
		return nil, err
	}
	if _, ok := action.(lifecycle.Delete); ok {
		return nil, s.Delete(ctx, userID, signalID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx = logger.WithFields(ctx, logger.StringField("signal_id", signalID), logger.StringField("action", action.Name()))

	current, err := s.repo.GetByID(ctx, signalID)
	if err != nil {
		if !errors.Is(err, entity.ErrNotFound) {
			s.logger.ErrorContext(ctx, "Failed to load signal", logger.ErrorField(err))
		}
		return nil, err
	}

	next, err := lifecycle.Apply(*current, action)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.Patch(ctx, signalID, lifecycle.PatchFor(next, current.Version))
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist signal", logger.ErrorField(err))
		return nil, err
	}
	s.logger.InfoContext(ctx, "Signal updated", logger.StringField("status", string(updated.Status)))

	var postErr error
	if updated.Message != nil {
		if err := s.publisher.Edit(ctx, updated.Message.MessageID, s.post(*updated)); err != nil {
			s.logger.ErrorContext(ctx, "Failed to edit signal message", logger.ErrorField(err))
			postErr = entity.NewExternalPostError("edit", err)
		}
	}

	s.refreshSummaryLocked(ctx)
	return updated, postErr
}

// Delete removes the signal and then tries to delete its posted message.
func (s *signalService) Delete(ctx context.Context, userID, signalID string) error {
	if err := s.Authorize(userID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx = logger.WithFields(ctx, logger.StringField("signal_id", signalID))

	current, err := s.repo.GetByID(ctx, signalID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, signalID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete signal", logger.ErrorField(err))
		return err
	}
	s.logger.InfoContext(ctx, "Signal deleted")

	if current.Message != nil {
		if err := s.publisher.Delete(ctx, current.Message.MessageID); err != nil {
			s.logger.WarnContext(ctx, "Failed to delete signal message", logger.ErrorField(err))
		}
	}

	s.refreshSummaryLocked(ctx)
	return nil
}

// PublishSummary refreshes the summary on operator request and reports failures.
func (s *signalService) PublishSummary(ctx context.Context, userID string) error {
	if err := s.Authorize(userID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.publishSummary(ctx)
}

// RefreshSummary refreshes the summary without authorization. Used by reconciliation.
func (s *signalService) RefreshSummary(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.publishSummary(ctx)
}

func (s *signalService) refreshSummaryLocked(ctx context.Context) {
	if !s.cfg.SummaryEnabled {
		return
	}
	if err := s.publishSummary(ctx); err != nil {
		s.logger.WarnContext(ctx, "Failed to refresh summary", logger.ErrorField(err))
	}
}

// publishSummary edits the referenced summary message in place, falling back
// to a new message whose id is stored for next time.
func (s *signalService) publishSummary(ctx context.Context) error {
	signals, err := s.repo.GetAll(ctx)
	if err != nil {
		return err
	}
	post := dto.Post{Text: render.Summary(signals)}

	ref, err := s.repo.GetSummaryRef(ctx)
	if err != nil {
		return err
	}
	if ref != "" {
		err := s.publisher.Edit(ctx, ref, post)
		if err == nil {
			return nil
		}
		s.logger.WarnContext(ctx, "Failed to edit summary, posting a new one", logger.StringField("message_id", ref), logger.ErrorField(err))
	}

	sent, err := s.publisher.Send(ctx, post)
	if err != nil {
		return entity.NewExternalPostError("send summary", err)
	}
	return s.repo.SetSummaryRef(ctx, sent.MessageID)
}

// Reconcile re-renders every posted signal and the summary.
func (s *signalService) Reconcile(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	signals, err := s.repo.GetAll(ctx)
	if err != nil {
		return err
	}

	var failed int
	for _, sig := range signals {
		if sig.Message == nil {
			continue
		}
		if err := s.publisher.Edit(ctx, sig.Message.MessageID, s.post(sig)); err != nil {
			failed++
			s.logger.WarnContext(ctx, "Failed to reconcile signal message", logger.StringField("signal_id", sig.ID), logger.ErrorField(err))
		}
	}

	if s.cfg.SummaryEnabled {
		if err := s.publishSummary(ctx); err != nil {
			return err
		}
	}
	if failed > 0 {
		return entity.NewExternalPostError("reconcile", errors.Errorf("%d of %d messages not updated", failed, len(signals)))
	}
	return nil
}

// List returns all signals, newest first, optionally filtered by status.
func (s *signalService) List(ctx context.Context, status entity.Status) ([]entity.Signal, error) {
	signals, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if status == "" {
		return signals, nil
	}

	filtered := make([]entity.Signal, 0, len(signals))
	for _, sig := range signals {
		if sig.Status == status {
			filtered = append(filtered, sig)
		}
	}
	return filtered, nil
}

func (s *signalService) Get(ctx context.Context, id string) (*entity.Signal, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *signalService) SummaryText(ctx context.Context) (string, error) {
	signals, err := s.repo.GetAll(ctx)
	if err != nil {
		return "", err
	}
	return render.Summary(signals), nil
}
