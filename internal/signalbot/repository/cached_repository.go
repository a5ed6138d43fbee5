package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"trade-signal-bot/internal/entity"
	"trade-signal-bot/pkg/common"
)

type cachedSignalRepository struct {
	next  SignalRepository
	cache *cache.Cache
}

// NewCachedSignalRepository wraps next with an in-process read cache. Reads
// are served from the cache for up to ttl; every write drops the cached
// entries it could affect.
func NewCachedSignalRepository(next SignalRepository, ttl time.Duration) SignalRepository {
	return &cachedSignalRepository{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

func signalKey(id string) string {
	return fmt.Sprintf(common.CacheKeySignal, id)
}

func (r *cachedSignalRepository) invalidate(id string) {
	r.cache.Delete(common.CacheKeyAllSignals)
	if id != "" {
		r.cache.Delete(signalKey(id))
	}
}

func (r *cachedSignalRepository) Create(ctx context.Context, signal *entity.Signal) error {
	defer r.invalidate(signal.ID)
	return r.next.Create(ctx, signal)
}

func (r *cachedSignalRepository) GetAll(ctx context.Context) ([]entity.Signal, error) {
	if cached, ok := r.cache.Get(common.CacheKeyAllSignals); ok {
		return cloneAll(cached.([]entity.Signal)), nil
	}
	signals, err := r.next.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	r.cache.SetDefault(common.CacheKeyAllSignals, cloneAll(signals))
	return signals, nil
}

func (r *cachedSignalRepository) GetByID(ctx context.Context, id string) (*entity.Signal, error) {
	if cached, ok := r.cache.Get(signalKey(id)); ok {
		s := cached.(entity.Signal).Clone()
		return &s, nil
	}
	s, err := r.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.cache.SetDefault(signalKey(id), s.Clone())
	return s, nil
}

func (r *cachedSignalRepository) Patch(ctx context.Context, id string, patch entity.SignalPatch) (*entity.Signal, error) {
	defer r.invalidate(id)
	return r.next.Patch(ctx, id, patch)
}

func (r *cachedSignalRepository) Delete(ctx context.Context, id string) error {
	defer r.invalidate(id)
	return r.next.Delete(ctx, id)
}

func (r *cachedSignalRepository) GetSummaryRef(ctx context.Context) (string, error) {
	return r.next.GetSummaryRef(ctx)
}

func (r *cachedSignalRepository) SetSummaryRef(ctx context.Context, messageID string) error {
	return r.next.SetSummaryRef(ctx, messageID)
}

func (r *cachedSignalRepository) Close() error {
	r.cache.Flush()
	return r.next.Close()
}

func cloneAll(signals []entity.Signal) []entity.Signal {
	out := make([]entity.Signal, len(signals))
	for i := range signals {
		out[i] = signals[i].Clone()
	}
	return out
}
