package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"trade-signal-bot/internal/entity"
	"trade-signal-bot/pkg/common"
)

type redisSignalRepository struct {
	client   *redis.Client
	dataKey  string
	orderKey string
	seqKey   string
	refKey   string
	now      func() time.Time
}

// NewRedisSignalRepository keeps signals in a hash keyed by id and their
// insertion order in a sorted set, all under prefix.
func NewRedisSignalRepository(client *redis.Client, prefix string) SignalRepository {
	return &redisSignalRepository{
		client:   client,
		dataKey:  fmt.Sprintf(common.RedisKeySignalData, prefix),
		orderKey: fmt.Sprintf(common.RedisKeySignalOrder, prefix),
		seqKey:   fmt.Sprintf(common.RedisKeySignalSeq, prefix),
		refKey:   fmt.Sprintf(common.RedisKeySummaryRef, prefix),
		now:      time.Now,
	}
}

func decodeSignal(id, raw string) (*entity.Signal, error) {
	var s entity.Signal
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, entity.NewIOError("decode", errors.Wrap(err, id))
	}
	return &s, nil
}

func (r *redisSignalRepository) Create(ctx context.Context, signal *entity.Signal) error {
	prepareCreate(signal, r.now())
	raw, err := json.Marshal(signal)
	if err != nil {
		return entity.NewIOError("encode", err)
	}

	ok, err := r.client.HSetNX(ctx, r.dataKey, signal.ID, raw).Result()
	if err != nil {
		return entity.NewIOError("write", err)
	}
	if !ok {
		return errors.Wrap(entity.ErrConflict, "duplicate signal id "+signal.ID)
	}

	seq, err := r.client.Incr(ctx, r.seqKey).Result()
	if err != nil {
		return entity.NewIOError("write", err)
	}
	if err := r.client.ZAdd(ctx, r.orderKey, redis.Z{Score: float64(seq), Member: signal.ID}).Err(); err != nil {
		return entity.NewIOError("write", err)
	}
	return nil
}

func (r *redisSignalRepository) GetAll(ctx context.Context) ([]entity.Signal, error) {
	ids, err := r.client.ZRevRange(ctx, r.orderKey, 0, -1).Result()
	if err != nil {
		return nil, entity.NewIOError("read", err)
	}
	signals := []entity.Signal{}
	if len(ids) == 0 {
		return signals, nil
	}

	values, err := r.client.HMGet(ctx, r.dataKey, ids...).Result()
	if err != nil {
		return nil, entity.NewIOError("read", err)
	}
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		s, err := decodeSignal(ids[i], raw)
		if err != nil {
			return nil, err
		}
		signals = append(signals, *s)
	}
	return signals, nil
}

func (r *redisSignalRepository) GetByID(ctx context.Context, id string) (*entity.Signal, error) {
	raw, err := r.client.HGet(ctx, r.dataKey, id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, entity.NewIOError("read", err)
	}
	return decodeSignal(id, raw)
}

// Patch runs the read-merge-write under WATCH on the data hash. A concurrent
// write to the hash aborts the transaction and surfaces as entity.ErrConflict.
func (r *redisSignalRepository) Patch(ctx context.Context, id string, patch entity.SignalPatch) (*entity.Signal, error) {
	var out *entity.Signal
	txf := func(tx *redis.Tx) error {
		raw, err := tx.HGet(ctx, r.dataKey, id).Result()
		if errors.Is(err, redis.Nil) {
			return entity.ErrNotFound
		}
		if err != nil {
			return entity.NewIOError("read", err)
		}
		current, err := decodeSignal(id, raw)
		if err != nil {
			return err
		}
		if err := patch.CheckVersion(current); err != nil {
			return err
		}

		patch.ApplyTo(current, r.now())
		encoded, err := json.Marshal(current)
		if err != nil {
			return entity.NewIOError("encode", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, r.dataKey, id, encoded)
			return nil
		})
		if err != nil {
			return err
		}
		out = current
		return nil
	}

	err := r.client.Watch(ctx, txf, r.dataKey)
	switch {
	case err == nil:
		return out, nil
	case errors.Is(err, redis.TxFailedErr):
		return nil, entity.ErrConflict
	case errors.Is(err, entity.ErrNotFound), errors.Is(err, entity.ErrConflict):
		return nil, err
	default:
		var ioe *entity.IOError
		if errors.As(err, &ioe) {
			return nil, err
		}
		return nil, entity.NewIOError("write", err)
	}
}

func (r *redisSignalRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, r.dataKey, id)
		pipe.ZRem(ctx, r.orderKey, id)
		return nil
	})
	return entity.NewIOError("write", err)
}

func (r *redisSignalRepository) GetSummaryRef(ctx context.Context) (string, error) {
	ref, err := r.client.Get(ctx, r.refKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", entity.NewIOError("read", err)
	}
	return ref, nil
}

func (r *redisSignalRepository) SetSummaryRef(ctx context.Context, messageID string) error {
	if messageID == "" {
		return entity.NewIOError("write", r.client.Del(ctx, r.refKey).Err())
	}
	return entity.NewIOError("write", r.client.Set(ctx, r.refKey, messageID, 0).Err())
}

// Close is a no-op: the client is owned by the caller.
func (r *redisSignalRepository) Close() error { return nil }
