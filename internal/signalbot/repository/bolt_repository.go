package repository

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/go-faster/errors"
	bolt "go.etcd.io/bbolt"

	"trade-signal-bot/internal/entity"
	"trade-signal-bot/pkg/common"
)

// boltRecord is the value stored under a signal id. Seq is the key of the
// matching entry in the order bucket.
type boltRecord struct {
	Seq    uint64        `json:"seq"`
	Signal entity.Signal `json:"signal"`
}

type boltSignalRepository struct {
	db  *bolt.DB
	now func() time.Time
}

// NewBoltSignalRepository opens (or creates) a bbolt database at path.
func NewBoltSignalRepository(path string) (SignalRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, entity.NewIOError("open", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, entity.NewIOError("open", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{common.BoltBucketSignals, common.BoltBucketOrder, common.BoltBucketMeta} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, entity.NewIOError("open", err)
	}

	return &boltSignalRepository{db: db, now: time.Now}, nil
}

func seqKey(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}

func getRecord(tx *bolt.Tx, id string) (*boltRecord, error) {
	raw := tx.Bucket([]byte(common.BoltBucketSignals)).Get([]byte(id))
	if raw == nil {
		return nil, entity.ErrNotFound
	}
	var rec boltRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, entity.NewIOError("decode", errors.Wrap(err, id))
	}
	return &rec, nil
}

func putRecord(tx *bolt.Tx, rec *boltRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return tx.Bucket([]byte(common.BoltBucketSignals)).Put([]byte(rec.Signal.ID), raw)
}

// ioErr keeps domain errors intact and classifies everything else as storage failures.
func ioErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var ioe *entity.IOError
	if errors.Is(err, entity.ErrNotFound) || errors.Is(err, entity.ErrConflict) || errors.As(err, &ioe) {
		return err
	}
	return entity.NewIOError(op, err)
}

func (r *boltSignalRepository) Create(ctx context.Context, signal *entity.Signal) error {
	prepareCreate(signal, r.now())
	err := r.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(common.BoltBucketSignals)).Get([]byte(signal.ID)) != nil {
			return errors.Wrap(entity.ErrConflict, "duplicate signal id "+signal.ID)
		}
		order := tx.Bucket([]byte(common.BoltBucketOrder))
		seq, err := order.NextSequence()
		if err != nil {
			return err
		}
		if err := order.Put(seqKey(seq), []byte(signal.ID)); err != nil {
			return err
		}
		return putRecord(tx, &boltRecord{Seq: seq, Signal: signal.Clone()})
	})
	return ioErr("write", err)
}

func (r *boltSignalRepository) GetAll(ctx context.Context) ([]entity.Signal, error) {
	signals := []entity.Signal{}
	err := r.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(common.BoltBucketOrder)).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			rec, err := getRecord(tx, string(v))
			if errors.Is(err, entity.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			signals = append(signals, rec.Signal)
		}
		return nil
	})
	if err != nil {
		return nil, ioErr("read", err)
	}
	return signals, nil
}

func (r *boltSignalRepository) GetByID(ctx context.Context, id string) (*entity.Signal, error) {
	var out *entity.Signal
	err := r.db.View(func(tx *bolt.Tx) error {
		rec, err := getRecord(tx, id)
		if err != nil {
			return err
		}
		out = &rec.Signal
		return nil
	})
	if err != nil {
		return nil, ioErr("read", err)
	}
	return out, nil
}

func (r *boltSignalRepository) Patch(ctx context.Context, id string, patch entity.SignalPatch) (*entity.Signal, error) {
	var out entity.Signal
	err := r.db.Update(func(tx *bolt.Tx) error {
		rec, err := getRecord(tx, id)
		if err != nil {
			return err
		}
		if err := patch.CheckVersion(&rec.Signal); err != nil {
			return err
		}
		patch.ApplyTo(&rec.Signal, r.now())
		if err := putRecord(tx, rec); err != nil {
			return err
		}
		out = rec.Signal.Clone()
		return nil
	})
	if err != nil {
		return nil, ioErr("write", err)
	}
	return &out, nil
}

func (r *boltSignalRepository) Delete(ctx context.Context, id string) error {
	err := r.db.Update(func(tx *bolt.Tx) error {
		rec, err := getRecord(tx, id)
		if errors.Is(err, entity.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := tx.Bucket([]byte(common.BoltBucketOrder)).Delete(seqKey(rec.Seq)); err != nil {
			return err
		}
		return tx.Bucket([]byte(common.BoltBucketSignals)).Delete([]byte(id))
	})
	return ioErr("write", err)
}

func (r *boltSignalRepository) GetSummaryRef(ctx context.Context) (string, error) {
	var ref string
	err := r.db.View(func(tx *bolt.Tx) error {
		ref = string(tx.Bucket([]byte(common.BoltBucketMeta)).Get([]byte(common.MetaKeySummaryRef)))
		return nil
	})
	return ref, ioErr("read", err)
}

func (r *boltSignalRepository) SetSummaryRef(ctx context.Context, messageID string) error {
	err := r.db.Update(func(tx *bolt.Tx) error {
		meta := tx.Bucket([]byte(common.BoltBucketMeta))
		if messageID == "" {
			return meta.Delete([]byte(common.MetaKeySummaryRef))
		}
		return meta.Put([]byte(common.MetaKeySummaryRef), []byte(messageID))
	})
	return ioErr("write", err)
}

func (r *boltSignalRepository) Close() error {
	return r.db.Close()
}
