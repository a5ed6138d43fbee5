package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"trade-signal-bot/internal/entity"
	"trade-signal-bot/pkg/common"
)

// signalRecord is the row layout of the signals table. Data holds the full
// signal document; the other columns are kept for ordering and filtering.
type signalRecord struct {
	Seq       int64          `gorm:"column:seq;primaryKey;autoIncrement"`
	ID        string         `gorm:"column:id;uniqueIndex;size:64"`
	Status    string         `gorm:"column:status;index;size:32"`
	Version   int64          `gorm:"column:version"`
	Data      datatypes.JSON `gorm:"column:data;type:jsonb"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime:false"`
}

func (signalRecord) TableName() string { return "signals" }

type metaRecord struct {
	Key   string `gorm:"column:key;primaryKey;size:64"`
	Value string `gorm:"column:value"`
}

func (metaRecord) TableName() string { return "signal_meta" }

func (rec *signalRecord) decode() (*entity.Signal, error) {
	var s entity.Signal
	if err := json.Unmarshal(rec.Data, &s); err != nil {
		return nil, entity.NewIOError("decode", errors.Wrap(err, rec.ID))
	}
	return &s, nil
}

func (rec *signalRecord) encode(s *entity.Signal) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return entity.NewIOError("encode", err)
	}
	rec.ID = s.ID
	rec.Status = string(s.Status)
	rec.Version = s.Version
	rec.Data = datatypes.JSON(raw)
	rec.CreatedAt = s.CreatedAt
	rec.UpdatedAt = s.UpdatedAt
	return nil
}

type postgresSignalRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewPostgresSignalRepository creates a new GORM-based signal repository.
// The schema is managed by cmd/migrate.
func NewPostgresSignalRepository(db *gorm.DB) SignalRepository {
	return &postgresSignalRepository{db: db, now: time.Now}
}

func (r *postgresSignalRepository) Create(ctx context.Context, signal *entity.Signal) error {
	prepareCreate(signal, r.now())
	var rec signalRecord
	if err := rec.encode(signal); err != nil {
		return err
	}

	err := r.db.WithContext(ctx).Create(&rec).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errors.Wrap(entity.ErrConflict, "duplicate signal id "+signal.ID)
	}
	return entity.NewIOError("write", err)
}

func (r *postgresSignalRepository) GetAll(ctx context.Context) ([]entity.Signal, error) {
	var records []signalRecord
	if err := r.db.WithContext(ctx).Order("seq DESC").Find(&records).Error; err != nil {
		return nil, entity.NewIOError("read", err)
	}

	signals := make([]entity.Signal, 0, len(records))
	for i := range records {
		s, err := records[i].decode()
		if err != nil {
			return nil, err
		}
		signals = append(signals, *s)
	}
	return signals, nil
}

func (r *postgresSignalRepository) GetByID(ctx context.Context, id string) (*entity.Signal, error) {
	var rec signalRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, entity.NewIOError("read", err)
	}
	return rec.decode()
}

// Patch locks the row with SELECT ... FOR UPDATE for the duration of the merge.
func (r *postgresSignalRepository) Patch(ctx context.Context, id string, patch entity.SignalPatch) (*entity.Signal, error) {
	var out *entity.Signal
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec signalRecord
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&rec).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entity.ErrNotFound
		}
		if err != nil {
			return entity.NewIOError("read", err)
		}

		current, err := rec.decode()
		if err != nil {
			return err
		}
		if err := patch.CheckVersion(current); err != nil {
			return err
		}
		patch.ApplyTo(current, r.now())
		if err := rec.encode(current); err != nil {
			return err
		}
		if err := tx.Save(&rec).Error; err != nil {
			return entity.NewIOError("write", err)
		}
		out = current
		return nil
	})
	if err != nil {
		var ioe *entity.IOError
		if errors.Is(err, entity.ErrNotFound) || errors.Is(err, entity.ErrConflict) || errors.As(err, &ioe) {
			return nil, err
		}
		return nil, entity.NewIOError("write", err)
	}
	return out, nil
}

func (r *postgresSignalRepository) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&signalRecord{}).Error
	return entity.NewIOError("write", err)
}

func (r *postgresSignalRepository) GetSummaryRef(ctx context.Context) (string, error) {
	var meta metaRecord
	err := r.db.WithContext(ctx).Where("key = ?", common.MetaKeySummaryRef).First(&meta).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", entity.NewIOError("read", err)
	}
	return meta.Value, nil
}

func (r *postgresSignalRepository) SetSummaryRef(ctx context.Context, messageID string) error {
	db := r.db.WithContext(ctx)
	if messageID == "" {
		return entity.NewIOError("write", db.Where("key = ?", common.MetaKeySummaryRef).Delete(&metaRecord{}).Error)
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&metaRecord{Key: common.MetaKeySummaryRef, Value: messageID}).Error
	return entity.NewIOError("write", err)
}

// Close is a no-op: the connection pool is owned by the caller.
func (r *postgresSignalRepository) Close() error { return nil }
