package repository

import (
	"context"
	"time"

	"trade-signal-bot/internal/entity"
)

// SignalRepository is the durable collection of signals plus the summary message pointer.
//
// Every backend keeps the read-modify-write contract: a Patch reads the current
// record, merges the given fields and writes the result back as one step.
// Signals are returned newest first.
type SignalRepository interface {
	// Create inserts signal at the front of the collection.
	Create(ctx context.Context, signal *entity.Signal) error
	// GetAll returns every signal, newest first.
	GetAll(ctx context.Context) ([]entity.Signal, error)
	// GetByID returns entity.ErrNotFound when id is unknown.
	GetByID(ctx context.Context, id string) (*entity.Signal, error)
	// Patch merges the non-nil fields of patch into the stored record and returns
	// the result. It never creates a record: unknown ids yield entity.ErrNotFound.
	Patch(ctx context.Context, id string, patch entity.SignalPatch) (*entity.Signal, error)
	// Delete removes the record; deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error
	// GetSummaryRef returns the id of the last posted summary, or "" if none.
	GetSummaryRef(ctx context.Context) (string, error)
	SetSummaryRef(ctx context.Context, messageID string) error
	Close() error
}

// prepareCreate fills the bookkeeping fields of a new record.
func prepareCreate(s *entity.Signal, now time.Time) {
	if s.Version == 0 {
		s.Version = 1
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = s.CreatedAt
	if s.TakeProfits == nil {
		s.TakeProfits = []string{}
	}
	if s.TakeProfitsHit == nil {
		s.TakeProfitsHit = []int{}
	}
	if s.Closes == nil {
		s.Closes = []entity.Close{}
	}
}
