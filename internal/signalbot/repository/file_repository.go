package repository

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-faster/errors"

	"trade-signal-bot/internal/entity"
)

// document is the on-disk layout of the signal file.
type document struct {
	Signals          []entity.Signal `json:"signals"`
	SummaryMessageID *string         `json:"summaryMessageId"`
}

type fileSignalRepository struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// NewFileSignalRepository stores signals in a single JSON document at path.
// The file is read and rewritten in full by every operation.
func NewFileSignalRepository(path string) SignalRepository {
	return &fileSignalRepository{path: path, now: time.Now}
}

func (r *fileSignalRepository) load() (*document, error) {
	b, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &document{Signals: []entity.Signal{}}, nil
		}
		return nil, entity.NewIOError("read", err)
	}
	if len(b) == 0 {
		return &document{Signals: []entity.Signal{}}, nil
	}

	var doc document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, entity.NewIOError("decode", errors.Wrap(err, r.path))
	}
	if doc.Signals == nil {
		doc.Signals = []entity.Signal{}
	}
	return &doc, nil
}

func (r *fileSignalRepository) save(doc *document) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return entity.NewIOError("write", err)
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return entity.NewIOError("encode", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return entity.NewIOError("write", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(append(b, '\n')); err != nil {
		_ = tmp.Close()
		return entity.NewIOError("write", err)
	}
	if err := tmp.Close(); err != nil {
		return entity.NewIOError("write", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return entity.NewIOError("write", err)
	}
	return nil
}

func indexOf(signals []entity.Signal, id string) int {
	for i := range signals {
		if signals[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *fileSignalRepository) Create(ctx context.Context, signal *entity.Signal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return err
	}
	if indexOf(doc.Signals, signal.ID) >= 0 {
		return errors.Wrap(entity.ErrConflict, "duplicate signal id "+signal.ID)
	}

	prepareCreate(signal, r.now())
	doc.Signals = append([]entity.Signal{signal.Clone()}, doc.Signals...)
	return r.save(doc)
}

func (r *fileSignalRepository) GetAll(ctx context.Context) ([]entity.Signal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return nil, err
	}
	return doc.Signals, nil
}

func (r *fileSignalRepository) GetByID(ctx context.Context, id string) (*entity.Signal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return nil, err
	}
	i := indexOf(doc.Signals, id)
	if i < 0 {
		return nil, entity.ErrNotFound
	}
	return &doc.Signals[i], nil
}

func (r *fileSignalRepository) Patch(ctx context.Context, id string, patch entity.SignalPatch) (*entity.Signal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return nil, err
	}
	i := indexOf(doc.Signals, id)
	if i < 0 {
		return nil, entity.ErrNotFound
	}
	if err := patch.CheckVersion(&doc.Signals[i]); err != nil {
		return nil, err
	}

	patch.ApplyTo(&doc.Signals[i], r.now())
	if err := r.save(doc); err != nil {
		return nil, err
	}
	updated := doc.Signals[i].Clone()
	return &updated, nil
}

func (r *fileSignalRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return err
	}
	i := indexOf(doc.Signals, id)
	if i < 0 {
		return nil
	}
	doc.Signals = append(doc.Signals[:i], doc.Signals[i+1:]...)
	return r.save(doc)
}

func (r *fileSignalRepository) GetSummaryRef(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return "", err
	}
	if doc.SummaryMessageID == nil {
		return "", nil
	}
	return *doc.SummaryMessageID, nil
}

func (r *fileSignalRepository) SetSummaryRef(ctx context.Context, messageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return err
	}
	if messageID == "" {
		doc.SummaryMessageID = nil
	} else {
		doc.SummaryMessageID = &messageID
	}
	return r.save(doc)
}

func (r *fileSignalRepository) Close() error { return nil }
