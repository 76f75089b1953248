package watchlist

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"crypto_dash/internal/domain"
)

// DefaultKey is the fixed medium key holding the serialized watchlist
const DefaultKey = "crypto-watchlist"

// Outcome reports the result of a mutating watchlist operation.
// Callers that only care about UI availability may ignore it.
type Outcome struct {
	Changed bool  // Membership changed and the write was attempted
	Err     error // Storage or validation failure, nil on success
}

// OK reports whether the operation completed without error
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Store is the ordered, duplicate-free set of watched coin identifiers
type Store interface {
	List() []string
	Contains(id string) bool
	Add(id string) Outcome
	Remove(id string) Outcome
	Toggle(id string) (bool, Outcome)
}

// Observer is notified after each watchlist operation (metrics hook)
type Observer interface {
	ObserveWatchlist(op string, changed bool, err error)
}

// Option configures a Watchlist
type Option func(*Watchlist)

// WithKey overrides the medium key
func WithKey(key string) Option {
	return func(w *Watchlist) {
		if key != "" {
			w.key = key
		}
	}
}

// WithLogger overrides the logger
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watchlist) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithObserver registers an operation observer
func WithObserver(o Observer) Option {
	return func(w *Watchlist) {
		w.observer = o
	}
}

// Watchlist is the Store backed by a durable Medium.
// Every call reads the medium, so the medium stays the single source of truth.
// Read-modify-write cycles are serialized within the process; writers in
// other processes sharing the same key are last-writer-wins.
type Watchlist struct {
	medium   Medium
	key      string
	mu       sync.Mutex
	logger   *slog.Logger
	observer Observer
}

// New creates a watchlist store on top of medium
func New(medium Medium, opts ...Option) *Watchlist {
	w := &Watchlist{
		medium: medium,
		key:    DefaultKey,
		logger: slog.Default().With("module", "watchlist"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Key returns the medium key in use
func (w *Watchlist) Key() string {
	return w.key
}

// List returns the watched identifiers in insertion order.
// Unavailable or corrupt storage yields an empty list.
func (w *Watchlist) List() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	ids, err := w.load()
	if err != nil {
		w.logger.Warn("Watchlist read failed, treating as empty", slog.Any("error", err))
		w.observe("list", false, err)
		return []string{}
	}
	return ids
}

// Contains reports whether id is watched
func (w *Watchlist) Contains(id string) bool {
	for _, v := range w.List() {
		if v == id {
			return true
		}
	}
	return false
}

// Add appends id if absent. Existing entries are never reordered.
// Corrupt content is replaced by the write; unavailable storage is left
// untouched and reported.
func (w *Watchlist) Add(id string) Outcome {
	if id == "" {
		return Outcome{Err: domain.ErrInvalidCoinID}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	ids, err := w.loadForWrite("add", id)
	if err != nil {
		return Outcome{Err: err}
	}
	return w.add(ids, id)
}

// Remove deletes id if present, keeping the relative order of the rest
func (w *Watchlist) Remove(id string) Outcome {
	w.mu.Lock()
	defer w.mu.Unlock()

	ids, err := w.load()
	if err != nil {
		w.logger.Warn("Watchlist read failed before remove", slog.String("id", id), slog.Any("error", err))
		w.observe("remove", false, err)
		return Outcome{Err: err}
	}
	return w.remove(ids, id)
}

// Toggle flips membership of id in a single read-modify-write cycle and
// returns the membership as persisted afterwards.
func (w *Watchlist) Toggle(id string) (bool, Outcome) {
	if id == "" {
		return false, Outcome{Err: domain.ErrInvalidCoinID}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	ids, err := w.loadForWrite("toggle", id)
	if err != nil {
		return false, Outcome{Err: err}
	}

	if indexOf(ids, id) >= 0 {
		out := w.remove(ids, id)
		return out.Err != nil, out
	}
	out := w.add(ids, id)
	return out.Err == nil, out
}

// loadForWrite reads the list ahead of a mutation. Corrupt content reads as
// empty so the following write heals it. Must be called with lock held.
func (w *Watchlist) loadForWrite(op, id string) ([]string, error) {
	ids, err := w.load()
	switch {
	case err == nil:
		return ids, nil
	case IsCorrupt(err):
		w.logger.Warn("Watchlist content unreadable, overwriting", slog.String("op", op), slog.String("id", id), slog.Any("error", err))
		return []string{}, nil
	default:
		w.logger.Warn("Watchlist read failed before "+op, slog.String("id", id), slog.Any("error", err))
		w.observe(op, false, err)
		return nil, err
	}
}

func (w *Watchlist) add(ids []string, id string) Outcome {
	if indexOf(ids, id) >= 0 {
		w.observe("add", false, nil)
		return Outcome{}
	}

	out := Outcome{Changed: true, Err: w.save(append(ids, id))}
	if out.Err != nil {
		w.logger.Error("Error adding to watchlist", slog.String("id", id), slog.Any("error", out.Err))
	}
	w.observe("add", true, out.Err)
	return out
}

func (w *Watchlist) remove(ids []string, id string) Outcome {
	idx := indexOf(ids, id)
	if idx < 0 {
		w.observe("remove", false, nil)
		return Outcome{}
	}

	updated := make([]string, 0, len(ids)-1)
	updated = append(updated, ids[:idx]...)
	updated = append(updated, ids[idx+1:]...)

	out := Outcome{Changed: true, Err: w.save(updated)}
	if out.Err != nil {
		w.logger.Error("Error removing from watchlist", slog.String("id", id), slog.Any("error", out.Err))
	}
	w.observe("remove", true, out.Err)
	return out
}

// load reads and parses the stored array. Must be called with lock held.
func (w *Watchlist) load() ([]string, error) {
	raw, err := w.medium.Load(w.key)
	if err != nil {
		return nil, domain.NewStorageUnavailable("load", w.key, err)
	}
	if len(raw) == 0 {
		return []string{}, nil
	}

	var stored []string
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, domain.NewCorruptData(w.key, err)
	}
	return dedupe(stored), nil
}

// save serializes and writes ids. Must be called with lock held.
func (w *Watchlist) save(ids []string) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return domain.NewStorageUnavailable("save", w.key, err)
	}
	if err := w.medium.Save(w.key, data); err != nil {
		return domain.NewStorageUnavailable("save", w.key, err)
	}
	return nil
}

func (w *Watchlist) observe(op string, changed bool, err error) {
	if w.observer != nil {
		w.observer.ObserveWatchlist(op, changed, err)
	}
}

// IsCorrupt reports whether err came from unreadable stored content
func IsCorrupt(err error) bool {
	return errors.Is(err, domain.ErrCorruptData)
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

// dedupe drops repeated and empty identifiers, first occurrence wins
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
