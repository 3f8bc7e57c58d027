// Package store keeps sales, expenses, debts and the category set in a single
// versioned JSON document. Every mutation reads the whole document, changes it
// in memory and writes it back.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"fincontrol/internal/core"
	"fincontrol/internal/log"
	"fincontrol/internal/storage"
)

// Fields the store owns. Updates never overwrite them.
const (
	FieldID        = "id"
	FieldCreatedAt = "createdAt"
	FieldDate      = "date"
	FieldAmount    = "amount"
)

// Store is the record store. The mutex serializes read-modify-write cycles
// within this process; other processes writing the same key still race and
// the last write wins.
type Store struct {
	mu     sync.Mutex
	kv     storage.KV
	key    string
	now    func() time.Time
	logger *log.Logger
	locale core.Locale

	listenersMu sync.RWMutex
	listeners   []ChangeListener
}

type Option func(*Store)

// WithClock overrides time.Now for id timestamps and lastUpdated.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l.WithComponent(log.ComponentStore) }
}

// WithKey stores the document under a different key.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithLocale sets the locale used to match formatted amounts in Find.
func WithLocale(l core.Locale) Option {
	return func(s *Store) { s.locale = l }
}

// Open loads the document once, normalizes it and writes it back when it was
// missing or came from an older version.
func Open(ctx context.Context, kv storage.KV, opts ...Option) (*Store, error) {
	s := &Store{
		kv:     kv,
		key:    StorageKey,
		now:    time.Now,
		logger: log.Discard(),
		locale: core.MustLocale(core.DefaultLocale),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, found, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if !found || doc.Version < documentVersion {
		if err := s.save(ctx, doc); err != nil {
			return nil, err
		}
		s.logger.InfoContext(ctx, "Store document initialized", "found", found, "version", documentVersion)
	}
	return s, nil
}

// Close releases the underlying storage.
func (s *Store) Close() error {
	return s.kv.Close()
}

func (s *Store) load(ctx context.Context) (*Document, bool, error) {
	b, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, false, fmt.Errorf("%w: read %s: %w", core.ErrStorageUnavailable, s.key, err)
	}
	if !ok {
		return newDocument(), false, nil
	}
	doc, err := decodeDocument(b)
	if err != nil {
		return nil, true, fmt.Errorf("%w: %w", core.ErrStorageUnavailable, err)
	}
	return doc, true, nil
}

func (s *Store) save(ctx context.Context, doc *Document) error {
	doc.Version = documentVersion
	doc.LastUpdated = s.now().UTC()
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: encode document: %w", core.ErrStorageUnavailable, err)
	}
	if err := s.kv.Set(ctx, s.key, b); err != nil {
		return fmt.Errorf("%w: write %s: %w", core.ErrStorageUnavailable, s.key, err)
	}
	return nil
}

// read returns a snapshot of the current document.
func (s *Store) read(ctx context.Context) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, _, err := s.load(ctx)
	return doc, err
}

// mutate runs fn against a freshly loaded document and persists it when fn
// reports a change. Listeners are notified after the lock is released.
func (s *Store) mutate(ctx context.Context, fn func(doc *Document) (*Change, error)) error {
	s.mu.Lock()
	doc, _, err := s.load(ctx)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	change, err := fn(doc)
	if err == nil && change != nil {
		err = s.save(ctx, doc)
	}
	s.mu.Unlock()

	if err != nil {
		return err
	}
	if change != nil {
		change.At = s.now().UTC()
		s.notify(ctx, *change)
	}
	return nil
}

// Snapshot returns a deep copy of the whole document.
func (s *Store) Snapshot(ctx context.Context) (*Document, error) {
	return s.read(ctx)
}

// GetAll returns the records of c in insertion order. Unknown collections
// yield an empty slice.
func (s *Store) GetAll(ctx context.Context, c Collection) ([]Record, error) {
	doc, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	if !c.Valid() {
		return []Record{}, nil
	}
	return doc.Records(c), nil
}

// Get returns a single record.
func (s *Store) Get(ctx context.Context, c Collection, id int64) (Record, error) {
	records, err := s.GetAll(ctx, c)
	if err != nil {
		return nil, err
	}
	if i := indexOf(records, id); i >= 0 {
		return records[i], nil
	}
	return nil, fmt.Errorf("%s %d: %w", c, id, core.ErrNotFound)
}

// Add assigns an id and creation timestamp to a copy of partial, appends it
// and persists the document.
func (s *Store) Add(ctx context.Context, c Collection, partial Record) (Record, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: unknown collection %q", core.ErrValidation, c)
	}
	var stored Record
	err := s.mutate(ctx, func(doc *Document) (*Change, error) {
		rec := cloneRecord(partial)
		if rec == nil {
			rec = Record{}
		}
		id := doc.allocateID()
		rec[FieldID] = id
		rec[FieldCreatedAt] = s.now().UTC().Format(time.RFC3339Nano)

		list := doc.records(c)
		*list = append(*list, rec)
		stored = cloneRecord(rec)
		return &Change{Collection: c, Operation: OpCreated, ID: id}, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.DebugContext(ctx, "Record added", log.FieldCollection, c, log.FieldRecordID, stored[FieldID])
	return stored, nil
}

// Update shallow-merges patch into the record: only keys present in patch
// change. id and createdAt are ignored.
func (s *Store) Update(ctx context.Context, c Collection, id int64, patch Record) (Record, error) {
	return s.Modify(ctx, c, id, func(Record) (Record, error) { return patch, nil })
}

// Modify is an atomic Update whose patch is computed from the current record.
// An error from fn aborts without writing.
func (s *Store) Modify(ctx context.Context, c Collection, id int64, fn func(current Record) (Record, error)) (Record, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%s: %w", c, core.ErrNotFound)
	}
	var merged Record
	err := s.mutate(ctx, func(doc *Document) (*Change, error) {
		list := *doc.records(c)
		i := indexOf(list, id)
		if i < 0 {
			return nil, fmt.Errorf("%s %d: %w", c, id, core.ErrNotFound)
		}
		patch, err := fn(cloneRecord(list[i]))
		if err != nil {
			return nil, err
		}
		for k, v := range patch {
			if k == FieldID || k == FieldCreatedAt {
				continue
			}
			list[i][k] = cloneValue(v)
		}
		merged = cloneRecord(list[i])
		return &Change{Collection: c, Operation: OpUpdated, ID: id}, nil
	})
	if err != nil {
		return nil, err
	}
	return merged, nil
}

// Remove deletes the record if present. Removing an absent id is a no-op and
// does not touch storage.
func (s *Store) Remove(ctx context.Context, c Collection, id int64) error {
	if !c.Valid() {
		return fmt.Errorf("%s: %w", c, core.ErrNotFound)
	}
	return s.mutate(ctx, func(doc *Document) (*Change, error) {
		list := doc.records(c)
		i := indexOf(*list, id)
		if i < 0 {
			return nil, nil
		}
		*list = slices.Delete(*list, i, i+1)
		return &Change{Collection: c, Operation: OpDeleted, ID: id}, nil
	})
}

// Categories returns the category set in order.
func (s *Store) Categories(ctx context.Context) ([]string, error) {
	doc, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Categories, nil
}

// HasCategory reports whether name is in the current set.
func (s *Store) HasCategory(ctx context.Context, name string) (bool, error) {
	cats, err := s.Categories(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(cats, name), nil
}

// AddCategory appends a trimmed, non-empty label that is not already present.
func (s *Store) AddCategory(ctx context.Context, name string) ([]string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name is required", core.ErrValidation)
	}
	var out []string
	err := s.mutate(ctx, func(doc *Document) (*Change, error) {
		if slices.Contains(doc.Categories, name) {
			return nil, fmt.Errorf("%w: category %q already exists", core.ErrValidation, name)
		}
		doc.Categories = append(doc.Categories, name)
		out = slices.Clone(doc.Categories)
		return &Change{Collection: Categories, Operation: OpCreated}, nil
	})
	return out, err
}

// RemoveCategory drops name from the set. Expenses referencing it are left
// untouched.
func (s *Store) RemoveCategory(ctx context.Context, name string) ([]string, error) {
	var out []string
	err := s.mutate(ctx, func(doc *Document) (*Change, error) {
		out = slices.Clone(doc.Categories)
		i := slices.Index(doc.Categories, name)
		if i < 0 {
			return nil, nil
		}
		doc.Categories = slices.Delete(doc.Categories, i, i+1)
		out = slices.Clone(doc.Categories)
		return &Change{Collection: Categories, Operation: OpDeleted}, nil
	})
	return out, err
}

func indexOf(records []Record, id int64) int {
	return slices.IndexFunc(records, func(r Record) bool {
		rid, ok := RecordID(r)
		return ok && rid == id
	})
}
