package store

import (
	"context"
	"time"
)

type Operation string

const (
	OpCreated Operation = "created"
	OpUpdated Operation = "updated"
	OpDeleted Operation = "deleted"
)

// Change describes one persisted mutation. ID is zero for category changes.
type Change struct {
	Collection Collection
	Operation  Operation
	ID         int64
	At         time.Time
}

// ChangeListener is told about every persisted mutation. It runs on the
// mutating goroutine after the write, so it must not block and cannot fail
// the mutation.
type ChangeListener interface {
	OnChange(ctx context.Context, ch Change)
}

// ListenerFunc adapts a function to ChangeListener.
type ListenerFunc func(ctx context.Context, ch Change)

func (f ListenerFunc) OnChange(ctx context.Context, ch Change) { f(ctx, ch) }

// Subscribe registers l for all future changes.
func (s *Store) Subscribe(l ChangeListener) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, l)
}

func (s *Store) notify(ctx context.Context, ch Change) {
	s.listenersMu.RLock()
	listeners := append([]ChangeListener(nil), s.listeners...)
	s.listenersMu.RUnlock()

	for _, l := range listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.ErrorContext(ctx, "Change listener panicked",
						"collection", ch.Collection, "operation", ch.Operation, "panic", r)
				}
			}()
			l.OnChange(ctx, ch)
		}()
	}
}
