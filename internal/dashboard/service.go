package dashboard

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"fincontrol/internal/cache"
	"fincontrol/internal/core"
	"fincontrol/internal/log"
	"fincontrol/internal/store"
)

// Service builds reports from the record store and caches them per window
// until the store changes.
type Service struct {
	store  *store.Store
	cache  cache.Cache[Report]
	group  singleflight.Group
	locale core.Locale
	now    func() time.Time
	logger *log.Logger

	// generation increments on every store change; reports built against an
	// older generation are returned but not cached.
	generation atomic.Uint64
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLocale(l core.Locale) Option {
	return func(s *Service) { s.locale = l }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Service) { s.logger = l.WithComponent(log.ComponentDashboard) }
}

// NewService subscribes to st so cached reports are dropped on every change.
func NewService(st *store.Store, c cache.Cache[Report], opts ...Option) *Service {
	s := &Service{
		store:  st,
		cache:  c,
		locale: core.MustLocale(core.DefaultLocale),
		now:    time.Now,
		logger: log.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	st.Subscribe(s)
	return s
}

// OnChange implements store.ChangeListener.
func (s *Service) OnChange(ctx context.Context, ch store.Change) {
	s.generation.Add(1)
	s.cache.Purge()
	s.logger.DebugContext(ctx, "Dashboard cache invalidated",
		log.FieldCollection, ch.Collection, log.FieldOperation, ch.Operation)
}

// Report returns the dashboard for mode. custom is only read in range mode.
func (s *Service) Report(ctx context.Context, mode Mode, custom Window) (Report, error) {
	w, err := SelectWindow(mode, s.now(), custom)
	if err != nil {
		return Report{}, err
	}
	key := string(mode) + "|" + w.String()
	if r, ok := s.cache.Get(key); ok {
		return r, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		gen := s.generation.Load()
		doc, err := s.store.Snapshot(ctx)
		if err != nil {
			return Report{}, err
		}
		r := Build(doc, mode, w, s.locale, s.now())
		if s.generation.Load() == gen {
			s.cache.Set(key, r)
		}
		s.logger.DebugContext(ctx, "Dashboard report built", log.FieldWindow, key)
		return r, nil
	})
	if err != nil {
		return Report{}, err
	}
	return v.(Report), nil
}
