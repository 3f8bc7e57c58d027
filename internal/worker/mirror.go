// Package worker mirrors the record store into a spreadsheet. Change events
// only mark collections dirty; the periodic flush rewrites each dirty tab from
// a fresh snapshot, so replays and lost messages converge to the same state.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"fincontrol/internal/amqp"
	"fincontrol/internal/core"
	"fincontrol/internal/log"
	"fincontrol/internal/sheets"
	"fincontrol/internal/store"
)

// Snapshotter is the part of the store the mirror reads.
type Snapshotter interface {
	Snapshot(ctx context.Context) (*store.Document, error)
}

type Config struct {
	// Interval between flushes of dirty tabs (default: 30s).
	Interval time.Duration
	Locale   core.Locale
	// Polling marks every collection dirty on each tick, for deployments
	// without change events.
	Polling bool
}

func DefaultConfig() Config {
	return Config{
		Interval: 30 * time.Second,
		Locale:   core.MustLocale(core.DefaultLocale),
	}
}

// Mirror keeps spreadsheet tabs in step with the store.
type Mirror struct {
	store    Snapshotter
	exporter sheets.Exporter
	config   Config
	logger   *log.Logger

	mu    sync.Mutex
	dirty map[store.Collection]bool
}

func NewMirror(s Snapshotter, exporter sheets.Exporter, config Config, logger *log.Logger) *Mirror {
	if config.Interval <= 0 {
		config.Interval = DefaultConfig().Interval
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Mirror{
		store:    s,
		exporter: exporter,
		config:   config,
		logger:   logger.WithComponent(log.ComponentWorker),
		dirty:    map[store.Collection]bool{},
	}
}

// HandleChange marks the collection named by msg dirty. Unknown collections
// are logged and acknowledged.
func (m *Mirror) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	c := store.Collection(msg.Collection)
	if !c.Valid() {
		m.logger.WarnContext(ctx, "Ignoring change for unknown collection",
			log.FieldCollection, msg.Collection, log.FieldOperation, msg.Operation)
		return nil
	}
	m.mu.Lock()
	m.dirty[c] = true
	m.mu.Unlock()

	m.logger.DebugContext(ctx, "Collection marked dirty",
		log.FieldCollection, msg.Collection,
		log.FieldOperation, msg.Operation,
		log.FieldRecordID, msg.ID)
	return nil
}

func (m *Mirror) markAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range allCollections() {
		m.dirty[c] = true
	}
}

// Pending returns the collections waiting for the next flush.
func (m *Mirror) Pending() []store.Collection {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.Collection
	for _, c := range allCollections() {
		if m.dirty[c] {
			out = append(out, c)
		}
	}
	return out
}

// Flush rewrites every dirty tab. Collections that fail stay dirty and are
// retried on the next flush.
func (m *Mirror) Flush(ctx context.Context) error {
	m.mu.Lock()
	pending := m.dirty
	m.dirty = map[store.Collection]bool{}
	m.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}
	var collections []store.Collection
	for _, c := range allCollections() {
		if pending[c] {
			collections = append(collections, c)
		}
	}

	failed, err := m.export(ctx, collections)
	if len(failed) > 0 {
		m.mu.Lock()
		for _, c := range failed {
			m.dirty[c] = true
		}
		m.mu.Unlock()
	}
	return err
}

// ExportAll rewrites every tab regardless of dirty state.
func (m *Mirror) ExportAll(ctx context.Context) error {
	_, err := m.export(ctx, allCollections())
	return err
}

func (m *Mirror) export(ctx context.Context, collections []store.Collection) ([]store.Collection, error) {
	doc, err := m.store.Snapshot(ctx)
	if err != nil {
		return collections, fmt.Errorf("snapshot store: %w", err)
	}

	var (
		failed []store.Collection
		errs   []error
	)
	for _, c := range collections {
		start := time.Now()
		rows := Rows(doc, c, m.config.Locale)
		if err := m.exporter.ReplaceRows(ctx, TabName(c), rows); err != nil {
			m.logger.ErrorContext(ctx, "Failed to export collection",
				log.FieldOperation, log.OpSync, log.FieldCollection, string(c), log.FieldError, err)
			failed = append(failed, c)
			errs = append(errs, fmt.Errorf("export %s: %w", c, err))
			continue
		}
		m.logger.InfoContext(ctx, "Collection exported",
			log.FieldOperation, log.OpSync,
			log.FieldCollection, string(c),
			"rows", len(rows)-1,
			log.FieldDuration, time.Since(start).Milliseconds())
	}
	return failed, errors.Join(errs...)
}

// Run performs a full export, then flushes dirty tabs every interval until ctx
// is done. A last flush runs on the way out.
func (m *Mirror) Run(ctx context.Context) error {
	if err := m.ExportAll(ctx); err != nil {
		m.logger.WarnContext(ctx, "Initial export incomplete", log.FieldError, err)
	}

	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	m.logger.InfoContext(ctx, "Mirror started", "interval", m.config.Interval)
	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()
			if err := m.Flush(shutdownCtx); err != nil {
				m.logger.WarnContext(shutdownCtx, "Final flush failed", log.FieldError, err)
			}
			m.logger.InfoContext(shutdownCtx, "Mirror stopped")
			return nil
		case <-ticker.C:
			if m.config.Polling {
				m.markAll()
			}
			if err := m.Flush(ctx); err != nil {
				m.logger.WarnContext(ctx, "Flush failed", log.FieldError, err)
			}
		}
	}
}

func allCollections() []store.Collection {
	return append(append([]store.Collection(nil), store.RecordCollections...), store.Categories)
}
