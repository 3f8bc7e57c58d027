package backend

import (
	"context"
	"errors"
	"fmt"

	"fincontrol/internal/amqp"
	"fincontrol/internal/core"
	"fincontrol/internal/log"
	"fincontrol/internal/storage"
	"fincontrol/internal/storage/file"
	"fincontrol/internal/storage/memory"
	"fincontrol/internal/storage/sqlite"
	"fincontrol/internal/store"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{logger: logger}
}

// OpenKV implements Factory.OpenKV
func (f *DefaultFactory) OpenKV(config Config) (storage.KV, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case MemoryBackend:
		f.logger.Warn("Using memory backend, data is lost on exit")
		return memory.New(config.QuotaBytes), nil
	case FileBackend:
		kv, err := file.New(config.DataDirectory, config.QuotaBytes)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize file storage: %w", err)
		}
		f.logger.Info("Initialized file backend", "data_directory", config.DataDirectory)
		return kv, nil
	case SQLiteBackend:
		kv, err := sqlite.New(config.SQLiteDBPath, config.QuotaBytes)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite storage: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return kv, nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	kv, err := f.OpenKV(config)
	if err != nil {
		return nil, err
	}

	opts := []store.Option{store.WithLogger(f.logger)}
	if config.Locale != "" {
		loc, err := core.ParseLocale(config.Locale)
		if err != nil {
			kv.Close()
			return nil, err
		}
		opts = append(opts, store.WithLocale(loc))
	}

	s, err := store.Open(ctx, kv, opts...)
	if err != nil {
		kv.Close()
		return nil, fmt.Errorf("failed to open record store: %w", err)
	}

	result := &BackendResult{Store: s, Cleanup: s.Close}

	// Publishing is best effort; the store works without a broker.
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without change events", log.FieldError, err)
		} else {
			s.Subscribe(client)
			result.Publishing = true
			result.Cleanup = func() error {
				return errors.Join(client.Close(), s.Close())
			}
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	return result, nil
}
