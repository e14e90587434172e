package postgres

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultPollInterval = 2 * time.Second

// sentinelRecord maps a sentinel key to a relational row. Version grows on every write,
// so rewriting an unchanged value is still observed.
type sentinelRecord struct {
	Key       string    `gorm:"primaryKey;column:key;size:128"`
	Value     string    `gorm:"column:value"`
	Version   int64     `gorm:"column:version"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (sentinelRecord) TableName() string { return "catalog_sentinels" }

// SentinelStore keeps sentinel keys in PostgreSQL and polls them for watchers.
type SentinelStore struct {
	db       *gorm.DB
	interval time.Duration
	logger   *slog.Logger
}

type SentinelOption func(*SentinelStore)

// WithPollInterval sets how often watchers look for new writes.
func WithPollInterval(interval time.Duration) SentinelOption {
	return func(s *SentinelStore) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

func WithLogger(logger *slog.Logger) SentinelOption {
	return func(s *SentinelStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSentinelStore wires a PostgreSQL-backed sentinel store. Caller manages DB lifecycle
// and runs the schema migrations.
func NewSentinelStore(db *gorm.DB, opts ...SentinelOption) *SentinelStore {
	s := &SentinelStore{db: db, interval: defaultPollInterval, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SentinelStore) Set(ctx context.Context, key, value string) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	record := sentinelRecord{Key: key, Value: value, Version: 1, UpdatedAt: time.Now().UTC()}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "key"}},
			DoUpdates: clause.Assignments(map[string]any{
				"value":      record.Value,
				"version":    gorm.Expr("catalog_sentinels.version + 1"),
				"updated_at": gorm.Expr("NOW()"),
			}),
		}).Create(&record).Error
}

// Get reads the current value of key.
func (s *SentinelStore) Get(ctx context.Context, key string) (string, int64, error) {
	if err := s.ensureDB(); err != nil {
		return "", 0, err
	}
	var record sentinelRecord
	if err := s.db.WithContext(ctx).First(&record, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", 0, nil
		}
		return "", 0, err
	}
	return record.Value, record.Version, nil
}

// Watch polls key and calls onChange for every write made after Watch returned.
func (s *SentinelStore) Watch(ctx context.Context, key string, onChange func(string)) (func(), error) {
	_, seen, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	pollCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-pollCtx.Done():
				return
			case <-ticker.C:
				value, version, err := s.Get(pollCtx, key)
				if err != nil {
					if pollCtx.Err() == nil {
						s.logger.LogAttrs(pollCtx, slog.LevelWarn, "catalog sentinel poll failed", slog.String("error", err.Error()))
					}
					continue
				}
				if version != seen {
					seen = version
					onChange(value)
				}
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			wg.Wait()
		})
	}, nil
}

func (s *SentinelStore) Ping(ctx context.Context) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *SentinelStore) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("sentinel store not configured")
	}
	return nil
}
