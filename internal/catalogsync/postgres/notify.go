// Package postgres shares catalog changes between console processes through PostgreSQL:
// LISTEN/NOTIFY as the broadcast channel and a sentinel table as the fallback store.
package postgres

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

const (
	minReconnectInterval = time.Second
	maxReconnectInterval = time.Minute
	listenerPingInterval = 90 * time.Second
)

// Channel publishes with pg_notify on the shared pool and subscribes with a dedicated lib/pq listener connection.
type Channel struct {
	db     *gorm.DB
	dsn    string
	logger *slog.Logger
}

// NewChannel needs the DSN as well as the pool because listeners hold their own connection.
func NewChannel(db *gorm.DB, dsn string, logger *slog.Logger) *Channel {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Channel{db: db, dsn: dsn, logger: logger}
}

func (c *Channel) Publish(ctx context.Context, channel string, payload []byte) error {
	if c == nil || c.db == nil {
		return errors.New("postgres channel not configured")
	}
	return c.db.WithContext(ctx).Exec("SELECT pg_notify(?, ?)", channel, string(payload)).Error
}

func (c *Channel) Subscribe(ctx context.Context, channel string, deliver func([]byte)) (func(), error) {
	if c == nil || c.dsn == "" {
		return nil, errors.New("postgres channel not configured")
	}
	listener := pq.NewListener(c.dsn, minReconnectInterval, maxReconnectInterval, func(event pq.ListenerEventType, err error) {
		if err != nil {
			c.logger.LogAttrs(ctx, slog.LevelWarn, "catalog listener event", slog.Int("event", int(event)), slog.String("error", err.Error()))
		}
	})
	if err := listener.Listen(channel); err != nil {
		_ = listener.Close()
		return nil, err
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(listenerPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case n, ok := <-listener.Notify:
				if !ok {
					return
				}
				// nil after a reconnect; notifications sent while disconnected are lost.
				if n == nil {
					continue
				}
				deliver([]byte(n.Extra))
			case <-ticker.C:
				if err := listener.Ping(); err != nil {
					c.logger.LogAttrs(ctx, slog.LevelWarn, "catalog listener ping failed", slog.String("error", err.Error()))
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			wg.Wait()
			_ = listener.Close()
		})
	}, nil
}

func (c *Channel) Ping(ctx context.Context) error {
	if c == nil || c.db == nil {
		return errors.New("postgres channel not configured")
	}
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
