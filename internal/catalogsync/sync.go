// Package catalogsync tells other live page instances that the product catalog changed.
//
// Two transports are supported. A broadcast channel carries {"type":"refresh"} messages;
// when the channel is unreachable or a publish on it fails, a sentinel key holding the
// time of the last change is written to a shared store whose watchers fire on every
// write. Delivery is best-effort and fire-and-forget: publishing never fails or waits on
// the receivers, and instances that miss a message still refetch when they regain focus.
package catalogsync

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// ChannelName is the broadcast channel shared by every page instance.
	ChannelName = "productCatalog"
	// SentinelKey holds the timestamp of the last catalog change.
	SentinelKey = "productCatalogUpdated"
	// MessageTypeRefresh asks subscribers to refetch the catalog.
	MessageTypeRefresh = "refresh"
)

// Message is the broadcast payload.
type Message struct {
	Type   string `json:"type"`
	Origin string `json:"origin,omitempty"`
	// Source names the page that made the change, when known.
	Source string `json:"source,omitempty"`
}

type sourceKey struct{}

// WithSource tags ctx with the page making a catalog change. Handlers receive the tag
// back through SourceFrom so a page can skip refetching after its own change.
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, sourceKey{}, source)
}

// SourceFrom returns the page tag carried by ctx, or "".
func SourceFrom(ctx context.Context) string {
	source, _ := ctx.Value(sourceKey{}).(string)
	return source
}

// Channel is a named broadcast channel. Subscribers receive every payload published
// on the channel, including their own.
type Channel interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string, deliver func(payload []byte)) (unsubscribe func(), err error)
}

// SentinelStore is a shared key-value store whose watchers observe every write.
type SentinelStore interface {
	Set(ctx context.Context, key, value string) error
	Watch(ctx context.Context, key string, onChange func(value string)) (stop func(), err error)
}

// Pinger is implemented by transports that can report whether they are reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler refetches the catalog. Handlers run on their own goroutine and must not
// publish a change themselves.
type Handler func(ctx context.Context)

// Transport names the mechanism chosen at startup.
type Transport string

const (
	TransportChannel  Transport = "channel"
	TransportSentinel Transport = "sentinel"
	TransportNone     Transport = "none"
)

// Sync fans catalog changes out to other instances and in to local handlers.
type Sync struct {
	origin  string
	channel Channel
	store   SentinelStore
	logger  *slog.Logger
	now     func() time.Time

	mu          sync.Mutex
	transport   Transport
	handlers    map[uint64]Handler
	nextID      uint64
	lastWritten string
	stop        func()
}

// Option customises a Sync.
type Option func(*Sync)

func WithChannel(channel Channel) Option {
	return func(s *Sync) { s.channel = channel }
}

func WithSentinelStore(store SentinelStore) Option {
	return func(s *Sync) { s.store = store }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Sync) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Sync) {
		if now != nil {
			s.now = now
		}
	}
}

// New builds an idle Sync; call Start to pick and attach a transport.
func New(opts ...Option) *Sync {
	s := &Sync{
		origin:    uuid.NewString(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:       time.Now,
		transport: TransportNone,
		handlers:  map[uint64]Handler{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Origin identifies this instance in the messages it publishes.
func (s *Sync) Origin() string { return s.origin }

// Transport reports the mechanism picked by Start.
func (s *Sync) Transport() Transport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transport
}

// Start attaches to every reachable transport. The broadcast channel is preferred for
// publishing; the sentinel store is watched as well so changes written there after a
// failed broadcast still arrive. With neither attached, only focus refetches remain and
// the attach errors are returned.
func (s *Sync) Start(ctx context.Context) error {
	var (
		stops     []func()
		errs      []error
		transport = TransportNone
	)
	if s.channel != nil && reachable(ctx, s.channel) {
		if stop, err := s.channel.Subscribe(ctx, ChannelName, s.receive); err != nil {
			s.logger.LogAttrs(ctx, slog.LevelWarn, "catalog broadcast channel unavailable", slog.String("error", err.Error()))
			errs = append(errs, err)
		} else {
			stops = append(stops, stop)
			transport = TransportChannel
		}
	}
	if s.store != nil && reachable(ctx, s.store) {
		if stop, err := s.store.Watch(ctx, SentinelKey, s.observe); err != nil {
			s.logger.LogAttrs(ctx, slog.LevelWarn, "catalog sentinel store unavailable", slog.String("error", err.Error()))
			errs = append(errs, err)
		} else {
			stops = append(stops, stop)
			if transport == TransportNone {
				transport = TransportSentinel
			}
		}
	}
	s.mu.Lock()
	s.transport = transport
	s.stop = func() {
		for _, stop := range stops {
			if stop != nil {
				stop()
			}
		}
	}
	s.mu.Unlock()
	s.logger.LogAttrs(ctx, slog.LevelInfo, "catalog sync started", slog.String("transport", string(transport)))
	if transport == TransportNone {
		return errors.Join(errs...)
	}
	return nil
}

// Close detaches from the transport. Handlers stay registered but are no longer called by it.
func (s *Sync) Close() {
	s.mu.Lock()
	stop := s.stop
	s.stop = nil
	s.transport = TransportNone
	s.mu.Unlock()
	if stop != nil {
		stop()
	}
}

// PublishCatalogChanged notifies other instances. A failed broadcast falls back to the
// sentinel store when one is configured. Failures are logged and swallowed.
func (s *Sync) PublishCatalogChanged(ctx context.Context) {
	switch s.Transport() {
	case TransportChannel:
		payload, _ := json.Marshal(Message{Type: MessageTypeRefresh, Origin: s.origin, Source: SourceFrom(ctx)})
		if err := s.channel.Publish(ctx, ChannelName, payload); err != nil {
			s.logger.LogAttrs(ctx, slog.LevelWarn, "catalog change broadcast failed", slog.String("error", err.Error()))
			if s.store != nil {
				s.writeSentinel(ctx)
			}
		}
	case TransportSentinel:
		s.writeSentinel(ctx)
	default:
		s.logger.LogAttrs(ctx, slog.LevelDebug, "catalog change not shared; no transport")
	}
}

func (s *Sync) writeSentinel(ctx context.Context) {
	value := s.now().UTC().Format(time.RFC3339Nano)
	s.mu.Lock()
	s.lastWritten = value
	s.mu.Unlock()
	if err := s.store.Set(ctx, SentinelKey, value); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "catalog change sentinel write failed", slog.String("error", err.Error()))
	}
}

// OnCatalogChanged registers a handler for changes made by other instances.
func (s *Sync) OnCatalogChanged(handler Handler) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.handlers[id] = handler
	s.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.handlers, id)
			s.mu.Unlock()
		})
	}
}

func reachable(ctx context.Context, transport any) bool {
	pinger, ok := transport.(Pinger)
	if !ok {
		return true
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return pinger.Ping(ctx) == nil
}

func (s *Sync) receive(payload []byte) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		s.logger.LogAttrs(context.Background(), slog.LevelDebug, "ignoring malformed catalog message", slog.String("error", err.Error()))
		return
	}
	if msg.Type != MessageTypeRefresh || msg.Origin == s.origin {
		return
	}
	s.dispatch(WithSource(context.Background(), msg.Source))
}

func (s *Sync) observe(value string) {
	s.mu.Lock()
	own := value != "" && value == s.lastWritten
	s.mu.Unlock()
	if own {
		return
	}
	s.dispatch(context.Background())
}

// dispatch starts every handler on its own goroutine so a slow refetch never holds up
// the transport or the publisher sharing it.
func (s *Sync) dispatch(ctx context.Context) {
	s.mu.Lock()
	handlers := make([]Handler, 0, len(s.handlers))
	for _, h := range s.handlers {
		handlers = append(handlers, h)
	}
	s.mu.Unlock()
	for _, h := range handlers {
		go h(ctx)
	}
}
