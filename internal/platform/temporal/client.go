// Package temporal dials the Temporal frontend with tracing and structured logging attached.
package temporal

import (
	"errors"
	"log/slog"

	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"

	platformobservability "github.com/Apurer/go-order-console/internal/platform/observability"
)

// ErrDisabled is returned by Dial when Temporal is switched off in configuration.
var ErrDisabled = errors.New("temporal disabled via TEMPORAL_DISABLED")

// Settings addresses the Temporal namespace.
type Settings struct {
	Address   string
	Namespace string
	Disabled  bool
}

// Options builds client options for settings; tracerName names the span source.
func Options(settings Settings, instruments *platformobservability.Instruments, tracerName string) (client.Options, error) {
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(temporalotel.TracerOptions{
		Tracer: instruments.Tracer(tracerName),
	})
	if err != nil {
		return client.Options{}, err
	}
	address := settings.Address
	if address == "" {
		address = client.DefaultHostPort
	}
	namespace := settings.Namespace
	if namespace == "" {
		namespace = client.DefaultNamespace
	}
	logger := slog.Default()
	if instruments != nil && instruments.Logger != nil {
		logger = instruments.Logger
	}
	options := client.Options{
		HostPort:  address,
		Namespace: namespace,
		Logger:    workerlog.NewStructuredLogger(logger),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return options, nil
}

// Dial connects a client, or returns ErrDisabled.
func Dial(settings Settings, instruments *platformobservability.Instruments, tracerName string) (client.Client, error) {
	if settings.Disabled {
		return nil, ErrDisabled
	}
	options, err := Options(settings, instruments, tracerName)
	if err != nil {
		return nil, err
	}
	return client.Dial(options)
}
