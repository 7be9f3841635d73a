package dispatcher

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/GormazAR/overlay/internal/dispatcher"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

type metrics struct {
	queueSize metric.Int64ObservableGauge
	processed metric.Int64Counter
	dropped   metric.Int64Counter
}

// newMetrics creates the dispatcher instruments on the global meter, which
// is a no-op until a provider is installed. observe reports queue depths.
func newMetrics(observe func(func(command string, depth int))) (*metrics, error) {
	m := meter()
	var (
		out metrics
		err error
	)

	if out.queueSize, err = m.Int64ObservableGauge("dispatcher.queue.size",
		metric.WithDescription("Events waiting in a buffered command queue")); err != nil {
		return nil, fmt.Errorf("queue size gauge: %w", err)
	}
	if _, err = m.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		observe(func(command string, depth int) {
			o.ObserveInt64(out.queueSize, int64(depth), commandAttr(command))
		})
		return nil
	}, out.queueSize); err != nil {
		return nil, fmt.Errorf("queue size callback: %w", err)
	}

	if out.processed, err = m.Int64Counter("dispatcher.events.processed",
		metric.WithDescription("Buffered events handled")); err != nil {
		return nil, fmt.Errorf("processed counter: %w", err)
	}
	if out.dropped, err = m.Int64Counter("dispatcher.events.dropped",
		metric.WithDescription("Buffered events rejected by a full queue")); err != nil {
		return nil, fmt.Errorf("dropped counter: %w", err)
	}
	return &out, nil
}

func commandAttr(command string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("command", command))
}
