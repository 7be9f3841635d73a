package overlay

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/GormazAR/overlay/internal/pool"
)

const instrumentationName = "github.com/GormazAR/overlay/internal/overlay"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

type metrics struct {
	batches    metric.Int64Counter
	suppressed metric.Int64Counter
	created    metric.Int64Counter
	destroyed  metric.Int64Counter
	toggles    metric.Int64Counter
}

func newMetrics() (*metrics, error) {
	m := meter()
	out := &metrics{}

	var err error
	out.batches, err = m.Int64Counter(
		"overlay.batches.processed",
		metric.WithDescription("Tracking batches reconciled"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating batches counter: %w", err)
	}

	out.suppressed, err = m.Int64Counter(
		"overlay.batches.suppressed",
		metric.WithDescription("Tracking batches ignored while an overlay is pinned"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating suppressed counter: %w", err)
	}

	out.created, err = m.Int64Counter(
		"overlay.instances.created",
		metric.WithDescription("Overlays instantiated"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating created counter: %w", err)
	}

	out.destroyed, err = m.Int64Counter(
		"overlay.instances.destroyed",
		metric.WithDescription("Overlays destroyed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating destroyed counter: %w", err)
	}

	out.toggles, err = m.Int64Counter(
		"overlay.pin.toggles",
		metric.WithDescription("Pin toggle triggers"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating toggles counter: %w", err)
	}

	return out, nil
}

func poolAttr(id pool.ID) metric.AddOption {
	return metric.WithAttributes(attribute.String("pool", string(id)))
}
