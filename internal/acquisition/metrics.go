package acquisition

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"shield_go/internal/models"
	"shield_go/pkg/logger"
)

const meterName = "shield_go/acquisition"

// controllerMetrics agrupa os contadores do laço de aquisição.
// Instrumentos que falham na criação viram no-op.
type controllerMetrics struct {
	ticks          metric.Int64Counter
	failures       metric.Int64Counter
	staleDiscarded metric.Int64Counter
}

func newControllerMetrics(provider metric.MeterProvider) *controllerMetrics {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(meterName)

	m := &controllerMetrics{}
	var err error

	m.ticks, err = meter.Int64Counter("shield.acquisition.ticks",
		metric.WithDescription("Leituras concluídas pelas fontes de aquisição"),
		metric.WithUnit("{tick}"),
	)
	if err != nil {
		logger.Warnf("Erro ao criar contador de ticks: %v", err)
	}

	m.failures, err = meter.Int64Counter("shield.acquisition.failures",
		metric.WithDescription("Leituras que falharam"),
		metric.WithUnit("{tick}"),
	)
	if err != nil {
		logger.Warnf("Erro ao criar contador de falhas: %v", err)
	}

	m.staleDiscarded, err = meter.Int64Counter("shield.acquisition.stale_discarded",
		metric.WithDescription("Resultados descartados por pertencerem a uma época anterior"),
		metric.WithUnit("{tick}"),
	)
	if err != nil {
		logger.Warnf("Erro ao criar contador de descartes: %v", err)
	}

	return m
}

func modeAttr(mode models.Mode) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("mode", string(mode)))
}

func (m *controllerMetrics) tick(ctx context.Context, mode models.Mode) {
	if m.ticks != nil {
		m.ticks.Add(ctx, 1, modeAttr(mode))
	}
}

func (m *controllerMetrics) failure(ctx context.Context, mode models.Mode) {
	if m.failures != nil {
		m.failures.Add(ctx, 1, modeAttr(mode))
	}
}

func (m *controllerMetrics) stale(ctx context.Context, mode models.Mode) {
	if m.staleDiscarded != nil {
		m.staleDiscarded.Add(ctx, 1, modeAttr(mode))
	}
}
