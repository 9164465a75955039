package engine

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

type engineMetrics struct {
	sessionsStarted   metric.Int64Counter
	chunksSynthesized metric.Int64Counter
	synthFailures     metric.Int64Counter
	chunksPlayed      metric.Int64Counter
	synthDuration     metric.Float64Histogram
}

func newEngineMetrics(log *slog.Logger) *engineMetrics {
	meter := otel.Meter("github.com/voxlabs/vox-core/engine")
	m := &engineMetrics{}
	var err error
	if m.sessionsStarted, err = meter.Int64Counter("vox.sessions.started", metric.WithDescription("Speak sessions started")); err != nil {
		log.Warn("metric registration failed", slog.String("metric", "vox.sessions.started"))
	}
	if m.chunksSynthesized, err = meter.Int64Counter("vox.chunks.synthesized", metric.WithDescription("Chunks synthesized successfully")); err != nil {
		log.Warn("metric registration failed", slog.String("metric", "vox.chunks.synthesized"))
	}
	if m.synthFailures, err = meter.Int64Counter("vox.synth.failures", metric.WithDescription("Chunk synthesis failures")); err != nil {
		log.Warn("metric registration failed", slog.String("metric", "vox.synth.failures"))
	}
	if m.chunksPlayed, err = meter.Int64Counter("vox.chunks.played", metric.WithDescription("Chunks played to completion")); err != nil {
		log.Warn("metric registration failed", slog.String("metric", "vox.chunks.played"))
	}
	if m.synthDuration, err = meter.Float64Histogram("vox.synth.duration_seconds", metric.WithDescription("Per-chunk synthesis latency")); err != nil {
		log.Warn("metric registration failed", slog.String("metric", "vox.synth.duration_seconds"))
	}
	return m
}

func (m *engineMetrics) recordSynth(elapsed time.Duration) {
	ctx := context.Background()
	if m.chunksSynthesized != nil {
		m.chunksSynthesized.Add(ctx, 1)
	}
	if m.synthDuration != nil {
		m.synthDuration.Record(ctx, elapsed.Seconds())
	}
}
