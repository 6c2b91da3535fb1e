// Package observability wires OpenTelemetry tracing and metrics for
// poolstream.
//
// Nothing here is required: with no provider installed the global otel
// providers are no-ops, spans are not recorded and instruments drop values.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("reports"))
//	defer tp.Shutdown(ctx)
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("reports"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewPoolMetrics(observability.Meter("workpool"))
//	pool, err := workpool.New(cfg, workpool.WithMetrics(metrics))
package observability
