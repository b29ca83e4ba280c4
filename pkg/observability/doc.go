/*
Package observability turns runtime lifecycle hooks into signals.

Metrics exposes Prometheus counters for created cases, transitions, rejections and
composed notifications. LoggingHooks writes the same events to a structured logger.
Both return domain.LifecycleHooks and can be combined with domain.Merge.
*/
package observability
