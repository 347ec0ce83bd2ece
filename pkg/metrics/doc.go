// Package metrics defines and registers μNet's Prometheus metrics:
// node/link/location inventory gauges, poll outcome counters, policy
// evaluation counters, loader cache hit/miss counters, and storage
// operation timings. Metrics register themselves at package init via
// prometheus.MustRegister; nothing in this package serves them over
// HTTP, since μNet exposes no network API (spec.md §1).
package metrics
