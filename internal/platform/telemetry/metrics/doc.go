// Package metrics provides operational metrics collection.
//
// Metrics are registered on a caller supplied prometheus.Registerer so each
// server (and each test) owns its registry, and are exposed in Prometheus
// text format by Handler.
//
// # Metric Categories
//
//   - Requests: HTTP request counts by route and status
//   - Rendering: section render latency and failures by section kind
//   - Content: rich text nodes that no component recognises
package metrics
