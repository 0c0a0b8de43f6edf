// Package metrics exposes Prometheus telemetry for the launcher: session
// pool churn, RTP forwarding volume and pipeline errors. The HTTP endpoint
// is opt-in via --metrics-addr.
package metrics
