// Package observability provides structured logging and Prometheus metrics
// for the learning platform API.
//
// This package implements:
//   - zap logger construction from configuration
//   - HTTP request metrics middleware
//   - Auth gate decision counters
package observability
