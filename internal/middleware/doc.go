// Package middleware provides the HTTP middleware stack: request IDs,
// structured request logging, panic recovery, rate limiting and request
// metrics.
package middleware
