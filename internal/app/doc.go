// Package app wires configuration, services and the HTTP surface into
// a runnable server with graceful shutdown.
package app
