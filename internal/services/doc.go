// Package services orchestrates the request-scoped pipelines: decoding
// wire selections, opening one source scan per request, and handing the
// filtered stream to the exporter or the aggregator.
package services
