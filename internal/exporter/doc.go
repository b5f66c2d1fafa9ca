// Package exporter writes filtered row streams to CSV, either as chunked
// files routed across an ordered destination list or as one encoded byte
// stream for direct download. Output files carry a UTF-8 byte-order
// marker, the header row, CRLF line endings and minimal quoting.
package exporter
