// Package http implements the RPC transport over plain HTTP.
//
// Every request is a POST to /{shardId} carrying the serialized message as
// body; the response body is the serialized reply. The server additionally
// serves GET /metrics in Prometheus text format, so a running fkv node can be
// scraped without a separate listener.
//
// The client picks endpoints round-robin and retries failed requests
// RetryCount times.
package http
