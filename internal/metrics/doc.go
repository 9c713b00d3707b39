// Package metrics records apply and destroy outcomes as Prometheus metrics.
//
// A CLI run is too short-lived to be scraped, so a Recorder owns its own
// registry and can push it to a Pushgateway once the run is done.
package metrics
