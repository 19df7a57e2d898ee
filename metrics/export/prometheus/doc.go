// Package prometheus renders goAuthz engine metrics in Prometheus text
// exposition format.
//
// [NewPrometheusExporter] accepts a [goAuthz.Engine] and exposes an [http.Handler].
// Counter names are prefixed goauthz_*_total; the single histogram is
// goauthz_authorize_latency_seconds. Notifications lost to a full dispatch
// queue are reported as goauthz_dispatch_dropped_total.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry. Callers mount the Handler.
//   - Mutate engine state.
package prometheus
