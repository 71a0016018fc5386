// Package metrics records normalization run metrics.
//
// Components receive a Recorder and default to NoopRecorder, so metrics stay
// optional without nil checks at call sites:
//
//	recorder := metrics.Recorder(metrics.NoopRecorder{})
//	if cfg.Metrics.Textfile != "" {
//	    recorder = metrics.NewPrometheusRecorder(prom.NewRegistry())
//	}
//
// PrometheusRecorder can dump its registry in the text exposition format for
// the node_exporter textfile collector, or serve it over HTTP while the
// watcher is running.
package metrics
