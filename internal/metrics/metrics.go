package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BarsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "bars_total", Help: "Closed bars processed"},
	)
	ZonesDetected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "zones_detected_total", Help: "Zones emitted by the detector"},
		[]string{"direction"},
	)
	ZonesPurged = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "zones_purged_total", Help: "Zones evicted from the registry"},
		[]string{"reason"},
	)
	ZonesDropped = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "zones_dropped_total", Help: "Zones dropped because the registry was full"},
	)
	OrdersSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_total", Help: "Orders submitted to the gateway"},
		[]string{"side"},
	)
	OrdersRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_rejected_total", Help: "Entry signals rejected before or at the gateway"},
		[]string{"reason"},
	)
	StopModifies = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "stop_modifies_total", Help: "Trailing stop modifications applied"},
	)
	PartialCloses = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "partial_closes_total", Help: "Partial position closes executed"},
	)
)

func init() {
	prometheus.MustRegister(
		BarsTotal, ZonesDetected, ZonesPurged, ZonesDropped,
		OrdersSubmitted, OrdersRejected, StopModifies, PartialCloses,
	)
}

// Serve exposes /metrics on the given address in the background.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
