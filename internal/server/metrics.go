package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	overflow *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telop_requests_total",
				Help: "Total number of API requests by route and status code",
			},
			[]string{"route", "code"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "telop_render_duration_seconds",
				Help:    "Duration of layout plus rasterization",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
			},
			[]string{"format"},
		),
		overflow: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telop_overflow_total",
				Help: "Rendered lines or blocks that exceeded the canvas",
			},
			[]string{"block"},
		),
	}
	reg.MustRegister(m.requests, m.duration, m.overflow)
	return m
}
