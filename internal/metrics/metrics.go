package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "textile_http_requests_total",
		Help: "Total HTTP requests by method, path and status code",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "textile_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	ReservationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "textile_bale_reservations_total",
		Help: "Bales successfully reserved onto checklists",
	})

	ReservationConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "textile_bale_reservation_conflicts_total",
		Help: "Batch reservations rejected because a bale was ineligible or lost a race",
	})

	ChecklistTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "textile_checklist_transitions_total",
		Help: "Checklist lifecycle transitions by target status",
	}, []string{"to"})

	ShipmentTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "textile_shipment_transitions_total",
		Help: "Shipment status transitions by target status",
	}, []string{"to"})
)
