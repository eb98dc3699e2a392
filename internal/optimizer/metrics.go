package optimizer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// operationDuration tracks the time taken by each service operation.
	operationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "grocery_operation_duration_seconds",
		Help:    "Time taken by service operations, including the snapshot read",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.2, 0.5, 1, 2},
	}, []string{"operation"}) // closest, compare, route, fulfill, snack, nutrition

	// operationErrors tracks failed operations by error code.
	operationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "grocery_operation_errors_total",
		Help: "Total number of failed operations by operation and error code",
	}, []string{"operation", "code"})

	// offersConsidered tracks the number of offers fed into ranking.
	offersConsidered = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "grocery_offers_considered_count",
		Help:    "Number of catalog offers considered per ranking call",
		Buckets: []float64{0, 1, 5, 10, 20, 50, 100, 500},
	}, []string{"operation"})

	// listSize tracks the distribution of planned list sizes.
	listSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "grocery_list_items_count",
		Help:    "Number of distinct items in planned or aggregated lists",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200},
	})

	// unfulfillableItems tracks items the planner could not place, by reason.
	unfulfillableItems = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "grocery_unfulfillable_items_total",
		Help: "Total number of list items without a surviving offer",
	}, []string{"reason"})

	// selectedStoreDistance tracks the distance to the winning store.
	selectedStoreDistance = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "grocery_selected_store_distance_km",
		Help:    "Distance to the selected store in kilometers",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 50},
	}, []string{"operation"})
)

// MetricsRecorder provides methods to record service metrics.
type MetricsRecorder struct{}

// NewMetricsRecorder creates a new metrics recorder.
func NewMetricsRecorder() *MetricsRecorder {
	return &MetricsRecorder{}
}

// RecordOperation records the duration and outcome of an operation.
func (m *MetricsRecorder) RecordOperation(op string, duration time.Duration, code string) {
	operationDuration.WithLabelValues(op).Observe(duration.Seconds())
	if code != "" {
		operationErrors.WithLabelValues(op, code).Inc()
	}
}

// RecordOffersConsidered records the number of offers ranked.
func (m *MetricsRecorder) RecordOffersConsidered(op string, count int) {
	offersConsidered.WithLabelValues(op).Observe(float64(count))
}

// RecordListSize records the number of distinct items on a list.
func (m *MetricsRecorder) RecordListSize(size int) {
	listSize.Observe(float64(size))
}

// RecordUnfulfillable records one item the planner could not place.
func (m *MetricsRecorder) RecordUnfulfillable(reason string) {
	unfulfillableItems.WithLabelValues(reason).Inc()
}

// RecordSelectedDistance records the distance to a winning store.
func (m *MetricsRecorder) RecordSelectedDistance(op string, distanceKm float64) {
	selectedStoreDistance.WithLabelValues(op).Observe(distanceKm)
}
