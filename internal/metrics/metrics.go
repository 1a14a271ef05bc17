package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the item registry and its
// notification dispatcher. A nil *Metrics is valid and records nothing.
type Metrics struct {
	ItemsListed       prometheus.Counter
	Transitions       *prometheus.CounterVec
	Rejections        *prometheus.CounterVec
	SettledValue      prometheus.Counter
	RefundedValue     prometheus.Counter
	OperationDuration *prometheus.HistogramVec
	Published         *prometheus.CounterVec
	PublishFailures   *prometheus.CounterVec
	QueueDepth        prometheus.Gauge
}

// New registers all registry metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ItemsListed: factory.NewCounter(prometheus.CounterOpts{
			Name: "supplychain_items_listed_total",
			Help: "Total number of items listed for sale",
		}),
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "supplychain_item_transitions_total",
			Help: "Successful item state transitions by target state",
		}, []string{"state"}),
		Rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "supplychain_operation_rejections_total",
			Help: "Operations rejected by a guard or settlement, by reason",
		}, []string{"operation", "reason"}),
		SettledValue: factory.NewCounter(prometheus.CounterOpts{
			Name: "supplychain_settled_value_total",
			Help: "Sum of item prices paid to sellers",
		}),
		RefundedValue: factory.NewCounter(prometheus.CounterOpts{
			Name: "supplychain_refunded_value_total",
			Help: "Sum of overpayments returned to buyers",
		}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "supplychain_operation_duration_seconds",
			Help:    "Duration of registry operations",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"operation"}),
		Published: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "supplychain_notifications_published_total",
			Help: "Notifications delivered per sink",
		}, []string{"sink"}),
		PublishFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "supplychain_notification_failures_total",
			Help: "Notifications a sink failed to accept",
		}, []string{"sink"}),
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "supplychain_notification_queue_depth",
			Help: "Notifications waiting for the dispatcher",
		}),
	}
}

func (m *Metrics) IncrementItemsListed() {
	if m == nil {
		return
	}
	m.ItemsListed.Inc()
}

func (m *Metrics) IncrementTransition(state string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(state).Inc()
}

func (m *Metrics) IncrementRejection(operation, reason string) {
	if m == nil {
		return
	}
	m.Rejections.WithLabelValues(operation, reason).Inc()
}

// AddSettlement records the value moved by one purchase.
func (m *Metrics) AddSettlement(price, overage uint64) {
	if m == nil {
		return
	}
	m.SettledValue.Add(float64(price))
	m.RefundedValue.Add(float64(overage))
}

// ObserveOperation records the duration of a registry operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	if m == nil {
		return
	}
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementPublished(sink string) {
	if m == nil {
		return
	}
	m.Published.WithLabelValues(sink).Inc()
}

func (m *Metrics) IncrementPublishFailure(sink string) {
	if m == nil {
		return
	}
	m.PublishFailures.WithLabelValues(sink).Inc()
}

func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(n))
}
