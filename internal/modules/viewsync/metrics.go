package viewsync

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/saransh1220/notification-sync/internal/modules/notification/domain"
)

// Metrics are the view sync collectors. A nil *Metrics records nothing.
type Metrics struct {
	pushes          *prometheus.CounterVec
	fetches         *prometheus.CounterVec
	fetchDuration   *prometheus.HistogramVec
	staleFetches    prometheus.Counter
	acks            *prometheus.CounterVec
	connectAttempts *prometheus.CounterVec
	retryDelay      prometheus.Histogram
	connectionState *prometheus.GaugeVec
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		pushes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "viewsync_push_messages_total",
			Help: "Pushed notifications by reconcile outcome.",
		}, []string{"disposition"}),
		fetches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "viewsync_fetches_total",
			Help: "Page fetches by query and result.",
		}, []string{"query", "result"}),
		fetchDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "viewsync_fetch_duration_seconds",
			Help:    "Duration of page fetches in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"query"}),
		staleFetches: f.NewCounter(prometheus.CounterOpts{
			Name: "viewsync_stale_fetches_total",
			Help: "Fetch responses discarded because the view changed.",
		}),
		acks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "viewsync_mark_read_total",
			Help: "Mark-as-read acknowledgements by result.",
		}, []string{"result"}),
		connectAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "viewsync_connect_attempts_total",
			Help: "Push stream connect attempts by result.",
		}, []string{"result"}),
		retryDelay: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "viewsync_reconnect_delay_seconds",
			Help:    "Scheduled reconnect delays in seconds.",
			Buckets: []float64{1, 5, 10, 20, 40, 60, 120},
		}),
		connectionState: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "viewsync_connection_state",
			Help: "1 for the current push connection state, 0 otherwise.",
		}, []string{"state"}),
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) observePush(d Disposition) {
	if m == nil {
		return
	}
	m.pushes.WithLabelValues(d.String()).Inc()
}

func (m *Metrics) observeFetch(q domain.QueryKind, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(q.String(), outcome(err)).Inc()
	m.fetchDuration.WithLabelValues(q.String()).Observe(elapsed.Seconds())
}

func (m *Metrics) staleFetch() {
	if m == nil {
		return
	}
	m.staleFetches.Inc()
}

func (m *Metrics) observeAck(err error) {
	if m == nil {
		return
	}
	m.acks.WithLabelValues(outcome(err)).Inc()
}

func (m *Metrics) observeConnect(err error) {
	if m == nil {
		return
	}
	m.connectAttempts.WithLabelValues(outcome(err)).Inc()
}

func (m *Metrics) observeRetry(delay time.Duration) {
	if m == nil {
		return
	}
	m.retryDelay.Observe(delay.Seconds())
}

func (m *Metrics) setState(state State) {
	if m == nil {
		return
	}
	for _, s := range allStates {
		v := 0.0
		if s == state {
			v = 1
		}
		m.connectionState.WithLabelValues(s.String()).Set(v)
	}
}
