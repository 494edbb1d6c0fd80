package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics berisi semua custom metrics aplikasi
type Metrics struct {
	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Auth Metrics
	AuthEventsTotal *prometheus.CounterVec

	// Profile Metrics
	ProfileUpdatesTotal *prometheus.CounterVec
	UploadsTotal        *prometheus.CounterVec
	UploadSizeBytes     prometheus.Histogram
	SubjectSelections   prometheus.Counter

	// Rate limiter Metrics
	RateLimitedTotal *prometheus.CounterVec

	// Queue (RabbitMQ) Metrics
	QueueMessagesPublished *prometheus.CounterVec
	QueueMessagesConsumed  *prometheus.CounterVec
	MailDeliveriesTotal    *prometheus.CounterVec
}

// NewMetrics registers every metric on reg. Tests pass prometheus.NewRegistry().
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),

		AuthEventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_events_total",
				Help: "Authentication events by kind and outcome",
			},
			[]string{"event", "result"}, // event: login, register, logout, password_reset_request, password_reset
		),

		ProfileUpdatesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "profile_updates_total",
				Help: "Profile writes by kind and outcome",
			},
			[]string{"kind", "result"}, // kind: details, password, year_level
		),

		UploadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "profile_picture_uploads_total",
				Help: "Profile picture uploads by outcome",
			},
			[]string{"result"},
		),

		UploadSizeBytes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "profile_picture_upload_size_bytes",
				Help:    "Size of accepted profile pictures",
				Buckets: prometheus.ExponentialBuckets(16*1024, 2, 10),
			},
		),

		SubjectSelections: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "subject_selections_saved_total",
				Help: "Number of saved subject selections",
			},
		),

		RateLimitedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rate_limited_requests_total",
				Help: "Requests rejected by the rate limiter",
			},
			[]string{"endpoint"},
		),

		QueueMessagesPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "queue_messages_published_total",
				Help: "Total number of messages published to the queue",
			},
			[]string{"queue_name"},
		),

		QueueMessagesConsumed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "queue_messages_consumed_total",
				Help: "Total number of messages consumed from the queue",
			},
			[]string{"queue_name"},
		),

		MailDeliveriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mail_deliveries_total",
				Help: "Mail deliveries by message type and outcome",
			},
			[]string{"type", "result"},
		),
	}
}

func result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

func (m *Metrics) ObserveAuth(event string, err error) {
	m.AuthEventsTotal.WithLabelValues(event, result(err)).Inc()
}

func (m *Metrics) ObserveProfileUpdate(kind string, err error) {
	m.ProfileUpdatesTotal.WithLabelValues(kind, result(err)).Inc()
}

func (m *Metrics) ObserveUpload(size int64, err error) {
	m.UploadsTotal.WithLabelValues(result(err)).Inc()
	if err == nil {
		m.UploadSizeBytes.Observe(float64(size))
	}
}

func (m *Metrics) ObserveMailDelivery(msgType string, err error) {
	m.MailDeliveriesTotal.WithLabelValues(msgType, result(err)).Inc()
}
