package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// Order counters
	OrderPlacedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shop_orders_placed_total",
			Help: "Total number of successfully placed orders",
		},
	)

	OrderErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shop_order_errors_total",
			Help: "Total number of rejected order placements",
		},
		[]string{"type"}, // type can be "empty_order", "insufficient_stock", "product_not_found" etc.
	)

	// Running revenue of placed orders
	RevenueCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shop_order_revenue_total",
			Help: "Cumulative revenue of placed orders",
		},
	)

	OrderStatusCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shop_order_status_transitions_total",
			Help: "Total number of admin order status transitions",
		},
		[]string{"status"},
	)

	// Auth counters
	LoginCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shop_login_total",
			Help: "Total number of login attempts",
		},
	)

	RegisterCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shop_register_total",
			Help: "Total number of user registrations",
		},
	)

	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shop_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"}, // type can be "invalid_credentials", "invalid_token", "forbidden" etc.
	)

	ReviewCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shop_reviews_total",
			Help: "Total number of submitted product reviews",
		},
	)

	EmailCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shop_emails_total",
			Help: "Total number of notification emails by event and outcome",
		},
		[]string{"event", "outcome"},
	)

	AdminBootstrapCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shop_admin_bootstrap_total",
			Help: "Total number of admin bootstrap attempts",
		},
		[]string{"outcome"},
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shop_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shop_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shop_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // operation can be "query", "insert", "update", "delete"
	)
)

// Gauge metrics
var (
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "shop_info",
			Help: "Information about the storefront service",
		},
		[]string{"version"},
	)
)

func init() {
	prometheus.MustRegister(OrderPlacedCounter)
	prometheus.MustRegister(OrderErrorCounter)
	prometheus.MustRegister(RevenueCounter)
	prometheus.MustRegister(OrderStatusCounter)
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(RegisterCounter)
	prometheus.MustRegister(AuthErrorCounter)
	prometheus.MustRegister(ReviewCounter)
	prometheus.MustRegister(EmailCounter)
	prometheus.MustRegister(AdminBootstrapCounter)
	prometheus.MustRegister(HTTPRequestCounter)

	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)

	prometheus.MustRegister(InfoGauge)

	InfoGauge.With(prometheus.Labels{"version": "1.0.0"}).Set(1)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation measures database operation durations
func TrackDBOperation(operation string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(duration)
	}
}

// MetricsMiddleware creates a middleware function that captures metrics for each request
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(c.Response().Status)
			endpoint := c.Path()
			method := c.Request().Method

			RequestDuration.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Observe(duration)

			HTTPRequestCounter.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Inc()

			return err
		}
	}
}

// RecordOrderError records a rejected order placement by type
func RecordOrderError(errorType string) {
	OrderErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordAuthError records an authentication error by type
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordStatusTransition records an admin order status transition
func RecordStatusTransition(status string) {
	OrderStatusCounter.With(prometheus.Labels{"status": status}).Inc()
}

// RecordEmail records a notification email delivery attempt
func RecordEmail(event, outcome string) {
	EmailCounter.With(prometheus.Labels{"event": event, "outcome": outcome}).Inc()
}

// RecordAdminBootstrap records an admin bootstrap attempt
func RecordAdminBootstrap(outcome string) {
	AdminBootstrapCounter.With(prometheus.Labels{"outcome": outcome}).Inc()
}
