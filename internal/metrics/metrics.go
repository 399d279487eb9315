package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	couponRedemptionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_coupon_redemptions_total",
			Help: "Coupon redemption attempts by outcome",
		},
		[]string{"outcome"},
	)

	recordsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_records_created_total",
			Help: "Orders and contact requests created",
		},
		[]string{"kind"},
	)

	notificationFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_notification_failures_total",
			Help: "Notifications that could not be delivered",
		},
	)

	ratingRollupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_rating_rollups_total",
			Help: "Product rating recomputations by outcome",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(couponRedemptionsTotal)
	prometheus.MustRegister(recordsCreatedTotal)
	prometheus.MustRegister(notificationFailuresTotal)
	prometheus.MustRegister(ratingRollupsTotal)
}

func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

func RecordCouponRedemption(outcome string) {
	couponRedemptionsTotal.WithLabelValues(outcome).Inc()
}

func RecordCreated(kind string) {
	recordsCreatedTotal.WithLabelValues(kind).Inc()
}

func RecordNotificationFailure() {
	notificationFailuresTotal.Inc()
}

func RecordRatingRollup(outcome string) {
	ratingRollupsTotal.WithLabelValues(outcome).Inc()
}
