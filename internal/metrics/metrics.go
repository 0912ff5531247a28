package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OTPIssuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gradnet_otp_issued_total",
		Help: "Login codes issued.",
	})

	// OTPVerifyTotal cuenta verificaciones por resultado (success, invalid_code, no_valid_otp, invalid_state, user_not_found, error).
	OTPVerifyTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gradnet_otp_verify_total",
		Help: "Login code verification attempts by result.",
	}, []string{"result"})

	EmailDeliveryFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gradnet_email_delivery_failures_total",
		Help: "Transactional emails that could not be handed to the mail server.",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gradnet_http_request_duration_seconds",
		Help:    "HTTP request latency by route and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
