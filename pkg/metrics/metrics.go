// Package metrics 定义 Prometheus 指标与 HTTP 指标中间件
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventbuddy_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eventbuddy_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	registrationDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventbuddy_registration_decisions_total",
			Help: "Registration batches by decided status (rejected when capacity exceeded)",
		},
		[]string{"status"},
	)

	registrationsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventbuddy_registrations_created_total",
			Help: "Registration rows created",
		},
	)

	waitlistPromotions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventbuddy_waitlist_promotions_total",
			Help: "Waitlisted registrations promoted to confirmed",
		},
	)

	memberTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventbuddy_member_transitions_total",
			Help: "Membership lifecycle transitions",
		},
		[]string{"transition", "to"},
	)

	notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventbuddy_notifications_total",
			Help: "Notification deliveries by kind and result",
		},
		[]string{"kind", "result"},
	)

	eventLockWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "eventbuddy_event_lock_wait_seconds",
			Help:    "Time spent waiting for the per-event registration lock",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)
)

// ObserveRegistrationDecision 记录一次批量报名判定结果
func ObserveRegistrationDecision(status string, created int) {
	registrationDecisions.WithLabelValues(status).Inc()
	if created > 0 {
		registrationsCreated.Add(float64(created))
	}
}

// ObserveWaitlistPromotions 记录候补转正数
func ObserveWaitlistPromotions(n int) {
	if n > 0 {
		waitlistPromotions.Add(float64(n))
	}
}

// ObserveMemberTransition 记录会员状态转移
func ObserveMemberTransition(transition, to string) {
	memberTransitions.WithLabelValues(transition, to).Inc()
}

// ObserveNotification 记录通知投递结果
func ObserveNotification(kind string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	notifications.WithLabelValues(kind, result).Inc()
}

// ObserveLockWait 记录活动锁等待时长
func ObserveLockWait(d time.Duration) {
	eventLockWait.Observe(d.Seconds())
}

// Middleware 记录请求数与耗时，route 取路由模板避免高基数
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler 暴露 /metrics
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
