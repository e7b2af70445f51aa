package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	passDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "wifinity",
		Subsystem: "billing",
		Name:      "pass_duration_seconds",
		Help:      "Wall time of a full billing pass.",
		Buckets:   prometheus.DefBuckets,
	})
	invoicesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "wifinity",
		Subsystem: "billing",
		Name:      "invoices_created_total",
		Help:      "Invoices committed by the billing driver.",
	})
	cursorConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "wifinity",
		Subsystem: "billing",
		Name:      "cursor_conflicts_total",
		Help:      "Cursor advances dropped because another pass won the race.",
	})
	subscriptionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "wifinity",
		Subsystem: "billing",
		Name:      "subscription_failures_total",
		Help:      "Subscriptions skipped by a pass due to errors.",
	})
)
