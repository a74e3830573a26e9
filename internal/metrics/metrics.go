// Package metrics exposes Prometheus collectors for bills, splits and RPCs.
//
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"context"
	"errors"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mmynk/splitkit/internal/models"
)

const namespace = "splitkit"

type Metrics struct {
	billsCreated  *prometheus.CounterVec
	billTotal     prometheus.Histogram
	splitFailures *prometheus.CounterVec
	authEvents    *prometheus.CounterVec
	rpcDuration   *prometheus.HistogramVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		billsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bills_created_total",
				Help:      "Total number of bills created",
			},
			[]string{"category", "mode"},
		),
		billTotal: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "bill_total_cents",
				Help:      "Bill totals in cents",
				Buckets:   prometheus.ExponentialBuckets(100, 4, 8),
			},
		),
		splitFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "split_failures_total",
				Help:      "Total number of rejected split requests by reason",
			},
			[]string{"reason"},
		),
		authEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_events_total",
				Help:      "Total number of authentication events",
			},
			[]string{"event", "status"},
		),
		rpcDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "rpc_duration_seconds",
				Help:      "RPC handling duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"procedure", "code"},
		),
	}
}

// RecordBill counts a persisted bill.
func (m *Metrics) RecordBill(bill *models.Bill) {
	if m == nil {
		return
	}
	m.billsCreated.WithLabelValues(string(bill.Category), string(bill.Mode)).Inc()
	m.billTotal.Observe(float64(bill.Total.Cents()))
}

// RecordSplitFailure counts a split rejected for reason.
func (m *Metrics) RecordSplitFailure(reason string) {
	if m == nil {
		return
	}
	m.splitFailures.WithLabelValues(reason).Inc()
}

// RecordAuth counts a register or login attempt.
func (m *Metrics) RecordAuth(event string, ok bool) {
	if m == nil {
		return
	}
	status := "success"
	if !ok {
		status = "failure"
	}
	m.authEvents.WithLabelValues(event, status).Inc()
}

// Interceptor times every unary RPC by procedure and result code.
func (m *Metrics) Interceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if m == nil {
				return next(ctx, req)
			}
			start := time.Now()
			resp, err := next(ctx, req)
			m.rpcDuration.WithLabelValues(req.Spec().Procedure, codeOf(err)).
				Observe(time.Since(start).Seconds())
			return resp, err
		}
	}
}

func codeOf(err error) string {
	if err == nil {
		return "ok"
	}
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr.Code().String()
	}
	return connect.CodeUnknown.String()
}
