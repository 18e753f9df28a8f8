package application

import (
	"context"
	"errors"
	"log"
	"time"

	claims "uppf-engine/internal/claims/domain"
	"uppf-engine/internal/observability/metrics"
)

const defaultDashboardLimit = 1000

// AgingAlertSink receives aging alerts for external notification (webhook,
// messaging). Failures are logged, never fatal.
type AgingAlertSink interface {
	NotifyAging(ctx context.Context, alert ClaimAgingAlert) error
}

// DashboardSummary totals money across submitted claims.
type DashboardSummary struct {
	TotalSubmitted float64 `json:"total_submitted"`
	TotalPaid      float64 `json:"total_paid"`
	TotalPending   float64 `json:"total_pending"`
	ShortPayAmount float64 `json:"short_pay_amount"`
}

// AgingHistogram buckets pending claims by days since submission.
type AgingHistogram struct {
	Under30Days int `json:"under_30_days"`
	Days30to60  int `json:"days_30_to_60"`
	Days60to90  int `json:"days_60_to_90"`
	Over90Days  int `json:"over_90_days"`
}

// PaymentVariance is one short-pay entry on the dashboard.
type PaymentVariance struct {
	ClaimID  string  `json:"claim_id"`
	Expected float64 `json:"expected"`
	Received float64 `json:"received"`
	Variance float64 `json:"variance"`
}

// DashboardSnapshot is the variance dashboard payload. Always populated,
// zeros when no data exists.
type DashboardSnapshot struct {
	GeneratedAt      time.Time         `json:"generated_at"`
	Summary          DashboardSummary  `json:"summary"`
	Aging            AgingHistogram    `json:"aging"`
	PaymentVariances []PaymentVariance `json:"payment_variances"`
}

// VarianceAgingMonitor scans submitted claims for aging and aggregates the
// variance dashboard. Pure aggregation over stored state: it mutates nothing
// and is safe to re-run or skip, since aging derives from submittedAt.
type VarianceAgingMonitor struct {
	repo          claims.ClaimRepository
	publisher     EventPublisher
	sink          AgingAlertSink
	thresholdDays int
	clock         Clock
	logger        *log.Logger
}

// MonitorOption configures the monitor.
type MonitorOption func(*VarianceAgingMonitor)

// WithAgingAlertSink adds an external notification sink.
func WithAgingAlertSink(sink AgingAlertSink) MonitorOption {
	return func(m *VarianceAgingMonitor) { m.sink = sink }
}

// WithAgingThresholdDays overrides the 30 day default.
func WithAgingThresholdDays(days int) MonitorOption {
	return func(m *VarianceAgingMonitor) {
		if days > 0 {
			m.thresholdDays = days
		}
	}
}

// NewVarianceAgingMonitor constructs the monitor.
func NewVarianceAgingMonitor(repo claims.ClaimRepository, publisher EventPublisher, clock Clock, logger *log.Logger, opts ...MonitorOption) (*VarianceAgingMonitor, error) {
	if repo == nil {
		return nil, errors.New("variance monitor: nil claim repository")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	monitor := &VarianceAgingMonitor{
		repo:          repo,
		publisher:     publisher,
		thresholdDays: 30,
		clock:         clock,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(monitor)
	}
	return monitor, nil
}

// CheckAgingClaims emits one alert per submitted claim older than the
// threshold. Deterministic over stored submittedAt: running it twice without
// new submissions produces the same alert set.
func (m *VarianceAgingMonitor) CheckAgingClaims(ctx context.Context) ([]ClaimAgingAlert, error) {
	now := m.clock.Now()
	cutoff := now.AddDate(0, 0, -m.thresholdDays)
	aging, err := m.repo.ListSubmittedBefore(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	alerts := make([]ClaimAgingAlert, 0, len(aging))
	for _, claim := range aging {
		alert := ClaimAgingAlert{
			ClaimID:    claim.ClaimID,
			WindowID:   claim.WindowID,
			AmountDue:  claim.AmountDue,
			DaysAging:  int(now.Sub(claim.SubmittedAt).Hours() / 24),
			OccurredAt: now,
		}
		alerts = append(alerts, alert)
		metrics.CountAgingAlert()

		if m.publisher != nil {
			if err := m.publisher.Publish(ctx, alert); err != nil && m.logger != nil {
				m.logger.Printf("aging alert publish error: claim=%s err=%v", alert.ClaimID, err)
			}
		}
		if m.sink != nil {
			if err := m.sink.NotifyAging(ctx, alert); err != nil && m.logger != nil {
				m.logger.Printf("aging alert notify error: claim=%s err=%v", alert.ClaimID, err)
			}
		}
	}
	if m.logger != nil && len(alerts) > 0 {
		m.logger.Printf("aging check: %d claims past %d days", len(alerts), m.thresholdDays)
	}
	return alerts, nil
}

// Dashboard aggregates the variance dashboard over recent submitted claims.
func (m *VarianceAgingMonitor) Dashboard(ctx context.Context) (*DashboardSnapshot, error) {
	start := time.Now()
	defer func() {
		metrics.ObserveDashboard(time.Since(start))
	}()

	now := m.clock.Now()
	submitted, err := m.repo.ListSubmittedOrSettled(ctx, defaultDashboardLimit)
	if err != nil {
		return nil, err
	}

	snapshot := &DashboardSnapshot{
		GeneratedAt:      now,
		PaymentVariances: []PaymentVariance{},
	}
	for _, claim := range submitted {
		snapshot.Summary.TotalSubmitted += claim.AmountDue

		if claim.Status == claims.StatusPaid {
			snapshot.Summary.TotalPaid += claim.AmountPaid
			if shortfall := claim.Shortfall(); shortfall > 0 {
				snapshot.Summary.ShortPayAmount += shortfall
				snapshot.PaymentVariances = append(snapshot.PaymentVariances, PaymentVariance{
					ClaimID:  claim.ClaimID,
					Expected: claim.AmountDue,
					Received: claim.AmountPaid,
					Variance: shortfall,
				})
			}
			continue
		}

		snapshot.Summary.TotalPending += claim.AmountDue
		if claim.SubmittedAt.IsZero() {
			continue
		}
		switch days := int(now.Sub(claim.SubmittedAt).Hours() / 24); {
		case days < 30:
			snapshot.Aging.Under30Days++
		case days < 60:
			snapshot.Aging.Days30to60++
		case days < 90:
			snapshot.Aging.Days60to90++
		default:
			snapshot.Aging.Over90Days++
		}
	}
	return snapshot, nil
}
