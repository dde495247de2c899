// Package service serves the projection queries, reading through the cache
// where one is configured. Command services invalidate per member after each
// commit, so cached reads are stale by at most one TTL.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"tempus/internal/platform/telemetry"
	"tempus/internal/projection/cache"
	projmetrics "tempus/internal/projection/metrics"
	"tempus/internal/projection/store"
	id "tempus/pkg/domain"
	dErrors "tempus/pkg/domain-errors"
	"tempus/pkg/platform/sentinel"
)

// Projection families, used as cache key segments and metric labels.
const (
	familyDailyTotals      = "daily_totals"
	familyAbsenceTotals    = "absence_totals"
	familyDayStatuses      = "day_statuses"
	familyDailyEntries     = "daily_entries"
	familyMonthlySummary   = "monthly_summary"
	familyPendingApprovals = "pending_approvals"
)

const (
	defaultTTL       = 5 * time.Minute
	defaultDetailTTL = time.Minute
)

// Queries is the read-store surface the service consumes.
type Queries interface {
	DailyTotals(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, from, to time.Time) ([]store.DayTotal, error)
	AbsenceTotals(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, from, to time.Time) ([]store.DayTotal, error)
	DayStatuses(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, from, to time.Time) ([]store.DayStatus, error)
	DailyEntries(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, day time.Time) ([]store.EntryDetail, error)
	MonthlySummary(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, period id.FiscalMonth) (store.MonthlySummary, error)
	PendingApprovals(ctx context.Context, tenantID id.TenantID) ([]store.PendingApproval, error)
}

// Service answers projection queries. Member-scoped families read through
// the cache; the pending-approvals queue always hits the store so a fresh
// submission is visible to reviewers immediately.
type Service struct {
	reads     Queries
	cache     cache.Cache
	ttl       time.Duration
	detailTTL time.Duration
	logger    *slog.Logger
	metrics   *projmetrics.Metrics
}

type serviceConfig struct {
	cache     cache.Cache
	ttl       time.Duration
	detailTTL time.Duration
	logger    *slog.Logger
	metrics   *projmetrics.Metrics
}

// Option configures optional collaborators.
type Option func(*serviceConfig)

func WithLogger(logger *slog.Logger) Option {
	return func(c *serviceConfig) { c.logger = logger }
}

func WithCache(cache cache.Cache) Option {
	return func(c *serviceConfig) { c.cache = cache }
}

func WithMetrics(m *projmetrics.Metrics) Option {
	return func(c *serviceConfig) { c.metrics = m }
}

// WithTTL overrides the default cache TTL for aggregate families.
func WithTTL(ttl time.Duration) Option {
	return func(c *serviceConfig) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithDetailTTL overrides the shorter TTL used for entry-level detail.
func WithDetailTTL(ttl time.Duration) Option {
	return func(c *serviceConfig) {
		if ttl > 0 {
			c.detailTTL = ttl
		}
	}
}

// New constructs a Service. Without WithCache every query goes straight to
// the read store.
func New(reads Queries, opts ...Option) *Service {
	cfg := &serviceConfig{ttl: defaultTTL, detailTTL: defaultDetailTTL}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Service{
		reads:     reads,
		cache:     cfg.cache,
		ttl:       cfg.ttl,
		detailTTL: cfg.detailTTL,
		logger:    cfg.logger,
		metrics:   cfg.metrics,
	}
}

// DailyTotals returns per-day hour sums for the member over [from, to].
func (s *Service) DailyTotals(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, from, to time.Time) (totals []store.DayTotal, err error) {
	ctx, end := telemetry.StartSpan(ctx, "projection.DailyTotals")
	defer func() { end(err) }()

	key := cache.NewKey(familyDailyTotals, tenantID, memberID, id.FormatDate(from), id.FormatDate(to))
	if s.fromCache(ctx, familyDailyTotals, key, &totals) {
		return totals, nil
	}

	start := time.Now()
	totals, err = s.reads.DailyTotals(ctx, tenantID, memberID, from, to)
	s.metrics.ObserveQuery(familyDailyTotals, time.Since(start).Seconds())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load daily totals")
	}
	s.fill(ctx, familyDailyTotals, key, totals, s.ttl)
	return totals, nil
}

// AbsenceTotals returns per-day absence hour sums for the member over
// [from, to].
func (s *Service) AbsenceTotals(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, from, to time.Time) (totals []store.DayTotal, err error) {
	ctx, end := telemetry.StartSpan(ctx, "projection.AbsenceTotals")
	defer func() { end(err) }()

	key := cache.NewKey(familyAbsenceTotals, tenantID, memberID, id.FormatDate(from), id.FormatDate(to))
	if s.fromCache(ctx, familyAbsenceTotals, key, &totals) {
		return totals, nil
	}

	start := time.Now()
	totals, err = s.reads.AbsenceTotals(ctx, tenantID, memberID, from, to)
	s.metrics.ObserveQuery(familyAbsenceTotals, time.Since(start).Seconds())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load absence totals")
	}
	s.fill(ctx, familyAbsenceTotals, key, totals, s.ttl)
	return totals, nil
}

// DayStatuses returns one aggregate status per day in [from, to].
func (s *Service) DayStatuses(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, from, to time.Time) (statuses []store.DayStatus, err error) {
	ctx, end := telemetry.StartSpan(ctx, "projection.DayStatuses")
	defer func() { end(err) }()

	key := cache.NewKey(familyDayStatuses, tenantID, memberID, id.FormatDate(from), id.FormatDate(to))
	if s.fromCache(ctx, familyDayStatuses, key, &statuses) {
		return statuses, nil
	}

	start := time.Now()
	statuses, err = s.reads.DayStatuses(ctx, tenantID, memberID, from, to)
	s.metrics.ObserveQuery(familyDayStatuses, time.Since(start).Seconds())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load day statuses")
	}
	s.fill(ctx, familyDayStatuses, key, statuses, s.ttl)
	return statuses, nil
}

// DailyEntries returns entry-level detail for one day. Cached on the shorter
// detail TTL.
func (s *Service) DailyEntries(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, day time.Time) (details []store.EntryDetail, err error) {
	ctx, end := telemetry.StartSpan(ctx, "projection.DailyEntries")
	defer func() { end(err) }()

	key := cache.NewKey(familyDailyEntries, tenantID, memberID, id.FormatDate(day))
	if s.fromCache(ctx, familyDailyEntries, key, &details) {
		return details, nil
	}

	start := time.Now()
	details, err = s.reads.DailyEntries(ctx, tenantID, memberID, day)
	s.metrics.ObserveQuery(familyDailyEntries, time.Since(start).Seconds())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load daily entries")
	}
	s.fill(ctx, familyDailyEntries, key, details, s.detailTTL)
	return details, nil
}

// MonthlySummary returns the fiscal-month rollup with per-project shares.
func (s *Service) MonthlySummary(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, period id.FiscalMonth) (summary store.MonthlySummary, err error) {
	ctx, end := telemetry.StartSpan(ctx, "projection.MonthlySummary")
	defer func() { end(err) }()

	key := cache.NewKey(familyMonthlySummary, tenantID, memberID, id.FormatDate(period.Start), id.FormatDate(period.End))
	if s.fromCache(ctx, familyMonthlySummary, key, &summary) {
		return summary, nil
	}

	start := time.Now()
	summary, err = s.reads.MonthlySummary(ctx, tenantID, memberID, period)
	s.metrics.ObserveQuery(familyMonthlySummary, time.Since(start).Seconds())
	if err != nil {
		return store.MonthlySummary{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load monthly summary")
	}
	s.fill(ctx, familyMonthlySummary, key, summary, s.ttl)
	return summary, nil
}

// PendingApprovals returns the tenant's review queue. Never cached: reviewers
// must see a submission as soon as it commits.
func (s *Service) PendingApprovals(ctx context.Context, tenantID id.TenantID) (queue []store.PendingApproval, err error) {
	ctx, end := telemetry.StartSpan(ctx, "projection.PendingApprovals")
	defer func() { end(err) }()

	start := time.Now()
	queue, err = s.reads.PendingApprovals(ctx, tenantID)
	s.metrics.ObserveQuery(familyPendingApprovals, time.Since(start).Seconds())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load pending approvals")
	}
	return queue, nil
}

// fromCache reports whether dest was populated from the cache. Cache
// failures degrade to a store read, never to a query error.
func (s *Service) fromCache(ctx context.Context, family string, key cache.Key, dest any) bool {
	if s.cache == nil {
		s.metrics.IncrementCacheRequest(family, "bypass")
		return false
	}
	err := s.cache.Get(ctx, key, dest)
	if err == nil {
		s.metrics.IncrementCacheRequest(family, "hit")
		return true
	}
	if !errors.Is(err, sentinel.ErrNotFound) && s.logger != nil {
		s.logger.WarnContext(ctx, "projection cache read failed", "family", family, "error", err)
	}
	s.metrics.IncrementCacheRequest(family, "miss")
	return false
}

func (s *Service) fill(ctx context.Context, family string, key cache.Key, value any, ttl time.Duration) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, ttl); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "projection cache write failed", "family", family, "error", err)
	}
}
