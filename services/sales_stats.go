package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"marketplace_console_go/models"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// StatsWindow is the length of the current and the previous comparison window
const StatsWindow = 7 * 24 * time.Hour

// revenueDateColumns are the lead_purchases date columns, preferred first.
// Older schemas only carry created_at.
var revenueDateColumns = []string{"purchase_date", "created_at"}

var ErrNoRevenueDateColumn = errors.New("lead_purchases has none of the known date columns")

// SalesStats compares the last 7 days with the 7 days before them
type SalesStats struct {
	NewLeads             int64   `json:"new_leads"`
	PreviousNewLeads     int64   `json:"previous_new_leads"`
	NewLeadsChange       *int    `json:"new_leads_change"`
	ConvertedLeads       int64   `json:"converted_leads"`
	PreviousConverted    int64   `json:"previous_converted_leads"`
	ConvertedLeadsChange *int    `json:"converted_leads_change"`
	Revenue              float64 `json:"revenue"`
	PreviousRevenue      float64 `json:"previous_revenue"`
	RevenueChange        *int    `json:"revenue_change"`
	ConversionRate       int     `json:"conversion_rate"`

	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
}

// PctChange is round((cur-prev)/prev*100), or nil when prev is zero or negative
func PctChange(cur, prev float64) *int {
	if prev <= 0 {
		return nil
	}
	v := int(math.Round((cur - prev) / prev * 100))
	return &v
}

// ConversionRate is round(converted/leads*100), 0 when there are no leads
func ConversionRate(converted, leads int64) int {
	if leads <= 0 {
		return 0
	}
	return int(math.Round(float64(converted) / float64(leads) * 100))
}

// SalesStatsService aggregates lead and revenue figures
type SalesStatsService struct {
	db          *gorm.DB
	now         func() time.Time
	dateColumns []string
}

func NewSalesStatsService(db *gorm.DB) *SalesStatsService {
	return &SalesStatsService{db: db, now: time.Now, dateColumns: revenueDateColumns}
}

type window struct {
	start, end time.Time
}

// Compute runs the six window queries concurrently. Any failure aborts the whole result.
func (s *SalesStatsService) Compute(ctx context.Context) (*SalesStats, error) {
	end := s.now().UTC()
	current := window{start: end.Add(-StatsWindow), end: end}
	previous := window{start: end.Add(-2 * StatsWindow), end: current.start}

	stats := &SalesStats{WindowStart: current.start, WindowEnd: current.end}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.NewLeads, err = s.countLeads(gctx, current, false)
		return err
	})
	g.Go(func() (err error) {
		stats.PreviousNewLeads, err = s.countLeads(gctx, previous, false)
		return err
	})
	g.Go(func() (err error) {
		stats.ConvertedLeads, err = s.countLeads(gctx, current, true)
		return err
	})
	g.Go(func() (err error) {
		stats.PreviousConverted, err = s.countLeads(gctx, previous, true)
		return err
	})
	g.Go(func() (err error) {
		stats.Revenue, err = s.sumRevenue(gctx, current)
		return err
	})
	g.Go(func() (err error) {
		stats.PreviousRevenue, err = s.sumRevenue(gctx, previous)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to compute sales stats: %w", err)
	}

	stats.NewLeadsChange = PctChange(float64(stats.NewLeads), float64(stats.PreviousNewLeads))
	stats.ConvertedLeadsChange = PctChange(float64(stats.ConvertedLeads), float64(stats.PreviousConverted))
	stats.RevenueChange = PctChange(stats.Revenue, stats.PreviousRevenue)
	stats.ConversionRate = ConversionRate(stats.ConvertedLeads, stats.NewLeads)
	return stats, nil
}

func (s *SalesStatsService) countLeads(ctx context.Context, w window, convertedOnly bool) (int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Lead{}).
		Where("created_at >= ? AND created_at < ?", w.start, w.end)
	if convertedOnly {
		query = query.Where("status IN ?", models.ConvertedLeadStatuses)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count leads: %w", err)
	}
	return count, nil
}

// sumRevenue tries each date column in order and skips the ones the schema lacks
func (s *SalesStatsService) sumRevenue(ctx context.Context, w window) (float64, error) {
	for _, column := range s.dateColumns {
		var total sql.NullFloat64
		err := s.db.WithContext(ctx).
			Raw("SELECT COALESCE(SUM(amount), 0) FROM lead_purchases WHERE "+column+" >= ? AND "+column+" < ?", w.start, w.end).
			Row().Scan(&total)
		if err == nil {
			return total.Float64, nil
		}
		if isMissingColumnError(err) {
			continue
		}
		return 0, fmt.Errorf("failed to sum revenue: %w", err)
	}
	return 0, ErrNoRevenueDateColumn
}
