// Package stats derives utilization metrics from the remnant ledger. The
// aggregator is pull-based and stateless: every query reads the store's
// current committed state.
package stats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"remnant-inventory-backend/internal/model"
	"remnant-inventory-backend/internal/store"
)

// dailyBreakdownDays caps the per-day breakdown at the most recent distinct
// days within the range.
const dailyBreakdownDays = 30

// recentActivityLimit caps the live snapshot's recent-remnant list.
const recentActivityLimit = 10

// Aggregator computes statistics over the remnant ledger.
type Aggregator struct {
	db *gorm.DB
}

// New creates an Aggregator reading from the given connection.
func New(db *gorm.DB) *Aggregator {
	return &Aggregator{db: db}
}

// Range restricts a statistics query by remnant creation time. The
// last-month shorthand (now minus one calendar month) takes precedence over
// explicit bounds; this ordering is deliberate, not an accident of
// implementation.
type Range struct {
	Start     *time.Time
	End       *time.Time
	LastMonth bool
}

func (r Range) apply(q *gorm.DB) *gorm.DB {
	switch {
	case r.LastMonth:
		return q.Where("created_at >= ?", time.Now().AddDate(0, -1, 0))
	case r.Start != nil && r.End != nil:
		return q.Where("created_at BETWEEN ? AND ?", *r.Start, *r.End)
	case r.Start != nil:
		return q.Where("created_at >= ?", *r.Start)
	case r.End != nil:
		return q.Where("created_at <= ?", *r.End)
	}
	return q
}

// Period echoes the requested range back in reports.
type Period struct {
	LastMonth bool       `json:"lastMonth"`
	Start     *time.Time `json:"start"`
	End       *time.Time `json:"end"`
}

func (r Range) period() Period {
	return Period{LastMonth: r.LastMonth, Start: r.Start, End: r.End}
}

// MachineRef identifies a machine in a report.
type MachineRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Counts holds availability counts and their percentages for one scope.
type Counts struct {
	Available        int64   `json:"available"`
	Consumed         int64   `json:"consumed"`
	Total            int64   `json:"total"`
	PercentAvailable float64 `json:"percentAvailable"`
	PercentConsumed  float64 `json:"percentConsumed"`
}

// DailyCount is one day of the per-machine breakdown.
type DailyCount struct {
	Date      string `json:"date"`
	Total     int64  `json:"total"`
	Available int64  `json:"available"`
	Consumed  int64  `json:"consumed"`
}

// MachineReport is the per-machine statistics response.
type MachineReport struct {
	Machine   MachineRef   `json:"machine"`
	Period    Period       `json:"period"`
	Stats     Counts       `json:"stats"`
	Daily     []DailyCount `json:"daily"`
	Timestamp time.Time    `json:"timestamp"`
}

// SummaryRow is one machine's slice of the global summary.
type SummaryRow struct {
	Machine MachineRef `json:"machine"`
	Counts
}

// SummaryReport is the global summary response.
type SummaryReport struct {
	Period    Period       `json:"period"`
	Totals    Counts       `json:"totals"`
	Machines  []SummaryRow `json:"machines"`
	Timestamp time.Time    `json:"timestamp"`
}

// RecentRemnant is one entry of the live snapshot's recent activity list.
type RecentRemnant struct {
	ID          string    `json:"id"`
	Available   bool      `json:"available"`
	MachineName string    `json:"machineName"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// LiveReport is the unfiltered dashboard snapshot.
type LiveReport struct {
	Summary   Counts          `json:"summary"`
	Machines  []SummaryRow    `json:"machines"`
	Recent    []RecentRemnant `json:"recent"`
	Timestamp time.Time       `json:"timestamp"`
}

// percentage returns part/total as a percentage rounded to 2 decimal
// places, or 0 when total is 0.
func percentage(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return decimal.NewFromInt(part).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(total), 2).
		InexactFloat64()
}

func makeCounts(available, consumed int64) Counts {
	total := available + consumed
	return Counts{
		Available:        available,
		Consumed:         consumed,
		Total:            total,
		PercentAvailable: percentage(available, total),
		PercentConsumed:  percentage(consumed, total),
	}
}

// machineCounts counts a single machine's remnants by availability within
// the range.
func (a *Aggregator) machineCounts(ctx context.Context, machineID string, r Range) (Counts, error) {
	var available, consumed int64

	base := func() *gorm.DB {
		return r.apply(a.db.WithContext(ctx).Model(&model.Remnant{}).Where("machine_id = ?", machineID))
	}
	if err := base().Where("available = ?", true).Count(&available).Error; err != nil {
		return Counts{}, fmt.Errorf("failed to count available remnants: %w", err)
	}
	if err := base().Where("available = ?", false).Count(&consumed).Error; err != nil {
		return Counts{}, fmt.Errorf("failed to count consumed remnants: %w", err)
	}

	return makeCounts(available, consumed), nil
}

// MachineStats computes per-machine counts, percentages and the daily
// breakdown. An unknown machine id yields store.ErrMachineNotFound, not an
// empty report.
func (a *Aggregator) MachineStats(ctx context.Context, machineID string, r Range) (*MachineReport, error) {
	var machine model.Machine
	if err := a.db.WithContext(ctx).First(&machine, "id = ?", machineID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrMachineNotFound
		}
		return nil, fmt.Errorf("failed to load machine %s: %w", machineID, err)
	}

	counts, err := a.machineCounts(ctx, machineID, r)
	if err != nil {
		return nil, err
	}

	var daily []DailyCount
	q := a.db.WithContext(ctx).Model(&model.Remnant{}).
		Select("CAST(DATE(created_at) AS TEXT) AS date, " +
			"COUNT(id) AS total, " +
			"COALESCE(SUM(CASE WHEN available THEN 1 ELSE 0 END), 0) AS available, " +
			"COALESCE(SUM(CASE WHEN available THEN 0 ELSE 1 END), 0) AS consumed").
		Where("machine_id = ?", machineID)
	err = r.apply(q).
		Group("DATE(created_at)").
		Order("DATE(created_at) DESC").
		Limit(dailyBreakdownDays).
		Scan(&daily).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute daily breakdown: %w", err)
	}

	return &MachineReport{
		Machine:   MachineRef{ID: machine.ID, Name: machine.Name},
		Period:    r.period(),
		Stats:     counts,
		Daily:     daily,
		Timestamp: time.Now().UTC(),
	}, nil
}

// Summary computes the global summary: per-machine counts within the range,
// reduced to grand totals.
func (a *Aggregator) Summary(ctx context.Context, r Range) (*SummaryReport, error) {
	var machines []model.Machine
	if err := a.db.WithContext(ctx).Order("name").Find(&machines).Error; err != nil {
		return nil, fmt.Errorf("failed to list machines: %w", err)
	}

	rows := make([]SummaryRow, 0, len(machines))
	var totalAvailable, totalConsumed int64
	for _, m := range machines {
		counts, err := a.machineCounts(ctx, m.ID, r)
		if err != nil {
			return nil, err
		}
		totalAvailable += counts.Available
		totalConsumed += counts.Consumed
		rows = append(rows, SummaryRow{
			Machine: MachineRef{ID: m.ID, Name: m.Name},
			Counts:  counts,
		})
	}

	return &SummaryReport{
		Period:    r.period(),
		Totals:    makeCounts(totalAvailable, totalConsumed),
		Machines:  rows,
		Timestamp: time.Now().UTC(),
	}, nil
}

// Live computes the unfiltered dashboard snapshot: global counts, a
// per-machine breakdown (machines with no remnants included), and the most
// recently updated remnants.
func (a *Aggregator) Live(ctx context.Context) (*LiveReport, error) {
	var available, consumed int64
	if err := a.db.WithContext(ctx).Model(&model.Remnant{}).Where("available = ?", true).Count(&available).Error; err != nil {
		return nil, fmt.Errorf("failed to count available remnants: %w", err)
	}
	if err := a.db.WithContext(ctx).Model(&model.Remnant{}).Where("available = ?", false).Count(&consumed).Error; err != nil {
		return nil, fmt.Errorf("failed to count consumed remnants: %w", err)
	}

	type aggRow struct {
		ID        string
		Name      string
		Available int64
		Consumed  int64
	}
	var aggs []aggRow
	err := a.db.WithContext(ctx).
		Table("machines m").
		Select("m.id AS id, m.name AS name, " +
			"COALESCE(SUM(CASE WHEN r.available THEN 1 ELSE 0 END), 0) AS available, " +
			"COALESCE(SUM(CASE WHEN NOT r.available THEN 1 ELSE 0 END), 0) AS consumed").
		Joins("LEFT JOIN remnants r ON r.machine_id = m.id").
		Group("m.id, m.name").
		Order("m.name").
		Scan(&aggs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate per-machine counts: %w", err)
	}

	rows := make([]SummaryRow, 0, len(aggs))
	for _, agg := range aggs {
		rows = append(rows, SummaryRow{
			Machine: MachineRef{ID: agg.ID, Name: agg.Name},
			Counts:  makeCounts(agg.Available, agg.Consumed),
		})
	}

	var recent []model.Remnant
	err = a.db.WithContext(ctx).Preload("Machine").
		Order("updated_at DESC").
		Limit(recentActivityLimit).
		Find(&recent).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load recent activity: %w", err)
	}

	recentRows := make([]RecentRemnant, 0, len(recent))
	for _, rem := range recent {
		recentRows = append(recentRows, RecentRemnant{
			ID:          rem.ID,
			Available:   rem.Available,
			MachineName: rem.Machine.Name,
			CreatedAt:   rem.CreatedAt,
			UpdatedAt:   rem.UpdatedAt,
		})
	}

	return &LiveReport{
		Summary:   makeCounts(available, consumed),
		Machines:  rows,
		Recent:    recentRows,
		Timestamp: time.Now().UTC(),
	}, nil
}
