package stats

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"remnant-inventory-backend/internal/db"
	"remnant-inventory-backend/internal/model"
	"remnant-inventory-backend/internal/store"
)

var testDBSeq atomic.Int64

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:statstest%d?mode=memory&cache=shared", testDBSeq.Add(1))
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))

	t.Cleanup(func() {
		sqlDB, _ := gormDB.DB()
		sqlDB.Close()
	})
	return gormDB
}

func seedMachine(t *testing.T, gormDB *gorm.DB, name string) *model.Machine {
	t.Helper()
	machine := &model.Machine{Name: name}
	require.NoError(t, gormDB.Create(machine).Error)
	return machine
}

// seedRemnant inserts a remnant with a fixed creation time so range queries
// are deterministic.
func seedRemnant(t *testing.T, gormDB *gorm.DB, machineID string, available bool, createdAt time.Time) *model.Remnant {
	t.Helper()
	remnant := &model.Remnant{
		MachineID: machineID,
		Length:    100, Width: 50, Thickness: 18,
		Quantity:  1,
		Available: available,
	}
	if !available {
		remnant.Quantity = 0
	}
	require.NoError(t, gormDB.Create(remnant).Error)
	// The availability flag is written again here: on insert gorm falls back
	// to the column default for a zero-valued bool.
	require.NoError(t, gormDB.Model(&model.Remnant{}).
		Where("id = ?", remnant.ID).
		Updates(map[string]any{"available": available, "created_at": createdAt, "updated_at": createdAt}).Error)
	remnant.CreatedAt = createdAt
	remnant.UpdatedAt = createdAt
	return remnant
}

func TestMachineStats(t *testing.T) {
	ctx := context.Background()
	gormDB := newTestDB(t)
	agg := New(gormDB)
	now := time.Now().UTC()

	machine := seedMachine(t, gormDB, "CNC-1")
	seedRemnant(t, gormDB, machine.ID, true, now)
	seedRemnant(t, gormDB, machine.ID, true, now)
	seedRemnant(t, gormDB, machine.ID, false, now)

	t.Run("counts and percentages", func(t *testing.T) {
		report, err := agg.MachineStats(ctx, machine.ID, Range{})
		require.NoError(t, err)

		assert.Equal(t, machine.ID, report.Machine.ID)
		assert.Equal(t, "CNC-1", report.Machine.Name)
		assert.Equal(t, int64(2), report.Stats.Available)
		assert.Equal(t, int64(1), report.Stats.Consumed)
		assert.Equal(t, int64(3), report.Stats.Total)
		assert.Equal(t, report.Stats.Total, report.Stats.Available+report.Stats.Consumed)
		assert.InDelta(t, 66.67, report.Stats.PercentAvailable, 0.001)
		assert.InDelta(t, 33.33, report.Stats.PercentConsumed, 0.001)
	})

	t.Run("daily breakdown", func(t *testing.T) {
		report, err := agg.MachineStats(ctx, machine.ID, Range{})
		require.NoError(t, err)

		require.NotEmpty(t, report.Daily)
		day := report.Daily[0]
		assert.Equal(t, now.Format("2006-01-02"), day.Date)
		assert.Equal(t, int64(3), day.Total)
		assert.Equal(t, int64(2), day.Available)
		assert.Equal(t, int64(1), day.Consumed)
	})

	t.Run("machine with no remnants reports zeros", func(t *testing.T) {
		empty := seedMachine(t, gormDB, "Empty")
		report, err := agg.MachineStats(ctx, empty.ID, Range{})
		require.NoError(t, err)

		assert.Equal(t, Counts{}, report.Stats)
		assert.Empty(t, report.Daily)
	})

	t.Run("unknown machine", func(t *testing.T) {
		_, err := agg.MachineStats(ctx, uuid.NewString(), Range{})
		assert.ErrorIs(t, err, store.ErrMachineNotFound)
	})
}

func TestMachineStatsRange(t *testing.T) {
	ctx := context.Background()
	gormDB := newTestDB(t)
	agg := New(gormDB)
	now := time.Now().UTC()

	machine := seedMachine(t, gormDB, "CNC-1")
	seedRemnant(t, gormDB, machine.ID, true, now.AddDate(0, 0, -2))
	seedRemnant(t, gormDB, machine.ID, false, now.AddDate(0, -3, 0))

	t.Run("explicit bounds", func(t *testing.T) {
		start := now.AddDate(0, 0, -7)
		report, err := agg.MachineStats(ctx, machine.ID, Range{Start: &start, End: &now})
		require.NoError(t, err)

		assert.Equal(t, int64(1), report.Stats.Total)
		assert.Equal(t, int64(1), report.Stats.Available)
	})

	t.Run("lastMonth wins over explicit bounds", func(t *testing.T) {
		// Bounds wide enough to include the 3-month-old remnant; lastMonth
		// must still exclude it.
		start := now.AddDate(-1, 0, 0)
		report, err := agg.MachineStats(ctx, machine.ID, Range{Start: &start, End: &now, LastMonth: true})
		require.NoError(t, err)

		assert.Equal(t, int64(1), report.Stats.Total)
		assert.True(t, report.Period.LastMonth)
	})

	t.Run("start only", func(t *testing.T) {
		start := now.AddDate(0, -6, 0)
		report, err := agg.MachineStats(ctx, machine.ID, Range{Start: &start})
		require.NoError(t, err)
		assert.Equal(t, int64(2), report.Stats.Total)
	})
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	gormDB := newTestDB(t)
	agg := New(gormDB)
	now := time.Now().UTC()

	m1 := seedMachine(t, gormDB, "CNC-1")
	m2 := seedMachine(t, gormDB, "Laser-1")
	seedRemnant(t, gormDB, m1.ID, true, now)
	seedRemnant(t, gormDB, m1.ID, false, now)
	seedRemnant(t, gormDB, m2.ID, true, now)

	report, err := agg.Summary(ctx, Range{})
	require.NoError(t, err)

	assert.Equal(t, int64(2), report.Totals.Available)
	assert.Equal(t, int64(1), report.Totals.Consumed)
	assert.Equal(t, int64(3), report.Totals.Total)

	require.Len(t, report.Machines, 2)
	assert.Equal(t, "CNC-1", report.Machines[0].Machine.Name)
	assert.Equal(t, int64(2), report.Machines[0].Total)
	assert.InDelta(t, 50.0, report.Machines[0].PercentAvailable, 0.001)
	assert.Equal(t, "Laser-1", report.Machines[1].Machine.Name)
	assert.InDelta(t, 100.0, report.Machines[1].PercentAvailable, 0.001)

	// Grand totals reduce the per-machine rows.
	var sumTotal int64
	for _, row := range report.Machines {
		sumTotal += row.Total
	}
	assert.Equal(t, report.Totals.Total, sumTotal)
}

func TestSummaryEmpty(t *testing.T) {
	gormDB := newTestDB(t)
	agg := New(gormDB)

	report, err := agg.Summary(context.Background(), Range{})
	require.NoError(t, err)

	assert.Equal(t, Counts{}, report.Totals)
	assert.Empty(t, report.Machines)
}

func TestLive(t *testing.T) {
	ctx := context.Background()
	gormDB := newTestDB(t)
	agg := New(gormDB)
	now := time.Now().UTC()

	busy := seedMachine(t, gormDB, "CNC-1")
	idle := seedMachine(t, gormDB, "Idle")
	newest := seedRemnant(t, gormDB, busy.ID, true, now)
	seedRemnant(t, gormDB, busy.ID, false, now.Add(-time.Hour))

	report, err := agg.Live(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(1), report.Summary.Available)
	assert.Equal(t, int64(1), report.Summary.Consumed)

	// Machines with no remnants still appear, with zero counts.
	require.Len(t, report.Machines, 2)
	byName := make(map[string]SummaryRow)
	for _, row := range report.Machines {
		byName[row.Machine.Name] = row
	}
	assert.Equal(t, int64(2), byName["CNC-1"].Total)
	assert.Equal(t, int64(0), byName["Idle"].Total)
	assert.Equal(t, idle.ID, byName["Idle"].Machine.ID)

	// Recent activity is newest update first and carries the machine name.
	require.Len(t, report.Recent, 2)
	assert.Equal(t, newest.ID, report.Recent[0].ID)
	assert.Equal(t, "CNC-1", report.Recent[0].MachineName)
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 0.0, percentage(0, 0))
	assert.Equal(t, 0.0, percentage(5, 0))
	assert.Equal(t, 100.0, percentage(3, 3))
	assert.Equal(t, 33.33, percentage(1, 3))
	assert.Equal(t, 66.67, percentage(2, 3))
	assert.Equal(t, 50.0, percentage(1, 2))
}
