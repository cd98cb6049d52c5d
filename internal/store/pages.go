package store

import (
	"context"
	"fmt"
	"math"
)

// RemnantPage returns one fixed-size page of a machine's remnants in the
// given availability state, backed by the pre-joined views. Available rows
// are ordered by creation time descending, consumed rows by last-update
// time descending, matching the snapshot ordering.
func (s *gormStore) RemnantPage(ctx context.Context, machineID string, available bool, page int) (*RemnantPage, error) {
	if page < 1 {
		page = 1
	}

	viewName := "vw_remnants_consumed"
	orderColumn := "updated_at"
	if available {
		viewName = "vw_remnants_available"
		orderColumn = "created_at"
	}

	var total int64
	err := s.db.WithContext(ctx).Table(viewName).
		Where("machine_id = ?", machineID).
		Count(&total).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count %s rows: %w", viewName, err)
	}

	rows := make([]RemnantRow, 0, PageSize)
	err = s.db.WithContext(ctx).Table(viewName).
		Where("machine_id = ?", machineID).
		Order(orderColumn + " DESC").
		Limit(PageSize).
		Offset((page - 1) * PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read %s page %d: %w", viewName, page, err)
	}

	return &RemnantPage{
		Page:       page,
		Limit:      PageSize,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(PageSize))),
		Data:       rows,
	}, nil
}
