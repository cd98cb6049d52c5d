package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"remnant-inventory-backend/internal/model"
)

// consumeRetries bounds the optimistic-concurrency retry loop in Consume.
const consumeRetries = 3

// ListRemnants returns remnants matching the filter, each joined with its
// owning machine. Available remnants are ordered by creation time
// descending; consumed ones by last-update time descending, so the most
// recently used appear first.
func (s *gormStore) ListRemnants(ctx context.Context, filter RemnantFilter) ([]model.Remnant, error) {
	q := s.db.WithContext(ctx).Preload("Machine")

	order := "created_at DESC"
	if filter.Available != nil {
		q = q.Where("available = ?", *filter.Available)
		if !*filter.Available {
			order = "updated_at DESC"
		}
	}
	if filter.MachineID != "" {
		q = q.Where("machine_id = ?", filter.MachineID)
	}
	if filter.Thickness != nil {
		q = q.Where("thickness = ?", *filter.Thickness)
	}

	var remnants []model.Remnant
	if err := q.Order(order).Find(&remnants).Error; err != nil {
		return nil, fmt.Errorf("failed to list remnants: %w", err)
	}
	return remnants, nil
}

// GetRemnant returns a single remnant joined with its owning machine.
func (s *gormStore) GetRemnant(ctx context.Context, id string) (*model.Remnant, error) {
	var remnant model.Remnant
	err := s.db.WithContext(ctx).Preload("Machine").First(&remnant, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load remnant %s: %w", id, err)
	}
	return &remnant, nil
}

// CreateRemnant validates and persists a new remnant. Dimensions and
// quantity must be positive and the owning machine must exist. New remnants
// always start available.
func (s *gormStore) CreateRemnant(ctx context.Context, fields RemnantFields) (*model.Remnant, error) {
	if fields.MachineID == nil || *fields.MachineID == "" {
		return nil, fmt.Errorf("%w: machineId is required", ErrInvalidInput)
	}
	for name, v := range map[string]*float64{
		"length":    fields.Length,
		"width":     fields.Width,
		"thickness": fields.Thickness,
	} {
		if v == nil || *v <= 0 {
			return nil, fmt.Errorf("%w: %s must be a positive number", ErrInvalidInput, name)
		}
	}
	if fields.Quantity == nil || *fields.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be a positive integer", ErrInvalidInput)
	}

	if _, err := s.GetMachine(ctx, *fields.MachineID); err != nil {
		return nil, err
	}

	remnant := model.Remnant{
		MachineID: *fields.MachineID,
		Length:    *fields.Length,
		Width:     *fields.Width,
		Thickness: *fields.Thickness,
		Quantity:  *fields.Quantity,
		Available: true,
	}
	if fields.Image != nil {
		remnant.Image = *fields.Image
	}
	if fields.Note != nil {
		remnant.Note = *fields.Note
	}

	if err := s.db.WithContext(ctx).Create(&remnant).Error; err != nil {
		return nil, fmt.Errorf("failed to create remnant: %w", err)
	}
	return s.GetRemnant(ctx, remnant.ID)
}

// ReplaceRemnant applies a partial update; unspecified fields keep their
// prior values. This is the raw administrative path: it writes quantity and
// availability verbatim and deliberately does NOT enforce the
// quantity/availability coupling that Consume maintains.
func (s *gormStore) ReplaceRemnant(ctx context.Context, id string, fields RemnantFields) (*model.Remnant, error) {
	if _, err := s.GetRemnant(ctx, id); err != nil {
		return nil, err
	}

	if fields.MachineID != nil {
		if _, err := s.GetMachine(ctx, *fields.MachineID); err != nil {
			return nil, err
		}
	}

	updates := map[string]any{"updated_at": time.Now().UTC()}
	if fields.MachineID != nil {
		updates["machine_id"] = *fields.MachineID
	}
	if fields.Length != nil {
		updates["length"] = *fields.Length
	}
	if fields.Width != nil {
		updates["width"] = *fields.Width
	}
	if fields.Thickness != nil {
		updates["thickness"] = *fields.Thickness
	}
	if fields.Quantity != nil {
		updates["quantity"] = *fields.Quantity
	}
	if fields.Available != nil {
		updates["available"] = *fields.Available
	}
	if fields.Image != nil {
		updates["image"] = *fields.Image
	}
	if fields.Note != nil {
		updates["note"] = *fields.Note
	}

	err := s.db.WithContext(ctx).Model(&model.Remnant{}).Where("id = ?", id).Updates(updates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to update remnant %s: %w", id, err)
	}
	return s.GetRemnant(ctx, id)
}

// DeleteRemnant removes a remnant unconditionally given existence.
func (s *gormStore) DeleteRemnant(ctx context.Context, id string) error {
	if _, err := s.GetRemnant(ctx, id); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&model.Remnant{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete remnant %s: %w", id, err)
	}
	return nil
}

// Consume atomically decrements a remnant's quantity and derives its new
// availability state. The write is a conditional update guarded on the
// quantity read in the same attempt, so two concurrent consumptions of the
// same remnant cannot silently lose a decrement: the loser re-reads and
// retries, and its sufficiency check runs against the fresh quantity.
// A failed precondition never mutates state.
func (s *gormStore) Consume(ctx context.Context, id string, amount int) (*ConsumeResult, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be a positive integer", ErrInvalidInput)
	}

	for attempt := 0; attempt < consumeRetries; attempt++ {
		var remnant model.Remnant
		if err := s.db.WithContext(ctx).First(&remnant, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("failed to load remnant %s: %w", id, err)
		}

		if amount > remnant.Quantity {
			return nil, ErrInsufficientQuantity
		}

		remaining, available := Deplete(remnant.Quantity, amount)
		res := s.db.WithContext(ctx).Model(&model.Remnant{}).
			Where("id = ? AND quantity = ?", id, remnant.Quantity).
			Updates(map[string]any{
				"quantity":   remaining,
				"available":  available,
				"updated_at": time.Now().UTC(),
			})
		if res.Error != nil {
			return nil, fmt.Errorf("failed to consume remnant %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			// Someone else consumed in between; re-read and try again.
			continue
		}

		updated, err := s.GetRemnant(ctx, id)
		if err != nil {
			return nil, err
		}
		return &ConsumeResult{Remnant: *updated, WasAvailable: remnant.Available}, nil
	}

	return nil, ErrConflict
}
