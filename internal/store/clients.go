package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"remnant-inventory-backend/internal/model"
)

// ListClientOrders returns all client orders, newest first.
func (s *gormStore) ListClientOrders(ctx context.Context) ([]model.ClientOrder, error) {
	var orders []model.ClientOrder
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list client orders: %w", err)
	}
	return orders, nil
}

// GetClientOrder returns a single client order by id.
func (s *gormStore) GetClientOrder(ctx context.Context, id string) (*model.ClientOrder, error) {
	var order model.ClientOrder
	if err := s.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load client order %s: %w", id, err)
	}
	return &order, nil
}

// CreateClientOrder validates and persists a new client order. New orders
// always start available.
func (s *gormStore) CreateClientOrder(ctx context.Context, fields ClientOrderFields) (*model.ClientOrder, error) {
	if fields.ClientName == nil || *fields.ClientName == "" {
		return nil, fmt.Errorf("%w: clientName is required", ErrInvalidInput)
	}
	if fields.MaterialType == nil || *fields.MaterialType == "" {
		return nil, fmt.Errorf("%w: materialType is required", ErrInvalidInput)
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
	if fields.ReceiptNumber == nil || *fields.ReceiptNumber <= 0 {
		return nil, fmt.Errorf("%w: receiptNumber must be a positive integer", ErrInvalidInput)
	}

	order := model.ClientOrder{
		ClientName:    *fields.ClientName,
		MaterialType:  *fields.MaterialType,
		Length:        *fields.Length,
		Width:         *fields.Width,
		Thickness:     *fields.Thickness,
		Quantity:      *fields.Quantity,
		ReceiptNumber: *fields.ReceiptNumber,
		Available:     true,
	}
	if fields.Note != nil {
		order.Note = *fields.Note
	}

	if err := s.db.WithContext(ctx).Create(&order).Error; err != nil {
		return nil, fmt.Errorf("failed to create client order: %w", err)
	}
	return &order, nil
}

// ReplaceClientOrder applies a partial update; unspecified fields keep
// their prior values. Like ReplaceRemnant, this is the raw administrative
// path and does not enforce the quantity/availability coupling.
func (s *gormStore) ReplaceClientOrder(ctx context.Context, id string, fields ClientOrderFields) (*model.ClientOrder, error) {
	if _, err := s.GetClientOrder(ctx, id); err != nil {
		return nil, err
	}

	updates := map[string]any{"updated_at": time.Now().UTC()}
	if fields.ClientName != nil {
		updates["client_name"] = *fields.ClientName
	}
	if fields.MaterialType != nil {
		updates["material_type"] = *fields.MaterialType
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
	if fields.ReceiptNumber != nil {
		updates["receipt_number"] = *fields.ReceiptNumber
	}
	if fields.Available != nil {
		updates["available"] = *fields.Available
	}
	if fields.Note != nil {
		updates["note"] = *fields.Note
	}

	err := s.db.WithContext(ctx).Model(&model.ClientOrder{}).Where("id = ?", id).Updates(updates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to update client order %s: %w", id, err)
	}
	return s.GetClientOrder(ctx, id)
}

// DeleteClientOrder removes a client order unconditionally given existence.
func (s *gormStore) DeleteClientOrder(ctx context.Context, id string) error {
	if _, err := s.GetClientOrder(ctx, id); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&model.ClientOrder{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete client order %s: %w", id, err)
	}
	return nil
}

// ConsumeClientOrder applies the shared depletion rule to a client order,
// with the same conditional-update guard as Consume.
func (s *gormStore) ConsumeClientOrder(ctx context.Context, id string, amount int) (*ClientConsumeResult, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be a positive integer", ErrInvalidInput)
	}

	for attempt := 0; attempt < consumeRetries; attempt++ {
		var order model.ClientOrder
		if err := s.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("failed to load client order %s: %w", id, err)
		}

		if amount > order.Quantity {
			return nil, ErrInsufficientQuantity
		}

		remaining, available := Deplete(order.Quantity, amount)
		res := s.db.WithContext(ctx).Model(&model.ClientOrder{}).
			Where("id = ? AND quantity = ?", id, order.Quantity).
			Updates(map[string]any{
				"quantity":   remaining,
				"available":  available,
				"updated_at": time.Now().UTC(),
			})
		if res.Error != nil {
			return nil, fmt.Errorf("failed to consume client order %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			continue
		}

		updated, err := s.GetClientOrder(ctx, id)
		if err != nil {
			return nil, err
		}
		return &ClientConsumeResult{Order: *updated, WasAvailable: order.Available}, nil
	}

	return nil, ErrConflict
}
