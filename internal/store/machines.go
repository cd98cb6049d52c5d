package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"remnant-inventory-backend/internal/model"
)

// ListMachines returns all machines ordered by name.
func (s *gormStore) ListMachines(ctx context.Context) ([]model.Machine, error) {
	var machines []model.Machine
	if err := s.db.WithContext(ctx).Order("name").Find(&machines).Error; err != nil {
		return nil, fmt.Errorf("failed to list machines: %w", err)
	}
	return machines, nil
}

// GetMachine returns a single machine by id.
func (s *gormStore) GetMachine(ctx context.Context, id string) (*model.Machine, error) {
	var machine model.Machine
	if err := s.db.WithContext(ctx).First(&machine, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMachineNotFound
		}
		return nil, fmt.Errorf("failed to load machine %s: %w", id, err)
	}
	return &machine, nil
}

// CreateMachine registers a new cutting machine.
func (s *gormStore) CreateMachine(ctx context.Context, name string) (*model.Machine, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: machine name is required", ErrInvalidInput)
	}

	machine := model.Machine{Name: name}
	if err := s.db.WithContext(ctx).Create(&machine).Error; err != nil {
		return nil, fmt.Errorf("failed to create machine: %w", err)
	}
	return &machine, nil
}

// RenameMachine updates a machine's display name. Renames are not exercised
// by consumption flows; remnants join the new name on their next read.
func (s *gormStore) RenameMachine(ctx context.Context, id, name string) (*model.Machine, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: machine name is required", ErrInvalidInput)
	}

	machine, err := s.GetMachine(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{"name": name, "updated_at": time.Now().UTC()}
	if err := s.db.WithContext(ctx).Model(machine).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to rename machine %s: %w", id, err)
	}
	return machine, nil
}

// DeleteMachine removes a machine and all of its remnants. The cascade is
// issued explicitly inside one transaction rather than relying on the
// foreign key, so it behaves identically on every supported driver.
func (s *gormStore) DeleteMachine(ctx context.Context, id string) error {
	if _, err := s.GetMachine(ctx, id); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("machine_id = ?", id).Delete(&model.Remnant{}).Error; err != nil {
			return fmt.Errorf("failed to delete remnants of machine %s: %w", id, err)
		}
		if err := tx.Delete(&model.Machine{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete machine %s: %w", id, err)
		}
		return nil
	})
}
