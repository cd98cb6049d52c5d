package store

import (
	"context"

	"gorm.io/gorm"

	"remnant-inventory-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	// DB exposes the underlying connection for components that need raw
	// access (subscription handlers, statistics aggregator).
	DB() *gorm.DB

	// Machine registry.
	ListMachines(ctx context.Context) ([]model.Machine, error)
	GetMachine(ctx context.Context, id string) (*model.Machine, error)
	CreateMachine(ctx context.Context, name string) (*model.Machine, error)
	RenameMachine(ctx context.Context, id, name string) (*model.Machine, error)
	DeleteMachine(ctx context.Context, id string) error

	// Remnant ledger.
	ListRemnants(ctx context.Context, filter RemnantFilter) ([]model.Remnant, error)
	GetRemnant(ctx context.Context, id string) (*model.Remnant, error)
	CreateRemnant(ctx context.Context, fields RemnantFields) (*model.Remnant, error)
	ReplaceRemnant(ctx context.Context, id string, fields RemnantFields) (*model.Remnant, error)
	DeleteRemnant(ctx context.Context, id string) error

	// Consumption engine.
	Consume(ctx context.Context, id string, amount int) (*ConsumeResult, error)

	// Paginated view-backed queries.
	RemnantPage(ctx context.Context, machineID string, available bool, page int) (*RemnantPage, error)

	// Client-order ledger (parallel depletable lot, separate storage).
	ListClientOrders(ctx context.Context) ([]model.ClientOrder, error)
	GetClientOrder(ctx context.Context, id string) (*model.ClientOrder, error)
	CreateClientOrder(ctx context.Context, fields ClientOrderFields) (*model.ClientOrder, error)
	ReplaceClientOrder(ctx context.Context, id string, fields ClientOrderFields) (*model.ClientOrder, error)
	DeleteClientOrder(ctx context.Context, id string) error
	ConsumeClientOrder(ctx context.Context, id string, amount int) (*ClientConsumeResult, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// DB returns the underlying gorm connection.
func (s *gormStore) DB() *gorm.DB {
	return s.db
}
