package store

import (
	"time"

	"remnant-inventory-backend/internal/model"
)

// PageSize is the fixed size of the paginated view queries.
const PageSize = 10

// RemnantFilter narrows ListRemnants. Nil / empty fields are ignored.
type RemnantFilter struct {
	Available *bool
	MachineID string
	Thickness *float64
}

// RemnantFields carries field values for remnant create and replace
// operations. Pointer fields distinguish "absent" from a zero value, so a
// replace only touches the fields the caller supplied.
type RemnantFields struct {
	MachineID *string
	Length    *float64
	Width     *float64
	Thickness *float64
	Quantity  *int
	Available *bool
	Image     *string
	Note      *string
}

// ClientOrderFields carries field values for client-order create and
// replace operations.
type ClientOrderFields struct {
	ClientName    *string
	MaterialType  *string
	Length        *float64
	Width         *float64
	Thickness     *float64
	Quantity      *int
	ReceiptNumber *int
	Available     *bool
	Note          *string
}

// ConsumeResult is the outcome of a successful remnant consumption.
type ConsumeResult struct {
	Remnant      model.Remnant
	WasAvailable bool // availability state before the consumption
}

// Exhausted reports whether this consumption flipped the remnant from
// available to fully consumed.
func (r ConsumeResult) Exhausted() bool {
	return r.WasAvailable && !r.Remnant.Available
}

// ClientConsumeResult is the outcome of a successful client-order
// consumption.
type ClientConsumeResult struct {
	Order        model.ClientOrder
	WasAvailable bool
}

// Exhausted reports whether this consumption flipped the order from
// available to fully consumed.
func (r ClientConsumeResult) Exhausted() bool {
	return r.WasAvailable && !r.Order.Available
}

// RemnantRow is a row of the availability views: a remnant joined with its
// owning machine's name.
type RemnantRow struct {
	ID          string    `json:"id"`
	MachineID   string    `json:"machineId"`
	Length      float64   `json:"length"`
	Width       float64   `json:"width"`
	Thickness   float64   `json:"thickness"`
	Quantity    int       `json:"quantity"`
	Available   bool      `json:"available"`
	Image       string    `json:"image,omitempty"`
	Note        string    `json:"note,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	MachineName string    `gorm:"column:machine_name" json:"machineName"`
}

// RemnantPage is one page of a view-backed remnant query.
type RemnantPage struct {
	Page       int          `json:"page"`
	Limit      int          `json:"limit"`
	Total      int64        `json:"total"`
	TotalPages int          `json:"totalPages"`
	Data       []RemnantRow `json:"data"`
}
