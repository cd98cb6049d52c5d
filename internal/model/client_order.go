package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClientOrder is a depletable lot of client-supplied material. It shares the
// quantity/availability shape of Remnant but is a fully separate ledger with
// no machine association.
type ClientOrder struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	ClientName    string    `gorm:"size:256;not null" json:"clientName"`
	MaterialType  string    `gorm:"size:256;not null" json:"materialType"`
	Length        float64   `gorm:"not null" json:"length"`
	Width         float64   `gorm:"not null" json:"width"`
	Thickness     float64   `gorm:"not null" json:"thickness"`
	Quantity      int       `gorm:"not null" json:"quantity"`
	ReceiptNumber int       `gorm:"not null" json:"receiptNumber"`
	Note          string    `gorm:"size:512" json:"note,omitempty"`
	Available     bool      `gorm:"not null;default:true" json:"available"`
	CreatedAt     time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt     time.Time `gorm:"not null" json:"updatedAt"`
}

// BeforeCreate assigns a UUID primary key when none is set.
func (c *ClientOrder) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
