package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Machine represents a cutting machine that produces remnants.
type Machine struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:256;not null" json:"name"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`

	// Associations
	Remnants []Remnant `gorm:"foreignKey:MachineID" json:"-"`
}

// BeforeCreate assigns a UUID primary key when none is set.
func (m *Machine) BeforeCreate(_ *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
