package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Remnant is a tracked material offcut. Quantity is depleted by consumption
// operations; Available mirrors quantity > 0 only on that path (an
// administrative replace may set the two fields independently).
type Remnant struct {
	ID        string  `gorm:"primaryKey;size:36" json:"id"`
	MachineID string  `gorm:"size:36;not null;index:idx_remnants_machine_state,priority:1" json:"machineId"`
	Length    float64 `gorm:"not null" json:"length"`
	Width     float64 `gorm:"not null" json:"width"`
	Thickness float64 `gorm:"not null;index" json:"thickness"`
	Quantity  int     `gorm:"not null" json:"quantity"`
	Available bool    `gorm:"not null;default:true;index:idx_remnants_machine_state,priority:2" json:"available"`
	// Image holds either an /uploads/... path or an inlined data URI,
	// depending on the deployment's upload mode.
	Image     string    `gorm:"type:text" json:"image,omitempty"`
	Note      string    `gorm:"size:512" json:"note,omitempty"`
	CreatedAt time.Time `gorm:"not null;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null;index" json:"updatedAt"`

	// Associations
	Machine Machine `gorm:"constraint:OnDelete:CASCADE" json:"machine"`
}

// BeforeCreate assigns a UUID primary key when none is set.
func (r *Remnant) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
