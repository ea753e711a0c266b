package types

import (
	"time"

	"github.com/google/uuid"

	"github.com/traceleaf/dpp-backend/internal/dpp"
)

// VerificationEntry is one immutable record of the per-product audit trail.
// Rows are only ever inserted; the repo interface exposes no update or delete.
type VerificationEntry struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID  uuid.UUID  `gorm:"type:uuid;index;not null;column:product_id" json:"product_id"`
	Event      dpp.Action `gorm:"not null;column:event" json:"event"`
	FromStatus dpp.Status `gorm:"not null;column:from_status" json:"from_status"`
	ToStatus   dpp.Status `gorm:"not null;column:to_status" json:"to_status"`
	VerifierID uuid.UUID  `gorm:"type:uuid;not null;column:verifier_id" json:"verifier_id"`
	Notes      string     `gorm:"column:notes" json:"notes,omitempty"`
	CreatedAt  time.Time  `gorm:"not null;index" json:"created_at"`
}

func (VerificationEntry) TableName() string {
	return "verification_entry"
}
