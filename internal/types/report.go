package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ComplianceReport is a point-in-time snapshot of a product's passport data,
// verification history and attached documents.
type ComplianceReport struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID   uuid.UUID      `gorm:"type:uuid;index;not null;column:product_id" json:"product_id"`
	Payload     datatypes.JSON `gorm:"column:payload" json:"payload"`
	Completion  int            `gorm:"not null;column:completion" json:"completion"`
	GeneratedBy uuid.UUID      `gorm:"type:uuid;not null;column:generated_by" json:"generated_by"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
}

func (ComplianceReport) TableName() string {
	return "compliance_report"
}
