package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/traceleaf/dpp-backend/internal/dpp"
)

// Material is one entry of the product's bill of materials, stored as a JSON
// array on the product row.
type Material struct {
	Name       string  `json:"name"`
	Percentage float64 `json:"percentage"`
	Recycled   bool    `json:"recycled"`
}

type Product struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	GTIN             string         `gorm:"index;not null;column:gtin" json:"gtin"`
	SerialNumber     string         `gorm:"column:serial_number" json:"serial_number"`
	Name             string         `gorm:"not null;column:name" json:"name"`
	Description      string         `gorm:"column:description" json:"description"`
	Category         string         `gorm:"column:category" json:"category"`
	ManufacturerName string         `gorm:"column:manufacturer_name" json:"manufacturer_name"`
	CountryOfOrigin  string         `gorm:"column:country_of_origin" json:"country_of_origin"`
	SupplierName     string         `gorm:"column:supplier_name" json:"supplier_name"`
	SupplierContact  string         `gorm:"column:supplier_contact" json:"supplier_contact"`
	Materials        datatypes.JSON `gorm:"column:materials" json:"materials"`
	DPPStatus        dpp.Status     `gorm:"not null;index;column:dpp_status" json:"dpp_status"`
	DPPCompletion    int            `gorm:"not null;column:dpp_completion" json:"dpp_completion"`
	CreatedBy        uuid.UUID      `gorm:"type:uuid;not null;column:created_by" json:"created_by"`
	CreatedAt        time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null" json:"updated_at"`
}

func (Product) TableName() string {
	return "product"
}
