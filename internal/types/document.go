package types

import (
	"time"

	"github.com/google/uuid"
)

// Document is compliance-document metadata attached to a product. The file
// itself lives in external storage; the URL is opaque to this service.
type Document struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID   uuid.UUID `gorm:"type:uuid;index;not null;column:product_id" json:"product_id"`
	Name        string    `gorm:"not null;column:name" json:"name"`
	ContentType string    `gorm:"column:content_type" json:"content_type"`
	URL         string    `gorm:"not null;column:url" json:"url"`
	UploadedBy  uuid.UUID `gorm:"type:uuid;not null;column:uploaded_by" json:"uploaded_by"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}

func (Document) TableName() string {
	return "document"
}
