package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Webhook struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string         `gorm:"not null;column:name" json:"name"`
	URL          string         `gorm:"not null;column:url" json:"url"`
	Secret       string         `gorm:"not null;column:secret" json:"-"`
	Events       datatypes.JSON `gorm:"column:events" json:"events"`
	Active       bool           `gorm:"not null;column:active" json:"active"`
	FailureCount int            `gorm:"not null;column:failure_count" json:"failure_count"`
	DisabledAt   *time.Time     `gorm:"column:disabled_at" json:"disabled_at,omitempty"`
	CreatedBy    uuid.UUID      `gorm:"type:uuid;not null;column:created_by" json:"created_by"`
	CreatedAt    time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null" json:"updated_at"`
}

func (Webhook) TableName() string {
	return "webhook"
}

// WebhookDelivery records one delivery attempt against one endpoint.
type WebhookDelivery struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	WebhookID  uuid.UUID      `gorm:"type:uuid;index;not null;column:webhook_id" json:"webhook_id"`
	Event      string         `gorm:"not null;column:event" json:"event"`
	Payload    datatypes.JSON `gorm:"column:payload" json:"payload"`
	Attempt    int            `gorm:"not null;column:attempt" json:"attempt"`
	StatusCode int            `gorm:"column:status_code" json:"status_code"`
	Success    bool           `gorm:"not null;column:success" json:"success"`
	Error      string         `gorm:"column:error" json:"error,omitempty"`
	CreatedAt  time.Time      `gorm:"not null" json:"created_at"`
}

func (WebhookDelivery) TableName() string {
	return "webhook_delivery"
}
