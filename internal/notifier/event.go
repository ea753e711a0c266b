package notifier

import (
	"time"

	"github.com/google/uuid"

	"github.com/traceleaf/dpp-backend/internal/dpp"
)

// Event names carried on the wire to subscribed endpoints.
const (
	EventProductSubmitted         = "product.submitted"
	EventProductApproved          = "product.approved"
	EventProductRejected          = "product.rejected"
	EventProductChangesRequested  = "product.changes_requested"
	EventProductSupplierRequested = "product.supplier_data_requested"
	EventReportGenerated          = "report.generated"
	EventWebhookTest              = "webhook.test"
)

// EventForAction maps a passport transition to its outbound event name.
func EventForAction(a dpp.Action) string {
	switch a {
	case dpp.ActionSubmitForVerification:
		return EventProductSubmitted
	case dpp.ActionApprove:
		return EventProductApproved
	case dpp.ActionReject:
		return EventProductRejected
	case dpp.ActionRequestChanges:
		return EventProductChangesRequested
	case dpp.ActionRequestSupplierData:
		return EventProductSupplierRequested
	default:
		return ""
	}
}

// Event is one fire-and-forget notification. Producers never wait on
// delivery; the dispatcher owns retries and bookkeeping.
type Event struct {
	ID         uuid.UUID              `json:"id"`
	Name       string                 `json:"name"`
	ProductID  uuid.UUID              `json:"product_id,omitempty"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

func NewEvent(name string, productID uuid.UUID, payload map[string]interface{}) Event {
	return Event{
		ID:         uuid.New(),
		Name:       name,
		ProductID:  productID,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	}
}
