package dto

// WebhookEvent is the slice of the payment provider's event envelope the
// relay cares about. Signature verification is handled upstream; only the
// event type and object fields are consumed here.
type WebhookEvent struct {
	ID   string           `json:"id"`
	Type string           `json:"type" binding:"required"`
	Data WebhookEventData `json:"data"`
}

type WebhookEventData struct {
	Object WebhookObject `json:"object"`
}

type WebhookObject struct {
	ID                string `json:"id"`
	Customer          string `json:"customer"`
	Subscription      string `json:"subscription"`
	Status            string `json:"status"`
	ClientReferenceID string `json:"client_reference_id"`
	CurrentPeriodEnd  int64  `json:"current_period_end"`
}
