package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// WebhookEvent keeps the verbatim payload of every inbound gateway
// callback. The row is written before the callback is acknowledged, so
// a crash after the ack never loses the payload.
type WebhookEvent struct {
	gorm.Model

	Gateway   string         `gorm:"size:32;index" json:"gateway"`
	Reference string         `gorm:"size:64;index" json:"reference"`
	Payload   datatypes.JSON `json:"payload"`
	Outcome   string         `gorm:"size:32" json:"outcome"`
}

const (
	WebhookApplied  = "applied"
	WebhookReplayed = "replayed"
	WebhookMismatch = "status_mismatch"
	WebhookOrphaned = "no_transaction"
	WebhookDeferred = "deferred"
)
