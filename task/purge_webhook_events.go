package tasks

import (
	"log"
	"time"

	"luckpay/database"
	"luckpay/models"
)

// PurgeOldWebhookEvents drops webhook payloads older than the retention
// window. The transactions themselves are never deleted.
func PurgeOldWebhookEvents(retention time.Duration) {
	cutoff := time.Now().Add(-retention)
	result := database.DB.
		Where("created_at < ?", cutoff).
		Delete(&models.WebhookEvent{})

	if result.Error != nil {
		log.Println("❌ Failed to purge webhook events:", result.Error)
	} else if result.RowsAffected > 0 {
		log.Printf("✅ Purged %d webhook events older than %s\n", result.RowsAffected, retention)
	}
}
