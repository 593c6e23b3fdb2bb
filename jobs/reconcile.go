package jobs

import (
	"context"
	"os"
	"strconv"
	"time"

	"luckpay/services"
	tasks "luckpay/task"
)

// StartPayoutReconciler sweeps transactions stuck in processing and asks
// their gateway for the final payout state. Interval and stuck age come
// from RECONCILE_INTERVAL_SECONDS and RECONCILE_STUCK_MINUTES.
func StartPayoutReconciler(svc *services.PayoutService) {
	interval := durationFromEnv("RECONCILE_INTERVAL_SECONDS", time.Second, 120)
	maxAge := durationFromEnv("RECONCILE_STUCK_MINUTES", time.Minute, 10)

	ticker := time.NewTicker(interval)
	go func() {
		for {
			<-ticker.C
			svc.ReconcileStuck(context.Background(), maxAge)
		}
	}()
}

// StartWebhookPurger trims old webhook payload rows once an hour,
// keeping WEBHOOK_RETENTION_DAYS of history.
func StartWebhookPurger() {
	retention := durationFromEnv("WEBHOOK_RETENTION_DAYS", 24*time.Hour, 30)

	ticker := time.NewTicker(time.Hour)
	go func() {
		for {
			<-ticker.C
			tasks.PurgeOldWebhookEvents(retention)
		}
	}()
}

func durationFromEnv(key string, unit time.Duration, fallback int) time.Duration {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return time.Duration(v) * unit
		}
	}
	return time.Duration(fallback) * unit
}
