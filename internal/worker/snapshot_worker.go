package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/melee45/queueing-system/internal/notifier"
	"github.com/melee45/queueing-system/internal/service"
)

// StartSnapshotWorker periodically publishes the latest ticket of every
// category as a snapshot event. Push delivery is best-effort; this is the
// reconciliation layer underneath it, so a display that dropped events
// still converges within one interval.
func StartSnapshotWorker(ctx context.Context, svc *service.TicketService, publisher notifier.Publisher, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go run(ctx, svc, publisher, interval, logger)
}

func run(ctx context.Context, svc *service.TicketService, publisher notifier.Publisher, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			publishSnapshots(ctx, svc, publisher, logger)
		}
	}
}

func publishSnapshots(ctx context.Context, svc *service.TicketService, publisher notifier.Publisher, logger *zap.Logger) {
	categories, err := svc.Categories(ctx)
	if err != nil {
		logger.Warn("snapshot: listing categories failed", zap.Error(err))
		return
	}

	for _, category := range categories {
		ticket, err := svc.Latest(ctx, category.Prefix)
		if err != nil {
			logger.Warn("snapshot: latest lookup failed",
				zap.String("prefix", category.Prefix), zap.Error(err))
			continue
		}
		if ticket == nil {
			continue
		}
		publisher.Publish(notifier.Event{
			ID:         uuid.NewString(),
			Type:       notifier.EventTicketSnapshot,
			Ticket:     *ticket,
			OccurredAt: time.Now(),
		})
	}
}
