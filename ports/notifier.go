package ports

import (
	"context"

	"goscout/models"
)

// Notifier delivers run outcomes to an external channel.
type Notifier interface {
	RunCompleted(ctx context.Context, summary *models.RunSummary) error
}
