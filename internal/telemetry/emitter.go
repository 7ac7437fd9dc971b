package telemetry

import (
	"context"

	"github.com/modem-scraper/modem-scraper-pro/internal/models"
)

// Emitter receives completed scrape snapshots for export. Implementations
// must not hold on to the snapshot past the call.
type Emitter interface {
	// Name identifies the emitter in logs.
	Name() string
	// Emit exports one snapshot.
	Emit(ctx context.Context, snap *models.Snapshot) error
	// Close releases the underlying connection.
	Close()
}
