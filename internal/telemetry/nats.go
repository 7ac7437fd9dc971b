package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/modem-scraper/modem-scraper-pro/internal/models"
	"github.com/modem-scraper/modem-scraper-pro/pkg/hnap"
)

// NATSEmitter publishes channel stats as JSON points on NATS subjects:
// <prefix>.downstream, <prefix>.upstream and <prefix>.status, one message
// per channel so consumers can subscribe selectively.
type NATSEmitter struct {
	nc     *nats.Conn
	prefix string
}

// NewNATSEmitter creates an emitter on an established connection. The
// connection is owned by the emitter from here on.
func NewNATSEmitter(nc *nats.Conn, prefix string) *NATSEmitter {
	return &NATSEmitter{nc: nc, prefix: prefix}
}

// Name identifies the emitter in logs.
func (e *NATSEmitter) Name() string { return "nats" }

// downstreamPoint is the wire form of one downstream channel observation.
type downstreamPoint struct {
	CycleID   uuid.UUID `json:"cycle_id"`
	ScrapedAt time.Time `json:"scraped_at"`
	hnap.DownstreamChannel
}

// upstreamPoint is the wire form of one upstream channel observation.
type upstreamPoint struct {
	CycleID   uuid.UUID `json:"cycle_id"`
	ScrapedAt time.Time `json:"scraped_at"`
	hnap.UpstreamChannel
}

// statusPoint summarizes the non-channel portion of a snapshot.
type statusPoint struct {
	CycleID    uuid.UUID             `json:"cycle_id"`
	ScrapedAt  time.Time             `json:"scraped_at"`
	Device     models.DeviceInfo     `json:"device"`
	Connection models.ConnectionInfo `json:"connection"`
	Downstream int                   `json:"downstream_channels"`
	Upstream   int                   `json:"upstream_channels"`
}

// Emit publishes every channel of the snapshot plus one status summary.
func (e *NATSEmitter) Emit(ctx context.Context, snap *models.Snapshot) error {
	for _, ch := range snap.Downstream {
		point := downstreamPoint{CycleID: snap.CycleID, ScrapedAt: snap.ScrapedAt, DownstreamChannel: ch}
		if err := e.publish(e.prefix+".downstream", point); err != nil {
			return err
		}
	}
	for _, ch := range snap.Upstream {
		point := upstreamPoint{CycleID: snap.CycleID, ScrapedAt: snap.ScrapedAt, UpstreamChannel: ch}
		if err := e.publish(e.prefix+".upstream", point); err != nil {
			return err
		}
	}

	status := statusPoint{
		CycleID:    snap.CycleID,
		ScrapedAt:  snap.ScrapedAt,
		Device:     snap.Device,
		Connection: snap.Connection,
		Downstream: len(snap.Downstream),
		Upstream:   len(snap.Upstream),
	}
	if err := e.publish(e.prefix+".status", status); err != nil {
		return err
	}

	deadline := 5 * time.Second
	if d, ok := ctx.Deadline(); ok {
		deadline = time.Until(d)
	}
	if err := e.nc.FlushTimeout(deadline); err != nil {
		return fmt.Errorf("flush nats: %w", err)
	}
	return nil
}

func (e *NATSEmitter) publish(subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal point: %w", err)
	}
	if err := e.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Close drains and closes the connection.
func (e *NATSEmitter) Close() {
	e.nc.Close()
}
