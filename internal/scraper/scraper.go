package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/modem-scraper/modem-scraper-pro/internal/models"
	"github.com/modem-scraper/modem-scraper-pro/internal/storage"
	"github.com/modem-scraper/modem-scraper-pro/internal/telemetry"
	"github.com/modem-scraper/modem-scraper-pro/pkg/hnap"
)

// ModemClient is the protocol surface the scraper needs from pkg/hnap.
type ModemClient interface {
	Stats(ctx context.Context) (*hnap.MultipleHNAPsReply, error)
	Logs(ctx context.Context) (*hnap.MultipleHNAPsLogReply, error)
}

// LogPusher receives new modem event log entries.
type LogPusher interface {
	Push(ctx context.Context, entries []hnap.LogEntry) error
}

// Scraper drives the poll loop: fetch stats, assemble a snapshot, hand it to
// the store and emitters, and forward new log entries.
type Scraper struct {
	client   ModemClient
	store    storage.Store
	emitters []telemetry.Emitter
	logs     LogPusher
	seen     *seenSet

	interval     time.Duration
	cycleTimeout time.Duration
}

// Options configures a Scraper.
type Options struct {
	Interval     time.Duration
	CycleTimeout time.Duration
	// LogWindow bounds the dedup memory for forwarded log entries.
	LogWindow int
	// Logs enables event log forwarding; nil disables it.
	Logs LogPusher
}

// New creates a scraper. Emitters may be empty, in which case snapshots only
// reach the store.
func New(client ModemClient, store storage.Store, emitters []telemetry.Emitter, opts Options) *Scraper {
	if opts.LogWindow <= 0 {
		opts.LogWindow = 30
	}
	return &Scraper{
		client:       client,
		store:        store,
		emitters:     emitters,
		logs:         opts.Logs,
		seen:         newSeenSet(opts.LogWindow),
		interval:     opts.Interval,
		cycleTimeout: opts.CycleTimeout,
	}
}

// Run polls until the context is cancelled. The first cycle starts
// immediately rather than one interval in.
func (s *Scraper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

// runOnce executes one full cycle under the cycle timeout. A failed cycle is
// logged and dropped; the next tick starts clean.
func (s *Scraper) runOnce(ctx context.Context) {
	cycleID := uuid.New()
	ctx, cancel := context.WithTimeout(ctx, s.cycleTimeout)
	defer cancel()

	started := time.Now()
	snap, err := s.Scrape(ctx, cycleID)
	if err != nil {
		log.Error().Err(err).Str("cycle_id", cycleID.String()).Msg("Scrape cycle failed")
		return
	}

	s.store.SaveSnapshot(snap)
	for _, em := range s.emitters {
		if err := em.Emit(ctx, snap); err != nil {
			log.Error().Err(err).Str("emitter", em.Name()).Str("cycle_id", cycleID.String()).Msg("Emit failed")
		}
	}

	if s.logs != nil {
		if err := s.forwardLogs(ctx); err != nil {
			log.Error().Err(err).Str("cycle_id", cycleID.String()).Msg("Log forwarding failed")
		}
	}

	log.Info().
		Str("cycle_id", cycleID.String()).
		Int("downstream", len(snap.Downstream)).
		Int("upstream", len(snap.Upstream)).
		Dur("elapsed", time.Since(started)).
		Msg("Scrape cycle complete")
}

// Scrape fetches and decodes one stats snapshot. Any parse failure fails the
// whole cycle; no partial snapshot is produced.
func (s *Scraper) Scrape(ctx context.Context, cycleID uuid.UUID) (*models.Snapshot, error) {
	reply, err := s.client.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch stats: %w", err)
	}

	downstream, err := hnap.ParseDownstreamChannels(reply.Downstream.Channels)
	if err != nil {
		return nil, fmt.Errorf("decode downstream channels: %w", err)
	}
	upstream, err := hnap.ParseUpstreamChannels(reply.Upstream.Channels)
	if err != nil {
		return nil, fmt.Errorf("decode upstream channels: %w", err)
	}
	uptime, err := hnap.ParseUptime(reply.ConnectionInfo.SystemUpTime)
	if err != nil {
		return nil, fmt.Errorf("decode uptime: %w", err)
	}
	systemTime, err := hnap.ParseSystemTime(reply.ConnectionInfo.SystemTime)
	if err != nil {
		return nil, fmt.Errorf("decode system time: %w", err)
	}

	return &models.Snapshot{
		CycleID:   cycleID,
		ScrapedAt: time.Now().UTC(),
		Device: models.DeviceInfo{
			ModelName:          reply.RegisterInfo.ModelName,
			SerialNumber:       reply.RegisterInfo.SerialNumber,
			MACAddress:         reply.RegisterInfo.MACAddress,
			FirmwareVersion:    reply.DeviceStatus.FirmwareVersion,
			InternetConnection: reply.DeviceStatus.InternetConnection,
		},
		Connection: models.ConnectionInfo{
			Uptime:        uptime,
			SystemTime:    systemTime,
			NetworkAccess: reply.ConnectionInfo.NetworkAccess,
		},
		Startup:    buildStartup(&reply.StartupSequence),
		Downstream: downstream,
		Upstream:   upstream,
	}, nil
}

// forwardLogs fetches the event log and pushes entries not seen before.
func (s *Scraper) forwardLogs(ctx context.Context) error {
	reply, err := s.client.Logs(ctx)
	if err != nil {
		return fmt.Errorf("fetch event log: %w", err)
	}
	entries, err := hnap.ParseEventLog(reply.StatusLog.Entries)
	if err != nil {
		return fmt.Errorf("decode event log: %w", err)
	}

	fresh := entries[:0:0]
	for _, e := range entries {
		if s.seen.Add(e.Key()) {
			fresh = append(fresh, e)
		}
	}
	if len(fresh) == 0 {
		return nil
	}
	return s.logs.Push(ctx, fresh)
}

// buildStartup flattens the startup sequence reply into ordered table rows.
// The downstream scan row has no status field of its own; the frequency
// doubles as its state.
func buildStartup(r *hnap.StartupSequenceReply) []models.StartupStep {
	return []models.StartupStep{
		{Name: "Downstream Scan", Status: r.DSFreq, Comment: r.DSComment},
		{Name: "Connectivity State", Status: r.ConnectivityStatus, Comment: r.ConnectivityComment},
		{Name: "Boot State", Status: r.BootStatus, Comment: r.BootComment},
		{Name: "Configuration File", Status: r.ConfigurationFileStatus, Comment: r.ConfigurationFileComment},
		{Name: "Security", Status: r.SecurityStatus, Comment: r.SecurityComment},
	}
}
