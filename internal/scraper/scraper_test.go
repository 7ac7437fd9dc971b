package scraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/modem-scraper/modem-scraper-pro/internal/models"
	"github.com/modem-scraper/modem-scraper-pro/internal/storage"
	"github.com/modem-scraper/modem-scraper-pro/internal/telemetry"
	"github.com/modem-scraper/modem-scraper-pro/pkg/hnap"
)

const (
	testDownstream = "1^Locked^QAM256^5^543000000^3.2^38.6^512^3^|+|2^Locked^QAM256^6^549000000^2.9^38.2^207^0^"
	testUpstream   = "1^Locked^SC-QAM^1^6400000^17300000^43.5^|+|2^Locked^SC-QAM^2^6400000^23700000^44.0^"
	testEventLog   = "0^6:32:11^01/03/2024^3^SYNC Timing Synchronization failure}-{0^6:35:42^01/03/2024^5^Honoring MDD; IP provisioning mode = Dual-stack"
)

type fakeClient struct {
	statsCalls int
	logsCalls  int
	statsErr   error
	downstream string
	logPayload string
}

func (f *fakeClient) Stats(context.Context) (*hnap.MultipleHNAPsReply, error) {
	f.statsCalls++
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return &hnap.MultipleHNAPsReply{
		DeviceStatus: hnap.DeviceStatusReply{
			FirmwareVersion:    "AT01.01.010.042324_S3.04.735",
			InternetConnection: "Connected",
		},
		RegisterInfo: hnap.RegisterInfoReply{
			MACAddress:   "AA:BB:CC:DD:EE:FF",
			SerialNumber: "ABCD12345678",
			ModelName:    "S33",
		},
		StartupSequence: hnap.StartupSequenceReply{
			DSFreq:             "543000000",
			ConnectivityStatus: "OK",
			BootStatus:         "OK",
		},
		ConnectionInfo: hnap.ConnectionInfoReply{
			SystemUpTime:  "7 days 02h:56m:12s",
			SystemTime:    "Fri Mar 01 13:42:01 2024",
			NetworkAccess: "Allowed",
		},
		Downstream: hnap.DownstreamChannelReply{Channels: f.downstream},
		Upstream:   hnap.UpstreamChannelReply{Channels: testUpstream},
	}, nil
}

func (f *fakeClient) Logs(context.Context) (*hnap.MultipleHNAPsLogReply, error) {
	f.logsCalls++
	return &hnap.MultipleHNAPsLogReply{
		StatusLog: hnap.StatusLogReply{Entries: f.logPayload},
	}, nil
}

type recordingEmitter struct {
	snaps []*models.Snapshot
	err   error
}

func (e *recordingEmitter) Name() string { return "recording" }
func (e *recordingEmitter) Emit(_ context.Context, snap *models.Snapshot) error {
	e.snaps = append(e.snaps, snap)
	return e.err
}
func (e *recordingEmitter) Close() {}

type recordingPusher struct {
	batches [][]hnap.LogEntry
}

func (p *recordingPusher) Push(_ context.Context, entries []hnap.LogEntry) error {
	p.batches = append(p.batches, entries)
	return nil
}

func TestScrapeAssemblesSnapshot(t *testing.T) {
	client := &fakeClient{downstream: testDownstream}
	s := New(client, storage.NewMemoryStore(), nil, Options{Interval: time.Minute, CycleTimeout: time.Second})

	snap, err := s.Scrape(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}

	if snap.Device.ModelName != "S33" {
		t.Errorf("model = %q, want S33", snap.Device.ModelName)
	}
	if len(snap.Downstream) != 2 || len(snap.Upstream) != 2 {
		t.Fatalf("got %d/%d channels, want 2/2", len(snap.Downstream), len(snap.Upstream))
	}
	wantUptime := 7*24*time.Hour + 2*time.Hour + 56*time.Minute + 12*time.Second
	if snap.Connection.Uptime != wantUptime {
		t.Errorf("uptime = %v, want %v", snap.Connection.Uptime, wantUptime)
	}
	if len(snap.Startup) != 5 {
		t.Fatalf("got %d startup steps, want 5", len(snap.Startup))
	}
	if snap.Startup[0].Name != "Downstream Scan" || snap.Startup[0].Status != "543000000" {
		t.Errorf("unexpected first startup step: %+v", snap.Startup[0])
	}
}

func TestScrapeRejectsMalformedChannelTable(t *testing.T) {
	client := &fakeClient{downstream: "1^Locked^QAM256^5^543000000^"}
	s := New(client, storage.NewMemoryStore(), nil, Options{Interval: time.Minute, CycleTimeout: time.Second})

	_, err := s.Scrape(context.Background(), uuid.New())
	if err == nil {
		t.Fatal("expected error for truncated channel entry")
	}
	var parseErr *hnap.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("error %v is not a ParseError", err)
	}
}

func TestRunOnceStoresAndEmits(t *testing.T) {
	client := &fakeClient{downstream: testDownstream}
	store := storage.NewMemoryStore()
	emitter := &recordingEmitter{}
	s := New(client, store, []telemetry.Emitter{emitter}, Options{Interval: time.Minute, CycleTimeout: time.Second})

	s.runOnce(context.Background())

	if _, ok := store.LatestSnapshot(); !ok {
		t.Fatal("store has no snapshot after a successful cycle")
	}
	if len(emitter.snaps) != 1 {
		t.Fatalf("emitter saw %d snapshots, want 1", len(emitter.snaps))
	}
}

func TestFailedCycleLeavesStoreUntouched(t *testing.T) {
	client := &fakeClient{statsErr: &hnap.NetworkError{Action: "GetMultipleHNAPs", Err: errors.New("connection refused")}}
	store := storage.NewMemoryStore()
	s := New(client, store, nil, Options{Interval: time.Minute, CycleTimeout: time.Second})

	s.runOnce(context.Background())

	if _, ok := store.LatestSnapshot(); ok {
		t.Fatal("failed cycle must not store a snapshot")
	}
}

func TestForwardLogsDeduplicatesAcrossPolls(t *testing.T) {
	client := &fakeClient{downstream: testDownstream, logPayload: testEventLog}
	pusher := &recordingPusher{}
	s := New(client, storage.NewMemoryStore(), nil, Options{
		Interval: time.Minute, CycleTimeout: time.Second, LogWindow: 10, Logs: pusher,
	})

	if err := s.forwardLogs(context.Background()); err != nil {
		t.Fatalf("first forward: %v", err)
	}
	if len(pusher.batches) != 1 || len(pusher.batches[0]) != 2 {
		t.Fatalf("first poll pushed %v, want one batch of 2", pusher.batches)
	}

	// Same window again plus one new entry: only the new one goes out.
	client.logPayload = testEventLog + "}-{0^6:40:03^01/03/2024^4^Dynamic Range Window violation"
	if err := s.forwardLogs(context.Background()); err != nil {
		t.Fatalf("second forward: %v", err)
	}
	if len(pusher.batches) != 2 || len(pusher.batches[1]) != 1 {
		t.Fatalf("second poll pushed %v, want one new entry", pusher.batches)
	}

	// No new entries means no push at all.
	if err := s.forwardLogs(context.Background()); err != nil {
		t.Fatalf("third forward: %v", err)
	}
	if len(pusher.batches) != 2 {
		t.Fatalf("unchanged window must not push, got %d batches", len(pusher.batches))
	}
}
