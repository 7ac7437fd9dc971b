package hnap

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const downstreamPayload = "1^Locked^QAM256^1^549000000^7.2^39.1^123^4^|+|" +
	"2^Locked^QAM256^2^555000000^6.8^38.9^0^0^|+|" +
	"3^Not Locked^OFDM PLC^3^690000000^5.0^36.0^0^0^|+|" +
	"4^Locked^QAM256^4^561000000^7.0^39.0^17^2^"

const upstreamPayload = "1^Locked^SC-QAM^1^6400000^17600000^45.5^|+|" +
	"2^Locked^SC-QAM^2^6400000^24000000^46.0^"

func TestParseDownstreamChannels(t *testing.T) {
	channels, err := ParseDownstreamChannels(downstreamPayload)
	if err != nil {
		t.Fatalf("ParseDownstreamChannels: %v", err)
	}
	if len(channels) != 4 {
		t.Fatalf("got %d channels, want 4", len(channels))
	}

	// Input order is preserved.
	for i, ch := range channels {
		if ch.ChannelID != i+1 {
			t.Errorf("channel %d: id %d, want %d", i, ch.ChannelID, i+1)
		}
	}

	first := channels[0]
	if !first.LockStatus || first.Modulation != "QAM256" || first.FrequencyHz != 549000000 {
		t.Errorf("unexpected first channel: %+v", first)
	}
	if first.PowerDBmV != 7.2 || first.SNRDb != 39.1 || first.Corrected != 123 || first.Uncorrectables != 4 {
		t.Errorf("unexpected first channel numerics: %+v", first)
	}
	if channels[2].LockStatus {
		t.Error("channel 3 should not be locked")
	}
}

func TestParseUpstreamChannels(t *testing.T) {
	channels, err := ParseUpstreamChannels(upstreamPayload)
	if err != nil {
		t.Fatalf("ParseUpstreamChannels: %v", err)
	}
	if len(channels) != 2 {
		t.Fatalf("got %d channels, want 2", len(channels))
	}
	if channels[0].WidthHz != 6400000 || channels[0].FrequencyHz != 17600000 {
		t.Errorf("unexpected upstream channel: %+v", channels[0])
	}
	if channels[1].PowerDBmV != 46.0 {
		t.Errorf("upstream power %v, want 46.0", channels[1].PowerDBmV)
	}
}

func TestParseChannelsMissingFieldNamesEntry(t *testing.T) {
	// Second entry is short one field.
	payload := "1^Locked^QAM256^1^549000000^7.2^39.1^123^4^|+|" +
		"2^Locked^QAM256^2^555000000^6.8^38.9^0^"

	channels, err := ParseDownstreamChannels(payload)
	if channels != nil {
		t.Fatalf("expected no partial result, got %d channels", len(channels))
	}

	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ParseError, got %T: %v", err, err)
	}
	if perr.Entry != 1 {
		t.Errorf("error names entry %d, want 1", perr.Entry)
	}
}

func TestParseChannelsBadNumericNotCoerced(t *testing.T) {
	payload := "1^Locked^QAM256^1^notahertz^7.2^39.1^123^4^"

	if _, err := ParseDownstreamChannels(payload); err == nil {
		t.Fatal("expected error for non-numeric frequency")
	} else {
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Fatalf("expected ParseError, got %T", err)
		}
		if perr.Field != "frequency" || perr.Value != "notahertz" {
			t.Errorf("unexpected error detail: %+v", perr)
		}
	}
}

func TestParseChannelsIgnoresExtraTrailingFields(t *testing.T) {
	// Newer firmware appends fields; they must not break parsing.
	payload := "1^Locked^QAM256^1^549000000^7.2^39.1^123^4^future^fields^"

	channels, err := ParseDownstreamChannels(payload)
	if err != nil {
		t.Fatalf("ParseDownstreamChannels: %v", err)
	}
	if len(channels) != 1 || channels[0].FrequencyHz != 549000000 {
		t.Fatalf("unexpected result: %+v", channels)
	}
}

func TestParseChannelsEmptyPayload(t *testing.T) {
	channels, err := ParseUpstreamChannels("  ")
	if err != nil {
		t.Fatalf("empty payload should not error: %v", err)
	}
	if len(channels) != 0 {
		t.Fatalf("expected no channels, got %d", len(channels))
	}
}

func TestParseUptime(t *testing.T) {
	d, err := ParseUptime("3 days 13h:14m:15s")
	if err != nil {
		t.Fatalf("ParseUptime: %v", err)
	}
	want := 3*24*time.Hour + 13*time.Hour + 14*time.Minute + 15*time.Second
	if d != want {
		t.Errorf("got %v, want %v", d, want)
	}

	if _, err := ParseUptime("13:14:15"); err == nil {
		t.Error("expected error for malformed uptime")
	}
}

func TestParseSystemTime(t *testing.T) {
	got, err := ParseSystemTime("Mon Jan  2 15:04:05 2023")
	if err != nil {
		t.Fatalf("ParseSystemTime: %v", err)
	}
	if got.Year() != 2023 || got.Hour() != 15 {
		t.Errorf("unexpected time: %v", got)
	}

	if _, err := ParseSystemTime("02/01/2023 15:04"); err == nil {
		t.Error("expected error for non-asctime input")
	}
}

func TestParseEventLog(t *testing.T) {
	payload := strings.Join([]string{
		"0^13:42:01^05/03/2024^3^SYNC Timing Synchronization failure",
		"0^13:45:10^05/03/2024^5^Honoring MDD; IP provisioning mode = Dual-stack",
		"0^14:01:33^05/03/2024^4^Dynamic Range Window violation",
	}, logEntrySep)

	entries, err := ParseEventLog(payload)
	if err != nil {
		t.Fatalf("ParseEventLog: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	if entries[0].Level != "error" || entries[1].Level != "info" || entries[2].Level != "warn" {
		t.Errorf("unexpected levels: %s %s %s", entries[0].Level, entries[1].Level, entries[2].Level)
	}
	if entries[0].Time.Day() != 5 || entries[0].Time.Month() != time.March {
		t.Errorf("unexpected timestamp: %v", entries[0].Time)
	}
	if entries[0].Key() == entries[1].Key() {
		t.Error("distinct entries must have distinct keys")
	}
}

func TestParseEventLogMalformedLine(t *testing.T) {
	payload := "0^13:42:01^05/03/2024^3^ok" + logEntrySep + "garbage line"

	_, err := ParseEventLog(payload)
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ParseError, got %T: %v", err, err)
	}
	if perr.Entry != 1 {
		t.Errorf("error names entry %d, want 1", perr.Entry)
	}
}
