package hnap

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Channel tables come back as a two-level delimited string: entries separated
// by "|+|", fields within an entry separated by "^". Entries carry a trailing
// field separator.
const (
	channelEntrySep = "|+|"
	channelFieldSep = "^"
)

const lockedStatus = "Locked"

// Field layouts observed on the device:
//
//	downstream: index^lock^modulation^id^frequency^power^snr^corrected^uncorrectables
//	upstream:   index^lock^modulation^id^width^frequency^power
//
// Firmware updates may append fields; anything past the known layout is
// ignored.
const (
	downstreamFieldCount = 9
	upstreamFieldCount   = 7
)

// DownstreamChannel is one row of the downstream channel table.
type DownstreamChannel struct {
	ChannelID      int     `json:"channel_id"`
	LockStatus     bool    `json:"lock_status"`
	Modulation     string  `json:"modulation"`
	FrequencyHz    uint64  `json:"frequency_hz"`
	PowerDBmV      float64 `json:"power_dbmv"`
	SNRDb          float64 `json:"snr_db"`
	Corrected      uint64  `json:"corrected"`
	Uncorrectables uint64  `json:"uncorrectables"`
}

// UpstreamChannel is one row of the upstream channel table.
type UpstreamChannel struct {
	ChannelID   int     `json:"channel_id"`
	LockStatus  bool    `json:"lock_status"`
	Modulation  string  `json:"modulation"`
	FrequencyHz uint64  `json:"frequency_hz"`
	WidthHz     uint64  `json:"width_hz"`
	PowerDBmV   float64 `json:"power_dbmv"`
}

// ParseDownstreamChannels decodes the downstream channel table. Either every
// row parses or an error names the first bad row; no partial list is ever
// returned.
func ParseDownstreamChannels(payload string) ([]DownstreamChannel, error) {
	entries, err := splitChannelEntries(payload, downstreamFieldCount)
	if err != nil {
		return nil, err
	}

	channels := make([]DownstreamChannel, 0, len(entries))
	for i, fields := range entries {
		id, err := parseIntField(i, "channel_id", fields[3])
		if err != nil {
			return nil, err
		}
		freq, err := parseUintField(i, "frequency", fields[4])
		if err != nil {
			return nil, err
		}
		power, err := parseFloatField(i, "power", fields[5])
		if err != nil {
			return nil, err
		}
		snr, err := parseFloatField(i, "snr", fields[6])
		if err != nil {
			return nil, err
		}
		corrected, err := parseUintField(i, "corrected", fields[7])
		if err != nil {
			return nil, err
		}
		uncorrectables, err := parseUintField(i, "uncorrectables", fields[8])
		if err != nil {
			return nil, err
		}

		channels = append(channels, DownstreamChannel{
			ChannelID:      id,
			LockStatus:     fields[1] == lockedStatus,
			Modulation:     fields[2],
			FrequencyHz:    freq,
			PowerDBmV:      power,
			SNRDb:          snr,
			Corrected:      corrected,
			Uncorrectables: uncorrectables,
		})
	}
	return channels, nil
}

// ParseUpstreamChannels decodes the upstream channel table with the same
// all-or-nothing policy as ParseDownstreamChannels.
func ParseUpstreamChannels(payload string) ([]UpstreamChannel, error) {
	entries, err := splitChannelEntries(payload, upstreamFieldCount)
	if err != nil {
		return nil, err
	}

	channels := make([]UpstreamChannel, 0, len(entries))
	for i, fields := range entries {
		id, err := parseIntField(i, "channel_id", fields[3])
		if err != nil {
			return nil, err
		}
		width, err := parseUintField(i, "width", fields[4])
		if err != nil {
			return nil, err
		}
		freq, err := parseUintField(i, "frequency", fields[5])
		if err != nil {
			return nil, err
		}
		power, err := parseFloatField(i, "power", fields[6])
		if err != nil {
			return nil, err
		}

		channels = append(channels, UpstreamChannel{
			ChannelID:   id,
			LockStatus:  fields[1] == lockedStatus,
			Modulation:  fields[2],
			FrequencyHz: freq,
			WidthHz:     width,
			PowerDBmV:   power,
		})
	}
	return channels, nil
}

// splitChannelEntries splits the two delimiter levels and enforces the
// minimum field count per entry. An empty payload is a valid empty table.
func splitChannelEntries(payload string, want int) ([][]string, error) {
	if strings.TrimSpace(payload) == "" {
		return nil, nil
	}

	raw := strings.Split(payload, channelEntrySep)
	entries := make([][]string, 0, len(raw))
	for i, entry := range raw {
		fields := strings.Split(strings.TrimSuffix(entry, channelFieldSep), channelFieldSep)
		if len(fields) < want {
			return nil, &ParseError{
				Entry:  i,
				Reason: fmt.Sprintf("%d fields, want at least %d", len(fields), want),
			}
		}
		entries = append(entries, fields)
	}
	return entries, nil
}

func parseIntField(entry int, name, value string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, &ParseError{Entry: entry, Field: name, Value: value, Reason: "not an integer"}
	}
	return v, nil
}

func parseUintField(entry int, name, value string) (uint64, error) {
	v, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, &ParseError{Entry: entry, Field: name, Value: value, Reason: "not an unsigned integer"}
	}
	return v, nil
}

func parseFloatField(entry int, name, value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, &ParseError{Entry: entry, Field: name, Value: value, Reason: "not a number"}
	}
	return v, nil
}

var uptimeRE = regexp.MustCompile(`^(\d+) days (\d+)h:(\d+)m:(\d+)s$`)

// ParseUptime parses the modem's "N days HHh:MMm:SSs" uptime rendering.
func ParseUptime(s string) (time.Duration, error) {
	m := uptimeRE.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, &ParseError{Field: "uptime", Value: s, Reason: `does not match "N days HHh:MMm:SSs"`}
	}

	// Submatches are digit-only by construction.
	days, _ := strconv.Atoi(m[1])
	hours, _ := strconv.Atoi(m[2])
	minutes, _ := strconv.Atoi(m[3])
	seconds, _ := strconv.Atoi(m[4])

	return time.Duration(days)*24*time.Hour +
		time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second, nil
}

// ParseSystemTime parses the modem clock, which renders in asctime form
// ("Mon Jan  2 15:04:05 2006"). The modem is assumed to report UTC.
func ParseSystemTime(s string) (time.Time, error) {
	t, err := time.Parse(time.ANSIC, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, &ParseError{Field: "system_time", Value: s, Reason: "not an asctime timestamp"}
	}
	return t.UTC(), nil
}
