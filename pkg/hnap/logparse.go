package hnap

import (
	"regexp"
	"strings"
	"time"
)

// LogEntry is one modem event log line.
type LogEntry struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
}

// Key identifies an entry for cross-cycle deduplication. The modem reports a
// sliding window of recent events, so consecutive cycles overlap.
func (e LogEntry) Key() string {
	return e.Time.Format(time.RFC3339) + "|" + e.Message
}

// Event log entries are separated by "}-{" and each line looks like
// 0^HH:MM:SS^DD/MM/YYYY^level^message.
const logEntrySep = "}-{"

var logEntryRE = regexp.MustCompile(`^0\^([:\d]+)\^([/\d]+)\^(\d)\^(.*)$`)

// ParseEventLog decodes the delimited event log payload. Severity codes
// follow syslog: 3=error 4=warn 5=info 6=debug.
func ParseEventLog(payload string) ([]LogEntry, error) {
	if strings.TrimSpace(payload) == "" {
		return nil, nil
	}

	lines := strings.Split(payload, logEntrySep)
	entries := make([]LogEntry, 0, len(lines))
	for i, line := range lines {
		m := logEntryRE.FindStringSubmatch(line)
		if m == nil {
			return nil, &ParseError{Entry: i, Field: "log", Value: line, Reason: "does not match event log format"}
		}

		ts, err := time.Parse("02/01/2006 15:04:05", m[2]+" "+m[1])
		if err != nil {
			return nil, &ParseError{Entry: i, Field: "timestamp", Value: m[2] + " " + m[1], Reason: "invalid date or time"}
		}

		entries = append(entries, LogEntry{
			Time:    ts.UTC(),
			Level:   logLevelName(m[3]),
			Message: m[4],
		})
	}
	return entries, nil
}

func logLevelName(code string) string {
	switch code {
	case "4":
		return "warn"
	case "5":
		return "info"
	case "6":
		return "debug"
	default:
		return "error"
	}
}
