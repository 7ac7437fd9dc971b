package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/modem-scraper/modem-scraper-pro/pkg/hnap"
)

// LokiPusher forwards modem event log entries to a Loki push endpoint.
// Entries are grouped into one stream per severity level, with the level
// added to the configured base labels.
type LokiPusher struct {
	client *http.Client
	url    string
	labels map[string]string
}

// NewLokiPusher creates a pusher for the given push URL.
func NewLokiPusher(url string, labels map[string]string) *LokiPusher {
	return &LokiPusher{
		client: &http.Client{Timeout: 10 * time.Second},
		url:    url,
		labels: labels,
	}
}

type lokiStream struct {
	Stream map[string]string `json:"stream"`
	Values [][2]string       `json:"values"`
}

type lokiPayload struct {
	Streams []lokiStream `json:"streams"`
}

// BuildStreams groups entries by level into Loki streams. Exported so the
// grouping can be tested without a live endpoint.
func BuildStreams(labels map[string]string, entries []hnap.LogEntry) lokiPayload {
	byLevel := make(map[string][][2]string)
	for _, e := range entries {
		value := [2]string{strconv.FormatInt(e.Time.UnixNano(), 10), e.Message}
		byLevel[e.Level] = append(byLevel[e.Level], value)
	}

	payload := lokiPayload{Streams: make([]lokiStream, 0, len(byLevel))}
	for level, values := range byLevel {
		stream := make(map[string]string, len(labels)+1)
		for k, v := range labels {
			stream[k] = v
		}
		stream["level"] = level
		payload.Streams = append(payload.Streams, lokiStream{Stream: stream, Values: values})
	}
	return payload
}

// Push sends the entries. An empty batch is a no-op.
func (p *LokiPusher) Push(ctx context.Context, entries []hnap.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	body, err := json.Marshal(BuildStreams(p.labels, entries))
	if err != nil {
		return fmt.Errorf("marshal loki payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build loki request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("push to loki: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("loki returned status %d", resp.StatusCode)
	}
	return nil
}
