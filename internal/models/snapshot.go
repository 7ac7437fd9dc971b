package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/modem-scraper/modem-scraper-pro/pkg/hnap"
)

// Snapshot is the complete result of one scrape cycle. A snapshot is only
// built from a cycle in which every payload parsed; there are no partial
// snapshots.
type Snapshot struct {
	CycleID    uuid.UUID                `json:"cycle_id"`
	ScrapedAt  time.Time                `json:"scraped_at"`
	Device     DeviceInfo               `json:"device"`
	Connection ConnectionInfo           `json:"connection"`
	Startup    []StartupStep            `json:"startup"`
	Downstream []hnap.DownstreamChannel `json:"downstream"`
	Upstream   []hnap.UpstreamChannel   `json:"upstream"`
}

// DeviceInfo identifies the modem and its link state.
type DeviceInfo struct {
	ModelName          string `json:"model_name"`
	SerialNumber       string `json:"serial_number"`
	MACAddress         string `json:"mac_address"`
	FirmwareVersion    string `json:"firmware_version"`
	InternetConnection string `json:"internet_connection"`
}

// ConnectionInfo carries the decoded connection status fields.
type ConnectionInfo struct {
	Uptime        time.Duration `json:"uptime_seconds"`
	SystemTime    time.Time     `json:"system_time"`
	NetworkAccess string        `json:"network_access"`
}

// StartupStep is one row of the modem's DOCSIS startup sequence table.
type StartupStep struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Comment string `json:"comment"`
}
