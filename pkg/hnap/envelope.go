package hnap

// SOAPDomain prefixes every action name to form the action URI that is both
// signed and sent in the SOAPAction header.
const SOAPDomain = "http://purenetworks.com/HNAP1/"

// Action names understood by the modem.
const (
	ActionLogin         = "Login"
	ActionMultipleHNAPs = "GetMultipleHNAPs"
)

// Result codes the modem returns inside response payloads.
const (
	resultOK           = "OK"
	resultUnauthorized = "UNAUTHORIZED"
)

// Sub-actions batched into one GetMultipleHNAPs stats call.
var statsSubActions = []string{
	"GetArrisDeviceStatus",
	"GetArrisRegisterInfo",
	"GetCustomerStatusStartupSequence",
	"GetCustomerStatusConnectionInfo",
	"GetCustomerStatusDownstreamChannelInfo",
	"GetCustomerStatusUpstreamChannelInfo",
}

// Reply is implemented by every decoded response payload and exposes the
// action's result status field.
type Reply interface {
	resultCode() string
}

// LoginReply carries both handshake steps: the challenge material on the
// first round trip and just the result on the second.
type LoginReply struct {
	Challenge string `json:"Challenge"`
	PublicKey string `json:"PublicKey"`
	Cookie    string `json:"Cookie"`
	Result    string `json:"LoginResult"`
}

func (r *LoginReply) resultCode() string { return r.Result }

// DeviceStatusReply is the GetArrisDeviceStatus payload.
type DeviceStatusReply struct {
	FirmwareVersion       string `json:"FirmwareVersion"`
	InternetConnection    string `json:"InternetConnection"`
	DownstreamFrequency   string `json:"DownstreamFrequency"`
	DownstreamSignalPower string `json:"DownstreamSignalPower"`
	DownstreamSignalSnr   string `json:"DownstreamSignalSnr"`
	Result                string `json:"GetArrisDeviceStatusResult"`
}

func (r *DeviceStatusReply) resultCode() string { return r.Result }

// RegisterInfoReply is the GetArrisRegisterInfo payload.
type RegisterInfoReply struct {
	MACAddress   string `json:"MacAddress"`
	SerialNumber string `json:"SerialNumber"`
	ModelName    string `json:"ModelName"`
	Result       string `json:"GetArrisRegisterInfoResult"`
}

func (r *RegisterInfoReply) resultCode() string { return r.Result }

// StartupSequenceReply is the GetCustomerStatusStartupSequence payload.
type StartupSequenceReply struct {
	DSFreq                   string `json:"CustomerConnDSFreq"`
	DSComment                string `json:"CustomerConnDSComment"`
	ConnectivityStatus       string `json:"CustomerConnConnectivityStatus"`
	ConnectivityComment      string `json:"CustomerConnConnectivityComment"`
	BootStatus               string `json:"CustomerConnBootStatus"`
	BootComment              string `json:"CustomerConnBootComment"`
	ConfigurationFileStatus  string `json:"CustomerConnConfigurationFileStatus"`
	ConfigurationFileComment string `json:"CustomerConnConfigurationFileComment"`
	SecurityStatus           string `json:"CustomerConnSecurityStatus"`
	SecurityComment          string `json:"CustomerConnSecurityComment"`
	Result                   string `json:"GetCustomerStatusStartupSequenceResult"`
}

func (r *StartupSequenceReply) resultCode() string { return r.Result }

// ConnectionInfoReply is the GetCustomerStatusConnectionInfo payload. Uptime
// and system time come back as display strings; ParseUptime and
// ParseSystemTime decode them.
type ConnectionInfoReply struct {
	SystemUpTime  string `json:"CustomerConnSystemUpTime"`
	SystemTime    string `json:"CustomerCurSystemTime"`
	NetworkAccess string `json:"CustomerConnNetworkAccess"`
	Result        string `json:"GetCustomerStatusConnectionInfoResult"`
}

func (r *ConnectionInfoReply) resultCode() string { return r.Result }

// DownstreamChannelReply carries the raw delimited downstream channel table.
type DownstreamChannelReply struct {
	Channels string `json:"CustomerConnDownstreamChannel"`
	Result   string `json:"GetCustomerStatusDownstreamChannelInfoResult"`
}

func (r *DownstreamChannelReply) resultCode() string { return r.Result }

// UpstreamChannelReply carries the raw delimited upstream channel table.
type UpstreamChannelReply struct {
	Channels string `json:"CustomerConnUpstreamChannel"`
	Result   string `json:"GetCustomerStatusUpstreamChannelInfoResult"`
}

func (r *UpstreamChannelReply) resultCode() string { return r.Result }

// MultipleHNAPsReply is the batched stats response.
type MultipleHNAPsReply struct {
	DeviceStatus    DeviceStatusReply      `json:"GetArrisDeviceStatusResponse"`
	RegisterInfo    RegisterInfoReply      `json:"GetArrisRegisterInfoResponse"`
	StartupSequence StartupSequenceReply   `json:"GetCustomerStatusStartupSequenceResponse"`
	ConnectionInfo  ConnectionInfoReply    `json:"GetCustomerStatusConnectionInfoResponse"`
	Downstream      DownstreamChannelReply `json:"GetCustomerStatusDownstreamChannelInfoResponse"`
	Upstream        UpstreamChannelReply   `json:"GetCustomerStatusUpstreamChannelInfoResponse"`
	Result          string                 `json:"GetMultipleHNAPsResult"`
}

func (r *MultipleHNAPsReply) resultCode() string { return r.Result }

// StatusLogReply carries the raw delimited event log.
type StatusLogReply struct {
	Entries string `json:"CustomerStatusLogList"`
	Result  string `json:"GetCustomerStatusLogResult"`
}

func (r *StatusLogReply) resultCode() string { return r.Result }

// MultipleHNAPsLogReply is the batched event log response.
type MultipleHNAPsLogReply struct {
	StatusLog StatusLogReply `json:"GetCustomerStatusLogResponse"`
	Result    string         `json:"GetMultipleHNAPsResult"`
}

func (r *MultipleHNAPsLogReply) resultCode() string { return r.Result }
