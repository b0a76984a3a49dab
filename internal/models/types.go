// Package models holds the cross-referenced domain snapshot produced by the
// engine. Every value here is built fresh on each fetch cycle and is not
// mutated after the snapshot is returned.
package models

import "time"

// AccountSnapshot is the complete result of one fetch cycle.
type AccountSnapshot struct {
	FetchedAt time.Time `json:"fetchedAt"`
	Networks  []Network `json:"networks"`
}

// Traffic is a download/upload byte pair.
type Traffic struct {
	Download int64 `json:"download"`
	Upload   int64 `json:"upload"`
}

// Total returns download plus upload.
func (t Traffic) Total() int64 {
	return t.Download + t.Upload
}

// UsageTotals carries per-period usage. A nil period means no measurement
// was joined, which is distinct from a measured zero.
type UsageTotals struct {
	Day   *Traffic `json:"day,omitempty"`
	Week  *Traffic `json:"week,omitempty"`
	Month *Traffic `json:"month,omitempty"`
}

// Network is one mesh network with its child collections and derived
// summaries.
type Network struct {
	ID            string `json:"id"`
	ExternalID    string `json:"externalId"`
	URL           string `json:"url,omitempty"`
	Name          string `json:"name"`
	Nickname      string `json:"nickname,omitempty"`
	Status        string `json:"status,omitempty"`
	Premium       bool   `json:"premium"`
	PremiumStatus string `json:"premiumStatus,omitempty"`
	GatewayIP     string `json:"gatewayIp,omitempty"`

	GuestNetwork      *GuestNetwork        `json:"guestNetwork,omitempty"`
	Features          NetworkFeatures      `json:"features"`
	DDNS              *DDNS                `json:"ddns,omitempty"`
	Health            *HealthStatus        `json:"health,omitempty"`
	Diagnostics       *DiagnosticsStatus   `json:"diagnostics,omitempty"`
	Updates           *UpdateStatus        `json:"updates,omitempty"`
	SpeedTest         *SpeedTest           `json:"speedTest,omitempty"`
	Support           *SupportInfo         `json:"support,omitempty"`
	Routing           *RoutingConfig       `json:"routing,omitempty"`
	ACCompat          *ACCompatibility     `json:"acCompat,omitempty"`
	Security          *SecurityInfo        `json:"security,omitempty"`
	InsightsAvailable bool                 `json:"insightsAvailable"`
	ThreadDetails     *ThreadDetails       `json:"threadDetails,omitempty"`
	BurstReporter     *BurstReporterStatus `json:"burstReporter,omitempty"`

	Mesh               *MeshSummary               `json:"mesh,omitempty"`
	WirelessCongestion *WirelessCongestion        `json:"wirelessCongestion,omitempty"`
	Activity           *ActivitySummary           `json:"activity,omitempty"`
	Realtime           *RealtimeSummary           `json:"realtime,omitempty"`
	ChannelUtilization *ChannelUtilizationSummary `json:"channelUtilization,omitempty"`
	ProxiedNodes       *ProxiedNodesSummary       `json:"proxiedNodes,omitempty"`

	Clients  []Client  `json:"clients"`
	Profiles []Profile `json:"profiles"`
	Nodes    []Node    `json:"nodes"`
}

// NetworkFeatures holds the feature toggles; nil means the payload did not
// say.
type NetworkFeatures struct {
	AdBlock      *bool `json:"adBlock,omitempty"`
	MalwareBlock *bool `json:"malwareBlock,omitempty"`
	BandSteering *bool `json:"bandSteering,omitempty"`
	UPnP         *bool `json:"upnp,omitempty"`
	WPA3         *bool `json:"wpa3,omitempty"`
	Thread       *bool `json:"thread,omitempty"`
	SQM          *bool `json:"sqm,omitempty"`
	IPv6Upstream *bool `json:"ipv6Upstream,omitempty"`
}

type GuestNetwork struct {
	Enabled bool   `json:"enabled"`
	Name    string `json:"name,omitempty"`
}

type DDNS struct {
	Enabled   bool   `json:"enabled"`
	Subdomain string `json:"subdomain,omitempty"`
}

type HealthStatus struct {
	InternetStatus string `json:"internetStatus,omitempty"`
	ISPUp          *bool  `json:"ispUp,omitempty"`
	NetworkStatus  string `json:"networkStatus,omitempty"`
}

type DiagnosticsStatus struct {
	Status string `json:"status,omitempty"`
}

type UpdateStatus struct {
	HasUpdate      bool   `json:"hasUpdate"`
	TargetFirmware string `json:"targetFirmware,omitempty"`
	Status         string `json:"status,omitempty"`
	ScheduledAt    string `json:"scheduledAt,omitempty"`
}

type SpeedTest struct {
	DownMbps *float64  `json:"downMbps,omitempty"`
	UpMbps   *float64  `json:"upMbps,omitempty"`
	TestedAt time.Time `json:"testedAt,omitempty"`
}

type SupportInfo struct {
	Name       string `json:"name,omitempty"`
	Phone      string `json:"phone,omitempty"`
	ContactURL string `json:"contactUrl,omitempty"`
	HelpURL    string `json:"helpUrl,omitempty"`
}

type RoutingConfig struct {
	Reservations []Reservation `json:"reservations"`
	Forwards     []PortForward `json:"forwards"`
	Pinholes     []Pinhole     `json:"pinholes"`
}

type Reservation struct {
	ID          string `json:"id"`
	MAC         string `json:"mac,omitempty"`
	IP          string `json:"ip,omitempty"`
	Description string `json:"description,omitempty"`
}

type PortForward struct {
	ID          string `json:"id"`
	IP          string `json:"ip,omitempty"`
	Description string `json:"description,omitempty"`
	Protocol    string `json:"protocol,omitempty"`
	GatewayPort *int   `json:"gatewayPort,omitempty"`
	ClientPort  *int   `json:"clientPort,omitempty"`
	Enabled     bool   `json:"enabled"`
}

type Pinhole struct {
	ID          string `json:"id"`
	IP          string `json:"ip,omitempty"`
	Description string `json:"description,omitempty"`
	Protocol    string `json:"protocol,omitempty"`
	Ports       string `json:"ports,omitempty"`
}

type ACCompatibility struct {
	Enabled bool   `json:"enabled"`
	State   string `json:"state,omitempty"`
}

type SecurityInfo struct {
	BlacklistedDevices []string `json:"blacklistedDevices"`
	BlacklistCount     int      `json:"blacklistCount"`
}

type ThreadDetails struct {
	Enabled  bool   `json:"enabled"`
	Name     string `json:"name,omitempty"`
	Channel  *int   `json:"channel,omitempty"`
	PANID    string `json:"panId,omitempty"`
	XPANID   string `json:"xpanId,omitempty"`
	ActiveTS string `json:"activeTimestamp,omitempty"`
}

type BurstReporterStatus struct {
	Enabled bool   `json:"enabled"`
	State   string `json:"state,omitempty"`
	Count   int    `json:"count"`
}

// Profile is a named group of clients (family member, kids, guests...).
type Profile struct {
	ID          string `json:"id"`
	URL         string `json:"url,omitempty"`
	Name        string `json:"name"`
	Paused      bool   `json:"paused"`
	DeviceCount int    `json:"deviceCount"`
}
