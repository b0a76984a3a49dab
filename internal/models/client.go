package models

// Client is a device known to the network.
type Client struct {
	ID             string `json:"id"`
	URL            string `json:"url,omitempty"`
	Name           string `json:"name"`
	Nickname       string `json:"nickname,omitempty"`
	Hostname       string `json:"hostname,omitempty"`
	MAC            string `json:"mac,omitempty"`
	IP             string `json:"ip,omitempty"`
	Connected      bool   `json:"connected"`
	Paused         bool   `json:"paused"`
	Guest          bool   `json:"guest"`
	Wireless       bool   `json:"wireless"`
	ConnectionType string `json:"connectionType,omitempty"`

	Signal       string   `json:"signal,omitempty"`
	ScoreBars    *int     `json:"scoreBars,omitempty"`
	Channel      *int     `json:"channel,omitempty"`
	FrequencyMHz *float64 `json:"frequencyMhz,omitempty"`

	DeviceType   string `json:"deviceType,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty"`
	ProfileName  string `json:"profileName,omitempty"`

	DownMbps *float64    `json:"downMbps,omitempty"`
	UpMbps   *float64    `json:"upMbps,omitempty"`
	Usage    UsageTotals `json:"usage"`

	SourceLocation string `json:"sourceLocation,omitempty"`
	SourceURL      string `json:"sourceUrl,omitempty"`
	SourceMAC      string `json:"sourceMac,omitempty"`
}
